package snapshot

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/woosflex/traceon/internal/codec"
	"github.com/woosflex/traceon/internal/record"
	"github.com/woosflex/traceon/internal/store"
)

func buildStore() *store.Store {
	s := store.New()
	s.Insert("seq1", record.Encoded{
		Kind:     record.KindFasta,
		Sequence: codec.Encode([]byte("ACGTACGTACGT"), codec.Generic),
	})
	s.Insert("read1", record.Encoded{
		Kind:     record.KindFastq,
		Sequence: codec.Encode([]byte("ACGTACGT"), codec.Generic),
		Quality:  codec.Encode([]byte("IIIIIIII"), codec.QualityScore),
	})
	return s
}

func TestV1RoundTrip(t *testing.T) {
	s := buildStore()

	var buf bytes.Buffer
	if err := WriteV1(&buf, s); err != nil {
		t.Fatalf("WriteV1: %v", err)
	}

	restored, format, wasV1, err := Restore(&buf)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !wasV1 {
		t.Error("expected Restore to report v1 provenance")
	}
	if format != record.FormatUnknown {
		t.Errorf("v1 restore format = %v, want FormatUnknown", format)
	}

	if got, ok := restored.Get("seq1"); !ok || got != "ACGTACGTACGT" {
		t.Errorf("seq1 = %q, %v; want ACGTACGTACGT, true", got, ok)
	}
	fq, ok := restored.GetFastq("read1")
	if !ok || fq.Sequence != "ACGTACGT" || fq.Quality != "IIIIIIII" {
		t.Errorf("read1 = %+v, %v; want {ACGTACGT IIIIIIII}, true", fq, ok)
	}
}

func TestV2RoundTrip(t *testing.T) {
	s := buildStore()

	var buf bytes.Buffer
	if err := WriteV2(&buf, s, record.FormatDNAFasta); err != nil {
		t.Fatalf("WriteV2: %v", err)
	}

	restored, format, wasV1, err := Restore(&buf)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if wasV1 {
		t.Error("expected Restore to report v2 provenance")
	}
	if format != record.FormatDNAFasta {
		t.Errorf("v2 restore format = %v, want FormatDNAFasta", format)
	}

	if got, ok := restored.Get("seq1"); !ok || got != "ACGTACGTACGT" {
		t.Errorf("seq1 = %q, %v; want ACGTACGTACGT, true", got, ok)
	}
	fq, ok := restored.GetFastq("read1")
	if !ok || fq.Sequence != "ACGTACGT" || fq.Quality != "IIIIIIII" {
		t.Errorf("read1 = %+v, %v; want {ACGTACGT IIIIIIII}, true", fq, ok)
	}
}

func TestRestoreRejectsUnknownMagic(t *testing.T) {
	buf := bytes.NewBufferString("XXXXgarbage")
	_, _, _, err := Restore(buf)
	if err == nil {
		t.Fatal("expected an error for unrecognized magic bytes")
	}
}

func TestRestoreRejectsBadV1Version(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(magicTRAC)
	buf.WriteByte(99) // invalid version
	_, _, _, err := Restore(&buf)
	if err == nil {
		t.Fatal("expected an error for an unsupported v1 version byte")
	}
}

func TestRestoreRejectsTruncatedInput(t *testing.T) {
	buf := bytes.NewBufferString("TR")
	_, _, _, err := Restore(buf)
	if err == nil {
		t.Fatal("expected an error for truncated magic bytes")
	}
}

// TestRestoreRejectsOversizedLengthPrefix exercises a corrupt v1 snapshot
// whose key-length prefix claims far more data than any real record would,
// and far more than is actually present. Restore must fail cleanly rather
// than attempt a multi-gigabyte allocation.
func TestRestoreRejectsOversizedLengthPrefix(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(magicTRAC)
	buf.WriteByte(v1Version)
	countBuf := make([]byte, 8)
	binary.LittleEndian.PutUint64(countBuf, 1)
	buf.Write(countBuf)

	lenBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBuf, 0xFFFFFFFF)
	buf.Write(lenBuf)
	buf.WriteString("short") // far less data than the claimed length

	_, _, _, err := Restore(&buf)
	if err == nil {
		t.Fatal("expected an error for an oversized length prefix")
	}
}
