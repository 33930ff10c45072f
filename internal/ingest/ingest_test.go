package ingest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/woosflex/traceon/internal/classify"
	"github.com/woosflex/traceon/internal/store"
)

func writeTempFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestIngestFastaSequential(t *testing.T) {
	path := writeTempFile(t, "small.fasta", []byte(">seq1\nACGTACGT\n>seq2\nTTTTGGGG\n"))

	s := store.New()
	res, err := Ingest(path, s)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Parallel {
		t.Error("expected a small file to take the sequential path")
	}
	if res.RecordCount != 2 {
		t.Errorf("RecordCount = %d, want 2", res.RecordCount)
	}
	if got, ok := s.Get("seq1"); !ok || got != "ACGTACGT" {
		t.Errorf("seq1 = %q, %v; want ACGTACGT, true", got, ok)
	}
}

func TestIngestFastqSequential(t *testing.T) {
	path := writeTempFile(t, "small.fastq", []byte("@read1\nACGT\n+\nIIII\n@read2\nTTTT\n+\nJJJJ\n"))

	s := store.New()
	res, err := Ingest(path, s)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.RecordCount != 2 {
		t.Errorf("RecordCount = %d, want 2", res.RecordCount)
	}
	fq, ok := s.GetFastq("read1")
	if !ok || fq.Sequence != "ACGT" || fq.Quality != "IIII" {
		t.Errorf("read1 = %+v, %v; want {ACGT IIII}, true", fq, ok)
	}
}

func TestIngestFastaReportsNoInstrument(t *testing.T) {
	path := writeTempFile(t, "small.fasta", []byte(">seq1\nACGTACGT\n"))
	s := store.New()
	res, err := Ingest(path, s)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Instrument != classify.InstrumentUnknown {
		t.Errorf("Instrument = %v, want InstrumentUnknown for FASTA input", res.Instrument)
	}
	if res.QualityEncoding != classify.QualityPhred33 {
		t.Errorf("QualityEncoding = %v, want QualityPhred33 for FASTA input", res.QualityEncoding)
	}
}

func TestIngestFastqReportsInstrumentAndQuality(t *testing.T) {
	header := "@SRR000001.1:HWI-EAS1:1:1:1:1 length=4"
	path := writeTempFile(t, "small.fastq", []byte(header+"\nACGT\n+\nIIII\n"))
	s := store.New()
	res, err := Ingest(path, s)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Instrument != classify.InstrumentIllumina {
		t.Errorf("Instrument = %v, want InstrumentIllumina", res.Instrument)
	}
	// Every quality byte is 'I' (73), at or above 64, so the byte-range
	// guess reports Phred+64.
	if res.QualityEncoding != classify.QualityPhred64 {
		t.Errorf("QualityEncoding = %v, want QualityPhred64", res.QualityEncoding)
	}
}

// TestIngestFastqSkipsMalformedRecords exercises the recovered-parse-
// failure path (spec §4.1 "logs and skips"): a group with a mismatched
// sequence/quality length is dropped and counted rather than aborting the
// whole ingest.
func TestIngestFastqSkipsMalformedRecords(t *testing.T) {
	path := writeTempFile(t, "mixed.fastq", []byte("@good\nACGT\n+\nIIII\n@bad\nACGTACGT\n+\nIIII\n@good2\nTTTT\n+\nJJJJ\n"))

	s := store.New()
	res, err := Ingest(path, s)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.SkippedCount != 1 {
		t.Errorf("SkippedCount = %d, want 1", res.SkippedCount)
	}
	if res.RecordCount != 2 {
		t.Errorf("RecordCount = %d, want 2", res.RecordCount)
	}
	if _, ok := s.GetFastq("bad"); ok {
		t.Error("expected the length-mismatched record to be skipped, not stored")
	}
}

func TestIngestRejectsEmptyFile(t *testing.T) {
	path := writeTempFile(t, "empty.fasta", []byte(""))
	s := store.New()
	if _, err := Ingest(path, s); err == nil {
		t.Fatal("expected an error for an empty file")
	}
}

func TestIngestRejectsUnknownFormat(t *testing.T) {
	path := writeTempFile(t, "garbage.txt", []byte("not fasta or fastq\nsecond line\n"))
	s := store.New()
	if _, err := Ingest(path, s); err == nil {
		t.Fatal("expected an error for a file with neither '>' nor '@' first byte")
	}
}

// buildLargeFasta constructs an uncompressed FASTA file above the parallel
// threshold so Ingest takes the parallel path, with enough records spread
// across it that boundary discovery must split at least one record's
// sequence away from its header.
func buildLargeFasta(recordCount, seqLen int) []byte {
	var buf bytes.Buffer
	for i := 0; i < recordCount; i++ {
		fmt.Fprintf(&buf, ">seq%06d\n", i)
		for j := 0; j < seqLen; j += 60 {
			end := j + 60
			if end > seqLen {
				end = seqLen
			}
			buf.WriteString(repeatBase(end - j))
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}

func repeatBase(n int) string {
	bases := "ACGT"
	out := make([]byte, n)
	for i := range out {
		out[i] = bases[i%len(bases)]
	}
	return string(out)
}

func buildLargeFastq(recordCount, seqLen int) []byte {
	var buf bytes.Buffer
	for i := 0; i < recordCount; i++ {
		seq := repeatBase(seqLen)
		qual := make([]byte, seqLen)
		for j := range qual {
			qual[j] = 'I'
		}
		fmt.Fprintf(&buf, "@read%06d\n%s\n+\n%s\n", i, seq, qual)
	}
	return buf.Bytes()
}

func TestIngestParallelFastaMatchesSequential(t *testing.T) {
	data := buildLargeFasta(4000, 300) // comfortably above the 1 MiB floor
	if len(data) < int(parallelThreshold) {
		t.Fatalf("test fixture too small to exercise the parallel path: %d bytes", len(data))
	}

	path := writeTempFile(t, "large.fasta", data)

	parallelStore := store.New()
	parallelRes, err := Ingest(path, parallelStore)
	if err != nil {
		t.Fatalf("parallel Ingest: %v", err)
	}
	if !parallelRes.Parallel {
		t.Fatal("expected the large file to take the parallel path")
	}

	sequentialStore := store.New()
	seqRes, err := ingestSequential(path, false, sequentialStore)
	if err != nil {
		t.Fatalf("sequential ingest: %v", err)
	}

	if parallelRes.RecordCount != seqRes.RecordCount {
		t.Fatalf("record count mismatch: parallel=%d sequential=%d", parallelRes.RecordCount, seqRes.RecordCount)
	}

	for i := 0; i < 4000; i++ {
		key := fmt.Sprintf("seq%06d", i)
		want, ok := sequentialStore.Get(key)
		if !ok {
			t.Fatalf("sequential store missing key %q", key)
		}
		got, ok := parallelStore.Get(key)
		if !ok {
			t.Fatalf("parallel store missing key %q", key)
		}
		if got != want {
			t.Fatalf("key %q: parallel=%q sequential=%q", key, got, want)
		}
	}
}

func TestIngestParallelFastqMatchesSequential(t *testing.T) {
	data := buildLargeFastq(3000, 300)
	if len(data) < int(parallelThreshold) {
		t.Fatalf("test fixture too small to exercise the parallel path: %d bytes", len(data))
	}

	path := writeTempFile(t, "large.fastq", data)

	parallelStore := store.New()
	parallelRes, err := Ingest(path, parallelStore)
	if err != nil {
		t.Fatalf("parallel Ingest: %v", err)
	}
	if !parallelRes.Parallel {
		t.Fatal("expected the large file to take the parallel path")
	}

	sequentialStore := store.New()
	seqRes, err := ingestSequential(path, true, sequentialStore)
	if err != nil {
		t.Fatalf("sequential ingest: %v", err)
	}

	if parallelRes.RecordCount != seqRes.RecordCount {
		t.Fatalf("record count mismatch: parallel=%d sequential=%d", parallelRes.RecordCount, seqRes.RecordCount)
	}

	for i := 0; i < 3000; i++ {
		key := fmt.Sprintf("read%06d", i)
		want, ok := sequentialStore.GetFastq(key)
		if !ok {
			t.Fatalf("sequential store missing key %q", key)
		}
		got, ok := parallelStore.GetFastq(key)
		if !ok {
			t.Fatalf("parallel store missing key %q", key)
		}
		if got != want {
			t.Fatalf("key %q: parallel=%+v sequential=%+v", key, got, want)
		}
	}
}
