package traceon

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestIngestFasta(t *testing.T) {
	path := writeTempFile(t, "s1.fasta", ">seq1 desc\nGATTACA\n>seq2\nCGCGCGCGCGCGCGCGCGCGCGCGCGCG\n")

	c := New()
	if _, err := c.Ingest(path); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if got := c.Size(); got != 2 {
		t.Errorf("Size() = %d, want 2", got)
	}
	if got, ok := c.Get("seq1"); !ok || got != "GATTACA" {
		t.Errorf("Get(seq1) = %q, %v; want GATTACA, true", got, ok)
	}
	if got, ok := c.Get("seq2"); !ok || got != "CGCGCGCGCGCGCGCGCGCGCGCGCGCG" {
		t.Errorf("Get(seq2) = %q, %v; want CGCGCGCGCGCGCGCGCGCGCGCGCGCG, true", got, ok)
	}
}

func TestIngestFastq(t *testing.T) {
	path := writeTempFile(t, "s2.fastq", "@seq1\nGATTACA\n+\n!''*.~~\n@seq2\nTTAACCGG\n+\n!''*+,-.\n")

	c := New()
	if _, err := c.Ingest(path); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if got := c.Size(); got != 2 {
		t.Errorf("Size() = %d, want 2", got)
	}
	rec, ok := c.GetFastq("seq1")
	if !ok || rec.Sequence != "GATTACA" || rec.Quality != "!''*.~~" {
		t.Errorf("GetFastq(seq1) = %+v, %v; want {GATTACA !''*.~~}, true", rec, ok)
	}
	rec2, ok := c.GetFastq("seq2")
	if !ok || rec2.Sequence != "TTAACCGG" || rec2.Quality != "!''*+,-." {
		t.Errorf("GetFastq(seq2) = %+v, %v; want {TTAACCGG !''*+,-.}, true", rec2, ok)
	}
}

func TestSetStoredSize(t *testing.T) {
	c := New()
	c.Set("k", "GATTACA")

	// 1 tag byte + 8-byte nucleotide header + ceil(7/4)=2 packed bytes, no N
	// positions: 11 bytes.
	if got := c.StoredSize("k"); got != 11 {
		t.Errorf("StoredSize(k) = %d, want 11", got)
	}
	if got, ok := c.Get("k"); !ok || got != "GATTACA" {
		t.Errorf("Get(k) = %q, %v; want GATTACA, true", got, ok)
	}
}

func TestQualityEncodedLength(t *testing.T) {
	// FFFFHHHHIIIIJJJJ runs to 4 (count,byte) pairs: 1 tag + 8 bytes = 9.
	// Verified through a FASTQ ingest rather than a standalone codec call,
	// since Cache deliberately doesn't expose the codec directly (see
	// SPEC_FULL.md §1).
	path := writeTempFile(t, "q.fastq", "@r\nACGTACGTACGTACGT\n+\nFFFFHHHHIIIIJJJJ\n")
	c := New()
	if _, err := c.Ingest(path); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	// sequence (16 nt, no N): 1+8+4=13 bytes; quality: 1+8=9 bytes.
	if got := c.StoredSize("r"); got != 13+9 {
		t.Errorf("StoredSize(r) = %d, want %d", got, 13+9)
	}
}

func TestTotalBytes(t *testing.T) {
	c := New()
	if got := c.TotalBytes(); got != 0 {
		t.Fatalf("TotalBytes() on empty cache = %d, want 0", got)
	}
	c.Set("k1", "GATTACA")
	c.Set("k2", "CGCGCGCG")
	want := int64(c.StoredSize("k1") + c.StoredSize("k2"))
	if got := c.TotalBytes(); got != want {
		t.Errorf("TotalBytes() = %d, want %d", got, want)
	}
}

func TestSaveRestoreViaSet(t *testing.T) {
	c := New()
	c.Set("k1", "GATTACA")
	c.Set("k2", "CGCGCGCG")

	var buf bytes.Buffer
	if err := c.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("TRAC")) {
		t.Fatalf("expected a set-populated cache to save as v1 TRAC, got prefix %q", buf.Bytes()[:4])
	}

	restored := New()
	if err := restored.Restore(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if got, ok := restored.Get("k1"); !ok || got != "GATTACA" {
		t.Errorf("restored Get(k1) = %q, %v; want GATTACA, true", got, ok)
	}
	if got, ok := restored.Get("k2"); !ok || got != "CGCGCGCG" {
		t.Errorf("restored Get(k2) = %q, %v; want CGCGCGCG, true", got, ok)
	}

	var buf2 bytes.Buffer
	if err := restored.Save(&buf2); err != nil {
		t.Fatalf("re-Save: %v", err)
	}
	if !bytes.HasPrefix(buf2.Bytes(), []byte("TRAC")) {
		t.Error("expected restored-from-v1 cache to still save as v1")
	}
}

func TestSaveRestoreViaIngest(t *testing.T) {
	path := writeTempFile(t, "ingest.fasta", ">seq1\nGATTACA\n>seq2\nCGCGCGCG\n")

	c := New()
	if _, err := c.Ingest(path); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	var buf bytes.Buffer
	if err := c.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("SMRT")) {
		t.Fatalf("expected an ingest-populated cache to save as v2 SMRT, got prefix %q", buf.Bytes()[:4])
	}

	restored := New()
	if err := restored.Restore(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if got, ok := restored.Get("seq1"); !ok || got != "GATTACA" {
		t.Errorf("restored Get(seq1) = %q, %v; want GATTACA, true", got, ok)
	}
	if got, ok := restored.Get("seq2"); !ok || got != "CGCGCGCG" {
		t.Errorf("restored Get(seq2) = %q, %v; want CGCGCGCG, true", got, ok)
	}
	if restored.DetectedFormat() != c.DetectedFormat() {
		t.Errorf("restored format %v != original format %v", restored.DetectedFormat(), c.DetectedFormat())
	}
}

func TestRestoreFailureLeavesCacheEmpty(t *testing.T) {
	c := New()
	c.Set("k1", "ACGT")

	err := c.Restore(bytes.NewReader([]byte("XXXXgarbage")))
	if err == nil {
		t.Fatal("expected an error for a corrupt snapshot")
	}
	if got := c.Size(); got != 0 {
		t.Errorf("Size() after failed restore = %d, want 0", got)
	}
	if _, ok := c.Get("k1"); ok {
		t.Error("expected k1 to be gone after a failed restore")
	}
}

func TestGetFastqOnFastaCacheReturnsFalse(t *testing.T) {
	c := New()
	c.Set("k1", "ACGT")
	if _, ok := c.GetFastq("k1"); ok {
		t.Error("expected GetFastq on a FASTA-shaped record to report false")
	}
}

func TestGetMissingKey(t *testing.T) {
	c := New()
	if _, ok := c.Get("nope"); ok {
		t.Error("expected ok=false for a missing key")
	}
}
