// Package traceon implements an in-memory FASTA/FASTQ sequence cache: a
// thread-safe keyed store fed by a parallel-aware ingest pipeline, with a
// type-tagged compressed payload encoding and a binary snapshot format for
// persistence.
//
// Cache is the root façade the rest of the packages wire together, in the
// same spirit as the teacher's NewCollabServer: a single constructor
// returning one handle a caller drives without reaching into internal/*
// directly.
package traceon

import (
	"io"
	"sync"

	"github.com/woosflex/traceon/internal/ingest"
	"github.com/woosflex/traceon/internal/record"
	"github.com/woosflex/traceon/internal/snapshot"
	"github.com/woosflex/traceon/internal/store"
)

// Cache is the public handle: one keyed store, the detected format derived
// from the first ingested record, and enough provenance to pick the right
// snapshot layout on Save.
type Cache struct {
	mu     sync.RWMutex
	store  *store.Store
	format record.Format

	// everSet is true once Set has been called at least once. Save writes
	// v1 "TRAC" when true, v2 "SMRT" otherwise (spec §4.8 save dispatch:
	// a cache mixing set and file ingest still round-trips via v1, since
	// v1's per-record type tag already carries everything v2 would need).
	everSet bool
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{store: store.New()}
}

// Ingest parses path (FASTA or FASTQ, optionally gzip-compressed) and merges
// every well-formed record into the cache, choosing the sequential or
// parallel path per internal/ingest's mode selection. It never marks the
// cache as set-populated: Save after a pure-ingest workload writes v2.
func (c *Cache) Ingest(path string) (ingest.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := ingest.Ingest(path, c.store)
	if err != nil {
		return ingest.Result{}, err
	}
	c.format = res.Format
	return res, nil
}

// Set stores value under key via the keyed-store path (spec §4.7 Generic
// hint). A cache that has ever seen a Set call writes v1 snapshots.
func (c *Cache) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Set(key, value)
	c.everSet = true
}

// Get returns the decoded sequence for key, or ("", false) if absent.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Get(key)
}

// GetFastq returns the decoded sequence/quality pair for key, or (_, false)
// if absent or the stored record is not FASTQ-shaped.
func (c *Cache) GetFastq(key string) (store.FastqRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.GetFastq(key)
}

// Size returns the current record count. The cache's lock serializes it
// against Ingest and Set, so it sees either none or all of one such call.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Size()
}

// StoredSize returns the number of bytes the encoded payload(s) for key
// occupy, or 0 if absent.
func (c *Cache) StoredSize(key string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.StoredSize(key)
}

// TotalBytes returns the running total of encoded payload bytes across
// every stored record (spec §4.9's per-key stored_size, aggregated).
func (c *Cache) TotalBytes() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.TotalBytes()
}

// EachEncoded walks every stored record's raw encoded payload bytes. It
// exists for the optional Redis mirror sidecar (internal/mirror), which
// write-mirrors encoded bytes rather than decoded sequences; nothing in
// the core calls it. Iteration order is undefined, matching store.Each.
func (c *Cache) EachEncoded(fn func(id string, sequence, quality []byte)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.store.Each(func(key string, v record.Encoded) {
		fn(key, v.Sequence, v.Quality)
	})
}

// DetectedFormat returns the process-wide format derived from the first
// record stored after the most recent Ingest, or FormatUnknown if the cache
// was only ever populated via Set or never populated at all.
func (c *Cache) DetectedFormat() record.Format {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.format
}

// Save writes a binary snapshot of the cache to w. The layout follows spec
// §4.8's save dispatch: v1 "TRAC" if the cache has ever been populated via
// Set, v2 "SMRT" otherwise.
func (c *Cache) Save(w io.Writer) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.everSet {
		return snapshot.WriteV1(w, c.store)
	}
	return snapshot.WriteV2(w, c.store, c.format)
}

// Restore replaces the cache's contents in place from r, auto-detecting the
// v1/v2 layout by magic bytes. On failure the cache is left empty rather
// than partially populated (spec §7: a corrupt snapshot must not leave the
// cache in an inconsistent state).
func (c *Cache) Restore(r io.Reader) error {
	s, format, wasV1, err := snapshot.Restore(r)
	if err != nil {
		c.mu.Lock()
		c.store.Reset()
		c.format = record.FormatUnknown
		c.everSet = false
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = s
	c.format = format
	c.everSet = wasV1
	return nil
}
