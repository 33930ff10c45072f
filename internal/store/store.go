// Package store implements TracEon's thread-safe keyed store (spec §4.9):
// concurrent insert during ingest, thread-safe lookup afterward, decoding
// payloads on demand to keep the resident memory footprint low.
//
// The store is sharded by xxhash of the key to reduce lock contention
// across parallel ingest workers (spec §5: writers acquire an exclusive
// lock, readers must never observe a half-written FASTQ record). Sharding
// does not change the single shared logical store the spec describes —
// it is purely an internal contention-reduction detail. Iteration order,
// and the winner of a duplicate-key race across shards' insert calls, are
// both undefined, matching spec §5's documented non-determinism.
package store

import (
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/woosflex/traceon/internal/codec"
	"github.com/woosflex/traceon/internal/record"
)

const shardCount = 32

type shard struct {
	mu   sync.RWMutex
	data map[string]record.Encoded
}

// Store is TracEon's thread-safe keyed store.
type Store struct {
	shards     [shardCount]*shard
	count      int64 // atomic
	storedSize int64 // atomic, running total of encoded payload bytes
}

// New creates an empty Store.
func New() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i] = &shard{data: make(map[string]record.Encoded)}
	}
	return s
}

func (s *Store) shardFor(key string) *shard {
	h := xxhash.Sum64String(key)
	return s.shards[h%shardCount]
}

func payloadSize(v record.Encoded) int64 {
	return int64(len(v.Sequence) + len(v.Quality))
}

// Insert stores an already-encoded record under key, overwriting any
// existing value silently (spec §4.1 merge semantics, §3 duplicate-id
// behavior). The record is constructed fully by the caller before
// Insert is called so readers never observe a half-written FASTQ pair.
func (s *Store) Insert(key string, v record.Encoded) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	old, existed := sh.data[key]
	sh.data[key] = v
	sh.mu.Unlock()

	if existed {
		atomic.AddInt64(&s.storedSize, payloadSize(v)-payloadSize(old))
	} else {
		atomic.AddInt64(&s.count, 1)
		atomic.AddInt64(&s.storedSize, payloadSize(v))
	}
}

// Set encodes value via the Generic hint and stores it as a FASTA-shaped
// record (spec §4.9 set op).
func (s *Store) Set(key, value string) {
	s.Insert(key, record.Encoded{
		Kind:     record.KindFasta,
		Sequence: codec.Encode([]byte(value), codec.Generic),
	})
}

// Get returns the decoded sequence for key, or ("", false) if absent.
// Spec §7 flags the historical API ambiguity of collapsing "absent" into
// an empty string; this Store returns an explicit ok instead (spec §9
// "a reimplementation should return an optional").
func (s *Store) Get(key string) (string, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	v, ok := sh.data[key]
	sh.mu.RUnlock()
	if !ok {
		return "", false
	}
	return string(codec.Decode(v.Sequence)), true
}

// FastqRecord is the decoded {sequence, quality} pair GetFastq returns.
type FastqRecord struct {
	Sequence string
	Quality  string
}

// GetFastq returns the decoded sequence/quality pair for key, or
// (_, false) if absent or if the stored record is not FASTQ-shaped.
func (s *Store) GetFastq(key string) (FastqRecord, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	v, ok := sh.data[key]
	sh.mu.RUnlock()
	if !ok || v.Kind != record.KindFastq {
		return FastqRecord{}, false
	}
	return FastqRecord{
		Sequence: string(codec.Decode(v.Sequence)),
		Quality:  string(codec.Decode(v.Quality)),
	}, true
}

// Size returns the current key count. It is a snapshot: it may race with
// concurrent writers (spec §4.9).
func (s *Store) Size() int {
	return int(atomic.LoadInt64(&s.count))
}

// StoredSize returns the number of bytes the encoded payload(s) for key
// occupy, or 0 if key is absent.
func (s *Store) StoredSize(key string) int {
	sh := s.shardFor(key)
	sh.mu.RLock()
	v, ok := sh.data[key]
	sh.mu.RUnlock()
	if !ok {
		return 0
	}
	return int(payloadSize(v))
}

// TotalBytes returns the running total of encoded payload bytes across
// every stored record, maintained incrementally on Insert/Reset rather
// than summed on every call. A snapshot: it may race with concurrent
// writers, same as Size.
func (s *Store) TotalBytes() int64 {
	return atomic.LoadInt64(&s.storedSize)
}

// Each walks every stored (key, value) pair. Iteration order is
// undefined. Intended for the snapshot writer; fn must not call back into
// the Store's mutating methods.
func (s *Store) Each(fn func(key string, v record.Encoded)) {
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k, v := range sh.data {
			fn(k, v)
		}
		sh.mu.RUnlock()
	}
}

// Reset clears the store in place. Cache.Restore uses it to empty the
// cache when a restore fails; a successful restore swaps in a new Store.
func (s *Store) Reset() {
	for _, sh := range s.shards {
		sh.mu.Lock()
		sh.data = make(map[string]record.Encoded)
		sh.mu.Unlock()
	}
	atomic.StoreInt64(&s.count, 0)
	atomic.StoreInt64(&s.storedSize, 0)
}
