// Package arena implements a bump allocator and a sync.Pool of reusable
// arenas, adapted from the teacher's internal/memory package down to the
// domain-agnostic core (Arena, PooledArena) — the teacher's
// ParticleArena/VoxelArena/StreamBuffer/MemoryManager variants were
// 3D-visualization specific and are not carried forward (see DESIGN.md).
//
// internal/ingest creates one PooledArena per parallel ingest call to back
// each worker's positional-read chunk buffer, avoiding one large
// make([]byte, n) per worker.
package arena

import "sync"

// Arena hands out byte slices from one large upfront allocation, reducing
// GC pressure versus many small allocations. Not safe against concurrent
// Alloc/Reset from multiple goroutines without external synchronization
// beyond the mutex already held per call — callers that hand an Arena to
// one goroutine at a time (as internal/ingest does, one per worker) need no
// extra locking of their own.
type Arena struct {
	buffer   []byte
	offset   int
	capacity int
	mu       sync.Mutex
}

// NewArena creates an arena with the given byte capacity.
func NewArena(capacity int) *Arena {
	return &Arena{buffer: make([]byte, capacity), capacity: capacity}
}

// Alloc returns a size-byte slice from the arena, or nil if the arena
// lacks room. Allocations are 8-byte aligned.
func (a *Arena) Alloc(size int) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()

	alignedSize := (size + 7) &^ 7
	if a.offset+alignedSize > a.capacity {
		return nil
	}
	slice := a.buffer[a.offset : a.offset+size]
	a.offset += alignedSize
	return slice
}

// Reset reclaims the arena for reuse without freeing its backing memory.
func (a *Arena) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.offset = 0
}

// Capacity returns the arena's total byte capacity.
func (a *Arena) Capacity() int {
	return a.capacity
}

// PooledArena pools same-size Arenas behind a sync.Pool so repeated
// short-lived allocation bursts (e.g. one per parallel ingest worker) don't
// pay for a fresh backing array every time.
type PooledArena struct {
	pool        sync.Pool
	arenaSize   int
	allocations uint64
	reuses      uint64
	mu          sync.Mutex
}

// NewPooledArena creates a pool of arenas, each sized arenaSize bytes.
func NewPooledArena(arenaSize int) *PooledArena {
	pa := &PooledArena{arenaSize: arenaSize}
	pa.pool = sync.Pool{
		New: func() interface{} {
			pa.mu.Lock()
			pa.allocations++
			pa.mu.Unlock()
			return NewArena(arenaSize)
		},
	}
	return pa
}

// Get retrieves a reset, ready-to-use arena from the pool.
func (pa *PooledArena) Get() *Arena {
	a := pa.pool.Get().(*Arena)
	a.Reset()
	pa.mu.Lock()
	pa.reuses++
	pa.mu.Unlock()
	return a
}

// Put returns an arena to the pool. An arena whose capacity doesn't match
// this pool's arenaSize is dropped rather than pooled.
func (pa *PooledArena) Put(a *Arena) {
	if a.Capacity() != pa.arenaSize {
		return
	}
	pa.pool.Put(a)
}

// Stats reports how many arenas this pool has constructed versus handed
// out from the pool, for ingest telemetry.
func (pa *PooledArena) Stats() (allocations, reuses uint64) {
	pa.mu.Lock()
	defer pa.mu.Unlock()
	return pa.allocations, pa.reuses
}
