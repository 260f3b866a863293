// Package rewind implements a chunked arena allocator with O(1) bulk
// reclamation, registered through the mem dispatch contract.
//
// Allocation bumps a cursor through a list of mapped chunks; Free is a
// no-op by contract. Rewind resets every chunk cursor in one pass,
// reclaiming everything allocated since the previous rewind while keeping
// the chunks mapped for reuse. A second consecutive Rewind trims the
// allocator back to exactly one chunk, bounding the footprint of repeated
// allocate/rewind cycles. Stale pointers after a rewind are not detected
// here; that belongs to safety layers above.
package rewind

import (
	"errors"
	"sync"
	"unsafe"

	"github.com/joshuapare/memkit/internal/align"
	"github.com/joshuapare/memkit/internal/memmap"
	"github.com/joshuapare/memkit/mem"
)

// DefaultChunkSize is used when New is given a zero chunk size.
const DefaultChunkSize = 1 << 20

type chunk struct {
	region memmap.Region
	base   unsafe.Pointer
	size   int64
	off    int64
}

// Allocator is a rewindable arena. Allocate and Free are safe for
// concurrent use with each other; Rewind and Dispose require external
// ordering against in-flight allocations. Obtain one with New, allocate
// through its methods or through the mem handle, and Dispose when done.
type Allocator struct {
	mu        sync.Mutex
	handle    mem.Handle
	chunks    []chunk
	cur       int
	chunkSize int64
	reserved  int64
	rewinds   uint64
	// cleanRewind is set by Rewind and cleared by Allocate; two rewinds
	// with no allocation in between trigger the chunk trim.
	cleanRewind bool
	disposed    bool
}

// New registers a rewindable allocator whose chunks are at least chunkSize
// bytes. chunkSize zero selects DefaultChunkSize.
func New(chunkSize int64) (*Allocator, error) {
	if chunkSize < 0 {
		return nil, ErrChunkSize
	}
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	a := &Allocator{chunkSize: chunkSize}
	h, err := mem.Register(mem.KindRewind, dispatch, a)
	if err != nil {
		return nil, err
	}
	a.handle = h
	return a, nil
}

// dispatch adapts the arena to the registry contract. Every registered
// instance shares this one function; the state argument selects the arena.
func dispatch(state any, b *mem.Block) error {
	a := state.(*Allocator)
	switch {
	case b.IsAlloc():
		ptr, err := a.alloc(b.Size, int64(b.Align))
		if err != nil {
			return err
		}
		b.Ptr = ptr
		return nil
	case b.IsFree():
		b.Ptr = nil // arena semantics: only Rewind reclaims
		return nil
	default:
		return mem.ErrResizeUnsupported
	}
}

// Handle returns the registry handle for this arena. Containers built on
// the handle allocate from the arena without knowing it.
func (a *Allocator) Handle() mem.Handle {
	return a.handle
}

// Allocate returns size bytes at the given alignment. The memory is valid
// until the next Rewind or Dispose.
func (a *Allocator) Allocate(size int64, alignment int) (unsafe.Pointer, error) {
	a.checkLive()
	return mem.Allocate(a.handle, size, alignment)
}

// Free is a no-op by contract; arena memory is reclaimed in bulk.
func (a *Allocator) Free(ptr unsafe.Pointer) error {
	a.checkLive()
	return mem.Free(a.handle, ptr)
}

func (a *Allocator) alloc(size, alignment int64) (unsafe.Pointer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disposed {
		return nil, ErrDisposed
	}
	a.cleanRewind = false

	if len(a.chunks) == 0 {
		if err := a.appendChunk(size); err != nil {
			return nil, err
		}
	}
	for {
		c := &a.chunks[a.cur]
		start := align.Up(c.off, alignment)
		if start+size <= c.size {
			c.off = start + size
			return unsafe.Add(c.base, start), nil
		}
		// Current chunk exhausted: reuse a retained one before mapping.
		if a.cur+1 < len(a.chunks) {
			a.cur++
			continue
		}
		if err := a.appendChunk(size); err != nil {
			return nil, err
		}
		a.cur = len(a.chunks) - 1
	}
}

func (a *Allocator) appendChunk(need int64) error {
	size := a.chunkSize
	if need > size {
		size = need
	}
	r, err := memmap.Map(int(size))
	if err != nil {
		return err
	}
	a.chunks = append(a.chunks, chunk{
		region: r,
		base:   unsafe.Pointer(unsafe.SliceData(r.Bytes())),
		size:   size,
	})
	a.reserved += size
	return nil
}

// Rewind reclaims everything allocated since the previous rewind in one
// O(chunk count) pass. Chunks stay mapped so steady-state cycles reuse
// them. When no allocation happened since the last Rewind, the call also
// trims the arena to a single chunk.
func (a *Allocator) Rewind() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disposed {
		panic(ErrDisposed)
	}

	if a.cleanRewind && len(a.chunks) > 1 {
		kept := a.chunks[:1]
		for _, c := range a.chunks[1:] {
			if err := c.region.Unmap(); err != nil {
				kept = append(kept, c) // failed unmap stays until Dispose
				continue
			}
			a.reserved -= c.size
		}
		a.chunks = kept
	}
	for i := range a.chunks {
		a.chunks[i].off = 0
	}
	a.cur = 0
	a.rewinds++
	a.cleanRewind = true
}

// Dispose unregisters the arena and unmaps its chunks. Idempotent. Any
// handle captured earlier dispatches to mem.ErrInvalidHandle afterwards;
// direct method use panics with ErrDisposed.
func (a *Allocator) Dispose() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disposed {
		return nil
	}
	a.disposed = true

	errs := make([]error, 0, len(a.chunks)+1)
	if err := mem.Unregister(a.handle); err != nil && !errors.Is(err, mem.ErrShutdown) {
		errs = append(errs, err)
	}
	for i := range a.chunks {
		if err := a.chunks[i].region.Unmap(); err != nil {
			errs = append(errs, err)
		}
	}
	a.chunks = nil
	a.cur = 0
	a.reserved = 0
	return errors.Join(errs...)
}

// DisposeAfter releases the arena once done fires, without blocking the
// caller. The conventional done source is the completion of outstanding
// readers and writers.
func (a *Allocator) DisposeAfter(done <-chan struct{}) {
	go func() {
		<-done
		_ = a.Dispose()
	}()
}

// Disposed reports whether the arena has been released.
func (a *Allocator) Disposed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.disposed
}

// ChunkCount returns the number of mapped chunks.
func (a *Allocator) ChunkCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.chunks)
}

// Reserved returns total mapped bytes.
func (a *Allocator) Reserved() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reserved
}

// Used returns bytes handed out since the last rewind.
func (a *Allocator) Used() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	var used int64
	for i := range a.chunks {
		used += a.chunks[i].off
	}
	return used
}

// Stats is a point-in-time snapshot of an arena.
type Stats struct {
	Chunks   int    // mapped chunks
	Reserved int64  // total mapped bytes
	Used     int64  // bytes handed out since the last rewind
	Rewinds  uint64 // lifetime Rewind calls
}

// GetStats returns current arena statistics.
func (a *Allocator) GetStats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := Stats{Chunks: len(a.chunks), Reserved: a.reserved, Rewinds: a.rewinds}
	for i := range a.chunks {
		s.Used += a.chunks[i].off
	}
	return s
}

func (a *Allocator) checkLive() {
	a.mu.Lock()
	disposed := a.disposed
	a.mu.Unlock()
	if disposed {
		panic(ErrDisposed)
	}
}
