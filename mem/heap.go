package mem

import (
	"sync"
	"unsafe"

	"github.com/joshuapare/memkit/internal/align"
)

// heapState backs the Persistent handle. Allocations are ordinary Go byte
// slices pinned in a map keyed by their aligned base address; the pin is
// what keeps the collector away while raw pointers circulate. Free unpins.
// Safe for concurrent use.
type heapState struct {
	mu       sync.Mutex
	pins     map[unsafe.Pointer]pinned
	bytes    int64
	allocs   uint64
	frees    uint64
	released bool
}

type pinned struct {
	buf  []byte
	size int64
}

func newHeapState() *heapState {
	return &heapState{pins: make(map[unsafe.Pointer]pinned)}
}

func heapDispatch(state any, b *Block) error {
	hs := state.(*heapState)
	switch {
	case b.IsAlloc():
		return hs.alloc(b)
	case b.IsFree():
		return hs.free(b)
	default:
		return hs.resize(b)
	}
}

func (hs *heapState) alloc(b *Block) error {
	ptr, buf := heapCarve(b.Size, b.Align)

	hs.mu.Lock()
	defer hs.mu.Unlock()
	if hs.released {
		return ErrShutdown
	}
	hs.pins[ptr] = pinned{buf: buf, size: b.Size}
	hs.bytes += b.Size
	hs.allocs++
	b.Ptr = ptr
	return nil
}

func (hs *heapState) free(b *Block) error {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	if hs.released {
		return ErrShutdown
	}
	pn, ok := hs.pins[b.Ptr]
	if !ok {
		return ErrBadFree
	}
	delete(hs.pins, b.Ptr)
	hs.bytes -= pn.size
	hs.frees++
	b.Ptr = nil
	return nil
}

func (hs *heapState) resize(b *Block) error {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	if hs.released {
		return ErrShutdown
	}
	old, ok := hs.pins[b.Ptr]
	if !ok {
		return ErrBadFree
	}

	ptr, buf := heapCarve(b.Size, b.Align)
	n := old.size
	if b.Size < n {
		n = b.Size
	}
	copy(unsafe.Slice((*byte)(ptr), n), unsafe.Slice((*byte)(b.Ptr), n))

	delete(hs.pins, b.Ptr)
	hs.pins[ptr] = pinned{buf: buf, size: b.Size}
	hs.bytes += b.Size - old.size
	hs.allocs++
	hs.frees++
	b.Ptr = ptr
	return nil
}

// releaseAll drops every pin. Outstanding pointers become garbage the
// moment their containers stop referencing them; dispatch reports
// ErrShutdown afterwards.
func (hs *heapState) releaseAll() {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.pins = nil
	hs.bytes = 0
	hs.released = true
}

// heapCarve allocates a zeroed buffer with room to honor the requested
// alignment and returns the aligned base pointer plus the backing slice.
func heapCarve(size int64, alignment int) (unsafe.Pointer, []byte) {
	buf := make([]byte, size+int64(alignment))
	base := unsafe.Pointer(unsafe.SliceData(buf))
	off := align.UpPtr(uintptr(base), uintptr(alignment)) - uintptr(base)
	return unsafe.Add(base, off), buf
}
