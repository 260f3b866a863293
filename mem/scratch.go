package mem

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/joshuapare/memkit/internal/align"
	"github.com/joshuapare/memkit/internal/memmap"
)

// DefaultScratchBytes sizes the scratch region when MEMKIT_SCRATCH_BYTES is
// unset.
const DefaultScratchBytes = 64 << 20

// scratchState backs the Scratch handle: one fixed region consumed by a
// lock-free atomic bump. Free is a no-op by contract; ResetScratch rewinds
// the cursor. The region is mapped on first allocation; after that the
// allocation path takes no lock.
type scratchState struct {
	base     atomic.Pointer[byte]
	off      atomic.Int64
	size     int64
	mu       sync.Mutex // guards mapping and release only
	region   memmap.Region
	released bool
}

func newScratchState() *scratchState {
	size := int64(DefaultScratchBytes)
	if env := os.Getenv("MEMKIT_SCRATCH_BYTES"); env != "" {
		n, err := strconv.ParseInt(env, 10, 64)
		if err != nil || n <= 0 {
			debugLogf("ignoring MEMKIT_SCRATCH_BYTES=%q", env)
		} else {
			size = n
		}
	}
	return &scratchState{size: size}
}

func scratchDispatch(state any, b *Block) error {
	ss := state.(*scratchState)
	switch {
	case b.IsAlloc():
		return ss.alloc(b)
	case b.IsFree():
		b.Ptr = nil // no-op by contract; only ResetScratch reclaims
		return nil
	default:
		return ErrResizeUnsupported
	}
}

func (ss *scratchState) alloc(b *Block) error {
	base := ss.base.Load()
	if base == nil {
		var err error
		base, err = ss.mapRegion()
		if err != nil {
			return err
		}
	}
	for {
		cur := ss.off.Load()
		start := align.Up(cur, int64(b.Align))
		end := start + b.Size
		if end > ss.size {
			return ErrOutOfMemory
		}
		if ss.off.CompareAndSwap(cur, end) {
			b.Ptr = unsafe.Add(unsafe.Pointer(base), start)
			return nil
		}
	}
}

func (ss *scratchState) mapRegion() (*byte, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.released {
		return nil, ErrShutdown
	}
	if p := ss.base.Load(); p != nil {
		return p, nil
	}
	r, err := memmap.Map(int(ss.size))
	if err != nil {
		return nil, fmt.Errorf("mem: scratch region: %w", err)
	}
	ss.region = r
	p := unsafe.SliceData(r.Bytes())
	ss.base.Store(p)
	debugLogf("scratch region mapped (%d bytes)", ss.size)
	return p, nil
}

func (ss *scratchState) reset() {
	ss.off.Store(0)
}

func (ss *scratchState) used() int64 {
	return ss.off.Load()
}

func (ss *scratchState) mapped() int64 {
	if ss.base.Load() == nil {
		return 0
	}
	return ss.size
}

func (ss *scratchState) release() error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.released = true
	ss.base.Store(nil)
	return ss.region.Unmap()
}

// ResetScratch rewinds the scratch cursor to zero, reclaiming everything
// allocated from the Scratch handle in one step. Callers own the proof that
// no scratch allocation is still in use.
func ResetScratch() error {
	if err := ensureOn(); err != nil {
		return err
	}
	reg.mu.RLock()
	ss := reg.scratch
	reg.mu.RUnlock()
	if ss == nil {
		return ErrShutdown
	}
	ss.reset()
	return nil
}
