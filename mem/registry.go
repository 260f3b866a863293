package mem

import (
	"errors"
	"sync"
	"unsafe"

	"github.com/joshuapare/memkit/internal/align"
)

// DispatchFunc is the single entry point of a registered allocator. state is
// the opaque instance state captured at registration; b is mutated in place.
// A nil return is success; failures are the sentinel errors of this package
// or allocator-specific ones wrapping them.
type DispatchFunc func(state any, b *Block) error

// defaultAlign is applied when a block carries Align == 0.
const defaultAlign = 8

// Fixed slots of the built-in allocators.
const (
	slotNone    = 0
	slotScratch = 1
	slotHeap    = 2

	reservedSlots = 3
	maxSlots      = 1 << 16
)

type dispatchEntry struct {
	fn      DispatchFunc
	state   any
	kind    Kind
	version uint32
	live    bool
}

type registryPhase int

const (
	phaseNew registryPhase = iota // never initialized; first use initializes
	phaseOn
	phaseOff // explicitly shut down; dispatch fails until Initialize
)

// The process-wide registry. A lazily-constructed singleton with an
// explicit, test-visible teardown (Shutdown).
var reg struct {
	mu      sync.RWMutex
	phase   registryPhase
	entries []dispatchEntry
	free    []uint16
	// nextVersion persists across Shutdown/Initialize cycles so a handle
	// from a previous epoch can never match a recycled slot.
	nextVersion []uint32
	heap        *heapState
	scratch     *scratchState
}

// Initialize installs the built-in allocators and opens the registry for
// dispatch. Idempotent. Called implicitly by the first dispatch of a
// process that never called Shutdown.
func Initialize() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	initializeLocked()
}

func initializeLocked() {
	if reg.phase == phaseOn {
		return
	}
	reg.entries = reg.entries[:0]
	reg.free = reg.free[:0]

	reg.heap = newHeapState()
	reg.scratch = newScratchState()

	reg.entries = append(reg.entries,
		dispatchEntry{fn: noneDispatch, kind: KindNone, version: 1, live: true},
		dispatchEntry{fn: scratchDispatch, state: reg.scratch, kind: KindScratch, version: 1, live: true},
		dispatchEntry{fn: heapDispatch, state: reg.heap, kind: KindHeap, version: 1, live: true},
	)
	for len(reg.nextVersion) < reservedSlots {
		reg.nextVersion = append(reg.nextVersion, 1)
	}

	reg.phase = phaseOn
	debugLogf("registry initialized")
}

// Shutdown tears the registry down: every live entry is invalidated, heap
// pins are dropped, and the scratch region is unmapped. Dispatching between
// Shutdown and the next Initialize fails with ErrShutdown. Primarily for
// tests and orderly process exit.
func Shutdown() error {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.phase != phaseOn {
		reg.phase = phaseOff
		return nil
	}

	for i := range reg.entries {
		reg.entries[i].live = false
		reg.entries[i].fn = nil
		reg.entries[i].state = nil
	}

	var errs []error
	if reg.heap != nil {
		reg.heap.releaseAll()
		reg.heap = nil
	}
	if reg.scratch != nil {
		if err := reg.scratch.release(); err != nil {
			errs = append(errs, err)
		}
		reg.scratch = nil
	}

	reg.phase = phaseOff
	debugLogf("registry shut down")
	return errors.Join(errs...)
}

// ensureOn opens the registry on first use and rejects dispatch after an
// explicit Shutdown.
func ensureOn() error {
	reg.mu.RLock()
	phase := reg.phase
	reg.mu.RUnlock()
	switch phase {
	case phaseOn:
		return nil
	case phaseOff:
		return ErrShutdown
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.phase == phaseOff {
		return ErrShutdown
	}
	initializeLocked()
	return nil
}

// Register inserts a dispatch entry and returns a versioned handle for it.
// kind must be KindRewind or at least KindFirstCustom; the built-in kinds
// are not open for registration. The registered allocator declares and
// honors its own thread-safety discipline.
func Register(kind Kind, fn DispatchFunc, state any) (Handle, error) {
	if fn == nil {
		return Handle{}, ErrNilDispatch
	}
	if kind != KindRewind && kind < KindFirstCustom {
		return Handle{}, ErrBadKind
	}
	if err := ensureOn(); err != nil {
		return Handle{}, err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.phase != phaseOn {
		return Handle{}, ErrShutdown
	}

	var slot uint16
	if n := len(reg.free); n > 0 {
		slot = reg.free[n-1]
		reg.free = reg.free[:n-1]
	} else {
		if len(reg.entries) >= maxSlots {
			return Handle{}, ErrRegistryFull
		}
		slot = uint16(len(reg.entries))
		reg.entries = append(reg.entries, dispatchEntry{})
	}

	for int(slot) >= len(reg.nextVersion) {
		reg.nextVersion = append(reg.nextVersion, 0)
	}
	version := reg.nextVersion[slot] + 1
	reg.nextVersion[slot] = version

	reg.entries[slot] = dispatchEntry{fn: fn, state: state, kind: kind, version: version, live: true}
	h := Handle{kind: kind, slot: slot, version: version}
	debugLogf("registered %s", h)
	return h, nil
}

// Unregister removes the entry behind h and bumps the slot generation, so
// any handle captured before unregistration dispatches to ErrInvalidHandle
// instead of silently reusing the slot.
func Unregister(h Handle) error {
	if err := ensureOn(); err != nil {
		return err
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.phase != phaseOn {
		return ErrShutdown
	}
	if int(h.slot) >= len(reg.entries) {
		return ErrInvalidHandle
	}
	if h.slot < reservedSlots {
		return ErrBuiltin
	}
	e := &reg.entries[h.slot]
	if !e.live || e.version != h.version || e.kind != h.kind {
		return ErrInvalidHandle
	}
	e.live = false
	e.fn = nil
	e.state = nil
	reg.free = append(reg.free, h.slot)
	debugLogf("unregistered %s", h)
	return nil
}

// Try dispatches one Block through the allocator behind h. It is the
// universal alloc/free/resize call: see Block for the request encoding.
// The dispatch function runs outside the registry lock, so a concurrent
// Unregister of the same handle is the caller's race to avoid.
func Try(h Handle, b *Block) error {
	if b.Ptr == nil && b.Size == 0 {
		return nil // free(nil)
	}
	if b.Size < 0 {
		return ErrBadSize
	}
	if b.Align == 0 {
		b.Align = defaultAlign
	}
	if !align.IsPow2(int64(b.Align)) || b.Align > align.MaxAlign {
		return ErrBadAlign
	}
	if err := ensureOn(); err != nil {
		return err
	}

	reg.mu.RLock()
	if reg.phase != phaseOn {
		reg.mu.RUnlock()
		return ErrShutdown
	}
	if int(h.slot) >= len(reg.entries) {
		reg.mu.RUnlock()
		return ErrInvalidHandle
	}
	e := reg.entries[h.slot]
	reg.mu.RUnlock()

	if !e.live || e.version != h.version || e.kind != h.kind {
		return ErrInvalidHandle
	}

	b.Handle = h
	err := e.fn(e.state, b)
	traceDispatch(h, b, err)
	return err
}

// Allocate requests size bytes at the given alignment from h. A zero size
// returns a nil pointer and no error.
func Allocate(h Handle, size int64, alignment int) (unsafe.Pointer, error) {
	if size == 0 {
		return nil, nil
	}
	b := Block{Size: size, Align: alignment, Handle: h}
	if err := Try(h, &b); err != nil {
		return nil, err
	}
	return b.Ptr, nil
}

// Free returns the allocation at ptr to h. Freeing nil is a no-op.
func Free(h Handle, ptr unsafe.Pointer) error {
	if ptr == nil {
		return nil
	}
	b := Block{Ptr: ptr, Handle: h}
	return Try(h, &b)
}

// AllocBytes allocates n bytes from h and returns them as a slice at the
// default alignment.
func AllocBytes(h Handle, n int64) ([]byte, error) {
	ptr, err := Allocate(h, n, defaultAlign)
	if err != nil {
		return nil, err
	}
	if ptr == nil {
		return nil, nil
	}
	return unsafe.Slice((*byte)(ptr), n), nil
}

// noneDispatch backs the None handle: freeing nil is tolerated upstream in
// Try, everything else is rejected.
func noneDispatch(_ any, _ *Block) error {
	return ErrNoneAllocator
}
