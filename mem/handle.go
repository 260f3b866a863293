package mem

import "fmt"

// Kind tags the allocation strategy behind a handle. Built-in kinds differ
// in semantics, not mechanism: every kind is dispatched through the same
// registry contract.
type Kind uint16

const (
	// KindInvalid is the zero kind. Handles carrying it never dispatch.
	KindInvalid Kind = iota

	// KindNone is a registered kind that rejects every allocation.
	KindNone

	// KindScratch is the short-lived bump region. Individual Free is a
	// documented no-op; only ResetScratch reclaims.
	KindScratch

	// KindHeap is the heap-backed persistent kind with true per-allocation
	// free.
	KindHeap

	// KindRewind tags rewindable arena instances registered by the rewind
	// package.
	KindRewind

	// KindFirstCustom is the first kind value available to user-registered
	// allocators.
	KindFirstCustom Kind = 64
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNone:
		return "none"
	case KindScratch:
		return "scratch"
	case KindHeap:
		return "heap"
	case KindRewind:
		return "rewind"
	}
	if k >= KindFirstCustom {
		return fmt.Sprintf("custom(%d)", uint16(k))
	}
	return fmt.Sprintf("kind(%d)", uint16(k))
}

// Handle is a versioned reference to a registered allocator. Handles are
// plain values: comparable, copyable, and safe to embed in containers. The
// zero value is invalid. A handle captured before its slot was unregistered
// dispatches to ErrInvalidHandle rather than silently hitting whatever
// reused the slot.
type Handle struct {
	kind    Kind
	slot    uint16
	version uint32
}

// Built-in handles. Valid for the life of the process; dispatching through
// them after Shutdown fails with ErrShutdown until the next Initialize.
var (
	// None rejects every allocation. The conventional handle for
	// containers that do not own memory.
	None = Handle{kind: KindNone, slot: slotNone, version: 1}

	// Scratch bump-allocates from a fixed region. Free is a no-op.
	Scratch = Handle{kind: KindScratch, slot: slotScratch, version: 1}

	// Persistent allocates from the Go heap with per-allocation free.
	Persistent = Handle{kind: KindHeap, slot: slotHeap, version: 1}
)

// Kind returns the allocator kind tag.
func (h Handle) Kind() Kind { return h.kind }

// Slot returns the registry slot index.
func (h Handle) Slot() int { return int(h.slot) }

// Version returns the slot generation this handle was issued under.
func (h Handle) Version() uint32 { return h.version }

// Valid reports whether the handle was ever issued. It does not check
// liveness; dispatch does.
func (h Handle) Valid() bool { return h.kind != KindInvalid }

// IsCustom reports whether the handle refers to a registered instance
// rather than a fixed built-in.
func (h Handle) IsCustom() bool { return h.slot >= reservedSlots }

func (h Handle) String() string {
	return fmt.Sprintf("%s#%d.v%d", h.kind, h.slot, h.version)
}
