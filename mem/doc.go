// Package mem provides the polymorphic allocator substrate the memkit
// containers are built on.
//
// # Overview
//
// Every memory-owning structure in this module allocates through a single
// process-wide registry. A registered allocator is a dispatch function plus
// opaque instance state; callers hold a small versioned Handle and never see
// the allocator behind it. Any container written against Allocate/Free/Try
// works unmodified against any registered kind: the built-in heap, the
// scratch bump region, a rewindable arena, or a user-defined allocator.
//
// # Allocator Kinds
//
// Three built-ins are always registered:
//
//   - None: rejects every allocation; the conventional handle for borrowed
//     or zero-footprint containers.
//   - Scratch: a fixed bump region for short-lived allocations. Individual
//     Free is a documented no-op; ResetScratch reclaims everything at once.
//   - Persistent: heap-backed with true per-allocation free.
//
// The rewind package registers arena instances under KindRewind. Custom
// allocators register with kinds at or above KindFirstCustom and are
// indistinguishable from built-ins to consumers.
//
// # The Dispatch Contract
//
// One call shape serves allocate, free, and resize:
//
//	b := mem.Block{Size: 256, Align: 16}
//	err := mem.Try(handle, &b)   // b.Ptr now holds the allocation
//
// A nil pointer with positive size allocates; a non-nil pointer with zero
// size frees; non-nil with positive size resizes. The Allocate and Free
// wrappers build the Block for the common cases. Unregister bumps the slot
// generation, so stale handles fail with ErrInvalidHandle instead of
// touching a reused slot.
//
// # Lifecycle
//
// The registry initializes itself on first use. Tests and orderly shutdown
// paths call Shutdown, after which every dispatch fails with ErrShutdown
// until an explicit Initialize. Handles, being plain values, survive
// nothing: a new epoch revives only the built-ins.
//
// # Pointer-Free Data
//
// The generic helpers (New, MakeSlice) refuse element types containing Go
// pointers. Registry memory is invisible to the garbage collector; a
// pointer stored there pins nothing and dangles silently. The check panics
// with ErrPointerType at construction, not in the hot path.
//
// # Thread Safety
//
// The registry itself is safe for concurrent use. Thread-safety of a given
// allocator is a property the allocator declares and honors, not something
// the registry guarantees generically: the built-in heap serializes on a
// mutex, scratch bumps lock-free, and rewindable arenas serialize
// allocation but require external ordering between Allocate and Rewind.
package mem
