package mem

import "errors"

var (
	// ErrOutOfMemory reports that the allocator could not satisfy the
	// request. Recoverable: callers may retry, trim, or fail the operation.
	ErrOutOfMemory = errors.New("mem: out of memory")

	// ErrInvalidHandle reports a dispatch through a handle whose slot was
	// unregistered or re-registered since the handle was captured.
	ErrInvalidHandle = errors.New("mem: invalid or stale allocator handle")

	// ErrShutdown reports a dispatch between Shutdown and the next
	// Initialize.
	ErrShutdown = errors.New("mem: allocator registry is shut down")

	// ErrRegistryFull reports that all registry slots are taken.
	ErrRegistryFull = errors.New("mem: allocator registry is full")

	// ErrBadAlign reports an alignment that is not a power of two or
	// exceeds the page size.
	ErrBadAlign = errors.New("mem: alignment must be a power of two at most 4096")

	// ErrBadSize reports a negative block size.
	ErrBadSize = errors.New("mem: negative block size")

	// ErrBadFree reports a free of a pointer the allocator does not own.
	ErrBadFree = errors.New("mem: free of unknown pointer")

	// ErrBadKind reports a registration under a kind reserved for
	// built-in allocators.
	ErrBadKind = errors.New("mem: kind is reserved for built-in allocators")

	// ErrNilDispatch reports a registration without a dispatch function.
	ErrNilDispatch = errors.New("mem: nil dispatch function")

	// ErrBuiltin reports an attempt to unregister a built-in allocator.
	ErrBuiltin = errors.New("mem: built-in allocators cannot be unregistered")

	// ErrNoneAllocator reports an allocation through the none handle.
	ErrNoneAllocator = errors.New("mem: the none allocator cannot allocate")

	// ErrResizeUnsupported reports a resize request to an allocator with
	// no resize semantics.
	ErrResizeUnsupported = errors.New("mem: allocator does not support resize")

	// ErrPointerType reports a generic allocation whose element type
	// contains Go pointers. The collector cannot see pointers stored in
	// registry-managed memory, so such types must stay on the Go heap.
	ErrPointerType = errors.New("mem: element type contains Go pointers")
)
