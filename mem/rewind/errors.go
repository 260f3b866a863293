package rewind

import "errors"

var (
	// ErrDisposed reports use of an arena after Dispose. Raised as a panic
	// from direct method use: it is a programming error, not a resource
	// condition.
	ErrDisposed = errors.New("rewind: allocator used after Dispose")

	// ErrChunkSize reports a negative chunk size passed to New.
	ErrChunkSize = errors.New("rewind: chunk size must not be negative")
)
