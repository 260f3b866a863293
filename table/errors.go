package table

import "errors"

var (
	// ErrDisposed is the panic value carried by any operation on a container
	// whose storage has been returned to its allocator.
	ErrDisposed = errors.New("table: container used after Dispose")

	// ErrDuplicateKey is the panic value carried by Add when the key is
	// already present. Use TryAdd when duplicates are expected.
	ErrDuplicateKey = errors.New("table: duplicate key")

	// ErrCapacity reports a negative requested capacity.
	ErrCapacity = errors.New("table: invalid capacity")

	// ErrNilHasher reports a hashed constructor called without a hasher.
	ErrNilHasher = errors.New("table: nil hasher")
)
