//go:build unix

package memmap

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Map reserves an anonymous read-write region of size bytes.
func Map(size int) (Region, error) {
	if size <= 0 {
		return Region{}, fmt.Errorf("memmap: invalid region size %d", size)
	}
	data, err := unix.Mmap(
		-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE,
	)
	if err != nil {
		return Region{}, fmt.Errorf("memmap: mmap %d bytes: %w", size, err)
	}
	return Region{data: data}, nil
}

// Unmap releases the region. Safe to call more than once.
func (r *Region) Unmap() error {
	if r.data == nil {
		return nil
	}
	data := r.data
	r.data = nil
	err := unix.Munmap(data)
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}

// Decommit tells the kernel the region's pages may be reclaimed. The mapping
// stays valid; pages fault back in on next touch.
func (r Region) Decommit() error {
	if r.data == nil {
		return nil
	}
	return unix.Madvise(r.data, unix.MADV_DONTNEED)
}
