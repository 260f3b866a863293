//go:build windows

package memmap

import "fmt"

// Map reserves a region backed by ordinary heap memory when anonymous
// mappings are not used on the platform.
func Map(size int) (Region, error) {
	if size <= 0 {
		return Region{}, fmt.Errorf("memmap: invalid region size %d", size)
	}
	return Region{data: make([]byte, size)}, nil
}

// Unmap releases the region. Safe to call more than once.
func (r *Region) Unmap() error {
	r.data = nil
	return nil
}

// Decommit is a no-op for heap-backed regions.
func (r Region) Decommit() error {
	return nil
}
