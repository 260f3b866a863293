// Package memmap provides platform-specific helpers for reserving anonymous
// memory regions outside the Go heap.
package memmap

// Region is one contiguous anonymous allocation. The zero value is unmapped.
type Region struct {
	data []byte
}

// Bytes returns the region's contents. Nil once unmapped.
func (r Region) Bytes() []byte {
	return r.data
}

// Len returns the usable size of the region in bytes.
func (r Region) Len() int {
	return len(r.data)
}
