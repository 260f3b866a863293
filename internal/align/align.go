// Package align provides power-of-two and alignment arithmetic shared by the
// allocator layer and the container engines.
package align

import "math/bits"

// MaxAlign is the largest alignment an allocation request may carry.
// Backing regions are page-aligned, so larger values cannot be honored.
const MaxAlign = 4096

// growFloor is the smallest capacity a container adopts once it has to grow.
const growFloor = 8

// IsPow2 reports whether n is a positive power of two.
func IsPow2(n int64) bool {
	return n > 0 && n&(n-1) == 0
}

// CeilPow2 returns the smallest power of two >= n, with a floor of 1.
func CeilPow2(n int64) int64 {
	if n <= 1 {
		return 1
	}
	return int64(1) << bits.Len64(uint64(n-1))
}

// Up rounds n up to the next multiple of a. a must be a power of two.
func Up(n, a int64) int64 {
	return (n + a - 1) &^ (a - 1)
}

// UpPtr rounds a raw address up to the next multiple of a. a must be a
// power of two.
func UpPtr(p uintptr, a uintptr) uintptr {
	return (p + a - 1) &^ (a - 1)
}

// Capacity normalizes a requested container capacity to the growth policy:
// the smallest power of two >= requested, floor 1.
func Capacity(requested int) int {
	if requested < 1 {
		requested = 1
	}
	return int(CeilPow2(int64(requested)))
}

// Grow returns the capacity a container at current should adopt to hold at
// least need entries. current must be a policy capacity (power of two).
// Doubles from current with a floor of growFloor, so a table created tiny
// does not crawl through every intermediate size.
func Grow(current, need int) int {
	c := current * 2
	if c < growFloor {
		c = growFloor
	}
	for c < need {
		c *= 2
	}
	return c
}

// Trim returns the smallest capacity the growth policy would produce for
// count live entries. Never below 1.
func Trim(count int) int {
	return Capacity(count)
}

// Buckets returns the bucket-array length for a capacity: twice the
// capacity, kept a power of two so chain selection can mask instead of mod.
func Buckets(capacity int) int {
	return int(CeilPow2(2 * int64(capacity)))
}
