package testutil

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/mem"
)

// Counting forwards every dispatch to an inner allocator and tallies what
// passes through. Containers cannot tell it apart from the inner kind,
// which is the point: tests wrap a handle, run a scenario, and assert the
// books balance.
type Counting struct {
	inner mem.Handle

	mu       sync.Mutex
	allocs   int
	frees    int
	resizes  int
	failures int
	live     map[unsafe.Pointer]int64
	net      int64
}

// NewCounting registers a counting wrapper around inner and returns it with
// its handle. The wrapper unregisters itself when the test finishes.
func NewCounting(t *testing.T, inner mem.Handle) (*Counting, mem.Handle) {
	t.Helper()
	c := &Counting{inner: inner, live: make(map[unsafe.Pointer]int64)}
	h, err := mem.Register(mem.KindFirstCustom, countingDispatch, c)
	require.NoError(t, err, "register counting allocator")
	t.Cleanup(func() { _ = mem.Unregister(h) })
	return c, h
}

func countingDispatch(state any, b *mem.Block) error {
	c := state.(*Counting)
	switch {
	case b.IsAlloc():
		size := b.Size
		if err := mem.Try(c.inner, b); err != nil {
			c.count(func() { c.failures++ })
			return err
		}
		ptr := b.Ptr
		c.count(func() {
			c.allocs++
			c.live[ptr] = size
			c.net += size
		})
		return nil
	case b.IsFree():
		ptr := b.Ptr
		if err := mem.Try(c.inner, b); err != nil {
			c.count(func() { c.failures++ })
			return err
		}
		c.count(func() {
			c.frees++
			c.net -= c.live[ptr]
			delete(c.live, ptr)
		})
		return nil
	default:
		old, size := b.Ptr, b.Size
		if err := mem.Try(c.inner, b); err != nil {
			c.count(func() { c.failures++ })
			return err
		}
		ptr := b.Ptr
		c.count(func() {
			c.resizes++
			c.net += size - c.live[old]
			delete(c.live, old)
			c.live[ptr] = size
		})
		return nil
	}
}

func (c *Counting) count(f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f()
}

// Allocs returns the number of successful allocations.
func (c *Counting) Allocs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allocs
}

// Frees returns the number of successful frees.
func (c *Counting) Frees() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frees
}

// Outstanding returns net allocated bytes not yet freed.
func (c *Counting) Outstanding() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.net
}

// LiveAllocations returns the number of allocations not yet freed.
func (c *Counting) LiveAllocations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live)
}

// RequireBalanced asserts that everything allocated through the wrapper was
// returned to it.
func (c *Counting) RequireBalanced(t *testing.T) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.Zero(t, c.net, "outstanding bytes through counting allocator")
	require.Empty(t, c.live, "live allocations through counting allocator")
}
