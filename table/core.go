package table

import (
	"errors"
	"fmt"

	"github.com/joshuapare/memkit/internal/align"
	"github.com/joshuapare/memkit/mem"
)

// entry is one stored node. Nodes with equal bucket selection chain through
// next; -1 terminates. The same field threads the free list when a node is
// removed.
type entry[K, V any] struct {
	key   K
	value V
	next  int32
}

// core is the engine shared by Map, Set and MultiMap. The header itself is
// an ordinary Go object; only buckets and entries live in allocator memory,
// which is why K and V must be pointer-free.
//
// Index invariant: every slot below firstUnused is reachable from exactly
// one bucket chain or exactly once via the free list, never both. count is
// the number of bucket-reachable slots.
type core[K, V any] struct {
	hasher Hasher[K]
	handle mem.Handle

	buckets []int32 // chain heads, -1 empty, len = 2 x cap (power of two)
	entries []entry[K, V]
	mask    uint64

	count       int32
	firstUnused int32 // slots >= this have never been linked
	freeHead    int32 // removed-slot list head, -1 empty

	disposed bool
}

const nilIndex = int32(-1)

func newCore[K, V any](h mem.Handle, capacity int, hasher Hasher[K]) (core[K, V], error) {
	if hasher == nil {
		return core[K, V]{}, ErrNilHasher
	}
	if capacity < 0 {
		return core[K, V]{}, fmt.Errorf("%w: %d", ErrCapacity, capacity)
	}
	capacity = align.Capacity(capacity)

	entries, err := mem.MakeSlice[entry[K, V]](h, capacity)
	if err != nil {
		return core[K, V]{}, err
	}
	buckets, err := mem.MakeSlice[int32](h, align.Buckets(capacity))
	if err != nil {
		_ = mem.FreeSlice(h, entries)
		return core[K, V]{}, err
	}
	resetChains(buckets)

	return core[K, V]{
		hasher:   hasher,
		handle:   h,
		buckets:  buckets,
		entries:  entries,
		mask:     uint64(len(buckets) - 1),
		freeHead: nilIndex,
	}, nil
}

func resetChains(b []int32) {
	for i := range b {
		b[i] = nilIndex
	}
}

func (c *core[K, V]) checkLive() {
	if c.disposed {
		panic(ErrDisposed)
	}
}

func (c *core[K, V]) capacity() int { return len(c.entries) }

// findEntry returns the first chain node holding key, or -1.
func (c *core[K, V]) findEntry(key K) int32 {
	b := c.hasher.Hash(key) & c.mask
	for i := c.buckets[b]; i >= 0; i = c.entries[i].next {
		if c.hasher.Equal(c.entries[i].key, key) {
			return i
		}
	}
	return nilIndex
}

// getValue returns the value stored under key, if any.
func (c *core[K, V]) getValue(key K) (V, bool) {
	if i := c.findEntry(key); i >= 0 {
		return c.entries[i].value, true
	}
	var zero V
	return zero, false
}

// findMatch returns the first chain node holding key whose value satisfies
// match, or -1.
func (c *core[K, V]) findMatch(key K, match func(V) bool) int32 {
	b := c.hasher.Hash(key) & c.mask
	for i := c.buckets[b]; i >= 0; i = c.entries[i].next {
		if c.hasher.Equal(c.entries[i].key, key) && match(c.entries[i].value) {
			return i
		}
	}
	return nilIndex
}

// acquireSlot hands out a writable entry index: free list first, then the
// never-used tail, then growth. May reallocate both arrays.
func (c *core[K, V]) acquireSlot() (int32, error) {
	if c.freeHead >= 0 {
		slot := c.freeHead
		c.freeHead = c.entries[slot].next
		return slot, nil
	}
	if int(c.firstUnused) < len(c.entries) {
		slot := c.firstUnused
		c.firstUnused++
		return slot, nil
	}
	if err := c.rebuild(align.Grow(len(c.entries), len(c.entries)+1)); err != nil {
		return nilIndex, err
	}
	slot := c.firstUnused
	c.firstUnused++
	return slot, nil
}

// insertUnique places key if absent. Returns the node index and whether the
// key was already present; when it was, nothing is mutated.
func (c *core[K, V]) insertUnique(key K) (int32, bool, error) {
	if i := c.findEntry(key); i >= 0 {
		return i, true, nil
	}
	i, err := c.insertAny(key)
	return i, false, err
}

// insertAny places key unconditionally, allowing duplicate keys to coexist
// on one chain. The caller fills in the value.
func (c *core[K, V]) insertAny(key K) (int32, error) {
	slot, err := c.acquireSlot()
	if err != nil {
		return nilIndex, err
	}
	// acquireSlot may have grown the table; select the bucket afterward.
	b := c.hasher.Hash(key) & c.mask
	e := &c.entries[slot]
	e.key = key
	e.next = c.buckets[b]
	c.buckets[b] = slot
	c.count++
	return slot, nil
}

// unlink detaches node i, whose predecessor on the chain is prev (-1 when i
// is the head), and recycles the slot onto the free list.
func (c *core[K, V]) unlink(b uint64, prev, i int32) {
	if prev < 0 {
		c.buckets[b] = c.entries[i].next
	} else {
		c.entries[prev].next = c.entries[i].next
	}
	c.entries[i] = entry[K, V]{next: c.freeHead}
	c.freeHead = i
	c.count--
}

// removeFirst unlinks the first node matching key. match further restricts
// the node; nil accepts any value.
func (c *core[K, V]) removeFirst(key K, match func(V) bool) bool {
	b := c.hasher.Hash(key) & c.mask
	prev := nilIndex
	for i := c.buckets[b]; i >= 0; i = c.entries[i].next {
		if c.hasher.Equal(c.entries[i].key, key) && (match == nil || match(c.entries[i].value)) {
			c.unlink(b, prev, i)
			return true
		}
		prev = i
	}
	return false
}

// removeAll unlinks every node holding key and reports how many there were.
func (c *core[K, V]) removeAll(key K) int {
	b := c.hasher.Hash(key) & c.mask
	removed := 0
	prev := nilIndex
	i := c.buckets[b]
	for i >= 0 {
		next := c.entries[i].next
		if c.hasher.Equal(c.entries[i].key, key) {
			c.unlink(b, prev, i)
			removed++
		} else {
			prev = i
		}
		i = next
	}
	return removed
}

// countOf reports how many nodes hold key.
func (c *core[K, V]) countOf(key K) int {
	b := c.hasher.Hash(key) & c.mask
	n := 0
	for i := c.buckets[b]; i >= 0; i = c.entries[i].next {
		if c.hasher.Equal(c.entries[i].key, key) {
			n++
		}
	}
	return n
}

// allocFailed classifies a failure from mid-operation growth. Exhaustion
// comes back as an error the caller can handle; an allocator that vanished
// under a live container is a contract violation and panics.
func (c *core[K, V]) allocFailed(err error) error {
	if errors.Is(err, mem.ErrInvalidHandle) || errors.Is(err, mem.ErrShutdown) {
		panic(err)
	}
	return err
}

// rebuild moves the container to newCap slots. Every bucket-reachable node
// is reinserted, which compacts out free-list holes, so afterward the used
// region is exactly [0, count) and the free list is empty. Chain and
// iteration order are not preserved.
func (c *core[K, V]) rebuild(newCap int) error {
	entries, err := mem.MakeSlice[entry[K, V]](c.handle, newCap)
	if err != nil {
		return c.allocFailed(err)
	}
	buckets, err := mem.MakeSlice[int32](c.handle, align.Buckets(newCap))
	if err != nil {
		_ = mem.FreeSlice(c.handle, entries)
		return c.allocFailed(err)
	}
	resetChains(buckets)
	mask := uint64(len(buckets) - 1)

	n := int32(0)
	for _, head := range c.buckets {
		for i := head; i >= 0; i = c.entries[i].next {
			e := &entries[n]
			e.key = c.entries[i].key
			e.value = c.entries[i].value
			b := c.hasher.Hash(e.key) & mask
			e.next = buckets[b]
			buckets[b] = n
			n++
		}
	}

	_ = mem.FreeSlice(c.handle, c.entries)
	_ = mem.FreeSlice(c.handle, c.buckets)
	c.entries = entries
	c.buckets = buckets
	c.mask = mask
	c.firstUnused = n
	c.freeHead = nilIndex
	return nil
}

// trimExcess shrinks capacity to the smallest policy value holding count.
// A no-op when that would not shrink, which also makes it idempotent.
func (c *core[K, V]) trimExcess() error {
	newCap := align.Trim(int(c.count))
	if newCap >= len(c.entries) {
		return nil
	}
	return c.rebuild(newCap)
}

// clearAll empties the container without releasing capacity.
func (c *core[K, V]) clearAll() {
	resetChains(c.buckets)
	clear(c.entries)
	c.count = 0
	c.firstUnused = 0
	c.freeHead = nilIndex
}

// dispose returns both arrays to the allocator. Idempotent; the first call
// wins and later operations panic with ErrDisposed.
func (c *core[K, V]) dispose() error {
	if c.disposed {
		return nil
	}
	c.disposed = true
	err := errors.Join(
		mem.FreeSlice(c.handle, c.entries),
		mem.FreeSlice(c.handle, c.buckets),
	)
	c.entries = nil
	c.buckets = nil
	c.count = 0
	c.firstUnused = 0
	c.freeHead = nilIndex
	return err
}

// disposeAfter releases storage once done is closed.
func (c *core[K, V]) disposeAfter(done <-chan struct{}) {
	go func() {
		<-done
		_ = c.dispose()
	}()
}
