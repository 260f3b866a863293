package table

import "sync/atomic"

// ParallelWriter is an insert-only view that many goroutines may use at
// once. It is a value type; copies share the parent's storage, so hand one
// to each worker.
//
// The protocol is reserve, fan out, join: size the container up front
// (constructor capacity, or single-threaded inserts before the parallel
// phase) because a writer never grows; share the writer across goroutines
// and TryAdd from each; join the workers before any sequential operation
// touches the container again.
//
// Slots freed by Remove before the parallel phase are invisible to the
// writer; only the never-used tail is claimed. Capacity reporting and the
// free list are reconciled automatically when sequential use resumes.
type ParallelWriter[K, V any] struct {
	c      *core[K, V]
	unique bool
}

// TryAdd inserts the pair, returning false when the key is already present
// (writers over Map and Set only) or when capacity is exhausted. Exhaustion
// is a normal outcome, not an error.
func (w ParallelWriter[K, V]) TryAdd(key K, value V) bool {
	return w.c.parallelInsert(key, value, w.unique)
}

// Capacity returns the fixed slot capacity behind the writer.
func (w ParallelWriter[K, V]) Capacity() int {
	w.c.checkLive()
	return len(w.c.entries)
}

// Count returns the number of stored entries. Under concurrent TryAdds the
// value is a moving snapshot.
func (w ParallelWriter[K, V]) Count() int {
	w.c.checkLive()
	return int(atomic.LoadInt32(&w.c.count))
}

// parallelInsert is the lock-free insert path. Entry slots come from the
// never-used tail via a CAS-claimed counter, so the claim can never hand
// out one slot twice and never overshoots capacity. Publication is a CAS
// prepend of the fully written entry onto its chain head.
func (c *core[K, V]) parallelInsert(key K, value V, unique bool) bool {
	c.checkLive()
	b := &c.buckets[c.hasher.Hash(key)&c.mask]

	if unique {
		// Best-effort duplicate rejection. Two writers racing on the same
		// key can both pass this scan and both insert; arbitration is the
		// caller's job when keys are not pre-partitioned.
		for i := atomic.LoadInt32(b); i >= 0; i = atomic.LoadInt32(&c.entries[i].next) {
			if c.hasher.Equal(c.entries[i].key, key) {
				return false
			}
		}
	}

	var slot int32
	for {
		slot = atomic.LoadInt32(&c.firstUnused)
		if int(slot) >= len(c.entries) {
			return false
		}
		if atomic.CompareAndSwapInt32(&c.firstUnused, slot, slot+1) {
			break
		}
	}

	e := &c.entries[slot]
	e.key = key
	e.value = value

	// Publish only after the fields above are written. A retry loop keeps
	// concurrent prepends into one bucket from dropping links.
	for {
		head := atomic.LoadInt32(b)
		e.next = head
		if atomic.CompareAndSwapInt32(b, head, slot) {
			break
		}
	}
	atomic.AddInt32(&c.count, 1)
	return true
}
