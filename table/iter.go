package table

import "iter"

// Iterator is an explicit cursor over every stored node. Obtain one from a
// facade's Iter method; the zero value is not usable.
//
// Order follows buckets, not insertion, and changes when the container
// grows. Structural mutation (insert, remove, clear, trim) while a cursor
// is live leaves it undefined; take a fresh one instead.
type Iterator[K, V any] struct {
	c      *core[K, V]
	bucket int
	idx    int32
}

func newIterator[K, V any](c *core[K, V]) *Iterator[K, V] {
	return &Iterator[K, V]{c: c, idx: nilIndex}
}

// Next returns the next key/value pair. ok is false once the container is
// exhausted.
func (it *Iterator[K, V]) Next() (key K, value V, ok bool) {
	c := it.c
	c.checkLive()
	for {
		if it.idx >= 0 {
			e := &c.entries[it.idx]
			it.idx = e.next
			return e.key, e.value, true
		}
		if it.bucket >= len(c.buckets) {
			return key, value, false
		}
		it.idx = c.buckets[it.bucket]
		it.bucket++
	}
}

// The range-over-func adapters below are thin shims over Iterator, so all
// ordering and mutation caveats carry over.

func (c *core[K, V]) seq2() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		it := newIterator(c)
		for k, v, ok := it.Next(); ok; k, v, ok = it.Next() {
			if !yield(k, v) {
				return
			}
		}
	}
}

func (c *core[K, V]) keySeq() iter.Seq[K] {
	return func(yield func(K) bool) {
		it := newIterator(c)
		for k, _, ok := it.Next(); ok; k, _, ok = it.Next() {
			if !yield(k) {
				return
			}
		}
	}
}

func (c *core[K, V]) valueSeq() iter.Seq[V] {
	return func(yield func(V) bool) {
		it := newIterator(c)
		for _, v, ok := it.Next(); ok; _, v, ok = it.Next() {
			if !yield(v) {
				return
			}
		}
	}
}

// valuesOf yields every value stored under one key, walking a single chain.
func (c *core[K, V]) valuesOf(key K) iter.Seq[V] {
	return func(yield func(V) bool) {
		c.checkLive()
		b := c.hasher.Hash(key) & c.mask
		for i := c.buckets[b]; i >= 0; i = c.entries[i].next {
			if c.hasher.Equal(c.entries[i].key, key) && !yield(c.entries[i].value) {
				return
			}
		}
	}
}
