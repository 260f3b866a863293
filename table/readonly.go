package table

import "iter"

// The read-only views share the parent's storage without copying. They are
// value types safe to hand to query code that must not mutate, and they
// stay valid until the parent is disposed, after which every operation
// panics with ErrDisposed.

// ReadOnly is the non-mutating view of a Map.
type ReadOnly[K, V any] struct {
	c *core[K, V]
}

// Get returns the value stored under key.
func (r ReadOnly[K, V]) Get(key K) (V, bool) {
	r.c.checkLive()
	return r.c.getValue(key)
}

// ContainsKey reports whether key is present.
func (r ReadOnly[K, V]) ContainsKey(key K) bool {
	r.c.checkLive()
	return r.c.findEntry(key) >= 0
}

// Count returns the number of stored pairs.
func (r ReadOnly[K, V]) Count() int {
	r.c.checkLive()
	return int(r.c.count)
}

// Capacity returns the entry capacity.
func (r ReadOnly[K, V]) Capacity() int {
	r.c.checkLive()
	return r.c.capacity()
}

// Iter returns a cursor over every stored pair.
func (r ReadOnly[K, V]) Iter() *Iterator[K, V] {
	r.c.checkLive()
	return newIterator(r.c)
}

// All yields every stored pair.
func (r ReadOnly[K, V]) All() iter.Seq2[K, V] {
	r.c.checkLive()
	return r.c.seq2()
}

// ReadOnlySet is the non-mutating view of a Set.
type ReadOnlySet[K any] struct {
	c *core[K, struct{}]
}

// Contains reports whether key is present.
func (r ReadOnlySet[K]) Contains(key K) bool {
	r.c.checkLive()
	return r.c.findEntry(key) >= 0
}

// Count returns the number of stored keys.
func (r ReadOnlySet[K]) Count() int {
	r.c.checkLive()
	return int(r.c.count)
}

// Capacity returns the entry capacity.
func (r ReadOnlySet[K]) Capacity() int {
	r.c.checkLive()
	return r.c.capacity()
}

// Iter returns a cursor over every stored key.
func (r ReadOnlySet[K]) Iter() *SetIterator[K] {
	r.c.checkLive()
	return &SetIterator[K]{it: Iterator[K, struct{}]{c: r.c, idx: nilIndex}}
}

// All yields every stored key.
func (r ReadOnlySet[K]) All() iter.Seq[K] {
	r.c.checkLive()
	return r.c.keySeq()
}

// ReadOnlyMultiMap is the non-mutating view of a MultiMap.
type ReadOnlyMultiMap[K any, V comparable] struct {
	c *core[K, V]
}

// Values yields every value stored under key.
func (r ReadOnlyMultiMap[K, V]) Values(key K) iter.Seq[V] {
	r.c.checkLive()
	return r.c.valuesOf(key)
}

// CountOf returns how many values are stored under key.
func (r ReadOnlyMultiMap[K, V]) CountOf(key K) int {
	r.c.checkLive()
	return r.c.countOf(key)
}

// ContainsEntry reports whether the exact key and value pair is stored.
func (r ReadOnlyMultiMap[K, V]) ContainsEntry(key K, value V) bool {
	r.c.checkLive()
	return r.c.findMatch(key, func(v V) bool { return v == value }) >= 0
}

// ContainsKey reports whether at least one value is stored under key.
func (r ReadOnlyMultiMap[K, V]) ContainsKey(key K) bool {
	r.c.checkLive()
	return r.c.findEntry(key) >= 0
}

// Count returns the total number of stored pairs.
func (r ReadOnlyMultiMap[K, V]) Count() int {
	r.c.checkLive()
	return int(r.c.count)
}

// Capacity returns the entry capacity.
func (r ReadOnlyMultiMap[K, V]) Capacity() int {
	r.c.checkLive()
	return r.c.capacity()
}

// Iter returns a cursor over every stored pair, one per node.
func (r ReadOnlyMultiMap[K, V]) Iter() *Iterator[K, V] {
	r.c.checkLive()
	return newIterator(r.c)
}

// All yields every stored pair, one per node.
func (r ReadOnlyMultiMap[K, V]) All() iter.Seq2[K, V] {
	r.c.checkLive()
	return r.c.seq2()
}
