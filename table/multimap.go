package table

import (
	"iter"

	"github.com/joshuapare/memkit/mem"
)

// MultiMap stores any number of values per key on the same engine as Map.
// Values must be comparable so one exact pair can be removed. Duplicate
// pairs are allowed and stored as independent nodes.
type MultiMap[K any, V comparable] struct {
	core core[K, V]
}

// NewMultiMap creates a MultiMap for a comparable key type using the
// Default hasher.
func NewMultiMap[K comparable, V comparable](h mem.Handle, capacity int) (*MultiMap[K, V], error) {
	return NewMultiMapHashed[K, V](h, capacity, Default[K]())
}

// NewMultiMapHashed creates a MultiMap with an explicit hasher.
func NewMultiMapHashed[K any, V comparable](h mem.Handle, capacity int, hasher Hasher[K]) (*MultiMap[K, V], error) {
	c, err := newCore[K, V](h, capacity, hasher)
	if err != nil {
		return nil, err
	}
	return &MultiMap[K, V]{core: c}, nil
}

// Add inserts the pair unconditionally. Existing values under the same key
// are kept; there is no duplicate check at all.
func (m *MultiMap[K, V]) Add(key K, value V) error {
	m.core.checkLive()
	i, err := m.core.insertAny(key)
	if err != nil {
		return err
	}
	m.core.entries[i].value = value
	return nil
}

// Values yields every value stored under key. A missing key yields
// nothing.
func (m *MultiMap[K, V]) Values(key K) iter.Seq[V] {
	m.core.checkLive()
	return m.core.valuesOf(key)
}

// CountOf returns how many values are stored under key.
func (m *MultiMap[K, V]) CountOf(key K) int {
	m.core.checkLive()
	return m.core.countOf(key)
}

// ContainsKey reports whether at least one value is stored under key.
func (m *MultiMap[K, V]) ContainsKey(key K) bool {
	m.core.checkLive()
	return m.core.findEntry(key) >= 0
}

// ContainsEntry reports whether the exact key and value pair is stored.
func (m *MultiMap[K, V]) ContainsEntry(key K, value V) bool {
	m.core.checkLive()
	return m.core.findMatch(key, func(v V) bool { return v == value }) >= 0
}

// Remove unlinks the first node matching both key and value, reporting
// whether one was found. Other values under the same key stay.
func (m *MultiMap[K, V]) Remove(key K, value V) bool {
	m.core.checkLive()
	return m.core.removeFirst(key, func(v V) bool { return v == value })
}

// RemoveAll unlinks every value under key and returns how many there were.
func (m *MultiMap[K, V]) RemoveAll(key K) int {
	m.core.checkLive()
	return m.core.removeAll(key)
}

// Clear empties the container, keeping its capacity.
func (m *MultiMap[K, V]) Clear() {
	m.core.checkLive()
	m.core.clearAll()
}

// Count returns the total number of stored pairs across all keys.
func (m *MultiMap[K, V]) Count() int {
	m.core.checkLive()
	return int(m.core.count)
}

// Capacity returns how many pairs fit before the next growth.
func (m *MultiMap[K, V]) Capacity() int {
	m.core.checkLive()
	return m.core.capacity()
}

// TrimExcess shrinks capacity to the smallest policy size holding the
// current count.
func (m *MultiMap[K, V]) TrimExcess() error {
	m.core.checkLive()
	return m.core.trimExcess()
}

// Handle returns the allocator handle backing the container.
func (m *MultiMap[K, V]) Handle() mem.Handle {
	return m.core.handle
}

// Iter returns a cursor visiting every stored pair, one per node: a key
// with three values is seen three times.
func (m *MultiMap[K, V]) Iter() *Iterator[K, V] {
	m.core.checkLive()
	return newIterator(&m.core)
}

// All yields every stored pair, one per node.
func (m *MultiMap[K, V]) All() iter.Seq2[K, V] {
	m.core.checkLive()
	return m.core.seq2()
}

// Keys yields the key of every stored node, so a key appears once per
// value stored under it.
func (m *MultiMap[K, V]) Keys() iter.Seq[K] {
	m.core.checkLive()
	return m.core.keySeq()
}

// AsParallelWriter returns an insert-only view usable from many goroutines
// at once. Like Add it never rejects duplicates, so TryAdd fails only on
// exhaustion.
func (m *MultiMap[K, V]) AsParallelWriter() ParallelWriter[K, V] {
	m.core.checkLive()
	return ParallelWriter[K, V]{c: &m.core, unique: false}
}

// AsReadOnly returns a non-mutating view sharing this container's storage.
func (m *MultiMap[K, V]) AsReadOnly() ReadOnlyMultiMap[K, V] {
	m.core.checkLive()
	return ReadOnlyMultiMap[K, V]{c: &m.core}
}

// Dispose returns the container's storage to its allocator. Idempotent.
func (m *MultiMap[K, V]) Dispose() error {
	return m.core.dispose()
}

// DisposeAfter releases the storage once done is closed, without blocking.
func (m *MultiMap[K, V]) DisposeAfter(done <-chan struct{}) {
	m.core.disposeAfter(done)
}

// Disposed reports whether Dispose has run.
func (m *MultiMap[K, V]) Disposed() bool {
	return m.core.disposed
}
