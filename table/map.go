package table

import (
	"fmt"
	"iter"

	"github.com/joshuapare/memkit/mem"
)

// Map is a hash map whose buckets and entries live in allocator memory
// instead of the Go heap. Key and value types must be pointer-free; the
// constructors panic with mem.ErrPointerType otherwise.
//
// A Map is not safe for concurrent use except through AsParallelWriter.
// Call Dispose when done; the storage is not garbage collected.
type Map[K, V any] struct {
	core core[K, V]
}

// NewMap creates a Map for a comparable key type using the Default hasher.
// Storage comes from h. capacity is a hint, rounded up to the growth
// policy; the map grows on demand past it.
func NewMap[K comparable, V any](h mem.Handle, capacity int) (*Map[K, V], error) {
	return NewMapHashed[K, V](h, capacity, Default[K]())
}

// NewMapHashed creates a Map with an explicit hasher, for key types that
// are not comparable or need derived identity.
func NewMapHashed[K, V any](h mem.Handle, capacity int, hasher Hasher[K]) (*Map[K, V], error) {
	c, err := newCore[K, V](h, capacity, hasher)
	if err != nil {
		return nil, err
	}
	return &Map[K, V]{core: c}, nil
}

// Set stores value under key, overwriting any existing value. The indexer
// write: a duplicate key is never an error here.
func (m *Map[K, V]) Set(key K, value V) error {
	m.core.checkLive()
	i, _, err := m.core.insertUnique(key)
	if err != nil {
		return err
	}
	m.core.entries[i].value = value
	return nil
}

// TryAdd stores the pair when key is absent and reports whether it did.
// A present key returns false with nothing mutated. The error is reserved
// for allocation failure during growth.
func (m *Map[K, V]) TryAdd(key K, value V) (bool, error) {
	m.core.checkLive()
	i, existed, err := m.core.insertUnique(key)
	if err != nil {
		return false, err
	}
	if existed {
		return false, nil
	}
	m.core.entries[i].value = value
	return true, nil
}

// Add stores the pair and treats a duplicate key as a contract violation,
// panicking with ErrDuplicateKey. Use TryAdd when duplicates are expected.
func (m *Map[K, V]) Add(key K, value V) error {
	ok, err := m.TryAdd(key, value)
	if err != nil {
		return err
	}
	if !ok {
		panic(fmt.Errorf("%w: %v", ErrDuplicateKey, key))
	}
	return nil
}

// Get returns the value stored under key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	m.core.checkLive()
	return m.core.getValue(key)
}

// ContainsKey reports whether key is present.
func (m *Map[K, V]) ContainsKey(key K) bool {
	m.core.checkLive()
	return m.core.findEntry(key) >= 0
}

// Remove deletes key and reports whether it was present. A miss mutates
// nothing.
func (m *Map[K, V]) Remove(key K) bool {
	m.core.checkLive()
	return m.core.removeFirst(key, nil)
}

// Clear empties the map, keeping its capacity.
func (m *Map[K, V]) Clear() {
	m.core.checkLive()
	m.core.clearAll()
}

// Count returns the number of stored pairs.
func (m *Map[K, V]) Count() int {
	m.core.checkLive()
	return int(m.core.count)
}

// Capacity returns how many pairs fit before the next growth.
func (m *Map[K, V]) Capacity() int {
	m.core.checkLive()
	return m.core.capacity()
}

// TrimExcess shrinks capacity to the smallest policy size holding the
// current count. It never grows and calling it twice is a no-op.
func (m *Map[K, V]) TrimExcess() error {
	m.core.checkLive()
	return m.core.trimExcess()
}

// Handle returns the allocator handle backing the map.
func (m *Map[K, V]) Handle() mem.Handle {
	return m.core.handle
}

// Iter returns a cursor over every stored pair.
func (m *Map[K, V]) Iter() *Iterator[K, V] {
	m.core.checkLive()
	return newIterator(&m.core)
}

// All yields every stored pair for range-over-func loops.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	m.core.checkLive()
	return m.core.seq2()
}

// Keys yields every stored key.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	m.core.checkLive()
	return m.core.keySeq()
}

// Values yields every stored value.
func (m *Map[K, V]) Values() iter.Seq[V] {
	m.core.checkLive()
	return m.core.valueSeq()
}

// AsParallelWriter returns an insert-only view usable from many goroutines
// at once. See ParallelWriter for the protocol.
func (m *Map[K, V]) AsParallelWriter() ParallelWriter[K, V] {
	m.core.checkLive()
	return ParallelWriter[K, V]{c: &m.core, unique: true}
}

// AsReadOnly returns a non-mutating view sharing this map's storage.
func (m *Map[K, V]) AsReadOnly() ReadOnly[K, V] {
	m.core.checkLive()
	return ReadOnly[K, V]{c: &m.core}
}

// Dispose returns the map's storage to its allocator. Idempotent; any
// other operation afterward panics with ErrDisposed.
func (m *Map[K, V]) Dispose() error {
	return m.core.dispose()
}

// DisposeAfter releases the storage once done is closed, without blocking.
func (m *Map[K, V]) DisposeAfter(done <-chan struct{}) {
	m.core.disposeAfter(done)
}

// Disposed reports whether Dispose has run.
func (m *Map[K, V]) Disposed() bool {
	return m.core.disposed
}
