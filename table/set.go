package table

import (
	"iter"

	"github.com/joshuapare/memkit/mem"
)

// Set is a hash set over the same engine as Map, storing keys with a
// zero-width value. The same pointer-free, explicit-Dispose rules apply.
type Set[K any] struct {
	core core[K, struct{}]
}

// NewSet creates a Set for a comparable key type using the Default hasher.
func NewSet[K comparable](h mem.Handle, capacity int) (*Set[K], error) {
	return NewSetHashed[K](h, capacity, Default[K]())
}

// NewSetHashed creates a Set with an explicit hasher.
func NewSetHashed[K any](h mem.Handle, capacity int, hasher Hasher[K]) (*Set[K], error) {
	c, err := newCore[K, struct{}](h, capacity, hasher)
	if err != nil {
		return nil, err
	}
	return &Set[K]{core: c}, nil
}

// Add inserts key and reports whether it was newly added. A present key
// returns false with nothing mutated.
func (s *Set[K]) Add(key K) (bool, error) {
	s.core.checkLive()
	_, existed, err := s.core.insertUnique(key)
	if err != nil {
		return false, err
	}
	return !existed, nil
}

// Contains reports whether key is present.
func (s *Set[K]) Contains(key K) bool {
	s.core.checkLive()
	return s.core.findEntry(key) >= 0
}

// Remove deletes key and reports whether it was present.
func (s *Set[K]) Remove(key K) bool {
	s.core.checkLive()
	return s.core.removeFirst(key, nil)
}

// Clear empties the set, keeping its capacity.
func (s *Set[K]) Clear() {
	s.core.checkLive()
	s.core.clearAll()
}

// Count returns the number of stored keys.
func (s *Set[K]) Count() int {
	s.core.checkLive()
	return int(s.core.count)
}

// Capacity returns how many keys fit before the next growth.
func (s *Set[K]) Capacity() int {
	s.core.checkLive()
	return s.core.capacity()
}

// TrimExcess shrinks capacity to the smallest policy size holding the
// current count.
func (s *Set[K]) TrimExcess() error {
	s.core.checkLive()
	return s.core.trimExcess()
}

// Handle returns the allocator handle backing the set.
func (s *Set[K]) Handle() mem.Handle {
	return s.core.handle
}

// Iter returns a cursor over every stored key.
func (s *Set[K]) Iter() *SetIterator[K] {
	s.core.checkLive()
	return &SetIterator[K]{it: Iterator[K, struct{}]{c: &s.core, idx: nilIndex}}
}

// All yields every stored key for range-over-func loops.
func (s *Set[K]) All() iter.Seq[K] {
	s.core.checkLive()
	return s.core.keySeq()
}

// AsParallelWriter returns an insert-only view usable from many goroutines
// at once.
func (s *Set[K]) AsParallelWriter() SetParallelWriter[K] {
	s.core.checkLive()
	return SetParallelWriter[K]{w: ParallelWriter[K, struct{}]{c: &s.core, unique: true}}
}

// AsReadOnly returns a non-mutating view sharing this set's storage.
func (s *Set[K]) AsReadOnly() ReadOnlySet[K] {
	s.core.checkLive()
	return ReadOnlySet[K]{c: &s.core}
}

// Dispose returns the set's storage to its allocator. Idempotent.
func (s *Set[K]) Dispose() error {
	return s.core.dispose()
}

// DisposeAfter releases the storage once done is closed, without blocking.
func (s *Set[K]) DisposeAfter(done <-chan struct{}) {
	s.core.disposeAfter(done)
}

// Disposed reports whether Dispose has run.
func (s *Set[K]) Disposed() bool {
	return s.core.disposed
}

// SetIterator is an explicit cursor over a Set's keys.
type SetIterator[K any] struct {
	it Iterator[K, struct{}]
}

// Next returns the next key. ok is false once the set is exhausted.
func (it *SetIterator[K]) Next() (K, bool) {
	k, _, ok := it.it.Next()
	return k, ok
}

// SetParallelWriter is the insert-only concurrent view of a Set.
type SetParallelWriter[K any] struct {
	w ParallelWriter[K, struct{}]
}

// TryAdd inserts key, returning false when it is already present or
// capacity is exhausted.
func (w SetParallelWriter[K]) TryAdd(key K) bool {
	return w.w.TryAdd(key, struct{}{})
}

// Capacity returns the fixed slot capacity behind the writer.
func (w SetParallelWriter[K]) Capacity() int {
	return w.w.Capacity()
}

// Count returns the number of stored keys. Under concurrent TryAdds the
// value is a moving snapshot.
func (w SetParallelWriter[K]) Count() int {
	return w.w.Count()
}
