package table_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/internal/testutil"
	"github.com/joshuapare/memkit/mem"
	"github.com/joshuapare/memkit/table"
)

func newSet(t *testing.T, capacity int) *table.Set[uint32] {
	t.Helper()
	s, err := table.NewSet[uint32](mem.Persistent, capacity)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Dispose() })
	return s
}

func TestSetAddContains(t *testing.T) {
	testutil.Fresh(t)
	s := newSet(t, 8)

	added, err := s.Add(1)
	require.NoError(t, err)
	require.True(t, added)

	added, err = s.Add(1)
	require.NoError(t, err)
	require.False(t, added, "second add of the same key")

	require.True(t, s.Contains(1))
	require.False(t, s.Contains(2))
	require.Equal(t, 1, s.Count())
}

func TestSetRemove(t *testing.T) {
	testutil.Fresh(t)
	s := newSet(t, 8)

	for i := uint32(0); i < 8; i++ {
		added, err := s.Add(i)
		require.NoError(t, err)
		require.True(t, added)
	}
	require.True(t, s.Remove(3))
	require.False(t, s.Remove(3))
	require.False(t, s.Contains(3))
	require.Equal(t, 7, s.Count())
}

func TestSetGrowth(t *testing.T) {
	testutil.Fresh(t)
	s := newSet(t, 1)

	for i := uint32(0); i < 100; i++ {
		added, err := s.Add(i)
		require.NoError(t, err)
		require.True(t, added, "key %d", i)
	}
	require.Equal(t, 100, s.Count())
	require.GreaterOrEqual(t, s.Capacity(), 100)
	for i := uint32(0); i < 100; i++ {
		require.True(t, s.Contains(i), "key %d lost across growth", i)
	}
}

func TestSetIteration(t *testing.T) {
	testutil.Fresh(t)
	s := newSet(t, 8)

	want := map[uint32]bool{}
	for i := uint32(0); i < 20; i++ {
		_, err := s.Add(i)
		require.NoError(t, err)
		want[i] = true
	}

	seen := map[uint32]bool{}
	it := s.Iter()
	for k, ok := it.Next(); ok; k, ok = it.Next() {
		require.False(t, seen[k], "key %d yielded twice", k)
		seen[k] = true
	}
	require.Equal(t, want, seen)

	seen = map[uint32]bool{}
	for k := range s.All() {
		seen[k] = true
	}
	require.Equal(t, want, seen)
}

func TestSetClearAndTrim(t *testing.T) {
	testutil.Fresh(t)
	s := newSet(t, 1)

	for i := uint32(0); i < 50; i++ {
		_, err := s.Add(i)
		require.NoError(t, err)
	}
	grown := s.Capacity()

	s.Clear()
	require.Zero(t, s.Count())
	require.Equal(t, grown, s.Capacity())

	require.NoError(t, s.TrimExcess())
	require.Less(t, s.Capacity(), grown, "trim after clear must shrink")

	added, err := s.Add(1)
	require.NoError(t, err)
	require.True(t, added)
}

func TestSetDisposedPanics(t *testing.T) {
	testutil.Fresh(t)
	s, err := table.NewSet[uint32](mem.Persistent, 8)
	require.NoError(t, err)
	require.NoError(t, s.Dispose())
	require.True(t, s.Disposed())

	require.PanicsWithValue(t, table.ErrDisposed, func() { _, _ = s.Add(1) })
	require.PanicsWithValue(t, table.ErrDisposed, func() { _ = s.Contains(1) })
	require.PanicsWithValue(t, table.ErrDisposed, func() { _ = s.Remove(1) })
	require.PanicsWithValue(t, table.ErrDisposed, func() { _ = s.Count() })
}

func TestSetReadOnlyView(t *testing.T) {
	testutil.Fresh(t)
	s := newSet(t, 8)

	_, err := s.Add(1)
	require.NoError(t, err)
	ro := s.AsReadOnly()
	require.True(t, ro.Contains(1))
	require.Equal(t, 1, ro.Count())

	// Later writes are visible through the shared storage.
	_, err = s.Add(2)
	require.NoError(t, err)
	require.True(t, ro.Contains(2))

	keys := map[uint32]bool{}
	it := ro.Iter()
	for k, ok := it.Next(); ok; k, ok = it.Next() {
		keys[k] = true
	}
	require.Equal(t, map[uint32]bool{1: true, 2: true}, keys)
}
