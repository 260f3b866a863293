package table_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/internal/testutil"
)

func TestIteratorCoversEveryPairOnce(t *testing.T) {
	testutil.Fresh(t)
	m := newMap(t, 4)

	want := map[uint64]int64{}
	for i := uint64(0); i < 50; i++ {
		require.NoError(t, m.Set(i, int64(i)*3))
		want[i] = int64(i) * 3
	}

	got := map[uint64]int64{}
	it := m.Iter()
	for k, v, ok := it.Next(); ok; k, v, ok = it.Next() {
		_, dup := got[k]
		require.False(t, dup, "key %d yielded twice", k)
		got[k] = v
	}
	require.Equal(t, want, got)
}

func TestIteratorSkipsRemoved(t *testing.T) {
	testutil.Fresh(t)
	m := newMap(t, 8)

	for i := uint64(0); i < 8; i++ {
		require.NoError(t, m.Set(i, int64(i)))
	}
	require.True(t, m.Remove(2))
	require.True(t, m.Remove(5))

	seen := map[uint64]bool{}
	for k := range m.Keys() {
		seen[k] = true
	}
	require.Len(t, seen, 6)
	require.False(t, seen[2])
	require.False(t, seen[5])
}

func TestIteratorEmpty(t *testing.T) {
	testutil.Fresh(t)
	m := newMap(t, 8)

	it := m.Iter()
	_, _, ok := it.Next()
	require.False(t, ok)
	_, _, ok = it.Next()
	require.False(t, ok, "exhausted cursor stays exhausted")

	for range m.All() {
		t.Fatal("empty map yielded a pair")
	}
}

func TestIteratorEarlyBreak(t *testing.T) {
	testutil.Fresh(t)
	m := newMap(t, 8)

	for i := uint64(0); i < 20; i++ {
		require.NoError(t, m.Set(i, int64(i)))
	}

	n := 0
	for range m.All() {
		n++
		if n == 5 {
			break
		}
	}
	require.Equal(t, 5, n)

	// Breaking out of a range loop leaves the container fully usable.
	require.Equal(t, 20, m.Count())
}

func TestValuesSequence(t *testing.T) {
	testutil.Fresh(t)
	m := newMap(t, 8)

	var sum int64
	for i := uint64(1); i <= 10; i++ {
		require.NoError(t, m.Set(i, int64(i)))
		sum += int64(i)
	}

	var got int64
	for v := range m.Values() {
		got += v
	}
	require.Equal(t, sum, got)
}
