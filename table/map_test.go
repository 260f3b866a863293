package table_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/internal/testutil"
	"github.com/joshuapare/memkit/mem"
	"github.com/joshuapare/memkit/table"
)

const (
	waitFor = time.Second
	tick    = time.Millisecond
)

func newMap(t *testing.T, capacity int) *table.Map[uint64, int64] {
	t.Helper()
	m, err := table.NewMap[uint64, int64](mem.Persistent, capacity)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Dispose() })
	return m
}

func TestMapSetGet(t *testing.T) {
	testutil.Fresh(t)
	m := newMap(t, 16)

	require.NoError(t, m.Set(1, 100))
	require.NoError(t, m.Set(2, 200))

	v, ok := m.Get(1)
	require.True(t, ok)
	require.Equal(t, int64(100), v)

	v, ok = m.Get(2)
	require.True(t, ok)
	require.Equal(t, int64(200), v)

	_, ok = m.Get(3)
	require.False(t, ok, "absent key must miss")
	require.Equal(t, 2, m.Count())
}

func TestMapSetOverwrites(t *testing.T) {
	testutil.Fresh(t)
	m := newMap(t, 16)

	require.NoError(t, m.Set(7, 1))
	require.NoError(t, m.Set(7, 2))

	v, ok := m.Get(7)
	require.True(t, ok)
	require.Equal(t, int64(2), v)
	require.Equal(t, 1, m.Count(), "overwrite must not add a node")
}

func TestMapTryAddDuplicate(t *testing.T) {
	testutil.Fresh(t)
	m := newMap(t, 16)

	added, err := m.TryAdd(5, 50)
	require.NoError(t, err)
	require.True(t, added)

	added, err = m.TryAdd(5, 999)
	require.NoError(t, err)
	require.False(t, added, "duplicate TryAdd must report false")

	v, ok := m.Get(5)
	require.True(t, ok)
	require.Equal(t, int64(50), v, "duplicate TryAdd must not change the stored value")
	require.Equal(t, 1, m.Count())
}

func TestMapAddDuplicatePanics(t *testing.T) {
	testutil.Fresh(t)
	m := newMap(t, 16)

	require.NoError(t, m.Add(1, 10))

	defer func() {
		r := recover()
		require.NotNil(t, r, "duplicate Add must panic")
		err, ok := r.(error)
		require.True(t, ok)
		require.ErrorIs(t, err, table.ErrDuplicateKey)
	}()
	_ = m.Add(1, 20)
}

func TestMapGrowthFromCapacityOne(t *testing.T) {
	testutil.Fresh(t)
	m := newMap(t, 1)

	for i := uint64(0); i < 8; i++ {
		require.NoError(t, m.Set(i, int64(i*i)))
	}
	require.Equal(t, 8, m.Count())
	require.GreaterOrEqual(t, m.Capacity(), 8)

	for i := uint64(0); i < 8; i++ {
		v, ok := m.Get(i)
		require.True(t, ok, "key %d lost across growth", i)
		require.Equal(t, int64(i*i), v)
	}
}

func TestMapIncrementalRemoval(t *testing.T) {
	testutil.Fresh(t)
	m := newMap(t, 8)

	const n = uint64(8)
	for i := uint64(0); i < n; i++ {
		require.NoError(t, m.Set(i, int64(i)))
	}

	for i := uint64(0); i < n; i++ {
		require.True(t, m.Remove(i))
		require.Equal(t, int(n-i-1), m.Count())

		// Everything not yet removed stays reachable.
		for j := i + 1; j < n; j++ {
			v, ok := m.Get(j)
			require.True(t, ok, "key %d vanished after removing %d", j, i)
			require.Equal(t, int64(j), v)
		}
	}
	require.Zero(t, m.Count())
}

func TestMapRemoveMiss(t *testing.T) {
	testutil.Fresh(t)
	m := newMap(t, 8)

	require.False(t, m.Remove(1), "removing from empty map")
	require.NoError(t, m.Set(1, 1))
	require.False(t, m.Remove(2))
	require.Equal(t, 1, m.Count())
	require.True(t, m.Remove(1))
	require.False(t, m.Remove(1), "second removal of the same key")
}

func TestMapSlotReuseAfterRemove(t *testing.T) {
	testutil.Fresh(t)
	m := newMap(t, 8)

	for i := uint64(0); i < 8; i++ {
		require.NoError(t, m.Set(i, int64(i)))
	}
	cap0 := m.Capacity()

	// Free a slot and take it back; the table must not grow for that.
	require.True(t, m.Remove(3))
	require.NoError(t, m.Set(100, 100))
	require.Equal(t, cap0, m.Capacity(), "free-listed slot was not reused")
	require.Equal(t, 8, m.Count())

	v, ok := m.Get(100)
	require.True(t, ok)
	require.Equal(t, int64(100), v)
	_, ok = m.Get(3)
	require.False(t, ok)
}

func TestMapTrimExcess(t *testing.T) {
	testutil.Fresh(t)
	m := newMap(t, 1)

	for i := uint64(0); i < 100; i++ {
		require.NoError(t, m.Set(i, int64(i)))
	}
	for i := uint64(10); i < 100; i++ {
		require.True(t, m.Remove(i))
	}
	grownCap := m.Capacity()

	require.NoError(t, m.TrimExcess())
	trimmed := m.Capacity()
	require.Less(t, trimmed, grownCap, "trim after mass removal must shrink")
	require.GreaterOrEqual(t, trimmed, m.Count())

	require.NoError(t, m.TrimExcess())
	require.Equal(t, trimmed, m.Capacity(), "second trim must be a no-op")

	for i := uint64(0); i < 10; i++ {
		v, ok := m.Get(i)
		require.True(t, ok, "key %d lost across trim", i)
		require.Equal(t, int64(i), v)
	}
}

func TestMapTrimNeverIncreases(t *testing.T) {
	testutil.Fresh(t)
	m := newMap(t, 64)

	require.NoError(t, m.Set(1, 1))
	require.NoError(t, m.TrimExcess())
	require.LessOrEqual(t, m.Capacity(), 64)
}

func TestMapClear(t *testing.T) {
	testutil.Fresh(t)
	m := newMap(t, 8)

	for i := uint64(0); i < 20; i++ {
		require.NoError(t, m.Set(i, int64(i)))
	}
	capBefore := m.Capacity()

	m.Clear()
	require.Zero(t, m.Count())
	require.Equal(t, capBefore, m.Capacity(), "clear keeps capacity")
	_, ok := m.Get(1)
	require.False(t, ok)

	// The emptied table accepts fresh inserts.
	require.NoError(t, m.Set(1, 11))
	v, ok := m.Get(1)
	require.True(t, ok)
	require.Equal(t, int64(11), v)
	require.Equal(t, 1, m.Count())
}

func TestMapCountInvariant(t *testing.T) {
	testutil.Fresh(t)
	m := newMap(t, 4)

	live := map[uint64]int64{}
	for i := uint64(0); i < 200; i++ {
		switch i % 3 {
		case 0, 1:
			require.NoError(t, m.Set(i%50, int64(i)))
			live[i%50] = int64(i)
		case 2:
			removed := m.Remove(i % 30)
			_, had := live[i%30]
			require.Equal(t, had, removed)
			delete(live, i%30)
		}
		require.Equal(t, len(live), m.Count(), "after step %d", i)
	}
	for k, want := range live {
		v, ok := m.Get(k)
		require.True(t, ok, "key %d", k)
		require.Equal(t, want, v)
	}
}

func TestMapForcedCollisions(t *testing.T) {
	testutil.Fresh(t)

	// A constant hash chains every key into one bucket, exercising interior
	// unlink and chain walks.
	h := table.Func(
		func(uint64) uint64 { return 0 },
		func(a, b uint64) bool { return a == b },
	)
	m, err := table.NewMapHashed[uint64, int64](mem.Persistent, 4, h)
	require.NoError(t, err)
	defer func() { _ = m.Dispose() }()

	for i := uint64(0); i < 20; i++ {
		require.NoError(t, m.Set(i, int64(i)))
	}
	for i := uint64(0); i < 20; i += 3 {
		require.True(t, m.Remove(i))
	}
	for i := uint64(0); i < 20; i++ {
		v, ok := m.Get(i)
		if i%3 == 0 {
			require.False(t, ok, "key %d should be gone", i)
		} else {
			require.True(t, ok, "key %d should survive", i)
			require.Equal(t, int64(i), v)
		}
	}
}

func TestMapConstructorValidation(t *testing.T) {
	testutil.Fresh(t)

	_, err := table.NewMap[uint64, int64](mem.Persistent, -1)
	require.ErrorIs(t, err, table.ErrCapacity)

	_, err = table.NewMapHashed[uint64, int64](mem.Persistent, 8, nil)
	require.ErrorIs(t, err, table.ErrNilHasher)

	// Zero capacity is a valid hint.
	m, err := table.NewMap[uint64, int64](mem.Persistent, 0)
	require.NoError(t, err)
	require.NoError(t, m.Set(1, 1))
	require.NoError(t, m.Dispose())
}

func TestMapPointerTypesPanic(t *testing.T) {
	testutil.Fresh(t)

	requirePointerPanic := func(fn func()) {
		t.Helper()
		defer func() {
			r := recover()
			require.NotNil(t, r, "pointered element type must panic")
			err, ok := r.(error)
			require.True(t, ok)
			require.ErrorIs(t, err, mem.ErrPointerType)
		}()
		fn()
	}

	requirePointerPanic(func() {
		_, _ = table.NewMap[string, int64](mem.Persistent, 8)
	})
	requirePointerPanic(func() {
		_, _ = table.NewMap[uint64, []byte](mem.Persistent, 8)
	})
}

func TestMapDisposedPanics(t *testing.T) {
	testutil.Fresh(t)
	m, err := table.NewMap[uint64, int64](mem.Persistent, 8)
	require.NoError(t, err)
	require.NoError(t, m.Set(1, 1))

	require.NoError(t, m.Dispose())
	require.True(t, m.Disposed())
	require.NoError(t, m.Dispose(), "dispose is idempotent")

	ops := map[string]func(){
		"Set":        func() { _ = m.Set(1, 1) },
		"TryAdd":     func() { _, _ = m.TryAdd(1, 1) },
		"Get":        func() { _, _ = m.Get(1) },
		"Contains":   func() { _ = m.ContainsKey(1) },
		"Remove":     func() { _ = m.Remove(1) },
		"Clear":      func() { m.Clear() },
		"Count":      func() { _ = m.Count() },
		"Capacity":   func() { _ = m.Capacity() },
		"TrimExcess": func() { _ = m.TrimExcess() },
		"Iter":       func() { _ = m.Iter() },
		"All":        func() { _ = m.All() },
		"Writer":     func() { _ = m.AsParallelWriter() },
		"ReadOnly":   func() { _ = m.AsReadOnly() },
	}
	for name, op := range ops {
		require.PanicsWithValue(t, table.ErrDisposed, op, "%s on disposed map", name)
	}
}

func TestMapDisposeAfter(t *testing.T) {
	testutil.Fresh(t)
	m, err := table.NewMap[uint64, int64](mem.Persistent, 8)
	require.NoError(t, err)
	require.NoError(t, m.Set(1, 1))

	done := make(chan struct{})
	m.DisposeAfter(done)
	require.False(t, m.Disposed())
	require.NoError(t, m.Set(2, 2), "usable until the token fires")

	close(done)
	require.Eventually(t, m.Disposed, waitFor, tick)
}

func TestMapReleasesAllMemory(t *testing.T) {
	testutil.Fresh(t)

	m, err := table.NewMap[uint64, int64](mem.Persistent, 4)
	require.NoError(t, err)
	for i := uint64(0); i < 100; i++ {
		require.NoError(t, m.Set(i, int64(i)))
	}
	require.NoError(t, m.TrimExcess())
	require.NoError(t, m.Dispose())

	testutil.RequireNoHeapLeaks(t)
}

func TestMapGetNeverMutates(t *testing.T) {
	testutil.Fresh(t)
	m := newMap(t, 4)

	require.NoError(t, m.Set(1, 1))
	cap0 := m.Capacity()
	for i := uint64(0); i < 1000; i++ {
		_, _ = m.Get(i)
		_ = m.ContainsKey(i)
	}
	require.Equal(t, 1, m.Count())
	require.Equal(t, cap0, m.Capacity())
}

func TestMapAddAfterRemoveAll(t *testing.T) {
	testutil.Fresh(t)
	m := newMap(t, 8)

	for round := 0; round < 3; round++ {
		for i := uint64(0); i < 8; i++ {
			added, err := m.TryAdd(i, int64(round))
			require.NoError(t, err)
			require.True(t, added, "round %d key %d", round, i)
		}
		for i := uint64(0); i < 8; i++ {
			require.True(t, m.Remove(i))
		}
		require.Zero(t, m.Count())
	}
}

func TestMapErrorsAreDistinct(t *testing.T) {
	require.False(t, errors.Is(table.ErrDuplicateKey, table.ErrDisposed))
	require.False(t, errors.Is(table.ErrCapacity, table.ErrNilHasher))
}
