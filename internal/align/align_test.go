package align

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCeilPow2(t *testing.T) {
	cases := map[int64]int64{
		0:       1,
		1:       1,
		2:       2,
		3:       4,
		7:       8,
		8:       8,
		9:       16,
		1 << 20: 1 << 20,
		(1 << 20) + 1: 1 << 21,
	}
	for in, want := range cases {
		require.Equal(t, want, CeilPow2(in), "CeilPow2(%d)", in)
	}
}

func TestIsPow2(t *testing.T) {
	require.True(t, IsPow2(1))
	require.True(t, IsPow2(2))
	require.True(t, IsPow2(4096))
	require.False(t, IsPow2(0))
	require.False(t, IsPow2(-2))
	require.False(t, IsPow2(3))
	require.False(t, IsPow2(4097))
}

func TestUp(t *testing.T) {
	require.Equal(t, int64(0), Up(0, 8))
	require.Equal(t, int64(8), Up(1, 8))
	require.Equal(t, int64(8), Up(8, 8))
	require.Equal(t, int64(16), Up(9, 8))
	require.Equal(t, int64(4096), Up(1, 4096))
}

func TestCapacityPolicy(t *testing.T) {
	require.Equal(t, 1, Capacity(0))
	require.Equal(t, 1, Capacity(1))
	require.Equal(t, 2, Capacity(2))
	require.Equal(t, 8, Capacity(5))

	// Growing from a capacity-1 table must clear the floor in one step.
	grown := Grow(1, 2)
	require.GreaterOrEqual(t, grown, 8, "growth floor")
	require.True(t, IsPow2(int64(grown)))

	// Growth always reaches the requested minimum.
	require.GreaterOrEqual(t, Grow(8, 100), 100)
	require.GreaterOrEqual(t, Grow(64, 65), 65)
}

func TestTrimNeverIncreasesPolicyCapacity(t *testing.T) {
	for count := 0; count <= 64; count++ {
		tr := Trim(count)
		require.GreaterOrEqual(t, tr, count, "trim must hold all entries")
		require.True(t, IsPow2(int64(tr)))
		// Idempotent at the policy level.
		require.Equal(t, tr, Trim(tr))
	}
}

func TestBuckets(t *testing.T) {
	require.Equal(t, 2, Buckets(1))
	require.Equal(t, 16, Buckets(8))
	require.True(t, IsPow2(int64(Buckets(3))))
	require.GreaterOrEqual(t, Buckets(7), 2*7)
}
