//go:build unix

package memmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapWriteUnmap(t *testing.T) {
	r, err := Map(1 << 16)
	require.NoError(t, err)
	require.Equal(t, 1<<16, r.Len())

	b := r.Bytes()
	b[0] = 0xAB
	b[len(b)-1] = 0xCD
	require.Equal(t, byte(0xAB), r.Bytes()[0])
	require.Equal(t, byte(0xCD), r.Bytes()[r.Len()-1])

	require.NoError(t, r.Unmap())
	require.Nil(t, r.Bytes())
}

func TestUnmapTwice(t *testing.T) {
	r, err := Map(4096)
	require.NoError(t, err)
	require.NoError(t, r.Unmap())
	require.NoError(t, r.Unmap(), "double unmap must be a no-op")
}

func TestMapRejectsBadSize(t *testing.T) {
	_, err := Map(0)
	require.Error(t, err)
	_, err = Map(-1)
	require.Error(t, err)
}

func TestDecommitKeepsMappingUsable(t *testing.T) {
	r, err := Map(1 << 20)
	require.NoError(t, err)
	defer func() { require.NoError(t, r.Unmap()) }()

	b := r.Bytes()
	for i := 0; i < len(b); i += 4096 {
		b[i] = 0xFF
	}
	require.NoError(t, r.Decommit())

	// Pages must fault back in writable.
	b[0] = 0x01
	b[len(b)-1] = 0x02
	require.Equal(t, byte(0x01), b[0])
}

func TestZeroRegion(t *testing.T) {
	var r Region
	require.Nil(t, r.Bytes())
	require.Zero(t, r.Len())
	require.NoError(t, r.Unmap())
	require.NoError(t, r.Decommit())
}
