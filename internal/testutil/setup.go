// Package testutil provides shared helpers for tests that exercise the
// allocator registry. The registry is process-wide state, so tests using
// these helpers must not run in parallel with each other.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/mem"
)

// Fresh gives the calling test a clean registry epoch and restores a live
// registry for whatever runs next.
//
// Example:
//
//	testutil.Fresh(t)
//	h, _ := mem.Register(...)
func Fresh(t *testing.T) {
	t.Helper()
	if err := mem.Shutdown(); err != nil {
		t.Fatalf("registry shutdown: %v", err)
	}
	mem.Initialize()
	t.Cleanup(func() {
		if err := mem.Shutdown(); err != nil {
			t.Errorf("registry shutdown: %v", err)
		}
		mem.Initialize()
	})
}

// RequireNoHeapLeaks asserts that every persistent allocation made so far
// in the current epoch has been freed.
func RequireNoHeapLeaks(t *testing.T) {
	t.Helper()
	s := mem.GetStats()
	require.Zero(t, s.HeapBytes, "leaked heap bytes")
	require.Equal(t, s.HeapAllocs, s.HeapFrees, "heap alloc/free imbalance")
}
