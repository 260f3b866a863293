package main

import (
	"testing"
	"time"

	"github.com/joshuapare/memkit/table"
)

// waitForFrames polls until the workload has completed at least min frames.
func waitForFrames(t *testing.T, w *workload, min uint64) workloadSnapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap := w.snapshot()
		if snap.Err != nil {
			t.Fatalf("workload failed: %v", snap.Err)
		}
		if snap.Frames >= min {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("workload reached %d frames, want at least %d", snap.Frames, min)
		}
		time.Sleep(frameInterval)
	}
}

func TestWorkloadFramesAdvance(t *testing.T) {
	w, err := newWorkload()
	if err != nil {
		t.Fatalf("newWorkload() error: %v", err)
	}
	defer w.Close()

	snap := waitForFrames(t, w, 3)

	if snap.RetainedCount == 0 {
		t.Error("retained map should gain entries as frames run")
	}
	if snap.Arena.Rewinds == 0 {
		t.Error("every frame should rewind the arena")
	}
	if snap.Registry.HeapBytes == 0 {
		t.Error("retained map should pin heap bytes")
	}
}

func TestWorkloadPauseStopsFrames(t *testing.T) {
	w, err := newWorkload()
	if err != nil {
		t.Fatalf("newWorkload() error: %v", err)
	}
	defer w.Close()

	waitForFrames(t, w, 1)

	if !w.togglePaused() {
		t.Fatal("togglePaused() should report paused on first call")
	}

	// togglePaused holds the same lock frames run under, so once it
	// returns no further frame can start.
	before := w.snapshot().Frames
	time.Sleep(5 * frameInterval)
	after := w.snapshot().Frames
	if before != after {
		t.Errorf("frames advanced from %d to %d while paused", before, after)
	}

	if w.togglePaused() {
		t.Fatal("togglePaused() should report running on second call")
	}
	waitForFrames(t, w, before+1)
}

func TestWorkloadTrimArenaConverges(t *testing.T) {
	w, err := newWorkload()
	if err != nil {
		t.Fatalf("newWorkload() error: %v", err)
	}
	defer w.Close()

	w.togglePaused()

	// Force the arena past one chunk. The table is dropped without
	// Dispose; the trim reclaims it.
	if _, err := table.NewMap[uint64, uint64](w.arena.Handle(), 200000); err != nil {
		t.Fatalf("NewMap() error: %v", err)
	}
	if got := w.snapshot().Arena.Chunks; got < 2 {
		t.Fatalf("arena has %d chunk(s), want growth past one", got)
	}

	w.trimArena()

	if got := w.snapshot().Arena.Chunks; got != 1 {
		t.Errorf("arena has %d chunk(s) after trim, want 1", got)
	}
}

func TestWorkloadCloseIdempotent(t *testing.T) {
	w, err := newWorkload()
	if err != nil {
		t.Fatalf("newWorkload() error: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close() error: %v", err)
	}
}
