package main

import (
	"errors"
	"sync"
	"time"

	"github.com/joshuapare/memkit/cmd/memtop/logger"
	"github.com/joshuapare/memkit/mem"
	"github.com/joshuapare/memkit/mem/rewind"
	"github.com/joshuapare/memkit/table"
)

const (
	// frameKeys is how many entries each arena frame inserts.
	frameKeys = 512

	// retainedSpan bounds the key range of the long-lived map.
	retainedSpan = 4096

	// frameInterval is the workload's frame cadence.
	frameInterval = 10 * time.Millisecond
)

// workload churns the registry so the monitor has something to show: a
// long-lived map on the persistent heap and a build-and-rewind frame loop
// on an arena.
type workload struct {
	arena *rewind.Allocator

	mu       sync.Mutex
	retained *table.Map[uint64, uint64]
	frames   uint64
	tick     uint64
	paused   bool
	err      error

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	closeErr error
}

// workloadSnapshot is a point-in-time copy of everything the UI renders.
type workloadSnapshot struct {
	Frames        uint64
	Paused        bool
	RetainedCount int
	RetainedCap   int
	Arena         rewind.Stats
	ArenaHandle   mem.Handle
	Registry      mem.Stats
	Err           error
}

// newWorkload starts the registry, the arena, and the frame goroutine.
func newWorkload() (*workload, error) {
	mem.Initialize()

	arena, err := rewind.New(0)
	if err != nil {
		mem.Shutdown()
		return nil, err
	}

	retained, err := table.NewMap[uint64, uint64](mem.Persistent, 1024)
	if err != nil {
		arena.Dispose()
		mem.Shutdown()
		return nil, err
	}

	w := &workload{
		arena:    arena,
		retained: retained,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	go w.run()

	return w, nil
}

func (w *workload) run() {
	defer close(w.done)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.mu.Lock()
			if w.paused {
				w.mu.Unlock()
				continue
			}
			err := w.frame()
			if err != nil {
				w.err = err
			}
			w.mu.Unlock()

			if err != nil {
				logger.Error("workload frame failed", "error", err)
				return
			}
		}
	}
}

// frame builds transient state on the arena, advances the retained map, and
// rewinds. Callers hold mu. The frame's set is dropped without Dispose; the
// rewind reclaims it wholesale.
func (w *workload) frame() error {
	visible, err := table.NewSet[uint64](w.arena.Handle(), frameKeys)
	if err != nil {
		return err
	}

	for i := 0; i < frameKeys; i++ {
		if _, err := visible.Add(uint64(i * 3)); err != nil {
			return err
		}
	}

	// Retained state advances a little every frame.
	k := w.tick % retainedSpan
	if err := w.retained.Set(k, w.frames); err != nil {
		return err
	}
	if w.tick%3 == 0 {
		w.retained.Remove((k + retainedSpan/2) % retainedSpan)
	}
	w.tick++

	w.arena.Rewind()
	w.frames++

	return nil
}

// snapshot copies the current state for rendering.
func (w *workload) snapshot() workloadSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	return workloadSnapshot{
		Frames:        w.frames,
		Paused:        w.paused,
		RetainedCount: w.retained.Count(),
		RetainedCap:   w.retained.Capacity(),
		Arena:         w.arena.GetStats(),
		ArenaHandle:   w.arena.Handle(),
		Registry:      mem.GetStats(),
		Err:           w.err,
	}
}

// togglePaused flips the pause flag and returns the new state.
func (w *workload) togglePaused() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.paused = !w.paused
	return w.paused
}

// trimArena rewinds twice in a row, collapsing the arena to a single
// chunk. Frames hold mu, so no allocation can slip between the rewinds.
func (w *workload) trimArena() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.arena.Rewind()
	w.arena.Rewind()
}

// Close stops the frame goroutine and tears the registry down.
func (w *workload) Close() error {
	w.stopOnce.Do(func() {
		close(w.stop)
		<-w.done

		w.mu.Lock()
		defer w.mu.Unlock()
		w.closeErr = errors.Join(
			w.retained.Dispose(),
			w.arena.Dispose(),
			mem.Shutdown(),
		)
	})
	return w.closeErr
}
