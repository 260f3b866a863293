package mem

// Stats is a point-in-time snapshot of the registry, suitable for tooling
// and leak assertions in tests. Counters are lifetime totals within the
// current Initialize/Shutdown epoch.
type Stats struct {
	Registered  int    // live registry entries, built-ins included
	HeapBytes   int64  // bytes currently pinned by the heap allocator
	HeapAllocs  uint64 // heap allocation calls
	HeapFrees   uint64 // heap free calls
	ScratchCap  int64  // mapped scratch region size, 0 until first use
	ScratchUsed int64  // scratch bytes consumed since the last reset
}

// GetStats returns current registry statistics. Zero value when the
// registry is not on.
func GetStats() Stats {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	if reg.phase != phaseOn {
		return Stats{}
	}
	var s Stats
	for i := range reg.entries {
		if reg.entries[i].live {
			s.Registered++
		}
	}
	if reg.heap != nil {
		reg.heap.mu.Lock()
		s.HeapBytes = reg.heap.bytes
		s.HeapAllocs = reg.heap.allocs
		s.HeapFrees = reg.heap.frees
		reg.heap.mu.Unlock()
	}
	if reg.scratch != nil {
		s.ScratchCap = reg.scratch.mapped()
		s.ScratchUsed = reg.scratch.used()
	}
	return s
}
