// Package table implements hash containers backed by allocator memory
// instead of the Go heap.
//
// # Overview
//
// One generic engine stores entries in two flat arrays obtained through a
// mem.Handle: buckets (chain heads) and entries (key, value, next). Three
// facades shape it:
//
//   - Map: one value per key, overwrite via Set, guarded inserts via
//     Add/TryAdd
//   - Set: keys only, zero-width values
//   - MultiMap: any number of values per key, exact-pair removal
//
// Because the arrays live outside the collector's view, key and value
// types must be pointer-free. Constructors panic with mem.ErrPointerType
// when handed a type containing pointers, strings, slices, maps, chans,
// funcs or interfaces at any depth.
//
// # Engine Layout
//
// Collisions chain through entry indexes, not pointers: buckets[hash&mask]
// holds the head index of a chain threaded by entry.next, -1 terminating.
// Removed slots go on an index free list reusing the same next field.
// The bucket array stays at twice the entry capacity, power of two, so
// selection is a mask instead of a mod.
//
// # Usage Example
//
// Building a map on the persistent heap allocator:
//
//	m, err := table.NewMap[uint64, int64](mem.Persistent, 1024)
//	if err != nil {
//	    return err
//	}
//	defer m.Dispose()
//
//	if err := m.Set(42, -1); err != nil {
//	    return err
//	}
//	if v, ok := m.Get(42); ok {
//	    fmt.Println(v)
//	}
//
//	for k, v := range m.All() {
//	    fmt.Println(k, v)
//	}
//
// # Growth and Trimming
//
// Capacity doubles on demand (floor 8 once growing) and a rebuild
// rehashes every live entry, so iteration order is never stable across
// growth. TrimExcess shrinks to the smallest policy capacity holding the
// current count; it never grows and repeating it is a no-op. The free
// list and holes disappear on every rebuild.
//
// # Parallel Writing
//
// AsParallelWriter returns an insert-only view safe for concurrent use:
//
//	w := m.AsParallelWriter()
//	var wg sync.WaitGroup
//	for part := range workers {
//	    wg.Add(1)
//	    go func() {
//	        defer wg.Done()
//	        for _, k := range keysOf(part) {
//	            if !w.TryAdd(k, value(k)) {
//	                // key present or capacity exhausted
//	            }
//	        }
//	    }()
//	}
//	wg.Wait()
//
// Writers never grow; reserve capacity before fanning out. Readers and
// sequential mutation must wait for the join.
//
// # Thread Safety
//
// Outside ParallelWriter, containers follow single-writer rules: any
// number of concurrent readers, or one mutator, never both.
//
// # Disposal
//
// Storage is not garbage collected. Dispose returns it to the allocator
// (idempotent); DisposeAfter defers that until a completion channel
// closes. Every other operation on a disposed container panics with
// ErrDisposed.
//
// # Related Packages
//
//   - github.com/joshuapare/memkit/mem: allocator registry and handles
//   - github.com/joshuapare/memkit/mem/rewind: arena allocator suited to
//     per-frame container lifetimes
package table
