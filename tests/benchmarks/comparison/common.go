// Package comparison benchmarks memkit containers against their closest
// standard-library equivalents. Pipe the output through the report script
// for a markdown summary:
//
//	go test -bench . -benchmem ./tests/benchmarks/comparison | go run ./scripts/benchmark_report.go
package comparison

// BenchmarkSizes defines the key counts used across benchmarks.
var BenchmarkSizes = []struct {
	Name string // Short name for benchmark output
	Keys int    // Entries per operation
}{
	{"small", 1000},
	{"medium", 10000},
	{"large", 100000},
}

// benchKeys returns n distinct keys in scrambled order so bucket access
// does not follow insertion order.
func benchKeys(n int) []uint64 {
	keys := make([]uint64, n)
	var x uint64
	for i := range keys {
		x += 0x9E3779B97F4A7C15
		z := x
		z ^= z >> 30
		z *= 0xBF58476D1CE4E5B9
		z ^= z >> 27
		z *= 0x94D049BB133111EB
		z ^= z >> 31
		keys[i] = z
	}
	return keys
}

// Prevent compiler optimizations from eliminating benchmark code
// These variables are written to by benchmarks to ensure operations aren't optimized away.
var (
	benchValue uint64
	benchCount int
)
