package table

import "hash/maphash"

// Hasher supplies the hash and equality a container uses to place keys.
// Implementations must be safe for concurrent use: ParallelWriter calls
// Hash and Equal from multiple goroutines.
//
// Two keys that compare Equal must produce the same Hash. The containers
// never call Hash twice expecting different results for one key.
type Hasher[K any] interface {
	// Hash maps a key to a bucket-selection value. Only the low bits are
	// used after masking, so implementations should mix well.
	Hash(key K) uint64

	// Equal reports whether two keys are the same key.
	Equal(a, b K) bool
}

// defaultSeed keys every Default hasher in the process. Hash values are
// stable within a run and deliberately unstable across runs.
var defaultSeed = maphash.MakeSeed()

// Default returns the standard hasher for a comparable key type, built on
// hash/maphash. This is what the plain constructors use.
func Default[K comparable]() Hasher[K] {
	return defaultHasher[K]{}
}

type defaultHasher[K comparable] struct{}

func (defaultHasher[K]) Hash(key K) uint64 { return maphash.Comparable(defaultSeed, key) }

func (defaultHasher[K]) Equal(a, b K) bool { return a == b }

// Func builds a Hasher from explicit hash and equality functions. Use it
// for key types that need derived identity, such as case-folded strings
// packed into byte arrays, or composite keys hashed on a subset of fields.
func Func[K any](hash func(K) uint64, equal func(a, b K) bool) Hasher[K] {
	return funcHasher[K]{hash: hash, equal: equal}
}

type funcHasher[K any] struct {
	hash  func(K) uint64
	equal func(a, b K) bool
}

func (f funcHasher[K]) Hash(key K) uint64 { return f.hash(key) }
func (f funcHasher[K]) Equal(a, b K) bool { return f.equal(a, b) }
