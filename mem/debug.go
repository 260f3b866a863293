package mem

import (
	"fmt"
	"os"
)

// Compile-time switch for registry debug output.
const debugMem = false

// Runtime flag for per-dispatch logging - controlled by MEMKIT_LOG_ALLOC.
var logAlloc = os.Getenv("MEMKIT_LOG_ALLOC") != ""

// debugLogf prints debug messages if debugMem is enabled.
func debugLogf(format string, args ...any) {
	if debugMem {
		fmt.Fprintf(os.Stderr, "[MEM] "+format+"\n", args...)
	}
}

// traceDispatch logs one dispatch when MEMKIT_LOG_ALLOC is set.
func traceDispatch(h Handle, b *Block, err error) {
	if !logAlloc {
		return
	}
	switch {
	case err != nil:
		fmt.Fprintf(os.Stderr, "[MEM] %s size=%d align=%d err=%v\n", h, b.Size, b.Align, err)
	case b.IsFree() || b.Ptr == nil && b.Size == 0:
		fmt.Fprintf(os.Stderr, "[MEM] %s free\n", h)
	default:
		fmt.Fprintf(os.Stderr, "[MEM] %s size=%d align=%d ptr=%p\n", h, b.Size, b.Align, b.Ptr)
	}
}
