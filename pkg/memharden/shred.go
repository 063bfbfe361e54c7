package memharden

import "runtime"

// Shred zeroes a byte slice to clear sensitive data from memory.
// The go:noinline directive prevents the compiler from inlining and
// optimizing away the zeroing operation. runtime.KeepAlive ensures the
// slice is not collected before zeroing completes.
//
//go:noinline
func Shred(b []byte) {
	for i := range b {
		b[i] = 0
	}
	// Prevent the compiler from optimizing away the zeroing.
	runtime.KeepAlive(b)
}
