//go:build !linux

package memharden

// DisableCoreDumps is a no-op on platforms without prctl/setrlimit core
// dump controls.
func DisableCoreDumps() error { return nil }

// LockBuffer is a no-op on non-Linux platforms.
func LockBuffer(b []byte) error { return nil }

// UnlockBuffer is a no-op on non-Linux platforms.
func UnlockBuffer(b []byte) error { return nil }
