package memharden

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// DisableCoreDumps provides process-wide core dump prevention. It combines
// prctl PR_SET_DUMPABLE, RLIMIT_CORE, and coredump_filter so that no memory
// contents — decrypted secrets included — reach disk if the process crashes.
func DisableCoreDumps() error {
	// Set PR_SET_DUMPABLE to 0: prevents core dump generation and
	// restricts /proc/pid/mem access from other processes.
	if err := unix.Prctl(unix.PR_SET_DUMPABLE, 0, 0, 0, 0); err != nil {
		return fmt.Errorf("memharden: failed to set PR_SET_DUMPABLE: %w", err)
	}

	// Set RLIMIT_CORE to 0 for belt-and-suspenders core dump prevention.
	rlimit := unix.Rlimit{Cur: 0, Max: 0}
	if err := unix.Setrlimit(unix.RLIMIT_CORE, &rlimit); err != nil {
		return fmt.Errorf("memharden: failed to set RLIMIT_CORE to 0: %w", err)
	}

	// Write "0" to coredump_filter to disable dumping of all memory segment types.
	if err := os.WriteFile("/proc/self/coredump_filter", []byte("0"), 0); err != nil {
		// Non-fatal: this file may not be writable in all contexts.
		_ = err
	}

	return nil
}

// LockBuffer pins b's pages in RAM (no swap) and excludes them from core
// dumps. The madvise step is advisory and failure there is not an error;
// mlock failure is, since it usually means RLIMIT_MEMLOCK is exhausted.
func LockBuffer(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if err := unix.Mlock(b); err != nil {
		return fmt.Errorf("memharden: mlock failed: %w", err)
	}
	if err := unix.Madvise(b, unix.MADV_DONTDUMP); err != nil {
		// Advisory only; older kernels may not support MADV_DONTDUMP.
		_ = err
	}
	return nil
}

// UnlockBuffer undoes LockBuffer. Callers shred the buffer first; unlocked
// pages are eligible for swap again.
func UnlockBuffer(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if err := unix.Madvise(b, unix.MADV_DODUMP); err != nil {
		_ = err
	}
	if err := unix.Munlock(b); err != nil {
		return fmt.Errorf("memharden: munlock failed: %w", err)
	}
	return nil
}
