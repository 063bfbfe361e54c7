// Package memharden keeps secret buffers out of places they could outlive
// the process: core dumps, swap, and freed heap memory. It provides
// deterministic zeroing, page locking with dump exclusion, and process-wide
// core dump prevention. Page locking and dump controls are Linux-specific;
// on other platforms they are no-ops so callers do not need build tags.
package memharden
