//go:build !linux

package session

// PinCurrentThread is a no-op on platforms without sched_setaffinity.
// Core pinning is a latency optimization, not a correctness requirement
// (spec.md §5 permits "a shared thread pool" as a fallback to the
// dedicated-pinned-thread model) — callers should treat a nil error here
// the same as a successful pin.
func PinCurrentThread(sessionID string, cores []int) error {
	return nil
}
