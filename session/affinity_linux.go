//go:build linux

package session

import (
	"fmt"
	"hash/fnv"
	"runtime"

	"golang.org/x/sys/unix"
)

// PinCurrentThread locks the calling goroutine to its OS thread and pins
// that thread to a single core chosen by hashing sessionID into cores, as
// spec'd for the per-session I/O thread (one thread per session, pinned
// by hashing SenderCompID+TargetCompID into the allowed-core set). The
// caller is expected to be the goroutine that will run the session's
// blocking receive loop for its entire lifetime — LockOSThread is never
// undone here because the thread is meant to stay dedicated to this
// session until it exits.
//
// cores is the allowed-core set; an empty set makes every core
// runtime.NumCPU reports eligible, and the hash still picks one of them.
func PinCurrentThread(sessionID string, cores []int) error {
	if len(cores) == 0 {
		n := runtime.NumCPU()
		cores = make([]int, n)
		for i := range cores {
			cores[i] = i
		}
	}

	runtime.LockOSThread()

	core := cores[hashSessionID(sessionID)%uint64(len(cores))]

	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("session: pin to core %d: %w", core, err)
	}
	return nil
}

// hashSessionID maps a "SenderCompID/TargetCompID"-shaped session
// identifier onto a stable core index. FNV-1a gives good distribution
// for short ASCII keys without pulling in a hashing dependency beyond
// what the stdlib already provides.
func hashSessionID(sessionID string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(sessionID))
	return h.Sum64()
}
