/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package queue implements the lock-free concurrent queues the session
// and deferred-processor layers hand work across: SPSC for the
// session-to-background handoff, MPSC for multi-writer completion
// aggregation, and MPMC for shared worker pools. Every queue here is a
// fixed-capacity, index-based slot array with atomic indices — ownership
// of a slot passes by exclusive claim of a ticket, never by pointer
// aliasing.
package queue

import (
	"runtime"
	"time"
)

// WaitStrategy is consulted by a queue's blocking Push/Pop variants
// between failed attempts. Implementations must not allocate.
type WaitStrategy interface {
	// Wait is called once per failed attempt; attempt is the attempt count
	// since the current wait began (starts at 0).
	Wait(attempt int)
	// Reset is called when the wait succeeds, so a strategy that escalates
	// over time (Backoff) can start over for the next wait.
	Reset()
}

// BusySpin never yields; it's the lowest-latency, highest-CPU-cost
// strategy, appropriate for a session thread pinned to its own core.
type BusySpin struct{}

func (BusySpin) Wait(int) {}
func (BusySpin) Reset()   {}

// Yielding calls runtime.Gosched() every attempt, trading a little
// latency for not pegging the core when contention is sustained.
type Yielding struct{}

func (Yielding) Wait(int) { runtime.Gosched() }
func (Yielding) Reset()   {}

// Sleeping parks the goroutine for a fixed interval every attempt.
// Appropriate for background/non-latency-critical consumers.
type Sleeping struct {
	Interval time.Duration
}

func (s Sleeping) Wait(int) {
	interval := s.Interval
	if interval <= 0 {
		interval = 100 * time.Microsecond
	}
	time.Sleep(interval)
}
func (Sleeping) Reset() {}

// Backoff spins briefly, then escalates to Gosched, then to sleeping with
// the given interval, resetting to the spin phase whenever the wait
// succeeds. This is the general-purpose default: low latency on light
// contention, doesn't burn a core under sustained contention.
type Backoff struct {
	SpinAttempts  int
	YieldAttempts int
	SleepInterval time.Duration
}

// DefaultBackoff returns a Backoff tuned for the common case: a short
// spin phase, a short yield phase, then a 50us sleep.
func DefaultBackoff() Backoff {
	return Backoff{SpinAttempts: 64, YieldAttempts: 256, SleepInterval: 50 * time.Microsecond}
}

func (b Backoff) Wait(attempt int) {
	switch {
	case attempt < b.SpinAttempts:
		return
	case attempt < b.YieldAttempts:
		runtime.Gosched()
	default:
		interval := b.SleepInterval
		if interval <= 0 {
			interval = 50 * time.Microsecond
		}
		time.Sleep(interval)
	}
}

func (Backoff) Reset() {}
