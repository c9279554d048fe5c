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

// Package deferred hands inbound application-level messages from the
// session's hot receive path to a background worker: the session thread
// stamps, copies, and try-pushes onto an SPSC queue without calling out to
// application code itself (the copy is a fresh heap allocation per
// message, and the Block policy can wait for room); a dedicated
// goroutine drains the queue, parses fully, and invokes the callback.
package deferred

import (
	"errors"

	"github.com/lattice-fix/fixengine/queue"
)

// Record is the fixed-shape value the hot path pushes. Bytes is a
// pre-sized copy owned by the record (not a view into the transport's
// inbound buffer), so the record outlives the buffer it was copied from.
type Record struct {
	StampNanos int64
	Bytes      []byte
}

// OverflowPolicy governs what the hot path does when try_push fails
// because the background worker hasn't kept up.
type OverflowPolicy int

const (
	// Block retries the push (optionally spinning/yielding per a
	// WaitStrategy) until room frees up, applying back-pressure to the
	// inbound I/O loop.
	Block OverflowPolicy = iota
	// Escalate returns ErrOverload immediately instead of blocking,
	// letting the caller decide (e.g. disconnect, drop, log and
	// continue).
	Escalate
)

// ErrOverload is returned by Offer under the Escalate policy when the
// queue has no room.
var ErrOverload = errors.New("deferred: queue overload")

// Processor couples an SPSC queue with a background drain loop. The zero
// value is not usable; construct with New.
type Processor struct {
	q        *queue.SPSC[Record]
	policy   OverflowPolicy
	strategy queue.WaitStrategy
	callback func(Record)

	stop chan struct{}
	done chan struct{}
}

// Config configures a Processor.
type Config struct {
	Capacity int
	Policy   OverflowPolicy
	// Strategy is consulted between retries under the Block policy. If
	// nil, queue.DefaultBackoff() is used.
	Strategy queue.WaitStrategy
	// Callback is invoked by the background goroutine for every drained
	// record, in receive order.
	Callback func(Record)
}

// New builds a Processor and starts its background drain goroutine.
// Callers must call Stop to release it.
func New(cfg Config) *Processor {
	strategy := cfg.Strategy
	if strategy == nil {
		b := queue.DefaultBackoff()
		strategy = b
	}
	p := &Processor{
		q:        queue.NewSPSC[Record](cfg.Capacity),
		policy:   cfg.Policy,
		strategy: strategy,
		callback: cfg.Callback,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go p.drainLoop()
	return p
}

// Offer is the hot-path entry point: stamp, copy, try_push. Every call
// allocates a new slice holding a copy of raw for the Record. It never
// blocks under the Escalate policy; under Block it may spin/yield per the configured
// WaitStrategy, which is a deliberate back-pressure suspension point, not
// an error condition.
func (p *Processor) Offer(stampNanos int64, raw []byte) error {
	rec := Record{StampNanos: stampNanos, Bytes: append([]byte(nil), raw...)}
	if err := p.q.TryPush(rec); err != nil {
		switch p.policy {
		case Escalate:
			return ErrOverload
		default:
			p.q.Push(rec, p.strategy)
			return nil
		}
	}
	return nil
}

func (p *Processor) drainLoop() {
	defer close(p.done)
	for {
		select {
		case <-p.stop:
			p.drainRemaining()
			return
		default:
		}
		rec, err := p.q.TryPop()
		if err != nil {
			p.strategy.Wait(0)
			continue
		}
		p.strategy.Reset()
		p.callback(rec)
	}
}

// drainRemaining flushes whatever is left in the queue once Stop is
// called, so a clean shutdown doesn't silently drop already-offered
// records.
func (p *Processor) drainRemaining() {
	for {
		rec, err := p.q.TryPop()
		if err != nil {
			return
		}
		p.callback(rec)
	}
}

// Stop signals the background goroutine to drain what remains and exit,
// then waits for it to finish.
func (p *Processor) Stop() {
	close(p.stop)
	<-p.done
}

// Len reports the approximate number of records awaiting drain.
func (p *Processor) Len() int { return p.q.Len() }
