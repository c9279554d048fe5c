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

// Package store implements the outbound message store backing at-least-once
// delivery: every outbound message is durably recorded before the
// transport sends it, so a resend request can always be served from what
// was actually sent. Memory is the fast, volatile implementation used in
// tests and for inbound-only sessions; Persistent is the mmap-backed,
// crash-recoverable one the session layer uses for anything that must
// survive a restart.
package store

import (
	"errors"
	"sync"

	"github.com/lattice-fix/fixengine/wire"
)

// ErrNotFound is returned by Retrieve when no record exists for the
// requested sequence number.
var ErrNotFound = errors.New("store: sequence not found")

// ErrFull is returned when a bounded store implementation has no room for
// another record. Persistent returns it once its mapped capacity is used
// up; Memory grows without bound and never returns it.
var ErrFull = errors.New("store: full")

// Record is one stored outbound message.
type Record struct {
	Seq       wire.SeqNum
	TimestampNanos int64
	Bytes     []byte
}

// Store is the persistence boundary the session layer writes through
// before handing a message to the transport, and reads through when
// answering a ResendRequest. Implementations must guarantee store
// density: every sequence number from 1 through the highest written
// sequence has a retrievable record.
type Store interface {
	// Append persists rec. Sequence numbers must be appended in strictly
	// increasing order with no gaps; Append returns an error otherwise.
	Append(rec Record) error
	// Retrieve returns the record for seq, or ErrNotFound.
	Retrieve(seq wire.SeqNum) (Record, error)
	// HighestSeq returns the highest sequence number appended so far, or
	// 0 if the store is empty.
	HighestSeq() wire.SeqNum
	// Close releases any underlying resources (file handles, mmap
	// regions). A store that was never backed by a resource (Memory) may
	// treat Close as a no-op.
	Close() error
}

// Memory is an in-memory Store. Safe for concurrent readers; writers must
// be a single session thread per the engine's locking discipline, but
// Retrieve/HighestSeq take a shared lock so administrative queries from
// other goroutines are safe.
type Memory struct {
	mu      sync.RWMutex
	records map[wire.SeqNum]Record
	highest wire.SeqNum
}

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[wire.SeqNum]Record)}
}

func (m *Memory) Append(rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.Seq != m.highest+1 {
		return errors.New("store: non-contiguous append")
	}
	cp := make([]byte, len(rec.Bytes))
	copy(cp, rec.Bytes)
	rec.Bytes = cp
	m.records[rec.Seq] = rec
	m.highest = rec.Seq
	return nil
}

func (m *Memory) Retrieve(seq wire.SeqNum) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[seq]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (m *Memory) HighestSeq() wire.SeqNum {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.highest
}

func (m *Memory) Close() error { return nil }
