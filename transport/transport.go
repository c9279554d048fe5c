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

// Package transport implements the byte-level I/O boundary: a portable
// synchronous TCP transport everywhere, and an io_uring-backed async
// transport on Linux when built with the io_uring tag. Session code talks
// to the Transport interface only; which implementation is live is a
// construction-time choice, not something the session layer branches on.
package transport

import (
	"context"
	"errors"
	"time"
)

// Kind-tagged errors, per the error taxonomy's Transport* bucket. Callers
// switch on errors.Is against these, not on implementation-specific
// syscall errnos.
var (
	ErrRefused     = errors.New("transport: connection refused")
	ErrReset       = errors.New("transport: connection reset")
	ErrTimeout     = errors.New("transport: operation timed out")
	ErrUnreachable = errors.New("transport: host unreachable")
	ErrWouldBlock  = errors.New("transport: operation would block")
	ErrClosed      = errors.New("transport: transport closed")
)

// Endpoint identifies a TCP counterparty by host:port, per the spec's
// "no TLS in the core" external-interface rule — a wrapping Transport may
// add TLS without the session layer knowing.
type Endpoint struct {
	Address string
}

// Transport is the session layer's sole I/O abstraction. It is deliberately
// small and off the hot path in its interface dispatch cost (both
// implementations do the actual byte-copying work; the interface call
// itself is not where time goes).
type Transport interface {
	// Connect establishes the underlying connection. Connect is a
	// suspension point.
	Connect(ctx context.Context, ep Endpoint) error
	// Accept waits for and accepts one inbound connection, for the
	// listening side of a session. Also a suspension point.
	Accept(ctx context.Context) error
	// Send writes buf in full or returns an error; partial writes are not
	// exposed to callers. A suspension point.
	Send(ctx context.Context, buf []byte) error
	// Recv reads into buf and returns the number of bytes read. May
	// return fewer bytes than len(buf); callers loop until they have a
	// full frame. A suspension point.
	Recv(ctx context.Context, buf []byte) (int, error)
	// Close tears down the connection. Calling Close twice is safe; the
	// second call is a no-op returning ErrClosed.
	Close() error
}

// DefaultDialTimeout is a ten-second dial bound. Neither Connect
// implementation reads it; Connect is bounded only by ctx.
const DefaultDialTimeout = 10 * time.Second
