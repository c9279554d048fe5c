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

package fixmsg

import (
	"fmt"

	"github.com/lattice-fix/fixengine/wire"
)

// FrameKind classifies why a buffer failed structural validation. These map
// directly to the error taxonomy in the design: Truncated is recoverable by
// reading more bytes, the rest are fatal to the buffer as framed.
type FrameKind int

const (
	Truncated FrameKind = iota
	BadBeginString
	BadBodyLength
	BadChecksum
	MalformedField
)

func (k FrameKind) String() string {
	switch k {
	case Truncated:
		return "Truncated"
	case BadBeginString:
		return "BadBeginString"
	case BadBodyLength:
		return "BadBodyLength"
	case BadChecksum:
		return "BadChecksum"
	case MalformedField:
		return "MalformedField"
	default:
		return "Unknown"
	}
}

// FrameError reports a structural problem with a message buffer. Truncated
// is not a protocol violation — it means "read more" — while the others
// indicate the buffer cannot be parsed as framed.
type FrameError struct {
	Kind   FrameKind
	Detail string
	// Raw holds the full message buffer when framing was well-formed
	// enough to identify its bounds (e.g. BadChecksum) — callers that
	// need to cite a RefSeqNum in a Reject can re-index it even though
	// Parse itself refused to hand back a ParsedMessage. Nil when framing
	// was lost before the buffer's bounds could be determined.
	Raw []byte
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("fixmsg: %s: %s", e.Kind, e.Detail)
}

// ValueParseError reports a failed value conversion for a specific tag —
// e.g. a non-numeric MsgSeqNum. Conversions never panic; they return this
// error instead.
type ValueParseError struct {
	Tag    wire.Tag
	Reason string
}

func (e *ValueParseError) Error() string {
	return fmt.Sprintf("fixmsg: tag %s: %s", e.Tag, e.Reason)
}

// ErrTagNotFound is returned by the message-shape value accessors when the
// requested tag is absent from the message.
var ErrTagNotFound = fmt.Errorf("fixmsg: tag not found")
