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

// Package builder assembles FIX text messages. Builder is the runtime
// field-by-field builder; CT* functions are the compile-time-shaped
// equivalents for the handful of administrative messages hot enough to
// warrant it (Logon, Heartbeat) — see ct.go.
package builder

import (
	"strconv"
	"time"

	"github.com/lattice-fix/fixengine/simd"
	"github.com/lattice-fix/fixengine/wire"
)

const soh = 0x01

// FixTimeFormat is the FIX UTCTimestamp layout used for SendingTime and
// OrigSendingTime.
const FixTimeFormat = "20060102-15:04:05.000"

// Builder accumulates body fields in the order they'll appear on the wire,
// then assembles a complete message (header + body + trailer) in Build.
// Header/trailer field order is fixed; body order is caller-controlled and
// preserved, per the parser round-trip invariant.
type Builder struct {
	BeginString  string
	MsgType      string
	SenderCompID string
	TargetCompID string
	MsgSeqNum    wire.SeqNum
	SendingTime  time.Time

	body []byte
}

// Reset clears accumulated body fields so the Builder can be reused for the
// next message without reallocating its backing array.
func (b *Builder) Reset() {
	b.body = b.body[:0]
}

func (b *Builder) appendPrefix(tag wire.Tag) {
	b.body = append(b.body, tag.Prefix()...)
}

// SetString appends tag=value<SOH> to the body.
func (b *Builder) SetString(tag wire.Tag, value string) {
	b.appendPrefix(tag)
	b.body = append(b.body, value...)
	b.body = append(b.body, soh)
}

// SetStringIfNotEmpty appends the field only when value is non-empty,
// matching the conditional-field convention in the FIX spec.
func (b *Builder) SetStringIfNotEmpty(tag wire.Tag, value string) {
	if value != "" {
		b.SetString(tag, value)
	}
}

// SetInt appends an integer field.
func (b *Builder) SetInt(tag wire.Tag, v int64) {
	b.appendPrefix(tag)
	b.body = strconv.AppendInt(b.body, v, 10)
	b.body = append(b.body, soh)
}

// SetDecimal appends a FixedPoint field using its shortest lossless
// decimal representation.
func (b *Builder) SetDecimal(tag wire.Tag, v wire.FixedPoint) {
	b.SetString(tag, v.String())
}

// SetChar appends a single-character field (flags, enums).
func (b *Builder) SetChar(tag wire.Tag, c byte) {
	b.appendPrefix(tag)
	b.body = append(b.body, c, soh)
}

// SetBool appends a FIX Boolean field as 'Y' or 'N'.
func (b *Builder) SetBool(tag wire.Tag, v bool) {
	if v {
		b.SetChar(tag, 'Y')
	} else {
		b.SetChar(tag, 'N')
	}
}

// Build assembles the complete message: standard header (8=, 9=, 35=, 49=,
// 56=, 34=, 52=), the accumulated body, and the trailer (10=). BodyLength
// counts everything between the SOH after 9=<n> and the SOH before 10=,
// inclusive of the header fields after BodyLength — the body passed to
// Build is exactly that span, so no separate patch step is needed: the
// length is known before the header is written.
func (b *Builder) Build() []byte {
	headerTail := make([]byte, 0, 64+len(b.body))
	headerTail = append(headerTail, wire.TagMsgType.Prefix()...)
	headerTail = append(headerTail, b.MsgType...)
	headerTail = append(headerTail, soh)
	headerTail = append(headerTail, wire.TagSenderCompID.Prefix()...)
	headerTail = append(headerTail, b.SenderCompID...)
	headerTail = append(headerTail, soh)
	headerTail = append(headerTail, wire.TagTargetCompID.Prefix()...)
	headerTail = append(headerTail, b.TargetCompID...)
	headerTail = append(headerTail, soh)
	headerTail = append(headerTail, wire.TagMsgSeqNum.Prefix()...)
	headerTail = strconv.AppendInt(headerTail, int64(b.MsgSeqNum), 10)
	headerTail = append(headerTail, soh)
	headerTail = append(headerTail, wire.TagSendingTime.Prefix()...)
	headerTail = append(headerTail, b.SendingTime.UTC().Format(FixTimeFormat)...)
	headerTail = append(headerTail, soh)
	headerTail = append(headerTail, b.body...)

	out := make([]byte, 0, len(headerTail)+32)
	out = append(out, wire.TagBeginString.Prefix()...)
	out = append(out, b.BeginString...)
	out = append(out, soh)
	out = append(out, wire.TagBodyLength.Prefix()...)
	out = strconv.AppendInt(out, int64(len(headerTail)), 10)
	out = append(out, soh)
	out = append(out, headerTail...)

	cs := simd.Checksum(out)
	out = append(out, wire.TagCheckSum.Prefix()...)
	out = append(out, simd.FormatChecksum(cs)...)
	out = append(out, soh)
	return out
}
