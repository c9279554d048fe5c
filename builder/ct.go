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

package builder

import (
	"strconv"
	"time"

	"github.com/lattice-fix/fixengine/simd"
	"github.com/lattice-fix/fixengine/wire"
)

// CTTag is implemented by zero-size marker types, one per tag, whose
// Prefix method returns a compile-time constant string. The Go compiler
// inlines and constant-folds calls through these markers, so AppendField
// compiles to the same instruction sequence as a hand-written
// `append(dst, "35="...)` — the generic parameter carries no runtime cost.
//
// This is the Go-idiomatic stand-in for the compile-time template
// metaprogramming the header-only C++ builders in this space use to shape
// a message's field list at compile time: here the "shape" is the call
// site's sequence of AppendField[TXxx] invocations, checked by the
// compiler instead of a template instantiation.
type CTTag interface {
	Prefix() string
}

// AppendField writes tag=value<SOH> to dst using T's compile-time prefix.
func AppendField[T CTTag](dst []byte, value string) []byte {
	var t T
	dst = append(dst, t.Prefix()...)
	dst = append(dst, value...)
	return append(dst, soh)
}

// AppendIntField writes tag=<v><SOH> to dst using T's compile-time prefix.
func AppendIntField[T CTTag](dst []byte, v int64) []byte {
	var t T
	dst = append(dst, t.Prefix()...)
	dst = strconv.AppendInt(dst, v, 10)
	return append(dst, soh)
}

// Marker types for the tags the compile-time builders below use. Each
// Prefix body is a single string literal so it folds to a constant.
type (
	TBeginString  struct{}
	TBodyLength   struct{}
	TMsgType      struct{}
	TSenderCompID struct{}
	TTargetCompID struct{}
	TMsgSeqNum    struct{}
	TSendingTime  struct{}
	TCheckSum     struct{}
	THeartBtInt    struct{}
	TTestReqID     struct{}
	TEncryptMethod struct{}
)

func (TBeginString) Prefix() string  { return "8=" }
func (TBodyLength) Prefix() string   { return "9=" }
func (TMsgType) Prefix() string      { return "35=" }
func (TSenderCompID) Prefix() string { return "49=" }
func (TTargetCompID) Prefix() string { return "56=" }
func (TMsgSeqNum) Prefix() string    { return "34=" }
func (TSendingTime) Prefix() string  { return "52=" }
func (TCheckSum) Prefix() string     { return "10=" }
func (THeartBtInt) Prefix() string    { return "108=" }
func (TTestReqID) Prefix() string     { return "112=" }
func (TEncryptMethod) Prefix() string { return "98=" }

// ctHeaderTail builds the 35=/49=/56=/34=/52= run common to every
// compile-time builder, followed by the message-specific fields the
// caller already appended to body.
func ctHeaderTail(msgType, senderCompID, targetCompID string, seqNum wire.SeqNum, sendingTime time.Time, body []byte) []byte {
	headerTail := make([]byte, 0, 64+len(body))
	headerTail = AppendField[TMsgType](headerTail, msgType)
	headerTail = AppendField[TSenderCompID](headerTail, senderCompID)
	headerTail = AppendField[TTargetCompID](headerTail, targetCompID)
	headerTail = AppendIntField[TMsgSeqNum](headerTail, int64(seqNum))
	headerTail = AppendField[TSendingTime](headerTail, sendingTime.UTC().Format(FixTimeFormat))
	return append(headerTail, body...)
}

// ctFrame wraps headerTail with BeginString/BodyLength and the checksum
// trailer, byte-for-byte identical to Builder.Build's framing.
func ctFrame(beginString string, headerTail []byte) []byte {
	out := make([]byte, 0, len(headerTail)+32)
	out = AppendField[TBeginString](out, beginString)
	out = AppendIntField[TBodyLength](out, int64(len(headerTail)))
	out = append(out, headerTail...)

	cs := simd.Checksum(out)
	out = AppendField[TCheckSum](out, simd.FormatChecksum(cs))
	return out
}

// CTBuildHeartbeat builds a Heartbeat(0) message with the compile-time
// typed field appenders. For a fixed message shape like this one, every
// field's tag prefix is known at compile time, so the whole call chain
// specializes the way the equivalent Builder.SetString/Build sequence
// would, without going through the tagPrefixCache indirection.
func CTBuildHeartbeat(beginString, senderCompID, targetCompID string, seqNum wire.SeqNum, sendingTime time.Time, testReqID string) []byte {
	var body []byte
	if testReqID != "" {
		body = AppendField[TTestReqID](body, testReqID)
	}
	headerTail := ctHeaderTail("0", senderCompID, targetCompID, seqNum, sendingTime, body)
	return ctFrame(beginString, headerTail)
}

// CTBuildLogon builds a Logon(A) message with the compile-time typed
// field appenders.
func CTBuildLogon(beginString, senderCompID, targetCompID string, seqNum wire.SeqNum, sendingTime time.Time, heartBtInt int64) []byte {
	body := AppendIntField[TEncryptMethod](nil, 0)
	body = AppendIntField[THeartBtInt](body, heartBtInt)
	headerTail := ctHeaderTail("A", senderCompID, targetCompID, seqNum, sendingTime, body)
	return ctFrame(beginString, headerTail)
}
