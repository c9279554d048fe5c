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

// Package wire holds the FIX wire-format primitives that every other package
// builds on: tag numbers, the fixed-point decimal used for price/quantity,
// sequence numbers, and the version enum.
package wire

import "strconv"

// Tag identifies a FIX field by its numeric tag.
type Tag int

// Standard header, trailer, and session-layer tags used throughout the
// engine, followed by the order-entry and market-data tags.
const (
	TagBeginString   Tag = 8
	TagBodyLength    Tag = 9
	TagMsgType       Tag = 35
	TagSenderCompID  Tag = 49
	TagTargetCompID  Tag = 56
	TagMsgSeqNum     Tag = 34
	TagSendingTime   Tag = 52
	TagCheckSum      Tag = 10
	TagPossDupFlag   Tag = 43
	TagOrigSendingTm Tag = 122
	TagEncryptMethod Tag = 98
	TagHeartBtInt    Tag = 108
	TagTestReqID     Tag = 112
	TagBeginSeqNo    Tag = 7
	TagEndSeqNo      Tag = 16
	TagNewSeqNo      Tag = 36
	TagGapFillFlag   Tag = 123
	TagRefSeqNum     Tag = 45
	TagRefTagID      Tag = 371
	TagRefMsgType    Tag = 372
	TagSessionRejReason Tag = 373
	TagText          Tag = 58

	// Order entry / execution tags.
	TagAccount      Tag = 1
	TagClOrdID      Tag = 11
	TagCumQty       Tag = 14
	TagCurrency     Tag = 15
	TagExecID       Tag = 17
	TagHandlInst    Tag = 21
	TagOrderID      Tag = 37
	TagOrderQty     Tag = 38
	TagOrdStatus    Tag = 39
	TagOrdType      Tag = 40
	TagOrigClOrdID  Tag = 41
	TagPrice        Tag = 44
	TagSide         Tag = 54
	TagSymbol       Tag = 55
	TagTimeInForce  Tag = 59
	TagTransactTime Tag = 60
	TagAvgPx        Tag = 6
	TagExecType     Tag = 150
	TagLeavesQty    Tag = 151

	// Market data tags.
	TagMDReqID                  Tag = 262
	TagSubscriptionRequestType  Tag = 263
	TagMarketDepth              Tag = 264
	TagMDUpdateType             Tag = 265
	TagNoMDEntryTypes           Tag = 267
	TagNoMDEntries              Tag = 268
	TagMDEntryType              Tag = 269
	TagMDEntryPx                Tag = 270
	TagMDEntrySize              Tag = 271
	TagMDEntryTime              Tag = 273
	TagMDUpdateAction           Tag = 279
	TagNoRelatedSym             Tag = 146
)

// tagPrefixCache holds precomputed "<tag>=" prefixes for tags in the common
// range, avoiding a strconv call on the builder hot path. Populated
// eagerly by init.
var tagPrefixCache [2048]string

func init() {
	for i := range tagPrefixCache {
		tagPrefixCache[i] = strconv.Itoa(i) + "="
	}
}

// Prefix returns the "<tag>=" byte prefix for t, as used by the runtime
// and compile-time-shaped builders.
func (t Tag) Prefix() string {
	if t >= 0 && int(t) < len(tagPrefixCache) {
		return tagPrefixCache[t]
	}
	return strconv.Itoa(int(t)) + "="
}

func (t Tag) String() string {
	return strconv.Itoa(int(t))
}
