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

// Per-message-type accessors over a ParsedMessage. Each shape is a thin,
// zero-copy view — it holds no state beyond the *ParsedMessage it wraps.
package fixmsg

import "github.com/lattice-fix/fixengine/wire"

// Logon wraps a Logon(A) message.
type Logon struct{ *ParsedMessage }

func (m Logon) HeartBtInt() (int64, error) {
	f, ok := m.Field(wire.TagHeartBtInt)
	if !ok {
		return 0, ErrTagNotFound
	}
	return f.Int()
}

// Heartbeat wraps a Heartbeat(0) message.
type Heartbeat struct{ *ParsedMessage }

func (m Heartbeat) TestReqID() (string, bool) {
	f, ok := m.Field(wire.TagTestReqID)
	if !ok {
		return "", false
	}
	return f.String(), true
}

// TestRequest wraps a TestRequest(1) message.
type TestRequest struct{ *ParsedMessage }

func (m TestRequest) TestReqID() (string, error) {
	f, ok := m.Field(wire.TagTestReqID)
	if !ok {
		return "", ErrTagNotFound
	}
	return f.String(), nil
}

// ResendRequest wraps a ResendRequest(2) message.
type ResendRequest struct{ *ParsedMessage }

func (m ResendRequest) Range() (begin, end wire.SeqNum, err error) {
	b, ok := m.Field(wire.TagBeginSeqNo)
	if !ok {
		return 0, 0, ErrTagNotFound
	}
	bv, err := b.Int()
	if err != nil {
		return 0, 0, err
	}
	e, ok := m.Field(wire.TagEndSeqNo)
	if !ok {
		return 0, 0, ErrTagNotFound
	}
	ev, err := e.Int()
	if err != nil {
		return 0, 0, err
	}
	return wire.SeqNum(bv), wire.SeqNum(ev), nil
}

// Reject wraps a session-level Reject(3) message.
type Reject struct{ *ParsedMessage }

func (m Reject) RefSeqNum() (wire.SeqNum, error) {
	f, ok := m.Field(wire.TagRefSeqNum)
	if !ok {
		return 0, ErrTagNotFound
	}
	v, err := f.Int()
	return wire.SeqNum(v), err
}

func (m Reject) RefTagID() (int64, bool) {
	f, ok := m.Field(wire.TagRefTagID)
	if !ok {
		return 0, false
	}
	v, err := f.Int()
	return v, err == nil
}

func (m Reject) SessionRejectReason() (int64, bool) {
	f, ok := m.Field(wire.TagSessionRejReason)
	if !ok {
		return 0, false
	}
	v, err := f.Int()
	return v, err == nil
}

// SequenceReset wraps a SequenceReset(4) message (gap fill or plain reset).
type SequenceReset struct{ *ParsedMessage }

func (m SequenceReset) NewSeqNo() (wire.SeqNum, error) {
	f, ok := m.Field(wire.TagNewSeqNo)
	if !ok {
		return 0, ErrTagNotFound
	}
	v, err := f.Int()
	return wire.SeqNum(v), err
}

func (m SequenceReset) GapFillFlag() bool {
	f, ok := m.Field(wire.TagGapFillFlag)
	if !ok {
		return false
	}
	b, err := f.Bool()
	return err == nil && b
}

// Logout wraps a Logout(5) message.
type Logout struct{ *ParsedMessage }

func (m Logout) Text() (string, bool) {
	f, ok := m.Field(wire.TagText)
	if !ok {
		return "", false
	}
	return f.String(), true
}

// NewOrderSingle wraps a NewOrderSingle(D) message.
type NewOrderSingle struct{ *ParsedMessage }

func (m NewOrderSingle) ClOrdID() (string, error) {
	f, ok := m.Field(wire.TagClOrdID)
	if !ok {
		return "", ErrTagNotFound
	}
	return f.String(), nil
}

func (m NewOrderSingle) Symbol() (string, error) {
	f, ok := m.Field(wire.TagSymbol)
	if !ok {
		return "", ErrTagNotFound
	}
	return f.String(), nil
}

func (m NewOrderSingle) Side() (byte, error) {
	f, ok := m.Field(wire.TagSide)
	if !ok {
		return 0, ErrTagNotFound
	}
	return f.Char()
}

func (m NewOrderSingle) OrderQty() (wire.FixedPoint, error) {
	f, ok := m.Field(wire.TagOrderQty)
	if !ok {
		return wire.FixedPoint{}, ErrTagNotFound
	}
	return f.Decimal()
}

func (m NewOrderSingle) Price() (wire.FixedPoint, error) {
	f, ok := m.Field(wire.TagPrice)
	if !ok {
		return wire.FixedPoint{}, ErrTagNotFound
	}
	return f.Decimal()
}

// ExecutionReport wraps an ExecutionReport(8) message.
type ExecutionReport struct{ *ParsedMessage }

func (m ExecutionReport) ExecID() (string, error) {
	f, ok := m.Field(wire.TagExecID)
	if !ok {
		return "", ErrTagNotFound
	}
	return f.String(), nil
}

func (m ExecutionReport) OrdStatus() (byte, error) {
	f, ok := m.Field(wire.TagOrdStatus)
	if !ok {
		return 0, ErrTagNotFound
	}
	return f.Char()
}

func (m ExecutionReport) CumQty() (wire.FixedPoint, error) {
	f, ok := m.Field(wire.TagCumQty)
	if !ok {
		return wire.FixedPoint{}, ErrTagNotFound
	}
	return f.Decimal()
}

func (m ExecutionReport) LeavesQty() (wire.FixedPoint, error) {
	f, ok := m.Field(wire.TagLeavesQty)
	if !ok {
		return wire.FixedPoint{}, ErrTagNotFound
	}
	return f.Decimal()
}

// MDEntry is one parsed repeating-group member of a market data message.
type MDEntry struct {
	Type  byte
	Price wire.FixedPoint
	Size  wire.FixedPoint
	Time  string
}

// MarketDataSnapshot wraps a MarketDataSnapshot(W) or
// MarketDataIncrementalRefresh(X) message and walks its NoMDEntries group.
//
// Generalizes the teacher's findEntryBoundaries/parseTradeFromSegmentFast
// hot path: instead of re-scanning the raw string for "269=", it walks the
// structural index by ordinal from the NoMDEntries counter field, so the
// SOH scan happens exactly once (in Build), not once per accessor call.
type MarketDataSnapshot struct{ *ParsedMessage }

func (m MarketDataSnapshot) Symbol() (string, error) {
	f, ok := m.Field(wire.TagSymbol)
	if !ok {
		return "", ErrTagNotFound
	}
	return f.String(), nil
}

func (m MarketDataSnapshot) MDReqID() (string, bool) {
	f, ok := m.Field(wire.TagMDReqID)
	if !ok {
		return "", false
	}
	return f.String(), true
}

// Entries returns every NoMDEntries group member in document order.
func (m MarketDataSnapshot) Entries() ([]MDEntry, error) {
	countField, ok := m.Field(wire.TagNoMDEntries)
	if !ok {
		return nil, nil
	}
	count, err := countField.Int()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	idx := m.Index()
	start := idx.OrdinalOf(wire.TagNoMDEntries, 0)
	if start < 0 {
		return nil, ErrTagNotFound
	}

	entries := make([]MDEntry, 0, count)
	idxLen := idx.Len()
	for i := start + 1; i < idxLen && int64(len(entries)) < count; i++ {
		fv, _ := idx.AtOrdinal(i)
		if fv.Tag() != wire.TagMDEntryType {
			// A non-member tag before the group has produced `count`
			// entries means the group ended early (malformed NoMDEntries);
			// stop rather than misattribute trailing fields.
			break
		}
		c, err := fv.Char()
		if err != nil {
			return nil, err
		}
		entry := MDEntry{Type: c}
		for i+1 < idxLen {
			next, _ := idx.AtOrdinal(i + 1)
			switch next.Tag() {
			case wire.TagMDEntryPx:
				entry.Price, _ = next.Decimal()
			case wire.TagMDEntrySize:
				entry.Size, _ = next.Decimal()
			case wire.TagMDEntryTime:
				entry.Time = next.String()
			}
			if next.Tag() != wire.TagMDEntryPx && next.Tag() != wire.TagMDEntrySize && next.Tag() != wire.TagMDEntryTime {
				break
			}
			i++
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
