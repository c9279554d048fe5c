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

// Package session implements the FIX session-layer state machine:
// Disconnected -> LogonSent -> Active -> {ResendRequested, LogoutSent} ->
// Disconnected. A Session owns its outbound sequence counter and writes
// through a store.Store before handing bytes to a Sender, so a resend
// request can always be answered from what was actually sent.
//
// Session is not safe for concurrent use. The caller (a single session I/O
// thread, per the threading model) drives it by feeding inbound bytes to
// HandleRaw and firing Tick on a heartbeat/timeout schedule; both take an
// explicit `now` rather than reading a wall clock, so tests can simulate
// arbitrary clock advances without sleeping.
package session

import (
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/lattice-fix/fixengine/builder"
	"github.com/lattice-fix/fixengine/fixmsg"
	"github.com/lattice-fix/fixengine/store"
	"github.com/lattice-fix/fixengine/wire"
)

// State is one node of the session state machine.
type State int

const (
	Disconnected State = iota
	LogonSent
	Active
	ResendRequested
	LogoutSent
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case LogonSent:
		return "LogonSent"
	case Active:
		return "Active"
	case ResendRequested:
		return "ResendRequested"
	case LogoutSent:
		return "LogoutSent"
	default:
		return "Unknown"
	}
}

// sessionRejectValueIncorrect is FIX SessionRejectReason 5: "value is
// incorrect (out of range) for this tag", used for the bad-checksum and
// bad-body-length Reject paths.
const sessionRejectValueIncorrect = 5

// Sender is the narrow send-side the session needs from a transport. See
// TransportSender for an adapter over transport.Transport.
type Sender interface {
	Send(buf []byte) error
}

// Config configures a Session. Store and Sender are required; Deliver may
// be nil if the caller only wants administrative handling.
type Config struct {
	BeginString  string
	SenderCompID string
	TargetCompID string
	// HeartBtInt is the negotiated heartbeat interval. Zero disables the
	// heartbeat/test-request/timeout schedule (Tick becomes a no-op).
	HeartBtInt time.Duration
	Store      store.Store
	Sender     Sender
	// Deliver is invoked for every application-level message accepted in
	// sequence. It is called synchronously from HandleRaw; callers wanting
	// the deferred-processor handoff described in the concurrency model
	// should have Deliver hand the message to a deferred.Processor rather
	// than parse further here.
	Deliver func(*fixmsg.ParsedMessage)
	// DeliverDuplicates exposes PossDup-suppressed duplicates to Deliver
	// instead of silently discarding them.
	DeliverDuplicates bool
	Logger            *logrus.Logger
	// Audit, if set, receives a RecordEvent call at each connect/logon/
	// reject/disconnect transition. Optional: a nil Audit silently skips
	// the secondary event log.
	Audit *store.Audit
	// SessionID tags Audit rows. Defaults to "<SenderCompID>/<TargetCompID>"
	// when empty.
	SessionID string
}

// Session is a single FIX session's state machine.
type Session struct {
	cfg Config
	log *logrus.Entry

	state        State
	outboundSeq  *wire.SeqCounter
	expectedIn   wire.SeqNum
	resendTarget wire.SeqNum

	lastRecv          time.Time
	lastSent          time.Time
	pendingTestReqID  string
}

// New builds a Session in the Disconnected state with both sequence
// counters starting at 1.
func New(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	if cfg.SessionID == "" {
		cfg.SessionID = cfg.SenderCompID + "/" + cfg.TargetCompID
	}
	return &Session{
		cfg:         cfg,
		log:         logger.WithFields(logrus.Fields{"sender": cfg.SenderCompID, "target": cfg.TargetCompID}),
		state:       Disconnected,
		outboundSeq: wire.NewSeqCounter(1),
		expectedIn:  1,
	}
}

// audit records a lifecycle event to cfg.Audit when one is configured. A
// write failure is logged, not returned: the audit log is a supplementary
// record, never a reason to fail the session transition that triggered it.
func (s *Session) audit(seq wire.SeqNum, kind, detail string, now time.Time) {
	if s.cfg.Audit == nil {
		return
	}
	if err := s.cfg.Audit.RecordEvent(s.cfg.SessionID, seq, kind, detail, now.UnixNano()); err != nil {
		s.log.WithError(err).WithField("kind", kind).Warn("audit record failed")
	}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// ExpectedInbound returns the next inbound sequence number the session
// expects to deliver.
func (s *Session) ExpectedInbound() wire.SeqNum { return s.expectedIn }

// Connect sends Logon(A) and transitions Disconnected -> LogonSent.
func (s *Session) Connect(now time.Time) error {
	if s.state != Disconnected {
		return fmt.Errorf("session: Connect called from state %s", s.state)
	}
	heartBtSec := int64(s.cfg.HeartBtInt / time.Second)
	if _, err := s.sendNewRaw(func(seq wire.SeqNum) []byte {
		return builder.CTBuildLogon(s.cfg.BeginString, s.cfg.SenderCompID, s.cfg.TargetCompID, seq, now, heartBtSec)
	}, now); err != nil {
		return err
	}
	s.state = LogonSent
	s.lastRecv = now
	s.audit(0, "connect", "", now)
	s.log.Info("sent Logon, awaiting counterparty")
	return nil
}

// Disconnect initiates an orderly Logout on the first call (Active or
// ResendRequested -> LogoutSent); a second call (or a call from any other
// state) forces immediate teardown, per the cancellation model's "second
// invocation forces immediate transport close" rule — actually closing the
// transport is the caller's responsibility once this returns Disconnected.
func (s *Session) Disconnect(now time.Time) error {
	switch s.state {
	case Active, ResendRequested:
		b := &builder.Builder{
			BeginString:  s.cfg.BeginString,
			MsgType:      fixmsg.MsgTypeLogout,
			SenderCompID: s.cfg.SenderCompID,
			TargetCompID: s.cfg.TargetCompID,
			SendingTime:  now,
		}
		if err := s.sendNew(b); err != nil {
			return err
		}
		s.state = LogoutSent
		s.audit(0, "disconnect", "orderly logout", now)
		s.log.Info("sent Logout, awaiting counterparty")
		return nil
	default:
		s.log.Warn("Disconnect called outside Active/ResendRequested, forcing teardown")
		s.audit(0, "disconnect", "forced teardown", now)
		s.state = Disconnected
		return nil
	}
}

// HandleRaw parses one complete message buffer and drives the state
// machine. A Truncated *fixmsg.FrameError is returned unchanged so the
// caller knows to buffer more bytes; it is not a session failure.
func (s *Session) HandleRaw(buf []byte, now time.Time) error {
	pm, err := fixmsg.Parse(buf)
	if err != nil {
		return s.handleFrameError(err, now)
	}
	return s.handleParsed(pm, now)
}

func (s *Session) handleFrameError(err error, now time.Time) error {
	fe, ok := err.(*fixmsg.FrameError)
	if !ok {
		return err
	}
	switch fe.Kind {
	case fixmsg.Truncated:
		return err
	case fixmsg.BadBeginString:
		s.log.WithField("detail", fe.Detail).Warn("framing lost, forcing disconnect")
		s.state = Disconnected
		return err
	case fixmsg.BadChecksum, fixmsg.BadBodyLength, fixmsg.MalformedField:
		var refTag wire.Tag
		switch fe.Kind {
		case fixmsg.BadChecksum:
			refTag = wire.TagCheckSum
		case fixmsg.BadBodyLength:
			refTag = wire.TagBodyLength
		}
		refSeq := s.refSeqNumFromRaw(fe.Raw)
		if rejErr := s.sendReject(refSeq, refTag, sessionRejectValueIncorrect, fe.Detail, now); rejErr != nil {
			return rejErr
		}
		s.audit(refSeq, "reject", fe.Detail, now)
		s.log.WithFields(logrus.Fields{"kind": fe.Kind.String(), "detail": fe.Detail}).
			Warn("rejected malformed message, inbound sequence not advanced")
		return nil
	default:
		return err
	}
}

// refSeqNumFromRaw recovers MsgSeqNum from a buffer whose checksum failed
// validation (so fixmsg.Parse refused it) by re-indexing with fixmsg.Build,
// which never checks the checksum. Falls back to the session's current
// expected-inbound sequence when the buffer isn't available or doesn't
// parse structurally either.
func (s *Session) refSeqNumFromRaw(raw []byte) wire.SeqNum {
	if raw == nil {
		return s.expectedIn
	}
	idx, err := fixmsg.Build(raw)
	if err != nil {
		return s.expectedIn
	}
	fv, ok := idx.Field(wire.TagMsgSeqNum)
	if !ok {
		return s.expectedIn
	}
	v, err := fv.Int()
	if err != nil {
		return s.expectedIn
	}
	return wire.SeqNum(v)
}

func (s *Session) handleParsed(pm *fixmsg.ParsedMessage, now time.Time) error {
	switch s.state {
	case Disconnected:
		return fmt.Errorf("session: received message while Disconnected")
	case LogonSent:
		return s.handleLogonSent(pm, now)
	case LogoutSent:
		if pm.MsgType() == fixmsg.MsgTypeLogout {
			s.audit(0, "disconnect", "counterparty logout", now)
			s.log.Info("received Logout, tearing down")
			s.state = Disconnected
			return nil
		}
		return s.dispatch(pm, now)
	default: // Active, ResendRequested
		return s.dispatch(pm, now)
	}
}

func (s *Session) handleLogonSent(pm *fixmsg.ParsedMessage, now time.Time) error {
	if pm.MsgType() != fixmsg.MsgTypeLogon {
		s.state = Disconnected
		return fmt.Errorf("session: expected Logon, got MsgType %q", pm.MsgType())
	}
	seq, err := pm.MsgSeqNum()
	if err != nil {
		s.state = Disconnected
		return err
	}
	s.expectedIn = seq + 1
	s.lastRecv = now
	s.state = Active
	s.audit(seq, "logon_ack", "", now)
	s.log.Info("Logon acknowledged, session Active")
	return nil
}

// dispatch applies the Active/ResendRequested sequence-compare rules from
// the state machine.
func (s *Session) dispatch(pm *fixmsg.ParsedMessage, now time.Time) error {
	seq, err := pm.MsgSeqNum()
	if err != nil {
		return err
	}
	possDup := pm.PossDupFlag()

	switch {
	case seq == s.expectedIn:
		s.lastRecv = now
		if err := s.handleInOrder(pm, now); err != nil {
			return err
		}
		s.expectedIn++
		if s.state == ResendRequested && s.expectedIn > s.resendTarget {
			s.state = Active
		}
		return nil
	case seq > s.expectedIn:
		s.lastRecv = now
		gapBegin, gapEnd := s.expectedIn, seq-1
		s.resendTarget = seq
		s.state = ResendRequested
		return s.sendResendRequest(gapBegin, gapEnd, now)
	case possDup:
		s.lastRecv = now
		if s.cfg.DeliverDuplicates && s.cfg.Deliver != nil {
			s.cfg.Deliver(pm)
		}
		return nil
	default:
		s.log.WithField("seq", seq).Warn("sequence below expected without PossDupFlag, fatal")
		s.audit(seq, "disconnect", "sequence below expected without PossDupFlag", now)
		s.state = Disconnected
		return fmt.Errorf("session: sequence %d below expected %d without PossDupFlag", seq, s.expectedIn)
	}
}

func (s *Session) handleInOrder(pm *fixmsg.ParsedMessage, now time.Time) error {
	switch pm.MsgType() {
	case fixmsg.MsgTypeTestRequest:
		testReqID := ""
		if fv, ok := pm.Field(wire.TagTestReqID); ok {
			testReqID = fv.String()
		}
		_, err := s.sendNewRaw(func(seq wire.SeqNum) []byte {
			return builder.CTBuildHeartbeat(s.cfg.BeginString, s.cfg.SenderCompID, s.cfg.TargetCompID, seq, now, testReqID)
		}, now)
		return err
	case fixmsg.MsgTypeHeartbeat:
		if fv, ok := pm.Field(wire.TagTestReqID); ok && s.pendingTestReqID != "" && fv.String() == s.pendingTestReqID {
			s.pendingTestReqID = ""
		}
		return nil
	case fixmsg.MsgTypeResendRequest:
		return s.handleResendRequest(pm, now)
	case fixmsg.MsgTypeLogout:
		s.audit(0, "disconnect", "counterparty logout", now)
		s.log.Info("received Logout while active, tearing down")
		s.state = Disconnected
		return nil
	default:
		if s.cfg.Deliver != nil {
			s.cfg.Deliver(pm)
		}
		return nil
	}
}

// Tick drives the heartbeat/test-request/timeout schedule. Callers invoke
// it on their own cadence (e.g. once per idle-poll iteration); it is a
// no-op outside Active/ResendRequested or when HeartBtInt is unset.
func (s *Session) Tick(now time.Time) error {
	if s.state != Active && s.state != ResendRequested {
		return nil
	}
	if s.cfg.HeartBtInt <= 0 {
		return nil
	}

	sinceRecv := now.Sub(s.lastRecv)
	if sinceRecv >= 2*s.cfg.HeartBtInt {
		s.log.Warn("counterparty silent past twice the heartbeat interval, disconnecting")
		s.audit(0, "disconnect", "heartbeat timeout", now)
		s.state = Disconnected
		return fmt.Errorf("session: heartbeat timeout, counterparty silent")
	}
	if sinceRecv >= time.Duration(float64(s.cfg.HeartBtInt)*1.2) && s.pendingTestReqID == "" {
		s.pendingTestReqID = xid.New().String()
		b := &builder.Builder{
			BeginString:  s.cfg.BeginString,
			MsgType:      fixmsg.MsgTypeTestRequest,
			SenderCompID: s.cfg.SenderCompID,
			TargetCompID: s.cfg.TargetCompID,
			SendingTime:  now,
		}
		b.SetString(wire.TagTestReqID, s.pendingTestReqID)
		if err := s.sendNew(b); err != nil {
			return err
		}
	}
	if now.Sub(s.lastSent) > s.cfg.HeartBtInt {
		if _, err := s.sendNewRaw(func(seq wire.SeqNum) []byte {
			return builder.CTBuildHeartbeat(s.cfg.BeginString, s.cfg.SenderCompID, s.cfg.TargetCompID, seq, now, "")
		}, now); err != nil {
			return err
		}
	}
	return nil
}

// sendNewRaw allocates the next outbound sequence number, builds the frame
// with it, persists to the store, and sends — in that order, so the store
// write happens-before the transport write per the outbound accounting
// invariant.
func (s *Session) sendNewRaw(buildFn func(seq wire.SeqNum) []byte, now time.Time) (wire.SeqNum, error) {
	seq, err := s.outboundSeq.Next()
	if err != nil {
		return 0, err
	}
	raw := buildFn(seq)
	if err := s.cfg.Store.Append(store.Record{Seq: seq, TimestampNanos: now.UnixNano(), Bytes: raw}); err != nil {
		return 0, fmt.Errorf("session: store append seq %d: %w", seq, err)
	}
	if err := s.cfg.Sender.Send(raw); err != nil {
		return 0, fmt.Errorf("session: send seq %d: %w", seq, err)
	}
	s.lastSent = now
	return seq, nil
}

func (s *Session) sendNew(b *builder.Builder) error {
	_, err := s.sendNewRaw(func(seq wire.SeqNum) []byte {
		b.MsgSeqNum = seq
		return b.Build()
	}, b.SendingTime)
	return err
}

// sendLive sends bytes that occupy an already-allocated, already-stored
// outbound sequence slot (resends and gap-fills), so it bypasses the store
// write and sequence allocation in sendNewRaw.
func (s *Session) sendLive(raw []byte) error {
	return s.cfg.Sender.Send(raw)
}

func (s *Session) sendReject(refSeqNum wire.SeqNum, refTagID wire.Tag, reason int64, text string, now time.Time) error {
	b := &builder.Builder{
		BeginString:  s.cfg.BeginString,
		MsgType:      fixmsg.MsgTypeReject,
		SenderCompID: s.cfg.SenderCompID,
		TargetCompID: s.cfg.TargetCompID,
		SendingTime:  now,
	}
	b.SetInt(wire.TagRefSeqNum, int64(refSeqNum))
	if refTagID != 0 {
		b.SetInt(wire.TagRefTagID, int64(refTagID))
	}
	b.SetInt(wire.TagSessionRejReason, reason)
	b.SetStringIfNotEmpty(wire.TagText, text)
	return s.sendNew(b)
}

func (s *Session) sendResendRequest(begin, end wire.SeqNum, now time.Time) error {
	b := &builder.Builder{
		BeginString:  s.cfg.BeginString,
		MsgType:      fixmsg.MsgTypeResendRequest,
		SenderCompID: s.cfg.SenderCompID,
		TargetCompID: s.cfg.TargetCompID,
		SendingTime:  now,
	}
	b.SetInt(wire.TagBeginSeqNo, int64(begin))
	b.SetInt(wire.TagEndSeqNo, int64(end))
	return s.sendNew(b)
}

func (s *Session) handleResendRequest(pm *fixmsg.ParsedMessage, now time.Time) error {
	beginFV, ok := pm.Field(wire.TagBeginSeqNo)
	if !ok {
		return fmt.Errorf("session: ResendRequest missing BeginSeqNo")
	}
	begin, err := beginFV.Int()
	if err != nil {
		return err
	}
	end := int64(s.outboundSeq.Current())
	if endFV, ok := pm.Field(wire.TagEndSeqNo); ok {
		if v, verr := endFV.Int(); verr == nil && v != 0 {
			end = v
		}
	}
	return s.replayRange(wire.SeqNum(begin), wire.SeqNum(end), now)
}

// replayRange answers a ResendRequest for [begin, end], collapsing each
// maximal contiguous run of administrative sequence numbers into a single
// SequenceReset-GapFill and resending application messages individually
// with PossDupFlag=Y, per S3.
func (s *Session) replayRange(begin, end wire.SeqNum, now time.Time) error {
	seq := begin
	for seq <= end {
		rec, err := s.cfg.Store.Retrieve(seq)
		if err != nil {
			return fmt.Errorf("session: resend retrieve seq %d: %w", seq, err)
		}
		pm, err := fixmsg.Parse(rec.Bytes)
		if err != nil {
			return fmt.Errorf("session: resend reparse seq %d: %w", seq, err)
		}
		if !fixmsg.IsAdministrative(pm.MsgType()) {
			if err := s.resendApplication(seq, pm, now); err != nil {
				return err
			}
			seq++
			continue
		}

		runStart := seq
		runEnd := seq
		for runEnd+1 <= end {
			nextRec, err := s.cfg.Store.Retrieve(runEnd + 1)
			if err != nil {
				break
			}
			nextPM, err := fixmsg.Parse(nextRec.Bytes)
			if err != nil || !fixmsg.IsAdministrative(nextPM.MsgType()) {
				break
			}
			runEnd++
		}
		if err := s.sendGapFill(runStart, runEnd+1, now); err != nil {
			return err
		}
		seq = runEnd + 1
	}
	return nil
}

func (s *Session) sendGapFill(runStart, newSeqNo wire.SeqNum, now time.Time) error {
	b := &builder.Builder{
		BeginString:  s.cfg.BeginString,
		MsgType:      fixmsg.MsgTypeSequenceReset,
		SenderCompID: s.cfg.SenderCompID,
		TargetCompID: s.cfg.TargetCompID,
		MsgSeqNum:    runStart,
		SendingTime:  now,
	}
	b.SetInt(wire.TagNewSeqNo, int64(newSeqNo))
	b.SetBool(wire.TagGapFillFlag, true)
	b.SetInt(wire.TagBeginSeqNo, int64(runStart))
	return s.sendLive(b.Build())
}

// resendApplication rebuilds the stored message at seq with PossDupFlag=Y
// and OrigSendingTime set to its original SendingTime, preserving the
// original body field order. It does not consume a new outbound sequence
// number or write a new store entry — it retransmits the existing slot.
func (s *Session) resendApplication(seq wire.SeqNum, pm *fixmsg.ParsedMessage, now time.Time) error {
	b := &builder.Builder{
		BeginString:  s.cfg.BeginString,
		MsgType:      pm.MsgType(),
		SenderCompID: s.cfg.SenderCompID,
		TargetCompID: s.cfg.TargetCompID,
		MsgSeqNum:    seq,
		SendingTime:  now,
	}

	idx := pm.Index()
	for i := 0; i < idx.Len(); i++ {
		fv, ok := idx.AtOrdinal(i)
		if !ok {
			continue
		}
		switch fv.Tag() {
		case wire.TagBeginString, wire.TagBodyLength, wire.TagMsgType, wire.TagSenderCompID,
			wire.TagTargetCompID, wire.TagMsgSeqNum, wire.TagSendingTime, wire.TagCheckSum,
			wire.TagPossDupFlag, wire.TagOrigSendingTm:
			continue
		}
		b.SetString(fv.Tag(), fv.String())
	}

	if origSendingTime, ok := pm.Field(wire.TagSendingTime); ok {
		b.SetString(wire.TagOrigSendingTm, origSendingTime.String())
	}
	b.SetBool(wire.TagPossDupFlag, true)

	return s.sendLive(b.Build())
}
