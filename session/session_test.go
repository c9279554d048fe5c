package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lattice-fix/fixengine/builder"
	"github.com/lattice-fix/fixengine/fixmsg"
	"github.com/lattice-fix/fixengine/store"
	"github.com/lattice-fix/fixengine/wire"
)

type recordingSender struct {
	sent [][]byte
}

func (r *recordingSender) Send(buf []byte) error {
	r.sent = append(r.sent, append([]byte(nil), buf...))
	return nil
}

func fixedTime() time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}

func newTestSession(t *testing.T, sender *recordingSender, st store.Store, deliver func(*fixmsg.ParsedMessage)) *Session {
	t.Helper()
	return New(Config{
		BeginString:  "FIX.4.4",
		SenderCompID: "SERVER",
		TargetCompID: "CLIENT",
		HeartBtInt:   30 * time.Second,
		Store:        st,
		Sender:       sender,
		Deliver:      deliver,
	})
}

func buildInbound(msgType string, seqNum wire.SeqNum, now time.Time, extra func(b *builder.Builder)) []byte {
	b := &builder.Builder{
		BeginString:  "FIX.4.4",
		MsgType:      msgType,
		SenderCompID: "CLIENT",
		TargetCompID: "SERVER",
		MsgSeqNum:    seqNum,
		SendingTime:  now,
	}
	if extra != nil {
		extra(b)
	}
	return b.Build()
}

func TestSession_ConnectSendsLogonAndTransitionsToLogonSent(t *testing.T) {
	sender := &recordingSender{}
	st := store.NewMemory()
	s := newTestSession(t, sender, st, nil)

	require.NoError(t, s.Connect(fixedTime()))
	require.Equal(t, LogonSent, s.State())
	require.Len(t, sender.sent, 1)

	pm, err := fixmsg.Parse(sender.sent[0])
	require.NoError(t, err)
	require.Equal(t, fixmsg.MsgTypeLogon, pm.MsgType())
}

func TestSession_LogonSentReceivingLogonBecomesActive(t *testing.T) {
	sender := &recordingSender{}
	st := store.NewMemory()
	s := newTestSession(t, sender, st, nil)
	require.NoError(t, s.Connect(fixedTime()))

	logon := buildInbound(fixmsg.MsgTypeLogon, 1, fixedTime(), func(b *builder.Builder) {
		b.SetInt(wire.TagHeartBtInt, 30)
	})
	require.NoError(t, s.HandleRaw(logon, fixedTime()))
	require.Equal(t, Active, s.State())
	require.EqualValues(t, 2, s.ExpectedInbound())
}

func TestSession_LogonSentReceivingNonLogonDisconnects(t *testing.T) {
	sender := &recordingSender{}
	st := store.NewMemory()
	s := newTestSession(t, sender, st, nil)
	require.NoError(t, s.Connect(fixedTime()))

	hb := buildInbound(fixmsg.MsgTypeHeartbeat, 1, fixedTime(), nil)
	require.Error(t, s.HandleRaw(hb, fixedTime()))
	require.Equal(t, Disconnected, s.State())
}

// S2 — Sequence gap -> ResendRequest.
func TestSession_SequenceGapSendsResendRequest(t *testing.T) {
	sender := &recordingSender{}
	st := store.NewMemory()
	s := newTestSession(t, sender, st, nil)
	s.state = Active
	s.expectedIn = 5
	s.lastRecv = fixedTime()

	msg := buildInbound(fixmsg.MsgTypeHeartbeat, 8, fixedTime(), nil)
	require.NoError(t, s.HandleRaw(msg, fixedTime()))

	require.Equal(t, ResendRequested, s.State())
	require.Len(t, sender.sent, 1)

	pm, err := fixmsg.Parse(sender.sent[0])
	require.NoError(t, err)
	require.Equal(t, fixmsg.MsgTypeResendRequest, pm.MsgType())
	beginFV, ok := pm.Field(wire.TagBeginSeqNo)
	require.True(t, ok)
	endFV, ok := pm.Field(wire.TagEndSeqNo)
	require.True(t, ok)
	require.Equal(t, "5", beginFV.String())
	require.Equal(t, "7", endFV.String())
}

// S3 — ResendRequest response with gap fill. Store has seqs 1..5 where 1
// and 3 are administrative (Heartbeat) and 2, 4, 5 are application
// (NewOrderSingle). A ResendRequest for [1,5] should collapse {1} and {3}
// into their own SequenceReset-GapFill and resend 2, 4, 5 individually.
func TestSession_ResendRequestCollapsesAdministrativeRuns(t *testing.T) {
	sender := &recordingSender{}
	st := store.NewMemory()
	s := newTestSession(t, sender, st, nil)

	origTime := fixedTime()
	appMsg := func(seq wire.SeqNum) []byte {
		return buildInbound(fixmsg.MsgTypeNewOrderSingle, seq, origTime, func(b *builder.Builder) {
			b.SetString(wire.TagClOrdID, "ORD-"+seqSuffix(seq))
		})
	}
	adminMsg := func(seq wire.SeqNum) []byte {
		return buildInbound(fixmsg.MsgTypeHeartbeat, seq, origTime, nil)
	}

	records := []struct {
		seq   wire.SeqNum
		bytes []byte
	}{
		{1, adminMsg(1)},
		{2, appMsg(2)},
		{3, adminMsg(3)},
		{4, appMsg(4)},
		{5, appMsg(5)},
	}
	for _, rec := range records {
		require.NoError(t, st.Append(store.Record{Seq: rec.seq, TimestampNanos: origTime.UnixNano(), Bytes: rec.bytes}))
	}

	s.state = Active
	s.expectedIn = 6
	s.lastRecv = fixedTime()
	// outboundSeq must be able to answer "through current" if EndSeqNo were
	// 0; here it's explicit so this just keeps Current() sane.
	for i := 0; i < 5; i++ {
		_, _ = s.outboundSeq.Next()
	}

	now := fixedTime().Add(time.Minute)
	resendReq := buildInbound(fixmsg.MsgTypeResendRequest, 6, now, func(b *builder.Builder) {
		b.SetInt(wire.TagBeginSeqNo, 1)
		b.SetInt(wire.TagEndSeqNo, 5)
	})
	require.NoError(t, s.HandleRaw(resendReq, now))
	require.Equal(t, Active, s.State())

	require.Len(t, sender.sent, 5)

	gap1, err := fixmsg.Parse(sender.sent[0])
	require.NoError(t, err)
	require.Equal(t, fixmsg.MsgTypeSequenceReset, gap1.MsgType())
	newSeqFV, _ := gap1.Field(wire.TagNewSeqNo)
	require.Equal(t, "2", newSeqFV.String())
	beginFV, _ := gap1.Field(wire.TagBeginSeqNo)
	require.Equal(t, "1", beginFV.String())

	resend2, err := fixmsg.Parse(sender.sent[1])
	require.NoError(t, err)
	require.Equal(t, fixmsg.MsgTypeNewOrderSingle, resend2.MsgType())
	require.True(t, resend2.PossDupFlag())
	seqFV, _ := resend2.Field(wire.TagMsgSeqNum)
	require.Equal(t, "2", seqFV.String())

	gap2, err := fixmsg.Parse(sender.sent[2])
	require.NoError(t, err)
	require.Equal(t, fixmsg.MsgTypeSequenceReset, gap2.MsgType())
	newSeqFV2, _ := gap2.Field(wire.TagNewSeqNo)
	require.Equal(t, "4", newSeqFV2.String())
	beginFV2, _ := gap2.Field(wire.TagBeginSeqNo)
	require.Equal(t, "3", beginFV2.String())

	resend4, err := fixmsg.Parse(sender.sent[3])
	require.NoError(t, err)
	require.True(t, resend4.PossDupFlag())
	seqFV4, _ := resend4.Field(wire.TagMsgSeqNum)
	require.Equal(t, "4", seqFV4.String())

	resend5, err := fixmsg.Parse(sender.sent[4])
	require.NoError(t, err)
	require.True(t, resend5.PossDupFlag())
	seqFV5, _ := resend5.Field(wire.TagMsgSeqNum)
	require.Equal(t, "5", seqFV5.String())
}

// S4 — Bad checksum: Reject(3) citing RefTagID=10, SessionRejectReason=5;
// session stays Active and the inbound sequence is not advanced.
func TestSession_BadChecksumRejectsWithoutAdvancingSequence(t *testing.T) {
	sender := &recordingSender{}
	st := store.NewMemory()
	s := newTestSession(t, sender, st, nil)
	s.state = Active
	s.expectedIn = 7
	s.lastRecv = fixedTime()

	good := buildInbound(fixmsg.MsgTypeHeartbeat, 7, fixedTime(), nil)
	corrupted := append([]byte(nil), good...)
	// The last 4 bytes are the three checksum digits followed by the
	// trailing SOH; overwrite the digits with a value that can't match,
	// leaving framing otherwise intact.
	require.NotEqual(t, "999", string(corrupted[len(corrupted)-4:len(corrupted)-1]))
	copy(corrupted[len(corrupted)-4:len(corrupted)-1], []byte("999"))

	err := s.HandleRaw(corrupted, fixedTime())
	require.NoError(t, err)
	require.Equal(t, Active, s.State())
	require.EqualValues(t, 7, s.ExpectedInbound())

	require.Len(t, sender.sent, 1)
	reject, err := fixmsg.Parse(sender.sent[0])
	require.NoError(t, err)
	require.Equal(t, fixmsg.MsgTypeReject, reject.MsgType())

	refTagFV, ok := reject.Field(wire.TagRefTagID)
	require.True(t, ok)
	require.Equal(t, "10", refTagFV.String())

	reasonFV, ok := reject.Field(wire.TagSessionRejReason)
	require.True(t, ok)
	require.Equal(t, "5", reasonFV.String())

	refSeqFV, ok := reject.Field(wire.TagRefSeqNum)
	require.True(t, ok)
	require.Equal(t, "7", refSeqFV.String())
}

// S5 — Heartbeat timeout: idle past 1.2x the interval sends TestRequest;
// idle further past 2x disconnects.
func TestSession_HeartbeatTimeoutEscalatesToDisconnect(t *testing.T) {
	sender := &recordingSender{}
	st := store.NewMemory()
	s := newTestSession(t, sender, st, nil)
	s.state = Active
	start := fixedTime()
	s.lastRecv = start
	s.lastSent = start

	require.NoError(t, s.Tick(start.Add(36*time.Second)))
	require.Equal(t, Active, s.State())
	require.NotEmpty(t, sender.sent)

	last := sender.sent[len(sender.sent)-1]
	pm, err := fixmsg.Parse(last)
	require.NoError(t, err)
	require.Equal(t, fixmsg.MsgTypeTestRequest, pm.MsgType())
	require.NotEmpty(t, s.pendingTestReqID)

	err = s.Tick(start.Add(66 * time.Second))
	require.Error(t, err)
	require.Equal(t, Disconnected, s.State())
}

func TestSession_DisconnectSendsLogoutThenTearsDownOnLogoutReply(t *testing.T) {
	sender := &recordingSender{}
	st := store.NewMemory()
	s := newTestSession(t, sender, st, nil)
	s.state = Active
	s.lastRecv = fixedTime()

	require.NoError(t, s.Disconnect(fixedTime()))
	require.Equal(t, LogoutSent, s.State())
	require.Len(t, sender.sent, 1)
	pm, err := fixmsg.Parse(sender.sent[0])
	require.NoError(t, err)
	require.Equal(t, fixmsg.MsgTypeLogout, pm.MsgType())

	logoutReply := buildInbound(fixmsg.MsgTypeLogout, 100, fixedTime(), nil)
	require.NoError(t, s.HandleRaw(logoutReply, fixedTime()))
	require.Equal(t, Disconnected, s.State())
}

func TestSession_LowerSequenceWithoutPossDupIsFatal(t *testing.T) {
	sender := &recordingSender{}
	st := store.NewMemory()
	s := newTestSession(t, sender, st, nil)
	s.state = Active
	s.expectedIn = 10
	s.lastRecv = fixedTime()

	msg := buildInbound(fixmsg.MsgTypeHeartbeat, 3, fixedTime(), nil)
	require.Error(t, s.HandleRaw(msg, fixedTime()))
	require.Equal(t, Disconnected, s.State())
}

func TestSession_LowerSequenceWithPossDupIsIgnored(t *testing.T) {
	sender := &recordingSender{}
	st := store.NewMemory()
	var delivered []string
	s := newTestSession(t, sender, st, func(pm *fixmsg.ParsedMessage) {
		delivered = append(delivered, pm.MsgType())
	})
	s.state = Active
	s.expectedIn = 10
	s.lastRecv = fixedTime()

	msg := buildInbound(fixmsg.MsgTypeHeartbeat, 3, fixedTime(), func(b *builder.Builder) {
		b.SetBool(wire.TagPossDupFlag, true)
	})
	require.NoError(t, s.HandleRaw(msg, fixedTime()))
	require.Equal(t, Active, s.State())
	require.EqualValues(t, 10, s.ExpectedInbound())
	require.Empty(t, delivered)
}

func TestSession_DeliverDuplicatesKnobExposesSuppressedDuplicates(t *testing.T) {
	sender := &recordingSender{}
	st := store.NewMemory()
	var delivered []string
	s := newTestSession(t, sender, st, func(pm *fixmsg.ParsedMessage) {
		delivered = append(delivered, pm.MsgType())
	})
	s.cfg.DeliverDuplicates = true
	s.state = Active
	s.expectedIn = 10
	s.lastRecv = fixedTime()

	msg := buildInbound(fixmsg.MsgTypeHeartbeat, 3, fixedTime(), func(b *builder.Builder) {
		b.SetBool(wire.TagPossDupFlag, true)
	})
	require.NoError(t, s.HandleRaw(msg, fixedTime()))
	require.Equal(t, []string{fixmsg.MsgTypeHeartbeat}, delivered)
}

func TestSession_ApplicationMessageInOrderIsDelivered(t *testing.T) {
	sender := &recordingSender{}
	st := store.NewMemory()
	var delivered []string
	s := newTestSession(t, sender, st, func(pm *fixmsg.ParsedMessage) {
		delivered = append(delivered, pm.MsgType())
	})
	s.state = Active
	s.expectedIn = 1
	s.lastRecv = fixedTime()

	msg := buildInbound(fixmsg.MsgTypeNewOrderSingle, 1, fixedTime(), func(b *builder.Builder) {
		b.SetString(wire.TagClOrdID, "ORD1")
	})
	require.NoError(t, s.HandleRaw(msg, fixedTime()))
	require.Equal(t, []string{fixmsg.MsgTypeNewOrderSingle}, delivered)
	require.EqualValues(t, 2, s.ExpectedInbound())
}

func TestSession_RecordsAuditEventsAcrossLifecycle(t *testing.T) {
	sender := &recordingSender{}
	st := store.NewMemory()
	auditPath := filepath.Join(t.TempDir(), "audit.db")
	a, err := store.OpenAudit(auditPath)
	require.NoError(t, err)
	defer a.Close()

	s := New(Config{
		BeginString:  "FIX.4.4",
		SenderCompID: "SERVER",
		TargetCompID: "CLIENT",
		HeartBtInt:   30 * time.Second,
		Store:        st,
		Sender:       sender,
		Audit:        a,
	})

	require.NoError(t, s.Connect(fixedTime()))
	logon := buildInbound(fixmsg.MsgTypeLogon, 1, fixedTime(), nil)
	require.NoError(t, s.HandleRaw(logon, fixedTime()))
	require.NoError(t, s.Disconnect(fixedTime()))

	events, err := a.Events(s.cfg.SessionID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.Equal(t, "connect", events[0].Kind)
	require.Equal(t, "logon_ack", events[1].Kind)
	require.Equal(t, "disconnect", events[2].Kind)
}

// seqSuffix turns a sequence number into a distinguishing ClOrdID suffix
// without pulling in strconv at every call site above.
func seqSuffix(seq wire.SeqNum) string {
	digits := "0123456789"
	if seq < 10 {
		return string(digits[seq])
	}
	return "N"
}
