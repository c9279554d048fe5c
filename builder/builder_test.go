package builder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lattice-fix/fixengine/fixmsg"
	"github.com/lattice-fix/fixengine/wire"
)

func fixedTime() time.Time {
	return time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
}

func TestBuilder_RoundTripsThroughParser(t *testing.T) {
	var b Builder
	b.BeginString = "FIX.4.2"
	b.MsgType = fixmsg.MsgTypeNewOrderSingle
	b.SenderCompID = "SNDR"
	b.TargetCompID = "TRGT"
	b.MsgSeqNum = 7
	b.SendingTime = fixedTime()
	b.SetString(wire.TagClOrdID, "ORD-1")
	b.SetString(wire.TagSymbol, "AAPL")
	b.SetChar(wire.TagSide, '1')
	b.SetDecimal(wire.TagOrderQty, wire.FixedPoint{Mantissa: 1000_0000000})
	b.SetDecimal(wire.TagPrice, wire.FixedPoint{Mantissa: 1895_0000000})

	out := b.Build()

	pm, err := fixmsg.Parse(out)
	require.NoError(t, err)
	require.Equal(t, "FIX.4.2", pm.BeginString())
	require.Equal(t, fixmsg.MsgTypeNewOrderSingle, pm.MsgType())
	require.Equal(t, "SNDR", pm.SenderCompID())
	require.Equal(t, "TRGT", pm.TargetCompID())

	seq, err := pm.MsgSeqNum()
	require.NoError(t, err)
	require.EqualValues(t, 7, seq)

	nos := fixmsg.NewOrderSingle{ParsedMessage: pm}
	clOrdID, err := nos.ClOrdID()
	require.NoError(t, err)
	require.Equal(t, "ORD-1", clOrdID)

	symbol, err := nos.Symbol()
	require.NoError(t, err)
	require.Equal(t, "AAPL", symbol)
}

func TestBuilder_Reset_NextBuildCarriesNewSeqNum(t *testing.T) {
	var b Builder
	b.BeginString = "FIX.4.2"
	b.SenderCompID = "A"
	b.TargetCompID = "B"
	b.SendingTime = fixedTime()

	b.MsgType = fixmsg.MsgTypeHeartbeat
	b.MsgSeqNum = 1
	first := b.Build()

	b.Reset()
	b.MsgType = fixmsg.MsgTypeHeartbeat
	b.MsgSeqNum = 2
	second := b.Build()

	require.NotEqual(t, first, second)
	pm, err := fixmsg.Parse(second)
	require.NoError(t, err)
	seq, _ := pm.MsgSeqNum()
	require.EqualValues(t, 2, seq)
}

func TestCTBuildHeartbeat_MatchesRuntimeBuilder(t *testing.T) {
	st := fixedTime()

	var b Builder
	b.BeginString = "FIX.4.2"
	b.MsgType = fixmsg.MsgTypeHeartbeat
	b.SenderCompID = "SNDR"
	b.TargetCompID = "TRGT"
	b.MsgSeqNum = 42
	b.SendingTime = st
	b.SetString(wire.TagTestReqID, "TR-1")

	runtime := b.Build()
	ct := CTBuildHeartbeat("FIX.4.2", "SNDR", "TRGT", 42, st, "TR-1")

	require.Equal(t, runtime, ct)
}

func TestCTBuildHeartbeat_NoTestReqID_MatchesRuntimeBuilder(t *testing.T) {
	st := fixedTime()

	var b Builder
	b.BeginString = "FIX.4.2"
	b.MsgType = fixmsg.MsgTypeHeartbeat
	b.SenderCompID = "SNDR"
	b.TargetCompID = "TRGT"
	b.MsgSeqNum = 1
	b.SendingTime = st

	runtime := b.Build()
	ct := CTBuildHeartbeat("FIX.4.2", "SNDR", "TRGT", 1, st, "")

	require.Equal(t, runtime, ct)
}

func TestCTBuildLogon_MatchesRuntimeBuilder(t *testing.T) {
	st := fixedTime()

	var b Builder
	b.BeginString = "FIX.4.2"
	b.MsgType = fixmsg.MsgTypeLogon
	b.SenderCompID = "SNDR"
	b.TargetCompID = "TRGT"
	b.MsgSeqNum = 1
	b.SendingTime = st
	b.SetInt(wire.TagEncryptMethod, 0)
	b.SetInt(wire.TagHeartBtInt, 30)

	runtime := b.Build()
	ct := CTBuildLogon("FIX.4.2", "SNDR", "TRGT", 1, st, 30)

	require.Equal(t, runtime, ct)

	pm, err := fixmsg.Parse(ct)
	require.NoError(t, err)
	logon := fixmsg.Logon{ParsedMessage: pm}
	hb, err := logon.HeartBtInt()
	require.NoError(t, err)
	require.EqualValues(t, 30, hb)
}
