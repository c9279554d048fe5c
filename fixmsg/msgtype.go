package fixmsg

// Message type codes (tag 35) for every message covered by the engine.
const (
	MsgTypeLogon                         = "A"
	MsgTypeHeartbeat                     = "0"
	MsgTypeTestRequest                   = "1"
	MsgTypeResendRequest                 = "2"
	MsgTypeReject                        = "3"
	MsgTypeSequenceReset                 = "4"
	MsgTypeLogout                        = "5"
	MsgTypeNewOrderSingle                = "D"
	MsgTypeOrderCancelRequest            = "F"
	MsgTypeExecutionReport               = "8"
	MsgTypeOrderCancelReject             = "9"
	MsgTypeMarketDataRequest             = "V"
	MsgTypeMarketDataSnapshot            = "W"
	MsgTypeMarketDataIncrementalRefresh  = "X"
)

// administrativeMsgTypes is the set of session-layer message types subject
// to run-collapsing in SequenceReset-GapFill, per §4.I.
var administrativeMsgTypes = map[string]bool{
	MsgTypeLogon:         true,
	MsgTypeLogout:        true,
	MsgTypeHeartbeat:     true,
	MsgTypeTestRequest:   true,
	MsgTypeResendRequest: true,
	MsgTypeReject:        true,
	MsgTypeSequenceReset: true,
}

// IsAdministrative reports whether msgType is a session-layer message for
// gap-fill collapsing purposes.
func IsAdministrative(msgType string) bool {
	return administrativeMsgTypes[msgType]
}
