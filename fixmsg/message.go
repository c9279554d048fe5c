package fixmsg

import (
	"strconv"

	"github.com/lattice-fix/fixengine/simd"
	"github.com/lattice-fix/fixengine/wire"
)

// ParsedMessage is a received byte slice plus its structural index and
// cached positions for the standard header/trailer fields. It borrows from
// the buffer it was built over and must not outlive it.
type ParsedMessage struct {
	buf   []byte
	index *Index

	beginString FieldView
	bodyLength  FieldView
	msgType     FieldView
	senderComp  FieldView
	targetComp  FieldView
	msgSeqNum   FieldView
	sendingTime FieldView
	checksum    FieldView
}

// Parse validates framing (BeginString at byte 0, BodyLength immediately
// following, a well-formed trailer) and builds the structural index. It
// returns a *FrameError for any framing problem, distinguishing Truncated
// (read more and retry) from the fatal kinds.
func Parse(buf []byte) (*ParsedMessage, error) {
	if len(buf) < 12 {
		return nil, &FrameError{Kind: Truncated, Detail: "buffer shorter than a minimal header"}
	}
	if buf[0] != '8' || buf[1] != '=' {
		return nil, &FrameError{Kind: BadBeginString, Detail: "missing 8= at offset 0"}
	}

	firstSOH := simd.NextSOH(buf, 0)
	if firstSOH < 0 {
		return nil, &FrameError{Kind: Truncated, Detail: "no SOH terminating BeginString"}
	}

	bodyLenStart := firstSOH + 1
	if bodyLenStart+2 > len(buf) || buf[bodyLenStart] != '9' || buf[bodyLenStart+1] != '=' {
		return nil, &FrameError{Kind: BadBodyLength, Detail: "missing 9= immediately after BeginString"}
	}
	secondSOH := simd.NextSOH(buf, bodyLenStart)
	if secondSOH < 0 {
		return nil, &FrameError{Kind: Truncated, Detail: "no SOH terminating BodyLength"}
	}

	bodyLen, err := strconv.Atoi(string(buf[bodyLenStart+2 : secondSOH]))
	if err != nil || bodyLen < 0 {
		return nil, &FrameError{Kind: BadBodyLength, Detail: "non-numeric BodyLength"}
	}

	bodyStart := secondSOH + 1
	// BodyLength counts every byte after the BodyLength SOH up to and
	// including the SOH that precedes "10=".
	trailerSOH := bodyStart + bodyLen - 1
	if trailerSOH+1 > len(buf) {
		return nil, &FrameError{Kind: Truncated, Detail: "buffer shorter than declared BodyLength"}
	}
	// trailerSOH must itself be an SOH: the byte preceding "10=".
	if buf[trailerSOH] != 0x01 {
		return nil, &FrameError{Kind: BadBodyLength, Detail: "BodyLength does not land on the SOH before 10="}
	}
	trailerStart := trailerSOH + 1
	if trailerStart+7 > len(buf) || buf[trailerStart] != '1' || buf[trailerStart+1] != '0' || buf[trailerStart+2] != '=' {
		return nil, &FrameError{Kind: Truncated, Detail: "missing 10= trailer"}
	}
	csDigits := buf[trailerStart+3 : trailerStart+6]
	for _, d := range csDigits {
		if d < '0' || d > '9' {
			return nil, &FrameError{Kind: BadChecksum, Detail: "non-numeric checksum digits"}
		}
	}
	if trailerStart+6 >= len(buf) || buf[trailerStart+6] != 0x01 {
		return nil, &FrameError{Kind: Truncated, Detail: "checksum not terminated by SOH"}
	}
	full := buf[:trailerStart+7]

	wantCS := (int(csDigits[0]-'0'))*100 + int(csDigits[1]-'0')*10 + int(csDigits[2]-'0')
	gotCS := simd.Checksum(full[:trailerStart])
	if wantCS != int(gotCS) {
		return nil, &FrameError{Kind: BadChecksum, Detail: "checksum mismatch", Raw: full}
	}

	idx, err := Build(full)
	if err != nil {
		return nil, err
	}

	pm := &ParsedMessage{buf: full, index: idx}
	pm.beginString, _ = idx.Field(wire.TagBeginString)
	pm.bodyLength, _ = idx.Field(wire.TagBodyLength)
	pm.msgType, _ = idx.Field(wire.TagMsgType)
	pm.senderComp, _ = idx.Field(wire.TagSenderCompID)
	pm.targetComp, _ = idx.Field(wire.TagTargetCompID)
	pm.msgSeqNum, _ = idx.Field(wire.TagMsgSeqNum)
	pm.sendingTime, _ = idx.Field(wire.TagSendingTime)
	pm.checksum, _ = idx.Field(wire.TagCheckSum)

	return pm, nil
}

// Bytes returns the full message buffer, including header and trailer.
func (pm *ParsedMessage) Bytes() []byte { return pm.buf }

// Index returns the structural index, for callers that need field lookups
// beyond the cached header accessors.
func (pm *ParsedMessage) Index() *Index { return pm.index }

// Field looks up an arbitrary tag.
func (pm *ParsedMessage) Field(tag wire.Tag) (FieldView, bool) { return pm.index.Field(tag) }

func (pm *ParsedMessage) MsgType() string    { return pm.msgType.String() }
func (pm *ParsedMessage) SenderCompID() string { return pm.senderComp.String() }
func (pm *ParsedMessage) TargetCompID() string { return pm.targetComp.String() }
func (pm *ParsedMessage) BeginString() string  { return pm.beginString.String() }

// MsgSeqNum returns the parsed MsgSeqNum header field.
func (pm *ParsedMessage) MsgSeqNum() (wire.SeqNum, error) {
	v, err := pm.msgSeqNum.Int()
	if err != nil {
		return 0, err
	}
	return wire.SeqNum(v), nil
}

// PossDupFlag reports whether tag 43 is present and set to 'Y'.
func (pm *ParsedMessage) PossDupFlag() bool {
	f, ok := pm.index.Field(wire.TagPossDupFlag)
	if !ok {
		return false
	}
	b, err := f.Bool()
	return err == nil && b
}
