package fixmsg

import (
	"strconv"
	"time"

	"github.com/lattice-fix/fixengine/wire"
)

// FieldView is a non-owning (tag, byte-range) pair into an immutable
// received message. It does not copy bytes; its lifetime is bounded by the
// buffer it was built over.
type FieldView struct {
	tag        wire.Tag
	buf        []byte
	start, end int
}

// Tag returns the field's tag number.
func (f FieldView) Tag() wire.Tag { return f.tag }

// Raw returns the field's value bytes, still referencing the owning
// buffer. Callers that need to retain the value past the buffer's lifetime
// must copy it.
func (f FieldView) Raw() []byte { return f.buf[f.start:f.end] }

// String converts the value to a string. This allocates a copy, unlike Raw.
func (f FieldView) String() string { return string(f.Raw()) }

// Int converts the value to a signed 64-bit integer.
func (f FieldView) Int() (int64, error) {
	v, err := strconv.ParseInt(f.String(), 10, 64)
	if err != nil {
		return 0, &ValueParseError{Tag: f.tag, Reason: "not an integer"}
	}
	return v, nil
}

// Decimal converts the value to a FixedPoint.
func (f FieldView) Decimal() (wire.FixedPoint, error) {
	v, err := wire.ParseFixedPoint(f.String())
	if err != nil {
		return wire.FixedPoint{}, &ValueParseError{Tag: f.tag, Reason: err.Error()}
	}
	return v, nil
}

// Char converts the value to a single flag/enum character. FIX single-char
// fields (e.g. PossDupFlag, Side) are exactly one byte.
func (f FieldView) Char() (byte, error) {
	raw := f.Raw()
	if len(raw) != 1 {
		return 0, &ValueParseError{Tag: f.tag, Reason: "not a single character"}
	}
	return raw[0], nil
}

// Bool interprets a FIX Boolean field ('Y'/'N').
func (f FieldView) Bool() (bool, error) {
	c, err := f.Char()
	if err != nil {
		return false, err
	}
	switch c {
	case 'Y':
		return true, nil
	case 'N':
		return false, nil
	default:
		return false, &ValueParseError{Tag: f.tag, Reason: "not Y/N"}
	}
}

// fixTimeFormat is the FIX UTCTimestamp layout used by SendingTime and
// similar tags.
const fixTimeFormat = "20060102-15:04:05.000"

// Time converts the value as a FIX UTCTimestamp.
func (f FieldView) Time() (time.Time, error) {
	t, err := time.Parse(fixTimeFormat, f.String())
	if err != nil {
		return time.Time{}, &ValueParseError{Tag: f.tag, Reason: "not a UTCTimestamp"}
	}
	return t, nil
}
