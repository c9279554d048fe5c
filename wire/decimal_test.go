package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseFixedPoint_RoundTrip verifies that prices and quantities
// round-trip through FixedPoint without losing precision up to the
// 7-digit scale the wire format guarantees.
func TestParseFixedPoint_RoundTrip(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"150.25", "150.25"},
		{"100", "100"},
		{"0.0000001", "0.0000001"},
		{"-42.5", "-42.5"},
		{"0", "0"},
	}

	for _, c := range cases {
		fp, err := ParseFixedPoint(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, fp.String(), c.in)
	}
}

// TestParseFixedPoint_ExcessPrecisionTruncates verifies that extra
// fractional digits round toward zero rather than rounding to nearest,
// per the wire contract.
func TestParseFixedPoint_ExcessPrecisionTruncates(t *testing.T) {
	fp, err := ParseFixedPoint("1.23456789")
	require.NoError(t, err)
	assert.Equal(t, "1.2345678", fp.String())
}

func TestParseFixedPoint_Malformed(t *testing.T) {
	for _, in := range []string{"", "abc", "1.2.3", "1-2", "+"} {
		_, err := ParseFixedPoint(in)
		assert.Error(t, err, in)
	}
}

func TestSeqCounter_NextIsMonotonic(t *testing.T) {
	c := NewSeqCounter(1)
	for i := SeqNum(1); i <= 5; i++ {
		got, err := c.Next()
		require.NoError(t, err)
		assert.Equal(t, i, got)
	}
	assert.Equal(t, SeqNum(5), c.Current())
}

func TestSeqCounter_Overflow(t *testing.T) {
	c := NewSeqCounter(0)
	c.v = 0xFFFFFFFF
	_, err := c.Next()
	assert.ErrorIs(t, err, ErrSeqNumOverflow)
}

func TestParseVersion(t *testing.T) {
	v, ok := ParseVersion("FIX.4.4")
	require.True(t, ok)
	assert.Equal(t, FIX44, v)
	assert.Equal(t, "FIX.4.4", v.String())

	_, ok = ParseVersion("FIX.9.9")
	assert.False(t, ok)
}
