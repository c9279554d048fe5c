package simd

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sample builds a realistic-looking FIX buffer of n bytes with SOH
// delimiters scattered through it at random (roughly one byte in six),
// seeded so each call is reproducible.
func sample(n int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	buf := make([]byte, n)
	for i := range buf {
		if r.Intn(6) == 0 {
			buf[i] = soh
		} else {
			buf[i] = byte('0' + r.Intn(75))
		}
	}
	return buf
}

// TestScannerTiersAgree is the scanner-equivalence property from the
// testable-properties list: every tier must return byte-identical SOH
// position lists for the same buffer, across a range of sizes that
// exercise each tier's full-step and tail paths.
func TestScannerTiersAgree(t *testing.T) {
	sizes := []int{0, 1, 7, 8, 15, 16, 17, 31, 32, 33, 63, 64, 65, 127, 128, 129, 500, 4096}
	for _, n := range sizes {
		buf := sample(n, int64(n))
		want := ScanScalar(buf, nil)

		assert.Equal(t, want, ScanTier1(buf), "tier1 size=%d", n)
		assert.Equal(t, want, ScanTier2(buf), "tier2 size=%d", n)
		assert.Equal(t, want, ScanTier3(buf), "tier3 size=%d", n)
		assert.Equal(t, want, ScanSOH(buf), "auto size=%d", n)
	}
}

func TestScanSOH_UnalignedOffsetSlice(t *testing.T) {
	// Backing array deliberately larger than the slice under test, and the
	// slice itself starts at a non-8-byte-aligned offset, to catch bugs
	// that assume word alignment.
	backing := sample(300, 7)
	for off := 0; off < 9; off++ {
		buf := backing[off : off+200]
		want := ScanScalar(buf, nil)
		assert.Equal(t, want, ScanSOH(buf), "offset=%d", off)
	}
}

func TestNextSOH(t *testing.T) {
	buf := []byte("8=FIX.4.4\x019=5\x0135=0\x01")
	pos := NextSOH(buf, 0)
	require.Equal(t, 9, pos)
	pos = NextSOH(buf, pos+1)
	require.Equal(t, 13, pos)
	assert.Equal(t, -1, NextSOH(buf, len(buf)))
}

// TestChecksumTiersAgree is the checksum-agreement property: every tier
// must agree with the scalar reference for arbitrary buffers.
func TestChecksumTiersAgree(t *testing.T) {
	sizes := []int{0, 1, 8, 15, 16, 31, 32, 63, 64, 127, 128, 1000}
	for _, n := range sizes {
		buf := sample(n, int64(1000+n))
		want := ChecksumScalar(buf)

		assert.Equal(t, want, ChecksumTier1(buf), "tier1 size=%d", n)
		assert.Equal(t, want, ChecksumTier2(buf), "tier2 size=%d", n)
		assert.Equal(t, want, ChecksumTier3(buf), "tier3 size=%d", n)
		assert.Equal(t, want, Checksum(buf), "auto size=%d", n)
	}
}

func TestChecksumWrapsMod256(t *testing.T) {
	buf := make([]byte, 300)
	for i := range buf {
		buf[i] = 0xFF
	}
	want := byte((300 * 0xFF) % 256)
	assert.Equal(t, want, Checksum(buf))
}

func TestFormatChecksum(t *testing.T) {
	assert.Equal(t, "000", FormatChecksum(0))
	assert.Equal(t, "007", FormatChecksum(7))
	assert.Equal(t, "255", FormatChecksum(255))
}
