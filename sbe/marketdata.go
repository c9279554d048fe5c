package sbe

import (
	"encoding/binary"

	"github.com/lattice-fix/fixengine/wire"
)

// MDEntry is one fixed-width repeating-group member: {type, price, size}.
const (
	mdEntryTypeOffset = 0
	mdEntryPxOffset   = mdEntryTypeOffset + 1
	mdEntrySzOffset   = mdEntryPxOffset + 8
	mdEntryBlockLen   = mdEntrySzOffset + 8
)

// MDEntry mirrors fixmsg.MDEntry's fields for the SBE fast path.
type MDEntry struct {
	Type  byte
	Price wire.FixedPoint
	Size  wire.FixedPoint
}

// MarketDataSnapshotTemplate is the template id for the SBE market data
// snapshot: an 8-byte Symbol block followed by a NoMDEntries repeating
// group.
const MarketDataSnapshotTemplate uint16 = 3

const mdSymbolOffset = 0
const mdSymbolLen = 8

// MarketDataSnapshotBlockLength is the fixed (non-repeating) portion: just
// the Symbol field. The repeating group follows immediately after.
const MarketDataSnapshotBlockLength = mdSymbolOffset + mdSymbolLen

// EncodeMarketDataSnapshot writes the header, the fixed Symbol block, the
// group header, and each entry in order. dst is replaced, not appended to.
func EncodeMarketDataSnapshot(dst []byte, symbol string, entries []MDEntry) ([]byte, int) {
	total := HeaderSize + MarketDataSnapshotBlockLength + groupHeaderSize + len(entries)*mdEntryBlockLen
	if cap(dst) < total {
		dst = make([]byte, total)
	} else {
		dst = dst[:total]
	}
	EncodeHeader(dst, Header{
		BlockLength: MarketDataSnapshotBlockLength,
		TemplateID:  MarketDataSnapshotTemplate,
		SchemaID:    SchemaID,
		Version:     SchemaVersion,
	})
	off := HeaderSize
	putFixedChars(dst[off+mdSymbolOffset:off+mdSymbolOffset+mdSymbolLen], symbol)
	off += MarketDataSnapshotBlockLength

	EncodeGroupHeader(dst[off:off+groupHeaderSize], mdEntryBlockLen, uint16(len(entries)))
	off += groupHeaderSize

	for _, e := range entries {
		entry := dst[off : off+mdEntryBlockLen]
		entry[mdEntryTypeOffset] = e.Type
		binary.LittleEndian.PutUint64(entry[mdEntryPxOffset:mdEntryPxOffset+8], uint64(e.Price.Mantissa))
		binary.LittleEndian.PutUint64(entry[mdEntrySzOffset:mdEntrySzOffset+8], uint64(e.Size.Mantissa))
		off += mdEntryBlockLen
	}
	return dst, total
}

// DecodeMarketDataSnapshot reads the Symbol field and every group entry
// from buf.
func DecodeMarketDataSnapshot(buf []byte) (symbol string, entries []MDEntry, err error) {
	hdr, err := DecodeHeader(buf)
	if err != nil {
		return "", nil, err
	}
	if hdr.TemplateID != MarketDataSnapshotTemplate {
		return "", nil, ErrTemplateMismatch
	}
	off := HeaderSize
	if len(buf) < off+int(hdr.BlockLength)+groupHeaderSize {
		return "", nil, ErrShortBuffer
	}
	symbol = getFixedChars(buf[off+mdSymbolOffset : off+mdSymbolOffset+mdSymbolLen])
	off += int(hdr.BlockLength)

	blockLen, numInGroup, err := DecodeGroupHeader(buf[off : off+groupHeaderSize])
	if err != nil {
		return "", nil, err
	}
	off += groupHeaderSize

	entries = make([]MDEntry, 0, numInGroup)
	for i := uint16(0); i < numInGroup; i++ {
		if off+int(blockLen) > len(buf) {
			return "", nil, ErrShortBuffer
		}
		entry := buf[off : off+int(blockLen)]
		entries = append(entries, MDEntry{
			Type:  entry[mdEntryTypeOffset],
			Price: wire.FixedPoint{Mantissa: int64(binary.LittleEndian.Uint64(entry[mdEntryPxOffset : mdEntryPxOffset+8]))},
			Size:  wire.FixedPoint{Mantissa: int64(binary.LittleEndian.Uint64(entry[mdEntrySzOffset : mdEntrySzOffset+8]))},
		})
		off += int(blockLen)
	}
	return symbol, entries, nil
}
