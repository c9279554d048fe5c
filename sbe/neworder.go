package sbe

import (
	"encoding/binary"

	"github.com/lattice-fix/fixengine/wire"
)

// NewOrderSingle field offsets within the template's fixed block, relative
// to the end of the 8-byte SBE header. ClOrdID and Symbol are fixed-width
// char fields; OrderQty and Price carry a FixedPoint mantissa as a plain
// little-endian int64 (the scale is fixed by the schema, not encoded
// per-message).
const (
	nosClOrdIDOffset  = 0
	nosClOrdIDLen     = 20
	nosSymbolOffset   = nosClOrdIDOffset + nosClOrdIDLen
	nosSymbolLen      = 8
	nosSideOffset     = nosSymbolOffset + nosSymbolLen
	nosOrderQtyOffset = nosSideOffset + 1
	nosPriceOffset    = nosOrderQtyOffset + 8

	// NewOrderSingleBlockLength is the fixed body size, excluding the
	// 8-byte SBE header.
	NewOrderSingleBlockLength = nosPriceOffset + 8
)

// NewOrderSingle is the decoded (or to-be-encoded) fixed view of an SBE
// NewOrderSingle message.
type NewOrderSingle struct {
	ClOrdID  string
	Symbol   string
	Side     byte
	OrderQty wire.FixedPoint
	Price    wire.FixedPoint
}

// EncodeNewOrderSingle writes the 8-byte header followed by the fixed
// block to dst, growing dst if needed, and returns the full slice plus the
// number of bytes written.
func EncodeNewOrderSingle(dst []byte, m NewOrderSingle) ([]byte, int) {
	total := HeaderSize + NewOrderSingleBlockLength
	if cap(dst) < total {
		dst = make([]byte, total)
	} else {
		dst = dst[:total]
	}
	EncodeHeader(dst, Header{
		BlockLength: NewOrderSingleBlockLength,
		TemplateID:  TemplateNewOrderSingle,
		SchemaID:    SchemaID,
		Version:     SchemaVersion,
	})
	body := dst[HeaderSize:]
	putFixedChars(body[nosClOrdIDOffset:nosClOrdIDOffset+nosClOrdIDLen], m.ClOrdID)
	putFixedChars(body[nosSymbolOffset:nosSymbolOffset+nosSymbolLen], m.Symbol)
	body[nosSideOffset] = m.Side
	binary.LittleEndian.PutUint64(body[nosOrderQtyOffset:nosOrderQtyOffset+8], uint64(m.OrderQty.Mantissa))
	binary.LittleEndian.PutUint64(body[nosPriceOffset:nosPriceOffset+8], uint64(m.Price.Mantissa))
	return dst, total
}

// DecodeNewOrderSingle reads a NewOrderSingle from buf, which must begin
// with the 8-byte SBE header.
func DecodeNewOrderSingle(buf []byte) (NewOrderSingle, error) {
	hdr, err := DecodeHeader(buf)
	if err != nil {
		return NewOrderSingle{}, err
	}
	if hdr.TemplateID != TemplateNewOrderSingle {
		return NewOrderSingle{}, ErrTemplateMismatch
	}
	need := HeaderSize + int(hdr.BlockLength)
	if len(buf) < need {
		return NewOrderSingle{}, ErrShortBuffer
	}
	body := buf[HeaderSize:need]
	return NewOrderSingle{
		ClOrdID:  getFixedChars(body[nosClOrdIDOffset : nosClOrdIDOffset+nosClOrdIDLen]),
		Symbol:   getFixedChars(body[nosSymbolOffset : nosSymbolOffset+nosSymbolLen]),
		Side:     body[nosSideOffset],
		OrderQty: wire.FixedPoint{Mantissa: int64(binary.LittleEndian.Uint64(body[nosOrderQtyOffset : nosOrderQtyOffset+8]))},
		Price:    wire.FixedPoint{Mantissa: int64(binary.LittleEndian.Uint64(body[nosPriceOffset : nosPriceOffset+8]))},
	}, nil
}
