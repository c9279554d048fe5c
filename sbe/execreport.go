package sbe

import (
	"encoding/binary"

	"github.com/lattice-fix/fixengine/wire"
)

// ExecutionReport field offsets, mirroring the layout convention in
// neworder.go: fixed char fields first, then packed scalars.
const (
	erExecIDOffset    = 0
	erExecIDLen       = 20
	erOrdStatusOffset = erExecIDOffset + erExecIDLen
	erExecTypeOffset  = erOrdStatusOffset + 1
	erCumQtyOffset    = erExecTypeOffset + 1
	erLeavesQtyOffset = erCumQtyOffset + 8
	erAvgPxOffset     = erLeavesQtyOffset + 8

	// ExecutionReportBlockLength is the fixed body size, excluding the
	// 8-byte SBE header.
	ExecutionReportBlockLength = erAvgPxOffset + 8
)

// ExecutionReport is the decoded (or to-be-encoded) fixed view of an SBE
// ExecutionReport message.
type ExecutionReport struct {
	ExecID    string
	OrdStatus byte
	ExecType  byte
	CumQty    wire.FixedPoint
	LeavesQty wire.FixedPoint
	AvgPx     wire.FixedPoint
}

// EncodeExecutionReport writes the 8-byte header followed by the fixed
// block to dst, growing dst if needed, and returns the full slice plus the
// number of bytes written.
func EncodeExecutionReport(dst []byte, m ExecutionReport) ([]byte, int) {
	total := HeaderSize + ExecutionReportBlockLength
	if cap(dst) < total {
		dst = make([]byte, total)
	} else {
		dst = dst[:total]
	}
	EncodeHeader(dst, Header{
		BlockLength: ExecutionReportBlockLength,
		TemplateID:  TemplateExecutionReport,
		SchemaID:    SchemaID,
		Version:     SchemaVersion,
	})
	body := dst[HeaderSize:]
	putFixedChars(body[erExecIDOffset:erExecIDOffset+erExecIDLen], m.ExecID)
	body[erOrdStatusOffset] = m.OrdStatus
	body[erExecTypeOffset] = m.ExecType
	binary.LittleEndian.PutUint64(body[erCumQtyOffset:erCumQtyOffset+8], uint64(m.CumQty.Mantissa))
	binary.LittleEndian.PutUint64(body[erLeavesQtyOffset:erLeavesQtyOffset+8], uint64(m.LeavesQty.Mantissa))
	binary.LittleEndian.PutUint64(body[erAvgPxOffset:erAvgPxOffset+8], uint64(m.AvgPx.Mantissa))
	return dst, total
}

// DecodeExecutionReport reads an ExecutionReport from buf, which must
// begin with the 8-byte SBE header.
func DecodeExecutionReport(buf []byte) (ExecutionReport, error) {
	hdr, err := DecodeHeader(buf)
	if err != nil {
		return ExecutionReport{}, err
	}
	if hdr.TemplateID != TemplateExecutionReport {
		return ExecutionReport{}, ErrTemplateMismatch
	}
	need := HeaderSize + int(hdr.BlockLength)
	if len(buf) < need {
		return ExecutionReport{}, ErrShortBuffer
	}
	body := buf[HeaderSize:need]
	return ExecutionReport{
		ExecID:    getFixedChars(body[erExecIDOffset : erExecIDOffset+erExecIDLen]),
		OrdStatus: body[erOrdStatusOffset],
		ExecType:  body[erExecTypeOffset],
		CumQty:    wire.FixedPoint{Mantissa: int64(binary.LittleEndian.Uint64(body[erCumQtyOffset : erCumQtyOffset+8]))},
		LeavesQty: wire.FixedPoint{Mantissa: int64(binary.LittleEndian.Uint64(body[erLeavesQtyOffset : erLeavesQtyOffset+8]))},
		AvgPx:     wire.FixedPoint{Mantissa: int64(binary.LittleEndian.Uint64(body[erAvgPxOffset : erAvgPxOffset+8]))},
	}, nil
}
