/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package sbe implements the Simple Binary Encoding fast path: fixed-offset
// codecs for the handful of message shapes both counterparties have
// pre-agreed on. Unlike fixmsg, there's no scanning or indexing step —
// every field lives at a compile-known byte offset, so encode and decode
// are direct unaligned loads/stores. There is no checksum; framing is the
// transport's job when SBE runs over a record-oriented channel.
package sbe

import (
	"encoding/binary"
	"errors"
)

// HeaderSize is the fixed 8-byte SBE message header.
const HeaderSize = 8

// ErrShortBuffer is returned when a buffer is too small for the header or
// the template's fixed block.
var ErrShortBuffer = errors.New("sbe: buffer too short")

// ErrTemplateMismatch is returned when a decoder is handed a buffer whose
// header names a different template than the one it decodes.
var ErrTemplateMismatch = errors.New("sbe: template id mismatch")

// SchemaID and SchemaVersion identify the fixed schema this package's
// templates belong to. Bump SchemaVersion on any wire-incompatible change
// to a template's fixed layout.
const (
	SchemaID      uint16 = 1
	SchemaVersion uint16 = 1
)

// Template IDs for the message shapes this package encodes.
const (
	TemplateNewOrderSingle  uint16 = 1
	TemplateExecutionReport uint16 = 2
)

// Header is the 8-byte SBE message header: block_length, template_id,
// schema_id, version, all little-endian.
type Header struct {
	BlockLength uint16
	TemplateID  uint16
	SchemaID    uint16
	Version     uint16
}

// EncodeHeader writes h to dst[0:8]. dst must be at least HeaderSize bytes.
func EncodeHeader(dst []byte, h Header) {
	binary.LittleEndian.PutUint16(dst[0:2], h.BlockLength)
	binary.LittleEndian.PutUint16(dst[2:4], h.TemplateID)
	binary.LittleEndian.PutUint16(dst[4:6], h.SchemaID)
	binary.LittleEndian.PutUint16(dst[6:8], h.Version)
}

// DecodeHeader reads the 8-byte header from the front of buf.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrShortBuffer
	}
	return Header{
		BlockLength: binary.LittleEndian.Uint16(buf[0:2]),
		TemplateID:  binary.LittleEndian.Uint16(buf[2:4]),
		SchemaID:    binary.LittleEndian.Uint16(buf[4:6]),
		Version:     binary.LittleEndian.Uint16(buf[6:8]),
	}, nil
}

// groupHeaderSize is the {block_length: u16, num_in_group: u16} prefix used
// by repeating groups in this package's templates. The spec allows
// num_in_group to be u8 or u16 per template; every template here uses u16
// for a uniform group-header codec.
const groupHeaderSize = 4

// EncodeGroupHeader writes a repeating-group prefix to dst[0:4].
func EncodeGroupHeader(dst []byte, blockLength uint16, numInGroup uint16) {
	binary.LittleEndian.PutUint16(dst[0:2], blockLength)
	binary.LittleEndian.PutUint16(dst[2:4], numInGroup)
}

// DecodeGroupHeader reads a repeating-group prefix from the front of buf.
func DecodeGroupHeader(buf []byte) (blockLength, numInGroup uint16, err error) {
	if len(buf) < groupHeaderSize {
		return 0, 0, ErrShortBuffer
	}
	return binary.LittleEndian.Uint16(buf[0:2]), binary.LittleEndian.Uint16(buf[2:4]), nil
}

// putFixedChars copies s into a fixed-width char field, space-padding (not
// NUL-padding, matching the FIX text convention this engine's callers
// already expect) short values and truncating long ones.
func putFixedChars(dst []byte, s string) {
	n := copy(dst, s)
	for ; n < len(dst); n++ {
		dst[n] = ' '
	}
}

func getFixedChars(src []byte) string {
	end := len(src)
	for end > 0 && src[end-1] == ' ' {
		end--
	}
	return string(src[:end])
}
