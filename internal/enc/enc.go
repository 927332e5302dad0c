// Package enc provides the deterministic binary encoding primitives shared
// by every on-disk structure in INVDB: little-endian fixed widths, unsigned
// varints, and length-prefixed byte strings.
package enc

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/invdb/invdb/internal/invderr"
)

// maxVarintBytes bounds a varint decode so a corrupt continuation-bit chain
// can't run off the end of a buffer forever.
const maxVarintBytes = 10

// PutUvarint appends v to out using an LEB128-style little-endian encoding
// with a continuation bit on all but the final byte.
func PutUvarint(out []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

// Uvarint decodes an unsigned varint starting at buf[pos], returning the
// value and the position immediately after it. Rejects chains longer than
// 10 bytes or that run past the end of buf.
func Uvarint(buf []byte, pos int) (uint64, int, error) {
	var result uint64
	var shift uint
	start := pos
	for i := 0; i < maxVarintBytes; i++ {
		if pos >= len(buf) {
			return 0, 0, invderr.Corrupt("encoding.varint.eof", "unexpected end of input while reading varint at %d", start)
		}
		b := buf[pos]
		pos++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, pos, nil
		}
		shift += 7
	}
	return 0, 0, invderr.Corrupt("encoding.varint.too_long", "varint exceeded %d bytes", maxVarintBytes)
}

// PutUint32 appends v little-endian.
func PutUint32(out []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(out, b[:]...)
}

// PutUint64 appends v little-endian.
func PutUint64(out []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(out, b[:]...)
}

// Uint32 reads a little-endian u32 at buf[pos:pos+4].
func Uint32(buf []byte, pos int) (uint32, int, error) {
	if pos+4 > len(buf) {
		return 0, 0, invderr.Corrupt("encoding.fixed.eof", "not enough bytes for u32 at %d", pos)
	}
	return binary.LittleEndian.Uint32(buf[pos : pos+4]), pos + 4, nil
}

// Uint64 reads a little-endian u64 at buf[pos:pos+8].
func Uint64(buf []byte, pos int) (uint64, int, error) {
	if pos+8 > len(buf) {
		return 0, 0, invderr.Corrupt("encoding.fixed.eof", "not enough bytes for u64 at %d", pos)
	}
	return binary.LittleEndian.Uint64(buf[pos : pos+8]), pos + 8, nil
}

// PutBytes appends a varint length prefix followed by the raw bytes.
func PutBytes(out []byte, b []byte) []byte {
	out = PutUvarint(out, uint64(len(b)))
	return append(out, b...)
}

// Bytes reads a length-prefixed byte string, rejecting a declared length
// over maxLen or one that runs past the end of buf.
func Bytes(buf []byte, pos int, maxLen int) ([]byte, int, error) {
	length, pos, err := Uvarint(buf, pos)
	if err != nil {
		return nil, 0, err
	}
	if int(length) > maxLen {
		return nil, 0, invderr.Corrupt("encoding.bytes.too_large", "len %d exceeds max %d", length, maxLen)
	}
	if pos+int(length) > len(buf) {
		return nil, 0, invderr.Corrupt("encoding.bytes.eof", "not enough bytes for payload at %d", pos)
	}
	out := make([]byte, length)
	copy(out, buf[pos:pos+int(length)])
	return out, pos + int(length), nil
}

// PutString appends a varint-length-prefixed UTF-8 string.
func PutString(out []byte, s string) []byte {
	return PutBytes(out, []byte(s))
}

// String reads a length-prefixed UTF-8 string, validating encoding.
func String(buf []byte, pos int, maxLen int) (string, int, error) {
	raw, pos, err := Bytes(buf, pos, maxLen)
	if err != nil {
		return "", 0, err
	}
	if !utf8.Valid(raw) {
		return "", 0, invderr.Corrupt("encoding.string.utf8", "invalid utf-8 bytes")
	}
	return string(raw), pos, nil
}
