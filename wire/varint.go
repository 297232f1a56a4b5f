// Package wire implements the leaf binary encoding ETP's message header and
// message bodies are serialized with: Avro's zigzag variable-length integer
// format, plus the length-prefixed string/bytes/array conventions built on
// top of it.
//
// The header test vector ({protocol:0, message_type:1,
// correlation_id:52, message_id:51, message_flags:19} -> [0, 2, 104, 102,
// 38]) only round-trips under Avro's int/long encoding: zigzag(52)=104,
// zigzag(51)=102, zigzag(19)=38, each small enough to fit the one-byte
// varint case. Everything in this package exists to reproduce that encoding
// bit-exactly, the way the prior implementation's binary_codec.go hand-rolls its own
// length-prefixed wire format instead of reaching for encoding/gob.
package wire

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrTruncated is returned when a decode call runs out of input bytes
// before a complete value could be read.
var ErrTruncated = errors.New("wire: truncated input")

// PutVarintZigzag32 appends the Avro int encoding of v to buf and returns
// the extended slice.
func PutVarintZigzag32(buf []byte, v int32) []byte {
	return putVarintZigzag(buf, uint64(uint32((v<<1)^(v>>31))))
}

// PutVarintZigzag64 appends the Avro long encoding of v to buf and returns
// the extended slice.
func PutVarintZigzag64(buf []byte, v int64) []byte {
	return putVarintZigzag(buf, uint64((v<<1)^(v>>63)))
}

func putVarintZigzag(buf []byte, zz uint64) []byte {
	for zz >= 0x80 {
		buf = append(buf, byte(zz)|0x80)
		zz >>= 7
	}
	return append(buf, byte(zz))
}

// VarintZigzag32 decodes an Avro int starting at buf[0], returning the value
// and the number of bytes consumed.
func VarintZigzag32(buf []byte) (int32, int, error) {
	zz, n, err := readVarint(buf)
	if err != nil {
		return 0, 0, err
	}
	v := int32(zz>>1) ^ -int32(zz&1)
	return v, n, nil
}

// VarintZigzag64 decodes an Avro long starting at buf[0], returning the
// value and the number of bytes consumed.
func VarintZigzag64(buf []byte) (int64, int, error) {
	zz, n, err := readVarint(buf)
	if err != nil {
		return 0, 0, err
	}
	v := int64(zz>>1) ^ -int64(zz&1)
	return v, n, nil
}

func readVarint(buf []byte) (uint64, int, error) {
	var result uint64
	var shift uint
	for i := 0; ; i++ {
		if i >= len(buf) {
			return 0, 0, ErrTruncated
		}
		b := buf[i]
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, 0, errors.New("wire: varint overflow")
		}
	}
}

// PutBool appends a single-byte boolean.
func PutBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}

// Bool decodes a single-byte boolean.
func Bool(buf []byte) (bool, int, error) {
	if len(buf) < 1 {
		return false, 0, ErrTruncated
	}
	return buf[0] != 0, 1, nil
}

// PutBytes appends a zigzag-varint length prefix followed by raw bytes.
func PutBytes(buf []byte, v []byte) []byte {
	buf = PutVarintZigzag64(buf, int64(len(v)))
	return append(buf, v...)
}

// Bytes decodes a length-prefixed byte slice.
func Bytes(buf []byte) ([]byte, int, error) {
	n, read, err := VarintZigzag64(buf)
	if err != nil {
		return nil, 0, err
	}
	if n < 0 || read+int(n) > len(buf) {
		return nil, 0, ErrTruncated
	}
	out := make([]byte, n)
	copy(out, buf[read:read+int(n)])
	return out, read + int(n), nil
}

// PutString appends a length-prefixed UTF-8 string, Avro's string encoding.
func PutString(buf []byte, v string) []byte {
	return PutBytes(buf, []byte(v))
}

// String decodes a length-prefixed string.
func String(buf []byte) (string, int, error) {
	b, n, err := Bytes(buf)
	if err != nil {
		return "", 0, err
	}
	return string(b), n, nil
}

// PutFloat32 appends a little-endian IEEE-754 single-precision float.
func PutFloat32(buf []byte, v float32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(v))
	return append(buf, tmp[:]...)
}

// Float32 decodes a little-endian IEEE-754 single-precision float.
func Float32(buf []byte) (float32, int, error) {
	if len(buf) < 4 {
		return 0, 0, ErrTruncated
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(buf)), 4, nil
}

// PutFloat64 appends a little-endian IEEE-754 double-precision float.
func PutFloat64(buf []byte, v float64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
	return append(buf, tmp[:]...)
}

// Float64 decodes a little-endian IEEE-754 double-precision float.
func Float64(buf []byte) (float64, int, error) {
	if len(buf) < 8 {
		return 0, 0, ErrTruncated
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf)), 8, nil
}
