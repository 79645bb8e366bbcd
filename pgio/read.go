package pgio

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// ErrInvalidCString is returned by NextCString when buf has no terminating
// zero byte.
var ErrInvalidCString = errors.New("pgio: unterminated C string")

// NextByte reads one byte off the front of buf.
func NextByte(buf []byte) ([]byte, byte) {
	return buf[1:], buf[0]
}

// NextUint16 reads a big-endian uint16 off the front of buf.
func NextUint16(buf []byte) ([]byte, uint16) {
	return buf[2:], binary.BigEndian.Uint16(buf)
}

// NextUint32 reads a big-endian uint32 off the front of buf.
func NextUint32(buf []byte) ([]byte, uint32) {
	return buf[4:], binary.BigEndian.Uint32(buf)
}

// NextUint64 reads a big-endian uint64 off the front of buf.
func NextUint64(buf []byte) ([]byte, uint64) {
	return buf[8:], binary.BigEndian.Uint64(buf)
}

// NextInt16 reads a big-endian int16 off the front of buf.
func NextInt16(buf []byte) ([]byte, int16) {
	buf, n := NextUint16(buf)
	return buf, int16(n)
}

// NextInt32 reads a big-endian int32 off the front of buf.
func NextInt32(buf []byte) ([]byte, int32) {
	buf, n := NextUint32(buf)
	return buf, int32(n)
}

// NextInt64 reads a big-endian int64 off the front of buf.
func NextInt64(buf []byte) ([]byte, int64) {
	buf, n := NextUint64(buf)
	return buf, int64(n)
}

// NextCString splits off a zero-terminated string from the front of buf,
// returning the remainder of buf (past the terminator) and the string
// without its terminator.
func NextCString(buf []byte) ([]byte, string, error) {
	idx := bytes.IndexByte(buf, 0)
	if idx < 0 {
		return buf, "", ErrInvalidCString
	}
	return buf[idx+1:], string(buf[:idx]), nil
}
