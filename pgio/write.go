package pgio

// AppendUint16 appends n to buf in network byte order.
func AppendUint16(buf []byte, n uint16) []byte {
	return append(buf, byte(n>>8), byte(n))
}

// AppendUint32 appends n to buf in network byte order.
func AppendUint32(buf []byte, n uint32) []byte {
	return append(buf, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
}

// AppendUint64 appends n to buf in network byte order.
func AppendUint64(buf []byte, n uint64) []byte {
	return append(buf,
		byte(n>>56), byte(n>>48), byte(n>>40), byte(n>>32),
		byte(n>>24), byte(n>>16), byte(n>>8), byte(n),
	)
}

// AppendInt16 appends n to buf in network byte order.
func AppendInt16(buf []byte, n int16) []byte { return AppendUint16(buf, uint16(n)) }

// AppendInt32 appends n to buf in network byte order.
func AppendInt32(buf []byte, n int32) []byte { return AppendUint32(buf, uint32(n)) }

// AppendInt64 appends n to buf in network byte order.
func AppendInt64(buf []byte, n int64) []byte { return AppendUint64(buf, uint64(n)) }

// AppendCString appends s to buf followed by a terminating zero byte.
func AppendCString(buf []byte, s string) []byte {
	buf = append(buf, s...)
	return append(buf, 0)
}

// SetInt32 overwrites the 4 bytes at the start of buf with n. Used to patch
// a length placeholder once the length of the data that follows it is known.
func SetInt32(buf []byte, n int32) {
	_ = buf[3]
	buf[0] = byte(n >> 24)
	buf[1] = byte(n >> 16)
	buf[2] = byte(n >> 8)
	buf[3] = byte(n)
}

// SetUint32 overwrites the 4 bytes at the start of buf with n.
func SetUint32(buf []byte, n uint32) { SetInt32(buf, int32(n)) }
