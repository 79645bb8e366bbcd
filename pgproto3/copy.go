package pgproto3

import "github.com/blenq/pagio/pgio"

func decodeCopyResponse(src []byte) (overallFormat int16, columnFormats []int16) {
	rest, format := pgio.NextInt16(src)
	rest, n := pgio.NextInt16(rest)
	columnFormats = make([]int16, n)
	for i := range columnFormats {
		rest, columnFormats[i] = pgio.NextInt16(rest)
	}
	return format, columnFormats
}

// CopyInResponse invites the client to start streaming CopyData messages
// for a COPY ... FROM STDIN.
type CopyInResponse struct {
	OverallFormat     int16
	ColumnFormatCodes []int16
}

func (*CopyInResponse) Backend() {}

// Decode implements BackendMessage.
func (dst *CopyInResponse) Decode(src []byte) error {
	format, cols := decodeCopyResponse(src)
	*dst = CopyInResponse{OverallFormat: format, ColumnFormatCodes: cols}
	return nil
}

// CopyOutResponse announces the start of a server-to-client COPY ... TO
// STDOUT stream.
type CopyOutResponse struct {
	OverallFormat     int16
	ColumnFormatCodes []int16
}

func (*CopyOutResponse) Backend() {}

// Decode implements BackendMessage.
func (dst *CopyOutResponse) Decode(src []byte) error {
	format, cols := decodeCopyResponse(src)
	*dst = CopyOutResponse{OverallFormat: format, ColumnFormatCodes: cols}
	return nil
}

// CopyBothResponse is CopyOutResponse's bidirectional counterpart, used for
// streaming replication.
type CopyBothResponse struct {
	OverallFormat     int16
	ColumnFormatCodes []int16
}

func (*CopyBothResponse) Backend() {}

// Decode implements BackendMessage.
func (dst *CopyBothResponse) Decode(src []byte) error {
	format, cols := decodeCopyResponse(src)
	*dst = CopyBothResponse{OverallFormat: format, ColumnFormatCodes: cols}
	return nil
}

// CopyData carries one chunk of a COPY data stream, in either direction.
type CopyData struct {
	Data []byte
}

func (*CopyData) Backend()  {}
func (*CopyData) Frontend() {}

// Decode implements BackendMessage.
func (dst *CopyData) Decode(src []byte) error {
	dst.Data = src
	return nil
}

// Encode implements FrontendMessage.
func (msg *CopyData) Encode(buf []byte) []byte {
	buf = append(buf, tagCopyData)
	buf = pgio.AppendInt32(buf, int32(4+len(msg.Data)))
	buf = append(buf, msg.Data...)
	return buf
}

// CopyFail aborts a client-to-server COPY in progress, reporting message as
// the reason.
type CopyFail struct {
	Message string
}

func (*CopyFail) Frontend() {}

// Encode implements FrontendMessage.
func (msg *CopyFail) Encode(buf []byte) []byte {
	buf = append(buf, tagCopyFail)
	sp := len(buf)
	buf = pgio.AppendInt32(buf, -1)
	buf = pgio.AppendCString(buf, msg.Message)
	pgio.SetInt32(buf[sp:], int32(len(buf)-sp))
	return buf
}
