package pgproto3

import "github.com/blenq/pagio/pgio"

// StartupMessage is the first message sent by the client. Unlike every
// other frontend message it carries no 1-byte tag.
type StartupMessage struct {
	ProtocolVersion uint32
	Parameters      map[string]string
}

// Encode appends the wire representation of msg to buf.
func (msg *StartupMessage) Encode(buf []byte) []byte {
	sp := len(buf)
	buf = pgio.AppendInt32(buf, -1) // placeholder length

	buf = pgio.AppendUint32(buf, msg.ProtocolVersion)
	for k, v := range msg.Parameters {
		buf = pgio.AppendCString(buf, k)
		buf = pgio.AppendCString(buf, v)
	}
	buf = append(buf, 0)

	pgio.SetInt32(buf[sp:], int32(len(buf)-sp))
	return buf
}

// SSLRequest asks the server whether it will accept a TLS handshake before
// the startup message. The server replies with a single byte: 'S' to
// proceed with TLS, 'N' for plaintext.
type SSLRequest struct{}

const sslRequestCode = 80877103

// Encode appends the wire representation of msg to buf.
func (msg *SSLRequest) Encode(buf []byte) []byte {
	buf = pgio.AppendInt32(buf, 8)
	buf = pgio.AppendInt32(buf, sslRequestCode)
	return buf
}

// CancelRequest is sent on a fresh connection, separate from the one being
// cancelled, to ask the server to interrupt a running query.
type CancelRequest struct {
	ProcessID uint32
	SecretKey uint32
}

const cancelRequestCode = 80877102

// Encode appends the wire representation of msg to buf.
func (msg *CancelRequest) Encode(buf []byte) []byte {
	buf = pgio.AppendInt32(buf, 16)
	buf = pgio.AppendInt32(buf, cancelRequestCode)
	buf = pgio.AppendUint32(buf, msg.ProcessID)
	buf = pgio.AppendUint32(buf, msg.SecretKey)
	return buf
}
