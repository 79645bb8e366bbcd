// Package pgproto3 implements the byte-level framing and message types of
// the PostgreSQL wire protocol version 3: the Framer that splits a byte
// stream into complete messages, and the FrontendMessage / BackendMessage
// types that know how to encode and decode their own payloads.
//
// Nothing in this package does I/O. Framer consumes bytes handed to it by a
// caller and invokes a callback per complete frame; message Encode methods
// append to a caller-owned buffer. The transport, and the decision of when
// to read or write, belong to the caller.
package pgproto3

const ProtocolVersionNumber = 196608 // 3.0, as 3<<16 | 0

// FrontendMessage is a message sent by the client.
type FrontendMessage interface {
	// Encode appends the wire representation of the message, including its
	// 1-byte tag and 4-byte length prefix, to buf and returns the result.
	Encode(buf []byte) []byte
}

// BackendMessage is a message received from the server.
type BackendMessage interface {
	// Decode parses src, the message body with the tag and length already
	// stripped, into the receiver.
	Decode(src []byte) error
}

// Backend message tags.
const (
	tagAuthentication       = 'R'
	tagBackendKeyData       = 'K'
	tagParameterStatus      = 'S'
	tagRowDescription       = 'T'
	tagNoData               = 'n'
	tagDataRow              = 'D'
	tagCommandComplete      = 'C'
	tagParseComplete        = '1'
	tagBindComplete         = '2'
	tagCloseComplete        = '3'
	tagErrorResponse        = 'E'
	tagNoticeResponse       = 'N'
	tagReadyForQuery        = 'Z'
	tagNotificationResponse = 'A'
	tagEmptyQueryResponse   = 'I'
	tagParameterDescription = 't'
	tagPortalSuspended      = 's'
	tagCopyInResponse       = 'G'
	tagCopyOutResponse      = 'H'
	tagCopyBothResponse     = 'W'
	tagCopyData             = 'd'
	tagCopyDone             = 'c'
)

// Frontend message tags.
const (
	tagParse       = 'P'
	tagBind        = 'B'
	tagDescribe    = 'D'
	tagExecute     = 'E'
	tagClose       = 'C'
	tagSync        = 'S'
	tagSimpleQuery = 'Q'
	tagTerminate   = 'X'
	tagPassword    = 'p'
	tagCopyFail    = 'f'
)
