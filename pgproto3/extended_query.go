package pgproto3

import "github.com/blenq/pagio/pgio"

// Parse requests the server plan sql under StatementName, optionally
// pre-declaring the OID of each parameter. An empty OID lets the server
// infer the type. StatementName "" denotes the unnamed statement.
type Parse struct {
	StatementName string
	SQL           string
	ParameterOIDs []uint32
}

func (*Parse) Frontend() {}

// Encode implements FrontendMessage.
func (msg *Parse) Encode(buf []byte) []byte {
	buf = append(buf, tagParse)
	sp := len(buf)
	buf = pgio.AppendInt32(buf, -1)

	buf = pgio.AppendCString(buf, msg.StatementName)
	buf = pgio.AppendCString(buf, msg.SQL)
	buf = pgio.AppendInt16(buf, int16(len(msg.ParameterOIDs)))
	for _, oid := range msg.ParameterOIDs {
		buf = pgio.AppendUint32(buf, oid)
	}

	pgio.SetInt32(buf[sp:], int32(len(buf)-sp))
	return buf
}

// Bind binds values to the parameters of a previously parsed statement and
// names the resulting portal. PortalName "" denotes the unnamed portal.
//
// ParameterFormatCodes and ResultFormatCodes may each be empty (all text),
// hold exactly one code (applies to every parameter/column), or hold one
// code per parameter/column.
type Bind struct {
	PortalName           string
	StatementName        string
	ParameterFormatCodes []int16
	Parameters           [][]byte // nil element encodes SQL NULL
	ResultFormatCodes    []int16
}

func (*Bind) Frontend() {}

// Encode implements FrontendMessage.
func (msg *Bind) Encode(buf []byte) []byte {
	buf = append(buf, tagBind)
	sp := len(buf)
	buf = pgio.AppendInt32(buf, -1)

	buf = pgio.AppendCString(buf, msg.PortalName)
	buf = pgio.AppendCString(buf, msg.StatementName)

	buf = pgio.AppendInt16(buf, int16(len(msg.ParameterFormatCodes)))
	for _, code := range msg.ParameterFormatCodes {
		buf = pgio.AppendInt16(buf, code)
	}

	buf = pgio.AppendInt16(buf, int16(len(msg.Parameters)))
	for _, p := range msg.Parameters {
		if p == nil {
			buf = pgio.AppendInt32(buf, -1)
			continue
		}
		buf = pgio.AppendInt32(buf, int32(len(p)))
		buf = append(buf, p...)
	}

	buf = pgio.AppendInt16(buf, int16(len(msg.ResultFormatCodes)))
	for _, code := range msg.ResultFormatCodes {
		buf = pgio.AppendInt16(buf, code)
	}

	pgio.SetInt32(buf[sp:], int32(len(buf)-sp))
	return buf
}

// DescribeTarget identifies whether a Describe message targets a prepared
// statement or a portal.
type DescribeTarget byte

const (
	DescribeStatement DescribeTarget = 'S'
	DescribePortal     DescribeTarget = 'P'
)

// Describe asks the server to report the parameter types (for a statement)
// or result row shape (for a statement or a portal).
type Describe struct {
	Target DescribeTarget
	Name   string
}

func (*Describe) Frontend() {}

// Encode implements FrontendMessage.
func (msg *Describe) Encode(buf []byte) []byte {
	buf = append(buf, tagDescribe)
	sp := len(buf)
	buf = pgio.AppendInt32(buf, -1)

	buf = append(buf, byte(msg.Target))
	buf = pgio.AppendCString(buf, msg.Name)

	pgio.SetInt32(buf[sp:], int32(len(buf)-sp))
	return buf
}

// Execute runs a bound portal, returning at most MaxRows rows (0 means no
// limit).
type Execute struct {
	PortalName string
	MaxRows    uint32
}

func (*Execute) Frontend() {}

// Encode implements FrontendMessage.
func (msg *Execute) Encode(buf []byte) []byte {
	buf = append(buf, tagExecute)
	sp := len(buf)
	buf = pgio.AppendInt32(buf, -1)

	buf = pgio.AppendCString(buf, msg.PortalName)
	buf = pgio.AppendUint32(buf, msg.MaxRows)

	pgio.SetInt32(buf[sp:], int32(len(buf)-sp))
	return buf
}

// Close releases a prepared statement or a portal server-side.
type Close struct {
	Target DescribeTarget
	Name   string
}

func (*Close) Frontend() {}

// Encode implements FrontendMessage.
func (msg *Close) Encode(buf []byte) []byte {
	buf = append(buf, tagClose)
	sp := len(buf)
	buf = pgio.AppendInt32(buf, -1)

	buf = append(buf, byte(msg.Target))
	buf = pgio.AppendCString(buf, msg.Name)

	pgio.SetInt32(buf[sp:], int32(len(buf)-sp))
	return buf
}

// Sync marks the end of an extended-query unit, asking the server for a
// ReadyForQuery once it has processed everything sent so far.
type Sync struct{}

func (*Sync) Frontend() {}

// Encode implements FrontendMessage.
func (msg *Sync) Encode(buf []byte) []byte {
	buf = append(buf, tagSync)
	buf = pgio.AppendInt32(buf, 4)
	return buf
}

// Query runs sql as a Simple Query: all results are textual and sql may
// contain multiple ';'-separated statements.
type Query struct {
	SQL string
}

func (*Query) Frontend() {}

// Encode implements FrontendMessage.
func (msg *Query) Encode(buf []byte) []byte {
	buf = append(buf, tagSimpleQuery)
	sp := len(buf)
	buf = pgio.AppendInt32(buf, -1)

	buf = pgio.AppendCString(buf, msg.SQL)

	pgio.SetInt32(buf[sp:], int32(len(buf)-sp))
	return buf
}

// Terminate politely ends the session.
type Terminate struct{}

func (*Terminate) Frontend() {}

// Encode implements FrontendMessage.
func (msg *Terminate) Encode(buf []byte) []byte {
	buf = append(buf, tagTerminate)
	buf = pgio.AppendInt32(buf, 4)
	return buf
}
