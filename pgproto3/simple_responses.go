package pgproto3

import "github.com/blenq/pagio/pgio"

// ParseComplete acknowledges a Parse message.
type ParseComplete struct{}

func (*ParseComplete) Backend() {}

// Decode implements BackendMessage.
func (dst *ParseComplete) Decode(src []byte) error { return nil }

// BindComplete acknowledges a Bind message.
type BindComplete struct{}

func (*BindComplete) Backend() {}

// Decode implements BackendMessage.
func (dst *BindComplete) Decode(src []byte) error { return nil }

// CloseComplete acknowledges a Close message.
type CloseComplete struct{}

func (*CloseComplete) Backend() {}

// Decode implements BackendMessage.
func (dst *CloseComplete) Decode(src []byte) error { return nil }

// NoData indicates a Describe targeting a statement or portal with no
// result row shape (e.g. an INSERT with no RETURNING clause).
type NoData struct{}

func (*NoData) Backend() {}

// Decode implements BackendMessage.
func (dst *NoData) Decode(src []byte) error { return nil }

// EmptyQueryResponse is sent in place of CommandComplete when a Simple Query
// string contained no statements at all.
type EmptyQueryResponse struct{}

func (*EmptyQueryResponse) Backend() {}

// Decode implements BackendMessage.
func (dst *EmptyQueryResponse) Decode(src []byte) error { return nil }

// PortalSuspended is sent instead of CommandComplete when Execute's row
// limit was hit before the portal was exhausted.
type PortalSuspended struct{}

func (*PortalSuspended) Backend() {}

// Decode implements BackendMessage.
func (dst *PortalSuspended) Decode(src []byte) error { return nil }

// CopyDone marks the end of a COPY data stream, sent by whichever side is
// producing it.
type CopyDone struct{}

func (*CopyDone) Backend()  {}
func (*CopyDone) Frontend() {}

// Decode implements BackendMessage.
func (dst *CopyDone) Decode(src []byte) error { return nil }

// Encode implements FrontendMessage.
func (msg *CopyDone) Encode(buf []byte) []byte {
	buf = append(buf, tagCopyDone)
	buf = pgio.AppendInt32(buf, 4)
	return buf
}

// BackendKeyData carries the values a client later presents on a cancel
// connection to interrupt this session's running query.
type BackendKeyData struct {
	ProcessID uint32
	SecretKey uint32
}

func (*BackendKeyData) Backend() {}

// Decode implements BackendMessage.
func (dst *BackendKeyData) Decode(src []byte) error {
	rest, pid := pgio.NextUint32(src)
	_, secret := pgio.NextUint32(rest)
	*dst = BackendKeyData{ProcessID: pid, SecretKey: secret}
	return nil
}

// ParameterStatus reports the current value of a run-time session
// parameter, sent whenever it changes (and once for a fixed set at
// startup).
type ParameterStatus struct {
	Name  string
	Value string
}

func (*ParameterStatus) Backend() {}

// Decode implements BackendMessage.
func (dst *ParameterStatus) Decode(src []byte) error {
	rest, name, err := pgio.NextCString(src)
	if err != nil {
		return err
	}
	_, value, err := pgio.NextCString(rest)
	if err != nil {
		return err
	}
	*dst = ParameterStatus{Name: name, Value: value}
	return nil
}

// TransactionStatus is the single-byte code carried by ReadyForQuery.
type TransactionStatus byte

const (
	TxStatusIdle       TransactionStatus = 'I'
	TxStatusInTx       TransactionStatus = 'T'
	TxStatusFailedTx   TransactionStatus = 'E'
)

// ReadyForQuery marks the backend idle and willing to accept a new query or
// extended-query unit.
type ReadyForQuery struct {
	TxStatus TransactionStatus
}

func (*ReadyForQuery) Backend() {}

// Decode implements BackendMessage.
func (dst *ReadyForQuery) Decode(src []byte) error {
	if len(src) < 1 {
		return ErrInvalidFrameLength
	}
	dst.TxStatus = TransactionStatus(src[0])
	return nil
}
