package pgproto3

import "fmt"

// BackendTracer is notified of every message received from the backend,
// before it is decoded. Implementations must not retain payload beyond the
// call.
type BackendTracer interface {
	TraceBackendMessage(tag byte, payload []byte)
}

// Backend decodes the stream of messages a PostgreSQL server sends to a
// client.
type Backend struct {
	framer *Framer
	tracer BackendTracer

	msg BackendMessage
}

// NewBackend creates a Backend reading from framer.
func NewBackend(framer *Framer) *Backend {
	return &Backend{framer: framer}
}

// Trace installs t as the tracer for every subsequent message; pass nil to
// disable tracing.
func (b *Backend) Trace(t BackendTracer) {
	b.tracer = t
}

// WriteRegion and Advance expose the underlying Framer's read-buffer
// protocol directly, so a caller can drive Backend without a separate
// reference to the Framer.
func (b *Backend) WriteRegion() []byte { return b.framer.WriteRegion(b.framer.Pending()) }
func (b *Backend) Advance(n int)       { b.framer.Advance(n) }

// Receive decodes every complete message currently buffered, invoking
// handle once per message in arrival order. handle must not retain the
// message's byte slices beyond the call.
func (b *Backend) Receive(handle func(BackendMessage) error) error {
	return b.framer.Drain(func(tag byte, payload []byte) error {
		if b.tracer != nil {
			b.tracer.TraceBackendMessage(tag, payload)
		}
		msg, err := decodeBackendMessage(tag, payload)
		if err != nil {
			return err
		}
		return handle(msg)
	})
}

func decodeBackendMessage(tag byte, payload []byte) (BackendMessage, error) {
	var msg BackendMessage
	switch tag {
	case tagAuthentication:
		msg = &Authentication{}
	case tagBackendKeyData:
		msg = &BackendKeyData{}
	case tagParameterStatus:
		msg = &ParameterStatus{}
	case tagRowDescription:
		msg = &RowDescription{}
	case tagParameterDescription:
		msg = &ParameterDescription{}
	case tagNoData:
		msg = &NoData{}
	case tagDataRow:
		msg = &DataRow{}
	case tagCommandComplete:
		msg = &CommandComplete{}
	case tagParseComplete:
		msg = &ParseComplete{}
	case tagBindComplete:
		msg = &BindComplete{}
	case tagCloseComplete:
		msg = &CloseComplete{}
	case tagErrorResponse:
		msg = &ErrorResponse{}
	case tagNoticeResponse:
		msg = &NoticeResponse{}
	case tagNotificationResponse:
		msg = &NotificationResponse{}
	case tagReadyForQuery:
		msg = &ReadyForQuery{}
	case tagEmptyQueryResponse:
		msg = &EmptyQueryResponse{}
	case tagPortalSuspended:
		msg = &PortalSuspended{}
	case tagCopyInResponse:
		msg = &CopyInResponse{}
	case tagCopyOutResponse:
		msg = &CopyOutResponse{}
	case tagCopyBothResponse:
		msg = &CopyBothResponse{}
	case tagCopyData:
		msg = &CopyData{}
	case tagCopyDone:
		msg = &CopyDone{}
	default:
		return nil, fmt.Errorf("pgproto3: unknown backend message tag %q (%d)", rune(tag), tag)
	}
	if err := msg.Decode(payload); err != nil {
		return nil, err
	}
	return msg, nil
}
