package pgproto3

// FrontendTracer is notified of every message about to be sent to the
// backend.
type FrontendTracer interface {
	TraceFrontendMessage(msg FrontendMessage)
}

// Frontend accumulates outgoing messages into a single contiguous buffer so
// a whole extended-query unit (Parse/Bind/Describe/Execute/Sync, say) can
// be handed to the transport in one write.
type Frontend struct {
	tracer FrontendTracer
	buf    []byte
}

// NewFrontend creates an empty Frontend.
func NewFrontend() *Frontend {
	return &Frontend{}
}

// Trace installs t as the tracer for every subsequently queued message;
// pass nil to disable tracing.
func (f *Frontend) Trace(t FrontendTracer) {
	f.tracer = t
}

// Send appends the wire encoding of msg to the pending buffer.
func (f *Frontend) Send(msg FrontendMessage) {
	if f.tracer != nil {
		f.tracer.TraceFrontendMessage(msg)
	}
	f.buf = msg.Encode(f.buf)
}

// Flush returns everything queued since the last Flush and resets the
// buffer for reuse. The returned slice is only valid until the next call to
// Send or Flush.
func (f *Frontend) Flush() []byte {
	buf := f.buf
	f.buf = f.buf[:0]
	return buf
}
