package pgproto3

import (
	"errors"
	"fmt"

	"github.com/blenq/pagio/internal/iobufpool"
	"github.com/blenq/pagio/pgio"
)

// defaultBufSize is the size of Framer's built-in buffer. PostgreSQL's own
// send buffer is 8KiB; twice that absorbs the common case (a RowDescription
// plus a handful of DataRows) without spilling to the overflow path.
const defaultBufSize = 16 * 1024

// headerLen is the size of the tag byte plus the 4-byte length prefix that
// precedes every message body except the initial startup packet.
const headerLen = 5

// FrameHandler is called once per complete frame drained from the stream.
// tag is the frame's leading type byte. payload is the message
// body (excluding tag and length) and is only valid for the duration of the
// call.
type FrameHandler func(tag byte, payload []byte) error

// ErrInvalidFrameLength is returned when a message announces a length
// smaller than the 4 bytes of the length field itself.
var ErrInvalidFrameLength = errors.New("pgproto3: invalid frame length")

// Framer splits an inbound byte stream into whole messages. The caller owns
// all I/O: it asks Framer for a region to read into, performs the read, and
// tells Framer how many bytes landed; Framer then drains as many complete
// frames as are available, invoking a handler once per frame.
//
// Framer is not safe for concurrent use. It is intended to be driven by a
// single cooperative task, matching the engine's single-threaded model.
type Framer struct {
	buf      [defaultBufSize]byte
	start    int // first unconsumed byte
	end      int // first byte not yet written

	overflow    []byte // non-nil while assembling a message larger than buf
	overflowLen int    // bytes of overflow already filled

	spent []byte // overflow buffer drained by the last call to Drain, pending release
}

// NewFramer creates a Framer with no pending partial message.
func NewFramer() *Framer {
	return &Framer{}
}

// releaseSpent returns the previous overflow buffer to the pool. It is
// deferred until the start of the next call rather than done immediately
// after draining a frame, so the payload handed to the frame handler stays
// valid for the duration of that call.
func (f *Framer) releaseSpent() {
	if f.spent != nil {
		iobufpool.Put(f.spent)
		f.spent = nil
	}
}

// Pending returns how many more bytes Framer needs to complete the frame
// currently being assembled: headerLen minus what has arrived if no header
// has been seen yet, or the remainder of an announced message length
// otherwise. Callers should size their next read (and WriteRegion request)
// to at least this many bytes to avoid needless extra round trips; it is
// never fewer than 1.
func (f *Framer) Pending() int {
	if f.overflow != nil {
		if n := len(f.overflow) - f.overflowLen; n > 0 {
			return n
		}
		return 1
	}

	avail := f.end - f.start
	if avail < headerLen {
		return headerLen - avail
	}

	_, bodyLen := pgio.NextInt32(f.buf[f.start+1 : f.end])
	total := 1 + int(bodyLen)
	if n := total - avail; n > 0 {
		return n
	}
	return 1
}

// WriteRegion returns a slice the caller may write new data into, sized to
// satisfy a read of around n bytes (n is typically the result of Pending).
// The returned slice never exceeds what remains of the message currently
// being assembled once a length is known, so it may be shorter than n. The
// slice is only valid until the next call to Advance.
func (f *Framer) WriteRegion(n int) []byte {
	f.releaseSpent()

	if f.overflow != nil {
		return f.overflow[f.overflowLen:]
	}

	if len(f.buf)-f.end < n {
		f.compact()
	}
	if len(f.buf)-f.end < n {
		// Caller asked for more than the fixed buffer can ever hold without
		// us knowing a message length yet (i.e. before Drain has seen the
		// header). Grow into a one-shot buffer sized to the request.
		f.overflow = iobufpool.Get(f.end - f.start + n)
		f.overflowLen = copy(f.overflow, f.buf[f.start:f.end])
		f.start, f.end = 0, 0
		return f.overflow[f.overflowLen:]
	}
	return f.buf[f.end : f.end+n]
}

// Advance records that n bytes were just written into the region most
// recently returned by WriteRegion.
func (f *Framer) Advance(n int) {
	if f.overflow != nil {
		f.overflowLen += n
		return
	}
	f.end += n
}

// compact moves unconsumed bytes to the front of buf, making room at the
// end for more incoming data.
func (f *Framer) compact() {
	if f.start == 0 {
		return
	}
	n := copy(f.buf[:], f.buf[f.start:f.end])
	f.start = 0
	f.end = n
}

// Drain invokes handler once for each complete message currently buffered,
// in order, stopping at the first partial message, error from handler, or
// malformed frame. It never blocks and never reads from a transport itself.
func (f *Framer) Drain(handler FrameHandler) error {
	f.releaseSpent()
	for {
		tag, payload, ok, err := f.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := handler(tag, payload); err != nil {
			return err
		}
		f.releaseSpent()
	}
}

// next extracts a single complete frame, if one is available.
func (f *Framer) next() (tag byte, payload []byte, ok bool, err error) {
	if f.overflow != nil {
		return f.nextOverflow()
	}

	avail := f.end - f.start
	if avail < headerLen {
		return 0, nil, false, nil
	}

	buf := f.buf[f.start:f.end]
	_, tag = pgio.NextByte(buf)
	_, bodyLen := pgio.NextInt32(buf[1:])
	if bodyLen < 4 {
		return 0, nil, false, fmt.Errorf("%w: %d", ErrInvalidFrameLength, bodyLen)
	}
	total := 1 + int(bodyLen)

	if total > len(f.buf) {
		// Message won't fit the fixed buffer; spill the still-unconsumed
		// bytes (including this header) into an overflow allocation sized
		// exactly for the whole message, then continue filling it via
		// WriteRegion/Advance as more bytes arrive.
		f.overflow = iobufpool.Get(total)
		f.overflowLen = copy(f.overflow, buf[:avail])
		f.start, f.end = 0, 0
		return f.nextOverflow()
	}

	if avail < total {
		return 0, nil, false, nil
	}

	payload = buf[headerLen:total]
	f.start += total
	if f.start == f.end {
		f.start, f.end = 0, 0
	}
	return tag, payload, true, nil
}

func (f *Framer) nextOverflow() (tag byte, payload []byte, ok bool, err error) {
	if f.overflowLen < headerLen {
		return 0, nil, false, nil
	}

	_, tag = pgio.NextByte(f.overflow)
	_, bodyLen := pgio.NextInt32(f.overflow[1:])
	if bodyLen < 4 {
		return 0, nil, false, fmt.Errorf("%w: %d", ErrInvalidFrameLength, bodyLen)
	}
	total := 1 + int(bodyLen)

	if f.overflowLen < total {
		return 0, nil, false, nil
	}

	payload = f.overflow[headerLen:total]
	leftover := f.overflowLen - total
	if leftover > 0 {
		// Very rare: another frame's bytes arrived appended to this
		// overflow buffer. Move them back into the fixed buffer so
		// overflow can be released.
		copy(f.buf[:leftover], f.overflow[total:f.overflowLen])
		f.start, f.end = 0, leftover
	}

	f.spent = f.overflow
	f.overflow = nil
	f.overflowLen = 0

	return tag, payload, true, nil
}
