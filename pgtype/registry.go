package pgtype

import "time"

// TextDecodeFunc converts a column's textual representation to a Go value.
type TextDecodeFunc func(src []byte) (any, error)

// BinaryDecodeFunc converts a column's binary representation to a Go
// value.
type BinaryDecodeFunc func(src []byte) (any, error)

// EncodeFunc maps a Go input value to a wire (OID, format, payload)
// triple. ok is false when val's shape does not match this encoder,
// letting the dispatcher try the next candidate in registration order.
type EncodeFunc func(val any) (oid uint32, format int16, payload []byte, ok bool, err error)

// WithOID wraps a parameter value with a caller-chosen OID for
// EncodeParameter's fallback row (§4.5): when no registered encoder
// claims Value's shape, it is still sent, textually via fmt.Sprint,
// under OID instead of UnknownOID.
type WithOID struct {
	Value any
	OID   uint32
}

// Codec is nothing more than a pair of decode functions. There is no
// scan-plan machinery: a caller holding an OID and a format asks the
// Registry for the matching Codec and calls it directly.
type Codec struct {
	OID          uint32
	Name         string
	TextDecode   TextDecodeFunc
	BinaryDecode BinaryDecodeFunc
}

// Registry maps OIDs to Codecs and holds the ordered list of parameter
// encoders consulted by EncodeParameter.
type Registry struct {
	codecs   map[uint32]*Codec
	encoders []EncodeFunc

	// zone is the session time zone (§4.6); nil means unresolved/UTC.
	// isoDates mirrors DateStyle's "ISO," prefix: when false, the textual
	// date, time, timetz, timestamp and timestamptz decoders hand back the
	// server's raw string instead of a parsed Go value (each consults
	// IsoDates itself at decode time).
	zone     *time.Location
	isoDates bool
}

// NewRegistry creates a Registry pre-loaded with the builtin codecs and
// parameter encoders.
func NewRegistry() *Registry {
	r := &Registry{codecs: make(map[uint32]*Codec, 64), isoDates: true}
	registerScalarCodecs(r)
	registerNumericCodec(r)
	registerDateTimeCodecs(r)
	registerNetCodecs(r)
	registerUUIDCodec(r)
	registerArrayCodecs(r)
	registerRangeCodecs(r)
	registerMultirangeCodecs(r)
	registerScalarEncoders(r)
	registerNumericEncoder(r)
	registerDateTimeEncoders(r)
	return r
}

// Register adds or replaces the codec for c.OID.
func (r *Registry) Register(c *Codec) {
	r.codecs[c.OID] = c
}

// Lookup returns the codec registered for oid, or nil if none is
// registered.
func (r *Registry) Lookup(oid uint32) *Codec {
	return r.codecs[oid]
}

// SetTimeZone records the session's resolved IANA time zone, consulted by
// the timestamptz binary decoder (§4.6). Pass nil when TimeZone resolves
// to no known IANA zone, which decodes timestamptz as UTC instead.
func (r *Registry) SetTimeZone(loc *time.Location) { r.zone = loc }

// TimeZone returns the session time zone most recently set by
// SetTimeZone, or nil if none has been resolved.
func (r *Registry) TimeZone() *time.Location { return r.zone }

// SetIsoDates records whether DateStyle begins with "ISO," (§4.6).
func (r *Registry) SetIsoDates(iso bool) { r.isoDates = iso }

// IsoDates reports whether textual date/time decoders should parse to a
// Go value (true) or hand back the server's raw text (false).
func (r *Registry) IsoDates() bool { return r.isoDates }

// RegisterEncoder appends fn to the list of parameter encoders tried, in
// registration order, by EncodeParameter.
func (r *Registry) RegisterEncoder(fn EncodeFunc) {
	r.encoders = append(r.encoders, fn)
}

// Decode converts src using the codec registered for oid, in the wire
// format format (0 text, 1 binary). src == nil denotes SQL NULL and
// always decodes to (nil, nil) regardless of codec. An unregistered OID
// decodes to the raw bytes unchanged, matching a "raw result" fallback.
func (r *Registry) Decode(oid uint32, format int16, src []byte) (any, error) {
	if src == nil {
		return nil, nil
	}
	c := r.codecs[oid]
	if c == nil {
		return append([]byte(nil), src...), nil
	}
	if format == 1 {
		if c.BinaryDecode == nil {
			return nil, &DecodeError{OID: oid, Format: format, Reason: "no binary decoder registered"}
		}
		return c.BinaryDecode(src)
	}
	if c.TextDecode == nil {
		return nil, &DecodeError{OID: oid, Format: format, Reason: "no text decoder registered"}
	}
	return c.TextDecode(src)
}

// EncodeParameter maps val to a wire (OID, format, payload) tuple by
// trying each registered encoder in order until one claims the value's
// shape. hintOID, if non-zero and no encoder claims val, forces a
// textual encoding under the hinted OID via fmt.Sprint — the catch-all
// "other with oid hint" row of the parameter encoder's mapping. val may
// also be a WithOID, in which case its OID supplies hintOID directly
// (BuildExecute's params slice carries the hint this way, since its
// signature takes a flat []any).
func (r *Registry) EncodeParameter(val any, hintOID uint32) (oid uint32, format int16, payload []byte, err error) {
	if w, ok := val.(WithOID); ok {
		val, hintOID = w.Value, w.OID
	}
	if val == nil {
		return 0, 1, nil, nil
	}
	for _, enc := range r.encoders {
		oid, format, payload, ok, err := enc(val)
		if _, outOfRange := err.(*EncodeError); outOfRange {
			return UnknownOID, 0, []byte(stringify(val)), nil
		}
		if err != nil {
			return 0, 0, nil, err
		}
		if ok {
			return oid, format, payload, nil
		}
	}
	if hintOID != 0 {
		return hintOID, 0, []byte(stringify(val)), nil
	}
	return UnknownOID, 0, []byte(stringify(val)), nil
}
