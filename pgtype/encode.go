package pgtype

import (
	"math"

	"github.com/blenq/pagio/pgio"
)

// registerScalarEncoders installs the parameter encoder dispatch table
// described by the input-shape-to-wire-type mapping: each function claims
// one Go value shape and produces its preferred (OID, format, payload).
// Order matters only where shapes overlap (none do here); EncodeParameter
// tries them in registration order and falls through to a textual
// encoding under the caller's OID hint, or else `unknown`, when none
// claims the value.
func registerScalarEncoders(r *Registry) {
	r.RegisterEncoder(encodeBool)
	r.RegisterEncoder(encodeInt)
	r.RegisterEncoder(encodeFloat)
	r.RegisterEncoder(encodeString)
	r.RegisterEncoder(encodeBytes)
}

func encodeBool(val any) (oid uint32, format int16, payload []byte, ok bool, err error) {
	b, ok := val.(bool)
	if !ok {
		return 0, 0, nil, false, nil
	}
	if b {
		return BoolOID, 1, []byte{1}, true, nil
	}
	return BoolOID, 1, []byte{0}, true, nil
}

func encodeInt(val any) (oid uint32, format int16, payload []byte, ok bool, err error) {
	var n int64
	switch v := val.(type) {
	case int:
		n = int64(v)
	case int8:
		n = int64(v)
	case int16:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case uint8:
		n = int64(v)
	case uint16:
		n = int64(v)
	case uint32:
		n = int64(v)
	default:
		return 0, 0, nil, false, nil
	}
	if n >= math.MinInt32 && n <= math.MaxInt32 {
		return Int4OID, 1, pgio.AppendInt32(nil, int32(n)), true, nil
	}
	return Int8OID, 1, pgio.AppendInt64(nil, n), true, nil
}

func encodeFloat(val any) (oid uint32, format int16, payload []byte, ok bool, err error) {
	var f float64
	switch v := val.(type) {
	case float32:
		f = float64(v)
	case float64:
		f = v
	default:
		return 0, 0, nil, false, nil
	}
	return Float8OID, 1, pgio.AppendUint64(nil, math.Float64bits(f)), true, nil
}

func encodeString(val any) (oid uint32, format int16, payload []byte, ok bool, err error) {
	s, ok := val.(string)
	if !ok {
		return 0, 0, nil, false, nil
	}
	return TextOID, 0, []byte(s), true, nil
}

func encodeBytes(val any) (oid uint32, format int16, payload []byte, ok bool, err error) {
	b, ok := val.([]byte)
	if !ok {
		return 0, 0, nil, false, nil
	}
	return ByteaOID, 1, b, true, nil
}
