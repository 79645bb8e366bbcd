package pgtype

import (
	"fmt"
	"math"
	"strconv"

	"github.com/blenq/pagio/pgio"
)

func registerScalarCodecs(r *Registry) {
	r.Register(&Codec{OID: BoolOID, Name: "bool", TextDecode: decodeBoolText, BinaryDecode: decodeBoolBinary})
	r.Register(&Codec{OID: Int2OID, Name: "int2", TextDecode: decodeIntText(16), BinaryDecode: decodeInt2Binary})
	r.Register(&Codec{OID: Int4OID, Name: "int4", TextDecode: decodeIntText(32), BinaryDecode: decodeInt4Binary})
	r.Register(&Codec{OID: Int8OID, Name: "int8", TextDecode: decodeIntText(64), BinaryDecode: decodeInt8Binary})
	r.Register(&Codec{OID: OIDOID, Name: "oid", TextDecode: decodeIntText(32), BinaryDecode: decodeUint4Binary})
	r.Register(&Codec{OID: XIDOID, Name: "xid", TextDecode: decodeIntText(32), BinaryDecode: decodeUint4Binary})
	r.Register(&Codec{OID: Float4OID, Name: "float4", TextDecode: decodeFloat4Text, BinaryDecode: decodeFloat4Binary})
	r.Register(&Codec{OID: Float8OID, Name: "float8", TextDecode: decodeFloat8Text, BinaryDecode: decodeFloat8Binary})
	r.Register(&Codec{OID: TextOID, Name: "text", TextDecode: decodeTextText, BinaryDecode: decodeTextText})
	r.Register(&Codec{OID: VarcharOID, Name: "varchar", TextDecode: decodeTextText, BinaryDecode: decodeTextText})
	r.Register(&Codec{OID: BPCharOID, Name: "bpchar", TextDecode: decodeTextText, BinaryDecode: decodeTextText})
	r.Register(&Codec{OID: NameOID, Name: "name", TextDecode: decodeTextText, BinaryDecode: decodeTextText})
	r.Register(&Codec{OID: UnknownOID, Name: "unknown", TextDecode: decodeTextText, BinaryDecode: decodeTextText})
	r.Register(&Codec{OID: ByteaOID, Name: "bytea", TextDecode: decodeByteaText, BinaryDecode: decodeByteaBinary})
}

// ---- bool ----

func decodeBoolText(src []byte) (any, error) {
	if len(src) == 1 {
		switch src[0] {
		case 't':
			return true, nil
		case 'f':
			return false, nil
		}
	}
	return nil, &DecodeError{OID: BoolOID, Reason: fmt.Sprintf("invalid bool text %q", src)}
}

func decodeBoolBinary(src []byte) (any, error) {
	if len(src) != 1 {
		return nil, &DecodeError{OID: BoolOID, Format: 1, Reason: "expected 1 byte"}
	}
	return src[0] != 0, nil
}

// ---- integers ----

func decodeIntText(bits int) TextDecodeFunc {
	return func(src []byte) (any, error) {
		n, err := strconv.ParseInt(string(src), 10, bits)
		if err != nil {
			return nil, &DecodeError{Reason: "invalid integer text", Err: err}
		}
		switch bits {
		case 16:
			return int16(n), nil
		case 32:
			return int32(n), nil
		default:
			return n, nil
		}
	}
}

func decodeInt2Binary(src []byte) (any, error) {
	if len(src) != 2 {
		return nil, &DecodeError{OID: Int2OID, Format: 1, Reason: "expected 2 bytes"}
	}
	_, v := pgio.NextInt16(src)
	return v, nil
}

func decodeInt4Binary(src []byte) (any, error) {
	if len(src) != 4 {
		return nil, &DecodeError{OID: Int4OID, Format: 1, Reason: "expected 4 bytes"}
	}
	_, v := pgio.NextInt32(src)
	return v, nil
}

func decodeUint4Binary(src []byte) (any, error) {
	if len(src) != 4 {
		return nil, &DecodeError{Format: 1, Reason: "expected 4 bytes"}
	}
	_, v := pgio.NextUint32(src)
	return v, nil
}

func decodeInt8Binary(src []byte) (any, error) {
	if len(src) != 8 {
		return nil, &DecodeError{OID: Int8OID, Format: 1, Reason: "expected 8 bytes"}
	}
	_, v := pgio.NextInt64(src)
	return v, nil
}

// ---- floats ----

func decodeFloat4Text(src []byte) (any, error) {
	v, err := strconv.ParseFloat(string(src), 32)
	if err != nil {
		return nil, &DecodeError{OID: Float4OID, Reason: "invalid float text", Err: err}
	}
	// round-trip through float32 so the text and binary decoders agree bit
	// for bit, matching the server's own float4 precision.
	return float32(v), nil
}

func decodeFloat8Text(src []byte) (any, error) {
	v, err := strconv.ParseFloat(string(src), 64)
	if err != nil {
		return nil, &DecodeError{OID: Float8OID, Reason: "invalid float text", Err: err}
	}
	return v, nil
}

func decodeFloat4Binary(src []byte) (any, error) {
	if len(src) != 4 {
		return nil, &DecodeError{OID: Float4OID, Format: 1, Reason: "expected 4 bytes"}
	}
	_, bits := pgio.NextUint32(src)
	return math.Float32frombits(bits), nil
}

func decodeFloat8Binary(src []byte) (any, error) {
	if len(src) != 8 {
		return nil, &DecodeError{OID: Float8OID, Format: 1, Reason: "expected 8 bytes"}
	}
	_, bits := pgio.NextUint64(src)
	return math.Float64frombits(bits), nil
}

// ---- text ----

func decodeTextText(src []byte) (any, error) {
	return string(src), nil
}

// ---- bytea ----

func decodeByteaBinary(src []byte) (any, error) {
	return append([]byte(nil), src...), nil
}

func decodeByteaText(src []byte) (any, error) {
	if len(src) >= 2 && src[0] == '\\' && src[1] == 'x' {
		return decodeHexBytea(src[2:])
	}
	return decodeEscapedBytea(src)
}

func decodeHexBytea(src []byte) (any, error) {
	if len(src)%2 != 0 {
		return nil, &DecodeError{OID: ByteaOID, Reason: "odd-length hex bytea"}
	}
	out := make([]byte, len(src)/2)
	for i := range out {
		hi, ok1 := hexNibble(src[2*i])
		lo, ok2 := hexNibble(src[2*i+1])
		if !ok1 || !ok2 {
			return nil, &DecodeError{OID: ByteaOID, Reason: "invalid hex digit in bytea"}
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexNibble(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	default:
		return 0, false
	}
}

func decodeEscapedBytea(src []byte) (any, error) {
	out := make([]byte, 0, len(src))
	for i := 0; i < len(src); {
		if src[i] != '\\' {
			out = append(out, src[i])
			i++
			continue
		}
		if i+1 >= len(src) {
			return nil, &DecodeError{OID: ByteaOID, Reason: "truncated escape in bytea"}
		}
		if src[i+1] == '\\' {
			out = append(out, '\\')
			i += 2
			continue
		}
		if i+3 >= len(src) {
			return nil, &DecodeError{OID: ByteaOID, Reason: "truncated octal escape in bytea"}
		}
		b1, b2, b3 := src[i+1]-'0', src[i+2]-'0', src[i+3]-'0'
		if b1 > 7 || b2 > 7 || b3 > 7 {
			return nil, &DecodeError{OID: ByteaOID, Reason: "invalid octal escape in bytea"}
		}
		out = append(out, b1*64+b2*8+b3)
		i += 4
	}
	return out, nil
}

func stringify(val any) string {
	if s, ok := val.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(val)
}
