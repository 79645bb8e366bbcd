package pgtype

import (
	"fmt"
	"strings"

	"github.com/blenq/pagio/pgio"
)

// Range is the generic Go shape for every range OID this core decodes: the
// spec's "constructor for the caller's range object" is represented here as
// a plain struct rather than a caller-supplied type, since the core has no
// per-range-type Go API of its own to hand bound values to.
type Range struct {
	Lower, Upper                   any
	LowerInclusive, UpperInclusive bool
	LowerInfinite, UpperInfinite   bool
	IsEmpty                        bool
}

const (
	rangeEmptyFlag         = 0x01
	rangeLowerInclFlag     = 0x02
	rangeUpperInclFlag     = 0x04
	rangeLowerInfiniteFlag = 0x08
	rangeUpperInfiniteFlag = 0x10
)

func registerRangeCodecs(r *Registry) {
	type rangeOf struct {
		rangeOID uint32
		elemOID  uint32
		name     string
	}
	pairs := []rangeOf{
		{Int4RangeOID, Int4OID, "int4range"},
		{Int8RangeOID, Int8OID, "int8range"},
		{NumRangeOID, NumericOID, "numrange"},
		{DateRangeOID, DateOID, "daterange"},
		{TimestampRangeOID, TimestampOID, "tsrange"},
		{TimestampTzRangeOID, TimestampTzOID, "tstzrange"},
	}
	for _, p := range pairs {
		elem := r.Lookup(p.elemOID)
		if elem == nil {
			panic(fmt.Sprintf("pgtype: range element codec for OID %d not registered before range codecs", p.elemOID))
		}
		c := &Codec{
			OID:        p.rangeOID,
			Name:       p.name,
			TextDecode: decodeRangeText(elem.TextDecode),
		}
		if elem.BinaryDecode != nil {
			c.BinaryDecode = decodeRangeBinary(elem.BinaryDecode)
		}
		r.Register(c)
	}
}

// decodeRangeBinary parses §4.2's binary range layout: one flags byte,
// then an i32-length-prefixed value for each bound that is neither
// infinite nor implied empty.
func decodeRangeBinary(elem BinaryDecodeFunc) BinaryDecodeFunc {
	return func(src []byte) (any, error) {
		rng, _, err := decodeRangeBinaryPrefix(src, elem)
		return rng, err
	}
}

// decodeRangeBinaryPrefix decodes one range from the front of src and
// returns the unconsumed tail, so the multirange decoder can reuse it.
func decodeRangeBinaryPrefix(src []byte, elem BinaryDecodeFunc) (Range, []byte, error) {
	if len(src) < 1 {
		return Range{}, nil, &DecodeError{Format: 1, Reason: "range flags byte missing"}
	}
	flags := src[0]
	rest := src[1:]

	var rng Range
	if flags&rangeEmptyFlag != 0 {
		rng.IsEmpty = true
		return rng, rest, nil
	}

	rng.LowerInclusive = flags&rangeLowerInclFlag != 0
	rng.UpperInclusive = flags&rangeUpperInclFlag != 0
	rng.LowerInfinite = flags&rangeLowerInfiniteFlag != 0
	rng.UpperInfinite = flags&rangeUpperInfiniteFlag != 0

	if !rng.LowerInfinite {
		v, tail, err := decodeLengthPrefixed(rest, elem)
		if err != nil {
			return Range{}, nil, err
		}
		rng.Lower = v
		rest = tail
	}
	if !rng.UpperInfinite {
		v, tail, err := decodeLengthPrefixed(rest, elem)
		if err != nil {
			return Range{}, nil, err
		}
		rng.Upper = v
		rest = tail
	}
	return rng, rest, nil
}

func decodeLengthPrefixed(src []byte, elem BinaryDecodeFunc) (any, []byte, error) {
	if len(src) < 4 {
		return nil, nil, &DecodeError{Format: 1, Reason: "range bound length truncated"}
	}
	rest, l := pgio.NextInt32(src)
	if l < 0 || len(rest) < int(l) {
		return nil, nil, &DecodeError{Format: 1, Reason: "range bound value truncated"}
	}
	v, err := elem(rest[:l])
	if err != nil {
		return nil, nil, err
	}
	return v, rest[l:], nil
}

// decodeRangeText parses the literal `empty`, or
// `[lower,upper]`/`(lower,upper)` (and mixed bracket styles), with an
// empty bound string meaning unbounded/infinite.
func decodeRangeText(elem TextDecodeFunc) TextDecodeFunc {
	return func(src []byte) (any, error) {
		s := string(src)
		if s == "empty" {
			return Range{IsEmpty: true}, nil
		}
		if len(s) < 3 {
			return nil, &DecodeError{Reason: "range text too short"}
		}
		open := s[0]
		closeCh := s[len(s)-1]
		if (open != '[' && open != '(') || (closeCh != ']' && closeCh != ')') {
			return nil, &DecodeError{Reason: fmt.Sprintf("invalid range bound characters in %q", s)}
		}
		body := s[1 : len(s)-1]
		lowerStr, upperStr, err := splitRangeBody(body)
		if err != nil {
			return nil, &DecodeError{Reason: "invalid range text", Err: err}
		}

		rng := Range{
			LowerInclusive: open == '[',
			UpperInclusive: closeCh == ']',
		}
		if lowerStr == "" {
			rng.LowerInfinite = true
		} else {
			v, err := elem([]byte(unquoteRangeBound(lowerStr)))
			if err != nil {
				return nil, err
			}
			rng.Lower = v
		}
		if upperStr == "" {
			rng.UpperInfinite = true
		} else {
			v, err := elem([]byte(unquoteRangeBound(upperStr)))
			if err != nil {
				return nil, err
			}
			rng.Upper = v
		}
		return rng, nil
	}
}

// splitRangeBody splits a range's inner "lower,upper" text on the comma
// that is not inside a double-quoted bound.
func splitRangeBody(body string) (lower, upper string, err error) {
	inQuotes := false
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '"':
			inQuotes = !inQuotes
		case '\\':
			i++
		case ',':
			if !inQuotes {
				return body[:i], body[i+1:], nil
			}
		}
	}
	return "", "", fmt.Errorf("missing ',' separator in range body %q", body)
}

func unquoteRangeBound(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	inner := s[1 : len(s)-1]
	var buf strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
		}
		buf.WriteByte(inner[i])
	}
	return buf.String()
}

// registerMultirangeCodecs installs the multirange codecs, each decoding
// to a []Range via its corresponding range element decoder.
func registerMultirangeCodecs(r *Registry) {
	type multirangeOf struct {
		multirangeOID uint32
		rangeOID      uint32
		name          string
	}
	pairs := []multirangeOf{
		{Int4MultirangeOID, Int4RangeOID, "int4multirange"},
		{Int8MultirangeOID, Int8RangeOID, "int8multirange"},
		{NumMultirangeOID, NumRangeOID, "nummultirange"},
		{DateMultirangeOID, DateRangeOID, "datemultirange"},
		{TimestampMultirangeOID, TimestampRangeOID, "tsmultirange"},
		{TimestampTzMultirangeOID, TimestampTzRangeOID, "tstzmultirange"},
	}
	for _, p := range pairs {
		rangeCodec := r.Lookup(p.rangeOID)
		if rangeCodec == nil {
			panic(fmt.Sprintf("pgtype: multirange range codec for OID %d not registered before multirange codecs", p.rangeOID))
		}
		c := &Codec{
			OID:        p.multirangeOID,
			Name:       p.name,
			TextDecode: decodeMultirangeText(rangeCodec.TextDecode),
		}
		if rangeCodec.BinaryDecode != nil {
			elemBinary := lookupRangeElemBinary(r, p.rangeOID)
			if elemBinary != nil {
				c.BinaryDecode = decodeMultirangeBinary(elemBinary)
			}
		}
		r.Register(c)
	}
}

// lookupRangeElemBinary recovers the element binary decoder a range codec
// was built from, by re-deriving it from the range OID's known element
// OID; multirange binary decoding needs to decode each contained range
// with the same per-bound decoder the range codec itself uses.
func lookupRangeElemBinary(r *Registry, rangeOID uint32) BinaryDecodeFunc {
	elemOID, ok := rangeElementOID(rangeOID)
	if !ok {
		return nil
	}
	elem := r.Lookup(elemOID)
	if elem == nil {
		return nil
	}
	return elem.BinaryDecode
}

func rangeElementOID(rangeOID uint32) (uint32, bool) {
	switch rangeOID {
	case Int4RangeOID:
		return Int4OID, true
	case Int8RangeOID:
		return Int8OID, true
	case NumRangeOID:
		return NumericOID, true
	case DateRangeOID:
		return DateOID, true
	case TimestampRangeOID:
		return TimestampOID, true
	case TimestampTzRangeOID:
		return TimestampTzOID, true
	default:
		return 0, false
	}
}

// decodeMultirangeBinary parses PostgreSQL's multirange binary layout: an
// i32 range count, then each range's length-prefixed binary payload.
func decodeMultirangeBinary(elem BinaryDecodeFunc) BinaryDecodeFunc {
	return func(src []byte) (any, error) {
		if len(src) < 4 {
			return nil, &DecodeError{Format: 1, Reason: "multirange count truncated"}
		}
		rest, n := pgio.NextInt32(src)
		ranges := make([]Range, n)
		for i := 0; i < int(n); i++ {
			if len(rest) < 4 {
				return nil, &DecodeError{Format: 1, Reason: "multirange element length truncated"}
			}
			var l int32
			rest, l = pgio.NextInt32(rest)
			if l < 0 || len(rest) < int(l) {
				return nil, &DecodeError{Format: 1, Reason: "multirange element truncated"}
			}
			rng, _, err := decodeRangeBinaryPrefix(rest[:l], elem)
			if err != nil {
				return nil, err
			}
			ranges[i] = rng
			rest = rest[l:]
		}
		return ranges, nil
	}
}

// decodeMultirangeText parses `{range1,range2,...}`, splitting on commas
// that fall outside any bracketed range.
func decodeMultirangeText(rangeDecode TextDecodeFunc) TextDecodeFunc {
	return func(src []byte) (any, error) {
		s := string(src)
		if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
			return nil, &DecodeError{Reason: "invalid multirange text"}
		}
		body := s[1 : len(s)-1]
		var ranges []Range
		depth := 0
		start := 0
		for i := 0; i < len(body); i++ {
			switch body[i] {
			case '[', '(':
				depth++
			case ']', ')':
				depth--
			case ',':
				if depth == 0 {
					v, err := rangeDecode([]byte(body[start:i]))
					if err != nil {
						return nil, err
					}
					ranges = append(ranges, v.(Range))
					start = i + 1
				}
			}
		}
		if start < len(body) {
			v, err := rangeDecode([]byte(body[start:]))
			if err != nil {
				return nil, err
			}
			ranges = append(ranges, v.(Range))
		}
		return ranges, nil
	}
}
