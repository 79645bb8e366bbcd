package pgtype

import (
	"fmt"

	"github.com/blenq/pagio/pgio"
)

// maxArrayDims is the nesting depth the text array parser accepts before
// failing with DecodeError (§4.2, testable property 6): depth 6 parses,
// depth 7 fails.
const maxArrayDims = 6

// registerArrayCodecs installs the array codecs whose element decoder is
// already registered under a scalar OID, pairing each *ArrayOID with its
// element OID.
func registerArrayCodecs(r *Registry) {
	type arrayOf struct {
		arrayOID uint32
		elemOID  uint32
		name     string
	}
	pairs := []arrayOf{
		{BoolArrayOID, BoolOID, "bool[]"},
		{Int2ArrayOID, Int2OID, "int2[]"},
		{Int4ArrayOID, Int4OID, "int4[]"},
		{Float4ArrayOID, Float4OID, "float4[]"},
		{Float8ArrayOID, Float8OID, "float8[]"},
		{TextArrayOID, TextOID, "text[]"},
		{InetArrayOID, InetOID, "inet[]"},
		{CidrArrayOID, CidrOID, "cidr[]"},
		{DateArrayOID, DateOID, "date[]"},
		{TimeArrayOID, TimeOID, "time[]"},
		{TimestampArrayOID, TimestampOID, "timestamp[]"},
		{TimestampTzArrayOID, TimestampTzOID, "timestamptz[]"},
		{IntervalArrayOID, IntervalOID, "interval[]"},
		{NumericArrayOID, NumericOID, "numeric[]"},
		{UUIDArrayOID, UUIDOID, "uuid[]"},
	}
	for _, p := range pairs {
		elem := r.Lookup(p.elemOID)
		if elem == nil {
			panic(fmt.Sprintf("pgtype: array element codec for OID %d not registered before array codecs", p.elemOID))
		}
		p := p
		c := &Codec{
			OID:        p.arrayOID,
			Name:       p.name,
			TextDecode: decodeArrayText(elem.TextDecode, ','),
		}
		if elem.BinaryDecode != nil {
			c.BinaryDecode = decodeArrayBinary(p.elemOID, elem.BinaryDecode)
		}
		r.Register(c)
	}
}

// decodeArrayText parses PostgreSQL's `{...}` array literal grammar: curly
// braces delimit each dimension, delim separates sibling elements (comma
// for every type this core registers; box-style arrays would pass ';'),
// an unquoted, case-sensitive `NULL` denotes a null element, and quoted
// elements use `\`- and doubled-`""`-escaping. elem decodes one leaf value.
func decodeArrayText(elem TextDecodeFunc, delim byte) TextDecodeFunc {
	return func(src []byte) (any, error) {
		p := &arrayTextParser{src: src, elem: elem, delim: delim}
		v, err := p.parseLevel(0)
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos != len(p.src) {
			return nil, &DecodeError{Reason: "trailing data after array literal"}
		}
		return v, nil
	}
}

type arrayTextParser struct {
	src   []byte
	pos   int
	elem  TextDecodeFunc
	delim byte
}

func (p *arrayTextParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *arrayTextParser) parseLevel(depth int) (any, error) {
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != '{' {
		return nil, &DecodeError{Reason: "expected '{' in array literal"}
	}
	if depth >= maxArrayDims {
		return nil, &DecodeError{Reason: fmt.Sprintf("array nesting exceeds maximum depth %d", maxArrayDims)}
	}
	p.pos++ // consume '{'

	elements := make([]any, 0)
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '}' {
		p.pos++
		return elements, nil
	}

	for {
		p.skipSpace()
		var v any
		var err error
		switch {
		case p.pos < len(p.src) && p.src[p.pos] == '{':
			v, err = p.parseLevel(depth + 1)
		case p.pos < len(p.src) && p.src[p.pos] == '"':
			v, err = p.parseQuoted()
		default:
			v, err = p.parseUnquoted()
		}
		if err != nil {
			return nil, err
		}
		elements = append(elements, v)

		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, &DecodeError{Reason: "unterminated array literal"}
		}
		switch p.src[p.pos] {
		case p.delim:
			p.pos++
			continue
		case '}':
			p.pos++
			return elements, nil
		default:
			return nil, &DecodeError{Reason: fmt.Sprintf("unexpected byte %q in array literal", p.src[p.pos])}
		}
	}
}

func (p *arrayTextParser) parseQuoted() (any, error) {
	p.pos++ // consume opening quote
	var buf []byte
	for {
		if p.pos >= len(p.src) {
			return nil, &DecodeError{Reason: "unterminated quoted array element"}
		}
		c := p.src[p.pos]
		switch c {
		case '"':
			// A doubled "" is itself an escape for a literal quote.
			if p.pos+1 < len(p.src) && p.src[p.pos+1] == '"' {
				buf = append(buf, '"')
				p.pos += 2
				continue
			}
			p.pos++
			return p.decodeElem(buf)
		case '\\':
			if p.pos+1 >= len(p.src) {
				return nil, &DecodeError{Reason: "truncated escape in array element"}
			}
			buf = append(buf, p.src[p.pos+1])
			p.pos += 2
		default:
			buf = append(buf, c)
			p.pos++
		}
	}
}

func (p *arrayTextParser) parseUnquoted() (any, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == p.delim || c == '}' || c == ' ' || c == '\t' {
			break
		}
		p.pos++
	}
	tok := p.src[start:p.pos]
	if string(tok) == "NULL" {
		return nil, nil
	}
	return p.decodeElem(tok)
}

func (p *arrayTextParser) decodeElem(tok []byte) (any, error) {
	v, err := p.elem(tok)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// decodeArrayBinary parses the binary array header: 12 bytes of (ndims
// uint32, hasnulls-flag int32, element-OID uint32), then ndims pairs of
// (dim int32, lowerbound int32, ignored), then the row-major values, each
// i32-length-prefixed (-1 for NULL). elementOID must match the header's
// element OID.
func decodeArrayBinary(elementOID uint32, elem BinaryDecodeFunc) BinaryDecodeFunc {
	return func(src []byte) (any, error) {
		if len(src) < 12 {
			return nil, &DecodeError{Format: 1, Reason: "array header truncated"}
		}
		rest, ndims := pgio.NextUint32(src)
		rest, _ = pgio.NextInt32(rest) // hasnulls flag: redundant with length == -1 markers
		rest, oid := pgio.NextUint32(rest)
		if oid != elementOID {
			return nil, &DecodeError{Format: 1, Reason: fmt.Sprintf("array element OID %d does not match registered decoder for OID %d", oid, elementOID)}
		}
		if ndims > maxArrayDims {
			return nil, &DecodeError{Format: 1, Reason: fmt.Sprintf("array nesting exceeds maximum depth %d", maxArrayDims)}
		}
		if ndims == 0 {
			return []any{}, nil
		}

		dims := make([]int32, ndims)
		for i := range dims {
			if len(rest) < 8 {
				return nil, &DecodeError{Format: 1, Reason: "array dimension header truncated"}
			}
			rest, dims[i] = pgio.NextInt32(rest)
			rest, _ = pgio.NextInt32(rest) // lower bound: ignored, arrays always decode 0-indexed
		}

		v, _, err := decodeArrayValues(rest, dims, elem)
		return v, err
	}
}

// decodeArrayValues consumes the row-major value stream for the remaining
// dims, returning the nested []any for this level and the unconsumed tail.
func decodeArrayValues(src []byte, dims []int32, elem BinaryDecodeFunc) (any, []byte, error) {
	n := int(dims[0])
	out := make([]any, n)
	for i := 0; i < n; i++ {
		if len(dims) > 1 {
			v, rest, err := decodeArrayValues(src, dims[1:], elem)
			if err != nil {
				return nil, nil, err
			}
			out[i] = v
			src = rest
			continue
		}
		if len(src) < 4 {
			return nil, nil, &DecodeError{Format: 1, Reason: "array value length truncated"}
		}
		var l int32
		src, l = pgio.NextInt32(src)
		if l < 0 {
			out[i] = nil
			continue
		}
		if len(src) < int(l) {
			return nil, nil, &DecodeError{Format: 1, Reason: "array value truncated"}
		}
		v, err := elem(src[:l])
		if err != nil {
			return nil, nil, err
		}
		out[i] = v
		src = src[l:]
	}
	return out, src, nil
}
