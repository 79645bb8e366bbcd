package pgtype

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/blenq/pagio/pgio"
)

func registerNumericCodec(r *Registry) {
	r.Register(&Codec{OID: NumericOID, Name: "numeric", TextDecode: decodeNumericText, BinaryDecode: decodeNumericBinary})
}

const (
	numericNaN = 0xC000
	numericPos = 0x0000
	numericNeg = 0x4000
	numericPInf = 0xD000
	numericNInf = 0xF000
)

// numericNaNText, numericPInfText and numericNInfText are PostgreSQL's own
// textual spellings for the three non-finite numeric values; returned
// verbatim since decimal.Decimal cannot represent them.
const (
	numericNaNText  = "NaN"
	numericPInfText = "Infinity"
	numericNInfText = "-Infinity"
)

func decodeNumericText(src []byte) (any, error) {
	s := string(src)
	switch s {
	case numericNaNText, numericPInfText, numericNInfText:
		return s, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, &DecodeError{OID: NumericOID, Reason: "invalid numeric text", Err: err}
	}
	return d, nil
}

// decodeNumericBinary parses PostgreSQL's base-10000 digit layout: a
// header of (ndigits uint16, weight int16, sign uint16, dscale uint16)
// followed by ndigits big-endian uint16 base-10000 digits. NaN and
// ±infinity (sign codes 0xC000/0xD000/0xF000) carry no digits and decode
// to their PostgreSQL textual spelling rather than a decimal.Decimal,
// since decimal.Decimal has no representation for them.
func decodeNumericBinary(src []byte) (any, error) {
	if len(src) < 8 {
		return nil, &DecodeError{OID: NumericOID, Format: 1, Reason: "numeric header truncated"}
	}
	rest, ndigits := pgio.NextUint16(src)
	rest, weight := pgio.NextInt16(rest)
	rest, sign := pgio.NextUint16(rest)
	rest, dscale := pgio.NextUint16(rest)

	switch sign {
	case numericNaN:
		return numericNaNText, nil
	case numericPInf:
		return numericPInfText, nil
	case numericNInf:
		return numericNInfText, nil
	case numericPos, numericNeg:
	default:
		return nil, &DecodeError{OID: NumericOID, Format: 1, Reason: "invalid numeric sign code"}
	}

	if len(rest) < int(ndigits)*2 {
		return nil, &DecodeError{OID: NumericOID, Format: 1, Reason: "numeric digits truncated"}
	}

	coeff := new(big.Int)
	for i := 0; i < int(ndigits); i++ {
		var d uint16
		rest, d = pgio.NextUint16(rest)
		if d > 9999 {
			return nil, &DecodeError{OID: NumericOID, Format: 1, Reason: "numeric digit out of range"}
		}
		coeff.Mul(coeff, big.NewInt(10000))
		coeff.Add(coeff, big.NewInt(int64(d)))
	}
	if sign == numericNeg {
		coeff.Neg(coeff)
	}

	// The digits represent coeff * 10000^(weight-ndigits+1); convert that
	// base-10000 exponent to decimal.Decimal's base-10 exponent, then clip
	// it to -dscale when the digit layout implies more fractional digits
	// than dscale declares (the trailing ones are zero padding out to the
	// base-10000 group boundary, never significant digits).
	exp := (int32(weight) - int32(ndigits) + 1) * 4
	if clipExp := -int32(dscale); exp < clipExp {
		shift := clipExp - exp
		coeff.Quo(coeff, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(shift)), nil))
		exp = clipExp
	}

	return decimal.NewFromBigInt(coeff, exp), nil
}

func registerNumericEncoder(r *Registry) {
	r.RegisterEncoder(encodeNumeric)
}

// encodeNumeric builds the binary numeric wire format directly from a
// decimal.Decimal's coefficient and exponent, splitting the decimal-digit
// sequence into base-10000 groups aligned on the decimal point.
func encodeNumeric(val any) (oid uint32, format int16, payload []byte, ok bool, err error) {
	d, ok := val.(decimal.Decimal)
	if !ok {
		return 0, 0, nil, false, nil
	}

	coeff := d.Coefficient()
	exp := d.Exponent()

	negative := coeff.Sign() < 0
	sign := int16(numericPos)
	if negative {
		sign = numericNeg
		coeff = new(big.Int).Neg(coeff)
	}

	digitStr := coeff.String()
	if coeff.Sign() == 0 {
		digitStr = ""
	}
	ndecDigits := len(digitStr)

	// pg_scale: digits after the decimal point; never negative.
	scale := int16(0)
	if exp < 0 {
		scale = int16(-exp)
	}

	// pg_weight: base-10000 exponent of the first base-10000 digit (the
	// number of integer-part groups minus one), following the same
	// alignment the server uses.
	q, r := divmod(ndecDigits+int(exp), 4)
	weight := int16(q)
	if r != 0 {
		weight++
	}
	weight--

	var pgDigits []uint16
	if ndecDigits > 0 {
		lead := 0
		if r != 0 {
			lead = 4 - r
		}
		digit := 0
		i := lead
		for _, c := range digitStr {
			digit = digit*10 + int(c-'0')
			i++
			if i == 4 {
				pgDigits = append(pgDigits, uint16(digit))
				digit = 0
				i = 0
			}
		}
		if i != 0 {
			for ; i < 4; i++ {
				digit *= 10
			}
			pgDigits = append(pgDigits, uint16(digit))
		}
	}

	buf := pgio.AppendUint16(nil, uint16(len(pgDigits)))
	buf = pgio.AppendInt16(buf, weight)
	buf = pgio.AppendInt16(buf, sign)
	buf = pgio.AppendUint16(buf, uint16(scale))
	for _, d := range pgDigits {
		buf = pgio.AppendUint16(buf, d)
	}
	return NumericOID, 1, buf, true, nil
}

// divmod returns (a/b, a%b) with Python-style flooring for non-negative b,
// matching the original implementation's own modulo arithmetic.
func divmod(a, b int) (int, int) {
	q := a / b
	r := a % b
	if r < 0 {
		q--
		r += b
	}
	return q, r
}
