package pgtype

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/blenq/pagio/pgio"
)

// buildNumericBinary encodes PostgreSQL's base-10000 numeric wire format
// directly, mirroring decodeNumericBinary's own header layout.
func buildNumericBinary(sign uint16, weight int16, dscale uint16, digits []uint16) []byte {
	buf := pgio.AppendUint16(nil, uint16(len(digits)))
	buf = pgio.AppendInt16(buf, weight)
	buf = pgio.AppendUint16(buf, sign)
	buf = pgio.AppendUint16(buf, dscale)
	for _, d := range digits {
		buf = pgio.AppendUint16(buf, d)
	}
	return buf
}

// TestNumericBinaryRoundTrip exercises S7: encoding 12345.67 produces the
// spec's exact header and digit layout, and decoding that payload back
// yields 12345.67.
func TestNumericBinaryRoundTrip(t *testing.T) {
	r := NewRegistry()

	oid, format, payload, err := r.EncodeParameter(decimal.NewFromFloat(12345.67), NumericOID)
	require.NoError(t, err)
	require.Equal(t, NumericOID, oid)
	require.EqualValues(t, 1, format)
	require.Equal(t, buildNumericBinary(numericPos, 1, 2, []uint16{1, 2345, 6700}), payload)

	c := r.Lookup(NumericOID)
	require.NotNil(t, c)
	v, err := c.BinaryDecode(payload)
	require.NoError(t, err)
	require.True(t, decimal.NewFromFloat(12345.67).Equal(v.(decimal.Decimal)))
}

// TestDecodeNumericBinaryClipsExponentToDscale covers the spec's dscale
// clipping rule directly: ndigits=3, weight=1, digits=[1,2345,6700],
// dscale=2 decode to the exponent -2 form (12345.67), not the -4 form the
// raw digit layout alone would imply.
func TestDecodeNumericBinaryClipsExponentToDscale(t *testing.T) {
	r := NewRegistry()
	c := r.Lookup(NumericOID)
	require.NotNil(t, c)

	payload := buildNumericBinary(numericPos, 1, 2, []uint16{1, 2345, 6700})
	v, err := c.BinaryDecode(payload)
	require.NoError(t, err)

	d := v.(decimal.Decimal)
	require.EqualValues(t, -2, d.Exponent())
	require.Equal(t, "12345.67", d.String())
}

func TestDecodeNumericBinaryNegative(t *testing.T) {
	r := NewRegistry()
	c := r.Lookup(NumericOID)
	require.NotNil(t, c)

	payload := buildNumericBinary(numericNeg, 0, 0, []uint16{42})
	v, err := c.BinaryDecode(payload)
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(-42).Equal(v.(decimal.Decimal)))
}

// TestDecodeNumericBinaryNaNAndInfinity exercises testable property 7:
// NaN and ±infinity decode to their PostgreSQL textual spelling rather
// than failing, since decimal.Decimal cannot represent them.
func TestDecodeNumericBinaryNaNAndInfinity(t *testing.T) {
	r := NewRegistry()
	c := r.Lookup(NumericOID)
	require.NotNil(t, c)

	v, err := c.BinaryDecode(buildNumericBinary(numericNaN, 0, 0, nil))
	require.NoError(t, err)
	require.Equal(t, "NaN", v)

	v, err = c.BinaryDecode(buildNumericBinary(numericPInf, 0, 0, nil))
	require.NoError(t, err)
	require.Equal(t, "Infinity", v)

	v, err = c.BinaryDecode(buildNumericBinary(numericNInf, 0, 0, nil))
	require.NoError(t, err)
	require.Equal(t, "-Infinity", v)
}

func TestDecodeNumericBinaryInvalidSign(t *testing.T) {
	r := NewRegistry()
	c := r.Lookup(NumericOID)
	require.NotNil(t, c)

	_, err := c.BinaryDecode(buildNumericBinary(0x1234, 0, 0, nil))
	require.Error(t, err)
	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
}

func TestDecodeNumericBinaryDigitOutOfRange(t *testing.T) {
	r := NewRegistry()
	c := r.Lookup(NumericOID)
	require.NotNil(t, c)

	_, err := c.BinaryDecode(buildNumericBinary(numericPos, 0, 0, []uint16{10000}))
	require.Error(t, err)
}

func TestDecodeNumericTextFinite(t *testing.T) {
	r := NewRegistry()
	c := r.Lookup(NumericOID)
	require.NotNil(t, c)

	v, err := c.TextDecode([]byte("12345.67"))
	require.NoError(t, err)
	require.True(t, decimal.NewFromFloat(12345.67).Equal(v.(decimal.Decimal)))
}

func TestDecodeNumericTextNaNAndInfinity(t *testing.T) {
	r := NewRegistry()
	c := r.Lookup(NumericOID)
	require.NotNil(t, c)

	for _, s := range []string{"NaN", "Infinity", "-Infinity"} {
		v, err := c.TextDecode([]byte(s))
		require.NoError(t, err)
		require.Equal(t, s, v)
	}
}

func TestDecodeNumericTextInvalid(t *testing.T) {
	r := NewRegistry()
	c := r.Lookup(NumericOID)
	require.NotNil(t, c)

	_, err := c.TextDecode([]byte("not-a-number"))
	require.Error(t, err)
}
