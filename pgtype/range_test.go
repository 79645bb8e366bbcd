package pgtype

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blenq/pagio/pgio"
)

func TestDecodeRangeTextEmpty(t *testing.T) {
	r := NewRegistry()
	c := r.Lookup(Int4RangeOID)

	v, err := c.TextDecode([]byte("empty"))
	require.NoError(t, err)
	require.Equal(t, Range{IsEmpty: true}, v)
}

func TestDecodeRangeTextInclusiveExclusive(t *testing.T) {
	r := NewRegistry()
	c := r.Lookup(Int4RangeOID)

	v, err := c.TextDecode([]byte("[3,8)"))
	require.NoError(t, err)
	require.Equal(t, Range{
		Lower: int32(3), Upper: int32(8),
		LowerInclusive: true, UpperInclusive: false,
	}, v)
}

func TestDecodeRangeTextInfiniteBounds(t *testing.T) {
	r := NewRegistry()
	c := r.Lookup(Int4RangeOID)

	v, err := c.TextDecode([]byte("(,10]"))
	require.NoError(t, err)
	require.Equal(t, Range{
		Upper: int32(10), UpperInclusive: true,
		LowerInfinite: true,
	}, v)
}

func TestDecodeRangeBinaryInclusiveBothBounds(t *testing.T) {
	r := NewRegistry()
	c := r.Lookup(Int4RangeOID)
	require.NotNil(t, c.BinaryDecode)

	buf := []byte{rangeLowerInclFlag | rangeUpperInclFlag}
	buf = pgio.AppendInt32(buf, 4)
	buf = pgio.AppendInt32(buf, 3)
	buf = pgio.AppendInt32(buf, 4)
	buf = pgio.AppendInt32(buf, 8)

	v, err := c.BinaryDecode(buf)
	require.NoError(t, err)
	require.Equal(t, Range{
		Lower: int32(3), Upper: int32(8),
		LowerInclusive: true, UpperInclusive: true,
	}, v)
}

func TestDecodeRangeBinaryEmpty(t *testing.T) {
	r := NewRegistry()
	c := r.Lookup(Int4RangeOID)

	v, err := c.BinaryDecode([]byte{rangeEmptyFlag})
	require.NoError(t, err)
	require.Equal(t, Range{IsEmpty: true}, v)
}

func TestDecodeRangeBinaryInfiniteUpper(t *testing.T) {
	r := NewRegistry()
	c := r.Lookup(Int4RangeOID)

	buf := []byte{rangeLowerInclFlag | rangeUpperInfiniteFlag}
	buf = pgio.AppendInt32(buf, 4)
	buf = pgio.AppendInt32(buf, 5)

	v, err := c.BinaryDecode(buf)
	require.NoError(t, err)
	require.Equal(t, Range{
		Lower: int32(5), LowerInclusive: true,
		UpperInfinite: true,
	}, v)
}

func TestDecodeMultirangeText(t *testing.T) {
	r := NewRegistry()
	c := r.Lookup(Int4MultirangeOID)
	require.NotNil(t, c)

	v, err := c.TextDecode([]byte("{[1,3),[5,9)}"))
	require.NoError(t, err)
	require.Equal(t, []Range{
		{Lower: int32(1), Upper: int32(3), LowerInclusive: true},
		{Lower: int32(5), Upper: int32(9), LowerInclusive: true},
	}, v)
}

func TestDecodeMultirangeBinary(t *testing.T) {
	r := NewRegistry()
	c := r.Lookup(Int4MultirangeOID)
	require.NotNil(t, c.BinaryDecode)

	rng1 := []byte{rangeLowerInclFlag | rangeUpperInclFlag}
	rng1 = pgio.AppendInt32(rng1, 4)
	rng1 = pgio.AppendInt32(rng1, 1)
	rng1 = pgio.AppendInt32(rng1, 4)
	rng1 = pgio.AppendInt32(rng1, 2)

	buf := pgio.AppendInt32(nil, 1) // one range
	buf = pgio.AppendInt32(buf, int32(len(rng1)))
	buf = append(buf, rng1...)

	v, err := c.BinaryDecode(buf)
	require.NoError(t, err)
	require.Equal(t, []Range{
		{Lower: int32(1), Upper: int32(2), LowerInclusive: true, UpperInclusive: true},
	}, v)
}
