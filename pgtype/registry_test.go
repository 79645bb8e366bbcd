package pgtype

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// customParam has no registered encoder, exercising EncodeParameter's
// "other" fallback rows.
type customParam struct{ label string }

func (c customParam) String() string { return "custom:" + c.label }

func TestEncodeParameterUnclaimedFallsBackToUnknownOID(t *testing.T) {
	r := NewRegistry()

	oid, format, payload, err := r.EncodeParameter(customParam{label: "a"}, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(UnknownOID), oid)
	require.EqualValues(t, 0, format)
	require.Equal(t, []byte("custom:a"), payload)
}

func TestEncodeParameterUnclaimedWithHintOID(t *testing.T) {
	r := NewRegistry()

	oid, format, payload, err := r.EncodeParameter(customParam{label: "b"}, TextOID)
	require.NoError(t, err)
	require.Equal(t, TextOID, oid)
	require.EqualValues(t, 0, format)
	require.Equal(t, []byte("custom:b"), payload)
}

// TestEncodeParameterWithOIDWrapper exercises the pgtype.WithOID path that
// BuildExecute relies on to thread a per-parameter OID hint through its
// flat []any params slice, since EncodeParameter's hintOID is otherwise
// always 0 at that call site.
func TestEncodeParameterWithOIDWrapper(t *testing.T) {
	r := NewRegistry()

	oid, format, payload, err := r.EncodeParameter(WithOID{Value: customParam{label: "c"}, OID: JSONOID}, 0)
	require.NoError(t, err)
	require.Equal(t, JSONOID, oid)
	require.EqualValues(t, 0, format)
	require.Equal(t, []byte("custom:c"), payload)
}

// A WithOID wrapping a value an encoder does claim still gets encoded
// normally; the hint only matters once every encoder declines.
func TestEncodeParameterWithOIDStillTriesEncoders(t *testing.T) {
	r := NewRegistry()

	oid, format, payload, err := r.EncodeParameter(WithOID{Value: int32(7), OID: TextOID}, 0)
	require.NoError(t, err)
	require.Equal(t, Int4OID, oid)
	require.EqualValues(t, 1, format)
	require.Equal(t, []byte{0, 0, 0, 7}, payload)
}

func TestEncodeParameterNil(t *testing.T) {
	r := NewRegistry()

	oid, format, payload, err := r.EncodeParameter(nil, 0)
	require.NoError(t, err)
	require.Zero(t, oid)
	require.EqualValues(t, 1, format)
	require.Nil(t, payload)
}
