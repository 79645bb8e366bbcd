package pgtype

import (
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeInetTextBareAddress(t *testing.T) {
	r := NewRegistry()
	c := r.Lookup(InetOID)

	v, err := c.TextDecode([]byte("192.168.1.5"))
	require.NoError(t, err)
	prefix, ok := v.(netip.Prefix)
	require.True(t, ok)
	require.Equal(t, "192.168.1.5/32", prefix.String())
}

func TestDecodeInetTextWithMask(t *testing.T) {
	r := NewRegistry()
	c := r.Lookup(CidrOID)

	v, err := c.TextDecode([]byte("10.0.0.0/24"))
	require.NoError(t, err)
	prefix, ok := v.(netip.Prefix)
	require.True(t, ok)
	require.Equal(t, 24, prefix.Bits())
}

func TestDecodeInetTextInvalid(t *testing.T) {
	r := NewRegistry()
	c := r.Lookup(InetOID)

	_, err := c.TextDecode([]byte("not-an-address"))
	require.Error(t, err)
}

func TestEncodeNetIP(t *testing.T) {
	r := NewRegistry()
	ip := net.ParseIP("203.0.113.7")

	oid, format, payload, err := r.EncodeParameter(ip, 0)
	require.NoError(t, err)
	require.Equal(t, InetOID, oid)
	require.EqualValues(t, 0, format)
	require.Equal(t, "203.0.113.7", string(payload))
}

func TestEncodeNetipAddr(t *testing.T) {
	r := NewRegistry()
	addr := netip.MustParseAddr("2001:db8::1")

	oid, _, payload, err := r.EncodeParameter(addr, 0)
	require.NoError(t, err)
	require.Equal(t, InetOID, oid)
	require.Equal(t, "2001:db8::1", string(payload))
}

func TestEncodeIPNet(t *testing.T) {
	r := NewRegistry()
	_, ipNet, err := net.ParseCIDR("172.16.0.0/16")
	require.NoError(t, err)

	oid, _, payload, err := r.EncodeParameter(ipNet, 0)
	require.NoError(t, err)
	require.Equal(t, CidrOID, oid)
	require.Equal(t, "172.16.0.0/16", string(payload))
}

func TestEncodeNetipPrefix(t *testing.T) {
	r := NewRegistry()
	prefix := netip.MustParsePrefix("10.1.0.0/24")

	oid, _, payload, err := r.EncodeParameter(prefix, 0)
	require.NoError(t, err)
	require.Equal(t, CidrOID, oid)
	require.Equal(t, "10.1.0.0/24", string(payload))
}
