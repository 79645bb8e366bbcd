package pgtype

import (
	"net"
	"net/netip"
)

// registerNetCodecs installs the inet/cidr codecs. PostgreSQL sends both
// in text format by default; the binary layout (family/bits/is_cidr/addr)
// round-trips the same net.IPNet shape but is not needed until a caller
// asks for binary results on these OIDs, so only text is wired for now.
func registerNetCodecs(r *Registry) {
	r.Register(&Codec{OID: InetOID, Name: "inet", TextDecode: decodeInetText})
	r.Register(&Codec{OID: CidrOID, Name: "cidr", TextDecode: decodeInetText})
	r.RegisterEncoder(encodeNet)
}

func decodeInetText(src []byte) (any, error) {
	prefix, err := netip.ParsePrefix(string(src))
	if err != nil {
		addr, aerr := netip.ParseAddr(string(src))
		if aerr != nil {
			return nil, &DecodeError{OID: InetOID, Reason: "invalid inet/cidr text", Err: err}
		}
		return netip.PrefixFrom(addr, addr.BitLen()), nil
	}
	return prefix, nil
}

// encodeNet implements the "ipv4/ipv6 address/interface" and
// "ipv4/ipv6 network" rows of §4.5's table: net.IP and netip.Addr encode
// as a bare address under inet; net.IPNet and netip.Prefix encode as a
// network under cidr. Both use the textual, canonical-form encoding the
// spec calls for rather than the binary layout.
func encodeNet(val any) (oid uint32, format int16, payload []byte, ok bool, err error) {
	switch v := val.(type) {
	case net.IP:
		return InetOID, 0, []byte(v.String()), true, nil
	case netip.Addr:
		return InetOID, 0, []byte(v.String()), true, nil
	case *net.IPNet:
		return CidrOID, 0, []byte(v.String()), true, nil
	case netip.Prefix:
		return CidrOID, 0, []byte(v.String()), true, nil
	default:
		return 0, 0, nil, false, nil
	}
}
