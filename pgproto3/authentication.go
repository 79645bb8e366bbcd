package pgproto3

import (
	"fmt"

	"github.com/blenq/pagio/pgio"
)

// Authentication request type codes, carried in the first 4 bytes of an
// Authentication message body.
const (
	AuthTypeOk                = 0
	AuthTypeCleartextPassword = 3
	AuthTypeMD5Password       = 5
	AuthTypeSASL              = 10
	AuthTypeSASLContinue      = 11
	AuthTypeSASLFinal         = 12
)

// Authentication represents every backend message with tag 'R'. Which
// fields are populated depends on Type.
type Authentication struct {
	Type uint32

	Salt [4]byte // AuthTypeMD5Password

	SASLAuthMechanisms []string // AuthTypeSASL
	SASLData           []byte   // AuthTypeSASLContinue, AuthTypeSASLFinal
}

func (*Authentication) Backend() {}

// Decode implements BackendMessage.
func (dst *Authentication) Decode(src []byte) error {
	if len(src) < 4 {
		return fmt.Errorf("authentication message too short: %d", len(src))
	}

	rest, typ := pgio.NextUint32(src)
	*dst = Authentication{Type: typ}

	switch dst.Type {
	case AuthTypeOk, AuthTypeCleartextPassword:
	case AuthTypeMD5Password:
		if len(rest) < 4 {
			return fmt.Errorf("authentication md5 salt too short: %d", len(rest))
		}
		copy(dst.Salt[:], rest[:4])
	case AuthTypeSASL:
		for len(rest) > 1 {
			var mech string
			var err error
			rest, mech, err = pgio.NextCString(rest)
			if err != nil {
				return err
			}
			dst.SASLAuthMechanisms = append(dst.SASLAuthMechanisms, mech)
		}
	case AuthTypeSASLContinue, AuthTypeSASLFinal:
		dst.SASLData = append([]byte(nil), rest...)
	default:
		return fmt.Errorf("unknown authentication type: %d", dst.Type)
	}

	return nil
}

// PasswordMessage carries one of three payloads under the shared tag 'p':
// a cleartext or MD5-hashed password in response to
// AuthTypeCleartextPassword/AuthTypeMD5Password (Password set, Mechanism
// empty); a SASL initial response naming the chosen mechanism (Mechanism
// set); or a bare SASL response to a server challenge (neither set,
// SASLData carries the raw message).
type PasswordMessage struct {
	Password  string
	Mechanism string
	SASLData  []byte
}

func (*PasswordMessage) Frontend() {}

// Encode implements FrontendMessage.
func (msg *PasswordMessage) Encode(buf []byte) []byte {
	buf = append(buf, tagPassword)
	sp := len(buf)
	buf = pgio.AppendInt32(buf, -1)

	switch {
	case msg.Mechanism != "":
		buf = pgio.AppendCString(buf, msg.Mechanism)
		if msg.SASLData == nil {
			buf = pgio.AppendInt32(buf, -1)
		} else {
			buf = pgio.AppendInt32(buf, int32(len(msg.SASLData)))
			buf = append(buf, msg.SASLData...)
		}
	case msg.SASLData != nil:
		buf = append(buf, msg.SASLData...)
	default:
		buf = pgio.AppendCString(buf, msg.Password)
	}

	pgio.SetInt32(buf[sp:], int32(len(buf)-sp))
	return buf
}
