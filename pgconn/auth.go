package pgconn

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/blenq/pagio/pgproto3"
)

// ScramExchanger drives one SASL SCRAM-SHA-256 exchange. The engine never
// constructs one itself — scram.Client (package scram) is the default,
// concrete implementation a caller wires in via
// StartupConfig.NewScramExchanger — keeping "SASL/SCRAM exchange proper"
// an external collaborator per §1's scope boundary.
type ScramExchanger interface {
	// InitialResponse returns the client-first-message payload sent as
	// the SASL initial response.
	InitialResponse() []byte
	// Continue consumes the server-first message and returns the
	// client-final message to send back.
	Continue(serverFirstMessage []byte) ([]byte, error)
	// Final verifies the server-final message.
	Final(serverFinalMessage []byte) error
}

// handleAuthentication consumes one Authentication message and returns
// the response message to send, if any. nil, nil means the message needs
// no response (AuthenticationOk).
func (e *Engine) handleAuthentication(msg *pgproto3.Authentication) (pgproto3.FrontendMessage, error) {
	switch msg.Type {
	case pgproto3.AuthTypeOk:
		return nil, nil

	case pgproto3.AuthTypeCleartextPassword:
		return &pgproto3.PasswordMessage{Password: e.config.Password}, nil

	case pgproto3.AuthTypeMD5Password:
		digest := "md5" + hexMD5(hexMD5(e.config.Password+e.config.User)+string(msg.Salt[:]))
		return &pgproto3.PasswordMessage{Password: digest}, nil

	case pgproto3.AuthTypeSASL:
		if !hasMechanism(msg.SASLAuthMechanisms, "SCRAM-SHA-256") {
			return nil, fmt.Errorf("pgconn: server does not offer a supported SASL mechanism (got %v)", msg.SASLAuthMechanisms)
		}
		if e.config.NewScramExchanger == nil {
			return nil, fmt.Errorf("pgconn: server requested SASL but StartupConfig.NewScramExchanger is nil")
		}
		e.scram = e.config.NewScramExchanger(e.config.Password)
		return &pgproto3.PasswordMessage{Mechanism: "SCRAM-SHA-256", SASLData: e.scram.InitialResponse()}, nil

	case pgproto3.AuthTypeSASLContinue:
		if e.scram == nil {
			return nil, fmt.Errorf("pgconn: AuthenticationSASLContinue received without a prior AuthenticationSASL")
		}
		resp, err := e.scram.Continue(msg.SASLData)
		if err != nil {
			return nil, err
		}
		return &pgproto3.PasswordMessage{SASLData: resp}, nil

	case pgproto3.AuthTypeSASLFinal:
		if e.scram == nil {
			return nil, fmt.Errorf("pgconn: AuthenticationSASLFinal received without a prior AuthenticationSASL")
		}
		if err := e.scram.Final(msg.SASLData); err != nil {
			return nil, err
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("pgconn: unsupported authentication type %d", msg.Type)
	}
}

func hasMechanism(mechanisms []string, want string) bool {
	for _, m := range mechanisms {
		if m == want {
			return true
		}
	}
	return false
}

func hexMD5(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
