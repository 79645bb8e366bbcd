package pgconn

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blenq/pagio/pgproto3"
)

func TestHandleAuthenticationOk(t *testing.T) {
	e := NewEngine(StartupConfig{})

	msg, err := e.handleAuthentication(&pgproto3.Authentication{Type: pgproto3.AuthTypeOk})
	require.NoError(t, err)
	require.Nil(t, msg)
}

func TestHandleAuthenticationCleartext(t *testing.T) {
	e := NewEngine(StartupConfig{Password: "s3kr3t"})

	msg, err := e.handleAuthentication(&pgproto3.Authentication{Type: pgproto3.AuthTypeCleartextPassword})
	require.NoError(t, err)
	pw, ok := msg.(*pgproto3.PasswordMessage)
	require.True(t, ok)
	require.Equal(t, "s3kr3t", pw.Password)
}

func TestHandleAuthenticationMD5(t *testing.T) {
	e := NewEngine(StartupConfig{User: "alice", Password: "s3kr3t"})

	var salt [4]byte
	copy(salt[:], []byte{1, 2, 3, 4})
	msg, err := e.handleAuthentication(&pgproto3.Authentication{Type: pgproto3.AuthTypeMD5Password, Salt: salt})
	require.NoError(t, err)
	pw, ok := msg.(*pgproto3.PasswordMessage)
	require.True(t, ok)
	require.Regexp(t, "^md5[0-9a-f]{32}$", pw.Password)
}

func TestHandleAuthenticationSASLNoSupportedMechanism(t *testing.T) {
	e := NewEngine(StartupConfig{Password: "s3kr3t"})

	_, err := e.handleAuthentication(&pgproto3.Authentication{
		Type:               pgproto3.AuthTypeSASL,
		SASLAuthMechanisms: []string{"SCRAM-SHA-1"},
	})
	require.Error(t, err)
}

func TestHandleAuthenticationSASLMissingExchangerFactory(t *testing.T) {
	e := NewEngine(StartupConfig{Password: "s3kr3t"})

	_, err := e.handleAuthentication(&pgproto3.Authentication{
		Type:               pgproto3.AuthTypeSASL,
		SASLAuthMechanisms: []string{"SCRAM-SHA-256"},
	})
	require.Error(t, err)
}

type fakeScramExchanger struct {
	initial      []byte
	continueResp []byte
	continueErr  error
	finalErr     error
	seenServer1  []byte
	seenServer2  []byte
}

func (f *fakeScramExchanger) InitialResponse() []byte { return f.initial }
func (f *fakeScramExchanger) Continue(serverFirst []byte) ([]byte, error) {
	f.seenServer1 = serverFirst
	return f.continueResp, f.continueErr
}
func (f *fakeScramExchanger) Final(serverFinal []byte) error {
	f.seenServer2 = serverFinal
	return f.finalErr
}

func TestHandleAuthenticationSASLFullExchange(t *testing.T) {
	fake := &fakeScramExchanger{initial: []byte("n,,n=alice,r=abc"), continueResp: []byte("c=biws,r=abc,p=xyz")}
	e := NewEngine(StartupConfig{
		Password:          "s3kr3t",
		NewScramExchanger: func(password string) ScramExchanger { return fake },
	})

	msg, err := e.handleAuthentication(&pgproto3.Authentication{
		Type:               pgproto3.AuthTypeSASL,
		SASLAuthMechanisms: []string{"SCRAM-SHA-256"},
	})
	require.NoError(t, err)
	pw := msg.(*pgproto3.PasswordMessage)
	require.Equal(t, "SCRAM-SHA-256", pw.Mechanism)
	require.Equal(t, fake.initial, pw.SASLData)

	msg, err = e.handleAuthentication(&pgproto3.Authentication{
		Type:     pgproto3.AuthTypeSASLContinue,
		SASLData: []byte("r=abc,s=salt,i=4096"),
	})
	require.NoError(t, err)
	pw = msg.(*pgproto3.PasswordMessage)
	require.Equal(t, fake.continueResp, pw.SASLData)
	require.Equal(t, []byte("r=abc,s=salt,i=4096"), fake.seenServer1)

	msg, err = e.handleAuthentication(&pgproto3.Authentication{
		Type:     pgproto3.AuthTypeSASLFinal,
		SASLData: []byte("v=serversignature"),
	})
	require.NoError(t, err)
	require.Nil(t, msg)
	require.Equal(t, []byte("v=serversignature"), fake.seenServer2)
}

func TestHandleAuthenticationSASLContinueWithoutSASL(t *testing.T) {
	e := NewEngine(StartupConfig{Password: "s3kr3t"})

	_, err := e.handleAuthentication(&pgproto3.Authentication{Type: pgproto3.AuthTypeSASLContinue})
	require.Error(t, err)
}

func TestHandleAuthenticationUnsupportedType(t *testing.T) {
	e := NewEngine(StartupConfig{})

	_, err := e.handleAuthentication(&pgproto3.Authentication{Type: 999})
	require.Error(t, err)
}
