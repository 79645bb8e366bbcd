package scram

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
)

// fakeServer plays the server side of a SCRAM-SHA-256 exchange well enough
// to drive Client through a full Continue/Final round trip, mirroring how
// PostgreSQL itself computes salted password and signatures.
type fakeServer struct {
	password   string
	salt       []byte
	iterations int
	cnonce     string
	snonce     string
}

func newFakeServer(password string) *fakeServer {
	salt := make([]byte, 16)
	rand.Read(salt)
	snonce := make([]byte, 18)
	rand.Read(snonce)
	return &fakeServer{
		password:   password,
		salt:       salt,
		iterations: 4096,
		snonce:     base64.StdEncoding.EncodeToString(snonce),
	}
}

func (s *fakeServer) firstMessage(clientFirst []byte) string {
	parts := strings.SplitN(string(clientFirst), "r=", 2)
	s.cnonce = parts[1]
	return fmt.Sprintf("r=%s%s,s=%s,i=%d", s.cnonce, s.snonce, base64.StdEncoding.EncodeToString(s.salt), s.iterations)
}

func (s *fakeServer) finalMessage(serverFirst, clientFinal string) string {
	saltedPassword := pbkdf2.Key([]byte(s.password), s.salt, s.iterations, sha256.Size, sha256.New)
	clientFinalWithoutProof := strings.SplitN(clientFinal, ",p=", 2)[0]
	authMessage := "n=,r=" + s.cnonce + "," + serverFirst + "," + clientFinalWithoutProof

	serverKey := hmacSum(saltedPassword, []byte("Server Key"))
	serverSignature := hmacSum(serverKey, []byte(authMessage))
	return "v=" + base64.StdEncoding.EncodeToString(serverSignature)
}

func hmacSum(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

func TestClientSuccessfulExchange(t *testing.T) {
	server := newFakeServer("s3cr3t")
	client := NewClient("s3cr3t")

	clientFirst := client.InitialResponse()
	require.True(t, strings.HasPrefix(string(clientFirst), "n,,n=,r="))

	serverFirst := server.firstMessage(clientFirst)
	clientFinal, err := client.Continue([]byte(serverFirst))
	require.NoError(t, err)
	require.Contains(t, string(clientFinal), "c=biws,r=")
	require.Contains(t, string(clientFinal), ",p=")

	serverFinal := server.finalMessage(serverFirst, string(clientFinal))
	require.NoError(t, client.Final([]byte(serverFinal)))
	require.True(t, client.Done())
}

func TestClientRejectsForgedServerSignature(t *testing.T) {
	server := newFakeServer("s3cr3t")
	client := NewClient("s3cr3t")

	serverFirst := server.firstMessage(client.InitialResponse())
	_, err := client.Continue([]byte(serverFirst))
	require.NoError(t, err)

	require.Error(t, client.Final([]byte("v=bm90dGhlcmVhbHNpZ25hdHVyZQ==")))
	require.False(t, client.Done())
}

func TestClientRejectsNonExtendingServerNonce(t *testing.T) {
	client := NewClient("s3cr3t")
	client.InitialResponse()

	_, err := client.Continue([]byte("r=not-the-client-nonce,s=" + base64.StdEncoding.EncodeToString([]byte("salt")) + ",i=4096"))
	require.Error(t, err)
}

func TestClientRejectsMalformedServerFirstMessage(t *testing.T) {
	client := NewClient("s3cr3t")
	client.InitialResponse()

	_, err := client.Continue([]byte("garbage"))
	require.Error(t, err)
}

func TestClientSurfacesServerError(t *testing.T) {
	server := newFakeServer("s3cr3t")
	client := NewClient("wrong-password")

	serverFirst := server.firstMessage(client.InitialResponse())
	_, err := client.Continue([]byte(serverFirst))
	require.NoError(t, err)

	require.Error(t, client.Final([]byte("e=invalid-proof")))
}
