// Package scram implements the client side of the SASL SCRAM-SHA-256
// exchange (RFC 5802) PostgreSQL uses for AuthenticationSASL. It is the
// concrete, swappable implementation behind the engine's ScramExchanger
// interface: the core depends only on that interface, keeping "SASL/SCRAM
// exchange proper" an external collaborator per spec's scope boundary.
package scram

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/xdg-go/stringprep"
	"golang.org/x/crypto/pbkdf2"
)

// Mechanism is the SASL mechanism name this package implements, as
// advertised by the server in an AuthenticationSASL message.
const Mechanism = "SCRAM-SHA-256"

// Client drives one SCRAM-SHA-256 exchange for a single connection
// attempt. It is not safe for concurrent or repeated use; create a new
// Client per authentication attempt.
type Client struct {
	password string
	cnonce   string

	serverFirstMessage string
	fullNonce          string
	salt               []byte
	iterations         int
	saltedPassword     []byte
	authMessage        string

	done bool
}

// NewClient creates a Client that will authenticate password against the
// server's upcoming challenge.
func NewClient(password string) *Client {
	return &Client{password: password, cnonce: makeNonce()}
}

// InitialResponse builds the SASL initial response for the client-first
// message, sent as the payload of a PasswordMessage naming Mechanism.
func (c *Client) InitialResponse() []byte {
	return []byte("n,,n=,r=" + c.cnonce)
}

// Continue consumes the server-first message (the payload of an
// AuthenticationSASLContinue) and returns the client-final message to
// send back as a bare SASL response.
func (c *Client) Continue(serverFirstMessage []byte) ([]byte, error) {
	c.serverFirstMessage = string(serverFirstMessage)
	parts := strings.Split(c.serverFirstMessage, ",")
	if len(parts) != 3 || !strings.HasPrefix(parts[0], "r=") ||
		!strings.HasPrefix(parts[1], "s=") || !strings.HasPrefix(parts[2], "i=") {
		return nil, fmt.Errorf("scram: malformed server-first-message %q", c.serverFirstMessage)
	}

	c.fullNonce = parts[0][2:]
	if len(c.fullNonce) <= len(c.cnonce) || !strings.HasPrefix(c.fullNonce, c.cnonce) {
		return nil, fmt.Errorf("scram: server nonce does not extend client nonce")
	}

	var err error
	c.salt, err = base64.StdEncoding.DecodeString(parts[1][2:])
	if err != nil {
		return nil, fmt.Errorf("scram: invalid salt: %w", err)
	}

	c.iterations, err = strconv.Atoi(parts[2][2:])
	if err != nil || c.iterations <= 0 {
		return nil, fmt.Errorf("scram: invalid iteration count %q", parts[2][2:])
	}

	clientFinalWithoutProof := "c=biws,r=" + c.fullNonce

	normalized, err := stringprep.SASLprep.Prepare(c.password)
	if err != nil {
		// RFC 4013 calls for rejecting unrepresentable passwords, but
		// PostgreSQL itself authenticates successfully with the raw
		// password in that case; match the server rather than the RFC.
		normalized = c.password
	}

	c.saltedPassword = pbkdf2.Key([]byte(normalized), c.salt, c.iterations, sha256.Size, sha256.New)
	c.authMessage = "n=,r=" + c.cnonce + "," + c.serverFirstMessage + "," + clientFinalWithoutProof

	proof := computeClientProof(c.saltedPassword, c.authMessage)
	return []byte(fmt.Sprintf("%s,p=%s", clientFinalWithoutProof, proof)), nil
}

// Final verifies the server-final message (the payload of an
// AuthenticationSASLFinal) against the server signature this exchange
// computed, returning an error if they disagree.
func (c *Client) Final(serverFinalMessage []byte) error {
	s := string(serverFinalMessage)
	if !strings.HasPrefix(s, "v=") {
		if strings.HasPrefix(s, "e=") {
			return fmt.Errorf("scram: server reported error: %s", s[2:])
		}
		return fmt.Errorf("scram: malformed server-final-message %q", s)
	}

	expected := computeServerSignature(c.saltedPassword, c.authMessage)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(s[2:])) != 1 {
		return fmt.Errorf("scram: server signature mismatch")
	}
	c.done = true
	return nil
}

// Done reports whether Final has verified the exchange successfully.
func (c *Client) Done() bool { return c.done }

func makeNonce() string {
	data := make([]byte, 24)
	if _, err := rand.Read(data); err != nil {
		panic(err) // crypto/rand.Read failing indicates a broken host, not a recoverable condition
	}
	return base64.StdEncoding.EncodeToString(data)
}

func computeClientProof(saltedPassword []byte, authMessage string) string {
	clientKey := computeHMAC(saltedPassword, []byte("Client Key"))
	storedKey := sha256.Sum256(clientKey)
	clientSignature := computeHMAC(storedKey[:], []byte(authMessage))
	proof := make([]byte, len(clientSignature))
	for i := range clientSignature {
		proof[i] = clientKey[i] ^ clientSignature[i]
	}
	return base64.StdEncoding.EncodeToString(proof)
}

func computeServerSignature(saltedPassword []byte, authMessage string) string {
	serverKey := computeHMAC(saltedPassword, []byte("Server Key"))
	serverSignature := computeHMAC(serverKey, []byte(authMessage))
	return base64.StdEncoding.EncodeToString(serverSignature)
}

func computeHMAC(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}
