package pgconn

import (
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/blenq/pagio/pgproto3"
)

// Session tracks the server-reported parameters and transaction status
// that influence decode behaviour (§3 "Session parameters", §4.6).
type Session struct {
	parameters map[string]string
	txStatus   pgproto3.TransactionStatus

	isoDates bool
	timeZone *time.Location
}

func newSession() *Session {
	return &Session{parameters: make(map[string]string), isoDates: true}
}

// TxStatus returns the most recently reported transaction status
// ('I' idle, 'T' in-block, 'E' failed block), 0 before the first
// ReadyForQuery.
func (s *Session) TxStatus() pgproto3.TransactionStatus { return s.txStatus }

// Parameter returns the last value reported for name by ParameterStatus,
// or "" if the server never reported it.
func (s *Session) Parameter(name string) string { return s.parameters[name] }

// IsoDates reports whether DateStyle's value begins with "ISO," (§4.6).
func (s *Session) IsoDates() bool { return s.isoDates }

// TimeZone returns the IANA zone TimeZone last resolved to, or nil if the
// current value does not resolve to a known IANA zone.
func (s *Session) TimeZone() *time.Location { return s.timeZone }

// observeParameterStatus applies a ParameterStatus message's side effects:
// client_encoding must be UTF8 (a ConfigError otherwise — an immediate
// fatal per §7); DateStyle updates IsoDates; TimeZone attempts to resolve
// an IANA zone, falling back to nil (meaning "decode as UTC") when it
// cannot.
func (s *Session) observeParameterStatus(name, value string) error {
	s.parameters[name] = value
	switch name {
	case "client_encoding":
		if !isUTF8Encoding(value) {
			return &ConfigError{Reason: "client_encoding must be UTF8, server reported " + value}
		}
	case "DateStyle":
		s.isoDates = strings.HasPrefix(value, "ISO,")
	case "TimeZone":
		s.timeZone = resolveTimeZone(value)
	}
	return nil
}

// isUTF8Encoding reports whether value names the UTF-8 encoding. PostgreSQL
// also accepts "UNICODE" as an alias for "UTF8", which the WHATWG label
// table htmlindex resolves against maps to UTF-16LE instead, so it is
// normalised first; everything else is resolved through x/text's encoding index the
// way a client speaking arbitrary client_encoding values would.
func isUTF8Encoding(value string) bool {
	if strings.EqualFold(value, "UNICODE") {
		value = "UTF8"
	}
	enc, err := htmlindex.Get(value)
	return err == nil && enc == unicode.UTF8
}

// resolveTimeZone maps a server-reported TimeZone value to an IANA zone
// where possible. PostgreSQL reports either a zone name LoadLocation
// already understands (e.g. "Europe/Amsterdam") or a fixed POSIX-style
// offset/abbreviation that LoadLocation does not; the latter resolves to
// nil, meaning decoders fall back to UTC.
func resolveTimeZone(value string) *time.Location {
	loc, err := time.LoadLocation(value)
	if err != nil {
		return nil
	}
	return loc
}
