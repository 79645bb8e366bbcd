package pgconn

import (
	"fmt"
	"strings"

	"github.com/blenq/pagio/pgproto3"
)

// FramingError reports a malformed message frame: an announced length
// shorter than the 4-byte length field itself, or a frame that could not
// be assembled from the bytes the transport delivered.
type FramingError struct {
	Reason string
	Err    error
}

func (e *FramingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pgconn: framing error: %s: %s", e.Reason, e.Err)
	}
	return fmt.Sprintf("pgconn: framing error: %s", e.Reason)
}

func (e *FramingError) Unwrap() error { return e.Err }

// ProtocolStateError reports that a message arrived while the engine was
// in a state that does not expect it (e.g. a DataRow outside EXECUTING, or
// an Authentication message outside CONNECTING).
type ProtocolStateError struct {
	State   State
	Message string
}

func (e *ProtocolStateError) Error() string {
	return fmt.Sprintf("pgconn: unexpected %s while in state %s", e.Message, e.State)
}

// TransportError wraps an error returned by the transport collaborator
// (dial, read, write, TLS handshake). The engine performs no I/O and never
// returns one itself; its state does not change when the transport fails.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("pgconn: transport error: %s", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// ConfigError reports a startup configuration value the engine cannot
// operate with; per §4.6 the only one the core itself detects is a
// non-UTF8 client_encoding. Unlike a ServerError or a row DecodeError, which
// are held until ReadyForQuery, a ConfigError is returned from Drain as soon
// as it is seen — no ReadyForQuery recovery is attempted.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return fmt.Sprintf("pgconn: configuration error: %s", e.Reason) }

// ServerError is an ErrorResponse from the server, surfaced to the caller
// as structured fields rather than a bare string, mirroring pgx's
// pgconn.PgError.
type ServerError struct {
	Severity         string
	Code             string
	Message          string
	Detail           string
	Hint             string
	Position         string
	InternalPosition string
	InternalQuery    string
	Where            string
	SchemaName       string
	TableName        string
	ColumnName       string
	DataTypeName     string
	ConstraintName   string
	File             string
	Line             string
	Routine          string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: %s (SQLSTATE %s)", e.Severity, e.Message, e.Code)
}

// newServerError builds a ServerError from the raw fields of an
// ErrorResponse or NoticeResponse, matching pgx's rxErrorResponse.
func newServerError(f pgproto3.NoticeFields) *ServerError {
	return &ServerError{
		Severity:         firstNonEmpty(f.SeverityV, f.Severity),
		Code:             f.Code,
		Message:          f.Message,
		Detail:           f.Detail,
		Hint:             f.Hint,
		Position:         f.Position,
		InternalPosition: f.InternalPosition,
		InternalQuery:    f.InternalQuery,
		Where:            f.Where,
		SchemaName:       f.SchemaName,
		TableName:        f.TableName,
		ColumnName:       f.ColumnName,
		DataTypeName:     f.DataTypeName,
		ConstraintName:   f.ConstraintName,
		File:             f.File,
		Line:             f.Line,
		Routine:          f.Routine,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// IsCachedPlanMustBeReplanned reports whether err is the server error
// PostgreSQL raises when a cached statement's shape changed server-side
// (e.g. a DDL change invalidated a plan) — §7's special case a facade
// may recognize as safe to retry once, transparently, outside a
// transaction.
func IsCachedPlanMustBeReplanned(err error) bool {
	se, ok := err.(*ServerError)
	if !ok {
		return false
	}
	return strings.Contains(se.Message, "cached plan must not change result type") ||
		strings.Contains(se.Message, "cached plan must be replanned")
}
