package pgconn

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/blenq/pagio/internal/stmtcache"
	"github.com/blenq/pagio/pgproto3"
	"github.com/blenq/pagio/pgtype"
)

// State is one of the engine's top-level protocol states (§4.4).
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateAuthenticating
	StateReadyForQuery
	StateExecuting
	StateTerminating
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateConnecting:
		return "CONNECTING"
	case StateAuthenticating:
		return "AUTHENTICATING"
	case StateReadyForQuery:
		return "READY_FOR_QUERY"
	case StateExecuting:
		return "EXECUTING"
	case StateTerminating:
		return "TERMINATING"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result is one (fields, rows, tag) triple, as produced by one statement of
// a Simple Query batch or by one Bind/Execute/Sync unit (§3).
type Result struct {
	Fields []pgproto3.FieldDescription
	Rows   [][]any
	Tag    string
}

// Tracer receives every message exchanged with the server, the way
// pgproto3.Backend/Frontend's tracer hooks do; a caller wires a structured
// logger behind it. The engine itself never formats a log line.
type Tracer interface {
	pgproto3.BackendTracer
	pgproto3.FrontendTracer
}

// Engine drives the wire protocol for a single PostgreSQL connection. It
// performs no I/O itself: a caller feeds inbound bytes through
// WriteRegion/Advance/Drain and writes whatever Drain or BuildExecute
// return back to the transport.
type Engine struct {
	state  State
	config StartupConfig

	registry *pgtype.Registry
	cache    *stmtcache.Cache
	session  *Session

	backend  *pgproto3.Backend
	frontend *pgproto3.Frontend

	pid       uint32
	secretKey uint32

	scram ScramExchanger

	onNotify func(*pgproto3.NotificationResponse)
	onNotice func(*ServerError)
	onCopy   func(pgproto3.BackendMessage)

	rawResult bool

	// Accumulated over one execute-to-ReadyForQuery cycle.
	curResults  []Result
	curFields   []pgproto3.FieldDescription
	curDecoders []*pgtype.Codec
	curRows     [][]any
	pendingErr  error

	curKey            stmtcache.Key
	curStmt           *stmtcache.Descriptor
	curNeedParse      bool
	curNamedParse     bool
	curParseAcked     bool
	curRaw            bool
	curDeallocateName string
}

// NewEngine creates an Engine in state CLOSED, ready for Startup.
func NewEngine(config StartupConfig) *Engine {
	return &Engine{
		state:     StateClosed,
		config:    config,
		registry:  pgtype.NewRegistry(),
		cache:     stmtcache.New(config.CacheSize, config.PrepareThreshold),
		session:   newSession(),
		backend:   pgproto3.NewBackend(pgproto3.NewFramer()),
		frontend:  pgproto3.NewFrontend(),
		rawResult: config.RawResult,
	}
}

// State returns the engine's current top-level state.
func (e *Engine) State() State { return e.state }

// Session exposes the tracked server parameters and transaction status.
func (e *Engine) Session() *Session { return e.session }

// PID and SecretKey return the values captured from BackendKeyData, used by
// a facade to build an out-of-band CancelRequest (§5).
func (e *Engine) PID() uint32       { return e.pid }
func (e *Engine) SecretKey() uint32 { return e.secretKey }

// SetTracer installs t to observe every message exchanged with the server;
// pass nil to disable tracing.
func (e *Engine) SetTracer(t Tracer) {
	if t == nil {
		e.backend.Trace(nil)
		e.frontend.Trace(nil)
		return
	}
	e.backend.Trace(t)
	e.frontend.Trace(t)
}

// OnNotification registers fn to be called with every NotificationResponse
// (LISTEN/NOTIFY payload), asynchronous to any statement the engine is
// executing (§1 Non-goals: routing policy stays with the caller).
func (e *Engine) OnNotification(fn func(*pgproto3.NotificationResponse)) { e.onNotify = fn }

// OnNotice registers fn to be called with every NoticeResponse not tied to
// the outcome of the current statement.
func (e *Engine) OnNotice(fn func(*ServerError)) { e.onNotice = fn }

// OnCopy registers fn to be called with every COPY sub-protocol message
// (CopyInResponse, CopyOutResponse, CopyBothResponse, CopyData, CopyDone);
// the engine does not implement COPY semantics itself, it only keeps the
// frame stream synchronised while a facade drives one.
func (e *Engine) OnCopy(fn func(pgproto3.BackendMessage)) { e.onCopy = fn }

// SetRawResult toggles whether BuildExecute defaults to bypassing the type
// codec registry, returning every column's raw bytes instead.
func (e *Engine) SetRawResult(raw bool) { e.rawResult = raw }

// RawResult reports the current default set by SetRawResult or
// StartupConfig.RawResult.
func (e *Engine) RawResult() bool { return e.rawResult }

// WriteRegion returns a slice sized to the next read the caller should
// perform, mirroring pgproto3.Backend's push-based receive protocol.
func (e *Engine) WriteRegion() []byte { return e.backend.WriteRegion() }

// Advance records that n bytes landed in the region WriteRegion returned.
func (e *Engine) Advance(n int) { e.backend.Advance(n) }

// Startup builds the initial startup message and moves the engine to
// CONNECTING.
func (e *Engine) Startup() []byte {
	params := make(map[string]string, len(e.config.ExtraParameters)+2)
	for k, v := range e.config.ExtraParameters {
		params[k] = v
	}
	params["user"] = e.config.User
	if e.config.Database != "" {
		params["database"] = e.config.Database
	}
	msg := &pgproto3.StartupMessage{ProtocolVersion: pgproto3.ProtocolVersionNumber, Parameters: params}
	e.state = StateConnecting
	return msg.Encode(nil)
}

// Terminate builds a Terminate message and moves the engine to
// TERMINATING; the caller is expected to close the transport once it has
// been written.
func (e *Engine) Terminate() []byte {
	e.state = StateTerminating
	return (&pgproto3.Terminate{}).Encode(nil)
}

var deallocateNamePattern = regexp.MustCompile(`(?is)^\s*DEALLOCATE\s+(?:"([^"]+)"|(\S+))\s*;?\s*$`)

// parseDeallocateName extracts the target name from a single-statement
// `DEALLOCATE "<name>"` (or unquoted) command, empty for anything else
// including `DEALLOCATE ALL` — matching the original's recognition of a
// targeted deallocate beyond the two whole-cache-wipe tags named in §4.3.
func parseDeallocateName(sql string) string {
	m := deallocateNamePattern.FindStringSubmatch(sql)
	if m == nil {
		return ""
	}
	name := m[1]
	if name == "" {
		name = m[2]
	}
	if strings.EqualFold(name, "ALL") {
		return ""
	}
	return name
}

// BuildExecute assembles the outbound message sequence for one execute
// cycle and moves the engine to EXECUTING. Per §4.4: with zero parameters,
// a text result format, and no cached statement, it sends a bare Simple
// Query; every other case drives the Extended Query flow, consulting and
// updating the prepared-statement cache.
func (e *Engine) BuildExecute(sql string, params []any, resultFormat int16, raw bool) ([]byte, error) {
	if e.state != StateReadyForQuery {
		return nil, &ProtocolStateError{State: e.state, Message: "execute requested"}
	}

	e.resetCycle(raw || e.rawResult)

	paramOIDs := make([]uint32, len(params))
	paramFormats := make([]int16, len(params))
	paramValues := make([][]byte, len(params))
	for i, p := range params {
		// a pgtype.WithOID value carries its own fallback OID; see
		// EncodeParameter.
		oid, format, payload, err := e.registry.EncodeParameter(p, 0)
		if err != nil {
			return nil, err
		}
		paramOIDs[i] = oid
		paramFormats[i] = format
		paramValues[i] = payload
	}

	key := cacheKey(sql, paramOIDs)
	d, result := e.cache.Lookup(key)

	if len(params) == 0 && resultFormat == 0 && result == stmtcache.Miss {
		e.curDeallocateName = parseDeallocateName(sql)
		e.frontend.Send(&pgproto3.Query{SQL: sql})
		e.state = StateExecuting
		return e.frontend.Flush(), nil
	}

	// A close left pending by an earlier cycle is taken before Put, which may
	// evict a prepared entry and schedule a close of its own; both go out
	// ahead of this cycle's Parse.
	closes := []*stmtcache.Descriptor{e.cache.TakePendingClose()}

	switch result {
	case stmtcache.Miss:
		d = e.cache.Put(key)
	case stmtcache.HitPromote:
		e.cache.Promote(d)
	}

	closes = append(closes, e.cache.TakePendingClose())
	for _, pc := range closes {
		if pc != nil {
			e.frontend.Send(&pgproto3.Close{Target: pgproto3.DescribeStatement, Name: pc.ServerName})
		}
	}

	needParse := result != stmtcache.HitPrepared
	name := d.ServerName

	if needParse {
		e.frontend.Send(&pgproto3.Parse{StatementName: name, SQL: sql, ParameterOIDs: paramOIDs})
	} else {
		e.curFields = fromFieldDescriptors(d.Fields)
		e.curDecoders = decodersFromOpaque(d.Decoders)
	}

	e.frontend.Send(&pgproto3.Bind{
		PortalName:           "",
		StatementName:        name,
		ParameterFormatCodes: paramFormats,
		Parameters:           paramValues,
		ResultFormatCodes:    []int16{resultFormat},
	})

	if needParse {
		e.frontend.Send(&pgproto3.Describe{Target: pgproto3.DescribePortal, Name: ""})
	}

	e.frontend.Send(&pgproto3.Execute{PortalName: "", MaxRows: 0})
	e.frontend.Send(&pgproto3.Sync{})

	e.curKey = key
	e.curStmt = d
	e.curNeedParse = needParse
	e.curNamedParse = needParse && name != ""
	e.state = StateExecuting
	return e.frontend.Flush(), nil
}

// cacheKey builds a stmtcache.Key from sql and the OIDs chosen for its
// parameters, matching §3's "(SQL text, byte string holding the big-endian
// u32 OIDs...)" definition.
func cacheKey(sql string, oids []uint32) stmtcache.Key {
	if len(oids) == 0 {
		return stmtcache.Key{SQL: sql}
	}
	b := make([]byte, 4*len(oids))
	for i, oid := range oids {
		b[4*i] = byte(oid >> 24)
		b[4*i+1] = byte(oid >> 16)
		b[4*i+2] = byte(oid >> 8)
		b[4*i+3] = byte(oid)
	}
	return stmtcache.Key{SQL: sql, OIDBytes: string(b)}
}

func (e *Engine) resetCycle(raw bool) {
	e.curResults = nil
	e.curFields = nil
	e.curDecoders = nil
	e.curRows = nil
	e.pendingErr = nil
	e.curKey = stmtcache.Key{}
	e.curStmt = nil
	e.curNeedParse = false
	e.curNamedParse = false
	e.curParseAcked = false
	e.curRaw = raw
	e.curDeallocateName = ""
}

// Drain processes every complete message currently buffered, dispatching
// each to the state machine, and returns any bytes the engine queued in
// response (e.g. a SASL continuation or password message). It never blocks
// and never itself reads from a transport.
func (e *Engine) Drain() ([]byte, error) {
	if err := e.backend.Receive(e.handleMessage); err != nil {
		return nil, err
	}
	return e.frontend.Flush(), nil
}

// TakeResult returns and clears the result batch and pending error
// accumulated since the last call, valid once State() == StateReadyForQuery
// following a Drain.
func (e *Engine) TakeResult() ([]Result, error) {
	results, err := e.curResults, e.pendingErr
	e.curResults, e.pendingErr = nil, nil
	return results, err
}

func (e *Engine) handleMessage(msg pgproto3.BackendMessage) error {
	switch m := msg.(type) {
	case *pgproto3.Authentication:
		if e.state != StateConnecting {
			return &ProtocolStateError{State: e.state, Message: "authentication message"}
		}
		resp, err := e.handleAuthentication(m)
		if err != nil {
			return err
		}
		if resp != nil {
			e.frontend.Send(resp)
		}
		if m.Type == pgproto3.AuthTypeOk {
			e.state = StateAuthenticating
		}

	case *pgproto3.BackendKeyData:
		e.pid, e.secretKey = m.ProcessID, m.SecretKey

	case *pgproto3.ParameterStatus:
		if err := e.session.observeParameterStatus(m.Name, m.Value); err != nil {
			return err
		}
		e.registry.SetIsoDates(e.session.IsoDates())
		e.registry.SetTimeZone(e.session.TimeZone())

	case *pgproto3.NoticeResponse:
		if e.onNotice != nil {
			e.onNotice(newServerError(m.NoticeFields))
		}

	case *pgproto3.NotificationResponse:
		if e.onNotify != nil {
			e.onNotify(m)
		}

	case *pgproto3.ErrorResponse:
		if e.state != StateExecuting {
			return &ProtocolStateError{State: e.state, Message: "error response"}
		}
		e.pendingErr = newServerError(m.NoticeFields)

	case *pgproto3.RowDescription:
		if e.state != StateExecuting {
			return &ProtocolStateError{State: e.state, Message: "row description"}
		}
		e.curFields = m.Fields
		e.curDecoders = e.pickDecoders(m.Fields)

	case *pgproto3.ParameterDescription:
		// Only Describe(Portal) is ever issued (§4.4); a statement-level
		// parameter description is not expected in this flow.

	case *pgproto3.NoData:
		if e.state != StateExecuting {
			return &ProtocolStateError{State: e.state, Message: "no data"}
		}
		e.curFields = nil
		e.curDecoders = nil

	case *pgproto3.ParseComplete:
		if e.state != StateExecuting {
			return &ProtocolStateError{State: e.state, Message: "parse complete"}
		}
		e.curParseAcked = true

	case *pgproto3.BindComplete, *pgproto3.CloseComplete:
		if e.state != StateExecuting {
			return &ProtocolStateError{State: e.state, Message: "bind/close complete"}
		}

	case *pgproto3.DataRow:
		if e.state != StateExecuting {
			return &ProtocolStateError{State: e.state, Message: "data row"}
		}
		e.curRows = append(e.curRows, e.decodeRow(m.Values))

	case *pgproto3.CommandComplete:
		if e.state != StateExecuting {
			return &ProtocolStateError{State: e.state, Message: "command complete"}
		}
		tag := string(m.CommandTag)
		e.curResults = append(e.curResults, Result{Fields: e.curFields, Rows: e.curRows, Tag: tag})
		e.applyCacheWipe(tag)
		e.curRows = nil

	case *pgproto3.EmptyQueryResponse:
		if e.state != StateExecuting {
			return &ProtocolStateError{State: e.state, Message: "empty query response"}
		}
		e.curResults = append(e.curResults, Result{})

	case *pgproto3.PortalSuspended:
		if e.state != StateExecuting {
			return &ProtocolStateError{State: e.state, Message: "portal suspended"}
		}

	case *pgproto3.CopyInResponse, *pgproto3.CopyOutResponse, *pgproto3.CopyBothResponse, *pgproto3.CopyData, *pgproto3.CopyDone:
		if e.onCopy != nil {
			e.onCopy(m)
		}

	case *pgproto3.ReadyForQuery:
		if e.state != StateAuthenticating && e.state != StateExecuting {
			return &ProtocolStateError{State: e.state, Message: "ready for query"}
		}
		e.session.txStatus = m.TxStatus
		e.commitCache()
		e.state = StateReadyForQuery

	default:
		return &ProtocolStateError{State: e.state, Message: fmt.Sprintf("unexpected message %T", m)}
	}
	return nil
}

// applyCacheWipe inspects a just-completed command tag for DISCARD ALL /
// DEALLOCATE ALL (whole-cache wipe, §4.3) or a targeted DEALLOCATE of the
// name this cycle's SQL text named (§4.3 refinement, SUPPLEMENTED
// FEATURES).
func (e *Engine) applyCacheWipe(tag string) {
	switch tag {
	case "DISCARD ALL", "DEALLOCATE ALL":
		e.cache.InvalidateAll()
	case "DEALLOCATE":
		if e.curDeallocateName != "" {
			e.cache.InvalidateName(e.curDeallocateName)
		}
	}
}

// commitCache finalises the statement cache's view of the cycle that just
// reached ReadyForQuery, per §4.3's commit contract. A cycle only "just
// prepared" its statement when the Parse it sent this turn named it (i.e.
// Promote was called) — an unnamed Miss-path Parse leaves the entry
// unprepared so it keeps accumulating ExecutionCount toward the threshold.
func (e *Engine) commitCache() {
	if e.curStmt == nil {
		return
	}
	if e.pendingErr != nil {
		e.cache.CommitFailure(e.curKey, e.curStmt)
	} else {
		justPrepared := e.curNamedParse && e.curParseAcked
		if justPrepared {
			e.curStmt.Fields = toFieldDescriptors(e.curFields)
			e.curStmt.Decoders = opaqueFromDecoders(e.curDecoders)
		}
		e.cache.CommitSuccess(e.curStmt, justPrepared)
	}
	e.curStmt = nil
	e.curKey = stmtcache.Key{}
}

// pickDecoders resolves one *pgtype.Codec per field, nil when raw mode is
// in effect for this cycle or the OID has no registered codec (falling
// back to the generic raw-bytes pass-through, §4.4/SUPPLEMENTED FEATURES).
func (e *Engine) pickDecoders(fields []pgproto3.FieldDescription) []*pgtype.Codec {
	decoders := make([]*pgtype.Codec, len(fields))
	if e.curRaw {
		return decoders
	}
	for i, f := range fields {
		decoders[i] = e.registry.Lookup(f.DataTypeOID)
	}
	return decoders
}

func (e *Engine) decodeRow(values [][]byte) []any {
	row := make([]any, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		if e.curRaw || e.curDecoders == nil || i >= len(e.curDecoders) || e.curDecoders[i] == nil {
			row[i] = append([]byte(nil), v...)
			continue
		}
		c := e.curDecoders[i]
		var val any
		var err error
		if e.curFields[i].Format == 1 {
			if c.BinaryDecode == nil {
				err = &pgtype.DecodeError{OID: c.OID, Format: 1, Reason: "no binary decoder registered"}
			} else {
				val, err = c.BinaryDecode(v)
			}
		} else {
			if c.TextDecode == nil {
				err = &pgtype.DecodeError{OID: c.OID, Format: 0, Reason: "no text decoder registered"}
			} else {
				val, err = c.TextDecode(v)
			}
		}
		if err != nil {
			e.pendingErr = err
			continue
		}
		row[i] = val
	}
	return row
}

func toFieldDescriptors(fields []pgproto3.FieldDescription) []stmtcache.FieldDescriptor {
	out := make([]stmtcache.FieldDescriptor, len(fields))
	for i, f := range fields {
		out[i] = stmtcache.FieldDescriptor{
			Name:         f.Name,
			TableOID:     f.TableOID,
			TypeOID:      f.DataTypeOID,
			TypeSize:     f.DataTypeSize,
			TypeModifier: f.TypeModifier,
			Format:       f.Format,
		}
	}
	return out
}

func fromFieldDescriptors(fields []stmtcache.FieldDescriptor) []pgproto3.FieldDescription {
	out := make([]pgproto3.FieldDescription, len(fields))
	for i, f := range fields {
		out[i] = pgproto3.FieldDescription{
			Name:         f.Name,
			TableOID:     f.TableOID,
			DataTypeOID:  f.TypeOID,
			DataTypeSize: f.TypeSize,
			TypeModifier: f.TypeModifier,
			Format:       f.Format,
		}
	}
	return out
}

func opaqueFromDecoders(decoders []*pgtype.Codec) []interface{} {
	out := make([]interface{}, len(decoders))
	for i, d := range decoders {
		out[i] = d
	}
	return out
}

func decodersFromOpaque(opaque []interface{}) []*pgtype.Codec {
	out := make([]*pgtype.Codec, len(opaque))
	for i, v := range opaque {
		if v == nil {
			continue
		}
		out[i] = v.(*pgtype.Codec)
	}
	return out
}
