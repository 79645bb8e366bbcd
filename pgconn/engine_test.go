package pgconn

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blenq/pagio/pgio"
	"github.com/blenq/pagio/pgproto3"
)

// buildFrame wraps payload in a tag+length frame as the wire carries it,
// mirroring pgproto3's own framer tests.
func buildFrame(tag byte, payload []byte) []byte {
	buf := []byte{tag}
	buf = pgio.AppendInt32(buf, int32(4+len(payload)))
	return append(buf, payload...)
}

func encodeAuthOk() []byte              { return pgio.AppendUint32(nil, pgproto3.AuthTypeOk) }
func encodeBackendKeyData(pid, secret uint32) []byte {
	buf := pgio.AppendUint32(nil, pid)
	return pgio.AppendUint32(buf, secret)
}
func encodeParameterStatus(name, value string) []byte {
	buf := pgio.AppendCString(nil, name)
	return pgio.AppendCString(buf, value)
}
func encodeReadyForQuery(status byte) []byte { return []byte{status} }

func encodeRowDescription(fields []pgproto3.FieldDescription) []byte {
	buf := pgio.AppendInt16(nil, int16(len(fields)))
	for _, f := range fields {
		buf = pgio.AppendCString(buf, f.Name)
		buf = pgio.AppendUint32(buf, f.TableOID)
		buf = pgio.AppendUint16(buf, f.TableAttributeNumber)
		buf = pgio.AppendUint32(buf, f.DataTypeOID)
		buf = pgio.AppendInt16(buf, f.DataTypeSize)
		buf = pgio.AppendInt32(buf, f.TypeModifier)
		buf = pgio.AppendInt16(buf, f.Format)
	}
	return buf
}

func encodeDataRow(values [][]byte) []byte {
	buf := pgio.AppendInt16(nil, int16(len(values)))
	for _, v := range values {
		if v == nil {
			buf = pgio.AppendInt32(buf, -1)
			continue
		}
		buf = pgio.AppendInt32(buf, int32(len(v)))
		buf = append(buf, v...)
	}
	return buf
}

func encodeCommandComplete(tag string) []byte { return pgio.AppendCString(nil, tag) }

func encodeErrorResponse(fields map[byte]string) []byte {
	var buf []byte
	for code, val := range fields {
		buf = append(buf, code)
		buf = pgio.AppendCString(buf, val)
	}
	return append(buf, 0)
}

// feedServer drives stream through e one WriteRegion/Advance/Drain cycle at
// a time, exactly as a real transport loop would, and fails the test on any
// Drain error.
func feedServer(t *testing.T, e *Engine, stream []byte) {
	r := bytes.NewReader(stream)
	for {
		region := e.WriteRegion()
		n, rerr := r.Read(region)
		if n > 0 {
			e.Advance(n)
			_, derr := e.Drain()
			require.NoError(t, derr)
		}
		if rerr != nil {
			break
		}
	}
}

func connectAndAuthenticate(t *testing.T, e *Engine) {
	e.Startup()
	var stream []byte
	stream = append(stream, buildFrame('R', encodeAuthOk())...)
	stream = append(stream, buildFrame('K', encodeBackendKeyData(4242, 99))...)
	stream = append(stream, buildFrame('S', encodeParameterStatus("client_encoding", "UTF8"))...)
	stream = append(stream, buildFrame('S', encodeParameterStatus("DateStyle", "ISO, MDY"))...)
	stream = append(stream, buildFrame('Z', encodeReadyForQuery('I'))...)
	feedServer(t, e, stream)
	require.Equal(t, StateReadyForQuery, e.State())
}

func TestStartupAuthenticationFlow(t *testing.T) {
	e := NewEngine(StartupConfig{User: "alice", Database: "app"})
	require.Equal(t, StateClosed, e.State())

	e.Startup()
	require.Equal(t, StateConnecting, e.State())

	var stream []byte
	stream = append(stream, buildFrame('R', encodeAuthOk())...)
	stream = append(stream, buildFrame('K', encodeBackendKeyData(100, 200))...)
	stream = append(stream, buildFrame('Z', encodeReadyForQuery('I'))...)
	feedServer(t, e, stream)

	require.Equal(t, StateReadyForQuery, e.State())
	require.EqualValues(t, 100, e.PID())
	require.EqualValues(t, 200, e.SecretKey())
}

// TestSimpleQueryPath exercises S1: no params, text result format, and a
// first-time SQL text goes out as a bare Simple Query (§4.4).
func TestSimpleQueryPath(t *testing.T) {
	e := NewEngine(StartupConfig{User: "alice", CacheSize: 8, PrepareThreshold: 2})
	connectAndAuthenticate(t, e)

	out, err := e.BuildExecute("SELECT 1", nil, 0, false)
	require.NoError(t, err)
	require.Equal(t, byte('Q'), out[0])
	require.Equal(t, StateExecuting, e.State())

	var stream []byte
	fields := []pgproto3.FieldDescription{{Name: "?column?", DataTypeOID: 23, Format: 0}}
	stream = append(stream, buildFrame('T', encodeRowDescription(fields))...)
	stream = append(stream, buildFrame('D', encodeDataRow([][]byte{[]byte("1")}))...)
	stream = append(stream, buildFrame('C', encodeCommandComplete("SELECT 1"))...)
	stream = append(stream, buildFrame('Z', encodeReadyForQuery('I'))...)
	feedServer(t, e, stream)

	require.Equal(t, StateReadyForQuery, e.State())
	results, rerr := e.TakeResult()
	require.NoError(t, rerr)
	require.Len(t, results, 1)
	require.Equal(t, "SELECT 1", results[0].Tag)
	require.Equal(t, []any{int32(1)}, results[0].Rows[0])
}

// TestExtendedQueryBinaryResult exercises S2: a parameterized query with a
// binary result format drives Parse/Bind/Describe/Execute/Sync and decodes
// the binary DataRow through the registered int4 codec.
func TestExtendedQueryBinaryResult(t *testing.T) {
	e := NewEngine(StartupConfig{User: "alice", CacheSize: 8, PrepareThreshold: 2})
	connectAndAuthenticate(t, e)

	out, err := e.BuildExecute("SELECT $1::int4", []any{int32(7)}, 1, false)
	require.NoError(t, err)
	require.True(t, bytes.Contains(out, []byte{'P'}), "Parse message expected in flushed stream")
	require.Equal(t, StateExecuting, e.State())

	var stream []byte
	stream = append(stream, buildFrame('1', nil)...) // ParseComplete
	stream = append(stream, buildFrame('2', nil)...) // BindComplete
	fields := []pgproto3.FieldDescription{{Name: "int4", DataTypeOID: 23, Format: 1}}
	stream = append(stream, buildFrame('T', encodeRowDescription(fields))...)
	stream = append(stream, buildFrame('D', encodeDataRow([][]byte{pgio.AppendInt32(nil, 7)}))...)
	stream = append(stream, buildFrame('C', encodeCommandComplete("SELECT 1"))...)
	stream = append(stream, buildFrame('Z', encodeReadyForQuery('I'))...)
	feedServer(t, e, stream)

	require.Equal(t, StateReadyForQuery, e.State())
	results, rerr := e.TakeResult()
	require.NoError(t, rerr)
	require.Equal(t, []any{int32(7)}, results[0].Rows[0])
}

// TestPrepareThresholdPromotion exercises S3: the second execution of the
// same statement (threshold 2, counting the first Miss as execution 1)
// reaches HitPromote and issues a named Parse, after which further
// executions skip Parse/Describe entirely.
func TestPrepareThresholdPromotion(t *testing.T) {
	e := NewEngine(StartupConfig{User: "alice", CacheSize: 8, PrepareThreshold: 2})
	connectAndAuthenticate(t, e)

	runOnce := func(expectParse bool) {
		out, err := e.BuildExecute("SELECT $1::int4", []any{int32(1)}, 1, false)
		require.NoError(t, err)
		if expectParse {
			require.True(t, bytes.Contains(out, []byte{'P'}), "Parse message expected in flushed stream")
		}

		var stream []byte
		if expectParse {
			stream = append(stream, buildFrame('1', nil)...)
		}
		stream = append(stream, buildFrame('2', nil)...)
		if expectParse {
			fields := []pgproto3.FieldDescription{{Name: "int4", DataTypeOID: 23, Format: 1}}
			stream = append(stream, buildFrame('T', encodeRowDescription(fields))...)
		}
		stream = append(stream, buildFrame('D', encodeDataRow([][]byte{pgio.AppendInt32(nil, 1)}))...)
		stream = append(stream, buildFrame('C', encodeCommandComplete("SELECT 1"))...)
		stream = append(stream, buildFrame('Z', encodeReadyForQuery('I'))...)
		feedServer(t, e, stream)
		require.Equal(t, StateReadyForQuery, e.State())
		_, rerr := e.TakeResult()
		require.NoError(t, rerr)
	}

	runOnce(true)  // Miss: unnamed parse, not prepared
	runOnce(true)  // HitPromote: reaches threshold, named parse this turn
	runOnce(false) // HitPrepared: no Parse/Describe needed
}

// TestErrorResponseSurfacesAsServerError exercises §4.4's failure path: an
// ErrorResponse to a Simple Query is held as the pending error until
// ReadyForQuery, then returned by TakeResult as a *ServerError carrying the
// reported SQLSTATE.
func TestErrorResponseSurfacesAsServerError(t *testing.T) {
	e := NewEngine(StartupConfig{User: "alice", CacheSize: 8})
	connectAndAuthenticate(t, e)

	_, err := e.BuildExecute("SELECT 1/0", nil, 0, false)
	require.NoError(t, err)

	var stream []byte
	stream = append(stream, buildFrame('E', encodeErrorResponse(map[byte]string{
		'S': "ERROR", 'C': "22012", 'M': "division by zero",
	}))...)
	stream = append(stream, buildFrame('Z', encodeReadyForQuery('I'))...)
	feedServer(t, e, stream)

	require.Equal(t, StateReadyForQuery, e.State())
	_, rerr := e.TakeResult()
	require.Error(t, rerr)
	var serverErr *ServerError
	require.ErrorAs(t, rerr, &serverErr)
	require.Equal(t, "22012", serverErr.Code)
}

func TestBuildExecuteRejectsWhenNotReady(t *testing.T) {
	e := NewEngine(StartupConfig{User: "alice"})

	_, err := e.BuildExecute("SELECT 1", nil, 0, false)
	require.Error(t, err)
	var stateErr *ProtocolStateError
	require.ErrorAs(t, err, &stateErr)
}
