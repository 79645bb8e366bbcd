package pgproto3

import "github.com/blenq/pagio/pgio"

// NoticeFields holds the fields of an ErrorResponse or NoticeResponse, one
// string per single-byte wire code; fields with a code not listed here are
// skipped when decoding.
type NoticeFields struct {
	Severity         string
	SeverityV        string
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

func decodeNoticeFields(src []byte) (NoticeFields, error) {
	var f NoticeFields
	rest := src
	for len(rest) > 1 {
		code := rest[0]
		var s string
		var err error
		rest, s, err = pgio.NextCString(rest[1:])
		if err != nil {
			return f, err
		}
		switch code {
		case 'S':
			f.Severity = s
		case 'V':
			f.SeverityV = s
		case 'C':
			f.Code = s
		case 'M':
			f.Message = s
		case 'D':
			f.Detail = s
		case 'H':
			f.Hint = s
		case 'P':
			f.Position = s
		case 'p':
			f.InternalPosition = s
		case 'q':
			f.InternalQuery = s
		case 'W':
			f.Where = s
		case 's':
			f.SchemaName = s
		case 't':
			f.TableName = s
		case 'c':
			f.ColumnName = s
		case 'd':
			f.DataTypeName = s
		case 'n':
			f.ConstraintName = s
		case 'F':
			f.File = s
		case 'L':
			f.Line = s
		case 'R':
			f.Routine = s
		}
	}
	return f, nil
}

// ErrorResponse reports that the backend rejected or failed the current
// statement. Receiving one does not by itself end the session; a
// ReadyForQuery always follows once the backend has recovered.
type ErrorResponse struct {
	NoticeFields
}

func (*ErrorResponse) Backend() {}

// Decode implements BackendMessage.
func (dst *ErrorResponse) Decode(src []byte) error {
	f, err := decodeNoticeFields(src)
	if err != nil {
		return err
	}
	dst.NoticeFields = f
	return nil
}

// NoticeResponse is an advisory message unrelated to the success or failure
// of any particular statement (e.g. a warning raised by a NOTICE SQL
// statement).
type NoticeResponse struct {
	NoticeFields
}

func (*NoticeResponse) Backend() {}

// Decode implements BackendMessage.
func (dst *NoticeResponse) Decode(src []byte) error {
	f, err := decodeNoticeFields(src)
	if err != nil {
		return err
	}
	dst.NoticeFields = f
	return nil
}

// NotificationResponse carries a payload delivered by LISTEN/NOTIFY,
// asynchronous to any statement the session is running.
type NotificationResponse struct {
	PID     uint32
	Channel string
	Payload string
}

func (*NotificationResponse) Backend() {}

// Decode implements BackendMessage.
func (dst *NotificationResponse) Decode(src []byte) error {
	rest, pid := pgio.NextUint32(src)
	rest, channel, err := pgio.NextCString(rest)
	if err != nil {
		return err
	}
	_, payload, err := pgio.NextCString(rest)
	if err != nil {
		return err
	}
	*dst = NotificationResponse{PID: pid, Channel: channel, Payload: payload}
	return nil
}
