package pgtype

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/blenq/pagio/pgio"
)

// pgEpoch is PostgreSQL's day zero: 2000-01-01, used by both the date and
// timestamp binary wire formats (§4.2).
var pgEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

const usecsPerDay = 86400 * 1000000

// rawIfNotIso wraps a textual date/time decoder so that, per §4.6, it
// returns the server's raw string unparsed whenever the session's
// DateStyle is not ISO-prefixed.
func rawIfNotIso(r *Registry, decode TextDecodeFunc) TextDecodeFunc {
	return func(src []byte) (any, error) {
		if !r.IsoDates() {
			return string(src), nil
		}
		return decode(src)
	}
}

func registerDateTimeCodecs(r *Registry) {
	r.Register(&Codec{OID: DateOID, Name: "date", TextDecode: rawIfNotIso(r, decodeDateText), BinaryDecode: decodeDateBinary})
	r.Register(&Codec{OID: TimeOID, Name: "time", TextDecode: rawIfNotIso(r, decodeTimeText), BinaryDecode: decodeTimeBinary})
	r.Register(&Codec{OID: TimeTzOID, Name: "timetz", TextDecode: rawIfNotIso(r, decodeTimeTzText), BinaryDecode: decodeTimeTzBinary})
	r.Register(&Codec{OID: TimestampOID, Name: "timestamp", TextDecode: rawIfNotIso(r, decodeTimestampText), BinaryDecode: decodeTimestampBinary})
	r.Register(&Codec{OID: TimestampTzOID, Name: "timestamptz", TextDecode: rawIfNotIso(r, decodeTimestampTzText), BinaryDecode: func(src []byte) (any, error) {
		return decodeTimestampTzBinary(src, r.TimeZone())
	}})
	r.Register(&Codec{OID: IntervalOID, Name: "interval", TextDecode: decodeIntervalText, BinaryDecode: decodeIntervalBinary})
}

func registerDateTimeEncoders(r *Registry) {
	r.RegisterEncoder(encodeTime)
}

// ---- date ----

// decodeDateBinary implements §4.2's date conversion: INT32_MAX/MIN are the
// sentinel infinities; values whose implied year falls outside [1, 9999]
// are returned as a "YYYY-MM-DD [BC]"-shaped string rather than a
// time.Time, matching the original's fallback for out-of-range years.
func decodeDateBinary(src []byte) (any, error) {
	if len(src) != 4 {
		return nil, &DecodeError{OID: DateOID, Format: 1, Reason: "expected 4 bytes"}
	}
	_, days := pgio.NextInt32(src)
	switch days {
	case 0x7FFFFFFF:
		return "infinity", nil
	case -0x7FFFFFFF - 1:
		return "-infinity", nil
	}
	t := pgEpoch.AddDate(0, 0, int(days))
	if y := t.Year(); y < 1 || y > 9999 {
		return formatBCDate(t), nil
	}
	return t, nil
}

func formatBCDate(t time.Time) string {
	y := t.Year()
	if y < 1 {
		return fmt.Sprintf("%04d-%02d-%02d BC", 1-y, t.Month(), t.Day())
	}
	return t.Format("2006-01-02")
}

func decodeDateText(src []byte) (any, error) {
	s := string(src)
	switch s {
	case "infinity", "-infinity":
		return s, nil
	}
	bc := strings.HasSuffix(s, " BC")
	base := strings.TrimSuffix(s, " BC")
	t, err := time.Parse("2006-01-02", base)
	if err != nil {
		return nil, &DecodeError{OID: DateOID, Reason: "invalid date text", Err: err}
	}
	if bc {
		return fmt.Sprintf("%04d-%02d-%02d BC", t.Year(), t.Month(), t.Day()), nil
	}
	if t.Year() < 1 || t.Year() > 9999 {
		return formatBCDate(t), nil
	}
	return t, nil
}

// ---- time (no time zone) ----

// decodeTimeBinary decodes the i64-microseconds-since-midnight wire value.
// Open question (c): the original accepts an encoded value equivalent to
// hour 24 and silently folds it to midnight; this decoder rejects it,
// since PostgreSQL's own output never produces it for a valid `time`.
func decodeTimeBinary(src []byte) (any, error) {
	if len(src) != 8 {
		return nil, &DecodeError{OID: TimeOID, Format: 1, Reason: "expected 8 bytes"}
	}
	_, usec := pgio.NextInt64(src)
	if usec < 0 || usec >= usecsPerDay {
		return nil, &DecodeError{OID: TimeOID, Format: 1, Reason: "time of day out of range"}
	}
	return usecToClock(usec), nil
}

func usecToClock(usec int64) time.Time {
	sec := usec / 1000000
	nsec := (usec % 1000000) * 1000
	return time.Date(0, 1, 1, int(sec/3600), int((sec/60)%60), int(sec%60), int(nsec), time.UTC)
}

func decodeTimeText(src []byte) (any, error) {
	t, err := parseClockText(string(src))
	if err != nil {
		return nil, &DecodeError{OID: TimeOID, Reason: "invalid time text", Err: err}
	}
	return t, nil
}

// parseClockText parses PostgreSQL's "HH:MM:SS[.ffffff]" time text. Hour 24
// is rejected per Open question (c) rather than silently mapped to 0.
func parseClockText(s string) (time.Time, error) {
	var hh, mm int
	var rest string
	n, err := fmt.Sscanf(s, "%02d:%02d:%s", &hh, &mm, &rest)
	if err != nil || n != 3 {
		return time.Time{}, fmt.Errorf("malformed time %q", s)
	}
	if hh == 24 {
		return time.Time{}, fmt.Errorf("hour 24 is not a valid time of day: %q", s)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return time.Time{}, fmt.Errorf("time field out of range: %q", s)
	}
	secStr, fracStr, _ := strings.Cut(rest, ".")
	ss, err := strconv.Atoi(secStr)
	if err != nil || ss < 0 || ss > 60 {
		return time.Time{}, fmt.Errorf("malformed seconds in time %q", s)
	}
	nsec := 0
	if fracStr != "" {
		for len(fracStr) < 9 {
			fracStr += "0"
		}
		nsec, _ = strconv.Atoi(fracStr[:9])
	}
	return time.Date(0, 1, 1, hh, mm, ss, nsec, time.UTC), nil
}

// ---- time with time zone ----

func decodeTimeTzBinary(src []byte) (any, error) {
	if len(src) != 12 {
		return nil, &DecodeError{OID: TimeTzOID, Format: 1, Reason: "expected 12 bytes"}
	}
	rest, usec := pgio.NextInt64(src)
	_, offsetSec := pgio.NextInt32(rest)
	if usec < 0 || usec >= usecsPerDay {
		return nil, &DecodeError{OID: TimeTzOID, Format: 1, Reason: "time of day out of range"}
	}
	loc := time.FixedZone("", int(offsetSec))
	clock := usecToClock(usec)
	return time.Date(0, 1, 1, clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), loc), nil
}

func decodeTimeTzText(src []byte) (any, error) {
	s := string(src)
	idx := strings.IndexAny(s, "+-")
	if idx < 0 {
		return nil, &DecodeError{OID: TimeTzOID, Reason: "missing time zone offset"}
	}
	clock, err := parseClockText(s[:idx])
	if err != nil {
		return nil, &DecodeError{OID: TimeTzOID, Reason: "invalid timetz text", Err: err}
	}
	offSec, err := parseTzOffsetSeconds(s[idx:])
	if err != nil {
		return nil, &DecodeError{OID: TimeTzOID, Reason: "invalid timetz offset", Err: err}
	}
	loc := time.FixedZone("", offSec)
	return time.Date(0, 1, 1, clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), loc), nil
}

func parseTzOffsetSeconds(s string) (int, error) {
	sign := 1
	if strings.HasPrefix(s, "-") {
		sign = -1
	}
	s = strings.TrimPrefix(strings.TrimPrefix(s, "+"), "-")
	parts := strings.Split(s, ":")
	hh, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	mm := 0
	if len(parts) > 1 {
		mm, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, err
		}
	}
	return sign * (hh*3600 + mm*60), nil
}

// ---- timestamp (no time zone) ----

// decodeTimestampBinary splits the microsecond count by USECS_PER_DAY per
// §4.2, carrying the time-of-day forward when the remainder is negative
// (i.e. the instant falls before pgEpoch).
func decodeTimestampBinary(src []byte) (any, error) {
	if len(src) != 8 {
		return nil, &DecodeError{OID: TimestampOID, Format: 1, Reason: "expected 8 bytes"}
	}
	_, usec := pgio.NextInt64(src)
	switch usec {
	case 0x7FFFFFFFFFFFFFFF:
		return "infinity", nil
	case -0x7FFFFFFFFFFFFFFF - 1:
		return "-infinity", nil
	}
	days := usec / usecsPerDay
	rem := usec % usecsPerDay
	if rem < 0 {
		rem += usecsPerDay
		days--
	}
	date := pgEpoch.AddDate(0, 0, int(days))
	clock := usecToClock(rem)
	t := time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), time.UTC)
	if y := t.Year(); y < 1 {
		return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d BC", 1-y, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second()), nil
	}
	return t, nil
}

func decodeTimestampText(src []byte) (any, error) {
	s := string(src)
	switch s {
	case "infinity", "-infinity":
		return s, nil
	}
	t, err := time.Parse("2006-01-02 15:04:05.999999999", strings.TrimSuffix(s, " BC"))
	if err != nil {
		return nil, &DecodeError{OID: TimestampOID, Reason: "invalid timestamp text", Err: err}
	}
	if strings.HasSuffix(s, " BC") || t.Year() < 1 {
		return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d BC", 1-t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second()), nil
	}
	return t, nil
}

// ---- timestamp with time zone ----

// decodeTimestampTzBinary treats the payload as UTC microseconds. Per
// Open question (a)'s SPEC_FULL decision, any failure resolving the
// session time zone falls back to UTC — never to an ISO string on the
// binary path, since there is no textual representation to fall back to
// here in the first place.
func decodeTimestampTzBinary(src []byte, zone *time.Location) (any, error) {
	if len(src) != 8 {
		return nil, &DecodeError{OID: TimestampTzOID, Format: 1, Reason: "expected 8 bytes"}
	}
	_, usec := pgio.NextInt64(src)
	switch usec {
	case 0x7FFFFFFFFFFFFFFF:
		return "infinity", nil
	case -0x7FFFFFFFFFFFFFFF - 1:
		return "-infinity", nil
	}
	days := usec / usecsPerDay
	rem := usec % usecsPerDay
	if rem < 0 {
		rem += usecsPerDay
		days--
	}
	date := pgEpoch.AddDate(0, 0, int(days))
	clock := usecToClock(rem)
	t := time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), time.UTC)
	if zone == nil || t.Year() < 1 || t.Year() > 9999 {
		return t, nil
	}
	return t.In(zone), nil
}

func decodeTimestampTzText(src []byte) (any, error) {
	s := string(src)
	switch s {
	case "infinity", "-infinity":
		return s, nil
	}
	layouts := []string{"2006-01-02 15:04:05.999999999Z07:00", "2006-01-02 15:04:05.999999999Z07"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, &DecodeError{OID: TimestampTzOID, Reason: fmt.Sprintf("invalid timestamptz text %q", s)}
}

// ---- interval ----

type Interval struct {
	Microseconds int64
	Days         int32
	Months       int32
}

func decodeIntervalBinary(src []byte) (any, error) {
	if len(src) != 16 {
		return nil, &DecodeError{OID: IntervalOID, Format: 1, Reason: "expected 16 bytes"}
	}
	rest, usec := pgio.NextInt64(src)
	rest, days := pgio.NextInt32(rest)
	_, months := pgio.NextInt32(rest)
	return Interval{Microseconds: usec, Days: days, Months: months}, nil
}

func decodeIntervalText(src []byte) (any, error) {
	// PostgreSQL's interval output is returned as the server's raw text;
	// it is not parsed into an Interval (only the binary form is).
	return string(src), nil
}

// ---- parameter encoder ----

// encodeTime dispatches the date/time-shaped parameter encoders described
// in §4.5's table: naive and zoned time.Time, and the Interval struct.
func encodeTime(val any) (oid uint32, format int16, payload []byte, ok bool, err error) {
	switch v := val.(type) {
	case Interval:
		buf := pgio.AppendInt64(nil, v.Microseconds)
		buf = pgio.AppendInt32(buf, v.Days)
		buf = pgio.AppendInt32(buf, v.Months)
		return IntervalOID, 1, buf, true, nil
	case time.Time:
		return encodeGoTime(v)
	default:
		return 0, 0, nil, false, nil
	}
}

// encodeGoTime decides, from the date and clock fields, which of
// date/time/timetz/timestamp/timestamptz a bare time.Time represents: a
// value dated year 0, January 1 (the shape the time decoders produce) is a
// time when its location is UTC and a timetz otherwise; any other UTC value
// is a date when its time-of-day is zero and a timestamp when it is not; a
// value in any other location is a timestamptz.
func encodeGoTime(t time.Time) (oid uint32, format int16, payload []byte, ok bool, err error) {
	isBareDate := t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
	isBareTime := t.Year() == 0 && t.Month() == 1 && t.Day() == 1

	switch {
	case isBareTime:
		_, offset := t.Zone()
		usec := int64(t.Hour())*3600e6 + int64(t.Minute())*60e6 + int64(t.Second())*1e6 + int64(t.Nanosecond())/1000
		if offset == 0 && t.Location() == time.UTC {
			return TimeOID, 1, pgio.AppendInt64(nil, usec), true, nil
		}
		buf := pgio.AppendInt64(nil, usec)
		buf = pgio.AppendInt32(buf, int32(-offset))
		return TimeTzOID, 1, buf, true, nil
	case isBareDate && t.Location() == time.UTC:
		days := int32(t.Sub(pgEpoch).Hours() / 24)
		return DateOID, 1, pgio.AppendInt32(nil, days), true, nil
	case t.Location() == time.UTC:
		usec := t.Sub(pgEpoch).Microseconds()
		return TimestampOID, 1, pgio.AppendInt64(nil, usec), true, nil
	default:
		usec := t.UTC().Sub(pgEpoch).Microseconds()
		return TimestampTzOID, 1, pgio.AppendInt64(nil, usec), true, nil
	}
}
