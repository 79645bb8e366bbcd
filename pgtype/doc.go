// Package pgtype maps PostgreSQL type OIDs to pairs of decode functions,
// one per wire format, plus a parameter encoder dispatched by Go value
// shape. Unlike a scan-plan-based codec, a pgtype.Codec is nothing more
// than two function pointers: callers that need a Go value ask the
// registry for the pair that matches a column's OID and format, then call
// it directly against the row's raw bytes.
package pgtype
