// Package pgio provides the low-level byte-order primitives shared by the
// rest of the engine: appenders that grow a message buffer in PostgreSQL
// wire format (network byte order) and readers that consume fixed-width
// fields from a decoded payload.
//
// Every value on the wire that isn't a raw byte string is either a
// big-endian integer or a null-terminated C string; this package is the
// one place that encodes that fact.
package pgio
