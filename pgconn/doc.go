// Package pgconn implements the PostgreSQL wire-protocol engine for a
// single connection: startup and authentication, the Simple/Extended Query
// state machine, session parameter tracking, and the prepared-statement
// cache's integration with the protocol flow (§2, §4.3, §4.4).
//
// The engine performs no I/O. A caller drives it with WriteRegion, Advance
// and Drain on the receive side and writes whatever Drain or BuildExecute
// return to the transport. Dialing, TLS, connection-string parsing, the
// SASL/SCRAM exchange proper, and the high-level row-iteration API are all
// named external collaborators (§1) that live outside this package.
package pgconn
