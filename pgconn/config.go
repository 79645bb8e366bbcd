package pgconn

// StartupConfig is the subset of connection configuration the core engine
// itself consumes. Everything about reaching the server — host/port or
// Unix socket path, TLS, connection-string parsing and its environment
// fallbacks — is the out-of-scope transport collaborator's concern; the
// facade resolves all of that before handing the engine a StartupConfig
// and an already-connected transport.
type StartupConfig struct {
	// User is sent as the startup message's mandatory "user" parameter.
	User string

	// Database, if non-empty, is sent as the startup message's
	// "database" parameter.
	Database string

	// ExtraParameters are additional startup parameters (e.g.
	// application_name, search_path) copied verbatim into the startup
	// message.
	ExtraParameters map[string]string

	// Password authenticates a cleartext, MD5, or SCRAM challenge. It is
	// never sent unless the server actually requests one.
	Password string

	// NewScramExchanger creates the ScramExchanger used to answer an
	// AuthenticationSASL challenge naming "SCRAM-SHA-256". Required only
	// if the server may request SCRAM; the core never constructs one on
	// its own, keeping the SASL/SCRAM exchange proper an external
	// collaborator (§1).
	NewScramExchanger func(password string) ScramExchanger

	// CacheSize bounds the prepared-statement cache (§4.3); 0 disables
	// caching entirely.
	CacheSize int

	// PrepareThreshold is the execution count a cached statement must
	// reach before it is promoted to a named, server-prepared statement;
	// 0 disables promotion.
	PrepareThreshold int

	// RawResult makes every column decode to its raw bytes, bypassing
	// the type codec registry, matching the original's raw_result mode
	// (§4.4, SPEC_FULL's SetRawResult toggle default).
	RawResult bool
}
