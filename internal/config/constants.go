package config

// Backends the server can run the Transaction Executor on.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Hosts the ledger protocol can be served from.
const (
	HostHTTP   = "http"
	HostNakama = "nakama"
)

// Error messages
const (
	ErrMsgParseEnv         = "failed to parse environment"
	ErrMsgInvalidConfig    = "invalid configuration"
	ErrMsgInvalidTimeZone  = "invalid LEDGER_TIMEZONE"
	ErrMsgSecretTooShort   = "SESSION_SECRET must be at least 16 characters"
	ErrMsgAPIKeyRequired   = "API_KEY environment variable must be set for security"
	ErrMsgSchemaNotSet     = "ENV_SCHEMA_VERSION is not set - please update your .env file to include this field (expected: %s)"
	ErrMsgSchemaMismatch   = "ENV_SCHEMA_VERSION mismatch: expected %s, got %s - your .env file may be outdated"
	ErrMsgMissingRequired  = "missing required environment variables: %s"
	WarnMsgExamplePassword = "DB_PASSWORD appears to be using the example value - please use a secure password"
	WarnMsgExampleAPIKey   = "API_KEY appears to be using the example value - generate a secure key with: openssl rand -hex 32"
	WarnMsgExampleSecret   = "SESSION_SECRET appears to be using the example value - generate one with: openssl rand -hex 32"
)

// Example values shipped in .env.example
const (
	ExamplePassword = "change_this_secure_password"
	ExampleAPIKey   = "generate_with_openssl_rand_hex_32"
	ExampleSecret   = "generate_with_openssl_rand_hex_32"
)
