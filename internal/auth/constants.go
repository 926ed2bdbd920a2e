package auth

import "time"

// Defaults
const (
	DefaultSessionTTL  = 2 * time.Hour
	DefaultCacheSize   = 4096
	DefaultClockSkew   = 30 * time.Second
	DefaultIssuer      = "player-ledger"
	MinSecretLength    = 16
	CacheSchemaVersion = "1.0"
)

// Error Messages
const (
	ErrMsgSecretTooShort   = "session secret must be at least 16 bytes"
	ErrMsgInvalidAPIKey    = "invalid api key"
	ErrMsgInvalidToken     = "invalid session token"
	ErrMsgMissingAccountID = "session token has no account id"
	ErrMsgSigningFailed    = "failed to sign session token"
)
