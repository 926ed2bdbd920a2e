package handler

// Generic HTTP error messages for client responses.
// These messages intentionally do not expose internal error details for security reasons.
// Both handlers and tests should reference these constants to maintain consistency.
const (
	// HTTP status messages
	ErrMsgMethodNotAllowed      = "Method not allowed"
	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Invalid request"

	// RPC error messages
	ErrMsgUnknownRPC      = "Unknown RPC"
	ErrMsgMissingSession  = "Missing session"
	ErrMsgPayloadTooLarge = "Request body too large"

	// Authentication error messages
	ErrMsgAuthenticateFailed = "Failed to authenticate"
)

// Log messages
const (
	LogMsgRPCFailed            = "RPC failed"
	LogMsgAuthenticateRejected = "Authentication rejected"
	LogMsgSessionIssued        = "Session issued"
	LogMsgReadinessFailed      = "Readiness check failed"
)
