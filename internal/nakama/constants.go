package nakama

// BackendName labels retries and metrics for the Nakama storage backend.
const BackendName = "nakama"

// Storage layout
const (
	CollectionLedger  = "ledger"
	KeyAccount        = "account"
	CollectionCoupons = "ledger_coupons"

	// SystemUserID owns global objects such as coupons.
	SystemUserID = "00000000-0000-0000-0000-000000000000"

	// versionAbsent makes a write succeed only if the object does not exist yet.
	versionAbsent = "*"
)

// Runtime env keys read by InitModule.
const (
	EnvCatalog  = "LEDGER_CATALOG"
	EnvTimezone = "LEDGER_TIMEZONE"
	EnvRetries  = "LEDGER_RETRY_ATTEMPTS"
)

// gRPC status codes understood by Nakama clients.
const (
	codeNotFound        = 5
	codeInternal        = 13
	codeUnavailable     = 14
	codeUnauthenticated = 16
)

// Error messages
const (
	ErrMsgReadAccountFailed   = "failed to read account object"
	ErrMsgWriteAccountFailed  = "failed to write account object"
	ErrMsgDecodeAccountFailed = "failed to decode account object"
	ErrMsgEncodeAccountFailed = "failed to encode account object"
	ErrMsgReadCouponFailed    = "failed to read coupon object"
	ErrMsgDecodeCouponFailed  = "failed to decode coupon object"
	ErrMsgEncodeCouponFailed  = "failed to encode coupon object"
	ErrMsgNoSession           = "no user session"
	ErrMsgUnknownRPC          = "unknown rpc"
	ErrMsgEncodeResponse      = "failed to encode response"
	ErrMsgStorageUnavailable  = "ledger storage unavailable"
	ErrMsgLoadCatalogFailed   = "failed to load catalog"
	ErrMsgInvalidTimezone     = "invalid timezone"
	ErrMsgRegisterRPCFailed   = "failed to register rpc %s: %w"

	// Substring Nakama uses when a conditional write loses its version check.
	versionCheckFailed = "version check failed"
)

// Log messages
const (
	LogMsgModuleLoaded    = "Ledger module loaded"
	LogMsgSeedFailed      = "Failed to seed coupons"
	LogMsgRPCTransport    = "Ledger RPC failed"
	LogMsgVersionConflict = "Ledger storage version conflict"
)
