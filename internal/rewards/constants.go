package rewards

// Log messages
const (
	LogMsgRejectedLocally = "Ledger operation rejected locally"
	LogMsgRemoteRejected  = "Ledger operation rejected remotely"
	LogMsgApplied         = "Ledger delta applied"
	LogMsgLocalSaveFailed = "Failed to persist local ledger"
)

// OpValidateCoupon names a coupon code rejected before submission
const OpValidateCoupon = "validate_coupon"
