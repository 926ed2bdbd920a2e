package economy

// ==================== Configuration ====================

const (
	// CatalogSchemaName is the name the catalog schema is registered under
	CatalogSchemaName = "economy.schema.json"

	// MaxRecentSessions bounds the per-account list of processed game session ids
	MaxRecentSessions = 32
)

// ==================== Operation Names ====================

// Operation names reported on tagged errors and in logs
const (
	OpProvision       = "provision"
	OpClaimDaily      = "claim_daily"
	OpClaimNewPlayer  = "claim_new_player"
	OpClaimBattlePass = "claim_battle_pass"
	OpUnlockPremium   = "unlock_premium"
	OpAddAccountExp   = "add_account_exp"
	OpAddCharExp      = "add_character_exp"
	OpAddMasteryExp   = "add_mastery_exp"
	OpCompleteSession = "complete_session"
	OpRedeemCoupon    = "redeem_coupon"
	OpPurchaseOffer   = "purchase_offer"
	OpUpgradeItem     = "upgrade_item"
)

// ==================== Error Messages ====================

const (
	ErrMsgReadCatalogFailed     = "failed to read catalog file: %w"
	ErrMsgParseCatalogFailed    = "failed to parse catalog: %w"
	ErrMsgCatalogSchemaFailed   = "schema validation failed for %s: %w"
	ErrMsgCatalogInvalid        = "invalid catalog: %w"
	ErrMsgRegisterSchemaFailed  = "failed to register catalog schema: %w"
	ErrMsgMissingTrack          = "catalog has no rewards for track %q"
	ErrMsgDuplicateCoupon       = "duplicate coupon code %q"
	ErrMsgBattlePassLevelOrder  = "battle pass reward %d unlocks below reward %d"
	ErrMsgUnknownItemTemplate   = "item template %q is not defined"
	ErrMsgCharacterRequired     = "character id is required"
	ErrMsgSessionAlreadyApplied = "session %s already applied"
)

// ==================== Log Messages ====================

const (
	LogMsgCatalogLoaded   = "Economy catalog loaded"
	LogMsgTrackReset      = "Reward track cycle reset"
	LogMsgAccountProvided = "Account provisioned"
)
