package postgres

// PostgreSQL Error Codes
const (
	// PgErrorCodeUniqueViolation is the PostgreSQL error code for unique constraint violations
	PgErrorCodeUniqueViolation = "23505"
	// PgErrorCodeSerializationFailure is raised when a transaction cannot be serialized
	PgErrorCodeSerializationFailure = "40001"
	// PgErrorCodeDeadlockDetected is raised when the transaction was chosen as a deadlock victim
	PgErrorCodeDeadlockDetected = "40P01"
	// PgErrorCodeCheckViolation is raised when a CHECK constraint fails
	PgErrorCodeCheckViolation = "23514"
)

// BackendName labels retry metrics and logs
const BackendName = "postgres"

// Error Messages - Transaction Operations
const (
	ErrMsgFailedToBeginTransaction  = "failed to begin transaction"
	ErrMsgFailedToCommitTransaction = "failed to commit transaction"
	ErrMsgFailedToLockAccount       = "failed to lock account"
	ErrMsgFailedToLoadAccount       = "failed to load account"
	ErrMsgFailedToSaveAccount       = "failed to save account"
	ErrMsgFailedToLoadCoupon        = "failed to load coupon"
	ErrMsgFailedToSaveCoupon        = "failed to save coupon"
)

// Account queries
const (
	queryEnsureAccount = `INSERT INTO accounts (account_id) VALUES ($1) ON CONFLICT (account_id) DO NOTHING`

	queryLockAccount = `SELECT sessions, created_at, updated_at FROM accounts WHERE account_id = $1 FOR UPDATE`

	queryGetAccount = `SELECT sessions, created_at, updated_at FROM accounts WHERE account_id = $1`

	queryUpdateAccount = `UPDATE accounts SET sessions = $2, created_at = $3, updated_at = $4 WHERE account_id = $1`
)

// Substructure queries
const (
	queryGetBalances = `SELECT currency, amount FROM currency_balances WHERE account_id = $1`

	queryUpsertBalance = `
		INSERT INTO currency_balances (account_id, currency, amount) VALUES ($1, $2, $3)
		ON CONFLICT (account_id, currency) DO UPDATE SET amount = EXCLUDED.amount`

	queryGetEntitlements = `SELECT kind, template_id, granted_at FROM entitlements WHERE account_id = $1`

	queryInsertEntitlement = `
		INSERT INTO entitlements (account_id, kind, template_id, granted_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id, kind, template_id) DO NOTHING`

	queryGetItems = `
		SELECT unique_id, template_id, level, upgrade_levels, created_at
		FROM inventory_items WHERE account_id = $1`

	queryUpsertItem = `
		INSERT INTO inventory_items (unique_id, account_id, template_id, level, upgrade_levels, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (unique_id) DO UPDATE SET level = EXCLUDED.level, upgrade_levels = EXCLUDED.upgrade_levels`

	queryGetTracks = `SELECT kind, anchor_date, last_claim_date, claimed FROM reward_tracks WHERE account_id = $1`

	queryUpsertTrack = `
		INSERT INTO reward_tracks (account_id, kind, anchor_date, last_claim_date, claimed) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id, kind) DO UPDATE SET
			anchor_date = EXCLUDED.anchor_date,
			last_claim_date = EXCLUDED.last_claim_date,
			claimed = EXCLUDED.claimed`

	queryGetLevels = `SELECT axis, subject_id, level, exp FROM level_progress WHERE account_id = $1`

	queryUpsertLevel = `
		INSERT INTO level_progress (account_id, axis, subject_id, level, exp) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id, axis, subject_id) DO UPDATE SET level = EXCLUDED.level, exp = EXCLUDED.exp`

	queryGetBattlePass = `
		SELECT level, exp, premium, claimed, claimed_bound FROM battle_pass_progress WHERE account_id = $1`

	queryUpsertBattlePass = `
		INSERT INTO battle_pass_progress (account_id, level, exp, premium, claimed, claimed_bound)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (account_id) DO UPDATE SET
			level = EXCLUDED.level,
			exp = EXCLUDED.exp,
			premium = EXCLUDED.premium,
			claimed = EXCLUDED.claimed,
			claimed_bound = EXCLUDED.claimed_bound`

	queryGetQuests = `
		SELECT quest_id, kind, progress, completed, completions FROM quest_progress WHERE account_id = $1`

	queryUpsertQuest = `
		INSERT INTO quest_progress (account_id, quest_id, kind, progress, completed, completions)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (account_id, quest_id) DO UPDATE SET
			progress = EXCLUDED.progress,
			completed = EXCLUDED.completed,
			completions = EXCLUDED.completions`
)

// Coupon queries
const (
	queryLockCoupon = `SELECT reward, used, redeemed_by, redeemed_at FROM coupons WHERE code = $1 FOR UPDATE`

	// The WHERE guard turns a lost race on a code first seen from the catalog into zero rows.
	queryRedeemCoupon = `
		INSERT INTO coupons (code, reward, used, redeemed_by, redeemed_at) VALUES ($1, $2, TRUE, $3, $4)
		ON CONFLICT (code) DO UPDATE SET used = TRUE, redeemed_by = EXCLUDED.redeemed_by, redeemed_at = EXCLUDED.redeemed_at
		WHERE coupons.used = FALSE`

	querySeedCoupon = `INSERT INTO coupons (code, reward) VALUES ($1, $2) ON CONFLICT (code) DO NOTHING`
)
