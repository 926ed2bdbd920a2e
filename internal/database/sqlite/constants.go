package sqlite

import "time"

const timeFormat = time.RFC3339Nano

// Error Messages
const (
	ErrMsgPathRequired     = "storage path is required"
	ErrMsgOpenFailed       = "open sqlite db"
	ErrMsgPingFailed       = "ping sqlite db"
	ErrMsgMigrateFailed    = "run migrations"
	ErrMsgLoadFailed       = "failed to load local ledger"
	ErrMsgSaveFailed       = "failed to save local ledger"
	ErrMsgStoreUnavailable = "storage is not configured"
)

const (
	queryGetAccount = `SELECT sessions, created_at, updated_at FROM accounts WHERE account_id = ?`

	queryUpsertAccount = `
		INSERT INTO accounts (account_id, sessions, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (account_id) DO UPDATE SET
			sessions = excluded.sessions,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`

	queryGetBalances       = `SELECT currency, amount FROM currency_balances WHERE account_id = ?`
	queryInsertBalance     = `INSERT INTO currency_balances (account_id, currency, amount) VALUES (?, ?, ?)`
	queryGetEntitlements   = `SELECT kind, template_id, granted_at FROM entitlements WHERE account_id = ?`
	queryInsertEntitlement = `INSERT INTO entitlements (account_id, kind, template_id, granted_at) VALUES (?, ?, ?, ?)`
	queryGetItems          = `SELECT unique_id, template_id, level, upgrade_levels, created_at FROM inventory_items WHERE account_id = ?`
	queryInsertItem        = `INSERT INTO inventory_items (unique_id, account_id, template_id, level, upgrade_levels, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	queryGetTracks         = `SELECT kind, anchor_date, last_claim_date, claimed FROM reward_tracks WHERE account_id = ?`
	queryInsertTrack       = `INSERT INTO reward_tracks (account_id, kind, anchor_date, last_claim_date, claimed) VALUES (?, ?, ?, ?, ?)`
	queryGetLevels         = `SELECT axis, subject_id, level, exp FROM level_progress WHERE account_id = ?`
	queryInsertLevel       = `INSERT INTO level_progress (account_id, axis, subject_id, level, exp) VALUES (?, ?, ?, ?, ?)`
	queryGetBattlePass     = `SELECT level, exp, premium, claimed, claimed_bound FROM battle_pass WHERE account_id = ?`
	queryInsertBattlePass  = `INSERT INTO battle_pass (account_id, level, exp, premium, claimed, claimed_bound) VALUES (?, ?, ?, ?, ?, ?)`
	queryGetQuests         = `SELECT quest_id, kind, progress, completed, completions FROM quest_progress WHERE account_id = ?`
	queryInsertQuest       = `INSERT INTO quest_progress (account_id, quest_id, kind, progress, completed, completions) VALUES (?, ?, ?, ?, ?, ?)`
)

// Tables holding per-account rows, cleared before each save.
var accountTables = []string{
	"currency_balances",
	"entitlements",
	"inventory_items",
	"reward_tracks",
	"level_progress",
	"battle_pass",
	"quest_progress",
}
