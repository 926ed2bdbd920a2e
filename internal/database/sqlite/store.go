// Package sqlite persists the local ledger mirror between sessions.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/osse101/playerledger/internal/database"
	"github.com/osse101/playerledger/internal/domain"
	"github.com/osse101/playerledger/internal/ledger"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store is a SQLite-backed ledger.Store.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite store at the provided path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New(ErrMsgPathRequired)
	}

	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgOpenFailed, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%s: %w", ErrMsgPingFailed, err)
	}

	fsys, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%s: %w", ErrMsgMigrateFailed, err)
	}
	if err := database.Migrate(ctx, sqlDB, goose.DialectSQLite3, fsys); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%s: %w", ErrMsgMigrateFailed, err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Load implements ledger.Store.
func (s *Store) Load(ctx context.Context, accountID string) (*domain.Account, error) {
	if s == nil || s.sqlDB == nil {
		return nil, errors.New(ErrMsgStoreUnavailable)
	}
	acc := domain.NewAccount(accountID)

	var sessions, createdAt, updatedAt string
	err := s.sqlDB.QueryRowContext(ctx, queryGetAccount, accountID).Scan(&sessions, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgLoadFailed, err)
	}
	if err := json.Unmarshal([]byte(sessions), &acc.Sessions); err != nil {
		return nil, fmt.Errorf("%s: sessions: %w", ErrMsgLoadFailed, err)
	}
	if len(acc.Sessions) == 0 {
		acc.Sessions = nil
	}
	if acc.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgLoadFailed, err)
	}
	if acc.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgLoadFailed, err)
	}

	loaders := []func(context.Context, *domain.Account) error{
		s.loadBalances, s.loadEntitlements, s.loadItems, s.loadTracks,
		s.loadLevels, s.loadBattlePass, s.loadQuests,
	}
	for _, load := range loaders {
		if err := load(ctx, acc); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgLoadFailed, err)
		}
	}
	return acc, nil
}

// Save implements ledger.Store. The stored mirror is replaced as a whole.
func (s *Store) Save(ctx context.Context, acc *domain.Account) error {
	if s == nil || s.sqlDB == nil {
		return errors.New(ErrMsgStoreUnavailable)
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgSaveFailed, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := saveAccount(ctx, tx, acc); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgSaveFailed, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgSaveFailed, err)
	}
	return nil
}

func saveAccount(ctx context.Context, tx *sql.Tx, acc *domain.Account) error {
	sessions, err := json.Marshal(nonNil(acc.Sessions))
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, queryUpsertAccount, acc.ID, string(sessions), formatTime(acc.CreatedAt), formatTime(acc.UpdatedAt)); err != nil {
		return err
	}
	for _, table := range accountTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE account_id = ?", acc.ID); err != nil {
			return err
		}
	}

	for currency, amount := range acc.Balances {
		if _, err := tx.ExecContext(ctx, queryInsertBalance, acc.ID, currency, amount); err != nil {
			return err
		}
	}
	for _, e := range acc.Entitlements {
		if _, err := tx.ExecContext(ctx, queryInsertEntitlement, acc.ID, string(e.Kind), e.TemplateID, formatTime(e.GrantedAt)); err != nil {
			return err
		}
	}
	for _, it := range acc.Items {
		upgrades, err := json.Marshal(nonNil(it.UpgradeLevels))
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, queryInsertItem, it.UniqueID, acc.ID, it.TemplateID, it.Level, string(upgrades), formatTime(it.CreatedAt)); err != nil {
			return err
		}
	}
	for _, t := range acc.Tracks {
		claimed, err := json.Marshal(t.Claimed)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, queryInsertTrack, acc.ID, string(t.Kind), formatTime(t.AnchorDate), formatTime(t.LastClaimDate), string(claimed)); err != nil {
			return err
		}
	}
	for _, p := range acc.Levels {
		if _, err := tx.ExecContext(ctx, queryInsertLevel, acc.ID, string(p.Axis), p.SubjectID, p.Level, p.Exp); err != nil {
			return err
		}
	}
	bp := acc.BattlePass
	claimed, err := json.Marshal(bp.Claimed)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, queryInsertBattlePass, acc.ID, bp.Progress.Level, bp.Progress.Exp, bp.Premium, string(claimed), bp.Claimed.Bound()); err != nil {
		return err
	}
	for _, q := range acc.Quests {
		if _, err := tx.ExecContext(ctx, queryInsertQuest, acc.ID, q.QuestID, string(q.Kind), q.Progress, q.Completed, q.Completions); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadBalances(ctx context.Context, acc *domain.Account) error {
	rows, err := s.sqlDB.QueryContext(ctx, queryGetBalances, acc.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var currency string
		var amount int64
		if err := rows.Scan(&currency, &amount); err != nil {
			return err
		}
		acc.Balances[currency] = amount
	}
	return rows.Err()
}

func (s *Store) loadEntitlements(ctx context.Context, acc *domain.Account) error {
	rows, err := s.sqlDB.QueryContext(ctx, queryGetEntitlements, acc.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var kind, templateID, grantedAt string
		if err := rows.Scan(&kind, &templateID, &grantedAt); err != nil {
			return err
		}
		e := domain.Entitlement{Kind: domain.RewardKind(kind), TemplateID: templateID}
		if e.GrantedAt, err = parseTime(grantedAt); err != nil {
			return err
		}
		acc.Entitlements[e.Key()] = e
	}
	return rows.Err()
}

func (s *Store) loadItems(ctx context.Context, acc *domain.Account) error {
	rows, err := s.sqlDB.QueryContext(ctx, queryGetItems, acc.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.InventoryItemInstance
		var upgrades, createdAt string
		if err := rows.Scan(&it.UniqueID, &it.TemplateID, &it.Level, &upgrades, &createdAt); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(upgrades), &it.UpgradeLevels); err != nil {
			return err
		}
		if it.CreatedAt, err = parseTime(createdAt); err != nil {
			return err
		}
		acc.Items[it.UniqueID] = it
	}
	return rows.Err()
}

func (s *Store) loadTracks(ctx context.Context, acc *domain.Account) error {
	rows, err := s.sqlDB.QueryContext(ctx, queryGetTracks, acc.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var kind, anchor, lastClaim, claimed string
		if err := rows.Scan(&kind, &anchor, &lastClaim, &claimed); err != nil {
			return err
		}
		t := domain.RewardTrack{Kind: domain.TrackKind(kind)}
		if t.AnchorDate, err = parseTime(anchor); err != nil {
			return err
		}
		if t.LastClaimDate, err = parseTime(lastClaim); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(claimed), &t.Claimed); err != nil {
			return err
		}
		acc.Tracks[t.Kind] = t
	}
	return rows.Err()
}

func (s *Store) loadLevels(ctx context.Context, acc *domain.Account) error {
	rows, err := s.sqlDB.QueryContext(ctx, queryGetLevels, acc.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var axis string
		p := domain.LevelProgress{}
		if err := rows.Scan(&axis, &p.SubjectID, &p.Level, &p.Exp); err != nil {
			return err
		}
		p.Axis = domain.LevelAxis(axis)
		acc.Levels[p.Key()] = p
	}
	return rows.Err()
}

func (s *Store) loadBattlePass(ctx context.Context, acc *domain.Account) error {
	var (
		level   int
		exp     int64
		premium bool
		claimed string
		bound   int
	)
	err := s.sqlDB.QueryRowContext(ctx, queryGetBattlePass, acc.ID).Scan(&level, &exp, &premium, &claimed, &bound)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	set := domain.NewBoundedClaimedSet(bound)
	if err := json.Unmarshal([]byte(claimed), &set); err != nil {
		return err
	}
	acc.BattlePass = domain.BattlePassProgress{
		Progress: domain.LevelProgress{Axis: domain.AxisBattlePass, Level: level, Exp: exp},
		Premium:  premium,
		Claimed:  set,
	}
	return nil
}

func (s *Store) loadQuests(ctx context.Context, acc *domain.Account) error {
	rows, err := s.sqlDB.QueryContext(ctx, queryGetQuests, acc.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		q := domain.QuestProgress{}
		if err := rows.Scan(&q.QuestID, &kind, &q.Progress, &q.Completed, &q.Completions); err != nil {
			return err
		}
		q.Kind = domain.QuestKind(kind)
		acc.Quests[q.QuestID] = q
	}
	return rows.Err()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t.UTC(), nil
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

var _ ledger.Store = (*Store)(nil)
