// Package postgres implements the authoritative account store on PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/playerledger/internal/backend"
	"github.com/osse101/playerledger/internal/domain"
	"github.com/osse101/playerledger/internal/economy"
)

// Store is a backend.Store backed by PostgreSQL. Every Update holds a row lock on the
// account for the whole transaction, so concurrent operations on one account serialize.
type Store struct {
	db    *pgxpool.Pool
	retry backend.RetryPolicy
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithRetryPolicy sets the retry policy for serialization failures and deadlocks.
func WithRetryPolicy(p backend.RetryPolicy) Option {
	return func(s *Store) {
		s.retry = p
	}
}

// NewStore creates a Store.
func NewStore(db *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{db: db, retry: backend.DefaultRetryPolicy(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Update implements backend.Store.
func (s *Store) Update(ctx context.Context, accountID string, fn backend.UpdateFunc) (*domain.Account, error) {
	var result *domain.Account
	err := s.retry.Do(ctx, BackendName, isRetryable, func() error {
		acc, err := s.update(ctx, accountID, fn)
		if err != nil {
			return err
		}
		result = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) update(ctx context.Context, accountID string, fn backend.UpdateFunc) (*domain.Account, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}
	defer SafeRollback(ctx, tx)

	if _, err := tx.Exec(ctx, queryEnsureAccount, accountID); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToLockAccount, err)
	}
	acc := domain.NewAccount(accountID)
	if _, err := loadAccountRow(ctx, tx, queryLockAccount, acc); err != nil {
		return nil, err
	}
	if err := loadAccount(ctx, tx, acc); err != nil {
		return nil, err
	}

	coupons := &txCoupons{tx: tx}
	changes, err := fn(ctx, acc, coupons)
	if err != nil {
		return nil, err
	}
	acc.UpdatedAt = s.now().UTC()
	if err := persistChanges(ctx, tx, acc, changes); err != nil {
		return nil, err
	}
	if changes.Coupon != nil {
		if err := coupons.redeem(ctx, *changes.Coupon); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToCommitTransaction, err)
	}
	return acc, nil
}

// Snapshot implements backend.Store. Unknown accounts yield a snapshot with every part absent.
func (s *Store) Snapshot(ctx context.Context, accountID string) (*domain.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}
	defer SafeRollback(ctx, tx)

	acc := domain.NewAccount(accountID)
	found, err := loadAccountRow(ctx, tx, queryGetAccount, acc)
	if err != nil {
		return nil, err
	}
	if !found {
		return &domain.Snapshot{AccountID: accountID}, nil
	}
	if err := loadAccount(ctx, tx, acc); err != nil {
		return nil, err
	}
	return domain.SnapshotOf(acc), nil
}

// FetchSubstructure implements backend.SubstructureFetcher by reading only the tables of part.
func (s *Store) FetchSubstructure(ctx context.Context, accountID string, part domain.Part) (*domain.Snapshot, error) {
	load, ok := partLoaders[part]
	if !ok {
		return nil, domain.Validation("fetch_substructure", domain.ReasonGenericError, fmt.Errorf("%w: %q", domain.ErrUnsupportedPart, part))
	}
	acc := domain.NewAccount(accountID)
	found, err := loadAccountRow(ctx, s.db, queryGetAccount, acc)
	if err != nil {
		return nil, err
	}
	if !found {
		return &domain.Snapshot{AccountID: accountID}, nil
	}
	if err := load(ctx, s.db, acc); err != nil {
		return nil, err
	}
	return domain.SnapshotOf(acc).Only(part), nil
}

// SeedCoupons registers catalog coupons so they can be inspected before first redemption.
// Existing rows, used or not, are left untouched.
func (s *Store) SeedCoupons(ctx context.Context, coupons []domain.Coupon) error {
	for _, c := range coupons {
		reward, err := json.Marshal(c.Reward)
		if err != nil {
			return fmt.Errorf("failed to marshal coupon reward: %w", err)
		}
		if _, err := s.db.Exec(ctx, querySeedCoupon, c.Code, reward); err != nil {
			return fmt.Errorf("%s: %w", ErrMsgFailedToSaveCoupon, err)
		}
	}
	return nil
}

// txCoupons reads and redeems coupons inside the account transaction.
type txCoupons struct {
	tx pgx.Tx
}

func (c *txCoupons) Coupon(ctx context.Context, code string) (*domain.Coupon, error) {
	var (
		reward     []byte
		coupon     = domain.Coupon{Code: code}
		redeemedBy *string
		redeemedAt *time.Time
	)
	err := c.tx.QueryRow(ctx, queryLockCoupon, code).Scan(&reward, &coupon.Used, &redeemedBy, &redeemedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToLoadCoupon, err)
	}
	if err := json.Unmarshal(reward, &coupon.Reward); err != nil {
		return nil, fmt.Errorf("failed to unmarshal coupon reward: %w", err)
	}
	if redeemedBy != nil {
		coupon.RedeemedBy = *redeemedBy
	}
	coupon.RedeemedAt = valueTime(redeemedAt)
	return &coupon, nil
}

func (c *txCoupons) redeem(ctx context.Context, coupon domain.Coupon) error {
	reward, err := json.Marshal(coupon.Reward)
	if err != nil {
		return fmt.Errorf("failed to marshal coupon reward: %w", err)
	}
	tag, err := c.tx.Exec(ctx, queryRedeemCoupon, coupon.Code, reward, textToPtr(coupon.RedeemedBy), ptrTime(coupon.RedeemedAt))
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToSaveCoupon, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Conflict(economy.OpRedeemCoupon, domain.ReasonAlreadyClaimed, nil)
	}
	return nil
}

var (
	_ backend.Store               = (*Store)(nil)
	_ backend.SubstructureFetcher = (*Store)(nil)
)
