// Package nakama hosts the ledger inside a Nakama server: a backend.Store on Nakama
// storage objects and a runtime module that registers the RPC protocol.
package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"

	"github.com/osse101/playerledger/internal/backend"
	"github.com/osse101/playerledger/internal/domain"
	"github.com/osse101/playerledger/internal/logger"
)

// StorageAPI is the part of runtime.NakamaModule the backend needs.
type StorageAPI interface {
	StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error)
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
}

// StorageBackend is a backend.Store keeping each account as one storage object. Writes
// carry the version that was read, so a concurrent writer makes the whole batch fail
// and the update is re-run on fresh state.
type StorageBackend struct {
	nk    StorageAPI
	retry backend.RetryPolicy
	now   func() time.Time
}

// Option configures a StorageBackend.
type Option func(*StorageBackend)

// WithRetryPolicy sets how often a lost version check is retried.
func WithRetryPolicy(p backend.RetryPolicy) Option {
	return func(b *StorageBackend) {
		b.retry = p
	}
}

// WithClock overrides the clock used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(b *StorageBackend) {
		b.now = now
	}
}

// NewStorageBackend creates a StorageBackend over nk.
func NewStorageBackend(nk StorageAPI, opts ...Option) *StorageBackend {
	b := &StorageBackend{nk: nk, retry: backend.DefaultRetryPolicy(), now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Update implements backend.Store.
func (b *StorageBackend) Update(ctx context.Context, accountID string, fn backend.UpdateFunc) (*domain.Account, error) {
	var result *domain.Account
	err := b.retry.Do(ctx, BackendName, isVersionConflict, func() error {
		acc, err := b.update(ctx, accountID, fn)
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

func (b *StorageBackend) update(ctx context.Context, accountID string, fn backend.UpdateFunc) (*domain.Account, error) {
	acc, version, err := b.readAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		// CreatedAt stays zero so the executor provisions catalog defaults.
		acc = domain.NewAccount(accountID)
		version = versionAbsent
	}

	coupons := &storageCoupons{nk: b.nk, versions: make(map[string]string)}
	changes, err := fn(ctx, acc, coupons)
	if err != nil {
		return nil, err
	}
	acc.UpdatedAt = b.now().UTC()

	value, err := json.Marshal(acc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgEncodeAccountFailed, err)
	}
	writes := []*runtime.StorageWrite{{
		Collection:      CollectionLedger,
		Key:             KeyAccount,
		UserID:          accountID,
		Value:           string(value),
		Version:         version,
		PermissionRead:  runtime.STORAGE_PERMISSION_OWNER_READ,
		PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
	}}
	if changes.Coupon != nil {
		w, err := coupons.write(*changes.Coupon)
		if err != nil {
			return nil, err
		}
		writes = append(writes, w)
	}

	if _, err := b.nk.StorageWrite(ctx, writes); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), versionCheckFailed) {
			logger.FromContext(ctx).Debug(LogMsgVersionConflict, "account_id", accountID, "error", err)
			return nil, domain.Transport("storage_write", fmt.Errorf("%w: %v", domain.ErrStorageVersionLost, err))
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgWriteAccountFailed, err)
	}
	return acc, nil
}

// readAccount returns nil when the account object does not exist.
func (b *StorageBackend) readAccount(ctx context.Context, accountID string) (*domain.Account, string, error) {
	objects, err := b.nk.StorageRead(ctx, []*runtime.StorageRead{{
		Collection: CollectionLedger,
		Key:        KeyAccount,
		UserID:     accountID,
	}})
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", ErrMsgReadAccountFailed, err)
	}
	if len(objects) == 0 {
		return nil, "", nil
	}
	acc := domain.NewAccount(accountID)
	if err := json.Unmarshal([]byte(objects[0].Value), acc); err != nil {
		return nil, "", fmt.Errorf("%s: %w", ErrMsgDecodeAccountFailed, err)
	}
	acc.ID = accountID
	acc.EnsureMaps()
	return acc, objects[0].Version, nil
}

// Snapshot implements backend.Store. Unknown accounts yield a snapshot with every part absent.
func (b *StorageBackend) Snapshot(ctx context.Context, accountID string) (*domain.Snapshot, error) {
	acc, _, err := b.readAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return &domain.Snapshot{AccountID: accountID}, nil
	}
	return domain.SnapshotOf(acc), nil
}

// SeedCoupons writes catalog coupons that do not exist yet. Existing objects are kept.
func (b *StorageBackend) SeedCoupons(ctx context.Context, coupons []domain.Coupon) error {
	sc := &storageCoupons{nk: b.nk, versions: make(map[string]string)}
	for _, c := range coupons {
		w, err := sc.write(c)
		if err != nil {
			return err
		}
		if _, err := b.nk.StorageWrite(ctx, []*runtime.StorageWrite{w}); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), versionCheckFailed) {
				continue
			}
			return err
		}
	}
	return nil
}

func isVersionConflict(err error) bool {
	return errors.Is(err, domain.ErrStorageVersionLost)
}

// storageCoupons reads coupons for one update attempt and remembers their versions,
// so the redemption write fails if another account redeemed in between.
type storageCoupons struct {
	nk       StorageAPI
	versions map[string]string
}

func (c *storageCoupons) Coupon(ctx context.Context, code string) (*domain.Coupon, error) {
	objects, err := c.nk.StorageRead(ctx, []*runtime.StorageRead{{
		Collection: CollectionCoupons,
		Key:        code,
		UserID:     SystemUserID,
	}})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgReadCouponFailed, err)
	}
	if len(objects) == 0 {
		c.versions[code] = versionAbsent
		return nil, nil
	}
	var coupon domain.Coupon
	if err := json.Unmarshal([]byte(objects[0].Value), &coupon); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgDecodeCouponFailed, err)
	}
	coupon.Code = code
	c.versions[code] = objects[0].Version
	return &coupon, nil
}

func (c *storageCoupons) write(coupon domain.Coupon) (*runtime.StorageWrite, error) {
	value, err := json.Marshal(coupon)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgEncodeCouponFailed, err)
	}
	version, ok := c.versions[coupon.Code]
	if !ok {
		version = versionAbsent
	}
	return &runtime.StorageWrite{
		Collection:      CollectionCoupons,
		Key:             coupon.Code,
		UserID:          SystemUserID,
		Value:           string(value),
		Version:         version,
		PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
		PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
	}, nil
}

var _ backend.Store = (*StorageBackend)(nil)
