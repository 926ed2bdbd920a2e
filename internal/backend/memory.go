package backend

import (
	"context"
	"sync"

	"github.com/osse101/playerledger/internal/domain"
)

// MemoryStore is a process-local Store. Updates on the whole store are serialized.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	coupons  map[string]domain.Coupon
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*domain.Account),
		coupons:  make(map[string]domain.Coupon),
	}
}

type memoryCoupons map[string]domain.Coupon

func (m memoryCoupons) Coupon(_ context.Context, code string) (*domain.Coupon, error) {
	c, ok := m[code]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, accountID string, fn UpdateFunc) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var work *domain.Account
	if acc, ok := s.accounts[accountID]; ok {
		work = acc.Clone()
	} else {
		work = domain.NewAccount(accountID)
	}

	changes, err := fn(ctx, work, memoryCoupons(s.coupons))
	if err != nil {
		return nil, err
	}
	s.accounts[accountID] = work
	if changes.Coupon != nil {
		s.coupons[changes.Coupon.Code] = *changes.Coupon
	}
	return work.Clone(), nil
}

// Snapshot implements Store.
func (s *MemoryStore) Snapshot(_ context.Context, accountID string) (*domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[accountID]
	if !ok {
		return &domain.Snapshot{AccountID: accountID}, nil
	}
	return domain.SnapshotOf(acc), nil
}

var _ Store = (*MemoryStore)(nil)
