package backend

import (
	"context"
	"time"

	"github.com/osse101/playerledger/internal/domain"
	"github.com/osse101/playerledger/internal/economy"
	"github.com/osse101/playerledger/internal/logger"
	"github.com/osse101/playerledger/internal/metrics"
)

// CouponReader looks up a global coupon inside the current atomic unit.
// It returns nil, nil for a code the store has never seen.
type CouponReader interface {
	Coupon(ctx context.Context, code string) (*domain.Coupon, error)
}

// UpdateFunc mutates a working copy of an account and returns the delta to persist.
type UpdateFunc func(ctx context.Context, acc *domain.Account, coupons CouponReader) (domain.Changes, error)

// Store is an authoritative account store. Update runs fn inside one atomic unit:
// the account is loaded (or created empty), fn mutates a working copy, and the
// returned Changes are persisted together or not at all. A concurrent Update on the
// same account must either serialize with fn or be retried with fresh state.
type Store interface {
	Update(ctx context.Context, accountID string, fn UpdateFunc) (*domain.Account, error)
	Snapshot(ctx context.Context, accountID string) (*domain.Snapshot, error)
}

// Executor implements Service on top of a Store and the economy Engine.
type Executor struct {
	engine *economy.Engine
	store  Store
	now    func() time.Time
}

// NewExecutor creates an Executor.
func NewExecutor(engine *economy.Engine, store Store) *Executor {
	return &Executor{engine: engine, store: store, now: time.Now}
}

// WithClock overrides the time source.
func (x *Executor) WithClock(now func() time.Time) *Executor {
	x.now = now
	return x
}

// Engine returns the rules engine.
func (x *Executor) Engine() *economy.Engine {
	return x.engine
}

type opFunc func(ctx context.Context, acc *domain.Account, coupons CouponReader, now time.Time) (domain.Changes, error)

// run provisions the account and applies op in the same atomic unit.
func (x *Executor) run(ctx context.Context, op, accountID string, fn opFunc) (*Result, error) {
	start := time.Now()
	log := logger.FromContext(ctx)
	log.Debug("Ledger operation called", "op", op, "account_id", accountID)

	var changes domain.Changes
	acc, err := x.store.Update(ctx, accountID, func(ctx context.Context, acc *domain.Account, coupons CouponReader) (domain.Changes, error) {
		now := x.now()
		provisioned, _ := x.engine.Provision(acc, now)
		c, err := fn(ctx, acc, coupons, now)
		if err != nil {
			return domain.Changes{}, err
		}
		provisioned.Merge(c)
		changes = provisioned
		return changes, nil
	})
	metrics.ObserveOperation(op, start, err)
	if err != nil {
		if _, ok := domain.AsError(err); !ok {
			err = domain.Transport(op, err)
		}
		log.Info("Ledger operation rejected", "op", op, "account_id", accountID, "reason", domain.ReasonOf(err), "kind", domain.KindOf(err).String(), "error", err)
		return nil, err
	}
	metrics.ObserveChanges(changes)
	log.Info("Ledger operation committed", "op", op, "account_id", accountID)
	return NewResult(changes, acc.Balances), nil
}

func (x *Executor) ClaimDailyReward(ctx context.Context, accountID string, dayIndex int, reward domain.Reward) (*Result, error) {
	return x.run(ctx, economy.OpClaimDaily, accountID, func(_ context.Context, acc *domain.Account, _ CouponReader, now time.Time) (domain.Changes, error) {
		return x.engine.ClaimTrack(acc, domain.TrackDaily, dayIndex, reward, now)
	})
}

func (x *Executor) ClaimNewPlayerReward(ctx context.Context, accountID string, dayIndex int, reward domain.Reward) (*Result, error) {
	return x.run(ctx, economy.OpClaimNewPlayer, accountID, func(_ context.Context, acc *domain.Account, _ CouponReader, now time.Time) (domain.Changes, error) {
		return x.engine.ClaimTrack(acc, domain.TrackNewPlayer, dayIndex, reward, now)
	})
}

func (x *Executor) ClaimBattlePassReward(ctx context.Context, accountID string, index int, reward domain.Reward) (*Result, error) {
	return x.run(ctx, economy.OpClaimBattlePass, accountID, func(_ context.Context, acc *domain.Account, _ CouponReader, now time.Time) (domain.Changes, error) {
		return x.engine.ClaimBattlePass(acc, index, reward, now)
	})
}

func (x *Executor) UnlockBattlePassPremium(ctx context.Context, accountID string) (*Result, error) {
	return x.run(ctx, economy.OpUnlockPremium, accountID, func(_ context.Context, acc *domain.Account, _ CouponReader, _ time.Time) (domain.Changes, error) {
		return x.engine.UnlockPremium(acc)
	})
}

func (x *Executor) AddAccountExp(ctx context.Context, accountID string, amount int64) (*Result, error) {
	return x.run(ctx, economy.OpAddAccountExp, accountID, func(_ context.Context, acc *domain.Account, _ CouponReader, _ time.Time) (domain.Changes, error) {
		return x.engine.AddExp(acc, domain.AxisAccount, "", amount)
	})
}

func (x *Executor) AddCharacterExp(ctx context.Context, accountID, characterID string, amount int64) (*Result, error) {
	return x.run(ctx, economy.OpAddCharExp, accountID, func(_ context.Context, acc *domain.Account, _ CouponReader, _ time.Time) (domain.Changes, error) {
		return x.engine.AddExp(acc, domain.AxisCharacter, characterID, amount)
	})
}

func (x *Executor) AddCharacterMasteryExp(ctx context.Context, accountID, characterID string, amount int64) (*Result, error) {
	return x.run(ctx, economy.OpAddMasteryExp, accountID, func(_ context.Context, acc *domain.Account, _ CouponReader, _ time.Time) (domain.Changes, error) {
		return x.engine.AddExp(acc, domain.AxisMastery, characterID, amount)
	})
}

func (x *Executor) CompleteGameSession(ctx context.Context, accountID string, summary domain.SessionSummary) (*Result, error) {
	return x.run(ctx, economy.OpCompleteSession, accountID, func(_ context.Context, acc *domain.Account, _ CouponReader, now time.Time) (domain.Changes, error) {
		return x.engine.CompleteSession(acc, summary, now)
	})
}

func (x *Executor) RedeemCoupon(ctx context.Context, accountID, code string) (*Result, error) {
	return x.run(ctx, economy.OpRedeemCoupon, accountID, func(ctx context.Context, acc *domain.Account, coupons CouponReader, now time.Time) (domain.Changes, error) {
		coupon, err := coupons.Coupon(ctx, code)
		if err != nil {
			return domain.Changes{}, err
		}
		if coupon == nil {
			coupon, _ = x.engine.Catalog().Coupon(code)
		}
		return x.engine.RedeemCoupon(acc, coupon, now)
	})
}

func (x *Executor) PurchaseOffer(ctx context.Context, accountID, offerID string) (*Result, error) {
	return x.run(ctx, economy.OpPurchaseOffer, accountID, func(_ context.Context, acc *domain.Account, _ CouponReader, now time.Time) (domain.Changes, error) {
		return x.engine.Purchase(acc, offerID, now)
	})
}

func (x *Executor) UpgradeItem(ctx context.Context, accountID, uniqueID string, statIndex int) (*Result, error) {
	return x.run(ctx, economy.OpUpgradeItem, accountID, func(_ context.Context, acc *domain.Account, _ CouponReader, _ time.Time) (domain.Changes, error) {
		return x.engine.UpgradeItem(acc, uniqueID, statIndex)
	})
}

// FetchAccountSnapshot returns the stored account. Unknown accounts return a snapshot
// with every part absent so the caller falls back to provisioning defaults.
func (x *Executor) FetchAccountSnapshot(ctx context.Context, accountID string) (*domain.Snapshot, error) {
	s, err := x.store.Snapshot(ctx, accountID)
	if err != nil {
		if _, ok := domain.AsError(err); !ok {
			err = domain.Transport("fetch_snapshot", err)
		}
		return nil, err
	}
	return s, nil
}

// FetchSubstructure fetches one part, natively when the store supports it.
func (x *Executor) FetchSubstructure(ctx context.Context, accountID string, part domain.Part) (*domain.Snapshot, error) {
	if f, ok := x.store.(SubstructureFetcher); ok {
		s, err := f.FetchSubstructure(ctx, accountID, part)
		if err != nil {
			if _, ok := domain.AsError(err); !ok {
				err = domain.Transport("fetch_substructure", err)
			}
			return nil, err
		}
		return s, nil
	}
	s, err := x.FetchAccountSnapshot(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.Only(part), nil
}

var (
	_ Service             = (*Executor)(nil)
	_ SubstructureFetcher = (*Executor)(nil)
)
