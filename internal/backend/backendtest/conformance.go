// Package backendtest runs the behaviour every backend.Store must share against
// a concrete store, so the memory, postgres and Nakama variants stay interchangeable.
package backendtest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/playerledger/internal/backend"
	"github.com/osse101/playerledger/internal/domain"
	"github.com/osse101/playerledger/internal/economy"
)

// DayT is the first day of every scenario.
var DayT = time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)

// StoreFactory returns a store for one subtest. Stores may be shared between
// subtests; every subtest uses fresh account ids and coupon codes.
type StoreFactory func(t *testing.T) backend.Store

type harness struct {
	x      *backend.Executor
	now    *time.Time
	coupon string
}

func newHarness(t *testing.T, store backend.Store) *harness {
	t.Helper()
	catalog, err := economy.DefaultCatalog()
	require.NoError(t, err)
	code := "TEST-" + uuid.NewString()
	catalog.Coupons = append(catalog.Coupons, economy.CouponDef{
		Code:   code,
		Reward: domain.Reward{Kind: domain.RewardCurrency, TemplateID: domain.CurrencyGems, Amount: 50},
	})

	now := DayT
	x := backend.NewExecutor(economy.NewEngine(catalog, time.UTC), store).WithClock(func() time.Time { return now })
	return &harness{x: x, now: &now, coupon: code}
}

func newAccountID() string {
	return "acc-" + uuid.NewString()
}

func dailyTrack(t *testing.T, snap *domain.Snapshot) domain.RewardTrack {
	t.Helper()
	for _, tr := range snap.Tracks {
		if tr.Kind == domain.TrackDaily {
			return tr
		}
	}
	t.Fatalf("snapshot of %s has no daily track", snap.AccountID)
	return domain.RewardTrack{}
}

// RunStoreConformance runs the shared store suite against stores built by newStore.
func RunStoreConformance(t *testing.T, newStore StoreFactory) {
	t.Run("FirstTouchProvisionsDefaults", func(t *testing.T) {
		h := newHarness(t, newStore(t))
		ctx := context.Background()
		id := newAccountID()

		res, err := h.x.AddAccountExp(ctx, id, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(500), res.Balances[domain.CurrencyGold])
		assert.Equal(t, int64(20), res.Balances[domain.CurrencyGems])

		snap, err := h.x.FetchAccountSnapshot(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{domain.CurrencyGold: 500, domain.CurrencyGems: 20}, snap.Balances)
		assert.Len(t, snap.Tracks, len(domain.TrackKinds))
		for _, tr := range snap.Tracks {
			assert.True(t, tr.AnchorDate.Equal(domain.DayOf(DayT, time.UTC)), "track %s anchored on %s", tr.Kind, tr.AnchorDate)
			assert.Zero(t, tr.Claimed.Len())
		}
		assert.NotEmpty(t, snap.Levels)
		assert.NotNil(t, snap.BattlePass)
	})

	t.Run("DailyClaimSequence", func(t *testing.T) {
		h := newHarness(t, newStore(t))
		ctx := context.Background()
		id := newAccountID()

		res, err := h.x.ClaimDailyReward(ctx, id, 0, domain.Reward{})
		require.NoError(t, err)
		assert.Equal(t, int64(600), res.Balances[domain.CurrencyGold])

		_, err = h.x.ClaimDailyReward(ctx, id, 0, domain.Reward{})
		assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)

		_, err = h.x.ClaimDailyReward(ctx, id, 1, domain.Reward{})
		assert.ErrorIs(t, err, domain.ErrAlreadyClaimedToday)

		*h.now = h.now.AddDate(0, 0, 1)
		res, err = h.x.ClaimDailyReward(ctx, id, 1, domain.Reward{})
		require.NoError(t, err)
		assert.Equal(t, int64(750), res.Balances[domain.CurrencyGold])

		snap, err := h.x.FetchAccountSnapshot(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1}, dailyTrack(t, snap).Claimed.Indices())
	})

	t.Run("DailyCycleResetsAfterFullDay", func(t *testing.T) {
		h := newHarness(t, newStore(t))
		ctx := context.Background()
		id := newAccountID()

		for i := 0; i < 7; i++ {
			*h.now = DayT.AddDate(0, 0, i)
			_, err := h.x.ClaimDailyReward(ctx, id, i, domain.Reward{})
			require.NoError(t, err, "day %d", i)
		}

		_, err := h.x.ClaimDailyReward(ctx, id, 0, domain.Reward{})
		assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)

		*h.now = DayT.AddDate(0, 0, 7)
		_, err = h.x.ClaimDailyReward(ctx, id, 0, domain.Reward{})
		require.NoError(t, err)

		snap, err := h.x.FetchAccountSnapshot(ctx, id)
		require.NoError(t, err)
		daily := dailyTrack(t, snap)
		assert.Equal(t, []int{0}, daily.Claimed.Indices())
		assert.True(t, daily.AnchorDate.Equal(domain.DayOf(*h.now, time.UTC)))
	})

	t.Run("CouponRedeemedOnce", func(t *testing.T) {
		h := newHarness(t, newStore(t))
		ctx := context.Background()
		first, second := newAccountID(), newAccountID()

		res, err := h.x.RedeemCoupon(ctx, first, h.coupon)
		require.NoError(t, err)
		assert.Equal(t, int64(70), res.Balances[domain.CurrencyGems])

		_, err = h.x.RedeemCoupon(ctx, second, h.coupon)
		assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)
		assert.Equal(t, domain.KindConflict, domain.KindOf(err))

		_, err = h.x.RedeemCoupon(ctx, second, "NO-SUCH-"+h.coupon)
		assert.ErrorIs(t, err, domain.ErrUnknownCoupon)

		// Rejected operations roll back first-touch provisioning too.
		snap, err := h.x.FetchAccountSnapshot(ctx, second)
		require.NoError(t, err)
		assert.Zero(t, snap.Balances[domain.CurrencyGems])
	})

	t.Run("ConcurrentClaimsHaveOneWinner", func(t *testing.T) {
		h := newHarness(t, newStore(t))
		ctx := context.Background()
		id := newAccountID()

		const workers = 8
		var (
			wg        sync.WaitGroup
			start     = make(chan struct{})
			mu        sync.Mutex
			successes int
			conflicts int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, err := h.x.ClaimDailyReward(ctx, id, 0, domain.Reward{})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case errors.Is(err, domain.ErrAlreadyClaimed):
					conflicts++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		close(start)
		wg.Wait()

		assert.Equal(t, 1, successes)
		assert.Equal(t, workers-1, conflicts)

		snap, err := h.x.FetchAccountSnapshot(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(600), snap.Balances[domain.CurrencyGold])
	})
}
