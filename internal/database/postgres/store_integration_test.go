package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/playerledger/internal/backend"
	"github.com/osse101/playerledger/internal/backend/backendtest"
	"github.com/osse101/playerledger/internal/domain"
	"github.com/osse101/playerledger/internal/economy"
)

var dayT = time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)

func newTestExecutor(t *testing.T) (*backend.Executor, *Store, *time.Time) {
	t.Helper()
	store := NewStore(setupTestPool(t))
	catalog, err := economy.DefaultCatalog()
	require.NoError(t, err)
	now := dayT
	x := backend.NewExecutor(economy.NewEngine(catalog, time.UTC), store).WithClock(func() time.Time { return now })
	return x, store, &now
}

func newAccountID() string {
	return "acc-" + uuid.NewString()
}

func TestStore_Conformance_Integration(t *testing.T) {
	backendtest.RunStoreConformance(t, func(t *testing.T) backend.Store {
		return NewStore(setupTestPool(t))
	})
}

func TestStore_ClaimDailyScenario_Integration(t *testing.T) {
	x, _, now := newTestExecutor(t)
	ctx := context.Background()
	id := newAccountID()

	res, err := x.ClaimDailyReward(ctx, id, 0, domain.Reward{})
	require.NoError(t, err)
	assert.Equal(t, int64(600), res.Balances[domain.CurrencyGold])

	_, err = x.ClaimDailyReward(ctx, id, 0, domain.Reward{})
	assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	_, err = x.ClaimDailyReward(ctx, id, 1, domain.Reward{})
	assert.ErrorIs(t, err, domain.ErrAlreadyClaimedToday)

	*now = now.AddDate(0, 0, 1)
	res, err = x.ClaimDailyReward(ctx, id, 1, domain.Reward{})
	require.NoError(t, err)
	assert.Equal(t, int64(750), res.Balances[domain.CurrencyGold])

	snap, err := x.FetchAccountSnapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(750), snap.Balances[domain.CurrencyGold])
	var daily domain.RewardTrack
	for _, tr := range snap.Tracks {
		if tr.Kind == domain.TrackDaily {
			daily = tr
		}
	}
	assert.Equal(t, []int{0, 1}, daily.Claimed.Indices())
	assert.True(t, daily.LastClaimDate.Equal(domain.DayOf(*now, time.UTC)))
}

func TestStore_ConcurrentClaimsHaveOneWinner_Integration(t *testing.T) {
	x, _, _ := newTestExecutor(t)
	ctx := context.Background()
	id := newAccountID()

	const workers = 16
	var (
		wg        sync.WaitGroup
		start     = make(chan struct{})
		mu        sync.Mutex
		successes int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := x.ClaimDailyReward(ctx, id, 0, domain.Reward{})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			if domain.KindOf(err) == domain.KindConflict {
				rejected++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, rejected)

	snap, err := x.FetchAccountSnapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(600), snap.Balances[domain.CurrencyGold], "reward must be granted exactly once")
}

func TestStore_CouponRedeemedOnceAcrossAccounts_Integration(t *testing.T) {
	x, _, _ := newTestExecutor(t)
	ctx := context.Background()
	code := "WELCOME2024"

	const workers = 8
	var (
		wg        sync.WaitGroup
		start     = make(chan struct{})
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			<-start
			if _, err := x.RedeemCoupon(ctx, id, code); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)
			}
		}(newAccountID())
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestStore_FailedOperationRollsBack_Integration(t *testing.T) {
	x, _, _ := newTestExecutor(t)
	ctx := context.Background()
	id := newAccountID()

	_, err := x.AddAccountExp(ctx, id, 10)
	require.NoError(t, err)
	before, err := x.FetchAccountSnapshot(ctx, id)
	require.NoError(t, err)

	_, err = x.PurchaseOffer(ctx, id, "starter_pack")
	assert.ErrorIs(t, err, domain.ErrInsufficientCurrency)
	assert.Equal(t, domain.KindInsufficientResource, domain.KindOf(err))

	after, err := x.FetchAccountSnapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before.Balances, after.Balances)
	assert.Equal(t, before.Levels, after.Levels)
}

func TestStore_ItemsAndSubstructure_Integration(t *testing.T) {
	x, store, _ := newTestExecutor(t)
	ctx := context.Background()
	id := newAccountID()

	res, err := x.PurchaseOffer(ctx, id, "sword_crate")
	require.NoError(t, err)
	require.NotEmpty(t, res.Changes.Items)
	item := res.Changes.Items[0]

	_, err = x.UpgradeItem(ctx, id, item.UniqueID, 1)
	require.NoError(t, err)

	part, err := store.FetchSubstructure(ctx, id, domain.PartItems)
	require.NoError(t, err)
	assert.Nil(t, part.Balances)
	require.Len(t, part.Items, 1)
	assert.Equal(t, item.UniqueID, part.Items[0].UniqueID)
	assert.Equal(t, 1, part.Items[0].Level)
	assert.Equal(t, []int{0, 1, 0}, part.Items[0].UpgradeLevels)
}

func TestStore_SessionDedupePersists_Integration(t *testing.T) {
	x, _, _ := newTestExecutor(t)
	ctx := context.Background()
	id := newAccountID()
	summary := domain.SessionSummary{SessionID: "s-1", AccountExp: 50, BattlePassExp: 1000}

	_, err := x.CompleteGameSession(ctx, id, summary)
	require.NoError(t, err)
	_, err = x.CompleteGameSession(ctx, id, summary)
	assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)

	snap, err := x.FetchAccountSnapshot(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, snap.BattlePass)
	assert.Equal(t, 1, snap.BattlePass.Progress.Level)
}

func TestStore_UnknownAccountSnapshotIsEmpty_Integration(t *testing.T) {
	_, store, _ := newTestExecutor(t)
	snap, err := store.Snapshot(context.Background(), newAccountID())
	require.NoError(t, err)
	assert.Equal(t, len(domain.Parts), len(snap.Missing()))
}
