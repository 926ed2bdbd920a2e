package economy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/playerledger/internal/domain"
)

var dayT = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	c, err := DefaultCatalog()
	require.NoError(t, err)
	return NewEngine(c, time.UTC)
}

func provisioned(t *testing.T, e *Engine) *domain.Account {
	t.Helper()
	acc := domain.NewAccount("acc-1")
	_, ok := e.Provision(acc, dayT)
	require.True(t, ok)
	return acc
}

func requireReason(t *testing.T, err error, reason domain.ReasonCode) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, reason, domain.ReasonOf(err), "error: %v", err)
}

func TestProvision(t *testing.T) {
	e := newTestEngine(t)
	acc := domain.NewAccount("acc-1")

	changes, ok := e.Provision(acc, dayT)
	require.True(t, ok)

	assert.Equal(t, int64(500), acc.Balances[domain.CurrencyGold])
	assert.Equal(t, int64(20), acc.Balances[domain.CurrencyGems])
	assert.Equal(t, domain.DayOf(dayT, nil), acc.Tracks[domain.TrackDaily].AnchorDate)
	assert.Equal(t, 1, acc.Level(domain.AxisAccount, "").Level)
	assert.Equal(t, 0, acc.BattlePass.Progress.Level)
	assert.Equal(t, 6, acc.BattlePass.Claimed.Bound())
	assert.Len(t, changes.Tracks, 2)

	_, again := e.Provision(acc, dayT.Add(48*time.Hour))
	assert.False(t, again)
}

func TestProvision_KeepsExistingBalances(t *testing.T) {
	e := newTestEngine(t)
	acc := domain.NewAccount("acc-1")
	acc.Balances[domain.CurrencyGold] = 7

	e.Provision(acc, dayT)
	assert.Equal(t, int64(7), acc.Balances[domain.CurrencyGold])
}

func TestClaimTrack_DailyScenario(t *testing.T) {
	e := newTestEngine(t)
	acc := provisioned(t, e)

	changes, err := e.ClaimTrack(acc, domain.TrackDaily, 0, domain.Reward{}, dayT)
	require.NoError(t, err)
	assert.Equal(t, int64(600), changes.Balances[domain.CurrencyGold])
	assert.Equal(t, []int{0}, acc.Tracks[domain.TrackDaily].Claimed.Indices())

	_, err = e.ClaimTrack(acc, domain.TrackDaily, 0, domain.Reward{}, dayT)
	requireReason(t, err, domain.ReasonAlreadyClaimed)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	_, err = e.ClaimTrack(acc, domain.TrackDaily, 1, domain.Reward{}, dayT)
	requireReason(t, err, domain.ReasonAlreadyClaimedToday)
	assert.Equal(t, int64(600), acc.Balances[domain.CurrencyGold])

	_, err = e.ClaimTrack(acc, domain.TrackDaily, 1, domain.Reward{}, dayT.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(750), acc.Balances[domain.CurrencyGold])
}

func TestClaimTrack_OutOfRangeAndMismatch(t *testing.T) {
	e := newTestEngine(t)
	acc := provisioned(t, e)

	_, err := e.ClaimTrack(acc, domain.TrackDaily, 7, domain.Reward{}, dayT)
	requireReason(t, err, domain.ReasonGenericError)
	assert.ErrorIs(t, err, domain.ErrOutOfRange)

	bogus := domain.Reward{Kind: domain.RewardCurrency, TemplateID: domain.CurrencyGems, Amount: 9999}
	_, err = e.ClaimTrack(acc, domain.TrackDaily, 0, bogus, dayT)
	assert.ErrorIs(t, err, domain.ErrRewardMismatch)
	assert.Equal(t, int64(20), acc.Balances[domain.CurrencyGems])

	matching := domain.Reward{Kind: domain.RewardCurrency, TemplateID: domain.CurrencyGold, Amount: 100}
	_, err = e.ClaimTrack(acc, domain.TrackDaily, 0, matching, dayT)
	assert.NoError(t, err)
}

func TestClaimTrack_DailyCycleReset(t *testing.T) {
	e := newTestEngine(t)
	acc := provisioned(t, e)
	for i := 0; i < 7; i++ {
		_, err := e.ClaimTrack(acc, domain.TrackDaily, i, domain.Reward{}, dayT.AddDate(0, 0, i))
		require.NoError(t, err)
	}
	last := dayT.AddDate(0, 0, 6)

	_, err := e.ClaimTrack(acc, domain.TrackDaily, 0, domain.Reward{}, last)
	requireReason(t, err, domain.ReasonAlreadyClaimed)

	changes, err := e.ClaimTrack(acc, domain.TrackDaily, 0, domain.Reward{}, last.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, changes.Tracks, 1)
	assert.Equal(t, []int{0}, changes.Tracks[0].Claimed.Indices())
	assert.Equal(t, domain.DayOf(last.AddDate(0, 0, 1), nil), changes.Tracks[0].AnchorDate)
}

func TestClaimTrack_NewPlayerGrantsEntitlementOnce(t *testing.T) {
	e := newTestEngine(t)
	acc := provisioned(t, e)
	for i := 0; i < 7; i++ {
		_, err := e.ClaimTrack(acc, domain.TrackNewPlayer, i, domain.Reward{}, dayT.AddDate(0, 0, i))
		require.NoError(t, err)
	}
	assert.True(t, acc.Owns(domain.RewardCharacter, "ranger"))
	assert.Len(t, acc.ItemsByTemplate("oak_shield"), 1)

	_, err := e.ClaimTrack(acc, domain.TrackNewPlayer, 0, domain.Reward{}, dayT.AddDate(0, 0, 30))
	requireReason(t, err, domain.ReasonAlreadyClaimed)
}

func TestClaimBattlePass(t *testing.T) {
	e := newTestEngine(t)
	acc := provisioned(t, e)

	_, err := e.ClaimBattlePass(acc, 0, domain.Reward{}, dayT)
	requireReason(t, err, domain.ReasonNotAvailableYet)

	_, err = e.AddExp(acc, domain.AxisBattlePass, "", 1000)
	require.NoError(t, err)
	require.Equal(t, 1, acc.BattlePass.Progress.Level)

	changes, err := e.ClaimBattlePass(acc, 0, domain.Reward{}, dayT)
	require.NoError(t, err)
	require.NotNil(t, changes.BattlePass)
	assert.True(t, changes.BattlePass.Claimed.Has(0))

	_, err = e.ClaimBattlePass(acc, 0, domain.Reward{}, dayT)
	requireReason(t, err, domain.ReasonAlreadyClaimed)

	_, err = e.ClaimBattlePass(acc, 1, domain.Reward{}, dayT)
	requireReason(t, err, domain.ReasonNotAvailableYet)
	assert.ErrorIs(t, err, domain.ErrPremiumRequired)

	_, err = e.ClaimBattlePass(acc, 6, domain.Reward{}, dayT)
	assert.ErrorIs(t, err, domain.ErrOutOfRange)
}

func TestUnlockPremium(t *testing.T) {
	e := newTestEngine(t)
	acc := provisioned(t, e)

	_, err := e.UnlockPremium(acc)
	requireReason(t, err, domain.ReasonInsufficientCurrency)
	assert.Equal(t, domain.KindInsufficientResource, domain.KindOf(err))
	assert.False(t, acc.BattlePass.Premium)
	assert.Equal(t, int64(20), acc.Balances[domain.CurrencyGems])

	acc.Balances[domain.CurrencyGems] = 600
	changes, err := e.UnlockPremium(acc)
	require.NoError(t, err)
	assert.True(t, acc.BattlePass.Premium)
	assert.Equal(t, int64(100), changes.Balances[domain.CurrencyGems])

	_, err = e.UnlockPremium(acc)
	requireReason(t, err, domain.ReasonAlreadyClaimed)
}

func TestAddExp(t *testing.T) {
	e := newTestEngine(t)
	acc := provisioned(t, e)

	changes, err := e.AddExp(acc, domain.AxisAccount, "", 250)
	require.NoError(t, err)
	require.Len(t, changes.Levels, 1)
	assert.Equal(t, 3, changes.Levels[0].Level)
	assert.Equal(t, int64(40), changes.Levels[0].Exp)

	_, err = e.AddExp(acc, domain.AxisCharacter, "", 10)
	requireReason(t, err, domain.ReasonGenericError)

	_, err = e.AddExp(acc, domain.AxisMastery, "ranger", 1<<40)
	require.NoError(t, err)
	assert.Equal(t, 10, acc.Level(domain.AxisMastery, "ranger").Level)

	_, err = e.AddExp(acc, domain.AxisMastery, "ranger", 1)
	requireReason(t, err, domain.ReasonMaxLevel)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	_, err = e.AddExp(acc, domain.AxisAccount, "", -5)
	assert.ErrorIs(t, err, domain.ErrNegativeAmount)
}

func TestCompleteSession(t *testing.T) {
	e := newTestEngine(t)
	acc := provisioned(t, e)

	summary := domain.SessionSummary{
		SessionID:     "s-1",
		CharacterID:   "ranger",
		AccountExp:    100,
		CharacterExp:  80,
		BattlePassExp: 1000,
		Currency:      map[string]int64{domain.CurrencyGold: 30},
		Quests:        map[string]int64{"play_five": 6, "win_three": 3},
	}
	changes, err := e.CompleteSession(acc, summary, dayT)
	require.NoError(t, err)

	assert.Equal(t, 2, acc.Level(domain.AxisAccount, "").Level)
	assert.Equal(t, 2, acc.Level(domain.AxisCharacter, "ranger").Level)
	assert.Equal(t, 1, acc.BattlePass.Progress.Level)
	assert.Equal(t, int64(500+30+75), acc.Balances[domain.CurrencyGold])
	assert.Equal(t, int64(20+25), acc.Balances[domain.CurrencyGems])

	repeat := acc.Quests["play_five"]
	assert.Equal(t, int64(0), repeat.Progress)
	assert.Equal(t, 1, repeat.Completions)
	assert.False(t, repeat.Completed)

	once := acc.Quests["win_three"]
	assert.True(t, once.Completed)
	assert.Len(t, changes.Quests, 2)

	_, err = e.CompleteSession(acc, summary, dayT)
	requireReason(t, err, domain.ReasonAlreadyClaimed)

	summary.SessionID = "s-2"
	summary.Quests = map[string]int64{"win_three": 3}
	summary.Currency = nil
	_, err = e.CompleteSession(acc, summary, dayT)
	require.NoError(t, err)
	assert.Equal(t, int64(45), acc.Balances[domain.CurrencyGems], "one-time quest pays once")
}

func TestCompleteSession_Invalid(t *testing.T) {
	e := newTestEngine(t)
	acc := provisioned(t, e)

	_, err := e.CompleteSession(acc, domain.SessionSummary{SessionID: "s", CharacterExp: 5}, dayT)
	requireReason(t, err, domain.ReasonGenericError)

	_, err = e.CompleteSession(acc, domain.SessionSummary{SessionID: "s", Quests: map[string]int64{"nope": 1}}, dayT)
	assert.ErrorIs(t, err, domain.ErrUnknownQuest)
}

func TestCompleteSession_RecentSessionsBounded(t *testing.T) {
	e := newTestEngine(t)
	acc := provisioned(t, e)
	for i := 0; i < MaxRecentSessions+5; i++ {
		_, err := e.CompleteSession(acc, domain.SessionSummary{SessionID: time.Duration(i).String()}, dayT)
		require.NoError(t, err)
	}
	assert.Len(t, acc.Sessions, MaxRecentSessions)
}

func TestPurchase(t *testing.T) {
	e := newTestEngine(t)
	acc := provisioned(t, e)

	_, err := e.Purchase(acc, "starter_pack", dayT)
	requireReason(t, err, domain.ReasonInsufficientCurrency)
	assert.False(t, acc.Owns(domain.RewardShopItem, "starter_pack"))

	_, err = e.Purchase(acc, "sword_crate", dayT)
	require.NoError(t, err)
	assert.Equal(t, int64(100), acc.Balances[domain.CurrencyGold])
	assert.Len(t, acc.ItemsByTemplate("iron_sword"), 1)

	_, err = e.Purchase(acc, "missing", dayT)
	assert.ErrorIs(t, err, domain.ErrUnknownOffer)
}

func TestPurchase_OwnedEntitlementsOnly(t *testing.T) {
	e := newTestEngine(t)
	e.catalog.Offers["frame_only"] = Offer{
		Price:   Price{Currency: domain.CurrencyGold, Amount: 10},
		Rewards: []domain.Reward{{Kind: domain.RewardFrame, TemplateID: "frame_bronze"}},
	}
	acc := provisioned(t, e)

	_, err := e.Purchase(acc, "frame_only", dayT)
	require.NoError(t, err)
	_, err = e.Purchase(acc, "frame_only", dayT)
	requireReason(t, err, domain.ReasonAlreadyClaimed)
	assert.Equal(t, int64(490), acc.Balances[domain.CurrencyGold])
}

func TestUpgradeItem(t *testing.T) {
	e := newTestEngine(t)
	acc := provisioned(t, e)
	_, err := e.Purchase(acc, "sword_crate", dayT)
	require.NoError(t, err)
	acc.Balances[domain.CurrencyGold] = 1000
	sword := acc.ItemsByTemplate("iron_sword")[0]

	changes, err := e.UpgradeItem(acc, sword.UniqueID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(950), acc.Balances[domain.CurrencyGold])
	require.Len(t, changes.Items, 1)
	assert.Equal(t, 1, changes.Items[0].Level)
	assert.Equal(t, []int{0, 1, 0}, changes.Items[0].UpgradeLevels)

	_, err = e.UpgradeItem(acc, sword.UniqueID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(850), acc.Balances[domain.CurrencyGold], "second upgrade costs base*2")

	_, err = e.UpgradeItem(acc, sword.UniqueID, 3)
	assert.ErrorIs(t, err, domain.ErrInvalidStatIndex)

	_, err = e.UpgradeItem(acc, "nope", 0)
	assert.ErrorIs(t, err, domain.ErrUnknownItem)

	it := acc.Items[sword.UniqueID]
	it.Level = 10
	acc.Items[sword.UniqueID] = it
	_, err = e.UpgradeItem(acc, sword.UniqueID, 0)
	requireReason(t, err, domain.ReasonMaxLevel)
}

func TestRedeemCoupon(t *testing.T) {
	e := newTestEngine(t)
	acc := provisioned(t, e)

	_, err := e.RedeemCoupon(acc, nil, dayT)
	requireReason(t, err, domain.ReasonGenericError)
	assert.ErrorIs(t, err, domain.ErrUnknownCoupon)

	coupon, ok := e.Catalog().Coupon("KNIGHTFALL")
	require.True(t, ok)
	changes, err := e.RedeemCoupon(acc, coupon, dayT)
	require.NoError(t, err)
	require.NotNil(t, changes.Coupon)
	assert.True(t, changes.Coupon.Used)
	assert.Equal(t, "acc-1", changes.Coupon.RedeemedBy)
	assert.True(t, acc.Owns(domain.RewardCharacter, "knight"))

	_, err = e.RedeemCoupon(acc, changes.Coupon, dayT)
	requireReason(t, err, domain.ReasonAlreadyClaimed)
}
