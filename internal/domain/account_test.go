package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccount_ApplyIsIdempotent(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	track := NewRewardTrack(TrackDaily, now)
	require.NoError(t, track.Claimed.Add(0))
	track.LastClaimDate = DayOf(now, nil)

	var c Changes
	c.SetBalance(CurrencyGold, 150, 50)
	c.AddEntitlement(Entitlement{Kind: RewardCharacter, TemplateID: "knight", GrantedAt: now})
	c.PutItem(InventoryItemInstance{UniqueID: "u-1", TemplateID: "sword", UpgradeLevels: []int{0, 0}})
	c.PutTrack(track)
	c.PutLevel(LevelProgress{Axis: AxisAccount, Level: 3, Exp: 10})

	a := NewAccount("acc-1")
	a.Balances[CurrencyGold] = 100
	a.Apply(c)
	once := a.Clone()
	a.Apply(c)

	assert.Equal(t, once, a)
	assert.Equal(t, int64(150), a.Balances[CurrencyGold])
	assert.True(t, a.Owns(RewardCharacter, "knight"))
	assert.Len(t, a.Items, 1)
	assert.Equal(t, 3, a.Level(AxisAccount, "").Level)
}

func TestAccount_CloneIsDeep(t *testing.T) {
	a := NewAccount("acc-1")
	a.Items["u-1"] = InventoryItemInstance{UniqueID: "u-1", UpgradeLevels: []int{1}}
	a.Tracks[TrackDaily] = NewRewardTrack(TrackDaily, time.Now())

	c := a.Clone()
	c.Items["u-1"].UpgradeLevels[0] = 9
	tr := c.Tracks[TrackDaily]
	require.NoError(t, tr.Claimed.Add(3))
	c.Balances["gold"] = 1

	assert.Equal(t, 1, a.Items["u-1"].UpgradeLevels[0])
	assert.False(t, a.Tracks[TrackDaily].Claimed.Has(3))
	assert.NotContains(t, a.Balances, "gold")
}

func TestChanges_Merge(t *testing.T) {
	var first Changes
	first.SetBalance(CurrencyGold, 110, 10)
	first.PutLevel(LevelProgress{Axis: AxisAccount, Level: 1, Exp: 50})

	var second Changes
	second.SetBalance(CurrencyGold, 130, 20)
	second.PutLevel(LevelProgress{Axis: AxisAccount, Level: 2, Exp: 0})

	first.Merge(second)
	assert.Equal(t, int64(130), first.Balances[CurrencyGold])
	assert.Equal(t, int64(30), first.BalanceDeltas[CurrencyGold])
	require.Len(t, first.Levels, 1)
	assert.Equal(t, 2, first.Levels[0].Level)
}

func TestSnapshot_MissingAndOverlay(t *testing.T) {
	s := &Snapshot{AccountID: "acc-1", Balances: map[string]int64{CurrencyGold: 5}}
	assert.Equal(t, []Part{PartEntitlements, PartItems, PartTracks, PartLevels, PartBattlePass, PartQuests}, s.Missing())

	a := NewAccount("acc-1")
	a.Balances[CurrencyGems] = 7
	a.Overlay(s)
	assert.Equal(t, map[string]int64{CurrencyGold: 5}, a.Balances)
}

func TestDaysBetween(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	// 20:00 UTC on Mar 1 is already Mar 2 in UTC+9.
	d := DayOf(time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC), loc)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), d)

	assert.Equal(t, 0, DaysBetween(d, d))
	assert.Equal(t, 1, DaysBetween(d, d.Add(24*time.Hour)))
	assert.Equal(t, -2, DaysBetween(d, d.Add(-48*time.Hour)))
	assert.False(t, SameDay(time.Time{}, d))
}
