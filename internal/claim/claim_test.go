package claim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/playerledger/internal/domain"
)

const weekLength = 7

var dayT = time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

func plusDays(n int) time.Time {
	return dayT.AddDate(0, 0, n)
}

// claimOK checks and records a claim, failing the test if the check does not pass.
func claimOK(t *testing.T, track *domain.RewardTrack, index int, today time.Time) {
	t.Helper()
	Normalize(track, weekLength, true, today)
	require.Equal(t, OK, Check(*track, weekLength, index, today))
	require.NoError(t, Record(track, index, today))
}

func TestCheck_DailyTrackScenario(t *testing.T) {
	track := domain.NewRewardTrack(domain.TrackDaily, dayT)

	claimOK(t, &track, 0, dayT)
	assert.Equal(t, []int{0}, track.Claimed.Indices())

	assert.Equal(t, AlreadyClaimed, Check(track, weekLength, 0, dayT))
	assert.Equal(t, AlreadyClaimedToday, Check(track, weekLength, 1, dayT))

	claimOK(t, &track, 1, plusDays(1))
	assert.Equal(t, []int{0, 1}, track.Claimed.Indices())
}

func TestCheck_Order(t *testing.T) {
	track := domain.NewRewardTrack(domain.TrackDaily, dayT)
	claimOK(t, &track, 0, dayT)

	tests := []struct {
		name  string
		index int
		today time.Time
		want  Outcome
	}{
		{"negative", -1, dayT, OutOfRange},
		{"past end", weekLength, dayT, OutOfRange},
		{"claimed beats claimed today", 0, dayT, AlreadyClaimed},
		{"claimed today beats sequence", 3, dayT, AlreadyClaimedToday},
		{"skipping ahead", 2, plusDays(5), NotYetAvailable},
		{"next in sequence", 1, plusDays(1), OK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Check(track, weekLength, tt.index, tt.today))
		})
	}
}

func TestCheck_OutOfOrderIsNotYetAvailable(t *testing.T) {
	track := domain.NewRewardTrack(domain.TrackNewPlayer, dayT)
	for i := 1; i < weekLength; i++ {
		assert.Equal(t, NotYetAvailable, Check(track, weekLength, i, plusDays(30)), "index %d", i)
	}
}

func TestCheck_TimeGate(t *testing.T) {
	track := domain.NewRewardTrack(domain.TrackNewPlayer, dayT)
	claimOK(t, &track, 0, dayT)

	// Anchored on T, index 1 unlocks on T+1 and not before.
	track.LastClaimDate = dayT.AddDate(0, 0, -1)
	assert.Equal(t, NotYetAvailable, Check(track, weekLength, 1, dayT))
}

func TestCheck_CatchUpOnePerDay(t *testing.T) {
	track := domain.NewRewardTrack(domain.TrackNewPlayer, dayT)

	// Absent for five days: every missed slot is still claimable, one per day.
	for i := 0; i < 4; i++ {
		today := plusDays(5 + i)
		require.Equal(t, OK, Check(track, weekLength, i, today))
		require.NoError(t, Record(&track, i, today))
		assert.Equal(t, AlreadyClaimedToday, Check(track, weekLength, i+1, today))
	}
}

func TestAtMostOneClaimPerDay(t *testing.T) {
	track := domain.NewRewardTrack(domain.TrackDaily, dayT)
	successes := 0
	for attempt := 0; attempt < 20; attempt++ {
		for i := -1; i <= weekLength; i++ {
			if Check(track, weekLength, i, dayT) == OK {
				require.NoError(t, Record(&track, i, dayT))
				successes++
			}
		}
	}
	assert.Equal(t, 1, successes)
}

func TestNormalize_CycleReset(t *testing.T) {
	track := domain.NewRewardTrack(domain.TrackDaily, dayT.AddDate(0, 0, -6))
	for i := 0; i < weekLength; i++ {
		require.NoError(t, track.Claimed.Add(i))
	}
	track.LastClaimDate = dayT

	sameDay := track.Clone()
	assert.False(t, Normalize(&sameDay, weekLength, true, dayT))
	assert.Equal(t, weekLength, sameDay.Claimed.Len())
	assert.Equal(t, CycleComplete, Evaluate(track, weekLength, true, dayT).Status)

	next := track.Clone()
	assert.True(t, Normalize(&next, weekLength, true, plusDays(1)))
	assert.Equal(t, 0, next.Claimed.Len())
	assert.Equal(t, plusDays(1), next.AnchorDate)
	assert.Equal(t, OK, Check(next, weekLength, 0, plusDays(1)))
}

func TestNormalize_NewPlayerNeverResets(t *testing.T) {
	track := domain.NewRewardTrack(domain.TrackNewPlayer, dayT)
	for i := 0; i < weekLength; i++ {
		require.NoError(t, track.Claimed.Add(i))
	}
	track.LastClaimDate = dayT

	assert.False(t, Normalize(&track, weekLength, false, plusDays(10)))
	assert.Equal(t, CycleComplete, Evaluate(track, weekLength, false, plusDays(10)).Status)
}

func TestEvaluate(t *testing.T) {
	track := domain.NewRewardTrack(domain.TrackDaily, dayT)
	assert.Equal(t, State{Status: Claimable, Index: 0}, Evaluate(track, weekLength, true, dayT))

	require.NoError(t, Record(&track, 0, dayT))
	assert.Equal(t, LockedToday, Evaluate(track, weekLength, true, dayT).Status)
	assert.Equal(t, State{Status: Claimable, Index: 1}, Evaluate(track, weekLength, true, plusDays(1)))

	future := domain.NewRewardTrack(domain.TrackDaily, plusDays(2))
	assert.Equal(t, LockedNotYetAvailable, Evaluate(future, weekLength, true, dayT).Status)
}

func TestValidate_ReturnsValidationKind(t *testing.T) {
	track := domain.NewRewardTrack(domain.TrackDaily, dayT)
	require.NoError(t, Record(&track, 0, dayT))

	err := Validate(track, weekLength, 0, dayT)
	assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	err = Validate(track, weekLength, 99, dayT)
	assert.ErrorIs(t, err, domain.ErrOutOfRange)
	assert.Equal(t, domain.ReasonGenericError, domain.ReasonOf(err))

	assert.NoError(t, Validate(track, weekLength, 1, plusDays(1)))
}
