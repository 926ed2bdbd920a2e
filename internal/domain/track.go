package domain

import "time"

// RewardTrack is an ordered, date-gated sequence of claimable slots.
type RewardTrack struct {
	Kind          TrackKind  `json:"kind"`
	AnchorDate    time.Time  `json:"anchor_date"`
	LastClaimDate time.Time  `json:"last_claim_date,omitempty"` // zero until the first claim
	Claimed       ClaimedSet `json:"claimed"`
}

// NewRewardTrack returns an empty track anchored at the given civil day.
func NewRewardTrack(kind TrackKind, anchor time.Time) RewardTrack {
	return RewardTrack{
		Kind:       kind,
		AnchorDate: DayOf(anchor, time.UTC),
		Claimed:    NewClaimedSet(),
	}
}

// Clone returns an independent copy.
func (t RewardTrack) Clone() RewardTrack {
	t.Claimed = t.Claimed.Clone()
	return t
}

// ElapsedDays is the number of calendar days from the anchor to today.
func (t RewardTrack) ElapsedDays(today time.Time) int {
	return DaysBetween(t.AnchorDate, today)
}

// ClaimedToday reports whether the last claim fell on today.
func (t RewardTrack) ClaimedToday(today time.Time) bool {
	return SameDay(t.LastClaimDate, today)
}
