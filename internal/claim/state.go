package claim

import (
	"fmt"
	"time"

	"github.com/osse101/playerledger/internal/domain"
)

// Status is the display state of a reward track.
type Status int

const (
	Claimable Status = iota
	LockedToday
	LockedNotYetAvailable
	CycleComplete
)

func (s Status) String() string {
	switch s {
	case Claimable:
		return "claimable"
	case LockedToday:
		return "locked_today"
	case LockedNotYetAvailable:
		return "locked_not_yet_available"
	case CycleComplete:
		return "cycle_complete"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// State is the evaluated state of a track. Index is the next claimable slot and is
// only meaningful when Status is Claimable.
type State struct {
	Status Status
	Index  int
}

// Evaluate computes the state of track on today, applying the lazy reset to a copy first.
// Transitions are driven by date rollover and successful claims, never by timers.
func Evaluate(track domain.RewardTrack, length int, cyclic bool, today time.Time) State {
	t := track.Clone()
	Normalize(&t, length, cyclic, today)

	next := t.Claimed.Len()
	switch {
	case next >= length:
		return State{Status: CycleComplete, Index: -1}
	case t.ClaimedToday(today):
		return State{Status: LockedToday, Index: -1}
	case next > t.ElapsedDays(today):
		return State{Status: LockedNotYetAvailable, Index: -1}
	}
	return State{Status: Claimable, Index: next}
}
