// Package claim is the network-free pre-check for reward track claims.
//
// The same checks run authoritatively inside every backend; locally they only save a round trip.
package claim

import (
	"fmt"
	"time"

	"github.com/osse101/playerledger/internal/domain"
)

// Outcome is the result of checking one claim attempt.
type Outcome int

const (
	OK Outcome = iota
	OutOfRange
	AlreadyClaimed
	AlreadyClaimedToday
	NotYetAvailable
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case OutOfRange:
		return "out_of_range"
	case AlreadyClaimed:
		return "already_claimed"
	case AlreadyClaimedToday:
		return "already_claimed_today"
	case NotYetAvailable:
		return "not_yet_available"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Reason maps the outcome to its wire reason code. OutOfRange has no dedicated
// code and reports generic_error.
func (o Outcome) Reason() domain.ReasonCode {
	switch o {
	case AlreadyClaimed:
		return domain.ReasonAlreadyClaimed
	case AlreadyClaimedToday:
		return domain.ReasonAlreadyClaimedToday
	case NotYetAvailable:
		return domain.ReasonNotAvailableYet
	}
	return domain.ReasonGenericError
}

// Err converts a failed outcome into a tagged error of the given kind. OK returns nil.
func (o Outcome) Err(kind domain.ErrorKind, op string, dayIndex int) error {
	if o == OK {
		return nil
	}
	var cause error
	if o == OutOfRange {
		cause = fmt.Errorf("%w: %d", domain.ErrOutOfRange, dayIndex)
	}
	return domain.NewError(kind, o.Reason(), op, cause)
}

// Check evaluates a claim of dayIndex on track against today, in order:
// range, already claimed, claimed today, sequence, then time gate.
func Check(track domain.RewardTrack, length, dayIndex int, today time.Time) Outcome {
	if dayIndex < 0 || dayIndex >= length {
		return OutOfRange
	}
	if track.Claimed.Has(dayIndex) {
		return AlreadyClaimed
	}
	if track.ClaimedToday(today) {
		return AlreadyClaimedToday
	}
	if dayIndex != track.Claimed.Len() {
		return NotYetAvailable
	}
	if dayIndex > track.ElapsedDays(today) {
		return NotYetAvailable
	}
	return OK
}

// Validate runs Check and reports a failure as a validation error.
func Validate(track domain.RewardTrack, length, dayIndex int, today time.Time) error {
	return Check(track, length, dayIndex, today).Err(domain.KindValidation, "validate_claim", dayIndex)
}

// Normalize applies the lazy cycle reset: a cyclic track that is fully claimed and
// whose last claim is at least one calendar day old is emptied and re-anchored at today.
// It reports whether a reset happened.
func Normalize(track *domain.RewardTrack, length int, cyclic bool, today time.Time) bool {
	if !cyclic || length <= 0 || track.Claimed.Len() < length {
		return false
	}
	if track.LastClaimDate.IsZero() || domain.DaysBetween(track.LastClaimDate, today) < 1 {
		return false
	}
	track.Claimed.Clear()
	track.AnchorDate = domain.DayOf(today, time.UTC)
	return true
}

// Record marks dayIndex claimed on today. The caller must have checked the claim first.
func Record(track *domain.RewardTrack, dayIndex int, today time.Time) error {
	if err := track.Claimed.Add(dayIndex); err != nil {
		return err
	}
	track.LastClaimDate = domain.DayOf(today, time.UTC)
	return nil
}
