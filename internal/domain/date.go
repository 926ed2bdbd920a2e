package domain

import "time"

const day = 24 * time.Hour

// DayOf returns the civil day containing t in loc, as UTC midnight of that calendar date.
// A nil loc means UTC.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from one civil day to another.
// Negative if to precedes from.
func DaysBetween(from, to time.Time) int {
	from = DayOf(from, time.UTC)
	to = DayOf(to, time.UTC)
	return int(to.Sub(from).Round(day) / day)
}

// SameDay reports whether a and b fall on the same civil day. A zero time never matches.
func SameDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	return DayOf(a, time.UTC).Equal(DayOf(b, time.UTC))
}
