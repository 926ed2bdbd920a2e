package domain

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"sort"
)

// ClaimedSet is a set of claimed slot indices.
//
// While every member is below MaxCompactClaims the set is held as a uint64 bitmask.
// A bounded set rejects indices at or above its bound with ErrIndexOutOfBounds; an
// unbounded set widens to a map instead of truncating.
type ClaimedSet struct {
	mask  uint64
	wide  map[int]struct{}
	bound int
}

// NewClaimedSet returns an empty unbounded set.
func NewClaimedSet(indices ...int) ClaimedSet {
	var s ClaimedSet
	for _, i := range indices {
		_ = s.Add(i)
	}
	return s
}

// NewBoundedClaimedSet returns an empty set that accepts indices in [0, bound).
func NewBoundedClaimedSet(bound int) ClaimedSet {
	return ClaimedSet{bound: bound}
}

// ClaimedSetFromMask decodes a bitmask.
func ClaimedSetFromMask(mask uint64) ClaimedSet {
	return ClaimedSet{mask: mask}
}

// Bound returns the exclusive upper bound, or 0 if the set is unbounded.
func (s ClaimedSet) Bound() int {
	return s.bound
}

// WithBound returns a copy of s bounded to [0, bound). Existing members at or above
// the bound are reported as an error rather than dropped.
func (s ClaimedSet) WithBound(bound int) (ClaimedSet, error) {
	out := s.Clone()
	out.bound = bound
	if bound > 0 {
		for _, i := range s.Indices() {
			if i >= bound {
				return s, fmt.Errorf("%w: %d >= %d", ErrIndexOutOfBounds, i, bound)
			}
		}
	}
	return out, nil
}

// Has reports whether i is a member.
func (s ClaimedSet) Has(i int) bool {
	if i < 0 {
		return false
	}
	if s.wide != nil {
		_, ok := s.wide[i]
		return ok
	}
	return i < MaxCompactClaims && s.mask&(1<<uint(i)) != 0
}

// Add inserts i.
func (s *ClaimedSet) Add(i int) error {
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}
	if s.bound > 0 && i >= s.bound {
		return fmt.Errorf("%w: %d >= %d", ErrIndexOutOfBounds, i, s.bound)
	}
	if s.wide == nil && i < MaxCompactClaims {
		s.mask |= 1 << uint(i)
		return nil
	}
	if s.wide == nil {
		s.widen()
	}
	s.wide[i] = struct{}{}
	return nil
}

func (s *ClaimedSet) widen() {
	s.wide = make(map[int]struct{}, bits.OnesCount64(s.mask)+1)
	for m := s.mask; m != 0; m &= m - 1 {
		s.wide[bits.TrailingZeros64(m)] = struct{}{}
	}
	s.mask = 0
}

// Len returns the number of members.
func (s ClaimedSet) Len() int {
	if s.wide != nil {
		return len(s.wide)
	}
	return bits.OnesCount64(s.mask)
}

// Clear removes every member, keeping the bound.
func (s *ClaimedSet) Clear() {
	s.mask = 0
	s.wide = nil
}

// Indices returns the members in ascending order.
func (s ClaimedSet) Indices() []int {
	out := make([]int, 0, s.Len())
	if s.wide != nil {
		for i := range s.wide {
			out = append(out, i)
		}
		sort.Ints(out)
		return out
	}
	for m := s.mask; m != 0; m &= m - 1 {
		out = append(out, bits.TrailingZeros64(m))
	}
	return out
}

// Mask returns the bitmask encoding. ok is false if the set has widened past 64 slots.
func (s ClaimedSet) Mask() (mask uint64, ok bool) {
	if s.wide == nil {
		return s.mask, true
	}
	for i := range s.wide {
		if i >= MaxCompactClaims {
			return 0, false
		}
		mask |= 1 << uint(i)
	}
	return mask, true
}

// Clone returns an independent copy.
func (s ClaimedSet) Clone() ClaimedSet {
	out := ClaimedSet{mask: s.mask, bound: s.bound}
	if s.wide != nil {
		out.wide = make(map[int]struct{}, len(s.wide))
		for i := range s.wide {
			out.wide[i] = struct{}{}
		}
	}
	return out
}

// Equal compares membership only.
func (s ClaimedSet) Equal(other ClaimedSet) bool {
	a, b := s.Indices(), other.Indices()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as a sorted array of indices.
func (s ClaimedSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Indices())
}

// UnmarshalJSON decodes a sorted or unsorted array of indices, keeping any bound already set.
func (s *ClaimedSet) UnmarshalJSON(data []byte) error {
	var indices []int
	if err := json.Unmarshal(data, &indices); err != nil {
		return err
	}
	s.Clear()
	for _, i := range indices {
		if err := s.Add(i); err != nil {
			return err
		}
	}
	return nil
}
