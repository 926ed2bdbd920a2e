package domain

import (
	"fmt"
	"sort"
)

// Part names one substructure of a Snapshot that can be fetched on its own.
type Part string

const (
	PartBalances     Part = "balances"
	PartEntitlements Part = "entitlements"
	PartItems        Part = "items"
	PartTracks       Part = "tracks"
	PartLevels       Part = "levels"
	PartBattlePass   Part = "battle_pass"
	PartQuests       Part = "quests"
)

// Parts lists every substructure in reconciliation order.
var Parts = []Part{PartBalances, PartEntitlements, PartItems, PartTracks, PartLevels, PartBattlePass, PartQuests}

// ParsePart validates a wire part name.
func ParsePart(s string) (Part, error) {
	for _, p := range Parts {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedPart, s)
}

// Snapshot is a consolidated remote view of an account. A nil field means the
// backend did not include that substructure, which is distinct from an empty one.
// On the wire an absent part is null and an empty part is an empty array or object.
type Snapshot struct {
	AccountID    string                  `json:"account_id"`
	Balances     map[string]int64        `json:"balances"`
	Entitlements []Entitlement           `json:"entitlements"`
	Items        []InventoryItemInstance `json:"items"`
	Tracks       []RewardTrack           `json:"tracks"`
	Levels       []LevelProgress         `json:"levels"`
	BattlePass   *BattlePassProgress     `json:"battle_pass"`
	Quests       []QuestProgress         `json:"quests"`
}

// Has reports whether the snapshot carries part.
func (s *Snapshot) Has(p Part) bool {
	switch p {
	case PartBalances:
		return s.Balances != nil
	case PartEntitlements:
		return s.Entitlements != nil
	case PartItems:
		return s.Items != nil
	case PartTracks:
		return s.Tracks != nil
	case PartLevels:
		return s.Levels != nil
	case PartBattlePass:
		return s.BattlePass != nil
	case PartQuests:
		return s.Quests != nil
	}
	return false
}

// Missing lists the parts absent from the snapshot.
func (s *Snapshot) Missing() []Part {
	var out []Part
	for _, p := range Parts {
		if !s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// Only returns a copy of s carrying just part p.
func (s *Snapshot) Only(p Part) *Snapshot {
	out := &Snapshot{AccountID: s.AccountID}
	switch p {
	case PartBalances:
		out.Balances = s.Balances
	case PartEntitlements:
		out.Entitlements = s.Entitlements
	case PartItems:
		out.Items = s.Items
	case PartTracks:
		out.Tracks = s.Tracks
	case PartLevels:
		out.Levels = s.Levels
	case PartBattlePass:
		out.BattlePass = s.BattlePass
	case PartQuests:
		out.Quests = s.Quests
	}
	return out
}

// Merge copies every part present in other that s lacks.
func (s *Snapshot) Merge(other *Snapshot) {
	if other == nil {
		return
	}
	if s.Balances == nil {
		s.Balances = other.Balances
	}
	if s.Entitlements == nil {
		s.Entitlements = other.Entitlements
	}
	if s.Items == nil {
		s.Items = other.Items
	}
	if s.Tracks == nil {
		s.Tracks = other.Tracks
	}
	if s.Levels == nil {
		s.Levels = other.Levels
	}
	if s.BattlePass == nil {
		s.BattlePass = other.BattlePass
	}
	if s.Quests == nil {
		s.Quests = other.Quests
	}
}

// SnapshotOf builds a complete snapshot from an account, with deterministic ordering.
func SnapshotOf(a *Account) *Snapshot {
	s := &Snapshot{
		AccountID:    a.ID,
		Balances:     make(map[string]int64, len(a.Balances)),
		Entitlements: make([]Entitlement, 0, len(a.Entitlements)),
		Items:        make([]InventoryItemInstance, 0, len(a.Items)),
		Tracks:       make([]RewardTrack, 0, len(a.Tracks)),
		Levels:       make([]LevelProgress, 0, len(a.Levels)),
		Quests:       make([]QuestProgress, 0, len(a.Quests)),
	}
	for k, v := range a.Balances {
		s.Balances[k] = v
	}
	for _, e := range a.Entitlements {
		s.Entitlements = append(s.Entitlements, e)
	}
	sort.Slice(s.Entitlements, func(i, j int) bool { return s.Entitlements[i].Key() < s.Entitlements[j].Key() })
	for _, it := range a.Items {
		s.Items = append(s.Items, it.Clone())
	}
	sort.Slice(s.Items, func(i, j int) bool { return s.Items[i].UniqueID < s.Items[j].UniqueID })
	for _, t := range a.Tracks {
		s.Tracks = append(s.Tracks, t.Clone())
	}
	sort.Slice(s.Tracks, func(i, j int) bool { return s.Tracks[i].Kind < s.Tracks[j].Kind })
	for _, p := range a.Levels {
		s.Levels = append(s.Levels, p)
	}
	sort.Slice(s.Levels, func(i, j int) bool { return s.Levels[i].Key() < s.Levels[j].Key() })
	bp := a.BattlePass.Clone()
	s.BattlePass = &bp
	for _, q := range a.Quests {
		s.Quests = append(s.Quests, q)
	}
	sort.Slice(s.Quests, func(i, j int) bool { return s.Quests[i].QuestID < s.Quests[j].QuestID })
	return s
}

// Overlay replaces every substructure of a that s carries.
func (a *Account) Overlay(s *Snapshot) {
	a.EnsureMaps()
	if s.Balances != nil {
		a.Balances = make(map[string]int64, len(s.Balances))
		for k, v := range s.Balances {
			a.Balances[k] = v
		}
	}
	if s.Entitlements != nil {
		a.Entitlements = make(map[string]Entitlement, len(s.Entitlements))
		for _, e := range s.Entitlements {
			a.Entitlements[e.Key()] = e
		}
	}
	if s.Items != nil {
		a.Items = make(map[string]InventoryItemInstance, len(s.Items))
		for _, it := range s.Items {
			a.Items[it.UniqueID] = it.Clone()
		}
	}
	if s.Tracks != nil {
		for _, t := range s.Tracks {
			a.Tracks[t.Kind] = t.Clone()
		}
	}
	if s.Levels != nil {
		for _, p := range s.Levels {
			a.Levels[p.Key()] = p
		}
	}
	if s.BattlePass != nil {
		bound := a.BattlePass.Claimed.Bound()
		a.BattlePass = s.BattlePass.Clone()
		if bounded, err := a.BattlePass.Claimed.WithBound(bound); err == nil {
			a.BattlePass.Claimed = bounded
		}
	}
	if s.Quests != nil {
		for _, q := range s.Quests {
			a.Quests[q.QuestID] = q
		}
	}
}
