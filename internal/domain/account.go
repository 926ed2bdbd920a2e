package domain

import (
	"sort"
	"time"
)

// Account aggregates a player's economic state.
type Account struct {
	ID           string                           `json:"id"`
	Balances     map[string]int64                 `json:"balances"`
	Entitlements map[string]Entitlement           `json:"entitlements"` // keyed by EntitlementKey
	Items        map[string]InventoryItemInstance `json:"items"`        // keyed by UniqueID
	Tracks       map[TrackKind]RewardTrack        `json:"tracks"`
	Levels       map[string]LevelProgress         `json:"levels"` // keyed by LevelKey
	BattlePass   BattlePassProgress               `json:"battle_pass"`
	Quests       map[string]QuestProgress         `json:"quests"`
	Sessions     []string                         `json:"sessions,omitempty"` // recently applied game session ids
	CreatedAt    time.Time                        `json:"created_at"`
	UpdatedAt    time.Time                        `json:"updated_at"`
}

// NewAccount returns an account with every map allocated and nothing provisioned.
func NewAccount(id string) *Account {
	return &Account{
		ID:           id,
		Balances:     make(map[string]int64),
		Entitlements: make(map[string]Entitlement),
		Items:        make(map[string]InventoryItemInstance),
		Tracks:       make(map[TrackKind]RewardTrack),
		Levels:       make(map[string]LevelProgress),
		Quests:       make(map[string]QuestProgress),
		BattlePass:   BattlePassProgress{Progress: NewLevelProgress(AxisBattlePass, ""), Claimed: NewClaimedSet()},
	}
}

// EnsureMaps allocates any nil map, e.g. after decoding a partial document.
func (a *Account) EnsureMaps() {
	if a.Balances == nil {
		a.Balances = make(map[string]int64)
	}
	if a.Entitlements == nil {
		a.Entitlements = make(map[string]Entitlement)
	}
	if a.Items == nil {
		a.Items = make(map[string]InventoryItemInstance)
	}
	if a.Tracks == nil {
		a.Tracks = make(map[TrackKind]RewardTrack)
	}
	if a.Levels == nil {
		a.Levels = make(map[string]LevelProgress)
	}
	if a.Quests == nil {
		a.Quests = make(map[string]QuestProgress)
	}
}

// Clone returns a deep copy.
func (a *Account) Clone() *Account {
	out := *a
	out.Balances = make(map[string]int64, len(a.Balances))
	for k, v := range a.Balances {
		out.Balances[k] = v
	}
	out.Entitlements = make(map[string]Entitlement, len(a.Entitlements))
	for k, v := range a.Entitlements {
		out.Entitlements[k] = v
	}
	out.Items = make(map[string]InventoryItemInstance, len(a.Items))
	for k, v := range a.Items {
		out.Items[k] = v.Clone()
	}
	out.Tracks = make(map[TrackKind]RewardTrack, len(a.Tracks))
	for k, v := range a.Tracks {
		out.Tracks[k] = v.Clone()
	}
	out.Levels = make(map[string]LevelProgress, len(a.Levels))
	for k, v := range a.Levels {
		out.Levels[k] = v
	}
	out.Quests = make(map[string]QuestProgress, len(a.Quests))
	for k, v := range a.Quests {
		out.Quests[k] = v
	}
	out.BattlePass = a.BattlePass.Clone()
	out.Sessions = append([]string(nil), a.Sessions...)
	return &out
}

// Owns reports whether the account holds the entitlement.
func (a *Account) Owns(kind RewardKind, templateID string) bool {
	_, ok := a.Entitlements[EntitlementKey(kind, templateID)]
	return ok
}

// Provisioned reports whether the account has been through first-touch provisioning.
func (a *Account) Provisioned() bool {
	return !a.CreatedAt.IsZero()
}

// Level returns the progress for axis and subject, or the provisioning default.
func (a *Account) Level(axis LevelAxis, subjectID string) LevelProgress {
	if axis == AxisBattlePass {
		return a.BattlePass.Progress
	}
	if p, ok := a.Levels[LevelKey(axis, subjectID)]; ok {
		return p
	}
	return NewLevelProgress(axis, subjectID)
}

// ItemsByTemplate returns every instance of a template, oldest first.
func (a *Account) ItemsByTemplate(templateID string) []InventoryItemInstance {
	var out []InventoryItemInstance
	for _, it := range a.Items {
		if it.TemplateID == templateID {
			out = append(out, it.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].UniqueID < out[j].UniqueID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Apply overlays the post-state values carried by c. Applying the same Changes twice
// leaves the account as applying it once.
func (a *Account) Apply(c Changes) {
	a.EnsureMaps()
	for k, v := range c.Balances {
		a.Balances[k] = v
	}
	for _, e := range c.Entitlements {
		if _, ok := a.Entitlements[e.Key()]; !ok {
			a.Entitlements[e.Key()] = e
		}
	}
	for _, it := range c.Items {
		a.Items[it.UniqueID] = it.Clone()
	}
	for _, t := range c.Tracks {
		a.Tracks[t.Kind] = t.Clone()
	}
	for _, p := range c.Levels {
		if p.Axis == AxisBattlePass {
			a.BattlePass.Progress = p
			continue
		}
		a.Levels[p.Key()] = p
	}
	if c.BattlePass != nil {
		a.BattlePass = c.BattlePass.Clone()
	}
	for _, q := range c.Quests {
		a.Quests[q.QuestID] = q
	}
}
