package domain

// Changes is the post-state delta produced by one authoritative operation.
//
// Every field holds the value after the operation, except BalanceDeltas which records
// the signed amount moved per currency. Entitlements lists only newly created records.
type Changes struct {
	Balances      map[string]int64        `json:"balances,omitempty"`
	BalanceDeltas map[string]int64        `json:"balance_deltas,omitempty"`
	Entitlements  []Entitlement           `json:"entitlements,omitempty"`
	Items         []InventoryItemInstance `json:"items,omitempty"`
	Tracks        []RewardTrack           `json:"tracks,omitempty"`
	Levels        []LevelProgress         `json:"levels,omitempty"`
	BattlePass    *BattlePassProgress     `json:"battle_pass,omitempty"`
	Quests        []QuestProgress         `json:"quests,omitempty"`
	Coupon        *Coupon                 `json:"coupon,omitempty"`
}

// IsEmpty reports whether c changes nothing.
func (c Changes) IsEmpty() bool {
	return len(c.Balances) == 0 && len(c.Entitlements) == 0 && len(c.Items) == 0 &&
		len(c.Tracks) == 0 && len(c.Levels) == 0 && c.BattlePass == nil &&
		len(c.Quests) == 0 && c.Coupon == nil
}

// SetBalance records a balance movement.
func (c *Changes) SetBalance(currency string, after, delta int64) {
	if c.Balances == nil {
		c.Balances = make(map[string]int64)
	}
	if c.BalanceDeltas == nil {
		c.BalanceDeltas = make(map[string]int64)
	}
	c.Balances[currency] = after
	c.BalanceDeltas[currency] += delta
}

// AddEntitlement records a newly created entitlement.
func (c *Changes) AddEntitlement(e Entitlement) {
	for _, x := range c.Entitlements {
		if x.Key() == e.Key() {
			return
		}
	}
	c.Entitlements = append(c.Entitlements, e)
}

// PutItem records the post-state of an item instance.
func (c *Changes) PutItem(it InventoryItemInstance) {
	it = it.Clone()
	for i := range c.Items {
		if c.Items[i].UniqueID == it.UniqueID {
			c.Items[i] = it
			return
		}
	}
	c.Items = append(c.Items, it)
}

// PutTrack records the post-state of a reward track.
func (c *Changes) PutTrack(t RewardTrack) {
	t = t.Clone()
	for i := range c.Tracks {
		if c.Tracks[i].Kind == t.Kind {
			c.Tracks[i] = t
			return
		}
	}
	c.Tracks = append(c.Tracks, t)
}

// PutLevel records the post-state of a level progress.
func (c *Changes) PutLevel(p LevelProgress) {
	for i := range c.Levels {
		if c.Levels[i].Key() == p.Key() {
			c.Levels[i] = p
			return
		}
	}
	c.Levels = append(c.Levels, p)
}

// PutBattlePass records the post-state of the battle pass.
func (c *Changes) PutBattlePass(b BattlePassProgress) {
	b = b.Clone()
	c.BattlePass = &b
}

// PutQuest records the post-state of a quest.
func (c *Changes) PutQuest(q QuestProgress) {
	for i := range c.Quests {
		if c.Quests[i].QuestID == q.QuestID {
			c.Quests[i] = q
			return
		}
	}
	c.Quests = append(c.Quests, q)
}

// Merge folds later into c. Post-state values from later win; deltas accumulate.
func (c *Changes) Merge(later Changes) {
	for k, v := range later.Balances {
		c.SetBalance(k, v, later.BalanceDeltas[k])
	}
	for _, e := range later.Entitlements {
		c.AddEntitlement(e)
	}
	for _, it := range later.Items {
		c.PutItem(it)
	}
	for _, t := range later.Tracks {
		c.PutTrack(t)
	}
	for _, p := range later.Levels {
		c.PutLevel(p)
	}
	if later.BattlePass != nil {
		c.PutBattlePass(*later.BattlePass)
	}
	for _, q := range later.Quests {
		c.PutQuest(q)
	}
	if later.Coupon != nil {
		cp := *later.Coupon
		c.Coupon = &cp
	}
}
