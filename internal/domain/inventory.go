package domain

import "time"

// Entitlement is an ownership record for a unique-per-account resource.
type Entitlement struct {
	Kind       RewardKind `json:"kind"`
	TemplateID string     `json:"template_id"`
	GrantedAt  time.Time  `json:"granted_at"`
}

// EntitlementKey identifies one entitlement within an account.
func EntitlementKey(kind RewardKind, templateID string) string {
	return string(kind) + ":" + templateID
}

// Key returns the EntitlementKey of e.
func (e Entitlement) Key() string {
	return EntitlementKey(e.Kind, e.TemplateID)
}

// InventoryItemInstance is an individually identified, independently leveled owned item.
type InventoryItemInstance struct {
	UniqueID      string    `json:"unique_id"`
	TemplateID    string    `json:"template_id"`
	Level         int       `json:"level"`
	UpgradeLevels []int     `json:"upgrade_levels"` // indexed by stat
	CreatedAt     time.Time `json:"created_at"`
}

// Clone returns an independent copy.
func (i InventoryItemInstance) Clone() InventoryItemInstance {
	i.UpgradeLevels = append([]int(nil), i.UpgradeLevels...)
	return i
}

// Coupon is a globally unique redeemable code.
type Coupon struct {
	Code       string    `json:"code"`
	Reward     Reward    `json:"reward"`
	Used       bool      `json:"used"`
	RedeemedBy string    `json:"redeemed_by,omitempty"`
	RedeemedAt time.Time `json:"redeemed_at,omitempty"`
}

// SessionSummary is the result of one finished game session.
type SessionSummary struct {
	SessionID     string           `json:"session_id" validate:"required"`
	CharacterID   string           `json:"character_id,omitempty" validate:"required_with=CharacterExp MasteryExp"`
	AccountExp    int64            `json:"account_exp" validate:"gte=0"`
	CharacterExp  int64            `json:"character_exp" validate:"gte=0"`
	MasteryExp    int64            `json:"mastery_exp" validate:"gte=0"`
	BattlePassExp int64            `json:"battle_pass_exp" validate:"gte=0"`
	Currency      map[string]int64 `json:"currency,omitempty" validate:"dive,gte=0"`
	Quests        map[string]int64 `json:"quests,omitempty" validate:"dive,gte=0"`
}
