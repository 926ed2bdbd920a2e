package domain

import "fmt"

// Reward is a generic reward descriptor.
//
// Currency rewards use TemplateID as the currency id and Amount as the quantity.
// Entitlement and item rewards ignore Amount.
type Reward struct {
	Kind       RewardKind `json:"kind" validate:"required,oneof=currency character icon frame shop_item item"`
	TemplateID string     `json:"template_id" validate:"required"`
	Amount     int64      `json:"amount,omitempty" validate:"gte=0"`
}

// Validate checks the descriptor shape without consulting account state.
func (r Reward) Validate() error {
	switch r.Kind {
	case RewardCurrency:
		if r.Amount < 0 {
			return ErrNegativeAmount
		}
	case RewardCharacter, RewardIcon, RewardFrame, RewardShopItem, RewardItem:
	default:
		return fmt.Errorf("%w: kind %q", ErrInvalidReward, r.Kind)
	}
	if r.TemplateID == "" {
		return fmt.Errorf("%w: empty template id", ErrInvalidReward)
	}
	return nil
}

// IsEntitlement reports whether the reward grants a unique-per-account ownership record.
func (r Reward) IsEntitlement() bool {
	switch r.Kind {
	case RewardCharacter, RewardIcon, RewardFrame, RewardShopItem:
		return true
	}
	return false
}

func (r Reward) String() string {
	if r.Kind == RewardCurrency {
		return fmt.Sprintf("%s:%s x%d", r.Kind, r.TemplateID, r.Amount)
	}
	return fmt.Sprintf("%s:%s", r.Kind, r.TemplateID)
}
