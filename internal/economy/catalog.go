package economy

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/osse101/playerledger/internal/domain"
	"github.com/osse101/playerledger/internal/leveling"
	"github.com/osse101/playerledger/internal/validation"
)

//go:embed default_catalog.json
var defaultCatalog []byte

//go:embed catalog.schema.json
var catalogSchema []byte

// Price is an amount of one currency.
type Price struct {
	Currency string `json:"currency" validate:"required"`
	Amount   int64  `json:"amount" validate:"gte=0"`
}

// TrackDef is the ordered reward list of one reward track.
type TrackDef struct {
	Rewards []domain.Reward `json:"rewards" validate:"required,min=1,dive"`
}

// BattlePassReward is one battle pass slot.
type BattlePassReward struct {
	Level   int           `json:"level" validate:"gte=0"`
	Premium bool          `json:"premium"`
	Reward  domain.Reward `json:"reward"`
}

// BattlePassDef is the battle pass reward list and premium price.
type BattlePassDef struct {
	PremiumPrice Price              `json:"premium_price"`
	Rewards      []BattlePassReward `json:"rewards" validate:"dive"`
}

// ItemDef describes an upgradeable item template.
type ItemDef struct {
	Stats           int    `json:"stats" validate:"gte=0"`
	MaxLevel        int    `json:"max_level" validate:"gt=0"`
	UpgradeCurrency string `json:"upgrade_currency" validate:"required"`
	UpgradeBaseCost int64  `json:"upgrade_base_cost" validate:"gte=0"`
}

// Offer is a purchasable bundle.
type Offer struct {
	Price   Price           `json:"price"`
	Rewards []domain.Reward `json:"rewards" validate:"required,min=1,dive"`
}

// QuestDef is a quest target and its completion reward.
type QuestDef struct {
	Kind   domain.QuestKind `json:"kind" validate:"required,oneof=one_time repeatable"`
	Target int64            `json:"target" validate:"gt=0"`
	Reward domain.Reward    `json:"reward"`
}

// CouponDef is a coupon code seeded from the catalog.
type CouponDef struct {
	Code   string        `json:"code" validate:"required"`
	Reward domain.Reward `json:"reward"`
}

// Catalog is the authoritative economy configuration.
type Catalog struct {
	Version         string                        `json:"version"`
	DefaultBalances map[string]int64              `json:"default_balances" validate:"dive,gte=0"`
	Tracks          map[domain.TrackKind]TrackDef `json:"tracks" validate:"required,dive"`
	BattlePass      BattlePassDef                 `json:"battle_pass"`
	Curves          leveling.Curves               `json:"curves"`
	Items           map[string]ItemDef            `json:"items" validate:"dive"`
	Offers          map[string]Offer              `json:"offers" validate:"dive"`
	Quests          map[string]QuestDef           `json:"quests" validate:"dive"`
	Coupons         []CouponDef                   `json:"coupons" validate:"dive"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads, schema-checks and validates a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgReadCatalogFailed, err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ParseCatalog schema-checks, decodes and validates catalog JSON.
func ParseCatalog(data []byte) (*Catalog, error) {
	sv := validation.NewSchemaValidator()
	if err := sv.Register(CatalogSchemaName, catalogSchema); err != nil {
		return nil, fmt.Errorf(ErrMsgRegisterSchemaFailed, err)
	}
	if err := sv.ValidateBytes(data, CatalogSchemaName); err != nil {
		return nil, fmt.Errorf(ErrMsgCatalogSchemaFailed, CatalogSchemaName, err)
	}

	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf(ErrMsgParseCatalogFailed, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks struct tags and cross-references between catalog sections.
func (c *Catalog) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf(ErrMsgCatalogInvalid, err)
	}
	for _, kind := range domain.TrackKinds {
		if len(c.Tracks[kind].Rewards) == 0 {
			return fmt.Errorf(ErrMsgCatalogInvalid, fmt.Errorf(ErrMsgMissingTrack, kind))
		}
	}
	if len(c.BattlePass.Rewards) > domain.MaxCompactClaims {
		return fmt.Errorf(ErrMsgCatalogInvalid, fmt.Errorf("%w: %d battle pass rewards", domain.ErrIndexOutOfBounds, len(c.BattlePass.Rewards)))
	}
	for i := 1; i < len(c.BattlePass.Rewards); i++ {
		if c.BattlePass.Rewards[i].Level < c.BattlePass.Rewards[i-1].Level {
			return fmt.Errorf(ErrMsgCatalogInvalid, fmt.Errorf(ErrMsgBattlePassLevelOrder, i, i-1))
		}
	}

	seen := make(map[string]bool, len(c.Coupons))
	for _, cp := range c.Coupons {
		if seen[cp.Code] {
			return fmt.Errorf(ErrMsgCatalogInvalid, fmt.Errorf(ErrMsgDuplicateCoupon, cp.Code))
		}
		seen[cp.Code] = true
	}

	for _, r := range c.allRewards() {
		if err := r.Validate(); err != nil {
			return fmt.Errorf(ErrMsgCatalogInvalid, err)
		}
		if r.Kind == domain.RewardItem {
			if _, ok := c.Items[r.TemplateID]; !ok {
				return fmt.Errorf(ErrMsgCatalogInvalid, fmt.Errorf(ErrMsgUnknownItemTemplate, r.TemplateID))
			}
		}
	}
	return nil
}

func (c *Catalog) allRewards() []domain.Reward {
	var out []domain.Reward
	for _, t := range c.Tracks {
		out = append(out, t.Rewards...)
	}
	for _, b := range c.BattlePass.Rewards {
		out = append(out, b.Reward)
	}
	for _, o := range c.Offers {
		out = append(out, o.Rewards...)
	}
	for _, q := range c.Quests {
		out = append(out, q.Reward)
	}
	for _, cp := range c.Coupons {
		out = append(out, cp.Reward)
	}
	return out
}

// StatCount implements grant.StatCounter.
func (c *Catalog) StatCount(templateID string) int {
	return c.Items[templateID].Stats
}

// TrackLength returns the number of slots of a reward track.
func (c *Catalog) TrackLength(kind domain.TrackKind) int {
	return len(c.Tracks[kind].Rewards)
}

// TrackReward returns the reward of one track slot.
func (c *Catalog) TrackReward(kind domain.TrackKind, index int) (domain.Reward, bool) {
	rewards := c.Tracks[kind].Rewards
	if index < 0 || index >= len(rewards) {
		return domain.Reward{}, false
	}
	return rewards[index], true
}

// Coupon returns the catalog definition of a coupon as an unused coupon.
func (c *Catalog) Coupon(code string) (*domain.Coupon, bool) {
	for _, cp := range c.Coupons {
		if cp.Code == code {
			return &domain.Coupon{Code: cp.Code, Reward: cp.Reward}, true
		}
	}
	return nil, false
}

// CatalogCoupons returns every catalog coupon as an unused coupon, for store seeding.
func (c *Catalog) CatalogCoupons() []domain.Coupon {
	out := make([]domain.Coupon, 0, len(c.Coupons))
	for _, cp := range c.Coupons {
		out = append(out, domain.Coupon{Code: cp.Code, Reward: cp.Reward})
	}
	return out
}
