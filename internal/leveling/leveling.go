// Package leveling implements the exp curve shared by every progression axis.
package leveling

import (
	"fmt"
	"math"

	"github.com/osse101/playerledger/internal/domain"
)

// Curve is the exp curve of one progression axis.
type Curve struct {
	BaseExp   int64   `json:"base_exp" validate:"required,gt=0"`
	Increment float64 `json:"increment" validate:"gte=0"`
	MaxLevel  int     `json:"max_level" validate:"required,gt=0"`
}

// RequiredExp returns the exp needed to advance past level:
// floor(BaseExp * (1+Increment)^(level-1)). Levels below 1 use the level 1 requirement.
func (c Curve) RequiredExp(level int) int64 {
	exp := level - 1
	if exp < 0 {
		exp = 0
	}
	req := math.Floor(float64(c.BaseExp) * math.Pow(1+c.Increment, float64(exp)))
	if req >= math.MaxInt64 {
		return math.MaxInt64
	}
	if req < 1 {
		return 1
	}
	return int64(req)
}

// AtMax reports whether p has reached the terminal level.
func (c Curve) AtMax(p domain.LevelProgress) bool {
	return p.Level >= c.MaxLevel
}

// Apply adds exp to the pool and levels up while the pool covers the requirement.
// The pool is clamped to 0 once MaxLevel is reached. Apply(Apply(p, x), y) equals Apply(p, x+y).
// Amounts that would push the pool past math.MaxInt64 are rejected with ErrExpOverflow.
func (c Curve) Apply(p domain.LevelProgress, exp int64) (domain.LevelProgress, error) {
	if exp < 0 {
		return p, fmt.Errorf("%w: %d", domain.ErrNegativeAmount, exp)
	}
	if p.Exp > math.MaxInt64-exp {
		return p, fmt.Errorf("%w: %d + %d", domain.ErrExpOverflow, p.Exp, exp)
	}
	p.Exp += exp
	for p.Level < c.MaxLevel {
		req := c.RequiredExp(p.Level)
		if p.Exp < req {
			break
		}
		p.Exp -= req
		p.Level++
	}
	if p.Level >= c.MaxLevel {
		p.Level = c.MaxLevel
		p.Exp = 0
	}
	return p, nil
}

// ExpToNext returns the exp still missing for the next level, or 0 at max level.
func (c Curve) ExpToNext(p domain.LevelProgress) int64 {
	if c.AtMax(p) {
		return 0
	}
	return c.RequiredExp(p.Level) - p.Exp
}

// Curves holds the curve of each progression axis.
type Curves struct {
	Account    Curve `json:"account"`
	Character  Curve `json:"character"`
	Mastery    Curve `json:"mastery"`
	BattlePass Curve `json:"battle_pass"`
}

// For returns the curve of axis.
func (c Curves) For(axis domain.LevelAxis) (Curve, error) {
	switch axis {
	case domain.AxisAccount:
		return c.Account, nil
	case domain.AxisCharacter:
		return c.Character, nil
	case domain.AxisMastery:
		return c.Mastery, nil
	case domain.AxisBattlePass:
		return c.BattlePass, nil
	}
	return Curve{}, fmt.Errorf("unknown level axis %q", axis)
}
