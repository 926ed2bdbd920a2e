// Package grant applies reward descriptors and currency spends to an account.
package grant

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/playerledger/internal/domain"
)

const (
	opGrant = "grant"
	opSpend = "spend"
)

// StatCounter reports how many upgradeable stats an item template has.
type StatCounter interface {
	StatCount(templateID string) int
}

// Granter mutates a working copy of an account and records the post-state delta.
type Granter struct {
	stats StatCounter
	newID func() string
}

// Option configures a Granter.
type Option func(*Granter)

// WithIDGenerator overrides the instance id generator.
func WithIDGenerator(fn func() string) Option {
	return func(g *Granter) { g.newID = fn }
}

// New creates a Granter. stats may be nil, in which case items have no upgradeable stats.
func New(stats StatCounter, opts ...Option) *Granter {
	g := &Granter{stats: stats, newID: uuid.NewString}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Grant applies r to acc and returns what changed.
//
// Currency adds to the balance. Characters, icons, frames and shop items are skipped
// if already owned. Items always create a new instance with a fresh unique id.
func (g *Granter) Grant(acc *domain.Account, r domain.Reward, now time.Time) (domain.Changes, error) {
	var changes domain.Changes
	if err := r.Validate(); err != nil {
		return changes, domain.Validation(opGrant, domain.ReasonGenericError, err)
	}
	acc.EnsureMaps()

	switch {
	case r.Kind == domain.RewardCurrency:
		before := acc.Balances[r.TemplateID]
		if before > math.MaxInt64-r.Amount {
			return changes, domain.Validation(opGrant, domain.ReasonGenericError,
				fmt.Errorf("balance overflow for %s", r.TemplateID))
		}
		acc.Balances[r.TemplateID] = before + r.Amount
		changes.SetBalance(r.TemplateID, before+r.Amount, r.Amount)

	case r.IsEntitlement():
		if acc.Owns(r.Kind, r.TemplateID) {
			return changes, nil
		}
		e := domain.Entitlement{Kind: r.Kind, TemplateID: r.TemplateID, GrantedAt: now.UTC()}
		acc.Entitlements[e.Key()] = e
		changes.AddEntitlement(e)

	case r.Kind == domain.RewardItem:
		it := g.newInstance(acc, r.TemplateID, now)
		acc.Items[it.UniqueID] = it
		changes.PutItem(it)
	}
	return changes, nil
}

// GrantAll applies every reward in order, merging the deltas.
func (g *Granter) GrantAll(acc *domain.Account, rewards []domain.Reward, now time.Time) (domain.Changes, error) {
	var all domain.Changes
	for _, r := range rewards {
		c, err := g.Grant(acc, r, now)
		if err != nil {
			return domain.Changes{}, err
		}
		all.Merge(c)
	}
	return all, nil
}

func (g *Granter) newInstance(acc *domain.Account, templateID string, now time.Time) domain.InventoryItemInstance {
	id := g.newID()
	for id == templateID || acc.Items[id].UniqueID != "" {
		id = uuid.NewString()
	}
	stats := 0
	if g.stats != nil {
		stats = g.stats.StatCount(templateID)
	}
	return domain.InventoryItemInstance{
		UniqueID:      id,
		TemplateID:    templateID,
		Level:         0,
		UpgradeLevels: make([]int, stats),
		CreatedAt:     now.UTC(),
	}
}

// Spend debits amount of currency from acc. It fails with insufficient_currency
// and leaves acc untouched if the balance does not cover it.
func (g *Granter) Spend(acc *domain.Account, currency string, amount int64) (domain.Changes, error) {
	var changes domain.Changes
	if amount < 0 {
		return changes, domain.Validation(opSpend, domain.ReasonGenericError, fmt.Errorf("%w: %d", domain.ErrNegativeAmount, amount))
	}
	acc.EnsureMaps()
	before := acc.Balances[currency]
	if before < amount {
		return changes, domain.NewError(domain.KindInsufficientResource, domain.ReasonInsufficientCurrency, opSpend,
			fmt.Errorf("%s: have %d, need %d", currency, before, amount))
	}
	if amount == 0 {
		return changes, nil
	}
	acc.Balances[currency] = before - amount
	changes.SetBalance(currency, before-amount, -amount)
	return changes, nil
}
