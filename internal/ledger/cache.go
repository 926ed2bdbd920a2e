// Package ledger holds the process-resident mirror of a player's economic state.
package ledger

import (
	"context"
	"sync"

	"github.com/osse101/playerledger/internal/domain"
)

// Store persists the local mirror between sessions.
type Store interface {
	// Load returns domain.ErrAccountNotFound when nothing was saved for accountID.
	Load(ctx context.Context, accountID string) (*domain.Account, error)
	Save(ctx context.Context, acc *domain.Account) error
}

// Cache is the local, optimistic mirror of one account. It never talks to the network;
// it only changes through Replace (reconciliation) and Apply (a confirmed remote delta).
type Cache struct {
	mu  sync.RWMutex
	acc *domain.Account
}

// NewCache creates an empty cache for accountID.
func NewCache(accountID string) *Cache {
	return &Cache{acc: domain.NewAccount(accountID)}
}

// AccountID returns the id of the mirrored account.
func (c *Cache) AccountID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.acc.ID
}

// Replace swaps the whole mirror, e.g. after reconciliation.
func (c *Cache) Replace(acc *domain.Account) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acc = acc.Clone()
	c.acc.EnsureMaps()
}

// Apply overlays a confirmed remote delta. Applying the same delta twice is harmless.
func (c *Cache) Apply(changes domain.Changes) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acc.Apply(changes)
}

// ApplyResult overlays a delta and then the authoritative full balances, if any.
func (c *Cache) ApplyResult(changes domain.Changes, balances map[string]int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acc.Apply(changes)
	for k, v := range balances {
		c.acc.Balances[k] = v
	}
}

// Account returns a deep copy of the mirror.
func (c *Cache) Account() *domain.Account {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.acc.Clone()
}

// Balance returns the balance of one currency.
func (c *Cache) Balance(currency string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.acc.Balances[currency]
}

// Balances returns a copy of every balance.
func (c *Cache) Balances() map[string]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]int64, len(c.acc.Balances))
	for k, v := range c.acc.Balances {
		out[k] = v
	}
	return out
}

// Owns reports whether the account holds an entitlement.
func (c *Cache) Owns(kind domain.RewardKind, templateID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.acc.Owns(kind, templateID)
}

// Item returns one inventory item instance.
func (c *Cache) Item(uniqueID string) (domain.InventoryItemInstance, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, ok := c.acc.Items[uniqueID]
	return it.Clone(), ok
}

// ItemsByTemplate returns every instance of a template.
func (c *Cache) ItemsByTemplate(templateID string) []domain.InventoryItemInstance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.acc.ItemsByTemplate(templateID)
}

// Track returns a copy of a reward track. ok is false if it was never provisioned.
func (c *Cache) Track(kind domain.TrackKind) (domain.RewardTrack, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.acc.Tracks[kind]
	return t.Clone(), ok
}

// Level returns one level progress.
func (c *Cache) Level(axis domain.LevelAxis, subjectID string) domain.LevelProgress {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.acc.Level(axis, subjectID)
}

// BattlePass returns a copy of the battle pass progress.
func (c *Cache) BattlePass() domain.BattlePassProgress {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.acc.BattlePass.Clone()
}

// Quest returns one quest progress.
func (c *Cache) Quest(questID string) (domain.QuestProgress, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.acc.Quests[questID]
	return q, ok
}

// Save persists the mirror to store.
func (c *Cache) Save(ctx context.Context, store Store) error {
	return store.Save(ctx, c.Account())
}
