// Package backend defines the transport-independent Transaction Executor contract.
package backend

import (
	"context"

	"github.com/osse101/playerledger/internal/domain"
)

// Result is the outcome of a successful authoritative operation.
type Result struct {
	Success  bool             `json:"success"`
	Changes  domain.Changes   `json:"changes"`
	Balances map[string]int64 `json:"balances,omitempty"` // full post-operation balances
}

// NewResult builds a successful result.
func NewResult(changes domain.Changes, balances map[string]int64) *Result {
	out := make(map[string]int64, len(balances))
	for k, v := range balances {
		out[k] = v
	}
	return &Result{Success: true, Changes: changes, Balances: out}
}

// Service is implemented once per transport. Every method is one atomic remote
// operation: on error nothing was applied and the error is a *domain.Error carrying
// a closed reason code.
type Service interface {
	ClaimDailyReward(ctx context.Context, accountID string, dayIndex int, reward domain.Reward) (*Result, error)
	ClaimNewPlayerReward(ctx context.Context, accountID string, dayIndex int, reward domain.Reward) (*Result, error)
	ClaimBattlePassReward(ctx context.Context, accountID string, index int, reward domain.Reward) (*Result, error)
	UnlockBattlePassPremium(ctx context.Context, accountID string) (*Result, error)
	AddAccountExp(ctx context.Context, accountID string, amount int64) (*Result, error)
	AddCharacterExp(ctx context.Context, accountID, characterID string, amount int64) (*Result, error)
	AddCharacterMasteryExp(ctx context.Context, accountID, characterID string, amount int64) (*Result, error)
	CompleteGameSession(ctx context.Context, accountID string, summary domain.SessionSummary) (*Result, error)
	RedeemCoupon(ctx context.Context, accountID, code string) (*Result, error)
	PurchaseOffer(ctx context.Context, accountID, offerID string) (*Result, error)
	UpgradeItem(ctx context.Context, accountID, uniqueID string, statIndex int) (*Result, error)
	FetchAccountSnapshot(ctx context.Context, accountID string) (*domain.Snapshot, error)
}

// SubstructureFetcher is implemented by backends that can fetch one part of an
// account on its own, used to fill parts missing from a consolidated snapshot.
type SubstructureFetcher interface {
	FetchSubstructure(ctx context.Context, accountID string, part domain.Part) (*domain.Snapshot, error)
}

// ClaimTrack dispatches a track claim to the matching Service method.
func ClaimTrack(ctx context.Context, svc Service, accountID string, kind domain.TrackKind, dayIndex int, reward domain.Reward) (*Result, error) {
	if kind == domain.TrackNewPlayer {
		return svc.ClaimNewPlayerReward(ctx, accountID, dayIndex, reward)
	}
	return svc.ClaimDailyReward(ctx, accountID, dayIndex, reward)
}
