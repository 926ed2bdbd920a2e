// Package rewards is the client-side entry point for economy actions: it validates
// against the local ledger, executes remotely and applies the confirmed delta.
package rewards

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/osse101/playerledger/internal/backend"
	"github.com/osse101/playerledger/internal/claim"
	"github.com/osse101/playerledger/internal/concurrency"
	"github.com/osse101/playerledger/internal/domain"
	"github.com/osse101/playerledger/internal/economy"
	"github.com/osse101/playerledger/internal/ledger"
	"github.com/osse101/playerledger/internal/logger"
)

// Session runs economy actions for one logged-in account.
type Session struct {
	accountID string
	svc       backend.Service
	engine    *economy.Engine
	cache     *ledger.Cache
	local     ledger.Store
	inFlight  *concurrency.LockManager
	now       func() time.Time
}

// NewSession binds a session to the cache of accountID. local may be nil.
func NewSession(svc backend.Service, engine *economy.Engine, cache *ledger.Cache, local ledger.Store) *Session {
	return &Session{
		accountID: cache.AccountID(),
		svc:       svc,
		engine:    engine,
		cache:     cache,
		local:     local,
		inFlight:  concurrency.NewLockManager(),
		now:       time.Now,
	}
}

// WithClock overrides the clock used for local validation.
func (s *Session) WithClock(now func() time.Time) *Session {
	s.now = now
	return s
}

// Cache returns the ledger the session keeps current.
func (s *Session) Cache() *ledger.Cache {
	return s.cache
}

// TrackState reports what the UI should show for a reward track today.
func (s *Session) TrackState(kind domain.TrackKind) claim.State {
	length := s.engine.Catalog().TrackLength(kind)
	today := s.engine.Today(s.now())
	track, ok := s.cache.Track(kind)
	if !ok {
		track = domain.NewRewardTrack(kind, today)
	}
	return claim.Evaluate(track, length, kind.Cyclic(), today)
}

// ClaimDaily claims slot dayIndex of the daily track.
func (s *Session) ClaimDaily(ctx context.Context, dayIndex int) (*backend.Result, error) {
	return s.claimTrack(ctx, domain.TrackDaily, dayIndex)
}

// ClaimNewPlayer claims slot dayIndex of the new-player track.
func (s *Session) ClaimNewPlayer(ctx context.Context, dayIndex int) (*backend.Result, error) {
	return s.claimTrack(ctx, domain.TrackNewPlayer, dayIndex)
}

func (s *Session) claimTrack(ctx context.Context, kind domain.TrackKind, dayIndex int) (*backend.Result, error) {
	op := "claim_" + string(kind)
	unlock, err := s.acquire(op, "track/"+string(kind))
	if err != nil {
		return nil, err
	}
	defer unlock()

	length := s.engine.Catalog().TrackLength(kind)
	today := s.engine.Today(s.now())
	track, ok := s.cache.Track(kind)
	if !ok {
		track = domain.NewRewardTrack(kind, today)
	}
	claim.Normalize(&track, length, kind.Cyclic(), today)
	if err := claim.Validate(track, length, dayIndex, today); err != nil {
		return nil, s.rejectLocally(ctx, op, err)
	}
	reward, _ := s.engine.Catalog().TrackReward(kind, dayIndex)

	return s.execute(ctx, op, func() (*backend.Result, error) {
		return backend.ClaimTrack(ctx, s.svc, s.accountID, kind, dayIndex, reward)
	})
}

// ClaimBattlePass claims battle pass slot index.
func (s *Session) ClaimBattlePass(ctx context.Context, index int) (*backend.Result, error) {
	unlock, err := s.acquire(economy.OpClaimBattlePass, "battle_pass")
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.precheck(ctx, economy.OpClaimBattlePass, func(acc *domain.Account, now time.Time) error {
		_, err := s.engine.ClaimBattlePass(acc, index, domain.Reward{}, now)
		return err
	}); err != nil {
		return nil, err
	}
	reward := s.engine.Catalog().BattlePass.Rewards[index].Reward

	return s.execute(ctx, economy.OpClaimBattlePass, func() (*backend.Result, error) {
		return s.svc.ClaimBattlePassReward(ctx, s.accountID, index, reward)
	})
}

// UnlockBattlePassPremium buys the premium battle pass.
func (s *Session) UnlockBattlePassPremium(ctx context.Context) (*backend.Result, error) {
	unlock, err := s.acquire(economy.OpUnlockPremium, "battle_pass")
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.precheck(ctx, economy.OpUnlockPremium, func(acc *domain.Account, _ time.Time) error {
		_, err := s.engine.UnlockPremium(acc)
		return err
	}); err != nil {
		return nil, err
	}
	return s.execute(ctx, economy.OpUnlockPremium, func() (*backend.Result, error) {
		return s.svc.UnlockBattlePassPremium(ctx, s.accountID)
	})
}

// AddAccountExp adds account experience.
func (s *Session) AddAccountExp(ctx context.Context, amount int64) (*backend.Result, error) {
	return s.addExp(ctx, domain.AxisAccount, "", amount)
}

// AddCharacterExp adds experience to one character.
func (s *Session) AddCharacterExp(ctx context.Context, characterID string, amount int64) (*backend.Result, error) {
	return s.addExp(ctx, domain.AxisCharacter, characterID, amount)
}

// AddCharacterMasteryExp adds mastery experience to one character.
func (s *Session) AddCharacterMasteryExp(ctx context.Context, characterID string, amount int64) (*backend.Result, error) {
	return s.addExp(ctx, domain.AxisMastery, characterID, amount)
}

func (s *Session) addExp(ctx context.Context, axis domain.LevelAxis, subjectID string, amount int64) (*backend.Result, error) {
	op := economy.OpAddAccountExp
	switch axis {
	case domain.AxisCharacter:
		op = economy.OpAddCharExp
	case domain.AxisMastery:
		op = economy.OpAddMasteryExp
	}
	if err := s.precheck(ctx, op, func(acc *domain.Account, _ time.Time) error {
		_, err := s.engine.AddExp(acc, axis, subjectID, amount)
		return err
	}); err != nil {
		return nil, err
	}
	return s.execute(ctx, op, func() (*backend.Result, error) {
		switch axis {
		case domain.AxisCharacter:
			return s.svc.AddCharacterExp(ctx, s.accountID, subjectID, amount)
		case domain.AxisMastery:
			return s.svc.AddCharacterMasteryExp(ctx, s.accountID, subjectID, amount)
		default:
			return s.svc.AddAccountExp(ctx, s.accountID, amount)
		}
	})
}

// CompleteGameSession reports a finished game session. The cache does not track
// applied session ids, so a replay reaches the backend, which rejects it with
// already_claimed and grants nothing.
func (s *Session) CompleteGameSession(ctx context.Context, summary domain.SessionSummary) (*backend.Result, error) {
	unlock, err := s.acquire(economy.OpCompleteSession, "session/"+summary.SessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.precheck(ctx, economy.OpCompleteSession, func(acc *domain.Account, now time.Time) error {
		_, err := s.engine.CompleteSession(acc, summary, now)
		return err
	}); err != nil {
		return nil, err
	}
	return s.execute(ctx, economy.OpCompleteSession, func() (*backend.Result, error) {
		return s.svc.CompleteGameSession(ctx, s.accountID, summary)
	})
}

// RedeemCoupon redeems a coupon code. Whether the code exists and is unused is
// only known to the backend.
func (s *Session) RedeemCoupon(ctx context.Context, code string) (*backend.Result, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, s.rejectLocally(ctx, OpValidateCoupon,
			domain.Validation(OpValidateCoupon, domain.ReasonGenericError, domain.ErrUnknownCoupon))
	}
	unlock, err := s.acquire(economy.OpRedeemCoupon, "coupon/"+code)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return s.execute(ctx, economy.OpRedeemCoupon, func() (*backend.Result, error) {
		return s.svc.RedeemCoupon(ctx, s.accountID, code)
	})
}

// PurchaseOffer buys a catalog offer.
func (s *Session) PurchaseOffer(ctx context.Context, offerID string) (*backend.Result, error) {
	unlock, err := s.acquire(economy.OpPurchaseOffer, "offer/"+offerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.precheck(ctx, economy.OpPurchaseOffer, func(acc *domain.Account, now time.Time) error {
		_, err := s.engine.Purchase(acc, offerID, now)
		return err
	}); err != nil {
		return nil, err
	}
	return s.execute(ctx, economy.OpPurchaseOffer, func() (*backend.Result, error) {
		return s.svc.PurchaseOffer(ctx, s.accountID, offerID)
	})
}

// UpgradeItem raises one stat of an owned item instance.
func (s *Session) UpgradeItem(ctx context.Context, uniqueID string, statIndex int) (*backend.Result, error) {
	unlock, err := s.acquire(economy.OpUpgradeItem, "item/"+uniqueID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.precheck(ctx, economy.OpUpgradeItem, func(acc *domain.Account, _ time.Time) error {
		_, err := s.engine.UpgradeItem(acc, uniqueID, statIndex)
		return err
	}); err != nil {
		return nil, err
	}
	return s.execute(ctx, economy.OpUpgradeItem, func() (*backend.Result, error) {
		return s.svc.UpgradeItem(ctx, s.accountID, uniqueID, statIndex)
	})
}

// acquire takes the in-flight guard for key, failing fast if a request for the
// same key has not returned yet.
func (s *Session) acquire(op, key string) (func(), error) {
	unlock, ok := s.inFlight.TryLock(key)
	if !ok {
		return nil, domain.Validation(op, domain.ReasonGenericError, fmt.Errorf("%w: %s", domain.ErrClaimInFlight, key))
	}
	return unlock, nil
}

// precheck dry-runs the authoritative rule against a copy of the cached account.
// The copy is discarded; only the verdict is kept.
func (s *Session) precheck(ctx context.Context, op string, fn func(acc *domain.Account, now time.Time) error) error {
	acc := s.cache.Account()
	now := s.now()
	s.engine.Provision(acc, now)
	if err := fn(acc, now); err != nil {
		return s.rejectLocally(ctx, op, err)
	}
	return nil
}

// rejectLocally reports err as a validation failure that never reached the network.
func (s *Session) rejectLocally(ctx context.Context, op string, err error) error {
	e, ok := domain.AsError(err)
	switch {
	case !ok:
		err = domain.Validation(op, domain.ReasonGenericError, err)
	case e.Kind != domain.KindValidation:
		err = domain.NewError(domain.KindValidation, e.Reason, op, err)
	}
	logger.FromContext(ctx).Debug(LogMsgRejectedLocally, "op", op, "account_id", s.accountID, "reason", domain.ReasonOf(err), "error", err)
	return err
}

// execute performs the remote operation and, only on success, applies the
// confirmed delta to the cache and persists it.
func (s *Session) execute(ctx context.Context, op string, call func() (*backend.Result, error)) (*backend.Result, error) {
	log := logger.FromContext(ctx)
	if err := ctx.Err(); err != nil {
		return nil, domain.Transport(op, err)
	}

	res, err := call()
	if err != nil {
		log.Info(LogMsgRemoteRejected, "op", op, "account_id", s.accountID,
			"reason", domain.ReasonOf(err), "kind", domain.KindOf(err).String(), "error", err)
		return nil, err
	}
	if res == nil || !res.Success {
		return nil, domain.Transport(op, errors.New(domain.ErrMsgTransportError))
	}

	s.cache.ApplyResult(res.Changes, res.Balances)
	log.Debug(LogMsgApplied, "op", op, "account_id", s.accountID)

	if s.local != nil {
		if err := s.cache.Save(ctx, s.local); err != nil {
			// The remote state is committed; the next reconciliation repairs the local copy.
			log.Warn(LogMsgLocalSaveFailed, "op", op, "account_id", s.accountID, "error", err)
		}
	}
	return res, nil
}
