// Package economy holds the authoritative check-and-mutate rules shared by every
// backend store. Engine methods mutate the working copy they are given and return the
// post-state delta; on error the caller must discard the working copy.
package economy

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/osse101/playerledger/internal/claim"
	"github.com/osse101/playerledger/internal/domain"
	"github.com/osse101/playerledger/internal/grant"
	"github.com/osse101/playerledger/internal/leveling"
)

var validate = validator.New()

// Engine applies economy operations to an account according to a Catalog.
type Engine struct {
	catalog *Catalog
	granter *grant.Granter
	loc     *time.Location
}

// NewEngine creates an Engine. Calendar days are computed in loc (UTC when nil).
func NewEngine(catalog *Catalog, loc *time.Location, opts ...grant.Option) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		catalog: catalog,
		granter: grant.New(catalog, opts...),
		loc:     loc,
	}
}

// Catalog returns the catalog the engine enforces.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Location returns the time zone calendar days are computed in.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Today returns the civil day containing now.
func (e *Engine) Today(now time.Time) time.Time {
	return domain.DayOf(now, e.loc)
}

// reject builds the error reported for an authoritative rule failure.
func reject(op string, reason domain.ReasonCode, cause error) error {
	return domain.NewError(domain.KindForReason(reason), reason, op, cause)
}

// Provision creates the first-touch defaults of an account: reward tracks anchored
// today, level records, battle pass and catalog default balances. It reports whether
// anything was provisioned. It always rebinds the battle pass claimed set to the catalog.
func (e *Engine) Provision(acc *domain.Account, now time.Time) (domain.Changes, bool) {
	acc.EnsureMaps()
	e.bindBattlePass(acc)

	var changes domain.Changes
	if acc.Provisioned() {
		return changes, false
	}
	today := e.Today(now)
	acc.CreatedAt = now.UTC()

	for _, kind := range domain.TrackKinds {
		if _, ok := acc.Tracks[kind]; !ok {
			acc.Tracks[kind] = domain.NewRewardTrack(kind, today)
		}
		changes.PutTrack(acc.Tracks[kind])
	}

	key := domain.LevelKey(domain.AxisAccount, "")
	if _, ok := acc.Levels[key]; !ok {
		acc.Levels[key] = domain.NewLevelProgress(domain.AxisAccount, "")
	}
	changes.PutLevel(acc.Levels[key])
	changes.PutBattlePass(acc.BattlePass)

	currencies := make([]string, 0, len(e.catalog.DefaultBalances))
	for c := range e.catalog.DefaultBalances {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)
	for _, c := range currencies {
		if _, ok := acc.Balances[c]; ok {
			continue
		}
		amount := e.catalog.DefaultBalances[c]
		acc.Balances[c] = amount
		changes.SetBalance(c, amount, amount)
	}
	return changes, true
}

func (e *Engine) bindBattlePass(acc *domain.Account) {
	bound := len(e.catalog.BattlePass.Rewards)
	if bound == 0 || acc.BattlePass.Claimed.Bound() == bound {
		return
	}
	if bounded, err := acc.BattlePass.Claimed.WithBound(bound); err == nil {
		acc.BattlePass.Claimed = bounded
	}
}

func trackOp(kind domain.TrackKind) string {
	if kind == domain.TrackNewPlayer {
		return OpClaimNewPlayer
	}
	return OpClaimDaily
}

// matchReward accepts an empty client descriptor or one equal to the catalog slot.
func matchReward(op string, want, got domain.Reward) error {
	if got == (domain.Reward{}) || got == want {
		return nil
	}
	return reject(op, domain.ReasonGenericError, fmt.Errorf("%w: got %s, want %s", domain.ErrRewardMismatch, got, want))
}

// ClaimTrack claims slot dayIndex of a daily or new-player track, applying the lazy
// cycle reset first.
func (e *Engine) ClaimTrack(acc *domain.Account, kind domain.TrackKind, dayIndex int, reward domain.Reward, now time.Time) (domain.Changes, error) {
	op := trackOp(kind)
	length := e.catalog.TrackLength(kind)
	if length == 0 {
		return domain.Changes{}, reject(op, domain.ReasonGenericError, fmt.Errorf("%w: %s", domain.ErrUnknownTrack, kind))
	}
	acc.EnsureMaps()
	today := e.Today(now)

	track, ok := acc.Tracks[kind]
	if !ok {
		track = domain.NewRewardTrack(kind, today)
	}
	track = track.Clone()
	claim.Normalize(&track, length, kind.Cyclic(), today)

	if o := claim.Check(track, length, dayIndex, today); o != claim.OK {
		return domain.Changes{}, o.Err(domain.KindForReason(o.Reason()), op, dayIndex)
	}
	want, _ := e.catalog.TrackReward(kind, dayIndex)
	if err := matchReward(op, want, reward); err != nil {
		return domain.Changes{}, err
	}
	if err := claim.Record(&track, dayIndex, today); err != nil {
		return domain.Changes{}, reject(op, domain.ReasonGenericError, err)
	}

	changes, err := e.granter.Grant(acc, want, now)
	if err != nil {
		return domain.Changes{}, err
	}
	acc.Tracks[kind] = track
	changes.PutTrack(track)
	return changes, nil
}

// ClaimBattlePass claims battle pass slot index.
func (e *Engine) ClaimBattlePass(acc *domain.Account, index int, reward domain.Reward, now time.Time) (domain.Changes, error) {
	rewards := e.catalog.BattlePass.Rewards
	if index < 0 || index >= len(rewards) {
		return domain.Changes{}, reject(OpClaimBattlePass, domain.ReasonGenericError, fmt.Errorf("%w: %d", domain.ErrOutOfRange, index))
	}
	e.bindBattlePass(acc)
	bp := acc.BattlePass.Clone()
	slot := rewards[index]

	switch {
	case bp.Claimed.Has(index):
		return domain.Changes{}, reject(OpClaimBattlePass, domain.ReasonAlreadyClaimed, nil)
	case slot.Premium && !bp.Premium:
		return domain.Changes{}, reject(OpClaimBattlePass, domain.ReasonNotAvailableYet, domain.ErrPremiumRequired)
	case bp.Progress.Level < slot.Level:
		return domain.Changes{}, reject(OpClaimBattlePass, domain.ReasonNotAvailableYet,
			fmt.Errorf("level %d below %d", bp.Progress.Level, slot.Level))
	}
	if err := matchReward(OpClaimBattlePass, slot.Reward, reward); err != nil {
		return domain.Changes{}, err
	}
	if err := bp.Claimed.Add(index); err != nil {
		return domain.Changes{}, reject(OpClaimBattlePass, domain.ReasonGenericError, err)
	}

	changes, err := e.granter.Grant(acc, slot.Reward, now)
	if err != nil {
		return domain.Changes{}, err
	}
	acc.BattlePass = bp
	changes.PutBattlePass(bp)
	return changes, nil
}

// UnlockPremium buys the premium battle pass.
func (e *Engine) UnlockPremium(acc *domain.Account) (domain.Changes, error) {
	if acc.BattlePass.Premium {
		return domain.Changes{}, reject(OpUnlockPremium, domain.ReasonAlreadyClaimed, domain.ErrPremiumUnlocked)
	}
	price := e.catalog.BattlePass.PremiumPrice
	changes, err := e.granter.Spend(acc, price.Currency, price.Amount)
	if err != nil {
		return domain.Changes{}, err
	}
	acc.BattlePass.Premium = true
	changes.PutBattlePass(acc.BattlePass)
	return changes, nil
}

func expOp(axis domain.LevelAxis) string {
	switch axis {
	case domain.AxisCharacter:
		return OpAddCharExp
	case domain.AxisMastery:
		return OpAddMasteryExp
	}
	return OpAddAccountExp
}

// AddExp adds exp to one progression. It fails with max_level if the progression
// is already at its terminal level.
func (e *Engine) AddExp(acc *domain.Account, axis domain.LevelAxis, subjectID string, amount int64) (domain.Changes, error) {
	op := expOp(axis)
	if amount < 0 {
		return domain.Changes{}, reject(op, domain.ReasonGenericError, fmt.Errorf("%w: %d", domain.ErrNegativeAmount, amount))
	}
	if (axis == domain.AxisCharacter || axis == domain.AxisMastery) && subjectID == "" {
		return domain.Changes{}, reject(op, domain.ReasonGenericError, errors.New(ErrMsgCharacterRequired))
	}
	curve, err := e.catalog.Curves.For(axis)
	if err != nil {
		return domain.Changes{}, reject(op, domain.ReasonGenericError, err)
	}
	if curve.AtMax(acc.Level(axis, subjectID)) {
		return domain.Changes{}, reject(op, domain.ReasonMaxLevel, nil)
	}

	var changes domain.Changes
	if err := e.applyExp(acc, curve, axis, subjectID, amount, &changes); err != nil {
		return domain.Changes{}, reject(op, domain.ReasonGenericError, err)
	}
	return changes, nil
}

func (e *Engine) applyExp(acc *domain.Account, curve leveling.Curve, axis domain.LevelAxis, subjectID string, amount int64, changes *domain.Changes) error {
	acc.EnsureMaps()
	next, err := curve.Apply(acc.Level(axis, subjectID), amount)
	if err != nil {
		return err
	}
	if axis == domain.AxisBattlePass {
		acc.BattlePass.Progress = next
		changes.PutBattlePass(acc.BattlePass)
		return nil
	}
	acc.Levels[next.Key()] = next
	changes.PutLevel(next)
	return nil
}

// CompleteSession applies every exp gain, currency earning and quest increment of a
// finished game session as one unit. A session id is applied at most once.
// Progressions already at max level are left untouched.
func (e *Engine) CompleteSession(acc *domain.Account, s domain.SessionSummary, now time.Time) (domain.Changes, error) {
	if err := validate.Struct(s); err != nil {
		return domain.Changes{}, reject(OpCompleteSession, domain.ReasonGenericError, err)
	}
	for _, id := range acc.Sessions {
		if id == s.SessionID {
			return domain.Changes{}, reject(OpCompleteSession, domain.ReasonAlreadyClaimed, fmt.Errorf(ErrMsgSessionAlreadyApplied, id))
		}
	}

	var changes domain.Changes
	gains := []struct {
		axis    domain.LevelAxis
		subject string
		amount  int64
	}{
		{domain.AxisAccount, "", s.AccountExp},
		{domain.AxisCharacter, s.CharacterID, s.CharacterExp},
		{domain.AxisMastery, s.CharacterID, s.MasteryExp},
		{domain.AxisBattlePass, "", s.BattlePassExp},
	}
	for _, g := range gains {
		if g.amount == 0 {
			continue
		}
		curve, err := e.catalog.Curves.For(g.axis)
		if err != nil {
			return domain.Changes{}, reject(OpCompleteSession, domain.ReasonGenericError, err)
		}
		if curve.AtMax(acc.Level(g.axis, g.subject)) {
			continue
		}
		if err := e.applyExp(acc, curve, g.axis, g.subject, g.amount, &changes); err != nil {
			return domain.Changes{}, reject(OpCompleteSession, domain.ReasonGenericError, err)
		}
	}

	for _, currency := range sortedKeys(s.Currency) {
		c, err := e.granter.Grant(acc, domain.Reward{Kind: domain.RewardCurrency, TemplateID: currency, Amount: s.Currency[currency]}, now)
		if err != nil {
			return domain.Changes{}, err
		}
		changes.Merge(c)
	}

	for _, questID := range sortedKeys(s.Quests) {
		c, err := e.advanceQuest(acc, questID, s.Quests[questID], now)
		if err != nil {
			return domain.Changes{}, err
		}
		changes.Merge(c)
	}

	acc.Sessions = append(acc.Sessions, s.SessionID)
	if n := len(acc.Sessions); n > MaxRecentSessions {
		acc.Sessions = append([]string(nil), acc.Sessions[n-MaxRecentSessions:]...)
	}
	return changes, nil
}

func (e *Engine) advanceQuest(acc *domain.Account, questID string, inc int64, now time.Time) (domain.Changes, error) {
	var changes domain.Changes
	def, ok := e.catalog.Quests[questID]
	if !ok {
		return changes, reject(OpCompleteSession, domain.ReasonGenericError, fmt.Errorf("%w: %s", domain.ErrUnknownQuest, questID))
	}
	acc.EnsureMaps()
	q, ok := acc.Quests[questID]
	if !ok {
		q = domain.QuestProgress{QuestID: questID, Kind: def.Kind}
	}
	if q.Completed || inc == 0 {
		return changes, nil
	}

	q.Progress += inc
	if q.Progress >= def.Target {
		c, err := e.granter.Grant(acc, def.Reward, now)
		if err != nil {
			return changes, err
		}
		changes.Merge(c)
		q.Completions++
		if def.Kind == domain.QuestRepeatable {
			q.Progress = 0
		} else {
			q.Progress = def.Target
			q.Completed = true
		}
	}
	acc.Quests[questID] = q
	changes.PutQuest(q)
	return changes, nil
}

// RedeemCoupon redeems a coupon looked up by the store. A nil coupon is an unknown code.
func (e *Engine) RedeemCoupon(acc *domain.Account, coupon *domain.Coupon, now time.Time) (domain.Changes, error) {
	if coupon == nil {
		return domain.Changes{}, reject(OpRedeemCoupon, domain.ReasonGenericError, domain.ErrUnknownCoupon)
	}
	if coupon.Used {
		return domain.Changes{}, reject(OpRedeemCoupon, domain.ReasonAlreadyClaimed, nil)
	}
	changes, err := e.granter.Grant(acc, coupon.Reward, now)
	if err != nil {
		return domain.Changes{}, err
	}
	redeemed := *coupon
	redeemed.Used = true
	redeemed.RedeemedBy = acc.ID
	redeemed.RedeemedAt = now.UTC()
	changes.Coupon = &redeemed
	return changes, nil
}

// Purchase buys a catalog offer. Offers made only of entitlements the account
// already owns are rejected with already_claimed before anything is spent.
func (e *Engine) Purchase(acc *domain.Account, offerID string, now time.Time) (domain.Changes, error) {
	offer, ok := e.catalog.Offers[offerID]
	if !ok {
		return domain.Changes{}, reject(OpPurchaseOffer, domain.ReasonGenericError, fmt.Errorf("%w: %s", domain.ErrUnknownOffer, offerID))
	}
	if ownsAll(acc, offer.Rewards) {
		return domain.Changes{}, reject(OpPurchaseOffer, domain.ReasonAlreadyClaimed, nil)
	}

	changes, err := e.granter.Spend(acc, offer.Price.Currency, offer.Price.Amount)
	if err != nil {
		return domain.Changes{}, err
	}
	granted, err := e.granter.GrantAll(acc, offer.Rewards, now)
	if err != nil {
		return domain.Changes{}, err
	}
	changes.Merge(granted)
	return changes, nil
}

func ownsAll(acc *domain.Account, rewards []domain.Reward) bool {
	for _, r := range rewards {
		if !r.IsEntitlement() || !acc.Owns(r.Kind, r.TemplateID) {
			return false
		}
	}
	return len(rewards) > 0
}

// UpgradeItem raises one stat of an item instance. The cost is
// UpgradeBaseCost * (level+1) of the template's upgrade currency.
func (e *Engine) UpgradeItem(acc *domain.Account, uniqueID string, statIndex int) (domain.Changes, error) {
	it, ok := acc.Items[uniqueID]
	if !ok {
		return domain.Changes{}, reject(OpUpgradeItem, domain.ReasonGenericError, fmt.Errorf("%w: %s", domain.ErrUnknownItem, uniqueID))
	}
	def, ok := e.catalog.Items[it.TemplateID]
	if !ok {
		return domain.Changes{}, reject(OpUpgradeItem, domain.ReasonGenericError, fmt.Errorf(ErrMsgUnknownItemTemplate, it.TemplateID))
	}
	if statIndex < 0 || statIndex >= def.Stats {
		return domain.Changes{}, reject(OpUpgradeItem, domain.ReasonGenericError, fmt.Errorf("%w: %d", domain.ErrInvalidStatIndex, statIndex))
	}
	if it.Level >= def.MaxLevel {
		return domain.Changes{}, reject(OpUpgradeItem, domain.ReasonMaxLevel, nil)
	}

	cost := def.UpgradeBaseCost * int64(it.Level+1)
	changes, err := e.granter.Spend(acc, def.UpgradeCurrency, cost)
	if err != nil {
		return domain.Changes{}, err
	}
	it = it.Clone()
	for len(it.UpgradeLevels) < def.Stats {
		it.UpgradeLevels = append(it.UpgradeLevels, 0)
	}
	it.UpgradeLevels[statIndex]++
	it.Level++
	acc.Items[uniqueID] = it
	changes.PutItem(it)
	return changes, nil
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
