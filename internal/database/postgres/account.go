package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/osse101/playerledger/internal/domain"
)

type partLoader func(ctx context.Context, q querier, acc *domain.Account) error

var partLoaders = map[domain.Part]partLoader{
	domain.PartBalances:     loadBalances,
	domain.PartEntitlements: loadEntitlements,
	domain.PartItems:        loadItems,
	domain.PartTracks:       loadTracks,
	domain.PartLevels:       loadLevels,
	domain.PartBattlePass:   loadBattlePass,
	domain.PartQuests:       loadQuests,
}

// loadAccountRow reads the account header. It reports false when no row exists.
func loadAccountRow(ctx context.Context, q querier, query string, acc *domain.Account) (bool, error) {
	var (
		sessions  []byte
		createdAt *time.Time
		updatedAt time.Time
	)
	err := q.QueryRow(ctx, query, acc.ID).Scan(&sessions, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", ErrMsgFailedToLoadAccount, err)
	}
	if len(sessions) > 0 {
		if err := json.Unmarshal(sessions, &acc.Sessions); err != nil {
			return false, fmt.Errorf("failed to unmarshal sessions: %w", err)
		}
	}
	acc.CreatedAt = valueTime(createdAt)
	acc.UpdatedAt = updatedAt.UTC()
	return true, nil
}

// loadAccount reads every substructure of acc.
func loadAccount(ctx context.Context, q querier, acc *domain.Account) error {
	for _, p := range domain.Parts {
		if err := partLoaders[p](ctx, q, acc); err != nil {
			return err
		}
	}
	return nil
}

func loadBalances(ctx context.Context, q querier, acc *domain.Account) error {
	rows, err := q.Query(ctx, queryGetBalances, acc.ID)
	if err != nil {
		return fmt.Errorf("failed to query balances: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var currency string
		var amount int64
		if err := rows.Scan(&currency, &amount); err != nil {
			return fmt.Errorf("failed to scan balance: %w", err)
		}
		acc.Balances[currency] = amount
	}
	return rows.Err()
}

func loadEntitlements(ctx context.Context, q querier, acc *domain.Account) error {
	rows, err := q.Query(ctx, queryGetEntitlements, acc.ID)
	if err != nil {
		return fmt.Errorf("failed to query entitlements: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e domain.Entitlement
		if err := rows.Scan(&e.Kind, &e.TemplateID, &e.GrantedAt); err != nil {
			return fmt.Errorf("failed to scan entitlement: %w", err)
		}
		e.GrantedAt = e.GrantedAt.UTC()
		acc.Entitlements[e.Key()] = e
	}
	return rows.Err()
}

func loadItems(ctx context.Context, q querier, acc *domain.Account) error {
	rows, err := q.Query(ctx, queryGetItems, acc.ID)
	if err != nil {
		return fmt.Errorf("failed to query inventory items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.InventoryItemInstance
		var upgrades []byte
		if err := rows.Scan(&it.UniqueID, &it.TemplateID, &it.Level, &upgrades, &it.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan inventory item: %w", err)
		}
		if err := json.Unmarshal(upgrades, &it.UpgradeLevels); err != nil {
			return fmt.Errorf("failed to unmarshal upgrade levels: %w", err)
		}
		it.CreatedAt = it.CreatedAt.UTC()
		acc.Items[it.UniqueID] = it
	}
	return rows.Err()
}

func loadTracks(ctx context.Context, q querier, acc *domain.Account) error {
	rows, err := q.Query(ctx, queryGetTracks, acc.ID)
	if err != nil {
		return fmt.Errorf("failed to query reward tracks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			t         domain.RewardTrack
			lastClaim *time.Time
			claimed   []byte
		)
		if err := rows.Scan(&t.Kind, &t.AnchorDate, &lastClaim, &claimed); err != nil {
			return fmt.Errorf("failed to scan reward track: %w", err)
		}
		if err := json.Unmarshal(claimed, &t.Claimed); err != nil {
			return fmt.Errorf("failed to unmarshal claimed set: %w", err)
		}
		t.AnchorDate = t.AnchorDate.UTC()
		t.LastClaimDate = valueTime(lastClaim)
		acc.Tracks[t.Kind] = t
	}
	return rows.Err()
}

func loadLevels(ctx context.Context, q querier, acc *domain.Account) error {
	rows, err := q.Query(ctx, queryGetLevels, acc.ID)
	if err != nil {
		return fmt.Errorf("failed to query level progress: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p domain.LevelProgress
		if err := rows.Scan(&p.Axis, &p.SubjectID, &p.Level, &p.Exp); err != nil {
			return fmt.Errorf("failed to scan level progress: %w", err)
		}
		acc.Levels[p.Key()] = p
	}
	return rows.Err()
}

func loadBattlePass(ctx context.Context, q querier, acc *domain.Account) error {
	var (
		level   int
		exp     int64
		premium bool
		claimed []byte
		bound   int
	)
	err := q.QueryRow(ctx, queryGetBattlePass, acc.ID).Scan(&level, &exp, &premium, &claimed, &bound)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load battle pass: %w", err)
	}
	set := domain.NewBoundedClaimedSet(bound)
	if err := json.Unmarshal(claimed, &set); err != nil {
		return fmt.Errorf("failed to unmarshal claimed set: %w", err)
	}
	acc.BattlePass = domain.BattlePassProgress{
		Progress: domain.LevelProgress{Axis: domain.AxisBattlePass, Level: level, Exp: exp},
		Premium:  premium,
		Claimed:  set,
	}
	return nil
}

func loadQuests(ctx context.Context, q querier, acc *domain.Account) error {
	rows, err := q.Query(ctx, queryGetQuests, acc.ID)
	if err != nil {
		return fmt.Errorf("failed to query quest progress: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var qp domain.QuestProgress
		if err := rows.Scan(&qp.QuestID, &qp.Kind, &qp.Progress, &qp.Completed, &qp.Completions); err != nil {
			return fmt.Errorf("failed to scan quest progress: %w", err)
		}
		acc.Quests[qp.QuestID] = qp
	}
	return rows.Err()
}

// persistChanges writes the account header, the battle pass and every row touched by c.
func persistChanges(ctx context.Context, q querier, acc *domain.Account, c domain.Changes) error {
	sessions, err := json.Marshal(acc.Sessions)
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}
	if _, err := q.Exec(ctx, queryUpdateAccount, acc.ID, sessions, ptrTime(acc.CreatedAt), acc.UpdatedAt); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToSaveAccount, err)
	}

	for currency, amount := range c.Balances {
		if _, err := q.Exec(ctx, queryUpsertBalance, acc.ID, currency, amount); err != nil {
			if isCheckViolation(err) {
				return domain.NewError(domain.KindInsufficientResource, domain.ReasonInsufficientCurrency, "persist_balance", err)
			}
			return fmt.Errorf("failed to save balance %s: %w", currency, err)
		}
	}
	for _, e := range c.Entitlements {
		if _, err := q.Exec(ctx, queryInsertEntitlement, acc.ID, e.Kind, e.TemplateID, e.GrantedAt.UTC()); err != nil {
			return fmt.Errorf("failed to save entitlement %s: %w", e.Key(), err)
		}
	}
	for _, it := range c.Items {
		upgrades, err := json.Marshal(nonNilInts(it.UpgradeLevels))
		if err != nil {
			return fmt.Errorf("failed to marshal upgrade levels: %w", err)
		}
		if _, err := q.Exec(ctx, queryUpsertItem, it.UniqueID, acc.ID, it.TemplateID, it.Level, upgrades, it.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("failed to save inventory item %s: %w", it.UniqueID, err)
		}
	}
	for _, t := range c.Tracks {
		claimed, err := json.Marshal(t.Claimed)
		if err != nil {
			return fmt.Errorf("failed to marshal claimed set: %w", err)
		}
		if _, err := q.Exec(ctx, queryUpsertTrack, acc.ID, t.Kind, t.AnchorDate.UTC(), ptrTime(t.LastClaimDate), claimed); err != nil {
			return fmt.Errorf("failed to save reward track %s: %w", t.Kind, err)
		}
	}
	for _, p := range c.Levels {
		if p.Axis == domain.AxisBattlePass {
			continue
		}
		if _, err := q.Exec(ctx, queryUpsertLevel, acc.ID, p.Axis, p.SubjectID, p.Level, p.Exp); err != nil {
			return fmt.Errorf("failed to save level progress %s: %w", p.Key(), err)
		}
	}
	if err := persistBattlePass(ctx, q, acc.ID, acc.BattlePass); err != nil {
		return err
	}
	for _, qp := range c.Quests {
		if _, err := q.Exec(ctx, queryUpsertQuest, acc.ID, qp.QuestID, qp.Kind, qp.Progress, qp.Completed, qp.Completions); err != nil {
			return fmt.Errorf("failed to save quest progress %s: %w", qp.QuestID, err)
		}
	}
	return nil
}

func persistBattlePass(ctx context.Context, q querier, accountID string, bp domain.BattlePassProgress) error {
	claimed, err := json.Marshal(bp.Claimed)
	if err != nil {
		return fmt.Errorf("failed to marshal claimed set: %w", err)
	}
	_, err = q.Exec(ctx, queryUpsertBattlePass, accountID, bp.Progress.Level, bp.Progress.Exp, bp.Premium, claimed, bp.Claimed.Bound())
	if err != nil {
		return fmt.Errorf("failed to save battle pass: %w", err)
	}
	return nil
}

func nonNilInts(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}
