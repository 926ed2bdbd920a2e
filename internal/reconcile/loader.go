// Package reconcile rebuilds the local ledger from the authoritative backend at login.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/osse101/playerledger/internal/backend"
	"github.com/osse101/playerledger/internal/domain"
	"github.com/osse101/playerledger/internal/economy"
	"github.com/osse101/playerledger/internal/ledger"
	"github.com/osse101/playerledger/internal/logger"
	"github.com/osse101/playerledger/internal/metrics"
)

// Result describes how the cache was populated.
type Result struct {
	// Offline is true when the backend was unreachable and the last locally saved
	// state was loaded instead.
	Offline bool
	// Fetched lists parts filled by an itemized substructure fetch.
	Fetched []domain.Part
	// Defaulted lists parts nothing was found for; they hold provisioning defaults.
	Defaulted []domain.Part
}

// Loader populates a ledger.Cache from a backend.Service.
type Loader struct {
	svc    backend.Service
	engine *economy.Engine
	local  ledger.Store
	now    func() time.Time
}

// NewLoader creates a Loader. local may be nil, which disables both local
// persistence and the offline fallback.
func NewLoader(svc backend.Service, engine *economy.Engine, local ledger.Store) *Loader {
	return &Loader{svc: svc, engine: engine, local: local, now: time.Now}
}

// WithClock overrides the clock used for provisioning defaults.
func (l *Loader) WithClock(now func() time.Time) *Loader {
	l.now = now
	return l
}

// Load fetches the consolidated snapshot, fills absent parts from itemized fetches
// or provisioning defaults, replaces the cache and persists it locally. Running it
// twice against an unchanged backend yields the same cache.
func (l *Loader) Load(ctx context.Context, accountID string, cache *ledger.Cache) (*Result, error) {
	log := logger.FromContext(ctx).With("account_id", accountID)

	acc, res, err := l.fetch(ctx, accountID)
	if err != nil {
		if domain.KindOf(err) == domain.KindTransport {
			return l.loadOffline(ctx, accountID, cache, err)
		}
		metrics.LedgerReconcileTotal.WithLabelValues(metrics.ReconcileFailed).Inc()
		return nil, err
	}

	cache.Replace(acc)
	if l.local != nil {
		if err := l.local.Save(ctx, acc); err != nil {
			log.Warn(LogMsgLocalSaveFailed, "error", err)
			metrics.LedgerReconcileTotal.WithLabelValues(metrics.ReconcileFailed).Inc()
			return res, fmt.Errorf("%s: %w", ErrMsgLocalSaveFailed, err)
		}
	}

	metrics.LedgerReconcileTotal.WithLabelValues(metrics.ReconcileOnline).Inc()
	log.Info(LogMsgReconciled, "fetched", res.Fetched, "defaulted", res.Defaulted)
	return res, nil
}

// fetch builds the reconciled account without touching the cache.
func (l *Loader) fetch(ctx context.Context, accountID string) (*domain.Account, *Result, error) {
	log := logger.FromContext(ctx).With("account_id", accountID)

	snap, err := l.svc.FetchAccountSnapshot(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	if snap.AccountID != "" && snap.AccountID != accountID {
		return nil, nil, domain.Validation("reconcile", domain.ReasonGenericError,
			fmt.Errorf("%s: %s", ErrMsgSnapshotMismatch, snap.AccountID))
	}

	acc := domain.NewAccount(accountID)
	l.engine.Provision(acc, l.now())
	acc.Overlay(snap)

	res := &Result{}
	fetcher, canFetch := l.svc.(backend.SubstructureFetcher)
	for _, part := range snap.Missing() {
		if !canFetch {
			res.Defaulted = append(res.Defaulted, part)
			continue
		}
		sub, err := fetcher.FetchSubstructure(ctx, accountID, part)
		if err != nil {
			if domain.KindOf(err) == domain.KindTransport {
				return nil, nil, err
			}
			log.Warn(LogMsgPartFetchFailed, "part", part, "error", err)
			res.Defaulted = append(res.Defaulted, part)
			continue
		}
		if sub == nil || !sub.Has(part) {
			log.Debug(LogMsgPartDefaulted, "part", part)
			res.Defaulted = append(res.Defaulted, part)
			continue
		}
		acc.Overlay(sub.Only(part))
		res.Fetched = append(res.Fetched, part)
	}

	// Rebind catalog-derived limits such as the battle pass claim bound.
	l.engine.Provision(acc, l.now())
	return acc, res, nil
}

func (l *Loader) loadOffline(ctx context.Context, accountID string, cache *ledger.Cache, cause error) (*Result, error) {
	if l.local == nil {
		metrics.LedgerReconcileTotal.WithLabelValues(metrics.ReconcileFailed).Inc()
		return nil, cause
	}
	acc, err := l.local.Load(ctx, accountID)
	if err != nil {
		metrics.LedgerReconcileTotal.WithLabelValues(metrics.ReconcileFailed).Inc()
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, fmt.Errorf("%s: %w", ErrMsgNoLocalFallback, cause)
		}
		return nil, errors.Join(cause, err)
	}
	l.engine.Provision(acc, l.now())
	cache.Replace(acc)

	metrics.LedgerReconcileTotal.WithLabelValues(metrics.ReconcileOffline).Inc()
	logger.FromContext(ctx).Warn(LogMsgOffline, "account_id", accountID, "error", cause)
	return &Result{Offline: true}, nil
}
