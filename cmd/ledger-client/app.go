package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/osse101/playerledger/internal/backend"
	"github.com/osse101/playerledger/internal/config"
	"github.com/osse101/playerledger/internal/database/sqlite"
	"github.com/osse101/playerledger/internal/domain"
	"github.com/osse101/playerledger/internal/economy"
	"github.com/osse101/playerledger/internal/ledger"
	"github.com/osse101/playerledger/internal/reconcile"
	"github.com/osse101/playerledger/internal/rewards"
	"github.com/osse101/playerledger/internal/rpc"
)

// App is the logged-in client: a reconciled cache and the rewards session over it.
type App struct {
	Config  *config.ClientConfig
	Engine  *economy.Engine
	Session *rewards.Session
	Load    *reconcile.Result

	local *sqlite.Store
}

// unreachable stands in for the backend when no session could be established
// because the server did not answer; the loader then falls back to local state.
type unreachable struct {
	backend.Service
	err error
}

func (u unreachable) FetchAccountSnapshot(context.Context, string) (*domain.Snapshot, error) {
	return nil, u.err
}

// Login authenticates, reconciles the local ledger and opens a rewards session.
func Login(ctx context.Context, cfg *config.ClientConfig) (*App, error) {
	var catalog *economy.Catalog
	var err error
	if cfg.CatalogPath == "" {
		catalog, err = economy.DefaultCatalog()
	} else {
		catalog, err = economy.LoadCatalog(cfg.CatalogPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	engine := economy.NewEngine(catalog, loc)

	local, err := sqlite.Open(ctx, cfg.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open local ledger: %w", err)
	}

	client := rpc.NewClient(cfg.ServerURL, rpc.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	var svc backend.Service = client
	accountID := cfg.AccountID
	if err := authenticate(ctx, client, cfg); err != nil {
		if !domain.IsRetryable(err) {
			_ = local.Close()
			return nil, err
		}
		PrintWarning("server unreachable: %v", err)
		svc = unreachable{Service: client, err: err}
	} else if id := client.AccountID(); id != "" {
		// Nakama binds the session to its own user id.
		accountID = id
	}

	cache := ledger.NewCache(accountID)
	res, err := reconcile.NewLoader(svc, engine, local).Load(ctx, accountID, cache)
	if err != nil {
		_ = local.Close()
		return nil, err
	}
	return &App{
		Config:  cfg,
		Engine:  engine,
		Session: rewards.NewSession(client, engine, cache, local),
		Load:    res,
		local:   local,
	}, nil
}

func authenticate(ctx context.Context, client *rpc.Client, cfg *config.ClientConfig) error {
	if cfg.NakamaServerKey != "" {
		return client.AuthenticateCustom(ctx, cfg.NakamaServerKey, cfg.AccountID)
	}
	return client.Authenticate(ctx, cfg.APIKey, cfg.AccountID)
}

// Close releases the local ledger.
func (a *App) Close() error {
	return a.local.Close()
}
