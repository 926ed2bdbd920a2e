package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/playerledger/internal/auth"
	"github.com/osse101/playerledger/internal/backend"
	"github.com/osse101/playerledger/internal/config"
	"github.com/osse101/playerledger/internal/database"
	"github.com/osse101/playerledger/internal/database/postgres"
	"github.com/osse101/playerledger/internal/economy"
)

// Stores holds the authoritative store and, for the postgres backend, its pool.
type Stores struct {
	Ledger backend.Store
	Pool   *pgxpool.Pool
}

// ReadinessPool returns the pool readiness probes ping, or an untyped nil when
// the backend has no database.
func (s *Stores) ReadinessPool() database.Pool {
	if s.Pool == nil {
		return nil
	}
	return s.Pool
}

// Close releases the database pool, if any.
func (s *Stores) Close() {
	if s.Pool != nil {
		slog.Info(LogMsgClosingDatabase)
		s.Pool.Close()
	}
}

// InitializeStores creates the configured backend. The postgres backend connects,
// applies migrations and seeds the catalog coupons.
func InitializeStores(ctx context.Context, cfg *config.Config, catalog *economy.Catalog) (*Stores, error) {
	policy := backend.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.RetryAttempts

	switch cfg.Backend {
	case config.BackendMemory:
		slog.Info(LogMsgStoreInitialized, "backend", cfg.Backend)
		return &Stores{Ledger: backend.NewMemoryStore()}, nil

	case config.BackendPostgres:
		pool, err := database.NewPool(ctx, cfg.GetDBConnString(), cfg.DBMaxConns, cfg.DBMaxIdleTime, cfg.DBMaxLifetime)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedConnectDB, err)
		}
		if err := database.MigratePool(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedMigrate, err)
		}
		slog.Info(LogMsgMigrationsDone)

		store := postgres.NewStore(pool, postgres.WithRetryPolicy(policy))
		coupons := catalog.CatalogCoupons()
		if err := store.SeedCoupons(ctx, coupons); err != nil {
			pool.Close()
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedSeedCoupons, err)
		}
		slog.Info(LogMsgCouponsSeeded, "count", len(coupons))
		slog.Info(LogMsgStoreInitialized, "backend", cfg.Backend)
		return &Stores{Ledger: store, Pool: pool}, nil

	default:
		return nil, fmt.Errorf(ErrMsgUnsupportedBackend, cfg.Backend)
	}
}

// LoadCatalog reads the configured catalog file, or the built-in catalog when none is set.
func LoadCatalog(path string) (*economy.Catalog, error) {
	var (
		catalog *economy.Catalog
		err     error
	)
	if path == "" {
		catalog, err = economy.DefaultCatalog()
	} else {
		catalog, err = economy.LoadCatalog(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedLoadCatalog, err)
	}
	slog.Info(LogMsgCatalogLoaded, "version", catalog.Version, "path", path)
	return catalog, nil
}

// NewEngine builds the economy engine for cfg's catalog and time zone.
func NewEngine(cfg *config.Config, catalog *economy.Catalog) (*economy.Engine, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedResolveLocale, err)
	}
	return economy.NewEngine(catalog, loc), nil
}

// NewIssuer builds the session issuer from cfg.
func NewIssuer(cfg *config.Config) (*auth.Issuer, error) {
	issuer, err := auth.NewIssuer(auth.Config{
		APIKey: cfg.APIKey,
		Secret: cfg.SessionSecret,
		Issuer: SessionIssuer,
		TTL:    cfg.SessionTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedCreateIssuer, err)
	}
	return issuer, nil
}
