package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"github.com/osse101/playerledger/internal/backend"
	"github.com/osse101/playerledger/internal/domain"
	"github.com/osse101/playerledger/internal/economy"
	"github.com/osse101/playerledger/internal/rpc"
)

// RPCFunc is the Nakama RPC handler signature.
type RPCFunc func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error)

// RPCRegistrar is the part of runtime.Initializer used to register RPCs.
type RPCRegistrar interface {
	RegisterRpc(id string, fn func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error)) error
}

// InitModule wires the ledger onto Nakama storage and registers every RPC id.
// The catalog, timezone and retry budget come from the runtime env.
func InitModule(ctx context.Context, logger runtime.Logger, _ *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	slog.SetDefault(slog.New(NewLogHandler(logger, slog.LevelInfo)))

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	catalog, err := loadCatalog(env[EnvCatalog])
	if err != nil {
		return err
	}
	loc := time.UTC
	if tz := env[EnvTimezone]; tz != "" {
		if loc, err = time.LoadLocation(tz); err != nil {
			return fmt.Errorf("%s %q: %w", ErrMsgInvalidTimezone, tz, err)
		}
	}
	policy := backend.DefaultRetryPolicy()
	if n, err := strconv.Atoi(env[EnvRetries]); err == nil && n > 0 {
		policy.MaxAttempts = n
	}

	store := NewStorageBackend(nk, WithRetryPolicy(policy))
	if err := store.SeedCoupons(ctx, catalog.CatalogCoupons()); err != nil {
		logger.Warn("%s: %v", LogMsgSeedFailed, err)
	}
	engine := economy.NewEngine(catalog, loc)
	dispatcher := rpc.NewDispatcher(backend.NewExecutor(engine, store))
	if err := Register(initializer, dispatcher); err != nil {
		return err
	}
	logger.WithField("catalog_version", catalog.Version).Info(LogMsgModuleLoaded)
	return nil
}

func loadCatalog(path string) (*economy.Catalog, error) {
	var (
		c   *economy.Catalog
		err error
	)
	if path == "" {
		c, err = economy.DefaultCatalog()
	} else {
		c, err = economy.LoadCatalog(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgLoadCatalogFailed, err)
	}
	return c, nil
}

// Register registers every dispatcher RPC id with reg.
func Register(reg RPCRegistrar, d *rpc.Dispatcher) error {
	for _, id := range d.IDs() {
		if err := reg.RegisterRpc(id, Handler(d, id)); err != nil {
			return fmt.Errorf(ErrMsgRegisterRPCFailed, id, err)
		}
	}
	return nil
}

// Handler serves one RPC id for the calling user. Rule rejections are returned as a
// response envelope; only session and storage failures become runtime errors.
func Handler(d *rpc.Dispatcher, id string) RPCFunc {
	return func(ctx context.Context, logger runtime.Logger, _ *sql.DB, _ runtime.NakamaModule, payload string) (string, error) {
		userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
		if !ok || userID == "" {
			return "", runtime.NewError(ErrMsgNoSession, codeUnauthenticated)
		}

		resp, err := d.Dispatch(ctx, id, userID, []byte(payload))
		if err != nil {
			return "", toRuntimeError(logger, id, userID, err)
		}
		out, err := json.Marshal(resp)
		if err != nil {
			return "", runtime.NewError(ErrMsgEncodeResponse, codeInternal)
		}
		return string(out), nil
	}
}

func toRuntimeError(logger runtime.Logger, id, userID string, err error) error {
	if errors.Is(err, rpc.ErrUnknownRPC) {
		return runtime.NewError(ErrMsgUnknownRPC, codeNotFound)
	}
	if domain.KindOf(err) == domain.KindUnauthenticated {
		return runtime.NewError(ErrMsgNoSession, codeUnauthenticated)
	}
	logger.WithFields(map[string]any{"rpc": id, "user_id": userID, "error": err.Error()}).Error(LogMsgRPCTransport)
	if errors.Is(err, domain.ErrStorageVersionLost) {
		return runtime.NewError(ErrMsgStorageUnavailable, codeUnavailable)
	}
	return runtime.NewError(err.Error(), codeInternal)
}
