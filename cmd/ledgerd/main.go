package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/osse101/playerledger/internal/backend"
	"github.com/osse101/playerledger/internal/bootstrap"
	"github.com/osse101/playerledger/internal/config"
	"github.com/osse101/playerledger/internal/rpc"
	"github.com/osse101/playerledger/internal/server"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = ""

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	warnings, err := config.ValidateEnvWithWarnings()
	if err != nil {
		log.Fatalf("Environment validation failed: %v", err)
	}
	logFile := bootstrap.SetupLogger(cfg, version)
	for _, w := range warnings {
		slog.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := bootstrap.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		fatal(err)
	}
	engine, err := bootstrap.NewEngine(cfg, catalog)
	if err != nil {
		fatal(err)
	}
	stores, err := bootstrap.InitializeStores(ctx, cfg, catalog)
	if err != nil {
		fatal(err)
	}
	issuer, err := bootstrap.NewIssuer(cfg)
	if err != nil {
		stores.Close()
		fatal(err)
	}

	dispatcher := rpc.NewDispatcher(backend.NewExecutor(engine, stores.Ledger))
	srv := server.NewServer(server.Config{
		Port:           cfg.Port,
		TrustedProxies: cfg.TrustedProxies,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		AccountRate:    cfg.AccountRate,
		AccountBurst:   cfg.AccountBurst,
		CatalogVersion: catalog.Version,
	}, dispatcher, issuer, stores.ReadinessPool())

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			slog.Error("Server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), bootstrap.ShutdownTimeout)
	defer cancel()
	bootstrap.GracefulShutdown(shutdownCtx, bootstrap.ShutdownComponents{
		Server:  srv,
		Stores:  stores,
		LogFile: logFile,
	})
}

func fatal(err error) {
	slog.Error("Startup failed", "error", err)
	os.Exit(1)
}
