package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"

	"github.com/osse101/playerledger/internal/config"
	"github.com/osse101/playerledger/internal/logger"
)

func main() {
	registry := NewRegistry()
	registerCommands(registry)

	if len(os.Args) < 2 {
		registry.PrintHelp()
		os.Exit(1)
	}
	cmd, ok := registry.Get(os.Args[1])
	if !ok {
		registry.PrintHelp()
		os.Exit(1)
	}

	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	lc := logger.DevelopmentConfig()
	lc.Level = cfg.LogLevel
	lc.ServiceName = "ledger-client"
	logger.InitLogger(lc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app, err := Login(ctx, cfg)
	if err != nil {
		PrintError("login failed: %v", err)
		os.Exit(1)
	}
	if app.Load.Offline {
		PrintWarning("working offline")
	}

	err = cmd.Run(ctx, app, os.Args[2:])
	_ = app.Close()
	if err != nil {
		if errors.Is(err, errUsage) {
			PrintError("%v", err)
		}
		os.Exit(1)
	}
}
