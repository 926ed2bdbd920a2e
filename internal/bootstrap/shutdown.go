package bootstrap

import (
	"context"
	"io"
	"log/slog"

	"github.com/osse101/playerledger/internal/server"
)

// ShutdownComponents holds all components that need graceful shutdown.
type ShutdownComponents struct {
	Server  *server.Server
	Stores  *Stores
	LogFile io.Closer
}

// GracefulShutdown stops the HTTP server first so no new operation starts, then
// closes the database pool and flushes the log file. Errors are logged and do not
// stop the sequence.
func GracefulShutdown(ctx context.Context, components ShutdownComponents) {
	slog.Info(LogMsgShuttingDownServer)

	if components.Server != nil {
		if err := components.Server.Stop(ctx); err != nil {
			slog.Error(LogMsgServerForcedShutdown, "error", err)
		}
	}

	if components.Stores != nil {
		components.Stores.Close()
	}

	slog.Info(LogMsgServerStopped)

	if components.LogFile != nil {
		if err := components.LogFile.Close(); err != nil {
			slog.Error(LogMsgLogFlushFailed, "error", err)
		}
	}
}
