package bootstrap

import (
	"io"
	"log/slog"

	"github.com/osse101/playerledger/internal/config"
	"github.com/osse101/playerledger/internal/logger"
)

// SetupLogger initializes the default slog logger from cfg and logs the startup banner.
// The returned closer flushes the rotated log file, if one is configured.
func SetupLogger(cfg *config.Config, version string) io.Closer {
	lc := cfg.Logger()
	lc.ServiceName = ServiceName
	if version != "" {
		lc.Version = version
	}
	closer := logger.InitLogger(lc)

	slog.Info(LogMsgLoggingInitialized, "level", lc.LogLevel())
	slog.Info(LogMsgStartingLedger,
		"environment", cfg.Environment,
		"backend", cfg.Backend,
		"log_level", cfg.LogLevel,
		"log_format", cfg.LogFormat,
		"version", lc.Version)

	slog.Debug(LogMsgConfigurationLoaded,
		"db_host", cfg.DBHost,
		"db_port", cfg.DBPort,
		"db_name", cfg.DBName,
		"port", cfg.Port,
		"timezone", cfg.TimeZone)

	return closer
}
