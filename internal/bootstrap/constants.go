package bootstrap

import "time"

// =============================================================================
// Startup
// =============================================================================

const (
	// ServiceName is reported in the startup log line.
	ServiceName = "ledgerd"

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 15 * time.Second

	// SessionIssuer is the JWT issuer claim of ledgerd sessions.
	SessionIssuer = "ledgerd"
)

// Log messages for logger initialization
const (
	LogMsgLoggingInitialized  = "Logging initialized"
	LogMsgStartingLedger      = "Starting ledger"
	LogMsgConfigurationLoaded = "Configuration loaded"
)

// =============================================================================
// Catalog and store
// =============================================================================

const (
	LogMsgCatalogLoaded    = "Catalog loaded"
	LogMsgStoreInitialized = "Ledger store initialized"
	LogMsgMigrationsDone   = "Database migrations applied"
	LogMsgCouponsSeeded    = "Catalog coupons seeded"

	ErrMsgFailedLoadCatalog   = "failed to load catalog"
	ErrMsgFailedConnectDB     = "failed to connect to database"
	ErrMsgFailedMigrate       = "failed to run migrations"
	ErrMsgFailedSeedCoupons   = "failed to seed coupons"
	ErrMsgFailedCreateIssuer  = "failed to create session issuer"
	ErrMsgUnsupportedBackend  = "unsupported ledger backend %q"
	ErrMsgFailedResolveLocale = "failed to resolve time zone"
)

// =============================================================================
// Shutdown Messages
// =============================================================================

const (
	LogMsgShuttingDownServer   = "Shutting down server..."
	LogMsgServerStopped        = "Server stopped"
	LogMsgServerForcedShutdown = "Server forced to shutdown"
	LogMsgClosingDatabase      = "Closing database pool"
	LogMsgLogFlushFailed       = "Failed to flush log file"
)
