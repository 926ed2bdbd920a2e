package reconcile

// Log messages
const (
	LogMsgReconciled       = "Account reconciled"
	LogMsgOffline          = "Backend unreachable, using local ledger"
	LogMsgPartFetchFailed  = "Substructure fetch failed, keeping defaults"
	LogMsgPartDefaulted    = "Substructure absent, keeping defaults"
	LogMsgLocalSaveFailed  = "Failed to persist local ledger"
	ErrMsgNoLocalFallback  = "backend unreachable and no local ledger saved"
	ErrMsgLocalSaveFailed  = "failed to persist reconciled ledger"
	ErrMsgSnapshotMismatch = "snapshot belongs to another account"
)
