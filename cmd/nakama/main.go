// Command nakama builds the ledger as a Nakama Go runtime plugin:
//
//	go build -buildmode=plugin -trimpath -o ledger.so ./cmd/nakama
package main

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"

	"github.com/osse101/playerledger/internal/nakama"
)

// InitModule is the entry point Nakama looks up in the plugin.
//
//nolint:deadcode,unused
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	return nakama.InitModule(ctx, logger, db, nk, initializer)
}

func main() {}
