package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/osse101/playerledger/internal/logger"
)

//go:embed migrations/*.sql
var postgresMigrations embed.FS

// Migrate applies every pending migration in fsys to db.
func Migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect, fsys fs.FS) error {
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToLoadMigrations, err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToApplyMigrations, err)
	}
	log := logger.FromContext(ctx)
	for _, r := range results {
		log.Info(LogMsgMigrationApplied, "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

// MigratePool applies the embedded PostgreSQL schema through pool.
func MigratePool(ctx context.Context, pool *pgxpool.Pool) error {
	fsys, err := fs.Sub(postgresMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToLoadMigrations, err)
	}
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	return Migrate(ctx, db, goose.DialectPostgres, fsys)
}
