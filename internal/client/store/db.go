package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/narratlas/narratlas/internal/client/migrations"
	"github.com/narratlas/narratlas/internal/logging"
)

// RunMigrations applies the embedded goose migrations. Additive migrations
// keep existing records intact across schema versions.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the local SQLite database at dsn, migrates it, and
// returns the handle together with a ready Repository.
func InitDatabase(ctx context.Context, dsn string, log logging.Logger) (*sql.DB, Repository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return db, NewSQLiteRepository(db, log), nil
}
