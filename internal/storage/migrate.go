package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"sort"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFiles embed.FS

type dialect string

const (
	dialectSQLite   dialect = "sqlite"
	dialectPostgres dialect = "postgres"
)

type execFunc func(ctx context.Context, stmt string) error

func sqlExec(db *sql.DB) execFunc {
	return func(ctx context.Context, stmt string) error {
		_, err := db.ExecContext(ctx, stmt)
		return err
	}
}

// MigrateUp applies the SQLite schema. It is idempotent.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	return applyMigrations(ctx, sqlExec(db), dialectSQLite, ".up.sql")
}

func MigrateDown(ctx context.Context, db *sql.DB) error {
	return applyMigrations(ctx, sqlExec(db), dialectSQLite, ".down.sql")
}

func applyMigrations(ctx context.Context, exec execFunc, d dialect, suffix string) error {
	entries, err := fs.Glob(migrationFiles, fmt.Sprintf("migrations/%s/*%s", d, suffix))
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(entries)
	if suffix == ".down.sql" {
		slices.Reverse(entries)
	}
	for _, name := range entries {
		sqlBytes, readErr := migrationFiles.ReadFile(name)
		if readErr != nil {
			return fmt.Errorf("read migration %s: %w", name, readErr)
		}
		if execErr := exec(ctx, string(sqlBytes)); execErr != nil {
			return fmt.Errorf("apply migration %s: %w", name, execErr)
		}
	}
	return nil
}
