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
)

//go:embed schema/*.sql
var embedMigrations embed.FS

// MigrationResult records one applied (or rolled back) migration.
type MigrationResult struct {
	Version  int64
	Source   string
	Duration string
}

// newProvider converts the pgx pool to the database/sql interface goose expects.
// A provider is used instead of goose's package level functions so that
// concurrent tests can migrate their own databases without sharing goose state.
func newProvider(pool *pgxpool.Pool, migrations fs.FS) (*goose.Provider, *sql.DB, error) {
	db := stdlib.OpenDBFromPool(pool)

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return provider, db, nil
}

// Migrations returns the embedded schema migrations.
func Migrations() fs.FS {
	migrations, err := fs.Sub(embedMigrations, "schema")
	if err != nil {
		// only fails for an invalid path, which is fixed at compile time
		panic(err)
	}
	return migrations
}

// Migrate applies all pending embedded migrations in version order.
func Migrate(ctx context.Context, pool *pgxpool.Pool) ([]MigrationResult, error) {
	return MigrateFS(ctx, pool, Migrations())
}

// MigrateFS applies all pending migrations found in the root of migrations.
func MigrateFS(ctx context.Context, pool *pgxpool.Pool, migrations fs.FS) ([]MigrationResult, error) {
	provider, db, err := newProvider(pool, migrations)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return toMigrationResults(results), nil
}

// MigrateDown rolls back the most recently applied migration.
func MigrateDown(ctx context.Context, pool *pgxpool.Pool) (*MigrationResult, error) {
	provider, db, err := newProvider(pool, Migrations())
	if err != nil {
		return nil, err
	}
	defer db.Close()

	result, err := provider.Down(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to roll back migration: %w", err)
	}
	return rolledBack(result)
}

func rolledBack(result *goose.MigrationResult) (*MigrationResult, error) {
	results := toMigrationResults([]*goose.MigrationResult{result})
	if len(results) == 0 {
		return nil, fmt.Errorf("migration rollback did not report a source")
	}
	return &results[0], nil
}

// SchemaVersion returns the highest applied migration version (0 when none are applied).
func SchemaVersion(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	provider, db, err := newProvider(pool, Migrations())
	if err != nil {
		return 0, err
	}
	defer db.Close()

	v, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

func toMigrationResults(results []*goose.MigrationResult) []MigrationResult {
	out := make([]MigrationResult, 0, len(results))
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		out = append(out, MigrationResult{
			Version:  r.Source.Version,
			Source:   r.Source.Path,
			Duration: r.Duration.String(),
		})
	}
	return out
}
