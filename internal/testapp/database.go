package testapp

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"testing"
	"time"

	"github.com/information-sharing-networks/newsletter/internal/config"
	"github.com/information-sharing-networks/newsletter/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dropTimeout = 30 * time.Second

// Database is a provisioned, fully migrated database that belongs to one test.
type Database struct {
	// Name is the generated database name.
	Name string

	// Settings address the provisioned database.
	Settings config.DatabaseSettings

	// Pool is connected to the provisioned database.
	Pool *pgxpool.Pool

	// admin is connected to the server's maintenance database; it is kept open
	// so the database can be dropped after Pool is closed.
	admin *pgxpool.Pool

	dropOnce sync.Once
	dropErr  error
}

// ProvisionDatabaseContext creates a uniquely named database on the server
// addressed by cfg.Database, applies all migrations and returns a pool
// connected to it. cfg is not modified.
//
// On error nothing is left behind: a database that was created but could not be
// migrated is dropped again.
func ProvisionDatabaseContext(ctx context.Context, cfg *config.ServerEnvironment) (*Database, error) {
	return provisionDatabase(ctx, cfg, uniqueDatabaseName(), database.Migrations())
}

func provisionDatabase(ctx context.Context, cfg *config.ServerEnvironment, name string, migrations fs.FS) (*Database, error) {
	settings := cfg.Database.WithDatabase(name)

	// connect to the server (not to a specific database) to create the test database
	admin, err := pgxpool.New(ctx, settings.ConnectionURLWithoutDB())
	if err != nil {
		return nil, fmt.Errorf("unable to create admin connection pool: %w", err)
	}

	if err := admin.Ping(ctx); err != nil {
		admin.Close()
		return nil, fmt.Errorf("can't ping PostgreSQL server %s:%d: %w", settings.Host, settings.Port, err)
	}

	if _, err := admin.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize()); err != nil {
		admin.Close()
		return nil, fmt.Errorf("CREATE DATABASE %s failed: %w", name, err)
	}

	db := &Database{
		Name:     name,
		Settings: settings,
		admin:    admin,
	}

	pool, err := database.NewPool(ctx, cfg, settings.ConnectionURL())
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to connect to %s: %w", name, err), db.Drop(context.Background()))
	}
	db.Pool = pool

	if _, err := database.MigrateFS(ctx, pool, migrations); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to migrate %s: %w", name, err), db.Drop(context.Background()))
	}

	return db, nil
}

// Drop closes the pool and removes the database from the server. Connections
// still held by other clients are terminated. Drop is safe to call more than once.
func (d *Database) Drop(ctx context.Context) error {
	d.dropOnce.Do(func() {
		if d.Pool != nil {
			d.Pool.Close()
		}
		defer d.admin.Close()

		_, err := d.admin.Exec(ctx, "DROP DATABASE IF EXISTS "+pgx.Identifier{d.Name}.Sanitize()+" WITH (FORCE)")
		if err != nil {
			d.dropErr = fmt.Errorf("DROP DATABASE %s failed: %w", d.Name, err)
		}
	})
	return d.dropErr
}

// Close releases the connections but leaves the database on the server.
func (d *Database) Close() {
	if d.Pool != nil {
		d.Pool.Close()
	}
	d.admin.Close()
}

// ProvisionDatabase is ProvisionDatabaseContext for use in tests: failures abort
// the test, and the database is dropped when the test and its subtests complete.
func ProvisionDatabase(t testing.TB, cfg *config.ServerEnvironment) *Database {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DatabasePingTimeout+dropTimeout)
	defer cancel()

	db, err := ProvisionDatabaseContext(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to provision test database: %v", err)
	}

	t.Cleanup(func() {
		if keepDatabases() {
			t.Logf("keeping test database %s", db.Name)
			db.Close()
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), dropTimeout)
		defer cancel()

		if err := db.Drop(ctx); err != nil {
			t.Errorf("Failed to drop test database: %v", err)
		}
	})

	t.Logf("Database ready: %s", db.Name)
	return db
}
