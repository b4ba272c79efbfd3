//go:build integration

package testapp

import (
	"context"
	"log"
	"net/http"
	"os"
	"testing"
	"testing/fstest"
	"time"

	"github.com/information-sharing-networks/newsletter/internal/config"
	"github.com/information-sharing-networks/newsletter/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := config.LoadDotEnv("../../.env"); err != nil {
		log.Printf("ignoring env file: %v", err)
	}

	if !UseContainer() {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	pg, err := StartPostgresContainer(ctx)
	cancel()
	if err != nil {
		panic(err)
	}
	if err := pg.Export(); err != nil {
		panic(err)
	}

	code := m.Run()

	_ = pg.Terminate(context.Background())
	os.Exit(code)
}

func databaseExists(t *testing.T, db *Database) bool {
	t.Helper()
	return databaseNamedExists(t, db.Settings, db.Name)
}

func databaseNamedExists(t *testing.T, settings config.DatabaseSettings, name string) bool {
	t.Helper()

	admin, err := pgxpool.New(context.Background(), settings.ConnectionURLWithoutDB())
	require.NoError(t, err)
	defer admin.Close()

	var exists bool
	err = admin.QueryRow(context.Background(),
		"SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", name).Scan(&exists)
	require.NoError(t, err)
	return exists
}

func TestProvisionDatabaseIsMigratedAndEmpty(t *testing.T) {
	t.Parallel()

	cfg := LoadSettings(t)
	db := ProvisionDatabase(t, cfg)

	assert.True(t, databaseExists(t, db))
	assert.Equal(t, db.Name, db.Settings.DatabaseName)
	assert.NotEqual(t, cfg.Database.DatabaseName, db.Name, "the loaded settings must not be modified")

	v, err := database.SchemaVersion(context.Background(), db.Pool)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	n, err := database.New(db.Pool).CountSubscriptions(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProvisionedDatabasesAreDistinct(t *testing.T) {
	t.Parallel()

	cfg := LoadSettings(t)
	a := ProvisionDatabase(t, cfg)
	b := ProvisionDatabase(t, cfg)

	assert.NotEqual(t, a.Name, b.Name)
}

func TestDropRemovesDatabase(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := ProvisionDatabaseContext(ctx, LoadSettings(t))
	require.NoError(t, err)

	// open a connection so the drop has one to close
	_, err = db.Pool.Exec(ctx, "SELECT 1")
	require.NoError(t, err)

	require.NoError(t, db.Drop(ctx))
	require.NoError(t, db.Drop(ctx), "Drop should be idempotent")

	assert.False(t, databaseExists(t, db))
}

func TestProvisionDropsDatabaseWhenMigrationFails(t *testing.T) {
	t.Parallel()

	cfg := LoadSettings(t)
	name := uniqueDatabaseName()
	migrations := fstest.MapFS{
		"00001_create_subscriptions_table.sql": {Data: []byte("-- +goose Up\nCREATE TABLE subscriptions (id UUID PRIMARY KEY);\n")},
		"00002_broken.sql":                     {Data: []byte("-- +goose Up\nALTER TABLE missing_table ADD COLUMN name TEXT;\n")},
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := provisionDatabase(ctx, cfg, name, migrations)
	assert.Nil(t, db, "a partially migrated database must not be returned")
	assert.ErrorContains(t, err, "failed to migrate "+name)
	assert.False(t, databaseNamedExists(t, cfg.Database, name))
}

func TestProvisionDropsDatabaseWhenPoolFails(t *testing.T) {
	t.Parallel()

	cfg := LoadSettings(t)
	// the admin connection ignores the pool limits, the test database pool rejects them
	cfg.DBMaxConnections = 0
	name := uniqueDatabaseName()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := provisionDatabase(ctx, cfg, name, database.Migrations())
	assert.Nil(t, db)
	assert.ErrorContains(t, err, "failed to connect to "+name)
	assert.False(t, databaseNamedExists(t, cfg.Database, name))
}

func TestCleanupDropsDatabaseAfterSubtest(t *testing.T) {
	t.Parallel()

	var provisioned *Database
	t.Run("provision", func(t *testing.T) {
		provisioned = ProvisionDatabase(t, LoadSettings(t))
	})

	require.NotNil(t, provisioned)
	if keepDatabases() {
		t.Skip("KEEP_TEST_DATABASES is set")
	}
	assert.False(t, databaseExists(t, provisioned))
}

func TestSpawnServesAndSharesPool(t *testing.T) {
	t.Parallel()

	app := Spawn(t)

	assert.NotZero(t, app.Port)
	resp := app.GetHealthCheck(t)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = app.PostSubscriptions(t, "name=le%20guin&email=ursula_le_guin%40gmail.com")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, int64(1), app.CountSubscriptions(t))
}

func TestSubscriptionByEmailReportsMissingRow(t *testing.T) {
	t.Parallel()

	app := Spawn(t)
	tb := &abortingTB{TB: t}

	done := make(chan struct{})
	go func() {
		defer close(done)
		app.SubscriptionByEmail(tb, "nobody@example.com")
	}()
	<-done

	assert.Equal(t, `No subscription was saved for "nobody@example.com"`, tb.fatal)
}
