package testapp

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/information-sharing-networks/newsletter/internal/config"
	"github.com/information-sharing-networks/newsletter/internal/database"
	"github.com/information-sharing-networks/newsletter/internal/logger"
	"github.com/jackc/pgx/v5/pgxpool"
)

const stopTimeout = 5 * time.Second

// TestApp is one isolated server and database, owned by a single test.
type TestApp struct {
	// Address is the base URL of the server, e.g. http://127.0.0.1:54321
	Address string
	Port    int

	// DBPool is shared with the server; use it to check what the server persisted.
	DBPool       *pgxpool.Pool
	Queries      *database.Queries
	DatabaseName string

	// Client is not shared with any other TestApp.
	Client *http.Client

	Config *config.ServerEnvironment
	Server *ServerHandle
}

// Spawn starts a server with the default test settings.
func Spawn(t testing.TB) *TestApp {
	t.Helper()
	return SpawnWithConfig(t, nil)
}

// SpawnWithConfig starts a server after letting configure adjust the settings.
// Steps run in order: load settings, bind the listener, provision the database,
// launch the server. Any failure aborts the test.
func SpawnWithConfig(t testing.TB, configure func(*config.ServerEnvironment)) *TestApp {
	t.Helper()

	cfg := LoadSettings(t)
	if configure != nil {
		configure(cfg)
	}

	listener, port, err := Listen()
	if err != nil {
		t.Fatalf("Failed to bind random port: %v", err)
	}
	cfg.Port = port
	// closes the listener if a later step aborts before the server owns it
	t.Cleanup(func() { listener.Close() })

	db := ProvisionDatabase(t, cfg)

	appLogger := logger.New(os.Stderr, logger.ParseLogLevel(cfg.LogLevel), cfg.Environment).
		With(slog.String("test", t.Name()))

	handle, err := Launch(listener, db.Pool, cfg, appLogger)
	if err != nil {
		t.Fatalf("Failed to launch server: %v", err)
	}

	app := &TestApp{
		Address:      fmt.Sprintf("http://127.0.0.1:%d", port),
		Port:         port,
		DBPool:       db.Pool,
		Queries:      database.New(db.Pool),
		DatabaseName: db.Name,
		Client:       newClient(),
		Config:       cfg,
		Server:       handle,
	}

	// registered after the database cleanup, so it runs first
	t.Cleanup(func() {
		app.Client.CloseIdleConnections()
		if !handle.Stop(stopTimeout) {
			t.Logf("server on port %d did not stop within %s", port, stopTimeout)
		}
	})

	return app
}

// newClient returns a client with its own transport and no cookie jar, so no
// connections or session state leak between tests.
func newClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &http.Client{Transport: transport}
}
