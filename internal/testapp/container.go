package testapp

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/information-sharing-networks/newsletter/internal/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	containerImage    = "postgres:16-alpine"
	containerUser     = "postgres"
	containerPassword = "password"
	containerDatabase = "newsletter"
)

// UseContainer reports whether the tests should start their own postgres
// (TEST_POSTGRES_CONTAINER=true) instead of using the server configured by DB_*.
func UseContainer() bool {
	return os.Getenv("TEST_POSTGRES_CONTAINER") == "true"
}

// PostgresContainer is a disposable postgres server for a test binary.
type PostgresContainer struct {
	container *postgres.PostgresContainer
	Settings  config.DatabaseSettings
}

// StartPostgresContainer starts postgres in docker and waits until it accepts connections.
func StartPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	container, err := postgres.Run(ctx,
		containerImage,
		postgres.WithDatabase(containerDatabase),
		postgres.WithUsername(containerUser),
		postgres.WithPassword(containerPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start PostgreSQL container: %w", err)
	}

	pc := &PostgresContainer{container: container}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pc.Terminate(context.Background())
		return nil, fmt.Errorf("failed to get PostgreSQL connection string: %w", err)
	}

	u, err := url.Parse(connStr)
	if err != nil {
		_ = pc.Terminate(context.Background())
		return nil, fmt.Errorf("invalid PostgreSQL connection string: %w", err)
	}

	port, err := strconv.Atoi(u.Port())
	if err != nil {
		_ = pc.Terminate(context.Background())
		return nil, fmt.Errorf("invalid PostgreSQL container port %q: %w", u.Port(), err)
	}

	pc.Settings = config.DatabaseSettings{
		Host:         u.Hostname(),
		Port:         port,
		Username:     containerUser,
		Password:     containerPassword,
		DatabaseName: containerDatabase,
	}
	return pc, nil
}

// Export points the DB_* environment variables at the container so that
// LoadSettings picks it up.
func (pc *PostgresContainer) Export() error {
	vars := map[string]string{
		"DB_HOST":        pc.Settings.Host,
		"DB_PORT":        strconv.Itoa(pc.Settings.Port),
		"DB_USER":        pc.Settings.Username,
		"DB_PASSWORD":    pc.Settings.Password,
		"DB_NAME":        pc.Settings.DatabaseName,
		"DB_REQUIRE_SSL": "false",
	}
	for k, v := range vars {
		if err := os.Setenv(k, v); err != nil {
			return fmt.Errorf("failed to set %s: %w", k, err)
		}
	}
	return nil
}

func (pc *PostgresContainer) Terminate(ctx context.Context) error {
	return pc.container.Terminate(ctx)
}
