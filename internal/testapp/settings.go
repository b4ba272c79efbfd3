package testapp

import (
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/information-sharing-networks/newsletter/internal/config"
	"github.com/stretchr/testify/require"
)

// LoadSettings reads the configuration from the environment the same way the
// server does and adjusts it for tests. Each call returns a new value, so a test
// can change its copy without affecting others.
func LoadSettings(t testing.TB) *config.ServerEnvironment {
	t.Helper()

	cfg, err := config.NewServerConfig()
	require.NoError(t, err, "Failed to read configuration")

	cfg.Environment = "test"
	cfg.Host = "127.0.0.1"
	// concurrent tests share nothing but the process, a global limit only adds flakiness
	cfg.RateLimitRPS = 0
	cfg.LogLevel = "none"
	if serverLogsEnabled() {
		cfg.LogLevel = "debug"
	}
	return cfg
}

// uniqueDatabaseName returns a valid postgres identifier that embeds a random
// uuid, so concurrent tests (and repeated runs) never pick the same name.
func uniqueDatabaseName() string {
	return "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func serverLogsEnabled() bool {
	return os.Getenv("ENABLE_SERVER_LOGS") == "true"
}

func keepDatabases() bool {
	return os.Getenv("KEEP_TEST_DATABASES") == "true"
}
