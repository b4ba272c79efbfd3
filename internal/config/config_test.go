package config

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServerConfigDefaults(t *testing.T) {
	for _, k := range []string{"ENVIRONMENT", "PORT", "LOG_LEVEL", "DB_HOST", "DB_PORT", "DB_NAME", "DB_MAX_CONNECTIONS", "DB_MIN_CONNECTIONS"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := NewServerConfig()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "newsletter", cfg.Database.DatabaseName)
}

func TestNewServerConfigFromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "staging")
	t.Setenv("PORT", "9000")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("DB_NAME", "subscribers")
	t.Setenv("DB_REQUIRE_SSL", "true")

	cfg, err := NewServerConfig()
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, DatabaseSettings{
		Host:         "db.internal",
		Port:         6543,
		Username:     "app",
		Password:     "s3cret",
		DatabaseName: "subscribers",
		RequireSSL:   true,
	}, cfg.Database)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"invalid environment", map[string]string{"ENVIRONMENT": "qa"}},
		{"invalid log level", map[string]string{"LOG_LEVEL": "verbose"}},
		{"port out of range", map[string]string{"PORT": "70000"}},
		{"min connections above max", map[string]string{"DB_MAX_CONNECTIONS": "2", "DB_MIN_CONNECTIONS": "3"}},
		{"zero max connections", map[string]string{"DB_MAX_CONNECTIONS": "0"}},
		{"db port out of range", map[string]string{"DB_PORT": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := NewServerConfig()
			assert.Error(t, err)
		})
	}
}

func TestConnectionURLs(t *testing.T) {
	d := DatabaseSettings{
		Host:         "localhost",
		Port:         5432,
		Username:     "postgres",
		Password:     "p@ss word",
		DatabaseName: "newsletter",
	}

	u, err := url.Parse(d.ConnectionURL())
	require.NoError(t, err)
	assert.Equal(t, "/newsletter", u.Path)
	assert.Equal(t, "localhost:5432", u.Host)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss word", pw, "password should survive url encoding")

	u, err = url.Parse(d.ConnectionURLWithoutDB())
	require.NoError(t, err)
	assert.Equal(t, "/postgres", u.Path)

	d.RequireSSL = true
	u, err = url.Parse(d.ConnectionURL())
	require.NoError(t, err)
	assert.Equal(t, "require", u.Query().Get("sslmode"))
}

func TestWithDatabaseCopies(t *testing.T) {
	d := DatabaseSettings{Host: "localhost", Port: 5432, DatabaseName: "newsletter"}

	other := d.WithDatabase("test_abc")

	assert.Equal(t, "newsletter", d.DatabaseName)
	assert.Equal(t, "test_abc", other.DatabaseName)
	assert.Equal(t, d.Host, other.Host)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DB_NAME=from_file\nDB_HOST=file-host\n"), 0o600))

	t.Setenv("DB_HOST", "env-host")
	t.Setenv("DB_NAME", "")
	os.Unsetenv("DB_NAME")

	require.NoError(t, LoadDotEnv(path))
	t.Cleanup(func() { os.Unsetenv("DB_NAME") })

	assert.Equal(t, "from_file", os.Getenv("DB_NAME"))
	assert.Equal(t, "env-host", os.Getenv("DB_HOST"), "existing variables must not be overridden")

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")), "missing files are ignored")
}

func TestLoadDotEnvMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DB_HOST=db.example\nthis line is broken\n"), 0o600))

	t.Setenv("DB_HOST", "")
	os.Unsetenv("DB_HOST")

	err := LoadDotEnv(path)
	assert.ErrorContains(t, err, "failed to load env file")
	assert.Empty(t, os.Getenv("DB_HOST"), "nothing should be applied from a file that cannot be parsed")
}

func TestLoadDotEnvUnreadablePath(t *testing.T) {
	// a path through a regular file is neither missing nor readable
	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	assert.Error(t, LoadDotEnv(filepath.Join(file, ".env")))
}
