package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Environment variables with defaults
type ServerEnvironment struct {

	// http server settings
	Environment           string        `env:"ENVIRONMENT,default=dev"`
	Host                  string        `env:"HOST,default=0.0.0.0"`
	Port                  int           `env:"PORT,default=8000"`
	LogLevel              string        `env:"LOG_LEVEL,default=debug"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	ReadTimeout           time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout          time.Duration `env:"WRITE_TIMEOUT,default=15s"`
	IdleTimeout           time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	MaxRequestBodyBytes   int64         `env:"MAX_REQUEST_BODY_BYTES,default=65536"`
	RateLimitRPS          int32         `env:"RATE_LIMIT_RPS,default=100"`
	RateLimitBurst        int32         `env:"RATE_LIMIT_BURST,default=200"`

	// database pool settings
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS,default=4"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS,default=0"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME,default=60m"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME,default=30m"`
	DBConnectTimeout    time.Duration `env:"DB_CONNECT_TIMEOUT,default=5s"`
	DatabasePingTimeout time.Duration `env:"DATABASE_PING_TIMEOUT,default=10s"`

	Database DatabaseSettings
}

// DatabaseSettings addresses a postgres server and, optionally, one database on it.
type DatabaseSettings struct {
	Host         string `env:"DB_HOST,default=localhost"`
	Port         int    `env:"DB_PORT,default=5432"`
	Username     string `env:"DB_USER,default=postgres"`
	Password     string `env:"DB_PASSWORD,default=password"`
	DatabaseName string `env:"DB_NAME,default=newsletter"`
	RequireSSL   bool   `env:"DB_REQUIRE_SSL,default=false"`
}

// maintenanceDatabase is the database every postgres server has. It is used when
// a connection must reach the server without targeting a specific database
// (e.g. to create or drop one).
const maintenanceDatabase = "postgres"

// ConnectionURL returns a postgres URL for the configured database.
func (d DatabaseSettings) ConnectionURL() string {
	return d.urlFor(d.DatabaseName)
}

// ConnectionURLWithoutDB returns a postgres URL that reaches the server but not
// the configured database.
func (d DatabaseSettings) ConnectionURLWithoutDB() string {
	return d.urlFor(maintenanceDatabase)
}

// WithDatabase returns a copy of the settings pointing at dbname.
func (d DatabaseSettings) WithDatabase(dbname string) DatabaseSettings {
	d.DatabaseName = dbname
	return d
}

func (d DatabaseSettings) urlFor(dbname string) string {
	sslMode := "disable"
	if d.RequireSSL {
		sslMode = "require"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.Username, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + dbname,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"prod":    true,
	"staging": true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
	"none":  true,
}

// LoadDotEnv reads variables from the named files (default .env) into the process
// environment. Variables that are already set are not overridden. Missing files are
// ignored, a file that exists but cannot be parsed is an error.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}

	existing := make([]string, 0, len(filenames))
	for _, f := range filenames {
		if _, err := os.Stat(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to read env file %s: %w", f, err)
		}
		existing = append(existing, f)
	}
	if len(existing) == 0 {
		return nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// NewServerConfig loads environment variables and returns a ServerEnvironment struct that contains the values
func NewServerConfig() (*ServerEnvironment, error) {
	var cfg ServerEnvironment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	db, err := NewDatabaseSettings()
	if err != nil {
		return nil, err
	}
	cfg.Database = *db

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewDatabaseSettings loads only the DB_* variables.
func NewDatabaseSettings() (*DatabaseSettings, error) {
	var db DatabaseSettings

	if _, err := env.UnmarshalFromEnviron(&db); err != nil {
		return nil, fmt.Errorf("failed to unmarshal database environment variables: %w", err)
	}
	return &db, nil
}

// validateConfig checks the loaded values are usable
func validateConfig(cfg *ServerEnvironment) error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 0 and 65535")
	}
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid LOG_LEVEL: %s", cfg.LogLevel)
	}
	if cfg.MaxRequestBodyBytes < 1 {
		return fmt.Errorf("MAX_REQUEST_BODY_BYTES must be at least 1")
	}

	// Validate database pool configuration
	if cfg.DBMaxConnections < 1 {
		return fmt.Errorf("DB_MAX_CONNECTIONS must be at least 1")
	}
	if cfg.DBMinConnections < 0 {
		return fmt.Errorf("DB_MIN_CONNECTIONS must be 0 or greater")
	}
	if cfg.DBMinConnections > cfg.DBMaxConnections {
		return fmt.Errorf("DB_MIN_CONNECTIONS (%d) cannot be greater than DB_MAX_CONNECTIONS (%d)",
			cfg.DBMinConnections, cfg.DBMaxConnections)
	}

	if cfg.Database.Host == "" {
		return fmt.Errorf("DB_HOST must be set")
	}
	if cfg.Database.Port < 1 || cfg.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", cfg.Database.Port)
	}
	if cfg.Database.DatabaseName == "" {
		return fmt.Errorf("DB_NAME must be set")
	}

	return nil
}
