package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/information-sharing-networks/newsletter/internal/config"
	"github.com/information-sharing-networks/newsletter/internal/database"
	"github.com/information-sharing-networks/newsletter/internal/logger"
	"github.com/information-sharing-networks/newsletter/internal/server"
	"github.com/information-sharing-networks/newsletter/internal/version"
	"github.com/spf13/cobra"
)

//	@title			newsletter-server
//	@description	newsletter-server stores newsletter subscriptions submitted through an HTML form.
//	@description
//	@description	## Request Limits
//	@description	- **Rate limiting**: Configurable requests per second (see env vars) - default 100 rps (set to 0 to disable)
//	@description	- **Request size limits**: Configurable (see env vars) - default 64KB
//	@license.name	MIT

//	@servers.url			http://localhost:8000
//	@servers.description	Development server

//	@tag.name			Subscriptions
//	@tag.description	Newsletter sign up

//	@tag.name			Common
//	@tag.description	Server API endpoints (health, readiness, version, metrics)

var (
	cfg       *config.ServerEnvironment
	appLogger *slog.Logger
	envFile   string
)

func main() {
	cmd := &cobra.Command{
		Use:               "newsletter-server",
		Short:             "Newsletter subscription server",
		Long:              `newsletter-server serves the subscription form API and health checks`,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(envFile); err != nil {
				return err
			}

			var err error
			cfg, err = config.NewServerConfig()
			if err != nil {
				log.Printf("failed to load configuration: %v", err.Error())
				return err
			}

			appLogger = logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "file to read environment variables from (ignored if missing)")

	cmd.AddCommand(migrateCmd())

	v := version.Get()
	cmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	appLogger.Info("Configuration loaded",
		slog.String("ENVIRONMENT", cfg.Environment),
		slog.String("HOST", cfg.Host),
		slog.Int("PORT", cfg.Port),
		slog.String("LOG_LEVEL", cfg.LogLevel),
		slog.String("DB_HOST", cfg.Database.Host),
		slog.Int("DB_PORT", cfg.Database.Port),
		slog.String("DB_NAME", cfg.Database.DatabaseName),
	)

	pool, err := database.NewPool(context.Background(), cfg, cfg.Database.ConnectionURL())
	if err != nil {
		appLogger.Error("Failed to connect to database", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("connected to PostgreSQL")

	// get the sqlc generated database queries
	queries := database.New(pool)

	appLogger.Info("Starting server", slog.String("version", version.Get().Version))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := server.NewServer(
		pool,
		queries,
		cfg,
		appLogger,
	)
	if err != nil {
		appLogger.Error("Failed to create server", slog.String("error", err.Error()))
		pool.Close()
		return err
	}

	defer server.DatabaseShutdown()

	// start the server
	if err := server.Start(ctx); err != nil {
		appLogger.Error("Server error", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("server shutdown complete")
	return nil
}
