package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/information-sharing-networks/newsletter/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
				results, err := database.Migrate(ctx, pool)
				if err != nil {
					return err
				}
				if len(results) == 0 {
					appLogger.Info("no pending migrations")
				}
				for _, r := range results {
					appLogger.Info("applied migration",
						slog.Int64("version", r.Version),
						slog.String("source", r.Source),
						slog.String("duration", r.Duration))
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
				r, err := database.MigrateDown(ctx, pool)
				if err != nil {
					return err
				}
				appLogger.Info("rolled back migration",
					slog.Int64("version", r.Version),
					slog.String("source", r.Source))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
				v, err := database.SchemaVersion(ctx, pool)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			})
		},
	})

	return cmd
}

// withPool connects to the configured database for the duration of fn.
func withPool(ctx context.Context, fn func(ctx context.Context, pool *pgxpool.Pool) error) error {
	pool, err := database.NewPool(ctx, cfg, cfg.Database.ConnectionURL())
	if err != nil {
		appLogger.Error("Failed to connect to database", slog.String("error", err.Error()))
		return err
	}
	defer pool.Close()

	return fn(ctx, pool)
}
