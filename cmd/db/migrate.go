package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/garrettladley/storefront/internal/config"
	"github.com/garrettladley/storefront/internal/migrations/postgres"
	"github.com/garrettladley/storefront/internal/paths"
	"github.com/garrettladley/storefront/internal/storage"
)

const (
	targetPostgres = "postgres"
	targetSQLite   = "sqlite"
)

func migrateCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations to the order database or the SQLite edge cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Read()
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}

			switch target {
			case targetPostgres:
				return migratePostgres(cmd.Context(), cfg)
			case targetSQLite:
				return migrateSQLite(cmd.Context(), cfg)
			default:
				return fmt.Errorf("unknown target %q: want %s or %s", target, targetPostgres, targetSQLite)
			}
		},
	}
	cmd.Flags().StringVar(&target, "target", targetPostgres, "database to migrate: postgres or sqlite")
	return cmd
}

func migratePostgres(ctx context.Context, cfg config.Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer pool.Close()

	applied, err := postgres.Apply(ctx, pool)
	if err != nil {
		return err
	}
	printApplied(applied)
	return nil
}

// migrateSQLite relies on OpenSQLiteCacheStorage applying pending
// migrations on open.
func migrateSQLite(ctx context.Context, cfg config.Config) error {
	path, err := paths.CacheDB(cfg.Cache.SQLitePath)
	if err != nil {
		return err
	}

	s, err := storage.OpenSQLiteCacheStorage(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		_ = s.Close()
	}()

	fmt.Printf("Migrations applied successfully to %s\n", path)
	return nil
}

func printApplied(applied []string) {
	if len(applied) == 0 {
		fmt.Println("No pending migrations")
		return
	}
	for _, name := range applied {
		fmt.Printf("Applied %s\n", name)
	}
	fmt.Println("Migrations applied successfully")
}
