package main

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/spf13/cobra"

	"github.com/garrettladley/storefront/internal/config"
	"github.com/garrettladley/storefront/internal/edge"
	"github.com/garrettladley/storefront/internal/offline"
	"github.com/garrettladley/storefront/internal/storage"
	"github.com/garrettladley/storefront/internal/xslog"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clean the edge cache",
	}
	cmd.AddCommand(cacheVersionCmd())
	cmd.AddCommand(cacheCleanCmd())
	return cmd
}

func cacheVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the current partitions and every stored partition",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRouter(cmd, func(router *offline.Router, caches storage.CacheStorage) error {
				current := router.Partitions()
				fmt.Printf("Static:  %s\n", current.Static)
				fmt.Printf("Dynamic: %s\n", current.Dynamic)
				fmt.Printf("Legacy:  %s\n", current.Legacy)

				stored, err := caches.Keys(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Println("Stored:")
				for _, name := range stored {
					marker := " "
					if slices.Contains(current.List(), name) {
						marker = "*"
					}
					fmt.Printf("  %s %s\n", marker, name)
				}
				return nil
			})
		},
	}
}

func cacheCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Delete every partition that does not belong to the current version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRouter(cmd, func(router *offline.Router, _ storage.CacheStorage) error {
				deleted, err := router.Cleanup(cmd.Context())
				if err != nil {
					return err
				}
				if len(deleted) == 0 {
					fmt.Println("No stale partitions")
					return nil
				}
				for _, name := range deleted {
					fmt.Printf("Deleted %s\n", name)
				}
				return nil
			})
		},
	}
}

// withRouter opens the configured cache storage behind a router that never
// fetches, which is enough for partition bookkeeping.
func withRouter(cmd *cobra.Command, fn func(*offline.Router, storage.CacheStorage) error) error {
	cfg, err := config.Read()
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	logger := xslog.Discard()
	caches, closeCaches, err := edge.OpenCacheStorage(cmd.Context(), logger, cfg.Cache.Backend, cfg.Cache.SQLitePath, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() {
		_ = closeCaches()
	}()

	router := offline.NewRouter(offline.Config{
		Prefix:  cfg.Cache.Prefix,
		Version: cfg.Cache.Version,
	}, caches, http.DefaultClient, offline.WithLogger(logger))
	return fn(router, caches)
}
