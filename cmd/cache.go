// cmd/cache.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dkoval87/gherkinforge/internal/cache"
	"github.com/dkoval87/gherkinforge/internal/observability"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the on-disk cache.",
}

func openCache() (cache.Cache, error) {
	if !cfg.Cache.Enabled {
		return nil, fmt.Errorf("caching is disabled in configuration")
	}
	return cache.NewSQLite(cfg.Cache.Path, cfg.Cache.TTL, observability.GetLogger())
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache occupancy.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache()
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := store.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(),
			"Page markup entries:    %d\nModel response entries: %d\nPopup markup entries:   %d\nEntry TTL:              %s\n",
			stats.HTMLEntries, stats.LLMEntries, stats.PopupEntries, stats.TTL)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cache entry.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.ClearAll(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
		return nil
	},
}

var cacheClearExpiredCmd = &cobra.Command{
	Use:   "clear-expired",
	Short: "Delete only entries past their TTL.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.ClearExpired(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries.\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd, cacheClearExpiredCmd)
	rootCmd.AddCommand(cacheCmd)
}
