package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the manifest cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show manifest cache statistics",
	Long: `Fetch every enabled registry manifest and report cache statistics for
the resulting entries.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}

		for _, reg := range app.cfg.Enabled() {
			if _, err := app.fetcher.FetchRegistryManifest(reg); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "registry %s unreachable: %v\n", reg.Name, err)
			}
		}

		stats := app.cache.Stats()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Entries:  %d total, %d fresh, %d expired\n",
			stats.TotalEntries, stats.FreshEntries, stats.ExpiredEntries)
		fmt.Fprintf(out, "Size:     %d bytes\n", stats.TotalSizeBytes)
		return nil
	},
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove expired manifest cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}
		removed := app.cache.Cleanup()
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries.\n", removed)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheCleanCmd)
	rootCmd.AddCommand(cacheCmd)
}
