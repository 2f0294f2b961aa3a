package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fractary/forge/internal/registry"
)

var (
	searchType     string
	searchRegistry string
	searchTag      string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search registries for plugins",
	Long: `Search every enabled registry for plugins whose name or description
matches the query (case-insensitive substring). An empty query lists
everything.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}

		query := ""
		if len(args) == 1 {
			query = args[0]
		}

		results, err := app.resolver.Search(query, searchType, registry.SearchOptions{
			Registry: searchRegistry,
			Tag:      searchTag,
		})
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No plugins found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tVERSION\tREGISTRY\tTAGS\tDESCRIPTION")
		for _, r := range results {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				r.Name, r.Version, r.Registry, strings.Join(r.Tags, ","), r.Description)
		}
		return w.Flush()
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchType, "type", "t", "", "Only plugins providing this component type")
	searchCmd.Flags().StringVar(&searchRegistry, "registry", "", "Search a single registry")
	searchCmd.Flags().StringVar(&searchTag, "tag", "", "Exact tag filter")
	rootCmd.AddCommand(searchCmd)
}
