package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured registries",
	Long: `List every registry from the merged configuration (project
.fractary/config.json over the user-global config), in resolution
order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}

		if len(app.cfg.Registries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No registries configured.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tPRIORITY\tENABLED\tTTL\tURL")
		for _, reg := range app.cfg.Registries {
			fmt.Fprintf(w, "%s\t%d\t%t\t%ds\t%s\n",
				reg.Name, reg.Priority, reg.Enabled, reg.CacheTTLSeconds, reg.URL)
		}
		return w.Flush()
	},
}

func init() {
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)
}
