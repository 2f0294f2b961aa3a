package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listScope string

var listCmd = &cobra.Command{
	Use:   "list [type]",
	Short: "List installed components",
	Long: `List installed components, optionally filtered to one type
(agent, tool, workflow, template, hook, command, plugin).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}

		typ := ""
		if len(args) == 1 {
			typ = args[0]
		}

		components, err := app.resolver.ListInstalled(typ, listScope)
		if err != nil {
			return err
		}
		if len(components) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No components installed.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTYPE\tVERSION\tPLUGIN\tSCOPE")
		for _, c := range components {
			version := c.Version
			if version == "" {
				version = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.Name, c.Type, version, c.Plugin, c.Scope)
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().StringVar(&listScope, "scope", "all", "Scope to list: local, global, or all")
	rootCmd.AddCommand(listCmd)
}
