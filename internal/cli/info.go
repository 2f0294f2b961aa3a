package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fractary/forge/internal/registry"
)

var (
	infoType     string
	infoRegistry string
)

var infoCmd = &cobra.Command{
	Use:   "info <name>",
	Short: "Show where a component resolves from",
	Long: `Resolve a component through the local tree, the global tree, and the
registries, and print the winning source. Plugin-scoped references like
@scope/plugin/component are supported.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}

		rc, err := app.resolver.Resolve(args[0], infoType, registry.ResolveOptions{Registry: infoRegistry})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Name:    %s\n", rc.Name)
		fmt.Fprintf(out, "Type:    %s\n", rc.Type)
		fmt.Fprintf(out, "Source:  %s\n", rc.Source)
		if rc.Version != "" {
			fmt.Fprintf(out, "Version: %s\n", rc.Version)
		}
		if rc.Plugin != "" {
			fmt.Fprintf(out, "Plugin:  %s\n", rc.Plugin)
		}
		if rc.Path != "" {
			fmt.Fprintf(out, "Path:    %s\n", rc.Path)
		} else {
			fmt.Fprintf(out, "URL:     %s\n", rc.URL)
		}
		return nil
	},
}

func init() {
	infoCmd.Flags().StringVarP(&infoType, "type", "t", "tool", "Component type to resolve")
	infoCmd.Flags().StringVar(&infoRegistry, "registry", "", "Restrict resolution to one registry")
	rootCmd.AddCommand(infoCmd)
}
