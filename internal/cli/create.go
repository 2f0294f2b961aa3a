package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fractary/forge/internal/scaffold"
)

var (
	createPlugin string
	createGlobal bool
)

var createCategories = map[string]string{
	"agent":    "agents",
	"tool":     "tools",
	"workflow": "workflows",
}

var createCmd = &cobra.Command{
	Use:   "create <type> <name>",
	Short: "Scaffold a new definition",
	Long: `Generate a skeleton YAML definition (agent, tool, or workflow) under
the project tree, ready to edit and publish.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		typeName, name := args[0], args[1]
		category, ok := createCategories[typeName]
		if !ok {
			return fmt.Errorf("unknown type %q (want agent, tool, or workflow)", typeName)
		}

		app, err := newAppContext()
		if err != nil {
			return err
		}

		destDir := app.ws.PluginDir(scopeFromFlag(createGlobal), category, createPlugin)
		res, err := scaffold.Generate(typeName, scaffold.NewData(name, typeName, createPlugin), destDir)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", res.Path)
		for _, w := range res.Warnings {
			fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", w)
		}
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createPlugin, "plugin", "@local/dev", "Plugin directory to place the definition under")
	createCmd.Flags().BoolVarP(&createGlobal, "global", "g", false, "Create under the user-global tree")
	rootCmd.AddCommand(createCmd)
}
