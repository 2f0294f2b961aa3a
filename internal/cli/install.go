package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/fractary/forge/internal/installer"
)

var (
	installGlobal     bool
	installForce      bool
	installDryRun     bool
	installAgentsOnly bool
	installToolsOnly  bool
	installNoHooks    bool
	installNoCommands bool
)

var installCmd = &cobra.Command{
	Use:   "install <plugin>",
	Short: "Install a plugin's components",
	Long: `Install every component of a plugin (agents, tools, workflows, templates,
hooks, commands) into the project's .fractary/ tree, or the user-global
tree with --global. Each component is sha256-verified before any write.`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVarP(&installGlobal, "global", "g", false, "Install into the user-global tree")
	installCmd.Flags().BoolVarP(&installForce, "force", "f", false, "Reinstall even if already installed")
	installCmd.Flags().BoolVar(&installDryRun, "dry-run", false, "Fetch and verify without writing")
	installCmd.Flags().BoolVar(&installAgentsOnly, "agents-only", false, "Install only agents")
	installCmd.Flags().BoolVar(&installToolsOnly, "tools-only", false, "Install only tools")
	installCmd.Flags().BoolVar(&installNoHooks, "no-hooks", false, "Skip hook components")
	installCmd.Flags().BoolVar(&installNoCommands, "no-commands", false, "Skip command components")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}

	res, err := app.installer.InstallPlugin(args[0], installer.InstallOptions{
		Scope:      scopeFromFlag(installGlobal),
		Force:      installForce,
		DryRun:     installDryRun,
		AgentsOnly: installAgentsOnly,
		ToolsOnly:  installToolsOnly,
		NoHooks:    installNoHooks,
		NoCommands: installNoCommands,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if res.Skipped {
		fmt.Fprintf(out, "%s is already installed. Use --force to reinstall.\n", args[0])
		return nil
	}

	if res.DryRun {
		fmt.Fprintf(out, "Dry run: %s@%s verified, nothing written.\n", res.Plugin.Name, res.Plugin.Version)
	} else {
		fmt.Fprintf(out, "Installed %s@%s to %s\n", res.Plugin.Name, res.Plugin.Version, res.InstallPath)
	}

	categories := make([]string, 0, len(res.Installed))
	for cat := range res.Installed {
		categories = append(categories, cat)
	}
	sort.Strings(categories)
	for _, cat := range categories {
		fmt.Fprintf(out, "  %s: %d\n", cat, res.Installed[cat])
	}
	return nil
}

var uninstallGlobal bool

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <plugin>",
	Short: "Remove an installed plugin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}

		res, err := app.installer.UninstallPlugin(args[0], scopeFromFlag(uninstallGlobal))
		if err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("%s", res.Reason)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Uninstalled %s\n", args[0])
		return nil
	},
}

func init() {
	uninstallCmd.Flags().BoolVarP(&uninstallGlobal, "global", "g", false, "Remove from the user-global tree")
	rootCmd.AddCommand(uninstallCmd)
}
