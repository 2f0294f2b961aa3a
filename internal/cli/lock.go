package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fractary/forge/internal/lockfile"
)

var (
	lockForce    bool
	lockValidate bool
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Manage the project lockfile",
}

var lockGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the lockfile from installed definitions",
	Long: `Snapshot the exact version and content hash of every locally installed
agent and tool, including each agent's transitive tool dependencies.
An existing lockfile is kept unless --force is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}

		scanner := &lockfile.InstalledScanner{Resolver: app.resolver}
		lf, err := app.locks.Generate(scanner, lockfile.GenerateOptions{
			Force:    lockForce,
			Validate: lockValidate,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Locked %d agents and %d tools at %s\n",
			len(lf.Agents), len(lf.Tools), app.ws.LockfilePath())
		return nil
	},
}

var lockValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the lockfile against the current environment",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}

		result, err := app.locks.Validate(nil)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, issue := range result.Errors {
			fmt.Fprintf(out, "error: %s %s: %s\n", issue.Type, issue.Name, issue.Detail)
		}
		for _, issue := range result.Warnings {
			fmt.Fprintf(out, "warning: %s %s: %s\n", issue.Type, issue.Name, issue.Detail)
		}

		if !result.Valid {
			return fmt.Errorf("lockfile validation failed with %d error(s)", len(result.Errors))
		}
		fmt.Fprintln(out, "Lockfile is valid.")
		return nil
	},
}

func init() {
	lockGenerateCmd.Flags().BoolVarP(&lockForce, "force", "f", false, "Regenerate even if a lockfile exists")
	lockGenerateCmd.Flags().BoolVar(&lockValidate, "validate", false, "Validate the generated lockfile")
	lockCmd.AddCommand(lockGenerateCmd)
	lockCmd.AddCommand(lockValidateCmd)
	rootCmd.AddCommand(lockCmd)
}
