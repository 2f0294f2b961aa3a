package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fractary/forge/internal/update"
)

var (
	updateCheckOnly     bool
	updateDryRun        bool
	updateAllowBreaking bool
)

var updateCmd = &cobra.Command{
	Use:   "update [package...]",
	Short: "Update locked definitions to newer registry versions",
	Long: `Check every locked definition against the registries and apply
available updates. Major-version (breaking) updates are skipped unless
--allow-breaking is given.`,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().BoolVar(&updateCheckOnly, "check", false, "Report available updates without applying")
	updateCmd.Flags().BoolVar(&updateDryRun, "dry-run", false, "Classify updates without mutating anything")
	updateCmd.Flags().BoolVar(&updateAllowBreaking, "allow-breaking", false, "Apply major-version updates too")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if updateCheckOnly {
		check, err := app.updates.CheckUpdates()
		if err != nil {
			return err
		}
		if !check.HasUpdates {
			fmt.Fprintln(out, "Everything is up to date.")
			return nil
		}
		for _, u := range check.Updates {
			marker := ""
			if u.IsBreaking {
				marker = " (breaking)"
			}
			fmt.Fprintf(out, "%s %s: %s -> %s%s\n", u.Type, u.Name, u.Current, u.Latest, marker)
		}
		return nil
	}

	result, err := app.updates.Update(update.Options{
		AllowBreaking: updateAllowBreaking,
		DryRun:        updateDryRun,
		Packages:      args,
	})
	if err != nil {
		return err
	}

	for _, u := range result.Updated {
		fmt.Fprintf(out, "updated %s: %s -> %s\n", u.Name, u.Current, u.Latest)
	}
	for _, s := range result.Skipped {
		fmt.Fprintf(out, "skipped %s (%s)\n", s.Name, s.Reason)
	}
	for _, f := range result.Failed {
		fmt.Fprintf(out, "failed %s: %s\n", f.Name, f.Error)
	}
	if len(result.Updated) == 0 && len(result.Skipped) == 0 && len(result.Failed) == 0 {
		fmt.Fprintln(out, "Everything is up to date.")
	}
	return nil
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback <name> <version>",
	Short: "Pin a definition back to a previously installed version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}
		if err := app.updates.Rollback(args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %s to %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rollbackCmd)
}
