package commands

import (
	"github.com/spf13/cobra"

	"github.com/mamaar/csrefactor/internal/cli"
	"github.com/mamaar/csrefactor/pkg/refactor"
)

// NewFixCommand applies the fixes of every enabled rule.
func NewFixCommand(app *cli.App) *cobra.Command {
	var ruleIDs []string
	var file string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "fix [dir]",
		Short: "Apply fixes for all findings",
		Long: `Fix every finding of the selected rules in the workspace containing dir.
Rules run one after another in ID order, each over the text the previous
ones produced. With --dry-run a unified diff is printed instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			engine := app.Engine()
			ws, err := app.LoadWorkspace(cmd.Context(), engine, dir)
			if err != nil {
				return err
			}
			if file, err = absPath(file); err != nil {
				return err
			}
			res, err := engine.Fix(cmd.Context(), ws, refactor.FixRequest{File: file, Rules: ruleIDs})
			if err != nil {
				return err
			}
			return ProcessPlan(app, engine, ws, res, dryRun)
		},
	}
	cmd.Flags().StringSliceVarP(&ruleIDs, "rule", "r", nil, "only fix these rules (repeatable)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "only fix this file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print a diff instead of writing files")
	return cmd
}
