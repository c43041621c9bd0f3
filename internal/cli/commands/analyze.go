package commands

import (
	"github.com/spf13/cobra"

	"github.com/mamaar/csrefactor/internal/cli"
	"github.com/mamaar/csrefactor/pkg/refactor"
	"github.com/mamaar/csrefactor/pkg/types"
)

// NewAnalyzeCommand reports the findings of every enabled rule.
func NewAnalyzeCommand(app *cli.App) *cobra.Command {
	var ruleIDs []string
	var file string
	cmd := &cobra.Command{
		Use:   "analyze [dir]",
		Short: "Report findings in a workspace",
		Long: `Run every enabled rule over the workspace containing dir and print the
findings. Exits with status 1 when a finding has error severity.`,
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
			report, err := engine.Analyze(cmd.Context(), ws, refactor.AnalyzeRequest{File: file, Rules: ruleIDs})
			if err != nil {
				return err
			}

			if app.Flags.JSON {
				if err := app.OutputJSON(report); err != nil {
					return err
				}
			} else {
				reporter := cli.NewReporter(app.Out)
				for _, doc := range ws.Documents() {
					reporter.AddSource(ws.Rel(doc.Path), doc.Text())
				}
				for _, f := range report.Findings {
					reporter.Report(f)
				}
				app.Printf("%s", cli.Summary(report))
			}
			if report.Count(types.Error) > 0 {
				return cli.ErrFindings
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&ruleIDs, "rule", "r", nil, "only run these rules (repeatable)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "only analyze this file")
	return cmd
}
