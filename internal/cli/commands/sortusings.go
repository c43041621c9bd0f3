package commands

import (
	"github.com/spf13/cobra"

	"github.com/mamaar/csrefactor/internal/cli"
)

// NewSortUsingsCommand sorts the using directives of one file.
func NewSortUsingsCommand(app *cli.App) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "sort-usings <file>",
		Short: "Sort the using directives of a file",
		Long: `Sort each block of using directives: plain usings before aliases, usings
of referenced assemblies first with System leading them, then by alias
and name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := absPath(args[0])
			if err != nil {
				return err
			}
			engine := app.Engine()
			ws, err := app.LoadWorkspace(cmd.Context(), engine, path)
			if err != nil {
				return err
			}
			res, err := engine.SortUsings(cmd.Context(), ws, path)
			if err != nil {
				return err
			}
			if res.Applied == 0 && !app.Flags.JSON {
				app.Printf("Usings in %s are already sorted\n", ws.Rel(path))
				return nil
			}
			return ProcessPlan(app, engine, ws, res, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print a diff instead of writing the file")
	return cmd
}
