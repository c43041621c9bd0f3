package commands

import (
	"github.com/spf13/cobra"

	"github.com/mamaar/csrefactor/internal/cli"
)

func NewVersionCommand(app *cli.App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if app.Flags.JSON {
				_ = app.OutputJSON(map[string]string{"version": cli.Version})
				return
			}
			cli.ShowVersion(app.Out)
		},
	}
}
