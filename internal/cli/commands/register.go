package commands

import "github.com/mamaar/csrefactor/internal/cli"

// Register adds every csrefactor command to the runner.
func Register(runner *cli.Runner, app *cli.App) {
	runner.RegisterCommand(
		NewAnalyzeCommand(app),
		NewFixCommand(app),
		NewSortUsingsCommand(app),
		NewRulesCommand(app),
		NewParseCommand(app),
		NewVersionCommand(app),
	)
}
