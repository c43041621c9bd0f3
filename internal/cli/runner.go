package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mamaar/csrefactor/pkg/types"
)

// Runner owns the root command and routes arguments to subcommands.
type Runner struct {
	app  *App
	root *cobra.Command
}

// NewRunner creates the root command with the persistent flags bound to
// app.Flags.
func NewRunner(app *App) *Runner {
	root := &cobra.Command{
		Use:   "csrefactor",
		Short: "Analyze and rewrite C# sources",
		Long: `csrefactor finds C# code that can be written more simply and rewrites it:
unsorted using directives, '?:' null checks that can use '??', and
conditionals over bool literals.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			app.configureColor()
		},
	}
	root.SetOut(app.Out)
	root.SetErr(app.Err)
	app.Flags.Register(root)
	return &Runner{app: app, root: root}
}

// RegisterCommand adds subcommands to the root.
func (r *Runner) RegisterCommand(cmds ...*cobra.Command) {
	r.root.AddCommand(cmds...)
}

// Root returns the root command.
func (r *Runner) Root() *cobra.Command { return r.root }

// Execute runs the command line args and returns the process exit code.
func (r *Runner) Execute(ctx context.Context, args []string) int {
	r.root.SetArgs(args)
	err := r.root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrFindings):
		return 1
	}
	fmt.Fprintf(r.app.Err, "Error: %v\n", err)
	var verr *types.ValidationError
	if errors.As(err, &verr) {
		for _, issue := range verr.Issues {
			if issue.File != "" {
				fmt.Fprintf(r.app.Err, "  %s: %s\n", issue.File, issue.Description)
			} else {
				fmt.Fprintf(r.app.Err, "  %s\n", issue.Description)
			}
		}
	}
	return 1
}
