package commands

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mamaar/csrefactor/internal/cli"
	"github.com/mamaar/csrefactor/pkg/parser"
	"github.com/mamaar/csrefactor/pkg/syntax"
	"github.com/mamaar/csrefactor/pkg/types"
)

type parseOutput struct {
	File       string `json:"file"`
	Bytes      int    `json:"bytes"`
	Nodes      int    `json:"nodes"`
	Tokens     int    `json:"tokens"`
	Skipped    int    `json:"skipped"`
	RoundTrips bool   `json:"round_trips"`
	Tree       string `json:"tree,omitempty"`
}

// NewParseCommand parses one file, checks that the tree renders back to
// the input and optionally dumps it.
func NewParseCommand(app *cli.App) *cobra.Command {
	var dump bool
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a file and check the syntax tree round-trips",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return &types.RefactorError{Type: types.FileSystemError, Message: err.Error(), File: args[0], Cause: err}
			}
			tree, err := parser.Parse(args[0], string(src))
			if err != nil {
				return err
			}

			out := parseOutput{File: args[0], Bytes: len(src), RoundTrips: tree.Text() == string(src)}
			for n := range tree.Root().DescendantNodesAndSelf() {
				out.Nodes++
				if n.Kind() == syntax.SkippedTokens {
					out.Skipped++
				}
			}
			for range tree.Root().DescendantTokens() {
				out.Tokens++
			}
			if dump {
				var b strings.Builder
				syntax.Dump(&b, tree.Root())
				out.Tree = b.String()
			}

			if app.Flags.JSON {
				if err := app.OutputJSON(out); err != nil {
					return err
				}
			} else {
				if dump {
					app.Printf("%s\n", out.Tree)
				}
				app.Printf("%s: %d bytes, %d nodes, %d tokens, %d skipped runs\n",
					out.File, out.Bytes, out.Nodes, out.Tokens, out.Skipped)
			}
			if !out.RoundTrips {
				return types.NewError(types.ParseError, "%s: tree does not render back to the source", args[0])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "tree", false, "print the syntax tree")
	return cmd
}
