package commands

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/mamaar/csrefactor/internal/cli"
	"github.com/mamaar/csrefactor/pkg/rules"
)

type ruleOutput struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Severity string `json:"severity"`
	Enabled  bool   `json:"enabled"`
	Fix      string `json:"fix"`
	HelpLink string `json:"help_link,omitempty"`
}

// NewRulesCommand lists the built-in rules and how the workspace
// configures them.
func NewRulesCommand(app *cli.App) *cobra.Command {
	return &cobra.Command{
		Use:   "rules [dir]",
		Short: "List the available rules",
		Args:  cobra.MaximumNArgs(1),
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
			configured, err := engine.Rules(ws)
			if err != nil {
				return err
			}

			var out []ruleOutput
			for _, r := range rules.Default().Rules() {
				ro := ruleOutput{
					ID:       r.ID(),
					Title:    r.Descriptor.Title,
					Category: rules.CategoryTitle(r.Descriptor.Category),
					Severity: severityName(r),
					Fix:      r.FixTitle,
					HelpLink: r.Descriptor.HelpLink,
				}
				if c, ok := configured.Lookup(r.ID()); ok {
					ro.Enabled = true
					ro.Severity = severityName(c)
				}
				out = append(out, ro)
			}
			if app.Flags.JSON {
				return app.OutputJSON(out)
			}

			rows := [][]string{{"ID", "SEVERITY", "CATEGORY", "TITLE"}}
			for _, r := range out {
				sev := r.Severity
				if !r.Enabled {
					sev = "off"
				}
				rows = append(rows, []string{r.ID, sev, r.Category, r.Title})
			}
			for _, line := range table(rows) {
				app.Printf("%s\n", line)
			}
			return nil
		},
	}
}

func severityName(r *rules.Rule) string {
	text, _ := r.Descriptor.Severity.MarshalText()
	return string(text)
}

// table pads every column but the last to its widest cell, measured in
// display width.
func table(rows [][]string) []string {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i < len(row)-1 {
				cell = runewidth.FillRight(cell, widths[i])
			}
			cells[i] = cell
		}
		lines = append(lines, strings.Join(cells, "  "))
	}
	return lines
}
