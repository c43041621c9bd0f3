package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/mamaar/csrefactor/pkg/refactor"
	"github.com/mamaar/csrefactor/pkg/types"
)

// Reporter renders findings with the offending line and a caret marker
// under the reported span.
type Reporter struct {
	w       io.Writer
	sources map[string][]string
}

func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w, sources: make(map[string][]string)}
}

// AddSource registers the text of file so findings in it get a snippet.
func (r *Reporter) AddSource(file, text string) {
	r.sources[file] = strings.Split(text, "\n")
}

// Report writes one finding.
func (r *Reporter) Report(f refactor.Finding) {
	fmt.Fprint(r.w, r.Format(f))
}

// Format renders a finding in the style:
//
//	info[CSR2001]: message
//	   --> file:line:col
//	    |
//	  8 | source line
//	    |     ^^^^^
func (r *Reporter) Format(f refactor.Finding) string {
	var b strings.Builder
	level := severityColor(f.Severity)
	dim := color.New(color.Faint).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(&b, "%s[%s]: %s\n", level(severityLabel(f.Severity)), f.Rule, bold(f.Message))

	width := max(len(fmt.Sprint(f.Line)), 3)
	indent := strings.Repeat(" ", width)
	fmt.Fprintf(&b, "%s %s %s:%d:%d\n", indent, dim("-->"), f.File, f.Line, f.Column)

	lines, ok := r.sources[f.File]
	if ok && f.Line > 0 && f.Line <= len(lines) {
		line := strings.TrimRight(lines[f.Line-1], "\r")
		fmt.Fprintf(&b, "%s %s\n", indent, dim("│"))
		fmt.Fprintf(&b, "%s %s %s\n", bold(fmt.Sprintf("%*d", width, f.Line)), dim("│"), expandTabs(line))
		fmt.Fprintf(&b, "%s %s %s\n", indent, dim("│"), marker(line, f, level))
	}
	if f.Fix != "" {
		fmt.Fprintf(&b, "%s %s %s\n", indent, color.New(color.FgCyan).Sprint("fix:"), f.Fix)
	}
	if f.HelpLink != "" {
		fmt.Fprintf(&b, "%s %s %s\n", indent, color.New(color.FgGreen).Sprint("help:"), f.HelpLink)
	}
	b.WriteString("\n")
	return b.String()
}

// marker underlines the finding's span on its first line. Columns are byte
// based; the marker is placed by display width so wide runes line up.
func marker(line string, f refactor.Finding, level func(...any) string) string {
	start := min(max(f.Column-1, 0), len(line))
	end := len(line)
	if f.EndLine == f.Line {
		end = min(max(f.EndColumn-1, start), len(line))
	}
	pad := runewidth.StringWidth(expandTabs(line[:start]))
	length := max(runewidth.StringWidth(line[start:end]), 1)
	return strings.Repeat(" ", pad) + level(strings.Repeat("^", length))
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}

func severityLabel(s types.Severity) string {
	switch s {
	case types.Error:
		return "error"
	case types.Warning:
		return "warning"
	case types.Hidden:
		return "hidden"
	default:
		return "info"
	}
}

func severityColor(s types.Severity) func(...any) string {
	switch s {
	case types.Error:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case types.Warning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	default:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	}
}

// Summary is the closing line of an analyze run.
func Summary(report *refactor.AnalysisReport) string {
	if len(report.Findings) == 0 {
		return fmt.Sprintf("No findings in %d files\n", report.Files)
	}
	var parts []string
	for _, s := range []types.Severity{types.Error, types.Warning, types.Info, types.Hidden} {
		if n := report.Count(s); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, severityLabel(s)))
		}
	}
	return fmt.Sprintf("%d findings in %d files (%s)\n", len(report.Findings), report.Files, strings.Join(parts, ", "))
}
