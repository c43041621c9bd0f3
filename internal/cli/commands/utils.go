package commands

import (
	"path/filepath"

	"github.com/mamaar/csrefactor/internal/cli"
	"github.com/mamaar/csrefactor/pkg/refactor"
	"github.com/mamaar/csrefactor/pkg/workspace"
)

// absPath resolves a file argument against the working directory so that
// it can be looked up in a workspace rooted elsewhere.
func absPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	return filepath.Abs(path)
}

// ProcessPlan previews or executes a fix result. With dryRun the unified
// diff is printed and nothing is written.
func ProcessPlan(app *cli.App, engine refactor.RefactorEngine, ws *workspace.Workspace, res *refactor.FixResult, dryRun bool) error {
	plan := res.Plan
	if app.Flags.JSON {
		out := planOutput{Applied: res.Applied, DryRun: dryRun}
		for _, c := range plan.Changes {
			out.Changes = append(out.Changes, changeOutput{
				File: ws.Rel(c.File), Start: c.Start, End: c.End,
				OldText: c.OldText, NewText: c.NewText, Description: c.Description,
			})
		}
		for _, s := range plan.Skipped {
			out.Skipped = append(out.Skipped, skippedOutput{File: ws.Rel(s.File), Rule: s.DiagnosticID, Start: s.Start, Reason: s.Reason})
		}
		if dryRun {
			preview, err := engine.PreviewPlan(ws, res)
			if err != nil {
				return err
			}
			out.Diff = preview
		} else if err := engine.ExecutePlan(ws, res); err != nil {
			return err
		}
		return app.OutputJSON(out)
	}

	if len(plan.Changes) == 0 {
		app.Printf("Nothing to fix\n")
		reportSkipped(app, ws, res)
		return nil
	}
	if dryRun {
		preview, err := engine.PreviewPlan(ws, res)
		if err != nil {
			return err
		}
		app.Printf("%s", preview)
		app.Printf("\nDry run: %d fixes in %d files not applied\n", res.Applied, len(plan.AffectedFiles))
		reportSkipped(app, ws, res)
		return nil
	}

	if err := engine.ExecutePlan(ws, res); err != nil {
		return err
	}
	for _, file := range plan.AffectedFiles {
		app.Printf("fixed %s\n", ws.Rel(file))
	}
	app.Printf("Applied %d fixes in %d files\n", res.Applied, len(plan.AffectedFiles))
	reportSkipped(app, ws, res)
	return nil
}

func reportSkipped(app *cli.App, ws *workspace.Workspace, res *refactor.FixResult) {
	if len(res.Plan.Skipped) == 0 || !app.Flags.Verbose {
		return
	}
	app.Printf("\nSkipped (%d):\n", len(res.Plan.Skipped))
	for _, s := range res.Plan.Skipped {
		app.Printf("  %s %s@%d: %s\n", s.DiagnosticID, ws.Rel(s.File), s.Start, s.Reason)
	}
}

type planOutput struct {
	Applied int             `json:"applied"`
	DryRun  bool            `json:"dry_run"`
	Changes []changeOutput  `json:"changes"`
	Skipped []skippedOutput `json:"skipped,omitempty"`
	Diff    string          `json:"diff,omitempty"`
}

type changeOutput struct {
	File        string `json:"file"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	OldText     string `json:"old_text"`
	NewText     string `json:"new_text"`
	Description string `json:"description"`
}

type skippedOutput struct {
	File   string `json:"file"`
	Rule   string `json:"rule"`
	Start  int    `json:"start"`
	Reason string `json:"reason"`
}
