package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mamaar/csrefactor/pkg/refactor"
	"github.com/mamaar/csrefactor/pkg/types"
	"github.com/mamaar/csrefactor/pkg/workspace"
)

// PlanResult is the structured output returned by rewriting tools.
type PlanResult struct {
	Description   string             `json:"description"`
	AffectedFiles []string           `json:"affected_files"`
	Applied       int                `json:"applied"`
	Skipped       []types.SkippedFix `json:"skipped,omitempty"`
	Preview       bool               `json:"preview"`
	Diff          string             `json:"diff,omitempty"`
	Success       bool               `json:"success"`
}

// executePlan writes res to disk, or only renders it when preview is set.
// The caller holds the write lock.
func executePlan(ctx context.Context, state *MCPServer, ws *workspace.Workspace, res *refactor.FixResult, desc string, preview bool) (*PlanResult, error) {
	out := &PlanResult{
		Description: desc,
		Applied:     res.Applied,
		Skipped:     res.Plan.Skipped,
		Preview:     preview,
	}
	for _, f := range res.Plan.AffectedFiles {
		out.AffectedFiles = append(out.AffectedFiles, ws.Rel(f))
	}
	if len(res.Plan.Changes) == 0 {
		out.Success = true
		return out, nil
	}

	if preview {
		diff, err := state.GetEngine().PreviewPlan(ws, res)
		if err != nil {
			return nil, fmt.Errorf("preview plan: %w", err)
		}
		out.Diff = diff
		out.Success = true
		return out, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, types.CancelledError(err)
	}
	if err := state.GetEngine().ExecutePlan(ws, res); err != nil {
		return nil, fmt.Errorf("execute plan: %w", err)
	}
	out.Success = true
	return out, nil
}

// textResult is a convenience that marshals v to JSON and wraps it in a
// CallToolResult with a single TextContent block.
func textResult(v any) *mcpsdk.CallToolResult {
	b, _ := json.MarshalIndent(v, "", "  ")
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(b)},
		},
	}
}

// errResult returns a CallToolResult that signals an error.
func errResult(err error) *mcpsdk.CallToolResult {
	r := &mcpsdk.CallToolResult{}
	r.SetError(err)
	return r
}
