package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mamaar/csrefactor/pkg/refactor"
)

// --- fix ---

type FixInput struct {
	File    string   `json:"file,omitempty" jsonschema:"file to fix, relative to the workspace root; the whole workspace when empty"`
	Rules   []string `json:"rules,omitempty" jsonschema:"rule IDs whose fixes to apply; all enabled rules when empty"`
	Preview bool     `json:"preview,omitempty" jsonschema:"return a unified diff instead of writing files"`
}

// --- sort_usings ---

type SortUsingsInput struct {
	File    string `json:"file" jsonschema:"file whose using directives to sort, relative to the workspace root"`
	Preview bool   `json:"preview,omitempty" jsonschema:"return a unified diff instead of writing the file"`
}

func registerFixTools(s *mcpsdk.Server, state *MCPServer) {
	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "fix",
		Description: "Apply the fixes of the enabled rules. Every occurrence in a file is fixed in one pass; fixes that would change meaning are skipped and reported.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in FixInput) (*mcpsdk.CallToolResult, any, error) {
		state.Lock()
		defer state.Unlock()

		ws, err := state.GetWorkspace()
		if err != nil {
			return errResult(err), nil, nil
		}
		res, err := state.GetEngine().Fix(ctx, ws, refactor.FixRequest{File: in.File, Rules: in.Rules})
		if err != nil {
			return errResult(err), nil, nil
		}

		desc := "No fixes to apply"
		if res.Applied > 0 {
			desc = fmt.Sprintf("%d fixes in %d files", res.Applied, len(res.Plan.AffectedFiles))
			if len(in.Rules) > 0 {
				desc += " (" + strings.Join(in.Rules, ", ") + ")"
			}
		}
		out, err := executePlan(ctx, state, ws, res, desc, in.Preview)
		if err != nil {
			return errResult(err), nil, nil
		}
		return textResult(out), nil, nil
	})

	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "sort_usings",
		Description: "Sort the using directives of a file: namespaces from referenced assemblies first, System among them before the rest, then ordinal by name with aliases last.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in SortUsingsInput) (*mcpsdk.CallToolResult, any, error) {
		state.Lock()
		defer state.Unlock()

		ws, err := state.GetWorkspace()
		if err != nil {
			return errResult(err), nil, nil
		}
		res, err := state.GetEngine().SortUsings(ctx, ws, in.File)
		if err != nil {
			return errResult(err), nil, nil
		}

		desc := fmt.Sprintf("Usings in %s are already sorted", in.File)
		if res.Applied > 0 {
			desc = fmt.Sprintf("Sorted usings in %s", in.File)
		}
		out, err := executePlan(ctx, state, ws, res, desc, in.Preview)
		if err != nil {
			return errResult(err), nil, nil
		}
		return textResult(out), nil, nil
	})
}
