package mcp

import (
	"context"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mamaar/csrefactor/pkg/refactor"
	"github.com/mamaar/csrefactor/pkg/syntax"
	"github.com/mamaar/csrefactor/pkg/types"
)

// --- analyze ---

type AnalyzeInput struct {
	File  string   `json:"file,omitempty" jsonschema:"limit the analysis to this file, relative to the workspace root"`
	Rules []string `json:"rules,omitempty" jsonschema:"rule IDs to run, e.g. CSR2001; all enabled rules when empty"`
}

// --- parse_tree ---

type ParseTreeInput struct {
	File string `json:"file" jsonschema:"file to dump, relative to the workspace root"`
}

type ParseTreeOutput struct {
	File    string `json:"file"`
	Nodes   int    `json:"nodes"`
	Tokens  int    `json:"tokens"`
	Skipped int    `json:"skipped"`
	Tree    string `json:"tree"`
}

// --- code_actions ---

type CodeActionsInput struct {
	File   string `json:"file" jsonschema:"file to inspect, relative to the workspace root"`
	Line   int    `json:"line" jsonschema:"1-based line of the cursor"`
	Column int    `json:"column" jsonschema:"1-based byte column of the cursor"`
}

type CodeActionInfo struct {
	Title        string `json:"title"`
	DiagnosticID string `json:"diagnostic_id,omitempty"`
	Line         int    `json:"line"`
	Column       int    `json:"column"`
	Start        int    `json:"start"`
	End          int    `json:"end"`
}

type CodeActionsOutput struct {
	Actions []CodeActionInfo `json:"actions"`
}

func registerAnalysisTools(s *mcpsdk.Server, state *MCPServer) {
	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "analyze",
		Description: "Run the enabled rules over the workspace and return findings with file positions and the fix each one offers.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in AnalyzeInput) (*mcpsdk.CallToolResult, any, error) {
		state.RLock()
		defer state.RUnlock()

		ws, err := state.GetWorkspace()
		if err != nil {
			return errResult(err), nil, nil
		}
		report, err := state.GetEngine().Analyze(ctx, ws, refactor.AnalyzeRequest{File: in.File, Rules: in.Rules})
		if err != nil {
			return errResult(err), nil, nil
		}
		return textResult(report), nil, nil
	})

	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "parse_tree",
		Description: "Dump the syntax tree of a workspace file, one node per line with its span. Tokens show their text.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in ParseTreeInput) (*mcpsdk.CallToolResult, any, error) {
		state.RLock()
		defer state.RUnlock()

		ws, err := state.GetWorkspace()
		if err != nil {
			return errResult(err), nil, nil
		}
		doc, ok := ws.Document(in.File)
		if !ok {
			return errResult(types.NewError(types.InvalidOperation, "file %s is not part of the workspace", in.File)), nil, nil
		}

		root := doc.Tree.Root()
		out := ParseTreeOutput{File: ws.Rel(doc.Path)}
		for n := range root.DescendantNodesAndSelf() {
			out.Nodes++
			if n.Kind() == syntax.SkippedTokens {
				out.Skipped++
			}
		}
		for range root.DescendantTokens() {
			out.Tokens++
		}
		var b strings.Builder
		syntax.Dump(&b, root)
		out.Tree = b.String()
		return textResult(out), nil, nil
	})

	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "code_actions",
		Description: "List the fixes and refactorings available at a cursor position.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in CodeActionsInput) (*mcpsdk.CallToolResult, any, error) {
		state.RLock()
		defer state.RUnlock()

		ws, err := state.GetWorkspace()
		if err != nil {
			return errResult(err), nil, nil
		}
		doc, ok := ws.Document(in.File)
		if !ok {
			return errResult(types.NewError(types.InvalidOperation, "file %s is not part of the workspace", in.File)), nil, nil
		}
		offset, err := doc.Offset(in.Line, in.Column)
		if err != nil {
			return errResult(err), nil, nil
		}
		actions, err := state.GetEngine().CodeActions(ctx, ws, doc.Path, offset)
		if err != nil {
			return errResult(err), nil, nil
		}

		out := CodeActionsOutput{Actions: []CodeActionInfo{}}
		for _, a := range actions {
			pos := doc.Position(a.Span.Start)
			out.Actions = append(out.Actions, CodeActionInfo{
				Title:        a.Title,
				DiagnosticID: a.DiagnosticID,
				Line:         pos.Line,
				Column:       pos.Column,
				Start:        a.Span.Start,
				End:          a.Span.End,
			})
		}
		return textResult(out), nil, nil
	})
}
