package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mamaar/csrefactor/pkg/rules"
)

// --- load_workspace ---

type LoadWorkspaceInput struct {
	Path string `json:"path" jsonschema:"path to the workspace root, or any directory below a csrefactor.toml"`
}

type LoadWorkspaceOutput struct {
	Project       string `json:"project"`
	RootPath      string `json:"root_path"`
	DocumentCount int    `json:"document_count"`
	References    int    `json:"references"`
	Watching      bool   `json:"watching"`
}

// --- workspace_status ---

type WorkspaceStatusInput struct{}

type WorkspaceStatusOutput struct {
	Loaded        bool     `json:"loaded"`
	Project       string   `json:"project,omitempty"`
	RootPath      string   `json:"root_path,omitempty"`
	DocumentCount int      `json:"document_count"`
	Documents     []string `json:"documents,omitempty"`
	Watching      bool     `json:"watching"`
}

// --- list_rules ---

type ListRulesInput struct{}

type RuleInfo struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Severity string `json:"severity"`
	Enabled  bool   `json:"enabled"`
	Fix      string `json:"fix"`
	HelpLink string `json:"help_link,omitempty"`
}

type ListRulesOutput struct {
	Rules []RuleInfo `json:"rules"`
}

func registerWorkspaceTools(s *mcpsdk.Server, state *MCPServer) {
	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "load_workspace",
		Description: "Load a C# workspace into memory. Must be called before any other tool. The workspace is watched and stays in step with edits on disk.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in LoadWorkspaceInput) (*mcpsdk.CallToolResult, any, error) {
		watching, err := state.LoadWorkspace(ctx, in.Path)
		if err != nil {
			return errResult(err), nil, nil
		}
		state.RLock()
		defer state.RUnlock()
		ws, err := state.GetWorkspace()
		if err != nil {
			return errResult(err), nil, nil
		}
		return textResult(LoadWorkspaceOutput{
			Project:       ws.Config.Project.Name,
			RootPath:      ws.Root,
			DocumentCount: len(ws.Documents()),
			References:    len(ws.References),
			Watching:      watching,
		}), nil, nil
	})

	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "workspace_status",
		Description: "Return the current workspace status: loaded state, project name and the documents it holds.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in WorkspaceStatusInput) (*mcpsdk.CallToolResult, any, error) {
		watching := state.Watching()
		state.RLock()
		defer state.RUnlock()

		ws, err := state.GetWorkspace()
		if err != nil {
			return textResult(WorkspaceStatusOutput{Loaded: false}), nil, nil
		}
		out := WorkspaceStatusOutput{
			Loaded:   true,
			Project:  ws.Config.Project.Name,
			RootPath: ws.Root,
			Watching: watching,
		}
		for _, doc := range ws.Documents() {
			out.Documents = append(out.Documents, ws.Rel(doc.Path))
		}
		out.DocumentCount = len(out.Documents)
		return textResult(out), nil, nil
	})

	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "list_rules",
		Description: "List the built-in rules with the severity and enabled state the workspace manifest gives them.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in ListRulesInput) (*mcpsdk.CallToolResult, any, error) {
		state.RLock()
		defer state.RUnlock()

		ws, err := state.GetWorkspace()
		if err != nil {
			return errResult(err), nil, nil
		}
		configured, err := state.GetEngine().Rules(ws)
		if err != nil {
			return errResult(err), nil, nil
		}

		var out ListRulesOutput
		for _, r := range rules.Default().Rules() {
			info := RuleInfo{
				ID:       r.ID(),
				Title:    r.Descriptor.Title,
				Category: rules.CategoryTitle(r.Descriptor.Category),
				Severity: severityName(r),
				Fix:      r.FixTitle,
				HelpLink: r.Descriptor.HelpLink,
			}
			if c, ok := configured.Lookup(r.ID()); ok {
				info.Enabled = true
				info.Severity = severityName(c)
			}
			out.Rules = append(out.Rules, info)
		}
		return textResult(out), nil, nil
	})
}

func severityName(r *rules.Rule) string {
	text, _ := r.Descriptor.Severity.MarshalText()
	return string(text)
}
