package mcp

import mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

// Name and Version identify the server to clients.
const (
	Name    = "csrefactor"
	Version = "0.1.0"
)

// NewServer creates a go-sdk server with every csrefactor tool registered
// against state.
func NewServer(state *MCPServer) *mcpsdk.Server {
	s := mcpsdk.NewServer(&mcpsdk.Implementation{Name: Name, Version: Version}, nil)
	RegisterAllTools(s, state)
	return s
}

// RegisterAllTools wires every csrefactor tool into the MCP server.
func RegisterAllTools(s *mcpsdk.Server, state *MCPServer) {
	registerWorkspaceTools(s, state)
	registerAnalysisTools(s, state)
	registerFixTools(s, state)
}
