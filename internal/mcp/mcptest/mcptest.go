// Package mcptest provides test helpers for invoking csrefactor MCP tools
// with swappable transports: in-process (fast) or subprocess (full binary).
package mcptest

import (
	"context"
	"encoding/json"
	"log/slog"
	"os/exec"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	internalmcp "github.com/mamaar/csrefactor/internal/mcp"
)

// Session wraps an MCP ClientSession with cleanup logic.
type Session struct {
	*mcpsdk.ClientSession
	cancel context.CancelFunc
	state  *internalmcp.MCPServer // non-nil only for in-process
}

// Close tears down the session.
func (s *Session) Close() {
	_ = s.ClientSession.Close()
	if s.cancel != nil {
		s.cancel()
	}
	if s.state != nil {
		s.state.Close()
	}
}

// State returns the server state of an in-process session, nil otherwise.
func (s *Session) State() *internalmcp.MCPServer { return s.state }

// Transport selects how the MCP server is reached.
type Transport interface {
	connect(ctx context.Context, t testing.TB) (*Session, error)
}

// Connect opens a session without loading a workspace.
func Connect(ctx context.Context, t testing.TB, transport Transport) *Session {
	t.Helper()
	sess, err := transport.connect(ctx, t)
	if err != nil {
		t.Fatalf("mcptest.Connect: %v", err)
	}
	t.Cleanup(sess.Close)
	return sess
}

// Dial connects to an MCP server using the given transport,
// then calls load_workspace with workspacePath.
func Dial(ctx context.Context, t testing.TB, transport Transport, workspacePath string) *Session {
	t.Helper()
	sess := Connect(ctx, t, transport)
	result, err := sess.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      "load_workspace",
		Arguments: map[string]any{"path": workspacePath},
	})
	if err != nil {
		t.Fatalf("mcptest.Dial: load_workspace: %v", err)
	}
	if result.IsError {
		t.Fatalf("mcptest.Dial: load_workspace returned error: %s", Text(result))
	}
	return sess
}

// Call invokes a tool and decodes its JSON text result into out, which may
// be nil. The raw result is returned so callers can check IsError.
func Call(ctx context.Context, t testing.TB, sess *Session, tool string, args map[string]any, out any) *mcpsdk.CallToolResult {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	result, err := sess.CallTool(ctx, &mcpsdk.CallToolParams{Name: tool, Arguments: args})
	if err != nil {
		t.Fatalf("mcptest.Call %s: %v", tool, err)
	}
	if out != nil && !result.IsError {
		if err := json.Unmarshal([]byte(Text(result)), out); err != nil {
			t.Fatalf("mcptest.Call %s: decoding result: %v", tool, err)
		}
	}
	return result
}

// Text concatenates the text content blocks of a result.
func Text(result *mcpsdk.CallToolResult) string {
	var s string
	for _, c := range result.Content {
		if tc, ok := c.(*mcpsdk.TextContent); ok {
			s += tc.Text
		}
	}
	return s
}

// inProcess is the in-process transport using NewInMemoryTransports.
type inProcess struct{}

// InProcess returns a transport that runs the MCP server in-process.
func InProcess() Transport { return inProcess{} }

func (inProcess) connect(ctx context.Context, t testing.TB) (*Session, error) {
	state := internalmcp.NewMCPServer(slog.New(slog.DiscardHandler))
	server := internalmcp.NewServer(state)

	serverT, clientT := mcpsdk.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(ctx)
	go func() { _ = server.Run(ctx, serverT) }()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "1.0"}, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		cancel()
		state.Close()
		return nil, err
	}
	return &Session{ClientSession: session, cancel: cancel, state: state}, nil
}

// subprocess is the subprocess transport using CommandTransport.
type subprocess struct {
	binPath string
}

// Subprocess returns a transport that shells out to the given binary.
func Subprocess(bin string) Transport { return subprocess{binPath: bin} }

func (sp subprocess) connect(ctx context.Context, t testing.TB) (*Session, error) {
	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, sp.binPath)

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "1.0"}, nil)
	session, err := client.Connect(ctx, &mcpsdk.CommandTransport{Command: cmd}, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	return &Session{ClientSession: session, cancel: cancel}, nil
}
