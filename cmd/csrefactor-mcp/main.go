// Command csrefactor-mcp serves the csrefactor tools over the Model
// Context Protocol on stdio.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mamaar/csrefactor/internal/mcp"
)

func main() {
	var (
		workspaceFlag = flag.String("workspace", "", "workspace to load on startup (optional, clients can call load_workspace)")
		debugFlag     = flag.Bool("debug", false, "enable debug logging")
		versionFlag   = flag.Bool("version", false, "show version information")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("%s-mcp v%s\n", mcp.Name, mcp.Version)
		return
	}

	// stdout carries the protocol; logs go to stderr.
	level := slog.LevelInfo
	if *debugFlag {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state := mcp.NewMCPServer(logger)
	defer state.Close()

	if *workspaceFlag != "" {
		if _, err := state.LoadWorkspace(ctx, *workspaceFlag); err != nil {
			logger.Error("failed to load workspace", "path", *workspaceFlag, "err", err)
			os.Exit(1)
		}
	}

	logger.Info("starting MCP server", "version", mcp.Version)
	if err := mcp.NewServer(state).Run(ctx, &mcpsdk.StdioTransport{}); err != nil && ctx.Err() == nil {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
