// Package mcp exposes the csrefactor engine as Model Context Protocol
// tools.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mamaar/csrefactor/pkg/refactor"
	"github.com/mamaar/csrefactor/pkg/types"
	"github.com/mamaar/csrefactor/pkg/watch"
	"github.com/mamaar/csrefactor/pkg/workspace"
)

const debounce = 200 * time.Millisecond

// MCPServer holds the shared state for the MCP tool handlers:
// a loaded workspace, its refactoring engine, and an optional
// filesystem watcher that keeps the workspace in step with the disk.
type MCPServer struct {
	mu        sync.RWMutex
	engine    refactor.RefactorEngine
	workspace *workspace.Workspace
	watcher   *watch.Watcher
	updater   *watch.WorkspaceUpdater
	cancel    context.CancelFunc // stops the watch goroutine
	done      chan struct{}
	logger    *slog.Logger
}

// NewMCPServer creates a new MCPServer with the given logger.
func NewMCPServer(logger *slog.Logger) *MCPServer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MCPServer{
		engine: refactor.CreateEngineWithConfig(&refactor.EngineConfig{Logger: logger}),
		logger: logger,
	}
}

// LoadWorkspace loads (or reloads) the workspace at path and starts a
// background watcher for it. It reports whether the watcher is running;
// a workspace without one still works but does not see outside edits.
func (s *MCPServer) LoadWorkspace(ctx context.Context, path string) (bool, error) {
	ws, err := s.engine.LoadWorkspace(ctx, path)
	if err != nil {
		return false, err
	}

	s.stopWatcher()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspace = ws
	s.logger.Info("workspace loaded", "root", ws.Root, "documents", len(ws.Documents()))

	w, err := watch.NewWatcher(ws.Root, debounce, s.logger)
	if err != nil {
		s.logger.Warn("watcher unavailable, workspace will not auto-update", "err", err)
		return false, nil
	}
	s.watcher = w
	s.updater = watch.NewUpdater(ws, &s.mu, s.logger)

	watchCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	go func(u *watch.WorkspaceUpdater) {
		defer close(done)
		if err := u.Watch(watchCtx, w); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("watcher error", "err", err)
		}
	}(s.updater)
	return true, nil
}

// stopWatcher cancels the watch goroutine and waits for it, so a batch in
// flight cannot refresh a workspace that is being replaced.
func (s *MCPServer) stopWatcher() {
	s.mu.Lock()
	cancel, done, w := s.cancel, s.done, s.watcher
	s.cancel, s.done, s.watcher, s.updater = nil, nil, nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	if w != nil {
		_ = w.Close()
	}
}

// GetWorkspace returns the loaded workspace or an error if none is loaded.
// Callers hold at least the read lock.
func (s *MCPServer) GetWorkspace() (*workspace.Workspace, error) {
	if s.workspace == nil {
		return nil, types.NewError(types.InvalidOperation, "no workspace loaded, call load_workspace first")
	}
	return s.workspace, nil
}

// GetEngine returns the refactoring engine.
func (s *MCPServer) GetEngine() refactor.RefactorEngine {
	return s.engine
}

// Refresh re-reads files from disk right away instead of waiting for the
// watcher.
func (s *MCPServer) Refresh(ctx context.Context, files []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.GetWorkspace()
	if err != nil {
		return err
	}
	return ws.Refresh(ctx, files)
}

// Watching reports whether a watcher is running.
func (s *MCPServer) Watching() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watcher != nil
}

// RLock acquires a read lock on the server state.
func (s *MCPServer) RLock() { s.mu.RLock() }

// RUnlock releases the read lock.
func (s *MCPServer) RUnlock() { s.mu.RUnlock() }

// Lock acquires the write lock; tools that rewrite files hold it so the
// plan they execute is built from the state they write over.
func (s *MCPServer) Lock() { s.mu.Lock() }

// Unlock releases the write lock.
func (s *MCPServer) Unlock() { s.mu.Unlock() }

// Close stops the watcher and releases resources.
func (s *MCPServer) Close() {
	s.stopWatcher()
}
