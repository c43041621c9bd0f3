package watch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mamaar/csrefactor/pkg/workspace"
)

// WorkspaceUpdater applies change batches to a workspace.
type WorkspaceUpdater struct {
	workspace *workspace.Workspace
	lock      sync.Locker
	logger    *slog.Logger
}

// NewUpdater creates an updater for ws. lock, when non-nil, is held while
// the workspace is refreshed so readers sharing ws never see it half
// updated.
func NewUpdater(ws *workspace.Workspace, lock sync.Locker, logger *slog.Logger) *WorkspaceUpdater {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &WorkspaceUpdater{workspace: ws, lock: lock, logger: logger}
}

// HandleChanges refreshes the documents named by events. A manifest or
// reference change reloads the whole workspace.
func (u *WorkspaceUpdater) HandleChanges(ctx context.Context, events []ChangeEvent) error {
	start := time.Now()
	paths := make([]string, 0, len(events))
	for _, ev := range events {
		paths = append(paths, ev.Path)
	}

	if u.lock != nil {
		u.lock.Lock()
		defer u.lock.Unlock()
	}
	if err := u.workspace.Refresh(ctx, paths); err != nil {
		u.logger.Error("refresh failed", "files", len(paths), "err", err)
		return err
	}

	u.logger.Info("batch complete",
		"files", len(events),
		"documents", len(u.workspace.Documents()),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// Watch runs w and applies every batch until ctx is cancelled. Refresh
// errors are logged and do not stop watching.
func (u *WorkspaceUpdater) Watch(ctx context.Context, w *Watcher) error {
	batches := make(chan []ChangeEvent, 4)
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx, batches) }()
	for {
		select {
		case batch := <-batches:
			_ = u.HandleChanges(ctx, batch)
		case err := <-errc:
			return err
		}
	}
}

func (u *WorkspaceUpdater) Workspace() *workspace.Workspace {
	return u.workspace
}

// String implements fmt.Stringer for logging convenience.
func (u *WorkspaceUpdater) String() string {
	return fmt.Sprintf("WorkspaceUpdater{root=%s}", u.workspace.Root)
}
