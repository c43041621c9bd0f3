package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/fsnotify/fsnotify"

	"github.com/mamaar/csrefactor/pkg/workspace"
)

// setupWorkspace creates a temp directory with a manifest and one source
// file, loads it, and returns a ready-to-use WorkspaceUpdater.
func setupWorkspace(t *testing.T) (*WorkspaceUpdater, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "csrefactor.toml", "[project]\nname = \"App\"\n")
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "src"), "A.cs", "namespace App { class A { } }\n")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ws, err := workspace.Load(context.Background(), dir, logger)
	if err != nil {
		t.Fatal(err)
	}
	return NewUpdater(ws, &sync.Mutex{}, testLogger()), dir
}

func TestUpdater_ModifyReParsesFile(t *testing.T) {
	u, dir := setupWorkspace(t)
	path := filepath.Join(dir, "src", "A.cs")

	if u.Workspace().Compilation().LookupType("App.B") != nil {
		t.Fatal("App.B should not exist yet")
	}

	writeFile(t, filepath.Join(dir, "src"), "A.cs", "namespace App { class A { } class B { } }\n")
	if err := u.HandleChanges(context.Background(), []ChangeEvent{{Path: path, Op: fsnotify.Write}}); err != nil {
		t.Fatal(err)
	}

	if u.Workspace().Compilation().LookupType("App.B") == nil {
		t.Fatal("expected App.B after modify")
	}
	doc, ok := u.Workspace().Document(path)
	if !ok || doc.Text() != "namespace App { class A { } class B { } }\n" {
		t.Fatalf("document not refreshed: %v", ok)
	}
}

func TestUpdater_CreateAddsDocument(t *testing.T) {
	u, dir := setupWorkspace(t)
	initial := len(u.Workspace().Documents())

	writeFile(t, filepath.Join(dir, "src"), "B.cs", "namespace App { class B { } }\n")
	newPath := filepath.Join(dir, "src", "B.cs")
	if err := u.HandleChanges(context.Background(), []ChangeEvent{{Path: newPath, Op: fsnotify.Create}}); err != nil {
		t.Fatal(err)
	}

	if got := len(u.Workspace().Documents()); got != initial+1 {
		t.Fatalf("expected %d documents, got %d", initial+1, got)
	}
	if _, ok := u.Workspace().Document("src/B.cs"); !ok {
		t.Fatal("B.cs not found in workspace")
	}
}

func TestUpdater_DeleteRemovesDocument(t *testing.T) {
	u, dir := setupWorkspace(t)
	path := filepath.Join(dir, "src", "A.cs")
	_ = os.Remove(path)

	if err := u.HandleChanges(context.Background(), []ChangeEvent{{Path: path, Op: fsnotify.Remove}}); err != nil {
		t.Fatal(err)
	}

	if _, ok := u.Workspace().Document(path); ok {
		t.Fatal("A.cs should have been removed")
	}
	if u.Workspace().Compilation().LookupType("App.A") != nil {
		t.Fatal("App.A should be gone from the compilation")
	}
}

func TestUpdater_ManifestChangeReloads(t *testing.T) {
	u, dir := setupWorkspace(t)
	ws := u.Workspace()

	writeFile(t, dir, "csrefactor.toml", "[project]\nname = \"Renamed\"\n")
	manifest := filepath.Join(dir, "csrefactor.toml")
	if err := u.HandleChanges(context.Background(), []ChangeEvent{{Path: manifest, Op: fsnotify.Write}}); err != nil {
		t.Fatal(err)
	}

	if u.Workspace() != ws {
		t.Fatal("reload must keep the workspace value")
	}
	if got := ws.Compilation().AssemblyName(); got != "Renamed" {
		t.Fatalf("expected assembly Renamed, got %q", got)
	}
}

func TestUpdater_BadManifestKeepsWorkspace(t *testing.T) {
	u, dir := setupWorkspace(t)

	writeFile(t, dir, "csrefactor.toml", "[project\n")
	manifest := filepath.Join(dir, "csrefactor.toml")
	if err := u.HandleChanges(context.Background(), []ChangeEvent{{Path: manifest, Op: fsnotify.Write}}); err == nil {
		t.Fatal("expected an error for a malformed manifest")
	}
	if got := u.Workspace().Compilation().AssemblyName(); got != "App" {
		t.Fatalf("expected the previous workspace to survive, got assembly %q", got)
	}
}
