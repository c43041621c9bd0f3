package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestWatcher_CreateFileTriggersEvent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Init.cs", "class Init { }\n")

	w, err := NewWatcher(dir, 50*time.Millisecond, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	out := make(chan []ChangeEvent, 10)
	go func() { _ = w.Run(ctx, out) }()

	// Create a new source file
	writeFile(t, dir, "New.cs", "class New { }\n")

	batch := waitForBatch(t, out, 2*time.Second)
	assertContainsPath(t, batch, filepath.Join(dir, "New.cs"))
}

func TestWatcher_ModifyFileTriggersEvent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Program.cs", "class Program { }\n")

	w, err := NewWatcher(dir, 50*time.Millisecond, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	out := make(chan []ChangeEvent, 10)
	go func() { _ = w.Run(ctx, out) }()

	// Modify the file
	writeFile(t, dir, "Program.cs", "class Program { void Hello() { } }\n")

	batch := waitForBatch(t, out, 2*time.Second)
	assertContainsPath(t, batch, filepath.Join(dir, "Program.cs"))
}

func TestWatcher_DeleteFileTriggersEvent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Old.cs", "class Old { }\n")

	w, err := NewWatcher(dir, 50*time.Millisecond, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	out := make(chan []ChangeEvent, 10)
	go func() { _ = w.Run(ctx, out) }()

	_ = os.Remove(filepath.Join(dir, "Old.cs"))

	batch := waitForBatch(t, out, 2*time.Second)
	assertContainsPath(t, batch, filepath.Join(dir, "Old.cs"))
}

func TestWatcher_UnrelatedFileIgnored(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Init.cs", "class Init { }\n")

	w, err := NewWatcher(dir, 50*time.Millisecond, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	out := make(chan []ChangeEvent, 10)
	go func() { _ = w.Run(ctx, out) }()

	// Write a file that is neither source, manifest nor reference
	_ = os.WriteFile(filepath.Join(dir, "readme.md"), []byte("hello"), 0644)

	// Should timeout with no events
	select {
	case batch := <-out:
		t.Fatalf("expected no events for .md file, got %d", len(batch))
	case <-ctx.Done():
		// Good: no events received
	}
}

func TestWatcher_DebounceCoalescesEvents(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Init.cs", "class Init { }\n")

	w, err := NewWatcher(dir, 200*time.Millisecond, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	out := make(chan []ChangeEvent, 10)
	go func() { _ = w.Run(ctx, out) }()

	// Rapid edits to the same file coalesce into one event.
	for i := 0; i < 5; i++ {
		writeFile(t, dir, "Rapid.cs", "class Rapid { }\n// v"+string(rune('0'+i))+"\n")
		time.Sleep(20 * time.Millisecond)
	}

	batch := waitForBatch(t, out, 2*time.Second)

	count := 0
	for _, ev := range batch {
		if filepath.Base(ev.Path) == "Rapid.cs" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected 1 coalesced event for Rapid.cs, got %d", count)
	}
}

func TestWatcher_ManifestAndReferences(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Init.cs", "class Init { }\n")

	w, err := NewWatcher(dir, 50*time.Millisecond, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	out := make(chan []ChangeEvent, 10)
	go func() { _ = w.Run(ctx, out) }()

	writeFile(t, dir, "csrefactor.toml", "[project]\nname = \"App\"\n")
	writeFile(t, dir, "zeta.yaml", "name: Zeta\n")

	manifest, ref := filepath.Join(dir, "csrefactor.toml"), filepath.Join(dir, "zeta.yaml")
	var seen []ChangeEvent
	for !containsPath(seen, manifest) || !containsPath(seen, ref) {
		seen = append(seen, waitForBatch(t, out, 2*time.Second)...)
	}
}

func TestWatcher_SkipsBuildOutput(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "obj"), 0o755); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(dir, 50*time.Millisecond, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	out := make(chan []ChangeEvent, 10)
	go func() { _ = w.Run(ctx, out) }()

	writeFile(t, filepath.Join(dir, "obj"), "Generated.cs", "class G { }\n")

	select {
	case batch := <-out:
		t.Fatalf("expected no events under obj/, got %v", batch)
	case <-ctx.Done():
	}
}

func TestWatcher_ContextCancellationStops(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Init.cs", "class Init { }\n")

	w, err := NewWatcher(dir, 50*time.Millisecond, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan []ChangeEvent, 10)

	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, out)
	}()

	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}

// --- helpers ---

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func waitForBatch(t *testing.T, ch <-chan []ChangeEvent, timeout time.Duration) []ChangeEvent {
	t.Helper()
	select {
	case batch := <-ch:
		return batch
	case <-time.After(timeout):
		t.Fatal("timed out waiting for batch")
		return nil
	}
}

func containsPath(batch []ChangeEvent, path string) bool {
	for _, ev := range batch {
		if ev.Path == path {
			return true
		}
	}
	return false
}

func assertContainsPath(t *testing.T, batch []ChangeEvent, path string) {
	t.Helper()
	if !containsPath(batch, path) {
		t.Fatalf("batch does not contain %s; got %v", path, batch)
	}
}
