// Package cli holds the state shared by the csrefactor commands: flags,
// output streams, the logger and the refactoring engine.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/mamaar/csrefactor/pkg/refactor"
	"github.com/mamaar/csrefactor/pkg/workspace"
)

// ErrFindings makes a command exit with status 1 without printing an
// error, after it has reported error-severity findings itself.
var ErrFindings = errors.New("findings reported")

// App represents the csrefactor application
type App struct {
	Flags Flags
	Out   io.Writer
	Err   io.Writer

	logger *slog.Logger
}

// NewApp creates an application writing to out and errOut.
func NewApp(out, errOut io.Writer) *App {
	return &App{Out: out, Err: errOut}
}

// Logger writes to the error stream, at debug level with --verbose.
func (app *App) Logger() *slog.Logger {
	if app.logger == nil {
		level := slog.LevelWarn
		if app.Flags.Verbose {
			level = slog.LevelDebug
		}
		app.logger = slog.New(slog.NewTextHandler(app.Err, &slog.HandlerOptions{Level: level}))
	}
	return app.logger
}

// UseColor resolves --color against the output stream.
func (app *App) UseColor() bool {
	switch app.Flags.Color {
	case "on", "always":
		return true
	case "off", "never":
		return false
	}
	f, ok := app.Out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// configureColor applies UseColor to fatih/color, which is global.
func (app *App) configureColor() {
	color.NoColor = !app.UseColor()
}

// Engine creates a refactor engine configured by the flags.
func (app *App) Engine() refactor.RefactorEngine {
	return refactor.CreateEngineWithConfig(&refactor.EngineConfig{
		Backup: app.Flags.Backup,
		Logger: app.Logger(),
	})
}

// LoadWorkspace loads the workspace containing path, which may name a
// directory or a source file.
func (app *App) LoadWorkspace(ctx context.Context, engine refactor.RefactorEngine, path string) (*workspace.Workspace, error) {
	if path == "" {
		path = "."
	}
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		path = filepath.Dir(path)
	}
	return engine.LoadWorkspace(ctx, path)
}

// OutputJSON writes v as indented JSON to the output stream.
func (app *App) OutputJSON(v any) error {
	enc := json.NewEncoder(app.Out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// Printf writes human-readable output.
func (app *App) Printf(format string, args ...any) {
	fmt.Fprintf(app.Out, format, args...)
}
