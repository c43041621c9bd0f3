// Package workspace loads a directory of C# sources into documents that
// share one compilation, and writes rewritten documents back to disk.
package workspace

import (
	"context"
	"fmt"
	"go/token"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mamaar/csrefactor/pkg/config"
	"github.com/mamaar/csrefactor/pkg/parser"
	"github.com/mamaar/csrefactor/pkg/semantic"
	"github.com/mamaar/csrefactor/pkg/syntax"
	"github.com/mamaar/csrefactor/pkg/types"
)

// Workspace is a snapshot of every document under the configured source
// roots. Update and Refresh replace documents in place, so callers sharing
// a Workspace between goroutines must serialize access.
type Workspace struct {
	Root       string
	Config     *config.Config
	FileSet    *token.FileSet
	References []*semantic.Assembly

	compilation *semantic.Compilation
	docs        map[string]*Document
	logger      *slog.Logger
}

// Load reads the manifest for dir, its reference assemblies, and parses
// every .cs file under the source roots.
func Load(ctx context.Context, dir string, logger *slog.Logger) (*Workspace, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("loading workspace", "path", dir)

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		if err == nil {
			err = fmt.Errorf("%s is not a directory", dir)
		}
		return nil, &types.RefactorError{Type: types.FileSystemError, Message: err.Error(), File: dir, Cause: err}
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	w := &Workspace{
		Root:    cfg.Root,
		Config:  cfg,
		FileSet: token.NewFileSet(),
		docs:    make(map[string]*Document),
		logger:  logger,
	}
	for _, path := range cfg.ReferencePaths() {
		a, err := semantic.LoadAssemblyFile(path)
		if err != nil {
			return nil, err
		}
		w.References = append(w.References, a)
	}

	paths, err := discover(cfg.SourceRoots())
	if err != nil {
		return nil, &types.RefactorError{
			Type:    types.FileSystemError,
			Message: fmt.Sprintf("failed to scan workspace: %v", err),
			File:    dir,
			Cause:   err,
		}
	}
	logger.Debug("discovered sources", "count", len(paths))

	trees, err := parseFiles(ctx, paths)
	if err != nil {
		return nil, err
	}
	w.rebuild(trees)

	logger.Info("workspace loaded", "documents", len(w.docs), "assembly", cfg.Project.Name)
	return w, nil
}

// discover lists the .cs files under roots, skipping build output and
// hidden directories.
func discover(roots []string) ([]string, error) {
	var paths []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && SkipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.EqualFold(filepath.Ext(path), ".cs") {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	slices.Sort(paths)
	return slices.Compact(paths), nil
}

// SkipDir reports whether a directory name is excluded from scanning.
func SkipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "bin" || name == "obj"
}

func parseFiles(ctx context.Context, paths []string) ([]*syntax.Tree, error) {
	trees := make([]*syntax.Tree, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return types.CancelledError(err)
			}
			t, err := ParseFile(path)
			if err != nil {
				return err
			}
			trees[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return trees, nil
}

// ParseFile reads and parses one source file.
func ParseFile(path string) (*syntax.Tree, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.RefactorError{
			Type:    types.FileSystemError,
			Message: fmt.Sprintf("failed to read source: %v", err),
			File:    path,
			Cause:   err,
		}
	}
	return parser.Parse(path, string(src))
}

// rebuild binds trees into a fresh compilation and rewraps every document.
func (w *Workspace) rebuild(trees []*syntax.Tree) {
	slices.SortFunc(trees, func(a, b *syntax.Tree) int { return strings.Compare(a.Path(), b.Path()) })
	w.compilation = semantic.NewCompilation(w.Config.Project.Name, trees, w.References...)
	docs := make(map[string]*Document, len(trees))
	for _, t := range trees {
		if old, ok := w.docs[t.Path()]; ok && old.Tree == t {
			nd := *old
			nd.Compilation = w.compilation
			docs[t.Path()] = &nd
			continue
		}
		docs[t.Path()] = NewDocument(w.FileSet, t, w.compilation, w.Config.IsGenerated(t.Path()))
	}
	w.docs = docs
}

func (w *Workspace) trees() []*syntax.Tree {
	trees := make([]*syntax.Tree, 0, len(w.docs))
	for _, d := range w.docs {
		trees = append(trees, d.Tree)
	}
	return trees
}

// Compilation is the compilation shared by all documents.
func (w *Workspace) Compilation() *semantic.Compilation { return w.compilation }

func (w *Workspace) abs(path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(w.Root, path)
	}
	return filepath.Clean(path)
}

// Rel renders path relative to the workspace root for display.
func (w *Workspace) Rel(path string) string {
	if rel, err := filepath.Rel(w.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}

// Document looks a document up by absolute or root-relative path.
func (w *Workspace) Document(path string) (*Document, bool) {
	d, ok := w.docs[w.abs(path)]
	return d, ok
}

// Documents returns every document ordered by path.
func (w *Workspace) Documents() []*Document {
	keys := slices.Sorted(maps.Keys(w.docs))
	out := make([]*Document, len(keys))
	for i, k := range keys {
		out[i] = w.docs[k]
	}
	return out
}

// Update replaces the document at doc.Path and rebinds the compilation so
// every document sees the change. It returns the document as now stored.
func (w *Workspace) Update(doc *Document) *Document {
	w.docs[doc.Path] = doc
	w.rebuild(w.trees())
	return w.docs[doc.Path]
}

// Refresh re-reads the given files from disk. Files that no longer exist
// are dropped. A change to the manifest or a reference assembly reloads
// the whole workspace.
func (w *Workspace) Refresh(ctx context.Context, paths []string) error {
	var sources []string
	for _, p := range paths {
		p = w.abs(p)
		switch {
		case filepath.Base(p) == config.FileName, slices.Contains(w.Config.ReferencePaths(), p):
			return w.reload(ctx)
		case strings.EqualFold(filepath.Ext(p), ".cs"):
			sources = append(sources, p)
		}
	}
	if len(sources) == 0 {
		return nil
	}

	var present []string
	for _, p := range sources {
		if _, err := os.Stat(p); err != nil {
			w.logger.Debug("dropping document", "path", p)
			delete(w.docs, p)
			continue
		}
		present = append(present, p)
	}
	parsed, err := parseFiles(ctx, present)
	if err != nil {
		return err
	}
	trees := w.trees()
	for _, t := range parsed {
		if i := slices.IndexFunc(trees, func(o *syntax.Tree) bool { return o.Path() == t.Path() }); i >= 0 {
			trees[i] = t
		} else {
			trees = append(trees, t)
		}
	}
	w.rebuild(trees)
	w.logger.Info("workspace refreshed", "files", len(sources), "documents", len(w.docs))
	return nil
}

func (w *Workspace) reload(ctx context.Context) error {
	fresh, err := Load(ctx, w.Root, w.logger)
	if err != nil {
		return err
	}
	*w = *fresh
	return nil
}
