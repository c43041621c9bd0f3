package workspace

import (
	"go/token"
	"strings"

	"github.com/mamaar/csrefactor/pkg/semantic"
	"github.com/mamaar/csrefactor/pkg/syntax"
	"github.com/mamaar/csrefactor/pkg/types"
)

// Document is one source file: its current tree and the compilation the
// tree belongs to. A Document is never modified; edits produce a new one.
type Document struct {
	Path        string
	Tree        *syntax.Tree
	Compilation *semantic.Compilation
	// Generated documents are skipped by every analyzer.
	Generated bool
	// File maps offsets in Tree's text to positions in the file set.
	File *token.File

	fset *token.FileSet
}

// NewDocument registers the tree's text with fset. A nil fset gets a fresh
// file set, which is what tests and single-file commands want.
func NewDocument(fset *token.FileSet, tree *syntax.Tree, comp *semantic.Compilation, generated bool) *Document {
	if fset == nil {
		fset = token.NewFileSet()
	}
	if comp == nil {
		comp = semantic.NewCompilation("Document", []*syntax.Tree{tree})
	}
	return &Document{
		Path:        tree.Path(),
		Tree:        tree,
		Compilation: comp,
		Generated:   generated || IsAutoGenerated(tree),
		File:        addFile(fset, tree),
		fset:        fset,
	}
}

func addFile(fset *token.FileSet, tree *syntax.Tree) *token.File {
	text := tree.Text()
	f := fset.AddFile(tree.Path(), -1, len(text))
	f.SetLinesForContent([]byte(text))
	return f
}

func (d *Document) Text() string { return d.Tree.Text() }

func (d *Document) FileSet() *token.FileSet { return d.fset }

// Model is the semantic model of the document's tree.
func (d *Document) Model() *semantic.Model { return d.Compilation.Model(d.Tree) }

// WithTree returns the document holding t instead, in a compilation where
// the old tree is replaced by t.
func (d *Document) WithTree(t *syntax.Tree) *Document {
	if t.Path() != d.Path {
		t = t.WithPath(d.Path)
	}
	return &Document{
		Path:        d.Path,
		Tree:        t,
		Compilation: d.Compilation.ReplaceSyntaxTree(d.Tree, t),
		Generated:   d.Generated,
		File:        addFile(d.fset, t),
		fset:        d.fset,
	}
}

// Pos converts a text offset to a token.Pos, clamping offsets past the end.
func (d *Document) Pos(offset int) token.Pos {
	if offset > d.File.Size() {
		offset = d.File.Size()
	}
	return d.File.Pos(offset)
}

// Position resolves a text offset to a line and column.
func (d *Document) Position(offset int) token.Position {
	return d.fset.Position(d.Pos(offset))
}

// Offset converts a 1-based line and byte column to a text offset.
func (d *Document) Offset(line, column int) (int, error) {
	if line < 1 || line > d.File.LineCount() {
		return 0, types.NewError(types.InvalidOperation, "%s: line %d is out of range", d.Path, line)
	}
	off := d.File.Offset(d.File.LineStart(line)) + max(column, 1) - 1
	if off > d.File.Size() {
		return 0, types.NewError(types.InvalidOperation, "%s: column %d is out of range on line %d", d.Path, column, line)
	}
	return off, nil
}

// IsAutoGenerated reports whether the file starts with an
// <auto-generated> header comment.
func IsAutoGenerated(tree *syntax.Tree) bool {
	first := tree.Root().FirstToken()
	if first == nil {
		return false
	}
	for _, tr := range first.LeadingTrivia() {
		if tr.Kind.IsComment() && strings.Contains(tr.Text, "<auto-generated") {
			return true
		}
	}
	return false
}
