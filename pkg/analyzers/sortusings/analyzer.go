// Package sortusings orders the using directives of each block: non-alias
// before alias, usings of other assemblies before the current one, System
// first among those, then by alias and name.
package sortusings

import (
	"context"
	"strings"

	"golang.org/x/tools/go/analysis"

	"github.com/mamaar/csrefactor/pkg/analyzers/document"
	"github.com/mamaar/csrefactor/pkg/codefix"
	"github.com/mamaar/csrefactor/pkg/ordering"
	"github.com/mamaar/csrefactor/pkg/semantic"
	"github.com/mamaar/csrefactor/pkg/syntax"
	"github.com/mamaar/csrefactor/pkg/types"
	"github.com/mamaar/csrefactor/pkg/workspace"
)

// Title is the title of the sort action.
const Title = "Sort usings"

// Descriptor is the rule reported for a document with unsorted usings.
var Descriptor = &types.Descriptor{
	ID:               "CSR1001",
	Title:            Title,
	MessageFormat:    "Using directives are not sorted",
	Category:         "CodeStyle",
	Severity:         types.Info,
	EnabledByDefault: true,
}

// Entry is one using directive with the keys it sorts by.
type Entry struct {
	Node *syntax.Node
	// Alias is the alias identifier, nil for a plain using.
	Alias *string
	Name  string

	HasTypesFromOtherAssemblies bool
	IsSystem                    bool
}

func (e *Entry) IsAlias() bool { return e.Alias != nil }

// Order is the canonical using order. Entries that compare equal keep their
// relative order under ordering.Stable.
var Order = ordering.Chain(
	ordering.FalseFirst((*Entry).IsAlias),
	ordering.TrueFirst(func(e *Entry) bool { return e.HasTypesFromOtherAssemblies }),
	ordering.TrueFirst(func(e *Entry) bool { return e.IsSystem }),
	ordering.OrdinalNullsFirst(func(e *Entry) *string { return e.Alias }),
	ordering.Ordinal(func(e *Entry) string { return e.Name }),
)

// Block is the using directives of one container, in source order. Global
// usings form a block of their own and never mix with the others.
type Block struct {
	Parent  *syntax.Node
	Global  bool
	Entries []*Entry
}

// Sorted returns the block's entries in canonical order.
func (b *Block) Sorted() []*Entry { return ordering.Stable(b.Entries, Order) }

// IsSorted reports whether sorting would leave the block unchanged.
func (b *Block) IsSorted() bool { return ordering.SameOrder(b.Entries, b.Sorted()) }

// Blocks returns the using blocks of each container holding using
// directives (the compilation unit and each namespace declaration) in
// document order. A container yields one block for its global usings and
// one for the rest.
func Blocks(ctx context.Context, doc *workspace.Document) ([]*Block, error) {
	model := doc.Model()
	var blocks []*Block
	var bindErr error
	err := syntax.Walk(ctx, doc.Tree.Root(), func(n *syntax.Node) bool {
		switch n.Kind() {
		case syntax.CompilationUnit, syntax.NamespaceDeclaration, syntax.FileScopedNamespaceDeclaration:
		default:
			return false
		}
		byGlobal := make(map[bool]*Block, 2)
		for _, c := range n.ChildNodes() {
			if c.Kind() != syntax.UsingDirective {
				continue
			}
			e, err := newEntry(ctx, model, c)
			if err != nil {
				bindErr = err
				return false
			}
			global := syntax.As(c).(syntax.UsingDirectiveSyntax).IsGlobal()
			b := byGlobal[global]
			if b == nil {
				b = &Block{Parent: n, Global: global}
				byGlobal[global] = b
				blocks = append(blocks, b)
			}
			b.Entries = append(b.Entries, e)
		}
		return bindErr == nil
	})
	if err != nil {
		return nil, err
	}
	if bindErr != nil {
		return nil, bindErr
	}
	return blocks, nil
}

func newEntry(ctx context.Context, model *semantic.Model, n *syntax.Node) (*Entry, error) {
	u := syntax.As(n).(syntax.UsingDirectiveSyntax)
	e := &Entry{Node: n, Name: u.Name().Text()}
	if alias, ok := u.AliasName(); ok {
		e.Alias = &alias
	}
	f, err := model.Facts(ctx, u.Name())
	if err != nil {
		return nil, err
	}
	// Only namespaces count; an alias to a type is neither foreign nor System.
	if f.Symbol != nil && f.Symbol.Kind == semantic.SymbolNamespace {
		e.HasTypesFromOtherAssemblies = f.FromOtherCompilation
	}
	e.IsSystem = e.HasTypesFromOtherAssemblies && (e.Name == "System" || strings.HasPrefix(e.Name, "System."))
	return e, nil
}

func allSorted(blocks []*Block) bool {
	for _, b := range blocks {
		if !b.IsSorted() {
			return false
		}
	}
	return true
}

// Sort returns doc's tree with every block in canonical order. Each slot
// keeps its own leading and trailing trivia; only the directive text moves.
// It returns types.ErrNoMatch when every block is already sorted.
func Sort(ctx context.Context, doc *workspace.Document) (*syntax.Tree, error) {
	blocks, err := Blocks(ctx, doc)
	if err != nil {
		return nil, err
	}
	if allSorted(blocks) {
		return nil, types.ErrNoMatch
	}

	var nodes []*syntax.Node
	for _, b := range blocks {
		for _, e := range b.Entries {
			nodes = append(nodes, e.Node)
		}
	}
	cur, tracking, err := syntax.Track(doc.Tree, nodes...)
	if err != nil {
		return nil, err
	}

	// Every slot is replaced, so no tracking annotation of ours survives.
	for _, b := range blocks {
		sorted := b.Sorted()
		for i, slot := range b.Entries {
			if err := ctx.Err(); err != nil {
				return nil, types.CancelledError(err)
			}
			target, err := tracking.Resolve(cur, slot.Node)
			if err != nil {
				return nil, err
			}
			moved := sorted[i].Node.Green().WithTriviaFrom(slot.Node.Green())
			if cur, err = cur.ReplaceNode(target, moved); err != nil {
				return nil, err
			}
		}
	}
	return cur, nil
}

// Fix sorts every block of the document the site was reported in.
func Fix(ctx context.Context, doc *workspace.Document, _ *codefix.MatchSite) (*syntax.Tree, error) {
	return Sort(ctx, doc)
}

// RegisterCodeFixes offers the sort for a reported site.
func RegisterCodeFixes(c *codefix.Context) {
	c.Offer(Title, Fix)
}

// Refactor offers the sort when span lies inside a using directive of a
// document with unsorted usings.
func Refactor(ctx context.Context, doc *workspace.Document, span syntax.Span) ([]*codefix.Action, error) {
	if doc.Generated {
		return nil, nil
	}
	n := doc.Tree.FindNode(span)
	if n == nil || n.FirstAncestorOrSelf(syntax.UsingDirective) == nil {
		return nil, nil
	}
	blocks, err := Blocks(ctx, doc)
	if err != nil {
		return nil, err
	}
	if allSorted(blocks) {
		return nil, nil
	}
	c := codefix.NewContext(doc, nil)
	c.RegisterFix(span, Descriptor.Severity, Title, func(ctx context.Context) (*syntax.Tree, error) {
		return Sort(ctx, doc)
	})
	return c.Actions(), nil
}

type config struct {
	severity   types.Severity
	descriptor *types.Descriptor
}

// Option is a functional option for NewAnalyzer.
type Option func(*config)

// WithSeverity overrides the severity sites are reported with.
func WithSeverity(s types.Severity) Option {
	return func(c *config) {
		c.severity = s
	}
}

// Analyzer reports unsorted usings with the default severity.
var Analyzer = NewAnalyzer()

// NewAnalyzer creates a sort-usings analyzer with the given options.
func NewAnalyzer(opts ...Option) *analysis.Analyzer {
	cfg := &config{severity: Descriptor.Severity}
	for _, o := range opts {
		o(cfg)
	}
	cfg.descriptor = Descriptor.WithSeverity(cfg.severity)

	return &analysis.Analyzer{
		Name:     "sortusings",
		Doc:      "reports documents whose using directives are not in canonical order",
		Requires: []*analysis.Analyzer{document.Analyzer},
		Run: func(pass *analysis.Pass) (any, error) {
			return run(pass, cfg)
		},
	}
}

// run reports at most one site per document, on the first directive of the
// first unsorted block. Fixing it sorts every block.
func run(pass *analysis.Pass, cfg *config) ([]*codefix.MatchSite, error) {
	d := pass.ResultOf[document.Analyzer].(*document.Data)
	if d.Doc == nil {
		return nil, nil
	}
	blocks, err := Blocks(d.Ctx, d.Doc)
	if err != nil {
		return nil, err
	}
	for _, b := range blocks {
		if b.IsSorted() {
			continue
		}
		site := codefix.NewMatchSite(b.Entries[0].Node, cfg.descriptor)
		fixed, err := Sort(d.Ctx, d.Doc)
		if err != nil {
			return nil, err
		}
		d.Report(pass, site, Title, fixed)
		return []*codefix.MatchSite{site}, nil
	}
	return nil, nil
}
