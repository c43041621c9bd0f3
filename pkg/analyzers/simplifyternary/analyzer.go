// Package simplifyternary rewrites conditional expressions with a bool
// literal branch into && and || expressions.
package simplifyternary

import (
	"context"

	"golang.org/x/tools/go/analysis"

	"github.com/mamaar/csrefactor/pkg/analyzers/document"
	"github.com/mamaar/csrefactor/pkg/codefix"
	"github.com/mamaar/csrefactor/pkg/semantic"
	"github.com/mamaar/csrefactor/pkg/syntax"
	"github.com/mamaar/csrefactor/pkg/types"
	"github.com/mamaar/csrefactor/pkg/workspace"
)

const Title = "Simplify conditional expression"

var Descriptor = &types.Descriptor{
	ID:               "CSR2002",
	Title:            Title,
	MessageFormat:    "Conditional expression can be simplified",
	Category:         "PracticesAndImprovements",
	Severity:         types.Info,
	EnabledByDefault: true,
}

// branch is the literal value of one branch. known is false for anything
// other than a true or false literal.
type branch struct {
	value, known bool
}

func literal(n *syntax.Node) branch {
	v, ok := syntax.BoolLiteral(syntax.SkipParens(n))
	return branch{value: v, known: ok}
}

func (b branch) is(v bool) bool { return b.known && b.value == v }

// Simplify returns the && / || form of a conditional expression, or nil when
// no rewrite applies.
//
//	c ? false : true  ->  !c
//	c ? true : x      ->  c || x
//	c ? false : x     ->  !c && x
//	c ? x : true      ->  !c || x
//	c ? x : false     ->  c && x
func Simplify(n *syntax.Node) *syntax.GreenNode {
	cond, ok := syntax.As(n).(syntax.ConditionalExpressionSyntax)
	if !ok {
		return nil
	}
	t, f := literal(cond.WhenTrue()), literal(cond.WhenFalse())
	c := cond.Condition().Green()

	var g *syntax.GreenNode
	switch {
	case t.is(false) && f.is(true):
		g = syntax.InvertCondition(c)
	case t.is(true):
		g = syntax.NewBinary(syntax.LogicalOrExpression, c, cond.WhenFalse().Green())
	case t.is(false):
		g = syntax.NewBinary(syntax.LogicalAndExpression, syntax.InvertCondition(c), cond.WhenFalse().Green())
	case f.is(true):
		g = syntax.NewBinary(syntax.LogicalOrExpression, syntax.InvertCondition(c), cond.WhenTrue().Green())
	case f.is(false):
		g = syntax.NewBinary(syntax.LogicalAndExpression, c, cond.WhenTrue().Green())
	default:
		return nil
	}
	return g.WithTriviaFrom(n.Green())
}

// Detect reports whether n should be simplified. Conditionals returning the
// same literal twice, or true : false, are left to the redundant-conditional
// rule. A non-literal branch must be a plain bool; a bool? or unbound branch
// makes the rewrite unsafe and the conditional is skipped, as is one with a
// syntax error.
func Detect(ctx context.Context, model *semantic.Model, n *syntax.Node) (bool, error) {
	cond, ok := syntax.As(n).(syntax.ConditionalExpressionSyntax)
	if !ok || syntax.IsMalformed(n) {
		return false, nil
	}
	t, f := literal(cond.WhenTrue()), literal(cond.WhenFalse())
	switch {
	case !t.known && !f.known:
		return false, nil
	case t.known && f.known:
		return t.is(false) && f.is(true), nil
	}

	other := cond.WhenFalse()
	if f.known {
		other = cond.WhenTrue()
	}
	fact, err := model.Facts(ctx, other)
	if err != nil {
		return false, err
	}
	boolean := model.Compilation().LookupType("System.Boolean")
	return fact.Type.Is(boolean), nil
}

// Fix rewrites the site's conditional.
func Fix(ctx context.Context, doc *workspace.Document, site *codefix.MatchSite) (*syntax.Tree, error) {
	ok, err := Detect(ctx, doc.Model(), site.Node)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, types.ErrNoMatch
	}
	return doc.Tree.ReplaceNode(site.Node, Simplify(site.Node))
}

func RegisterCodeFixes(c *codefix.Context) {
	c.Offer(Title, Fix)
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

var Analyzer = NewAnalyzer()

// NewAnalyzer creates a ternary simplification analyzer.
func NewAnalyzer(opts ...Option) *analysis.Analyzer {
	cfg := &config{severity: Descriptor.Severity}
	for _, o := range opts {
		o(cfg)
	}
	cfg.descriptor = Descriptor.WithSeverity(cfg.severity)

	return &analysis.Analyzer{
		Name:     "simplifyternary",
		Doc:      "detects ?: expressions with a true or false branch that can be written with && or ||",
		Requires: []*analysis.Analyzer{document.Analyzer},
		Run: func(pass *analysis.Pass) (any, error) {
			return run(pass, cfg)
		},
	}
}

func run(pass *analysis.Pass, cfg *config) ([]*codefix.MatchSite, error) {
	d := pass.ResultOf[document.Analyzer].(*document.Data)
	if d.Doc == nil {
		return nil, nil
	}
	model := d.Model()

	var sites []*codefix.MatchSite
	var firstErr error
	err := d.Inspector.Preorder(d.Ctx, []syntax.Kind{syntax.ConditionalExpression}, func(n *syntax.Node) {
		if firstErr != nil {
			return
		}
		ok, err := Detect(d.Ctx, model, n)
		if err != nil {
			firstErr = err
			return
		}
		if !ok {
			return
		}
		site := codefix.NewMatchSite(n, cfg.descriptor)
		fixed, err := d.Doc.Tree.ReplaceNode(n, Simplify(n))
		if err != nil {
			firstErr = err
			return
		}
		d.Report(pass, site, Title, fixed)
		sites = append(sites, site)
	})
	if err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return sites, nil
}
