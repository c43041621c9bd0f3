// Package nullcoalesce reports conditional expressions that test a value
// against null and return it, such as a != null ? a : b, which read better
// as a ?? b.
package nullcoalesce

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

// Title is the title of the fix.
const Title = "Replace '?:' with '??'"

var Descriptor = &types.Descriptor{
	ID:               "CSR2001",
	Title:            "'?:' expression can be converted to '??' expression",
	MessageFormat:    "'?:' expression can be converted to '??' expression",
	Category:         "Opportunities",
	Severity:         types.Info,
	EnabledByDefault: true,
}

// Match is a conditional expression that can become Left ?? Right.
type Match struct {
	Conditional *syntax.Node
	// Left is the branch taken when the tested value is not null, with a
	// nullable .Value access unwrapped.
	Left  *syntax.Node
	Right *syntax.Node
	// Equals is set when the condition is x == null.
	Equals bool
}

// Detect examines one conditional expression. It returns nil when the
// conditional has a syntax error, when the condition is not a null test, when the non-null branch does not yield the
// tested value, or when the non-null branch cannot hold null, in which case
// ?? would not be equivalent.
func Detect(ctx context.Context, model *semantic.Model, n *syntax.Node) (*Match, error) {
	cond, ok := syntax.As(n).(syntax.ConditionalExpressionSyntax)
	if !ok || syntax.IsMalformed(n) {
		return nil, nil
	}
	obj, test := nullTest(cond.Condition())
	if obj == nil {
		return nil, nil
	}

	m := &Match{Conditional: n, Equals: test == syntax.EqualsExpression}
	selected, other := cond.WhenTrue(), cond.WhenFalse()
	if m.Equals {
		selected, other = other, selected
	}
	left, err := unpackNullableValue(ctx, model, selected)
	if err != nil {
		return nil, err
	}
	nullable, err := canBeNull(ctx, model, left)
	if err != nil || !nullable {
		return nil, err
	}

	target := syntax.SkipParens(obj).Green()
	switch {
	case syntax.AreEquivalent(target, syntax.SkipParens(left).Green()):
	case !m.Equals && castOperandMatches(left, target):
	default:
		return nil, nil
	}
	m.Left, m.Right = left, other
	return m, nil
}

// nullTest returns the operand compared against null and the comparison
// kind, or nil when cond is not x == null, x != null or the mirrored forms.
func nullTest(cond *syntax.Node) (*syntax.Node, syntax.Kind) {
	b, ok := syntax.As(syntax.SkipParens(cond)).(syntax.BinaryExpressionSyntax)
	if !ok {
		return nil, 0
	}
	k := b.Node().Kind()
	if k != syntax.EqualsExpression && k != syntax.NotEqualsExpression {
		return nil, 0
	}
	switch {
	case syntax.IsNullLiteral(syntax.SkipParens(b.Left())):
		return b.Right(), k
	case syntax.IsNullLiteral(syntax.SkipParens(b.Right())):
		return b.Left(), k
	}
	return nil, 0
}

// unpackNullableValue turns x.Value into x when x is a nullable value type.
func unpackNullableValue(ctx context.Context, model *semantic.Model, n *syntax.Node) (*syntax.Node, error) {
	ma, ok := syntax.As(syntax.SkipParens(n)).(syntax.MemberAccessExpressionSyntax)
	if !ok || ma.NameText() != "Value" {
		return n, nil
	}
	f, err := model.Facts(ctx, ma.Expression())
	if err != nil {
		return nil, err
	}
	if f.ConvertedType == nil || !f.ConvertedType.IsNullableValueType() {
		return n, nil
	}
	return ma.Expression(), nil
}

func canBeNull(ctx context.Context, model *semantic.Model, n *syntax.Node) (bool, error) {
	f, err := model.Facts(ctx, n)
	if err != nil {
		return false, err
	}
	return f.IsReferenceType || f.IsNullableValueType, nil
}

func castOperandMatches(n *syntax.Node, target *syntax.GreenNode) bool {
	cast, ok := syntax.As(n).(syntax.CastExpressionSyntax)
	return ok && cast.Expression() != nil && syntax.AreEquivalent(target, syntax.SkipParens(cast.Expression()).Green())
}

// Rewrite builds left ?? right for m, carrying the conditional's outer
// trivia. A cast matched in the != form stays on the left operand.
func (m *Match) Rewrite() *syntax.GreenNode {
	return syntax.NewBinary(syntax.CoalesceExpression, m.Left.Green(), m.Right.Green()).
		WithTriviaFrom(m.Conditional.Green())
}

// Fix replaces the site's conditional with the equivalent ?? expression.
func Fix(ctx context.Context, doc *workspace.Document, site *codefix.MatchSite) (*syntax.Tree, error) {
	m, err := Detect(ctx, doc.Model(), site.Node)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, types.ErrNoMatch
	}
	return doc.Tree.ReplaceNode(site.Node, m.Rewrite())
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

// Analyzer is the null-coalescing analyzer with the default severity.
var Analyzer = NewAnalyzer()

// NewAnalyzer creates a null-coalescing analyzer with the given options.
func NewAnalyzer(opts ...Option) *analysis.Analyzer {
	cfg := &config{severity: Descriptor.Severity}
	for _, o := range opts {
		o(cfg)
	}
	cfg.descriptor = Descriptor.WithSeverity(cfg.severity)

	return &analysis.Analyzer{
		Name:     "nullcoalesce",
		Doc:      "detects ?: expressions testing against null that can be written with ??",
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
		m, err := Detect(d.Ctx, model, n)
		if err != nil {
			firstErr = err
			return
		}
		if m == nil {
			return
		}
		site := codefix.NewMatchSite(n, cfg.descriptor)
		fixed, err := d.Doc.Tree.ReplaceNode(n, m.Rewrite())
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
