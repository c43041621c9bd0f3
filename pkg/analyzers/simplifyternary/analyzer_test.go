package simplifyternary_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamaar/csrefactor/pkg/analyzers"
	"github.com/mamaar/csrefactor/pkg/analyzers/simplifyternary"
	"github.com/mamaar/csrefactor/pkg/codefix"
	"github.com/mamaar/csrefactor/pkg/parser"
	"github.com/mamaar/csrefactor/pkg/types"
	"github.com/mamaar/csrefactor/pkg/workspace"
)

func createTestDocument(t *testing.T, src string) *workspace.Document {
	t.Helper()
	tree, err := parser.Parse("Program.cs", src)
	require.NoError(t, err)
	return workspace.NewDocument(nil, tree, nil, false)
}

func wrap(expr string) string {
	return `class C
{
    bool M(bool flag, bool isReady, bool other, bool? maybe, int n)
    {
        var r = ` + expr + `;
        return r;
    }
}
`
}

func TestSimplifyTernary(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string // empty when no diagnostic is expected
	}{
		{"scenario C", "flag ? true : isReady", "flag || isReady"},
		{"scenario D", "flag ? false : isReady", "!flag && isReady"},
		{"scenario D with negated condition", "!flag ? false : isReady", "flag && isReady"},
		{"true in false branch", "flag ? isReady : true", "!flag || isReady"},
		{"false in false branch", "flag ? isReady : false", "flag && isReady"},
		{"inverted literals", "flag ? false : true", "!flag"},
		{"inverted comparison", "n > 0 ? false : true", "n <= 0"},
		{"inverted equality", "n == 1 ? false : isReady", "n != 1 && isReady"},
		{"de morgan", "flag && isReady ? false : true", "!flag || !isReady"},
		{"or chain", "n == 1 || flag ? true : isReady", "n == 1 || flag || isReady"},
		{"and inside or", "flag ? true : n > 0 && isReady", "flag || n > 0 && isReady"},
		{"or inside and", "flag ? isReady || other : false", "flag && (isReady || other)"},
		{"parenthesized literal", "flag ? (true) : isReady", "flag || isReady"},
		{"parenthesized condition", "(flag || other) ? false : isReady", "(!flag && !other) && isReady"},
		{"redundant", "flag ? true : false", ""},
		{"same literal", "flag ? true : true", ""},
		{"no literal", "flag ? isReady : other", ""},
		{"nullable branch", "flag ? true : maybe", ""},
		{"int branches", "flag ? 1 : 0", ""},
		{"missing false branch", "flag ? true : ", ""},
		{"missing colon", "flag ? false true", ""},
		{"skipped branch", "flag ? true : [isReady]", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := createTestDocument(t, wrap(tt.expr))
			rr, err := analyzers.RunDocument(context.Background(), doc, simplifyternary.Analyzer)
			require.NoError(t, err)
			if tt.want == "" {
				assert.Empty(t, rr.Sites)
				return
			}
			require.Len(t, rr.Sites, 1)
			assert.Equal(t, "CSR2002", rr.Sites[0].ID())

			fixed, err := simplifyternary.Fix(context.Background(), doc, rr.Sites[0])
			require.NoError(t, err)
			assert.Equal(t, wrap(tt.want), fixed.Text())
		})
	}
}

func TestSimplifyTernary_ReturnKeepsTrivia(t *testing.T) {
	src := "class C { bool M(bool flag, bool isReady) { return flag\n        ? true\n        : isReady; // ready\n } }\n"
	doc := createTestDocument(t, src)
	rr, err := analyzers.RunDocument(context.Background(), doc, simplifyternary.Analyzer)
	require.NoError(t, err)
	require.Len(t, rr.Sites, 1)

	fixed, err := simplifyternary.Fix(context.Background(), doc, rr.Sites[0])
	require.NoError(t, err)
	assert.Equal(t, "class C { bool M(bool flag, bool isReady) { return flag || isReady; // ready\n } }\n", fixed.Text())
}

func TestSimplifyTernary_FixAllNested(t *testing.T) {
	doc := createTestDocument(t, wrap("flag ? (isReady ? true : other) : false"))
	rr, err := analyzers.RunDocument(context.Background(), doc, simplifyternary.Analyzer)
	require.NoError(t, err)
	require.Len(t, rr.Sites, 2)

	res, err := codefix.FixAll(context.Background(), doc, rr.Sites, func(*codefix.MatchSite) codefix.Fixer { return simplifyternary.Fix }, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Applied)
	assert.Equal(t, wrap("flag && (isReady || other)"), res.Doc.Text())
}

func TestSimplifyTernary_CodeFixContext(t *testing.T) {
	doc := createTestDocument(t, wrap("flag ? false : isReady"))
	rr, err := analyzers.RunDocument(context.Background(), doc, simplifyternary.Analyzer)
	require.NoError(t, err)
	require.Len(t, rr.Sites, 1)

	c := codefix.NewContext(doc, rr.Sites[0])
	simplifyternary.RegisterCodeFixes(c)
	require.Len(t, c.Actions(), 1)
	action := c.Actions()[0]
	assert.Equal(t, "Simplify conditional expression", action.Title)
	assert.Equal(t, "CSR2002", action.DiagnosticID)
	assert.Equal(t, types.Info, action.Severity)

	tree, err := action.Apply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, wrap("!flag && isReady"), tree.Text())
}
