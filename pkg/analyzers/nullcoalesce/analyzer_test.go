package nullcoalesce_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamaar/csrefactor/pkg/analyzers"
	"github.com/mamaar/csrefactor/pkg/analyzers/nullcoalesce"
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

// wrap places expr as the initializer of a local in a method whose
// parameters cover the types the cases need.
func wrap(expr string) string {
	return `class C
{
    object M(string a, string b, int? n, int x, object o, bool c)
    {
        var r = ` + expr + `;
        return r;
    }
}
`
}

func run(t *testing.T, doc *workspace.Document) *analyzers.RunResult {
	t.Helper()
	rr, err := analyzers.RunDocument(context.Background(), doc, nullcoalesce.Analyzer)
	require.NoError(t, err)
	return rr
}

func TestNullCoalesce(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string // empty when no diagnostic is expected
	}{
		{"scenario B", "a != null ? a : b", "a ?? b"},
		{"null on the left", "null != a ? a : b", "a ?? b"},
		{"equals form", "a == null ? b : a", "a ?? b"},
		{"parenthesized", "(a != null) ? (a) : b", "(a) ?? b"},
		{"nullable value", "n != null ? n.Value : 0", "n ?? 0"},
		{"nullable value equals form", "n == null ? 0 : n.Value", "n ?? 0"},
		{"cast in not-equals form", "o != null ? (string)o : b", "(string)o ?? b"},
		{"conditional right operand", "a != null ? a : c ? b : a", "a ?? (c ? b : a)"},
		{"coalesce right operand", "a != null ? a : b ?? a", "a ?? b ?? a"},
		{"value type", "x != null ? x : 0", ""},
		{"other branch", "a != null ? b : a", ""},
		{"cast in equals form", "o == null ? b : (string)o", ""},
		{"not a null test", "a != b ? a : b", ""},
		{"nullable without unwrap to value", "n != null ? n.Value + 1 : 0", ""},
		{"missing false branch", "a != null ? a : ", ""},
		{"missing true branch", "a == null ?  : a", ""},
		{"skipped false branch", "a != null ? a : [b]", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := createTestDocument(t, wrap(tt.expr))
			rr := run(t, doc)
			if tt.want == "" {
				assert.Empty(t, rr.Sites)
				return
			}
			require.Len(t, rr.Sites, 1)
			site := rr.Sites[0]
			assert.Equal(t, tt.expr, site.Node.Text())
			assert.Equal(t, "CSR2001", site.ID())
			assert.Equal(t, "'?:' expression can be converted to '??' expression", site.Message)

			fixed, err := nullcoalesce.Fix(context.Background(), doc, site)
			require.NoError(t, err)
			assert.Equal(t, wrap(tt.want), fixed.Text())
		})
	}
}

func TestNullCoalesce_ValueTypeRejectedEvenWhenConvertedToObject(t *testing.T) {
	doc := createTestDocument(t, `class C
{
    object M(int x, int y)
    {
        return x != null ? x : y;
    }
}
`)
	assert.Empty(t, run(t, doc).Sites)
}

func TestNullCoalesce_KeepsTrivia(t *testing.T) {
	doc := createTestDocument(t, "class C { string M(string a, string b) { return /* pick */ a != null ? a : b; // done\n } }\n")
	rr := run(t, doc)
	require.Len(t, rr.Sites, 1)

	fixed, err := nullcoalesce.Fix(context.Background(), doc, rr.Sites[0])
	require.NoError(t, err)
	assert.Equal(t, "class C { string M(string a, string b) { return /* pick */ a ?? b; // done\n } }\n", fixed.Text())

	require.Len(t, rr.Diagnostics, 1)
	edits := rr.Diagnostics[0].SuggestedFixes[0].TextEdits
	require.Len(t, edits, 1)
	assert.Equal(t, "??", string(edits[0].NewText))
}

func TestNullCoalesce_FixAllNested(t *testing.T) {
	doc := createTestDocument(t, wrap("a != null ? a : (b != null ? b : \"none\")"))
	rr := run(t, doc)
	require.Len(t, rr.Sites, 2)

	res, err := codefix.FixAll(context.Background(), doc, rr.Sites, func(*codefix.MatchSite) codefix.Fixer { return nullcoalesce.Fix }, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Applied)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, wrap("a ?? (b ?? \"none\")"), res.Doc.Text())
}

func TestNullCoalesce_FixNoLongerMatches(t *testing.T) {
	doc := createTestDocument(t, wrap("a != null ? a : b"))
	rr := run(t, doc)
	require.Len(t, rr.Sites, 1)

	other := createTestDocument(t, wrap("a != null ? b : a"))
	site := *rr.Sites[0]
	for n := range other.Tree.DescendantNodes() {
		if n.Kind() == site.Node.Kind() && n.Span() == site.Node.Span() {
			site.Node = n
		}
	}
	_, err := nullcoalesce.Fix(context.Background(), other, &site)
	assert.ErrorIs(t, err, types.ErrNoMatch)
}

func TestNullCoalesce_Options(t *testing.T) {
	a := nullcoalesce.NewAnalyzer(nullcoalesce.WithSeverity(types.Hidden))
	rr, err := analyzers.RunDocument(context.Background(), createTestDocument(t, wrap("a != null ? a : b")), a)
	require.NoError(t, err)
	require.Len(t, rr.Sites, 1)
	assert.Equal(t, types.Hidden, rr.Sites[0].Severity)
}

func TestNullCoalesce_GeneratedDocument(t *testing.T) {
	tree := parser.MustParse("Model.designer.cs", wrap("a != null ? a : b"))
	doc := workspace.NewDocument(nil, tree, nil, true)
	assert.Empty(t, run(t, doc).Sites)
}

func TestNullCoalesce_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := analyzers.RunDocument(ctx, createTestDocument(t, wrap("a != null ? a : b")), nullcoalesce.Analyzer)
	assert.True(t, types.IsType(err, types.Cancelled))
}
