package parser_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamaar/csrefactor/pkg/parser"
	"github.com/mamaar/csrefactor/pkg/syntax"
)

func kinds(n *syntax.Node) []syntax.Kind {
	var out []syntax.Kind
	for _, c := range n.ChildNodes() {
		out = append(out, c.Kind())
	}
	return out
}

func find(t *testing.T, tree *syntax.Tree, k syntax.Kind) *syntax.Node {
	t.Helper()
	for n := range tree.DescendantNodes() {
		if n.Kind() == k {
			return n
		}
	}
	t.Fatalf("no %s in %q", k, tree.Text())
	return nil
}

func TestParse_RoundTrip(t *testing.T) {
	sources := map[string]string{
		"empty":   "",
		"trivia":  "  // only a comment\n\n/* block */\n",
		"usings":  "using System;\r\nusing static System.Math;\r\nusing IO = System.IO;\r\nusing global::Foo.Bar;\r\n",
		"global":  "global using System;\nglobal using static System.Math;\nglobal using IO = System.IO;\nusing Foo;\n",
		"preproc": "#region Usings\nusing A;\n#endregion\n#if DEBUG\nusing B;\n#endif\n",
		"class": `namespace N.M
{
    using X;

    [Serializable]
    public sealed partial class Foo<T> : Bar, IBaz where T : class
    {
        private readonly int _x = 1, _y;
        public string Name { get; private set; } = "n";
        public int Twice => _x * 2;
        public Foo(int x) : base(x) { _x = x; }
        public static T? Get<U>(U u, ref int r, out bool ok, params object[] rest) where U : new()
        {
            ok = u is not null;
            var list = new List<int> { 1, 2 };
            foreach (var i in list) { r += i; }
            for (int i = 0; i < 3; i++) r--;
            while (r > 0) { r -= 1; }
            do { r++; } while (r < 10);
            switch (r)
            {
                case 1:
                case int n when n > 5:
                    break;
                default:
                    return default;
            }
            try { throw new InvalidOperationException($"bad {r}"); }
            catch (Exception e) when (e != null) { }
            finally { }
            using (var s = new MemoryStream()) { }
            lock (list) { }
            Func<int, bool> f = x => x > 0 ? true : false;
            Action a = () => { };
            var arr = new[] { 'a', '\n' };
            var s2 = @"verbatim ""quoted""";
            return u as T ?? default(T);
        }
    }

    enum Color { Red = 1, [Obsolete] Green, Blue }
    interface IBaz { void M(); }
    struct S { }
}
`,
		"file scoped":  "namespace A.B;\n\nusing C;\n\nclass D { bool M(bool? b) => b.HasValue ? b.Value : false; }\n",
		"broken":       "class { void M( { if (x ==) } } } ) ; @ ` \"unterminated\n",
		"stray tokens": "}}} ;; using ; namespace ; class C { int = ; }",
		"expressions": `class C { void M() {
  a = b ?? c ?? d;
  x = (int)-y + (a) - b;
  y = !(p && q) || r is string s;
  z = o?.P?.Q ?? o![0]!.R;
  w = ++i + j-- * -k;
  v = cond ? x => x : (y) => y;
  u = await Task.Run(() => 1);
} }`,
	}
	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			tree, err := parser.Parse("a.cs", src)
			require.NoError(t, err)
			assert.Equal(t, src, tree.Text())

			again, err := parser.Parse("a.cs", tree.Text())
			require.NoError(t, err)
			assert.Equal(t, tree.Text(), again.Text())
		})
	}
}

func TestParse_UsingDirectives(t *testing.T) {
	src := "using System;\nusing static System.Math;\nusing IO = System.IO;\n\nnamespace N\n{\n    using Inner;\n}\n"
	tree := parser.MustParse("a.cs", src)

	root := tree.Root()
	assert.Equal(t, []syntax.Kind{syntax.UsingDirective, syntax.UsingDirective, syntax.UsingDirective, syntax.NamespaceDeclaration}, kinds(root))

	static := syntax.As(root.ChildNodes()[1]).(syntax.UsingDirectiveSyntax)
	require.NotNil(t, static.StaticKeyword())
	assert.Equal(t, "System.Math", static.Name().Text())

	alias := syntax.As(root.ChildNodes()[2]).(syntax.UsingDirectiveSyntax)
	name, ok := alias.AliasName()
	require.True(t, ok)
	assert.Equal(t, "IO", name)
	assert.Equal(t, syntax.QualifiedName, alias.Name().Kind())

	ns := root.ChildNodes()[3]
	assert.Equal(t, []syntax.Kind{syntax.IdentifierName, syntax.UsingDirective}, kinds(ns))
}

func TestParse_GlobalUsingDirectives(t *testing.T) {
	src := "global using Zeta;\nglobal using static System.Math;\nglobal using IO = System.IO;\nusing global::Foo.Bar;\n\nclass C { }\n"
	tree := parser.MustParse("a.cs", src)

	root := tree.Root()
	require.Equal(t, []syntax.Kind{syntax.UsingDirective, syntax.UsingDirective, syntax.UsingDirective, syntax.UsingDirective, syntax.ClassDeclaration}, kinds(root))

	first := syntax.As(root.ChildNodes()[0]).(syntax.UsingDirectiveSyntax)
	assert.True(t, first.IsGlobal())
	assert.Equal(t, "global", first.GlobalKeyword().Text())
	assert.Equal(t, "Zeta", first.Name().Text())

	static := syntax.As(root.ChildNodes()[1]).(syntax.UsingDirectiveSyntax)
	assert.True(t, static.IsGlobal())
	require.NotNil(t, static.StaticKeyword())
	assert.Equal(t, "System.Math", static.Name().Text())

	alias := syntax.As(root.ChildNodes()[2]).(syntax.UsingDirectiveSyntax)
	name, ok := alias.AliasName()
	require.True(t, ok)
	assert.Equal(t, "IO", name)

	qualified := syntax.As(root.ChildNodes()[3]).(syntax.UsingDirectiveSyntax)
	assert.False(t, qualified.IsGlobal())
	assert.Equal(t, syntax.AliasQualifiedName, qualified.Name().Kind())

	for n := range tree.DescendantNodes() {
		assert.NotEqual(t, syntax.SkippedTokens, n.Kind(), n.Text())
	}
}

func TestParse_FileScopedNamespace(t *testing.T) {
	tree := parser.MustParse("a.cs", "namespace A.B;\nusing C;\nclass D { }\n")
	ns := find(t, tree, syntax.FileScopedNamespaceDeclaration)
	assert.Equal(t, []syntax.Kind{syntax.QualifiedName, syntax.UsingDirective, syntax.ClassDeclaration}, kinds(ns))
}

func TestParse_Members(t *testing.T) {
	src := `class C
{
    int _f = 1;
    public bool P { get; set; }
    public C(int f) { }
    protected virtual bool? M(bool a) { return a; }
}`
	tree := parser.MustParse("a.cs", src)
	class := find(t, tree, syntax.ClassDeclaration)
	assert.Equal(t, []syntax.Kind{
		syntax.FieldDeclaration,
		syntax.PropertyDeclaration,
		syntax.ConstructorDeclaration,
		syntax.MethodDeclaration,
	}, kinds(class))

	method := find(t, tree, syntax.MethodDeclaration)
	assert.Equal(t, syntax.NullableType, method.FirstChild(syntax.NullableType).Kind())
	params := method.FirstChild(syntax.ParameterList)
	require.NotNil(t, params)
	assert.Len(t, params.ChildNodes(), 1)
}

func TestParseExpression_Shapes(t *testing.T) {
	tests := []struct {
		src  string
		kind syntax.Kind
		text []string
	}{
		{"a || b && c", syntax.LogicalOrExpression, []string{"a", "b && c"}},
		{"a && b || c", syntax.LogicalOrExpression, []string{"a && b", "c"}},
		{"a ?? b ?? c", syntax.CoalesceExpression, []string{"a", "b ?? c"}},
		{"a == null ? b : c", syntax.ConditionalExpression, []string{"a == null", "b", "c"}},
		{"a ? b : c ? d : e", syntax.ConditionalExpression, []string{"a", "b", "c ? d : e"}},
		{"(T)x", syntax.CastExpression, []string{"T", "x"}},
		{"(int)-x", syntax.CastExpression, []string{"int", "-x"}},
		{"(int?)x", syntax.CastExpression, []string{"int?", "x"}},
		{"(a) - b", syntax.SubtractExpression, []string{"(a)", "b"}},
		{"(a) is B", syntax.IsExpression, []string{"(a)", "B"}},
		{"!x.Y", syntax.LogicalNotExpression, []string{"x.Y"}},
		{"x.Value", syntax.MemberAccessExpression, []string{"x", "Value"}},
		{"f(a, b)", syntax.InvocationExpression, []string{"f", "(a, b)"}},
		{"x = y ?? z", syntax.SimpleAssignmentExpression, []string{"x", "y ?? z"}},
		{"x => x > 1", syntax.LambdaExpression, []string{"x", "x > 1"}},
		{"new Foo(1)", syntax.ObjectCreationExpression, []string{"Foo", "(1)"}},
		{"a < b == c > d", syntax.EqualsExpression, []string{"a < b", "c > d"}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			g, err := parser.ParseExpression(tt.src)
			require.NoError(t, err)
			tree := syntax.NewTree("", g)
			root := tree.Root()
			require.Equal(t, tt.kind, root.Kind(), "root of %q", tt.src)

			var got []string
			for _, c := range root.ChildNodes() {
				got = append(got, c.Text())
			}
			assert.Equal(t, tt.text, got)
		})
	}
}

func TestParse_TriviaAttachment(t *testing.T) {
	src := "using A; // a\n\n// lead\nusing B;\n"
	tree := parser.MustParse("a.cs", src)
	usings := tree.Root().ChildNodes()
	require.Len(t, usings, 2)

	assert.Equal(t, "using A; // a\n", usings[0].FullText())
	assert.Equal(t, "\n// lead\nusing B;\n", usings[1].FullText())
	assert.True(t, usings[1].LeadingTrivia()[1].Kind.IsComment())
}

func TestParse_LiteralValues(t *testing.T) {
	tree := parser.MustParse("a.cs", `class C { object[] V = { 42, 0x1F, 1.5, "a\tb", @"c""d", 'x', true, null, @class }; }`)
	var values []any
	for tok := range tree.Root().DescendantTokens() {
		switch tok.Kind() {
		case syntax.NumericLiteralToken, syntax.StringLiteralToken, syntax.CharacterLiteralToken, syntax.TrueKeyword, syntax.NullKeyword:
			values = append(values, tok.Value())
		case syntax.IdentifierToken:
			if strings.HasPrefix(tok.TokenText(), "@") {
				values = append(values, tok.ValueText())
			}
		}
	}
	assert.Equal(t, []any{int64(42), int64(31), 1.5, "a\tb", `c"d`, 'x', true, nil, "class"}, values)
}
