package semantic_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamaar/csrefactor/pkg/parser"
	"github.com/mamaar/csrefactor/pkg/semantic"
	"github.com/mamaar/csrefactor/pkg/syntax"
	"github.com/mamaar/csrefactor/pkg/types"
)

var zeta = &semantic.Assembly{
	Name: "Zeta.Lib",
	Namespaces: []semantic.NamespaceSpec{
		{Name: "Zeta", Types: []semantic.TypeSpec{{Name: "Widget", Kind: "class", Members: []semantic.MemberSpec{
			{Name: "Size", Kind: "property", Type: "int?"},
			{Name: "Label", Kind: "property", Type: "string"},
		}}}},
		{Name: "Alpha", Types: []semantic.TypeSpec{{Name: "Thing", Kind: "struct"}}},
	},
}

func compile(t *testing.T, src string) (*semantic.Compilation, *semantic.Model) {
	t.Helper()
	tree := parser.MustParse("Program.cs", src)
	comp := semantic.NewCompilation("Foo", []*syntax.Tree{tree}, zeta)
	return comp, comp.Model(tree)
}

// nodeAt returns the innermost node of kind k whose text is text.
func nodeAt(t *testing.T, m *semantic.Model, k syntax.Kind, text string) *syntax.Node {
	t.Helper()
	var found *syntax.Node
	for n := range m.Tree().DescendantNodes() {
		if n.Kind() == k && n.Text() == text {
			found = n
		}
	}
	require.NotNil(t, found, "no %s %q", k, text)
	return found
}

func TestFacts_UsingNamespacesForeignness(t *testing.T) {
	_, m := compile(t, `using Zeta;
using Z = Alpha;
using System;
using Foo.Internal;

namespace Foo.Internal { class Helper { } }
`)
	ctx := context.Background()
	var got []bool
	for _, u := range m.Tree().Root().ChildNodes() {
		if u.Kind() != syntax.UsingDirective {
			continue
		}
		v := syntax.As(u).(syntax.UsingDirectiveSyntax)
		f, err := m.Facts(ctx, v.Name())
		require.NoError(t, err)
		require.NotNil(t, f.Symbol, v.Name().Text())
		assert.Equal(t, semantic.SymbolNamespace, f.Symbol.Kind)
		got = append(got, f.FromOtherCompilation)
	}
	assert.Equal(t, []bool{true, true, true, false}, got)
}

func TestFacts_NamespaceSharedWithReference(t *testing.T) {
	comp, m := compile(t, "namespace Zeta.Extensions { class X { } }\n")
	ns := comp.LookupNamespace("Zeta")
	require.NotNil(t, ns)
	assert.Equal(t, []string{"Foo", "Zeta.Lib"}, ns.Assemblies())
	assert.Equal(t, []string{"Foo"}, comp.LookupNamespace("Zeta.Extensions").Assemblies())

	f, err := m.Facts(context.Background(), nodeAt(t, m, syntax.QualifiedName, "Zeta.Extensions"))
	require.NoError(t, err)
	assert.False(t, f.FromOtherCompilation)
}

func TestFacts_ExpressionTypes(t *testing.T) {
	_, m := compile(t, `using System;
using Zeta;

class C
{
    private string name;

    object M(int? count, Widget w, bool flag, long big)
    {
        var local = w.Label;
        var size = w.Size;
        var ok = flag && big > 0;
        Console.WriteLine(local);
        return count != null ? count.Value : 0;
    }

    bool P => name.Length > 3;
}
`)
	ctx := context.Background()
	tests := []struct {
		kind     syntax.Kind
		text     string
		typeName string
		ref      bool
		nullable bool
	}{
		{syntax.IdentifierName, "count", "System.Int32?", false, true},
		{syntax.MemberAccessExpression, "count.Value", "System.Int32", false, false},
		{syntax.MemberAccessExpression, "w.Size", "", false, false},
		{syntax.MemberAccessExpression, "w.Label", "System.String", true, false},
		{syntax.IdentifierName, "local", "", false, false},
		{syntax.IdentifierName, "name", "System.String", true, false},
		{syntax.NumericLiteralExpression, "0", "System.Int32", false, false},
		{syntax.NotEqualsExpression, "count != null", "System.Boolean", false, false},
		{syntax.MemberAccessExpression, "name.Length", "System.Int32", false, false},
		{syntax.IdentifierName, "flag", "System.Boolean", false, false},
	}
	for _, tc := range tests {
		if tc.typeName == "" {
			continue
		}
		t.Run(tc.text, func(t *testing.T) {
			f, err := m.Facts(ctx, nodeAt(t, m, tc.kind, tc.text))
			require.NoError(t, err)
			require.NotNil(t, f.Type)
			assert.Equal(t, tc.typeName, f.Type.FullName())
			assert.Equal(t, tc.ref, f.IsReferenceType)
			assert.Equal(t, tc.nullable, f.IsNullableValueType)
		})
	}

	local, err := m.Facts(ctx, nodeAt(t, m, syntax.IdentifierName, "local"))
	require.NoError(t, err)
	require.NotNil(t, local.Symbol)
	assert.Equal(t, semantic.SymbolLocal, local.Symbol.Kind)
	assert.Equal(t, "System.String", local.Type.FullName())

	size, err := m.Facts(ctx, nodeAt(t, m, syntax.MemberAccessExpression, "w.Size"))
	require.NoError(t, err)
	assert.True(t, size.IsNullableValueType)
	assert.True(t, size.FromOtherCompilation)
}

func TestFacts_ConditionalBranchConvertsToConditionalType(t *testing.T) {
	_, m := compile(t, `class C
{
    void M(int? a, string s)
    {
        var x = a != null ? a.Value : 0;
        var y = a != null ? a.Value : null;
        var z = s != null ? s : "none";
    }
}
`)
	ctx := context.Background()
	var branches []*syntax.Node
	for n := range m.Tree().DescendantNodes() {
		if n.Kind() == syntax.ConditionalExpression {
			branches = append(branches, syntax.As(n).(syntax.ConditionalExpressionSyntax).WhenTrue())
		}
	}
	require.Len(t, branches, 3)

	want := []struct {
		converted string
		ref       bool
		nullable  bool
	}{
		{"System.Int32", false, false},
		{"System.Int32?", false, true},
		{"System.String", true, false},
	}
	for i, w := range want {
		f, err := m.Facts(ctx, branches[i])
		require.NoError(t, err)
		require.NotNil(t, f.ConvertedType, branches[i].Text())
		assert.Equal(t, w.converted, f.ConvertedType.FullName(), branches[i].Parent().Text())
		assert.Equal(t, w.ref, f.IsReferenceType)
		assert.Equal(t, w.nullable, f.IsNullableValueType)
	}
}

func TestFacts_GlobalUsingsApplyToEveryFile(t *testing.T) {
	usings := parser.MustParse("Usings.cs", "global using Zeta;\nglobal using W = Zeta.Widget;\n")
	prog := parser.MustParse("Program.cs", "class C { object M(Widget w, W v) { return w.Label ?? v.Label; } }\n")
	comp := semantic.NewCompilation("Foo", []*syntax.Tree{usings, prog}, zeta)
	m := comp.Model(prog)
	ctx := context.Background()

	for _, text := range []string{"w.Label", "v.Label"} {
		f, err := m.Facts(ctx, nodeAt(t, m, syntax.MemberAccessExpression, text))
		require.NoError(t, err)
		require.NotNil(t, f.Type, text)
		assert.Equal(t, "System.String", f.Type.FullName())
	}

	alone := semantic.NewCompilation("Foo", []*syntax.Tree{prog}, zeta)
	f, err := alone.Model(prog).Facts(ctx, nodeAt(t, alone.Model(prog), syntax.MemberAccessExpression, "w.Label"))
	require.NoError(t, err)
	assert.Nil(t, f.Type)
}

func TestFacts_Memoized(t *testing.T) {
	_, m := compile(t, "class C { bool M(bool b) { return b; } }\n")
	n := nodeAt(t, m, syntax.IdentifierName, "b")
	first, err := m.Facts(context.Background(), n)
	require.NoError(t, err)
	second, err := m.Facts(context.Background(), n)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestFacts_Cancelled(t *testing.T) {
	_, m := compile(t, "class C { bool M(bool b) { return b; } }\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Facts(ctx, nodeAt(t, m, syntax.IdentifierName, "b"))
	require.Error(t, err)
	assert.True(t, types.IsType(err, types.Cancelled))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFacts_ForeignTree(t *testing.T) {
	_, m := compile(t, "class C { }\n")
	other := parser.MustParse("Other.cs", "class D { }\n")
	_, err := m.Facts(context.Background(), other.Root())
	assert.True(t, types.IsType(err, types.InvalidOperation))
}

func TestReplaceSyntaxTree(t *testing.T) {
	comp, m := compile(t, "namespace Foo.A { class X { } }\n")
	updated := parser.MustParse("Program.cs", "namespace Foo.B { class Y { } }\n")
	next := comp.ReplaceSyntaxTree(m.Tree(), updated)

	assert.NotNil(t, comp.LookupType("Foo.A.X"))
	assert.Nil(t, next.LookupType("Foo.A.X"))
	assert.NotNil(t, next.LookupType("Foo.B.Y"))
	assert.Len(t, next.References(), 2)
	assert.Equal(t, semantic.CoreLibraryName, next.References()[0].Name)
}

func TestParseAssembly_Validation(t *testing.T) {
	_, err := semantic.ParseAssembly("bad.yaml", []byte(`
name: ""
namespaces:
  - name: N
    types:
      - {name: T, kind: record}
      - name: U
        kind: class
        members:
          - {name: M, kind: event, type: int}
          - {name: P, kind: property, type: "List<"}
`))
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Issues, 4)
	for _, issue := range verr.Issues {
		assert.Equal(t, types.IssueReference, issue.Type)
		assert.Equal(t, "bad.yaml", issue.File)
	}

	_, err = semantic.ParseAssembly("broken.yaml", []byte("name: [unterminated"))
	assert.True(t, types.IsType(err, types.ConfigError))
}

func TestCoreLibrary(t *testing.T) {
	comp := semantic.NewCompilation("App", nil)
	str := comp.LookupType("System.String")
	require.NotNil(t, str)
	assert.True(t, str.IsReferenceType())
	require.NotNil(t, str.Member("Length"))
	assert.Equal(t, "System.Int32", str.Member("Length").Type.FullName())
	assert.True(t, comp.LookupType("System.Int32").IsValueType())
	// string? annotates a reference type and binds to string itself
	assert.Equal(t, "System.String", comp.LookupType("System.Console").Member("ReadLine").Type.FullName())
}
