package syntax_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamaar/csrefactor/pkg/parser"
	"github.com/mamaar/csrefactor/pkg/syntax"
	"github.com/mamaar/csrefactor/pkg/types"
)

const sample = `// header comment
using System.Text;
using System;

namespace Demo
{
    class C
    {
        string M(string a) => a != null ? a : "x"; // trailing
    }
}
`

func firstOfKind(t *testing.T, tree *syntax.Tree, k syntax.Kind) *syntax.Node {
	t.Helper()
	for n := range tree.DescendantNodes() {
		if n.Kind() == k {
			return n
		}
	}
	t.Fatalf("no %s node in tree", k)
	return nil
}

func spanOf(t *testing.T, src, sub string) syntax.Span {
	t.Helper()
	i := strings.Index(src, sub)
	require.GreaterOrEqual(t, i, 0, "%q not found", sub)
	return syntax.Span{Start: i, End: i + len(sub)}
}

func TestTree_TextRoundTrip(t *testing.T) {
	tree := parser.MustParse("a.cs", sample)
	assert.Equal(t, sample, tree.Text())
	assert.Equal(t, len(sample), tree.Root().FullSpan().End)
}

func TestTree_FindNode(t *testing.T) {
	tree := parser.MustParse("a.cs", sample)

	n := tree.FindNode(spanOf(t, sample, `a != null ? a : "x"`))
	require.NotNil(t, n)
	assert.Equal(t, syntax.ConditionalExpression, n.Kind())

	n = tree.FindNode(spanOf(t, sample, "System.Text"))
	require.NotNil(t, n)
	assert.Equal(t, syntax.QualifiedName, n.Kind())

	pos := strings.Index(sample, "using System;")
	n = tree.FindNode(syntax.Span{Start: pos, End: pos})
	require.NotNil(t, n)
	assert.Equal(t, syntax.UsingDirective, n.Kind())
	assert.Equal(t, "using System;", n.Text())

	assert.Nil(t, tree.FindNode(syntax.Span{Start: 0, End: len(sample) + 5}))
}

func TestNode_SpansAndTrivia(t *testing.T) {
	tree := parser.MustParse("a.cs", sample)
	first := firstOfKind(t, tree, syntax.UsingDirective)

	assert.Equal(t, "using System.Text;", first.Text())
	assert.Equal(t, "// header comment\nusing System.Text;\n", first.FullText())
	assert.Equal(t, spanOf(t, sample, "using System.Text;"), first.Span())
	require.Len(t, first.LeadingTrivia(), 2)
	assert.Equal(t, syntax.SingleLineCommentTrivia, first.LeadingTrivia()[0].Kind)
	assert.Equal(t, syntax.EndOfLineTrivia, first.TrailingTrivia()[0].Kind)
}

func TestNode_Navigation(t *testing.T) {
	tree := parser.MustParse("a.cs", sample)
	cond := firstOfKind(t, tree, syntax.ConditionalExpression)

	method := cond.FirstAncestorOrSelf(syntax.MethodDeclaration)
	require.NotNil(t, method)
	assert.Equal(t, syntax.ClassDeclaration, method.Parent().Kind())

	var kinds []syntax.Kind
	for a := range cond.Ancestors() {
		kinds = append(kinds, a.Kind())
	}
	assert.Equal(t, syntax.CompilationUnit, kinds[len(kinds)-1])

	var tokens []string
	for tok := range cond.DescendantTokens() {
		tokens = append(tokens, tok.TokenText())
	}
	assert.Equal(t, []string{"a", "!=", "null", "?", "a", ":", `"x"`}, tokens)
	assert.Equal(t, cond, cond.Slot(0).Parent())
	assert.Equal(t, 2, cond.Slot(2).Index())
}

func TestDescendantNodes_Restartable(t *testing.T) {
	tree := parser.MustParse("a.cs", sample)
	count := func() int {
		n := 0
		for range tree.DescendantNodes() {
			n++
		}
		return n
	}
	first := count()
	assert.Positive(t, first)
	assert.Equal(t, first, count())

	for n := range tree.DescendantNodes() {
		assert.False(t, n.IsToken())
		assert.NotEqual(t, syntax.CompilationUnit, n.Kind())
	}
}

func TestReplaceNode_SharesUnrelatedPayloads(t *testing.T) {
	tree := parser.MustParse("a.cs", sample)
	cond := firstOfKind(t, tree, syntax.ConditionalExpression)
	ns := firstOfKind(t, tree, syntax.NamespaceDeclaration)
	firstUsing := tree.Root().Slot(0)

	replacement := syntax.NewBinary(syntax.CoalesceExpression, cond.Slot(0).Slot(0).Green(), cond.Slot(4).Green()).
		WithTriviaFrom(cond.Green())
	next, err := tree.ReplaceNode(cond, replacement)
	require.NoError(t, err)

	want := strings.Replace(sample, `a != null ? a : "x"`, `a ?? "x"`, 1)
	assert.Equal(t, want, next.Text())
	assert.Equal(t, sample, tree.Text(), "original tree must be unchanged")
	assert.Same(t, firstUsing.Green(), next.Root().Slot(0).Green())
	assert.NotSame(t, ns.Green(), next.Root().Slot(2).Green())

	reparsed := parser.MustParse("a.cs", next.Text())
	assert.Equal(t, next.Text(), reparsed.Text())
}

func TestReplaceNode_ForeignNode(t *testing.T) {
	a := parser.MustParse("a.cs", sample)
	b := parser.MustParse("b.cs", sample)
	_, err := a.ReplaceNode(firstOfKind(t, b, syntax.UsingDirective), syntax.NewIdentifierName("x"))
	require.Error(t, err)
	assert.True(t, types.IsType(err, types.InvalidOperation))
}

func TestReplaceNode_RepeatedEditsRoundTrip(t *testing.T) {
	src := "class C { bool M(bool a, bool b) { return a ? true : b; } bool N(bool c) { return c ? b : false; } }"
	tree := parser.MustParse("a.cs", src)
	for range 2 {
		cond := firstOfKind(t, tree, syntax.ConditionalExpression)
		v := syntax.As(cond).(syntax.ConditionalExpressionSyntax)
		var replacement *syntax.GreenNode
		if _, ok := syntax.BoolLiteral(v.WhenTrue()); ok {
			replacement = syntax.NewBinary(syntax.LogicalOrExpression, v.Condition().Green(), v.WhenFalse().Green())
		} else {
			replacement = syntax.NewBinary(syntax.LogicalAndExpression, v.Condition().Green(), v.WhenTrue().Green())
		}
		var err error
		tree, err = tree.ReplaceNode(cond, replacement.WithTriviaFrom(cond.Green()))
		require.NoError(t, err)
		assert.Equal(t, tree.Text(), parser.MustParse("a.cs", tree.Text()).Text())
	}
	assert.Equal(t, "class C { bool M(bool a, bool b) { return a || b; } bool N(bool c) { return c && b; } }", tree.Text())
}

func TestTrack_ResolveAcrossRewrites(t *testing.T) {
	src := "using B;\nusing A;\nusing C;\n"
	tree := parser.MustParse("a.cs", src)
	usings := tree.Root().ChildNodes()[:3]

	tracked, tracking, err := syntax.Track(tree, usings...)
	require.NoError(t, err)
	assert.Equal(t, 3, tracking.Len())
	assert.Equal(t, src, tracked.Text())

	// Copy the second payload, annotation included, over the first slot.
	first, err := tracking.Resolve(tracked, usings[0])
	require.NoError(t, err)
	second, err := tracking.Resolve(tracked, usings[1])
	require.NoError(t, err)
	current, err := tracked.ReplaceNode(first, second.Green().WithTriviaFrom(first.Green()))
	require.NoError(t, err)

	// usings[1]'s annotation now lives on both slots.
	_, err = tracking.Resolve(current, usings[1])
	require.Error(t, err)
	assert.True(t, types.IsType(err, types.StaleTrackedNode))

	// usings[0] has been replaced away.
	_, err = tracking.Resolve(current, usings[0])
	assert.ErrorIs(t, err, types.ErrStaleTrackedNode)

	third, err := tracking.Resolve(current, usings[2])
	require.NoError(t, err)
	assert.Equal(t, "using C;", third.Text())

	assert.Equal(t, "using A;\nusing A;\nusing C;\n", syntax.Untracked(current).Text())
	assert.Empty(t, syntax.Untracked(current).Root().Slot(2).Green().Annotations())
}

func TestTrack_UntrackedNode(t *testing.T) {
	tree := parser.MustParse("a.cs", "using A;\nusing B;\n")
	tracked, tracking, err := syntax.Track(tree, tree.Root().Slot(0))
	require.NoError(t, err)

	_, err = tracking.Resolve(tracked, tree.Root().Slot(1))
	assert.True(t, types.IsType(err, types.StaleTrackedNode))
}

func TestWalk_Cancellation(t *testing.T) {
	tree := parser.MustParse("a.cs", sample)

	visited := 0
	err := syntax.Walk(context.Background(), tree.Root(), func(*syntax.Node) bool {
		visited++
		return true
	})
	require.NoError(t, err)
	assert.Positive(t, visited)

	ctx, cancel := context.WithCancel(context.Background())
	seen := 0
	err = syntax.Walk(ctx, tree.Root(), func(*syntax.Node) bool {
		seen++
		if seen == 3 {
			cancel()
		}
		return true
	})
	require.Error(t, err)
	assert.True(t, types.IsType(err, types.Cancelled))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, seen)
}

func TestInspector_Preorder(t *testing.T) {
	tree := parser.MustParse("a.cs", sample)
	in := syntax.NewInspector(tree)

	var got []string
	err := in.Preorder(context.Background(), []syntax.Kind{syntax.UsingDirective}, func(n *syntax.Node) {
		got = append(got, n.Text())
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"using System.Text;", "using System;"}, got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = in.Preorder(ctx, nil, func(*syntax.Node) {})
	assert.True(t, types.IsType(err, types.Cancelled))
}
