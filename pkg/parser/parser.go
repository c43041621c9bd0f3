// Package parser is a recursive descent parser for the subset of C# the
// analyzers inspect: using directives, namespaces, type and member
// declarations, statements and expressions. Anything else is preserved as
// SkippedTokens so that the tree always renders back to the input text.
package parser

import (
	"slices"

	"github.com/mamaar/csrefactor/pkg/syntax"
	"github.com/mamaar/csrefactor/pkg/types"
)

// Parse builds a lossless syntax tree. The only errors are lexical; syntax
// errors are recovered by skipping tokens.
func Parse(path, src string) (*syntax.Tree, error) {
	toks, err := scan(path, src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return syntax.NewTree(path, p.compilationUnit()), nil
}

// MustParse is Parse for tests and embedded sources.
func MustParse(path, src string) *syntax.Tree {
	t, err := Parse(path, src)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseExpression parses a standalone expression, mainly for tests and
// tooling that builds replacement fragments from text.
func ParseExpression(src string) (*syntax.GreenNode, error) {
	toks, err := scan("", src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.expression(), nil
}

// ParseType parses a type reference such as "int?", "List<string>" or
// "System.IO.Stream[]".
func ParseType(src string) (*syntax.GreenNode, error) {
	toks, err := scan("", src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	t, ok := p.tryType(true)
	if !ok || !p.atEOF() {
		return nil, types.NewError(types.ParseError, "invalid type reference %q", src)
	}
	return t, nil
}

type parser struct {
	toks []*syntax.GreenNode
	pos  int
}

func (p *parser) peek(n int) *syntax.GreenNode {
	if i := p.pos + n; i < len(p.toks) {
		return p.toks[i]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) kind(n int) syntax.Kind { return p.peek(n).Kind() }

func (p *parser) at(k syntax.Kind) bool { return p.kind(0) == k }

// atIdent matches contextual keywords, which lex as identifiers.
func (p *parser) atIdent(text string) bool {
	t := p.peek(0)
	return t.Kind() == syntax.IdentifierToken && t.TokenText() == text
}

func (p *parser) atEOF() bool { return p.at(syntax.EndOfFileToken) }

// next consumes the current token. The end-of-file token is never consumed.
func (p *parser) next() *syntax.GreenNode {
	if p.atEOF() {
		return missing(syntax.BadToken)
	}
	t := p.toks[p.pos]
	p.pos++
	return t
}

func (p *parser) expect(k syntax.Kind) *syntax.GreenNode {
	if p.at(k) {
		return p.next()
	}
	return missing(k)
}

func missing(k syntax.Kind) *syntax.GreenNode {
	return syntax.NewToken(k, "", nil)
}

func missingName() *syntax.GreenNode {
	return syntax.NewNode(syntax.IdentifierName, syntax.NewToken(syntax.IdentifierToken, "", ""))
}

func (p *parser) compilationUnit() *syntax.GreenNode {
	var slots []*syntax.GreenNode
	slots = p.usings(slots)
	slots = p.members(slots, syntax.EndOfFileToken)
	slots = append(slots, p.toks[len(p.toks)-1])
	return syntax.NewNode(syntax.CompilationUnit, slots...)
}

func (p *parser) usings(slots []*syntax.GreenNode) []*syntax.GreenNode {
	for p.atUsingDirective() {
		slots = append(slots, p.usingDirective())
	}
	return slots
}

// atUsingDirective matches "using" not opening a using statement, optionally
// preceded by the contextual keyword "global".
func (p *parser) atUsingDirective() bool {
	if p.atIdent("global") && p.kind(1) == syntax.UsingKeyword {
		return true
	}
	return p.at(syntax.UsingKeyword) && p.kind(1) != syntax.OpenParenToken
}

func (p *parser) usingDirective() *syntax.GreenNode {
	var global *syntax.GreenNode
	if p.atIdent("global") {
		global = p.next()
	}
	kw := p.next()
	var static, alias *syntax.GreenNode
	if p.at(syntax.StaticKeyword) {
		static = p.next()
	}
	if p.at(syntax.IdentifierToken) && p.kind(1) == syntax.EqualsToken {
		id := syntax.NewNode(syntax.IdentifierName, p.next())
		alias = syntax.NewNode(syntax.NameEquals, id, p.next())
	}
	name := p.name(alias != nil)
	return syntax.NewNode(syntax.UsingDirective, global, kw, static, alias, name, p.expect(syntax.SemicolonToken))
}

// name parses a possibly qualified name. Generic arguments are only
// recognized where a type is expected.
func (p *parser) name(generic bool) *syntax.GreenNode {
	var left *syntax.GreenNode
	if p.at(syntax.IdentifierToken) && p.kind(1) == syntax.ColonColonToken {
		alias := syntax.NewNode(syntax.IdentifierName, p.next())
		cc := p.next()
		left = syntax.NewNode(syntax.AliasQualifiedName, alias, cc, p.simpleName(generic))
	} else {
		left = p.simpleName(generic)
	}
	for p.at(syntax.DotToken) && p.kind(1) == syntax.IdentifierToken {
		dot := p.next()
		left = syntax.NewNode(syntax.QualifiedName, left, dot, p.simpleName(generic))
	}
	return left
}

func (p *parser) simpleName(generic bool) *syntax.GreenNode {
	id := p.expect(syntax.IdentifierToken)
	if generic && p.at(syntax.LessThanToken) {
		if args, ok := p.tryTypeArguments(); ok {
			return syntax.NewNode(syntax.GenericName, id, args)
		}
	}
	return syntax.NewNode(syntax.IdentifierName, id)
}

func (p *parser) tryTypeArguments() (*syntax.GreenNode, bool) {
	mark := p.pos
	slots := []*syntax.GreenNode{p.next()}
	for {
		t, ok := p.tryType(true)
		if !ok {
			p.pos = mark
			return nil, false
		}
		slots = append(slots, t)
		if !p.at(syntax.CommaToken) {
			break
		}
		slots = append(slots, p.next())
	}
	if !p.at(syntax.GreaterThanToken) {
		p.pos = mark
		return nil, false
	}
	slots = append(slots, p.next())
	return syntax.NewNode(syntax.TypeArgumentList, slots...), true
}

// tryType parses a type without consuming anything on failure.
func (p *parser) tryType(nullable bool) (*syntax.GreenNode, bool) {
	var t *syntax.GreenNode
	switch {
	case syntax.IsPredefinedTypeKeyword(p.kind(0)):
		t = syntax.NewNode(syntax.PredefinedType, p.next())
	case p.at(syntax.IdentifierToken):
		t = p.name(true)
	default:
		return nil, false
	}
	for {
		switch {
		case nullable && p.at(syntax.QuestionToken) && t.Kind() != syntax.NullableType:
			t = syntax.NewNode(syntax.NullableType, t, p.next())
		case p.at(syntax.OpenBracketToken) && p.kind(1) == syntax.CloseBracketToken:
			open := p.next()
			t = syntax.NewNode(syntax.ArrayType, t, open, p.next())
		default:
			return t, true
		}
	}
}

func (p *parser) members(slots []*syntax.GreenNode, terminator syntax.Kind) []*syntax.GreenNode {
	for !p.at(terminator) && !p.atEOF() {
		slots = append(slots, p.member())
	}
	return slots
}

func (p *parser) member() *syntax.GreenNode {
	start := p.pos
	switch {
	case p.at(syntax.NamespaceKeyword):
		return p.namespace()
	case p.at(syntax.UsingKeyword) && p.kind(1) != syntax.OpenParenToken:
		return p.usingDirective()
	}

	var mods []*syntax.GreenNode
	for {
		if p.at(syntax.OpenBracketToken) {
			mods = append(mods, p.balanced(syntax.OpenBracketToken, syntax.CloseBracketToken, syntax.SkippedTokens))
			continue
		}
		if syntax.IsModifier(p.kind(0)) || p.atContextualModifier() {
			mods = append(mods, p.next())
			continue
		}
		break
	}

	switch p.kind(0) {
	case syntax.ClassKeyword:
		return p.typeDeclaration(syntax.ClassDeclaration, mods)
	case syntax.StructKeyword:
		return p.typeDeclaration(syntax.StructDeclaration, mods)
	case syntax.InterfaceKeyword:
		return p.typeDeclaration(syntax.InterfaceDeclaration, mods)
	case syntax.EnumKeyword:
		return p.enumDeclaration(mods)
	}
	if m, ok := p.typeMember(mods); ok {
		return m
	}
	p.pos = start
	return p.skip()
}

var contextualModifiers = []string{"async", "extern", "unsafe", "volatile", "required", "file", "record"}

// atContextualModifier matches modifiers that lex as identifiers. They only
// count as modifiers when another word follows.
func (p *parser) atContextualModifier() bool {
	if !p.at(syntax.IdentifierToken) || !slices.Contains(contextualModifiers, p.peek(0).TokenText()) {
		return false
	}
	next := p.kind(1)
	return next == syntax.IdentifierToken || next.IsKeyword()
}

func (p *parser) namespace() *syntax.GreenNode {
	kw := p.next()
	name := p.name(false)
	if p.at(syntax.SemicolonToken) {
		slots := []*syntax.GreenNode{kw, name, p.next()}
		slots = p.usings(slots)
		slots = p.members(slots, syntax.EndOfFileToken)
		return syntax.NewNode(syntax.FileScopedNamespaceDeclaration, slots...)
	}
	slots := []*syntax.GreenNode{kw, name, p.expect(syntax.OpenBraceToken)}
	slots = p.usings(slots)
	slots = p.members(slots, syntax.CloseBraceToken)
	slots = append(slots, p.expect(syntax.CloseBraceToken))
	if p.at(syntax.SemicolonToken) {
		slots = append(slots, p.next())
	}
	return syntax.NewNode(syntax.NamespaceDeclaration, slots...)
}

// typeDeclaration keeps modifiers, keyword and name as direct children;
// type parameters and base lists are kept as skipped tokens.
func (p *parser) typeDeclaration(kind syntax.Kind, mods []*syntax.GreenNode) *syntax.GreenNode {
	slots := append(slices.Clone(mods), p.next(), p.expect(syntax.IdentifierToken))
	if header := p.skipUntil(syntax.OpenBraceToken, syntax.SemicolonToken, syntax.CloseBraceToken); header != nil {
		slots = append(slots, header)
	}
	if p.at(syntax.OpenBraceToken) {
		slots = append(slots, p.next())
		slots = p.members(slots, syntax.CloseBraceToken)
		slots = append(slots, p.expect(syntax.CloseBraceToken))
	}
	if p.at(syntax.SemicolonToken) {
		slots = append(slots, p.next())
	}
	return syntax.NewNode(kind, slots...)
}

func (p *parser) enumDeclaration(mods []*syntax.GreenNode) *syntax.GreenNode {
	slots := append(slices.Clone(mods), p.next(), p.expect(syntax.IdentifierToken))
	if header := p.skipUntil(syntax.OpenBraceToken, syntax.SemicolonToken, syntax.CloseBraceToken); header != nil {
		slots = append(slots, header)
	}
	slots = append(slots, p.expect(syntax.OpenBraceToken))
	for p.at(syntax.IdentifierToken) || p.at(syntax.OpenBracketToken) {
		var member []*syntax.GreenNode
		if p.at(syntax.OpenBracketToken) {
			member = append(member, p.balanced(syntax.OpenBracketToken, syntax.CloseBracketToken, syntax.SkippedTokens))
		}
		member = append(member, p.expect(syntax.IdentifierToken))
		if p.at(syntax.EqualsToken) {
			member = append(member, p.equalsValue())
		}
		slots = append(slots, syntax.NewNode(syntax.EnumMemberDeclaration, member...))
		if !p.at(syntax.CommaToken) {
			break
		}
		slots = append(slots, p.next())
	}
	if rest := p.skipUntil(syntax.CloseBraceToken); rest != nil {
		slots = append(slots, rest)
	}
	slots = append(slots, p.expect(syntax.CloseBraceToken))
	if p.at(syntax.SemicolonToken) {
		slots = append(slots, p.next())
	}
	return syntax.NewNode(syntax.EnumDeclaration, slots...)
}

func (p *parser) typeMember(mods []*syntax.GreenNode) (*syntax.GreenNode, bool) {
	mark := p.pos
	slots := slices.Clone(mods)

	if p.at(syntax.IdentifierToken) && p.kind(1) == syntax.OpenParenToken {
		slots = append(slots, p.next(), p.parameterList())
		if init := p.skipUntil(syntax.OpenBraceToken, syntax.EqualsGreaterThanToken, syntax.SemicolonToken, syntax.CloseBraceToken); init != nil {
			slots = append(slots, init)
		}
		slots = append(slots, p.body()...)
		return syntax.NewNode(syntax.ConstructorDeclaration, slots...), true
	}

	typ, ok := p.tryType(true)
	if !ok || !p.at(syntax.IdentifierToken) {
		p.pos = mark
		return nil, false
	}
	switch p.kind(1) {
	case syntax.OpenParenToken, syntax.LessThanToken:
		slots = append(slots, typ, p.next())
		if p.at(syntax.LessThanToken) {
			slots = append(slots, p.balanced(syntax.LessThanToken, syntax.GreaterThanToken, syntax.SkippedTokens))
		}
		slots = append(slots, p.parameterList())
		if constraints := p.skipUntil(syntax.OpenBraceToken, syntax.EqualsGreaterThanToken, syntax.SemicolonToken, syntax.CloseBraceToken); constraints != nil {
			slots = append(slots, constraints)
		}
		slots = append(slots, p.body()...)
		return syntax.NewNode(syntax.MethodDeclaration, slots...), true
	case syntax.OpenBraceToken:
		slots = append(slots, typ, p.next(), p.accessorList())
		if p.at(syntax.EqualsToken) {
			slots = append(slots, p.equalsValue(), p.expect(syntax.SemicolonToken))
		}
		return syntax.NewNode(syntax.PropertyDeclaration, slots...), true
	case syntax.EqualsGreaterThanToken:
		slots = append(slots, typ, p.next(), p.arrowClause(), p.expect(syntax.SemicolonToken))
		return syntax.NewNode(syntax.PropertyDeclaration, slots...), true
	case syntax.EqualsToken, syntax.SemicolonToken, syntax.CommaToken:
		slots = append(slots, p.variableDeclaration(typ), p.expect(syntax.SemicolonToken))
		return syntax.NewNode(syntax.FieldDeclaration, slots...), true
	}
	p.pos = mark
	return nil, false
}

// body parses a block, an expression body or a bare semicolon.
func (p *parser) body() []*syntax.GreenNode {
	switch {
	case p.at(syntax.OpenBraceToken):
		return []*syntax.GreenNode{p.block()}
	case p.at(syntax.EqualsGreaterThanToken):
		return []*syntax.GreenNode{p.arrowClause(), p.expect(syntax.SemicolonToken)}
	}
	return []*syntax.GreenNode{p.expect(syntax.SemicolonToken)}
}

func (p *parser) arrowClause() *syntax.GreenNode {
	arrow := p.next()
	return syntax.NewNode(syntax.ArrowExpressionClause, arrow, p.expression())
}

func (p *parser) accessorList() *syntax.GreenNode {
	slots := []*syntax.GreenNode{p.next()}
	for !p.at(syntax.CloseBraceToken) && !p.atEOF() {
		start := p.pos
		var acc []*syntax.GreenNode
		for syntax.IsModifier(p.kind(0)) {
			acc = append(acc, p.next())
		}
		if p.at(syntax.IdentifierToken) {
			acc = append(acc, p.next())
			acc = append(acc, p.body()...)
		}
		if p.pos == start {
			acc = append(acc, p.next())
		}
		slots = append(slots, syntax.NewNode(syntax.SkippedTokens, acc...))
	}
	slots = append(slots, p.expect(syntax.CloseBraceToken))
	return syntax.NewNode(syntax.AccessorList, slots...)
}

var parameterModifiers = []string{"ref", "out", "in", "params", "scoped"}

func (p *parser) parameterList() *syntax.GreenNode {
	slots := []*syntax.GreenNode{p.expect(syntax.OpenParenToken)}
	for !p.at(syntax.CloseParenToken) && !p.atEOF() {
		start := p.pos
		slots = append(slots, p.parameter())
		if p.at(syntax.CommaToken) {
			slots = append(slots, p.next())
			continue
		}
		if p.pos == start {
			break
		}
		if !p.at(syntax.CloseParenToken) {
			break
		}
	}
	if rest := p.skipUntil(syntax.CloseParenToken, syntax.OpenBraceToken, syntax.SemicolonToken); rest != nil {
		slots = append(slots, rest)
	}
	slots = append(slots, p.expect(syntax.CloseParenToken))
	return syntax.NewNode(syntax.ParameterList, slots...)
}

func (p *parser) parameter() *syntax.GreenNode {
	var slots []*syntax.GreenNode
	for {
		if p.at(syntax.OpenBracketToken) {
			slots = append(slots, p.balanced(syntax.OpenBracketToken, syntax.CloseBracketToken, syntax.SkippedTokens))
			continue
		}
		if p.at(syntax.ThisKeyword) || p.at(syntax.IdentifierToken) && slices.Contains(parameterModifiers, p.peek(0).TokenText()) && p.kind(1) != syntax.CommaToken && p.kind(1) != syntax.CloseParenToken {
			slots = append(slots, p.next())
			continue
		}
		break
	}
	typ, ok := p.tryType(true)
	if !ok {
		typ = missingName()
	}
	slots = append(slots, typ, p.expect(syntax.IdentifierToken))
	if p.at(syntax.EqualsToken) {
		slots = append(slots, p.equalsValue())
	}
	return syntax.NewNode(syntax.Parameter, slots...)
}

func (p *parser) variableDeclaration(typ *syntax.GreenNode) *syntax.GreenNode {
	slots := []*syntax.GreenNode{typ, p.declarator()}
	for p.at(syntax.CommaToken) {
		slots = append(slots, p.next(), p.declarator())
	}
	return syntax.NewNode(syntax.VariableDeclaration, slots...)
}

func (p *parser) declarator() *syntax.GreenNode {
	id := p.expect(syntax.IdentifierToken)
	if p.at(syntax.EqualsToken) {
		return syntax.NewNode(syntax.VariableDeclarator, id, p.equalsValue())
	}
	return syntax.NewNode(syntax.VariableDeclarator, id)
}

func (p *parser) equalsValue() *syntax.GreenNode {
	eq := p.next()
	return syntax.NewNode(syntax.EqualsValueClause, eq, p.expression())
}

// balanced consumes a bracketed token run, including nested pairs.
func (p *parser) balanced(open, close, kind syntax.Kind) *syntax.GreenNode {
	slots := []*syntax.GreenNode{p.next()}
	depth := 1
	for !p.atEOF() {
		switch p.kind(0) {
		case open:
			depth++
		case close:
			depth--
		}
		slots = append(slots, p.next())
		if depth == 0 {
			break
		}
	}
	return syntax.NewNode(kind, slots...)
}

// skipUntil collects tokens up to one of stops, keeping braces balanced.
// It returns nil when nothing was skipped.
func (p *parser) skipUntil(stops ...syntax.Kind) *syntax.GreenNode {
	var slots []*syntax.GreenNode
	for !p.atEOF() && !slices.Contains(stops, p.kind(0)) {
		switch p.kind(0) {
		case syntax.OpenParenToken:
			slots = append(slots, p.balanced(syntax.OpenParenToken, syntax.CloseParenToken, syntax.SkippedTokens))
		case syntax.OpenBraceToken:
			slots = append(slots, p.balanced(syntax.OpenBraceToken, syntax.CloseBraceToken, syntax.SkippedTokens))
		default:
			slots = append(slots, p.next())
		}
	}
	if len(slots) == 0 {
		return nil
	}
	return syntax.NewNode(syntax.SkippedTokens, slots...)
}

// skip recovers from an unparseable member or statement. It consumes at
// least one token unless at end of file.
func (p *parser) skip() *syntax.GreenNode {
	var slots []*syntax.GreenNode
	for !p.atEOF() {
		switch p.kind(0) {
		case syntax.SemicolonToken:
			slots = append(slots, p.next())
			return syntax.NewNode(syntax.SkippedTokens, slots...)
		case syntax.OpenBraceToken:
			slots = append(slots, p.balanced(syntax.OpenBraceToken, syntax.CloseBraceToken, syntax.SkippedTokens))
			return syntax.NewNode(syntax.SkippedTokens, slots...)
		case syntax.CloseBraceToken:
			if len(slots) == 0 {
				slots = append(slots, p.next())
			}
			return syntax.NewNode(syntax.SkippedTokens, slots...)
		}
		slots = append(slots, p.next())
	}
	return syntax.NewNode(syntax.SkippedTokens, slots...)
}
