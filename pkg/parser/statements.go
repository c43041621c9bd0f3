package parser

import (
	"slices"

	"github.com/mamaar/csrefactor/pkg/syntax"
)

func (p *parser) block() *syntax.GreenNode {
	slots := []*syntax.GreenNode{p.next()}
	for !p.at(syntax.CloseBraceToken) && !p.atEOF() {
		slots = append(slots, p.statement())
	}
	slots = append(slots, p.expect(syntax.CloseBraceToken))
	return syntax.NewNode(syntax.Block, slots...)
}

// Statement keywords the parser does not model. Their headers are kept as
// skipped tokens while their bodies are parsed as statements.
var otherStatements = []string{
	"while", "for", "foreach", "do", "switch", "try", "lock", "fixed",
	"throw", "yield", "break", "continue", "goto", "checked", "unchecked", "unsafe",
}

// statement consumes at least one token unless at a closing brace or end
// of file.
func (p *parser) statement() *syntax.GreenNode {
	start := p.pos
	switch {
	case p.at(syntax.OpenBraceToken):
		return p.block()
	case p.at(syntax.ReturnKeyword):
		kw := p.next()
		var value *syntax.GreenNode
		if !p.at(syntax.SemicolonToken) {
			value = p.expression()
		}
		return syntax.NewNode(syntax.ReturnStatement, kw, value, p.expect(syntax.SemicolonToken))
	case p.at(syntax.IfKeyword):
		return p.ifStatement()
	case p.at(syntax.SemicolonToken), p.at(syntax.ElseKeyword):
		return syntax.NewNode(syntax.SkippedTokens, p.next())
	case p.at(syntax.UsingKeyword):
		kw := p.next()
		if p.at(syntax.OpenParenToken) {
			return syntax.NewNode(syntax.SkippedTokens, kw, p.parenthesized(), p.embeddedStatement())
		}
		return syntax.NewNode(syntax.SkippedTokens, kw, p.embeddedStatement())
	case p.at(syntax.IdentifierToken) && slices.Contains(otherStatements, p.peek(0).TokenText()) && p.kind(1) != syntax.DotToken && p.kind(1) != syntax.EqualsToken:
		return p.otherStatement()
	}

	if decl, ok := p.tryLocalDeclaration(); ok {
		return decl
	}
	e := p.expression()
	if p.pos == start {
		return p.skip()
	}
	return syntax.NewNode(syntax.ExpressionStatement, e, p.expect(syntax.SemicolonToken))
}

// embeddedStatement is the body of if/else/loops.
func (p *parser) embeddedStatement() *syntax.GreenNode {
	if p.at(syntax.CloseBraceToken) || p.atEOF() {
		return syntax.NewNode(syntax.ExpressionStatement, missingName(), missing(syntax.SemicolonToken))
	}
	return p.statement()
}

func (p *parser) ifStatement() *syntax.GreenNode {
	kw := p.next()
	open := p.expect(syntax.OpenParenToken)
	cond := p.expression()
	close := p.expect(syntax.CloseParenToken)
	then := p.embeddedStatement()
	var elseClause *syntax.GreenNode
	if p.at(syntax.ElseKeyword) {
		elseKw := p.next()
		elseClause = syntax.NewNode(syntax.ElseClause, elseKw, p.embeddedStatement())
	}
	return syntax.NewNode(syntax.IfStatement, kw, open, cond, close, then, elseClause)
}

// parenthesized parses ( expression ) as a skipped group around a real
// expression node, so conditions of unmodelled statements stay analyzable.
func (p *parser) parenthesized() *syntax.GreenNode {
	open := p.next()
	var slots []*syntax.GreenNode
	slots = append(slots, open)
	if !p.at(syntax.CloseParenToken) {
		if decl, ok := p.tryDeclarationExpression(); ok {
			slots = append(slots, decl)
		} else {
			slots = append(slots, p.expression())
		}
	}
	if rest := p.skipUntil(syntax.CloseParenToken, syntax.OpenBraceToken, syntax.SemicolonToken); rest != nil {
		slots = append(slots, rest)
	}
	slots = append(slots, p.expect(syntax.CloseParenToken))
	return syntax.NewNode(syntax.SkippedTokens, slots...)
}

func (p *parser) otherStatement() *syntax.GreenNode {
	kw := p.next()
	slots := []*syntax.GreenNode{kw}
	switch kw.TokenText() {
	case "throw", "yield", "goto", "break", "continue":
		if p.at(syntax.ReturnKeyword) || p.atIdent("break") {
			slots = append(slots, p.next())
		}
		if !p.at(syntax.SemicolonToken) && !p.at(syntax.CloseBraceToken) && !p.atEOF() {
			slots = append(slots, p.expression())
		}
		slots = append(slots, p.expect(syntax.SemicolonToken))
	case "do":
		slots = append(slots, p.embeddedStatement())
		if p.atIdent("while") {
			slots = append(slots, p.next())
			if p.at(syntax.OpenParenToken) {
				slots = append(slots, p.parenthesized())
			}
		}
		slots = append(slots, p.expect(syntax.SemicolonToken))
	case "try":
		slots = append(slots, p.embeddedStatement())
		for p.atIdent("catch") || p.atIdent("finally") {
			slots = append(slots, p.next())
			if p.at(syntax.OpenParenToken) {
				slots = append(slots, p.balanced(syntax.OpenParenToken, syntax.CloseParenToken, syntax.SkippedTokens))
			}
			if p.atIdent("when") {
				slots = append(slots, p.next())
				if p.at(syntax.OpenParenToken) {
					slots = append(slots, p.parenthesized())
				}
			}
			if p.at(syntax.OpenBraceToken) {
				slots = append(slots, p.block())
			}
		}
	case "switch":
		if p.at(syntax.OpenParenToken) {
			slots = append(slots, p.parenthesized())
		}
		if p.at(syntax.OpenBraceToken) {
			slots = append(slots, p.switchBody())
		}
	case "for", "foreach", "fixed":
		if p.at(syntax.OpenParenToken) {
			slots = append(slots, p.balanced(syntax.OpenParenToken, syntax.CloseParenToken, syntax.SkippedTokens))
		}
		slots = append(slots, p.embeddedStatement())
	case "checked", "unchecked", "unsafe":
		if p.at(syntax.OpenBraceToken) {
			slots = append(slots, p.block())
		}
	default:
		if p.at(syntax.OpenParenToken) {
			slots = append(slots, p.parenthesized())
		}
		slots = append(slots, p.embeddedStatement())
	}
	return syntax.NewNode(syntax.SkippedTokens, slots...)
}

func (p *parser) switchBody() *syntax.GreenNode {
	slots := []*syntax.GreenNode{p.next()}
	for !p.at(syntax.CloseBraceToken) && !p.atEOF() {
		switch {
		case p.atIdent("case"):
			label := []*syntax.GreenNode{p.next(), p.pattern()}
			if p.atIdent("when") {
				label = append(label, p.next(), p.expression())
			}
			label = append(label, p.expect(syntax.ColonToken))
			slots = append(slots, syntax.NewNode(syntax.SkippedTokens, label...))
		case p.atIdent("default") && p.kind(1) == syntax.ColonToken:
			def := p.next()
			slots = append(slots, syntax.NewNode(syntax.SkippedTokens, def, p.next()))
		default:
			slots = append(slots, p.statement())
		}
	}
	slots = append(slots, p.expect(syntax.CloseBraceToken))
	return syntax.NewNode(syntax.SkippedTokens, slots...)
}

// tryLocalDeclaration recognizes "Type name =", "Type name;" and
// "Type name," and restores the position otherwise.
func (p *parser) tryLocalDeclaration() (*syntax.GreenNode, bool) {
	mark := p.pos
	var slots []*syntax.GreenNode
	if p.at(syntax.ConstKeyword) {
		slots = append(slots, p.next())
	}
	typ, ok := p.tryType(true)
	if ok && p.at(syntax.IdentifierToken) {
		switch p.kind(1) {
		case syntax.EqualsToken, syntax.SemicolonToken, syntax.CommaToken:
			slots = append(slots, p.variableDeclaration(typ), p.expect(syntax.SemicolonToken))
			return syntax.NewNode(syntax.LocalDeclarationStatement, slots...), true
		}
	}
	p.pos = mark
	return nil, false
}

// tryDeclarationExpression handles "var x = expr" inside using and similar
// headers.
func (p *parser) tryDeclarationExpression() (*syntax.GreenNode, bool) {
	mark := p.pos
	typ, ok := p.tryType(true)
	if ok && p.at(syntax.IdentifierToken) && p.kind(1) == syntax.EqualsToken {
		return p.variableDeclaration(typ), true
	}
	p.pos = mark
	return nil, false
}
