package parser

import (
	"github.com/mamaar/csrefactor/pkg/syntax"
)

func (p *parser) expression() *syntax.GreenNode {
	if lambda, ok := p.tryLambda(); ok {
		return lambda
	}
	left := p.conditional()
	switch p.kind(0) {
	case syntax.EqualsToken, syntax.PlusEqualsToken, syntax.MinusEqualsToken, syntax.QuestionQuestionEqualsToken:
		op := p.next()
		return syntax.NewNode(syntax.SimpleAssignmentExpression, left, op, p.expression())
	}
	return left
}

func (p *parser) tryLambda() (*syntax.GreenNode, bool) {
	switch {
	case p.at(syntax.IdentifierToken) && p.kind(1) == syntax.EqualsGreaterThanToken:
		param := syntax.NewNode(syntax.Parameter, p.next())
		arrow := p.next()
		return syntax.NewNode(syntax.LambdaExpression, param, arrow, p.lambdaBody()), true
	case p.at(syntax.OpenParenToken) && p.closingParenFollowedBy(syntax.EqualsGreaterThanToken):
		params := p.balanced(syntax.OpenParenToken, syntax.CloseParenToken, syntax.SkippedTokens)
		arrow := p.next()
		return syntax.NewNode(syntax.LambdaExpression, params, arrow, p.lambdaBody()), true
	}
	return nil, false
}

func (p *parser) lambdaBody() *syntax.GreenNode {
	if p.at(syntax.OpenBraceToken) {
		return p.block()
	}
	return p.expression()
}

// closingParenFollowedBy looks past the balanced group at the current
// position without consuming it.
func (p *parser) closingParenFollowedBy(k syntax.Kind) bool {
	depth := 0
	for i := 0; ; i++ {
		switch p.kind(i) {
		case syntax.OpenParenToken:
			depth++
		case syntax.CloseParenToken:
			depth--
			if depth == 0 {
				return p.kind(i+1) == k
			}
		case syntax.EndOfFileToken, syntax.SemicolonToken, syntax.OpenBraceToken, syntax.CloseBraceToken:
			return false
		}
	}
}

func (p *parser) conditional() *syntax.GreenNode {
	cond := p.binary(syntax.PrecedenceCoalesce)
	if !p.at(syntax.QuestionToken) {
		return cond
	}
	q := p.next()
	whenTrue := p.expression()
	colon := p.expect(syntax.ColonToken)
	var whenFalse *syntax.GreenNode
	if lambda, ok := p.tryLambda(); ok {
		whenFalse = lambda
	} else {
		whenFalse = p.conditional()
	}
	return syntax.NewNode(syntax.ConditionalExpression, cond, q, whenTrue, colon, whenFalse)
}

// binary is precedence climbing over the binary operator table.
func (p *parser) binary(minPrec int) *syntax.GreenNode {
	left := p.unary()
	for {
		var kind syntax.Kind
		switch {
		case p.atIdent("is"):
			kind = syntax.IsExpression
		case p.atIdent("as"):
			kind = syntax.AsExpression
		default:
			k, ok := syntax.BinaryExpressionKind(p.kind(0))
			if !ok || k == syntax.SimpleAssignmentExpression {
				return left
			}
			kind = k
		}
		prec := syntax.Precedence(kind)
		if prec < minPrec {
			return left
		}
		op := p.next()
		if kind == syntax.IsExpression || kind == syntax.AsExpression {
			left = syntax.NewNode(kind, left, op, p.pattern())
			continue
		}
		nextMin := prec + 1
		if syntax.IsRightAssociative(kind) {
			nextMin = prec
		}
		left = syntax.NewNode(kind, left, op, p.binary(nextMin))
	}
}

// pattern covers the right side of is/as: a type with an optional
// designation, a constant, or a negated pattern.
func (p *parser) pattern() *syntax.GreenNode {
	if p.atIdent("not") {
		not := p.next()
		return syntax.NewNode(syntax.SkippedTokens, not, p.pattern())
	}
	switch p.kind(0) {
	case syntax.NullKeyword, syntax.TrueKeyword, syntax.FalseKeyword,
		syntax.NumericLiteralToken, syntax.StringLiteralToken, syntax.CharacterLiteralToken, syntax.MinusToken:
		return p.unary()
	}
	if t, ok := p.tryType(false); ok {
		if p.at(syntax.IdentifierToken) && !p.atIdent("and") && !p.atIdent("or") && !p.atIdent("when") {
			return syntax.NewNode(syntax.SkippedTokens, t, p.next())
		}
		return t
	}
	return p.unary()
}

func (p *parser) unary() *syntax.GreenNode {
	switch k := p.kind(0); k {
	case syntax.ExclamationToken, syntax.MinusToken, syntax.PlusToken, syntax.TildeToken:
		kind, _ := syntax.PrefixExpressionKind(k)
		op := p.next()
		return syntax.NewNode(kind, op, p.unary())
	case syntax.PlusPlusToken, syntax.MinusMinusToken:
		op := p.next()
		return syntax.NewNode(syntax.SkippedTokens, op, p.unary())
	case syntax.OpenParenToken:
		if cast, ok := p.tryCast(); ok {
			return cast
		}
	}
	if p.atIdent("await") && startsExpression(p.kind(1)) {
		kw := p.next()
		return syntax.NewNode(syntax.SkippedTokens, kw, p.unary())
	}
	return p.postfix(p.primary())
}

func startsExpression(k syntax.Kind) bool {
	switch k {
	case syntax.IdentifierToken, syntax.NumericLiteralToken, syntax.StringLiteralToken,
		syntax.CharacterLiteralToken, syntax.TrueKeyword, syntax.FalseKeyword, syntax.NullKeyword,
		syntax.ThisKeyword, syntax.NewKeyword, syntax.OpenParenToken:
		return true
	}
	return syntax.IsPredefinedTypeKeyword(k)
}

// tryCast recognizes (Type)operand. A parenthesized name is only a cast
// when followed by something that can start an operand and is not a binary
// operator.
func (p *parser) tryCast() (*syntax.GreenNode, bool) {
	mark := p.pos
	open := p.next()
	t, ok := p.tryType(true)
	if ok && p.at(syntax.CloseParenToken) {
		close := p.next()
		if p.castFollows(t) {
			return syntax.NewNode(syntax.CastExpression, open, t, close, p.unary()), true
		}
	}
	p.pos = mark
	return nil, false
}

func (p *parser) castFollows(t *syntax.GreenNode) bool {
	next := p.kind(0)
	if next == syntax.IdentifierToken && (p.atIdent("is") || p.atIdent("as")) {
		return false
	}
	if startsExpression(next) {
		return true
	}
	switch t.Kind() {
	case syntax.PredefinedType, syntax.NullableType, syntax.ArrayType, syntax.GenericName:
		switch next {
		case syntax.ExclamationToken, syntax.TildeToken, syntax.MinusToken, syntax.PlusToken:
			return true
		}
	}
	return false
}

func (p *parser) primary() *syntax.GreenNode {
	switch k := p.kind(0); {
	case k == syntax.NumericLiteralToken:
		return syntax.NewNode(syntax.NumericLiteralExpression, p.next())
	case k == syntax.StringLiteralToken:
		return syntax.NewNode(syntax.StringLiteralExpression, p.next())
	case k == syntax.CharacterLiteralToken:
		return syntax.NewNode(syntax.CharacterLiteralExpression, p.next())
	case k == syntax.TrueKeyword:
		return syntax.NewNode(syntax.TrueLiteralExpression, p.next())
	case k == syntax.FalseKeyword:
		return syntax.NewNode(syntax.FalseLiteralExpression, p.next())
	case k == syntax.NullKeyword:
		return syntax.NewNode(syntax.NullLiteralExpression, p.next())
	case k == syntax.IdentifierToken:
		return syntax.NewNode(syntax.IdentifierName, p.next())
	case k == syntax.ThisKeyword:
		return syntax.NewNode(syntax.ThisExpression, p.next())
	case syntax.IsPredefinedTypeKeyword(k):
		return syntax.NewNode(syntax.PredefinedType, p.next())
	case k == syntax.OpenParenToken:
		open := p.next()
		inner := p.expression()
		return syntax.NewNode(syntax.ParenthesizedExpression, open, inner, p.expect(syntax.CloseParenToken))
	case k == syntax.NewKeyword:
		return p.objectCreation()
	case k == syntax.OpenBracketToken:
		return p.balanced(syntax.OpenBracketToken, syntax.CloseBracketToken, syntax.SkippedTokens)
	case k == syntax.OpenBraceToken:
		return p.balanced(syntax.OpenBraceToken, syntax.CloseBraceToken, syntax.SkippedTokens)
	}
	return missingName()
}

func (p *parser) objectCreation() *syntax.GreenNode {
	kw := p.next()
	if p.at(syntax.OpenBracketToken) {
		// new[] { ... }
		rank := p.balanced(syntax.OpenBracketToken, syntax.CloseBracketToken, syntax.SkippedTokens)
		var init *syntax.GreenNode
		if p.at(syntax.OpenBraceToken) {
			init = p.balanced(syntax.OpenBraceToken, syntax.CloseBraceToken, syntax.SkippedTokens)
		}
		return syntax.NewNode(syntax.ObjectCreationExpression, kw, rank, nil, init)
	}
	if p.at(syntax.OpenBraceToken) {
		init := p.balanced(syntax.OpenBraceToken, syntax.CloseBraceToken, syntax.SkippedTokens)
		return syntax.NewNode(syntax.ObjectCreationExpression, kw, nil, nil, init)
	}
	var typ, args, init *syntax.GreenNode
	if t, ok := p.tryType(true); ok {
		typ = t
	} else if !p.at(syntax.OpenParenToken) {
		typ = missingName()
	}
	if p.at(syntax.OpenParenToken) {
		args = p.argumentList(syntax.OpenParenToken, syntax.CloseParenToken, syntax.ArgumentList)
	}
	if p.at(syntax.OpenBraceToken) {
		init = p.balanced(syntax.OpenBraceToken, syntax.CloseBraceToken, syntax.SkippedTokens)
	}
	return syntax.NewNode(syntax.ObjectCreationExpression, kw, typ, args, init)
}

func (p *parser) postfix(e *syntax.GreenNode) *syntax.GreenNode {
	for {
		switch p.kind(0) {
		case syntax.DotToken:
			dot := p.next()
			name := missingName()
			if p.at(syntax.IdentifierToken) {
				name = syntax.NewNode(syntax.IdentifierName, p.next())
			}
			e = syntax.NewNode(syntax.MemberAccessExpression, e, dot, name)
		case syntax.OpenParenToken:
			e = syntax.NewNode(syntax.InvocationExpression, e, p.argumentList(syntax.OpenParenToken, syntax.CloseParenToken, syntax.ArgumentList))
		case syntax.OpenBracketToken:
			e = syntax.NewNode(syntax.ElementAccessExpression, e, p.argumentList(syntax.OpenBracketToken, syntax.CloseBracketToken, syntax.BracketedArgumentList))
		case syntax.PlusPlusToken, syntax.MinusMinusToken:
			e = syntax.NewNode(syntax.PostfixUnaryExpression, e, p.next())
		case syntax.ExclamationToken:
			switch p.kind(1) {
			case syntax.DotToken, syntax.CloseParenToken, syntax.SemicolonToken, syntax.CommaToken,
				syntax.OpenBracketToken, syntax.CloseBracketToken, syntax.QuestionToken, syntax.QuestionQuestionToken:
				e = syntax.NewNode(syntax.PostfixUnaryExpression, e, p.next())
			default:
				return e
			}
		case syntax.QuestionToken:
			if k := p.kind(1); k != syntax.DotToken && k != syntax.OpenBracketToken {
				return e
			}
			e = syntax.NewNode(syntax.SkippedTokens, e, p.next())
		default:
			return e
		}
	}
}

func (p *parser) argumentList(open, close, kind syntax.Kind) *syntax.GreenNode {
	slots := []*syntax.GreenNode{p.next()}
	for !p.at(close) && !p.atEOF() {
		start := p.pos
		slots = append(slots, p.argument())
		if p.at(syntax.CommaToken) {
			slots = append(slots, p.next())
			continue
		}
		if p.pos == start || !p.at(close) {
			break
		}
	}
	if rest := p.skipUntil(close, syntax.SemicolonToken, syntax.CloseBraceToken); rest != nil {
		slots = append(slots, rest)
	}
	slots = append(slots, p.expect(close))
	return syntax.NewNode(kind, slots...)
}

// argument keeps named-argument labels and ref/out/in markers as leading
// skipped tokens; the expression is always the last slot.
func (p *parser) argument() *syntax.GreenNode {
	var slots []*syntax.GreenNode
	if p.at(syntax.IdentifierToken) && p.kind(1) == syntax.ColonToken {
		name := p.next()
		slots = append(slots, syntax.NewNode(syntax.SkippedTokens, name, p.next()))
	}
	if p.atIdent("out") || p.atIdent("ref") || p.atIdent("in") {
		marker := p.next()
		if p.at(syntax.IdentifierToken) && p.kind(1) == syntax.IdentifierToken {
			typ := p.next()
			slots = append(slots, syntax.NewNode(syntax.SkippedTokens, marker, typ))
			return syntax.NewNode(syntax.Argument, append(slots, syntax.NewNode(syntax.IdentifierName, p.next()))...)
		}
		slots = append(slots, syntax.NewNode(syntax.SkippedTokens, marker))
	}
	return syntax.NewNode(syntax.Argument, append(slots, p.expression())...)
}
