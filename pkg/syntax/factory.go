package syntax

// Space is a single blank.
var Space = Trivia{Kind: WhitespaceTrivia, Text: " "}

// NewTokenOf creates a punctuation or keyword token with its fixed spelling.
func NewTokenOf(kind Kind) *GreenNode {
	var value any
	switch kind {
	case TrueKeyword:
		value = true
	case FalseKeyword:
		value = false
	}
	return NewToken(kind, TokenText(kind), value)
}

// NewIdentifier creates an identifier token.
func NewIdentifier(name string) *GreenNode {
	value := name
	if len(name) > 1 && name[0] == '@' {
		value = name[1:]
	}
	return NewToken(IdentifierToken, name, value)
}

func NewIdentifierName(name string) *GreenNode {
	return NewNode(IdentifierName, NewIdentifier(name))
}

// NewBoolLiteral creates a true or false literal expression.
func NewBoolLiteral(v bool) *GreenNode {
	if v {
		return NewNode(TrueLiteralExpression, NewTokenOf(TrueKeyword))
	}
	return NewNode(FalseLiteralExpression, NewTokenOf(FalseKeyword))
}

// NewParenthesized wraps expr, moving its outer trivia outside the parens.
func NewParenthesized(expr *GreenNode) *GreenNode {
	p := NewNode(ParenthesizedExpression,
		NewTokenOf(OpenParenToken),
		expr.WithoutTrivia(),
		NewTokenOf(CloseParenToken))
	return p.WithTriviaFrom(expr)
}

// NewBinary builds left op right with single spaces around the operator.
// Operands lose their outer trivia and are parenthesized when their
// precedence would otherwise regroup the expression.
func NewBinary(kind Kind, left, right *GreenNode) *GreenNode {
	prec := Precedence(kind)
	left = left.WithoutTrivia()
	right = right.WithoutTrivia()
	if lp := Precedence(left.kind); lp < prec || lp == prec && IsRightAssociative(kind) {
		left = NewParenthesized(left)
	}
	if rp := Precedence(right.kind); rp < prec || rp == prec && !IsRightAssociative(kind) {
		right = NewParenthesized(right)
	}
	op := NewTokenOf(BinaryOperatorToken(kind)).
		WithLeadingTrivia(Space).
		WithTrailingTrivia(Space)
	return NewNode(kind, left, op, right)
}

// NewPrefixUnary builds op operand, parenthesizing non-unary operands.
func NewPrefixUnary(kind Kind, operand *GreenNode) *GreenNode {
	operand = operand.WithoutTrivia()
	if Precedence(operand.kind) < PrecedenceUnary {
		operand = NewParenthesized(operand)
	}
	return NewNode(kind, NewTokenOf(PrefixOperatorToken(kind)), operand)
}

var invertedComparisons = map[Kind]Kind{
	EqualsExpression:             NotEqualsExpression,
	NotEqualsExpression:          EqualsExpression,
	LessThanExpression:           GreaterThanOrEqualExpression,
	GreaterThanOrEqualExpression: LessThanExpression,
	GreaterThanExpression:        LessThanOrEqualExpression,
	LessThanOrEqualExpression:    GreaterThanExpression,
}

// InvertCondition returns the logical negation of a boolean expression,
// cancelling an existing negation, flipping comparisons and distributing
// over && and || instead of wrapping everything in !(...).
func InvertCondition(g *GreenNode) *GreenNode {
	switch k := g.kind; {
	case k == ParenthesizedExpression:
		return NewParenthesized(InvertCondition(g.Slot(1))).WithTriviaFrom(g)
	case k == LogicalNotExpression:
		return g.Slot(1).WithTriviaFrom(g)
	case k == TrueLiteralExpression:
		return NewBoolLiteral(false).WithTriviaFrom(g)
	case k == FalseLiteralExpression:
		return NewBoolLiteral(true).WithTriviaFrom(g)
	case k == LogicalAndExpression:
		return NewBinary(LogicalOrExpression, InvertCondition(g.Slot(0)), InvertCondition(g.Slot(2))).WithTriviaFrom(g)
	case k == LogicalOrExpression:
		return NewBinary(LogicalAndExpression, InvertCondition(g.Slot(0)), InvertCondition(g.Slot(2))).WithTriviaFrom(g)
	}
	if flipped, ok := invertedComparisons[g.kind]; ok {
		old := g.Slot(1)
		op := NewTokenOf(BinaryOperatorToken(flipped)).
			WithLeadingTrivia(old.leading...).
			WithTrailingTrivia(old.trailing...)
		return NewNode(flipped, g.Slot(0), op, g.Slot(2))
	}
	return NewPrefixUnary(LogicalNotExpression, g).WithTriviaFrom(g)
}
