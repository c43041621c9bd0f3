package syntax

// Syntax is the closed set of typed views over nodes the analyzers inspect.
// Use As to obtain one and a type switch to dispatch.
type Syntax interface {
	Node() *Node
	sealed()
}

type view struct{ n *Node }

func (v view) Node() *Node { return v.n }
func (view) sealed()       {}

// ConditionalExpressionSyntax is cond ? whenTrue : whenFalse.
type ConditionalExpressionSyntax struct{ view }

func (c ConditionalExpressionSyntax) Condition() *Node     { return c.n.Slot(0) }
func (c ConditionalExpressionSyntax) QuestionToken() *Node { return c.n.Slot(1) }
func (c ConditionalExpressionSyntax) WhenTrue() *Node      { return c.n.Slot(2) }
func (c ConditionalExpressionSyntax) ColonToken() *Node    { return c.n.Slot(3) }
func (c ConditionalExpressionSyntax) WhenFalse() *Node     { return c.n.Slot(4) }

// UsingDirectiveSyntax is [global] using [static] [Alias =] Name;
type UsingDirectiveSyntax struct{ view }

// GlobalKeyword is the contextual "global" identifier token, or nil.
func (u UsingDirectiveSyntax) GlobalKeyword() *Node { return u.n.Slot(0) }
func (u UsingDirectiveSyntax) UsingKeyword() *Node  { return u.n.Slot(1) }
func (u UsingDirectiveSyntax) StaticKeyword() *Node { return u.n.Slot(2) }

// Alias is the NameEquals clause, or nil.
func (u UsingDirectiveSyntax) Alias() *Node { return u.n.Slot(3) }

func (u UsingDirectiveSyntax) Name() *Node           { return u.n.Slot(4) }
func (u UsingDirectiveSyntax) SemicolonToken() *Node { return u.n.Slot(5) }

func (u UsingDirectiveSyntax) IsGlobal() bool { return u.GlobalKeyword() != nil }

// AliasName returns the alias identifier's value text.
func (u UsingDirectiveSyntax) AliasName() (string, bool) {
	a := u.Alias()
	if a == nil {
		return "", false
	}
	id := a.Slot(0)
	if id == nil || id.Slot(0) == nil {
		return "", false
	}
	return id.Slot(0).ValueText(), true
}

// BinaryExpressionSyntax is left op right for every binary operator kind.
type BinaryExpressionSyntax struct{ view }

func (b BinaryExpressionSyntax) Left() *Node          { return b.n.Slot(0) }
func (b BinaryExpressionSyntax) OperatorToken() *Node { return b.n.Slot(1) }
func (b BinaryExpressionSyntax) Right() *Node         { return b.n.Slot(2) }

// IsComparison reports equality and relational operators.
func (b BinaryExpressionSyntax) IsComparison() bool { return IsComparison(b.n.Kind()) }

// LiteralExpressionSyntax wraps a single literal token.
type LiteralExpressionSyntax struct{ view }

func (l LiteralExpressionSyntax) Token() *Node { return l.n.Slot(0) }

func (l LiteralExpressionSyntax) Value() any { return l.n.Slot(0).Value() }

// Bool returns the value of a true or false literal.
func (l LiteralExpressionSyntax) Bool() (value, ok bool) {
	switch l.n.Kind() {
	case TrueLiteralExpression:
		return true, true
	case FalseLiteralExpression:
		return false, true
	}
	return false, false
}

func (l LiteralExpressionSyntax) IsNull() bool { return l.n.Kind() == NullLiteralExpression }

type ParenthesizedExpressionSyntax struct{ view }

func (p ParenthesizedExpressionSyntax) Expression() *Node { return p.n.Slot(1) }

// CastExpressionSyntax is (Type)expr.
type CastExpressionSyntax struct{ view }

func (c CastExpressionSyntax) Type() *Node       { return c.n.Slot(1) }
func (c CastExpressionSyntax) Expression() *Node { return c.n.Slot(3) }

// MemberAccessExpressionSyntax is expr.Name.
type MemberAccessExpressionSyntax struct{ view }

func (m MemberAccessExpressionSyntax) Expression() *Node { return m.n.Slot(0) }
func (m MemberAccessExpressionSyntax) Name() *Node       { return m.n.Slot(2) }

// NameText is the accessed member's identifier.
func (m MemberAccessExpressionSyntax) NameText() string {
	if id := m.Name(); id != nil && id.Slot(0) != nil {
		return id.Slot(0).ValueText()
	}
	return ""
}

// PrefixUnaryExpressionSyntax is op operand.
type PrefixUnaryExpressionSyntax struct{ view }

func (p PrefixUnaryExpressionSyntax) OperatorToken() *Node { return p.n.Slot(0) }
func (p PrefixUnaryExpressionSyntax) Operand() *Node       { return p.n.Slot(1) }

// OtherSyntax is every node kind without a dedicated view.
type OtherSyntax struct{ view }

// As classifies n into its typed view.
func As(n *Node) Syntax {
	v := view{n}
	switch k := n.Kind(); {
	case k == ConditionalExpression:
		return ConditionalExpressionSyntax{v}
	case k == UsingDirective:
		return UsingDirectiveSyntax{v}
	case IsBinaryExpression(k):
		return BinaryExpressionSyntax{v}
	case IsLiteralExpression(k):
		return LiteralExpressionSyntax{v}
	case k == ParenthesizedExpression:
		return ParenthesizedExpressionSyntax{v}
	case k == CastExpression:
		return CastExpressionSyntax{v}
	case k == MemberAccessExpression:
		return MemberAccessExpressionSyntax{v}
	case IsPrefixUnaryExpression(k):
		return PrefixUnaryExpressionSyntax{v}
	}
	return OtherSyntax{v}
}

// BoolLiteral reports the value of n when it is a true or false literal.
func BoolLiteral(n *Node) (value, ok bool) {
	if n == nil {
		return false, false
	}
	if l, isLit := As(n).(LiteralExpressionSyntax); isLit {
		return l.Bool()
	}
	return false, false
}

// IsNullLiteral reports whether n is the null literal.
func IsNullLiteral(n *Node) bool {
	return n != nil && n.Kind() == NullLiteralExpression
}

// IsMalformed reports whether n is absent or contains recovered syntax: a
// SkippedTokens node or a zero-width token the parser inserted for a missing
// one.
func IsMalformed(n *Node) bool {
	if n == nil {
		return true
	}
	for d := range n.DescendantNodesAndSelf() {
		if d.Kind() == SkippedTokens {
			return true
		}
	}
	for t := range n.DescendantTokens() {
		if t.TokenText() == "" && t.Kind() != EndOfFileToken {
			return true
		}
	}
	return false
}
