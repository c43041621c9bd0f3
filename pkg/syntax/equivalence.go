package syntax

// AreEquivalent reports whether a and b have the same shape and token text.
// Trivia and annotations are ignored; identifiers compare by value text so
// that @x and x are equal.
func AreEquivalent(a, b *GreenNode) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.kind != b.kind {
		return false
	}
	if a.IsToken() {
		if a.kind == IdentifierToken {
			return identifierValue(a) == identifierValue(b)
		}
		return a.text == b.text
	}
	if len(a.slots) != len(b.slots) {
		return false
	}
	for i := range a.slots {
		if !AreEquivalent(a.slots[i], b.slots[i]) {
			return false
		}
	}
	return true
}

func identifierValue(g *GreenNode) string {
	if s, ok := g.value.(string); ok {
		return s
	}
	return g.text
}

// SkipParens strips any number of enclosing parentheses.
func SkipParens(n *Node) *Node {
	for n != nil && n.Kind() == ParenthesizedExpression {
		n = n.Slot(1)
	}
	return n
}

// SkipParensGreen is SkipParens over payloads.
func SkipParensGreen(g *GreenNode) *GreenNode {
	for g != nil && g.kind == ParenthesizedExpression {
		g = g.Slot(1)
	}
	return g
}
