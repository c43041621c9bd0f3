package syntax

import (
	"fmt"
	"iter"
)

// Span is a half-open byte range [Start, End) of source text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (s Span) Len() int { return s.End - s.Start }

func (s Span) IsEmpty() bool { return s.Start == s.End }

// Contains reports whether o lies within s.
func (s Span) Contains(o Span) bool { return s.Start <= o.Start && o.End <= s.End }

// ContainsPosition reports whether pos lies within s, excluding End.
func (s Span) ContainsPosition(pos int) bool { return s.Start <= pos && pos < s.End }

func (s Span) String() string { return fmt.Sprintf("[%d..%d)", s.Start, s.End) }

// Node is a positioned view of a green payload inside one Tree. It knows its
// parent and absolute offset. Nodes are created once per tree and never change.
type Node struct {
	green    *GreenNode
	tree     *Tree
	parent   *Node
	index    int
	position int
	slots    []*Node
}

// Tree is an immutable syntax tree for one source unit.
type Tree struct {
	path      string
	root      *Node
	annotated map[Annotation][]*Node
}

// NewTree positions root and builds the navigable node layer.
func NewTree(path string, root *GreenNode) *Tree {
	t := &Tree{path: path}
	t.root = t.build(root, nil, 0, 0)
	return t
}

func (t *Tree) build(g *GreenNode, parent *Node, index, pos int) *Node {
	n := &Node{green: g, tree: t, parent: parent, index: index, position: pos}
	for _, a := range g.annotations {
		if t.annotated == nil {
			t.annotated = make(map[Annotation][]*Node)
		}
		t.annotated[a] = append(t.annotated[a], n)
	}
	if len(g.slots) > 0 {
		n.slots = make([]*Node, len(g.slots))
		p := pos
		for i, s := range g.slots {
			if s == nil {
				continue
			}
			n.slots[i] = t.build(s, n, i, p)
			p += s.fullWidth
		}
	}
	return n
}

func (t *Tree) Path() string { return t.path }

func (t *Tree) Root() *Node { return t.root }

// Text renders the tree losslessly.
func (t *Tree) Text() string { return t.root.green.FullText() }

// WithPath returns the same tree contents under another path.
func (t *Tree) WithPath(path string) *Tree { return NewTree(path, t.root.green) }

// AnnotatedNodes returns the nodes carrying a, in document order.
func (t *Tree) AnnotatedNodes(a Annotation) []*Node { return t.annotated[a] }

// DescendantNodes yields every node below the root in document order.
func (t *Tree) DescendantNodes() iter.Seq[*Node] { return t.root.DescendantNodes() }

// FindNode returns the innermost node whose full span contains span, or nil.
// An empty span is treated as a position and belongs to the element starting
// there rather than the one ending there.
func (t *Tree) FindNode(span Span) *Node {
	n := t.root
	if !n.FullSpan().Contains(span) {
		return nil
	}
	for {
		var next *Node
		for _, c := range n.slots {
			if c == nil || c.IsToken() {
				continue
			}
			if covers(c.FullSpan(), span) {
				next = c
				break
			}
		}
		if next == nil {
			return n
		}
		n = next
	}
}

func covers(outer, q Span) bool {
	if q.IsEmpty() {
		return outer.ContainsPosition(q.Start)
	}
	return outer.Contains(q)
}

func (n *Node) Kind() Kind { return n.green.kind }

func (n *Node) IsToken() bool { return n.green.IsToken() }

func (n *Node) Green() *GreenNode { return n.green }

func (n *Node) Tree() *Tree { return n.tree }

// Parent is nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Index is the slot index within the parent.
func (n *Node) Index() int { return n.index }

func (n *Node) SlotCount() int { return len(n.slots) }

// Slot returns the child in slot i, or nil when the slot is empty.
func (n *Node) Slot(i int) *Node {
	if i < 0 || i >= len(n.slots) {
		return nil
	}
	return n.slots[i]
}

// Children returns nodes and tokens in order, skipping empty slots.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, len(n.slots))
	for _, c := range n.slots {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// ChildNodes returns the non-token children.
func (n *Node) ChildNodes() []*Node {
	var out []*Node
	for _, c := range n.slots {
		if c != nil && !c.IsToken() {
			out = append(out, c)
		}
	}
	return out
}

// ChildTokens returns the direct token children.
func (n *Node) ChildTokens() []*Node {
	var out []*Node
	for _, c := range n.slots {
		if c != nil && c.IsToken() {
			out = append(out, c)
		}
	}
	return out
}

// FirstChild returns the first child of kind k, or nil.
func (n *Node) FirstChild(k Kind) *Node {
	for _, c := range n.slots {
		if c != nil && c.Kind() == k {
			return c
		}
	}
	return nil
}

// FullSpan includes the outer trivia.
func (n *Node) FullSpan() Span {
	return Span{Start: n.position, End: n.position + n.green.fullWidth}
}

// Span excludes the outer trivia.
func (n *Node) Span() Span {
	return Span{
		Start: n.position + n.green.LeadingWidth(),
		End:   n.position + n.green.fullWidth - n.green.TrailingWidth(),
	}
}

func (n *Node) Text() string { return n.green.Text() }

func (n *Node) FullText() string { return n.green.FullText() }

func (n *Node) String() string { return n.green.Text() }

// TokenText is the text of a token without trivia.
func (n *Node) TokenText() string { return n.green.text }

// ValueText is the identifier text without a verbatim '@' prefix.
func (n *Node) ValueText() string {
	if n.green.kind == IdentifierToken {
		if s, ok := n.green.value.(string); ok {
			return s
		}
	}
	return n.green.text
}

func (n *Node) Value() any { return n.green.value }

func (n *Node) LeadingTrivia() []Trivia { return n.green.LeadingTrivia() }

func (n *Node) TrailingTrivia() []Trivia { return n.green.TrailingTrivia() }

func (n *Node) HasAnnotation(a Annotation) bool { return n.green.HasAnnotation(a) }

// FirstToken returns the leftmost token of n.
func (n *Node) FirstToken() *Node {
	if n.IsToken() {
		return n
	}
	for _, c := range n.slots {
		if c == nil {
			continue
		}
		if t := c.FirstToken(); t != nil {
			return t
		}
	}
	return nil
}

// LastToken returns the rightmost token of n.
func (n *Node) LastToken() *Node {
	if n.IsToken() {
		return n
	}
	for i := len(n.slots) - 1; i >= 0; i-- {
		if n.slots[i] == nil {
			continue
		}
		if t := n.slots[i].LastToken(); t != nil {
			return t
		}
	}
	return nil
}

// Ancestors yields the parent chain from the immediate parent up.
func (n *Node) Ancestors() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for p := n.parent; p != nil; p = p.parent {
			if !yield(p) {
				return
			}
		}
	}
}

// FirstAncestorOrSelf returns the nearest node, starting at n, whose kind is
// one of kinds.
func (n *Node) FirstAncestorOrSelf(kinds ...Kind) *Node {
	for c := n; c != nil; c = c.parent {
		for _, k := range kinds {
			if c.Kind() == k {
				return c
			}
		}
	}
	return nil
}

// DescendantNodes yields the nodes below n in pre-order, excluding n and
// tokens. Each range over the sequence walks the tree afresh.
func (n *Node) DescendantNodes() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		n.walkNodes(yield)
	}
}

// DescendantNodesAndSelf is DescendantNodes preceded by n.
func (n *Node) DescendantNodesAndSelf() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		if !yield(n) {
			return
		}
		n.walkNodes(yield)
	}
}

func (n *Node) walkNodes(yield func(*Node) bool) bool {
	for _, c := range n.slots {
		if c == nil || c.IsToken() {
			continue
		}
		if !yield(c) || !c.walkNodes(yield) {
			return false
		}
	}
	return true
}

// DescendantTokens yields the tokens below n in document order.
func (n *Node) DescendantTokens() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		n.walkTokens(yield)
	}
}

func (n *Node) walkTokens(yield func(*Node) bool) bool {
	if n.IsToken() {
		return yield(n)
	}
	for _, c := range n.slots {
		if c != nil && !c.walkTokens(yield) {
			return false
		}
	}
	return true
}

// IsEquivalentTo reports structural equality with o, ignoring trivia.
func (n *Node) IsEquivalentTo(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	return AreEquivalent(n.green, o.green)
}
