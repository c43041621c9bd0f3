// Package syntax is an immutable C# syntax tree. Green nodes hold text,
// kinds and trivia and are shared between trees; red nodes (Node) add
// parents and absolute positions on top of them.
package syntax

import (
	"slices"
	"strings"
)

// Trivia is whitespace or comment text attached to a token.
type Trivia struct {
	Kind Kind
	Text string
}

// Annotation is metadata carried on a green node through rewrites.
type Annotation struct {
	Kind string
	Data string
}

// GreenNode is the immutable, position independent payload of a token or
// node. Green nodes carry no parent and are shared freely between trees.
type GreenNode struct {
	kind        Kind
	text        string
	value       any
	leading     []Trivia
	trailing    []Trivia
	slots       []*GreenNode
	fullWidth   int
	annotations []Annotation
}

// NewToken creates a token without trivia.
func NewToken(kind Kind, text string, value any) *GreenNode {
	return &GreenNode{kind: kind, text: text, value: value, fullWidth: len(text)}
}

// NewTokenWithTrivia creates a token with its surrounding trivia.
func NewTokenWithTrivia(kind Kind, text string, value any, leading, trailing []Trivia) *GreenNode {
	return &GreenNode{
		kind:      kind,
		text:      text,
		value:     value,
		leading:   leading,
		trailing:  trailing,
		fullWidth: triviaWidth(leading) + len(text) + triviaWidth(trailing),
	}
}

// NewNode creates an interior node. Nil slots mark absent optional children.
func NewNode(kind Kind, slots ...*GreenNode) *GreenNode {
	g := &GreenNode{kind: kind, slots: slots}
	for _, s := range slots {
		if s != nil {
			g.fullWidth += s.fullWidth
		}
	}
	return g
}

func (g *GreenNode) Kind() Kind { return g.kind }

func (g *GreenNode) IsToken() bool { return g.kind.IsToken() }

// TokenText is the token's text without trivia; empty for nodes.
func (g *GreenNode) TokenText() string { return g.text }

// Value is the resolved literal value of a token.
func (g *GreenNode) Value() any { return g.value }

func (g *GreenNode) SlotCount() int { return len(g.slots) }

// Slot returns the i'th child or nil when absent or out of range.
func (g *GreenNode) Slot(i int) *GreenNode {
	if i < 0 || i >= len(g.slots) {
		return nil
	}
	return g.slots[i]
}

func (g *GreenNode) FullWidth() int { return g.fullWidth }

func (g *GreenNode) Annotations() []Annotation { return g.annotations }

func (g *GreenNode) HasAnnotation(a Annotation) bool {
	return slices.Contains(g.annotations, a)
}

// FirstToken returns the leftmost token, or nil for an empty node.
func (g *GreenNode) FirstToken() *GreenNode {
	if g.IsToken() {
		return g
	}
	for _, s := range g.slots {
		if s == nil {
			continue
		}
		if t := s.FirstToken(); t != nil {
			return t
		}
	}
	return nil
}

// LastToken returns the rightmost token, or nil for an empty node.
func (g *GreenNode) LastToken() *GreenNode {
	if g.IsToken() {
		return g
	}
	for i := len(g.slots) - 1; i >= 0; i-- {
		if g.slots[i] == nil {
			continue
		}
		if t := g.slots[i].LastToken(); t != nil {
			return t
		}
	}
	return nil
}

// LeadingTrivia of the first token.
func (g *GreenNode) LeadingTrivia() []Trivia {
	if t := g.FirstToken(); t != nil {
		return t.leading
	}
	return nil
}

// TrailingTrivia of the last token.
func (g *GreenNode) TrailingTrivia() []Trivia {
	if t := g.LastToken(); t != nil {
		return t.trailing
	}
	return nil
}

func triviaWidth(ts []Trivia) int {
	n := 0
	for _, t := range ts {
		n += len(t.Text)
	}
	return n
}

// LeadingWidth is the byte width of the leading trivia.
func (g *GreenNode) LeadingWidth() int { return triviaWidth(g.LeadingTrivia()) }

// TrailingWidth is the byte width of the trailing trivia.
func (g *GreenNode) TrailingWidth() int { return triviaWidth(g.TrailingTrivia()) }

// Width excludes the outer trivia.
func (g *GreenNode) Width() int {
	return g.fullWidth - g.LeadingWidth() - g.TrailingWidth()
}

// FullText renders the node including its outer trivia.
func (g *GreenNode) FullText() string {
	var b strings.Builder
	b.Grow(g.fullWidth)
	g.writeTo(&b, true, true)
	return b.String()
}

// Text renders the node without its outer trivia.
func (g *GreenNode) Text() string {
	var b strings.Builder
	b.Grow(g.fullWidth)
	g.writeTo(&b, false, false)
	return b.String()
}

func (g *GreenNode) String() string { return g.Text() }

func (g *GreenNode) writeTo(b *strings.Builder, leading, trailing bool) {
	if g.IsToken() {
		if leading {
			for _, t := range g.leading {
				b.WriteString(t.Text)
			}
		}
		b.WriteString(g.text)
		if trailing {
			for _, t := range g.trailing {
				b.WriteString(t.Text)
			}
		}
		return
	}
	first, last := -1, -1
	for i, s := range g.slots {
		if s == nil || s.FirstToken() == nil {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	for i, s := range g.slots {
		if s == nil {
			continue
		}
		s.writeTo(b, leading || i != first, trailing || i != last)
	}
}

func (g *GreenNode) clone() *GreenNode {
	c := *g
	return &c
}

// WithSlot returns a copy of g with slot i replaced. Annotations are kept.
func (g *GreenNode) WithSlot(i int, child *GreenNode) *GreenNode {
	c := g.clone()
	c.slots = slices.Clone(g.slots)
	if old := c.slots[i]; old != nil {
		c.fullWidth -= old.fullWidth
	}
	if child != nil {
		c.fullWidth += child.fullWidth
	}
	c.slots[i] = child
	return c
}

// WithLeadingTrivia replaces the leading trivia of the first token.
func (g *GreenNode) WithLeadingTrivia(trivia ...Trivia) *GreenNode {
	if g.IsToken() {
		c := g.clone()
		c.leading = slices.Clone(trivia)
		c.fullWidth = triviaWidth(c.leading) + len(c.text) + triviaWidth(c.trailing)
		return c
	}
	for i, s := range g.slots {
		if s == nil || s.FirstToken() == nil {
			continue
		}
		return g.WithSlot(i, s.WithLeadingTrivia(trivia...))
	}
	return g
}

// WithTrailingTrivia replaces the trailing trivia of the last token.
func (g *GreenNode) WithTrailingTrivia(trivia ...Trivia) *GreenNode {
	if g.IsToken() {
		c := g.clone()
		c.trailing = slices.Clone(trivia)
		c.fullWidth = triviaWidth(c.leading) + len(c.text) + triviaWidth(c.trailing)
		return c
	}
	for i := len(g.slots) - 1; i >= 0; i-- {
		s := g.slots[i]
		if s == nil || s.LastToken() == nil {
			continue
		}
		return g.WithSlot(i, s.WithTrailingTrivia(trivia...))
	}
	return g
}

// WithoutTrivia strips the outer trivia.
func (g *GreenNode) WithoutTrivia() *GreenNode {
	return g.WithLeadingTrivia().WithTrailingTrivia()
}

// WithTriviaFrom copies the outer trivia of other onto g.
func (g *GreenNode) WithTriviaFrom(other *GreenNode) *GreenNode {
	return g.WithLeadingTrivia(other.LeadingTrivia()...).WithTrailingTrivia(other.TrailingTrivia()...)
}

// WithAnnotations returns a copy carrying the extra annotations.
func (g *GreenNode) WithAnnotations(as ...Annotation) *GreenNode {
	c := g.clone()
	c.annotations = slices.Clone(g.annotations)
	for _, a := range as {
		if !slices.Contains(c.annotations, a) {
			c.annotations = append(c.annotations, a)
		}
	}
	return c
}

// WithoutAnnotations drops every annotation of the given kind from g and its
// descendants.
func (g *GreenNode) WithoutAnnotations(kind string) *GreenNode {
	changed := false
	var slots []*GreenNode
	for i, s := range g.slots {
		if s == nil {
			continue
		}
		ns := s.WithoutAnnotations(kind)
		if ns != s {
			if !changed {
				slots = slices.Clone(g.slots)
				changed = true
			}
			slots[i] = ns
		}
	}
	keep := slices.DeleteFunc(slices.Clone(g.annotations), func(a Annotation) bool { return a.Kind == kind })
	if !changed && len(keep) == len(g.annotations) {
		return g
	}
	c := g.clone()
	if changed {
		c.slots = slots
	}
	c.annotations = keep
	return c
}
