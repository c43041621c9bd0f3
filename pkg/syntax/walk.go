package syntax

import (
	"context"
	"slices"

	"github.com/mamaar/csrefactor/pkg/types"
)

// Walk visits root and its descendant nodes in pre-order. ctx is checked
// before every visit; fn returning false skips that node's children.
func Walk(ctx context.Context, root *Node, fn func(*Node) bool) error {
	if err := ctx.Err(); err != nil {
		return types.CancelledError(err)
	}
	if !fn(root) {
		return nil
	}
	for _, c := range root.slots {
		if c == nil || c.IsToken() {
			continue
		}
		if err := Walk(ctx, c, fn); err != nil {
			return err
		}
	}
	return nil
}

// Inspector holds a pre-order listing of a tree's nodes so that several
// analyzers can filter by kind without re-walking.
type Inspector struct {
	nodes []*Node
}

func NewInspector(t *Tree) *Inspector {
	in := &Inspector{}
	for n := range t.root.DescendantNodesAndSelf() {
		in.nodes = append(in.nodes, n)
	}
	return in
}

// Preorder calls fn for every node whose kind is in kinds, or every node
// when kinds is empty.
func (in *Inspector) Preorder(ctx context.Context, kinds []Kind, fn func(*Node)) error {
	for _, n := range in.nodes {
		if err := ctx.Err(); err != nil {
			return types.CancelledError(err)
		}
		if len(kinds) == 0 || slices.Contains(kinds, n.Kind()) {
			fn(n)
		}
	}
	return nil
}
