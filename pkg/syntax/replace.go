package syntax

import "github.com/mamaar/csrefactor/pkg/types"

// ReplaceNode returns a new tree in which target's subtree is replaced by
// replacement. Only the ancestors of target are rebuilt; every other payload
// is shared with t.
func (t *Tree) ReplaceNode(target *Node, replacement *GreenNode) (*Tree, error) {
	if target == nil || target.tree != t {
		return nil, types.NewError(types.InvalidOperation, "replace: node is not part of this tree")
	}
	if replacement == nil {
		return nil, types.NewError(types.InvalidOperation, "replace: nil replacement for %s", target.Kind())
	}
	g := replacement
	for n := target; n.parent != nil; n = n.parent {
		g = n.parent.green.WithSlot(n.index, g)
	}
	return NewTree(t.path, g), nil
}

// ReplaceNodes rewrites every target in a single bottom-up pass. compute
// receives the original node and its payload with nested targets already
// rewritten.
func (t *Tree) ReplaceNodes(targets []*Node, compute func(original *Node, rewritten *GreenNode) *GreenNode) (*Tree, error) {
	if len(targets) == 0 {
		return t, nil
	}
	isTarget := make(map[*Node]bool, len(targets))
	onPath := make(map[*Node]bool)
	for _, n := range targets {
		if n == nil || n.tree != t {
			return nil, types.NewError(types.InvalidOperation, "replace: node is not part of this tree")
		}
		isTarget[n] = true
		for c := n; c != nil && !onPath[c]; c = c.parent {
			onPath[c] = true
		}
	}

	var rebuild func(n *Node) *GreenNode
	rebuild = func(n *Node) *GreenNode {
		if !onPath[n] {
			return n.green
		}
		g := n.green
		for i, c := range n.slots {
			if c == nil {
				continue
			}
			if ng := rebuild(c); ng != c.green {
				g = g.WithSlot(i, ng)
			}
		}
		if isTarget[n] {
			g = compute(n, g)
		}
		return g
	}
	root := rebuild(t.root)
	if root == nil {
		return nil, types.NewError(types.InvalidOperation, "replace: root replaced with nil")
	}
	return NewTree(t.path, root), nil
}
