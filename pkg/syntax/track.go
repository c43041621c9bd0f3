package syntax

import (
	"github.com/google/uuid"

	"github.com/mamaar/csrefactor/pkg/types"
)

// TrackingAnnotationKind marks annotations added by Track.
const TrackingAnnotationKind = "csrefactor.tracking"

// Tracking maps nodes of an original tree to the annotations Track embedded
// in their payloads.
type Tracking struct {
	ids map[*Node]Annotation
}

// Track annotates each node with a unique identity that survives later
// replacements elsewhere in the tree. The returned tree carries the
// annotations; the nodes themselves belong to t.
func Track(t *Tree, nodes ...*Node) (*Tree, *Tracking, error) {
	tr := &Tracking{ids: make(map[*Node]Annotation, len(nodes))}
	targets := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n == nil || n.tree != t {
			return nil, nil, types.NewError(types.InvalidOperation, "track: node is not part of this tree")
		}
		if _, dup := tr.ids[n]; dup {
			continue
		}
		tr.ids[n] = Annotation{Kind: TrackingAnnotationKind, Data: uuid.NewString()}
		targets = append(targets, n)
	}
	tracked, err := t.ReplaceNodes(targets, func(orig *Node, g *GreenNode) *GreenNode {
		return g.WithAnnotations(tr.ids[orig])
	})
	if err != nil {
		return nil, nil, err
	}
	return tracked, tr, nil
}

// Resolve finds where original lives in current.
func (tr *Tracking) Resolve(current *Tree, original *Node) (*Node, error) {
	a, ok := tr.ids[original]
	if !ok {
		return nil, types.NewError(types.StaleTrackedNode, "%s at %s was never tracked", original.Kind(), original.Span())
	}
	found := current.AnnotatedNodes(a)
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return nil, types.NewError(types.StaleTrackedNode, "%s at %s is no longer in the tree", original.Kind(), original.Span())
	default:
		return nil, types.NewError(types.StaleTrackedNode, "%s at %s resolves to %d nodes", original.Kind(), original.Span(), len(found))
	}
}

// Len is the number of tracked nodes.
func (tr *Tracking) Len() int { return len(tr.ids) }

// Untracked strips every tracking annotation from t.
func Untracked(t *Tree) *Tree {
	g := t.root.green.WithoutAnnotations(TrackingAnnotationKind)
	if g == t.root.green {
		return t
	}
	return NewTree(t.path, g)
}
