// Package tessellate walks a design graph and produces triangle meshes
// using a geometry kernel. One mesh is produced per part.
package tessellate

import (
	"errors"
	"fmt"

	"github.com/chazu/brushwork/pkg/brush"
	"github.com/chazu/brushwork/pkg/graph"
	"github.com/chazu/brushwork/pkg/kernel"
)

// ErrEmptyGroup is returned when a group without children is used as an
// operand.
var ErrEmptyGroup = errors.New("tessellate: empty group")

// walker evaluates nodes to solids. Nodes shared by several parents are
// evaluated once.
type walker struct {
	g       *graph.DesignGraph
	k       kernel.Kernel
	builder *brush.Builder
	solids  map[graph.NodeID]kernel.Solid
}

// Tessellate walks the design graph and produces one triangle mesh per part
// using the provided geometry kernel. Groups reached from a root are
// flattened; every other node below them is a part, named after the node
// or the operand it places or cuts.
// Parts that evaluate to nothing are skipped. The tessellator is read-only
// and never mutates the graph.
func Tessellate(g *graph.DesignGraph, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if g == nil {
		return nil, nil
	}
	builder, err := g.Builder()
	if err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}

	w := &walker{g: g, k: k, builder: builder, solids: make(map[graph.NodeID]kernel.Solid)}
	var meshes []*kernel.Mesh
	for _, part := range Parts(g) {
		mesh, err := w.mesh(part)
		if err != nil {
			return nil, fmt.Errorf("tessellate: part %s: %w", part.DisplayName(), err)
		}
		if mesh.IsEmpty() {
			continue
		}
		meshes = append(meshes, mesh)
	}

	return meshes, nil
}

// Parts returns the nodes that make up the parts of g: the roots, with
// groups replaced by their children recursively. A node reachable through
// several groups is listed once.
func Parts(g *graph.DesignGraph) []*graph.Node {
	var parts []*graph.Node
	seen := make(map[graph.NodeID]bool)

	var visit func(n *graph.Node)
	visit = func(n *graph.Node) {
		if n == nil || seen[n.ID] {
			return
		}
		seen[n.ID] = true
		if n.Kind != graph.NodeGroup {
			parts = append(parts, n)
			return
		}
		for _, child := range g.Children(n) {
			visit(child)
		}
	}
	for _, rootID := range g.Roots {
		visit(g.Get(rootID))
	}
	return parts
}

// mesh evaluates a part and converts it to a mesh.
func (w *walker) mesh(n *graph.Node) (*kernel.Mesh, error) {
	solid, err := w.solid(n)
	if err != nil {
		return nil, err
	}
	mesh, err := w.k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("ToMesh failed for node %s: %w", n.ID.Short(), err)
	}
	mesh.PartName = partName(w.g, n)
	return mesh, nil
}

// partName returns the name of n, or of the first named node down its
// first-child chain, or the short ID of n.
func partName(g *graph.DesignGraph, n *graph.Node) string {
	for c := n; c != nil; {
		if c.Name != "" {
			return c.Name
		}
		if len(c.Children) == 0 {
			break
		}
		c = g.Get(c.Children[0])
	}
	return n.ID.Short()
}

// solid returns the solid of a node, evaluating its children first.
func (w *walker) solid(n *graph.Node) (kernel.Solid, error) {
	if s, ok := w.solids[n.ID]; ok {
		return s, nil
	}
	s, err := w.evaluate(n)
	if err != nil {
		return nil, err
	}
	w.solids[n.ID] = s
	return s, nil
}

func (w *walker) evaluate(n *graph.Node) (kernel.Solid, error) {
	switch n.Kind {
	case graph.NodeBrush, graph.NodeVertexEdit:
		return w.handleBrush(n)

	case graph.NodeTransform:
		return w.handleTransform(n)

	case graph.NodeCSG:
		return w.handleCSG(n)

	case graph.NodeClip:
		return w.handleClip(n)

	case graph.NodeExpand:
		return w.handleExpand(n)

	case graph.NodeGroup:
		return w.handleGroup(n)

	default:
		return nil, fmt.Errorf("unknown node kind: %v", n.Kind)
	}
}

// handleBrush builds the brush of a brush node or vertex edit chain.
func (w *walker) handleBrush(n *graph.Node) (kernel.Solid, error) {
	b, err := w.g.BuildBrush(n, w.builder)
	if err != nil {
		return nil, err
	}
	return w.k.Brush(b), nil
}

// child returns the solid of the single child of n.
func (w *walker) child(n *graph.Node) (kernel.Solid, error) {
	children := w.g.Children(n)
	if len(children) != 1 {
		return nil, fmt.Errorf("%s node %s has %d children, want 1", n.Kind, n.ID.Short(), len(children))
	}
	return w.solid(children[0])
}

func (w *walker) handleTransform(n *graph.Node) (kernel.Solid, error) {
	td, ok := n.Data.(graph.TransformData)
	if !ok {
		return nil, fmt.Errorf("transform node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	s, err := w.child(n)
	if err != nil {
		return nil, err
	}
	return w.k.Transform(s, td.Affine())
}

// handleCSG folds the operation over the children in order.
func (w *walker) handleCSG(n *graph.Node) (kernel.Solid, error) {
	cd, ok := n.Data.(graph.CSGData)
	if !ok {
		return nil, fmt.Errorf("csg node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	children := w.g.Children(n)
	if len(children) < 2 {
		return nil, fmt.Errorf("csg node %s has %d children, want at least 2", n.ID.Short(), len(children))
	}
	acc, err := w.solid(children[0])
	if err != nil {
		return nil, err
	}
	for _, c := range children[1:] {
		s, err := w.solid(c)
		if err != nil {
			return nil, err
		}
		switch cd.Op {
		case graph.CSGSubtract:
			acc, err = w.k.Difference(acc, s)
		case graph.CSGIntersect:
			acc, err = w.k.Intersection(acc, s)
		default:
			err = fmt.Errorf("unknown csg op %v", cd.Op)
		}
		if err != nil {
			return nil, fmt.Errorf("%s in node %s: %w", cd.Op, n.ID.Short(), err)
		}
	}
	return acc, nil
}

func (w *walker) handleClip(n *graph.Node) (kernel.Solid, error) {
	cd, ok := n.Data.(graph.ClipData)
	if !ok {
		return nil, fmt.Errorf("clip node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	plane, ok := cd.Plane()
	if !ok {
		return nil, fmt.Errorf("clip node %s: %w", n.ID.Short(), brush.ErrColinearPoints)
	}
	s, err := w.child(n)
	if err != nil {
		return nil, err
	}
	return w.k.Clip(s, plane)
}

func (w *walker) handleExpand(n *graph.Node) (kernel.Solid, error) {
	ed, ok := n.Data.(graph.ExpandData)
	if !ok {
		return nil, fmt.Errorf("expand node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	s, err := w.child(n)
	if err != nil {
		return nil, err
	}
	return w.k.Expand(s, ed.Delta)
}

// handleGroup unions the children of a group used as an operand.
func (w *walker) handleGroup(n *graph.Node) (kernel.Solid, error) {
	children := w.g.Children(n)
	if len(children) == 0 {
		return nil, fmt.Errorf("%w %s", ErrEmptyGroup, n.DisplayName())
	}
	acc, err := w.solid(children[0])
	if err != nil {
		return nil, err
	}
	for _, c := range children[1:] {
		s, err := w.solid(c)
		if err != nil {
			return nil, err
		}
		acc = w.k.Union(acc, s)
	}
	return acc, nil
}
