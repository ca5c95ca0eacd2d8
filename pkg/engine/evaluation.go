package engine

import (
	"fmt"

	"github.com/chazu/brushwork/pkg/graph"
	zygo "github.com/glycerine/zygomys/zygo"
)

// Script values that have no zygomys counterpart. They print in the form
// that would produce them.
type (
	brushValue struct{ data graph.BrushData }
	nodeValue  struct {
		id   graph.NodeID
		name string
	}
	vecValue struct{ vec graph.Vec3 }
)

func (b *brushValue) SexpString(*zygo.PrintState) string {
	d := b.data
	switch d.Shape {
	case graph.ShapeBox:
		return fmt.Sprintf("(box %s %s)", d.Min, d.Max)
	case graph.ShapePrism:
		return fmt.Sprintf("(prism %s r=%g h=%g n=%d)", d.Center, d.Radius, d.Height, d.Sides)
	default:
		return fmt.Sprintf("(%s %d points)", d.Shape, len(d.Points))
	}
}

func (n *nodeValue) SexpString(*zygo.PrintState) string {
	if n.name == "" {
		return "(node " + n.id.Short() + ")"
	}
	return fmt.Sprintf("(brush %q)", n.name)
}

func (v *vecValue) SexpString(*zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}

func (*brushValue) Type() *zygo.RegisteredType { return nil }
func (*nodeValue) Type() *zygo.RegisteredType  { return nil }
func (*vecValue) Type() *zygo.RegisteredType   { return nil }

// evaluation collects the nodes created by one script run. Anonymous node
// IDs come from a counter local to the run, so the same script always
// yields the same IDs.
type evaluation struct {
	g     *graph.DesignGraph
	anon  int
	order []graph.NodeID // creation order
	refd  map[graph.NodeID]bool
	group bool // a group form registered a root
}

func newEvaluation(g *graph.DesignGraph) *evaluation {
	return &evaluation{g: g, refd: make(map[graph.NodeID]bool)}
}

// add inserts n into the graph and marks its children as referenced.
func (ev *evaluation) add(n *graph.Node) *nodeValue {
	ev.g.AddNode(n)
	ev.order = append(ev.order, n.ID)
	for _, c := range n.Children {
		ev.refd[c] = true
	}
	return &nodeValue{id: n.ID, name: n.Name}
}

// anonID returns a fresh ID for an unnamed node created by form.
func (ev *evaluation) anonID(form string) graph.NodeID {
	ev.anon++
	return graph.NewNodeID(fmt.Sprintf("%s/_anon_%d", form, ev.anon))
}

// ref resolves an operand to a node ID. Brush expressions that were not
// bound with defbrush become anonymous brush nodes.
func (ev *evaluation) ref(s zygo.Sexp) (graph.NodeID, error) {
	switch v := s.(type) {
	case *nodeValue:
		return v.id, nil
	case *brushValue:
		n := &graph.Node{ID: ev.anonID("brush"), Kind: graph.NodeBrush, Data: v.data}
		return ev.add(n).id, nil
	}
	return graph.ZeroID, mismatch("brush or node reference", s)
}

// refs resolves every operand in args.
func (ev *evaluation) refs(args []zygo.Sexp) ([]graph.NodeID, error) {
	ids := make([]graph.NodeID, 0, len(args))
	for i, a := range args {
		id, err := ev.ref(a)
		if err != nil {
			return nil, fmt.Errorf("operand %d: %w", i+1, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// finish registers roots. Scripts without a group form get every node no
// other node references as a root, in creation order.
func (ev *evaluation) finish() {
	if ev.group {
		return
	}
	for _, id := range ev.order {
		if !ev.refd[id] {
			ev.g.AddRoot(id)
		}
	}
}
