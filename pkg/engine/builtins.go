package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/brushwork/pkg/graph"
	zygo "github.com/glycerine/zygomys/zygo"
)

// form implements one script builtin. Errors are reported without the
// form name; registerBuiltins adds it.
type form func(ev *evaluation, a *argList) (zygo.Sexp, error)

// forms maps builtin names to their implementation. Kebab-case names are
// registered with underscores, matching what preprocessSource produces.
var forms = map[string]form{
	"vec3":        vec3Form,
	"texture":     textureForm,
	"box":         boxForm,
	"prism":       prismForm,
	"hull":        hullForm,
	"defbrush":    defbrushForm,
	"brush":       brushForm,
	"place":       placeForm,
	"subtract":    csgForm(graph.CSGSubtract),
	"intersect":   csgForm(graph.CSGIntersect),
	"clip":        clipForm,
	"expand":      expandForm,
	"move_vertex": moveVertexForm,
	"group":       groupForm,
}

// registerBuiltins installs the brush script builtins into env. They add
// nodes to the graph of ev as the script runs. Source must go through
// preprocessSource first so keywords reach the builtins as markers.
func registerBuiltins(env *zygo.Zlisp, ev *evaluation) {
	for name, f := range forms {
		display := strings.ReplaceAll(name, "_", "-")
		env.AddFunction(name, func(_ *zygo.Zlisp, _ string, args []zygo.Sexp) (zygo.Sexp, error) {
			a := newArgList(args)
			v, err := f(ev, a)
			if err == nil {
				err = a.err
			}
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", display, err)
			}
			return v, nil
		})
	}
}

// (vec3 1 2 3)
func vec3Form(_ *evaluation, a *argList) (zygo.Sexp, error) {
	if len(a.positional) != 3 {
		return nil, fmt.Errorf("requires exactly 3 arguments, got %d", len(a.positional))
	}
	var c [3]float64
	for i, s := range a.positional {
		f, err := number(s)
		if err != nil {
			return nil, fmt.Errorf("%c: %w", "xyz"[i], err)
		}
		c[i] = f
	}
	return &vecValue{vec: graph.Vec3{X: c[0], Y: c[1], Z: c[2]}}, nil
}

// (texture "brick" 128 64)
func textureForm(ev *evaluation, a *argList) (zygo.Sexp, error) {
	if len(a.positional) != 3 {
		return nil, errors.New("requires a name, a width and a height")
	}
	name, err := text(a.positional[0])
	if err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}
	var size [2]int
	for i, s := range a.positional[1:] {
		if size[i], err = integer(s); err != nil {
			return nil, fmt.Errorf("%s: %w", [2]string{"width", "height"}[i], err)
		}
	}
	if size[0] <= 0 || size[1] <= 0 {
		return nil, fmt.Errorf("size %dx%d must be positive", size[0], size[1])
	}
	ev.g.AddTexture(name, size[0], size[1])
	return &zygo.SexpStr{S: name}, nil
}

// (box :min (vec3 0 0 0) :max (vec3 64 64 16) :texture "floor")
func boxForm(_ *evaluation, a *argList) (zygo.Sexp, error) {
	bd := graph.BrushData{Shape: graph.ShapeBox}
	a.vec("min", &bd.Min)
	a.vec("max", &bd.Max)
	a.text("texture", &bd.Texture)
	return &brushValue{data: bd}, nil
}

// (prism :center (vec3 0 0 32) :radius 16 :height 64 :sides 8)
func prismForm(_ *evaluation, a *argList) (zygo.Sexp, error) {
	bd := graph.BrushData{Shape: graph.ShapePrism, Sides: 8}
	a.vec("center", &bd.Center)
	a.number("radius", &bd.Radius)
	a.number("height", &bd.Height)
	a.integer("sides", &bd.Sides)
	a.text("texture", &bd.Texture)
	return &brushValue{data: bd}, nil
}

// (hull (list (vec3 0 0 0) (vec3 64 0 0) ...) :texture "rock")
// (hull (vec3 0 0 0) (vec3 64 0 0) ...)
func hullForm(_ *evaluation, a *argList) (zygo.Sexp, error) {
	bd := graph.BrushData{Shape: graph.ShapeHull}
	points := a.positional
	if len(points) == 1 {
		if _, single := points[0].(*vecValue); !single {
			list, err := items(points[0])
			if err != nil {
				return nil, fmt.Errorf("points: %w", err)
			}
			points = list
		}
	}
	for i, s := range points {
		p, err := vec(s)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i+1, err)
		}
		bd.Points = append(bd.Points, p)
	}
	a.text("texture", &bd.Texture)
	return &brushValue{data: bd}, nil
}

// uniqueName reads the name every defining form starts with.
func uniqueName(ev *evaluation, a *argList) (string, error) {
	if len(a.positional) == 0 {
		return "", errors.New("requires a name argument")
	}
	name, err := text(a.positional[0])
	if err != nil {
		return "", fmt.Errorf("name: %w", err)
	}
	if ev.g.Lookup(name) != nil {
		return "", fmt.Errorf("%q is already defined", name)
	}
	return name, nil
}

// (defbrush "name" (box ...))
func defbrushForm(ev *evaluation, a *argList) (zygo.Sexp, error) {
	name, err := uniqueName(ev, a)
	if err != nil {
		return nil, err
	}
	if len(a.positional) < 2 {
		return nil, errors.New("requires a name and a body expression")
	}
	body, ok := a.positional[1].(*brushValue)
	if !ok {
		return nil, fmt.Errorf("expected box, prism or hull expression, got %T", a.positional[1])
	}
	return ev.add(&graph.Node{
		ID:   graph.NewNodeID("defbrush/" + name),
		Kind: graph.NodeBrush,
		Name: name,
		Data: body.data,
	}), nil
}

// (brush "name")
func brushForm(ev *evaluation, a *argList) (zygo.Sexp, error) {
	if len(a.positional) == 0 {
		return nil, errors.New("requires a name argument")
	}
	name, err := text(a.positional[0])
	if err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}
	n := ev.g.Lookup(name)
	if n == nil {
		return nil, fmt.Errorf("no brush named %q", name)
	}
	return &nodeValue{id: n.ID, name: name}, nil
}

// unary adds an anonymous node of kind over the single operand a form
// starts with.
func unary(ev *evaluation, form string, kind graph.NodeKind, operand zygo.Sexp, data graph.NodeData) (zygo.Sexp, error) {
	child, err := ev.ref(operand)
	if err != nil {
		return nil, err
	}
	return ev.add(&graph.Node{
		ID:       ev.anonID(form),
		Kind:     kind,
		Children: []graph.NodeID{child},
		Data:     data,
	}), nil
}

// (place (brush "pillar") :at (vec3 0 0 19) :rotate (vec3 0 0 45))
func placeForm(ev *evaluation, a *argList) (zygo.Sexp, error) {
	if len(a.positional) == 0 {
		return nil, errors.New("requires a brush reference as first argument")
	}
	td := graph.TransformData{Translation: a.optVec("at"), Rotation: a.optVec("rotate")}
	if a.err != nil {
		return nil, a.err
	}
	return unary(ev, "place", graph.NodeTransform, a.positional[0], td)
}

// (subtract (brush "wall") (brush "door") ...)
// (intersect a b ...)
func csgForm(op graph.CSGOp) form {
	return func(ev *evaluation, a *argList) (zygo.Sexp, error) {
		if len(a.positional) < 2 {
			return nil, fmt.Errorf("requires at least 2 operands, got %d", len(a.positional))
		}
		children, err := ev.refs(a.positional)
		if err != nil {
			return nil, err
		}
		return ev.add(&graph.Node{
			ID:       ev.anonID(op.String()),
			Kind:     graph.NodeCSG,
			Children: children,
			Data:     graph.CSGData{Op: op},
		}), nil
	}
}

// (clip ref (vec3 ..) (vec3 ..) (vec3 ..))
func clipForm(ev *evaluation, a *argList) (zygo.Sexp, error) {
	if len(a.positional) != 4 {
		return nil, fmt.Errorf("requires a brush and 3 points, got %d arguments", len(a.positional))
	}
	var cd graph.ClipData
	for i, s := range a.positional[1:] {
		p, err := vec(s)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i+1, err)
		}
		cd.Points[i] = p
	}
	return unary(ev, "clip", graph.NodeClip, a.positional[0], cd)
}

// (expand ref 8)
func expandForm(ev *evaluation, a *argList) (zygo.Sexp, error) {
	if len(a.positional) != 2 {
		return nil, errors.New("requires a brush and a distance")
	}
	d, err := number(a.positional[1])
	if err != nil {
		return nil, fmt.Errorf("distance: %w", err)
	}
	return unary(ev, "expand", graph.NodeExpand, a.positional[0], graph.ExpandData{Delta: d})
}

// (move-vertex ref :from (vec3 64 64 64) :by (vec3 8 0 0))
func moveVertexForm(ev *evaluation, a *argList) (zygo.Sexp, error) {
	if len(a.positional) != 1 {
		return nil, errors.New("requires one brush reference")
	}
	if !a.has("from") {
		return nil, errors.New("requires :from")
	}
	var vd graph.VertexEditData
	a.vec("from", &vd.From)
	a.vec("by", &vd.Delta)
	if a.err != nil {
		return nil, a.err
	}
	return unary(ev, "move-vertex", graph.NodeVertexEdit, a.positional[0], vd)
}

// (group "name" (place ...) (subtract ...) ...)
func groupForm(ev *evaluation, a *argList) (zygo.Sexp, error) {
	name, err := uniqueName(ev, a)
	if err != nil {
		return nil, err
	}
	children, err := ev.refs(a.positional[1:])
	if err != nil {
		return nil, err
	}
	ref := ev.add(&graph.Node{
		ID:       graph.NewNodeID("group/" + name),
		Kind:     graph.NodeGroup,
		Name:     name,
		Children: children,
		Data:     graph.GroupData{},
	})
	ev.g.AddRoot(ref.id)
	ev.group = true
	return ref, nil
}
