package engine

import (
	"strings"
	"testing"

	"github.com/chazu/brushwork/pkg/graph"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(box :texture "floor")`,
			expect: `(box "__kw_texture" "floor")`,
		},
		{
			name:   "multiple keywords",
			input:  `(prism :radius 16 :height 64)`,
			expect: `(prism "__kw_radius" 16 "__kw_height" 64)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(move-vertex ref :from v)`,
			expect: `(move_vertex ref "__kw_from" v)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative number preserved",
			input:  `(vec3 -8 0 -16)`,
			expect: `(vec3 -8 0 -16)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:uv-lock`,
			expect: `"__kw_uv-lock"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// mustEval evaluates source and fails the test on any error.
func mustEval(t *testing.T, eng *Engine, source string) *graph.DesignGraph {
	t.Helper()
	g, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if g == nil {
		t.Fatal("expected non-nil graph")
	}
	return g
}

// evalError evaluates source and returns the joined eval error messages.
func evalError(t *testing.T, source string) string {
	t.Helper()
	g, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if g != nil {
		t.Fatal("expected nil graph on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval errors")
	}
	msgs := make([]string, len(evalErrs))
	for i, e := range evalErrs {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// ---------------------------------------------------------------------------
// Brush primitives
// ---------------------------------------------------------------------------

func TestSimpleBrush(t *testing.T) {
	g := mustEval(t, NewEngine(), `
(defbrush "floor"
  (box :min (vec3 0 0 -16) :max (vec3 512 512 0) :texture "stone"))
`)
	if g.NodeCount() != 1 {
		t.Fatalf("expected 1 node, got %d", g.NodeCount())
	}

	floor := g.Lookup("floor")
	if floor == nil {
		t.Fatal("expected node named 'floor'")
	}
	if floor.Kind != graph.NodeBrush {
		t.Errorf("expected NodeBrush, got %s", floor.Kind)
	}

	bd, ok := floor.Data.(graph.BrushData)
	if !ok {
		t.Fatalf("expected BrushData, got %T", floor.Data)
	}
	if bd.Shape != graph.ShapeBox {
		t.Errorf("shape = %s, want box", bd.Shape)
	}
	if bd.Min != (graph.Vec3{X: 0, Y: 0, Z: -16}) || bd.Max != (graph.Vec3{X: 512, Y: 512, Z: 0}) {
		t.Errorf("bounds = %s..%s", bd.Min, bd.Max)
	}
	if bd.Texture != "stone" {
		t.Errorf("texture = %q, want stone", bd.Texture)
	}

	// Without a group every unreferenced node is a root.
	if len(g.Roots) != 1 || g.Roots[0] != floor.ID {
		t.Errorf("roots = %v, want [floor]", g.Roots)
	}
}

func TestVariableReference(t *testing.T) {
	g := mustEval(t, NewEngine(), `
(def h 16)
(defbrush "slab" (box :min (vec3 0 0 0) :max (vec3 64 64 h)))
`)
	slab := g.Lookup("slab")
	if slab == nil {
		t.Fatal("expected node named 'slab'")
	}
	bd := slab.Data.(graph.BrushData)
	if bd.Max.Z != 16 {
		t.Errorf("expected height=16 (from variable), got %g", bd.Max.Z)
	}
}

func TestPrism(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		wantSides int
	}{
		{"default sides", `(defbrush "p" (prism :radius 16 :height 64))`, 8},
		{"explicit sides", `(defbrush "p" (prism :center (vec3 0 0 32) :radius 16 :height 64 :sides 6))`, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustEval(t, NewEngine(), tt.source)
			bd := g.MustLookup("p").Data.(graph.BrushData)
			if bd.Shape != graph.ShapePrism {
				t.Errorf("shape = %s, want prism", bd.Shape)
			}
			if bd.Sides != tt.wantSides {
				t.Errorf("sides = %d, want %d", bd.Sides, tt.wantSides)
			}
			if bd.Radius != 16 || bd.Height != 64 {
				t.Errorf("radius, height = %g, %g", bd.Radius, bd.Height)
			}
		})
	}
}

func TestHull(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"list", `(defbrush "h" (hull (list (vec3 0 0 0) (vec3 64 0 0) (vec3 0 64 0) (vec3 0 0 64))))`},
		{"arguments", `(defbrush "h" (hull (vec3 0 0 0) (vec3 64 0 0) (vec3 0 64 0) (vec3 0 0 64) :texture "rock"))`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustEval(t, NewEngine(), tt.source)
			bd := g.MustLookup("h").Data.(graph.BrushData)
			if bd.Shape != graph.ShapeHull {
				t.Errorf("shape = %s, want hull", bd.Shape)
			}
			if len(bd.Points) != 4 {
				t.Fatalf("points = %v, want 4", bd.Points)
			}
			if bd.Points[1] != (graph.Vec3{X: 64}) {
				t.Errorf("points[1] = %s", bd.Points[1])
			}
		})
	}
}

func TestTextureDeclaration(t *testing.T) {
	g := mustEval(t, NewEngine(), `
(def brick (texture "brick" 128 64))
(defbrush "wall" (box :max (vec3 64 8 128) :texture brick))
`)
	spec, ok := g.Textures["brick"]
	if !ok {
		t.Fatal("texture brick not declared")
	}
	if spec.Width != 128 || spec.Height != 64 {
		t.Errorf("size = %dx%d, want 128x64", spec.Width, spec.Height)
	}
	if bd := g.MustLookup("wall").Data.(graph.BrushData); bd.Texture != "brick" {
		t.Errorf("texture = %q, want brick", bd.Texture)
	}
}

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

func TestGroupWithPlacement(t *testing.T) {
	g := mustEval(t, NewEngine(), `
(defbrush "floor" (box :min (vec3 0 0 -16) :max (vec3 512 512 0)))
(defbrush "crate" (box :max (vec3 32 32 32)))

(group "room"
  (place (brush "floor") :at (vec3 0 0 0))
  (place (brush "crate") :at (vec3 64 64 0) :rotate (vec3 0 0 45)))
`)
	// 2 brushes + 2 transforms + 1 group = 5 nodes
	if g.NodeCount() != 5 {
		t.Fatalf("expected 5 nodes, got %d", g.NodeCount())
	}

	room := g.Lookup("room")
	if room == nil {
		t.Fatal("expected node named 'room'")
	}
	if room.Kind != graph.NodeGroup {
		t.Errorf("room: expected NodeGroup, got %s", room.Kind)
	}
	if len(room.Children) != 2 {
		t.Errorf("room: expected 2 children, got %d", len(room.Children))
	}
	if len(g.Roots) != 1 || g.Roots[0] != room.ID {
		t.Errorf("roots = %v, want [room]", g.Roots)
	}

	rotated := 0
	for _, id := range room.Children {
		n := g.Get(id)
		if n.Kind != graph.NodeTransform {
			t.Fatalf("child kind = %s, want transform", n.Kind)
		}
		td := n.Data.(graph.TransformData)
		if td.Translation == nil {
			t.Error("transform node: expected non-nil translation")
		}
		if td.Rotation != nil {
			rotated++
			if td.Rotation.Z != 45 {
				t.Errorf("rotation = %s", *td.Rotation)
			}
		}
	}
	if rotated != 1 {
		t.Errorf("expected 1 rotated transform, got %d", rotated)
	}
}

func TestSubtractAnonymousOperand(t *testing.T) {
	g := mustEval(t, NewEngine(), `
(defbrush "wall" (box :max (vec3 256 16 128)))
(subtract (brush "wall") (box :min (vec3 96 -8 0) :max (vec3 160 24 96) :texture "trim"))
`)
	// wall + anonymous door brush + csg
	if g.NodeCount() != 3 {
		t.Fatalf("expected 3 nodes, got %d", g.NodeCount())
	}
	if len(g.Roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(g.Roots))
	}
	csg := g.Get(g.Roots[0])
	if csg.Kind != graph.NodeCSG {
		t.Fatalf("root kind = %s, want csg", csg.Kind)
	}
	if op := csg.Data.(graph.CSGData).Op; op != graph.CSGSubtract {
		t.Errorf("op = %s, want subtract", op)
	}
	if len(csg.Children) != 2 || csg.Children[0] != g.MustLookup("wall").ID {
		t.Fatalf("children = %v", csg.Children)
	}
	door := g.Get(csg.Children[1])
	if door.Kind != graph.NodeBrush || door.Name != "" {
		t.Errorf("door: kind %s name %q, want anonymous brush", door.Kind, door.Name)
	}
	if bd := door.Data.(graph.BrushData); bd.Texture != "trim" {
		t.Errorf("door texture = %q", bd.Texture)
	}
}

func TestIntersectClipExpand(t *testing.T) {
	g := mustEval(t, NewEngine(), `
(defbrush "a" (box :max (vec3 64 64 64)))
(defbrush "b" (box :min (vec3 32 0 0) :max (vec3 96 64 64)))
(group "parts"
  (intersect (brush "a") (brush "b"))
  (clip (brush "a") (vec3 32 0 0) (vec3 32 0 1) (vec3 32 1 0))
  (expand (brush "b") 8))
`)
	kinds := map[graph.NodeKind]int{}
	for _, n := range g.Nodes {
		kinds[n.Kind]++
	}
	if kinds[graph.NodeCSG] != 1 || kinds[graph.NodeClip] != 1 || kinds[graph.NodeExpand] != 1 {
		t.Errorf("kinds = %v", kinds)
	}

	parts := g.MustLookup("parts")
	clip := g.Get(parts.Children[1])
	cd := clip.Data.(graph.ClipData)
	if cd.Points[1] != (graph.Vec3{X: 32, Z: 1}) {
		t.Errorf("clip points = %v", cd.Points)
	}
	expand := g.Get(parts.Children[2])
	if d := expand.Data.(graph.ExpandData).Delta; d != 8 {
		t.Errorf("expand delta = %g, want 8", d)
	}
	if errs := graph.Validate(g); len(errs) != 0 {
		t.Errorf("unexpected validation errors: %v", errs)
	}
}

func TestMoveVertex(t *testing.T) {
	g := mustEval(t, NewEngine(), `
(defbrush "block" (box :max (vec3 32 32 32)))
(move-vertex (brush "block") :from (vec3 32 32 32) :by (vec3 8 8 0))
`)
	root := g.Get(g.Roots[0])
	if root.Kind != graph.NodeVertexEdit {
		t.Fatalf("root kind = %s, want vertex-edit", root.Kind)
	}
	vd := root.Data.(graph.VertexEditData)
	if vd.From != (graph.Vec3{X: 32, Y: 32, Z: 32}) || vd.Delta != (graph.Vec3{X: 8, Y: 8}) {
		t.Errorf("edit = %+v", vd)
	}
	if res := graph.ValidateAll(g); len(res.Errors) != 0 {
		t.Errorf("unexpected validation errors: %v", res.Errors)
	}
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"unknown brush", `(brush "nonexistent")`, "nonexistent"},
		{"duplicate brush", `(defbrush "a" (box)) (defbrush "a" (box))`, "already defined"},
		{"defbrush body", `(defbrush "a" 42)`, "expected box"},
		{"vec3 arity", `(vec3 1 2)`, "exactly 3"},
		{"subtract arity", `(subtract (box))`, "at least 2"},
		{"clip arity", `(clip (box) (vec3 0 0 0))`, "3 points"},
		{"place operand", `(place 5)`, "expected brush or node reference"},
		{"move-vertex from", `(move-vertex (box) :by (vec3 1 0 0))`, ":from"},
		{"texture size", `(texture "t" 0 64)`, "must be positive"},
		{"prism sides", `(prism :radius 1 :height 1 :sides 2.5)`, "expected integer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := evalError(t, tt.source)
			if !strings.Contains(msg, tt.want) {
				t.Errorf("error %q does not mention %q", msg, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Full example
// ---------------------------------------------------------------------------

const roomSource = `
;; A floor with a pillar cut out of it and a wall with a doorway.
(texture "stone" 64 64)
(texture "brick" 128 64)

(defbrush "floor"  (box :min (vec3 0 0 -16) :max (vec3 512 512 0) :texture "stone"))
(defbrush "pillar" (prism :center (vec3 256 256 0) :radius 32 :height 128 :sides 8))
(defbrush "wall"   (box :min (vec3 0 0 0) :max (vec3 512 16 128) :texture "brick"))

(group "room"
  (subtract (brush "floor") (brush "pillar"))
  (place (subtract (brush "wall") (box :min (vec3 224 -8 0) :max (vec3 288 24 96) :texture "brick"))
         :at (vec3 0 496 0)))
`

func TestFullRoomExample(t *testing.T) {
	eng := NewEngine()
	eng.SetDefaults(graph.New().Defaults, map[string]graph.TextureSpec{"base": {Width: 64, Height: 64}})

	res, err := eng.Check(roomSource)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}

	g := res.Graph
	// 3 named brushes + door + 2 csg + place + group
	if g.NodeCount() != 8 {
		t.Errorf("expected 8 nodes, got %d", g.NodeCount())
	}
	if len(g.Textures) != 3 {
		t.Errorf("textures = %v", g.Textures)
	}
	if len(g.Roots) != 1 || g.Get(g.Roots[0]).Name != "room" {
		t.Errorf("roots = %v", g.Roots)
	}
}

func TestEvaluateIDsDeterministic(t *testing.T) {
	eng := NewEngine()
	a := mustEval(t, eng, roomSource)
	b := mustEval(t, eng, roomSource)

	if a.NodeCount() != b.NodeCount() {
		t.Fatalf("node counts differ: %d vs %d", a.NodeCount(), b.NodeCount())
	}
	for id, n := range a.Nodes {
		m := b.Get(id)
		if m == nil {
			t.Fatalf("node %s missing from second evaluation", id.Short())
		}
		if n.ContentHash != m.ContentHash {
			t.Errorf("node %s content hash differs", n.DisplayName())
		}
	}
}

func TestCheckReportsValidation(t *testing.T) {
	res, err := NewEngine().Check(`
(defbrush "flat" (box :min (vec3 0 0 0) :max (vec3 0 32 32)))
(defbrush "sheet" (box :max (vec3 64 64 0.5)))
`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	found := false
	for _, e := range res.Errors {
		if strings.Contains(e.Message, "size along X") {
			found = true
			if e.Line != 2 || e.Col != 1 {
				t.Errorf("error at %d:%d, want 2:1", e.Line, e.Col)
			}
		}
	}
	if !found {
		t.Errorf("expected box size error, got %v", res.Errors)
	}
	if res.Graph == nil {
		t.Error("expected graph for validation failures")
	}
}

func TestCheckWarnings(t *testing.T) {
	res, err := NewEngine().Check(`(defbrush "sheet" (box :max (vec3 64 64 0.5)))`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0].Message, "detail") {
		t.Fatalf("warnings = %v, want one detail warning", res.Warnings)
	}
	if res.Warnings[0].NodeID != res.Graph.MustLookup("sheet").ID {
		t.Error("warning not attached to the sheet node")
	}
}

func TestSetDefaults(t *testing.T) {
	eng := NewEngine()
	d := graph.GlobalDefaults{Texture: "wood", Format: "valve", WorldExtent: 1024}
	eng.SetDefaults(d, map[string]graph.TextureSpec{"wood": {Width: 32, Height: 32}})

	g := mustEval(t, eng, `(defbrush "b" (box :max (vec3 8 8 8)))`)
	if g.Defaults != d {
		t.Errorf("defaults = %+v, want %+v", g.Defaults, d)
	}
	if g.Textures["wood"].Width != 32 {
		t.Errorf("textures = %v", g.Textures)
	}
}

// ---------------------------------------------------------------------------
// Regressions
// ---------------------------------------------------------------------------

func TestEmptySourceStillWorks(t *testing.T) {
	g := mustEval(t, NewEngine(), "")
	if g.NodeCount() != 0 {
		t.Errorf("expected empty graph, got %d nodes", g.NodeCount())
	}
}

func TestArithmeticStillWorks(t *testing.T) {
	g := mustEval(t, NewEngine(), "(+ 1 2)")
	if len(g.Roots) != 0 {
		t.Errorf("expected no roots, got %d", len(g.Roots))
	}
}

func TestLocateSources(t *testing.T) {
	g := mustEval(t, NewEngine(), `(texture "stone" 64 64)
  (defbrush "a" (box :max (vec3 8 8 8)))
(group "g" (brush "a") (box :min (vec3 16 0 0) :max (vec3 24 8 8)))
`)
	tests := []struct {
		name      string
		line, col int
	}{
		{"a", 2, 3},
		{"g", 3, 1},
	}
	for _, tt := range tests {
		n := g.Lookup(tt.name)
		if n == nil {
			t.Fatalf("no node %q", tt.name)
		}
		if n.Source.Line != tt.line || n.Source.Col != tt.col {
			t.Errorf("%s at %d:%d, want %d:%d", tt.name, n.Source.Line, n.Source.Col, tt.line, tt.col)
		}
	}
	for _, n := range g.Nodes {
		if n.Name == "" && n.Source.Line != 0 {
			t.Errorf("anonymous node %s has a position", n.ID.Short())
		}
	}
}
