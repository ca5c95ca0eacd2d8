package graph

import (
	"encoding/json"
	"fmt"
	"slices"
	"testing"
)

func TestNewDefaults(t *testing.T) {
	g := New()
	if g.Nodes == nil || g.NameIndex == nil || g.Textures == nil {
		t.Fatal("New left a map nil")
	}
	want := GlobalDefaults{Texture: DefaultTexture, Format: "standard", WorldExtent: DefaultWorldExtent}
	if g.Defaults.Texture != want.Texture || g.Defaults.Format != want.Format || g.Defaults.WorldExtent != want.WorldExtent {
		t.Errorf("defaults = %+v, want %+v", g.Defaults, want)
	}
	if n := g.NodeCount(); n != 0 {
		t.Errorf("NodeCount() = %d, want 0", n)
	}
}

func TestNameIndex(t *testing.T) {
	g := New()
	wall := boxNode("wall", Vec3{}, Vec3{256, 16, 128})
	wall.Source = SourceRef{Line: 3, Col: 1}
	g.AddNode(wall)
	g.AddRoot(wall.ID)

	if wall.ContentHash.IsZero() {
		t.Error("AddNode left the content hash empty")
	}
	if n := g.Lookup("wall"); n != wall {
		t.Errorf("Lookup(wall) = %v", n)
	}
	if g.MustLookup("wall") != wall || g.Get(wall.ID) != wall {
		t.Error("MustLookup and Get disagree with Lookup")
	}
	if g.Lookup("nonexistent") != nil {
		t.Error("Lookup found a missing name")
	}
	if !slices.Equal(g.Roots, []NodeID{wall.ID}) {
		t.Errorf("roots = %v", g.Roots)
	}
	if pos := g.SourceOf(wall.ID); pos != wall.Source {
		t.Errorf("SourceOf = %+v, want %+v", pos, wall.Source)
	}
	if pos := g.SourceOf(NewNodeID("nowhere")); pos != (SourceRef{}) {
		t.Errorf("SourceOf(unknown) = %+v, want zero", pos)
	}
}

func TestMustLookupPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustLookup did not panic on a missing name")
		}
	}()
	New().MustLookup("missing")
}

func TestBrushesAndOperations(t *testing.T) {
	g := New()

	floorID := NewNodeID("defbrush/floor")
	pillarID := NewNodeID("defbrush/pillar")
	cutID := NewNodeID("subtract/floor-pillar")

	g.AddNode(&Node{
		ID: floorID, Kind: NodeBrush, Name: "floor",
		Data: BrushData{Shape: ShapeBox, Min: Vec3{0, 0, 0}, Max: Vec3{512, 512, 16}},
	})
	g.AddNode(&Node{
		ID: pillarID, Kind: NodeBrush, Name: "pillar",
		Data: BrushData{Shape: ShapePrism, Center: Vec3{256, 256, 64}, Radius: 32, Height: 128, Sides: 8},
	})
	g.AddNode(&Node{
		ID: cutID, Kind: NodeCSG,
		Children: []NodeID{floorID, pillarID},
		Data:     CSGData{Op: CSGSubtract},
	})

	brushes := g.Brushes()
	if len(brushes) != 2 {
		t.Fatalf("Brushes() count = %d, want 2", len(brushes))
	}
	if brushes[0].Name != "floor" || brushes[1].Name != "pillar" {
		t.Errorf("Brushes() order = %q, %q, want floor, pillar", brushes[0].Name, brushes[1].Name)
	}
	ops := g.Operations()
	if len(ops) != 1 {
		t.Errorf("Operations() count = %d, want 1", len(ops))
	}
}

func TestChildren(t *testing.T) {
	g := New()
	step := boxNode("step", Vec3{}, Vec3{64, 32, 16})
	stairs := groupNode("stairs", step.ID)
	g.AddNode(step)
	g.AddNode(stairs)

	children := g.Children(stairs)
	if len(children) != 1 || children[0] != step {
		t.Errorf("Children(stairs) = %v, want [step]", children)
	}
	if len(g.Children(step)) != 0 {
		t.Error("a brush has no children")
	}
}

func TestNodeID(t *testing.T) {
	wall := NewNodeID("defbrush/wall")
	switch {
	case wall != NewNodeID("defbrush/wall"):
		t.Error("NewNodeID is not deterministic")
	case wall == NewNodeID("defbrush/floor"):
		t.Error("different paths share an ID")
	case wall.IsZero() || !ZeroID.IsZero():
		t.Error("IsZero is wrong")
	case len(wall.Short()) != 12 || len(wall.String()) != 64:
		t.Errorf("Short %q String %q have the wrong length", wall.Short(), wall.String())
	}

	text, err := wall.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	var back NodeID
	if err := back.UnmarshalText(text); err != nil || back != wall {
		t.Errorf("round trip = %s, %v", back.Short(), err)
	}
	if err := back.UnmarshalText([]byte("abc")); err == nil {
		t.Error("UnmarshalText accepted a short id")
	}
}

func TestContentHash(t *testing.T) {
	box := func(max float64) *Node {
		return &Node{
			Kind: NodeBrush,
			Data: BrushData{Shape: ShapeBox, Max: Vec3{max, max, max}},
		}
	}
	a, b, c := HashContent(box(16)), HashContent(box(16)), HashContent(box(32))
	if a != b {
		t.Error("equal content should hash equal")
	}
	if a == c {
		t.Error("different content should hash differently")
	}

	withChild := box(16)
	withChild.Children = []NodeID{NewNodeID("x")}
	if HashContent(withChild) == a {
		t.Error("children should contribute to the hash")
	}
}

func TestGraphJSON(t *testing.T) {
	g := New()
	id := NewNodeID("defbrush/wall")
	g.AddNode(&Node{
		ID: id, Kind: NodeBrush, Name: "wall",
		Data: BrushData{Shape: ShapeBox, Max: Vec3{16, 16, 16}},
	})
	g.AddRoot(id)

	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	nodes, ok := decoded["nodes"].(map[string]any)
	if !ok {
		t.Fatalf("nodes = %T, want object", decoded["nodes"])
	}
	if _, ok := nodes[id.String()]; !ok {
		t.Errorf("nodes are not keyed by hex id: %v", nodes)
	}
}

func TestVec3(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}

	sum := a.Add(b)
	if sum != (Vec3{5, 7, 9}) {
		t.Errorf("Add = %v, want (5, 7, 9)", sum)
	}

	scaled := a.Scale(2)
	if scaled != (Vec3{2, 4, 6}) {
		t.Errorf("Scale = %v, want (2, 4, 6)", scaled)
	}

	if FromV3(a.V3()) != a {
		t.Errorf("FromV3(V3()) = %v, want %v", FromV3(a.V3()), a)
	}
}

func TestStringers(t *testing.T) {
	tests := []struct {
		got  fmt.Stringer
		want string
	}{
		{NodeBrush, "brush"},
		{NodeVertexEdit, "vertex-edit"},
		{NodeKind(99), "unknown"},
		{ShapePrism, "prism"},
		{CSGIntersect, "intersect"},
		{Vec3{1.5, 2.5, 3.5}, "(1.5, 2.5, 3.5)"},
	}
	for _, tt := range tests {
		if s := tt.got.String(); s != tt.want {
			t.Errorf("String() = %q, want %q", s, tt.want)
		}
	}
}
