package graph

import (
	"errors"
	"fmt"

	"github.com/chazu/brushwork/pkg/brush"
	"github.com/chazu/brushwork/pkg/geom"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrNoVertex is returned by a vertex edit whose From position is not a
// vertex of the brush.
var ErrNoVertex = errors.New("graph: no vertex at position")

// Build creates the brush described by d. Faces get d.Texture, or
// defaultTexture if d has none.
func (d BrushData) Build(bd *brush.Builder, defaultTexture string) (*brush.Brush, error) {
	tex := d.Texture
	if tex == "" {
		tex = defaultTexture
	}
	switch d.Shape {
	case ShapeBox:
		return bd.CreateCuboid(sdf.Box3{Min: d.Min.V3(), Max: d.Max.V3()}, tex)
	case ShapePrism:
		return bd.CreatePrism(d.Center.V3(), d.Radius, d.Height, d.Sides, tex)
	case ShapeHull:
		points := make([]v3.Vec, len(d.Points))
		for i, p := range d.Points {
			points[i] = p.V3()
		}
		return bd.CreateBrush(points, tex)
	}
	return nil, fmt.Errorf("graph: unknown brush shape %d", d.Shape)
}

// Affine returns the transform: rotation first, then translation.
func (d TransformData) Affine() geom.Affine {
	t := geom.Identity()
	if d.Rotation != nil {
		t = geom.RotationEuler(d.Rotation.X, d.Rotation.Y, d.Rotation.Z)
	}
	if d.Translation != nil {
		t = geom.Translation(d.Translation.V3()).Mul(t)
	}
	return t
}

// Plane returns the clip plane. It returns false if the points are
// colinear.
func (d ClipData) Plane() (geom.Plane, bool) {
	return geom.PlaneFromPoints(d.Points[0].V3(), d.Points[1].V3(), d.Points[2].V3())
}

// Apply moves the vertex of b at d.From by d.Delta. A zero delta leaves b
// unchanged.
func (d VertexEditData) Apply(b *brush.Brush, worldBounds sdf.Box3, uvLock bool) error {
	from := d.From.V3()
	if !b.HasVertex(from) {
		return fmt.Errorf("%w %v", ErrNoVertex, from)
	}
	if geom.IsZero(d.Delta.V3(), geom.AlmostZero) {
		return nil
	}
	if _, err := b.MoveVertices(worldBounds, []v3.Vec{from}, d.Delta.V3(), uvLock); err != nil {
		return fmt.Errorf("graph: move vertex %v by %v: %w", from, d.Delta.V3(), err)
	}
	return nil
}

// BuildBrush builds the brush of a brush node, or of a chain of vertex
// edits that ends in a brush node.
func (g *DesignGraph) BuildBrush(n *Node, bd *brush.Builder) (*brush.Brush, error) {
	switch d := n.Data.(type) {
	case BrushData:
		b, err := d.Build(bd, g.Defaults.Texture)
		if err != nil {
			return nil, fmt.Errorf("graph: build %s: %w", n.DisplayName(), err)
		}
		return b, nil
	case VertexEditData:
		if len(n.Children) != 1 {
			return nil, fmt.Errorf("graph: vertex edit %s needs one child, has %d", n.DisplayName(), len(n.Children))
		}
		child := g.Get(n.Children[0])
		if child == nil {
			return nil, fmt.Errorf("graph: vertex edit %s: child %s does not exist", n.DisplayName(), n.Children[0].Short())
		}
		b, err := g.BuildBrush(child, bd)
		if err != nil {
			return nil, err
		}
		if err := d.Apply(b, bd.WorldBounds(), g.Defaults.UVLock); err != nil {
			return nil, fmt.Errorf("graph: vertex edit %s: %w", n.DisplayName(), err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("graph: node %s is a %s, not a brush", n.DisplayName(), n.Kind)
}
