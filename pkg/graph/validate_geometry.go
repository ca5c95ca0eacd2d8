package graph

import (
	"errors"
	"strings"

	"github.com/chazu/brushwork/pkg/brush"
	"github.com/chazu/brushwork/pkg/geom"
)

// geometryCheck runs the Tier 2 (geometry) and Tier 3 (texture) checks on
// a structurally sound graph. Each brush is built at most once and shared
// between the checks.
type geometryCheck struct {
	g     *DesignGraph
	nodes []*Node
	bd    *brush.Builder
	built map[NodeID]*brush.Brush
	bad   map[NodeID]bool // nodes with parameter or build errors
	f     findings
}

func newGeometryCheck(g *DesignGraph) *geometryCheck {
	return &geometryCheck{
		g:     g,
		nodes: sortedNodes(g),
		built: make(map[NodeID]*brush.Brush),
		bad:   make(map[NodeID]bool),
	}
}

// validateGeometry runs all Tier 2 and Tier 3 checks and returns errors and
// warnings separately.
func validateGeometry(g *DesignGraph) ([]ValidationError, []ValidationWarning) {
	c := newGeometryCheck(g)
	c.brushParams()
	c.clipPlanes()
	c.transforms()
	if bd, err := g.Builder(); err != nil {
		c.f.errorf(ZeroID, "%v", err)
	} else {
		c.bd = bd
		c.buildBrushes()
		c.clipEffects()
	}
	c.noOpEdits()

	c.textureNames()
	c.detailBrushes()
	return c.f.split()
}

// split separates errors from warnings.
func (f findings) split() ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning
	for _, e := range f {
		if e.Severity == SeverityWarning {
			warnings = append(warnings, ValidationWarning{NodeID: e.NodeID, Message: e.Message})
			continue
		}
		errs = append(errs, e)
	}
	return errs, warnings
}

func isBrushLike(n *Node) bool { return n.Kind == NodeBrush || n.Kind == NodeVertexEdit }

// brushParams checks the parameters of every brush primitive.
func (c *geometryCheck) brushParams() {
	for _, n := range c.nodes {
		bd, ok := n.Data.(BrushData)
		if !ok {
			continue
		}
		before := len(c.f)
		switch bd.Shape {
		case ShapeBox:
			if !bd.Min.IsFinite() || !bd.Max.IsFinite() {
				c.f.errorf(n.ID, "box corners must be finite")
				break
			}
			size := bd.Max.V3().Sub(bd.Min.V3())
			for _, axis := range []geom.Axis{geom.AxisX, geom.AxisY, geom.AxisZ} {
				if s := geom.Component(size, axis); s <= 0 {
					c.f.errorf(n.ID, "box size along %s is %.4f, must be positive", "XYZ"[axis:axis+1], s)
				}
			}
		case ShapePrism:
			if bd.Radius <= 0 {
				c.f.errorf(n.ID, "prism radius is %.4f, must be positive", bd.Radius)
			}
			if bd.Height <= 0 {
				c.f.errorf(n.ID, "prism height is %.4f, must be positive", bd.Height)
			}
			if bd.Sides < 3 {
				c.f.errorf(n.ID, "prism has %d sides, needs at least 3", bd.Sides)
			}
		case ShapeHull:
			if len(bd.Points) < 4 {
				c.f.errorf(n.ID, "hull has %d points, needs at least 4", len(bd.Points))
			}
			for _, p := range bd.Points {
				if !p.IsFinite() {
					c.f.errorf(n.ID, "hull point %v is not finite", p)
					break
				}
			}
		default:
			c.f.errorf(n.ID, "unknown brush shape %d", bd.Shape)
		}
		if len(c.f) > before {
			c.bad[n.ID] = true
		}
	}
}

// clipPlanes checks that clip points span a plane.
func (c *geometryCheck) clipPlanes() {
	for _, n := range c.nodes {
		if cd, ok := n.Data.(ClipData); ok {
			if _, ok := cd.Plane(); !ok {
				c.f.errorf(n.ID, "clip points %v are colinear", cd.Points)
			}
		}
	}
}

func (c *geometryCheck) transforms() {
	for _, n := range c.nodes {
		if td, ok := n.Data.(TransformData); ok && !td.Affine().IsValid() {
			c.f.errorf(n.ID, "transform is not finite")
		}
	}
}

// brushFor returns the brush of a brush node or vertex edit chain, or nil
// if it cannot be built. Build errors are reported once, on the node that
// failed.
func (c *geometryCheck) brushFor(n *Node) *brush.Brush {
	if b, ok := c.built[n.ID]; ok {
		return b
	}
	if c.bad[n.ID] || c.dependsOnBad(n) {
		return nil
	}
	b, err := c.g.BuildBrush(n, c.bd)
	if err != nil {
		c.bad[n.ID] = true
		if errors.Is(err, brush.ErrIncompleteBrush) {
			c.f.errorf(n.ID, "brush %q leaves the world bounds: %v", n.DisplayName(), err)
		} else {
			c.f.errorf(n.ID, "%v", err)
		}
		return nil
	}
	c.built[n.ID] = b
	return b
}

// dependsOnBad reports whether a vertex edit chain starting at n reaches a
// node that failed.
func (c *geometryCheck) dependsOnBad(n *Node) bool {
	for n != nil && n.Kind == NodeVertexEdit && len(n.Children) == 1 {
		if c.bad[n.Children[0]] {
			return true
		}
		n = c.g.Nodes[n.Children[0]]
	}
	return false
}

// buildBrushes builds every brush and vertex edit inside the world bounds.
func (c *geometryCheck) buildBrushes() {
	for _, n := range c.nodes {
		if isBrushLike(n) {
			c.brushFor(n)
		}
	}
}

// clipEffects warns about clips that leave a brush unchanged or remove it
// entirely.
func (c *geometryCheck) clipEffects() {
	for _, n := range c.nodes {
		cd, ok := n.Data.(ClipData)
		if !ok || len(n.Children) != 1 {
			continue
		}
		plane, ok := cd.Plane()
		child := c.g.Nodes[n.Children[0]]
		if !ok || child == nil || !isBrushLike(child) {
			continue
		}
		b := c.brushFor(child)
		if b == nil {
			continue
		}
		count := map[geom.PointStatus]int{}
		for _, p := range b.VertexPositions() {
			count[plane.PointStatus(p)]++
		}
		switch {
		case count[geom.Above] == 0:
			c.f.warnf(n.ID, "clip plane does not cut brush %q", child.DisplayName())
		case count[geom.Below] == 0:
			c.f.warnf(n.ID, "clip plane removes all of brush %q", child.DisplayName())
		}
	}
}

// noOpEdits warns about edits that do nothing.
func (c *geometryCheck) noOpEdits() {
	for _, n := range c.nodes {
		switch d := n.Data.(type) {
		case ExpandData:
			if d.Delta == 0 {
				c.f.warnf(n.ID, "expand by 0 has no effect")
			}
		case VertexEditData:
			if geom.IsZero(d.Delta.V3(), geom.AlmostZero) {
				c.f.warnf(n.ID, "vertex %v is moved by zero", d.From)
			}
		case TransformData:
			if d.Affine().IsIdentity(geom.AlmostZero) {
				c.f.warnf(n.ID, "transform is the identity")
			}
		}
	}
}

// textureNames warns about textures that were not declared. Graphs that
// declare no textures are not checked.
func (c *geometryCheck) textureNames() {
	if len(c.g.Textures) == 0 {
		return
	}
	declared := make(map[string]bool, len(c.g.Textures))
	for name := range c.g.Textures {
		declared[strings.ToLower(name)] = true
	}
	for _, n := range c.nodes {
		bd, ok := n.Data.(BrushData)
		if !ok {
			continue
		}
		tex := bd.Texture
		if tex == "" {
			tex = c.g.Defaults.Texture
		}
		if !declared[strings.ToLower(tex)] {
			c.f.warnf(n.ID, "texture %q is not declared; texture coordinates assume 1x1 texels", tex)
		}
	}
}

// detailBrushes warns about brushes thin enough to count as detail.
func (c *geometryCheck) detailBrushes() {
	if c.bd == nil {
		return
	}
	for _, n := range c.nodes {
		if !isBrushLike(n) {
			continue
		}
		if b := c.brushFor(n); b != nil && b.IsDetail() {
			c.f.warnf(n.ID, "brush %q is thinner than %g units and counts as detail", n.DisplayName(), brush.DetailThickness)
		}
	}
}
