// Package brushes implements the kernel.Kernel interface directly on
// convex brushes. Solids are sets of disjoint brushes; booleans and edits
// are exact and keep face textures, so meshes carry texture coordinates.
package brushes

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/brushwork/pkg/brush"
	"github.com/chazu/brushwork/pkg/geom"
	"github.com/chazu/brushwork/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface checks.
var _ kernel.Kernel = (*BrushKernel)(nil)
var _ kernel.Solid = (*brushSolid)(nil)

// brushSolid is the union of a set of brushes.
type brushSolid struct {
	brushes []*brush.Brush
}

// BoundingBox returns the axis-aligned bounding box. An empty solid has a
// zero box.
func (s *brushSolid) BoundingBox() (min, max [3]float64) {
	if len(s.brushes) == 0 {
		return min, max
	}
	bb := s.brushes[0].Bounds()
	for _, b := range s.brushes[1:] {
		bb = bb.Extend(b.Bounds())
	}
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// Brushes returns the brushes of a solid made by this backend, or nil.
func Brushes(s kernel.Solid) []*brush.Brush {
	if bs, ok := s.(*brushSolid); ok {
		return bs.brushes
	}
	return nil
}

// BrushKernel implements kernel.Kernel on brushes. Every operation works on
// copies; solids handed out are never modified.
type BrushKernel struct {
	builder        *brush.Builder
	defaultTexture string
	uvLock         bool
}

// New returns a kernel that creates faces through builder. Faces created
// by clipping or subtracting get defaultTexture.
func New(builder *brush.Builder, defaultTexture string, uvLock bool) *BrushKernel {
	return &BrushKernel{builder: builder, defaultTexture: defaultTexture, uvLock: uvLock}
}

func unwrap(s kernel.Solid) []*brush.Brush {
	return s.(*brushSolid).brushes
}

func wrap(brushes []*brush.Brush) kernel.Solid {
	return &brushSolid{brushes: brushes}
}

// Brush returns a solid holding a copy of b.
func (k *BrushKernel) Brush(b *brush.Brush) kernel.Solid {
	return wrap([]*brush.Brush{b.Clone()})
}

// Union returns the brushes of both solids. Overlapping brushes are kept as
// they are.
func (k *BrushKernel) Union(a, b kernel.Solid) kernel.Solid {
	out := make([]*brush.Brush, 0, len(unwrap(a))+len(unwrap(b)))
	out = append(out, unwrap(a)...)
	out = append(out, unwrap(b)...)
	return wrap(out)
}

// Difference subtracts every brush of b from every brush of a.
func (k *BrushKernel) Difference(a, b kernel.Solid) (kernel.Solid, error) {
	fragments := unwrap(a)
	for _, sub := range unwrap(b) {
		next := make([]*brush.Brush, 0, len(fragments))
		for _, f := range fragments {
			if !f.Intersects(sub) {
				next = append(next, f)
				continue
			}
			pieces, err := f.Subtract(k.builder.WorldBounds(), k.builder.Format(), k.defaultTexture, sub)
			if err != nil {
				return nil, fmt.Errorf("brushes: difference: %w", err)
			}
			next = append(next, pieces...)
		}
		fragments = next
	}
	return wrap(fragments), nil
}

// Intersection returns the pairwise common volumes of the brushes of a and
// b. Pairs that do not overlap contribute nothing.
func (k *BrushKernel) Intersection(a, b kernel.Solid) (kernel.Solid, error) {
	var out []*brush.Brush
	for _, ba := range unwrap(a) {
		for _, bb := range unwrap(b) {
			c := ba.Clone()
			err := c.Intersect(k.builder.WorldBounds(), bb)
			if errors.Is(err, brush.ErrEmptyBrush) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("brushes: intersection: %w", err)
			}
			out = append(out, c)
		}
	}
	return wrap(out), nil
}

// Clip cuts every brush by a new face on plane. Brushes entirely in front
// of the plane are dropped.
func (k *BrushKernel) Clip(s kernel.Solid, plane geom.Plane) (kernel.Solid, error) {
	p0, p1, p2 := planePoints(plane)
	face, err := k.builder.CreateFace(p0, p1, p2, k.defaultTexture)
	if err != nil {
		return nil, fmt.Errorf("brushes: clip: %w", err)
	}
	var out []*brush.Brush
	for _, b := range unwrap(s) {
		c := b.Clone()
		err := c.Clip(k.builder.WorldBounds(), face.Clone())
		switch {
		case errors.Is(err, brush.ErrUnchanged):
			out = append(out, b)
		case errors.Is(err, brush.ErrEmptyBrush):
		case err != nil:
			return nil, fmt.Errorf("brushes: clip: %w", err)
		default:
			out = append(out, c)
		}
	}
	return wrap(out), nil
}

// planePoints returns three points on plane whose face normal is the plane
// normal.
func planePoints(plane geom.Plane) (p0, p1, p2 v3.Vec) {
	u, v := geom.PlaneBasis(plane.Normal)
	p0 = plane.Anchor()
	return p0, p0.Add(v.MulScalar(64)), p0.Add(u.MulScalar(64))
}

// Expand moves the faces of every brush outward by delta. A negative delta
// shrinks the brushes.
func (k *BrushKernel) Expand(s kernel.Solid, delta float64) (kernel.Solid, error) {
	out := make([]*brush.Brush, 0, len(unwrap(s)))
	for _, b := range unwrap(s) {
		c := b.Clone()
		if err := c.Expand(k.builder.WorldBounds(), delta, k.uvLock); err != nil {
			return nil, fmt.Errorf("brushes: expand by %g: %w", delta, err)
		}
		out = append(out, c)
	}
	return wrap(out), nil
}

// Transform applies t to every brush.
func (k *BrushKernel) Transform(s kernel.Solid, t geom.Affine) (kernel.Solid, error) {
	out := make([]*brush.Brush, 0, len(unwrap(s)))
	for _, b := range unwrap(s) {
		c := b.Clone()
		if err := c.Transform(k.builder.WorldBounds(), t, k.uvLock); err != nil {
			return nil, fmt.Errorf("brushes: transform: %w", err)
		}
		out = append(out, c)
	}
	return wrap(out), nil
}

// ToMesh triangulates every face polygon as a fan. Vertices are not shared
// between faces so that each carries its face normal and texture
// coordinates. Triangles are grouped into one submesh per texture in order
// of first use.
func (k *BrushKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	byTexture := make(map[string][]*brush.Face)
	var order []string
	for _, b := range unwrap(s) {
		for _, f := range b.Faces() {
			name := f.TextureName()
			if _, ok := byTexture[name]; !ok {
				order = append(order, name)
			}
			byTexture[name] = append(byTexture[name], f)
		}
	}

	mesh := &kernel.Mesh{}
	for _, name := range order {
		start := len(mesh.Indices)
		for _, f := range byTexture[name] {
			if err := appendFace(mesh, f); err != nil {
				return nil, err
			}
		}
		mesh.Submeshes = append(mesh.Submeshes, kernel.Submesh{
			Texture: name,
			Start:   start,
			Count:   len(mesh.Indices) - start,
		})
	}
	return mesh, nil
}

func appendFace(mesh *kernel.Mesh, f *brush.Face) error {
	poly := f.Vertices()
	if len(poly) < 3 {
		return fmt.Errorf("brushes: face %s has %d vertices", f, len(poly))
	}
	n := f.Normal()
	// Fans are emitted counter clockwise as seen from outside.
	reverse := poly[1].Sub(poly[0]).Cross(poly[2].Sub(poly[0])).Dot(n) < 0
	base := uint32(mesh.VertexCount())
	for i := range poly {
		p := poly[i]
		if reverse {
			p = poly[len(poly)-1-i]
		}
		c := f.TextureCoords(p)
		mesh.Vertices = append(mesh.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
		mesh.Normals = append(mesh.Normals, float32(n.X), float32(n.Y), float32(n.Z))
		mesh.UVs = append(mesh.UVs, float32(c.X), float32(c.Y))
	}
	for i := 1; i+1 < len(poly); i++ {
		mesh.Indices = append(mesh.Indices, base, base+uint32(i), base+uint32(i+1))
	}
	return nil
}

// Volume returns the total volume of the brushes of s, or NaN for a solid
// from another backend.
func Volume(s kernel.Solid) float64 {
	bs, ok := s.(*brushSolid)
	if !ok {
		return math.NaN()
	}
	var v float64
	for _, b := range bs.brushes {
		v += b.Volume()
	}
	return v
}
