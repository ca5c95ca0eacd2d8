// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library. A brush becomes the
// intersection of the half-spaces behind its face planes; meshes come from
// marching cubes and carry no texture coordinates. The backend is an
// independent cross-check of the exact brush kernel.
package sdfx

import (
	"fmt"

	"github.com/chazu/brushwork/pkg/brush"
	"github.com/chazu/brushwork/pkg/geom"
	"github.com/chazu/brushwork/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

var _ kernel.Kernel = (*SdfxKernel)(nil)

// DefaultCells is the marching cubes resolution along the longest side of
// a solid's bounding box.
const DefaultCells = 200

// solid is the kernel.Solid of this backend.
type solid struct{ sdf sdf.SDF3 }

func (s solid) BoundingBox() (lo, hi [3]float64) {
	bb := s.sdf.BoundingBox()
	return [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}, [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
}

// SdfxKernel meshes solids with marching cubes.
type SdfxKernel struct {
	cells int
}

// New returns a kernel meshing with DefaultCells.
func New() *SdfxKernel { return NewWithCells(DefaultCells) }

// NewWithCells returns a kernel meshing with the given number of cells.
// A non-positive count selects DefaultCells.
func NewWithCells(cells int) *SdfxKernel {
	if cells <= 0 {
		cells = DefaultCells
	}
	return &SdfxKernel{cells: cells}
}

func unwrap(s kernel.Solid) sdf.SDF3 { return s.(solid).sdf }

func wrap(s sdf.SDF3) kernel.Solid { return solid{sdf: s} }

// Brush returns the intersection of the half-spaces behind the face planes
// of b.
func (k *SdfxKernel) Brush(b *brush.Brush) kernel.Solid {
	planes := make([]geom.Plane, 0, b.FaceCount())
	for _, f := range b.Faces() {
		planes = append(planes, f.Boundary())
	}
	return wrap(&convexSDF{planes: planes, bb: b.Bounds()})
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) (kernel.Solid, error) {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b))), nil
}

// Intersection returns the intersection of two solids.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) (kernel.Solid, error) {
	return wrap(sdf.Intersect3D(unwrap(a), unwrap(b))), nil
}

// Clip intersects s with the half-space behind plane.
func (k *SdfxKernel) Clip(s kernel.Solid, plane geom.Plane) (kernel.Solid, error) {
	return wrap(&clipSDF{s: unwrap(s), plane: plane}), nil
}

// Expand offsets the surface of s by delta.
func (k *SdfxKernel) Expand(s kernel.Solid, delta float64) (kernel.Solid, error) {
	sz := unwrap(s).BoundingBox().Size()
	if delta < 0 && min(sz.X, sz.Y, sz.Z) <= -2*delta {
		return nil, fmt.Errorf("sdfx: expand by %g: %w", delta, brush.ErrEmptyBrush)
	}
	return wrap(&offsetSDF{s: unwrap(s), delta: delta}), nil
}

// Transform applies t to s. t must be invertible.
func (k *SdfxKernel) Transform(s kernel.Solid, t geom.Affine) (kernel.Solid, error) {
	inv, ok := t.Inverse()
	if !ok {
		return nil, fmt.Errorf("sdfx: transform is not invertible")
	}
	src := unwrap(s)
	return wrap(&transformSDF{s: src, inverse: inv, bb: t.M44().MulBox(src.BoundingBox())}), nil
}

// ToMesh runs marching cubes over s. Each triangle gets its own three
// vertices carrying the face normal; slivers without a normal are dropped.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	tris := render.ToTriangles(unwrap(s), render.NewMarchingCubesUniform(k.cells))
	m := &kernel.Mesh{
		Vertices: make([]float32, 0, 9*len(tris)),
		Normals:  make([]float32, 0, 9*len(tris)),
		Indices:  make([]uint32, 0, 3*len(tris)),
	}
	for _, tri := range tris {
		n := tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0]))
		if n.Length() < 1e-12 {
			continue
		}
		n = n.Normalize()
		for _, v := range tri {
			m.Indices = append(m.Indices, uint32(m.VertexCount()))
			m.Vertices = append(m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
		}
	}
	return m, nil
}

// ---------------------------------------------------------------------------
// SDF3 implementations
// ---------------------------------------------------------------------------

// convexSDF is the intersection of half-spaces. Outside the solid the value
// is a lower bound of the true distance, which is enough for marching cubes.
type convexSDF struct {
	planes []geom.Plane
	bb     sdf.Box3
}

func (c *convexSDF) Evaluate(p v3.Vec) float64 {
	d := c.planes[0].PointDistance(p)
	for _, pl := range c.planes[1:] {
		d = max(d, pl.PointDistance(p))
	}
	return d
}

func (c *convexSDF) BoundingBox() sdf.Box3 { return c.bb }

type clipSDF struct {
	s     sdf.SDF3
	plane geom.Plane
}

func (c *clipSDF) Evaluate(p v3.Vec) float64 {
	return max(c.s.Evaluate(p), c.plane.PointDistance(p))
}

func (c *clipSDF) BoundingBox() sdf.Box3 { return c.s.BoundingBox() }

type offsetSDF struct {
	s     sdf.SDF3
	delta float64
}

func (o *offsetSDF) Evaluate(p v3.Vec) float64 { return o.s.Evaluate(p) - o.delta }

func (o *offsetSDF) BoundingBox() sdf.Box3 { return geom.Grow(o.s.BoundingBox(), o.delta) }

// transformSDF evaluates s at the inverse image of a point. The value is
// exact for rigid transforms only.
type transformSDF struct {
	s       sdf.SDF3
	inverse geom.Affine
	bb      sdf.Box3
}

func (t *transformSDF) Evaluate(p v3.Vec) float64 { return t.s.Evaluate(t.inverse.Apply(p)) }

func (t *transformSDF) BoundingBox() sdf.Box3 { return t.bb }
