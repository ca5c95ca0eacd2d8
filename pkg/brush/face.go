package brush

import (
	"fmt"
	"math"

	"github.com/chazu/brushwork/pkg/geom"
	"github.com/chazu/brushwork/pkg/polyhedron"
	"github.com/chazu/brushwork/pkg/uv"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Attributes are the texture and surface properties of a face.
type Attributes struct {
	uv.Alignment
	TextureName     string
	SurfaceContents int
	SurfaceFlags    int
	SurfaceValue    float64
}

// NewAttributes returns default attributes for the named texture.
func NewAttributes(textureName string) Attributes {
	return Attributes{Alignment: uv.DefaultAlignment(), TextureName: textureName}
}

// HasSurfaceAttributes reports whether any surface property is set.
func (a Attributes) HasSurfaceAttributes() bool {
	return a.SurfaceContents != 0 || a.SurfaceFlags != 0 || a.SurfaceValue != 0
}

// Face is a brush face: a plane given by three points, its texture
// attributes and its texture coordinate system. A face that belongs to a
// brush is linked to one face of the brush geometry; the link and the
// cached polygon are replaced whenever the geometry is rebuilt.
type Face struct {
	points   [3]v3.Vec
	boundary geom.Plane
	attrs    Attributes
	texture  *Texture
	uv       uv.System

	geometry polyhedron.FaceID
	polygon  geom.Polygon
	marked   bool
}

// NewFace returns an unlinked face through the three points. The plane
// normal is cross(p2-p0, p1-p0).
func NewFace(p0, p1, p2 v3.Vec, attrs Attributes, kind uv.Kind) (*Face, error) {
	f := &Face{attrs: attrs, geometry: polyhedron.None}
	if err := f.SetPoints(p0, p1, p2); err != nil {
		return nil, err
	}
	f.uv = uv.New(kind, f.points[0], f.points[1], f.points[2], attrs.Alignment)
	return f, nil
}

// NewFaceWithSystem returns an unlinked face with the given coordinate
// system.
func NewFaceWithSystem(p0, p1, p2 v3.Vec, attrs Attributes, system uv.System) (*Face, error) {
	f := &Face{attrs: attrs, uv: system, geometry: polyhedron.None}
	if err := f.SetPoints(p0, p1, p2); err != nil {
		return nil, err
	}
	return f, nil
}

// Clone returns an unlinked copy. The copy keeps the polygon of the
// original so that its center stays meaningful until it is linked again.
func (f *Face) Clone() *Face {
	c := *f
	c.geometry = polyhedron.None
	c.polygon = append(geom.Polygon(nil), f.polygon...)
	c.marked = false
	return &c
}

// SetPoints sets the defining points and derives the boundary plane.
func (f *Face) SetPoints(p0, p1, p2 v3.Vec) error {
	pts := [3]v3.Vec{geom.Correct(p0, 0), geom.Correct(p1, 0), geom.Correct(p2, 0)}
	plane, ok := geom.PlaneFromPoints(pts[0], pts[1], pts[2])
	if !ok {
		return fmt.Errorf("%w: %v %v %v", ErrColinearPoints, pts[0], pts[1], pts[2])
	}
	f.points = pts
	f.boundary = plane
	return nil
}

// Points returns the three defining points.
func (f *Face) Points() [3]v3.Vec { return f.points }

// Boundary returns the face plane.
func (f *Face) Boundary() geom.Plane { return f.boundary }

// Normal returns the outward unit normal.
func (f *Face) Normal() v3.Vec { return f.boundary.Normal }

// ArePointsOnPlane reports whether all defining points lie on plane.
func (f *Face) ArePointsOnPlane(plane geom.Plane) bool {
	for _, p := range f.points {
		if plane.PointStatus(p) != geom.Inside {
			return false
		}
	}
	return true
}

// Attributes returns the texture and surface attributes.
func (f *Face) Attributes() Attributes { return f.attrs }

// SetAttributes replaces the attributes. The texture is kept if the name
// does not change.
func (f *Face) SetAttributes(a Attributes) {
	if a.TextureName != f.attrs.TextureName {
		f.texture = nil
	}
	oldRotation := f.attrs.Rotation
	f.attrs = a
	if a.Rotation != oldRotation {
		f.uv.SetRotation(f.boundary.Normal, oldRotation, a.Rotation)
	}
}

// TextureName returns the name of the face texture.
func (f *Face) TextureName() string { return f.attrs.TextureName }

// Texture returns the resolved texture, or nil.
func (f *Face) Texture() *Texture { return f.texture }

// SetTexture resolves the face texture. The texture name follows.
func (f *Face) SetTexture(t *Texture) {
	f.texture = t
	if t != nil {
		f.attrs.TextureName = t.Name
	}
}

// TextureSize returns the size of the texture, or (1, 1) without one.
func (f *Face) TextureSize() v2.Vec { return f.texture.Size() }

// ModOffset wraps an offset into the texture size.
func (f *Face) ModOffset(offset v2.Vec) v2.Vec {
	return uv.ModOffset(offset, f.TextureSize())
}

// UV returns a copy of the texture coordinate system.
func (f *Face) UV() uv.System { return f.uv }

// UAxis returns the texture U axis.
func (f *Face) UAxis() v3.Vec { return f.uv.UAxis() }

// VAxis returns the texture V axis.
func (f *Face) VAxis() v3.Vec { return f.uv.VAxis() }

// TakeUVSnapshot saves the texture coordinate system.
func (f *Face) TakeUVSnapshot() uv.Snapshot { return f.uv.TakeSnapshot() }

// RestoreUVSnapshot restores a saved texture coordinate system.
func (f *Face) RestoreUVSnapshot(s uv.Snapshot) { f.uv.Restore(s) }

// TextureCoords returns the normalized texture coordinates of a point.
func (f *Face) TextureCoords(p v3.Vec) v2.Vec {
	return f.uv.UVCoords(p, f.attrs.Alignment, f.TextureSize())
}

// Marked returns the scratch flag.
func (f *Face) Marked() bool { return f.marked }

// SetMarked sets the scratch flag. It has no meaning to the brush.
func (f *Face) SetMarked(m bool) { f.marked = m }

// Linked reports whether the face belongs to built geometry.
func (f *Face) Linked() bool { return f.geometry != polyhedron.None }

// GeometryFace returns the id of the linked geometry face, or None.
func (f *Face) GeometryFace() polyhedron.FaceID { return f.geometry }

func (f *Face) link(id polyhedron.FaceID, polygon geom.Polygon) {
	f.geometry = id
	f.polygon = polygon
}

// Vertices returns the polygon of the geometry face in counter clockwise
// order. An unlinked clone reports the polygon of its original.
func (f *Face) Vertices() geom.Polygon { return f.polygon }

// VertexCount returns the number of polygon vertices.
func (f *Face) VertexCount() int { return len(f.polygon) }

// Center returns the polygon center, or the plane anchor of an unlinked
// face.
func (f *Face) Center() v3.Vec {
	if len(f.polygon) == 0 {
		return f.boundary.Anchor()
	}
	return f.polygon.Center()
}

// Area returns the polygon area.
func (f *Face) Area() float64 { return f.polygon.Area() }

// ProjectedArea returns the area of the polygon projected onto the plane
// orthogonal to axis.
func (f *Face) ProjectedArea(axis geom.Axis) float64 { return f.polygon.ProjectedArea(axis) }

// IntersectWithRay returns the distance at which ray hits the front of the
// face polygon.
func (f *Face) IntersectWithRay(ray geom.Ray) (float64, bool) {
	if len(f.polygon) == 0 || f.boundary.Normal.Dot(ray.Direction) >= 0 {
		return 0, false
	}
	d, ok := f.boundary.IntersectRay(ray)
	if !ok {
		return 0, false
	}
	if !f.polygon.ContainsPoint(ray.PointAt(d), f.boundary.Normal) {
		return 0, false
	}
	return d, true
}

// Transform applies t to the face. With lock set the texture stays attached
// to the surface.
func (f *Face) Transform(t geom.Affine, lock bool) error {
	invariant := f.Center()
	oldBoundary := f.boundary
	newBoundary, ok := oldBoundary.Transform(t)
	if !ok {
		return fmt.Errorf("%w: singular transform", ErrIllegalMove)
	}

	pts := [3]v3.Vec{t.Apply(f.points[0]), t.Apply(f.points[1]), t.Apply(f.points[2])}
	if pts[2].Sub(pts[0]).Cross(pts[1].Sub(pts[0])).Dot(newBoundary.Normal) < 0 {
		pts[1], pts[2] = pts[2], pts[1]
	}
	if err := f.SetPoints(pts[0], pts[1], pts[2]); err != nil {
		return err
	}
	f.uv.Transform(oldBoundary, f.boundary, t, &f.attrs.Alignment, f.TextureSize(), lock, invariant)
	if f.polygon != nil {
		f.polygon = f.polygon.Transform(t)
	}
	return nil
}

// Invert flips the face to point the other way.
func (f *Face) Invert() {
	f.boundary = f.boundary.Flip()
	f.points[1], f.points[2] = f.points[2], f.points[1]
}

// updatePointsFromVertices derives the defining points from the linked
// polygon. The texture offset is corrected so that the texel on the line
// shared by the old and new plane does not move.
func (f *Face) updatePointsFromVertices() error {
	p0, p1, p2, ok := polygonPoints(f.polygon)
	if !ok {
		return fmt.Errorf("%w: degenerate face polygon", ErrColinearPoints)
	}
	oldBoundary := f.boundary
	if err := f.SetPoints(p0, p1, p2); err != nil {
		return err
	}
	if seam, ok := oldBoundary.IntersectPlane(f.boundary); ok {
		ref := seam.ProjectPoint(f.Center())
		desired := f.uv.TexelCoords(ref, f.attrs.Alignment)
		f.uv.SetNormal(oldBoundary, f.boundary, f.attrs.Alignment, uv.WrapProjection)
		current := f.uv.TexelCoords(ref, f.attrs.Alignment)
		f.attrs.Offset = geom.Correct2(f.ModOffset(f.attrs.Offset.Add(desired.Sub(current))), 4)
	}
	return nil
}

// polygonPoints picks three consecutive corners of a counter clockwise
// polygon whose edges are closest to perpendicular, ordered so that the
// derived plane faces the same way as the polygon.
func polygonPoints(poly geom.Polygon) (p0, p1, p2 v3.Vec, ok bool) {
	n := len(poly)
	if n < 3 {
		return p0, p1, p2, false
	}
	best, bestDot := -1, 1.0
	for i := 0; i < n && bestDot > 0; i++ {
		pred, cur, succ := poly[(i+n-1)%n], poly[i], poly[(i+1)%n]
		a, okA := geom.Normalize(pred.Sub(cur))
		b, okB := geom.Normalize(succ.Sub(cur))
		if !okA || !okB {
			continue
		}
		if d := math.Abs(a.Dot(b)); d < bestDot {
			best, bestDot = i, d
		}
	}
	if best < 0 {
		return p0, p1, p2, false
	}
	return poly[best], poly[(best+n-1)%n], poly[(best+1)%n], true
}

// CopyUVFrom takes the attributes and texture coordinate system of src and
// wraps them onto this face with the given style. The texel on the line
// shared by both planes keeps its coordinates.
func (f *Face) CopyUVFrom(src *Face, style uv.WrapStyle) {
	attrs := src.attrs
	ref := f.Center()
	if seam, ok := src.boundary.IntersectPlane(f.boundary); ok {
		ref = seam.ProjectPoint(ref)
	}
	f.uv.Restore(src.uv.TakeSnapshot())
	desired := f.uv.TexelCoords(ref, attrs.Alignment)
	f.uv.SetNormal(src.boundary, f.boundary, attrs.Alignment, style)
	current := f.uv.TexelCoords(ref, attrs.Alignment)
	attrs.Offset = attrs.Offset.Add(desired.Sub(current))
	f.attrs = attrs
	f.texture = src.texture
}

// MoveUV shifts the texture by offset texels as seen by a viewer with the
// given up and right directions.
func (f *Face) MoveUV(up, right v3.Vec, offset v2.Vec) {
	f.uv.Translate(f.boundary.Normal, up, right, offset, &f.attrs.Alignment)
}

// RotateUV turns the texture by angle degrees.
func (f *Face) RotateUV(angle float64) {
	f.uv.Rotate(f.boundary.Normal, angle, &f.attrs.Alignment)
}

// ShearUV skews the texture axes.
func (f *Face) ShearUV(factors v2.Vec) {
	f.uv.Shear(f.boundary.Normal, factors)
}

// MeasureUVAngle returns the texture angle of point around center, both in
// texture space.
func (f *Face) MeasureUVAngle(center, point v2.Vec) float64 {
	return f.uv.MeasureAngle(f.attrs.Rotation, center, point)
}

// ResetUVAxes derives fresh texture axes from the face normal.
func (f *Face) ResetUVAxes() {
	f.uv.Reset(f.boundary.Normal)
}

// ResetUVAxesToParaxial aligns parallel axes with the paraxial projection.
func (f *Face) ResetUVAxesToParaxial(angle float64) {
	f.uv.ResetToParaxial(f.boundary.Normal, angle)
}

// ConvertToParaxial switches to a paraxial system with the same mapping
// where possible.
func (f *Face) ConvertToParaxial() {
	f.uv, f.attrs.Alignment = f.uv.ToParaxial(f.points[0], f.points[1], f.points[2], f.attrs.Alignment)
}

// ConvertToParallel switches to a parallel system with the same mapping.
func (f *Face) ConvertToParallel() {
	f.uv, f.attrs.Alignment = f.uv.ToParallel(f.points[0], f.points[1], f.points[2], f.attrs.Alignment)
}

func (f *Face) String() string {
	p := f.points
	return fmt.Sprintf("( %g %g %g ) ( %g %g %g ) ( %g %g %g ) %s",
		p[0].X, p[0].Y, p[0].Z, p[1].X, p[1].Y, p[1].Z, p[2].X, p[2].Y, p[2].Z, f.attrs.TextureName)
}
