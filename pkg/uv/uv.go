// Package uv implements the texture coordinate systems of brush faces.
//
// A System projects points of a face plane onto two texture axes. The
// paraxial variant snaps its axes to the principal plane closest to the face
// normal and expresses rotation as an angle about that plane's axis; the
// parallel variant stores free axes that follow the face through every
// transformation. Both variants live in the same tagged value so that a
// Snapshot restores exactly the state it was taken from.
package uv

import (
	"fmt"
	"math"

	"github.com/chazu/brushwork/pkg/geom"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Kind selects the texture coordinate system variant.
type Kind int

const (
	Paraxial Kind = iota
	Parallel
)

func (k Kind) String() string {
	switch k {
	case Paraxial:
		return "paraxial"
	case Parallel:
		return "parallel"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind converts a name produced by Kind.String back to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "paraxial", "standard", "quake":
		return Paraxial, nil
	case "parallel", "valve":
		return Parallel, nil
	}
	return 0, fmt.Errorf("uv: unknown coordinate system %q", s)
}

// WrapStyle selects how axes follow a change of the face normal.
type WrapStyle int

const (
	// WrapProjection projects the old axes onto the new plane.
	WrapProjection WrapStyle = iota
	// WrapRotation rotates the old axes by the rotation that takes the old
	// normal to the new one.
	WrapRotation
)

func (w WrapStyle) String() string {
	if w == WrapRotation {
		return "rotation"
	}
	return "projection"
}

// Alignment holds the texture placement attributes of a face. Offset and
// Scale are in texels; Rotation is in degrees.
type Alignment struct {
	Offset   v2.Vec
	Scale    v2.Vec
	Rotation float64
}

// DefaultAlignment returns zero offset and rotation with unit scale.
func DefaultAlignment() Alignment {
	return Alignment{Scale: v2.Vec{X: 1, Y: 1}}
}

// ModOffset wraps offset into [0, size) on both axes. Zero sizes leave the
// component unchanged.
func ModOffset(offset, size v2.Vec) v2.Vec {
	return v2.Vec{X: modFloat(offset.X, size.X), Y: modFloat(offset.Y, size.Y)}
}

func modFloat(f, size float64) float64 {
	if size == 0 {
		return f
	}
	return f - math.Floor(f/size)*size
}

// System is a texture coordinate system of either kind. The zero value is a
// paraxial system for a floor face without rotation.
type System struct {
	kind  Kind
	index int
	u, v  v3.Vec
}

// Snapshot is a saved System state.
type Snapshot struct {
	s System
}

// Kind returns the variant the snapshot was taken from.
func (s Snapshot) Kind() Kind { return s.s.kind }

// New returns a system of the given kind for the face through the three
// points.
func New(kind Kind, p0, p1, p2 v3.Vec, a Alignment) System {
	if kind == Parallel {
		return NewParallel(p0, p1, p2, a)
	}
	return NewParaxial(p0, p1, p2, a)
}

// Kind returns the variant.
func (s System) Kind() Kind { return s.kind }

// UAxis returns the current texture U axis.
func (s System) UAxis() v3.Vec { return s.u }

// VAxis returns the current texture V axis.
func (s System) VAxis() v3.Vec { return s.v }

// Normal returns the projection direction. For paraxial systems this is
// the principal axis the face was snapped to.
func (s System) Normal() v3.Vec {
	if s.kind == Parallel {
		n, ok := geom.Normalize(s.v.Cross(s.u))
		if !ok {
			return geom.PosZ
		}
		return n
	}
	return baseAxes[s.index*3]
}

// TakeSnapshot returns a copy of the current state.
func (s System) TakeSnapshot() Snapshot { return Snapshot{s: s} }

// Restore replaces the current state, including the kind, with a snapshot.
func (s *System) Restore(snap Snapshot) { *s = snap.s }

// ResetCache recomputes the axes for the face through the three points.
func (s *System) ResetCache(p0, p1, p2 v3.Vec, a Alignment) {
	plane, ok := geom.PlaneFromPoints(p0, p1, p2)
	if !ok {
		return
	}
	if s.kind == Parallel {
		s.u, s.v = initialAxes(plane.Normal)
		s.applyRotation(plane.Normal, a.Rotation)
		return
	}
	s.SetRotation(plane.Normal, 0, a.Rotation)
}

// Reset recomputes parallel axes from the normal. Paraxial axes depend only
// on the normal and are left alone.
func (s *System) Reset(normal v3.Vec) {
	if s.kind == Parallel {
		s.u, s.v = initialAxes(normal)
	}
}

// ResetToParaxial aligns parallel axes with the paraxial axes of the normal,
// rotated by angle degrees.
func (s *System) ResetToParaxial(normal v3.Vec, angle float64) {
	if s.kind != Parallel {
		return
	}
	s.u, s.v, _ = paraxialAxes(planeNormalIndex(normal))
	s.applyRotation(normal, angle)
}

// ResetToParallel aligns parallel axes with the plane of the normal,
// rotated by angle degrees.
func (s *System) ResetToParallel(normal v3.Vec, angle float64) {
	if s.kind != Parallel {
		return
	}
	s.u, s.v = initialAxes(normal)
	s.applyRotation(normal, angle)
}

// UVCoords returns the normalized texture coordinates of a point.
func (s System) UVCoords(p v3.Vec, a Alignment, textureSize v2.Vec) v2.Vec {
	c := s.computeUVCoords(p, a.Scale).Add(a.Offset)
	return v2.Vec{X: c.X / safeScale(textureSize.X), Y: c.Y / safeScale(textureSize.Y)}
}

// TexelCoords returns the texture coordinates of a point in texels.
func (s System) TexelCoords(p v3.Vec, a Alignment) v2.Vec {
	return s.computeUVCoords(p, a.Scale).Add(a.Offset)
}

func (s System) computeUVCoords(p v3.Vec, scale v2.Vec) v2.Vec {
	return v2.Vec{
		X: p.Dot(s.u.MulScalar(1 / safeScale(scale.X))),
		Y: p.Dot(s.v.MulScalar(1 / safeScale(scale.Y))),
	}
}

func safeScale(f float64) float64 {
	if f == 0 {
		return 1
	}
	return f
}

// SetRotation changes the rotation of the axes about the normal from
// oldAngle to newAngle degrees.
func (s *System) SetRotation(normal v3.Vec, oldAngle, newAngle float64) {
	if s.kind == Parallel {
		delta := newAngle - oldAngle
		if delta == 0 {
			return
		}
		s.applyRotation(normal, delta)
		return
	}
	s.index = planeNormalIndex(normal)
	s.u, s.v, _ = paraxialAxes(s.index)
	s.u, s.v = rotateParaxialAxes(s.u, s.v, geom.Radians(newAngle), s.index)
}

// SetNormal updates the axes after the face normal changed from the old
// boundary to the new one.
func (s *System) SetNormal(oldBoundary, newBoundary geom.Plane, a Alignment, style WrapStyle) {
	if style == WrapRotation {
		s.updateNormalWithRotation(oldBoundary.Normal, newBoundary.Normal, a)
		return
	}
	s.updateNormalWithProjection(newBoundary.Normal, a)
}

func (s *System) updateNormalWithProjection(normal v3.Vec, a Alignment) {
	if s.kind != Parallel {
		s.SetRotation(normal, a.Rotation, a.Rotation)
		return
	}
	u, uok := projectAxis(s.u, normal)
	v, vok := projectAxis(s.v, normal)
	if !uok || !vok {
		s.u, s.v = initialAxes(normal)
		s.applyRotation(normal, a.Rotation)
		return
	}
	s.u, s.v = u, v
}

// projectAxis projects an axis onto the plane orthogonal to normal while
// keeping its length.
func projectAxis(axis, normal v3.Vec) (v3.Vec, bool) {
	p := axis.Sub(normal.MulScalar(axis.Dot(normal)))
	d, ok := geom.Normalize(p)
	if !ok {
		return v3.Vec{}, false
	}
	return d.MulScalar(axis.Length()), true
}

func (s *System) updateNormalWithRotation(oldNormal, newNormal v3.Vec, a Alignment) {
	if s.kind != Parallel {
		s.updateNormalWithProjection(newNormal, a)
		return
	}
	axis, ok := geom.Normalize(oldNormal.Cross(newNormal))
	if !ok {
		return
	}
	angle := geom.MeasureAngle(newNormal, oldNormal, axis)
	rot := geom.RotationAbout(axis, angle)
	s.u = rot.ApplyVector(s.u)
	s.v = rot.ApplyVector(s.v)
}

// Translate moves the texture by offset texels as seen by a viewer whose
// screen axes are up and right.
func (s *System) Translate(normal, up, right v3.Vec, offset v2.Vec, a *Alignment) {
	texX, okX := geom.Normalize(s.u.Sub(normal.MulScalar(s.u.Dot(normal))))
	texY, okY := geom.Normalize(s.v.Sub(normal.MulScalar(s.v.Dot(normal))))
	if !okX || !okY {
		return
	}

	// The texture axis closer to the XY plane moves horizontally.
	hAxis, vAxis, xIndex := texX, texY, 0
	switch {
	case math.Abs(texX.Z) < math.Abs(texY.Z):
	case math.Abs(texY.Z) < math.Abs(texX.Z):
		hAxis, vAxis, xIndex = texY, texX, 1
	case math.Abs(right.Dot(texX)) > math.Abs(right.Dot(texY)):
	case math.Abs(right.Dot(texY)) > math.Abs(right.Dot(texX)):
		hAxis, vAxis, xIndex = texY, texX, 1
	case math.Abs(up.Dot(texX)) > math.Abs(up.Dot(texY)):
		hAxis, vAxis, xIndex = texY, texX, 1
	}

	dx, dy := -offset.X, -offset.Y
	if right.Dot(hAxis) < 0 {
		dx = offset.X
	}
	if up.Dot(vAxis) < 0 {
		dy = offset.Y
	}
	if xIndex == 0 {
		a.Offset = a.Offset.Add(v2.Vec{X: dx, Y: dy})
	} else {
		a.Offset = a.Offset.Add(v2.Vec{X: dy, Y: dx})
	}
}

// Rotate turns the texture by angle degrees as seen from the front of the
// face.
func (s *System) Rotate(normal v3.Vec, angle float64, a *Alignment) {
	if s.IsRotationInverted(normal) {
		angle = -angle
	}
	old := a.Rotation
	a.Rotation = geom.CorrectFloat(geom.NormalizeDegrees(old+angle), 4)
	s.SetRotation(normal, old, a.Rotation)
}

// Shear skews parallel axes by the given factors. Paraxial systems cannot
// represent shear.
func (s *System) Shear(normal v3.Vec, factors v2.Vec) {
	if s.kind != Parallel {
		return
	}
	u, v := s.u, s.v
	s.u = u.Add(v.MulScalar(factors.X))
	s.v = v.Add(u.MulScalar(factors.Y))
}

// MeasureAngle returns the angle in degrees of the texture space vector
// from center to point, relative to the current rotation.
func (s System) MeasureAngle(current float64, center, point v2.Vec) float64 {
	d := point.Sub(center)
	vec, ok := geom.Normalize(v3.Vec{X: d.X, Y: d.Y})
	if !ok {
		return 0
	}
	vec = geom.RotationAbout(geom.PosZ, -geom.Radians(current)).ApplyVector(vec)
	if s.kind == Parallel {
		return geom.Degrees(geom.MeasureAngle(vec, geom.PosX, geom.PosZ))
	}
	return geom.Degrees(2*math.Pi - geom.MeasureAngle(vec, geom.PosX, geom.PosZ))
}

// IsRotationInverted reports whether a positive rotation turns the texture
// clockwise on a face with the given normal.
func (s System) IsRotationInverted(normal v3.Vec) bool {
	if s.kind == Parallel {
		return false
	}
	return planeNormalIndex(normal)%2 == 0
}

// Transform updates the system and the alignment after the face was moved
// by t from oldBoundary to newBoundary. With lock set, the texel under
// invariant keeps its texture coordinates; otherwise the axes are only
// re-derived for the new normal.
func (s *System) Transform(oldBoundary, newBoundary geom.Plane, t geom.Affine, a *Alignment, textureSize v2.Vec, lock bool, invariant v3.Vec) {
	if s.kind == Parallel {
		s.transformParallel(oldBoundary, newBoundary, t, a, textureSize, lock, invariant)
		return
	}
	s.transformParaxial(oldBoundary, newBoundary, t, a, textureSize, lock, invariant)
}

// ToParallel converts the system to a parallel one with the same mapping.
func (s System) ToParallel(p0, p1, p2 v3.Vec, a Alignment) (System, Alignment) {
	if s.kind == Parallel {
		return s, a
	}
	tmp := NewParaxial(p0, p1, p2, a)
	return NewParallelFromAxes(tmp.u, tmp.v), a
}

// ToParaxial converts the system to a paraxial one. The mapping is kept
// exactly unless the parallel axes are sheared or skewed relative to the
// face.
func (s System) ToParaxial(p0, p1, p2 v3.Vec, a Alignment) (System, Alignment) {
	if s.kind == Paraxial {
		return s, a
	}
	return paraxialFromParallel(p0, p1, p2, a, s.u, s.v)
}

func (s System) String() string {
	return fmt.Sprintf("%s u=(%g %g %g) v=(%g %g %g)", s.kind, s.u.X, s.u.Y, s.u.Z, s.v.X, s.v.Y, s.v.Z)
}
