package geom

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// PointStatus classifies a point relative to a plane.
type PointStatus int

const (
	Above  PointStatus = iota // on the side the normal points to
	Below                     // on the opposite side
	Inside                    // on the plane within tolerance
)

func (s PointStatus) String() string {
	switch s {
	case Above:
		return "above"
	case Below:
		return "below"
	case Inside:
		return "inside"
	default:
		return fmt.Sprintf("PointStatus(%d)", int(s))
	}
}

// Plane is the set of points p with dot(Normal, p) == Distance. Normal is
// always a unit vector.
type Plane struct {
	Normal   v3.Vec
	Distance float64
}

// NewPlane returns the plane through anchor with the given unit normal.
func NewPlane(anchor, normal v3.Vec) Plane {
	return Plane{Normal: normal, Distance: normal.Dot(anchor)}
}

// PlaneFromPoints returns the plane through the three points. The normal is
// cross(p2-p0, p1-p0), so the points wind clockwise when the plane is viewed
// from the side its normal points to. It returns false if the points are
// colinear.
func PlaneFromPoints(p0, p1, p2 v3.Vec) (Plane, bool) {
	if Colinear(p0, p1, p2) {
		return Plane{}, false
	}
	n, ok := Normalize(p2.Sub(p0).Cross(p1.Sub(p0)))
	if !ok {
		return Plane{}, false
	}
	return NewPlane(p0, n), true
}

// Anchor returns the point on the plane closest to the origin.
func (p Plane) Anchor() v3.Vec {
	return p.Normal.MulScalar(p.Distance)
}

// PointDistance returns the signed distance of q from the plane.
func (p Plane) PointDistance(q v3.Vec) float64 {
	return p.Normal.Dot(q) - p.Distance
}

// PointStatus classifies q using PointStatusEpsilon.
func (p Plane) PointStatus(q v3.Vec) PointStatus {
	return p.PointStatusEps(q, PointStatusEpsilon)
}

// PointStatusEps classifies q using the given tolerance.
func (p Plane) PointStatusEps(q v3.Vec, eps float64) PointStatus {
	d := p.PointDistance(q)
	switch {
	case d > eps:
		return Above
	case d < -eps:
		return Below
	default:
		return Inside
	}
}

// Flip returns the plane with the opposite orientation.
func (p Plane) Flip() Plane {
	return Plane{Normal: p.Normal.Neg(), Distance: -p.Distance}
}

// Translate returns the plane moved by delta.
func (p Plane) Translate(delta v3.Vec) Plane {
	return NewPlane(p.Anchor().Add(delta), p.Normal)
}

// Equal reports whether the normals and distances agree within eps.
func (p Plane) Equal(o Plane, eps float64) bool {
	return Equal(p.Normal, o.Normal, eps) && math.Abs(p.Distance-o.Distance) <= eps
}

// Parallel reports whether the normals point the same way.
func (p Plane) Parallel(o Plane) bool {
	return p.Normal.Dot(o.Normal) >= 1-AlmostZero
}

// ProjectPoint returns the orthogonal projection of q onto the plane.
func (p Plane) ProjectPoint(q v3.Vec) v3.Vec {
	return q.Sub(p.Normal.MulScalar(p.PointDistance(q)))
}

// ProjectPointAlong projects q onto the plane along dir. It returns false if
// dir is parallel to the plane.
func (p Plane) ProjectPointAlong(q, dir v3.Vec) (v3.Vec, bool) {
	cos := p.Normal.Dot(dir)
	if math.Abs(cos) < AlmostZero {
		return v3.Vec{}, false
	}
	return q.Add(dir.MulScalar(-p.PointDistance(q) / cos)), true
}

// IntersectRay returns the distance along r at which it hits the plane.
func (p Plane) IntersectRay(r Ray) (float64, bool) {
	cos := p.Normal.Dot(r.Direction)
	if math.Abs(cos) < AngleEpsilon {
		return 0, false
	}
	d := (p.Distance - p.Normal.Dot(r.Origin)) / cos
	if d < 0 {
		return 0, false
	}
	return d, true
}

// IntersectPlane returns the line in which p and o meet. It returns false
// for parallel planes.
func (p Plane) IntersectPlane(o Plane) (Line, bool) {
	dir, ok := Normalize(p.Normal.Cross(o.Normal))
	if !ok {
		return Line{}, false
	}
	// Solve for the point on both planes closest to the origin.
	n1n2 := p.Normal.Dot(o.Normal)
	det := 1 - n1n2*n1n2
	if math.Abs(det) < AngleEpsilon {
		return Line{}, false
	}
	c1 := (p.Distance - o.Distance*n1n2) / det
	c2 := (o.Distance - p.Distance*n1n2) / det
	point := p.Normal.MulScalar(c1).Add(o.Normal.MulScalar(c2))
	return Line{Point: point, Direction: dir}, true
}

// Transform returns the plane mapped by t. It returns false if t is
// singular.
func (p Plane) Transform(t Affine) (Plane, bool) {
	inv, ok := t.Inverse()
	if !ok {
		return Plane{}, false
	}
	n, ok := Normalize(inv.TransposeApplyVector(p.Normal))
	if !ok {
		return Plane{}, false
	}
	return NewPlane(t.Apply(p.Anchor()), n), true
}

func (p Plane) String() string {
	return fmt.Sprintf("(%g %g %g) %g", p.Normal.X, p.Normal.Y, p.Normal.Z, p.Distance)
}

// Line is an infinite line through Point along the unit Direction.
type Line struct {
	Point     v3.Vec
	Direction v3.Vec
}

// ProjectPoint returns the point on the line closest to q.
func (l Line) ProjectPoint(q v3.Vec) v3.Vec {
	return l.Point.Add(l.Direction.MulScalar(q.Sub(l.Point).Dot(l.Direction)))
}

// Ray is a half line starting at Origin along the unit Direction.
type Ray struct {
	Origin    v3.Vec
	Direction v3.Vec
}

// PointAt returns the point at distance d along the ray.
func (r Ray) PointAt(d float64) v3.Vec {
	return r.Origin.Add(r.Direction.MulScalar(d))
}

// Segment is the line segment between Start and End.
type Segment struct {
	Start v3.Vec
	End   v3.Vec
}

// Center returns the midpoint of the segment.
func (s Segment) Center() v3.Vec {
	return s.Start.Add(s.End).MulScalar(0.5)
}

// Length returns the length of the segment.
func (s Segment) Length() float64 {
	return Distance(s.Start, s.End)
}

// Transform returns the segment with both end points mapped by t.
func (s Segment) Transform(t Affine) Segment {
	return Segment{Start: t.Apply(s.Start), End: t.Apply(s.End)}
}

// Contains reports whether q lies on the segment within eps.
func (s Segment) Contains(q v3.Vec, eps float64) bool {
	d := s.End.Sub(s.Start)
	l2 := d.Dot(d)
	if l2 < eps*eps {
		return Distance(q, s.Start) <= eps
	}
	t := q.Sub(s.Start).Dot(d) / l2
	if t < 0 || t > 1 {
		return Distance(q, s.Start) <= eps || Distance(q, s.End) <= eps
	}
	return Distance(q, s.Start.Add(d.MulScalar(t))) <= eps
}

// Equal reports whether the segments have the same end points in either
// order.
func (s Segment) Equal(o Segment, eps float64) bool {
	return (Equal(s.Start, o.Start, eps) && Equal(s.End, o.End, eps)) ||
		(Equal(s.Start, o.End, eps) && Equal(s.End, o.Start, eps))
}
