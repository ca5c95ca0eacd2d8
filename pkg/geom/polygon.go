package geom

import (
	"math"
	"sort"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Polygon is an ordered loop of coplanar points.
type Polygon []v3.Vec

// Center returns the average of the polygon's vertices.
func (p Polygon) Center() v3.Vec {
	return Centroid(p)
}

// Transform returns the polygon with every vertex mapped by t.
func (p Polygon) Transform(t Affine) Polygon {
	r := make(Polygon, len(p))
	for i, q := range p {
		r[i] = t.Apply(q)
	}
	return r
}

// Equal reports whether both polygons contain the same vertices in the same
// cyclic order, starting anywhere.
func (p Polygon) Equal(o Polygon, eps float64) bool {
	if len(p) != len(o) {
		return false
	}
	if len(p) == 0 {
		return true
	}
	for start := range o {
		if !Equal(p[0], o[start], eps) {
			continue
		}
		match := true
		for i := 1; i < len(p); i++ {
			if !Equal(p[i], o[(start+i)%len(o)], eps) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// SameVertices reports whether both polygons hold the same vertex set,
// ignoring order.
func (p Polygon) SameVertices(o Polygon, eps float64) bool {
	if len(p) != len(o) {
		return false
	}
	for _, q := range p {
		if !Contains(o, q, eps) {
			return false
		}
	}
	return true
}

// Area returns the area of a planar convex polygon.
func (p Polygon) Area() float64 {
	if len(p) < 3 {
		return 0
	}
	var sum v3.Vec
	for i := 1; i+1 < len(p); i++ {
		sum = sum.Add(p[i].Sub(p[0]).Cross(p[i+1].Sub(p[0])))
	}
	return sum.Length() / 2
}

// ProjectedArea returns the absolute area of the polygon projected onto the
// plane orthogonal to axis, using the shoelace formula.
func (p Polygon) ProjectedArea(axis Axis) float64 {
	var c1, c2 float64
	for i := range p {
		o := Swizzle(p[i], axis)
		d := Swizzle(p[(i+1)%len(p)], axis)
		c1 += o.X * d.Y
		c2 += o.Y * d.X
	}
	return math.Abs((c1 - c2) / 2)
}

// ContainsPoint reports whether q, assumed to lie on the polygon's plane with
// the given normal, is inside the polygon or on its boundary. The test counts
// crossings of a ray along the projected X axis.
func (p Polygon) ContainsPoint(q, normal v3.Vec) bool {
	if len(p) < 3 {
		return false
	}
	axis := MajorAxis(normal)
	pq := Swizzle(q, axis)
	v0 := Swizzle(p[len(p)-1], axis).Sub(pq)
	c := 0
	for _, vertex := range p {
		v1 := Swizzle(vertex, axis).Sub(pq)
		if (math.Abs(v0.X) < AlmostZero && math.Abs(v0.Y) < AlmostZero) ||
			(math.Abs(v1.X) < AlmostZero && math.Abs(v1.Y) < AlmostZero) {
			return true
		}
		if (v0.Y > 0 && v1.Y <= 0) || (v0.Y <= 0 && v1.Y > 0) {
			if v0.X > 0 && v1.X > 0 {
				c++
			} else if (v0.X > 0 && v1.X <= 0) || (v0.X <= 0 && v1.X > 0) {
				x := -v0.Y*(v1.X-v0.X)/(v1.Y-v0.Y) + v0.X
				if x >= 0 {
					c++
				}
			}
		}
		v0 = v1
	}
	return c%2 == 1
}

// PlaneBasis returns two unit vectors u and v spanning the plane orthogonal
// to n such that u, v, n form a right handed frame.
func PlaneBasis(n v3.Vec) (u, v v3.Vec) {
	ref := PosX
	if math.Abs(n.X) > 0.9 {
		ref = PosY
	}
	u = MustNormalize(ref.Sub(n.MulScalar(ref.Dot(n))))
	v = n.Cross(u)
	return u, v
}

// SortCounterClockwise orders coplanar points counter clockwise around the
// normal, as seen from the side the normal points to.
func SortCounterClockwise(points []v3.Vec, normal v3.Vec) {
	if len(points) < 3 {
		return
	}
	c := Centroid(points)
	u, v := PlaneBasis(normal)
	angle := func(p v3.Vec) float64 {
		d := p.Sub(c)
		return math.Atan2(d.Dot(v), d.Dot(u))
	}
	sort.SliceStable(points, func(i, j int) bool {
		return angle(points[i]) < angle(points[j])
	})
}

// ConvexHull2 returns the indices of the strict corners of the 2D convex
// hull of points in counter clockwise order. Points within eps of a hull
// edge are not corners.
func ConvexHull2(points []v2.Vec, eps float64) []int {
	n := len(points)
	if n < 3 {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := points[order[i]], points[order[j]]
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})
	// turn is positive for a counter clockwise turn o->a->b; the cross product
	// is scaled by |ob| so the tolerance is a distance.
	turn := func(o, a, b v2.Vec) float64 {
		oa := a.Sub(o)
		ob := b.Sub(o)
		l := math.Hypot(ob.X, ob.Y)
		if l < eps {
			return 0
		}
		return (oa.X*ob.Y - oa.Y*ob.X) / l
	}
	hull := make([]int, 0, 2*n)
	for _, i := range order {
		for len(hull) >= 2 && turn(points[hull[len(hull)-2]], points[hull[len(hull)-1]], points[i]) <= eps {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, i)
	}
	lower := len(hull) + 1
	for k := n - 2; k >= 0; k-- {
		i := order[k]
		for len(hull) >= lower && turn(points[hull[len(hull)-2]], points[hull[len(hull)-1]], points[i]) <= eps {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, i)
	}
	return hull[:len(hull)-1]
}
