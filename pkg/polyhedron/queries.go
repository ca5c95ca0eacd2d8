package polyhedron

import (
	"math"

	"github.com/chazu/brushwork/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Side selects which side of a face a ray may hit.
type Side int

const (
	FrontSide Side = iota
	BackSide
	BothSides
)

// FindVertex returns the vertex at pos within eps.
func (p *Polyhedron) FindVertex(pos v3.Vec, eps float64) (VertexID, bool) {
	for i, v := range p.vertices {
		if geom.Equal(v.Position, pos, eps) {
			return VertexID(i), true
		}
	}
	return None, false
}

// HasVertex reports whether a vertex lies at pos within eps.
func (p *Polyhedron) HasVertex(pos v3.Vec, eps float64) bool {
	_, ok := p.FindVertex(pos, eps)
	return ok
}

// HasVertices reports whether every position is a vertex.
func (p *Polyhedron) HasVertices(positions []v3.Vec, eps float64) bool {
	for _, pos := range positions {
		if !p.HasVertex(pos, eps) {
			return false
		}
	}
	return true
}

// FindClosestVertex returns the vertex closest to pos if it is no farther
// than maxDist.
func (p *Polyhedron) FindClosestVertex(pos v3.Vec, maxDist float64) (VertexID, bool) {
	best, bestDist := VertexID(None), maxDist
	for i, v := range p.vertices {
		if d := geom.Distance(v.Position, pos); d <= bestDist {
			best, bestDist = VertexID(i), d
		}
	}
	return best, best != None
}

// FindEdge returns the edge between the two positions, in either direction.
func (p *Polyhedron) FindEdge(a, b v3.Vec, eps float64) (EdgeID, bool) {
	want := geom.Segment{Start: a, End: b}
	for i := range p.edges {
		if p.EdgeSegment(EdgeID(i)).Equal(want, eps) {
			return EdgeID(i), true
		}
	}
	return None, false
}

// HasEdge reports whether an edge connects the two positions.
func (p *Polyhedron) HasEdge(a, b v3.Vec, eps float64) bool {
	_, ok := p.FindEdge(a, b, eps)
	return ok
}

// FindClosestEdge returns the edge whose end points are closest to a and b
// if both are no farther than maxDist.
func (p *Polyhedron) FindClosestEdge(a, b v3.Vec, maxDist float64) (EdgeID, bool) {
	best, bestDist := EdgeID(None), math.Inf(1)
	for i := range p.edges {
		s := p.EdgeSegment(EdgeID(i))
		d1 := math.Max(geom.Distance(s.Start, a), geom.Distance(s.End, b))
		d2 := math.Max(geom.Distance(s.Start, b), geom.Distance(s.End, a))
		d := math.Min(d1, d2)
		if d <= maxDist && d < bestDist {
			best, bestDist = EdgeID(i), d
		}
	}
	return best, best != None
}

// FindFace returns the face whose vertices are exactly the given positions,
// in any order.
func (p *Polyhedron) FindFace(positions []v3.Vec, eps float64) (FaceID, bool) {
	want := geom.Polygon(positions)
	for i := range p.faces {
		if p.FacePositions(FaceID(i)).SameVertices(want, eps) {
			return FaceID(i), true
		}
	}
	return None, false
}

// HasFace reports whether a face has exactly the given vertices.
func (p *Polyhedron) HasFace(positions []v3.Vec, eps float64) bool {
	_, ok := p.FindFace(positions, eps)
	return ok
}

// FindClosestFace returns the face with the same number of vertices whose
// vertices are all within maxDist of the given positions.
func (p *Polyhedron) FindClosestFace(positions []v3.Vec, maxDist float64) (FaceID, bool) {
	best, bestDist := FaceID(None), math.Inf(1)
	for i := range p.faces {
		poly := p.FacePositions(FaceID(i))
		if len(poly) != len(positions) {
			continue
		}
		worst := 0.0
		for _, q := range positions {
			closest := math.Inf(1)
			for _, v := range poly {
				closest = math.Min(closest, geom.Distance(q, v))
			}
			worst = math.Max(worst, closest)
		}
		if worst <= maxDist && worst < bestDist {
			best, bestDist = FaceID(i), worst
		}
	}
	return best, best != None
}

// FindFaceByPlane returns the face lying on the given plane.
func (p *Polyhedron) FindFaceByPlane(plane geom.Plane, eps float64) (FaceID, bool) {
	for i, f := range p.faces {
		if f.Plane.Equal(plane, eps) {
			return FaceID(i), true
		}
	}
	return None, false
}

// FindFaceByPayload returns the face carrying the given payload.
func (p *Polyhedron) FindFaceByPayload(payload int) (FaceID, bool) {
	for i, f := range p.faces {
		if f.Payload == payload {
			return FaceID(i), true
		}
	}
	return None, false
}

// ContainsPoint reports whether q lies inside the solid or on its boundary.
func (p *Polyhedron) ContainsPoint(q v3.Vec) bool {
	if p.state != StatePolyhedron || !geom.Grow(p.bounds, geom.PointStatusEpsilon).Contains(q) {
		return false
	}
	for _, f := range p.faces {
		if f.Plane.PointStatus(q) == geom.Above {
			return false
		}
	}
	return true
}

// Contains reports whether every vertex of o lies inside p.
func (p *Polyhedron) Contains(o *Polyhedron) bool {
	if p.state != StatePolyhedron || o.state == StateEmpty {
		return false
	}
	for _, v := range o.vertices {
		if !p.ContainsPoint(v.Position) {
			return false
		}
	}
	return true
}

// Intersects reports whether p and o share at least one point. Touching
// counts as intersecting.
func (p *Polyhedron) Intersects(o *Polyhedron) bool {
	if p.state == StateEmpty || o.state == StateEmpty {
		return false
	}
	eps := geom.AlmostZero
	if !geom.BoxIntersects(geom.Grow(p.bounds, eps), o.bounds) {
		return false
	}
	if p.state == StatePoint {
		return o.touchesPoint(p.vertices[0].Position)
	}
	if o.state == StatePoint {
		return p.touchesPoint(o.vertices[0].Position)
	}

	var axes []v3.Vec
	for _, f := range p.faces {
		axes = append(axes, f.Plane.Normal)
	}
	for _, f := range o.faces {
		axes = append(axes, f.Plane.Normal)
	}
	pe, oe := p.edgeDirections(), o.edgeDirections()
	for _, a := range pe {
		for _, b := range oe {
			if n, ok := geom.Normalize(a.Cross(b)); ok {
				axes = append(axes, n)
			}
		}
	}
	axes = append(axes, pe...)
	axes = append(axes, oe...)

	for _, axis := range axes {
		pmin, pmax := p.project(axis)
		omin, omax := o.project(axis)
		if pmax < omin-eps || omax < pmin-eps {
			return false
		}
	}
	return true
}

func (p *Polyhedron) touchesPoint(q v3.Vec) bool {
	switch p.state {
	case StatePoint:
		return geom.Equal(p.vertices[0].Position, q, geom.AlmostZero)
	case StateEdge:
		return p.EdgeSegment(0).Contains(q, geom.AlmostZero)
	case StatePolygon:
		f := p.faces[0]
		return f.Plane.PointStatus(q) == geom.Inside &&
			p.FacePositions(0).ContainsPoint(q, f.Plane.Normal)
	case StatePolyhedron:
		return p.ContainsPoint(q)
	}
	return false
}

func (p *Polyhedron) edgeDirections() []v3.Vec {
	r := make([]v3.Vec, 0, len(p.edges))
	for i := range p.edges {
		s := p.EdgeSegment(EdgeID(i))
		if d, ok := geom.Normalize(s.End.Sub(s.Start)); ok {
			r = append(r, d)
		}
	}
	return r
}

func (p *Polyhedron) project(axis v3.Vec) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range p.vertices {
		d := v.Position.Dot(axis)
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return lo, hi
}

// FaceIntersectRay returns the distance at which ray hits face f from the
// given side.
func (p *Polyhedron) FaceIntersectRay(f FaceID, ray geom.Ray, side Side) (float64, bool) {
	plane := p.faces[f].Plane
	cos := plane.Normal.Dot(ray.Direction)
	switch side {
	case FrontSide:
		if cos >= 0 {
			return 0, false
		}
	case BackSide:
		if cos <= 0 {
			return 0, false
		}
	}
	d, ok := plane.IntersectRay(ray)
	if !ok {
		return 0, false
	}
	if !p.FacePositions(f).ContainsPoint(ray.PointAt(d), plane.Normal) {
		return 0, false
	}
	return d, true
}

// IntersectRay returns the distance to the closest front facing face hit by
// ray, together with that face.
func (p *Polyhedron) IntersectRay(ray geom.Ray) (float64, FaceID, bool) {
	best, bestFace := math.Inf(1), FaceID(None)
	for i := range p.faces {
		if d, ok := p.FaceIntersectRay(FaceID(i), ray, FrontSide); ok && d < best {
			best, bestFace = d, FaceID(i)
		}
	}
	return best, bestFace, bestFace != None
}
