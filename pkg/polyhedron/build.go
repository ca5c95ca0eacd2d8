package polyhedron

import (
	"fmt"
	"math"
	"sort"

	"github.com/chazu/brushwork/pkg/geom"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// weldEpsilon is the distance below which two input points are one vertex.
const weldEpsilon = geom.AlmostZero

// hullEpsilon decides whether a point lies on a candidate hull plane.
const hullEpsilon = geom.PointStatusEpsilon * 10

// hint is a known plane that a computed face snaps to, carrying its payload.
type hint struct {
	plane   geom.Plane
	payload int
}

// facet is a hull face before the half-edge structure is assembled.
type facet struct {
	plane geom.Plane
	loop  []int
}

// New returns the convex hull of the given points. Points closer than
// weldEpsilon collapse into one vertex. Degenerate inputs produce the empty,
// point, edge or polygon states.
func New(points ...v3.Vec) (*Polyhedron, error) {
	return build(points, nil)
}

// NewBox returns the solid box spanned by b.
func NewBox(b sdf.Box3) (*Polyhedron, error) {
	return New(b.Vertices()...)
}

// MustNew is New for inputs that are known to be valid.
func MustNew(points ...v3.Vec) *Polyhedron {
	p, err := New(points...)
	if err != nil {
		panic(fmt.Sprintf("polyhedron: %v", err))
	}
	return p
}

func build(points []v3.Vec, hints []hint) (*Polyhedron, error) {
	pts := weld(points)
	if len(pts) == 0 {
		return &Polyhedron{state: StateEmpty}, nil
	}
	p := &Polyhedron{bounds: geom.Bounds(pts)}
	switch len(pts) {
	case 1:
		p.state = StatePoint
		p.vertices = []Vertex{{Position: pts[0], Leaving: None}}
		return p, nil
	}

	i0, i1, i2, i3 := extremePoints(pts)
	switch {
	case i1 < 0:
		p.state = StatePoint
		p.vertices = []Vertex{{Position: pts[i0], Leaving: None}}
		return p, nil
	case i2 < 0:
		return buildEdge(pts, i0, i1), nil
	case i3 < 0:
		plane, ok := geom.PlaneFromPoints(pts[i0], pts[i2], pts[i1])
		if !ok {
			return buildEdge(pts, i0, i1), nil
		}
		return buildPolygon(pts, plane, hints)
	}

	facets, err := hullFacets(pts, i0, i1, i2, i3)
	if err != nil {
		return nil, err
	}
	return assemble(pts, facets, hints, StatePolyhedron)
}

// weld removes points that coincide within weldEpsilon, keeping the first.
func weld(points []v3.Vec) []v3.Vec {
	r := make([]v3.Vec, 0, len(points))
	for _, p := range points {
		if !geom.Contains(r, p, weldEpsilon) {
			r = append(r, p)
		}
	}
	return r
}

// extremePoints picks up to four affinely independent, well separated
// points. Missing points are -1: i1 < 0 means all points coincide, i2 < 0
// means they are colinear and i3 < 0 means they are coplanar.
func extremePoints(pts []v3.Vec) (i0, i1, i2, i3 int) {
	i0, i1, i2, i3 = 0, -1, -1, -1

	best := weldEpsilon
	for i, p := range pts {
		if d := geom.Distance(p, pts[i0]); d > best {
			best, i1 = d, i
		}
	}
	if i1 < 0 {
		return
	}
	// Restart from the point farthest from i1 to get a long base line.
	best = weldEpsilon
	for i, p := range pts {
		if d := geom.Distance(p, pts[i1]); d > best {
			best, i0 = d, i
		}
	}

	dir := geom.MustNormalize(pts[i1].Sub(pts[i0]))
	best = hullEpsilon
	for i, p := range pts {
		off := p.Sub(pts[i0])
		if d := off.Sub(dir.MulScalar(off.Dot(dir))).Length(); d > best {
			best, i2 = d, i
		}
	}
	if i2 < 0 {
		return
	}

	n := geom.MustNormalize(pts[i1].Sub(pts[i0]).Cross(pts[i2].Sub(pts[i0])))
	best = hullEpsilon
	for i, p := range pts {
		d := p.Sub(pts[i0]).Dot(n)
		if d < 0 {
			d = -d
		}
		if d > best {
			best, i3 = d, i
		}
	}
	return
}

func buildEdge(pts []v3.Vec, i0, i1 int) *Polyhedron {
	// The edge spans the two extreme points along the line.
	dir := geom.MustNormalize(pts[i1].Sub(pts[i0]))
	lo, hi := i0, i0
	for i, p := range pts {
		t := p.Sub(pts[i0]).Dot(dir)
		if t < pts[lo].Sub(pts[i0]).Dot(dir) {
			lo = i
		}
		if t > pts[hi].Sub(pts[i0]).Dot(dir) {
			hi = i
		}
	}
	p := &Polyhedron{state: StateEdge, bounds: geom.Bounds([]v3.Vec{pts[lo], pts[hi]})}
	p.vertices = []Vertex{{Position: pts[lo], Leaving: 0}, {Position: pts[hi], Leaving: 1}}
	p.halfEdges = []HalfEdge{
		{Origin: 0, Twin: 1, Next: None, Prev: None, Face: None, Edge: 0},
		{Origin: 1, Twin: 0, Next: None, Prev: None, Face: None, Edge: 0},
	}
	p.edges = []Edge{{First: 0, Second: 1}}
	return p
}

func buildPolygon(pts []v3.Vec, plane geom.Plane, hints []hint) (*Polyhedron, error) {
	loop := planarHull(pts, allIndices(len(pts)), plane.Normal)
	if len(loop) < 3 {
		return nil, fmt.Errorf("%w: polygon has %d corners", ErrTopology, len(loop))
	}
	back := make([]int, len(loop))
	for i, v := range loop {
		back[len(loop)-1-i] = v
	}
	facets := []facet{
		{plane: plane, loop: loop},
		{plane: plane.Flip(), loop: back},
	}
	return assemble(pts, facets, hints, StatePolygon)
}

func allIndices(n int) []int {
	r := make([]int, n)
	for i := range r {
		r[i] = i
	}
	return r
}

// planarHull returns the strict corners among the given point indices, all
// lying in the plane with normal n, ordered counter clockwise around n.
func planarHull(pts []v3.Vec, idx []int, n v3.Vec) []int {
	u, v := geom.PlaneBasis(n)
	flat := make([]v2.Vec, len(idx))
	for i, k := range idx {
		flat[i] = v2.Vec{X: pts[k].Dot(u), Y: pts[k].Dot(v)}
	}
	corners := geom.ConvexHull2(flat, hullEpsilon)
	r := make([]int, len(corners))
	for i, c := range corners {
		r[i] = idx[c]
	}
	return r
}

// separatedTriple finds three well separated, non-colinear points among
// the given indices.
func separatedTriple(pts []v3.Vec, idx []int) (int, int, int, bool) {
	a := idx[0]
	b, best := -1, 0.0
	for _, i := range idx {
		if d := geom.Distance(pts[i], pts[a]); d > best {
			b, best = i, d
		}
	}
	if b < 0 {
		return 0, 0, 0, false
	}
	a2, best := -1, 0.0
	for _, i := range idx {
		if d := geom.Distance(pts[i], pts[b]); d > best {
			a2, best = i, d
		}
	}
	a = a2
	dir := geom.MustNormalize(pts[b].Sub(pts[a]))
	c, best := -1, 0.0
	for _, i := range idx {
		off := pts[i].Sub(pts[a])
		if d := off.Sub(dir.MulScalar(off.Dot(dir))).Length(); d > best {
			c, best = i, d
		}
	}
	if c < 0 || best < geom.ColinearEpsilon {
		return 0, 0, 0, false
	}
	return a, b, c, true
}

// sortLoop orders the loop points counter clockwise around n, measured
// from the center of the face's strict corners.
func sortLoop(pts []v3.Vec, loop, corners []int, n v3.Vec) []int {
	if len(corners) < 3 {
		return nil
	}
	cs := make([]v3.Vec, len(corners))
	for i, k := range corners {
		cs[i] = pts[k]
	}
	center := geom.Centroid(cs)
	u, v := geom.PlaneBasis(n)
	angle := func(k int) float64 {
		d := pts[k].Sub(center)
		return math.Atan2(d.Dot(v), d.Dot(u))
	}
	sorted := append([]int(nil), loop...)
	sort.SliceStable(sorted, func(i, j int) bool { return angle(sorted[i]) < angle(sorted[j]) })
	return sorted
}

// assemble builds the half-edge arenas from facets. Only points referenced
// by a facet become vertices. Facet planes that match a hint are replaced by
// the hint plane and take its payload.
func assemble(pts []v3.Vec, facets []facet, hints []hint, state State) (*Polyhedron, error) {
	p := &Polyhedron{state: state}

	// Vertices follow input order so that iteration is deterministic.
	used := make([]bool, len(pts))
	for _, f := range facets {
		for _, k := range f.loop {
			used[k] = true
		}
	}
	vertexOf := make(map[int]VertexID)
	for k, ok := range used {
		if ok {
			vertexOf[k] = VertexID(len(p.vertices))
			p.vertices = append(p.vertices, Vertex{Position: pts[k], Leaving: None})
		}
	}

	type key struct{ a, b VertexID }
	byKey := make(map[key]HalfEdgeID)

	for _, f := range facets {
		fid := FaceID(len(p.faces))
		plane, payload := snapToHint(f.plane, hints)
		first := HalfEdgeID(len(p.halfEdges))
		p.faces = append(p.faces, Face{Plane: plane, Boundary: first, Payload: payload})
		count := len(f.loop)
		for i, k := range f.loop {
			origin := vertexOf[k]
			dest := vertexOf[f.loop[(i+1)%count]]
			h := HalfEdgeID(len(p.halfEdges))
			if _, dup := byKey[key{origin, dest}]; dup {
				return nil, fmt.Errorf("%w: duplicate half-edge", ErrTopology)
			}
			byKey[key{origin, dest}] = h
			p.halfEdges = append(p.halfEdges, HalfEdge{
				Origin: origin,
				Twin:   None,
				Next:   first + HalfEdgeID((i+1)%count),
				Prev:   first + HalfEdgeID((i+count-1)%count),
				Face:   fid,
				Edge:   None,
			})
			if p.vertices[origin].Leaving == None {
				p.vertices[origin].Leaving = h
			}
		}
	}

	for h := range p.halfEdges {
		he := &p.halfEdges[h]
		if he.Twin != None {
			continue
		}
		dest := p.halfEdges[he.Next].Origin
		twin, ok := byKey[key{dest, he.Origin}]
		if !ok {
			return nil, fmt.Errorf("%w: open edge", ErrTopology)
		}
		e := EdgeID(len(p.edges))
		p.edges = append(p.edges, Edge{First: HalfEdgeID(h), Second: twin})
		he.Twin = twin
		he.Edge = e
		p.halfEdges[twin].Twin = HalfEdgeID(h)
		p.halfEdges[twin].Edge = e
	}

	p.bounds = geom.Bounds(p.VertexPositions())
	return p, nil
}

func snapToHint(plane geom.Plane, hints []hint) (geom.Plane, int) {
	for _, h := range hints {
		if h.plane.Equal(plane, geom.AlmostZero) {
			return h.plane, h.payload
		}
	}
	return plane, None
}
