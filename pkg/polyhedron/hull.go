package polyhedron

import (
	"fmt"
	"math"

	"github.com/chazu/brushwork/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// triangle is a face of the intermediate hull. Its corners are point
// indices ordered counter clockwise seen from outside.
type triangle struct {
	v     [3]int
	plane geom.Plane
	alive bool
}

// seam is an edge of the visible region whose other side stays.
type seam struct {
	a, b  int
	plane geom.Plane
}

// hull is a triangulated convex hull grown one point at a time.
type hull struct {
	pts   []v3.Vec
	tris  []triangle
	owner map[[2]int]int
}

// hullFacets computes the faces of a full dimensional point set. It starts
// from the tetrahedron i0..i3 and adds the remaining points in input order.
// Each point that lies above the hull removes the faces it sees and is
// joined to the seam around them. Coplanar triangles are merged into
// polygons at the end.
func hullFacets(pts []v3.Vec, i0, i1, i2, i3 int) ([]facet, error) {
	h := &hull{pts: pts, owner: make(map[[2]int]int)}
	if err := h.seed(i0, i1, i2, i3); err != nil {
		return nil, err
	}
	for k := range pts {
		if k == i0 || k == i1 || k == i2 || k == i3 {
			continue
		}
		if err := h.add(k); err != nil {
			return nil, err
		}
	}
	return h.facets()
}

func (h *hull) seed(a, b, c, d int) error {
	n := h.pts[b].Sub(h.pts[a]).Cross(h.pts[c].Sub(h.pts[a]))
	if n.Dot(h.pts[d].Sub(h.pts[a])) > 0 {
		b, c = c, b
	}
	for _, t := range [][3]int{{a, b, c}, {b, a, d}, {c, b, d}, {a, c, d}} {
		if err := h.push(t, geom.Plane{}); err != nil {
			return err
		}
	}
	return nil
}

// push adds a triangle. fallback is used when the corners are too close to
// colinear to span a plane.
func (h *hull) push(v [3]int, fallback geom.Plane) error {
	p0, p1, p2 := h.pts[v[0]], h.pts[v[1]], h.pts[v[2]]
	// PlaneFromPoints winds clockwise, so p1 and p2 swap.
	plane, ok := geom.PlaneFromPoints(p0, p2, p1)
	if !ok {
		plane = fallback
	}
	id := len(h.tris)
	for i := range 3 {
		e := [2]int{v[i], v[(i+1)%3]}
		if _, dup := h.owner[e]; dup {
			return fmt.Errorf("%w: hull edge %d-%d used twice", ErrTopology, e[0], e[1])
		}
		h.owner[e] = id
	}
	h.tris = append(h.tris, triangle{v: v, plane: plane, alive: true})
	return nil
}

// neighbor returns the triangle across the edge from a to b.
func (h *hull) neighbor(a, b int) int {
	if t, ok := h.owner[[2]int{b, a}]; ok {
		return t
	}
	return None
}

func (h *hull) add(k int) error {
	p := h.pts[k]
	start, best := None, hullEpsilon
	for i, t := range h.tris {
		if !t.alive {
			continue
		}
		if d := t.plane.PointDistance(p); d > best {
			start, best = i, d
		}
	}
	if start == None {
		return nil
	}

	// The visible region grows from the face that sees p best, so it stays
	// connected and its border is a single loop.
	visible := map[int]bool{start: true}
	queue := []int{start}
	for len(queue) > 0 {
		t := h.tris[queue[0]]
		queue = queue[1:]
		for i := range 3 {
			n := h.neighbor(t.v[i], t.v[(i+1)%3])
			if n == None || visible[n] || h.tris[n].plane.PointDistance(p) <= hullEpsilon {
				continue
			}
			visible[n] = true
			queue = append(queue, n)
		}
	}

	var border []seam
	for i := range h.tris {
		if !visible[i] {
			continue
		}
		t := h.tris[i]
		for j := range 3 {
			a, b := t.v[j], t.v[(j+1)%3]
			if !visible[h.neighbor(a, b)] {
				border = append(border, seam{a: a, b: b, plane: t.plane})
			}
		}
	}
	for i := range visible {
		h.tris[i].alive = false
		for j := range 3 {
			delete(h.owner, [2]int{h.tris[i].v[j], h.tris[i].v[(j+1)%3]})
		}
	}
	for _, s := range border {
		if err := h.push([3]int{s.a, s.b, k}, s.plane); err != nil {
			return err
		}
	}
	return nil
}

// facets merges adjacent coplanar triangles and returns one facet per
// group. Points that are not a strict corner of any facet are dropped, so
// points in the middle of an edge or a face do not become vertices.
func (h *hull) facets() ([]facet, error) {
	var live []int
	for i, t := range h.tris {
		if t.alive {
			live = append(live, i)
		}
	}

	parent := make(map[int]int, len(live))
	var find func(int) int
	find = func(i int) int {
		if parent[i] == i {
			return i
		}
		parent[i] = find(parent[i])
		return parent[i]
	}
	for _, i := range live {
		parent[i] = i
	}
	for _, i := range live {
		t := h.tris[i]
		for j := range 3 {
			n := h.neighbor(t.v[j], t.v[(j+1)%3])
			if n == None || !h.coplanar(i, n) {
				continue
			}
			if ri, rn := find(i), find(n); ri != rn {
				parent[max(ri, rn)] = min(ri, rn)
			}
		}
	}

	type group struct {
		normal v3.Vec
		on     []int
		seen   map[int]bool
	}
	var order []int
	groups := make(map[int]*group)
	for _, i := range live {
		r := find(i)
		g, ok := groups[r]
		if !ok {
			g = &group{seen: make(map[int]bool)}
			groups[r] = g
			order = append(order, r)
		}
		t := h.tris[i]
		g.normal = g.normal.Add(h.pts[t.v[1]].Sub(h.pts[t.v[0]]).Cross(h.pts[t.v[2]].Sub(h.pts[t.v[0]])))
		for _, k := range t.v {
			if !g.seen[k] {
				g.seen[k] = true
				g.on = append(g.on, k)
			}
		}
	}
	if len(order) < 4 {
		return nil, fmt.Errorf("%w: only %d hull planes", ErrTopology, len(order))
	}

	planes := make([]geom.Plane, len(order))
	corners := make([][]int, len(order))
	isVertex := make([]bool, len(h.pts))
	for i, r := range order {
		g := groups[r]
		plane, ok := h.fitPlane(g.on, g.normal)
		if !ok {
			plane = h.tris[r].plane
		}
		planes[i] = plane
		corners[i] = planarHull(h.pts, g.on, plane.Normal)
		for _, k := range corners[i] {
			isVertex[k] = true
		}
	}

	facets := make([]facet, 0, len(order))
	for i, r := range order {
		var loop []int
		for _, k := range groups[r].on {
			if isVertex[k] {
				loop = append(loop, k)
			}
		}
		loop = sortLoop(h.pts, loop, corners[i], planes[i].Normal)
		if len(loop) < 3 {
			continue
		}
		facets = append(facets, facet{plane: planes[i], loop: loop})
	}
	return facets, nil
}

// coplanar reports whether two adjacent triangles lie in one plane: each
// triangle's corners are within hullEpsilon of the other's plane.
func (h *hull) coplanar(a, b int) bool {
	ta, tb := h.tris[a], h.tris[b]
	if ta.plane.Normal.Dot(tb.plane.Normal) <= 0 {
		return false
	}
	for _, k := range tb.v {
		if math.Abs(ta.plane.PointDistance(h.pts[k])) > hullEpsilon {
			return false
		}
	}
	for _, k := range ta.v {
		if math.Abs(tb.plane.PointDistance(h.pts[k])) > hullEpsilon {
			return false
		}
	}
	return true
}

// fitPlane returns the plane through three well separated points of the
// group, facing along normal.
func (h *hull) fitPlane(on []int, normal v3.Vec) (geom.Plane, bool) {
	a, b, c, ok := separatedTriple(h.pts, on)
	if !ok {
		return geom.Plane{}, false
	}
	n, ok := geom.Normalize(h.pts[b].Sub(h.pts[a]).Cross(h.pts[c].Sub(h.pts[a])))
	if !ok {
		return geom.Plane{}, false
	}
	if n.Dot(normal) < 0 {
		n = n.Neg()
	}
	return geom.NewPlane(h.pts[a], n), true
}
