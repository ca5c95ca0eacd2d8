package polyhedron

import (
	"math"

	"github.com/chazu/brushwork/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// VertexMapping maps old vertex positions to the positions they moved to.
type VertexMapping map[v3.Vec]v3.Vec

// relation is a binary relation between left and right vertices.
type relation map[VertexID]map[VertexID]bool

func (r relation) insert(l, rv VertexID) {
	m, ok := r[l]
	if !ok {
		m = make(map[VertexID]bool)
		r[l] = m
	}
	m[rv] = true
}

func (r relation) contains(l, rv VertexID) bool {
	return r[l][rv]
}

func (r relation) size() int {
	n := 0
	for _, m := range r {
		n += len(m)
	}
	return n
}

func (r relation) clone() relation {
	c := make(relation, len(r))
	for l, m := range r {
		for rv := range m {
			c.insert(l, rv)
		}
	}
	return c
}

// Matcher pairs the faces of a polyhedron before an edit (left) with the
// faces after it (right). Two vertices are related if they share a
// position, or if one of them was added or removed and a neighbour of it is
// related to the other. A left face scores one point per related vertex
// pair with a right face; faces with identical vertices score highest.
type Matcher struct {
	left, right *Polyhedron
	rel         relation
}

// NewMatcher relates vertices of left and right by position.
func NewMatcher(left, right *Polyhedron) *Matcher {
	rel := make(relation)
	for i, v := range left.vertices {
		if id, ok := right.FindVertex(v.Position, geom.AlmostZero); ok {
			rel.insert(VertexID(i), id)
		}
	}
	return &Matcher{left: left, right: right, rel: expand(left, right, rel)}
}

// NewMatcherWithMapping relates vertices of left and right through an
// explicit mapping of positions, as returned by a vertex edit.
func NewMatcherWithMapping(left, right *Polyhedron, mapping VertexMapping) *Matcher {
	rel := make(relation)
	for from, to := range mapping {
		l, ok := left.FindVertex(from, geom.AlmostZero)
		if !ok {
			continue
		}
		r, ok := right.FindVertex(to, geom.AlmostZero)
		if !ok {
			continue
		}
		rel.insert(l, r)
	}
	return &Matcher{left: left, right: right, rel: expand(left, right, rel)}
}

// expand adds relations for vertices present on only one side.
func expand(left, right *Polyhedron, initial relation) relation {
	result := initial.clone()

	relatedRight := make(map[VertexID]bool)
	for _, m := range initial {
		for r := range m {
			relatedRight[r] = true
		}
	}

	// Added vertices relate to whatever their neighbours relate to.
	added := relation{}
	for {
		before := added.size()
		for i := range right.vertices {
			r := VertexID(i)
			if relatedRight[r] {
				continue
			}
			for _, n := range right.Neighbours(r) {
				for l, m := range initial {
					if m[n] {
						added.insert(l, r)
					}
				}
				for l, m := range added {
					if m[n] {
						added.insert(l, r)
					}
				}
			}
		}
		if added.size() == before {
			break
		}
	}

	// Removed vertices relate to whatever their neighbours relate to.
	removed := relation{}
	for {
		before := removed.size()
		for i := range left.vertices {
			l := VertexID(i)
			if _, ok := initial[l]; ok {
				continue
			}
			for _, n := range left.Neighbours(l) {
				for r := range initial[n] {
					removed.insert(l, r)
				}
				for r := range removed[n] {
					removed.insert(l, r)
				}
			}
		}
		if removed.size() == before {
			break
		}
	}

	for l, m := range added {
		for r := range m {
			result.insert(l, r)
		}
	}
	for l, m := range removed {
		for r := range m {
			result.insert(l, r)
		}
	}
	return result
}

// Left returns the polyhedron before the edit.
func (m *Matcher) Left() *Polyhedron { return m.left }

// Right returns the polyhedron after the edit.
func (m *Matcher) Right() *Polyhedron { return m.right }

// Related reports whether a left and a right vertex are related.
func (m *Matcher) Related(l, r VertexID) bool { return m.rel.contains(l, r) }

// ProcessRightFaces calls fn for every right face with its best matching
// left face, or None if no vertex of the right face is related to any left
// vertex.
func (m *Matcher) ProcessRightFaces(fn func(left, right FaceID)) {
	for i := range m.right.faces {
		r := FaceID(i)
		fn(m.BestMatch(r), r)
	}
}

// BestMatch returns the left face with the highest score for the right
// face. Ties go to the face whose normal is closest to the right face's. It
// returns None if every score is zero.
func (m *Matcher) BestMatch(right FaceID) FaceID {
	rightNormal := m.right.faces[right].Plane.Normal
	best, bestScore, bestDot := FaceID(None), -1, math.Inf(-1)
	for i := range m.left.faces {
		l := FaceID(i)
		score := m.Score(l, right)
		d := m.left.faces[l].Plane.Normal.Dot(rightNormal)
		if score > bestScore || (score == bestScore && d > bestDot) {
			best, bestScore, bestDot = l, score, d
		}
	}
	if bestScore <= 0 {
		return None
	}
	return best
}

// Score returns the number of related vertex pairs between a left and a
// right face, or the maximum int if both faces have the same vertices.
func (m *Matcher) Score(left, right FaceID) int {
	lp, rp := m.left.FacePositions(left), m.right.FacePositions(right)
	if lp.SameVertices(rp, geom.AlmostZero) {
		return math.MaxInt
	}
	score := 0
	m.VisitMatchingVertexPairs(left, right, func(VertexID, VertexID) { score++ })
	return score
}

// VisitMatchingVertexPairs calls fn for every related pair of a vertex of
// the left face and a vertex of the right face.
func (m *Matcher) VisitMatchingVertexPairs(left, right FaceID, fn func(l, r VertexID)) {
	rs := m.right.FaceVertices(right)
	for _, l := range m.left.FaceVertices(left) {
		for _, r := range rs {
			if m.rel.contains(l, r) {
				fn(l, r)
			}
		}
	}
}
