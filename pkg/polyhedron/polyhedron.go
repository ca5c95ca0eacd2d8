// Package polyhedron implements the half-edge representation of a convex
// solid. Vertices, half-edges, edges and faces live in flat arenas owned by
// one Polyhedron and refer to each other by index, so a rebuild never leaves
// dangling links.
//
// A Polyhedron is immutable once built. Every topological edit (clip, vertex
// move, vertex removal, snapping) computes a fresh Polyhedron from a point
// set and returns it, leaving the receiver untouched. The only mutable state
// is the per-face payload slot used by callers to attach their own data.
package polyhedron

import (
	"errors"
	"fmt"

	"github.com/chazu/brushwork/pkg/geom"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Errors returned by polyhedron operations.
var (
	ErrEmpty       = errors.New("polyhedron: result is empty")
	ErrUnchanged   = errors.New("polyhedron: result is unchanged")
	ErrDegenerate  = errors.New("polyhedron: result is not a closed solid")
	ErrOutOfBounds = errors.New("polyhedron: result exceeds world bounds")
	ErrIllegalMove = errors.New("polyhedron: illegal vertex move")
	ErrTopology    = errors.New("polyhedron: inconsistent topology")
)

// VertexID indexes the vertex arena.
type VertexID int

// HalfEdgeID indexes the half-edge arena.
type HalfEdgeID int

// EdgeID indexes the edge arena.
type EdgeID int

// FaceID indexes the face arena.
type FaceID int

// None marks an absent link or payload.
const None = -1

// Vertex is a position plus one outgoing half-edge.
type Vertex struct {
	Position v3.Vec
	Leaving  HalfEdgeID
}

// HalfEdge is a directed edge on the boundary of one face.
type HalfEdge struct {
	Origin VertexID
	Twin   HalfEdgeID
	Next   HalfEdgeID
	Prev   HalfEdgeID
	Face   FaceID
	Edge   EdgeID
}

// Edge pairs two twin half-edges.
type Edge struct {
	First  HalfEdgeID
	Second HalfEdgeID
}

// Face is a planar boundary loop. Its half-edges wind counter clockwise
// around the outward normal of Plane. Payload is None unless a caller
// attached data with SetPayload.
type Face struct {
	Plane    geom.Plane
	Boundary HalfEdgeID
	Payload  int
}

// State describes the dimension of a polyhedron's point set.
type State int

const (
	StateEmpty State = iota
	StatePoint
	StateEdge
	StatePolygon
	StatePolyhedron
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePoint:
		return "point"
	case StateEdge:
		return "edge"
	case StatePolygon:
		return "polygon"
	case StatePolyhedron:
		return "polyhedron"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Polyhedron is a convex point set together with its boundary topology. A
// polygon is represented by two faces of opposite orientation sharing every
// edge; points and edges have no faces.
type Polyhedron struct {
	state     State
	vertices  []Vertex
	halfEdges []HalfEdge
	edges     []Edge
	faces     []Face
	bounds    sdf.Box3
}

// State returns the dimension of the point set.
func (p *Polyhedron) State() State { return p.state }

// Empty reports whether the polyhedron has no vertices.
func (p *Polyhedron) Empty() bool { return p.state == StateEmpty }

// Point reports whether the polyhedron is a single point.
func (p *Polyhedron) Point() bool { return p.state == StatePoint }

// Edge reports whether the polyhedron is a single edge.
func (p *Polyhedron) Edge() bool { return p.state == StateEdge }

// Polygon reports whether the polyhedron is a flat polygon.
func (p *Polyhedron) Polygon() bool { return p.state == StatePolygon }

// Polyhedron reports whether the polyhedron encloses a volume.
func (p *Polyhedron) Polyhedron() bool { return p.state == StatePolyhedron }

// Closed reports whether every edge borders two faces. Only solids are
// closed.
func (p *Polyhedron) Closed() bool { return p.state == StatePolyhedron }

// VertexCount returns the number of vertices.
func (p *Polyhedron) VertexCount() int { return len(p.vertices) }

// EdgeCount returns the number of edges.
func (p *Polyhedron) EdgeCount() int { return len(p.edges) }

// FaceCount returns the number of faces.
func (p *Polyhedron) FaceCount() int { return len(p.faces) }

// HalfEdgeCount returns the number of half-edges.
func (p *Polyhedron) HalfEdgeCount() int { return len(p.halfEdges) }

// Vertex returns the vertex with the given ID.
func (p *Polyhedron) Vertex(id VertexID) Vertex { return p.vertices[id] }

// Position returns the position of a vertex.
func (p *Polyhedron) Position(id VertexID) v3.Vec { return p.vertices[id].Position }

// HalfEdge returns the half-edge with the given ID.
func (p *Polyhedron) HalfEdge(id HalfEdgeID) HalfEdge { return p.halfEdges[id] }

// EdgeAt returns the edge with the given ID.
func (p *Polyhedron) EdgeAt(id EdgeID) Edge { return p.edges[id] }

// Face returns the face with the given ID.
func (p *Polyhedron) Face(id FaceID) Face { return p.faces[id] }

// Bounds returns the bounding box of all vertices.
func (p *Polyhedron) Bounds() sdf.Box3 { return p.bounds }

// Destination returns the vertex a half-edge points to.
func (p *Polyhedron) Destination(h HalfEdgeID) VertexID {
	return p.halfEdges[p.halfEdges[h].Twin].Origin
}

// NextIncident returns the next half-edge leaving the origin of h.
func (p *Polyhedron) NextIncident(h HalfEdgeID) HalfEdgeID {
	return p.halfEdges[p.halfEdges[h].Twin].Next
}

// VertexPositions returns the positions of all vertices in arena order.
func (p *Polyhedron) VertexPositions() []v3.Vec {
	r := make([]v3.Vec, len(p.vertices))
	for i, v := range p.vertices {
		r[i] = v.Position
	}
	return r
}

// Boundary returns the half-edges of a face in loop order.
func (p *Polyhedron) Boundary(f FaceID) []HalfEdgeID {
	first := p.faces[f].Boundary
	r := []HalfEdgeID{first}
	for h := p.halfEdges[first].Next; h != first; h = p.halfEdges[h].Next {
		r = append(r, h)
	}
	return r
}

// FaceVertices returns the vertices of a face in loop order.
func (p *Polyhedron) FaceVertices(f FaceID) []VertexID {
	hs := p.Boundary(f)
	r := make([]VertexID, len(hs))
	for i, h := range hs {
		r[i] = p.halfEdges[h].Origin
	}
	return r
}

// FacePositions returns the vertex positions of a face in loop order.
func (p *Polyhedron) FacePositions(f FaceID) geom.Polygon {
	vs := p.FaceVertices(f)
	r := make(geom.Polygon, len(vs))
	for i, v := range vs {
		r[i] = p.vertices[v].Position
	}
	return r
}

// FaceCenter returns the average of a face's vertex positions.
func (p *Polyhedron) FaceCenter(f FaceID) v3.Vec {
	return p.FacePositions(f).Center()
}

// FaceArea returns the area of a face.
func (p *Polyhedron) FaceArea(f FaceID) float64 {
	return p.FacePositions(f).Area()
}

// EdgeSegment returns the end points of an edge.
func (p *Polyhedron) EdgeSegment(e EdgeID) geom.Segment {
	h := p.edges[e].First
	return geom.Segment{
		Start: p.vertices[p.halfEdges[h].Origin].Position,
		End:   p.vertices[p.Destination(h)].Position,
	}
}

// EdgeSegments returns the end points of every edge.
func (p *Polyhedron) EdgeSegments() []geom.Segment {
	r := make([]geom.Segment, len(p.edges))
	for i := range p.edges {
		r[i] = p.EdgeSegment(EdgeID(i))
	}
	return r
}

// Neighbours returns the vertices connected to v by an edge.
func (p *Polyhedron) Neighbours(v VertexID) []VertexID {
	first := p.vertices[v].Leaving
	if first == None {
		return nil
	}
	var r []VertexID
	if p.state == StateEdge {
		return []VertexID{p.Destination(first)}
	}
	h := first
	for {
		r = append(r, p.Destination(h))
		h = p.NextIncident(h)
		if h == first || len(r) > len(p.vertices) {
			break
		}
	}
	return r
}

// Payload returns the payload attached to a face.
func (p *Polyhedron) Payload(f FaceID) int { return p.faces[f].Payload }

// SetPayload attaches a payload to a face.
func (p *Polyhedron) SetPayload(f FaceID, payload int) { p.faces[f].Payload = payload }

// Center returns the average of all vertex positions.
func (p *Polyhedron) Center() v3.Vec {
	return geom.Centroid(p.VertexPositions())
}

// Volume returns the enclosed volume, or zero for degenerate states.
func (p *Polyhedron) Volume() float64 {
	if p.state != StatePolyhedron {
		return 0
	}
	var vol float64
	for f := range p.faces {
		poly := p.FacePositions(FaceID(f))
		for i := 1; i+1 < len(poly); i++ {
			vol += poly[0].Dot(poly[i].Cross(poly[i+1]))
		}
	}
	return vol / 6
}

// Clone returns a deep copy.
func (p *Polyhedron) Clone() *Polyhedron {
	c := *p
	c.vertices = append([]Vertex(nil), p.vertices...)
	c.halfEdges = append([]HalfEdge(nil), p.halfEdges...)
	c.edges = append([]Edge(nil), p.edges...)
	c.faces = append([]Face(nil), p.faces...)
	return &c
}

func (p *Polyhedron) String() string {
	return fmt.Sprintf("polyhedron(%s, %d vertices, %d edges, %d faces)",
		p.state, len(p.vertices), len(p.edges), len(p.faces))
}
