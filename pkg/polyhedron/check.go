package polyhedron

import (
	"fmt"
	"math"

	"github.com/chazu/brushwork/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// CheckInvariants verifies the topology and geometry of p: linked loops,
// symmetric twins, planar convex faces and the Euler characteristic of a
// closed solid.
func (p *Polyhedron) CheckInvariants() error {
	switch p.state {
	case StateEmpty:
		if len(p.vertices) != 0 {
			return fmt.Errorf("%w: empty polyhedron has vertices", ErrTopology)
		}
		return nil
	case StatePoint:
		if len(p.vertices) != 1 || len(p.edges) != 0 {
			return fmt.Errorf("%w: point has %d vertices", ErrTopology, len(p.vertices))
		}
		return nil
	case StateEdge:
		if len(p.vertices) != 2 || len(p.edges) != 1 {
			return fmt.Errorf("%w: edge has %d vertices", ErrTopology, len(p.vertices))
		}
		return nil
	}

	for i, h := range p.halfEdges {
		id := HalfEdgeID(i)
		if p.halfEdges[h.Next].Prev != id || p.halfEdges[h.Prev].Next != id {
			return fmt.Errorf("%w: half-edge %d has broken loop links", ErrTopology, i)
		}
		if h.Twin == None || p.halfEdges[h.Twin].Twin != id {
			return fmt.Errorf("%w: half-edge %d has no symmetric twin", ErrTopology, i)
		}
		if p.halfEdges[h.Twin].Origin != p.halfEdges[h.Next].Origin {
			return fmt.Errorf("%w: half-edge %d twin does not start at its destination", ErrTopology, i)
		}
		if p.halfEdges[h.Next].Face != h.Face {
			return fmt.Errorf("%w: half-edge %d loop leaves its face", ErrTopology, i)
		}
		e := p.edges[h.Edge]
		if e.First != id && e.Second != id {
			return fmt.Errorf("%w: half-edge %d not in its edge", ErrTopology, i)
		}
	}

	for i, v := range p.vertices {
		if v.Leaving == None || p.halfEdges[v.Leaving].Origin != VertexID(i) {
			return fmt.Errorf("%w: vertex %d has no leaving half-edge", ErrTopology, i)
		}
	}

	for i, f := range p.faces {
		if !geom.IsUnit(f.Plane.Normal, geom.AlmostZero) {
			return fmt.Errorf("%w: face %d normal is not a unit vector", ErrTopology, i)
		}
		if len(p.Boundary(FaceID(i))) < 3 {
			return fmt.Errorf("%w: face %d has fewer than three edges", ErrTopology, i)
		}
		poly := p.FacePositions(FaceID(i))
		var winding v3.Vec
		for k := 1; k+1 < len(poly); k++ {
			winding = winding.Add(poly[k].Sub(poly[0]).Cross(poly[k+1].Sub(poly[0])))
		}
		if winding.Dot(f.Plane.Normal) <= 0 {
			return fmt.Errorf("%w: face %d winds clockwise", ErrTopology, i)
		}
		for _, v := range poly {
			if math.Abs(f.Plane.PointDistance(v)) > geom.AlmostZero {
				return fmt.Errorf("%w: face %d is not planar", ErrTopology, i)
			}
		}
		if p.state == StatePolyhedron {
			for _, v := range p.vertices {
				if f.Plane.PointDistance(v.Position) > geom.AlmostZero {
					return fmt.Errorf("%w: polyhedron is not convex at face %d", ErrTopology, i)
				}
			}
		}
	}

	if p.state == StatePolyhedron {
		if euler := len(p.vertices) - len(p.edges) + len(p.faces); euler != 2 {
			return fmt.Errorf("%w: euler characteristic is %d", ErrTopology, euler)
		}
	}
	return nil
}
