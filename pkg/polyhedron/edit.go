package polyhedron

import (
	"fmt"

	"github.com/chazu/brushwork/pkg/geom"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// CanAddVertex reports whether adding pos yields a hull that has pos as one
// of its vertices, without leaving bounds.
func (p *Polyhedron) CanAddVertex(bounds sdf.Box3, pos v3.Vec) bool {
	if !bounds.Contains(pos) || p.HasVertex(pos, geom.AlmostZero) {
		return false
	}
	r, err := New(append(p.VertexPositions(), pos)...)
	if err != nil {
		return false
	}
	return r.HasVertex(pos, geom.AlmostZero)
}

// AddVertex returns the hull of p's vertices and pos.
func (p *Polyhedron) AddVertex(pos v3.Vec) (*Polyhedron, error) {
	return p.rebuild(append(p.VertexPositions(), pos))
}

// CanRemoveVertices reports whether the hull of the remaining vertices is
// still a solid.
func (p *Polyhedron) CanRemoveVertices(positions []v3.Vec) bool {
	rest, ok := p.without(positions)
	if !ok {
		return false
	}
	r, err := New(rest...)
	return err == nil && r.Polyhedron()
}

// RemoveVertices returns the hull of p's vertices minus the given ones.
func (p *Polyhedron) RemoveVertices(positions []v3.Vec) (*Polyhedron, error) {
	rest, ok := p.without(positions)
	if !ok {
		return nil, fmt.Errorf("%w: not a vertex", ErrIllegalMove)
	}
	return p.rebuild(rest)
}

// without returns the vertex positions that are not in positions. It
// returns false if any of positions is not a vertex.
func (p *Polyhedron) without(positions []v3.Vec) ([]v3.Vec, bool) {
	if !p.HasVertices(positions, geom.AlmostZero) {
		return nil, false
	}
	var rest []v3.Vec
	for _, v := range p.vertices {
		if !geom.Contains(positions, v.Position, geom.AlmostZero) {
			rest = append(rest, v.Position)
		}
	}
	return rest, true
}

// rebuild builds the hull of points, keeping the planes and payloads of
// faces that survive. The result must be a solid.
func (p *Polyhedron) rebuild(points []v3.Vec) (*Polyhedron, error) {
	hints := make([]hint, len(p.faces))
	for i, f := range p.faces {
		hints[i] = hint{plane: f.Plane, payload: f.Payload}
	}
	r, err := build(points, hints)
	if err != nil {
		return nil, err
	}
	if !r.Polyhedron() {
		return nil, fmt.Errorf("%w: result is %s", ErrDegenerate, r.state)
	}
	return r, nil
}

// CanTransformVertices reports whether applying t to the vertices at the
// given positions yields a valid solid inside bounds. If allowRemoval is
// false, every moved vertex must survive as a vertex of the result. A move
// is rejected if a vertex would pass through a face of the unmoved part.
func (p *Polyhedron) CanTransformVertices(bounds sdf.Box3, positions []v3.Vec, t geom.Affine, allowRemoval bool) bool {
	return p.checkTransformVertices(bounds, positions, t, allowRemoval) == nil
}

func (p *Polyhedron) checkTransformVertices(bounds sdf.Box3, positions []v3.Vec, t geom.Affine, allowRemoval bool) error {
	if len(positions) == 0 || t.IsIdentity(geom.AngleEpsilon) {
		return fmt.Errorf("%w: nothing to move", ErrIllegalMove)
	}
	if !p.HasVertices(positions, geom.AlmostZero) {
		return fmt.Errorf("%w: not a vertex", ErrIllegalMove)
	}

	var remaining, moved, result []v3.Vec
	for _, v := range p.vertices {
		if geom.Contains(positions, v.Position, geom.AlmostZero) {
			moved = append(moved, v.Position)
			result = append(result, t.Apply(v.Position))
		} else {
			remaining = append(remaining, v.Position)
			result = append(result, v.Position)
		}
	}

	resultPoly, err := New(result...)
	if err != nil {
		return err
	}
	if !geom.BoxContainsBox(bounds, resultPoly.Bounds()) {
		return ErrOutOfBounds
	}
	if len(remaining) == 0 {
		return nil
	}
	if !allowRemoval {
		for _, pos := range moved {
			if !resultPoly.HasVertex(t.Apply(pos), geom.AlmostZero) {
				return fmt.Errorf("%w: vertex would be absorbed", ErrIllegalMove)
			}
		}
	}
	if !resultPoly.Polyhedron() {
		return fmt.Errorf("%w: result is %s", ErrDegenerate, resultPoly.state)
	}

	remainingPoly, err := New(remaining...)
	if err != nil {
		return err
	}
	movedPoly, err := New(moved...)
	if err != nil {
		return err
	}

	// Moving a single vertex against a polygon or an edge against an edge
	// always produces a valid solid.
	if (movedPoly.Point() && remainingPoly.Polygon()) || (movedPoly.Edge() && remainingPoly.Edge()) {
		return nil
	}

	// Hold the moved part still and move the rest backwards so that the
	// part tested against is a solid or a polygon.
	if remainingPoly.Point() || remainingPoly.Edge() || (remainingPoly.Polygon() && movedPoly.Polyhedron()) {
		inv, ok := t.Inverse()
		if !ok {
			return fmt.Errorf("%w: singular transform", ErrIllegalMove)
		}
		t = inv
		moved = remaining
		remainingPoly = movedPoly
	}

	for _, oldPos := range moved {
		newPos := t.Apply(oldPos)
		dir, ok := geom.Normalize(newPos.Sub(oldPos))
		if !ok {
			continue
		}
		ray := geom.Ray{Origin: oldPos, Direction: dir}
		for i, f := range remainingPoly.faces {
			if f.Plane.PointStatus(oldPos) != geom.Below || f.Plane.PointStatus(newPos) != geom.Above {
				continue
			}
			if _, hit := remainingPoly.FaceIntersectRay(FaceID(i), ray, BackSide); hit {
				return fmt.Errorf("%w: vertex passes through a face", ErrIllegalMove)
			}
		}
	}
	return nil
}

// TransformVertices applies t to the vertices at the given positions and
// returns the new hull together with the mapping from old vertex positions
// to the positions they ended up at. Vertices that were absorbed are
// missing from the mapping.
func (p *Polyhedron) TransformVertices(positions []v3.Vec, t geom.Affine) (*Polyhedron, VertexMapping, error) {
	if !p.HasVertices(positions, geom.AlmostZero) {
		return nil, nil, fmt.Errorf("%w: not a vertex", ErrIllegalMove)
	}
	target := make([]v3.Vec, len(p.vertices))
	for i, v := range p.vertices {
		target[i] = v.Position
		if geom.Contains(positions, v.Position, geom.AlmostZero) {
			target[i] = t.Apply(v.Position)
		}
	}
	r, err := p.rebuild(target)
	if err != nil {
		return nil, nil, err
	}
	mapping := make(VertexMapping, len(p.vertices))
	for i, v := range p.vertices {
		if id, ok := r.FindClosestVertex(target[i], geom.CloseVertexEpsilon); ok {
			mapping[v.Position] = r.vertices[id].Position
		}
	}
	return r, mapping, nil
}

// SnapVertices rounds every vertex to the nearest multiple of grid and
// returns the new hull with the mapping of vertices that survived.
func (p *Polyhedron) SnapVertices(grid float64) (*Polyhedron, VertexMapping, error) {
	if grid <= 0 {
		return nil, nil, fmt.Errorf("polyhedron: invalid grid size %g", grid)
	}
	target := make([]v3.Vec, len(p.vertices))
	for i, v := range p.vertices {
		target[i] = geom.Snap(v.Position, grid)
	}
	r, err := p.rebuild(target)
	if err != nil {
		return nil, nil, err
	}
	mapping := make(VertexMapping, len(p.vertices))
	for i, v := range p.vertices {
		if id, ok := r.FindVertex(target[i], geom.AlmostZero); ok {
			mapping[v.Position] = r.vertices[id].Position
		}
	}
	return r, mapping, nil
}

// EdgeVertices returns the distinct end points of the given edges.
func EdgeVertices(edges []geom.Segment) []v3.Vec {
	var r []v3.Vec
	for _, e := range edges {
		for _, q := range []v3.Vec{e.Start, e.End} {
			if !geom.Contains(r, q, geom.AlmostZero) {
				r = append(r, q)
			}
		}
	}
	return r
}

// FaceVertexPositions returns the distinct vertices of the given polygons.
func FaceVertexPositions(faces []geom.Polygon) []v3.Vec {
	var r []v3.Vec
	for _, f := range faces {
		for _, q := range f {
			if !geom.Contains(r, q, geom.AlmostZero) {
				r = append(r, q)
			}
		}
	}
	return r
}

// CanTransformEdges is CanTransformVertices for the end points of edges. It
// also requires every transformed edge to remain an edge.
func (p *Polyhedron) CanTransformEdges(bounds sdf.Box3, edges []geom.Segment, t geom.Affine) bool {
	for _, e := range edges {
		if !p.HasEdge(e.Start, e.End, geom.AlmostZero) {
			return false
		}
	}
	if !p.CanTransformVertices(bounds, EdgeVertices(edges), t, false) {
		return false
	}
	r, _, err := p.TransformVertices(EdgeVertices(edges), t)
	if err != nil {
		return false
	}
	for _, e := range edges {
		e = e.Transform(t)
		if !r.HasEdge(e.Start, e.End, geom.AlmostZero) {
			return false
		}
	}
	return true
}

// CanTransformFaces is CanTransformVertices for the vertices of faces. It
// also requires every transformed face to remain a face.
func (p *Polyhedron) CanTransformFaces(bounds sdf.Box3, faces []geom.Polygon, t geom.Affine) bool {
	for _, f := range faces {
		if !p.HasFace(f, geom.AlmostZero) {
			return false
		}
	}
	if !p.CanTransformVertices(bounds, FaceVertexPositions(faces), t, false) {
		return false
	}
	r, _, err := p.TransformVertices(FaceVertexPositions(faces), t)
	if err != nil {
		return false
	}
	for _, f := range faces {
		if !r.HasFace(f.Transform(t), geom.AlmostZero) {
			return false
		}
	}
	return true
}
