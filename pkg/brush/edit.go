package brush

import (
	"errors"
	"fmt"

	"github.com/chazu/brushwork/pkg/geom"
	"github.com/chazu/brushwork/pkg/polyhedron"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// withGeometry builds a brush on geo, carrying over the faces of b through
// the matcher. Faces without a counterpart get default attributes. With
// uvLock set, matched faces whose vertices moved keep their texture on the
// surface.
func (b *Brush) withGeometry(worldBounds sdf.Box3, m *polyhedron.Matcher, uvLock bool) (*Brush, error) {
	left, right := m.Left(), m.Right()
	if !geom.BoxContainsBox(worldBounds, right.Bounds()) {
		return nil, ErrOutOfBounds
	}

	faces := make([]*Face, 0, right.FaceCount())
	var err error
	m.ProcessRightFaces(func(l, r polyhedron.FaceID) {
		if err != nil {
			return
		}
		polygon := right.FacePositions(r)
		var f *Face
		if src := b.faceForGeometry(left, l); src != nil {
			f = src.Clone()
			if uvLock {
				if t, ok := uvLockTransform(m, l, r); ok {
					if err = f.Transform(t, true); err != nil {
						return
					}
				}
			}
			f.link(r, polygon)
			err = f.updatePointsFromVertices()
		} else {
			p0, p1, p2, ok := polygonPoints(polygon)
			if !ok {
				err = fmt.Errorf("%w: degenerate face polygon", ErrColinearPoints)
				return
			}
			f, err = NewFace(p0, p1, p2, NewAttributes(NoTextureName), b.uvKind())
			if err != nil {
				return
			}
			f.link(r, polygon)
		}
		right.SetPayload(r, len(faces))
		faces = append(faces, f)
	})
	if err != nil {
		return nil, err
	}
	return &Brush{faces: faces, geometry: right, generation: b.generation}, nil
}

func (b *Brush) faceForGeometry(geo *polyhedron.Polyhedron, id polyhedron.FaceID) *Face {
	if id == polyhedron.None {
		return nil
	}
	p := geo.Payload(id)
	if p < 0 || p >= len(b.faces) {
		return nil
	}
	return b.faces[p]
}

// uvLockTransform finds the affine transform that carries the matched
// vertices of a left face onto the vertices of a right face. There is no
// transform if three or more vertices did not move.
func uvLockTransform(m *polyhedron.Matcher, l, r polyhedron.FaceID) (geom.Affine, bool) {
	type pair struct{ from, to v3.Vec }
	var moved, unmoved []pair
	m.VisitMatchingVertexPairs(l, r, func(lv, rv polyhedron.VertexID) {
		p := pair{m.Left().Position(lv), m.Right().Position(rv)}
		if geom.Equal(p.from, p.to, geom.AlmostZero) {
			unmoved = append(unmoved, p)
		} else {
			moved = append(moved, p)
		}
	})
	if len(unmoved) >= 3 {
		return geom.Affine{}, false
	}
	pairs := append(unmoved, moved...)
	n := len(pairs)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				in := [3]v3.Vec{pairs[i].from, pairs[j].from, pairs[k].from}
				out := [3]v3.Vec{pairs[i].to, pairs[j].to, pairs[k].to}
				if geom.Colinear(in[0], in[1], in[2]) || geom.Colinear(out[0], out[1], out[2]) {
					continue
				}
				return geom.PointsTransformation(in, out)
			}
		}
	}
	return geom.Affine{}, false
}

// swap replaces the state of b with that of nb.
func (b *Brush) swap(nb *Brush) {
	b.faces = nb.faces
	b.geometry = nb.geometry
	b.generation++
}

func (b *Brush) reject(op string, err error) error {
	Logger().Debug("brush edit rejected", "op", op, "err", err)
	return err
}

// rebuildVertices moves the vertices at positions by t and carries the
// faces over to the new geometry.
func (b *Brush) rebuildVertices(worldBounds sdf.Box3, positions []v3.Vec, t geom.Affine, uvLock bool) (*Brush, error) {
	geo, mapping, err := b.geometry.TransformVertices(positions, t)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIllegalMove, err)
	}
	return b.withGeometry(worldBounds, polyhedron.NewMatcherWithMapping(b.geometry, geo, mapping), uvLock)
}

// CanMoveVertices reports whether MoveVertices would succeed for the same
// arguments. A moved vertex may be absorbed by the hull but no vertex may
// pass through a face. b is not modified.
func (b *Brush) CanMoveVertices(worldBounds sdf.Box3, positions []v3.Vec, delta v3.Vec) bool {
	t := geom.Translation(delta)
	if !b.geometry.CanTransformVertices(worldBounds, positions, t, true) {
		return false
	}
	_, err := b.rebuildVertices(worldBounds, positions, t, false)
	return err == nil
}

// MoveVertices moves the vertices at positions by delta and returns their
// new positions. Vertices that were merged away are missing from the
// result.
func (b *Brush) MoveVertices(worldBounds sdf.Box3, positions []v3.Vec, delta v3.Vec, uvLock bool) ([]v3.Vec, error) {
	t := geom.Translation(delta)
	if !b.geometry.CanTransformVertices(worldBounds, positions, t, true) {
		return nil, b.reject("move vertices", ErrIllegalMove)
	}
	nb, err := b.rebuildVertices(worldBounds, positions, t, uvLock)
	if err != nil {
		return nil, b.reject("move vertices", err)
	}
	b.swap(nb)
	moved := make([]v3.Vec, len(positions))
	for i, p := range positions {
		moved[i] = p.Add(delta)
	}
	return b.FindClosestVertexPositions(moved), nil
}

// CanMoveEdges reports whether the edges can be moved by delta without
// losing any of their vertices.
func (b *Brush) CanMoveEdges(worldBounds sdf.Box3, edges []geom.Segment, delta v3.Vec) bool {
	t := geom.Translation(delta)
	if !b.geometry.CanTransformEdges(worldBounds, edges, t) {
		return false
	}
	_, err := b.rebuildVertices(worldBounds, polyhedron.EdgeVertices(edges), t, false)
	return err == nil
}

// MoveEdges moves the edges by delta and returns their new segments.
func (b *Brush) MoveEdges(worldBounds sdf.Box3, edges []geom.Segment, delta v3.Vec, uvLock bool) ([]geom.Segment, error) {
	t := geom.Translation(delta)
	if !b.geometry.CanTransformEdges(worldBounds, edges, t) {
		return nil, b.reject("move edges", ErrIllegalMove)
	}
	nb, err := b.rebuildVertices(worldBounds, polyhedron.EdgeVertices(edges), t, uvLock)
	if err != nil {
		return nil, b.reject("move edges", err)
	}
	b.swap(nb)
	moved := make([]geom.Segment, len(edges))
	for i, e := range edges {
		moved[i] = e.Transform(t)
	}
	return b.FindClosestEdgePositions(moved), nil
}

// CanMoveFaces reports whether the face polygons can be moved by delta
// without losing any of their vertices.
func (b *Brush) CanMoveFaces(worldBounds sdf.Box3, faces []geom.Polygon, delta v3.Vec) bool {
	t := geom.Translation(delta)
	if !b.geometry.CanTransformFaces(worldBounds, faces, t) {
		return false
	}
	_, err := b.rebuildVertices(worldBounds, polyhedron.FaceVertexPositions(faces), t, false)
	return err == nil
}

// MoveFaces moves the face polygons by delta and returns their new
// polygons.
func (b *Brush) MoveFaces(worldBounds sdf.Box3, faces []geom.Polygon, delta v3.Vec, uvLock bool) ([]geom.Polygon, error) {
	t := geom.Translation(delta)
	if !b.geometry.CanTransformFaces(worldBounds, faces, t) {
		return nil, b.reject("move faces", ErrIllegalMove)
	}
	nb, err := b.rebuildVertices(worldBounds, polyhedron.FaceVertexPositions(faces), t, uvLock)
	if err != nil {
		return nil, b.reject("move faces", err)
	}
	b.swap(nb)
	moved := make([]geom.Polygon, len(faces))
	for i, f := range faces {
		moved[i] = f.Transform(t)
	}
	return b.FindClosestFacePositions(moved), nil
}

// CanAddVertex reports whether pos would become a vertex of the brush.
func (b *Brush) CanAddVertex(worldBounds sdf.Box3, pos v3.Vec) bool {
	return b.geometry.CanAddVertex(worldBounds, pos)
}

// AddVertex grows the brush to the hull of its vertices and pos.
func (b *Brush) AddVertex(worldBounds sdf.Box3, pos v3.Vec) error {
	if !b.CanAddVertex(worldBounds, pos) {
		return b.reject("add vertex", ErrIllegalMove)
	}
	geo, err := b.geometry.AddVertex(pos)
	if err != nil {
		return b.reject("add vertex", err)
	}
	nb, err := b.withGeometry(worldBounds, polyhedron.NewMatcher(b.geometry, geo), false)
	if err != nil {
		return b.reject("add vertex", err)
	}
	b.swap(nb)
	return nil
}

// CanRemoveVertices reports whether the remaining vertices still enclose a
// solid.
func (b *Brush) CanRemoveVertices(positions []v3.Vec) bool {
	return b.geometry.CanRemoveVertices(positions)
}

// RemoveVertices shrinks the brush to the hull of its other vertices.
func (b *Brush) RemoveVertices(worldBounds sdf.Box3, positions []v3.Vec) error {
	if !b.CanRemoveVertices(positions) {
		return b.reject("remove vertices", ErrIllegalMove)
	}
	geo, err := b.geometry.RemoveVertices(positions)
	if err != nil {
		return b.reject("remove vertices", err)
	}
	nb, err := b.withGeometry(worldBounds, polyhedron.NewMatcher(b.geometry, geo), false)
	if err != nil {
		return b.reject("remove vertices", err)
	}
	b.swap(nb)
	return nil
}

// SnapVertices rounds every vertex to the grid.
func (b *Brush) SnapVertices(worldBounds sdf.Box3, grid float64, uvLock bool) error {
	geo, mapping, err := b.geometry.SnapVertices(grid)
	if err != nil {
		return b.reject("snap vertices", err)
	}
	nb, err := b.withGeometry(worldBounds, polyhedron.NewMatcherWithMapping(b.geometry, geo, mapping), uvLock)
	if err != nil {
		return b.reject("snap vertices", err)
	}
	b.swap(nb)
	return nil
}

// rebuildFaces builds a brush from copies of the faces of b after applying
// edit to each copy. Every face must survive.
func (b *Brush) rebuildFaces(worldBounds sdf.Box3, edit func(i int, f *Face) error) (*Brush, error) {
	faces := make([]*Face, len(b.faces))
	for i, f := range b.faces {
		faces[i] = f.Clone()
		if err := edit(i, faces[i]); err != nil {
			return nil, err
		}
	}
	nb, err := NewBrush(worldBounds, faces)
	if err != nil {
		return nil, err
	}
	if nb.FaceCount() != len(b.faces) {
		return nil, fmt.Errorf("%w: %d of %d faces left", ErrIllegalMove, nb.FaceCount(), len(b.faces))
	}
	if !geom.BoxContainsBox(worldBounds, nb.Bounds()) {
		return nil, ErrOutOfBounds
	}
	nb.generation = b.generation
	return nb, nil
}

func (b *Brush) boundaryMoved(worldBounds sdf.Box3, faceIndex int, delta v3.Vec, uvLock bool) (*Brush, error) {
	if faceIndex < 0 || faceIndex >= len(b.faces) {
		return nil, fmt.Errorf("%w: no face %d", ErrIllegalMove, faceIndex)
	}
	return b.rebuildFaces(worldBounds, func(i int, f *Face) error {
		if i != faceIndex {
			return nil
		}
		return f.Transform(geom.Translation(delta), uvLock)
	})
}

// CanMoveBoundary reports whether the face at faceIndex can be moved by
// delta without losing any face.
func (b *Brush) CanMoveBoundary(worldBounds sdf.Box3, faceIndex int, delta v3.Vec) bool {
	_, err := b.boundaryMoved(worldBounds, faceIndex, delta, false)
	return err == nil
}

// MoveBoundary moves the plane of the face at faceIndex by delta.
func (b *Brush) MoveBoundary(worldBounds sdf.Box3, faceIndex int, delta v3.Vec, uvLock bool) error {
	nb, err := b.boundaryMoved(worldBounds, faceIndex, delta, uvLock)
	if err != nil {
		return b.reject("move boundary", err)
	}
	b.swap(nb)
	return nil
}

// Expand moves every face by delta along its normal. Negative values
// shrink the brush. The brush must keep all of its faces.
func (b *Brush) Expand(worldBounds sdf.Box3, delta float64, uvLock bool) error {
	nb, err := b.rebuildFaces(worldBounds, func(_ int, f *Face) error {
		return f.Transform(geom.Translation(f.Normal().MulScalar(delta)), uvLock)
	})
	if err != nil {
		return b.reject("expand", err)
	}
	b.swap(nb)
	return nil
}

// Transform applies t to every face.
func (b *Brush) Transform(worldBounds sdf.Box3, t geom.Affine, uvLock bool) error {
	if !t.IsValid() {
		return b.reject("transform", fmt.Errorf("%w: invalid transform", ErrIllegalMove))
	}
	nb, err := b.rebuildFaces(worldBounds, func(_ int, f *Face) error {
		return f.Transform(t, uvLock)
	})
	if err != nil {
		return b.reject("transform", err)
	}
	b.swap(nb)
	return nil
}

// Clip cuts the brush by face and adds face to it. Clip returns
// ErrUnchanged if face does not cut the brush and ErrEmptyBrush if nothing
// would remain.
func (b *Brush) Clip(worldBounds sdf.Box3, face *Face) error {
	if _, ok := b.FindFaceByPlane(face.Boundary()); ok {
		return b.reject("clip", ErrUnchanged)
	}
	if _, err := b.geometry.Clip(face.Boundary(), polyhedron.None); err != nil {
		switch {
		case errors.Is(err, polyhedron.ErrUnchanged):
			err = ErrUnchanged
		case errors.Is(err, polyhedron.ErrEmpty):
			err = ErrEmptyBrush
		}
		return b.reject("clip", err)
	}
	faces := make([]*Face, 0, len(b.faces)+1)
	for _, f := range b.faces {
		faces = append(faces, f.Clone())
	}
	faces = append(faces, face.Clone())
	nb, err := NewBrush(worldBounds, faces)
	if err != nil {
		return b.reject("clip", err)
	}
	b.swap(nb)
	return nil
}
