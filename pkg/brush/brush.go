// Package brush implements editable convex brushes: a set of planar faces
// with texture attributes together with the polyhedron they enclose.
//
// A brush is rebuilt from scratch on every edit. The new geometry is
// computed on a copy, the faces of the old geometry are matched to the faces
// of the new one so that their attributes carry over, and only then is the
// result swapped in. A rejected edit leaves the brush as it was.
package brush

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/brushwork/pkg/geom"
	"github.com/chazu/brushwork/pkg/polyhedron"
	"github.com/chazu/brushwork/pkg/uv"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Brush is a convex solid bounded by faces.
type Brush struct {
	faces    []*Face
	geometry *polyhedron.Polyhedron

	generation uint64
	content    contentCache
}

// NewBrush builds the brush enclosed by faces inside worldBounds. Faces
// that do not cut the solid are dropped; the remaining faces keep their
// order. NewBrush returns ErrEmptyBrush if the faces enclose no volume and
// ErrIncompleteBrush if they do not close the solid.
func NewBrush(worldBounds sdf.Box3, faces []*Face) (*Brush, error) {
	geo, err := polyhedron.NewBox(geom.Grow(worldBounds, 1))
	if err != nil {
		return nil, fmt.Errorf("brush: world bounds: %w", err)
	}
	for i, f := range faces {
		c, err := geo.Clip(f.Boundary(), i)
		switch {
		case errors.Is(err, polyhedron.ErrUnchanged):
			continue
		case errors.Is(err, polyhedron.ErrEmpty):
			return nil, ErrEmptyBrush
		case err != nil:
			return nil, fmt.Errorf("brush: clip by face %d: %w", i, err)
		}
		geo = c
	}

	used := make([]bool, len(faces))
	for id := 0; id < geo.FaceCount(); id++ {
		p := geo.Payload(polyhedron.FaceID(id))
		if p == polyhedron.None {
			return nil, ErrIncompleteBrush
		}
		used[p] = true
	}

	index := make([]int, len(faces))
	kept := make([]*Face, 0, geo.FaceCount())
	for i, f := range faces {
		index[i] = polyhedron.None
		if used[i] {
			index[i] = len(kept)
			kept = append(kept, f)
		}
	}
	for id := 0; id < geo.FaceCount(); id++ {
		fid := polyhedron.FaceID(id)
		p := index[geo.Payload(fid)]
		geo.SetPayload(fid, p)
		kept[p].link(fid, geo.FacePositions(fid))
	}
	return &Brush{faces: kept, geometry: geo}, nil
}

// Faces returns the faces in order. The slice must not be modified.
func (b *Brush) Faces() []*Face { return b.faces }

// Face returns the face at index i.
func (b *Brush) Face(i int) *Face { return b.faces[i] }

// FaceCount returns the number of faces.
func (b *Brush) FaceCount() int { return len(b.faces) }

// Geometry returns the polyhedron of the brush. It must not be modified.
func (b *Brush) Geometry() *polyhedron.Polyhedron { return b.geometry }

// Bounds returns the bounding box.
func (b *Brush) Bounds() sdf.Box3 { return b.geometry.Bounds() }

// Center returns the vertex centroid.
func (b *Brush) Center() v3.Vec { return b.geometry.Center() }

// Volume returns the enclosed volume.
func (b *Brush) Volume() float64 { return b.geometry.Volume() }

// VertexCount returns the number of vertices.
func (b *Brush) VertexCount() int { return b.geometry.VertexCount() }

// EdgeCount returns the number of edges.
func (b *Brush) EdgeCount() int { return b.geometry.EdgeCount() }

// VertexPositions returns the vertex positions.
func (b *Brush) VertexPositions() []v3.Vec { return b.geometry.VertexPositions() }

// Edges returns the edges as segments.
func (b *Brush) Edges() []geom.Segment { return b.geometry.EdgeSegments() }

// Generation is incremented by every successful edit. Observers compare it
// with the value they last saw to find out whether their caches are stale.
func (b *Brush) Generation() uint64 { return b.generation }

// Clone returns a deep copy with the same generation.
func (b *Brush) Clone() *Brush {
	geo := b.geometry.Clone()
	faces := make([]*Face, len(b.faces))
	for i, f := range b.faces {
		c := f.Clone()
		c.link(f.geometry, c.polygon)
		faces[i] = c
	}
	return &Brush{faces: faces, geometry: geo, generation: b.generation}
}

// HasVertex reports whether the brush has a vertex at pos.
func (b *Brush) HasVertex(pos v3.Vec) bool {
	return b.geometry.HasVertex(pos, geom.AlmostZero)
}

// HasEdge reports whether the brush has an edge between a and b.
func (b *Brush) HasEdge(seg geom.Segment) bool {
	return b.geometry.HasEdge(seg.Start, seg.End, geom.AlmostZero)
}

// HasFace reports whether the brush has a face with the given vertices.
func (b *Brush) HasFace(polygon geom.Polygon) bool {
	return b.geometry.HasFace(polygon, geom.AlmostZero)
}

// FindFace returns the index of the first face with the given texture.
func (b *Brush) FindFace(textureName string) (int, bool) {
	for i, f := range b.faces {
		if strings.EqualFold(f.TextureName(), textureName) {
			return i, true
		}
	}
	return -1, false
}

// FindFaceByNormal returns the index of the face with the given normal.
func (b *Brush) FindFaceByNormal(normal v3.Vec) (int, bool) {
	for i, f := range b.faces {
		if geom.Equal(f.Normal(), normal, geom.AlmostZero) {
			return i, true
		}
	}
	return -1, false
}

// FindFaceByPlane returns the index of the face lying on plane.
func (b *Brush) FindFaceByPlane(plane geom.Plane) (int, bool) {
	for i, f := range b.faces {
		if f.Boundary().Equal(plane, geom.AlmostZero) {
			return i, true
		}
	}
	return -1, false
}

// FindFaceByPolygon returns the index of the face with the given vertices,
// in any rotation.
func (b *Brush) FindFaceByPolygon(polygon geom.Polygon, eps float64) (int, bool) {
	id, ok := b.geometry.FindFace(polygon, eps)
	if !ok {
		return -1, false
	}
	return b.geometry.Payload(id), true
}

// FindClosestVertexPositions returns the vertices within CloseVertexEpsilon
// of the given positions. Positions without a nearby vertex are skipped.
func (b *Brush) FindClosestVertexPositions(positions []v3.Vec) []v3.Vec {
	var r []v3.Vec
	for _, p := range positions {
		if id, ok := b.geometry.FindClosestVertex(p, geom.CloseVertexEpsilon); ok {
			q := b.geometry.Position(id)
			if !geom.Contains(r, q, geom.AlmostZero) {
				r = append(r, q)
			}
		}
	}
	return r
}

// FindClosestEdgePositions returns the edges closest to the given segments.
func (b *Brush) FindClosestEdgePositions(edges []geom.Segment) []geom.Segment {
	var r []geom.Segment
	for _, e := range edges {
		if id, ok := b.geometry.FindClosestEdge(e.Start, e.End, geom.CloseVertexEpsilon); ok {
			r = append(r, b.geometry.EdgeSegment(id))
		}
	}
	return r
}

// FindClosestFacePositions returns the face polygons closest to the given
// polygons.
func (b *Brush) FindClosestFacePositions(faces []geom.Polygon) []geom.Polygon {
	var r []geom.Polygon
	for _, f := range faces {
		if id, ok := b.geometry.FindClosestFace(f, geom.CloseVertexEpsilon); ok {
			r = append(r, b.geometry.FacePositions(id))
		}
	}
	return r
}

// ContainsPoint reports whether p lies inside or on the brush.
func (b *Brush) ContainsPoint(p v3.Vec) bool { return b.geometry.ContainsPoint(p) }

// Contains reports whether o lies entirely inside b.
func (b *Brush) Contains(o *Brush) bool { return b.geometry.Contains(o.geometry) }

// Intersects reports whether b and o share volume or touch.
func (b *Brush) Intersects(o *Brush) bool { return b.geometry.Intersects(o.geometry) }

// PickFace returns the index of the first face hit by ray and the hit
// distance.
func (b *Brush) PickFace(ray geom.Ray) (int, float64, bool) {
	best, bestDist := -1, 0.0
	for i, f := range b.faces {
		if d, ok := f.IntersectWithRay(ray); ok && (best < 0 || d < bestDist) {
			best, bestDist = i, d
		}
	}
	return best, bestDist, best >= 0
}

// CheckFaceLinks verifies that every face is linked to the geometry face
// that carries its index.
func (b *Brush) CheckFaceLinks() error {
	if len(b.faces) != b.geometry.FaceCount() {
		return fmt.Errorf("brush: %d faces for %d geometry faces", len(b.faces), b.geometry.FaceCount())
	}
	for i, f := range b.faces {
		if !f.Linked() {
			return fmt.Errorf("brush: face %d is not linked", i)
		}
		if p := b.geometry.Payload(f.geometry); p != i {
			return fmt.Errorf("brush: face %d is linked to geometry face %d of face %d", i, f.geometry, p)
		}
		if !f.polygon.Equal(b.geometry.FacePositions(f.geometry), geom.AlmostZero) {
			return fmt.Errorf("brush: face %d polygon is stale", i)
		}
		if !f.ArePointsOnPlane(b.geometry.Face(f.geometry).Plane) {
			return fmt.Errorf("brush: face %d points are off its plane", i)
		}
	}
	return b.geometry.CheckInvariants()
}

// CloneFaceAttributesFrom copies the attributes of every face of o onto the
// face of b that lies on the same plane.
func (b *Brush) CloneFaceAttributesFrom(o *Brush) {
	for _, f := range b.faces {
		if i, ok := o.FindFaceByPlane(f.Boundary()); ok {
			f.CopyUVFrom(o.faces[i], uv.WrapProjection)
		}
	}
	b.generation++
}

// CloneInvertedFaceAttributesFrom copies the attributes of every face of o
// onto the face of b that lies on the same plane facing the other way.
func (b *Brush) CloneInvertedFaceAttributesFrom(o *Brush) {
	for _, f := range b.faces {
		if i, ok := o.FindFaceByPlane(f.Boundary().Flip()); ok {
			f.CopyUVFrom(o.faces[i], uv.WrapProjection)
		}
	}
	b.generation++
}

// SetTextures resolves the texture of every face through m.
func (b *Brush) SetTextures(m *TextureManager) {
	for _, f := range b.faces {
		f.SetTexture(m.Texture(f.TextureName()))
	}
	b.generation++
}

// ConvertToParaxial switches every face to a paraxial coordinate system.
func (b *Brush) ConvertToParaxial() {
	for _, f := range b.faces {
		f.ConvertToParaxial()
	}
	b.generation++
}

// ConvertToParallel switches every face to a parallel coordinate system.
func (b *Brush) ConvertToParallel() {
	for _, f := range b.faces {
		f.ConvertToParallel()
	}
	b.generation++
}

// uvKind returns the coordinate system kind of the brush's faces.
func (b *Brush) uvKind() uv.Kind {
	if len(b.faces) == 0 {
		return uv.Paraxial
	}
	return b.faces[0].uv.Kind()
}

func (b *Brush) String() string {
	var sb strings.Builder
	sb.WriteString("{\n")
	for _, f := range b.faces {
		sb.WriteString(f.String())
		sb.WriteByte('\n')
	}
	sb.WriteString("}")
	return sb.String()
}
