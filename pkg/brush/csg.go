package brush

import (
	"errors"
	"fmt"

	"github.com/chazu/brushwork/pkg/polyhedron"
	"github.com/deadsy/sdfx/sdf"
)

// Subtract returns the convex fragments of b that lie outside subtrahend.
// Faces of the fragments that lie on a face of b keep its attributes; the
// faces cut by subtrahend get defaultTexture. A brush that does not touch
// subtrahend yields one fragment equal to b, an enclosed brush yields none.
// b is not modified.
func (b *Brush) Subtract(worldBounds sdf.Box3, format MapFormat, defaultTexture string, subtrahend *Brush) ([]*Brush, error) {
	pieces, err := b.geometry.Subtract(subtrahend.geometry)
	if err != nil {
		return nil, fmt.Errorf("brush: subtract: %w", err)
	}
	fragments := make([]*Brush, 0, len(pieces))
	for i, piece := range pieces {
		fragment, err := fragmentBrush(worldBounds, format, defaultTexture, piece)
		if err != nil {
			Logger().Debug("dropping subtract fragment", "index", i, "err", err)
			continue
		}
		fragment.CloneFaceAttributesFrom(b)
		fragment.generation = 0
		fragments = append(fragments, fragment)
	}
	return fragments, nil
}

func fragmentBrush(worldBounds sdf.Box3, format MapFormat, textureName string, geo *polyhedron.Polyhedron) (*Brush, error) {
	faces := make([]*Face, 0, geo.FaceCount())
	for id := 0; id < geo.FaceCount(); id++ {
		p0, p1, p2, ok := polygonPoints(geo.FacePositions(polyhedron.FaceID(id)))
		if !ok {
			return nil, fmt.Errorf("%w: degenerate fragment face", ErrColinearPoints)
		}
		f, err := NewFace(p0, p1, p2, NewAttributes(textureName), format.UVKind())
		if err != nil {
			return nil, err
		}
		faces = append(faces, f)
	}
	return NewBrush(worldBounds, faces)
}

// Intersect replaces b with its common volume with other. Faces of other
// that bound the result are added with their attributes. Intersect returns
// ErrEmptyBrush and leaves b unchanged if the brushes do not overlap.
func (b *Brush) Intersect(worldBounds sdf.Box3, other *Brush) error {
	if _, err := b.geometry.Intersect(other.geometry); err != nil {
		if errors.Is(err, polyhedron.ErrEmpty) {
			err = ErrEmptyBrush
		}
		return b.reject("intersect", err)
	}
	faces := make([]*Face, 0, len(b.faces)+len(other.faces))
	for _, f := range b.faces {
		faces = append(faces, f.Clone())
	}
	for _, f := range other.faces {
		if _, ok := b.FindFaceByPlane(f.Boundary()); ok {
			continue
		}
		faces = append(faces, f.Clone())
	}
	nb, err := NewBrush(worldBounds, faces)
	if err != nil {
		return b.reject("intersect", err)
	}
	b.swap(nb)
	return nil
}
