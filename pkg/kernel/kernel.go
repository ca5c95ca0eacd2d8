// Package kernel defines the abstract geometry kernel interface.
// Implementations (brushes, sdfx) evaluate brush solids, booleans and
// brush edits behind this interface. The kernel abstraction allows
// swapping backends without changing the rest of the system.
package kernel

import (
	"github.com/chazu/brushwork/pkg/brush"
	"github.com/chazu/brushwork/pkg/geom"
)

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
// Implementations (brushes, sdfx) provide solid modeling behind this interface.
type Kernel interface {
	// Primitives
	Brush(b *brush.Brush) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) (Solid, error)
	Intersection(a, b Solid) (Solid, error)

	// Brush edits. Clip keeps the part of s behind the plane, the side its
	// normal points away from. Expand moves every boundary plane outward
	// by delta.
	Clip(s Solid, plane geom.Plane) (Solid, error)
	Expand(s Solid, delta float64) (Solid, error)

	// Transforms
	Transform(s Solid, t geom.Affine) (Solid, error)

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
