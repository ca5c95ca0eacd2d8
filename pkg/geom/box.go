package geom

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// CubeBounds returns the box [-half, half] on every axis.
func CubeBounds(half float64) sdf.Box3 {
	return sdf.Box3{
		Min: v3.Vec{X: -half, Y: -half, Z: -half},
		Max: v3.Vec{X: half, Y: half, Z: half},
	}
}

// Bounds returns the smallest box containing all points. points must not
// be empty.
func Bounds(points []v3.Vec) sdf.Box3 {
	set := v3.VecSet(points)
	return sdf.Box3{Min: set.Min(), Max: set.Max()}
}

// Grow returns b with every side moved outward by d.
func Grow(b sdf.Box3, d float64) sdf.Box3 {
	return b.Enlarge(v3.Vec{X: 2 * d, Y: 2 * d, Z: 2 * d})
}

// BoxContainsBox reports whether inner lies inside outer.
func BoxContainsBox(outer, inner sdf.Box3) bool {
	return outer.Contains(inner.Min) && outer.Contains(inner.Max)
}

// BoxIntersects reports whether the boxes overlap, touching included.
func BoxIntersects(a, b sdf.Box3) bool {
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X &&
		a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y &&
		a.Min.Z <= b.Max.Z && b.Min.Z <= a.Max.Z
}

// BoxValid reports whether Min is not greater than Max on any axis.
func BoxValid(b sdf.Box3) bool {
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}
