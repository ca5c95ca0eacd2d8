// Package geom provides the floating point primitives shared by the brush
// kernel: vectors (sdfx v3/v2), planes, rays, segments, polygons, bounding
// boxes and affine transforms, together with the tolerances every geometric
// predicate in the kernel is measured against.
package geom

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Tolerances used throughout the kernel.
const (
	// AlmostZero is the general purpose tolerance for comparing positions,
	// normals and matrix entries.
	AlmostZero = 0.001
	// PointStatusEpsilon decides whether a point lies on a plane.
	PointStatusEpsilon = 0.0001
	// CorrectEpsilon is the distance below which a value snaps to its
	// rounded representation.
	CorrectEpsilon = 0.001
	// ColinearEpsilon decides whether three points are colinear.
	ColinearEpsilon = 0.00001
	// AngleEpsilon is the tolerance for angle comparisons in radians.
	AngleEpsilon = 1e-8
	// CloseVertexEpsilon is the search radius used to relocate handles
	// after an edit.
	CloseVertexEpsilon = 0.01
)

// Axis identifies a principal axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "unknown"
	}
}

// Unit vectors.
var (
	PosX = v3.Vec{X: 1}
	PosY = v3.Vec{Y: 1}
	PosZ = v3.Vec{Z: 1}
	NegX = v3.Vec{X: -1}
	NegY = v3.Vec{Y: -1}
	NegZ = v3.Vec{Z: -1}
)

// Component returns the component of v along axis a.
func Component(v v3.Vec, a Axis) float64 {
	switch a {
	case AxisX:
		return v.X
	case AxisY:
		return v.Y
	default:
		return v.Z
	}
}

// Equal reports whether a and b differ by at most eps in every component.
func Equal(a, b v3.Vec, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps && math.Abs(a.Z-b.Z) <= eps
}

// IsZero reports whether every component of v is within eps of zero.
func IsZero(v v3.Vec, eps float64) bool {
	return Equal(v, v3.Vec{}, eps)
}

// IsUnit reports whether v has length 1 within eps.
func IsUnit(v v3.Vec, eps float64) bool {
	return math.Abs(v.Length()-1) <= eps
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b v3.Vec) float64 {
	return a.Sub(b).Length()
}

// Normalize returns v scaled to unit length. The second result is false if
// v is too short to have a direction.
func Normalize(v v3.Vec) (v3.Vec, bool) {
	l := v.Length()
	if l < ColinearEpsilon {
		return v3.Vec{}, false
	}
	return v.MulScalar(1 / l), true
}

// MustNormalize is Normalize for vectors that are known to be non-zero.
func MustNormalize(v v3.Vec) v3.Vec {
	n, ok := Normalize(v)
	if !ok {
		panic("geom: cannot normalize zero vector")
	}
	return n
}

// MajorAxis returns the axis of the component of v with the largest
// absolute value. Ties prefer X, then Y.
func MajorAxis(v v3.Vec) Axis {
	ax, ay, az := math.Abs(v.X), math.Abs(v.Y), math.Abs(v.Z)
	switch {
	case ax >= ay && ax >= az:
		return AxisX
	case ay >= az:
		return AxisY
	default:
		return AxisZ
	}
}

// Swizzle permutes v so that the given axis becomes the Z component. The
// remaining two components keep their cyclic order.
func Swizzle(v v3.Vec, a Axis) v3.Vec {
	switch a {
	case AxisX:
		return v3.Vec{X: v.Y, Y: v.Z, Z: v.X}
	case AxisY:
		return v3.Vec{X: v.Z, Y: v.X, Z: v.Y}
	default:
		return v
	}
}

// Round rounds every component to the nearest integer.
func Round(v v3.Vec) v3.Vec {
	return v3.Vec{X: math.Round(v.X), Y: math.Round(v.Y), Z: math.Round(v.Z)}
}

// Snap rounds every component to the nearest multiple of grid.
func Snap(v v3.Vec, grid float64) v3.Vec {
	if grid <= 0 {
		return v
	}
	return Round(v.MulScalar(1 / grid)).MulScalar(grid)
}

// CorrectFloat rounds f to the given number of decimals if it is within
// CorrectEpsilon of that rounded value.
func CorrectFloat(f float64, decimals int) float64 {
	m := math.Pow(10, float64(decimals))
	r := math.Round(f*m) / m
	if math.Abs(f-r) < CorrectEpsilon {
		return r
	}
	return f
}

// Correct applies CorrectFloat to every component of v.
func Correct(v v3.Vec, decimals int) v3.Vec {
	return v3.Vec{
		X: CorrectFloat(v.X, decimals),
		Y: CorrectFloat(v.Y, decimals),
		Z: CorrectFloat(v.Z, decimals),
	}
}

// Correct2 applies CorrectFloat to both components of v.
func Correct2(v v2.Vec, decimals int) v2.Vec {
	return v2.Vec{X: CorrectFloat(v.X, decimals), Y: CorrectFloat(v.Y, decimals)}
}

// Compare orders vectors lexicographically by X, Y, Z.
func Compare(a, b v3.Vec) int {
	switch {
	case a.X < b.X:
		return -1
	case a.X > b.X:
		return 1
	case a.Y < b.Y:
		return -1
	case a.Y > b.Y:
		return 1
	case a.Z < b.Z:
		return -1
	case a.Z > b.Z:
		return 1
	}
	return 0
}

// Centroid returns the average of the given points.
func Centroid(points []v3.Vec) v3.Vec {
	if len(points) == 0 {
		return v3.Vec{}
	}
	var sum v3.Vec
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.MulScalar(1 / float64(len(points)))
}

// Colinear reports whether a, b and c lie on a common line.
func Colinear(a, b, c v3.Vec) bool {
	ab := b.Sub(a)
	ac := c.Sub(a)
	return IsZero(ab.Cross(ac), ColinearEpsilon) || ab.Length() < ColinearEpsilon || ac.Length() < ColinearEpsilon
}

// Contains reports whether points holds a point equal to p within eps.
func Contains(points []v3.Vec, p v3.Vec, eps float64) bool {
	for _, q := range points {
		if Equal(p, q, eps) {
			return true
		}
	}
	return false
}

// NormalizeDegrees maps an angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// MeasureAngle returns the counter clockwise angle in [0, 2pi) that rotates
// axis onto v around up. Both v and axis are expected to be perpendicular
// to up.
func MeasureAngle(v, axis, up v3.Vec) float64 {
	a := math.Atan2(axis.Cross(v).Dot(up), axis.Dot(v))
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
