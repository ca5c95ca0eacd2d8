package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Affine is a 3D affine transform held as an sdfx homogeneous matrix.
// Transforms are usually built with the sdfx matrix constructors and
// converted with FromM44.
type Affine struct {
	m sdf.M44
}

// Identity returns the identity transform.
func Identity() Affine {
	return Affine{m: sdf.Identity3d()}
}

// FromM44 wraps an sdfx homogeneous matrix. The bottom row must be
// 0 0 0 1.
func FromM44(m sdf.M44) Affine {
	return Affine{m: m}
}

// M44 returns the transform as an sdfx matrix.
func (a Affine) M44() sdf.M44 { return a.m }

// Translation returns a transform that moves points by d.
func Translation(d v3.Vec) Affine {
	return FromM44(sdf.Translate3d(d))
}

// Scaling returns a transform that scales about the origin.
func Scaling(s v3.Vec) Affine {
	return FromM44(sdf.Scale3d(s))
}

// RotationAbout returns a right handed rotation of rad radians about axis.
func RotationAbout(axis v3.Vec, rad float64) Affine {
	return FromM44(sdf.Rotate3d(axis, rad))
}

// RotationEuler returns the rotation by the given angles in degrees about
// X, then Y, then Z.
func RotationEuler(x, y, z float64) Affine {
	m := sdf.RotateZ(Radians(z)).Mul(sdf.RotateY(Radians(y))).Mul(sdf.RotateX(Radians(x)))
	return FromM44(m)
}

// Apply maps a point.
func (a Affine) Apply(p v3.Vec) v3.Vec {
	return a.m.MulPosition(p)
}

// ApplyVector maps a direction, ignoring the translation.
func (a Affine) ApplyVector(v v3.Vec) v3.Vec {
	m := a.m
	return v3.Vec{
		X: m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		Y: m[4]*v.X + m[5]*v.Y + m[6]*v.Z,
		Z: m[8]*v.X + m[9]*v.Y + m[10]*v.Z,
	}
}

// TransposeApplyVector maps v by the transpose of the linear part.
func (a Affine) TransposeApplyVector(v v3.Vec) v3.Vec {
	m := a.m
	return v3.Vec{
		X: m[0]*v.X + m[4]*v.Y + m[8]*v.Z,
		Y: m[1]*v.X + m[5]*v.Y + m[9]*v.Z,
		Z: m[2]*v.X + m[6]*v.Y + m[10]*v.Z,
	}
}

// Offset returns the translation part.
func (a Affine) Offset() v3.Vec {
	return v3.Vec{X: a.m[3], Y: a.m[7], Z: a.m[11]}
}

// WithOffset returns a with its translation replaced by d.
func (a Affine) WithOffset(d v3.Vec) Affine {
	a.m[3], a.m[7], a.m[11] = d.X, d.Y, d.Z
	return a
}

// Mul returns the transform that applies b first, then a.
func (a Affine) Mul(b Affine) Affine {
	return Affine{m: a.m.Mul(b.m)}
}

// Determinant returns the determinant of the linear part.
func (a Affine) Determinant() float64 {
	return a.m.Determinant()
}

// Inverse returns the inverse transform. It returns false if the linear
// part is singular.
func (a Affine) Inverse() (Affine, bool) {
	if math.Abs(a.Determinant()) < AngleEpsilon {
		return Affine{}, false
	}
	return Affine{m: a.m.Inverse()}, true
}

// Linear returns the transform without its translation.
func (a Affine) Linear() Affine {
	return a.WithOffset(v3.Vec{})
}

// IsIdentity reports whether every entry matches the identity within eps.
func (a Affine) IsIdentity(eps float64) bool {
	id := sdf.Identity3d()
	for i, f := range a.m {
		if math.Abs(f-id[i]) > eps {
			return false
		}
	}
	return true
}

// IsValid reports whether no entry is NaN or infinite.
func (a Affine) IsValid() bool {
	for _, f := range a.m {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// PointsTransformation returns the affine transform that maps the triangle
// in onto the triangle out. The triangle normals serve as the fourth point
// pair. It returns false if either triangle is degenerate.
func PointsTransformation(in, out [3]v3.Vec) (Affine, bool) {
	inU, inV := in[1].Sub(in[0]), in[2].Sub(in[0])
	outU, outV := out[1].Sub(out[0]), out[2].Sub(out[0])
	inN, ok := Normalize(inU.Cross(inV))
	if !ok {
		return Affine{}, false
	}
	outN, ok := Normalize(outU.Cross(outV))
	if !ok {
		return Affine{}, false
	}
	src := columns(inU, inV, inN)
	dst := columns(outU, outV, outN)
	srcInv, ok := src.Inverse()
	if !ok {
		return Affine{}, false
	}
	r := dst.Mul(srcInv)
	r = r.WithOffset(out[0].Sub(r.ApplyVector(in[0])))
	if !r.IsValid() {
		return Affine{}, false
	}
	return r, true
}

func columns(a, b, c v3.Vec) Affine {
	return FromM44(sdf.M44{
		a.X, b.X, c.X, 0,
		a.Y, b.Y, c.Y, 0,
		a.Z, b.Z, c.Z, 0,
		0, 0, 0, 1,
	})
}
