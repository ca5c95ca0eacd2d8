package uv

import (
	"math"

	"github.com/chazu/brushwork/pkg/geom"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// NewParallel returns a parallel system for the face through the three
// points.
func NewParallel(p0, p1, p2 v3.Vec, a Alignment) System {
	s := System{kind: Parallel, u: geom.PosX, v: geom.NegY}
	s.ResetCache(p0, p1, p2, a)
	return s
}

// NewParallelFromAxes returns a parallel system with the given axes.
func NewParallelFromAxes(u, v v3.Vec) System {
	return System{kind: Parallel, u: u, v: v}
}

// initialAxes returns axes lying in the plane of normal. On axis aligned
// faces they agree with the paraxial axes of floors and of faces pointing
// along X.
func initialAxes(normal v3.Vec) (u, v v3.Vec) {
	v = geom.NegZ
	if geom.MajorAxis(normal) == geom.AxisZ {
		v = geom.NegY
	}
	u, ok := geom.Normalize(normal.Cross(v))
	if !ok {
		u, v = geom.PlaneBasis(normal)
		return u, v.Neg()
	}
	v = geom.MustNormalize(u.Cross(normal))
	return u, v
}

// applyRotation turns the axes counter clockwise about normal.
func (s *System) applyRotation(normal v3.Vec, degrees float64) {
	if degrees == 0 {
		return
	}
	rot := geom.RotationAbout(normal, geom.Radians(degrees))
	s.u = rot.ApplyVector(s.u)
	s.v = rot.ApplyVector(s.v)
}

func (s *System) transformParallel(oldBoundary, newBoundary geom.Plane, t geom.Affine, a *Alignment, textureSize v2.Vec, lock bool, oldInvariant v3.Vec) {
	if a.Scale.X == 0 || a.Scale.Y == 0 {
		return
	}
	if !lock {
		s.updateNormalWithProjection(newBoundary.Normal, *a)
		return
	}

	inv, ok := t.Inverse()
	if !ok {
		return
	}

	a.Rotation = geom.CorrectFloat(geom.NormalizeDegrees(a.Rotation+s.textureAngle(oldBoundary, t)), 4)

	oldInvariantCoords := s.computeUVCoords(oldInvariant, a.Scale).Add(a.Offset)

	// The world to texture map composed with the inverse of t keeps every
	// texel attached to the point it was on.
	s.u = inv.TransposeApplyVector(s.u)
	s.v = inv.TransposeApplyVector(s.v)

	newInvariantCoords := s.computeUVCoords(t.Apply(oldInvariant), a.Scale)
	a.Offset = ModOffset(oldInvariantCoords.Sub(newInvariantCoords), textureSize)
}

// textureAngle returns the rotation in degrees that t applies to the U axis
// about the transformed face normal, discounting the rotation that merely
// carries the old normal to the new one.
func (s System) textureAngle(oldBoundary geom.Plane, t geom.Affine) float64 {
	linear := t.Linear()
	oldNormal := oldBoundary.Normal
	newNormal, ok := geom.Normalize(linear.ApplyVector(oldNormal))
	if !ok {
		return 0
	}
	newU, ok := geom.Normalize(linear.ApplyVector(s.u))
	if !ok {
		return 0
	}
	carry := geom.Identity()
	if axis, ok := geom.Normalize(oldNormal.Cross(newNormal)); ok {
		carry = geom.RotationAbout(axis, geom.MeasureAngle(newNormal, oldNormal, axis))
	} else if oldNormal.Dot(newNormal) < 0 {
		u, _ := geom.PlaneBasis(oldNormal)
		carry = geom.RotationAbout(u, math.Pi)
	}
	carriedU, ok := geom.Normalize(carry.ApplyVector(s.u))
	if !ok {
		return 0
	}
	carriedU = carriedU.Sub(newNormal.MulScalar(carriedU.Dot(newNormal)))
	newU = newU.Sub(newNormal.MulScalar(newU.Dot(newNormal)))
	cu, ok1 := geom.Normalize(carriedU)
	nu, ok2 := geom.Normalize(newU)
	if !ok1 || !ok2 {
		return 0
	}
	return geom.Degrees(geom.MeasureAngle(nu, cu, newNormal))
}
