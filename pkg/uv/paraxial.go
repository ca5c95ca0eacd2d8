package uv

import (
	"math"

	"github.com/chazu/brushwork/pkg/geom"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// baseAxes holds, for each of the six principal directions, the face normal
// followed by the texture U and V axes used for faces closest to it.
var baseAxes = [18]v3.Vec{
	{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: -1, Z: 0},
	{X: 0, Y: 0, Z: -1}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: -1, Z: 0},
	{X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: -1},
	{X: -1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: -1},
	{X: 0, Y: 1, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 0, Z: -1},
	{X: 0, Y: -1, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 0, Z: -1},
}

// NewParaxial returns a paraxial system for the face through the three
// points.
func NewParaxial(p0, p1, p2 v3.Vec, a Alignment) System {
	s := System{kind: Paraxial}
	s.u, s.v, _ = paraxialAxes(0)
	s.ResetCache(p0, p1, p2, a)
	return s
}

// NewParaxialFromNormal returns a paraxial system for a face with the given
// normal and rotation in degrees.
func NewParaxialFromNormal(normal v3.Vec, rotation float64) System {
	s := System{kind: Paraxial}
	s.SetRotation(normal, 0, rotation)
	return s
}

// planeNormalIndex returns the index of the principal direction closest to
// normal. Ties go to the earlier direction.
func planeNormalIndex(normal v3.Vec) int {
	best, bestDot := 0, 0.0
	for i := 0; i < 6; i++ {
		if d := normal.Dot(baseAxes[i*3]); d > bestDot {
			best, bestDot = i, d
		}
	}
	return best
}

// paraxialAxes returns the U and V axes of a principal direction and the
// axis of the plane they are projected onto.
func paraxialAxes(index int) (u, v, projection v3.Vec) {
	return baseAxes[index*3+1], baseAxes[index*3+2], baseAxes[(index/2)*6]
}

func rotateParaxialAxes(u, v v3.Vec, rad float64, index int) (v3.Vec, v3.Vec) {
	axis := baseAxes[index*3+2].Cross(baseAxes[index*3+1])
	rot := geom.RotationAbout(axis, rad)
	return geom.Correct(rot.ApplyVector(u), 0), geom.Correct(rot.ApplyVector(v), 0)
}

func (s *System) transformParaxial(oldBoundary, newBoundary geom.Plane, t geom.Affine, a *Alignment, textureSize v2.Vec, lock bool, oldInvariant v3.Vec) {
	offset := t.Apply(v3.Vec{})
	oldNormal := oldBoundary.Normal
	newNormal := newBoundary.Normal
	if geom.Equal(newNormal, oldNormal, 0.01) {
		newNormal = oldNormal
	}

	if !lock || a.Scale.X == 0 || a.Scale.Y == 0 {
		s.SetRotation(newNormal, a.Rotation, a.Rotation)
		return
	}

	oldInvariantCoords := s.computeUVCoords(oldInvariant, a.Scale).Add(a.Offset)

	// Project the scaled axes onto the old boundary along the projection
	// direction, then move them with the linear part of t.
	z := s.Normal()
	boundaryOffset, ok := oldBoundary.ProjectPointAlong(v3.Vec{}, z)
	if !ok {
		s.SetRotation(newNormal, a.Rotation, a.Rotation)
		return
	}
	projU, okU := oldBoundary.ProjectPointAlong(boundaryOffset.Add(s.u.MulScalar(a.Scale.X)), z)
	projV, okV := oldBoundary.ProjectPointAlong(boundaryOffset.Add(s.v.MulScalar(a.Scale.Y)), z)
	if !okU || !okV {
		s.SetRotation(newNormal, a.Rotation, a.Rotation)
		return
	}
	transformedU := t.Apply(projU.Sub(boundaryOffset)).Sub(offset)
	transformedV := t.Apply(projV.Sub(boundaryOffset)).Sub(offset)

	preferU := textureSize.X >= textureSize.Y

	newIndex := planeNormalIndex(newNormal)
	newBaseU, newBaseV, projection := paraxialAxes(newIndex)
	texturePlane := geom.Plane{Normal: projection}

	projectedU := texturePlane.ProjectPoint(transformedU)
	projectedV := texturePlane.ProjectPoint(transformedV)
	normalizedU, okU := geom.Normalize(projectedU)
	normalizedV, okV := geom.Normalize(projectedV)
	if !okU || !okV {
		s.SetRotation(newNormal, a.Rotation, a.Rotation)
		return
	}

	radU := math.Acos(clamp(newBaseU.Dot(normalizedU)))
	if newBaseU.Cross(normalizedU).Dot(projection) < 0 {
		radU = -radU
	}
	radV := math.Acos(clamp(newBaseV.Dot(normalizedV)))
	if newBaseV.Cross(normalizedV).Dot(projection) < 0 {
		radV = -radV
	}
	rad := radV
	if preferU {
		rad = radU
	}
	// Faces projected onto the XZ plane rotate clockwise.
	if (newIndex/2)*6 == 12 {
		rad = -rad
	}

	newRotation := geom.CorrectFloat(geom.NormalizeDegrees(geom.Degrees(rad)), 4)
	s.SetRotation(newNormal, newRotation, newRotation)

	newScale := geom.Correct2(v2.Vec{X: projectedU.Length(), Y: projectedV.Length()}, 4)
	if s.u.Dot(normalizedU) < 0 {
		newScale.X = -newScale.X
	}
	if s.v.Dot(normalizedV) < 0 {
		newScale.Y = -newScale.Y
	}

	newInvariantCoords := s.computeUVCoords(t.Apply(oldInvariant), newScale)
	newOffset := geom.Correct2(ModOffset(oldInvariantCoords.Sub(newInvariantCoords), textureSize), 4)

	a.Scale = newScale
	a.Offset = newOffset
	a.Rotation = newRotation
}

func clamp(c float64) float64 {
	return math.Max(-1, math.Min(1, c))
}

// invert returns the inverse of m. It returns false if m is singular.
func invert(m sdf.M22) (sdf.M22, bool) {
	if math.Abs(m.Determinant()) < 1e-12 {
		return sdf.M22{}, false
	}
	return m.Inverse(), true
}

// planeAxes returns the two world components kept when projecting onto the
// principal plane orthogonal to axis.
func planeAxes(axis v3.Vec) (int, int) {
	switch {
	case axis.X != 0:
		return 1, 2
	case axis.Y != 0:
		return 0, 2
	default:
		return 0, 1
	}
}

func component(v v3.Vec, i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func projectToPlane(axis, p v3.Vec) v2.Vec {
	s, t := planeAxes(axis)
	return v2.Vec{X: component(p, s), Y: component(p, t)}
}

// paraxialFromParallel finds paraxial attributes that reproduce the texel
// coordinates of a parallel mapping at the three points. If no exact
// paraxial equivalent exists, the shear is dropped; if even that fails the
// attributes fall back to the defaults.
func paraxialFromParallel(p0, p1, p2 v3.Vec, a Alignment, u, v v3.Vec) (System, Alignment) {
	result := DefaultAlignment()
	if plane, ok := geom.PlaneFromPoints(p0, p1, p2); ok {
		parallel := NewParallelFromAxes(u, v)
		if r, ok := parallelMappingToParaxial(plane, &parallel, a, [3]v3.Vec{p0, p1, p2}); ok {
			result = r
		}
	}
	return NewParaxial(p0, p1, p2, result), result
}

func parallelMappingToParaxial(plane geom.Plane, parallel *System, a Alignment, points [3]v3.Vec) (Alignment, bool) {
	index := planeNormalIndex(plane.Normal)
	baseU, baseV, projection := paraxialAxes(index)

	var planar, texels [3]v2.Vec
	for i, p := range points {
		planar[i] = projectToPlane(projection, p)
		texels[i] = parallel.TexelCoords(p, a)
	}

	// Solve M * (planar[i] - planar[0]) == texels[i] - texels[0].
	d1, d2 := planar[1].Sub(planar[0]), planar[2].Sub(planar[0])
	e1, e2 := texels[1].Sub(texels[0]), texels[2].Sub(texels[0])
	dInv, ok := invert(sdf.M22{d1.X, d2.X, d1.Y, d2.Y})
	if !ok {
		return Alignment{}, false
	}
	m := sdf.M22{e1.X, e2.X, e1.Y, e2.Y}.Mul(dInv)

	r, ok := extractParaxialAlignment(m, projectToPlane(projection, baseU), projectToPlane(projection, baseV))
	if !ok {
		return Alignment{}, false
	}

	fit := NewParaxialFromNormal(plane.Normal, r.Rotation)
	actual := fit.TexelCoords(points[0], Alignment{Scale: r.Scale, Rotation: r.Rotation})
	r.Offset = texels[0].Sub(actual)
	return r, true
}

// extractParaxialAlignment decomposes m, which maps principal plane
// coordinates to texels, into signed scales and a rotation of the base axes
// u and v.
func extractParaxialAlignment(m sdf.M22, u, v v2.Vec) (Alignment, bool) {
	// Remove shear by making the U row orthogonal to the V row.
	rowU, rowV := v2.Vec{X: m[0], Y: m[1]}, v2.Vec{X: m[2], Y: m[3]}
	lu, lv := rowU.Length(), rowV.Length()
	if lu == 0 || lv == 0 {
		return Alignment{}, false
	}
	if math.Abs(rowU.Dot(rowV)/(lu*lv)) > 0.001 {
		k := rowU.Dot(rowV) / (lv * lv)
		rowU = rowU.Sub(rowV.MulScalar(k))
		lu = rowU.Length()
		if lu == 0 {
			return Alignment{}, false
		}
		m = sdf.M22{rowU.X, rowU.Y, rowV.X, rowV.Y}
	}

	absScale := sdf.M22{lu, 0, 0, lv}
	axes := sdf.M22{u.X, u.Y, v.X, v.Y}
	axesInv, ok := invert(axes)
	if !ok {
		return Alignment{}, false
	}
	flipRotate := absScale.Inverse().Mul(m).Mul(axesInv)

	for _, sx := range []float64{1, -1} {
		for _, sy := range []float64{1, -1} {
			flip := sdf.M22{sx, 0, 0, sy}
			rotate := flip.Mul(flipRotate)
			rad := math.Atan2(rotate[2], rotate[0])
			guess := flip.Mul(absScale).Mul(sdf.Rotate(rad)).Mul(axes)
			if guess.Equals(m, 0.001) {
				return Alignment{
					Scale:    v2.Vec{X: sx / lu, Y: sy / lv},
					Rotation: geom.Degrees(rad),
				}, true
			}
		}
	}
	return Alignment{}, false
}
