package uv

import (
	"math"
	"testing"

	"github.com/chazu/brushwork/pkg/geom"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func vec(x, y, z float64) v3.Vec { return v3.Vec{X: x, Y: y, Z: z} }

var texSize = v2.Vec{X: 64, Y: 64}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-4 }

func approxVec(a, b v3.Vec) bool { return geom.Equal(a, b, 1e-4) }

// sameTexel reports whether two normalized coordinates address the same
// texel of a repeating texture.
func sameTexel(a, b v2.Vec) bool {
	dx, dy := a.X-b.X, a.Y-b.Y
	return approx(dx, math.Round(dx)) && approx(dy, math.Round(dy))
}

// Floor face at z=0 with an upward normal.
var floor = [3]v3.Vec{vec(0, 0, 0), vec(0, 64, 0), vec(64, 0, 0)}

// Wall face at x=32 facing +X.
var wall = [3]v3.Vec{vec(32, 0, 0), vec(32, 0, 64), vec(32, 64, 0)}

// --- Paraxial ---

func TestPlaneNormalIndex(t *testing.T) {
	tests := []struct {
		normal v3.Vec
		want   int
	}{
		{vec(0, 0, 1), 0},
		{vec(0, 0, -1), 1},
		{vec(1, 0, 0), 2},
		{vec(-1, 0, 0), 3},
		{vec(0, 1, 0), 4},
		{vec(0, -1, 0), 5},
		{geom.MustNormalize(vec(1, 1, 0)), 2},
		{geom.MustNormalize(vec(0.2, 0.1, 1)), 0},
	}
	for _, tt := range tests {
		if got := planeNormalIndex(tt.normal); got != tt.want {
			t.Errorf("planeNormalIndex(%v) = %d, want %d", tt.normal, got, tt.want)
		}
	}
}

func TestParaxialFloorCoords(t *testing.T) {
	s := NewParaxial(floor[0], floor[1], floor[2], DefaultAlignment())
	if s.Kind() != Paraxial {
		t.Fatalf("kind = %v", s.Kind())
	}
	if !approxVec(s.UAxis(), geom.PosX) || !approxVec(s.VAxis(), geom.NegY) {
		t.Fatalf("axes = %v %v", s.UAxis(), s.VAxis())
	}
	got := s.UVCoords(vec(64, 32, 0), DefaultAlignment(), texSize)
	if !approx(got.X, 1) || !approx(got.Y, -0.5) {
		t.Errorf("UVCoords = %v, want (1, -0.5)", got)
	}

	a := Alignment{Offset: v2.Vec{X: 16}, Scale: v2.Vec{X: 2, Y: 0.5}}
	got = s.UVCoords(vec(64, 32, 0), a, texSize)
	if !approx(got.X, 0.75) || !approx(got.Y, -1) {
		t.Errorf("scaled UVCoords = %v, want (0.75, -1)", got)
	}
}

func TestParaxialSetRotation(t *testing.T) {
	s := NewParaxialFromNormal(geom.PosZ, 0)
	s.SetRotation(geom.PosZ, 0, 90)
	if !approxVec(s.UAxis(), geom.PosY) || !approxVec(s.VAxis(), geom.PosX) {
		t.Errorf("axes after 90 degrees = %v %v", s.UAxis(), s.VAxis())
	}
	s.SetRotation(geom.PosZ, 90, 0)
	if !approxVec(s.UAxis(), geom.PosX) || !approxVec(s.VAxis(), geom.NegY) {
		t.Errorf("axes after reset = %v %v", s.UAxis(), s.VAxis())
	}
}

func TestParaxialResetIsNoop(t *testing.T) {
	s := NewParaxialFromNormal(geom.PosZ, 30)
	before := s.TakeSnapshot()
	s.Reset(geom.PosX)
	s.ResetToParallel(geom.PosX, 10)
	s.ResetToParaxial(geom.PosX, 10)
	s.Shear(geom.PosZ, v2.Vec{X: 1, Y: 1})
	if s != before.s {
		t.Errorf("paraxial system changed: %v -> %v", before.s, s)
	}
}

func TestRotationInverted(t *testing.T) {
	par := NewParaxialFromNormal(geom.PosZ, 0)
	if !par.IsRotationInverted(geom.PosZ) {
		t.Error("paraxial floor should be inverted")
	}
	if par.IsRotationInverted(geom.NegZ) {
		t.Error("paraxial ceiling should not be inverted")
	}
	val := NewParallelFromAxes(geom.PosX, geom.NegY)
	if val.IsRotationInverted(geom.PosZ) {
		t.Error("parallel is never inverted")
	}
}

func TestRotate(t *testing.T) {
	par := NewParaxialFromNormal(geom.PosZ, 0)
	a := DefaultAlignment()
	par.Rotate(geom.PosZ, 15, &a)
	if !approx(a.Rotation, 345) {
		t.Errorf("paraxial rotation = %g, want 345", a.Rotation)
	}

	val := NewParallel(floor[0], floor[1], floor[2], DefaultAlignment())
	b := DefaultAlignment()
	val.Rotate(geom.PosZ, 90, &b)
	if !approx(b.Rotation, 90) {
		t.Errorf("parallel rotation = %g, want 90", b.Rotation)
	}
	if !approxVec(val.UAxis(), geom.PosY) {
		t.Errorf("parallel U after 90 degrees = %v", val.UAxis())
	}
}

func TestMeasureAngle(t *testing.T) {
	par := NewParaxialFromNormal(geom.PosZ, 0)
	if got := par.MeasureAngle(0, v2.Vec{}, v2.Vec{Y: 1}); !approx(got, 270) {
		t.Errorf("paraxial MeasureAngle = %g, want 270", got)
	}
	val := NewParallelFromAxes(geom.PosX, geom.NegY)
	if got := val.MeasureAngle(0, v2.Vec{}, v2.Vec{Y: 1}); !approx(got, 90) {
		t.Errorf("parallel MeasureAngle = %g, want 90", got)
	}
}

// --- Parallel ---

func TestParallelInitialAxes(t *testing.T) {
	tests := []struct {
		name   string
		points [3]v3.Vec
		u, v   v3.Vec
	}{
		{"floor", floor, geom.PosX, geom.NegY},
		{"wall", wall, geom.PosY, geom.NegZ},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewParallel(tt.points[0], tt.points[1], tt.points[2], DefaultAlignment())
			if !approxVec(s.UAxis(), tt.u) || !approxVec(s.VAxis(), tt.v) {
				t.Errorf("axes = %v %v, want %v %v", s.UAxis(), s.VAxis(), tt.u, tt.v)
			}
			plane, _ := geom.PlaneFromPoints(tt.points[0], tt.points[1], tt.points[2])
			if !approxVec(s.Normal(), plane.Normal) {
				t.Errorf("Normal = %v, want %v", s.Normal(), plane.Normal)
			}
		})
	}
}

func TestParallelShear(t *testing.T) {
	s := NewParallelFromAxes(geom.PosX, geom.NegY)
	s.Shear(geom.PosZ, v2.Vec{X: 0.5})
	if !approxVec(s.UAxis(), vec(1, -0.5, 0)) || !approxVec(s.VAxis(), geom.NegY) {
		t.Errorf("sheared axes = %v %v", s.UAxis(), s.VAxis())
	}
}

func TestSetNormal(t *testing.T) {
	s := NewParallelFromAxes(geom.PosX, geom.NegY)
	oldB := geom.Plane{Normal: geom.PosZ}
	newB := geom.Plane{Normal: geom.PosX}

	rot := s
	rot.SetNormal(oldB, newB, DefaultAlignment(), WrapRotation)
	if !approxVec(rot.UAxis(), geom.NegZ) || !approxVec(rot.VAxis(), geom.NegY) {
		t.Errorf("rotation style axes = %v %v", rot.UAxis(), rot.VAxis())
	}

	proj := s
	proj.SetNormal(oldB, newB, DefaultAlignment(), WrapProjection)
	if math.Abs(proj.UAxis().Dot(geom.PosX)) > 1e-9 || math.Abs(proj.VAxis().Dot(geom.PosX)) > 1e-9 {
		t.Errorf("projection style axes not in plane: %v %v", proj.UAxis(), proj.VAxis())
	}
	if !approx(proj.VAxis().Length(), 1) {
		t.Errorf("projected V length = %g", proj.VAxis().Length())
	}
}

// --- Texture lock ---

func TestTransformLock(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		points [3]v3.Vec
		t      geom.Affine
		sample v3.Vec
	}{
		{"paraxial translate", Paraxial, floor, geom.Translation(vec(16, 0, 0)), vec(10, 20, 0)},
		{"paraxial rotate", Paraxial, floor, geom.RotationAbout(geom.PosZ, math.Pi/2), vec(10, 20, 0)},
		{"parallel translate", Parallel, wall, geom.Translation(vec(0, 24, 8)), vec(32, 10, 20)},
		{"parallel rotate", Parallel, wall, geom.RotationAbout(geom.PosZ, math.Pi/2), vec(32, 10, 20)},
		{"parallel tilt", Parallel, floor, geom.RotationAbout(geom.PosX, math.Pi/6), vec(10, 20, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Alignment{Offset: v2.Vec{X: 3, Y: 5}, Scale: v2.Vec{X: 1, Y: 1}}
			s := New(tt.kind, tt.points[0], tt.points[1], tt.points[2], a)
			before := s.UVCoords(tt.sample, a, texSize)

			oldB, _ := geom.PlaneFromPoints(tt.points[0], tt.points[1], tt.points[2])
			newB, ok := oldB.Transform(tt.t)
			if !ok {
				t.Fatal("plane transform failed")
			}
			s.Transform(oldB, newB, tt.t, &a, texSize, true, tt.points[0])

			after := s.UVCoords(tt.t.Apply(tt.sample), a, texSize)
			if !sameTexel(before, after) {
				t.Errorf("texel moved: %v -> %v", before, after)
			}
		})
	}
}

func TestTransformWithoutLock(t *testing.T) {
	s := NewParaxial(floor[0], floor[1], floor[2], DefaultAlignment())
	a := DefaultAlignment()
	oldB, _ := geom.PlaneFromPoints(floor[0], floor[1], floor[2])
	tr := geom.Translation(vec(16, 0, 0))
	newB, _ := oldB.Transform(tr)
	s.Transform(oldB, newB, tr, &a, texSize, false, floor[0])
	if a != DefaultAlignment() {
		t.Errorf("alignment changed without lock: %+v", a)
	}
}

// --- Snapshots and conversion ---

func TestSnapshotRestore(t *testing.T) {
	val := NewParallelFromAxes(vec(0.6, 0.8, 0), vec(0, 0, -1))
	snap := val.TakeSnapshot()
	if snap.Kind() != Parallel {
		t.Fatalf("snapshot kind = %v", snap.Kind())
	}

	s := NewParaxialFromNormal(geom.PosZ, 45)
	s.Restore(snap)
	if s.Kind() != Parallel {
		t.Errorf("restored kind = %v", s.Kind())
	}
	if s.UAxis() != val.UAxis() || s.VAxis() != val.VAxis() {
		t.Errorf("restored axes = %v %v", s.UAxis(), s.VAxis())
	}

	// Later edits do not leak into the snapshot.
	s.Shear(geom.PosZ, v2.Vec{X: 1})
	if snap.s.u != val.UAxis() {
		t.Error("snapshot changed after edit")
	}
}

func TestGettersOnReturnedValue(t *testing.T) {
	// Getters are callable on a System that is not addressable.
	newFloor := func(kind Kind) System { return New(kind, floor[0], floor[1], floor[2], DefaultAlignment()) }
	if k := newFloor(Parallel).Kind(); k != Parallel {
		t.Errorf("kind = %v, want parallel", k)
	}
	if n := newFloor(Paraxial).Normal(); !approxVec(n, geom.PosZ) {
		t.Errorf("normal = %v, want +Z", n)
	}
	if snap := newFloor(Paraxial).TakeSnapshot(); snap.Kind() != Paraxial {
		t.Errorf("snapshot kind = %v", snap.Kind())
	}
	want := newFloor(Paraxial).TexelCoords(vec(16, 8, 0), DefaultAlignment())
	got, _ := newFloor(Paraxial).ToParallel(floor[0], floor[1], floor[2], DefaultAlignment())
	if c := got.TexelCoords(vec(16, 8, 0), DefaultAlignment()); !approx(c.X, want.X) || !approx(c.Y, want.Y) {
		t.Errorf("texel = %v, want %v", c, want)
	}
}

func TestConversionRoundTrip(t *testing.T) {
	// A sloped face that projects onto the XY plane.
	p0, p1, p2 := vec(0, 0, 0), vec(0, 64, 8), vec(64, 0, 0)
	a := Alignment{Offset: v2.Vec{X: 5, Y: 7}, Scale: v2.Vec{X: 2, Y: 0.5}, Rotation: 30}
	par := NewParaxial(p0, p1, p2, a)

	samples := []v3.Vec{p0, p1, p2, geom.Centroid([]v3.Vec{p0, p1, p2})}

	val, va := par.ToParallel(p0, p1, p2, a)
	if val.Kind() != Parallel {
		t.Fatalf("ToParallel kind = %v", val.Kind())
	}
	for _, p := range samples {
		if want, got := par.TexelCoords(p, a), val.TexelCoords(p, va); !approx(want.X, got.X) || !approx(want.Y, got.Y) {
			t.Errorf("parallel texel at %v = %v, want %v", p, got, want)
		}
	}

	back, ba := val.ToParaxial(p0, p1, p2, va)
	if back.Kind() != Paraxial {
		t.Fatalf("ToParaxial kind = %v", back.Kind())
	}
	for _, p := range samples {
		if want, got := par.TexelCoords(p, a), back.TexelCoords(p, ba); !approx(want.X, got.X) || !approx(want.Y, got.Y) {
			t.Errorf("paraxial texel at %v = %v, want %v", p, got, want)
		}
	}
	if !approx(ba.Rotation, 30) || !approx(ba.Scale.X, 2) || !approx(ba.Scale.Y, 0.5) {
		t.Errorf("recovered alignment = %+v", ba)
	}
}

func TestExtractParaxialAlignment(t *testing.T) {
	u, v := v2.Vec{X: 1}, v2.Vec{Y: -1}
	axes := sdf.M22{u.X, u.Y, v.X, v.Y}
	tests := []struct {
		name     string
		scale    v2.Vec
		rotation float64
	}{
		{"identity", v2.Vec{X: 1, Y: 1}, 0},
		{"scaled and rotated", v2.Vec{X: 2, Y: 0.5}, 30},
		{"flipped", v2.Vec{X: -1, Y: 4}, -45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// m maps plane coordinates to texels: 1/scale * R(rotation) * axes.
			inv := sdf.M22{1 / tt.scale.X, 0, 0, 1 / tt.scale.Y}
			m := inv.Mul(sdf.Rotate(geom.Radians(tt.rotation))).Mul(axes)
			got, ok := extractParaxialAlignment(m, u, v)
			if !ok {
				t.Fatal("no alignment found")
			}
			check := sdf.M22{1 / got.Scale.X, 0, 0, 1 / got.Scale.Y}.Mul(sdf.Rotate(geom.Radians(got.Rotation))).Mul(axes)
			if !check.Equals(m, 1e-6) {
				t.Errorf("alignment %+v rebuilds %v, want %v", got, check, m)
			}
		})
	}
	if _, ok := extractParaxialAlignment(sdf.M22{}, u, v); ok {
		t.Error("zero matrix has an alignment")
	}
}

func TestToParaxialFallback(t *testing.T) {
	// Axes parallel to each other cannot be expressed paraxially.
	val := NewParallelFromAxes(geom.PosX, geom.PosX)
	_, a := val.ToParaxial(floor[0], floor[1], floor[2], DefaultAlignment())
	if a != DefaultAlignment() {
		t.Errorf("fallback alignment = %+v", a)
	}
}

func TestModOffset(t *testing.T) {
	tests := []struct {
		in, size, want v2.Vec
	}{
		{v2.Vec{X: 70, Y: -10}, v2.Vec{X: 64, Y: 64}, v2.Vec{X: 6, Y: 54}},
		{v2.Vec{X: 3, Y: 4}, v2.Vec{X: 0, Y: 0}, v2.Vec{X: 3, Y: 4}},
		{v2.Vec{X: 128, Y: 0}, v2.Vec{X: 64, Y: 32}, v2.Vec{X: 0, Y: 0}},
	}
	for _, tt := range tests {
		got := ModOffset(tt.in, tt.size)
		if !approx(got.X, tt.want.X) || !approx(got.Y, tt.want.Y) {
			t.Errorf("ModOffset(%v, %v) = %v, want %v", tt.in, tt.size, got, tt.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{Paraxial, Parallel} {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseKind("cylindrical"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
