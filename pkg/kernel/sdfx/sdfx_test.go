package sdfx

import (
	"math"
	"testing"

	"github.com/chazu/brushwork/pkg/brush"
	"github.com/chazu/brushwork/pkg/geom"
	"github.com/chazu/brushwork/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

const testCells = 64

func builder() *brush.Builder {
	return brush.NewBuilder(geom.CubeBounds(4096), brush.FormatValve, nil)
}

// box returns a brush of the given size centered at the origin.
func box(t *testing.T, x, y, z float64) *brush.Brush {
	t.Helper()
	half := v3.Vec{X: x / 2, Y: y / 2, Z: z / 2}
	b, err := builder().CreateCuboid(sdf.Box3{Min: half.MulScalar(-1), Max: half}, "tex")
	if err != nil {
		t.Fatalf("CreateCuboid: %v", err)
	}
	return b
}

func prism(t *testing.T, radius, height float64) *brush.Brush {
	t.Helper()
	b, err := builder().CreatePrism(v3.Vec{}, radius, height, 8, "tex")
	if err != nil {
		t.Fatalf("CreatePrism: %v", err)
	}
	return b
}

// must fails the test on a kernel error and otherwise returns the solid.
// It is used as must(t)(k.Expand(s, 5)).
func must(t *testing.T) func(kernel.Solid, error) kernel.Solid {
	return func(s kernel.Solid, err error) kernel.Solid {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
}

func mesh(t *testing.T, k *SdfxKernel, s kernel.Solid) *kernel.Mesh {
	t.Helper()
	m, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh: %v", err)
	}
	if m.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	return m
}

func meshBounds(m *kernel.Mesh) (lo, hi [3]float64) {
	lo = [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi = [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for i, v := range m.Vertices {
		lo[i%3] = math.Min(lo[i%3], float64(v))
		hi[i%3] = math.Max(hi[i%3], float64(v))
	}
	return lo, hi
}

func checkBounds(t *testing.T, lo, hi, wantLo, wantHi [3]float64, tol float64) {
	t.Helper()
	for i := range 3 {
		if math.Abs(lo[i]-wantLo[i]) > tol || math.Abs(hi[i]-wantHi[i]) > tol {
			t.Errorf("bounds = %v..%v, want %v..%v (±%g)", lo, hi, wantLo, wantHi, tol)
			return
		}
	}
}

func TestSolidBounds(t *testing.T) {
	k := New()
	tests := []struct {
		name           string
		solid          func(t *testing.T) kernel.Solid
		wantLo, wantHi [3]float64
		tol            float64
	}{
		{
			"box",
			func(t *testing.T) kernel.Solid { return k.Brush(box(t, 100, 50, 25)) },
			[3]float64{-50, -25, -12.5}, [3]float64{50, 25, 12.5}, 0.01,
		},
		{
			"translated",
			func(t *testing.T) kernel.Solid {
				return must(t)(k.Transform(k.Brush(box(t, 10, 10, 10)), geom.Translation(v3.Vec{X: 100, Y: 200, Z: 300})))
			},
			[3]float64{95, 195, 295}, [3]float64{105, 205, 305}, 0.5,
		},
		{
			"rotated about z",
			func(t *testing.T) kernel.Solid {
				return must(t)(k.Transform(k.Brush(box(t, 100, 10, 10)), geom.RotationEuler(0, 0, 90)))
			},
			[3]float64{-5, -50, -5}, [3]float64{5, 50, 5}, 1,
		},
		{
			"expanded",
			func(t *testing.T) kernel.Solid { return must(t)(k.Expand(k.Brush(box(t, 20, 20, 20)), 5)) },
			[3]float64{-15, -15, -15}, [3]float64{15, 15, 15}, 0.01,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := tt.solid(t).BoundingBox()
			checkBounds(t, lo, hi, tt.wantLo, tt.wantHi, tt.tol)
		})
	}
}

func TestBoxMesh(t *testing.T) {
	k := NewWithCells(testCells)
	m := mesh(t, k, k.Brush(box(t, 100, 50, 25)))
	if len(m.Vertices) != len(m.Normals) {
		t.Fatalf("%d vertex floats, %d normal floats", len(m.Vertices), len(m.Normals))
	}
	if len(m.Indices) != 3*m.TriangleCount() || m.TriangleCount() == 0 {
		t.Fatalf("%d indices for %d triangles", len(m.Indices), m.TriangleCount())
	}
	if m.HasUVs() {
		t.Error("sdf meshes carry no texture coordinates")
	}
	// The surface lies on the brush faces up to one cell.
	lo, hi := meshBounds(m)
	checkBounds(t, lo, hi, [3]float64{-50, -25, -12.5}, [3]float64{50, 25, 12.5}, 2)
}

func TestBooleanMeshes(t *testing.T) {
	k := NewWithCells(testCells)
	shifted := func(t *testing.T, s kernel.Solid, x float64) kernel.Solid {
		return must(t)(k.Transform(s, geom.Translation(v3.Vec{X: x})))
	}
	tests := []struct {
		name  string
		solid func(t *testing.T) kernel.Solid
	}{
		{"prism", func(t *testing.T) kernel.Solid { return k.Brush(prism(t, 10, 50)) }},
		{"union", func(t *testing.T) kernel.Solid {
			return k.Union(k.Brush(box(t, 50, 50, 50)), shifted(t, k.Brush(box(t, 50, 50, 50)), 30))
		}},
		{"intersection", func(t *testing.T) kernel.Solid {
			return must(t)(k.Intersection(k.Brush(box(t, 100, 100, 100)), shifted(t, k.Brush(box(t, 100, 100, 100)), 50)))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mesh(t, k, tt.solid(t))
			t.Logf("%s: %d triangles", tt.name, m.TriangleCount())
		})
	}
}

func TestDifferenceAddsTriangles(t *testing.T) {
	k := NewWithCells(testCells)
	solid := k.Brush(box(t, 100, 100, 100))
	plain := mesh(t, k, solid)
	holed := mesh(t, k, must(t)(k.Difference(solid, k.Brush(prism(t, 20, 120)))))
	if holed.TriangleCount() <= plain.TriangleCount() {
		t.Fatalf("difference has %d triangles, plain box %d", holed.TriangleCount(), plain.TriangleCount())
	}
}

func TestClip(t *testing.T) {
	k := NewWithCells(testCells)
	clipped := must(t)(k.Clip(k.Brush(box(t, 100, 100, 100)), geom.NewPlane(v3.Vec{}, geom.PosX)))
	if _, hi := meshBounds(mesh(t, k, clipped)); hi[0] > 2 {
		t.Errorf("clipped mesh reaches x = %f, want <= ~0", hi[0])
	}
}

func TestExpandToNothing(t *testing.T) {
	k := New()
	if _, err := k.Expand(k.Brush(box(t, 20, 20, 20)), -10); err == nil {
		t.Error("shrinking to nothing succeeded")
	}
}

func TestConvexSDF(t *testing.T) {
	s := unwrap(New().Brush(box(t, 20, 20, 20)))
	tests := []struct {
		name string
		p    v3.Vec
		want float64
	}{
		{"center", v3.Vec{}, -10},
		{"on face", v3.Vec{X: 10}, 0},
		{"outside", v3.Vec{Z: 15}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Evaluate(tt.p); math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Evaluate(%v) = %f, want %f", tt.p, got, tt.want)
			}
		})
	}
}
