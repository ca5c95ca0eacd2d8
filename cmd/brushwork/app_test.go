package main

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/chazu/brushwork/pkg/config"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	app, err := NewApp(context.Background(), config.Default(), BackendBrushes)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app
}

func requireNoErrors(t *testing.T, result EvalResult) {
	t.Helper()
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}
}

// TestE2ERoomExample exercises the full pipeline: script → engine → graph
// → validation → tessellate → meshes.
func TestE2ERoomExample(t *testing.T) {
	app := newTestApp(t)

	source, err := os.ReadFile("../../examples/room.brush")
	if err != nil {
		t.Fatalf("failed to read room.brush: %v", err)
	}

	result := app.Evaluate(string(source))
	requireNoErrors(t, result)
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}

	// The room group is flattened into its two parts.
	if len(result.Meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(result.Meshes))
	}

	expectedParts := map[string]bool{"floor": false, "wall": false}
	for _, m := range result.Meshes {
		if _, ok := expectedParts[m.PartName]; !ok {
			t.Errorf("unexpected part name: %q", m.PartName)
			continue
		}
		expectedParts[m.PartName] = true

		if len(m.Vertices) == 0 || len(m.Normals) == 0 || len(m.Indices) == 0 {
			t.Errorf("part %q: empty geometry", m.PartName)
		}
		if len(m.UVs)/2 != len(m.Vertices)/3 {
			t.Errorf("part %q: %d uvs for %d vertices", m.PartName, len(m.UVs)/2, len(m.Vertices)/3)
		}
		if m.Color == "" {
			t.Errorf("part %q: no color assigned", m.PartName)
		}
	}
	for name, found := range expectedParts {
		if !found {
			t.Errorf("missing mesh for part %q", name)
		}
	}
}

func TestE2ERoomTextures(t *testing.T) {
	app := newTestApp(t)
	source, err := os.ReadFile("../../examples/room.brush")
	if err != nil {
		t.Fatalf("failed to read room.brush: %v", err)
	}
	result := app.Evaluate(string(source))
	requireNoErrors(t, result)

	for _, m := range result.Meshes {
		textures := map[string]bool{}
		covered := 0
		for _, s := range m.Submeshes {
			textures[s.Texture] = true
			covered += s.Count
		}
		if covered != len(m.Indices) {
			t.Errorf("part %q: submeshes cover %d of %d indices", m.PartName, covered, len(m.Indices))
		}
		switch m.PartName {
		case "floor":
			// The hole left by the pillar gets the default texture.
			if !textures["stone"] || !textures["base"] {
				t.Errorf("floor textures = %v, want stone and base", textures)
			}
		case "wall":
			if !textures["brick"] {
				t.Errorf("wall textures = %v, want brick", textures)
			}
		}
	}
}

func TestE2EPlacement(t *testing.T) {
	app := newTestApp(t)
	result := app.Evaluate(`(place (box :min (vec3 0 0 0) :max (vec3 16 16 16)) :at (vec3 100 0 0))`)
	requireNoErrors(t, result)

	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	v := result.Meshes[0].Vertices
	for i := 0; i < len(v); i += 3 {
		if v[i] < 99.99 || v[i] > 116.01 {
			t.Fatalf("vertex x = %g, want within [100, 116]", v[i])
		}
	}
}

// ---------------------------------------------------------------------------
// Empty and broken input
// ---------------------------------------------------------------------------

func TestE2EEmptySource(t *testing.T) {
	app := newTestApp(t)
	result := app.Evaluate("")

	if len(result.Errors) != 0 || len(result.Warnings) != 0 || len(result.Meshes) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
	// Ensure slices are non-nil (JSON should serialize as [] not null).
	if result.Meshes == nil || result.Errors == nil || result.Warnings == nil {
		t.Error("result slices should be non-nil")
	}
}

func TestE2ECommentsOnly(t *testing.T) {
	app := newTestApp(t)
	result := app.Evaluate(";; nothing here\n  \n;; or here\n")
	requireNoErrors(t, result)
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes, got %d", len(result.Meshes))
	}
}

func TestE2ESyntaxError(t *testing.T) {
	app := newTestApp(t)
	result := app.Evaluate("(+ 1 2)\n(defbrush \"test\"")

	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if result.Errors[0].Message == "" {
		t.Error("syntax error should have a non-empty message")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
}

func TestE2EUndefinedBrush(t *testing.T) {
	app := newTestApp(t)
	result := app.Evaluate(`(place (brush "missing") :at (vec3 0 0 0))`)

	if len(result.Errors) == 0 {
		t.Fatal("expected an error for an undefined brush")
	}
	if !strings.Contains(result.Errors[0].Message, "missing") {
		t.Errorf("error should name the brush, got %q", result.Errors[0].Message)
	}
}

func TestE2EValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"flat box", `(defbrush "flat" (box :min (vec3 0 0 0) :max (vec3 16 16 0)))`, "along Z"},
		{"too few sides", `(defbrush "p" (prism :radius 8 :height 8 :sides 2))`, "sides"},
		{"short hull", `(defbrush "h" (hull (vec3 0 0 0) (vec3 8 0 0) (vec3 0 8 0)))`, "at least 4"},
	}
	app := newTestApp(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := app.Evaluate(tt.source)
			if len(result.Errors) == 0 {
				t.Fatal("expected validation errors")
			}
			found := false
			for _, e := range result.Errors {
				if strings.Contains(e.Message, tt.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("no error mentions %q: %v", tt.want, result.Errors)
			}
			if len(result.Meshes) != 0 {
				t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
			}
		})
	}
}

func TestE2EWarningsKeepMeshes(t *testing.T) {
	app := newTestApp(t)
	result := app.Evaluate(`(defbrush "sheet" (box :min (vec3 0 0 0) :max (vec3 64 64 0.5)))`)
	requireNoErrors(t, result)

	if len(result.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %v", result.Warnings)
	}
	if len(result.Meshes) != 1 {
		t.Errorf("expected 1 mesh, got %d", len(result.Meshes))
	}
}

// ---------------------------------------------------------------------------
// Repeated evaluation and palette
// ---------------------------------------------------------------------------

func TestE2ERapidEvaluation(t *testing.T) {
	app := newTestApp(t)
	sources := []string{
		`(defbrush "a" (box :min (vec3 0 0 0) :max (vec3 8 8 8)))`,
		"(defbrush \"broken\"",
		`(defbrush "b" (prism :radius 8 :height 16 :sides 6))`,
	}
	for i := 0; i < 20; i++ {
		src := sources[i%len(sources)]
		result := app.Evaluate(src)
		broken := i%len(sources) == 1
		if broken != (len(result.Errors) > 0) {
			t.Fatalf("iteration %d: errors = %v", i, result.Errors)
		}
		if !broken && len(result.Meshes) != 1 {
			t.Fatalf("iteration %d: expected 1 mesh, got %d", i, len(result.Meshes))
		}
	}
}

func TestE2EColorPaletteWrapping(t *testing.T) {
	app := newTestApp(t)

	var b strings.Builder
	for i := 0; i < len(colorPalette)+1; i++ {
		b.WriteString("(defbrush \"p")
		b.WriteString(string(rune('a' + i)))
		b.WriteString("\" (box :min (vec3 0 0 0) :max (vec3 8 8 8)))\n")
	}
	result := app.Evaluate(b.String())
	requireNoErrors(t, result)

	if len(result.Meshes) != len(colorPalette)+1 {
		t.Fatalf("expected %d meshes, got %d", len(colorPalette)+1, len(result.Meshes))
	}
	if result.Meshes[0].Color != result.Meshes[len(colorPalette)].Color {
		t.Error("palette should wrap around")
	}
	for _, m := range result.Meshes {
		if m.Color == "" {
			t.Errorf("mesh %q has no color", m.PartName)
		}
	}
}

// ---------------------------------------------------------------------------
// Backends and config
// ---------------------------------------------------------------------------

func TestNewAppUnknownBackend(t *testing.T) {
	if _, err := NewApp(context.Background(), config.Default(), "cgal"); err == nil {
		t.Fatal("expected an error for an unknown backend")
	}
}

func TestE2ESdfxBackend(t *testing.T) {
	cfg := config.Default()
	cfg.MeshCells = 32
	app, err := NewApp(context.Background(), cfg, BackendSdfx)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	result := app.Evaluate(`(defbrush "crate" (box :min (vec3 0 0 0) :max (vec3 32 32 32)))`)
	requireNoErrors(t, result)

	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	m := result.Meshes[0]
	if m.PartName != "crate" {
		t.Errorf("part name = %q", m.PartName)
	}
	if len(m.Indices) == 0 {
		t.Error("sdfx mesh has no triangles")
	}
	if len(m.UVs) != 0 {
		t.Error("sdfx meshes carry no UVs")
	}
}

func TestE2EConfigTextures(t *testing.T) {
	cfg := config.Default()
	cfg.Textures = map[string]config.TextureSize{"base": {Width: 64, Height: 64}}
	app, err := NewApp(context.Background(), cfg, BackendBrushes)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}

	result := app.Evaluate(`(defbrush "a" (box :min (vec3 0 0 0) :max (vec3 8 8 8) :texture "stone"))`)
	requireNoErrors(t, result)
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0].Message, "stone") {
		t.Errorf("expected an undeclared texture warning, got %v", result.Warnings)
	}
}
