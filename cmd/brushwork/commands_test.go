package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"
)

const crateSource = `(texture "base" 64 64)
(defbrush "crate" (box :min (vec3 0 0 0) :max (vec3 32 32 32)))
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String() + errOut.String(), err
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	if root.Use != "brushwork" {
		t.Errorf("Use = %q", root.Use)
	}
	want := map[string]bool{"eval": false, "check": false, "export": false, "info": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
			if c.Short == "" {
				t.Errorf("%s: missing Short", c.Name())
			}
			if c.RunE == nil {
				t.Errorf("%s: missing RunE", c.Name())
			}
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing command %q", name)
		}
	}
	for _, flag := range []string{"config", "backend"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}
}

func TestEvalCommand(t *testing.T) {
	script := writeFile(t, t.TempDir(), "crate.brush", crateSource)

	out, err := run(t, "eval", script)
	if err != nil {
		t.Fatalf("eval: %v\n%s", err, out)
	}
	var result EvalResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(result.Meshes) != 1 || result.Meshes[0].PartName != "crate" {
		t.Errorf("meshes = %+v", result.Meshes)
	}
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.brush", crateSource)
	bad := writeFile(t, dir, "bad.brush", "(texture \"base\" 64 64)\n(defbrush \"flat\" (box :min (vec3 0 0 0) :max (vec3 8 8 0)))\n")

	out, err := run(t, "check", good)
	if err != nil {
		t.Fatalf("check good: %v\n%s", err, out)
	}
	if !strings.Contains(out, "ok (0 warnings)") {
		t.Errorf("output = %q", out)
	}

	out, err = run(t, "check", bad)
	if err == nil {
		t.Fatal("check should fail on a flat box")
	}
	if !strings.Contains(out, "bad.brush:2:") || !strings.Contains(out, "error:") {
		t.Errorf("expected a located error, got %q", out)
	}
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "crate.brush", crateSource)

	for _, name := range []string{"out.gltf", "out.glb"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			out, err := run(t, "export", script, "-o", path)
			if err != nil {
				t.Fatalf("export: %v\n%s", err, out)
			}
			doc, err := gltf.Open(path)
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			if len(doc.Meshes) != 1 {
				t.Errorf("expected 1 mesh, got %d", len(doc.Meshes))
			}
		})
	}
}

func TestInfoCommand(t *testing.T) {
	out, err := run(t, "info", "../../examples/room.brush")
	if err != nil {
		t.Fatalf("info: %v\n%s", err, out)
	}
	for _, want := range []string{"Nodes:         8", "Roots:         1", "brick", "Parts:         2", "floor", "wall"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "crate.brush", crateSource)
	badConfig := writeFile(t, dir, "bad.yaml", "world_extent: -1\n")

	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"eval", filepath.Join(dir, "nope.brush")}},
		{"no args", []string{"check"}},
		{"unknown backend", []string{"eval", script, "--backend", "cgal"}},
		{"bad config", []string{"check", script, "--config", badConfig}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "crate.brush", crateSource)
	cfg := writeFile(t, dir, "brushwork.yaml", "world_extent: 16\n")

	// The crate leaves a world of half width 16.
	out, err := run(t, "check", script, "--config", cfg)
	if err == nil {
		t.Fatalf("expected an out of world error, got %q", out)
	}
	if !strings.Contains(out, "world") {
		t.Errorf("output = %q", out)
	}
}
