package export

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/brushwork/pkg/kernel"
	"github.com/qmuntal/gltf"
)

// quad returns a two-triangle mesh in the z = 0 plane with one submesh per
// texture.
func quad(name string, textures ...string) *kernel.Mesh {
	m := &kernel.Mesh{
		PartName: name,
		Vertices: []float32{0, 0, 0, 64, 0, 0, 64, 64, 0, 0, 64, 0},
		Normals:  []float32{0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1},
		UVs:      []float32{0, 0, 1, 0, 1, 1, 0, 1},
		Indices:  []uint32{0, 1, 2, 0, 2, 3},
	}
	for i, tex := range textures {
		m.Submeshes = append(m.Submeshes, kernel.Submesh{Texture: tex, Start: i * 3, Count: 3})
	}
	return m
}

func TestDocument(t *testing.T) {
	doc, err := Document([]*kernel.Mesh{
		quad("floor", "stone", "trim"),
		quad("wall", "stone"),
	})
	if err != nil {
		t.Fatalf("Document: %v", err)
	}

	if len(doc.Meshes) != 2 {
		t.Fatalf("meshes = %d, want 2", len(doc.Meshes))
	}
	if got := len(doc.Meshes[0].Primitives); got != 2 {
		t.Errorf("floor primitives = %d, want 2", got)
	}
	if got := len(doc.Meshes[1].Primitives); got != 1 {
		t.Errorf("wall primitives = %d, want 1", got)
	}

	// Materials are shared by texture name.
	if len(doc.Materials) != 2 {
		t.Fatalf("materials = %d, want 2", len(doc.Materials))
	}
	if doc.Materials[0].Name != "stone" || doc.Materials[1].Name != "trim" {
		t.Errorf("material names = %q, %q", doc.Materials[0].Name, doc.Materials[1].Name)
	}
	if m := doc.Meshes[1].Primitives[0].Material; m == nil || *m != 0 {
		t.Errorf("wall material = %v, want 0", m)
	}

	prim := doc.Meshes[0].Primitives[1]
	for _, attr := range []string{gltf.POSITION, gltf.NORMAL, gltf.TEXCOORD_0} {
		if _, ok := prim.Attributes[attr]; !ok {
			t.Errorf("primitive lacks %s", attr)
		}
	}
	if idx := doc.Accessors[*prim.Indices]; idx.Count != 3 {
		t.Errorf("index count = %d, want 3", idx.Count)
	}
	if pos := doc.Accessors[prim.Attributes[gltf.POSITION]]; pos.Count != 4 {
		t.Errorf("position count = %d, want 4", pos.Count)
	}

	// Parts hang below the root node.
	scene := doc.Scenes[0]
	if len(scene.Nodes) != 1 {
		t.Fatalf("scene nodes = %v", scene.Nodes)
	}
	root := doc.Nodes[scene.Nodes[0]]
	if root.Name != RootName || len(root.Children) != 2 {
		t.Errorf("root = %q with %d children", root.Name, len(root.Children))
	}
	if got := doc.Nodes[root.Children[1]].Name; got != "wall" {
		t.Errorf("second part = %q, want wall", got)
	}
}

func TestDocumentWithoutSubmeshes(t *testing.T) {
	m := quad("blob")
	m.UVs = nil
	doc, err := Document([]*kernel.Mesh{m})
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	prims := doc.Meshes[0].Primitives
	if len(prims) != 1 {
		t.Fatalf("primitives = %d, want 1", len(prims))
	}
	if prims[0].Material != nil {
		t.Error("primitive without submesh should have no material")
	}
	if _, ok := prims[0].Attributes[gltf.TEXCOORD_0]; ok {
		t.Error("mesh without UVs should not write texture coordinates")
	}
	if idx := doc.Accessors[*prims[0].Indices]; idx.Count != 6 {
		t.Errorf("index count = %d, want 6", idx.Count)
	}
}

func TestDocumentEmptyMesh(t *testing.T) {
	_, err := Document([]*kernel.Mesh{{PartName: "nothing"}})
	if !errors.Is(err, ErrEmptyMesh) {
		t.Errorf("Document(empty) = %v, want ErrEmptyMesh", err)
	}
}

func TestWriteGLTF(t *testing.T) {
	for _, name := range []string{"map.gltf", "map.glb"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := WriteGLTF(path, []*kernel.Mesh{quad("floor", "stone", "trim")}); err != nil {
				t.Fatalf("WriteGLTF: %v", err)
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("stat: %v", err)
			}
			if info.Size() == 0 {
				t.Fatal("empty file")
			}

			doc, err := gltf.Open(path)
			if err != nil {
				t.Fatalf("open written file: %v", err)
			}
			if len(doc.Meshes) != 1 || doc.Meshes[0].Name != "floor" {
				t.Errorf("meshes = %d", len(doc.Meshes))
			}
			if len(doc.Materials) != 2 {
				t.Errorf("materials = %d, want 2", len(doc.Materials))
			}
		})
	}
}

func TestTextureColor(t *testing.T) {
	a := TextureColor("stone")
	if a != TextureColor("STONE") {
		t.Error("colors should not depend on case")
	}
	if a == TextureColor("brick") {
		t.Error("different textures should get different colors")
	}
	for i, c := range a {
		if c < 0.25 || c > 1 {
			t.Errorf("channel %d = %g out of range", i, c)
		}
	}
}
