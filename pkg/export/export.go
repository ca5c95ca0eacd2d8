// Package export writes tessellated meshes as glTF 2.0 files.
package export

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/chazu/brushwork/pkg/kernel"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"lukechampine.com/blake3"
)

// ErrEmptyMesh is returned for meshes without triangles.
var ErrEmptyMesh = errors.New("export: empty mesh")

// RootName is the name of the node that holds every part.
const RootName = "map"

// zUpToYUp rotates the Z-up map space into the Y-up glTF space.
var zUpToYUp = [4]float64{-math.Sqrt2 / 2, 0, 0, math.Sqrt2 / 2}

// Document builds a glTF document with one mesh and one node per kernel
// mesh. Each submesh becomes a primitive whose material is named after the
// texture.
func Document(meshes []*kernel.Mesh) (*gltf.Document, error) {
	doc := gltf.NewDocument()
	materials := make(map[string]int)

	root := newNode(RootName)
	root.Rotation = zUpToYUp
	for _, m := range meshes {
		if m.IsEmpty() {
			return nil, fmt.Errorf("%w %q", ErrEmptyMesh, m.PartName)
		}
		mi := addMesh(doc, m, materials)
		node := newNode(m.PartName)
		node.Mesh = gltf.Index(mi)
		doc.Nodes = append(doc.Nodes, node)
		root.Children = append(root.Children, len(doc.Nodes)-1)
	}
	doc.Nodes = append(doc.Nodes, root)
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	return doc, nil
}

// newNode returns a node with an identity transform.
func newNode(name string) *gltf.Node {
	return &gltf.Node{
		Name:     name,
		Rotation: [4]float64{0, 0, 0, 1},
		Scale:    [3]float64{1, 1, 1},
	}
}

// WriteGLTF writes meshes to path. A .glb extension selects the binary
// container; anything else writes JSON with the buffer embedded.
func WriteGLTF(path string, meshes []*kernel.Mesh) error {
	doc, err := Document(meshes)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".glb") {
		if err := gltf.SaveBinary(doc, path); err != nil {
			return fmt.Errorf("export: save %s: %w", path, err)
		}
		return nil
	}
	for _, b := range doc.Buffers {
		b.EmbeddedResource()
	}
	if err := gltf.Save(doc, path); err != nil {
		return fmt.Errorf("export: save %s: %w", path, err)
	}
	return nil
}

// addMesh writes the vertex data of m once and one primitive per submesh.
func addMesh(doc *gltf.Document, m *kernel.Mesh, materials map[string]int) int {
	n := m.VertexCount()
	positions := make([][3]float32, n)
	for i := range positions {
		positions[i] = [3]float32{m.Vertices[i*3], m.Vertices[i*3+1], m.Vertices[i*3+2]}
	}
	attrs := map[string]int{
		gltf.POSITION: modeler.WritePosition(doc, positions),
	}
	if len(m.Normals) == len(m.Vertices) {
		normals := make([][3]float32, n)
		for i := range normals {
			normals[i] = [3]float32{m.Normals[i*3], m.Normals[i*3+1], m.Normals[i*3+2]}
		}
		attrs[gltf.NORMAL] = modeler.WriteNormal(doc, normals)
	}
	if m.HasUVs() {
		uvs := make([][2]float32, n)
		for i := range uvs {
			uvs[i] = [2]float32{m.UVs[i*2], m.UVs[i*2+1]}
		}
		attrs[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, uvs)
	}

	mesh := &gltf.Mesh{Name: m.PartName}
	if len(m.Submeshes) == 0 {
		mesh.Primitives = append(mesh.Primitives, &gltf.Primitive{
			Indices:    gltf.Index(modeler.WriteIndices(doc, m.Indices)),
			Attributes: attrs,
		})
	}
	for _, sm := range m.Submeshes {
		indices := m.Indices[sm.Start : sm.Start+sm.Count]
		mesh.Primitives = append(mesh.Primitives, &gltf.Primitive{
			Indices:    gltf.Index(modeler.WriteIndices(doc, indices)),
			Attributes: attrs,
			Material:   gltf.Index(material(doc, sm.Texture, materials)),
		})
	}
	doc.Meshes = append(doc.Meshes, mesh)
	return len(doc.Meshes) - 1
}

// material returns the index of the material named after texture, adding
// it on first use.
func material(doc *gltf.Document, texture string, materials map[string]int) int {
	if i, ok := materials[texture]; ok {
		return i
	}
	c := TextureColor(texture)
	doc.Materials = append(doc.Materials, &gltf.Material{
		Name: texture,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float64{c[0], c[1], c[2], 1},
			MetallicFactor:  gltf.Float(0),
			RoughnessFactor: gltf.Float(1),
		},
	})
	i := len(doc.Materials) - 1
	materials[texture] = i
	return i
}

// TextureColor returns a stable placeholder color for a texture name, with
// each channel in [0.25, 1].
func TextureColor(texture string) [3]float64 {
	sum := blake3.Sum256([]byte(strings.ToLower(texture)))
	var c [3]float64
	for i := range c {
		c[i] = 0.25 + 0.75*float64(sum[i])/255
	}
	return c
}
