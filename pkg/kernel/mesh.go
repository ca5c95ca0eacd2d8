package kernel

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, uvs has 2 floats per vertex and
// indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices  []float32 `json:"vertices"`            // [x0,y0,z0, x1,y1,z1, ...]
	Normals   []float32 `json:"normals"`             // [nx0,ny0,nz0, ...]
	UVs       []float32 `json:"uvs,omitempty"`       // [u0,v0, u1,v1, ...]
	Indices   []uint32  `json:"indices"`             // [i0,i1,i2, ...] triangles
	Submeshes []Submesh `json:"submeshes,omitempty"` // index ranges by texture
	PartName  string    `json:"partName"`            // which design graph part this came from
}

// Submesh is a run of indices drawn with one texture.
type Submesh struct {
	Texture string `json:"texture"`
	Start   int    `json:"start"` // first index
	Count   int    `json:"count"` // number of indices
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// HasUVs reports whether every vertex has texture coordinates.
func (m *Mesh) HasUVs() bool {
	return !m.IsEmpty() && len(m.UVs) == 2*m.VertexCount()
}

// Append adds the geometry of o to m. Indices and submeshes of o are
// shifted to follow those of m. UVs are kept only if both meshes have them.
func (m *Mesh) Append(o *Mesh) {
	if o == nil || o.IsEmpty() {
		return
	}
	keepUVs := o.HasUVs() && (m.IsEmpty() || m.HasUVs())
	base := uint32(m.VertexCount())
	start := len(m.Indices)

	m.Vertices = append(m.Vertices, o.Vertices...)
	m.Normals = append(m.Normals, o.Normals...)
	if keepUVs {
		m.UVs = append(m.UVs, o.UVs...)
	} else {
		m.UVs = nil
	}
	for _, i := range o.Indices {
		m.Indices = append(m.Indices, base+i)
	}
	for _, s := range o.Submeshes {
		s.Start += start
		m.Submeshes = append(m.Submeshes, s)
	}
}
