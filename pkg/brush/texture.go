package brush

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chazu/brushwork/pkg/uv"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// NoTextureName marks a face without texture.
const NoTextureName = "__empty"

// Texture is a named image with a size in texels. Faces refer to textures by
// pointer; two faces share a texture only if they hold the same pointer.
type Texture struct {
	Name   string
	Width  int
	Height int
}

// Size returns the texture size with zero dimensions replaced by one.
func (t *Texture) Size() v2.Vec {
	if t == nil {
		return v2.Vec{X: 1, Y: 1}
	}
	w, h := float64(t.Width), float64(t.Height)
	if w == 0 {
		w = 1
	}
	if h == 0 {
		h = 1
	}
	return v2.Vec{X: w, Y: h}
}

// TextureManager resolves texture names. Name lookups are case
// insensitive.
type TextureManager struct {
	textures map[string]*Texture
}

// NewTextureManager returns an empty manager.
func NewTextureManager() *TextureManager {
	return &TextureManager{textures: make(map[string]*Texture)}
}

// Add registers a texture and returns it. Adding a name twice replaces the
// size of the existing texture and keeps its identity.
func (m *TextureManager) Add(name string, width, height int) *Texture {
	key := strings.ToLower(name)
	if t, ok := m.textures[key]; ok {
		t.Width, t.Height = width, height
		return t
	}
	t := &Texture{Name: name, Width: width, Height: height}
	m.textures[key] = t
	return t
}

// Texture returns the texture with the given name, or nil.
func (m *TextureManager) Texture(name string) *Texture {
	if m == nil {
		return nil
	}
	return m.textures[strings.ToLower(name)]
}

// Names returns the registered names in sorted order.
func (m *TextureManager) Names() []string {
	names := make([]string, 0, len(m.textures))
	for _, t := range m.textures {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// MapFormat selects the texture coordinate system of new faces.
type MapFormat int

const (
	// FormatStandard creates paraxial faces.
	FormatStandard MapFormat = iota
	// FormatValve creates parallel faces.
	FormatValve
)

func (f MapFormat) String() string {
	if f == FormatValve {
		return "valve"
	}
	return "standard"
}

// UVKind returns the coordinate system kind used by the format.
func (f MapFormat) UVKind() uv.Kind {
	if f == FormatValve {
		return uv.Parallel
	}
	return uv.Paraxial
}

// ParseMapFormat converts a format name to a MapFormat.
func ParseMapFormat(s string) (MapFormat, error) {
	switch strings.ToLower(s) {
	case "standard", "quake", "":
		return FormatStandard, nil
	case "valve", "valve220":
		return FormatValve, nil
	}
	return 0, fmt.Errorf("brush: unknown map format %q", s)
}
