package brush

import (
	"fmt"
	"math"

	"github.com/chazu/brushwork/pkg/geom"
	"github.com/chazu/brushwork/pkg/polyhedron"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Builder creates brushes inside a world with a fixed map format. Textures
// are resolved through the texture manager if one is set.
type Builder struct {
	worldBounds sdf.Box3
	format      MapFormat
	textures    *TextureManager
}

// NewBuilder returns a builder. textures may be nil.
func NewBuilder(worldBounds sdf.Box3, format MapFormat, textures *TextureManager) *Builder {
	return &Builder{worldBounds: worldBounds, format: format, textures: textures}
}

// WorldBounds returns the bounds brushes are built in.
func (bd *Builder) WorldBounds() sdf.Box3 { return bd.worldBounds }

// Format returns the map format of new faces.
func (bd *Builder) Format() MapFormat { return bd.format }

// CreateFace returns a face through three points with default attributes.
func (bd *Builder) CreateFace(p0, p1, p2 v3.Vec, textureName string) (*Face, error) {
	f, err := NewFace(p0, p1, p2, NewAttributes(textureName), bd.format.UVKind())
	if err != nil {
		return nil, err
	}
	if t := bd.textures.Texture(textureName); t != nil {
		f.SetTexture(t)
	}
	return f, nil
}

// CreateFaceWithAttributes returns a face through three points.
func (bd *Builder) CreateFaceWithAttributes(p0, p1, p2 v3.Vec, attrs Attributes) (*Face, error) {
	f, err := NewFace(p0, p1, p2, attrs, bd.format.UVKind())
	if err != nil {
		return nil, err
	}
	if t := bd.textures.Texture(attrs.TextureName); t != nil {
		f.SetTexture(t)
	}
	return f, nil
}

// CreateBrushFromFaces returns the brush bounded by faces.
func (bd *Builder) CreateBrushFromFaces(faces []*Face) (*Brush, error) {
	return NewBrush(bd.worldBounds, faces)
}

// CreateCuboid returns an axis aligned box brush.
func (bd *Builder) CreateCuboid(bounds sdf.Box3, textureName string) (*Brush, error) {
	x, y, z := geom.PosX, geom.PosY, geom.PosZ
	lo, hi := bounds.Min, bounds.Max
	triples := [6][3]v3.Vec{
		{lo, lo.Add(y), lo.Add(z)}, // left
		{hi, hi.Add(z), hi.Add(y)}, // right
		{lo, lo.Add(z), lo.Add(x)}, // front
		{hi, hi.Add(x), hi.Add(z)}, // back
		{hi, hi.Add(y), hi.Add(x)}, // top
		{lo, lo.Add(x), lo.Add(y)}, // bottom
	}
	faces := make([]*Face, 0, len(triples))
	for _, t := range triples {
		f, err := bd.CreateFace(t[0], t[1], t[2], textureName)
		if err != nil {
			return nil, err
		}
		faces = append(faces, f)
	}
	return bd.CreateBrushFromFaces(faces)
}

// CreateCube returns a cube of the given edge length centered at the
// origin.
func (bd *Builder) CreateCube(size float64, textureName string) (*Brush, error) {
	h := size / 2
	return bd.CreateCuboid(geom.CubeBounds(h), textureName)
}

// CreateBrush returns the brush spanned by the convex hull of points.
func (bd *Builder) CreateBrush(points []v3.Vec, textureName string) (*Brush, error) {
	geo, err := polyhedron.New(points...)
	if err != nil {
		return nil, fmt.Errorf("brush: hull: %w", err)
	}
	if !geo.Polyhedron() {
		return nil, fmt.Errorf("%w: hull is %s", ErrEmptyBrush, geo.State())
	}
	faces := make([]*Face, 0, geo.FaceCount())
	for id := 0; id < geo.FaceCount(); id++ {
		p0, p1, p2, ok := polygonPoints(geo.FacePositions(polyhedron.FaceID(id)))
		if !ok {
			return nil, fmt.Errorf("%w: degenerate hull face", ErrColinearPoints)
		}
		f, err := bd.CreateFace(p0, p1, p2, textureName)
		if err != nil {
			return nil, err
		}
		faces = append(faces, f)
	}
	return bd.CreateBrushFromFaces(faces)
}

// CreatePrism returns an upright prism with a regular polygon of the given
// number of sides as its base.
func (bd *Builder) CreatePrism(center v3.Vec, radius, height float64, sides int, textureName string) (*Brush, error) {
	if sides < 3 {
		return nil, fmt.Errorf("brush: prism needs at least 3 sides, got %d", sides)
	}
	if radius <= 0 || height <= 0 {
		return nil, fmt.Errorf("brush: prism radius %g and height %g must be positive", radius, height)
	}
	points := make([]v3.Vec, 0, 2*sides)
	for i := 0; i < sides; i++ {
		a := 2 * math.Pi * float64(i) / float64(sides)
		x, y := center.X+radius*math.Cos(a), center.Y+radius*math.Sin(a)
		points = append(points,
			v3.Vec{X: x, Y: y, Z: center.Z - height/2},
			v3.Vec{X: x, Y: y, Z: center.Z + height/2},
		)
	}
	return bd.CreateBrush(points, textureName)
}
