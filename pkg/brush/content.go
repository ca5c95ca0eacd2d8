package brush

import (
	"strings"

	"github.com/chazu/brushwork/pkg/geom"
)

// Content classifies what a brush is made of. A brush can have several
// content flags at once.
type Content uint32

const (
	// ContentDetail marks thin brushes that do not seal the map.
	ContentDetail Content = 1 << iota
	// ContentLiquid marks brushes whose faces all carry a liquid texture.
	ContentLiquid
	// ContentClip marks player clip brushes.
	ContentClip
	// ContentSky marks brushes with a sky face.
	ContentSky
	// ContentTrigger marks trigger volumes.
	ContentTrigger
	// ContentOrigin marks rotation origin brushes.
	ContentOrigin
)

// DetailThickness is the average thickness below which a brush counts as
// detail.
const DetailThickness = 1.0

var contentNames = []struct {
	c    Content
	name string
}{
	{ContentDetail, "detail"},
	{ContentLiquid, "liquid"},
	{ContentClip, "clip"},
	{ContentSky, "sky"},
	{ContentTrigger, "trigger"},
	{ContentOrigin, "origin"},
}

func (c Content) String() string {
	var parts []string
	for _, n := range contentNames {
		if c&n.c != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "solid"
	}
	return strings.Join(parts, "|")
}

type contentCache struct {
	valid      bool
	generation uint64
	value      Content
}

// ContentType returns the content flags of the brush. The result is cached
// until the next edit.
func (b *Brush) ContentType() Content {
	if !b.content.valid || b.content.generation != b.generation {
		b.content = contentCache{valid: true, generation: b.generation, value: b.classify()}
	}
	return b.content.value
}

// HasContentType reports whether the brush has every flag of c.
func (b *Brush) HasContentType(c Content) bool { return b.ContentType()&c == c }

// IsDetail reports whether the brush is thin enough to count as detail.
func (b *Brush) IsDetail() bool { return b.HasContentType(ContentDetail) }

// Transparent reports whether the brush does not block visibility.
func (b *Brush) Transparent() bool {
	return b.ContentType()&(ContentLiquid|ContentClip|ContentTrigger|ContentOrigin) != 0
}

func (b *Brush) classify() Content {
	var c Content
	if b.thickness() < DetailThickness {
		c |= ContentDetail
	}
	if len(b.faces) == 0 {
		return c
	}
	all := func(pred func(string) bool) bool {
		for _, f := range b.faces {
			if !pred(strings.ToLower(f.TextureName())) {
				return false
			}
		}
		return true
	}
	some := func(pred func(string) bool) bool {
		for _, f := range b.faces {
			if pred(strings.ToLower(f.TextureName())) {
				return true
			}
		}
		return false
	}
	if all(func(n string) bool { return strings.HasPrefix(n, "*") }) {
		c |= ContentLiquid
	}
	if all(func(n string) bool { return n == "clip" }) {
		c |= ContentClip
	}
	if some(func(n string) bool { return strings.HasPrefix(n, "sky") }) {
		c |= ContentSky
	}
	if all(func(n string) bool { return strings.HasPrefix(n, "trigger") }) {
		c |= ContentTrigger
	}
	if all(func(n string) bool { return n == "origin" }) {
		c |= ContentOrigin
	}
	return c
}

// thickness estimates the brush thickness as its volume divided by the
// largest area any face casts onto a principal plane.
func (b *Brush) thickness() float64 {
	var area float64
	for _, f := range b.faces {
		for _, axis := range []geom.Axis{geom.AxisX, geom.AxisY, geom.AxisZ} {
			area = max(area, f.ProjectedArea(axis))
		}
	}
	if area == 0 {
		return 0
	}
	return b.Volume() / area
}
