// Package config loads brushwork settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/chazu/brushwork/pkg/brush"
	"github.com/chazu/brushwork/pkg/engine"
	"github.com/chazu/brushwork/pkg/graph"
	"github.com/chazu/brushwork/pkg/kernel/sdfx"
	"gopkg.in/yaml.v3"
)

// DefaultMeshCells is the marching cubes resolution of the sdfx backend.
const DefaultMeshCells = sdfx.DefaultCells

// TextureSize declares the size of a texture in texels.
type TextureSize struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Config holds the settings shared by every command.
type Config struct {
	WorldExtent    float64                `yaml:"world_extent"`    // half width of the world cube
	Format         string                 `yaml:"format"`          // "standard" or "valve"
	DefaultTexture string                 `yaml:"default_texture"` // texture of faces without one
	UVLock         bool                   `yaml:"uv_lock"`
	MeshCells      int                    `yaml:"mesh_cells"`
	EvalTimeout    time.Duration          `yaml:"eval_timeout"` // e.g. "10s"
	Textures       map[string]TextureSize `yaml:"textures"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		WorldExtent:    graph.DefaultWorldExtent,
		Format:         graph.DefaultFormat,
		DefaultTexture: graph.DefaultTexture,
		UVLock:         true,
		MeshCells:      DefaultMeshCells,
		EvalTimeout:    engine.EvalTimeout,
		Textures:       map[string]TextureSize{},
	}
}

// Load reads a YAML file. Fields missing from the file keep their default
// values; unknown fields are an error. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if cfg.Textures == nil {
		cfg.Textures = map[string]TextureSize{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if !(c.WorldExtent > 0) {
		return fmt.Errorf("config: world_extent %g must be positive", c.WorldExtent)
	}
	if _, err := brush.ParseMapFormat(c.Format); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.DefaultTexture == "" {
		return fmt.Errorf("config: default_texture is empty")
	}
	if c.MeshCells <= 0 {
		return fmt.Errorf("config: mesh_cells %d must be positive", c.MeshCells)
	}
	if c.EvalTimeout <= 0 {
		return fmt.Errorf("config: eval_timeout %s must be positive", c.EvalTimeout)
	}
	for name, t := range c.Textures {
		if t.Width <= 0 || t.Height <= 0 {
			return fmt.Errorf("config: texture %q size %dx%d must be positive", name, t.Width, t.Height)
		}
	}
	return nil
}

// GraphDefaults returns the defaults of graphs built with this config.
func (c *Config) GraphDefaults() graph.GlobalDefaults {
	return graph.GlobalDefaults{
		Texture:     c.DefaultTexture,
		Format:      c.Format,
		WorldExtent: c.WorldExtent,
		UVLock:      c.UVLock,
	}
}

// TextureSpecs returns the declared textures in graph form.
func (c *Config) TextureSpecs() map[string]graph.TextureSpec {
	specs := make(map[string]graph.TextureSpec, len(c.Textures))
	for name, t := range c.Textures {
		specs[name] = graph.TextureSpec{Width: t.Width, Height: t.Height}
	}
	return specs
}
