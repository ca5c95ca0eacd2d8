package main

import (
	"context"
	"fmt"
	"log"

	"github.com/chazu/brushwork/pkg/config"
	"github.com/chazu/brushwork/pkg/engine"
	"github.com/chazu/brushwork/pkg/graph"
	"github.com/chazu/brushwork/pkg/kernel"
	"github.com/chazu/brushwork/pkg/kernel/brushes"
	"github.com/chazu/brushwork/pkg/kernel/sdfx"
	"github.com/chazu/brushwork/pkg/tessellate"
)

// Kernel backends selectable with --backend.
const (
	BackendBrushes = "brushes"
	BackendSdfx    = "sdfx"
)

// colorPalette is a default palette used to assign distinct colors to parts.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App runs scripts through the engine, validation and tessellation.
type App struct {
	ctx     context.Context
	cfg     *config.Config
	backend string
	engine  *engine.Engine
}

// MeshData is the JSON-serializable mesh format printed by eval.
type MeshData struct {
	Vertices  []float32        `json:"vertices"`
	Normals   []float32        `json:"normals"`
	UVs       []float32        `json:"uvs,omitempty"`
	Indices   []uint32         `json:"indices"`
	Submeshes []kernel.Submesh `json:"submeshes,omitempty"`
	PartName  string           `json:"partName"`
	Color     string           `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of evaluating a script.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// NewApp creates an App for the config and kernel backend. Evaluations are
// abandoned when ctx is done.
func NewApp(ctx context.Context, cfg *config.Config, backend string) (*App, error) {
	switch backend {
	case BackendBrushes, BackendSdfx:
	default:
		return nil, fmt.Errorf("unknown backend %q (use %s or %s)", backend, BackendBrushes, BackendSdfx)
	}
	e := engine.NewEngine()
	e.SetDefaults(cfg.GraphDefaults(), cfg.TextureSpecs())
	e.SetTimeout(cfg.EvalTimeout)
	return &App{ctx: ctx, cfg: cfg, backend: backend, engine: e}, nil
}

// kernelFor returns the selected kernel for g.
func (a *App) kernelFor(g *graph.DesignGraph) (kernel.Kernel, error) {
	if a.backend == BackendSdfx {
		return sdfx.NewWithCells(a.cfg.MeshCells), nil
	}
	bd, err := g.Builder()
	if err != nil {
		return nil, err
	}
	return brushes.New(bd, g.Defaults.Texture, g.Defaults.UVLock), nil
}

// Check evaluates and validates source without tessellating it.
func (a *App) Check(source string) (*graph.DesignGraph, EvalResult) {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	res, err := a.engine.CheckContext(a.ctx, source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return nil, result
	}
	for _, e := range res.Errors {
		result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
	}
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Line: w.Line, Col: w.Col, Message: w.Message})
	}
	return res.Graph, result
}

// Tessellate evaluates source and returns the kernel meshes of its parts.
// The meshes are nil if the result has errors.
func (a *App) Tessellate(source string) ([]*kernel.Mesh, EvalResult) {
	// Step 1: Evaluate and validate the script.
	g, result := a.Check(source)
	if len(result.Errors) > 0 {
		return nil, result
	}

	// Step 2: Tessellate the design graph into triangle meshes.
	k, err := a.kernelFor(g)
	if err == nil {
		var meshes []*kernel.Mesh
		meshes, err = tessellate.Tessellate(g, k)
		if err == nil {
			return meshes, result
		}
	}
	log.Printf("Tessellate error: %v", err)
	result.Errors = append(result.Errors, EvalErrorData{
		Message: "tessellation failed: " + err.Error(),
	})
	return nil, result
}

// Evaluate takes script source and returns mesh data, errors and warnings.
func (a *App) Evaluate(source string) EvalResult {
	meshes, result := a.Tessellate(source)

	// Step 3: Convert kernel meshes to MeshData.
	for i, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices:  m.Vertices,
			Normals:   m.Normals,
			UVs:       m.UVs,
			Indices:   m.Indices,
			Submeshes: m.Submeshes,
			PartName:  m.PartName,
			Color:     colorPalette[i%len(colorPalette)],
		})
	}

	return result
}
