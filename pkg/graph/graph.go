package graph

import (
	"fmt"
	"sort"

	"github.com/chazu/brushwork/pkg/brush"
	"github.com/chazu/brushwork/pkg/geom"
	"github.com/deadsy/sdfx/sdf"
)

// Defaults for new graphs.
const (
	DefaultTexture     = "base"
	DefaultFormat      = "standard"
	DefaultWorldExtent = 8192.0
)

// GlobalDefaults contains graph-wide default settings.
type GlobalDefaults struct {
	Texture     string  `json:"texture"`      // texture of faces without one
	Format      string  `json:"format"`       // map format: "standard" or "valve"
	WorldExtent float64 `json:"world_extent"` // half width of the world cube
	UVLock      bool    `json:"uv_lock"`      // keep textures fixed on transforms
}

// TextureSpec declares the size of a texture in texels.
type TextureSpec struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DesignGraph is the top-level immutable data structure produced by Lisp evaluation.
// It is never mutated in place; each evaluation produces a new graph.
type DesignGraph struct {
	Nodes     map[NodeID]*Node       `json:"nodes"`
	Roots     []NodeID               `json:"roots"`
	NameIndex map[string]NodeID      `json:"name_index"`
	Textures  map[string]TextureSpec `json:"textures,omitempty"`
	Defaults  GlobalDefaults         `json:"defaults"`
	Version   uint64                 `json:"version"`
}

// New creates an empty DesignGraph with default settings.
func New() *DesignGraph {
	return &DesignGraph{
		Nodes:     make(map[NodeID]*Node),
		NameIndex: make(map[string]NodeID),
		Textures:  make(map[string]TextureSpec),
		Defaults: GlobalDefaults{
			Texture:     DefaultTexture,
			Format:      DefaultFormat,
			WorldExtent: DefaultWorldExtent,
			UVLock:      true,
		},
	}
}

// AddNode adds a node to the graph and fills in its content hash. It does
// not check for duplicates.
func (g *DesignGraph) AddNode(n *Node) {
	n.ContentHash = HashContent(n)
	g.Nodes[n.ID] = n
	if n.Name != "" {
		g.NameIndex[n.Name] = n.ID
	}
}

// AddRoot registers a node ID as a root of the graph.
func (g *DesignGraph) AddRoot(id NodeID) {
	g.Roots = append(g.Roots, id)
}

// AddTexture declares a texture size.
func (g *DesignGraph) AddTexture(name string, width, height int) {
	g.Textures[name] = TextureSpec{Width: width, Height: height}
}

// Lookup returns the node with the given user-assigned name, or nil.
func (g *DesignGraph) Lookup(name string) *Node {
	id, ok := g.NameIndex[name]
	if !ok {
		return nil
	}
	return g.Nodes[id]
}

// MustLookup returns the node with the given name, or panics.
func (g *DesignGraph) MustLookup(name string) *Node {
	n := g.Lookup(name)
	if n == nil {
		panic(fmt.Sprintf("graph: no node named %q", name))
	}
	return n
}

// Get returns the node with the given ID, or nil.
func (g *DesignGraph) Get(id NodeID) *Node {
	return g.Nodes[id]
}

// SourceOf returns where the node with id is defined in the script, or a
// zero position for unknown and anonymous nodes.
func (g *DesignGraph) SourceOf(id NodeID) SourceRef {
	if n := g.Get(id); n != nil {
		return n.Source
	}
	return SourceRef{}
}

// Brushes returns all brush primitive nodes ordered by display name.
func (g *DesignGraph) Brushes() []*Node {
	return g.nodesOfKind(NodeBrush)
}

// Operations returns all CSG nodes ordered by display name.
func (g *DesignGraph) Operations() []*Node {
	return g.nodesOfKind(NodeCSG)
}

func (g *DesignGraph) nodesOfKind(kind NodeKind) []*Node {
	var nodes []*Node
	for _, n := range g.Nodes {
		if n.Kind == kind {
			nodes = append(nodes, n)
		}
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].DisplayName() != nodes[j].DisplayName() {
			return nodes[i].DisplayName() < nodes[j].DisplayName()
		}
		return nodes[i].ID.String() < nodes[j].ID.String()
	})
	return nodes
}

// Children returns the child nodes of the given node.
func (g *DesignGraph) Children(n *Node) []*Node {
	children := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c := g.Nodes[cid]; c != nil {
			children = append(children, c)
		}
	}
	return children
}

// NodeCount returns the total number of nodes.
func (g *DesignGraph) NodeCount() int {
	return len(g.Nodes)
}

// WorldBounds returns the world cube brushes must stay in.
func (g *DesignGraph) WorldBounds() sdf.Box3 {
	extent := g.Defaults.WorldExtent
	if extent <= 0 {
		extent = DefaultWorldExtent
	}
	return geom.CubeBounds(extent)
}

// TextureManager returns a manager holding the declared textures.
func (g *DesignGraph) TextureManager() *brush.TextureManager {
	tm := brush.NewTextureManager()
	for name, spec := range g.Textures {
		tm.Add(name, spec.Width, spec.Height)
	}
	return tm
}

// Builder returns a brush builder for the graph's world, map format and
// textures.
func (g *DesignGraph) Builder() (*brush.Builder, error) {
	format, err := brush.ParseMapFormat(g.Defaults.Format)
	if err != nil {
		return nil, fmt.Errorf("graph: %w", err)
	}
	return brush.NewBuilder(g.WorldBounds(), format, g.TextureManager()), nil
}
