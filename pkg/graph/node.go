package graph

// NodeKind enumerates the types of nodes in the design graph.
type NodeKind int

const (
	NodeBrush      NodeKind = iota // brush primitive (box, prism, hull)
	NodeTransform                  // spatial transformation (place)
	NodeCSG                        // boolean operation (subtract, intersect)
	NodeClip                       // clip by a plane
	NodeExpand                     // move all faces along their normals
	NodeVertexEdit                 // move a vertex of a brush
	NodeGroup                      // logical grouping
)

func (k NodeKind) String() string {
	switch k {
	case NodeBrush:
		return "brush"
	case NodeTransform:
		return "transform"
	case NodeCSG:
		return "csg"
	case NodeClip:
		return "clip"
	case NodeExpand:
		return "expand"
	case NodeVertexEdit:
		return "vertex-edit"
	case NodeGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Node is the fundamental element of the design graph.
type Node struct {
	ID          NodeID      `json:"id"`
	Kind        NodeKind    `json:"kind"`
	Name        string      `json:"name,omitempty"`
	Source      SourceRef   `json:"source"`
	ContentHash ContentHash `json:"content_hash"`
	Children    []NodeID    `json:"children,omitempty"`
	Data        NodeData    `json:"data"`
}

// DisplayName returns the node name, or the short ID of an anonymous node.
func (n *Node) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID.Short()
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}
