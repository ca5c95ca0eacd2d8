package graph

// ---------------------------------------------------------------------------
// Brush primitives
// ---------------------------------------------------------------------------

// BrushShape distinguishes between brush primitives.
type BrushShape int

const (
	ShapeBox   BrushShape = iota // axis aligned box
	ShapePrism                   // upright prism with a regular polygon base
	ShapeHull                    // convex hull of points
)

func (s BrushShape) String() string {
	switch s {
	case ShapeBox:
		return "box"
	case ShapePrism:
		return "prism"
	case ShapeHull:
		return "hull"
	default:
		return "unknown"
	}
}

// BrushData describes a brush primitive. Only the fields of its shape are
// used.
type BrushData struct {
	Shape   BrushShape `json:"shape"`
	Texture string     `json:"texture,omitempty"` // empty means the graph default

	// Box
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`

	// Prism
	Center Vec3    `json:"center"`
	Radius float64 `json:"radius,omitempty"`
	Height float64 `json:"height,omitempty"`
	Sides  int     `json:"sides,omitempty"`

	// Hull
	Points []Vec3 `json:"points,omitempty"`
}

func (BrushData) nodeData() {}

// ---------------------------------------------------------------------------
// Transform
// ---------------------------------------------------------------------------

// TransformData represents a spatial transformation applied to a child node.
// Created by the (place ...) Lisp form. Rotation is applied before
// translation.
type TransformData struct {
	Translation *Vec3 `json:"translation,omitempty"`
	Rotation    *Vec3 `json:"rotation,omitempty"` // Euler angles in degrees
}

func (TransformData) nodeData() {}

// ---------------------------------------------------------------------------
// CSG
// ---------------------------------------------------------------------------

// CSGOp enumerates boolean operations.
type CSGOp int

const (
	CSGSubtract  CSGOp = iota // first child minus the others
	CSGIntersect              // common volume of all children
)

func (op CSGOp) String() string {
	switch op {
	case CSGSubtract:
		return "subtract"
	case CSGIntersect:
		return "intersect"
	default:
		return "unknown"
	}
}

// CSGData represents a boolean operation over the node's children.
type CSGData struct {
	Op CSGOp `json:"op"`
}

func (CSGData) nodeData() {}

// ---------------------------------------------------------------------------
// Brush edits
// ---------------------------------------------------------------------------

// ClipData clips the child by the plane through three points. The points
// wind like brush face points: the part in front of the plane, the side its
// normal points to, is removed.
type ClipData struct {
	Points [3]Vec3 `json:"points"`
}

func (ClipData) nodeData() {}

// ExpandData moves every face of the child outward by Delta. A negative
// delta shrinks it.
type ExpandData struct {
	Delta float64 `json:"delta"`
}

func (ExpandData) nodeData() {}

// VertexEditData moves the brush vertex at From by Delta. The child must be
// a brush or another vertex edit.
type VertexEditData struct {
	From  Vec3 `json:"from"`
	Delta Vec3 `json:"delta"`
}

func (VertexEditData) nodeData() {}

// ---------------------------------------------------------------------------
// Group
// ---------------------------------------------------------------------------

// GroupData represents a logical grouping of brushes.
// Created by the (group ...) Lisp form.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}
