package graph

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"lukechampine.com/blake3"
)

// NodeID is a content-addressed identifier for graph nodes: the blake3
// hash of the node's identity path (kind and name, or kind and an
// evaluation-local counter for anonymous nodes).
type NodeID [32]byte

// ZeroID is the zero NodeID, used for "no node".
var ZeroID NodeID

// NewNodeID hashes an identity path such as "defbrush/wall" into a NodeID.
func NewNodeID(path string) NodeID {
	return NodeID(blake3.Sum256([]byte(path)))
}

// IsZero reports whether id is the zero ID.
func (id NodeID) IsZero() bool { return id == ZeroID }

// String returns the full hex encoding.
func (id NodeID) String() string { return hex.EncodeToString(id[:]) }

// Short returns the first 12 hex digits.
func (id NodeID) Short() string { return hex.EncodeToString(id[:6]) }

// MarshalText encodes the ID as hex so that it can key JSON objects.
func (id NodeID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes a hex ID.
func (id *NodeID) UnmarshalText(b []byte) error {
	if len(b) != 2*len(id) {
		return fmt.Errorf("graph: node id %q has wrong length", b)
	}
	_, err := hex.Decode(id[:], b)
	return err
}

// ContentHash is the blake3 hash of a node's kind, data and children. Two
// nodes with the same content hash describe the same geometry.
type ContentHash [32]byte

// IsZero reports whether the hash is unset.
func (h ContentHash) IsZero() bool { return h == ContentHash{} }

// String returns the full hex encoding.
func (h ContentHash) String() string { return hex.EncodeToString(h[:]) }

// MarshalText encodes the hash as hex.
func (h ContentHash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// HashContent computes the content hash of a node. Children contribute
// their IDs in order.
func HashContent(n *Node) ContentHash {
	hasher := blake3.New(32, nil)
	fmt.Fprintf(hasher, "%s\x00", n.Kind)
	data, err := json.Marshal(n.Data)
	if err != nil {
		// Node data are plain structs; marshaling cannot fail.
		panic(fmt.Sprintf("graph: hash %s data: %v", n.Kind, err))
	}
	hasher.Write(data)
	for _, c := range n.Children {
		hasher.Write(c[:])
	}
	var h ContentHash
	copy(h[:], hasher.Sum(nil))
	return h
}

// SourceRef locates the expression that created a node.
type SourceRef struct {
	Line int `json:"line,omitempty"`
	Col  int `json:"col,omitempty"`
}

// Vec3 is a point or vector in map units.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// V3 converts v to an sdfx vector.
func (v Vec3) V3() v3.Vec { return v3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

// FromV3 converts an sdfx vector.
func FromV3(v v3.Vec) Vec3 { return Vec3{X: v.X, Y: v.Y, Z: v.Z} }

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

// IsFinite reports whether no component is NaN or infinite.
func (v Vec3) IsFinite() bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
