// Package graph defines the map document graph for brushwork.
// The graph is an immutable DAG of brush primitives, transforms, CSG
// operations, brush edits and groups that describes a set of brushes.
package graph
