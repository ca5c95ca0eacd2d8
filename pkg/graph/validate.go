package graph

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
)

// ValidationSeverity indicates whether a validation finding blocks evaluation
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks evaluation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if graph-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	NodeID  NodeID
	Message string
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// findings accumulates Tier 1 results.
type findings []ValidationError

func (f *findings) errorf(id NodeID, format string, args ...any) {
	*f = append(*f, ValidationError{NodeID: id, Message: fmt.Sprintf(format, args...), Severity: SeverityError})
}

func (f *findings) warnf(id NodeID, format string, args ...any) {
	*f = append(*f, ValidationError{NodeID: id, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning})
}

// structuralChecks are the Tier 1 checks in the order they run.
var structuralChecks = []func(g *DesignGraph, f *findings){
	checkAcyclic,
	checkReferences,
	checkNames,
	checkRoots,
	checkArity,
	checkVertexEditTargets,
}

// Validate runs the Tier 1 structural checks on the design graph. An empty
// result means the graph is well formed. Findings are reported in a stable
// order and the graph is never mutated.
func Validate(g *DesignGraph) []ValidationError {
	var f findings
	for _, check := range structuralChecks {
		check(g, &f)
	}
	return f
}

// ValidateAll runs all validation tiers (structural, geometric, texture)
// and returns a ValidationResult with separated errors and warnings.
// Geometry is only built for a structurally sound graph.
func ValidateAll(g *DesignGraph) ValidationResult {
	var result ValidationResult
	result.Errors, result.Warnings = findings(Validate(g)).split()
	if len(result.Errors) > 0 {
		return result
	}
	errs, warnings := validateGeometry(g)
	result.Errors = append(result.Errors, errs...)
	result.Warnings = append(result.Warnings, warnings...)
	return result
}

// sortedNodes returns the nodes of g ordered by ID.
func sortedNodes(g *DesignGraph) []*Node {
	nodes := make([]*Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, func(a, b *Node) int { return bytes.Compare(a.ID[:], b.ID[:]) })
	return nodes
}

// checkAcyclic reports the first cycle found by a depth-first walk along
// child edges, naming the nodes on it.
func checkAcyclic(g *DesignGraph, f *findings) {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[NodeID]int)
	var path []NodeID

	var walk func(id NodeID) bool
	walk = func(id NodeID) bool {
		switch state[id] {
		case done:
			return false
		case onPath:
			start := slices.Index(path, id)
			names := make([]string, 0, len(path)-start+1)
			for _, p := range append(path[start:], id) {
				names = append(names, g.displayName(p))
			}
			f.errorf(id, "cycle detected: %s", strings.Join(names, " -> "))
			return true
		}
		node, ok := g.Nodes[id]
		if !ok {
			// Dangling references are reported by checkReferences.
			state[id] = done
			return false
		}
		state[id] = onPath
		path = append(path, id)
		for _, child := range node.Children {
			if walk(child) {
				return true
			}
		}
		path = path[:len(path)-1]
		state[id] = done
		return false
	}

	for _, n := range sortedNodes(g) {
		if state[n.ID] == unvisited && walk(n.ID) {
			return
		}
	}
}

func (g *DesignGraph) displayName(id NodeID) string {
	if n, ok := g.Nodes[id]; ok {
		return n.DisplayName()
	}
	return id.Short()
}

// checkReferences reports child edges to nodes missing from the graph.
func checkReferences(g *DesignGraph, f *findings) {
	for _, n := range sortedNodes(g) {
		for _, child := range n.Children {
			if _, ok := g.Nodes[child]; !ok {
				f.errorf(n.ID, "child reference %s does not exist", child.Short())
			}
		}
	}
}

// checkNames reports name index entries without a node and names shared by
// several nodes.
func checkNames(g *DesignGraph, f *findings) {
	names := make([]string, 0, len(g.NameIndex))
	for name := range g.NameIndex {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if id := g.NameIndex[name]; g.Nodes[id] == nil {
			f.errorf(ZeroID, "name index entry %q references non-existent node %s", name, id.Short())
		}
	}

	owners := make(map[string]int)
	var order []string
	for _, n := range sortedNodes(g) {
		if n.Name == "" {
			continue
		}
		if owners[n.Name] == 0 {
			order = append(order, n.Name)
		}
		owners[n.Name]++
	}
	for _, name := range order {
		if owners[name] > 1 {
			f.errorf(ZeroID, "duplicate name %q assigned to %d nodes", name, owners[name])
		}
	}
}

// checkRoots reports roots missing from the graph and warns about nodes
// that no root reaches.
func checkRoots(g *DesignGraph, f *findings) {
	reached := make(map[NodeID]bool, len(g.Nodes))
	var queue []NodeID
	for _, root := range g.Roots {
		if g.Nodes[root] == nil {
			f.errorf(ZeroID, "root reference %s does not exist", root.Short())
			continue
		}
		if !reached[root] {
			reached[root] = true
			queue = append(queue, root)
		}
	}
	for len(queue) > 0 {
		n := g.Nodes[queue[0]]
		queue = queue[1:]
		if n == nil {
			continue
		}
		for _, child := range n.Children {
			if !reached[child] {
				reached[child] = true
				queue = append(queue, child)
			}
		}
	}

	for _, n := range sortedNodes(g) {
		if !reached[n.ID] {
			f.warnf(n.ID, "node %q is not reachable from any root (orphan)", n.DisplayName())
		}
	}
}

// shape describes the payload and child count a node kind requires.
type shape struct {
	data     func(NodeData) bool
	min, max int // max < 0 means unbounded
	want     string
}

func dataIs[T NodeData](d NodeData) bool {
	_, ok := d.(T)
	return ok
}

var kindShapes = map[NodeKind]shape{
	NodeBrush:      {dataIs[BrushData], 0, 0, "no children"},
	NodeTransform:  {dataIs[TransformData], 1, 1, "exactly one child"},
	NodeCSG:        {dataIs[CSGData], 2, -1, "at least two children"},
	NodeClip:       {dataIs[ClipData], 1, 1, "exactly one child"},
	NodeExpand:     {dataIs[ExpandData], 1, 1, "exactly one child"},
	NodeVertexEdit: {dataIs[VertexEditData], 1, 1, "exactly one child"},
	NodeGroup:      {dataIs[GroupData], 0, -1, ""},
}

// checkArity reports nodes whose payload or number of children does not
// fit their kind.
func checkArity(g *DesignGraph, f *findings) {
	for _, n := range sortedNodes(g) {
		s, known := kindShapes[n.Kind]
		if !known || !s.data(n.Data) {
			f.errorf(n.ID, "%s node has %T data", n.Kind, n.Data)
			continue
		}
		c := len(n.Children)
		if c < s.min || (s.max >= 0 && c > s.max) {
			f.errorf(n.ID, "%s node %q needs %s, has %d", n.Kind, n.DisplayName(), s.want, c)
		}
	}
}

// checkVertexEditTargets reports vertex edits that apply to anything but a
// brush or another vertex edit.
func checkVertexEditTargets(g *DesignGraph, f *findings) {
	for _, n := range sortedNodes(g) {
		if n.Kind != NodeVertexEdit || len(n.Children) != 1 {
			continue
		}
		target := g.Nodes[n.Children[0]]
		if target == nil {
			continue
		}
		if target.Kind != NodeBrush && target.Kind != NodeVertexEdit {
			f.errorf(n.ID, "vertex edit target %s is %s, not brush", target.DisplayName(), target.Kind)
		}
	}
}
