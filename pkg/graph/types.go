package graph

import (
	"fmt"
	"strings"
)

// =============================================================================
// Diagram Kinds
// =============================================================================

// Diagram selects which structural view of a program the analysis service
// produces.
type Diagram string

const (
	DiagramAST Diagram = "ast"
	DiagramCFG Diagram = "cfg"
	DiagramDFG Diagram = "dfg"
)

// Diagrams lists every supported diagram kind in switcher order.
var Diagrams = []Diagram{DiagramAST, DiagramCFG, DiagramDFG}

// ParseDiagram accepts a diagram kind or one of its long names.
func ParseDiagram(s string) (Diagram, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ast", "structure", "syntax":
		return DiagramAST, nil
	case "cfg", "control-flow", "controlflow":
		return DiagramCFG, nil
	case "dfg", "data-flow", "dataflow":
		return DiagramDFG, nil
	}
	return "", fmt.Errorf("%w: %q (must be 'ast', 'cfg', or 'dfg')", ErrInvalidDiagram, s)
}

// UnrollsLoops reports whether playback repeats loop bodies for the diagram.
// Other kinds play back in plain node order.
func (d Diagram) UnrollsLoops() bool { return d == DiagramCFG }

// Title returns a human-readable name.
func (d Diagram) Title() string {
	switch d {
	case DiagramAST:
		return "Structure"
	case DiagramCFG:
		return "Control Flow"
	case DiagramDFG:
		return "Data Flow"
	}
	return string(d)
}

// =============================================================================
// Tags
// =============================================================================

// Node kinds emitted by the analysis service. Syntax-tree diagrams use the
// parser's own node type names (Module, FunctionDef, ...), which pass through
// unchanged.
const (
	NodeEntry        = "entry"
	NodeExit         = "exit"
	NodeStatement    = "statement"
	NodeCondition    = "condition"
	NodeLoopHeader   = "loop_header"
	NodeFunctionCall = "function_call"
	NodeDefinition   = "definition"
	NodeUse          = "use"
	NodeReturn       = "return"
)

// Edge kinds.
const (
	EdgeNormal = "normal"
	EdgeTrue   = "true"
	EdgeFalse  = "false"
	EdgeBack   = "back"
	EdgeDefUse = "def-use"
	EdgeChild  = "child"
)

// =============================================================================
// Graph
// =============================================================================

// Node is a vertex of a structural graph.
//
// X and Y are the node center and are only meaningful when Placed is true.
// Line is the 1-based source line, or 0 when the producer did not supply one.
type Node struct {
	ID     int     `json:"id" bson:"id"`
	Kind   string  `json:"type" bson:"type"`
	Label  string  `json:"label" bson:"label"`
	Line   int     `json:"line,omitempty" bson:"line,omitempty"`
	X      float64 `json:"x,omitempty" bson:"x,omitempty"`
	Y      float64 `json:"y,omitempty" bson:"y,omitempty"`
	Placed bool    `json:"placed,omitempty" bson:"placed,omitempty"`
}

// HasLine reports whether the node carries a source line.
func (n Node) HasLine() bool { return n.Line > 0 }

// Edge is a directed connection between two nodes. Several edges may share
// the same (Source, Target) pair.
type Edge struct {
	Source int    `json:"source" bson:"source"`
	Target int    `json:"target" bson:"target"`
	Kind   string `json:"type" bson:"type"`
	Label  string `json:"label,omitempty" bson:"label,omitempty"`
}

// IsBack reports whether the edge was tagged as loop-closing.
func (e Edge) IsBack() bool { return e.Kind == EdgeBack }

// IsSelfLoop reports whether the edge starts and ends at the same node.
func (e Edge) IsSelfLoop() bool { return e.Source == e.Target }

// Touches reports whether id is either endpoint of the edge.
func (e Edge) Touches(id int) bool { return e.Source == id || e.Target == id }

// Graph is a normalized structural graph.
//
// Every edge endpoint references a node in Nodes and Entry is a valid node id
// whenever Nodes is non-empty. Width and Height are zero until layout runs.
type Graph struct {
	Diagram Diagram `json:"diagram,omitempty" bson:"diagram,omitempty"`
	Nodes   []Node  `json:"nodes" bson:"nodes"`
	Edges   []Edge  `json:"edges" bson:"edges"`
	Entry   int     `json:"entry" bson:"entry"`
	Width   float64 `json:"width,omitempty" bson:"width,omitempty"`
	Height  float64 `json:"height,omitempty" bson:"height,omitempty"`
}

// Empty reports whether the graph has no nodes.
func (g Graph) Empty() bool { return len(g.Nodes) == 0 }

// Node returns the node with the given id.
func (g Graph) Node(id int) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// NodeIDs returns node ids in their stored order.
func (g Graph) NodeIDs() []int {
	ids := make([]int, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// BackEdges returns the edges tagged as back-edges, in stored order.
func (g Graph) BackEdges() []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.IsBack() {
			out = append(out, e)
		}
	}
	return out
}

// Clone returns a deep copy of the graph.
func (g Graph) Clone() Graph {
	out := g
	out.Nodes = append([]Node(nil), g.Nodes...)
	out.Edges = append([]Edge(nil), g.Edges...)
	return out
}
