// Package selection tracks hovered and pinned nodes and builds the inspector
// view for the active node.
package selection

import (
	"github.com/matzehuels/flowlens/pkg/graph"
)

// Selection holds the hovered and pinned node ids. The zero value has
// nothing selected.
//
// Hovering always records the hovered node, but while a node is pinned the
// pinned node stays active; once the pin is cleared the last hovered node
// becomes active again.
type Selection struct {
	hovered    int
	hasHovered bool
	pinned     int
	hasPinned  bool
}

// Hover records id as hovered.
func (s *Selection) Hover(id int) {
	s.hovered, s.hasHovered = id, true
}

// Unhover clears the hovered node when the pointer leaves node id. Nothing
// changes while a node is pinned or keep is set (the engine passes true during
// playback so the highlighted step survives pointer movement).
func (s *Selection) Unhover(id int, keep bool) {
	if keep || s.hasPinned || !s.hasHovered || s.hovered != id {
		return
	}
	s.hasHovered = false
}

// Highlight marks id as the animated step. It shares the hovered slot, so a
// pinned node still wins and the next hover replaces it.
func (s *Selection) Highlight(id int) {
	s.Hover(id)
}

// Click pins id and records it as hovered.
func (s *Selection) Click(id int) {
	s.pinned, s.hasPinned = id, true
	s.Hover(id)
}

// ClickBackground clears the pinned node.
func (s *Selection) ClickBackground() {
	s.hasPinned = false
}

// Unpin clears the pinned node; panning the canvas does this.
func (s *Selection) Unpin() { s.hasPinned = false }

// Clear drops both hovered and pinned state.
func (s *Selection) Clear() { *s = Selection{} }

// Hovered returns the hovered node.
func (s Selection) Hovered() (int, bool) { return s.hovered, s.hasHovered }

// Pinned returns the pinned node.
func (s Selection) Pinned() (int, bool) { return s.pinned, s.hasPinned }

// Active returns pinned ?? hovered.
func (s Selection) Active() (int, bool) {
	if s.hasPinned {
		return s.pinned, true
	}
	return s.hovered, s.hasHovered
}

// =============================================================================
// Inspector
// =============================================================================

// Neighbor is one entry of an inspector edge list.
type Neighbor struct {
	Edge graph.Edge
	Node graph.Node // the node at the other end of Edge
}

// Inspector is the detail view for a single node.
type Inspector struct {
	Node         graph.Node
	Predecessors []Neighbor // edges where Node is the target
	Successors   []Neighbor // edges where Node is the source
}

// Inspect builds the inspector for node id. ok is false when id is not a node
// of g. Self-loops appear in both lists.
func Inspect(g graph.Graph, id int) (Inspector, bool) {
	n, ok := g.Node(id)
	if !ok {
		return Inspector{}, false
	}
	byID := make(map[int]graph.Node, len(g.Nodes))
	for _, m := range g.Nodes {
		byID[m.ID] = m
	}

	ins := Inspector{Node: n}
	for _, e := range g.Edges {
		if e.Target == id {
			ins.Predecessors = append(ins.Predecessors, Neighbor{Edge: e, Node: byID[e.Source]})
		}
		if e.Source == id {
			ins.Successors = append(ins.Successors, Neighbor{Edge: e, Node: byID[e.Target]})
		}
	}
	return ins, true
}

// Neighbors returns predecessors followed by successors, the order used for
// keyboard traversal.
func (i Inspector) Neighbors() []Neighbor {
	out := make([]Neighbor, 0, len(i.Predecessors)+len(i.Successors))
	out = append(out, i.Predecessors...)
	return append(out, i.Successors...)
}
