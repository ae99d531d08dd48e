// Package layout computes deterministic layered placements for structural
// graphs.
//
// Nodes are assigned to levels by breadth-first traversal from the graph's
// entry over forward (non-back) edges. Each level is sorted by ascending node
// id and centered horizontally within the widest level. Nodes the traversal
// never reaches are laid out in a grid below the deepest level, so every node
// always receives a position.
//
//	l := layout.Compute(g)
//	placed := l.Apply(g)
//
// The result depends only on the set of nodes and edges, not on the order in
// which they were inserted, and re-running Compute yields identical positions.
package layout

import (
	"math"
	"slices"

	"github.com/matzehuels/flowlens/pkg/graph"
)

// Geometry defaults, in graph units. Positions are node centers.
const (
	NodeWidth  = 120.0
	NodeHeight = 40.0
	Padding    = 80.0
	GapX       = 80.0
	GapY       = 90.0

	// MinWidth and MinHeight bound the emitted content size from below so
	// small graphs still get a comfortable canvas.
	MinWidth  = 900.0
	MinHeight = 600.0

	// MaxGridColumns bounds the overflow grid used for unreachable nodes.
	MaxGridColumns = 6
)

// Options controls layout geometry.
type Options struct {
	NodeWidth  float64
	NodeHeight float64
	Padding    float64
	GapX       float64
	GapY       float64
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns the standard geometry.
func DefaultOptions() Options {
	return Options{
		NodeWidth:  NodeWidth,
		NodeHeight: NodeHeight,
		Padding:    Padding,
		GapX:       GapX,
		GapY:       GapY,
	}
}

// WithNodeSize overrides the node box size.
func WithNodeSize(w, h float64) Option {
	return func(o *Options) { o.NodeWidth, o.NodeHeight = w, h }
}

// WithGaps overrides the horizontal and vertical gaps between node boxes.
func WithGaps(x, y float64) Option {
	return func(o *Options) { o.GapX, o.GapY = x, y }
}

// WithPadding overrides the outer padding.
func WithPadding(p float64) Option {
	return func(o *Options) { o.Padding = p }
}

// Levels assigns a BFS depth to every node reachable from g.Entry through
// forward edges. Back-edges are ignored; the first discovery of a node fixes
// its level. Unreachable nodes are absent from the returned map.
//
// Successors are visited in ascending id order, so the result does not depend
// on edge insertion order.
func Levels(g graph.Graph) map[int]int {
	levels := make(map[int]int, len(g.Nodes))
	if g.Empty() {
		return levels
	}

	ix := graph.NewIndex(g)
	if !ix.Has(g.Entry) {
		return levels
	}

	levels[g.Entry] = 0
	queue := []int{g.Entry}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		succ := ix.Successors(curr, true)
		slices.Sort(succ)
		for _, next := range succ {
			if _, seen := levels[next]; seen {
				continue
			}
			levels[next] = levels[curr] + 1
			queue = append(queue, next)
		}
	}
	return levels
}

// Compute lays out g and returns the positions, content size and layout
// order. An empty graph yields an empty Layout.
//
// # Algorithm
//
//  1. Assign BFS levels from the entry over forward edges ([Levels]).
//  2. Group ids by level and sort each level ascending by id.
//  3. Size the content rectangle by the widest and deepest level, then center
//     each level horizontally: y = padding + level*(h+gapY) + h/2.
//  4. Place unreachable nodes, ascending by id, in a grid of
//     min(6, max(1, ceil(sqrt(n)))) columns below the deepest level.
//  5. Report the frame size, at least [MinWidth] x [MinHeight].
func Compute(g graph.Graph, opts ...Option) graph.Layout {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if g.Empty() {
		return graph.Layout{}
	}

	levels := Levels(g)
	byLevel := make(map[int][]int)
	maxLevel := 0
	for id, lvl := range levels {
		byLevel[lvl] = append(byLevel[lvl], id)
		maxLevel = max(maxLevel, lvl)
	}
	maxPerLevel := 1
	for _, ids := range byLevel {
		slices.Sort(ids)
		maxPerLevel = max(maxPerLevel, len(ids))
	}

	contentW := float64(maxPerLevel)*o.NodeWidth + float64(maxPerLevel-1)*o.GapX
	contentH := float64(maxLevel+1)*o.NodeHeight + float64(maxLevel)*o.GapY

	out := graph.Layout{
		Width:     math.Max(MinWidth, 2*o.Padding+contentW),
		Height:    math.Max(MinHeight, 2*o.Padding+contentH),
		Positions: make([]graph.Position, 0, len(g.Nodes)),
	}
	if len(levels) > 0 {
		out.Levels = maxLevel + 1
	}

	for lvl := 0; lvl <= maxLevel; lvl++ {
		ids := byLevel[lvl]
		rowW := float64(len(ids))*o.NodeWidth + float64(max(0, len(ids)-1))*o.GapX
		startX := o.Padding + (contentW-rowW)/2
		y := o.Padding + float64(lvl)*(o.NodeHeight+o.GapY) + o.NodeHeight/2
		for i, id := range ids {
			out.Positions = append(out.Positions, graph.Position{
				ID:    id,
				X:     startX + float64(i)*(o.NodeWidth+o.GapX) + o.NodeWidth/2,
				Y:     y,
				Level: lvl,
			})
		}
	}

	var unplaced []int
	for _, n := range g.Nodes {
		if _, ok := levels[n.ID]; !ok {
			unplaced = append(unplaced, n.ID)
		}
	}
	if len(unplaced) > 0 {
		slices.Sort(unplaced)
		cols := gridColumns(len(unplaced))
		startY := o.Padding + float64(maxLevel+1)*(o.NodeHeight+o.GapY) + o.NodeHeight/2
		for i, id := range unplaced {
			col, row := i%cols, i/cols
			out.Positions = append(out.Positions, graph.Position{
				ID:    id,
				X:     o.Padding + float64(col)*(o.NodeWidth+o.GapX) + o.NodeWidth/2,
				Y:     startY + float64(row)*(o.NodeHeight+o.GapY),
				Level: graph.LevelUnplaced,
			})
		}
		rows := (len(unplaced) + cols - 1) / cols
		bottom := startY + float64(rows-1)*(o.NodeHeight+o.GapY) + o.NodeHeight/2 + o.Padding
		out.Height = math.Max(out.Height, bottom)
		right := o.Padding + float64(min(cols, len(unplaced)))*(o.NodeWidth+o.GapX) - o.GapX + o.Padding
		out.Width = math.Max(out.Width, right)
	}

	return out
}

// Apply lays out g and returns the positioned copy.
func Apply(g graph.Graph, opts ...Option) graph.Graph {
	return Compute(g, opts...).Apply(g)
}

func gridColumns(n int) int {
	return min(MaxGridColumns, max(1, int(math.Ceil(math.Sqrt(float64(n))))))
}
