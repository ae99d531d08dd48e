// Package route computes drawable paths for the edges of a laid-out graph.
//
// Every edge becomes a [Route]: a short path of move, line and cubic
// segments, an arrowhead marker keyed by edge kind and an optional label
// anchor. Three shapes are used:
//
//   - self-loops bulge up and to the right from the node's bottom anchor
//   - back-edges arc above both endpoints
//   - all other edges run straight from the source's bottom anchor to the
//     target's top anchor
//
// Parallel edges sharing a (source, target) pair are fanned out
// symmetrically by [Separation] units so they never overlap.
package route

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/layout"
)

// Routing constants, in graph units.
const (
	// Separation is the perpendicular distance between parallel siblings.
	Separation = 18.0

	// Anchor is the vertical distance from a node center to its top and
	// bottom anchors.
	Anchor = layout.NodeHeight / 2

	// LoopReach and LoopLift size the self-loop; LoopDrop is how far its
	// lower control point hangs below the anchor.
	LoopReach = 80.0
	LoopLift  = 80.0
	LoopDrop  = 40.0

	// ArcLift is how far a back-edge arc rises above its higher endpoint.
	ArcLift = 80.0

	// DimOpacity is applied to edges not touching the active node.
	DimOpacity = 0.25
)

// Marker identifies an arrowhead definition.
type Marker string

const (
	MarkerDefault Marker = "arrowhead"
	MarkerTrue    Marker = "arrow-green"
	MarkerFalse   Marker = "arrow-red"
	MarkerBack    Marker = "arrow-purple"
)

// Markers lists every marker in definition order.
var Markers = []Marker{MarkerDefault, MarkerTrue, MarkerFalse, MarkerBack}

// MarkerFor returns the arrowhead used for an edge kind.
func MarkerFor(kind string) Marker {
	switch kind {
	case graph.EdgeTrue:
		return MarkerTrue
	case graph.EdgeFalse:
		return MarkerFalse
	case graph.EdgeBack:
		return MarkerBack
	}
	return MarkerDefault
}

// Kind returns the edge kind whose color the marker is drawn in.
func (m Marker) Kind() string {
	switch m {
	case MarkerTrue:
		return graph.EdgeTrue
	case MarkerFalse:
		return graph.EdgeFalse
	case MarkerBack:
		return graph.EdgeBack
	}
	return graph.EdgeNormal
}

// Shape classifies how a route was drawn.
type Shape int

const (
	ShapeStraight Shape = iota
	ShapeBackArc
	ShapeSelfLoop
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case ShapeStraight:
		return "straight"
	case ShapeBackArc:
		return "back-arc"
	case ShapeSelfLoop:
		return "self-loop"
	}
	return "unknown"
}

// Op is a path segment operation.
type Op int

const (
	OpMove Op = iota
	OpLine
	OpCubic
)

// Segment is one path command. Move and Line use Pts[0]; Cubic uses all
// three points (two controls, then the end point).
type Segment struct {
	Op  Op
	Pts [3]graph.Point
}

// Path is a sequence of segments that always starts with a move.
type Path []Segment

// Start returns the first point of the path.
func (p Path) Start() graph.Point {
	if len(p) == 0 {
		return graph.Point{}
	}
	return p[0].Pts[0]
}

// End returns the last point of the path.
func (p Path) End() graph.Point {
	if len(p) == 0 {
		return graph.Point{}
	}
	last := p[len(p)-1]
	if last.Op == OpCubic {
		return last.Pts[2]
	}
	return last.Pts[0]
}

// EndDirection returns the unit tangent at the end of the path, used to
// orient arrowheads. It falls back to pointing down for degenerate paths.
func (p Path) EndDirection() graph.Point {
	end := p.End()
	var from graph.Point
	switch n := len(p); {
	case n == 0:
		return graph.Point{Y: 1}
	case p[n-1].Op == OpCubic:
		from = p[n-1].Pts[1]
		if from == end {
			from = p[n-1].Pts[0]
		}
	case n >= 2:
		from = p[n-2].End()
	default:
		return graph.Point{Y: 1}
	}
	d := end.Sub(from)
	l := d.Len()
	if l == 0 {
		return graph.Point{Y: 1}
	}
	return d.Scale(1 / l)
}

// End returns the segment's end point.
func (s Segment) End() graph.Point {
	if s.Op == OpCubic {
		return s.Pts[2]
	}
	return s.Pts[0]
}

// SVG formats the path as SVG path data.
func (p Path) SVG() string {
	var b strings.Builder
	for i, s := range p {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch s.Op {
		case OpMove:
			fmt.Fprintf(&b, "M %s %s", num(s.Pts[0].X), num(s.Pts[0].Y))
		case OpLine:
			fmt.Fprintf(&b, "L %s %s", num(s.Pts[0].X), num(s.Pts[0].Y))
		case OpCubic:
			fmt.Fprintf(&b, "C %s %s %s %s %s %s",
				num(s.Pts[0].X), num(s.Pts[0].Y),
				num(s.Pts[1].X), num(s.Pts[1].Y),
				num(s.Pts[2].X), num(s.Pts[2].Y))
		}
	}
	return b.String()
}

// Map returns a copy of p with every point passed through f.
func (p Path) Map(f func(graph.Point) graph.Point) Path {
	out := make(Path, len(p))
	for i, s := range p {
		out[i].Op = s.Op
		for j := range s.Pts {
			out[i].Pts[j] = f(s.Pts[j])
		}
	}
	return out
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Route is the drawable form of one edge.
type Route struct {
	Edge    graph.Edge
	Shape   Shape
	Path    Path
	Marker  Marker
	Offset  float64     // perpendicular sibling offset
	LabelAt graph.Point // label anchor, meaningful when Edge.Label != ""
}

// Opacity returns the stroke opacity for the route given the active node.
// hasActive is false when nothing is hovered, pinned or animated.
func (r Route) Opacity(active int, hasActive bool) float64 {
	if hasActive && !r.Edge.Touches(active) {
		return DimOpacity
	}
	return 1
}

// Compute routes every edge of a laid-out graph, in edge order. Edges whose
// endpoints are unplaced are skipped.
func Compute(g graph.Graph) []Route {
	pos := make(map[int]graph.Point, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.Placed {
			pos[n.ID] = n.Center()
		}
	}

	type pair struct{ s, t int }
	counts := make(map[pair]int, len(g.Edges))
	for _, e := range g.Edges {
		counts[pair{e.Source, e.Target}]++
	}

	seen := make(map[pair]int, len(g.Edges))
	routes := make([]Route, 0, len(g.Edges))
	for _, e := range g.Edges {
		k := pair{e.Source, e.Target}
		idx := seen[k]
		seen[k]++

		src, okS := pos[e.Source]
		dst, okT := pos[e.Target]
		if !okS || !okT {
			continue
		}
		routes = append(routes, Edge(e, src, dst, SiblingOffset(idx, counts[k])))
	}
	return routes
}

// SiblingOffset returns the perpendicular offset of the idx-th of count
// parallel edges: (idx - (count-1)/2) * Separation.
func SiblingOffset(idx, count int) float64 {
	return (float64(idx) - float64(count-1)/2) * Separation
}

// Edge routes a single edge between node centers src and dst.
func Edge(e graph.Edge, src, dst graph.Point, offset float64) Route {
	r := Route{Edge: e, Marker: MarkerFor(e.Kind), Offset: offset}
	abs := math.Abs(offset)

	switch {
	case e.IsSelfLoop():
		s := graph.Point{X: src.X, Y: src.Y + Anchor}
		rx := s.X + LoopReach + abs
		r.Shape = ShapeSelfLoop
		r.Path = Path{
			{Op: OpMove, Pts: [3]graph.Point{s}},
			{Op: OpCubic, Pts: [3]graph.Point{
				{X: rx, Y: s.Y - LoopLift - abs},
				{X: rx, Y: s.Y + LoopDrop + abs},
				s,
			}},
		}
		r.LabelAt = graph.Point{X: s.X + math.Max(40, 60+abs), Y: s.Y - 30 - abs}

	case e.IsBack():
		s := graph.Point{X: src.X, Y: src.Y + Anchor}
		t := graph.Point{X: dst.X, Y: dst.Y + Anchor}
		ctrlY := math.Min(s.Y, t.Y) - ArcLift - abs
		r.Shape = ShapeBackArc
		r.Path = Path{
			{Op: OpMove, Pts: [3]graph.Point{s}},
			{Op: OpCubic, Pts: [3]graph.Point{
				{X: s.X + offset*0.5, Y: ctrlY},
				{X: t.X + offset*0.5, Y: ctrlY},
				t,
			}},
		}
		r.LabelAt = graph.Point{X: (s.X+t.X)/2 + offset*0.3, Y: ctrlY - 8}

	default:
		s := graph.Point{X: src.X, Y: src.Y + Anchor}
		t := graph.Point{X: dst.X, Y: dst.Y - Anchor}
		var shift graph.Point
		if offset != 0 {
			d := t.Sub(s)
			l := d.Len()
			if l == 0 {
				l = 1
			}
			shift = graph.Point{X: -d.Y / l, Y: d.X / l}.Scale(offset)
		}
		s, t = s.Add(shift), t.Add(shift)
		r.Shape = ShapeStraight
		r.Path = Path{
			{Op: OpMove, Pts: [3]graph.Point{s}},
			{Op: OpLine, Pts: [3]graph.Point{t}},
		}
		r.LabelAt = graph.Point{X: (s.X + t.X) / 2, Y: (s.Y + t.Y) / 2}
	}
	return r
}
