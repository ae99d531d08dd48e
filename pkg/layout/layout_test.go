package layout

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/matzehuels/flowlens/pkg/graph"
)

func nodes(ids ...int) []graph.Node {
	out := make([]graph.Node, len(ids))
	for i, id := range ids {
		out[i] = graph.Node{ID: id}
	}
	return out
}

func edge(s, t int, kind string) graph.Edge {
	return graph.Edge{Source: s, Target: t, Kind: kind}
}

func TestComputeEmpty(t *testing.T) {
	l := Compute(graph.Graph{})
	if len(l.Positions) != 0 || l.Width != 0 || l.Height != 0 {
		t.Errorf("Compute(empty) = %+v, want zero layout", l)
	}
}

func TestComputeSingleNode(t *testing.T) {
	l := Compute(graph.Graph{Nodes: nodes(7), Entry: 7})
	want := []graph.Position{{ID: 7, X: 140, Y: 100, Level: 0}}
	if !reflect.DeepEqual(l.Positions, want) {
		t.Errorf("positions = %+v, want %+v", l.Positions, want)
	}
	if l.Width != MinWidth || l.Height != MinHeight {
		t.Errorf("size = %vx%v, want %vx%v", l.Width, l.Height, MinWidth, MinHeight)
	}
	if l.Levels != 1 {
		t.Errorf("levels = %d, want 1", l.Levels)
	}
}

func TestComputeCentersLevels(t *testing.T) {
	g := graph.Graph{
		Nodes: nodes(1, 3, 2),
		Edges: []graph.Edge{edge(1, 3, graph.EdgeFalse), edge(1, 2, graph.EdgeTrue)},
		Entry: 1,
	}
	l := Compute(g)

	want := []graph.Position{
		{ID: 1, X: 240, Y: 100, Level: 0},
		{ID: 2, X: 140, Y: 230, Level: 1},
		{ID: 3, X: 340, Y: 230, Level: 1},
	}
	if !reflect.DeepEqual(l.Positions, want) {
		t.Errorf("positions = %+v, want %+v", l.Positions, want)
	}
}

func TestComputeIgnoresBackEdges(t *testing.T) {
	// 1 -> 2 -> 3 -back-> 1: the back-edge must not pull 1 deeper.
	g := graph.Graph{
		Nodes: nodes(1, 2, 3),
		Edges: []graph.Edge{edge(1, 2, graph.EdgeNormal), edge(2, 3, graph.EdgeNormal), edge(3, 1, graph.EdgeBack)},
		Entry: 1,
	}
	lv := Levels(g)
	if lv[1] != 0 || lv[2] != 1 || lv[3] != 2 {
		t.Errorf("levels = %v", lv)
	}

	// A node reachable only through a back-edge gets no level.
	g.Nodes = append(g.Nodes, graph.Node{ID: 4})
	g.Edges = append(g.Edges, edge(3, 4, graph.EdgeBack))
	if _, ok := Levels(g)[4]; ok {
		t.Error("node 4 is only reachable via a back-edge and must stay unleveled")
	}
}

func TestComputeUnreachableGrid(t *testing.T) {
	g := graph.Graph{Nodes: nodes(1, 5, 4), Entry: 1}
	l := Compute(g)

	want := []graph.Position{
		{ID: 1, X: 140, Y: 100, Level: 0},
		{ID: 4, X: 140, Y: 230, Level: graph.LevelUnplaced},
		{ID: 5, X: 340, Y: 230, Level: graph.LevelUnplaced},
	}
	if !reflect.DeepEqual(l.Positions, want) {
		t.Errorf("positions = %+v, want %+v", l.Positions, want)
	}
}

func TestComputePlacesEveryNode(t *testing.T) {
	var ns []graph.Node
	for i := 0; i < 50; i++ {
		ns = append(ns, graph.Node{ID: i})
	}
	g := graph.Graph{Nodes: ns, Edges: []graph.Edge{edge(0, 1, graph.EdgeNormal)}, Entry: 0}
	l := Compute(g)
	if len(l.Positions) != 50 {
		t.Fatalf("placed %d nodes, want 50", len(l.Positions))
	}
	for _, p := range l.Positions {
		if p.X+NodeWidth/2 > l.Width || p.Y+NodeHeight/2 > l.Height {
			t.Errorf("node %d at (%v,%v) lies outside %vx%v", p.ID, p.X, p.Y, l.Width, l.Height)
		}
	}
}

func TestGridColumns(t *testing.T) {
	tests := []struct{ n, want int }{{1, 1}, {2, 2}, {4, 2}, {5, 3}, {36, 6}, {100, 6}}
	for _, tt := range tests {
		if got := gridColumns(tt.n); got != tt.want {
			t.Errorf("gridColumns(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestComputeDeterministic(t *testing.T) {
	g := graph.Graph{
		Nodes: nodes(1, 2, 3, 4, 5, 6, 9),
		Edges: []graph.Edge{
			edge(1, 2, graph.EdgeNormal),
			edge(2, 3, graph.EdgeTrue),
			edge(2, 4, graph.EdgeFalse),
			edge(3, 5, graph.EdgeNormal),
			edge(4, 5, graph.EdgeNormal),
			edge(5, 2, graph.EdgeBack),
			edge(5, 6, graph.EdgeNormal),
		},
		Entry: 1,
	}
	first := Compute(g)
	if second := Compute(g); !reflect.DeepEqual(first, second) {
		t.Fatal("Compute is not idempotent")
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := g.Clone()
		rng.Shuffle(len(shuffled.Nodes), func(a, b int) {
			shuffled.Nodes[a], shuffled.Nodes[b] = shuffled.Nodes[b], shuffled.Nodes[a]
		})
		rng.Shuffle(len(shuffled.Edges), func(a, b int) {
			shuffled.Edges[a], shuffled.Edges[b] = shuffled.Edges[b], shuffled.Edges[a]
		})
		if got := Compute(shuffled); !reflect.DeepEqual(first, got) {
			t.Fatalf("layout depends on insertion order:\n%+v\n%+v", first, got)
		}
	}
}

func TestComputeOptions(t *testing.T) {
	g := graph.Graph{Nodes: nodes(1), Entry: 1}
	l := Compute(g, WithNodeSize(100, 50), WithPadding(10))
	if p := l.Positions[0]; p.X != 60 || p.Y != 35 {
		t.Errorf("position = (%v,%v), want (60,35)", p.X, p.Y)
	}
}

func TestApply(t *testing.T) {
	g := graph.Graph{Nodes: nodes(1, 2), Edges: []graph.Edge{edge(1, 2, graph.EdgeNormal)}, Entry: 1}
	placed := Apply(g)
	for _, n := range placed.Nodes {
		if !n.Placed {
			t.Errorf("node %d not placed", n.ID)
		}
	}
	if placed.Width == 0 {
		t.Error("Apply should carry the content size")
	}
}
