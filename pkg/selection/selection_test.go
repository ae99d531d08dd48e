package selection

import (
	"testing"

	"github.com/matzehuels/flowlens/pkg/graph"
)

func active(t *testing.T, s Selection) int {
	t.Helper()
	id, ok := s.Active()
	if !ok {
		t.Fatal("expected an active node")
	}
	return id
}

func TestPinWinsOverHover(t *testing.T) {
	var s Selection
	s.Click(1)
	s.Hover(2)

	if id, _ := s.Pinned(); id != 1 {
		t.Errorf("pinned = %d, want 1", id)
	}
	if got := active(t, s); got != 1 {
		t.Errorf("active = %d, want 1 while pinned", got)
	}

	s.ClickBackground()
	if _, ok := s.Pinned(); ok {
		t.Error("background click must clear the pin")
	}
	if got := active(t, s); got != 2 {
		t.Errorf("active = %d, want hovered 2 after unpin", got)
	}
}

func TestUnhover(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*Selection)
		leave      int
		keep       bool
		wantActive bool
	}{
		{"Clears", func(s *Selection) { s.Hover(1) }, 1, false, false},
		{"OtherNode", func(s *Selection) { s.Hover(1) }, 2, false, true},
		{"KeptWhilePlaying", func(s *Selection) { s.Hover(1) }, 1, true, true},
		{"KeptWhilePinned", func(s *Selection) { s.Click(1) }, 1, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Selection
			tt.setup(&s)
			s.Unhover(tt.leave, tt.keep)
			if _, ok := s.Active(); ok != tt.wantActive {
				t.Errorf("active present = %v, want %v", ok, tt.wantActive)
			}
		})
	}
}

func TestClear(t *testing.T) {
	var s Selection
	s.Click(4)
	s.Clear()
	if _, ok := s.Active(); ok {
		t.Error("Clear must drop all selection state")
	}
}

func TestInspect(t *testing.T) {
	g := graph.Graph{
		Nodes: []graph.Node{
			{ID: 1, Kind: graph.NodeEntry, Label: "start"},
			{ID: 2, Kind: graph.NodeCondition, Label: "x > 0", Line: 3},
			{ID: 3, Kind: graph.NodeStatement, Label: "x--"},
		},
		Edges: []graph.Edge{
			{Source: 1, Target: 2, Kind: graph.EdgeNormal},
			{Source: 2, Target: 3, Kind: graph.EdgeTrue},
			{Source: 3, Target: 2, Kind: graph.EdgeBack},
			{Source: 2, Target: 2, Kind: graph.EdgeNormal},
		},
		Entry: 1,
	}

	ins, ok := Inspect(g, 2)
	if !ok {
		t.Fatal("Inspect() returned !ok for an existing node")
	}
	if ins.Node.Label != "x > 0" || ins.Node.Line != 3 {
		t.Errorf("node = %+v", ins.Node)
	}
	if len(ins.Predecessors) != 3 {
		t.Errorf("predecessors = %d, want 3", len(ins.Predecessors))
	}
	if len(ins.Successors) != 2 {
		t.Errorf("successors = %d, want 2", len(ins.Successors))
	}
	if ins.Predecessors[0].Node.Label != "start" {
		t.Errorf("first predecessor = %q, want start", ins.Predecessors[0].Node.Label)
	}
	if ins.Successors[0].Node.ID != 3 || ins.Successors[0].Edge.Kind != graph.EdgeTrue {
		t.Errorf("first successor = %+v", ins.Successors[0])
	}
	if got := len(ins.Neighbors()); got != 5 {
		t.Errorf("Neighbors() = %d, want 5", got)
	}

	if _, ok := Inspect(g, 99); ok {
		t.Error("Inspect() should report unknown nodes")
	}
}

func TestHighlight(t *testing.T) {
	var s Selection
	s.Highlight(4)
	if got := active(t, s); got != 4 {
		t.Errorf("Active() = %d, want 4", got)
	}

	s.Click(2)
	s.Highlight(5)
	if got := active(t, s); got != 2 {
		t.Errorf("Active() = %d, want pinned 2", got)
	}

	s.ClickBackground()
	if got := active(t, s); got != 5 {
		t.Errorf("Active() = %d, want highlighted 5", got)
	}
}
