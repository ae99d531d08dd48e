package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/render/styles"
)

func loop() graph.Graph {
	return graph.Graph{
		Nodes: []graph.Node{
			{ID: 1, Kind: graph.NodeEntry, Label: "start"},
			{ID: 2, Kind: graph.NodeCondition, Label: "i < 10", Line: 3},
			{ID: 3, Kind: graph.NodeStatement, Label: "i = i + 1"},
		},
		Edges: []graph.Edge{
			{Source: 1, Target: 2, Kind: graph.EdgeNormal},
			{Source: 2, Target: 3, Kind: graph.EdgeTrue, Label: "True"},
			{Source: 3, Target: 2, Kind: graph.EdgeBack},
		},
		Entry: 1,
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(loop(), Options{})

	for _, want := range []string{
		"digraph G {",
		`n1 [label="start", fillcolor="#10B981", shape=oval, style=filled];`,
		`n2 [label="i < 10", fillcolor="#F59E0B", shape=diamond, style=filled];`,
		`n2 -> n3 [color="#10B981", fontcolor="#10B981", label="True"];`,
		`n3 -> n2 [color="#8B5CF6", fontcolor="#8B5CF6", style=dashed, constraint=false];`,
		`bgcolor="#FFFFFF"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
}

func TestToDOTDetailedActive(t *testing.T) {
	dot := ToDOT(loop(), Options{Detailed: true, Theme: styles.Dark, Active: 2, HasActive: true})

	if !strings.Contains(dot, `label="i < 10\n#2 condition\nLine 3"`) {
		t.Errorf("detailed label missing\n%s", dot)
	}
	if !strings.Contains(dot, `color="#FBBF24", penwidth=3`) {
		t.Errorf("active node not highlighted\n%s", dot)
	}
	if !strings.Contains(dot, `bgcolor="#111827"`) {
		t.Errorf("dark background missing\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="62pt" height="116pt" viewBox="0.00 0.00 62.00 116.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 62.00 116.00" width="62" height="116"><g/></svg>`
	if out != want {
		t.Errorf("normalizeViewBox() = %s, want %s", out, want)
	}

	plain := []byte(`<svg><g/></svg>`)
	if got := normalizeViewBox(plain); string(got) != string(plain) {
		t.Errorf("svg without viewBox changed: %s", got)
	}
}
