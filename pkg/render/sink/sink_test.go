package sink

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/layout"
	"github.com/matzehuels/flowlens/pkg/render"
	"github.com/matzehuels/flowlens/pkg/render/styles"
)

func chain() graph.Graph {
	return layout.Apply(graph.Graph{
		Nodes: []graph.Node{
			{ID: 1, Kind: graph.NodeEntry, Label: "start"},
			{ID: 2, Kind: graph.NodeStatement, Label: "a < b & c", Line: 2},
		},
		Edges: []graph.Edge{{Source: 1, Target: 2, Kind: graph.EdgeTrue, Label: "yes"}},
		Entry: 1,
	})
}

func TestSVG(t *testing.T) {
	s := NewSVG(WithTitle("cfg"))
	if err := render.Render(s, render.NewScene(chain(), styles.Light)); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	out := string(s.Bytes())

	for _, want := range []string{
		`viewBox="0 0 900 600"`,
		`<title>cfg</title>`,
		`<marker id="arrowhead"`,
		`<marker id="arrow-green"`,
		`<marker id="arrow-purple"`,
		`d="M 140 120 L 140 210"`,
		`marker-end="url(#arrow-green)"`,
		`<rect id="node-1" class="node" data-node="1" x="80" y="80" width="120" height="40" rx="6" fill="#10B981"`,
		`>a &lt; b &amp; c</text>`,
		`>Line 2</text>`,
		`>yes</text>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("SVG missing %q", want)
		}
	}
	if strings.Contains(out, "<script") {
		t.Error("interaction script emitted without WithInteraction")
	}
	if !strings.HasSuffix(out, "</svg>\n") {
		t.Error("document not closed")
	}
}

func TestSVGActiveAndInteraction(t *testing.T) {
	s := NewSVG(WithInteraction(), WithoutBackground())
	sc := render.NewScene(chain(), styles.Dark).WithActive(2)
	if err := render.Render(s, sc); err != nil {
		t.Fatal(err)
	}
	out := string(s.Bytes())
	if !strings.Contains(out, `class="node active" data-node="2"`) {
		t.Error("active node not marked")
	}
	if !strings.Contains(out, `stroke="#FBBF24" stroke-width="3"`) {
		t.Error("active node missing highlight stroke")
	}
	if !strings.Contains(out, `data-node="1" x="80" y="80" width="120" height="40" rx="6" fill="#10B981" stroke="transparent" stroke-width="0" opacity="0.55"`) {
		t.Error("inactive node not dimmed")
	}
	if !strings.Contains(out, "<script") || !strings.Contains(out, ".node.active") {
		t.Error("interaction assets missing")
	}
	if strings.Contains(out, `height="100%"`) {
		t.Error("background drawn despite WithoutBackground")
	}
}

func TestSVGRejectsEmptyCanvas(t *testing.T) {
	s := NewSVG()
	if err := s.Begin(graph.Point{}, styles.Light); err == nil {
		t.Error("Begin() with zero size should fail")
	}
}

func TestPNG(t *testing.T) {
	p, err := NewPNG(WithScale(1))
	if err != nil {
		t.Fatalf("NewPNG() error: %v", err)
	}
	if err := render.Render(p, render.NewScene(chain(), styles.Light).WithActive(1)); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(p.Bytes()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 900 || b.Dy() != 600 {
		t.Errorf("image size = %dx%d, want 900x600", b.Dx(), b.Dy())
	}

	// Inside the entry node, away from its label.
	r, g, b, _ := img.At(85, 100).RGBA()
	if r>>8 != 0x10 || g>>8 != 0xB9 || b>>8 != 0x81 {
		t.Errorf("entry fill = %02x%02x%02x, want 10B981", r>>8, g>>8, b>>8)
	}
	// Background.
	r, g, b, _ = img.At(5, 5).RGBA()
	if r>>8 != 0xFF || g>>8 != 0xFF || b>>8 != 0xFF {
		t.Errorf("background = %02x%02x%02x, want white", r>>8, g>>8, b>>8)
	}
}

func TestPNGScale(t *testing.T) {
	p, err := NewPNG()
	if err != nil {
		t.Fatal(err)
	}
	if err := render.Render(p, render.NewScene(chain(), styles.Dark)); err != nil {
		t.Fatal(err)
	}
	if b := p.Image().Bounds(); b.Dx() != 1800 || b.Dy() != 1200 {
		t.Errorf("2x image size = %dx%d", b.Dx(), b.Dy())
	}
}

func TestText(t *testing.T) {
	tx := NewText(WithPlainText())
	sc := render.NewScene(chain(), styles.Light)
	sc.View.Resize(tx.CanvasSize(60, 30).X, tx.CanvasSize(60, 30).Y)
	if err := render.Render(tx, sc); err != nil {
		t.Fatal(err)
	}
	lines := tx.Lines()
	if len(lines) != 30 {
		t.Fatalf("rows = %d, want 30", len(lines))
	}
	frame := tx.String()
	for _, want := range []string{"start", "a < b & c", "yes", "▼"} {
		if !strings.Contains(frame, want) {
			t.Errorf("frame missing %q:\n%s", want, frame)
		}
	}
	// The edge runs straight down column 17 (x = 140 / 8) between the nodes.
	if got := tx.Cell(17, 11); got != '│' {
		t.Errorf("cell(17,11) = %q, want '│'\n%s", got, frame)
	}
}

func TestTextHighlightBorder(t *testing.T) {
	tx := NewText(WithPlainText())
	sc := render.NewScene(chain(), styles.Light).WithActive(1)
	size := tx.CanvasSize(60, 30)
	sc.View.Resize(size.X, size.Y)
	if err := render.Render(tx, sc); err != nil {
		t.Fatal(err)
	}
	// Node 1 spans x 80..200 and y 80..120: columns 10..24, rows 6..9.
	if got := tx.Cell(10, 6); got != '┏' {
		t.Errorf("corner = %q, want '┏'\n%s", got, tx.String())
	}
}
