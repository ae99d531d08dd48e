package render

import (
	"fmt"
	"strconv"

	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/layout"
	"github.com/matzehuels/flowlens/pkg/render/styles"
	"github.com/matzehuels/flowlens/pkg/route"
	"github.com/matzehuels/flowlens/pkg/viewport"
)

// Drawing constants, in graph units before zoom.
const (
	MaxLabelRunes = 15

	NodeRadius      = 6.0
	EdgeWidth       = 2.0
	HighlightWidth  = 3.0
	LabelSize       = 12.0
	LineLabelSize   = 10.0
	EdgeLabelLift   = 5.0
	LineLabelOffset = 12.0

	DimNodeOpacity = 0.55
)

// Anchor is the horizontal text alignment.
type Anchor int

const (
	AnchorMiddle Anchor = iota
	AnchorStart
	AnchorEnd
)

// Stroke styles an edge path.
type Stroke struct {
	Color   string
	Width   float64
	Opacity float64
	Marker  route.Marker
	Source  int
	Target  int
}

// Box styles a node rectangle. Border is empty for no border.
type Box struct {
	NodeID      int
	Fill        string
	Border      string
	BorderWidth float64
	Radius      float64
	Opacity     float64
}

// Text styles a label. The anchor point is the vertical middle of the text.
type Text struct {
	Color   string
	Size    float64
	Bold    bool
	Opacity float64
	Anchor  Anchor
}

// Surface receives drawing calls in screen coordinates.
type Surface interface {
	// Begin starts a frame of the given screen size.
	Begin(size graph.Point, th styles.Theme) error
	// Path strokes an edge and caps it with its marker.
	Path(p route.Path, s Stroke)
	// Box fills a node rectangle.
	Box(r graph.Rect, b Box)
	// Text draws a single-line label.
	Text(at graph.Point, s string, t Text)
	// End finishes the frame.
	End() error
}

// Scene is everything needed to draw one frame.
type Scene struct {
	Graph  graph.Graph
	Routes []route.Route
	View   viewport.Viewport
	Theme  styles.Theme

	Active    int
	HasActive bool
}

// NewScene returns a scene showing all of g at zoom 1, sized to the layout's
// content area. g must already be laid out.
func NewScene(g graph.Graph, th styles.Theme) Scene {
	w, h := g.Width, g.Height
	if w <= 0 || h <= 0 {
		w, h = layout.MinWidth, layout.MinHeight
	}
	return Scene{
		Graph:  g,
		Routes: route.Compute(g),
		View:   *viewport.New(w, h),
		Theme:  th,
	}
}

// WithActive returns a copy of the scene highlighting node id.
func (sc Scene) WithActive(id int) Scene {
	sc.Active, sc.HasActive = id, true
	return sc
}

// Render draws sc onto s.
func Render(s Surface, sc Scene) error {
	if err := s.Begin(sc.View.Size, sc.Theme); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}
	v := &sc.View
	z := v.Zoom

	for _, r := range sc.Routes {
		color := sc.Theme.EdgeColor(r.Edge.Kind)
		opacity := r.Opacity(sc.Active, sc.HasActive)
		s.Path(r.Path.Map(v.ToScreen), Stroke{
			Color:   color,
			Width:   EdgeWidth * z,
			Opacity: opacity,
			Marker:  r.Marker,
			Source:  r.Edge.Source,
			Target:  r.Edge.Target,
		})
		if r.Edge.Label == "" {
			continue
		}
		at := v.ToScreen(r.LabelAt)
		at.Y -= EdgeLabelLift * z
		s.Text(at, r.Edge.Label, Text{Color: color, Size: LabelSize * z, Opacity: opacity})
	}

	for _, n := range sc.Graph.Nodes {
		if !n.Placed {
			continue
		}
		active := sc.HasActive && sc.Active == n.ID
		opacity := 1.0
		if sc.HasActive && !active {
			opacity = DimNodeOpacity
		}
		b := Box{NodeID: n.ID, Fill: sc.Theme.NodeColor(n.Kind), Radius: NodeRadius * z, Opacity: opacity}
		if active {
			b.Border, b.BorderWidth = styles.HighlightColor, HighlightWidth*z
		}
		s.Box(v.ScreenRect(n.Box(layout.NodeWidth, layout.NodeHeight)), b)

		c := v.ToScreen(n.Center())
		s.Text(c, TruncateLabel(n.Label), Text{
			Color: styles.NodeTextColor, Size: LabelSize * z, Bold: true, Opacity: opacity,
		})
		if n.HasLine() {
			at := graph.Point{X: c.X, Y: c.Y + LineLabelOffset*z}
			s.Text(at, LineLabel(n.Line), Text{
				Color: styles.NodeSubTextColor, Size: LineLabelSize * z, Opacity: opacity,
			})
		}
	}
	return s.End()
}

// TruncateLabel shortens labels longer than MaxLabelRunes runes to their
// first MaxLabelRunes runes followed by "...".
func TruncateLabel(s string) string {
	r := []rune(s)
	if len(r) <= MaxLabelRunes {
		return s
	}
	return string(r[:MaxLabelRunes]) + "..."
}

// LineLabel formats a source line sub-label.
func LineLabel(line int) string {
	return "Line " + strconv.Itoa(line)
}
