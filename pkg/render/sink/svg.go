package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"

	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/render"
	"github.com/matzehuels/flowlens/pkg/render/styles"
	"github.com/matzehuels/flowlens/pkg/route"
)

const nodeInteractionCSS = `
    .node, .edge, .node-text { transition: opacity 0.2s ease; }
    .node { cursor: pointer; }
    .node.active { stroke: ` + styles.HighlightColor + `; stroke-width: 3; }
    svg.has-active .node:not(.active), svg.has-active .node-text:not(.active) { opacity: 0.55; }
    svg.has-active .edge:not(.active), svg.has-active .edge-text:not(.active) { opacity: 0.25; }
    text { pointer-events: none; user-select: none; }`

const nodeInteractionJS = `
    const root = document.currentScript.closest('svg');
    let pinned = null;
    function activate(id) {
      root.classList.toggle('has-active', id !== null);
      root.querySelectorAll('.node, .node-text').forEach(el => el.classList.toggle('active', el.dataset.node === id));
      root.querySelectorAll('.edge, .edge-text').forEach(el => el.classList.toggle('active', el.dataset.source === id || el.dataset.target === id));
    }
    root.querySelectorAll('.node').forEach(el => {
      el.addEventListener('mouseenter', () => { if (pinned === null) activate(el.dataset.node); });
      el.addEventListener('mouseleave', () => { if (pinned === null) activate(null); });
      el.addEventListener('click', ev => { ev.stopPropagation(); pinned = el.dataset.node; activate(pinned); });
    });
    root.addEventListener('click', () => { pinned = null; activate(null); });`

// SVGOption configures the SVG surface.
type SVGOption func(*SVG)

// WithInteraction embeds hover and click-to-pin highlighting.
func WithInteraction() SVGOption { return func(s *SVG) { s.interactive = true } }

// WithTitle sets the document title.
func WithTitle(t string) SVGOption { return func(s *SVG) { s.title = t } }

// WithoutBackground leaves the canvas transparent.
func WithoutBackground() SVGOption { return func(s *SVG) { s.transparent = true } }

// SVG renders frames as standalone SVG documents.
type SVG struct {
	buf         bytes.Buffer
	interactive bool
	transparent bool
	title       string
	pending     []pendingText
	owner       string // attributes tying the next labels to their shape
}

// pendingText defers labels until after all shapes so text is never covered.
type pendingText struct {
	at   graph.Point
	s    string
	t    render.Text
	attr string
}

// NewSVG returns an empty SVG surface.
func NewSVG(opts ...SVGOption) *SVG {
	s := &SVG{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bytes returns the last rendered document.
func (s *SVG) Bytes() []byte { return s.buf.Bytes() }

func (s *SVG) Begin(size graph.Point, th styles.Theme) error {
	if size.X <= 0 || size.Y <= 0 {
		return fmt.Errorf("invalid canvas size %gx%g", size.X, size.Y)
	}
	s.buf.Reset()
	s.pending = s.pending[:0]
	s.owner = ""

	fmt.Fprintf(&s.buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" width="%.0f" height="%.0f">`+"\n",
		num(size.X), num(size.Y), size.X, size.Y)
	if s.title != "" {
		fmt.Fprintf(&s.buf, "  <title>%s</title>\n", escapeXML(s.title))
	}
	renderMarkers(&s.buf, th)
	if !s.transparent {
		fmt.Fprintf(&s.buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", th.Background)
	}
	return nil
}

func renderMarkers(buf *bytes.Buffer, th styles.Theme) {
	buf.WriteString("  <defs>\n")
	for _, m := range route.Markers {
		fmt.Fprintf(buf, `    <marker id="%s" markerWidth="10" markerHeight="7" refX="9" refY="3.5" orient="auto">`+
			`<polygon points="0 0, 10 3.5, 0 7" fill="%s"/></marker>`+"\n", m, th.EdgeColor(m.Kind()))
	}
	buf.WriteString("  </defs>\n")
}

func (s *SVG) Path(p route.Path, st render.Stroke) {
	src, dst := strconv.Itoa(st.Source), strconv.Itoa(st.Target)
	fmt.Fprintf(&s.buf, `  <path class="edge" data-source="%s" data-target="%s" d="%s" fill="none" stroke="%s" stroke-width="%s" marker-end="url(#%s)"%s/>`+"\n",
		src, dst, p.SVG(), st.Color, num(st.Width), st.Marker, opacityAttr(st.Opacity))
	s.owner = fmt.Sprintf(`class="edge-text" data-source="%s" data-target="%s"`, src, dst)
}

func (s *SVG) Box(r graph.Rect, b render.Box) {
	id := strconv.Itoa(b.NodeID)
	class := "node"
	stroke := ` stroke="transparent" stroke-width="0"`
	if b.Border != "" {
		class += " active"
		stroke = fmt.Sprintf(` stroke="%s" stroke-width="%s"`, b.Border, num(b.BorderWidth))
	}
	fmt.Fprintf(&s.buf, `  <rect id="node-%s" class="%s" data-node="%s" x="%s" y="%s" width="%s" height="%s" rx="%s" fill="%s"%s%s/>`+"\n",
		id, class, id, num(r.Min.X), num(r.Min.Y), num(r.W()), num(r.H()), num(b.Radius), b.Fill, stroke, opacityAttr(b.Opacity))
	s.owner = fmt.Sprintf(`class="node-text" data-node="%s"`, id)
}

func (s *SVG) Text(at graph.Point, str string, t render.Text) {
	attr := s.owner
	if attr == "" {
		attr = `class="label"`
	}
	s.pending = append(s.pending, pendingText{at: at, s: str, t: t, attr: attr})
}

func (s *SVG) End() error {
	for _, p := range s.pending {
		color, alpha := styles.SplitAlpha(p.t.Color)
		weight := ""
		if p.t.Bold {
			weight = ` font-weight="500"`
		}
		fmt.Fprintf(&s.buf, `  <text %s x="%s" y="%s" text-anchor="%s" dominant-baseline="middle" font-family="sans-serif" font-size="%s"%s fill="%s"%s>%s</text>`+"\n",
			p.attr, num(p.at.X), num(p.at.Y), anchorName(p.t.Anchor), num(p.t.Size), weight, color,
			opacityAttr(p.t.Opacity*alpha), escapeXML(p.s))
	}
	if s.interactive {
		fmt.Fprintf(&s.buf, "  <style>%s\n  </style>\n", nodeInteractionCSS)
		fmt.Fprintf(&s.buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", nodeInteractionJS)
	}
	s.buf.WriteString("</svg>\n")
	s.pending = s.pending[:0]
	s.owner = ""
	return nil
}

func anchorName(a render.Anchor) string {
	switch a {
	case render.AnchorStart:
		return "start"
	case render.AnchorEnd:
		return "end"
	}
	return "middle"
}

func opacityAttr(o float64) string {
	if o >= 1 {
		return ""
	}
	return fmt.Sprintf(` opacity="%s"`, num(o))
}

func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
