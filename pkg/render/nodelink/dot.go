package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/render"
	"github.com/matzehuels/flowlens/pkg/render/styles"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the node id, kind and source line to each label.
	Detailed bool
	// Theme supplies node and edge colors. The zero value uses styles.Light.
	Theme styles.Theme
	// Active highlights one node when HasActive is set.
	Active    int
	HasActive bool
}

// ToDOT converts a graph to Graphviz DOT source. The resulting string can be
// rendered with [RenderSVG] or [RenderPNG].
//
// Conditions are drawn as diamonds and entry/exit nodes as ovals. Back-edges
// are dashed and do not constrain ranking, so loops do not stretch the
// diagram upward.
func ToDOT(g graph.Graph, opts Options) string {
	th := opts.Theme
	if th.Name == "" {
		th = styles.Light
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	fmt.Fprintf(&buf, "  bgcolor=%q;\n", th.Background)
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=12, fontcolor=white, penwidth=0, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=10, penwidth=2, arrowsize=0.8];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		attrs := fmtAttrs(n, th, opts)
		fmt.Fprintf(&buf, "  n%d [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		color := th.EdgeColor(e.Kind)
		attrs := []string{fmt.Sprintf("color=%q", color), fmt.Sprintf("fontcolor=%q", color)}
		if e.Label != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
		}
		if e.IsBack() {
			attrs = append(attrs, "style=dashed", "constraint=false")
		}
		fmt.Fprintf(&buf, "  n%d -> n%d [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n graph.Node, detailed bool) string {
	label := render.TruncateLabel(n.Label)
	if !detailed {
		return label
	}
	parts := []string{label, fmt.Sprintf("#%d %s", n.ID, n.Kind)}
	if n.HasLine() {
		parts = append(parts, render.LineLabel(n.Line))
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(n graph.Node, th styles.Theme, opts Options) []string {
	attrs := []string{
		fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed)),
		fmt.Sprintf("fillcolor=%q", th.NodeColor(n.Kind)),
	}
	switch n.Kind {
	case graph.NodeCondition:
		attrs = append(attrs, "shape=diamond", "style=filled")
	case graph.NodeEntry, graph.NodeExit:
		attrs = append(attrs, "shape=oval", "style=filled")
	}
	if opts.HasActive && opts.Active == n.ID {
		attrs = append(attrs, fmt.Sprintf("color=%q", styles.HighlightColor), "penwidth=3")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := renderDOT(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders DOT source to PNG using Graphviz's built-in rasterizer.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderDOT(ctx, dot, graphviz.PNG)
}

func renderDOT(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with a plain
// viewBox so the document scales in browsers and terminals alike.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
