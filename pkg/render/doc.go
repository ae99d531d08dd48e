// Package render draws a laid-out graph onto a drawing surface.
//
// # Overview
//
// [Render] walks a [Scene] (graph, routed edges, viewport, theme and the
// active node) and issues drawing calls against a [Surface]. Every
// coordinate handed to a surface is already in screen space: the scene's
// viewport transform has been applied and sizes are scaled by the zoom.
//
// Edges are drawn first, then nodes, so nodes sit on top of the lines that
// meet them. When a node is active (hovered, pinned or the current animation
// step) every other node is drawn at [DimNodeOpacity], edges not touching it
// at the route's dimmed opacity, and the active node gets a highlight border.
//
// # Surfaces
//
// The [sink] subpackage implements three surfaces:
//
//   - sink.SVG: a standalone SVG document with one arrowhead marker per edge
//     kind and optional hover interaction
//   - sink.PNG: a raster image drawn with fogleman/gg
//   - sink.Text: a terminal cell grid used by the interactive viewer
//
// The [nodelink] subpackage renders the same graph through Graphviz instead,
// for users who prefer dot's own layout.
//
//	sc := render.NewScene(g, styles.Light)
//	svg := sink.NewSVG(sink.WithInteraction())
//	if err := render.Render(svg, sc); err != nil { ... }
//	os.WriteFile("cfg.svg", svg.Bytes(), 0o644)
//
// [sink]: github.com/matzehuels/flowlens/pkg/render/sink
// [nodelink]: github.com/matzehuels/flowlens/pkg/render/nodelink
package render
