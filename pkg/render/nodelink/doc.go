// Package nodelink renders graphs through Graphviz instead of the built-in
// layered layout.
//
// # Usage
//
// Convert a graph to DOT, then render it:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot)
//
// The DOT source can also be written out and processed with the dot command
// line tool.
//
// # Options
//
//   - Detailed: add id, kind and source line to each label
//   - Theme: node and edge palette (light by default)
//   - Active/HasActive: highlight one node
//
// # Dependencies
//
// Rendering uses [github.com/goccy/go-graphviz], which embeds Graphviz as
// WebAssembly, so no system installation is needed.
package nodelink
