// Package sink provides the drawing surfaces for [render.Render].
//
// [SVG] writes a standalone document, [PNG] rasterizes with fogleman/gg
// using the embedded Go fonts, and [Text] draws onto a terminal cell grid
// for the interactive viewer. All three take screen coordinates and never
// see the graph or viewport directly.
//
// [render.Render]: github.com/matzehuels/flowlens/pkg/render.Render
package sink
