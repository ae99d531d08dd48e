// Package viewport maps between graph space and screen space for a pannable,
// zoomable canvas.
//
// A [Viewport] owns the zoom factor and pan offset. A graph point g is drawn at
// screen point s = g*zoom + pan. All gestures are plain state transitions on
// the caller's goroutine; the type is not safe for concurrent use.
package viewport

import (
	"math"

	"github.com/matzehuels/flowlens/pkg/graph"
)

// Zoom limits and steps.
const (
	MinZoom = 0.2
	MaxZoom = 2.0

	// ZoomStep is applied by the zoom-in and zoom-out controls.
	ZoomStep = 0.1

	// WheelZoomRate converts wheel delta into zoom change for modified scroll.
	WheelZoomRate = 0.001

	// FitMargin is the screen-space margin kept around content by Fit.
	FitMargin = 40.0
)

// Button identifies a pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
	ButtonMiddle
)

// Viewport holds zoom, pan and pan-gesture state.
type Viewport struct {
	Zoom float64
	Pan  graph.Point

	// Size is the screen size of the viewport.
	Size graph.Point

	panning bool
	last    graph.Point
}

// New returns a viewport of the given screen size at zoom 1, pan (0,0).
func New(width, height float64) *Viewport {
	return &Viewport{Zoom: 1, Size: graph.Point{X: width, Y: height}}
}

// Clamp limits z to [MinZoom, MaxZoom].
func Clamp(z float64) float64 {
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}

// Resize sets the screen size.
func (v *Viewport) Resize(width, height float64) {
	v.Size = graph.Point{X: width, Y: height}
}

// ToGraph converts a screen point to graph coordinates.
func (v *Viewport) ToGraph(p graph.Point) graph.Point {
	return graph.Point{X: (p.X - v.Pan.X) / v.Zoom, Y: (p.Y - v.Pan.Y) / v.Zoom}
}

// ToScreen converts a graph point to screen coordinates.
func (v *Viewport) ToScreen(p graph.Point) graph.Point {
	return graph.Point{X: p.X*v.Zoom + v.Pan.X, Y: p.Y*v.Zoom + v.Pan.Y}
}

// ScreenRect converts a graph rectangle to screen coordinates.
func (v *Viewport) ScreenRect(r graph.Rect) graph.Rect {
	return graph.Rect{Min: v.ToScreen(r.Min), Max: v.ToScreen(r.Max)}
}

// Visible returns the graph-space rectangle currently on screen.
func (v *Viewport) Visible() graph.Rect {
	return graph.Rect{Min: v.ToGraph(graph.Point{}), Max: v.ToGraph(v.Size)}
}

// =============================================================================
// Pan Gesture
// =============================================================================

// Panning reports whether a drag-pan gesture is in progress.
func (v *Viewport) Panning() bool { return v.panning }

// Press starts a drag-pan when the primary button is pressed off any node. It
// reports whether a pan started; callers clear pinned selection when it does.
func (v *Viewport) Press(p graph.Point, onNode bool, b Button) bool {
	if onNode || b != ButtonPrimary {
		return false
	}
	v.panning = true
	v.last = p
	return true
}

// Move tracks the pointer. It pans by the pointer delta while a pan is in
// progress and is a no-op otherwise.
func (v *Viewport) Move(p graph.Point) {
	if !v.panning {
		return
	}
	v.Pan = v.Pan.Add(p.Sub(v.last))
	v.last = p
}

// Release ends any pan gesture.
func (v *Viewport) Release() { v.panning = false }

// Leave ends any pan gesture when the pointer leaves the canvas.
func (v *Viewport) Leave() { v.panning = false }

// PanBy shifts the pan offset by a screen-space delta.
func (v *Viewport) PanBy(dx, dy float64) {
	v.Pan = v.Pan.Add(graph.Point{X: dx, Y: dy})
}

// =============================================================================
// Zoom
// =============================================================================

// ZoomAt changes the zoom to z (clamped) keeping the graph point under screen
// point p fixed.
func (v *Viewport) ZoomAt(p graph.Point, z float64) {
	anchor := v.ToGraph(p)
	v.Zoom = Clamp(z)
	v.Pan = graph.Point{X: p.X - anchor.X*v.Zoom, Y: p.Y - anchor.Y*v.Zoom}
}

// Wheel applies a scroll gesture at screen point p. Plain scroll pans by the
// negated delta; with the zoom modifier held the zoom changes by
// -dy*WheelZoomRate around p.
func (v *Viewport) Wheel(p graph.Point, dx, dy float64, zoomModifier bool) {
	if zoomModifier {
		v.ZoomAt(p, v.Zoom-dy*WheelZoomRate)
		return
	}
	v.PanBy(-dx, -dy)
}

// ZoomIn steps the zoom up around the viewport center.
func (v *Viewport) ZoomIn() { v.ZoomAt(v.Size.Scale(0.5), v.Zoom+ZoomStep) }

// ZoomOut steps the zoom down around the viewport center.
func (v *Viewport) ZoomOut() { v.ZoomAt(v.Size.Scale(0.5), v.Zoom-ZoomStep) }

// Reset restores zoom 1 and pan (0,0).
func (v *Viewport) Reset() {
	v.Zoom = 1
	v.Pan = graph.Point{}
	v.panning = false
}

// Fit chooses the zoom that fits the graph rectangle r into the viewport with
// FitMargin on every side, clamped to [MinZoom, MaxZoom], and the pan that
// centers r. Degenerate rectangles are treated as at least one unit in size.
func (v *Viewport) Fit(r graph.Rect) {
	w := math.Max(1, r.W())
	h := math.Max(1, r.H())
	availW := math.Max(1, v.Size.X-2*FitMargin)
	availH := math.Max(1, v.Size.Y-2*FitMargin)

	v.Zoom = Clamp(math.Min(availW/w, availH/h))
	v.Pan = graph.Point{
		X: -r.Min.X*v.Zoom + (v.Size.X-w*v.Zoom)/2,
		Y: -r.Min.Y*v.Zoom + (v.Size.Y-h*v.Zoom)/2,
	}
}

// CenterOn pans so graph point p sits at the viewport center, keeping zoom.
func (v *Viewport) CenterOn(p graph.Point) {
	v.Pan = graph.Point{X: v.Size.X/2 - p.X*v.Zoom, Y: v.Size.Y/2 - p.Y*v.Zoom}
}

// EnsureVisible pans the minimum amount needed to bring graph rectangle r on
// screen with margin m. It does nothing when r is already fully visible.
func (v *Viewport) EnsureVisible(r graph.Rect, m float64) {
	s := v.ScreenRect(r)
	switch {
	case s.Min.X < m:
		v.Pan.X += m - s.Min.X
	case s.Max.X > v.Size.X-m:
		v.Pan.X -= s.Max.X - (v.Size.X - m)
	}
	switch {
	case s.Min.Y < m:
		v.Pan.Y += m - s.Min.Y
	case s.Max.Y > v.Size.Y-m:
		v.Pan.Y -= s.Max.Y - (v.Size.Y - m)
	}
}
