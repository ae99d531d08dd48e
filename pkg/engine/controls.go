package engine

import (
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/layout"
	"github.com/matzehuels/flowlens/pkg/render/styles"
)

// visibleMargin is the screen margin kept around a node brought into view by
// playback.
const visibleMargin = 24.0

// =============================================================================
// Kind and theme
// =============================================================================

// SetKind switches the diagram kind. It reports whether the kind changed; the
// host should then start a fetch for the new kind. Playback stops because
// the loaded trace belongs to the previous kind.
func (e *Engine) SetKind(k graph.Diagram) bool {
	if k == e.kind {
		return false
	}
	e.kind = k
	e.player.Pause()
	e.emit(Event{Type: EventKind})
	return true
}

// SetTheme switches the color theme.
func (e *Engine) SetTheme(th styles.Theme) {
	e.theme = th
	e.emit(Event{Type: EventViewport})
}

// =============================================================================
// Playback
// =============================================================================

// Play starts playback and highlights the current step. It reports whether
// playback started; it does not for an empty trace.
func (e *Engine) Play() bool {
	if !e.player.Play() {
		return false
	}
	e.showStep()
	e.emit(Event{Type: EventPlayback})
	return true
}

// Pause stops playback and keeps the current step highlighted.
func (e *Engine) Pause() {
	if !e.player.Playing() {
		return
	}
	e.player.Pause()
	e.emit(Event{Type: EventPlayback})
}

// TogglePlay switches between Play and Pause and reports whether playback is
// running afterwards.
func (e *Engine) TogglePlay() bool {
	if e.player.Playing() {
		e.Pause()
		return false
	}
	return e.Play()
}

// StepForward moves one step forward.
func (e *Engine) StepForward() bool {
	if !e.player.Next() {
		return false
	}
	e.showStep()
	e.emit(Event{Type: EventPlayback})
	return true
}

// StepBack moves one step back.
func (e *Engine) StepBack() bool {
	if !e.player.Prev() {
		return false
	}
	e.showStep()
	e.emit(Event{Type: EventPlayback})
	return true
}

// Tick advances playback for a timer scheduled under generation gen. Ticks
// from an older generation are dropped. It reports whether the step changed;
// the host schedules the next tick only while Playing is true.
func (e *Engine) Tick(gen uint64) bool {
	if !e.player.Tick(gen) {
		return false
	}
	e.showStep()
	e.emit(Event{Type: EventPlayback})
	return true
}

// showStep highlights the node at the current step and pans it on screen.
func (e *Engine) showStep() {
	id, ok := e.player.Current()
	if !ok {
		return
	}
	e.sel.Highlight(id)
	if n, ok := e.graph.Node(id); ok && n.Placed {
		e.view.EnsureVisible(n.Box(layout.NodeWidth, layout.NodeHeight), visibleMargin)
	}
}

// =============================================================================
// View
// =============================================================================

// ZoomIn steps the zoom up around the viewport center.
func (e *Engine) ZoomIn() {
	e.view.ZoomIn()
	e.emit(Event{Type: EventViewport})
}

// ZoomOut steps the zoom down around the viewport center.
func (e *Engine) ZoomOut() {
	e.view.ZoomOut()
	e.emit(Event{Type: EventViewport})
}

// ResetView restores zoom 1 and pan (0,0).
func (e *Engine) ResetView() {
	e.view.Reset()
	e.emit(Event{Type: EventViewport})
}

// FitToView fits every placed node into the viewport. An empty graph resets
// the view instead.
func (e *Engine) FitToView() {
	e.fit()
	e.emit(Event{Type: EventViewport})
}

func (e *Engine) fit() {
	b, ok := e.graph.Bounds(layout.NodeWidth, layout.NodeHeight)
	if !ok {
		e.view.Reset()
		return
	}
	e.view.Fit(b)
}

// PanBy moves the view by a screen-space delta.
func (e *Engine) PanBy(dx, dy float64) {
	e.view.PanBy(dx, dy)
	e.emit(Event{Type: EventViewport})
}

// Resize sets the screen size of the canvas, keeping zoom and pan.
func (e *Engine) Resize(w, h float64) {
	e.view.Resize(w, h)
	e.emit(Event{Type: EventViewport})
}

// CenterOnActive pans the active node to the viewport center.
func (e *Engine) CenterOnActive() {
	id, ok := e.sel.Active()
	if !ok {
		return
	}
	if n, ok := e.graph.Node(id); ok && n.Placed {
		e.view.CenterOn(n.Center())
		e.emit(Event{Type: EventViewport})
	}
}

// =============================================================================
// Overlay
// =============================================================================

// ToggleInspector shows or hides the inspector panel.
func (e *Engine) ToggleInspector() bool {
	e.inspector = !e.inspector
	e.emit(Event{Type: EventInspector})
	return e.inspector
}

// Close closes the visualization overlay. Playback stops and the selection
// is dropped. Close is idempotent.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.player.Pause()
	e.sel.Clear()
	e.inspector = false
	e.emit(Event{Type: EventClosed})
}

// Open reopens a closed overlay, keeping the loaded graph.
func (e *Engine) Open() {
	if !e.closed {
		return
	}
	e.closed = false
	e.emit(Event{Type: EventViewport})
}

// Key handles the overlay keys that belong to the engine itself. It reports
// whether the key was consumed.
func (e *Engine) Key(k string) bool {
	switch k {
	case "esc", "escape":
		e.Close()
		return true
	}
	return false
}

// =============================================================================
// Keyboard navigation
// =============================================================================

// FocusNext moves keyboard focus to the next neighbor of the active node. With
// nothing active it pins the entry node first.
func (e *Engine) FocusNext() (int, bool) { return e.moveFocus(1) }

// FocusPrev moves keyboard focus to the previous neighbor.
func (e *Engine) FocusPrev() (int, bool) { return e.moveFocus(-1) }

func (e *Engine) moveFocus(delta int) (int, bool) {
	active, ok := e.sel.Active()
	if !ok {
		if e.graph.Empty() {
			return 0, false
		}
		e.ClickNode(e.graph.Entry)
		return e.graph.Entry, true
	}
	if active != e.focusOwner {
		e.focus, e.focusOwner = -1, active
	}
	ins, ok := e.Inspector()
	if !ok {
		return 0, false
	}
	nb := ins.Neighbors()
	if len(nb) == 0 {
		return 0, false
	}
	switch {
	case e.focus < 0 && delta < 0:
		e.focus = len(nb) - 1
	case e.focus < 0:
		e.focus = 0
	default:
		e.focus = (e.focus + delta + len(nb)) % len(nb)
	}
	e.emit(Event{Type: EventSelection})
	return nb[e.focus].Node.ID, true
}

// Focused returns the neighbor that currently holds keyboard focus.
func (e *Engine) Focused() (int, bool) {
	if active, ok := e.sel.Active(); !ok || e.focus < 0 || active != e.focusOwner {
		return 0, false
	}
	ins, ok := e.Inspector()
	if !ok {
		return 0, false
	}
	nb := ins.Neighbors()
	if e.focus >= len(nb) {
		return 0, false
	}
	return nb[e.focus].Node.ID, true
}

// PinFocused pins the focused neighbor and centers it.
func (e *Engine) PinFocused() bool {
	id, ok := e.Focused()
	if !ok {
		return false
	}
	e.ClickNode(id)
	e.CenterOnActive()
	return true
}
