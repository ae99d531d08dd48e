package engine

import (
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/viewport"
)

// PointerDown handles a button press at screen point p. A primary press on a
// node pins it; a primary press on the background clears the pin and starts
// a drag-pan.
func (e *Engine) PointerDown(p graph.Point, b viewport.Button) {
	id, onNode := e.NodeAt(p)
	if onNode && b == viewport.ButtonPrimary {
		e.ClickNode(id)
		return
	}
	if e.view.Press(p, onNode, b) {
		e.sel.Unpin()
		e.emit(Event{Type: EventSelection})
	}
}

// PointerMove pans while a drag is in progress and tracks hover otherwise.
func (e *Engine) PointerMove(p graph.Point) {
	if e.view.Panning() {
		e.view.Move(p)
		e.emit(Event{Type: EventViewport})
		return
	}
	id, onNode := e.NodeAt(p)
	hovered, hasHovered := e.sel.Hovered()
	switch {
	case onNode && (!hasHovered || hovered != id):
		e.HoverNode(id)
	case !onNode && hasHovered:
		e.UnhoverNode(hovered)
	}
}

// PointerUp ends a drag-pan.
func (e *Engine) PointerUp() { e.view.Release() }

// PointerLeave ends a drag-pan and drops the hover when the pointer leaves
// the canvas.
func (e *Engine) PointerLeave() {
	e.view.Leave()
	if id, ok := e.sel.Hovered(); ok {
		e.UnhoverNode(id)
	}
}

// Wheel applies a scroll gesture at p: plain scroll pans, zoomModifier
// zooms around p.
func (e *Engine) Wheel(p graph.Point, dx, dy float64, zoomModifier bool) {
	e.view.Wheel(p, dx, dy, zoomModifier)
	e.emit(Event{Type: EventViewport})
}

// HoverNode marks id as hovered. Unknown ids are ignored.
func (e *Engine) HoverNode(id int) {
	if _, ok := e.graph.Node(id); !ok {
		return
	}
	e.sel.Hover(id)
	e.emit(Event{Type: EventSelection})
}

// UnhoverNode clears the hover of id unless a node is pinned or playback is
// running.
func (e *Engine) UnhoverNode(id int) {
	e.sel.Unhover(id, e.player.Playing())
	e.emit(Event{Type: EventSelection})
}

// ClickNode pins id and, unless auto-open is off, shows the inspector.
func (e *Engine) ClickNode(id int) {
	if _, ok := e.graph.Node(id); !ok {
		return
	}
	e.sel.Click(id)
	e.focus, e.focusOwner = -1, id
	if e.autoOpen {
		e.inspector = true
	}
	e.emit(Event{Type: EventSelection})
}

// ClickBackground clears the pinned node.
func (e *Engine) ClickBackground() {
	e.sel.ClickBackground()
	e.focus = -1
	e.emit(Event{Type: EventSelection})
}
