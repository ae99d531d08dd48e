// Package engine owns the interactive state of one visualization: the loaded
// graph, the viewport, the selection and the animation player.
//
// The engine is a plain state machine. Every change goes through a named
// transition (BeginFetch, Play, ClickNode, Wheel, ...) and observers learn
// about it through [Engine.Subscribe]. It performs no I/O and starts no
// goroutines: the host runs fetches and timers and feeds their results back
// with [Engine.CompleteFetch] and [Engine.Tick].
//
//	e := engine.New(engine.WithLogger(logger))
//	tok := e.BeginFetch(engine.Request{Kind: graph.DiagramCFG})
//	res, err := runner.Load(ctx, opts) // on the host's worker
//	e.CompleteFetch(tok, res, err)     // back on the UI goroutine
//
// An Engine is not safe for concurrent use.
package engine

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowlens/pkg/animation"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/layout"
	"github.com/matzehuels/flowlens/pkg/pipeline"
	"github.com/matzehuels/flowlens/pkg/render"
	"github.com/matzehuels/flowlens/pkg/render/styles"
	"github.com/matzehuels/flowlens/pkg/route"
	"github.com/matzehuels/flowlens/pkg/selection"
	"github.com/matzehuels/flowlens/pkg/viewport"
)

// Token identifies one fetch. Only the most recent token is accepted by
// CompleteFetch.
type Token uint64

// Request describes the graph a fetch should produce.
type Request struct {
	Kind graph.Diagram
	Code string
}

// Engine is the visualization state machine.
type Engine struct {
	kind   graph.Diagram
	graph  graph.Graph
	routes []route.Route
	view   *viewport.Viewport
	sel    selection.Selection
	player *animation.Player
	theme  styles.Theme

	gen        Token
	loading    bool
	err        error
	inspector  bool
	autoOpen   bool // show the inspector when a node is pinned
	closed     bool
	focus      int // index into focusOwner's neighbors, -1 for none
	focusOwner int

	interval time.Duration
	logger   *log.Logger
	subs     map[int]func(Event)
	nextSub  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithTheme sets the initial theme.
func WithTheme(th styles.Theme) Option {
	return func(e *Engine) { e.theme = th }
}

// WithKind sets the initial diagram kind.
func WithKind(k graph.Diagram) Option {
	return func(e *Engine) { e.kind = k }
}

// WithViewportSize sets the screen size of the canvas.
func WithViewportSize(w, h float64) Option {
	return func(e *Engine) { e.view.Resize(w, h) }
}

// WithInterval sets the playback tick interval.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithAutoInspector controls whether pinning a node shows the inspector.
// It is on by default.
func WithAutoInspector(on bool) Option {
	return func(e *Engine) { e.autoOpen = on }
}

// New returns an engine with an empty graph.
func New(opts ...Option) *Engine {
	e := &Engine{
		kind:     pipeline.DefaultKind,
		view:     viewport.New(layout.MinWidth, layout.MinHeight),
		player:   animation.NewPlayer(animation.Trace{}),
		theme:    styles.Light,
		autoOpen: true,
		focus:    -1,
		interval: animation.DefaultInterval,
		logger:   log.New(io.Discard),
		subs:     make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// =============================================================================
// Fetch lifecycle
// =============================================================================

// BeginFetch starts a new load generation and returns its token. Any fetch
// still in flight becomes stale. An empty req.Kind keeps the current kind.
func (e *Engine) BeginFetch(req Request) Token {
	if req.Kind != "" && req.Kind != e.kind {
		e.kind = req.Kind
	}
	e.gen++
	e.loading = true
	e.logger.Debug("fetch started", "token", e.gen, "kind", e.kind)
	e.emit(Event{Type: EventLoading, Token: e.gen})
	return e.gen
}

// CompleteFetch applies the outcome of the fetch identified by tok. It
// returns false and changes nothing when tok is stale.
//
// On error the previous graph stays on screen and the error is kept for the
// banner. On success the graph is replaced, the viewport and selection are
// reset, playback is rebuilt and the view is fitted to the new graph.
func (e *Engine) CompleteFetch(tok Token, res *pipeline.Result, err error) bool {
	if tok != e.gen {
		e.logger.Debug("dropping stale fetch", "token", tok, "current", e.gen)
		return false
	}
	e.loading = false

	if err != nil {
		e.err = err
		e.logger.Warn("fetch failed", "kind", e.kind, "error", err)
		e.emit(Event{Type: EventError, Token: tok, Err: err})
		return true
	}
	if res == nil {
		res = &pipeline.Result{Kind: e.kind}
	}

	e.err = nil
	e.graph = res.Graph
	e.routes = res.Routes
	if res.Routes == nil && !res.Graph.Empty() {
		e.routes = route.Compute(res.Graph)
	}
	if res.Kind != "" {
		e.kind = res.Kind
	}
	e.sel.Clear()
	e.focus = -1
	e.view.Reset()

	trace := animation.TraceFor(e.kind, e.graph, res.Layout.Order())
	if trace.Fallback {
		e.logger.Debug("using raw node order for playback", "error", trace.Err)
	}
	e.player.Load(trace)

	e.fit()
	e.emit(Event{Type: EventLoaded, Token: tok})
	return true
}

// Generation returns the latest fetch token.
func (e *Engine) Generation() Token { return e.gen }

// =============================================================================
// Read model
// =============================================================================

func (e *Engine) Kind() graph.Diagram         { return e.kind }
func (e *Engine) Graph() graph.Graph          { return e.graph }
func (e *Engine) Routes() []route.Route       { return e.routes }
func (e *Engine) Theme() styles.Theme         { return e.theme }
func (e *Engine) Loading() bool               { return e.loading }
func (e *Engine) Error() error                { return e.err }
func (e *Engine) Closed() bool                { return e.closed }
func (e *Engine) Viewport() viewport.Viewport { return *e.view }
func (e *Engine) Interval() time.Duration     { return e.interval }

// Active returns the highlighted node: pinned, else hovered or animated.
func (e *Engine) Active() (int, bool) { return e.sel.Active() }

// Pinned returns the pinned node.
func (e *Engine) Pinned() (int, bool) { return e.sel.Pinned() }

// InspectorVisible reports whether the inspector panel is shown.
func (e *Engine) InspectorVisible() bool { return e.inspector }

// Inspector returns the detail view for the active node.
func (e *Engine) Inspector() (selection.Inspector, bool) {
	id, ok := e.sel.Active()
	if !ok {
		return selection.Inspector{}, false
	}
	return selection.Inspect(e.graph, id)
}

// Playing reports whether playback is running.
func (e *Engine) Playing() bool { return e.player.Playing() }

// PlayerGen returns the generation that the next Tick must carry.
func (e *Engine) PlayerGen() uint64 { return e.player.Gen() }

// CanAnimate reports whether playback is available for the loaded graph.
func (e *Engine) CanAnimate() bool { return e.player.Len() > 0 }

// Step returns the 1-based current step and the total, the figures behind the
// "Step i / n" counter. An empty graph reports 0 / 0.
func (e *Engine) Step() (cur, total int) {
	total = e.player.Len()
	if total == 0 {
		return 0, 0
	}
	return e.player.Step() + 1, total
}

// Trace returns the loaded playback trace.
func (e *Engine) Trace() animation.Trace { return e.player.Trace() }

// Scene returns the frame to draw.
func (e *Engine) Scene() render.Scene {
	sc := render.Scene{
		Graph:  e.graph,
		Routes: e.routes,
		View:   *e.view,
		Theme:  e.theme,
	}
	if id, ok := e.sel.Active(); ok {
		sc = sc.WithActive(id)
	}
	return sc
}

// NodeAt returns the node under screen point p. Later nodes win when boxes
// overlap, matching draw order.
func (e *Engine) NodeAt(p graph.Point) (int, bool) {
	g := e.view.ToGraph(p)
	for i := len(e.graph.Nodes) - 1; i >= 0; i-- {
		n := e.graph.Nodes[i]
		if n.Placed && n.Box(layout.NodeWidth, layout.NodeHeight).Contains(g) {
			return n.ID, true
		}
	}
	return 0, false
}
