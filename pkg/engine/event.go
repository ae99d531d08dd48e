package engine

// EventType names what changed.
type EventType int

const (
	EventLoading EventType = iota
	EventLoaded
	EventError
	EventSelection
	EventViewport
	EventPlayback
	EventInspector
	EventKind
	EventClosed
)

var eventNames = [...]string{
	EventLoading:   "loading",
	EventLoaded:    "loaded",
	EventError:     "error",
	EventSelection: "selection",
	EventViewport:  "viewport",
	EventPlayback:  "playback",
	EventInspector: "inspector",
	EventKind:      "kind",
	EventClosed:    "closed",
}

func (t EventType) String() string {
	if t < 0 || int(t) >= len(eventNames) {
		return "unknown"
	}
	return eventNames[t]
}

// Event is delivered to subscribers after a transition has been applied.
type Event struct {
	Type  EventType
	Token Token // set for fetch events
	Err   error // set for EventError
}

// Subscribe registers fn to be called after every transition. Callbacks run
// synchronously on the caller's goroutine, in registration order, and must
// not call back into transitions. The returned func removes the subscription.
func (e *Engine) Subscribe(fn func(Event)) (unsubscribe func()) {
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	return func() { delete(e.subs, id) }
}

func (e *Engine) emit(ev Event) {
	for id := 0; id < e.nextSub; id++ {
		if fn, ok := e.subs[id]; ok {
			fn(ev)
		}
	}
}
