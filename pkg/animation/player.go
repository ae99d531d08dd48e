package animation

// Player steps through a trace. It never wraps: reaching the last step stops
// playback. Manual stepping works whether or not playback is running.
//
// Each change that invalidates scheduled ticks (play, pause, load) bumps the
// generation returned by [Player.Gen]; hosts tag their timer ticks with it
// and [Player.Tick] ignores ticks from older generations.
type Player struct {
	trace   Trace
	step    int
	playing bool
	engaged bool
	gen     uint64
}

// NewPlayer returns a player positioned at the first step of t.
func NewPlayer(t Trace) *Player {
	p := &Player{}
	p.Load(t)
	return p
}

// Load replaces the trace, rewinds to the first step and stops playback.
func (p *Player) Load(t Trace) {
	p.trace = t
	p.step = 0
	p.playing = false
	p.engaged = false
	p.gen++
}

// Trace returns the loaded trace.
func (p *Player) Trace() Trace { return p.trace }

// Len returns the number of steps.
func (p *Player) Len() int { return len(p.trace.Steps) }

// Step returns the zero-based current step index.
func (p *Player) Step() int { return p.step }

// Playing reports whether timed playback is running.
func (p *Player) Playing() bool { return p.playing }

// Engaged reports whether playback has been started or stepped since the last
// load. Only an engaged player drives the active node.
func (p *Player) Engaged() bool { return p.engaged }

// Gen returns the current tick generation.
func (p *Player) Gen() uint64 { return p.gen }

// Current returns the node id at the current step.
func (p *Player) Current() (int, bool) {
	if p.step < 0 || p.step >= len(p.trace.Steps) {
		return 0, false
	}
	return p.trace.Steps[p.step], true
}

// AtEnd reports whether the current step is the last one.
func (p *Player) AtEnd() bool { return p.step >= len(p.trace.Steps)-1 }

// Play starts timed playback from the current step, rewinding first when the
// previous run finished at the last step. It returns false for an empty trace.
func (p *Player) Play() bool {
	if len(p.trace.Steps) == 0 {
		return false
	}
	if p.AtEnd() {
		p.step = 0
	}
	p.playing = true
	p.engaged = true
	p.gen++
	return true
}

// Pause stops timed playback, keeping the current step.
func (p *Player) Pause() {
	if !p.playing {
		return
	}
	p.playing = false
	p.gen++
}

// Toggle switches between Play and Pause and reports whether playback runs.
func (p *Player) Toggle() bool {
	if p.playing {
		p.Pause()
		return false
	}
	return p.Play()
}

// Tick advances one step if gen is current and playback is running. Reaching
// the last step stops playback. It reports whether the step changed.
func (p *Player) Tick(gen uint64) bool {
	if gen != p.gen || !p.playing {
		return false
	}
	if p.AtEnd() {
		p.playing = false
		p.gen++
		return false
	}
	p.step++
	if p.AtEnd() {
		p.playing = false
		p.gen++
	}
	return true
}

// Next steps forward, stopping at the last step. It reports whether the step
// changed.
func (p *Player) Next() bool {
	if len(p.trace.Steps) == 0 {
		return false
	}
	p.engaged = true
	if p.AtEnd() {
		return false
	}
	p.step++
	return true
}

// Prev steps back, stopping at the first step. It reports whether the step
// changed.
func (p *Player) Prev() bool {
	if len(p.trace.Steps) == 0 {
		return false
	}
	p.engaged = true
	if p.step == 0 {
		return false
	}
	p.step--
	return true
}
