// Package animation builds and plays back synthetic execution traces for
// control-flow graphs.
//
// A trace starts from the layout order of the nodes. Every back-edge
// (source, target) marks a loop whose body runs from target through source;
// [BuildSequence] splices [LoopRepeats] extra copies of that body right after
// its first pass so playback shows the loop iterating.
//
// [Player] steps through a trace on a timer or manually.
package animation

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/matzehuels/flowlens/pkg/graph"
)

// LoopRepeats is the number of synthetic loop iterations spliced in after the
// natural pass through a loop body.
//
// TODO(playback): expose through config once playback tuning is needed.
const LoopRepeats = 2

// MaxSequenceLength bounds a built trace. Nested loops multiply the body
// length, so a pathological graph is cut off rather than allowed to grow
// without limit.
const MaxSequenceLength = 10000

// DefaultInterval is the playback tick interval.
const DefaultInterval = time.Second

var (
	// ErrMalformedBackEdge is returned when a back-edge endpoint is missing
	// from the sequence or its target follows its source.
	ErrMalformedBackEdge = errors.New("malformed back-edge")

	// ErrSequenceTooLong is returned when unrolling exceeds MaxSequenceLength.
	ErrSequenceTooLong = errors.New("animation sequence too long")
)

// BuildSequence unrolls loops in order, which is the node id list in layout
// order. For each back-edge in edges, in edge order, the sub-sequence from
// the first occurrence of the target through the first occurrence of the
// source is repeated LoopRepeats times immediately after that first pass.
//
// A self-loop back-edge repeats its single node. Non-back edges are ignored.
// The input slice is not modified.
func BuildSequence(order []int, edges []graph.Edge) ([]int, error) {
	seq := slices.Clone(order)
	for _, e := range edges {
		if !e.IsBack() {
			continue
		}
		t := slices.Index(seq, e.Target)
		s := slices.Index(seq, e.Source)
		if t < 0 || s < 0 {
			return nil, fmt.Errorf("%w: %d -> %d: endpoint not in sequence", ErrMalformedBackEdge, e.Source, e.Target)
		}
		if t > s {
			return nil, fmt.Errorf("%w: %d -> %d: target follows source", ErrMalformedBackEdge, e.Source, e.Target)
		}

		body := seq[t : s+1]
		if len(seq)+LoopRepeats*len(body) > MaxSequenceLength {
			return nil, fmt.Errorf("%w: exceeds %d steps", ErrSequenceTooLong, MaxSequenceLength)
		}
		next := make([]int, 0, len(seq)+LoopRepeats*len(body))
		next = append(next, seq[:s+1]...)
		for range LoopRepeats {
			next = append(next, body...)
		}
		seq = append(next, seq[s+1:]...)
	}
	return seq, nil
}

// Trace is a built playback sequence. Fallback is set when unrolling failed
// and the steps are the raw node order instead.
type Trace struct {
	Steps    []int
	Fallback bool
	Err      error // the unrolling failure behind a fallback
}

// BuildTrace unrolls the loops of a laid-out graph. order is the layout order
// and may be nil, in which case the graph's stored node order is used. On
// failure it falls back to the payload node order and records the error.
func BuildTrace(g graph.Graph, order []int) Trace {
	if len(order) == 0 {
		order = g.NodeIDs()
	}
	steps, err := BuildSequence(order, g.Edges)
	if err != nil {
		return Trace{Steps: g.NodeIDs(), Fallback: true, Err: err}
	}
	return Trace{Steps: steps}
}

// TraceFor returns the playback trace for a diagram of kind k. Only
// control-flow diagrams are unrolled; other kinds step through the payload
// node order.
func TraceFor(k graph.Diagram, g graph.Graph, order []int) Trace {
	if !k.UnrollsLoops() {
		return Trace{Steps: g.NodeIDs()}
	}
	return BuildTrace(g, order)
}
