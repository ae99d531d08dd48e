package graph

// Report describes what [NormalizeWithReport] had to repair. It exists for
// debug logging; none of these conditions is an error.
type Report struct {
	DroppedNodes     int  // nodes without a usable id
	DuplicateNodes   int  // repeated ids (first occurrence wins)
	DroppedEdges     int  // edges or successors referencing unknown ids
	SynthesizedEdges int  // edges built from successor lists
	EntryDefaulted   bool // entry was absent or unknown
}

// Clean reports whether the payload needed no repair beyond edge synthesis.
func (r Report) Clean() bool {
	return r.DroppedNodes == 0 && r.DuplicateNodes == 0 && r.DroppedEdges == 0 && !r.EntryDefaulted
}

// Normalize converts a raw payload into a well-formed Graph. It is a pure
// transform and never fails; malformed references are filtered silently.
func Normalize(p Payload) Graph {
	g, _ := NormalizeWithReport(p)
	return g
}

// NormalizeWithReport is [Normalize] plus a summary of the repairs made.
//
// Rules:
//   - nodes without a valid id are dropped, duplicate ids keep the first node
//   - an absent or empty edge list is synthesized from successor lists as
//     "normal" edges
//   - edges whose source or target is unknown are dropped
//   - edges with no kind become "normal"
//   - an absent or unknown entry defaults to the first node
func NormalizeWithReport(p Payload) (Graph, Report) {
	var rep Report
	g := Graph{
		Nodes: make([]Node, 0, len(p.Nodes)),
		Edges: []Edge{},
	}

	known := make(map[int]bool, len(p.Nodes))
	for _, rn := range p.Nodes {
		if !rn.ID.Valid {
			rep.DroppedNodes++
			continue
		}
		if known[rn.ID.Value] {
			rep.DuplicateNodes++
			continue
		}
		known[rn.ID.Value] = true

		n := Node{ID: rn.ID.Value, Kind: rn.Type, Label: rn.Label}
		if rn.Line != nil && rn.Line.Valid && rn.Line.Value > 0 {
			n.Line = rn.Line.Value
		}
		g.Nodes = append(g.Nodes, n)
	}

	if len(p.Edges) > 0 {
		for _, re := range p.Edges {
			if !re.Source.Valid || !re.Target.Valid || !known[re.Source.Value] || !known[re.Target.Value] {
				rep.DroppedEdges++
				continue
			}
			kind := re.Type
			if kind == "" {
				kind = EdgeNormal
			}
			g.Edges = append(g.Edges, Edge{
				Source: re.Source.Value,
				Target: re.Target.Value,
				Kind:   kind,
				Label:  re.Label,
			})
		}
	} else {
		seen := make(map[int]bool, len(p.Nodes))
		for _, rn := range p.Nodes {
			if !rn.ID.Valid || seen[rn.ID.Value] {
				continue
			}
			seen[rn.ID.Value] = true
			for _, succ := range rn.Successors {
				if !succ.Valid || !known[succ.Value] {
					rep.DroppedEdges++
					continue
				}
				g.Edges = append(g.Edges, Edge{Source: rn.ID.Value, Target: succ.Value, Kind: EdgeNormal})
				rep.SynthesizedEdges++
			}
		}
	}

	switch {
	case len(g.Nodes) == 0:
		g.Entry = 0
		rep.EntryDefaulted = p.Entry != nil
	case p.Entry != nil && p.Entry.Valid && known[p.Entry.Value]:
		g.Entry = p.Entry.Value
	default:
		g.Entry = g.Nodes[0].ID
		rep.EntryDefaulted = true
	}

	return g, rep
}
