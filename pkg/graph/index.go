package graph

// Index provides adjacency lookups over a Graph. It is built once per graph
// and is read-only afterwards; edge order within each list follows the
// graph's edge order.
type Index struct {
	nodes map[int]int
	out   map[int][]Edge
	in    map[int][]Edge
}

// NewIndex builds an adjacency index for g.
func NewIndex(g Graph) *Index {
	ix := &Index{
		nodes: make(map[int]int, len(g.Nodes)),
		out:   make(map[int][]Edge, len(g.Nodes)),
		in:    make(map[int][]Edge, len(g.Nodes)),
	}
	for i, n := range g.Nodes {
		ix.nodes[n.ID] = i
	}
	for _, e := range g.Edges {
		ix.out[e.Source] = append(ix.out[e.Source], e)
		ix.in[e.Target] = append(ix.in[e.Target], e)
	}
	return ix
}

// Has reports whether id is a node of the indexed graph.
func (ix *Index) Has(id int) bool {
	_, ok := ix.nodes[id]
	return ok
}

// Position returns the index of node id within Graph.Nodes.
func (ix *Index) Position(id int) (int, bool) {
	i, ok := ix.nodes[id]
	return i, ok
}

// Outgoing returns the edges whose source is id.
func (ix *Index) Outgoing(id int) []Edge { return ix.out[id] }

// Incoming returns the edges whose target is id.
func (ix *Index) Incoming(id int) []Edge { return ix.in[id] }

// Successors returns the targets of id's outgoing edges, skipping back-edges
// when forwardOnly is set. Targets may repeat when parallel edges exist.
func (ix *Index) Successors(id int, forwardOnly bool) []int {
	edges := ix.out[id]
	out := make([]int, 0, len(edges))
	for _, e := range edges {
		if forwardOnly && e.IsBack() {
			continue
		}
		out = append(out, e.Target)
	}
	return out
}

// Predecessors returns the sources of id's incoming edges.
func (ix *Index) Predecessors(id int) []int {
	edges := ix.in[id]
	out := make([]int, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.Source)
	}
	return out
}
