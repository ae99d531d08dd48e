// Package graph provides the structural graph model for flowlens diagrams.
//
// This package defines the in-memory and wire representation of control-flow,
// data-flow and syntax-tree graphs, together with the normalizer that turns a
// raw analysis payload into a well-formed [Graph].
//
// # Core Types
//
//   - [Payload]: Raw graph description as returned by the analysis service
//   - [Graph], [Node], [Edge]: Normalized graph with referential integrity
//   - [Layout]: Serializable result of a layout pass (positions, size, order)
//   - [Index]: Adjacency lookups built once per graph
//
// # Normalization
//
// [Normalize] never fails. Edges that reference unknown node ids are dropped,
// missing edge lists are synthesized from per-node successor lists, and an
// absent or unknown entry defaults to the first node:
//
//	p, err := graph.ReadPayload(r)
//	g := graph.Normalize(p)
//
// # Diagram Kinds
//
// This package is the single source of truth for diagram and tag constants:
//
//	graph.DiagramAST  // "ast" (structure)
//	graph.DiagramCFG  // "cfg" (control flow)
//	graph.DiagramDFG  // "dfg" (data flow)
//
// Only control-flow diagrams unroll loops during playback; other kinds play
// back in payload node order. See [Diagram.UnrollsLoops].
//
// # Back-Edges
//
// An edge is a back-edge if and only if the producer tagged it "back". No
// structural cycle detection is performed.
package graph
