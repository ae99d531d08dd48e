// Package pkg provides the core libraries for flowlens program graph
// visualization.
//
// # Overview
//
// flowlens renders the graphs an analysis service derives from source code
// (abstract syntax trees, control flow graphs and data flow graphs) as
// layered node-link diagrams, and animates control flow step by step. The
// pkg directory is organized by stage:
//
//  1. [graph] - Graph model, payload normalization and serialization types
//  2. [source] - HTTP client for the analysis service
//  3. [layout] - Deterministic level-based placement
//  4. [route] - Edge geometry between placed nodes
//  5. [animation] - Playback order and the step player
//  6. [selection] - Hover and pin state, neighbor lookup
//  7. [viewport] - Zoom and pan transforms
//  8. [render] - Scene building and output sinks (SVG, PNG, text, DOT)
//  9. [engine] - The interactive viewer state machine
//  10. [pipeline] - Orchestration (load, layout, render) with caching
//
// Supporting packages: [cache] (file, Redis and MongoDB backends),
// [errors] (coded errors), [observability] (metric hooks) and [buildinfo].
//
// # Architecture
//
// The typical data flow:
//
//	Source code
//	     ↓
//	[source] analysis service (AST / CFG / DFG payload)
//	     ↓
//	[graph] normalize payload
//	     ↓
//	[layout] + [route] positions and edge paths
//	     ↓
//	[render] SVG / PNG / DOT / JSON / text
//
// The interactive viewer drives the same stages through [engine], adding
// [animation], [selection] and [viewport] state on top.
//
// # Quick Start
//
// Render a control flow graph from a payload:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/flowlens/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, nil, nil)
//	opts := pipeline.Options{Kind: "cfg", Payload: data, Formats: []string{"svg"}}
//	res, err := runner.Load(ctx, opts)
//	if err != nil {
//	    return err
//	}
//	artifacts, _, err := runner.Render(ctx, res, opts)
//	os.WriteFile("flow.svg", artifacts["svg"], 0o644)
//
// # Error Handling
//
// Errors carry a code from [errors] so callers can map them to exit codes or
// HTTP statuses without string matching:
//
//	if errors.GetCode(err) == errors.ErrCodeInvalidKind {
//	    // unknown diagram kind
//	}
package pkg
