// Package source fetches graph payloads from the remote analysis service.
//
// The service turns source code into a structural graph:
//
//	POST {base}/api/ai/visualize/{kind}
//	{"code": "...", "max_nodes": 800}
//
// The response is a [graph.Payload], optionally wrapped as {"graph": {...}}.
//
//	c, err := source.NewClient("http://localhost:8000", source.WithLogger(logger))
//	p, err := c.Fetch(ctx, source.Request{Kind: graph.DiagramCFG, Code: code})
//
// Network failures and 5xx responses are retried with exponential backoff.
// Other non-200 responses fail immediately with an error wrapping [ErrStatus]
// and carrying the SOURCE_STATUS code from pkg/errors.
package source
