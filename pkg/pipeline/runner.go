package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/flowlens/pkg/cache"
	ferrors "github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/layout"
	"github.com/matzehuels/flowlens/pkg/observability"
	"github.com/matzehuels/flowlens/pkg/route"
	"github.com/matzehuels/flowlens/pkg/source"
)

// Fetcher retrieves raw graph payloads. *source.Client implements it.
type Fetcher interface {
	FetchRaw(ctx context.Context, req source.Request) ([]byte, error)
	Endpoint(kind graph.Diagram) string
}

// Runner executes the pipeline with caching.
//
// A Runner holds no per-load state and is safe for concurrent use. Loads with
// identical options that overlap in time run once and share the Result.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Source Fetcher
	Logger *log.Logger

	group singleflight.Group
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer uses
// DefaultKeyer. src may be nil when every load supplies a Payload.
func NewRunner(c cache.Cache, keyer cache.Keyer, src Fetcher, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Source: src, Logger: logger}
}

// Load runs fetch → normalize → layout → route.
func (r *Runner) Load(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	key := r.flightKey(opts)

	ch := r.group.DoChan(key, func() (any, error) {
		return r.load(ctx, opts)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			r.Logger.Debug("joined in-flight load", "kind", opts.Kind)
		}
		return res.Val.(*Result), nil
	}
}

func (r *Runner) flightKey(opts Options) string {
	src := []byte(opts.Code)
	if len(opts.Payload) > 0 {
		src = opts.Payload
	}
	return r.Keyer.PayloadKey(opts.Kind, src, opts.PayloadKeyOpts("")) +
		"|" + r.Keyer.LayoutKey("", opts.LayoutKeyOpts()) +
		"|" + strconv.FormatBool(opts.Refresh)
}

func (r *Runner) load(ctx context.Context, opts Options) (*Result, error) {
	kind := graph.Diagram(opts.Kind)
	res := &Result{Kind: kind}
	hooks := observability.Pipeline()

	fetchStart := time.Now()
	hooks.OnFetchStart(ctx, opts.Kind)
	p, hit, err := r.FetchWithCacheInfo(ctx, opts)
	if err != nil {
		hooks.OnFetchComplete(ctx, opts.Kind, 0, time.Since(fetchStart), err)
		return nil, err
	}
	g, rep := graph.NormalizeWithReport(p)
	g.Diagram = kind
	res.Report = rep
	res.CacheInfo.PayloadHit = hit
	res.Stats.FetchTime = time.Since(fetchStart)
	hooks.OnFetchComplete(ctx, opts.Kind, len(g.Nodes), res.Stats.FetchTime, nil)

	if !rep.Clean() {
		opts.Logger.Debug("repaired payload",
			"dropped_nodes", rep.DroppedNodes,
			"duplicate_nodes", rep.DuplicateNodes,
			"dropped_edges", rep.DroppedEdges,
			"entry_defaulted", rep.EntryDefaulted)
	}

	if data, err := graph.MarshalGraph(g); err == nil {
		res.GraphHash = cache.Hash(data)
	}

	layoutStart := time.Now()
	hooks.OnLayoutStart(ctx, len(g.Nodes))
	l, hit, err := r.LayoutWithCacheInfo(ctx, g, res.GraphHash, opts)
	res.Stats.LayoutTime = time.Since(layoutStart)
	hooks.OnLayoutComplete(ctx, res.Stats.LayoutTime, err)
	if err != nil {
		return nil, err
	}
	res.Layout = l
	res.CacheInfo.LayoutHit = hit
	res.Graph = l.Apply(g)
	res.Routes = route.Compute(res.Graph)

	res.Stats.NodeCount = len(g.Nodes)
	res.Stats.EdgeCount = len(g.Edges)
	res.Stats.BackEdges = len(g.BackEdges())

	r.Logger.Info("loaded graph",
		"kind", kind,
		"nodes", res.Stats.NodeCount,
		"edges", res.Stats.EdgeCount,
		"levels", l.Levels,
		"cached", res.CacheInfo.PayloadHit,
		"duration", res.Stats.FetchTime+res.Stats.LayoutTime)
	return res, nil
}

// FetchWithCacheInfo returns the payload for opts, from opts.Payload, the
// cache or the analysis service, and reports whether the cache served it.
func (r *Runner) FetchWithCacheInfo(ctx context.Context, opts Options) (graph.Payload, bool, error) {
	if len(opts.Payload) > 0 {
		p, err := source.DecodePayload(opts.Payload)
		return p, false, err
	}
	if r.Source == nil {
		return graph.Payload{}, false, ferrors.New(ferrors.ErrCodeInvalidConfig, "no analysis service configured")
	}

	kind := graph.Diagram(opts.Kind)
	key := r.Keyer.PayloadKey(opts.Kind, []byte(opts.Code), opts.PayloadKeyOpts(r.Source.Endpoint(kind)))
	chooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if p, err := source.DecodePayload(data); err == nil {
				chooks.OnCacheHit(ctx, "payload")
				return p, true, nil
			}
		} else if err != nil {
			r.Logger.Warn("cache read failed", "error", err)
		}
		chooks.OnCacheMiss(ctx, "payload")
	}

	raw, err := r.Source.FetchRaw(ctx, source.Request{Kind: kind, Code: opts.Code, MaxNodes: opts.MaxNodes})
	if err != nil {
		return graph.Payload{}, false, fmt.Errorf("fetch %s: %w", kind, err)
	}
	p, err := source.DecodePayload(raw)
	if err != nil {
		return graph.Payload{}, false, err
	}

	if err := r.Cache.Set(ctx, key, raw, cache.PayloadTTL); err != nil {
		r.Logger.Warn("cache write failed", "error", err)
	} else {
		chooks.OnCacheSet(ctx, "payload", len(raw))
	}
	return p, false, nil
}

// LayoutWithCacheInfo computes the layout of g, reusing a cached layout for
// the same graph hash and geometry.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g graph.Graph, graphHash string, opts Options) (graph.Layout, bool, error) {
	if graphHash == "" {
		return layout.Compute(g, opts.LayoutOptions()...), false, nil
	}
	key := r.Keyer.LayoutKey(graphHash, opts.LayoutKeyOpts())
	chooks := observability.Cache()

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		if l, err := graph.UnmarshalLayout(data); err == nil {
			chooks.OnCacheHit(ctx, "layout")
			return l, true, nil
		}
	}
	chooks.OnCacheMiss(ctx, "layout")

	l := layout.Compute(g, opts.LayoutOptions()...)
	if data, err := graph.MarshalLayout(l); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.LayoutTTL); err == nil {
			chooks.OnCacheSet(ctx, "layout", len(data))
		}
	}
	return l, false, nil
}

// Execute loads and renders in one call.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, map[string][]byte, error) {
	res, err := r.Load(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	arts, _, err := r.Render(ctx, res, opts)
	if err != nil {
		return nil, nil, err
	}
	return res, arts, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
