package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/flowlens/pkg/cache"
	"github.com/matzehuels/flowlens/pkg/observability"
	"github.com/matzehuels/flowlens/pkg/render"
	"github.com/matzehuels/flowlens/pkg/render/nodelink"
	"github.com/matzehuels/flowlens/pkg/render/sink"
	"github.com/matzehuels/flowlens/pkg/render/styles"
)

// Render produces every format in opts.Formats for a loaded result. The bool
// reports whether all artifacts came from the cache.
func (r *Runner) Render(ctx context.Context, res *Result, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	chooks := observability.Cache()

	out := make(map[string][]byte, len(opts.Formats))
	allHit := true
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(res.GraphHash, opts.ArtifactKeyOpts(format))
		if res.GraphHash != "" {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				chooks.OnCacheHit(ctx, "artifact")
				out[format] = data
				continue
			}
			chooks.OnCacheMiss(ctx, "artifact")
		}
		allHit = false

		data, err := RenderFormat(ctx, res, format, opts)
		if err != nil {
			return nil, false, err
		}
		out[format] = data

		if res.GraphHash != "" {
			if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err == nil {
				chooks.OnCacheSet(ctx, "artifact", len(data))
			}
		}
	}

	r.Logger.Debug("rendered artifacts", "formats", opts.Formats, "cached", allHit)
	return out, allHit, nil
}

// RenderFormat renders one artifact without caching. opts must have passed
// ValidateForRender.
func RenderFormat(ctx context.Context, res *Result, format string, opts Options) ([]byte, error) {
	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnRenderStart(ctx, format)

	data, err := renderFormat(ctx, res, format, opts)
	hooks.OnRenderComplete(ctx, format, len(data), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return data, nil
}

func renderFormat(ctx context.Context, res *Result, format string, opts Options) ([]byte, error) {
	th, err := styles.ByName(opts.Theme)
	if err != nil {
		return nil, err
	}

	if format == FormatJSON {
		return json.MarshalIndent(res.document(), "", "  ")
	}

	if format == FormatDOT || opts.Engine == EngineGraphviz {
		dot := nodelink.ToDOT(res.Graph, dotOptions(th, opts))
		switch format {
		case FormatDOT:
			return []byte(dot), nil
		case FormatSVG:
			return nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			return nodelink.RenderPNG(ctx, dot)
		}
		// text has no graphviz rendition; fall through to the native grid
	}

	sc := Scene(res, th, opts.Active)
	switch format {
	case FormatSVG:
		svgOpts := []sink.SVGOption{sink.WithTitle(res.Kind.Title())}
		if opts.Interactive {
			svgOpts = append(svgOpts, sink.WithInteraction())
		}
		s := sink.NewSVG(svgOpts...)
		if err := render.Render(s, sc); err != nil {
			return nil, err
		}
		return s.Bytes(), nil

	case FormatPNG:
		p, err := sink.NewPNG(sink.WithScale(opts.Scale))
		if err != nil {
			return nil, err
		}
		if err := render.Render(p, sc); err != nil {
			return nil, err
		}
		return p.Bytes(), nil

	case FormatText:
		t := sink.NewText(sink.WithPlainText())
		if err := render.Render(t, sc); err != nil {
			return nil, err
		}
		return []byte(t.String() + "\n"), nil
	}
	return nil, ValidateFormat(format)
}

// Scene builds the full-size static scene for a result.
func Scene(res *Result, th styles.Theme, active *int) render.Scene {
	sc := render.NewScene(res.Graph, th)
	sc.Routes = res.Routes
	if active != nil {
		if _, ok := res.Graph.Node(*active); ok {
			sc = sc.WithActive(*active)
		}
	}
	return sc
}

func dotOptions(th styles.Theme, opts Options) nodelink.Options {
	o := nodelink.Options{Detailed: opts.Detailed, Theme: th}
	if opts.Active != nil {
		o.Active, o.HasActive = *opts.Active, true
	}
	return o
}
