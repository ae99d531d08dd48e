// Package pipeline runs the load stages shared by the CLI, the terminal viewer
// and the render service: fetch → normalize → layout → route, then optionally
// render artifacts.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, client, logger)
//	res, err := runner.Load(ctx, pipeline.Options{Kind: "cfg", Code: code})
//	if err != nil {
//	    return err
//	}
//	arts, _, err := runner.Render(ctx, res, pipeline.Options{Formats: []string{"svg"}})
//
// A load can also start from a payload already on disk, skipping the fetch:
//
//	res, err := runner.Load(ctx, pipeline.Options{Kind: "cfg", Payload: raw})
//
// Every stage is cached through [cache.Cache]; identical in-flight loads share
// one execution.
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowlens/pkg/cache"
	ferrors "github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/layout"
	"github.com/matzehuels/flowlens/pkg/render/styles"
	"github.com/matzehuels/flowlens/pkg/route"
	"github.com/matzehuels/flowlens/pkg/source"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	DefaultKind     = graph.DiagramCFG
	DefaultMaxNodes = source.DefaultMaxNodes
	DefaultFormat   = FormatSVG
	DefaultEngine   = EngineNative
	DefaultScale    = 2.0
)

// Output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatDOT  = "dot"
	FormatJSON = "json"
	FormatText = "txt"
)

// Render engines. Graphviz lays the graph out itself and ignores the
// computed positions.
const (
	EngineNative   = "native"
	EngineGraphviz = "graphviz"
)

// ValidFormats lists the supported output formats.
var ValidFormats = []string{FormatSVG, FormatPNG, FormatDOT, FormatJSON, FormatText}

// ValidEngines lists the supported render engines.
var ValidEngines = []string{EngineNative, EngineGraphviz}

// =============================================================================
// Options
// =============================================================================

// Options configures a load and, optionally, a render.
type Options struct {
	// Load options
	Kind     string `json:"kind"`
	Code     string `json:"code,omitempty"`
	Payload  []byte `json:"-"` // raw payload; skips the fetch when set
	MaxNodes int    `json:"max_nodes,omitempty"`
	Refresh  bool   `json:"refresh,omitempty"`

	// Layout options, zero means the layout default
	GapX    float64 `json:"gap_x,omitempty"`
	GapY    float64 `json:"gap_y,omitempty"`
	Padding float64 `json:"padding,omitempty"`

	// Render options
	Formats     []string `json:"formats,omitempty"`
	Engine      string   `json:"engine,omitempty"`
	Theme       string   `json:"theme,omitempty"`
	Active      *int     `json:"active,omitempty"`
	Detailed    bool     `json:"detailed,omitempty"`
	Interactive bool     `json:"interactive,omitempty"`
	Scale       float64  `json:"scale,omitempty"`

	Logger *log.Logger `json:"-"`
}

// ValidateForLoad checks load options and applies defaults.
func (o *Options) ValidateForLoad() error {
	if o.Kind == "" {
		o.Kind = string(DefaultKind)
	}
	d, err := graph.ParseDiagram(o.Kind)
	if err != nil {
		return ferrors.Wrap(ferrors.ErrCodeInvalidKind, err, "unknown diagram kind %q", o.Kind)
	}
	o.Kind = string(d)

	if len(o.Payload) == 0 {
		if err := ferrors.ValidateSource(o.Code); err != nil {
			return err
		}
	}
	if o.MaxNodes == 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	if err := ferrors.ValidateMaxNodes(o.MaxNodes); err != nil {
		return err
	}
	if o.GapX < 0 || o.GapY < 0 || o.Padding < 0 {
		return ferrors.New(ferrors.ErrCodeInvalidInput, "layout gaps and padding must not be negative")
	}
	o.setLogger()
	return nil
}

// ValidateForRender checks render options and applies defaults.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Engine == "" {
		o.Engine = DefaultEngine
	}
	if !slices.Contains(ValidEngines, o.Engine) {
		return ferrors.New(ferrors.ErrCodeInvalidInput, "invalid engine: %q (must be one of: %s)",
			o.Engine, strings.Join(ValidEngines, ", "))
	}
	if _, err := styles.ByName(o.Theme); err != nil {
		return ferrors.Wrap(ferrors.ErrCodeInvalidTheme, err, "invalid theme %q", o.Theme)
	}
	if o.Theme == "" {
		o.Theme = styles.NameLight
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Scale < 0.25 || o.Scale > 8 {
		return ferrors.New(ferrors.ErrCodeInvalidInput, "scale must be between 0.25 and 8, got %g", o.Scale)
	}
	o.setLogger()
	return nil
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateFormat checks that format is supported.
func ValidateFormat(format string) error {
	if !slices.Contains(ValidFormats, format) {
		return ferrors.New(ferrors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)",
			format, strings.Join(ValidFormats, ", "))
	}
	return nil
}

// ValidateFormats checks every format.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// LayoutOptions converts the layout fields to layout options.
func (o Options) LayoutOptions() []layout.Option {
	d := layout.DefaultOptions()
	gx, gy, pad := d.GapX, d.GapY, d.Padding
	if o.GapX > 0 {
		gx = o.GapX
	}
	if o.GapY > 0 {
		gy = o.GapY
	}
	if o.Padding > 0 {
		pad = o.Padding
	}
	return []layout.Option{layout.WithGaps(gx, gy), layout.WithPadding(pad)}
}

// PayloadKeyOpts returns the cache key options for the fetch stage.
func (o Options) PayloadKeyOpts(endpoint string) cache.PayloadKeyOpts {
	return cache.PayloadKeyOpts{Endpoint: endpoint, MaxNodes: o.MaxNodes}
}

// LayoutKeyOpts returns the cache key options for the layout stage.
func (o Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{GapX: o.GapX, GapY: o.GapY, Padding: o.Padding}
}

// ArtifactKeyOpts returns the cache key options for one rendered format.
func (o Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format:   format,
		Engine:   o.Engine,
		Theme:    o.Theme,
		Active:   o.Active,
		Detailed: o.Detailed,
	}
	// only some formats depend on these
	switch format {
	case FormatSVG:
		k.Interactive = o.Interactive
	case FormatPNG:
		k.Scale = o.Scale
	}
	return k
}

// =============================================================================
// Results
// =============================================================================

// Result is a loaded, laid-out and routed graph. Results may be shared
// between callers and must be treated as read-only.
type Result struct {
	Kind      graph.Diagram
	Graph     graph.Graph // positioned
	GraphHash string
	Layout    graph.Layout
	Routes    []route.Route
	Report    graph.Report

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats records sizes and stage timings.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	BackEdges  int
	FetchTime  time.Duration
	LayoutTime time.Duration
}

// CacheInfo records which stages were served from the cache.
type CacheInfo struct {
	PayloadHit bool
	LayoutHit  bool
}

// Document is the JSON artifact: the positioned graph with its layout.
type Document struct {
	Kind   graph.Diagram `json:"kind"`
	Hash   string        `json:"hash"`
	Graph  graph.Graph   `json:"graph"`
	Layout graph.Layout  `json:"layout"`
}

func (r *Result) document() Document {
	return Document{Kind: r.Kind, Hash: r.GraphHash, Graph: r.Graph, Layout: r.Layout}
}

func (r *Result) String() string {
	return fmt.Sprintf("%s: %d nodes, %d edges", r.Kind, r.Stats.NodeCount, r.Stats.EdgeCount)
}
