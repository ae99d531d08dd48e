package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowlens/pkg/cache"
	ferrors "github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/source"
)

const loopPayload = `{
	"nodes": [
		{"id": 1, "type": "entry", "label": "start"},
		{"id": 2, "type": "condition", "label": "i < 3", "line": 1},
		{"id": 3, "type": "statement", "label": "print(i)", "line": 2},
		{"id": 4, "type": "exit", "label": "end"},
		{"id": "bogus", "type": "statement", "label": "dropped"}
	],
	"edges": [
		{"source": 1, "target": 2},
		{"source": 2, "target": 3, "type": "true", "label": "True"},
		{"source": 3, "target": 2, "type": "back"},
		{"source": 2, "target": 4, "type": "false", "label": "False"},
		{"source": 2, "target": 99}
	],
	"entry": 1
}`

type fakeFetcher struct {
	calls   atomic.Int32
	payload []byte
	err     error
	gate    chan struct{}
}

func (f *fakeFetcher) FetchRaw(ctx context.Context, req source.Request) ([]byte, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	return f.payload, f.err
}

func (f *fakeFetcher) Endpoint(kind graph.Diagram) string { return "test://" + string(kind) }

func quietLogger() *log.Logger { return log.New(io.Discard) }

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"dot", false},
		{"json", false},
		{"txt", false},
		{"pdf", true},
		{"SVG", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !ferrors.Is(err, ferrors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s", tt.format, ferrors.GetCode(err))
		}
	}
}

func TestOptionsValidateForLoad(t *testing.T) {
	o := Options{Code: "x = 1"}
	if err := o.ValidateForLoad(); err != nil {
		t.Fatalf("ValidateForLoad: %v", err)
	}
	if o.Kind != "cfg" || o.MaxNodes != DefaultMaxNodes || o.Logger == nil {
		t.Errorf("defaults not applied: %+v", o)
	}

	o = Options{Kind: "data-flow", Code: "x = 1"}
	if err := o.ValidateForLoad(); err != nil || o.Kind != "dfg" {
		t.Errorf("long kind name: kind=%q err=%v", o.Kind, err)
	}

	tests := []struct {
		name string
		opts Options
		code ferrors.Code
	}{
		{"kind", Options{Kind: "callgraph", Code: "x"}, ferrors.ErrCodeInvalidKind},
		{"no code", Options{Kind: "cfg"}, ferrors.ErrCodeInvalidInput},
		{"max nodes", Options{Code: "x", MaxNodes: -1}, ferrors.ErrCodeInvalidInput},
		{"gap", Options{Code: "x", GapX: -4}, ferrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForLoad()
			if got := ferrors.GetCode(err); got != tt.code {
				t.Errorf("code = %s, want %s (%v)", got, tt.code, err)
			}
		})
	}

	o = Options{Kind: "cfg", Payload: []byte(loopPayload)}
	if err := o.ValidateForLoad(); err != nil {
		t.Errorf("payload without code: %v", err)
	}
}

func TestOptionsValidateForRender(t *testing.T) {
	o := Options{}
	if err := o.ValidateForRender(); err != nil {
		t.Fatalf("ValidateForRender: %v", err)
	}
	if len(o.Formats) != 1 || o.Formats[0] != FormatSVG || o.Engine != EngineNative || o.Theme != "light" || o.Scale != DefaultScale {
		t.Errorf("defaults not applied: %+v", o)
	}

	for _, bad := range []Options{
		{Formats: []string{"pdf"}},
		{Engine: "mermaid"},
		{Theme: "solarized"},
		{Scale: 100},
	} {
		if err := bad.ValidateForRender(); err == nil {
			t.Errorf("ValidateForRender(%+v) = nil", bad)
		}
	}
}

func TestLoadFromPayload(t *testing.T) {
	r := NewRunner(nil, nil, nil, quietLogger())
	res, err := r.Load(context.Background(), Options{Kind: "cfg", Payload: []byte(loopPayload)})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if res.Stats.NodeCount != 4 || res.Stats.EdgeCount != 4 || res.Stats.BackEdges != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if res.Report.DroppedNodes != 1 || res.Report.DroppedEdges != 1 {
		t.Errorf("report = %+v", res.Report)
	}
	if res.Graph.Diagram != graph.DiagramCFG {
		t.Errorf("diagram = %q", res.Graph.Diagram)
	}
	for _, n := range res.Graph.Nodes {
		if !n.Placed {
			t.Errorf("node %d not placed", n.ID)
		}
	}
	if len(res.Routes) != 4 {
		t.Errorf("routes = %d, want 4", len(res.Routes))
	}
	if len(res.GraphHash) != 64 {
		t.Errorf("graph hash = %q", res.GraphHash)
	}
}

func TestLoadCachesPayloadAndLayout(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := &fakeFetcher{payload: []byte(loopPayload)}
	r := NewRunner(fc, nil, f, quietLogger())
	opts := Options{Kind: "cfg", Code: "for i in range(3):\n    print(i)\n"}

	first, err := r.Load(ctx, opts)
	if err != nil {
		t.Fatalf("first Load: %v", err)
	}
	if first.CacheInfo.PayloadHit || first.CacheInfo.LayoutHit {
		t.Errorf("first load hit the cache: %+v", first.CacheInfo)
	}

	second, err := r.Load(ctx, opts)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if !second.CacheInfo.PayloadHit || !second.CacheInfo.LayoutHit {
		t.Errorf("second load missed the cache: %+v", second.CacheInfo)
	}
	if n := f.calls.Load(); n != 1 {
		t.Errorf("fetch calls = %d, want 1", n)
	}
	if first.GraphHash != second.GraphHash {
		t.Error("graph hash changed between loads")
	}

	opts.Refresh = true
	if _, err := r.Load(ctx, opts); err != nil {
		t.Fatal(err)
	}
	if n := f.calls.Load(); n != 2 {
		t.Errorf("refresh did not refetch: calls = %d", n)
	}
}

func TestLoadDeduplicatesInFlight(t *testing.T) {
	f := &fakeFetcher{payload: []byte(loopPayload), gate: make(chan struct{})}
	r := NewRunner(nil, nil, f, quietLogger())
	opts := Options{Kind: "cfg", Code: "x = 1"}

	var wg sync.WaitGroup
	results := make([]*Result, 2)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.Load(context.Background(), opts)
			if err != nil {
				t.Errorf("Load: %v", err)
			}
			results[i] = res
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(f.gate)
	wg.Wait()

	if n := f.calls.Load(); n != 1 {
		t.Errorf("fetch calls = %d, want 1", n)
	}
	if results[0] != results[1] {
		t.Error("concurrent loads did not share a result")
	}
}

func TestLoadFetchError(t *testing.T) {
	boom := ferrors.New(ferrors.ErrCodeSourceStatus, "service returned 500")
	r := NewRunner(nil, nil, &fakeFetcher{err: boom}, quietLogger())

	_, err := r.Load(context.Background(), Options{Kind: "cfg", Code: "x = 1"})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
	if !ferrors.Is(err, ferrors.ErrCodeSourceStatus) {
		t.Errorf("code = %s", ferrors.GetCode(err))
	}
}

func TestLoadWithoutSource(t *testing.T) {
	r := NewRunner(nil, nil, nil, quietLogger())
	_, err := r.Load(context.Background(), Options{Kind: "cfg", Code: "x = 1"})
	if !ferrors.Is(err, ferrors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestRender(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil, quietLogger())
	res, err := r.Load(ctx, Options{Kind: "cfg", Payload: []byte(loopPayload)})
	if err != nil {
		t.Fatal(err)
	}

	active := 2
	opts := Options{Formats: []string{"svg", "png", "dot", "json", "txt"}, Theme: "dark", Active: &active, Scale: 1}
	arts, hit, err := r.Render(ctx, res, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if hit {
		t.Error("first render reported a cache hit")
	}

	if svg := string(arts["svg"]); !strings.HasPrefix(svg, "<svg") || !strings.Contains(svg, `class="node active"`) {
		t.Errorf("svg output unexpected:\n%.300s", svg)
	}
	if png := arts["png"]; len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Error("png output missing signature")
	}
	if dot := string(arts["dot"]); !strings.Contains(dot, "digraph G {") || !strings.Contains(dot, `bgcolor="#111827"`) {
		t.Errorf("dot output unexpected:\n%s", dot)
	}
	var doc Document
	if err := json.Unmarshal(arts["json"], &doc); err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if doc.Kind != graph.DiagramCFG || len(doc.Graph.Nodes) != 4 || len(doc.Layout.Positions) != 4 {
		t.Errorf("json document = %+v", doc)
	}
	if txt := string(arts["txt"]); !strings.Contains(txt, "start") {
		t.Errorf("text output missing label:\n%s", txt)
	}

	again, hit, err := r.Render(ctx, res, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Error("second render missed the cache")
	}
	if string(again["dot"]) != string(arts["dot"]) {
		t.Error("cached artifact differs")
	}
}

func TestExecuteRejectsBadFormat(t *testing.T) {
	r := NewRunner(nil, nil, nil, quietLogger())
	_, _, err := r.Execute(context.Background(), Options{Kind: "cfg", Payload: []byte(loopPayload), Formats: []string{"gif"}})
	if !ferrors.Is(err, ferrors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}
