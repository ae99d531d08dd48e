package prom

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecordEvents(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.OnFetchComplete(ctx, "cfg", 12, 30*time.Millisecond, nil)
	m.OnFetchComplete(ctx, "cfg", 0, time.Second, errors.New("boom"))
	m.OnCacheHit(ctx, "payload")
	m.OnCacheMiss(ctx, "payload")
	m.OnCacheSet(ctx, "layout", 512)
	m.OnRenderComplete(ctx, "svg", 4096, time.Millisecond, nil)
	m.OnResponse(ctx, "POST", "localhost:8000", "/api/ai/visualize/cfg", 502, time.Second)
	m.OnError(ctx, "POST", "localhost:8000", "/api/ai/visualize/cfg", errors.New("refused"))

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"fetch ok", m.fetchTotal.WithLabelValues("cfg", "ok"), 1},
		{"fetch error", m.fetchTotal.WithLabelValues("cfg", "error"), 1},
		{"cache hit", m.cacheTotal.WithLabelValues("payload", "hit"), 1},
		{"cache miss", m.cacheTotal.WithLabelValues("payload", "miss"), 1},
		{"cache bytes", m.cacheBytes.WithLabelValues("layout"), 512},
		{"render", m.renderTotal.WithLabelValues("svg", "ok"), 1},
		{"http status", m.httpTotal.WithLabelValues("POST", "localhost:8000", "502"), 1},
		{"http error", m.httpErrors.WithLabelValues("POST", "localhost:8000"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("value = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.OnCacheHit(context.Background(), "artifact")

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), `flowlens_cache_requests_total{result="hit",type="artifact"} 1`) {
		t.Errorf("metrics output missing cache counter:\n%s", body)
	}
}
