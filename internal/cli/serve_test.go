package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/pipeline"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(nil, nil, nil, logger)
	srv := httptest.NewServer(newServer(runner, logger, prometheus.NewRegistry(), "light").routes())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func graphBody(kind string) string {
	return `{"kind": "` + kind + `", "graph": ` + loopPayload + `}`
}

func TestServeHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if _, err := uuid.Parse(resp.Header.Get(headerRequestID)); err != nil {
		t.Errorf("request id %q is not a uuid", resp.Header.Get(headerRequestID))
	}
	var body healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.Build.Version == "" {
		t.Errorf("health = %+v", body)
	}
}

func TestServeRender(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		format      string
		contentType string
		contains    string
	}{
		{"svg", "image/svg+xml", "<svg"},
		{"dot", "text/vnd.graphviz; charset=utf-8", "digraph"},
		{"txt", "text/plain; charset=utf-8", "start"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resp := post(t, srv.URL+"/api/render?format="+tt.format, graphBody("cfg"))
			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d: %s", resp.StatusCode, body)
			}
			if got := resp.Header.Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			if !strings.Contains(string(body), tt.contains) {
				t.Errorf("body does not contain %q", tt.contains)
			}
		})
	}
}

func TestServeRenderKeepsClientRequestID(t *testing.T) {
	srv := newTestServer(t)
	id := uuid.NewString()
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/render", strings.NewReader(graphBody("cfg")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerRequestID, id)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get(headerRequestID); got != id {
		t.Errorf("request id = %q, want %q", got, id)
	}
}

func TestServeErrors(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"bad json", "/api/render", `{"kind":`, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown kind", "/api/render", graphBody("pdg"), http.StatusBadRequest, "INVALID_KIND"},
		{"unknown format", "/api/render?format=pdf", graphBody("cfg"), http.StatusBadRequest, ""},
		{"no code or graph", "/api/layout", `{"kind": "cfg"}`, http.StatusBadRequest, "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var out map[string]apiError
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			e := out["error"]
			if tt.code != "" && e.Code != tt.code {
				t.Errorf("code = %q, want %q", e.Code, tt.code)
			}
			if e.Message == "" || e.RequestID == "" {
				t.Errorf("incomplete error %+v", e)
			}
		})
	}
}

func TestServeRejectsNonJSON(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/api/render", "text/plain", strings.NewReader(graphBody("cfg")))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", resp.StatusCode)
	}
}

func TestServeLayout(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv.URL+"/api/layout", graphBody("cfg"))
	var l graph.Layout
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		t.Fatal(err)
	}
	if len(l.Positions) != 4 {
		t.Errorf("positions = %d, want 4", len(l.Positions))
	}

	resp = post(t, srv.URL+"/api/layout?full=true", graphBody("cfg"))
	var doc pipeline.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	if doc.Kind != graph.DiagramCFG || len(doc.Graph.Nodes) != 4 || doc.Hash == "" {
		t.Errorf("document = kind %q, %d nodes, hash %q", doc.Kind, len(doc.Graph.Nodes), doc.Hash)
	}
}

func TestServeSequence(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		kind string
		want []int
	}{
		{"cfg", []int{1, 2, 3, 2, 3, 2, 3, 4}},
		{"dfg", []int{1, 2, 3, 4}},
		{"ast", []int{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			resp := post(t, srv.URL+"/api/sequence", graphBody(tt.kind))
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			var doc sequenceDoc
			if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(doc.Steps, tt.want) {
				t.Errorf("steps = %v, want %v", doc.Steps, tt.want)
			}
		})
	}
}

func TestServeMetrics(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
