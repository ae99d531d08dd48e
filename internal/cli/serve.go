package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/animation"
	"github.com/matzehuels/flowlens/pkg/buildinfo"
	ferrors "github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/observability"
	"github.com/matzehuels/flowlens/pkg/observability/prom"
	"github.com/matzehuels/flowlens/pkg/pipeline"
)

const (
	maxRequestBody  = 4 << 20
	requestTimeout  = 60 * time.Second
	shutdownTimeout = 10 * time.Second

	headerRequestID = "X-Request-Id"
	headerCache     = "X-Cache"
)

// contentTypes maps output formats to response media types.
var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatText: "text/plain; charset=utf-8",
}

// =============================================================================
// Serve Command
// =============================================================================

// serveCommand creates the HTTP render service command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve renders and layouts over HTTP",
		Long: `Run an HTTP service that renders program graphs.

Endpoints:
  POST /api/render?format=svg|png|dot|json|txt   render a graph
  POST /api/layout                               compute a layout
  POST /api/sequence                             playback order of a graph
  GET  /healthz                                  liveness and build version
  GET  /metrics                                  Prometheus metrics

Request bodies are JSON: {"kind": "cfg", "code": "..."} sends the code to the
analysis service, {"kind": "cfg", "graph": {...}} renders a payload directly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Server.Addr
			}
			return c.runServe(cmd.Context(), addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runServe serves until ctx is cancelled, then drains in-flight requests.
func (c *CLI) runServe(ctx context.Context, addr string, noCache bool) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := prom.New(reg)
	observability.SetPipelineHooks(metrics)
	observability.SetCacheHooks(metrics)
	observability.SetHTTPHooks(metrics)
	defer observability.Reset()

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	s := newServer(runner, c.Logger, reg, c.Config.View.Theme)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// =============================================================================
// Server
// =============================================================================

// graphService is the part of the pipeline runner the server needs.
type graphService interface {
	Load(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error)
	Render(ctx context.Context, res *pipeline.Result, opts pipeline.Options) (map[string][]byte, bool, error)
}

type server struct {
	graphs   graphService
	logger   *log.Logger
	gatherer prometheus.Gatherer
	theme    string
}

func newServer(gs graphService, logger *log.Logger, g prometheus.Gatherer, theme string) *server {
	return &server{graphs: gs, logger: logger, gatherer: g, theme: theme}
}

func (s *server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Handle("/metrics", prom.Handler(s.gatherer))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(middleware.AllowContentType("application/json"))
		r.Post("/render", s.render)
		r.Post("/layout", s.layout)
		r.Post("/sequence", s.sequence)
	})
	return r
}

// =============================================================================
// Middleware
// =============================================================================

type requestIDKey struct{}

// requestID tags every request with an id, reusing a client-supplied one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond),
			"id", requestIDFrom(r.Context()))
	})
}

// =============================================================================
// Handlers
// =============================================================================

// graphRequest is the JSON body shared by the API endpoints.
type graphRequest struct {
	pipeline.Options
	Graph json.RawMessage `json:"graph,omitempty"`
}

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *server) render(w http.ResponseWriter, r *http.Request) {
	opts, err := s.decode(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.DefaultFormat
	}
	opts.Formats = []string{format}
	if opts.Theme == "" {
		opts.Theme = s.theme
	}
	if err := opts.ValidateForRender(); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.graphs.Load(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	artifacts, hit, err := s.graphs.Render(r.Context(), res, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data := artifacts[format]
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set(headerCache, cacheStatus(hit))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *server) layout(w http.ResponseWriter, r *http.Request) {
	opts, err := s.decode(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.graphs.Load(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set(headerCache, cacheStatus(res.CacheInfo.LayoutHit))
	if full, _ := strconv.ParseBool(r.URL.Query().Get("full")); full {
		writeJSON(w, http.StatusOK, pipeline.Document{Kind: res.Kind, Hash: res.GraphHash, Graph: res.Graph, Layout: res.Layout})
		return
	}
	writeJSON(w, http.StatusOK, res.Layout)
}

func (s *server) sequence(w http.ResponseWriter, r *http.Request) {
	opts, err := s.decode(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.graphs.Load(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tr := animation.TraceFor(res.Kind, res.Graph, res.Layout.Order())
	doc := sequenceDoc{Kind: res.Kind, Steps: tr.Steps, Fallback: tr.Fallback}
	if tr.Err != nil {
		doc.Error = tr.Err.Error()
	}
	writeJSON(w, http.StatusOK, doc)
}

// decode reads and validates the request body.
func (s *server) decode(w http.ResponseWriter, r *http.Request) (pipeline.Options, error) {
	var req graphRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		return pipeline.Options{}, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "invalid request body")
	}
	opts := req.Options
	if len(req.Graph) > 0 && string(req.Graph) != "null" {
		opts.Payload = req.Graph
	}
	opts.Logger = s.logger
	if err := opts.ValidateForLoad(); err != nil {
		return opts, err
	}
	return opts, nil
}

// =============================================================================
// Responses
// =============================================================================

type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := ferrors.GetCode(err)
	var rl *ferrors.RateLimitedError
	if errors.As(err, &rl) {
		code = ferrors.ErrCodeRateLimited
		if rl.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter))
		}
	}
	if code == "" {
		code = ferrors.ErrCodeInternal
		if errors.Is(err, context.DeadlineExceeded) {
			code = ferrors.ErrCodeTimeout
		}
	}
	status := ferrors.HTTPStatus(code)
	id := requestIDFrom(r.Context())
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "id", id, "error", err)
	}
	writeJSON(w, status, map[string]apiError{
		"error": {Code: string(code), Message: ferrors.UserMessage(err), RequestID: id},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
