package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowlens/pkg/cache"
	ferrors "github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/observability"
)

const (
	// DefaultBaseURL is where a locally running analysis service listens.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultMaxNodes is the node cap sent with every request.
	DefaultMaxNodes = 800

	// DefaultTimeout bounds a single HTTP attempt.
	DefaultTimeout = 30 * time.Second

	visualizePath = "/api/ai/visualize/"
	maxErrorBody  = 512
	maxBody       = 32 << 20
)

// ErrStatus is wrapped by errors for non-200 responses.
var ErrStatus = errors.New("unexpected status")

// StatusError describes a non-200 response from the analysis service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%v: %d", ErrStatus, e.Code)
	}
	return fmt.Sprintf("%v: %d: %s", ErrStatus, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// Request asks the service for one diagram of a piece of source code.
type Request struct {
	Kind     graph.Diagram
	Code     string
	MaxNodes int
}

type requestBody struct {
	Code     string `json:"code"`
	MaxNodes int    `json:"max_nodes"`
}

// Client talks to the analysis service.
type Client struct {
	http     *http.Client
	base     string
	headers  map[string]string
	logger   *log.Logger
	attempts int
	delay    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRetry sets the attempt count and the initial backoff delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) { c.attempts, c.delay = attempts, delay }
}

// WithHeader adds a header to every request, e.g. an API token.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

// NewClient creates a client for the service rooted at baseURL. An empty
// baseURL uses DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if err := ferrors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	c := &Client{
		http:     &http.Client{Timeout: DefaultTimeout},
		base:     strings.TrimRight(baseURL, "/"),
		headers:  map[string]string{"Accept": "application/json"},
		logger:   log.New(io.Discard),
		attempts: 3,
		delay:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string { return c.base }

// Endpoint returns the URL requested for kind.
func (c *Client) Endpoint(kind graph.Diagram) string {
	return c.base + visualizePath + url.PathEscape(string(kind))
}

// Fetch requests a diagram and decodes the payload.
func (c *Client) Fetch(ctx context.Context, req Request) (graph.Payload, error) {
	raw, err := c.FetchRaw(ctx, req)
	if err != nil {
		return graph.Payload{}, err
	}
	return DecodePayload(raw)
}

// DecodePayload decodes a response body, accepting the {"graph": ...}
// envelope as well as a bare payload.
func DecodePayload(raw []byte) (graph.Payload, error) {
	var p graph.Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return graph.Payload{}, ferrors.Wrap(ferrors.ErrCodeInvalidPayload, err, "decode analysis response")
	}
	return p, nil
}

// FetchRaw requests a diagram and returns the undecoded response body.
// Network failures and 5xx responses are retried with exponential backoff.
func (c *Client) FetchRaw(ctx context.Context, req Request) ([]byte, error) {
	if _, err := graph.ParseDiagram(string(req.Kind)); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidKind, err, "unknown diagram kind %q", req.Kind)
	}
	if req.MaxNodes == 0 {
		req.MaxNodes = DefaultMaxNodes
	}
	if err := ferrors.ValidateMaxNodes(req.MaxNodes); err != nil {
		return nil, err
	}
	if err := ferrors.ValidateSource(req.Code); err != nil {
		return nil, err
	}

	body, err := json.Marshal(requestBody{Code: req.Code, MaxNodes: req.MaxNodes})
	if err != nil {
		return nil, err
	}
	endpoint := c.Endpoint(req.Kind)

	var out []byte
	err = cache.Retry(ctx, c.attempts, c.delay, func() error {
		data, err := c.doRequest(ctx, endpoint, body)
		if err != nil {
			if cache.IsRetryable(err) {
				c.logger.Debug("retrying analysis request", "kind", req.Kind, "error", err)
			}
			return err
		}
		out = data
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))
	c.logger.Debug("analysis response", "url", endpoint, "status", resp.StatusCode, "elapsed", time.Since(start))

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, cache.Retryable(fmt.Errorf("%w: read body: %v", cache.ErrNetwork, err))
	}
	return data, nil
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	if code == http.StatusOK {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	serr := &StatusError{Code: code, Body: strings.TrimSpace(string(snippet))}

	switch {
	case code == http.StatusTooManyRequests:
		retry, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return &ferrors.RateLimitedError{RetryAfter: retry, Message: serr.Body}
	case code >= 500:
		return cache.Retryable(serr)
	default:
		return serr
	}
}

// classify attaches an error code for the CLI and the render service.
func classify(err error) error {
	var rl *ferrors.RateLimitedError
	var se *StatusError
	switch {
	case errors.As(err, &rl):
		return ferrors.Wrap(ferrors.ErrCodeRateLimited, err, "analysis service is rate limiting requests")
	case errors.Is(err, context.DeadlineExceeded):
		return ferrors.Wrap(ferrors.ErrCodeTimeout, err, "analysis request timed out")
	case errors.Is(err, context.Canceled):
		return err
	case errors.As(err, &se):
		return ferrors.Wrap(ferrors.ErrCodeSourceStatus, err, "analysis service returned %d", se.Code)
	case errors.Is(err, cache.ErrNetwork):
		return ferrors.Wrap(ferrors.ErrCodeNetwork, err, "analysis service unreachable")
	}
	return err
}
