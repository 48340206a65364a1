// Package transport is the HTTP client for the restaurant directory backend.
// Every operation is exactly one round trip with no retries.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/cloo-solutions/tastyfind/internal/telemetry"
)

// DefaultBaseURL is the hosted backend.
const DefaultBaseURL = "https://shalinimeena--tastyfind-app-fastapi-app.modal.run"

// Client talks to the restaurant backend. It holds no per-call state and is
// safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	obs        *observer
	onProgress ProgressFunc
}

type clientConfig struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
	metricsReg prometheus.Registerer
	onProgress ProgressFunc
}

// Option configures the Client.
type Option func(*clientConfig)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = hc
	}
}

// WithTimeout sets a client-wide request timeout. Zero (default) means none.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithLogger enables structured logging of backend calls.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithMetrics registers request counters and durations on reg.
// Pass nil to disable (default).
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *clientConfig) {
		c.metricsReg = reg
	}
}

// WithUploadProgress reports image upload progress.
func WithUploadProgress(fn ProgressFunc) Option {
	return func(c *clientConfig) {
		c.onProgress = fn
	}
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("transport: base URL required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("transport: invalid base URL %q: %w", baseURL, err)
	}

	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{}
	}
	if cfg.timeout > 0 {
		copied := *hc
		copied.Timeout = cfg.timeout
		hc = &copied
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: hc,
		obs:        obs,
		onProgress: cfg.onProgress,
	}, nil
}

// BaseURL returns the backend URL the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type call struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	size        int64
	contentType string
}

func (c *Client) do(ctx context.Context, in call, out interface{}) (err error) {
	start := time.Now()
	defer func() { c.obs.observe(in.op, start, err) }()

	ctx, span := telemetry.StartSpan(ctx, "backend."+in.op, telemetry.SpanAttributes{
		Operation: in.op,
		Method:    in.method,
		Path:      in.path,
	})
	defer span.End()

	target := c.baseURL + in.path
	if len(in.query) > 0 {
		target += "?" + in.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, in.method, target, in.body)
	if err != nil {
		return newError(in.op, 0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if in.contentType != "" {
		req.Header.Set("Content-Type", in.contentType)
	}
	if in.size > 0 {
		req.ContentLength = in.size
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.SetError(err)
		return newError(in.op, 0, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	span.SetHTTPStatus(resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return newError(in.op, resp.StatusCode, nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return newError(in.op, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) get(ctx context.Context, op, path string, q url.Values, out interface{}) error {
	return c.do(ctx, call{op: op, method: http.MethodGet, path: path, query: q}, out)
}

func (c *Client) postJSON(ctx context.Context, op, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return newError(op, 0, fmt.Errorf("marshal request body: %w", err))
	}
	return c.do(ctx, call{
		op:          op,
		method:      http.MethodPost,
		path:        path,
		body:        bytes.NewReader(data),
		size:        int64(len(data)),
		contentType: "application/json",
	}, out)
}
