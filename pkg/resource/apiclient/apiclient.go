// Package apiclient provides a dual-mode HTTP client adapter.
//
// Requests are authored once against the blocking net/http contract.
// Sync callers run on their own goroutine; async callers bridge through
// a worker pool or, when a separate async session is configured, use it
// natively.
package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	gberrors "github.com/vnykmshr/gobridge/pkg/common/errors"
	"github.com/vnykmshr/gobridge/pkg/common/validation"
	"github.com/vnykmshr/gobridge/pkg/dispatch"
	"github.com/vnykmshr/gobridge/pkg/metrics"
)

const resourceName = "apiclient"

// StatusError reports a non-2xx response. It is always wrapped in a
// ResourceError so callers can branch on the status code via errors.As.
type StatusError struct {
	// Code is the HTTP status code
	Code int

	// Status is the full status line from the response
	Status string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %s", e.Status)
}

// Config holds configuration for the ApiClient adapter.
type Config struct {
	// BaseURL is prefixed to every request path. Required.
	BaseURL string

	// HTTPClient is the blocking session. Defaults to a client with a
	// 30s timeout.
	HTTPClient *http.Client

	// AsyncHTTPClient is an optional separate session for the native
	// async path. When set, async callers use it without bridging.
	AsyncHTTPClient *http.Client

	// Pool bridges blocking calls for async callers. If nil, the
	// adapter creates and owns one.
	Pool *dispatch.Pool

	// Detector probes the caller's execution context. Defaults to
	// dispatch.DefaultDetector.
	Detector dispatch.Detector

	// Name labels the adapter in metrics.
	Name string

	// Metrics configures Prometheus instrumentation.
	Metrics metrics.Config
}

// Client dispatches HTTP operations over wrapped sessions.
type Client struct {
	config   Config
	base     *url.URL
	pool     *dispatch.Pool
	ownsPool bool
	reg      *metrics.Registry

	doOp *dispatch.Operation[request, []byte]
}

type request struct {
	method  string
	path    string
	body    []byte
	headers map[string]string
	query   url.Values
}

// RequestOption customizes a single request.
type RequestOption func(*request)

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *request) {
		if r.headers == nil {
			r.headers = make(map[string]string)
		}
		r.headers[key] = value
	}
}

// WithQuery adds a query parameter.
func WithQuery(key, value string) RequestOption {
	return func(r *request) {
		if r.query == nil {
			r.query = make(url.Values)
		}
		r.query.Add(key, value)
	}
}

// New creates an ApiClient adapter from the given configuration.
func New(cfg Config) (*Client, error) {
	if err := validation.NotEmpty(resourceName, "BaseURL", cfg.BaseURL); err != nil {
		return nil, err
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, gberrors.NewCallerError(resourceName, "BaseURL", cfg.BaseURL, "must be a valid URL")
	}
	if cfg.Name == "" {
		cfg.Name = resourceName
	}
	if cfg.Detector == nil {
		cfg.Detector = dispatch.DefaultDetector
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	c := &Client{
		config: cfg,
		base:   base,
		pool:   cfg.Pool,
		reg:    cfg.Metrics.Resolve(),
	}
	if c.pool == nil {
		c.pool = dispatch.NewPoolWithConfig(dispatch.Config{
			Workers:   4,
			QueueSize: 64,
			Name:      cfg.Name,
			Metrics:   cfg.Metrics,
		})
		c.ownsPool = true
	}

	opts := []dispatch.Option[request, []byte]{
		dispatch.WithName[request, []byte](cfg.Name + ".do"),
		dispatch.WithDetector[request, []byte](cfg.Detector),
	}
	if cfg.AsyncHTTPClient != nil {
		opts = append(opts, dispatch.WithNativeAsync[request, []byte](
			dispatch.AsyncFunc[request, []byte](c.doOn(cfg.AsyncHTTPClient))))
	}

	c.doOp = dispatch.MustNew(c.pool, c.doOn(cfg.HTTPClient), opts...)
	return c, nil
}

// doOn builds the request implementation bound to one session.
func (c *Client) doOn(client *http.Client) dispatch.SyncFunc[request, []byte] {
	return func(ctx context.Context, r request) ([]byte, error) {
		u := c.base.JoinPath(r.path)
		if len(r.query) > 0 {
			u.RawQuery = r.query.Encode()
		}

		var body io.Reader
		if r.body != nil {
			body = bytes.NewReader(r.body)
		}

		req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
		if err != nil {
			return nil, gberrors.NewResourceError(c.config.Name, r.method, err)
		}
		for k, v := range r.headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, gberrors.NewResourceError(c.config.Name, r.method, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, gberrors.NewResourceError(c.config.Name, r.method, err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, gberrors.NewResourceError(c.config.Name, r.method,
				&StatusError{Code: resp.StatusCode, Status: resp.Status})
		}
		return data, nil
	}
}

// Get fetches path relative to the base URL and returns the response
// body. The execution path is chosen per call from the caller's context.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil, opts)
}

// Post sends body to path relative to the base URL and returns the
// response body.
func (c *Client) Post(ctx context.Context, path string, body []byte, opts ...RequestOption) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, body, opts)
}

// GetAsync returns an awaitable for the request, bypassing detection.
func (c *Client) GetAsync(ctx context.Context, path string, opts ...RequestOption) *dispatch.Future[[]byte] {
	r, err := c.buildRequest(http.MethodGet, path, nil, opts)
	if err != nil {
		return dispatch.Resolved[[]byte](nil, err)
	}
	return c.doOp.Async(ctx, r)
}

// PostAsync returns an awaitable for the request, bypassing detection.
func (c *Client) PostAsync(ctx context.Context, path string, body []byte, opts ...RequestOption) *dispatch.Future[[]byte] {
	r, err := c.buildRequest(http.MethodPost, path, body, opts)
	if err != nil {
		return dispatch.Resolved[[]byte](nil, err)
	}
	return c.doOp.Async(ctx, r)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, opts []RequestOption) ([]byte, error) {
	r, err := c.buildRequest(method, path, body, opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := c.doOp.Call(ctx, r)
	c.record(method, start, err)
	return data, err
}

func (c *Client) buildRequest(method, path string, body []byte, opts []RequestOption) (request, error) {
	if err := validation.NotEmpty(c.config.Name, "path", path); err != nil {
		return request{}, err
	}

	r := request{method: method, path: path, body: body}
	for _, opt := range opts {
		opt(&r)
	}
	return r, nil
}

// Close drains and releases the worker pool if the adapter owns it.
func (c *Client) Close() error {
	if c.ownsPool {
		<-c.pool.Shutdown()
	}
	return nil
}

func (c *Client) record(op string, start time.Time, err error) {
	if c.reg == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.reg.ResourceOps.WithLabelValues(c.config.Name, op, status).Inc()
	c.reg.ResourceOpDuration.WithLabelValues(c.config.Name, op).Observe(time.Since(start).Seconds())
}
