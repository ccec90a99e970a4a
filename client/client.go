// Package client is the single request pipeline for the medgas backend.
//
// Every call goes through the same stages:
//
//	before-send hooks   (credential, request id)
//	transport           (rate limiter, net/http)
//	after-receive hooks (401 teardown)
//
// Do wraps each call in an OpenTelemetry client span.
//
// The stages are plain function values composed with Wrap, so each one can
// be tested on its own. ForSession wires the standard hooks around a
// session store:
//
//	sig := client.NewSignal()
//	c, err := client.ForSession(client.Config{BaseURL: "http://localhost:8000/api"}, store, sig)
//
//	var hospitals []domain.Hospital
//	err = c.Get(ctx, "/hospitales/", client.Params{"estado": true}, &hospitals)
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/getkayan/medgas/logger"
	"github.com/getkayan/medgas/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config holds client configuration.
type Config struct {
	// BaseURL including the /api prefix.
	BaseURL string
	Timeout time.Duration
	// RateLimit in requests per second; zero disables limiting.
	RateLimit float64
	RateBurst int
	// Transport is the base round tripper, http.DefaultTransport when nil.
	Transport http.RoundTripper
}

// Option configures the pipeline.
type Option func(*options)

type options struct {
	before []BeforeSend
	after  []AfterReceive
}

// WithBefore appends a before-send hook.
func WithBefore(h BeforeSend) Option {
	return func(o *options) { o.before = append(o.before, h) }
}

// WithAfter appends an after-receive hook.
func WithAfter(h AfterReceive) Option {
	return func(o *options) { o.after = append(o.after, h) }
}

// Client is the configured pipeline. It is safe for concurrent use.
type Client struct {
	baseURL string
	headers http.Header
	http    *http.Client
}

// New builds a client from cfg and hooks.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("client: BaseURL is required")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		base = limit(base, rate.NewLimiter(rate.Limit(cfg.RateLimit), burst))
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		headers: headers,
		http: &http.Client{
			Timeout:   timeout,
			Transport: Wrap(base, Before(o.before...), After(o.after...)),
		},
	}, nil
}

// ForSession builds a client that authenticates from store and tears it
// down on 401, announcing it on sig.
func ForSession(cfg Config, store interface {
	SessionReader
	SessionClearer
}, sig *Signal, opts ...Option) (*Client, error) {
	std := []Option{
		WithBefore(AttachCredential(store)),
		WithBefore(RequestID()),
		WithAfter(InvalidateOnUnauthorized(store, sig)),
	}
	return New(cfg, append(std, opts...)...)
}

func limit(base http.RoundTripper, l *rate.Limiter) http.RoundTripper {
	return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		if err := l.Wait(req.Context()); err != nil {
			return nil, err
		}
		return base.RoundTrip(req)
	})
}

// BaseURL returns the configured base address.
func (c *Client) BaseURL() string { return c.baseURL }

// Do sends r and returns the 2xx response, or an *APIError.
func (c *Client) Do(ctx context.Context, r *Request) (resp *Response, err error) {
	ctx, span := telemetry.StartCall(ctx, r.Method, r.Path)
	defer func() {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			span.SetAttributes(
				attribute.Int(telemetry.AttrStatus, apiErr.Status),
				attribute.String(telemetry.AttrErrorKind, apiErr.Kind.String()),
			)
		} else if resp != nil {
			span.SetAttributes(attribute.Int(telemetry.AttrStatus, resp.Status))
		}
		telemetry.EndSpan(span, err)
	}()

	req, err := c.newRequest(ctx, r)
	if err != nil {
		return nil, err
	}
	telemetry.Inject(ctx, req.Header)

	start := time.Now()
	httpResp, err := c.http.Do(req)
	elapsed := time.Since(start)
	requestDuration.WithLabelValues(r.Method).Observe(elapsed.Seconds())

	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			requestsTotal.WithLabelValues(r.Method, strconv.Itoa(apiErr.Status)).Inc()
			return nil, apiErr
		}
		requestsTotal.WithLabelValues(r.Method, "error").Inc()
		logger.Log.Debug("api call failed",
			zap.String("method", r.Method),
			zap.String("path", r.Path),
			zap.Error(err),
		)
		return nil, &APIError{Kind: KindNetwork, Message: err.Error(), Err: err}
	}
	defer httpResp.Body.Close()

	requestsTotal.WithLabelValues(r.Method, strconv.Itoa(httpResp.StatusCode)).Inc()
	logger.Log.Debug("api call",
		zap.String("method", r.Method),
		zap.String("path", r.Path),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("latency", elapsed),
		zap.String("request_id", requestID(httpResp)),
	)
	span.SetAttributes(attribute.String(telemetry.AttrRequestID, requestID(httpResp)))

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &APIError{Status: httpResp.StatusCode, Kind: KindNetwork, Message: "incomplete response body", Err: err}
	}

	if httpResp.StatusCode >= 400 {
		return nil, newAPIError(httpResp.StatusCode, body)
	}

	return &Response{Status: httpResp.StatusCode, Header: httpResp.Header, Body: body}, nil
}

func requestID(resp *http.Response) string {
	if resp.Request == nil {
		return ""
	}
	return resp.Request.Header.Get(HeaderRequestID)
}

func (c *Client) newRequest(ctx context.Context, r *Request) (*http.Request, error) {
	target := c.baseURL + r.Path
	if q := r.Params.Values(); len(q) > 0 {
		target += "?" + q.Encode()
	}

	var body io.Reader
	contentType := c.headers.Get("Content-Type")
	switch {
	case r.Multipart != nil:
		data, ct, err := r.Multipart.encode()
		if err != nil {
			return nil, fmt.Errorf("client: encode multipart: %w", err)
		}
		body, contentType = data, ct
	case r.Form != nil:
		body = strings.NewReader(r.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case r.Body != nil:
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("client: encode body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, err
	}

	for k, vs := range c.headers {
		req.Header[k] = append([]string(nil), vs...)
	}
	for k, vs := range r.Header {
		req.Header[k] = append([]string(nil), vs...)
	}
	req.Header.Set("Content-Type", contentType)
	if r.ResponseType == ResponseBlob {
		req.Header.Set("Accept", "*/*")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	return req, nil
}

// ---- HTTP Helpers ----

func (c *Client) Get(ctx context.Context, path string, params Params, out any) error {
	return c.call(ctx, &Request{Method: http.MethodGet, Path: path, Params: params}, out)
}

func (c *Client) Post(ctx context.Context, path string, body any, params Params, out any) error {
	return c.call(ctx, &Request{Method: http.MethodPost, Path: path, Body: body, Params: params}, out)
}

func (c *Client) Put(ctx context.Context, path string, body any, params Params, out any) error {
	return c.call(ctx, &Request{Method: http.MethodPut, Path: path, Body: body, Params: params}, out)
}

func (c *Client) Delete(ctx context.Context, path string, params Params, out any) error {
	return c.call(ctx, &Request{Method: http.MethodDelete, Path: path, Params: params}, out)
}

// Download performs a call whose success body is binary.
func (c *Client) Download(ctx context.Context, method, path string, body any, params Params) (*Response, error) {
	return c.Do(ctx, &Request{Method: method, Path: path, Body: body, Params: params, ResponseType: ResponseBlob})
}

// Call sends r and decodes a JSON body into out when out is non-nil.
func (c *Client) Call(ctx context.Context, r *Request, out any) error {
	return c.call(ctx, r, out)
}

func (c *Client) call(ctx context.Context, r *Request, out any) error {
	resp, err := c.Do(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[0:0], resp.Body...)
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("client: decode %s %s: %w", r.Method, r.Path, err)
	}
	return nil
}
