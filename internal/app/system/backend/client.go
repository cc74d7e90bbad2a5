// Package backend is the typed client for the external REST API that owns all
// pages, sections and users. Every call carries the caller's bearer token and
// the static domain key.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/seoadmin/internal/app/system/timeouts"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DomainKeyHeader is the header carrying the static domain key.
const DomainKeyHeader = "domainkey"

// maxBody bounds how much of a response body is buffered.
const maxBody = 8 << 20

// HTTPClient matches the subset of http.Client used by Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Credentials is the per-request session context passed into every call.
// A zero value sends no Authorization header.
type Credentials struct {
	Token string
}

// Client talks to the backend REST API.
type Client struct {
	base      *url.URL
	client    HTTPClient
	domainKey string
	logger    *zap.Logger
}

// New constructs a Client for baseURL. A nil client uses a dedicated
// http.Client; a nil logger discards logs.
func New(baseURL, domainKey string, client HTTPClient, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("backend: base URL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("backend: parse base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("backend: base URL must be http or https, got %q", parsed.Scheme)
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	if client == nil {
		client = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base:      parsed,
		client:    client,
		domainKey: domainKey,
		logger:    logger,
	}, nil
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string { return c.base.String() }

// CloseIdleConnections releases pooled connections, if the transport supports it.
func (c *Client) CloseIdleConnections() {
	type idleCloser interface{ CloseIdleConnections() }
	if ic, ok := c.client.(idleCloser); ok {
		ic.CloseIdleConnections()
	}
}

// Ping checks that the backend answers HTTP at all. Any response, even an
// error status, counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Ping(), c.logger, "ping")
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodHead, "", nil, Credentials{})
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("backend: ping: %w", err)
	}
	_ = resp.Body.Close()
	return nil
}

// Forward sends an already-built request body to endpoint and returns the raw
// response for pass-through. The caller closes the body. Forward applies no
// timeout of its own beyond ctx.
func (c *Client) Forward(ctx context.Context, creds Credentials, method, endpoint string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, endpoint, body, creds)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("backend forward failed",
			zap.String("method", method),
			zap.String("url", req.URL.Redacted()),
			zap.String("request_id", req.Header.Get("X-Request-ID")),
			zap.Error(err))
		return nil, fmt.Errorf("backend: forward %s %s: %w", method, endpoint, err)
	}
	c.logger.Debug("backend forward",
		zap.String("method", method),
		zap.String("url", req.URL.Redacted()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	return resp, nil
}

// call sends a JSON request (payload may be nil) and returns the body of a
// successful response.
func (c *Client) call(ctx context.Context, creds Credentials, method, endpoint string, query url.Values, payload any) ([]byte, error) {
	op := method + " /" + strings.TrimPrefix(endpoint, "/")
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Call(), c.logger, op)
	defer cancel()

	var (
		req *http.Request
		err error
	)
	if payload != nil {
		req, err = c.newJSONRequest(ctx, method, endpoint, payload, creds)
	} else {
		req, err = c.newRequest(ctx, method, endpoint, nil, creds)
	}
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}
	return c.roundTrip(req)
}

// roundTrip executes req, maps failures to *APIError and returns the body.
func (c *Client) roundTrip(req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.Redacted()),
			zap.String("request_id", req.Header.Get("X-Request-ID")),
			zap.Error(err))
		return nil, fmt.Errorf("backend: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.errorFromResponse(req, resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("backend: read %s %s: %w", req.Method, req.URL.Path, err)
	}
	c.logger.Debug("backend request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("request_id", req.Header.Get("X-Request-ID")))

	// Some endpoints answer 200 with {status: false, message: ...}.
	var env struct {
		Status *bool `json:"status"`
	}
	if json.Unmarshal(body, &env) == nil && env.Status != nil && !*env.Status {
		apiErr := parseAPIError(resp.StatusCode, body)
		c.logFailure(req, resp.StatusCode, body)
		return nil, apiErr
	}
	return body, nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader, creds Credentials) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("backend: build request: %w", err)
	}
	if creds.Token != "" {
		req.Header.Set("Authorization", "Bearer "+creds.Token)
	}
	if c.domainKey != "" {
		req.Header.Set(DomainKeyHeader, c.domainKey)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil && (method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch) {
		if req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}
	}
	return req, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, endpoint string, payload any, creds Credentials) (*http.Request, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("backend: encode payload: %w", err)
	}
	req, err := c.newRequest(ctx, method, endpoint, &buf, creds)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// resolve joins endpoint onto the base URL, keeping any base path prefix.
func (c *Client) resolve(endpoint string) string {
	if endpoint == "" {
		return c.base.String()
	}
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	ref := &url.URL{Path: strings.TrimPrefix(endpoint, "/")}
	return c.base.ResolveReference(ref).String()
}

func (c *Client) errorFromResponse(req *http.Request, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	c.logFailure(req, resp.StatusCode, body)
	return parseAPIError(resp.StatusCode, body)
}

func (c *Client) logFailure(req *http.Request, status int, body []byte) {
	preview := strings.TrimSpace(string(body))
	if len(preview) > 512 {
		preview = preview[:512] + "..."
	}
	c.logger.Warn("backend error response",
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
		zap.Int("status", status),
		zap.String("request_id", req.Header.Get("X-Request-ID")),
		zap.String("body", preview))
}

// payload strips the {data: ...} envelope when present and non-null.
func payload(body []byte) json.RawMessage {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		return env.Data
	}
	return body
}

// nested returns raw[key] when raw is an object that holds key, else raw.
func nested(raw json.RawMessage, key string) json.RawMessage {
	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) != nil {
		return raw
	}
	if v, ok := obj[key]; ok && len(v) > 0 && string(v) != "null" {
		return v
	}
	return raw
}

func decode(raw json.RawMessage, out any, what string) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("backend: decode %s: %w", what, err)
	}
	return nil
}
