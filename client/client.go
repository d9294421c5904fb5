package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"inventory.GO/config"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 32 << 20

// Client calls the inventory service below one base URL, e.g.
// http://localhost:8080/api. It keeps no state between calls.
type Client struct {
	baseURL string
	http    *http.Client
	apiKey  string
	user    string
	pass    string
	log     *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// WithAPIKey sends key in the X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

func WithBasicAuth(user, pass string) Option {
	return func(c *Client) { c.user, c.pass = user, pass }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     zap.L(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig builds a client from API_URL, API_TIMEOUT and the API_*
// credentials.
func NewFromConfig(cfg *config.Config, opts ...Option) *Client {
	var base []Option
	switch {
	case cfg.APIKey != "":
		base = append(base, WithAPIKey(cfg.APIKey))
	case cfg.APIUser != "":
		base = append(base, WithBasicAuth(cfg.APIUser, cfg.APIPass))
	}
	c := New(cfg.APIURL, append(base, opts...)...)
	// API_TIMEOUT survives WithHTTPClient; an explicit timeout option wins.
	if cfg.APITimeout > 0 && c.http.Timeout == 0 {
		WithTimeout(cfg.APITimeout)(c)
	}
	return c
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one call. path is relative to the base URL and must
// already be escaped.
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	absolute    bool
}

func (c *Client) jsonRequest(op, method, path string, in interface{}) (request, error) {
	r := request{op: op, method: method, path: path}
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return r, err
		}
		r.body = bytes.NewReader(b)
		r.contentType = "application/json"
	}
	return r, nil
}

// do sends r and decodes a 2xx JSON body into out (when out is non-nil).
// Failures are logged here exactly once.
func (c *Client) do(ctx context.Context, r request, out interface{}) error {
	target := c.baseURL + r.path
	if r.absolute {
		target = r.path
	}
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	reqID := uuid.NewString()
	fields := []zap.Field{
		zap.String("op", r.op),
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.String("request_id", reqID),
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, r.body)
	if err != nil {
		c.log.Error("api request not built", append(fields, zap.Error(err))...)
		return &NetworkError{Op: r.op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	} else if c.user != "" {
		req.SetBasicAuth(c.user, c.pass)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.log.Debug("api request cancelled", fields...)
		} else {
			c.log.Error("api request failed", append(fields, zap.Error(err))...)
		}
		return &NetworkError{Op: r.op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.log.Error("api response unreadable", append(fields, zap.Int("status", resp.StatusCode), zap.Error(err))...)
		return &NetworkError{Op: r.op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &ServiceError{Status: resp.StatusCode, Body: string(body), Message: errorMessage(body)}
		c.log.Error("api request rejected", append(fields, zap.Int("status", resp.StatusCode), zap.String("error", se.Message))...)
		return se
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.log.Error("api response malformed", append(fields, zap.Int("status", resp.StatusCode), zap.Error(err))...)
		return &ServiceError{Status: resp.StatusCode, Body: string(body), Message: "malformed response: " + err.Error()}
	}
	return nil
}

// invalid logs and returns a client side validation failure.
func (c *Client) invalid(op, field, msg string) error {
	c.log.Warn("api request not sent", zap.String("op", op), zap.String("field", field), zap.String("reason", msg))
	return &ValidationError{Field: field, Message: msg}
}

func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

// Health succeeds when the service answers GET /health with 200.
func (c *Client) Health(ctx context.Context) error {
	origin := strings.TrimSuffix(c.baseURL, "/api")
	return c.do(ctx, request{op: "Health", method: http.MethodGet, path: origin + "/health", absolute: true}, nil)
}
