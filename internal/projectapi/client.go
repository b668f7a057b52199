// Package projectapi is the client for the project service REST API: commit
// diffs, repository trees and file contents.
package projectapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/talenthium/patchtree/internal/cachemanager"
	"github.com/talenthium/patchtree/internal/log"
	"github.com/talenthium/patchtree/internal/tracing"
)

const (
	DefaultTimeout  = 15 * time.Second
	DefaultCacheTTL = 5 * time.Minute
	DefaultRetries  = 3

	// maxResponseBody bounds decoded payloads.
	maxResponseBody = 32 << 20
)

// AuthState carries the bearer token for requests. The zero value sends no
// Authorization header.
type AuthState struct {
	Token string
}

// Authenticated reports whether a token is present.
func (a AuthState) Authenticated() bool {
	return a.Token != ""
}

// scope identifies the token in cache keys without storing it.
func (a AuthState) scope() string {
	if a.Token == "" {
		return "anon"
	}
	sum := sha256.Sum256([]byte(a.Token))
	return hex.EncodeToString(sum[:6])
}

// Client talks to the project service.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	auth    AuthState
	tracer  trace.Tracer
	retries uint
	ttl     time.Duration

	reads *cachemanager.ReadThroughCache[string, []byte, request]
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout. The client in use is copied first,
// so an http.Client passed to WithHTTPClient is left untouched.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			return
		}
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// WithCache serves reads through cache with the given ttl. A nil cache disables caching.
func WithCache(cache cachemanager.CacheManager[string, []byte], ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.ttl = ttl
		}
		c.reads = cachemanager.NewReadThroughCache[string, []byte, request](cache, c.do, cache == nil)
	}
}

// WithTracer opens a client span per request.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) { c.tracer = tracer }
}

// WithRetries sets how many attempts are made for transient failures. 1 disables retrying.
func WithRetries(n uint) Option {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
		}
	}
}

// New creates a client for the service at baseURL.
func New(baseURL string, auth AuthState, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: DefaultTimeout},
		auth:    auth,
		retries: DefaultRetries,
		ttl:     DefaultCacheTTL,
	}
	c.reads = cachemanager.NewReadThroughCache[string, []byte, request](nil, c.do, true)
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Auth returns the client's auth state.
func (c *Client) Auth() AuthState {
	return c.auth
}

// request is one GET against the service.
type request struct {
	name  string
	path  string
	query url.Values
	attrs []attribute.KeyValue
}

func (r request) cacheKey(scope string) string {
	key := scope + ":" + r.path
	if len(r.query) > 0 {
		key += "?" + r.query.Encode()
	}
	return key
}

// get returns the response body for req, from cache when possible.
func (c *Client) get(ctx context.Context, req request) ([]byte, error) {
	ctx, span := tracing.Start(ctx, c.tracer, tracing.SpanPrefixAPI+req.name, req.attrs...)
	defer span.End()

	body, hit, err := c.reads.Lookup(ctx, req.cacheKey(c.auth.scope()), req, c.ttl)
	span.SetAttributes(attribute.Bool(tracing.AttrCacheHit, hit))
	tracing.Finish(span, err)
	return body, err
}

// do performs req with retries for transport errors and temporary statuses.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + req.path
	u.RawQuery = req.query.Encode()
	target := u.String()

	attempt := 0
	return backoff.Retry(ctx, func() ([]byte, error) {
		attempt++
		body, err := c.once(ctx, target, req.path)
		if err == nil {
			return body, nil
		}

		var se *StatusError
		if errors.As(err, &se) && !se.Temporary() {
			return nil, backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		log.Warn(log.CatAPI, "Request failed, retrying", "path", req.path, "attempt", attempt, "error", err)
		return nil, err
	},
		backoff.WithBackOff(newBackOff()),
		backoff.WithMaxTries(c.retries),
	)
}

func newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return b
}

func (c *Client) once(ctx context.Context, target, path string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.auth.Authenticated() {
		httpReq.Header.Set("Authorization", "Bearer "+c.auth.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		log.ErrorErr(log.CatAPI, "Request error", err, "path", path)
		return nil, fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	log.Debug(log.CatAPI, "Request complete", "path", path, "status", resp.StatusCode, "bytes", len(body), "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: msg, Path: path}
	}
	return body, nil
}
