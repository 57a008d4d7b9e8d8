// Package client owns all outbound network access: a process-wide throttle
// in front of an HTTP client, backed by an expiring response cache.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/nDmitry/stackfeed/internal/cache"
	"github.com/nDmitry/stackfeed/internal/entity"
	"github.com/nDmitry/stackfeed/internal/metrics"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	DefaultUserAgent      = "stackfeed/1.0 (+https://github.com/nDmitry/stackfeed)"
	DefaultMinInterval    = time.Second
	DefaultCacheTTL       = 15 * time.Minute
	DefaultRequestTimeout = 15 * time.Second

	MaxBodyBytes = 10 << 20
)

// RawResponse is an upstream payload, either fresh or served from the cache
type RawResponse struct {
	URL         string
	Body        []byte
	ContentType string
	FromCache   bool
	ExpiresAt   time.Time
}

func (r *RawResponse) clone() *RawResponse {
	c := *r
	c.Body = bytes.Clone(r.Body)

	return &c
}

// Fetcher performs a single logical fetch of an upstream resource
type Fetcher interface {
	Fetch(ctx context.Context, key RequestKey) (*RawResponse, error)
}

// Options configure a Client. Zero values fall back to the defaults.
type Options struct {
	UserAgent      string
	MinInterval    time.Duration
	CacheTTL       time.Duration
	RequestTimeout time.Duration
	HTTPClient     *http.Client
	Logger         *slog.Logger
}

// Client is the single point of outbound network access. No two dispatched
// requests start closer together than MinInterval, and a cache hit never
// touches the network. It performs no retries, see Retrier.
type Client struct {
	http      *http.Client
	cache     cache.Cache
	limiter   *rate.Limiter
	flights   singleflight.Group
	userAgent string
	interval  time.Duration
	ttl       time.Duration
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func New(c cache.Cache, opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}

	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = NewHTTPClient(opts.RequestTimeout)
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	limit := rate.Inf

	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}

	return &Client{
		http:      opts.HTTPClient,
		cache:     c,
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: opts.UserAgent,
		interval:  opts.MinInterval,
		ttl:       opts.CacheTTL,
		timeout:   opts.RequestTimeout,
		logger:    opts.Logger,
		now:       time.Now,
	}
}

// MinInterval returns the configured minimum gap between dispatched requests
func (c *Client) MinInterval() time.Duration {
	return c.interval
}

// CacheTTL returns the lifetime of a cached response
func (c *Client) CacheTTL() time.Duration {
	return c.ttl
}

// Fetch returns the response for key from the cache, or waits for the
// throttle and performs the request. Concurrent callers for the same key
// share one in-flight request, and each of them returns as soon as its own
// ctx is done.
func (c *Client) Fetch(ctx context.Context, key RequestKey) (*RawResponse, error) {
	id := key.String()

	if resp, ok := c.lookup(ctx, id, key); ok {
		return resp, nil
	}

	for {
		ch := c.flights.DoChan(id, func() (any, error) {
			if resp, ok := c.lookup(ctx, id, key); ok {
				return resp, nil
			}

			resp, err := c.dispatch(ctx, id, key)

			if err != nil && ctx.Err() != nil {
				return nil, &cancelledFlightError{err: err}
			}

			return resp, err
		})

		var res singleflight.Result

		// A caller sharing another caller's request can still leave early
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("could not wait for in-flight request: %w", ctx.Err())
		case res = <-ch:
		}

		if res.Err != nil {
			var cancelled *cancelledFlightError

			if errors.As(res.Err, &cancelled) {
				// The caller that led the shared request went away
				if ctx.Err() == nil {
					continue
				}

				return nil, cancelled.err
			}

			return nil, res.Err
		}

		return res.Val.(*RawResponse).clone(), nil
	}
}

func (c *Client) lookup(ctx context.Context, id string, key RequestKey) (*RawResponse, bool) {
	entry, err := c.cache.Get(ctx, id)

	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Error("Cache error", "key", id, "error", err)
		}

		metrics.RecordCacheLookup(false)

		return nil, false
	}

	metrics.RecordCacheLookup(true)
	c.logger.Debug("Cache hit", "url", key.URL)

	return &RawResponse{
		URL:         key.URL,
		Body:        entry.Body,
		ContentType: entry.ContentType,
		FromCache:   true,
		ExpiresAt:   entry.ExpiresAt,
	}, true
}

func (c *Client) dispatch(ctx context.Context, id string, key RequestKey) (*RawResponse, error) {
	waitStart := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("could not wait for throttle: %w", ctx.Err())
		}

		// The wait would outlive the caller's deadline
		return nil, &entity.TransportError{URL: key.URL, Timeout: true, Err: err}
	}

	metrics.ThrottleWait.Observe(time.Since(waitStart).Seconds())

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, key.URL, nil)

	if err != nil {
		return nil, fmt.Errorf("could not create request for %s: %w", key.URL, err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	if key.Accept != "" {
		req.Header.Set("Accept", key.Accept)
	}

	c.logger.Debug("Dispatching upstream request", "url", key.URL)

	hc := c.http

	if key.NoRedirect {
		noFollow := *c.http
		noFollow.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
		hc = &noFollow
	}

	start := time.Now()
	res, err := hc.Do(req)

	if err != nil {
		metrics.RecordUpstream("transport_error", time.Since(start).Seconds())
		return nil, newTransportError(key.URL, err)
	}

	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		metrics.RecordUpstream("status_error", time.Since(start).Seconds())
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 64<<10))

		return nil, &entity.UpstreamStatusError{URL: key.URL, StatusCode: res.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, MaxBodyBytes+1))

	if err != nil {
		metrics.RecordUpstream("transport_error", time.Since(start).Seconds())
		return nil, newTransportError(key.URL, err)
	}

	if len(body) > MaxBodyBytes {
		metrics.RecordUpstream("malformed", time.Since(start).Seconds())
		return nil, &entity.MalformedResponseError{URL: key.URL, Reason: "body too large"}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		metrics.RecordUpstream("malformed", time.Since(start).Seconds())
		return nil, &entity.MalformedResponseError{URL: key.URL, Reason: "empty body"}
	}

	metrics.RecordUpstream("ok", time.Since(start).Seconds())

	entry := cache.Entry{
		Body:        body,
		ContentType: res.Header.Get("Content-Type"),
		ExpiresAt:   c.now().Add(c.ttl),
	}

	// Only complete bodies reach the cache, a cancelled read never does
	if err := c.cache.Set(ctx, id, entry); err != nil {
		c.logger.Error("Failed to cache response", "url", key.URL, "error", err)
	}

	return &RawResponse{
		URL:         key.URL,
		Body:        body,
		ContentType: entry.ContentType,
		ExpiresAt:   entry.ExpiresAt,
	}, nil
}

func newTransportError(url string, err error) *entity.TransportError {
	var netErr net.Error

	timeout := errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())

	return &entity.TransportError{URL: url, Timeout: timeout, Err: err}
}

// cancelledFlightError marks a shared request that failed because the
// context of the caller running it was cancelled.
type cancelledFlightError struct {
	err error
}

func (e *cancelledFlightError) Error() string {
	return e.err.Error()
}

func (e *cancelledFlightError) Unwrap() error {
	return e.err
}
