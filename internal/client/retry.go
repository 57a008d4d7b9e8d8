package client

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/nDmitry/stackfeed/internal/entity"
)

const (
	DefaultRetryAttempts = 3
	defaultRetryInitial  = 500 * time.Millisecond
	defaultRetryMax      = 30 * time.Second
)

// Retrier wraps a single-attempt Fetcher with a bounded exponential backoff.
// Only transport failures, 429 and 5xx responses are retried.
type Retrier struct {
	fetcher  Fetcher
	attempts uint
	initial  time.Duration
	max      time.Duration
	logger   *slog.Logger
}

func NewRetrier(f Fetcher, attempts int, initial time.Duration, logger *slog.Logger) *Retrier {
	if attempts < 1 {
		attempts = 1
	}

	if initial <= 0 {
		initial = defaultRetryInitial
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Retrier{
		fetcher:  f,
		attempts: uint(attempts),
		initial:  initial,
		max:      defaultRetryMax,
		logger:   logger,
	}
}

func (r *Retrier) Fetch(ctx context.Context, key RequestKey) (*RawResponse, error) {
	if r.attempts == 1 {
		return r.fetcher.Fetch(ctx, key)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initial
	b.MaxInterval = r.max

	attempt := 0

	return backoff.Retry(ctx, func() (*RawResponse, error) {
		attempt++

		resp, err := r.fetcher.Fetch(ctx, key)

		if err == nil {
			return resp, nil
		}

		if !Retryable(err) {
			return nil, backoff.Permanent(err)
		}

		r.logger.Warn("Upstream fetch failed, retrying", "url", key.URL, "attempt", attempt, "error", err)

		return nil, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(r.attempts))
}

// Retryable reports whether a failed fetch may succeed when repeated
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	var transportErr *entity.TransportError

	if errors.As(err, &transportErr) {
		return true
	}

	code := entity.StatusCode(err)

	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
