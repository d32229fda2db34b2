// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP retry policy shared by the
// scraping stages.
package httputil

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryBaseDelay is the initial backoff interval for transient fetch
// failures. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const defaultMaxAttempts = 3

// IsTransient reports whether an HTTP status is worth retrying.
// Rate limiting (429) and server errors (5xx) are transient; anything
// else, notably 4xx, signals a structural problem retries cannot fix.
func IsTransient(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// RetryAfter returns the wait the server requested via the Retry-After
// header, or zero when the header is absent or unparseable. Both
// delta-seconds and HTTP-date forms are accepted.
func RetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// NewBackOff returns the fetch retry policy: exponential waits starting
// at RetryBaseDelay, doubling each attempt, stopping after maxAttempts
// total attempts (maxAttempts-1 waits) or when ctx is cancelled. When
// maxAttempts is 0 the default (3) is used.
func NewBackOff(ctx context.Context, maxAttempts int) backoff.BackOff {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = RetryBaseDelay
	eb.Multiplier = 2
	eb.RandomizationFactor = 0
	eb.MaxInterval = 5 * time.Minute
	eb.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(maxAttempts-1)), ctx)
}
