package datasource

import (
	"context"
	"fmt"
	"io"
	"time"

	"ventes/internal/model"
)

// RetryPolicy bounds the re-open attempts for a source that fails
// transiently.
//
// Zero values are given sensible defaults by WithRetry:
//   - MaxRetries:     3
//   - InitialBackoff: 200ms
//   - MaxBackoff:     5s
type RetryPolicy struct {
	// MaxRetries is the number of retry attempts after the initial one.
	// Negative disables retries entirely.
	MaxRetries int

	// InitialBackoff is the base backoff for the first retry. Each
	// subsequent retry doubles the previous backoff up to MaxBackoff.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff duration.
	MaxBackoff time.Duration
}

// retrying decorates a Source with bounded retry and exponential backoff.
// When all attempts fail it reports model.ErrSourceUnavailable with the
// source name attached, which aborts the run per the error policy.
type retrying struct {
	src    Source
	policy RetryPolicy

	// sleep is injectable to make tests fast and deterministic.
	sleep func(time.Duration)
}

// WithRetry wraps src with the given policy. Defaults are applied for zero
// policy fields.
func WithRetry(src Source, policy RetryPolicy) Source {
	if policy.MaxRetries == 0 {
		policy.MaxRetries = 3
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.InitialBackoff <= 0 {
		policy.InitialBackoff = 200 * time.Millisecond
	}
	if policy.MaxBackoff <= 0 {
		policy.MaxBackoff = 5 * time.Second
	}
	return &retrying{src: src, policy: policy, sleep: time.Sleep}
}

func (r *retrying) Name() string { return r.src.Name() }

// Open attempts to open the underlying source, retrying with exponential
// backoff on failure. Context cancellation is respected before each attempt
// and during backoff waits.
func (r *retrying) Open(ctx context.Context) (io.ReadCloser, error) {
	attempts := r.policy.MaxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rc, err := r.src.Open(ctx)
		if err == nil {
			return rc, nil
		}
		lastErr = err

		if attempt+1 >= attempts {
			break
		}
		backoff := backoffDuration(r.policy.InitialBackoff, attempt, r.policy.MaxBackoff)
		if err := sleepWithContext(ctx, r.sleep, backoff); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: %s after %d attempts: %v",
		model.ErrSourceUnavailable, r.src.Name(), attempts, lastErr)
}

// backoffDuration returns the exponential backoff duration for the given
// attempt number (0-based retry index), clamped to max.
func backoffDuration(initial time.Duration, attempt int, max time.Duration) time.Duration {
	if attempt <= 0 {
		if initial > max {
			return max
		}
		return initial
	}
	d := initial << attempt
	if d > max || d <= 0 {
		return max
	}
	return d
}

// sleepWithContext sleeps for d using the provided sleep function, aborting
// early if ctx is canceled.
func sleepWithContext(ctx context.Context, sleep func(time.Duration), d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	done := make(chan struct{})
	go func() {
		sleep(d)
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
