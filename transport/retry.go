// Package transport sends JSON requests to completion services, retrying
// failures with exponential backoff.
package transport

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vitalia"
)

const (
	defaultMaxRetries     = 5
	defaultInitialBackoff = time.Second
)

// Policy bounds the retry loop. MaxRetries counts retries after the first
// attempt, so a call makes at most MaxRetries+1 attempts. The delay starts at
// InitialBackoff and doubles after every failed attempt, without jitter.
type Policy struct {
	MaxRetries     int
	InitialBackoff time.Duration
}

func DefaultPolicy() Policy {
	return Policy{MaxRetries: defaultMaxRetries, InitialBackoff: defaultInitialBackoff}
}

func PolicyFromConfig(cfg vitalia.RetryConfig) Policy {
	p := Policy{MaxRetries: cfg.MaxRetries, InitialBackoff: cfg.InitialBackoff}
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = defaultInitialBackoff
	}
	return p
}

type sleepFunc func(ctx context.Context, d time.Duration) error

// Retrier runs an operation under a Policy. Attempts are strictly sequential.
type Retrier struct {
	policy Policy
	sleep  sleepFunc
}

func NewRetrier(policy Policy) *Retrier {
	return &Retrier{policy: policy, sleep: sleepContext}
}

// Do calls fn until it succeeds or the retries run out. The final failure is
// returned as a *vitalia.RequestError wrapping the last attempt's error.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	span := trace.SpanFromContext(ctx)
	backoff := r.policy.InitialBackoff
	maxAttempts := r.policy.MaxRetries + 1

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}

		if attempt == maxAttempts {
			break
		}

		slog.Warn("TRANSPORT: Attempt failed, backing off",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"backoff_ms", backoff.Milliseconds(),
			"error", err,
		)
		span.AddEvent("Retrying request", trace.WithAttributes(
			attribute.Int("attempt", attempt),
			attribute.Int64("backoff_ms", backoff.Milliseconds()),
			attribute.String("error", err.Error()),
		))

		if serr := r.sleep(ctx, backoff); serr != nil {
			return &vitalia.RequestError{Attempts: attempt, Err: errors.Join(err, serr)}
		}
		backoff *= 2
	}

	slog.Error("TRANSPORT: Retries exhausted", "attempts", maxAttempts, "error", err)
	return &vitalia.RequestError{Attempts: maxAttempts, Err: err}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
