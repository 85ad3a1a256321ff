package hnpixels

import (
	"context"
	"log/slog"
	"time"
)

// Ratelimiter tracks the earliest instant at which the next request to one
// endpoint may be issued. The server is authoritative: the limiter only goes
// into cooldown when a response reports a spent budget, and otherwise assumes
// capacity remains until told otherwise.
//
// A Ratelimiter is not safe for concurrent use. Each Endpoint owns exactly
// one and drives it from a single control loop.
type Ratelimiter struct {
	// guard is the instant at which Lock stops blocking.
	guard  time.Time
	logger *slog.Logger
}

// NewRatelimiter constructs a Ratelimiter. A non-zero warmup delays the first
// permitted request, useful to avoid bursting right after process start.
func NewRatelimiter(warmup time.Duration, logger *slog.Logger) *Ratelimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ratelimiter{guard: time.Now().Add(warmup), logger: logger}
}

// Unlock loads the limiter with the budget reported by the server. A zero
// remaining count puts the limiter into cooldown for reset; any remaining
// budget leaves the guard untouched. The limit parameter is accepted for
// completeness but does not affect state.
func (r *Ratelimiter) Unlock(remaining, limit int, reset time.Duration) {
	if remaining == 0 {
		r.guard = time.Now().Add(reset)
	}
}

// Lock blocks until the guard instant has passed, at which point it is safe
// to issue a request. The wait is bounded and can be cut short by cancelling
// ctx, in which case ctx.Err() is returned.
func (r *Ratelimiter) Lock(ctx context.Context) error {
	wait := time.Until(r.guard)
	if wait <= 0 {
		return nil
	}
	r.logger.Info("sleeping for ratelimit", "wait", wait.Round(10*time.Millisecond))
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
