package driven

import (
	"context"
	"time"
)

// RateDecision is the outcome of a single rate limit check.
type RateDecision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter defines the driven port for throttling requests per key.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateDecision, error)
}
