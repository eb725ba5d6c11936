// Package redis implements driven.RateLimiter as a token bucket stored in Redis.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ericfisherdev/codevault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RateLimiter = (*Limiter)(nil)

// tokenBucket refills one token per interval up to capacity and takes one
// token per call. Returns {allowed, remaining, retry_after_ms}.
var tokenBucket = goredis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local interval_ms = tonumber(ARGV[3])
local ttl_seconds = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

local elapsed = math.max(0, now_ms - last_refill)
local intervals = math.floor(elapsed / interval_ms)
if intervals > 0 then
	tokens = math.min(capacity, tokens + intervals)
	last_refill = last_refill + (intervals * interval_ms)
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

// Limiter is a per-key token bucket. Each key starts full with capacity
// tokens and regains one token every interval.
type Limiter struct {
	client   goredis.Scripter
	prefix   string
	capacity int
	interval time.Duration
	now      func() time.Time
}

// NewLimiter creates a Limiter. capacity below 1 is raised to 1 and a
// non-positive interval falls back to one minute.
func NewLimiter(client goredis.Scripter, prefix string, capacity int, interval time.Duration) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Limiter{
		client:   client,
		prefix:   prefix,
		capacity: capacity,
		interval: interval,
		now:      time.Now,
	}
}

// Allow takes one token from the bucket for key.
func (l *Limiter) Allow(ctx context.Context, key string) (driven.RateDecision, error) {
	vals, err := tokenBucket.Run(ctx, l.client, []string{l.prefix + ":" + key},
		l.now().UnixMilli(),
		l.capacity,
		l.interval.Milliseconds(),
		l.ttlSeconds(),
	).Result()
	if err != nil {
		return driven.RateDecision{}, fmt.Errorf("run token bucket: %w", err)
	}
	return l.decision(vals)
}

// ttlSeconds keeps an idle bucket around long enough to refill completely.
func (l *Limiter) ttlSeconds() int64 {
	ttl := time.Duration(l.capacity+1) * l.interval
	return int64(ttl / time.Second)
}

func (l *Limiter) decision(vals any) (driven.RateDecision, error) {
	arr, ok := vals.([]any)
	if !ok || len(arr) != 3 {
		return driven.RateDecision{}, fmt.Errorf("unexpected token bucket result %#v", vals)
	}

	retryMs := asInt64(arr[2])
	return driven.RateDecision{
		Allowed:    asInt64(arr[0]) == 1,
		Limit:      l.capacity,
		Remaining:  int(asInt64(arr[1])),
		RetryAfter: time.Duration(retryMs) * time.Millisecond,
	}, nil
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
