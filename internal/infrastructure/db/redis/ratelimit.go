package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenBucket refills capacity tokens per interval and takes one per call.
// Returns {allowed, remaining, retry_after_ms}.
var tokenBucket = redis.NewScript(`
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
	tokens = capacity
	last_refill = last_refill + intervals * interval_ms
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

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int64
	RetryAfter time.Duration
}

// RateLimiter is a fixed-capacity token bucket per key, shared by every
// API instance through Redis.
type RateLimiter struct {
	client   *redis.Client
	prefix   string
	capacity int
	interval time.Duration
	now      func() time.Time
}

func NewRateLimiter(client *redis.Client, prefix string, capacity int, interval time.Duration) *RateLimiter {
	if capacity <= 0 {
		capacity = 1
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &RateLimiter{
		client:   client,
		prefix:   prefix,
		capacity: capacity,
		interval: interval,
		now:      time.Now,
	}
}

// Allow takes a token from the bucket for key.
func (l *RateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	ttl := int64(2 * l.interval / time.Second)
	if ttl < 1 {
		ttl = 1
	}
	args := []any{l.now().UnixMilli(), l.capacity, l.interval.Milliseconds(), ttl}

	vals, err := tokenBucket.Run(ctx, l.client, []string{l.key(key)}, args...).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit: %w", err)
	}
	if len(vals) != 3 {
		return Decision{}, fmt.Errorf("rate limit: unexpected script result %v", vals)
	}
	return Decision{
		Allowed:    vals[0] == 1,
		Limit:      l.capacity,
		Remaining:  vals[1],
		RetryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

func (l *RateLimiter) key(k string) string {
	return l.prefix + ":" + k + ":" + strconv.Itoa(l.capacity)
}
