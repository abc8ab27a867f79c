// Package ratelimit throttles uploads per user with a Redis-backed token
// bucket, so the limit holds across every API replica.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/phambaophuc/rewind-photos/internal/config"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "rewind:ratelimit:upload"

type Decision struct {
	Allowed    bool
	Remaining  int64
	Limit      int64
	RetryAfter time.Duration
}

// RateLimiter decides whether subject may make another request.
type RateLimiter interface {
	Allow(ctx context.Context, subject string) (Decision, error)
}

// NewRedisClient builds the client shared by the limiter and health checks.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// tokenBucketScript refills the bucket for the time elapsed since the last
// call, takes the requested tokens if available and returns
// {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local refill_per_ms = tonumber(ARGV[2])
local now_ms = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])
local ttl_ms = tonumber(ARGV[5])

local data = redis.call("HMGET", key, "tokens", "timestamp")
local tokens = tonumber(data[1])
local timestamp = tonumber(data[2])

if tokens == nil then
  tokens = capacity
end
if timestamp == nil then
  timestamp = now_ms
end

local elapsed = math.max(0, now_ms - timestamp)
tokens = math.min(capacity, tokens + (elapsed * refill_per_ms))

local allowed = 0
local retry_after_ms = 0
if tokens >= requested then
  tokens = tokens - requested
  allowed = 1
else
  retry_after_ms = math.ceil((requested - tokens) / refill_per_ms)
end

redis.call("HMSET", key, "tokens", tostring(tokens), "timestamp", tostring(now_ms))
redis.call("PEXPIRE", key, ttl_ms)

return {allowed, math.floor(tokens), retry_after_ms}
`)

// RedisTokenBucket allows capacity requests per window for each subject,
// refilling continuously.
type RedisTokenBucket struct {
	client      redis.UniversalClient
	capacity    int64
	refillPerMS float64
	ttl         time.Duration
	keyPrefix   string
	now         func() time.Time
}

func NewRedisTokenBucket(client redis.UniversalClient, cfg config.RateLimitConfig, keyPrefix string) (*RedisTokenBucket, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.Requests <= 0 {
		return nil, fmt.Errorf("rate limit requests must be positive")
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("rate limit window must be positive")
	}
	if strings.TrimSpace(keyPrefix) == "" {
		keyPrefix = defaultKeyPrefix
	}

	windowMS := max(cfg.Window.Milliseconds(), 1)

	return &RedisTokenBucket{
		client:      client,
		capacity:    int64(cfg.Requests),
		refillPerMS: float64(cfg.Requests) / float64(windowMS),
		ttl:         2 * cfg.Window,
		keyPrefix:   keyPrefix,
		now:         time.Now,
	}, nil
}

func (l *RedisTokenBucket) Allow(ctx context.Context, subject string) (Decision, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "anonymous"
	}

	key := fmt.Sprintf("%s:%s", l.keyPrefix, subject)
	raw, err := tokenBucketScript.Run(
		ctx,
		l.client,
		[]string{key},
		l.capacity,
		l.refillPerMS,
		l.now().UTC().UnixMilli(),
		1,
		l.ttl.Milliseconds(),
	).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("run token bucket script: %w", err)
	}

	values, ok := raw.([]any)
	if !ok || len(values) != 3 {
		return Decision{}, fmt.Errorf("invalid token bucket response")
	}

	parsed := make([]int64, len(values))
	for i, v := range values {
		if parsed[i], err = toInt64(v); err != nil {
			return Decision{}, fmt.Errorf("parse token bucket value %d: %w", i, err)
		}
	}

	return Decision{
		Allowed:    parsed[0] == 1,
		Remaining:  parsed[1],
		Limit:      l.capacity,
		RetryAfter: time.Duration(parsed[2]) * time.Millisecond,
	}, nil
}

func toInt64(in any) (int64, error) {
	switch v := in.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", in)
	}
}
