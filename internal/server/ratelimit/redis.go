package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindow trims the sorted set to the window, then records one hit if
// the count is still below the rate. It runs atomically inside Redis.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local window_start = tonumber(ARGV[1])
	local now = tonumber(ARGV[2])
	local rate = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])
	local member = ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	if redis.call('ZCARD', key) >= rate then
		return 0
	end

	redis.call('ZADD', key, now, member)
	redis.call('PEXPIRE', key, window_ms)

	return 1
`)

// RedisLimiter shares limits between every process using the same Redis.
type RedisLimiter struct {
	client    redis.Cmdable
	keyPrefix string
	rate      int
	window    time.Duration
	now       func() time.Time
	closer    func() error
}

// NewRedisLimiter limits through client. The client stays owned by the caller.
// A non-positive rate or window allows everything without touching Redis.
func NewRedisLimiter(client redis.Cmdable, keyPrefix string, rate int, window time.Duration) *RedisLimiter {
	if keyPrefix == "" {
		keyPrefix = "decisionkeeper:ratelimit:"
	}
	return &RedisLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		rate:      rate,
		window:    window,
		now:       time.Now,
		closer:    func() error { return nil },
	}
}

// DialRedis connects to addr and returns a limiter that closes the client on
// Close.
func DialRedis(ctx context.Context, addr string, rate int, window time.Duration) (*RedisLimiter, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	l := NewRedisLimiter(client, "", rate, window)
	l.closer = client.Close
	return l, nil
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if disabled(r.rate, r.window) {
		return true, nil
	}

	now := r.now()

	result, err := slidingWindow.Run(ctx, r.client, []string{r.keyPrefix + key},
		now.Add(-r.window).UnixMicro(),
		now.UnixMicro(),
		r.rate,
		r.window.Milliseconds(),
		uuid.NewString(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis rate limit script failed: %w", err)
	}

	return result == 1, nil
}

func (r *RedisLimiter) Close() error {
	return r.closer()
}
