package limiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/layer-3/walletauth/ports"
)

var _ ports.AttemptLimiter = (*RedisLimiter)(nil)

// KEYS[1] counter; ARGV[1] window in milliseconds.
// A counter left without a TTL gets one on the next failure.
var recordFailureLua = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// RedisLimiter counts failures in a fixed window shared by all instances
type RedisLimiter struct {
	client      redis.UniversalClient
	maxAttempts int
	window      time.Duration
	prefix      string
}

// NewRedisLimiter creates a limiter allowing maxAttempts failures per window
func NewRedisLimiter(client redis.UniversalClient, maxAttempts int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:      client,
		maxAttempts: maxAttempts,
		window:      window,
		prefix:      "walletauth:attempts:",
	}
}

// Allow reports whether key has failures left in the current window
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.client.Get(ctx, l.prefix+key).Int64()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read attempt counter: %w", err)
	}
	return count < int64(l.maxAttempts), nil
}

// RecordFailure increments the counter, starting the window on the first hit
func (l *RedisLimiter) RecordFailure(ctx context.Context, key string) error {
	err := recordFailureLua.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("failed to increment attempt counter: %w", err)
	}
	return nil
}

// Reset clears the counter
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to reset attempt counter: %w", err)
	}
	return nil
}
