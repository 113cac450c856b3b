package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultMaxLoginAttempts = 5
	DefaultLoginWindow      = 15 * time.Minute
)

type RateLimiter struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{
		client:      client,
		maxAttempts: DefaultMaxLoginAttempts,
		window:      DefaultLoginWindow,
	}
}

// CheckLoginAttempt counts an attempt and reports whether it is allowed
// along with the attempts left in the window.
func (r *RateLimiter) CheckLoginAttempt(ctx context.Context, ip, userID string) (bool, int64, error) {
	key := loginKey(ip, userID)

	// EXPIRE NX in the same transaction also repairs a counter left
	// without a TTL.
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to count login attempt: %w", err)
	}
	count := incr.Val()

	remaining := r.maxAttempts - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= r.maxAttempts, remaining, nil
}

// ResetLoginAttempts clears the counter after a successful login
func (r *RateLimiter) ResetLoginAttempts(ctx context.Context, ip, userID string) error {
	return r.client.Del(ctx, loginKey(ip, userID)).Err()
}

func loginKey(ip, userID string) string {
	return fmt.Sprintf("ratelimit:login:%s:%s", ip, userID)
}
