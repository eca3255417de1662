// Package ratelimit throttles sensitive routes per origin over a fixed
// window, backed by Redis counters.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter maintains a per-origin request counter. The counter uses Redis
// INCR, so increments are atomic under concurrent bursts; the window starts
// at the first request from an origin and the key expires when it elapses.
type Limiter struct {
	client  *redis.Client
	ceiling int
	window  time.Duration
	timeout time.Duration
}

// New constructs a Limiter.
func New(client *redis.Client, ceiling int, window, timeout time.Duration) *Limiter {
	if ceiling <= 0 {
		ceiling = 10
	}
	if window <= 0 {
		window = 5 * time.Minute
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Limiter{client: client, ceiling: ceiling, window: window, timeout: timeout}
}

// Allow increments the counter for origin and reports whether the request is
// within the ceiling.
func (l *Limiter) Allow(ctx context.Context, origin string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	key := l.key(origin)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("ratelimit: incr: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("ratelimit: expire: %w", err)
		}
	}
	return count <= int64(l.ceiling), nil
}

// Ceiling returns the configured request ceiling.
func (l *Limiter) Ceiling() int {
	return l.ceiling
}

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration {
	return l.window
}

func (l *Limiter) key(origin string) string {
	return "ratelimit:sensitive:" + origin
}
