package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rateLimitPrefix = "ratelimit:user:"
	rateLimitWindow = time.Minute
)

// Counts one hit and arms the expiry on the first hit of a window, atomically.
var hitScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// RateLimiter caps requests per user in fixed one-minute windows. Each window
// has its own key, so a window's counter never leaks into the next.
type RateLimiter struct {
	client *Client
	limit  int64
	now    func() time.Time
}

// NewRateLimiter allows requestsPerMinute+burst requests per user per window
func NewRateLimiter(client *Client, requestsPerMinute, burst int) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  int64(requestsPerMinute + burst),
		now:    time.Now,
	}
}

// Allow records a request for key and reports whether it fits the window,
// how many requests remain and when the window resets.
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	windowStart := r.now().Truncate(rateLimitWindow)
	resetAt := windowStart.Add(rateLimitWindow)

	count, err := hitScript.Run(ctx, r.client.rdb,
		[]string{windowKey(key, windowStart)},
		rateLimitWindow.Milliseconds(),
	).Int64()
	if err != nil {
		return false, 0, time.Time{}, fmt.Errorf("failed to record request: %w", err)
	}

	remaining := max(r.limit-count, 0)
	return count <= r.limit, int(remaining), resetAt, nil
}

// Reset clears the current window for key
func (r *RateLimiter) Reset(ctx context.Context, key string) error {
	windowStart := r.now().Truncate(rateLimitWindow)
	return r.client.rdb.Del(ctx, windowKey(key, windowStart)).Err()
}

func windowKey(key string, windowStart time.Time) string {
	return rateLimitPrefix + key + ":" + strconv.FormatInt(windowStart.Unix(), 10)
}
