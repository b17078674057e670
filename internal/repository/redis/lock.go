package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/chatdesk/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	sessionLockPrefix = "lock:session:"
	lockPollInterval  = 50 * time.Millisecond
)

// Deletes the key only while it still holds our token, so an expired lock
// taken over by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SessionLock serializes work on one session across server instances
type SessionLock struct {
	client  *Client
	ttl     time.Duration
	timeout time.Duration
}

// NewSessionLock creates a lock whose keys expire after ttl. Acquisition
// gives up with domain.ErrSessionBusy after timeout.
func NewSessionLock(client *Client, ttl, timeout time.Duration) *SessionLock {
	return &SessionLock{client: client, ttl: ttl, timeout: timeout}
}

// Lock blocks until the session key is held, ctx is done or the timeout passes
func (l *SessionLock) Lock(ctx context.Context, key string) (func(), error) {
	fullKey := sessionLockPrefix + key
	token := uuid.NewString()

	deadline := time.NewTimer(l.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.rdb.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire session lock: %w", err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, domain.ErrSessionBusy
		case <-ticker.C:
		}
	}

	return func() {
		err := releaseScript.Run(context.WithoutCancel(ctx), l.client.rdb, []string{fullKey}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			log.Error().Err(err).Str("key", fullKey).Msg("failed to release session lock")
		}
	}, nil
}
