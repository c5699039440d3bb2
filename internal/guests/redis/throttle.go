package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-guests/internal/logger"
)

// Throttle counts failed token and booking-ref lookups per client and blocks
// a client that keeps guessing. A counter expires one window after the
// client's last failure.
type Throttle struct {
	Client *redis.Client
	Limit  int
	Window time.Duration
	Logger *logger.Logger
}

func NewThrottle(client *redis.Client, limit int, window time.Duration, log *logger.Logger) *Throttle {
	if log == nil {
		log = logger.NewDiscard()
	}
	return &Throttle{Client: client, Limit: limit, Window: window, Logger: log}
}

func failureKey(clientID string) string {
	return "guest_lookup_fail:" + clientID
}

// Allowed reports whether the client may attempt another lookup. Redis
// errors fail open; the portal stays usable when the cache is down.
func (t *Throttle) Allowed(ctx context.Context, clientID string) bool {
	if t == nil || t.Client == nil || t.Limit <= 0 {
		return true
	}
	count, err := t.Client.Get(ctx, failureKey(clientID)).Int()
	if err == redis.Nil {
		return true
	}
	if err != nil {
		t.Logger.Warn("REDIS", fmt.Sprintf("Throttle check failed for %s: %v", clientID, err))
		return true
	}
	return count < t.Limit
}

// RecordFailure bumps the client's failure counter and restarts its window.
func (t *Throttle) RecordFailure(ctx context.Context, clientID string) (int64, error) {
	if t == nil || t.Client == nil {
		return 0, nil
	}
	key := failureKey(clientID)

	var incr *redis.IntCmd
	_, err := t.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, t.Window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to record lookup failure: %w", err)
	}

	count := incr.Val()
	if count == int64(t.Limit) {
		t.Logger.LogSecurity("THROTTLE", fmt.Sprintf("client %s blocked after %d failed lookups", clientID, count))
	}
	return count, nil
}
