package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a Redis client backed by miniredis
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		mr.Close()
		t.Fatalf("Failed to connect to miniredis: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestThrottleBlocksAfterLimit(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()
	throttle := NewThrottle(client, 3, time.Minute, nil)

	for i := 1; i <= 3; i++ {
		assert.True(t, throttle.Allowed(ctx, "10.0.0.1"), "attempt %d", i)
		count, err := throttle.RecordFailure(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, int64(i), count)
	}

	assert.False(t, throttle.Allowed(ctx, "10.0.0.1"))
	assert.True(t, throttle.Allowed(ctx, "10.0.0.2"))
}

func TestThrottleWindowExpires(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()
	throttle := NewThrottle(client, 1, time.Minute, nil)

	_, err := throttle.RecordFailure(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, throttle.Allowed(ctx, "10.0.0.1"))

	mr.FastForward(2 * time.Minute)
	assert.True(t, throttle.Allowed(ctx, "10.0.0.1"))
}

func TestThrottleCountsClientsSeparately(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()
	throttle := NewThrottle(client, 1, time.Minute, nil)

	_, err := throttle.RecordFailure(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, throttle.Allowed(ctx, "10.0.0.1"))
	assert.True(t, throttle.Allowed(ctx, "10.0.0.2"))
}

func TestThrottleFailsOpen(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	throttle := NewThrottle(client, 1, time.Minute, nil)
	mr.Close()

	assert.True(t, throttle.Allowed(context.Background(), "10.0.0.1"))

	var disabled *Throttle
	assert.True(t, disabled.Allowed(context.Background(), "10.0.0.1"))
}
