//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestThrottleAgainstRedis runs the throttle against a real Redis container
func TestThrottleAgainstRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	defer redisContainer.Terminate(ctx)

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	defer client.Close()

	throttle := NewThrottle(client, 2, time.Minute, nil)

	assert.True(t, throttle.Allowed(ctx, "203.0.113.9"))
	_, err = throttle.RecordFailure(ctx, "203.0.113.9")
	require.NoError(t, err)
	count, err := throttle.RecordFailure(ctx, "203.0.113.9")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.False(t, throttle.Allowed(ctx, "203.0.113.9"))

	ttl, err := client.TTL(ctx, failureKey("203.0.113.9")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.True(t, throttle.Allowed(ctx, "198.51.100.7"))
}
