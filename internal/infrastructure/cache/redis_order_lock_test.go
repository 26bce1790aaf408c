package cache

import (
	"context"
	"testing"
	"time"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis container test in short mode")
	}
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

func TestRedisOrderLock(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	lock, err := NewRedisOrderLock(ctx, RedisConfig{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = lock.Close() })
	require.NoError(t, lock.Ping(ctx))

	release, err := lock.Acquire(ctx, "R1001", time.Minute)
	require.NoError(t, err)

	_, err = lock.Acquire(ctx, "R1001", time.Minute)
	assert.ErrorIs(t, err, integration.ErrOrderLocked)

	require.NoError(t, release(ctx))
	release2, err := lock.Acquire(ctx, "R1001", time.Minute)
	require.NoError(t, err)

	// A second release of the first token leaves the new holder alone.
	require.NoError(t, release(ctx))
	_, err = lock.Acquire(ctx, "R1001", time.Minute)
	assert.ErrorIs(t, err, integration.ErrOrderLocked)
	require.NoError(t, release2(ctx))
}

func TestRedisOrderLock_Expiry(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	lock, err := NewRedisOrderLock(ctx, RedisConfig{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = lock.Close() })

	_, err = lock.Acquire(ctx, "R4001", 100*time.Millisecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		release, err := lock.Acquire(ctx, "R4001", time.Minute)
		if err != nil {
			return false
		}
		_ = release(ctx)
		return true
	}, 2*time.Second, 50*time.Millisecond)
}
