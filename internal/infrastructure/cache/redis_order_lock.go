// Package cache provides the order lock that serializes reconciliations of
// one storefront order across workers.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisOrderLock implements OrderLock with SET NX PX.
type RedisOrderLock struct {
	client    redis.UniversalClient
	keyPrefix string
}

var _ integration.OrderLock = (*RedisOrderLock)(nil)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisOrderLock connects to Redis and verifies the connection.
func NewRedisOrderLock(ctx context.Context, cfg RedisConfig) (*RedisOrderLock, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisOrderLockWithClient(client, ""), nil
}

// NewRedisOrderLockWithClient wraps an existing client.
func NewRedisOrderLockWithClient(client redis.UniversalClient, keyPrefix string) *RedisOrderLock {
	if keyPrefix == "" {
		keyPrefix = "ordersync:lock:"
	}
	return &RedisOrderLock{client: client, keyPrefix: keyPrefix}
}

// Acquire implements integration.OrderLock.
func (l *RedisOrderLock) Acquire(ctx context.Context, externalID string, ttl time.Duration) (func(context.Context) error, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate lock token: %w", err)
	}
	token := id.String()
	key := l.keyPrefix + externalID

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire order lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", integration.ErrOrderLocked, externalID)
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release order lock: %w", err)
		}
		return nil
	}, nil
}

// Ping reports whether Redis is reachable.
func (l *RedisOrderLock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (l *RedisOrderLock) Close() error {
	return l.client.Close()
}
