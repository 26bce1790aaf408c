package cache

import (
	"context"
	"fmt"

	"github.com/erp/ordersync/internal/domain/integration"
	"go.uber.org/zap"
)

// OrderLockFactory picks the lock backend from configuration.
type OrderLockFactory struct {
	redisConfig           RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// OrderLockFactoryOption configures an OrderLockFactory.
type OrderLockFactoryOption func(*OrderLockFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) OrderLockFactoryOption {
	return func(f *OrderLockFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-process lock. Default is true.
func WithInMemoryFallback(allow bool) OrderLockFactoryOption {
	return func(f *OrderLockFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewOrderLockFactory creates a factory. An empty Addr selects the in-memory lock.
func NewOrderLockFactory(cfg RedisConfig, opts ...OrderLockFactoryOption) *OrderLockFactory {
	f := &OrderLockFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the Redis lock when reachable, else the in-memory lock if
// fallback is allowed. The backend name is returned for health reporting.
func (f *OrderLockFactory) Create(ctx context.Context) (integration.OrderLock, string, error) {
	if f.redisConfig.Addr == "" {
		f.logger.Info("Redis not configured, using in-memory order lock")
		return NewInMemoryOrderLock(), BackendInMemory, nil
	}

	lock, err := NewRedisOrderLock(ctx, f.redisConfig)
	if err == nil {
		f.logger.Info("Using Redis order lock", zap.String("addr", f.redisConfig.Addr))
		return lock, BackendRedis, nil
	}
	if !f.allowInMemoryFallback {
		return nil, "", fmt.Errorf("redis required for order lock but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory order lock. "+
		"Concurrent workers on other instances are not serialized.",
		zap.Error(err),
	)
	return NewInMemoryOrderLock(), BackendInMemory, nil
}

// Lock backend names.
const (
	BackendRedis    = "redis"
	BackendInMemory = "memory"
)
