package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erp/ordersync/internal/domain/integration"
)

type lockEntry struct {
	token     uint64
	expiresAt time.Time
}

// InMemoryOrderLock implements OrderLock inside one process. It is suitable
// for single-instance deployments and tests.
type InMemoryOrderLock struct {
	mu      sync.Mutex
	entries map[string]lockEntry
	next    uint64
	now     func() time.Time
}

var _ integration.OrderLock = (*InMemoryOrderLock)(nil)

// NewInMemoryOrderLock creates an empty lock table.
func NewInMemoryOrderLock() *InMemoryOrderLock {
	return &InMemoryOrderLock{entries: make(map[string]lockEntry), now: time.Now}
}

// Acquire implements integration.OrderLock. Expired holders are replaced.
func (l *InMemoryOrderLock) Acquire(_ context.Context, externalID string, ttl time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.entries[externalID]; ok && now.Before(e.expiresAt) {
		return nil, fmt.Errorf("%w: %s", integration.ErrOrderLocked, externalID)
	}
	l.next++
	token := l.next
	l.entries[externalID] = lockEntry{token: token, expiresAt: now.Add(ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if e, ok := l.entries[externalID]; ok && e.token == token {
			delete(l.entries, externalID)
		}
		return nil
	}, nil
}

// Size returns the number of held or expired-but-unreleased locks.
func (l *InMemoryOrderLock) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Close implements integration.OrderLock.
func (l *InMemoryOrderLock) Close() error {
	return nil
}
