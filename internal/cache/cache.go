// Package cache provides the TTL cache injected into network clients.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "cache")

// Cache stores byte values with a per-entry TTL.
type Cache interface {
	// Get returns the cached value and whether it was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type entry struct {
	data    []byte
	expires time.Time
}

// Memory is an in-process Cache. Expired entries are evicted when read.
type Memory struct {
	mu    sync.Mutex
	items map[string]entry
	now   func() time.Time
}

// NewMemory returns an empty in-memory cache using the wall clock.
func NewMemory() *Memory {
	return NewMemoryWithClock(time.Now)
}

// NewMemoryWithClock returns an in-memory cache reading time from now.
func NewMemoryWithClock(now func() time.Time) *Memory {
	return &Memory{items: make(map[string]entry), now: now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expires) {
		delete(m.items, key)
		return nil, false, nil
	}
	data := make([]byte, len(e.data))
	copy(data, e.data)
	return data, true, nil
}

// Set stores a copy of value. A non-positive ttl stores nothing.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ttl <= 0 {
		delete(m.items, key)
		return nil
	}
	data := make([]byte, len(value))
	copy(data, value)
	m.items[key] = entry{data: data, expires: m.now().Add(ttl)}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// GetOrFetch returns the cached value for key, or calls fetch and caches its
// result for ttl. Cache failures are logged and fall through to fetch.
func GetOrFetch(ctx context.Context, c Cache, key string, ttl time.Duration, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	if c != nil {
		data, ok, err := c.Get(ctx, key)
		switch {
		case err != nil:
			log.WithError(err).WithField("key", key).Warn("cache read failed")
		case ok:
			log.WithField("key", key).Debug("cache hit")
			return data, nil
		}
	}

	data, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if c != nil {
		if err := c.Set(ctx, key, data, ttl); err != nil {
			log.WithError(err).WithField("key", key).Warn("cache write failed")
		}
	}
	return data, nil
}
