package cache

import (
	"context"
	"time"

	"github.com/karlseguin/ccache/v3"
)

// Memory is an in-process LRU cache backed by ccache.
type Memory struct {
	cache *ccache.Cache[[]byte]
}

// NewMemory creates an in-process cache holding at most maxSize entries.
func NewMemory(maxSize int64) *Memory {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &Memory{
		cache: ccache.New(ccache.Configure[[]byte]().MaxSize(maxSize)),
	}
}

// Get returns the cached value or ErrMiss.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	item := m.cache.Get(key)
	if item == nil || item.Expired() {
		return nil, ErrMiss
	}
	return item.Value(), nil
}

// Put stores value for ttl.
func (m *Memory) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.cache.Set(key, value, ttl)
	return nil
}

// Forget removes key.
func (m *Memory) Forget(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}

// Stop releases the background worker of the underlying cache.
func (m *Memory) Stop() {
	m.cache.Stop()
}
