package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// Memcached is a shared cache backed by one or more memcached servers.
type Memcached struct {
	client *memcache.Client
}

// NewMemcached creates a client for the given servers.
func NewMemcached(servers ...string) *Memcached {
	return &Memcached{client: memcache.New(servers...)}
}

// Get returns the cached value or ErrMiss.
func (m *Memcached) Get(_ context.Context, key string) ([]byte, error) {
	item, err := m.client.Get(key)
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return nil, ErrMiss
		}
		return nil, &Error{Backend: "memcached", Op: opGet, Err: err}
	}
	return item.Value, nil
}

// Put stores value for ttl, rounded up to whole seconds.
func (m *Memcached) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	err := m.client.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: expirationSeconds(ttl),
	})
	if err != nil {
		return &Error{Backend: "memcached", Op: opPut, Err: err}
	}
	return nil
}

// Forget removes key. Forgetting an absent key is not an error.
func (m *Memcached) Forget(_ context.Context, key string) error {
	if err := m.client.Delete(key); err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return &Error{Backend: "memcached", Op: opForget, Err: err}
	}
	return nil
}

func expirationSeconds(ttl time.Duration) int32 {
	secs := int32((ttl + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
