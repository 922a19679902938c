package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// mapStore is a Store without expiry used to observe what tiers write.
type mapStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	getErr  error
	putErr  error
	puts    int
	forgets int
}

func newMapStore() *mapStore {
	return &mapStore{data: map[string][]byte{}}
}

func (s *mapStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	v, ok := s.data[key]
	if !ok {
		return nil, ErrMiss
	}
	return v, nil
}

func (s *mapStore) Put(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	s.data[key] = value
	return nil
}

func (s *mapStore) Forget(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forgets++
	delete(s.data, key)
	return nil
}

func TestMemory_PutGetForget(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)
	defer m.Stop()

	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss on empty cache, got %v", err)
	}

	if err := m.Put(ctx, "k", []byte("v1"), time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v1" {
		t.Errorf("expected v1, got %q", got)
	}

	if err := m.Forget(ctx, "k"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss after Forget, got %v", err)
	}
}

func TestMemory_Expired(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)
	defer m.Stop()

	if err := m.Put(ctx, "k", []byte("v"), -time.Second); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss for expired entry, got %v", err)
	}
}

func TestTiered_BackfillsLocalFromShared(t *testing.T) {
	ctx := context.Background()
	local := newMapStore()
	shared := newMapStore()
	tiered := NewTiered(local, shared, zap.NewNop())

	if err := tiered.Put(ctx, "k", []byte("payload"), 5*time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if string(shared.data["k"][8:]) != "payload" {
		t.Fatalf("shared tier should hold the enveloped payload")
	}

	_ = local.Forget(ctx, "k")

	got, err := tiered.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("expected payload, got %q", got)
	}
	if string(local.data["k"]) != "payload" {
		t.Errorf("local tier was not backfilled")
	}
}

func TestTiered_SharedEntryPastExpiryIsMiss(t *testing.T) {
	ctx := context.Background()
	local := newMapStore()
	shared := newMapStore()
	tiered := NewTiered(local, shared, zap.NewNop())

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tiered.now = func() time.Time { return base }
	if err := tiered.Put(ctx, "k", []byte("payload"), 5*time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	_ = local.Forget(ctx, "k")

	tiered.now = func() time.Time { return base.Add(6 * time.Minute) }
	if _, err := tiered.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss past the original TTL, got %v", err)
	}
	if _, ok := local.data["k"]; ok {
		t.Errorf("expired entry must not be backfilled")
	}
}

func TestTiered_MalformedSharedEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	local := newMapStore()
	shared := newMapStore()
	shared.data["k"] = []byte("abc")
	tiered := NewTiered(local, shared, zap.NewNop())

	if _, err := tiered.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss, got %v", err)
	}
}

func TestTiered_SharedErrorPropagates(t *testing.T) {
	ctx := context.Background()
	local := newMapStore()
	shared := newMapStore()
	shared.getErr = &Error{Backend: "redis", Op: opGet, Err: errors.New("connection refused")}
	tiered := NewTiered(local, shared, zap.NewNop())

	_, err := tiered.Get(ctx, "k")
	var cacheErr *Error
	if !errors.As(err, &cacheErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if cacheErr.Backend != "redis" {
		t.Errorf("expected redis backend, got %s", cacheErr.Backend)
	}
}

func TestTiered_ForgetClearsBothTiers(t *testing.T) {
	ctx := context.Background()
	local := newMapStore()
	shared := newMapStore()
	tiered := NewTiered(local, shared, zap.NewNop())

	_ = tiered.Put(ctx, "k", []byte("v"), time.Minute)
	if err := tiered.Forget(ctx, "k"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if len(local.data) != 0 || len(shared.data) != 0 {
		t.Errorf("expected both tiers empty, local=%d shared=%d", len(local.data), len(shared.data))
	}
}

func TestExpirationSeconds(t *testing.T) {
	tests := []struct {
		ttl  time.Duration
		want int32
	}{
		{5 * time.Minute, 300},
		{1500 * time.Millisecond, 2},
		{0, 1},
		{time.Hour, 3600},
	}
	for _, tt := range tests {
		if got := expirationSeconds(tt.ttl); got != tt.want {
			t.Errorf("expirationSeconds(%v) = %d, want %d", tt.ttl, got, tt.want)
		}
	}
}
