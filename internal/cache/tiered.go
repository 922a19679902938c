package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Tiered puts a process-local cache in front of a shared one.
// Shared entries carry their absolute expiry so a local backfill never
// outlives the original TTL.
type Tiered struct {
	local  Store
	shared Store
	logger *zap.Logger
	now    func() time.Time
}

// NewTiered creates a two-level cache.
func NewTiered(local, shared Store, logger *zap.Logger) *Tiered {
	return &Tiered{
		local:  local,
		shared: shared,
		logger: logger,
		now:    time.Now,
	}
}

// Get looks in the local tier first, then the shared tier.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, error) {
	if data, err := t.local.Get(ctx, key); err == nil {
		return data, nil
	}

	raw, err := t.shared.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	expiresAt, value, err := decodeEnvelope(raw)
	if err != nil {
		t.logger.Warn("Dropping malformed shared cache entry", zap.String("key", key), zap.Error(err))
		return nil, ErrMiss
	}

	remaining := expiresAt.Sub(t.now())
	if remaining <= 0 {
		return nil, ErrMiss
	}

	if err := t.local.Put(ctx, key, value, remaining); err != nil {
		t.logger.Warn("Failed to backfill local cache", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}

// Put writes both tiers. A shared-tier failure is returned after the local write.
func (t *Tiered) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := t.local.Put(ctx, key, value, ttl); err != nil {
		return err
	}
	return t.shared.Put(ctx, key, encodeEnvelope(t.now().Add(ttl), value), ttl)
}

// Forget removes key from both tiers.
func (t *Tiered) Forget(ctx context.Context, key string) error {
	return errors.Join(t.local.Forget(ctx, key), t.shared.Forget(ctx, key))
}

func encodeEnvelope(expiresAt time.Time, value []byte) []byte {
	buf := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(buf, uint64(expiresAt.UnixNano()))
	copy(buf[8:], value)
	return buf
}

func decodeEnvelope(raw []byte) (time.Time, []byte, error) {
	if len(raw) < 8 {
		return time.Time{}, nil, fmt.Errorf("envelope too short: %d bytes", len(raw))
	}
	expiresAt := time.Unix(0, int64(binary.BigEndian.Uint64(raw[:8])))
	return expiresAt, raw[8:], nil
}
