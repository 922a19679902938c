package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Store is a key-value cache with per-entry expiry.
// Implementations must be safe for concurrent use; concurrent Puts to the
// same key are last-writer-wins.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Forget(ctx context.Context, key string) error
}

// Error wraps a backend failure with the operation and backend name.
type Error struct {
	Backend string
	Op      string
	Err     error
}

func (e *Error) Error() string { return e.Backend + " " + e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

const (
	opGet    = "get"
	opPut    = "put"
	opForget = "forget"
)
