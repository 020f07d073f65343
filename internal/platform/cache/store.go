package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache: key not found")

// Store is the ephemeral key-value capability used for short-lived values.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	SetWithExpiry(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes key and reports whether an entry was actually removed.
	Delete(ctx context.Context, key string) (bool, error)
	// GetDel returns the value at key and removes it in one atomic step.
	// Concurrent callers on the same key see the value at most once.
	GetDel(ctx context.Context, key string) (string, error)
}
