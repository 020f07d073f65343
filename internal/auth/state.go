package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"doorman/internal/platform/cache"
)

const (
	stateLength   = 16
	stateSentinel = "1"
	stateAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// DefaultStateTTL bounds how long a login may sit at the provider.
	DefaultStateTTL = 90 * time.Second
)

// StateBroker issues and redeems single-use CSRF state tokens held in an ephemeral store.
type StateBroker struct {
	store  cache.Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewStateBroker returns a broker storing tokens in store for ttl.
func NewStateBroker(store cache.Store, ttl time.Duration, logger *slog.Logger) *StateBroker {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StateBroker{store: store, ttl: ttl, logger: logger}
}

// Issue generates a new token and stores it keyed by its own value.
func (b *StateBroker) Issue(ctx context.Context) (string, error) {
	state, err := GenerateState()
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}

	if err := b.store.SetWithExpiry(ctx, state, stateSentinel, b.ttl); err != nil {
		return "", fmt.Errorf("%w: store state: %v", ErrStoreUnavailable, err)
	}
	return state, nil
}

// Redeem consumes state with a single atomic get-and-delete, so only one
// caller can ever see the entry. A missing, expired or replayed token yields
// ErrInvalidState; a store failure yields ErrInvalidState wrapping
// ErrStoreUnavailable and never counts as a redemption.
func (b *StateBroker) Redeem(ctx context.Context, state string) error {
	if state == "" {
		return ErrInvalidState
	}

	value, err := b.store.GetDel(ctx, state)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return ErrInvalidState
		}
		b.logger.Warn("csrf state redeem failed", "error", err)
		return fmt.Errorf("%w: %w: %v", ErrInvalidState, ErrStoreUnavailable, err)
	}
	if value != stateSentinel {
		return ErrInvalidState
	}
	return nil
}

// GenerateState returns a uniformly random alphanumeric token.
func GenerateState() (string, error) {
	limit := big.NewInt(int64(len(stateAlphabet)))
	out := make([]byte, stateLength)
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		out[i] = stateAlphabet[n.Int64()]
	}
	return string(out), nil
}
