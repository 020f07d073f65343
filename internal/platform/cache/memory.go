package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value    string
	deadline time.Time // zero means no expiry
}

// MemoryStore keeps entries in an in-process map, intended for local development and tests.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]memoryEntry
	now  func() time.Time
}

// NewMemoryStore returns an empty store using the wall clock.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock returns an empty store that reads time from now.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{data: make(map[string]memoryEntry), now: now}
}

// Get returns the live value at key or ErrCacheMiss.
func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.live(key)
	if !ok {
		return "", ErrCacheMiss
	}
	return entry.value, nil
}

// Set stores value at key without expiry.
func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	return s.SetWithExpiry(ctx, key, value, 0)
}

// SetWithExpiry stores value at key until ttl elapses. A non-positive ttl never expires.
func (s *MemoryStore) SetWithExpiry(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.deadline = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.data[key] = entry
	s.mu.Unlock()
	return nil
}

// Delete removes key and reports whether a live entry was removed.
func (s *MemoryStore) Delete(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.live(key)
	delete(s.data, key)
	return ok, nil
}

// GetDel returns the live value at key and removes it under the same lock.
func (s *MemoryStore) GetDel(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.live(key)
	if !ok {
		return "", ErrCacheMiss
	}
	delete(s.data, key)
	return entry.value, nil
}

// Sweep purges expired entries and returns how many were dropped.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, entry := range s.data {
		if expired(entry, now) {
			delete(s.data, key)
			removed++
		}
	}
	return removed
}

// live must be called with mu held.
func (s *MemoryStore) live(key string) (memoryEntry, bool) {
	entry, ok := s.data[key]
	if !ok {
		return memoryEntry{}, false
	}
	if expired(entry, s.now()) {
		delete(s.data, key)
		return memoryEntry{}, false
	}
	return entry, true
}

func expired(entry memoryEntry, now time.Time) bool {
	return !entry.deadline.IsZero() && !now.Before(entry.deadline)
}
