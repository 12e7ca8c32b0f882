package memory

import (
	"context"
	"sync"
	"time"
)

type idempotencyEntry struct {
	recordID  string
	pending   bool
	expiresAt time.Time
}

// IdempotencyStore is the in-process counterpart of cache.IdempotencyStore.
type IdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]idempotencyEntry
	now     func() time.Time
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{
		entries: make(map[string]idempotencyEntry),
		now:     time.Now,
	}
}

func (s *IdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		if e.pending {
			return "", false, nil
		}
		return e.recordID, false, nil
	}

	s.entries[key] = idempotencyEntry{pending: true, expiresAt: now.Add(ttl)}
	return "", true, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, key, recordID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = idempotencyEntry{recordID: recordID, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}
