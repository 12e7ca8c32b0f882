package cache

import (
	"context"
	"errors"
	"time"
)

const idempotencyPending = "__pending__"

// IdempotencyStore maps client idempotency keys to the record they produced.
// A key is first reserved with a pending marker, then completed with the
// record id, or released if the operation failed.
type IdempotencyStore struct {
	cache  *RedisCache
	prefix string
}

func NewIdempotencyStore(cache *RedisCache, prefix string) *IdempotencyStore {
	return &IdempotencyStore{cache: cache, prefix: prefix}
}

func (s *IdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	reserved, err := s.cache.SetNX(ctx, s.prefix+key, idempotencyPending, ttl)
	if err != nil {
		return "", false, err
	}
	if reserved {
		return "", true, nil
	}

	var recordID string
	if err := s.cache.Get(ctx, s.prefix+key, &recordID); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			// expired between SETNX and GET; treat as in flight
			return "", false, nil
		}
		return "", false, err
	}
	if recordID == idempotencyPending {
		return "", false, nil
	}

	return recordID, false, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, key, recordID string, ttl time.Duration) error {
	return s.cache.Set(ctx, s.prefix+key, recordID, ttl)
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.cache.Delete(ctx, s.prefix+key)
}
