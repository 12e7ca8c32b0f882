package services

import (
	"context"
	"strings"
	"time"

	"ambulance-dispatch/internal/repositories/interfaces"
	"ambulance-dispatch/internal/utils"
	"ambulance-dispatch/pkg/logger"
)

// IdempotencyService deduplicates retried writes that carry a client key.
// Keys are scoped by operation and actor so two callers never collide.
type IdempotencyService interface {
	// Begin reserves the key. A non-empty replayID means the operation
	// already completed and produced that record. finish must be called
	// exactly once when replayID is empty.
	Begin(ctx context.Context, scope, actorID, key string) (replayID string, finish func(recordID string, err error), err error)
}

type idempotencyService struct {
	store  interfaces.IdempotencyStore
	ttl    time.Duration
	logger *logger.Logger
}

const maxIdempotencyKeyLength = 128

func NewIdempotencyService(store interfaces.IdempotencyStore, ttl time.Duration, log *logger.Logger) IdempotencyService {
	if ttl <= 0 {
		ttl = utils.DefaultIdempotencyTTL
	}
	return &idempotencyService{store: store, ttl: ttl, logger: log}
}

func noopFinish(string, error) {}

func (s *idempotencyService) Begin(ctx context.Context, scope, actorID, key string) (string, func(string, error), error) {
	key = strings.TrimSpace(key)
	if key == "" || s.store == nil {
		return "", noopFinish, nil
	}
	if len(key) > maxIdempotencyKeyLength {
		return "", nil, utils.NewValidationError("idempotency_key", "idempotency key is too long")
	}

	scoped := utils.CacheIdempotencyScope + scope + ":" + actorID + ":" + key
	recordID, reserved, err := s.store.Reserve(ctx, scoped, s.ttl)
	if err != nil {
		return "", nil, utils.NewDependencyError("idempotency store unavailable", err)
	}
	if !reserved {
		if recordID == "" {
			return "", nil, utils.NewConflictError("a request with this idempotency key is still in progress", nil)
		}
		return recordID, nil, nil
	}

	finish := func(recordID string, opErr error) {
		// the reservation must outlive a cancelled request context
		bg := context.WithoutCancel(ctx)
		if opErr != nil || recordID == "" {
			if err := s.store.Release(bg, scoped); err != nil {
				s.logger.WithError(err).WithField("scope", scope).Warn("Failed to release idempotency key")
			}
			return
		}
		if err := s.store.Complete(bg, scoped, recordID, s.ttl); err != nil {
			s.logger.WithError(err).WithField("scope", scope).Warn("Failed to complete idempotency key")
		}
	}
	return "", finish, nil
}
