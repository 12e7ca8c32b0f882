package interfaces

import (
	"context"
	"time"
)

// IdempotencyStore remembers which record a client-supplied key produced.
type IdempotencyStore interface {
	// Reserve claims key. If the key already completed it returns the stored
	// record id with reserved=false; if it is still in flight it returns an
	// empty id with reserved=false.
	Reserve(ctx context.Context, key string, ttl time.Duration) (recordID string, reserved bool, err error)
	Complete(ctx context.Context, key, recordID string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}
