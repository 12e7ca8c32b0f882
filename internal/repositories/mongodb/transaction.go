package mongodb

import (
	"context"

	"ambulance-dispatch/internal/repositories/interfaces"
	"ambulance-dispatch/pkg/database"

	"go.mongodb.org/mongo-driver/mongo"
)

type transactionManager struct {
	db *database.MongoDB
}

// NewTransactionManager returns a TransactionManager backed by mongo
// sessions. When the deployment has transactions disabled, fn runs directly
// and atomicity rests on the conditional updates and the active-assignment
// index alone.
func NewTransactionManager(db *database.MongoDB) interfaces.TransactionManager {
	return &transactionManager{db: db}
}

func (t *transactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if t.db.Config == nil || !t.db.Config.Transactions {
		return fn(ctx)
	}

	_, err := t.db.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}
