package interfaces

import "context"

// TransactionManager runs fn as one atomic unit. Repositories called with the
// ctx passed to fn take part in the transaction; if fn returns an error no
// write made inside it is kept.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
