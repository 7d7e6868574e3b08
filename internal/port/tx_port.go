package port

import (
	"context"
	"errors"
)

// ErrCommitUnknown marks a failed COMMIT: the transaction may or may not have been applied.
var ErrCommitUnknown = errors.New("commit outcome unknown")

// Repositories are bound to one transaction for the duration of Transactor.WithinTx.
type Repositories struct {
	Books  BookRepository
	Orders OrderRepository
}

type Transactor interface {
	// WithinTx commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
