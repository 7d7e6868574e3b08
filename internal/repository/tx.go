package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/bookstore/internal/db"
	"github.com/nikolayk812/bookstore/internal/port"
)

type txBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// runInTx commits when fn succeeds and rolls back otherwise. A failed commit is reported
// with port.ErrCommitUnknown since the server may have applied it.
func runInTx(ctx context.Context, beginner txBeginner, opts pgx.TxOptions, fn func(tx pgx.Tx) error) (txErr error) {
	tx, err := beginner.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("BeginTx: %w", err)
	}

	// Ensure proper rollback handling
	defer func() {
		if txErr != nil {
			rollbackErr := tx.Rollback(ctx)
			if rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				txErr = errors.Join(txErr, fmt.Errorf("tx.Rollback: %w", rollbackErr))
			}
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx.Commit: %w", errors.Join(port.ErrCommitUnknown, err))
	}

	return nil
}

// withTx executes fn within a transaction if the repository was created with a pool,
// or uses the existing transaction if the repository was created with a transaction
func withTx[T any](ctx context.Context, dbtx db.DBTX, fn func(q *db.Queries) (T, error)) (T, error) {
	var zero T

	// Already in a transaction, just use it
	if tx, ok := dbtx.(pgx.Tx); ok {
		return fn(db.New(tx))
	}

	// Must be a pool, create a new transaction
	pool, ok := dbtx.(*pgxpool.Pool)
	if !ok {
		return zero, fmt.Errorf("dbtx is neither pgx.Tx nor *pgxpool.Pool: %T", dbtx)
	}

	var result T

	err := runInTx(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var fnErr error
		result, fnErr = fn(db.New(tx))
		return fnErr
	})
	if err != nil {
		return zero, err
	}

	return result, nil
}

type transactor struct {
	pool *pgxpool.Pool
	opts pgx.TxOptions
}

// NewTransactor binds book and order repositories to one READ COMMITTED transaction.
// Stock safety comes from the conditional decrement, atomicity of the unit from the tx.
func NewTransactor(pool *pgxpool.Pool) port.Transactor {
	return &transactor{
		pool: pool,
		opts: pgx.TxOptions{IsoLevel: pgx.ReadCommitted},
	}
}

func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	return runInTx(ctx, t.pool, t.opts, func(tx pgx.Tx) error {
		return fn(ctx, port.Repositories{
			Books:  NewBookWithTx(tx),
			Orders: NewOrderWithTx(tx),
		})
	})
}
