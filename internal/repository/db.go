package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// maxTxAttempts bounds the optimistic retry loop for transactions rejected
// by the store due to a concurrent writer.
const maxTxAttempts = 3

// TxRunner executes a function inside a database transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
// Serialization and deadlock failures are retried transparently, so fn must
// be safe to re-execute from scratch.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// txRunner implements TxRunner on a pgx connection pool.
type txRunner struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewTxRunner creates a TxRunner backed by the given pool.
func NewTxRunner(pool *pgxpool.Pool, logger zerolog.Logger) TxRunner {
	return &txRunner{
		pool:   pool,
		logger: logger.With().Str("component", "tx-runner").Logger(),
	}
}

// WithTx runs fn inside a transaction, retrying on transient conflicts.
func (r *txRunner) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = r.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		r.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Msg("transaction conflict, retrying")
	}
	return fmt.Errorf("transaction failed after %d attempts: %w", maxTxAttempts, err)
}

func (r *txRunner) runOnce(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// retryable reports whether the error is a transient store conflict
// (serialization failure or deadlock) worth another attempt.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
