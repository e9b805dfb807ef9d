package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vendora/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// withdrawalRepository implements the WithdrawalRepository interface using PostgreSQL.
type withdrawalRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewWithdrawalRepository creates a new PostgreSQL-backed withdrawal repository.
func NewWithdrawalRepository(pool *pgxpool.Pool, logger zerolog.Logger) WithdrawalRepository {
	return &withdrawalRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "withdrawal").Logger(),
	}
}

const withdrawalColumns = `id, user_id, amount, bank_name, bank_code, account_number, state, failure_reason, created_at, updated_at`

func scanWithdrawal(row pgx.Row) (*model.Withdrawal, error) {
	var w model.Withdrawal
	err := row.Scan(
		&w.ID, &w.UserID, &w.Amount, &w.BankName, &w.BankCode,
		&w.AccountNumber, &w.State, &w.FailureReason, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Create inserts a new withdrawal intent within the transaction.
func (r *withdrawalRepository) Create(ctx context.Context, tx pgx.Tx, w *model.Withdrawal) error {
	query := `
		INSERT INTO withdrawals (id, user_id, amount, bank_name, bank_code, account_number, state, failure_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := tx.Exec(ctx, query,
		w.ID, w.UserID, w.Amount, w.BankName, w.BankCode,
		w.AccountNumber, w.State, w.FailureReason, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("withdrawal_id", w.ID.String()).Msg("failed to create withdrawal intent")
		return fmt.Errorf("failed to create withdrawal intent: %w", err)
	}

	r.logger.Debug().
		Str("withdrawal_id", w.ID.String()).
		Str("user_id", w.UserID).
		Msg("withdrawal intent created")

	return nil
}

// GetForUpdate retrieves an intent by ID with a row lock held.
func (r *withdrawalRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Withdrawal, error) {
	w, err := scanWithdrawal(tx.QueryRow(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1 FOR UPDATE`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("withdrawal %s not found", id)
		}
		r.logger.Error().Err(err).Str("withdrawal_id", id.String()).Msg("failed to lock withdrawal row")
		return nil, fmt.Errorf("failed to lock withdrawal row: %w", err)
	}
	return w, nil
}

// SetBankCode records the resolved bank code on an intent.
func (r *withdrawalRepository) SetBankCode(ctx context.Context, tx pgx.Tx, id uuid.UUID, code string) error {
	ct, err := tx.Exec(ctx,
		`UPDATE withdrawals SET bank_code = $2, updated_at = NOW() WHERE id = $1`,
		id, code,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("withdrawal_id", id.String()).Msg("failed to set bank code")
		return fmt.Errorf("failed to set bank code: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("withdrawal %s not found", id)
	}
	return nil
}

// UpdateState sets the saga state and failure reason within the transaction.
func (r *withdrawalRepository) UpdateState(ctx context.Context, tx pgx.Tx, id uuid.UUID, state model.WithdrawalState, reason string) error {
	ct, err := tx.Exec(ctx,
		`UPDATE withdrawals SET state = $2, failure_reason = $3, updated_at = NOW() WHERE id = $1`,
		id, state, reason,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("withdrawal_id", id.String()).Msg("failed to update withdrawal state")
		return fmt.Errorf("failed to update withdrawal state: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("withdrawal %s not found", id)
	}

	r.logger.Debug().
		Str("withdrawal_id", id.String()).
		Str("state", string(state)).
		Msg("withdrawal state updated")

	return nil
}

// ListStale returns intents in the given state last updated before the cutoff.
func (r *withdrawalRepository) ListStale(ctx context.Context, state model.WithdrawalState, cutoff time.Time) ([]model.Withdrawal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals WHERE state = $1 AND updated_at < $2 ORDER BY updated_at`,
		state, cutoff,
	)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query stale withdrawals")
		return nil, fmt.Errorf("failed to query stale withdrawals: %w", err)
	}
	defer rows.Close()

	var out []model.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		out = append(out, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating withdrawals: %w", err)
	}
	return out, nil
}
