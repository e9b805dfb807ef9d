package repository

import (
	"context"
	"fmt"

	"vendora/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// userRepository implements the UserRepository interface using PostgreSQL.
type userRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool, logger zerolog.Logger) UserRepository {
	return &userRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "user").Logger(),
	}
}

// Exists reports whether the user id is known.
func (r *userRepository) Exists(ctx context.Context, id string) (bool, error) {
	var found bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&found)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", id).Msg("failed to check user existence")
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return found, nil
}

// ClearCart empties the user's persisted cart within the transaction.
func (r *userRepository) ClearCart(ctx context.Context, tx pgx.Tx, userID string) error {
	ct, err := tx.Exec(ctx, `UPDATE users SET cart = '[]'::jsonb WHERE id = $1`, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to clear cart")
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return model.ErrUserNotFound
	}

	r.logger.Debug().Str("user_id", userID).Msg("cart cleared")
	return nil
}
