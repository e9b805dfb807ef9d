package repository

import (
	"context"
	"errors"
	"fmt"

	"vendora/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// walletRepository implements the WalletRepository interface using
// PostgreSQL. Buyer balances live on the users table; seller balances live
// in seller_wallets and are created lazily on first credit. Both share the
// wallet_entries log.
type walletRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewWalletRepository creates a new PostgreSQL-backed wallet repository.
func NewWalletRepository(pool *pgxpool.Pool, logger zerolog.Logger) WalletRepository {
	return &walletRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "wallet").Logger(),
	}
}

// GetBalanceForUpdate reads the wallet balance with a row lock held.
func (r *walletRepository) GetBalanceForUpdate(ctx context.Context, tx pgx.Tx, userID string, wallet model.WalletKind) (float64, error) {
	var balance float64
	var err error

	switch wallet {
	case model.WalletBuyer:
		err = tx.QueryRow(ctx,
			`SELECT wallet_balance FROM users WHERE id = $1 FOR UPDATE`, userID,
		).Scan(&balance)
	case model.WalletSeller:
		// Seller wallets are created on demand so a first sale credit does
		// not need a separate provisioning step.
		_, err = tx.Exec(ctx,
			`INSERT INTO seller_wallets (user_id, balance) VALUES ($1, 0) ON CONFLICT (user_id) DO NOTHING`,
			userID,
		)
		if err == nil {
			err = tx.QueryRow(ctx,
				`SELECT balance FROM seller_wallets WHERE user_id = $1 FOR UPDATE`, userID,
			).Scan(&balance)
		}
	default:
		return 0, fmt.Errorf("unknown wallet kind: %s", wallet)
	}

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, model.ErrUserNotFound
		}
		r.logger.Error().Err(err).Str("user_id", userID).Str("wallet", string(wallet)).Msg("failed to lock wallet balance")
		return 0, fmt.Errorf("failed to lock wallet balance: %w", err)
	}
	return balance, nil
}

// SetBalance writes the wallet balance within the transaction.
func (r *walletRepository) SetBalance(ctx context.Context, tx pgx.Tx, userID string, wallet model.WalletKind, balance float64) error {
	var query string
	switch wallet {
	case model.WalletBuyer:
		query = `UPDATE users SET wallet_balance = $2 WHERE id = $1`
	case model.WalletSeller:
		query = `UPDATE seller_wallets SET balance = $2 WHERE user_id = $1`
	default:
		return fmt.Errorf("unknown wallet kind: %s", wallet)
	}

	ct, err := tx.Exec(ctx, query, userID, balance)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Str("wallet", string(wallet)).Msg("failed to set wallet balance")
		return fmt.Errorf("failed to set wallet balance: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return model.ErrUserNotFound
	}
	return nil
}

// InsertEntry appends a wallet entry. The unique constraint on
// (user_id, wallet, reference) makes duplicate notifications a no-op.
func (r *walletRepository) InsertEntry(ctx context.Context, tx pgx.Tx, entry *model.WalletEntry) (bool, error) {
	query := `
		INSERT INTO wallet_entries (reference, user_id, wallet, type, amount, gross_sale, commission, net_earnings, method, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, wallet, reference) DO NOTHING
	`

	ct, err := tx.Exec(ctx, query,
		entry.Reference, entry.UserID, entry.Wallet, entry.Type, entry.Amount,
		entry.GrossSale, entry.Commission, entry.NetEarnings, entry.Method,
		entry.Status, entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("user_id", entry.UserID).
			Str("reference", entry.Reference).
			Msg("failed to insert wallet entry")
		return false, fmt.Errorf("failed to insert wallet entry: %w", err)
	}

	inserted := ct.RowsAffected() == 1
	if !inserted {
		r.logger.Info().
			Str("user_id", entry.UserID).
			Str("reference", entry.Reference).
			Msg("duplicate wallet entry reference, skipping")
	}
	return inserted, nil
}

// GetEntry retrieves a single entry by its reference inside the transaction.
func (r *walletRepository) GetEntry(ctx context.Context, tx pgx.Tx, userID string, wallet model.WalletKind, reference string) (*model.WalletEntry, error) {
	var e model.WalletEntry
	err := tx.QueryRow(ctx, `
		SELECT reference, user_id, wallet, type, amount, gross_sale, commission, net_earnings, method, status, created_at
		FROM wallet_entries
		WHERE user_id = $1 AND wallet = $2 AND reference = $3
	`, userID, wallet, reference).Scan(
		&e.Reference, &e.UserID, &e.Wallet, &e.Type, &e.Amount,
		&e.GrossSale, &e.Commission, &e.NetEarnings, &e.Method,
		&e.Status, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("reference", reference).Msg("failed to query wallet entry")
		return nil, fmt.Errorf("failed to query wallet entry: %w", err)
	}
	return &e, nil
}

// UpdateEntryStatus sets the settlement status of an existing entry.
func (r *walletRepository) UpdateEntryStatus(ctx context.Context, tx pgx.Tx, userID string, wallet model.WalletKind, reference, status string) error {
	ct, err := tx.Exec(ctx,
		`UPDATE wallet_entries SET status = $4 WHERE user_id = $1 AND wallet = $2 AND reference = $3`,
		userID, wallet, reference, status,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("reference", reference).Msg("failed to update wallet entry status")
		return fmt.Errorf("failed to update wallet entry status: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("wallet entry %s not found for user %s", reference, userID)
	}
	return nil
}

// DeleteEntry removes an entry from the log.
func (r *walletRepository) DeleteEntry(ctx context.Context, tx pgx.Tx, userID string, wallet model.WalletKind, reference string) error {
	_, err := tx.Exec(ctx,
		`DELETE FROM wallet_entries WHERE user_id = $1 AND wallet = $2 AND reference = $3`,
		userID, wallet, reference,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("reference", reference).Msg("failed to delete wallet entry")
		return fmt.Errorf("failed to delete wallet entry: %w", err)
	}
	return nil
}

// ListEntries returns the full entry log for a wallet, oldest first.
func (r *walletRepository) ListEntries(ctx context.Context, userID string, wallet model.WalletKind) ([]model.WalletEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT reference, user_id, wallet, type, amount, gross_sale, commission, net_earnings, method, status, created_at
		FROM wallet_entries
		WHERE user_id = $1 AND wallet = $2
		ORDER BY created_at, reference
	`, userID, wallet)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to query wallet entries")
		return nil, fmt.Errorf("failed to query wallet entries: %w", err)
	}
	defer rows.Close()

	var entries []model.WalletEntry
	for rows.Next() {
		var e model.WalletEntry
		err := rows.Scan(
			&e.Reference, &e.UserID, &e.Wallet, &e.Type, &e.Amount,
			&e.GrossSale, &e.Commission, &e.NetEarnings, &e.Method,
			&e.Status, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallet entries: %w", err)
	}
	return entries, nil
}

// CreateTopUp persists a pending top-up intent.
func (r *walletRepository) CreateTopUp(ctx context.Context, tx pgx.Tx, topup *model.TopUp) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO topups (tx_ref, user_id, amount, status, created_at) VALUES ($1, $2, $3, $4, $5)`,
		topup.TxRef, topup.UserID, topup.Amount, topup.Status, topup.CreatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("tx_ref", topup.TxRef).Msg("failed to create top-up intent")
		return fmt.Errorf("failed to create top-up intent: %w", err)
	}
	return nil
}

// GetTopUpForUpdate retrieves a top-up intent by tx_ref with a row lock held.
func (r *walletRepository) GetTopUpForUpdate(ctx context.Context, tx pgx.Tx, txRef string) (*model.TopUp, error) {
	var t model.TopUp
	err := tx.QueryRow(ctx,
		`SELECT tx_ref, user_id, amount, status, created_at FROM topups WHERE tx_ref = $1 FOR UPDATE`,
		txRef,
	).Scan(&t.TxRef, &t.UserID, &t.Amount, &t.Status, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("tx_ref", txRef).Msg("failed to lock top-up row")
		return nil, fmt.Errorf("failed to lock top-up row: %w", err)
	}
	return &t, nil
}

// UpdateTopUpStatus sets the status of a top-up intent.
func (r *walletRepository) UpdateTopUpStatus(ctx context.Context, tx pgx.Tx, txRef, status string) error {
	ct, err := tx.Exec(ctx, `UPDATE topups SET status = $2 WHERE tx_ref = $1`, txRef, status)
	if err != nil {
		r.logger.Error().Err(err).Str("tx_ref", txRef).Msg("failed to update top-up status")
		return fmt.Errorf("failed to update top-up status: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("top-up %s not found", txRef)
	}
	return nil
}
