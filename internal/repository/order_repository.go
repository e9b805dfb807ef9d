package repository

import (
	"context"
	"errors"
	"fmt"

	"vendora/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

const orderColumns = `id, user_id, address, amount, payment_method, tx_ref, status, failure_reason, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.Address,
		&o.Amount,
		&o.PaymentMethod,
		&o.TxRef,
		&o.Status,
		&o.FailureReason,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (id, user_id, address, amount, payment_method, tx_ref, status, failure_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.UserID, order.Address, order.Amount, order.PaymentMethod,
		order.TxRef, order.Status, order.FailureReason, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("tx_ref", order.TxRef).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, seller_id, name, quantity, unit_price, offer_price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query,
			item.ID, item.OrderID, item.ProductID, item.SellerID, item.Name,
			item.Quantity, item.UnitPrice, item.OfferPrice, item.Status,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("product_id", items[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, nil, fmt.Errorf("failed to query order: %w", err)
	}

	rows, err := r.pool.Query(ctx, itemsQuery, id)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order items")
		return nil, nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items, err := collectItems(rows)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to read order items")
		return nil, nil, err
	}

	return order, items, nil
}

// GetForUpdate retrieves an order by ID inside the transaction with a row lock held.
func (r *orderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	order, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to lock order row")
		return nil, fmt.Errorf("failed to lock order row: %w", err)
	}
	return order, nil
}

// GetByTxRefForUpdate retrieves an order by its gateway correlation reference
// inside the transaction with a row lock held.
func (r *orderRepository) GetByTxRefForUpdate(ctx context.Context, tx pgx.Tx, txRef string) (*model.Order, error) {
	order, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE tx_ref = $1 FOR UPDATE`, txRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Unmatched references are acknowledged, not errored, so the
			// gateway stops retrying.
			return nil, nil
		}
		r.logger.Error().Err(err).Str("tx_ref", txRef).Msg("failed to lock order row by tx_ref")
		return nil, fmt.Errorf("failed to lock order row by tx_ref: %w", err)
	}
	return order, nil
}

const itemsQuery = `
	SELECT id, order_id, product_id, seller_id, name, quantity, unit_price, offer_price, status
	FROM order_items
	WHERE order_id = $1
	ORDER BY id
`

func collectItems(rows pgx.Rows) ([]model.OrderItem, error) {
	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.SellerID, &item.Name,
			&item.Quantity, &item.UnitPrice, &item.OfferPrice, &item.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}
	return items, nil
}

// GetItems retrieves the items of an order inside the transaction.
func (r *orderRepository) GetItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]model.OrderItem, error) {
	rows, err := tx.Query(ctx, itemsQuery, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// UpdateStatus sets the order status and failure reason within the transaction.
func (r *orderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.Status, reason string) error {
	ct, err := tx.Exec(ctx,
		`UPDATE orders SET status = $2, failure_reason = $3, updated_at = NOW() WHERE id = $1`,
		id, status, reason,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return model.ErrOrderNotFound
	}

	r.logger.Debug().
		Str("order_id", id.String()).
		Str("status", string(status)).
		Msg("order status updated")

	return nil
}
