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

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

const productColumns = `id, seller_id, name, price, offer_price, flash_sale_price, flash_sale_end_date, stock, created_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID,
		&p.SellerID,
		&p.Name,
		&p.Price,
		&p.OfferPrice,
		&p.FlashSalePrice,
		&p.FlashSaleEndDate,
		&p.Stock,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrProductNotFound
		}
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return p, nil
}

// GetByIDs retrieves multiple products by their IDs.
func (r *productRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetForUpdate retrieves a product inside the transaction with a row lock held.
func (r *productRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

	p, err := scanProduct(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrProductNotFound
		}
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to lock product row")
		return nil, fmt.Errorf("failed to lock product row: %w", err)
	}
	return p, nil
}

// DecrementStock reduces stock by qty within the transaction. The WHERE
// guard keeps stock from ever going negative even if the caller's check
// raced with another writer.
func (r *productRepository) DecrementStock(ctx context.Context, tx pgx.Tx, id string, qty int) error {
	ct, err := tx.Exec(ctx,
		`UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`,
		id, qty,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id).Int("qty", qty).Msg("failed to decrement stock")
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return model.ErrOutOfStock
	}

	r.logger.Debug().Str("product_id", id).Int("qty", qty).Msg("stock decremented")
	return nil
}
