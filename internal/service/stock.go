package service

import (
	"context"
	"time"

	"vendora/internal/model"
	"vendora/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// StockReserver validates and decrements per-product inventory as part of
// an order transaction. All reads take row locks so two finalize attempts
// against the same product serialise instead of overselling.
type StockReserver struct {
	products repository.ProductRepository
	logger   zerolog.Logger
}

// NewStockReserver creates a stock reserver.
func NewStockReserver(products repository.ProductRepository, logger zerolog.Logger) *StockReserver {
	return &StockReserver{
		products: products,
		logger:   logger.With().Str("service", "stock").Logger(),
	}
}

// Hold locks each item's product row, checks availability and returns the
// re-derived order total at the given instant. The locks are held until the
// caller's transaction ends, so a subsequent Decrement cannot race another
// reservation. Any missing product or short stock aborts the hold.
func (s *StockReserver) Hold(ctx context.Context, tx pgx.Tx, items []model.OrderItem, now time.Time) (float64, error) {
	var total float64

	for _, item := range items {
		product, err := s.products.GetForUpdate(ctx, tx, item.ProductID)
		if err != nil {
			return 0, err
		}

		if product.Stock < item.Quantity {
			s.logger.Warn().
				Str("product_id", item.ProductID).
				Int("requested", item.Quantity).
				Int("available", product.Stock).
				Msg("insufficient stock")
			return 0, model.ErrOutOfStock
		}

		total += product.EffectivePrice(now) * float64(item.Quantity)
	}

	return total, nil
}

// Decrement applies the held reservation, decrementing each item's stock.
// The guarded UPDATE re-checks availability, so a Decrement without a prior
// Hold still cannot oversell.
func (s *StockReserver) Decrement(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	for _, item := range items {
		if err := s.products.DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// PriceItems builds order items from the catalogue at the given instant,
// snapshotting names and effective prices, and returns the authoritative
// total. Client-submitted prices and totals are ignored.
func (s *StockReserver) PriceItems(ctx context.Context, reqItems []model.CheckoutItemRequest, now time.Time) ([]model.OrderItem, float64, error) {
	ids := make([]string, len(reqItems))
	for i, it := range reqItems {
		ids[i] = it.ProductID
	}

	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]model.OrderItem, 0, len(reqItems))
	var total float64
	for _, it := range reqItems {
		product, ok := byID[it.ProductID]
		if !ok {
			return nil, 0, model.ErrProductNotFound
		}

		effective := product.EffectivePrice(now)
		items = append(items, model.OrderItem{
			ProductID:  product.ID,
			SellerID:   product.SellerID,
			Name:       product.Name,
			Quantity:   it.Quantity,
			UnitPrice:  product.Price,
			OfferPrice: effective,
			Status:     model.StatusPending,
		})
		total += effective * float64(it.Quantity)
	}

	return items, total, nil
}
