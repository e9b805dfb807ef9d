package service

import (
	"context"
	"testing"
	"time"

	"vendora/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStockReserver_Hold_ReturnsDerivedTotal(t *testing.T) {
	ctx := context.Background()
	products := new(MockProductRepository)
	tx := new(MockTx)
	reserver := NewStockReserver(products, zerolog.Nop())
	now := time.Now()

	products.On("GetForUpdate", ctx, tx, "p1").Return(&model.Product{
		ID: "p1", Price: 25, OfferPrice: 20, Stock: 10,
	}, nil)
	products.On("GetForUpdate", ctx, tx, "p2").Return(&model.Product{
		ID: "p2", Price: 30, Stock: 3,
	}, nil)

	total, err := reserver.Hold(ctx, tx, []model.OrderItem{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 1},
	}, now)

	require.NoError(t, err)
	assert.Equal(t, 70.0, total)
	products.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStockReserver_Hold_OutOfStock(t *testing.T) {
	ctx := context.Background()
	products := new(MockProductRepository)
	tx := new(MockTx)
	reserver := NewStockReserver(products, zerolog.Nop())

	products.On("GetForUpdate", ctx, tx, "p1").Return(&model.Product{
		ID: "p1", Price: 25, Stock: 1,
	}, nil)

	_, err := reserver.Hold(ctx, tx, []model.OrderItem{{ProductID: "p1", Quantity: 2}}, time.Now())

	assert.ErrorIs(t, err, model.ErrOutOfStock)
}

func TestStockReserver_Hold_UsesFlashPriceWhileSaleRuns(t *testing.T) {
	ctx := context.Background()
	products := new(MockProductRepository)
	tx := new(MockTx)
	reserver := NewStockReserver(products, zerolog.Nop())

	now := time.Now()
	flash := 10.0
	end := now.Add(time.Hour)
	products.On("GetForUpdate", ctx, tx, "p1").Return(&model.Product{
		ID: "p1", Price: 25, OfferPrice: 20, FlashSalePrice: &flash, FlashSaleEndDate: &end, Stock: 5,
	}, nil)

	total, err := reserver.Hold(ctx, tx, []model.OrderItem{{ProductID: "p1", Quantity: 2}}, now)

	require.NoError(t, err)
	assert.Equal(t, 20.0, total)
}

func TestStockReserver_Hold_IgnoresExpiredFlashSale(t *testing.T) {
	ctx := context.Background()
	products := new(MockProductRepository)
	tx := new(MockTx)
	reserver := NewStockReserver(products, zerolog.Nop())

	now := time.Now()
	flash := 10.0
	end := now.Add(-time.Minute)
	products.On("GetForUpdate", ctx, tx, "p1").Return(&model.Product{
		ID: "p1", Price: 25, OfferPrice: 20, FlashSalePrice: &flash, FlashSaleEndDate: &end, Stock: 5,
	}, nil)

	total, err := reserver.Hold(ctx, tx, []model.OrderItem{{ProductID: "p1", Quantity: 1}}, now)

	require.NoError(t, err)
	assert.Equal(t, 20.0, total)
}

func TestStockReserver_Decrement_AppliesEachItem(t *testing.T) {
	ctx := context.Background()
	products := new(MockProductRepository)
	tx := new(MockTx)
	reserver := NewStockReserver(products, zerolog.Nop())

	products.On("DecrementStock", ctx, tx, "p1", 2).Return(nil)
	products.On("DecrementStock", ctx, tx, "p2", 1).Return(nil)

	err := reserver.Decrement(ctx, tx, []model.OrderItem{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 1},
	})

	require.NoError(t, err)
	products.AssertExpectations(t)
}

func TestStockReserver_PriceItems_SnapshotsCatalogue(t *testing.T) {
	ctx := context.Background()
	products := new(MockProductRepository)
	reserver := NewStockReserver(products, zerolog.Nop())
	now := time.Now()

	products.On("GetByIDs", ctx, []string{"p1", "p2"}).Return([]model.Product{
		{ID: "p1", SellerID: "S1", Name: "Mug", Price: 25, OfferPrice: 20, Stock: 10},
		{ID: "p2", SellerID: "S2", Name: "Pen", Price: 5, Stock: 10},
	}, nil)

	items, total, err := reserver.PriceItems(ctx, []model.CheckoutItemRequest{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 3},
	}, now)

	require.NoError(t, err)
	assert.Equal(t, 55.0, total)
	require.Len(t, items, 2)
	assert.Equal(t, "Mug", items[0].Name)
	assert.Equal(t, "S1", items[0].SellerID)
	assert.Equal(t, 25.0, items[0].UnitPrice)
	assert.Equal(t, 20.0, items[0].OfferPrice)
	assert.Equal(t, model.StatusPending, items[0].Status)
	assert.Equal(t, 5.0, items[1].OfferPrice)
}

func TestStockReserver_PriceItems_MissingProduct(t *testing.T) {
	ctx := context.Background()
	products := new(MockProductRepository)
	reserver := NewStockReserver(products, zerolog.Nop())

	products.On("GetByIDs", ctx, []string{"p1", "ghost"}).Return([]model.Product{
		{ID: "p1", Price: 25, Stock: 10},
	}, nil)

	_, _, err := reserver.PriceItems(ctx, []model.CheckoutItemRequest{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "ghost", Quantity: 1},
	}, time.Now())

	assert.ErrorIs(t, err, model.ErrProductNotFound)
}
