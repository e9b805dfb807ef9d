package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectivePrice(t *testing.T) {
	now := time.Now()
	flash := 10.0
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name    string
		product Product
		want    float64
	}{
		{
			name:    "base price only",
			product: Product{Price: 25},
			want:    25,
		},
		{
			name:    "offer price below base",
			product: Product{Price: 25, OfferPrice: 20},
			want:    20,
		},
		{
			name:    "offer price above base ignored",
			product: Product{Price: 25, OfferPrice: 30},
			want:    25,
		},
		{
			name:    "zero offer price ignored",
			product: Product{Price: 25, OfferPrice: 0},
			want:    25,
		},
		{
			name:    "running flash sale wins",
			product: Product{Price: 25, OfferPrice: 20, FlashSalePrice: &flash, FlashSaleEndDate: &future},
			want:    10,
		},
		{
			name:    "expired flash sale falls back to offer",
			product: Product{Price: 25, OfferPrice: 20, FlashSalePrice: &flash, FlashSaleEndDate: &past},
			want:    20,
		},
		{
			name:    "flash price without end date ignored",
			product: Product{Price: 25, FlashSalePrice: &flash},
			want:    25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.product.EffectivePrice(now))
		})
	}
}

func TestAmountsMatch(t *testing.T) {
	assert.True(t, AmountsMatch(70, 70))
	assert.True(t, AmountsMatch(70, 70.005))
	assert.True(t, AmountsMatch(70.01, 70))
	assert.False(t, AmountsMatch(70, 70.02))
	assert.False(t, AmountsMatch(70, 69))
}
