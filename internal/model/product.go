package model

import (
	"math"
	"time"
)

// Product represents a catalogue item owned by a seller.
type Product struct {
	ID               string     `json:"id" db:"id"`
	SellerID         string     `json:"sellerId" db:"seller_id"`
	Name             string     `json:"name" db:"name"`
	Price            float64    `json:"price" db:"price"`
	OfferPrice       float64    `json:"offerPrice" db:"offer_price"`
	FlashSalePrice   *float64   `json:"flashSalePrice,omitempty" db:"flash_sale_price"`
	FlashSaleEndDate *time.Time `json:"flashSaleEndDate,omitempty" db:"flash_sale_end_date"`
	Stock            int        `json:"stock" db:"stock"`
	CreatedAt        time.Time  `json:"createdAt" db:"created_at"`
}

// EffectivePrice returns the price a unit sells for at the given instant.
// The flash-sale price applies only while the sale end date is still in the
// future; callers must re-derive this at finalization time rather than reuse
// the price captured when the order was created.
func (p *Product) EffectivePrice(now time.Time) float64 {
	if p.FlashSalePrice != nil && p.FlashSaleEndDate != nil && p.FlashSaleEndDate.After(now) {
		return *p.FlashSalePrice
	}
	if p.OfferPrice > 0 && p.OfferPrice < p.Price {
		return p.OfferPrice
	}
	return p.Price
}

// AmountTolerance is the maximum absolute difference under which two
// monetary amounts are considered equal. Amounts are stored as plain
// floats, so gateway-reported values may differ by rounding noise.
const AmountTolerance = 0.01

// AmountsMatch reports whether two monetary amounts agree within tolerance.
func AmountsMatch(a, b float64) bool {
	return math.Abs(a-b) <= AmountTolerance
}
