package model

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod identifies how the buyer settles an order.
type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentWallet PaymentMethod = "wallet"
	PaymentOnline PaymentMethod = "online"
)

// ValidPaymentMethod reports whether m is a supported payment method.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentCOD, PaymentWallet, PaymentOnline:
		return true
	}
	return false
}

// Order represents a buyer order. Amount is always the server-computed
// total; a client-submitted total is never written to this field.
type Order struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	UserID        string        `json:"userId" db:"user_id"`
	Address       string        `json:"address" db:"address"`
	Amount        float64       `json:"amount" db:"amount"`
	PaymentMethod PaymentMethod `json:"paymentMethod" db:"payment_method"`
	TxRef         string        `json:"txRef" db:"tx_ref"`
	Status        Status        `json:"status" db:"status"`
	FailureReason string        `json:"failureReason,omitempty" db:"failure_reason"`
	CreatedAt     time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time     `json:"updatedAt" db:"updated_at"`
}

// OrderItem represents a line item in an order, snapshotting the product
// name and prices at purchase time.
type OrderItem struct {
	ID         uuid.UUID `json:"-" db:"id"`
	OrderID    uuid.UUID `json:"-" db:"order_id"`
	ProductID  string    `json:"productId" db:"product_id"`
	SellerID   string    `json:"sellerId" db:"seller_id"`
	Name       string    `json:"name" db:"name"`
	Quantity   int       `json:"quantity" db:"quantity"`
	UnitPrice  float64   `json:"unitPrice" db:"unit_price"`
	OfferPrice float64   `json:"offerPrice" db:"offer_price"`
	Status     Status    `json:"status" db:"status"`
}

// CheckoutRequest represents the request payload for creating an order.
// ClientTotal is forwarded to the gateway for display only; the ledger total
// is recomputed server-side from the catalogue.
type CheckoutRequest struct {
	UserID        string                `json:"userId"`
	Address       string                `json:"address"`
	PaymentMethod PaymentMethod         `json:"paymentMethod"`
	ClientTotal   float64               `json:"clientTotal"`
	Items         []CheckoutItemRequest `json:"items"`
}

// CheckoutItemRequest represents a single item in a checkout request.
type CheckoutItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CheckoutResponse represents the response payload for a checkout.
// PaymentLink is set only for online payments.
type CheckoutResponse struct {
	OrderID     uuid.UUID   `json:"orderId"`
	TxRef       string      `json:"txRef"`
	Amount      float64     `json:"amount"`
	Status      Status      `json:"status"`
	PaymentLink string      `json:"paymentLink,omitempty"`
	Items       []OrderItem `json:"items"`
}

// OrderResponse represents an order with its items.
type OrderResponse struct {
	Order Order       `json:"order"`
	Items []OrderItem `json:"items"`
}
