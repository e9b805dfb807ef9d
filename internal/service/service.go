package service

import (
	"context"

	"vendora/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// FinalizeOutcome is the result of an attempt to settle a pending order.
type FinalizeOutcome int

const (
	// FinalizeNoMatch means no order carries the reference. The caller
	// acknowledges and drops the notification.
	FinalizeNoMatch FinalizeOutcome = iota

	// FinalizeDuplicate means the order already left pending; nothing was
	// mutated.
	FinalizeDuplicate

	// FinalizePlaced means the order was finalized: stock decremented, cart
	// cleared, status Order Placed.
	FinalizePlaced

	// FinalizeAmountMismatch means the gateway-reported amount disagreed
	// with the re-derived total; the order was failed and nothing else was
	// mutated.
	FinalizeAmountMismatch

	// FinalizeOutOfStock means stock ran out between checkout and
	// settlement; the order was failed and no stock was decremented.
	FinalizeOutOfStock
)

// ReversalFailure reports a seller whose payout could not be clawed back.
type ReversalFailure struct {
	SellerID string `json:"sellerId"`
	Reason   string `json:"reason"`
}

// ReversalResult reports the outcome of reversing a completed payout.
type ReversalResult struct {
	OrderID  uuid.UUID         `json:"orderId"`
	Reversed []string          `json:"reversed"`
	Failed   []ReversalFailure `json:"failed,omitempty"`
	Partial  bool              `json:"partial"`
}

// OrderService owns the order state machine: creation, finalization,
// operator transitions, seller payout on completion and its reversal.
type OrderService interface {
	// Checkout validates the cart, recomputes the authoritative total from
	// the catalogue and persists a pending order. Cash-on-delivery and
	// wallet orders finalize immediately; online orders return a payment link.
	Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error)

	// GetByID retrieves an order with its items. Returns nil when not found.
	GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error)

	// Finalize settles the pending order carrying txRef against the
	// gateway-reported amount: one atomic transaction re-derives the total,
	// decrements stock, clears the buyer cart and marks the order placed.
	Finalize(ctx context.Context, txRef string, gatewayAmount float64) (FinalizeOutcome, error)

	// Fail moves a pending order to failed with the given reason. Orders
	// that already left pending are untouched.
	Fail(ctx context.Context, txRef, reason string) error

	// UpdateStatus applies an operator fulfillment transition
	// (Processing, Partially Shipped, Shipped, Delivered). Backward moves
	// are rejected with model.ErrInvalidTransition.
	UpdateStatus(ctx context.Context, id uuid.UUID, to model.Status) error

	// Complete credits every item's seller with their net earnings, keyed
	// by the order id, and marks the order Completed.
	Complete(ctx context.Context, id uuid.UUID) error

	// Reverse claws back the seller payouts of a Completed order and moves
	// it back to Shipped. Sellers whose balance no longer covers the payout
	// are reported in the result instead of being silently skipped.
	Reverse(ctx context.Context, id uuid.UUID) (*ReversalResult, error)

	// Dispute flags the order as Disputed, halting further transitions.
	Dispute(ctx context.Context, id uuid.UUID) error
}

// WalletService maintains buyer and seller wallets, each an append-only
// entry log with a derived balance. Tx-scoped operations compose into the
// caller's transaction; duplicate references are silent no-ops.
type WalletService interface {
	// Credit adds funds inside the caller's transaction. Returns false when
	// an entry with the same reference already exists (nothing written).
	Credit(ctx context.Context, tx pgx.Tx, entry *model.WalletEntry) (bool, error)

	// Debit removes funds inside the caller's transaction. Fails with
	// model.ErrInsufficientBalance when the balance does not cover the
	// amount; returns false on a duplicate reference.
	Debit(ctx context.Context, tx pgx.Tx, entry *model.WalletEntry) (bool, error)

	// CreditSellerSale credits a seller's wallet for a sale, computing
	// commission and net earnings from the gross figure. The reference is
	// the order id. Returns the written entry, or inserted=false on a
	// duplicate.
	CreditSellerSale(ctx context.Context, tx pgx.Tx, sellerID, reference string, gross float64) (entry *model.WalletEntry, inserted bool, err error)

	// ReverseSale claws back a seller's recorded sale payout for an order
	// inside the caller's transaction. It reports ok=false with a reason
	// (without failing the transaction) when no payout is recorded, the
	// payout was already reversed, or the seller's balance no longer covers
	// it.
	ReverseSale(ctx context.Context, tx pgx.Tx, sellerID, orderRef string) (ok bool, reason string, err error)

	// InitiateTopUp persists a pending top-up intent and returns the
	// gateway payment link.
	InitiateTopUp(ctx context.Context, userID string, amount float64) (*model.TopUpResponse, error)

	// ConfirmTopUp settles a pending top-up against the gateway-reported
	// amount: idempotent wallet credit or failure on mismatch. Unknown
	// references are ignored.
	ConfirmTopUp(ctx context.Context, txRef string, gatewayAmount float64) error

	// FailTopUp marks a pending top-up failed without crediting.
	FailTopUp(ctx context.Context, txRef, reason string) error

	// Entries returns a wallet's full entry log, oldest first.
	Entries(ctx context.Context, userID string, wallet model.WalletKind) ([]model.WalletEntry, error)
}

// PaymentService is the inbound settlement boundary: it authenticates and
// routes gateway notifications and runs the direct-verify fallback. Both
// paths converge on the same finalize-or-fail logic.
type PaymentService interface {
	// HandleNotification validates the signature and settles the referenced
	// order or top-up. Unmatched references are acknowledged without
	// mutation so the gateway stops retrying.
	HandleNotification(ctx context.Context, payload []byte, signature string) error

	// VerifyAndSettle queries the gateway for the authoritative status of
	// txRef and applies the same settlement logic as the notification path.
	VerifyAndSettle(ctx context.Context, txRef string) error
}

// WithdrawalService pays sellers out to external bank accounts via an
// explicit saga: debit first, external transfer second, compensation on any
// failure in between.
type WithdrawalService interface {
	// Request reserves the funds, resolves the bank and calls the transfer
	// API. The returned response acknowledges acceptance; settlement is
	// asynchronous.
	Request(ctx context.Context, req *model.WithdrawalRequest) (*model.WithdrawalResponse, error)

	// RecoverStale compensates intents stuck mid-saga longer than the
	// configured timeout, refunding the reserved amount.
	RecoverStale(ctx context.Context) error
}
