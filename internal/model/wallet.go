package model

import "time"

// WalletKind distinguishes the buyer top-up wallet from the seller
// earnings wallet. A single user may hold both.
type WalletKind string

const (
	WalletBuyer  WalletKind = "buyer"
	WalletSeller WalletKind = "seller"
)

// Wallet entry types.
const (
	EntryTopUp      = "Top Up"
	EntryPayment    = "Payment"
	EntrySale       = "Sale"
	EntryWithdrawal = "Withdrawal"
	EntryReversal   = "Reversal"
)

// Wallet entry settlement states (seller withdrawals only; other entries
// are settled the moment they are written).
const (
	EntryStatusPending   = "pending"
	EntryStatusCompleted = "completed"
	EntryStatusReversed  = "reversed"
)

// WalletEntry is one record in a wallet's append-only transaction log.
// Reference is the idempotency key: a tx_ref, gateway transaction id, order
// id or withdrawal intent id, depending on the entry type. Writing an entry
// whose (user, wallet, reference) already exists is a no-op.
type WalletEntry struct {
	Reference   string     `json:"id" db:"reference"`
	UserID      string     `json:"-" db:"user_id"`
	Wallet      WalletKind `json:"-" db:"wallet"`
	Type        string     `json:"type" db:"type"`
	Amount      float64    `json:"amount" db:"amount"`
	GrossSale   float64    `json:"grossSale,omitempty" db:"gross_sale"`
	Commission  float64    `json:"commission,omitempty" db:"commission"`
	NetEarnings float64    `json:"netEarnings,omitempty" db:"net_earnings"`
	Method      string     `json:"method,omitempty" db:"method"`
	Status      string     `json:"status,omitempty" db:"status"`
	CreatedAt   time.Time  `json:"date" db:"created_at"`
}

// Signed returns the entry's contribution to the wallet balance.
func (e *WalletEntry) Signed() float64 {
	switch e.Type {
	case EntryTopUp, EntrySale:
		return e.Amount
	case EntryPayment, EntryWithdrawal, EntryReversal:
		return -e.Amount
	}
	return 0
}

// TopUpRequest is the request payload for a wallet top-up.
type TopUpRequest struct {
	UserID string  `json:"userId"`
	Amount float64 `json:"amount"`
}

// TopUpResponse returns the minted reference and the gateway payment link.
type TopUpResponse struct {
	TxRef       string  `json:"txRef"`
	Amount      float64 `json:"amount"`
	PaymentLink string  `json:"paymentLink"`
}

// TopUp is a pending wallet top-up intent awaiting gateway confirmation.
type TopUp struct {
	TxRef     string    `json:"txRef" db:"tx_ref"`
	UserID    string    `json:"userId" db:"user_id"`
	Amount    float64   `json:"amount" db:"amount"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
