package gateway

import (
	"context"
	"fmt"
)

// Gateway is the external payment provider boundary: payment initiation,
// direct status verification, and bank transfers for seller payouts.
type Gateway interface {
	// Initiate creates a hosted payment page for the given reference and
	// returns the link the buyer is redirected to. The caller must persist
	// its pending record before calling Initiate.
	Initiate(ctx context.Context, req InitiateRequest) (*PaymentLink, error)

	// Verify queries the gateway for the authoritative status of a
	// transaction by our tx_ref.
	Verify(ctx context.Context, txRef string) (*VerifiedPayment, error)

	// Transfer sends funds to an external bank account. The reference is
	// minted by the caller and doubles as the idempotency key.
	Transfer(ctx context.Context, req TransferRequest) error
}

// InitiateRequest is a payment-initiation request. Amount is the value the
// buyer is charged; TxRef is minted locally before the call.
type InitiateRequest struct {
	TxRef       string            `json:"tx_ref"`
	Amount      float64           `json:"amount"`
	Currency    string            `json:"currency"`
	CustomerID  string            `json:"-"`
	RedirectURL string            `json:"redirect_url,omitempty"`
	Meta        map[string]string `json:"meta,omitempty"`
}

// PaymentLink is the hosted checkout page returned by the gateway.
type PaymentLink struct {
	Link string `json:"link"`
}

// VerifiedPayment is the gateway's authoritative view of a transaction.
type VerifiedPayment struct {
	TransactionID string  `json:"id"`
	TxRef         string  `json:"tx_ref"`
	Status        string  `json:"status"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
}

// Successful reports whether the gateway settled the payment.
func (v *VerifiedPayment) Successful() bool {
	return v.Status == "successful"
}

// TransferRequest is an outbound bank transfer for a seller payout.
type TransferRequest struct {
	Reference     string  `json:"reference"`
	BankCode      string  `json:"account_bank"`
	AccountNumber string  `json:"account_number"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Narration     string  `json:"narration,omitempty"`
}

// Error is a failure reported by (or while reaching) the gateway.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gateway error: %s", e.Message)
}
