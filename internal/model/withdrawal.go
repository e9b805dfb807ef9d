package model

import (
	"time"

	"github.com/google/uuid"
)

// WithdrawalState is the saga state of a payout to an external bank account.
// The funds are debited while the intent is "initiated"; any intent stuck in
// "external_call_sent" past the recovery timeout is compensated by the sweep.
type WithdrawalState string

const (
	WithdrawalInitiated        WithdrawalState = "initiated"
	WithdrawalExternalCallSent WithdrawalState = "external_call_sent"
	WithdrawalSettled          WithdrawalState = "settled"
	WithdrawalCompensated      WithdrawalState = "compensated"
)

// BankDetails identifies the seller's payout destination.
type BankDetails struct {
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
	AccountName   string `json:"accountName"`
}

// Withdrawal is the persisted payout intent record.
type Withdrawal struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        string          `json:"userId" db:"user_id"`
	Amount        float64         `json:"amount" db:"amount"`
	BankName      string          `json:"bankName" db:"bank_name"`
	BankCode      string          `json:"bankCode" db:"bank_code"`
	AccountNumber string          `json:"accountNumber" db:"account_number"`
	State         WithdrawalState `json:"state" db:"state"`
	FailureReason string          `json:"failureReason,omitempty" db:"failure_reason"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

// WithdrawalRequest is the request payload for a seller payout.
type WithdrawalRequest struct {
	UserID      string      `json:"userId"`
	Amount      float64     `json:"amount"`
	BankDetails BankDetails `json:"bankDetails"`
}

// WithdrawalResponse acknowledges an accepted payout request. Settlement is
// asynchronous; the response carries the intent id for later inspection.
type WithdrawalResponse struct {
	ID       uuid.UUID       `json:"id"`
	State    WithdrawalState `json:"state"`
	Accepted bool            `json:"accepted"`
}
