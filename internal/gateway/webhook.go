package gateway

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"

	"vendora/internal/model"
)

// SignatureHeader carries the pre-shared webhook secret on inbound
// notifications.
const SignatureHeader = "verif-hash"

// Notification is an asynchronous, signed message from the gateway
// reporting the final status of a transaction.
type Notification struct {
	Event string           `json:"event"`
	Data  NotificationData `json:"data"`
}

// NotificationData is the transaction payload inside a notification.
type NotificationData struct {
	ID       int64   `json:"id"`
	TxRef    string  `json:"tx_ref"`
	Status   string  `json:"status"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Successful reports whether the notification settles the payment.
func (n *Notification) Successful() bool {
	return n.Data.Status == "successful"
}

// ParseNotification validates the signature header against the pre-shared
// secret and decodes the payload. A signature mismatch returns
// model.ErrInvalidSignature and the payload is not processed.
func ParseNotification(payload []byte, signature, secret string) (*Notification, error) {
	if secret == "" || subtle.ConstantTimeCompare([]byte(signature), []byte(secret)) != 1 {
		return nil, model.ErrInvalidSignature
	}

	var n Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, fmt.Errorf("failed to decode notification payload: %w", err)
	}
	if n.Data.TxRef == "" {
		return nil, fmt.Errorf("notification payload missing tx_ref")
	}
	return &n, nil
}
