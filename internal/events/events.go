package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the ledger core.
const (
	EventOrderPlaced           = "OrderPlaced"
	EventOrderFailed           = "OrderFailed"
	EventOrderCompleted        = "OrderCompleted"
	EventPayoutReversed        = "PayoutReversed"
	EventWithdrawalSettled     = "WithdrawalSettled"
	EventWithdrawalCompensated = "WithdrawalCompensated"
)

// Topics, one per event type. Partition key is the correlation id (order or
// withdrawal id) so events for one aggregate stay ordered.
const (
	TopicOrderPlaced           = "order.placed"
	TopicOrderFailed           = "order.failed"
	TopicOrderCompleted        = "order.completed"
	TopicPayoutReversed        = "payout.reversed"
	TopicWithdrawalSettled     = "withdrawal.settled"
	TopicWithdrawalCompensated = "withdrawal.compensated"
)

var topicFor = map[string]string{
	EventOrderPlaced:           TopicOrderPlaced,
	EventOrderFailed:           TopicOrderFailed,
	EventOrderCompleted:        TopicOrderCompleted,
	EventPayoutReversed:        TopicPayoutReversed,
	EventWithdrawalSettled:     TopicWithdrawalSettled,
	EventWithdrawalCompensated: TopicWithdrawalCompensated,
}

// Envelope wraps every published event.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope builds an envelope for the given event type and payload.
// Marshal errors are impossible for the payload structs below, so they panic.
func NewEnvelope(eventType, correlationID string, payload any) Envelope {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      "vendora-ledger",
		CorrelationID: correlationID,
		Payload:       raw,
	}
}

// Topic returns the kafka topic for the envelope's event type.
func (e Envelope) Topic() string {
	return topicFor[e.EventType]
}

// ---- Payload types per event ----

type OrderPlacedPayload struct {
	OrderID string  `json:"order_id"`
	UserID  string  `json:"user_id"`
	TxRef   string  `json:"tx_ref"`
	Amount  float64 `json:"amount"`
}

type OrderFailedPayload struct {
	OrderID string `json:"order_id"`
	TxRef   string `json:"tx_ref"`
	Reason  string `json:"reason"`
}

type SellerPayout struct {
	SellerID    string  `json:"seller_id"`
	GrossSale   float64 `json:"gross_sale"`
	Commission  float64 `json:"commission"`
	NetEarnings float64 `json:"net_earnings"`
}

type OrderCompletedPayload struct {
	OrderID string         `json:"order_id"`
	Payouts []SellerPayout `json:"payouts"`
}

type PayoutReversedPayload struct {
	OrderID string   `json:"order_id"`
	Sellers []string `json:"sellers"`
	Partial bool     `json:"partial"`
}

type WithdrawalPayload struct {
	WithdrawalID string  `json:"withdrawal_id"`
	UserID       string  `json:"user_id"`
	Amount       float64 `json:"amount"`
	Reason       string  `json:"reason,omitempty"`
}
