package model

// Status is the order lifecycle state.
type Status string

const (
	StatusPending          Status = "pending"
	StatusFailed           Status = "failed"
	StatusOrderPlaced      Status = "Order Placed"
	StatusProcessing       Status = "Processing"
	StatusPartiallyShipped Status = "Partially Shipped"
	StatusShipped          Status = "Shipped"
	StatusDelivered        Status = "Delivered"
	StatusCompleted        Status = "Completed"
	StatusDisputed         Status = "Disputed"
)

// validNext encodes the forward-only order state machine. The only backward
// edge is Completed -> Shipped, reserved for an explicit payout reversal.
var validNext = map[Status]map[Status]bool{
	StatusPending: {
		StatusOrderPlaced: true,
		StatusFailed:      true,
		StatusDisputed:    true,
	},
	StatusOrderPlaced: {
		StatusProcessing:       true,
		StatusPartiallyShipped: true,
		StatusShipped:          true,
		StatusDisputed:         true,
	},
	StatusProcessing: {
		StatusPartiallyShipped: true,
		StatusShipped:          true,
		StatusDisputed:         true,
	},
	StatusPartiallyShipped: {
		StatusShipped:  true,
		StatusDisputed: true,
	},
	StatusShipped: {
		StatusDelivered: true,
		StatusCompleted: true,
		StatusDisputed:  true,
	},
	StatusDelivered: {
		StatusCompleted: true,
		StatusDisputed:  true,
	},
	StatusCompleted: {
		StatusShipped: true, // reversal only
	},
	StatusFailed:   {},
	StatusDisputed: {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// IsTerminal reports whether no further transitions are possible.
func IsTerminal(s Status) bool {
	return len(validNext[s]) == 0
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s Status) bool {
	_, ok := validNext[s]
	return ok
}
