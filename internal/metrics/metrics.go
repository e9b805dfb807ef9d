package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LedgerMetrics counts the money-moving operations of the order core.
type LedgerMetrics struct {
	OrdersFinalized        prometheus.Counter
	OrdersFailed           prometheus.Counter
	DuplicateNotifications prometheus.Counter
	PayoutsCompleted       prometheus.Counter
	PayoutsReversed        prometheus.Counter
	WithdrawalsSettled     prometheus.Counter
	WithdrawalsCompensated prometheus.Counter
}

// New creates and registers the ledger metrics on the given registerer.
func New(reg prometheus.Registerer) *LedgerMetrics {
	m := &LedgerMetrics{
		OrdersFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vendora",
			Name:      "orders_finalized_total",
			Help:      "Orders moved from pending to Order Placed.",
		}),
		OrdersFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vendora",
			Name:      "orders_failed_total",
			Help:      "Orders moved from pending to failed.",
		}),
		DuplicateNotifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vendora",
			Name:      "duplicate_notifications_total",
			Help:      "Gateway notifications suppressed as duplicates.",
		}),
		PayoutsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vendora",
			Name:      "payouts_completed_total",
			Help:      "Seller payouts credited on order completion.",
		}),
		PayoutsReversed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vendora",
			Name:      "payouts_reversed_total",
			Help:      "Completed seller payouts reversed.",
		}),
		WithdrawalsSettled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vendora",
			Name:      "withdrawals_settled_total",
			Help:      "Withdrawal intents settled by the transfer API.",
		}),
		WithdrawalsCompensated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vendora",
			Name:      "withdrawals_compensated_total",
			Help:      "Withdrawal intents compensated after a failure.",
		}),
	}

	reg.MustRegister(
		m.OrdersFinalized,
		m.OrdersFailed,
		m.DuplicateNotifications,
		m.PayoutsCompleted,
		m.PayoutsReversed,
		m.WithdrawalsSettled,
		m.WithdrawalsCompensated,
	)
	return m
}

// Handler returns the HTTP handler for the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
