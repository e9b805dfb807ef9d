package service

import (
	"context"
	"fmt"
	"strings"

	"vendora/internal/cache"
	"vendora/internal/gateway"
	"vendora/internal/metrics"

	"github.com/rs/zerolog"
)

// paymentService implements PaymentService. It is the single inbound
// settlement boundary: signed notifications and direct verification both
// route here and converge on the order and wallet services.
type paymentService struct {
	orders        OrderService
	wallets       WalletService
	gw            gateway.Gateway
	dedup         cache.Dedup
	webhookSecret string
	metrics       *metrics.LedgerMetrics
	logger        zerolog.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(
	orders OrderService,
	wallets WalletService,
	gw gateway.Gateway,
	dedup cache.Dedup,
	webhookSecret string,
	m *metrics.LedgerMetrics,
	logger zerolog.Logger,
) PaymentService {
	return &paymentService{
		orders:        orders,
		wallets:       wallets,
		gw:            gw,
		dedup:         dedup,
		webhookSecret: webhookSecret,
		metrics:       m,
		logger:        logger.With().Str("service", "payment").Logger(),
	}
}

// HandleNotification validates the signature and settles the referenced
// order or top-up. Unmatched references are acknowledged without mutation so
// the gateway stops retrying; invalid signatures are rejected outright.
func (s *paymentService) HandleNotification(ctx context.Context, payload []byte, signature string) error {
	n, err := gateway.ParseNotification(payload, signature, s.webhookSecret)
	if err != nil {
		return err
	}

	txRef := n.Data.TxRef
	if s.dedup.Seen(ctx, txRef) {
		s.metrics.DuplicateNotifications.Inc()
		s.logger.Info().Str("tx_ref", txRef).Msg("notification already processed, short-circuiting")
		return nil
	}

	if err := s.apply(ctx, txRef, n.Successful(), n.Data.Amount, n.Data.Status); err != nil {
		return err
	}

	s.dedup.Mark(ctx, txRef)
	return nil
}

// VerifyAndSettle queries the gateway for the authoritative status of txRef
// and applies the same settlement logic as the notification path. Used when
// the buyer returns from the hosted page before the notification lands, or
// when a notification was lost.
func (s *paymentService) VerifyAndSettle(ctx context.Context, txRef string) error {
	v, err := s.gw.Verify(ctx, txRef)
	if err != nil {
		return fmt.Errorf("failed to verify %s: %w", txRef, err)
	}
	return s.apply(ctx, txRef, v.Successful(), v.Amount, v.Status)
}

// apply routes a settled gateway outcome by reference prefix. Both routes
// are idempotent, so replays and races with the other path are harmless.
func (s *paymentService) apply(ctx context.Context, txRef string, successful bool, amount float64, status string) error {
	switch {
	case strings.HasPrefix(txRef, TxRefOrderPrefix):
		if !successful {
			return s.orders.Fail(ctx, txRef, "payment "+status)
		}
		_, err := s.orders.Finalize(ctx, txRef, amount)
		return err

	case strings.HasPrefix(txRef, TxRefTopUpPrefix):
		if !successful {
			return s.wallets.FailTopUp(ctx, txRef, "payment "+status)
		}
		return s.wallets.ConfirmTopUp(ctx, txRef, amount)
	}

	// A reference this service never minted. Acknowledge and drop.
	s.logger.Warn().Str("tx_ref", txRef).Msg("reference has no known prefix, ignoring")
	return nil
}
