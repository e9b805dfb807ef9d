package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vendora/internal/events"
	"vendora/internal/gateway"
	"vendora/internal/metrics"
	"vendora/internal/model"
	"vendora/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// TxRefOrderPrefix marks references minted for order checkouts.
const TxRefOrderPrefix = "ORD-"

// operatorTransitions are the fulfillment statuses an operator may set
// through UpdateStatus. Everything else moves through a dedicated operation.
var operatorTransitions = map[model.Status]bool{
	model.StatusProcessing:       true,
	model.StatusPartiallyShipped: true,
	model.StatusShipped:          true,
	model.StatusDelivered:        true,
}

// orderService implements OrderService.
type orderService struct {
	orders   repository.OrderRepository
	users    repository.UserRepository
	wallet   WalletService
	stock    *StockReserver
	runner   repository.TxRunner
	gw       gateway.Gateway
	currency string
	pub      events.Publisher
	metrics  *metrics.LedgerMetrics
	logger   zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orders repository.OrderRepository,
	users repository.UserRepository,
	wallet WalletService,
	stock *StockReserver,
	runner repository.TxRunner,
	gw gateway.Gateway,
	currency string,
	pub events.Publisher,
	m *metrics.LedgerMetrics,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orders:   orders,
		users:    users,
		wallet:   wallet,
		stock:    stock,
		runner:   runner,
		gw:       gw,
		currency: currency,
		pub:      pub,
		metrics:  m,
		logger:   logger.With().Str("service", "order").Logger(),
	}
}

// Checkout validates the cart, recomputes the authoritative total from the
// catalogue and persists a pending order. Wallet and cash-on-delivery orders
// settle inside the creation transaction; online orders return a gateway
// payment link and stay pending until a notification arrives.
func (s *orderService) Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	exists, err := s.users.Exists(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, model.ErrUserNotFound
	}

	now := time.Now()
	items, total, err := s.stock.PriceItems(ctx, req.Items, now)
	if err != nil {
		return nil, err
	}

	if !model.AmountsMatch(total, req.ClientTotal) {
		// The client display total is stale. Not fatal: the ledger charges
		// the recomputed figure regardless.
		s.logger.Warn().
			Str("user_id", req.UserID).
			Float64("client_total", req.ClientTotal).
			Float64("server_total", total).
			Msg("client total disagrees with catalogue")
	}

	order := &model.Order{
		ID:            uuid.New(),
		UserID:        req.UserID,
		Address:       req.Address,
		Amount:        total,
		PaymentMethod: req.PaymentMethod,
		TxRef:         TxRefOrderPrefix + uuid.NewString(),
		Status:        model.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for i := range items {
		items[i].ID = uuid.New()
		items[i].OrderID = order.ID
	}

	err = s.runner.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.orders.CreateOrder(ctx, tx, order); err != nil {
			return err
		}
		if err := s.orders.CreateOrderItems(ctx, tx, items); err != nil {
			return err
		}

		switch req.PaymentMethod {
		case model.PaymentWallet:
			entry := &model.WalletEntry{
				Reference: order.TxRef,
				UserID:    order.UserID,
				Wallet:    model.WalletBuyer,
				Type:      model.EntryPayment,
				Amount:    order.Amount,
				Method:    string(model.PaymentWallet),
				CreatedAt: now,
			}
			if _, err := s.wallet.Debit(ctx, tx, entry); err != nil {
				return err
			}
			return s.settle(ctx, tx, order, items, now)
		case model.PaymentCOD:
			return s.settle(ctx, tx, order, items, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := &model.CheckoutResponse{
		OrderID: order.ID,
		TxRef:   order.TxRef,
		Amount:  order.Amount,
		Status:  order.Status,
		Items:   items,
	}

	if req.PaymentMethod == model.PaymentOnline {
		link, err := s.gw.Initiate(ctx, gateway.InitiateRequest{
			TxRef:      order.TxRef,
			Amount:     order.Amount,
			Currency:   s.currency,
			CustomerID: order.UserID,
			Meta:       map[string]string{"order_id": order.ID.String()},
		})
		if err != nil {
			// The pending order stays behind for the verify fallback or a
			// later notification.
			s.logger.Error().Err(err).Str("tx_ref", order.TxRef).Msg("payment initiation failed at gateway")
			return nil, err
		}
		resp.PaymentLink = link.Link
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("tx_ref", order.TxRef).
		Str("payment_method", string(order.PaymentMethod)).
		Float64("amount", order.Amount).
		Msg("order created")

	if order.Status == model.StatusOrderPlaced {
		s.metrics.OrdersFinalized.Inc()
		s.publishPlaced(ctx, order)
	}

	return resp, nil
}

// settle decrements stock, clears the buyer cart and marks the order placed,
// all inside the caller's transaction. The held total is re-checked against
// the order amount first so no stock moves on a disagreement.
func (s *orderService) settle(ctx context.Context, tx pgx.Tx, order *model.Order, items []model.OrderItem, now time.Time) error {
	total, err := s.stock.Hold(ctx, tx, items, now)
	if err != nil {
		return err
	}
	if !model.AmountsMatch(total, order.Amount) {
		return model.ErrAmountMismatch
	}

	if err := s.stock.Decrement(ctx, tx, items); err != nil {
		return err
	}
	if err := s.users.ClearCart(ctx, tx, order.UserID); err != nil {
		return err
	}
	if err := s.orders.UpdateStatus(ctx, tx, order.ID, model.StatusOrderPlaced, ""); err != nil {
		return err
	}

	order.Status = model.StatusOrderPlaced
	return nil
}

// GetByID retrieves an order with its items. Returns nil when not found.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error) {
	order, items, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, nil
	}
	return &model.OrderResponse{Order: *order, Items: items}, nil
}

// Finalize settles the pending order carrying txRef against the
// gateway-reported amount. One transaction re-derives the total under row
// locks, decrements stock, clears the cart and marks the order placed; a
// disagreement fails the order without touching stock.
func (s *orderService) Finalize(ctx context.Context, txRef string, gatewayAmount float64) (FinalizeOutcome, error) {
	outcome := FinalizeNoMatch
	var order *model.Order

	err := s.runner.WithTx(ctx, func(tx pgx.Tx) error {
		o, err := s.orders.GetByTxRefForUpdate(ctx, tx, txRef)
		if err != nil {
			return err
		}
		if o == nil {
			outcome = FinalizeNoMatch
			return nil
		}
		order = o

		if o.Status != model.StatusPending {
			outcome = FinalizeDuplicate
			return nil
		}

		items, err := s.orders.GetItems(ctx, tx, o.ID)
		if err != nil {
			return err
		}

		now := time.Now()
		total, err := s.stock.Hold(ctx, tx, items, now)
		if errors.Is(err, model.ErrOutOfStock) {
			outcome = FinalizeOutOfStock
			o.Status = model.StatusFailed
			o.FailureReason = "out of stock at settlement"
			return s.orders.UpdateStatus(ctx, tx, o.ID, model.StatusFailed, o.FailureReason)
		}
		if err != nil {
			return err
		}

		if !model.AmountsMatch(total, gatewayAmount) {
			outcome = FinalizeAmountMismatch
			o.Status = model.StatusFailed
			o.FailureReason = fmt.Sprintf("amount mismatch: expected %.2f, gateway reported %.2f", total, gatewayAmount)
			return s.orders.UpdateStatus(ctx, tx, o.ID, model.StatusFailed, o.FailureReason)
		}

		if err := s.stock.Decrement(ctx, tx, items); err != nil {
			return err
		}
		if err := s.users.ClearCart(ctx, tx, o.UserID); err != nil {
			return err
		}
		if err := s.orders.UpdateStatus(ctx, tx, o.ID, model.StatusOrderPlaced, ""); err != nil {
			return err
		}

		o.Status = model.StatusOrderPlaced
		outcome = FinalizePlaced
		return nil
	})
	if err != nil {
		return outcome, err
	}

	switch outcome {
	case FinalizeNoMatch:
		s.logger.Warn().Str("tx_ref", txRef).Msg("no order matches reference, ignoring")
	case FinalizeDuplicate:
		s.metrics.DuplicateNotifications.Inc()
		s.logger.Info().Str("tx_ref", txRef).Str("status", string(order.Status)).Msg("order already settled, ignoring duplicate")
	case FinalizePlaced:
		s.metrics.OrdersFinalized.Inc()
		s.logger.Info().Str("tx_ref", txRef).Str("order_id", order.ID.String()).Msg("order finalized")
		s.publishPlaced(ctx, order)
	case FinalizeAmountMismatch, FinalizeOutOfStock:
		s.metrics.OrdersFailed.Inc()
		s.logger.Warn().Str("tx_ref", txRef).Str("order_id", order.ID.String()).Msg("order failed at settlement")
		s.publishFailed(ctx, order, order.FailureReason)
	}

	return outcome, nil
}

// Fail moves a pending order to failed. Orders that already left pending are
// untouched, so a late failure notification cannot clobber a settled order.
func (s *orderService) Fail(ctx context.Context, txRef, reason string) error {
	var failed *model.Order

	err := s.runner.WithTx(ctx, func(tx pgx.Tx) error {
		o, err := s.orders.GetByTxRefForUpdate(ctx, tx, txRef)
		if err != nil {
			return err
		}
		if o == nil || o.Status != model.StatusPending {
			return nil
		}
		if err := s.orders.UpdateStatus(ctx, tx, o.ID, model.StatusFailed, reason); err != nil {
			return err
		}
		failed = o
		return nil
	})
	if err != nil {
		return err
	}

	if failed != nil {
		s.metrics.OrdersFailed.Inc()
		s.logger.Warn().Str("tx_ref", txRef).Str("reason", reason).Msg("order failed")
		s.publishFailed(ctx, failed, reason)
	}
	return nil
}

// UpdateStatus applies an operator fulfillment transition. Only forward
// moves through the fulfillment pipeline are accepted.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, to model.Status) error {
	if !operatorTransitions[to] {
		return model.ErrInvalidTransition
	}

	return s.runner.WithTx(ctx, func(tx pgx.Tx) error {
		o, err := s.orders.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !model.CanTransition(o.Status, to) {
			s.logger.Warn().
				Str("order_id", id.String()).
				Str("from", string(o.Status)).
				Str("to", string(to)).
				Msg("rejected status transition")
			return model.ErrInvalidTransition
		}
		return s.orders.UpdateStatus(ctx, tx, id, to, "")
	})
}

// Complete credits every item's seller with their net earnings and marks the
// order Completed. The payout references are the order id, so replaying a
// completion cannot double-credit.
func (s *orderService) Complete(ctx context.Context, id uuid.UUID) error {
	var payouts []events.SellerPayout

	err := s.runner.WithTx(ctx, func(tx pgx.Tx) error {
		payouts = payouts[:0]

		o, err := s.orders.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if o.Status == model.StatusCompleted {
			return nil
		}
		if !model.CanTransition(o.Status, model.StatusCompleted) {
			return model.ErrInvalidTransition
		}

		items, err := s.orders.GetItems(ctx, tx, id)
		if err != nil {
			return err
		}

		// Group gross sales by seller, preserving item order.
		gross := make(map[string]float64)
		var sellers []string
		for _, it := range items {
			if _, seen := gross[it.SellerID]; !seen {
				sellers = append(sellers, it.SellerID)
			}
			gross[it.SellerID] += it.OfferPrice * float64(it.Quantity)
		}

		for _, sellerID := range sellers {
			entry, inserted, err := s.wallet.CreditSellerSale(ctx, tx, sellerID, id.String(), gross[sellerID])
			if err != nil {
				return err
			}
			if inserted {
				payouts = append(payouts, events.SellerPayout{
					SellerID:    sellerID,
					GrossSale:   entry.GrossSale,
					Commission:  entry.Commission,
					NetEarnings: entry.NetEarnings,
				})
			}
		}

		return s.orders.UpdateStatus(ctx, tx, id, model.StatusCompleted, "")
	})
	if err != nil {
		return err
	}

	for range payouts {
		s.metrics.PayoutsCompleted.Inc()
	}
	if len(payouts) > 0 {
		s.logger.Info().Str("order_id", id.String()).Int("payouts", len(payouts)).Msg("order completed, sellers credited")
		s.pub.Publish(ctx, events.NewEnvelope(events.EventOrderCompleted, id.String(), events.OrderCompletedPayload{
			OrderID: id.String(),
			Payouts: payouts,
		}))
	}
	return nil
}

// Reverse claws back the seller payouts of a Completed order and moves it
// back to Shipped. A seller whose balance no longer covers the payout is
// reported in the result rather than skipped silently or driven negative.
func (s *orderService) Reverse(ctx context.Context, id uuid.UUID) (*ReversalResult, error) {
	result := &ReversalResult{OrderID: id}

	err := s.runner.WithTx(ctx, func(tx pgx.Tx) error {
		result.Reversed, result.Failed = nil, nil

		o, err := s.orders.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if o.Status != model.StatusCompleted {
			return model.ErrInvalidTransition
		}

		items, err := s.orders.GetItems(ctx, tx, id)
		if err != nil {
			return err
		}

		seen := make(map[string]bool)
		for _, it := range items {
			if seen[it.SellerID] {
				continue
			}
			seen[it.SellerID] = true

			ok, reason, err := s.wallet.ReverseSale(ctx, tx, it.SellerID, id.String())
			if err != nil {
				return err
			}
			if ok {
				result.Reversed = append(result.Reversed, it.SellerID)
			} else {
				result.Failed = append(result.Failed, ReversalFailure{SellerID: it.SellerID, Reason: reason})
			}
		}

		return s.orders.UpdateStatus(ctx, tx, id, model.StatusShipped, "")
	})
	if err != nil {
		return nil, err
	}

	result.Partial = len(result.Failed) > 0

	for range result.Reversed {
		s.metrics.PayoutsReversed.Inc()
	}
	s.logger.Info().
		Str("order_id", id.String()).
		Int("reversed", len(result.Reversed)).
		Int("failed", len(result.Failed)).
		Msg("payout reversal applied")
	s.pub.Publish(ctx, events.NewEnvelope(events.EventPayoutReversed, id.String(), events.PayoutReversedPayload{
		OrderID: id.String(),
		Sellers: result.Reversed,
		Partial: result.Partial,
	}))

	return result, nil
}

// Dispute flags the order as Disputed, halting further transitions. Failed
// orders cannot be disputed; everything else can, including Completed ones.
func (s *orderService) Dispute(ctx context.Context, id uuid.UUID) error {
	return s.runner.WithTx(ctx, func(tx pgx.Tx) error {
		o, err := s.orders.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if o.Status == model.StatusFailed || o.Status == model.StatusDisputed {
			return model.ErrInvalidTransition
		}
		return s.orders.UpdateStatus(ctx, tx, id, model.StatusDisputed, "")
	})
}

func (s *orderService) publishPlaced(ctx context.Context, order *model.Order) {
	s.pub.Publish(ctx, events.NewEnvelope(events.EventOrderPlaced, order.ID.String(), events.OrderPlacedPayload{
		OrderID: order.ID.String(),
		UserID:  order.UserID,
		TxRef:   order.TxRef,
		Amount:  order.Amount,
	}))
}

func (s *orderService) publishFailed(ctx context.Context, order *model.Order, reason string) {
	s.pub.Publish(ctx, events.NewEnvelope(events.EventOrderFailed, order.ID.String(), events.OrderFailedPayload{
		OrderID: order.ID.String(),
		TxRef:   order.TxRef,
		Reason:  reason,
	}))
}

func validateCheckout(req *model.CheckoutRequest) error {
	if req.UserID == "" {
		return model.NewDomainError(model.ErrCodeMissingField, "user id is required")
	}
	if req.Address == "" {
		return model.NewDomainError(model.ErrCodeMissingField, "delivery address is required")
	}
	if !model.ValidPaymentMethod(req.PaymentMethod) {
		return model.NewDomainError(model.ErrCodeValidation, "unsupported payment method")
	}
	if len(req.Items) == 0 {
		return model.NewDomainError(model.ErrCodeValidation, "order has no items")
	}
	for _, it := range req.Items {
		if it.ProductID == "" {
			return model.NewDomainError(model.ErrCodeMissingField, "item product id is required")
		}
		if it.Quantity <= 0 {
			return model.ErrInvalidQuantity
		}
	}
	return nil
}
