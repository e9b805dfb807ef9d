package service

import (
	"context"
	"fmt"
	"time"

	"vendora/internal/gateway"
	"vendora/internal/model"
	"vendora/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// TxRefTopUpPrefix marks references minted for wallet top-ups, as opposed
// to order checkouts.
const TxRefTopUpPrefix = "TOP-"

// walletService implements WalletService.
type walletService struct {
	wallets        repository.WalletRepository
	users          repository.UserRepository
	runner         repository.TxRunner
	gw             gateway.Gateway
	currency       string
	commissionRate float64
	logger         zerolog.Logger
}

// NewWalletService creates a new wallet service.
func NewWalletService(
	wallets repository.WalletRepository,
	users repository.UserRepository,
	runner repository.TxRunner,
	gw gateway.Gateway,
	currency string,
	commissionRate float64,
	logger zerolog.Logger,
) WalletService {
	return &walletService{
		wallets:        wallets,
		users:          users,
		runner:         runner,
		gw:             gw,
		currency:       currency,
		commissionRate: commissionRate,
		logger:         logger.With().Str("service", "wallet").Logger(),
	}
}

// Credit adds funds inside the caller's transaction. The balance is read
// under lock before the entry insert so the check and the write cannot
// interleave with a concurrent mutation.
func (s *walletService) Credit(ctx context.Context, tx pgx.Tx, entry *model.WalletEntry) (bool, error) {
	balance, err := s.wallets.GetBalanceForUpdate(ctx, tx, entry.UserID, entry.Wallet)
	if err != nil {
		return false, err
	}

	inserted, err := s.wallets.InsertEntry(ctx, tx, entry)
	if err != nil {
		return false, err
	}
	if !inserted {
		// Duplicate reference: the credit already happened.
		return false, nil
	}

	if err := s.wallets.SetBalance(ctx, tx, entry.UserID, entry.Wallet, balance+entry.Amount); err != nil {
		return false, err
	}

	s.logger.Info().
		Str("user_id", entry.UserID).
		Str("wallet", string(entry.Wallet)).
		Str("reference", entry.Reference).
		Float64("amount", entry.Amount).
		Msg("wallet credited")

	return true, nil
}

// Debit removes funds inside the caller's transaction. The insufficiency
// check happens after the idempotency insert so that a duplicate reference
// is recognised as a no-op even when the balance has since dropped.
func (s *walletService) Debit(ctx context.Context, tx pgx.Tx, entry *model.WalletEntry) (bool, error) {
	balance, err := s.wallets.GetBalanceForUpdate(ctx, tx, entry.UserID, entry.Wallet)
	if err != nil {
		return false, err
	}

	inserted, err := s.wallets.InsertEntry(ctx, tx, entry)
	if err != nil {
		return false, err
	}
	if !inserted {
		return false, nil
	}

	if entry.Amount > balance {
		// Aborting the transaction also discards the entry just inserted.
		return false, model.ErrInsufficientBalance
	}

	if err := s.wallets.SetBalance(ctx, tx, entry.UserID, entry.Wallet, balance-entry.Amount); err != nil {
		return false, err
	}

	s.logger.Info().
		Str("user_id", entry.UserID).
		Str("wallet", string(entry.Wallet)).
		Str("reference", entry.Reference).
		Float64("amount", entry.Amount).
		Msg("wallet debited")

	return true, nil
}

// CreditSellerSale credits a seller's wallet for a sale. The entry stores
// gross, commission and net so the ledger is auditable without recomputing
// the commission rate in force at the time.
func (s *walletService) CreditSellerSale(ctx context.Context, tx pgx.Tx, sellerID, reference string, gross float64) (*model.WalletEntry, bool, error) {
	commission := gross * s.commissionRate
	net := gross - commission

	entry := &model.WalletEntry{
		Reference:   reference,
		UserID:      sellerID,
		Wallet:      model.WalletSeller,
		Type:        model.EntrySale,
		Amount:      net,
		GrossSale:   gross,
		Commission:  commission,
		NetEarnings: net,
		Status:      model.EntryStatusCompleted,
		CreatedAt:   time.Now(),
	}

	inserted, err := s.Credit(ctx, tx, entry)
	if err != nil {
		return nil, false, err
	}
	return entry, inserted, nil
}

// ReverseSale claws back a seller's recorded sale payout for an order. The
// debit amount is the net earnings recorded on the original entry, not a
// recomputation, so a commission-rate change between completion and
// reversal cannot skew the refund.
func (s *walletService) ReverseSale(ctx context.Context, tx pgx.Tx, sellerID, orderRef string) (bool, string, error) {
	sale, err := s.wallets.GetEntry(ctx, tx, sellerID, model.WalletSeller, orderRef)
	if err != nil {
		return false, "", err
	}
	if sale == nil {
		return false, "no payout recorded for this order", nil
	}
	if sale.Status == model.EntryStatusReversed {
		return false, "payout already reversed", nil
	}

	balance, err := s.wallets.GetBalanceForUpdate(ctx, tx, sellerID, model.WalletSeller)
	if err != nil {
		return false, "", err
	}
	if sale.NetEarnings > balance {
		// The seller has withdrawn in the meantime; report instead of
		// driving the balance negative.
		return false, fmt.Sprintf("balance %.2f does not cover payout %.2f", balance, sale.NetEarnings), nil
	}

	entry := &model.WalletEntry{
		Reference: "REV-" + orderRef,
		UserID:    sellerID,
		Wallet:    model.WalletSeller,
		Type:      model.EntryReversal,
		Amount:    sale.NetEarnings,
		GrossSale: sale.GrossSale,
		Status:    model.EntryStatusCompleted,
		CreatedAt: time.Now(),
	}
	inserted, err := s.Debit(ctx, tx, entry)
	if err != nil {
		return false, "", err
	}
	if !inserted {
		return false, "payout already reversed", nil
	}

	if err := s.wallets.UpdateEntryStatus(ctx, tx, sellerID, model.WalletSeller, orderRef, model.EntryStatusReversed); err != nil {
		return false, "", err
	}
	return true, "", nil
}

// InitiateTopUp persists a pending top-up intent and returns the gateway
// payment link. The intent is committed before the gateway call so a crash
// after initiation still leaves an auditable pending record.
func (s *walletService) InitiateTopUp(ctx context.Context, userID string, amount float64) (*model.TopUpResponse, error) {
	if userID == "" {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "user id is required")
	}
	if amount <= 0 {
		return nil, model.NewDomainError(model.ErrCodeValidation, "top-up amount must be greater than zero")
	}

	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, model.ErrUserNotFound
	}

	txRef := TxRefTopUpPrefix + uuid.NewString()
	topup := &model.TopUp{
		TxRef:     txRef,
		UserID:    userID,
		Amount:    amount,
		Status:    model.EntryStatusPending,
		CreatedAt: time.Now(),
	}

	err = s.runner.WithTx(ctx, func(tx pgx.Tx) error {
		return s.wallets.CreateTopUp(ctx, tx, topup)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist top-up intent: %w", err)
	}

	link, err := s.gw.Initiate(ctx, gateway.InitiateRequest{
		TxRef:      txRef,
		Amount:     amount,
		Currency:   s.currency,
		CustomerID: userID,
		Meta:       map[string]string{"purpose": "wallet-topup"},
	})
	if err != nil {
		// The pending intent stays for a later notification or manual review.
		s.logger.Error().Err(err).Str("tx_ref", txRef).Msg("top-up initiation failed at gateway")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("tx_ref", txRef).
		Float64("amount", amount).
		Msg("top-up initiated")

	return &model.TopUpResponse{TxRef: txRef, Amount: amount, PaymentLink: link.Link}, nil
}

// ConfirmTopUp settles a pending top-up against the gateway-reported amount.
func (s *walletService) ConfirmTopUp(ctx context.Context, txRef string, gatewayAmount float64) error {
	return s.runner.WithTx(ctx, func(tx pgx.Tx) error {
		topup, err := s.wallets.GetTopUpForUpdate(ctx, tx, txRef)
		if err != nil {
			return err
		}
		if topup == nil {
			s.logger.Warn().Str("tx_ref", txRef).Msg("no top-up matches reference, ignoring")
			return nil
		}
		if topup.Status != model.EntryStatusPending {
			s.logger.Info().Str("tx_ref", txRef).Msg("top-up already settled, ignoring duplicate")
			return nil
		}

		if !model.AmountsMatch(topup.Amount, gatewayAmount) {
			s.logger.Warn().
				Str("tx_ref", txRef).
				Float64("expected", topup.Amount).
				Float64("reported", gatewayAmount).
				Msg("top-up amount mismatch")
			return s.wallets.UpdateTopUpStatus(ctx, tx, txRef, "failed")
		}

		entry := &model.WalletEntry{
			Reference: txRef,
			UserID:    topup.UserID,
			Wallet:    model.WalletBuyer,
			Type:      model.EntryTopUp,
			Amount:    topup.Amount,
			Method:    "online",
			CreatedAt: time.Now(),
		}
		if _, err := s.Credit(ctx, tx, entry); err != nil {
			return err
		}

		return s.wallets.UpdateTopUpStatus(ctx, tx, txRef, model.EntryStatusCompleted)
	})
}

// FailTopUp marks a pending top-up failed without crediting.
func (s *walletService) FailTopUp(ctx context.Context, txRef, reason string) error {
	return s.runner.WithTx(ctx, func(tx pgx.Tx) error {
		topup, err := s.wallets.GetTopUpForUpdate(ctx, tx, txRef)
		if err != nil {
			return err
		}
		if topup == nil || topup.Status != model.EntryStatusPending {
			return nil
		}

		s.logger.Warn().Str("tx_ref", txRef).Str("reason", reason).Msg("top-up failed")
		return s.wallets.UpdateTopUpStatus(ctx, tx, txRef, "failed")
	})
}

// Entries returns a wallet's full entry log, oldest first.
func (s *walletService) Entries(ctx context.Context, userID string, wallet model.WalletKind) ([]model.WalletEntry, error) {
	return s.wallets.ListEntries(ctx, userID, wallet)
}
