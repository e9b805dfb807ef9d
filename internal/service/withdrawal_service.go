package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vendora/internal/bank"
	"vendora/internal/events"
	"vendora/internal/gateway"
	"vendora/internal/metrics"
	"vendora/internal/model"
	"vendora/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// withdrawalService implements WithdrawalService as an explicit saga: the
// funds are debited before the transfer API is called, and every failure
// after the debit compensates by erasing the reservation.
type withdrawalService struct {
	withdrawals repository.WithdrawalRepository
	wallets     repository.WalletRepository
	wallet      WalletService
	users       repository.UserRepository
	banks       bank.Directory
	runner      repository.TxRunner
	gw          gateway.Gateway
	currency    string
	staleAfter  time.Duration
	pub         events.Publisher
	metrics     *metrics.LedgerMetrics
	logger      zerolog.Logger
}

// NewWithdrawalService creates a new withdrawal service.
func NewWithdrawalService(
	withdrawals repository.WithdrawalRepository,
	wallets repository.WalletRepository,
	wallet WalletService,
	users repository.UserRepository,
	banks bank.Directory,
	runner repository.TxRunner,
	gw gateway.Gateway,
	currency string,
	staleAfter time.Duration,
	pub events.Publisher,
	m *metrics.LedgerMetrics,
	logger zerolog.Logger,
) WithdrawalService {
	return &withdrawalService{
		withdrawals: withdrawals,
		wallets:     wallets,
		wallet:      wallet,
		users:       users,
		banks:       banks,
		runner:      runner,
		gw:          gw,
		currency:    currency,
		staleAfter:  staleAfter,
		pub:         pub,
		metrics:     m,
		logger:      logger.With().Str("service", "withdrawal").Logger(),
	}
}

// Request runs the payout saga. Step one atomically debits the seller wallet
// with a pending entry and records the intent; every later failure
// compensates that reservation. The intent id is the idempotency reference
// throughout, including on the transfer API call.
func (s *withdrawalService) Request(ctx context.Context, req *model.WithdrawalRequest) (*model.WithdrawalResponse, error) {
	if err := validateWithdrawal(req); err != nil {
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
	intent := &model.Withdrawal{
		ID:            uuid.New(),
		UserID:        req.UserID,
		Amount:        req.Amount,
		BankName:      req.BankDetails.BankName,
		AccountNumber: req.BankDetails.AccountNumber,
		State:         model.WithdrawalInitiated,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// Step 1: reserve the funds and record the intent atomically.
	err = s.runner.WithTx(ctx, func(tx pgx.Tx) error {
		entry := &model.WalletEntry{
			Reference: intent.ID.String(),
			UserID:    req.UserID,
			Wallet:    model.WalletSeller,
			Type:      model.EntryWithdrawal,
			Amount:    req.Amount,
			Status:    model.EntryStatusPending,
			CreatedAt: now,
		}
		if _, err := s.wallet.Debit(ctx, tx, entry); err != nil {
			return err
		}
		return s.withdrawals.Create(ctx, tx, intent)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("withdrawal_id", intent.ID.String()).
		Str("user_id", req.UserID).
		Float64("amount", req.Amount).
		Msg("withdrawal funds reserved")

	// Step 2: resolve the bank. An unknown name compensates immediately.
	code, err := s.banks.Resolve(ctx, req.BankDetails.BankName)
	if err != nil {
		if errors.Is(err, model.ErrUnknownBank) {
			if cerr := s.compensate(ctx, intent, "unknown bank: "+req.BankDetails.BankName); cerr != nil {
				return nil, cerr
			}
			return nil, model.ErrUnknownBank
		}
		return nil, err
	}

	// Step 3: mark the external call before making it, so a crash between
	// the two leaves a state the recovery sweep knows how to handle.
	err = s.runner.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.withdrawals.SetBankCode(ctx, tx, intent.ID, code); err != nil {
			return err
		}
		return s.withdrawals.UpdateState(ctx, tx, intent.ID, model.WithdrawalExternalCallSent, "")
	})
	if err != nil {
		return nil, err
	}

	// Step 4: the transfer itself.
	err = s.gw.Transfer(ctx, gateway.TransferRequest{
		Reference:     intent.ID.String(),
		BankCode:      code,
		AccountNumber: req.BankDetails.AccountNumber,
		Amount:        req.Amount,
		Currency:      s.currency,
		Narration:     "wallet withdrawal",
	})
	if err != nil {
		s.logger.Error().Err(err).Str("withdrawal_id", intent.ID.String()).Msg("transfer failed, compensating")
		if cerr := s.compensate(ctx, intent, err.Error()); cerr != nil {
			return nil, cerr
		}
		return nil, err
	}

	// Step 5: settle the intent and the wallet entry.
	err = s.runner.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.wallets.UpdateEntryStatus(ctx, tx, req.UserID, model.WalletSeller, intent.ID.String(), model.EntryStatusCompleted); err != nil {
			return err
		}
		return s.withdrawals.UpdateState(ctx, tx, intent.ID, model.WithdrawalSettled, "")
	})
	if err != nil {
		return nil, err
	}

	s.metrics.WithdrawalsSettled.Inc()
	s.logger.Info().Str("withdrawal_id", intent.ID.String()).Msg("withdrawal settled")
	s.pub.Publish(ctx, events.NewEnvelope(events.EventWithdrawalSettled, intent.ID.String(), events.WithdrawalPayload{
		WithdrawalID: intent.ID.String(),
		UserID:       req.UserID,
		Amount:       req.Amount,
	}))

	return &model.WithdrawalResponse{ID: intent.ID, State: model.WithdrawalSettled, Accepted: true}, nil
}

// compensate undoes the step-one reservation: the balance is restored, the
// pending entry erased and the intent marked compensated. Idempotent: an
// intent already settled or compensated is left alone, so the saga and the
// recovery sweep cannot double-refund each other.
func (s *withdrawalService) compensate(ctx context.Context, intent *model.Withdrawal, reason string) error {
	compensated := false

	err := s.runner.WithTx(ctx, func(tx pgx.Tx) error {
		compensated = false

		w, err := s.withdrawals.GetForUpdate(ctx, tx, intent.ID)
		if err != nil {
			return err
		}
		if w.State == model.WithdrawalSettled || w.State == model.WithdrawalCompensated {
			return nil
		}

		balance, err := s.wallets.GetBalanceForUpdate(ctx, tx, w.UserID, model.WalletSeller)
		if err != nil {
			return err
		}
		if err := s.wallets.SetBalance(ctx, tx, w.UserID, model.WalletSeller, balance+w.Amount); err != nil {
			return err
		}
		if err := s.wallets.DeleteEntry(ctx, tx, w.UserID, model.WalletSeller, w.ID.String()); err != nil {
			return err
		}
		if err := s.withdrawals.UpdateState(ctx, tx, w.ID, model.WithdrawalCompensated, reason); err != nil {
			return err
		}
		compensated = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to compensate withdrawal %s: %w", intent.ID, err)
	}

	if compensated {
		s.metrics.WithdrawalsCompensated.Inc()
		s.logger.Warn().
			Str("withdrawal_id", intent.ID.String()).
			Str("reason", reason).
			Msg("withdrawal compensated")
		s.pub.Publish(ctx, events.NewEnvelope(events.EventWithdrawalCompensated, intent.ID.String(), events.WithdrawalPayload{
			WithdrawalID: intent.ID.String(),
			UserID:       intent.UserID,
			Amount:       intent.Amount,
			Reason:       reason,
		}))
	}
	return nil
}

// RecoverStale compensates intents stuck mid-saga past the configured
// timeout: a crash before the transfer leaves "initiated", a crash around it
// leaves "external_call_sent". The latter may have paid out; compensation
// still refunds, and the transfer reference makes the case reconcilable
// against the provider's records.
func (s *withdrawalService) RecoverStale(ctx context.Context) error {
	cutoff := time.Now().Add(-s.staleAfter)

	for _, state := range []model.WithdrawalState{model.WithdrawalInitiated, model.WithdrawalExternalCallSent} {
		stale, err := s.withdrawals.ListStale(ctx, state, cutoff)
		if err != nil {
			return err
		}

		for i := range stale {
			w := &stale[i]
			if w.State == model.WithdrawalExternalCallSent {
				s.logger.Warn().
					Str("withdrawal_id", w.ID.String()).
					Msg("compensating a sent external call, reconcile against provider records")
			}
			if err := s.compensate(ctx, w, fmt.Sprintf("stale in state %s past %s", w.State, s.staleAfter)); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateWithdrawal(req *model.WithdrawalRequest) error {
	if req.UserID == "" {
		return model.NewDomainError(model.ErrCodeMissingField, "user id is required")
	}
	if req.Amount <= 0 {
		return model.NewDomainError(model.ErrCodeValidation, "withdrawal amount must be greater than zero")
	}
	if req.BankDetails.BankName == "" {
		return model.NewDomainError(model.ErrCodeMissingField, "bank name is required")
	}
	if req.BankDetails.AccountNumber == "" {
		return model.NewDomainError(model.ErrCodeMissingField, "account number is required")
	}
	return nil
}
