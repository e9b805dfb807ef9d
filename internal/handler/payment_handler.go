package handler

import (
	"errors"
	"io"
	"net/http"

	"vendora/internal/gateway"
	"vendora/internal/model"
	"vendora/internal/service"

	"github.com/rs/zerolog"
)

// maxWebhookBody bounds notification payloads; real ones are under a kilobyte.
const maxWebhookBody = 64 * 1024

// PaymentHandler handles gateway notifications and direct verification.
type PaymentHandler struct {
	service service.PaymentService
	logger  zerolog.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(service service.PaymentService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger.With().Str("handler", "payment").Logger(),
	}
}

// Webhook handles POST /webhooks/payments requests from the gateway. The
// route is exempt from API-key auth; the signature header is the credential.
// Anything except an invalid signature is acknowledged with 200 so the
// gateway stops retrying.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "failed to read payload", h.logger)
		return
	}

	err = h.service.HandleNotification(r.Context(), payload, r.Header.Get(gateway.SignatureHeader))
	if err != nil {
		if errors.Is(err, model.ErrInvalidSignature) {
			writeDomainError(w, err, h.logger)
			return
		}
		// A transient settlement failure: report it so the gateway retries.
		h.logger.Error().Err(err).Msg("notification settlement failed")
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "settlement failed", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Verify handles POST /api/payments/verify requests, the fallback used when
// the buyer returns from the hosted page before the notification lands.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	txRef := r.URL.Query().Get("tx_ref")
	if txRef == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "tx_ref is required", h.logger)
		return
	}

	if err := h.service.VerifyAndSettle(r.Context(), txRef); err != nil {
		var gwErr *gateway.Error
		if errors.As(err, &gwErr) {
			writeError(w, http.StatusBadGateway, model.ErrCodeGatewayError, gwErr.Message, h.logger)
			return
		}
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
