package handler

import (
	"encoding/json"
	"net/http"

	"vendora/internal/model"
	"vendora/internal/service"

	"github.com/rs/zerolog"
)

// WithdrawalHandler handles seller payout requests.
type WithdrawalHandler struct {
	service service.WithdrawalService
	logger  zerolog.Logger
}

// NewWithdrawalHandler creates a new withdrawal handler.
func NewWithdrawalHandler(service service.WithdrawalService, logger zerolog.Logger) *WithdrawalHandler {
	return &WithdrawalHandler{
		service: service,
		logger:  logger.With().Str("handler", "withdrawal").Logger(),
	}
}

// Request handles POST /api/withdrawals requests.
func (h *WithdrawalHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req model.WithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	resp, err := h.service.Request(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}
