package handler

import (
	"encoding/json"
	"net/http"

	"vendora/internal/model"
	"vendora/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// WalletHandler handles wallet top-up and entry log requests.
type WalletHandler struct {
	service service.WalletService
	logger  zerolog.Logger
}

// NewWalletHandler creates a new wallet handler.
func NewWalletHandler(service service.WalletService, logger zerolog.Logger) *WalletHandler {
	return &WalletHandler{
		service: service,
		logger:  logger.With().Str("handler", "wallet").Logger(),
	}
}

// TopUp handles POST /api/wallet/topups requests.
func (h *WalletHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	var req model.TopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	resp, err := h.service.InitiateTopUp(r.Context(), req.UserID, req.Amount)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Entries handles GET /api/wallet/{userId}/entries requests. The wallet query
// parameter selects the buyer or seller log, defaulting to buyer.
func (h *WalletHandler) Entries(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "user id is required", h.logger)
		return
	}

	wallet := model.WalletKind(r.URL.Query().Get("wallet"))
	switch wallet {
	case "":
		wallet = model.WalletBuyer
	case model.WalletBuyer, model.WalletSeller:
	default:
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "wallet must be buyer or seller", h.logger)
		return
	}

	entries, err := h.service.Entries(r.Context(), userID, wallet)
	if err != nil {
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to retrieve entries", h.logger)
		return
	}
	if entries == nil {
		entries = []model.WalletEntry{}
	}

	writeJSON(w, http.StatusOK, entries)
}
