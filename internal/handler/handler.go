package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"vendora/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes a coded error response with the given status.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Error().Str("code", code).Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeDomainError maps a service error onto an HTTP status and the stable
// error code carried by the domain error. Unknown errors become opaque 500s.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var de *model.DomainError
	if !errors.As(err, &de) {
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", logger)
		return
	}

	status := http.StatusBadRequest
	switch de.Code {
	case model.ErrCodeUserNotFound, model.ErrCodeProductNotFound, model.ErrCodeOrderNotFound:
		status = http.StatusNotFound
	case model.ErrCodeOutOfStock, model.ErrCodeInsufficientBalance, model.ErrCodeInvalidTransition:
		status = http.StatusConflict
	case model.ErrCodeInvalidSignature:
		status = http.StatusUnauthorized
	case model.ErrCodeAmountMismatch:
		status = http.StatusUnprocessableEntity
	}

	writeError(w, status, de.Code, de.Message, logger)
}
