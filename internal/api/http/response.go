package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/logger"
)

// All endpoints answer with the same envelope: {"success": true, "data": ...}
// or {"success": false, "message": "..."}.
type successResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(successResponse{Success: true, Data: data}); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Success: false, Message: message}); err != nil {
		logger.Error("Failed to encode error response", "error", err)
	}
}

// writeDomainError maps domain errors onto HTTP statuses. Unrecognized
// errors become opaque 500s so internals never leak to clients.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		validationErr *domain.ValidationError
		stateErr      *domain.InvalidStateTransitionError
		withdrawalErr *domain.InvalidWithdrawalStateError
		processorErr  *domain.PaymentProcessorError
	)

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "you do not have access to this resource")
	case errors.Is(err, domain.ErrConcurrencyConflict):
		writeError(w, http.StatusConflict, "the resource was modified concurrently, please retry")
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &stateErr):
		writeError(w, http.StatusConflict, stateErr.Error())
	case errors.As(err, &withdrawalErr):
		writeError(w, http.StatusConflict, withdrawalErr.Error())
	case errors.As(err, &processorErr):
		writeError(w, http.StatusBadGateway, "payment processor error, please try again")
	default:
		logger.Error("Unhandled error in HTTP layer", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
