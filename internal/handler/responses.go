package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/osse101/playerledger/internal/domain"
)

// Standard response types for consistent API responses

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error  string            `json:"error"`
	Reason domain.ReasonCode `json:"reason_code,omitempty"`
}

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	// Get a buffer from the pool to reduce allocations
	buf := getBuffer()
	defer putBuffer(buf)

	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
		http.Error(w, ErrMsgGenericServerError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondServiceError maps err and sends it
func respondServiceError(w http.ResponseWriter, err error) {
	status, message := mapServiceErrorToUserMessage(err)
	respondJSON(w, status, ErrorResponse{Error: message, Reason: domain.ReasonOf(err)})
}

// User-facing error messages for service errors
const (
	ErrMsgGenericServerError  = "Something went wrong"
	ErrMsgUnknownError        = "Unknown error"
	ErrMsgInvalidRequestError = "Invalid request. Please check your inputs."
	ErrMsgAuthFailedError     = "Authentication failed. Please sign in again."
	ErrMsgAlreadyClaimedError = "Reward already claimed"
	ErrMsgNotEnoughMoneyError = "Not enough currency"
	ErrMsgUnavailableError    = "Server is temporarily unavailable. Please try again later."
)

// mapServiceErrorToUserMessage maps ledger errors to HTTP status codes and messages.
// Only transport and authentication failures reach this point for RPCs; rule
// rejections travel inside the RPC envelope instead.
func mapServiceErrorToUserMessage(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, ErrMsgUnknownError
	}

	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge, ErrMsgPayloadTooLarge
	}

	switch domain.KindOf(err) {
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized, ErrMsgAuthFailedError
	case domain.KindConflict:
		return http.StatusConflict, ErrMsgAlreadyClaimedError
	case domain.KindInsufficientResource:
		return http.StatusBadRequest, ErrMsgNotEnoughMoneyError
	case domain.KindValidation:
		return http.StatusBadRequest, ErrMsgInvalidRequestError
	case domain.KindTransport:
		if errors.Is(err, domain.ErrStorageVersionLost) {
			return http.StatusServiceUnavailable, ErrMsgUnavailableError
		}
	}
	return http.StatusInternalServerError, ErrMsgGenericServerError
}
