package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"ledger-core/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps engine errors onto HTTP statuses. Caller-fixable
// rejections are 4xx; an integrity fault means the store itself is bad
// and stays a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var balErr *core.BalanceError
	var unknown *core.UnknownAccountError
	var fault *core.IntegrityFault

	switch {
	case errors.As(err, &balErr):
		writeError(w, r, err.Error(), "UNBALANCED", http.StatusUnprocessableEntity)
	case errors.As(err, &unknown):
		writeError(w, r, err.Error(), "UNKNOWN_ACCOUNT", http.StatusUnprocessableEntity)
	case errors.Is(err, core.ErrDuplicateIdempotencyKey):
		writeError(w, r, err.Error(), "DUPLICATE_ENTRY", http.StatusConflict)
	case errors.Is(err, core.ErrAlreadyReversed):
		writeError(w, r, err.Error(), "ALREADY_REVERSED", http.StatusConflict)
	case errors.Is(err, core.ErrPostedImmutable):
		writeError(w, r, err.Error(), "POSTED_IMMUTABLE", http.StatusConflict)
	case errors.As(err, &fault):
		writeError(w, r, err.Error(), "INTEGRITY_FAULT", http.StatusInternalServerError)
	default:
		writeError(w, r, err.Error(), "INTERNAL", http.StatusInternalServerError)
	}
}

// writeValidationError is writeServiceError for the posting path, where
// structural draft problems (bad dates, malformed amounts) are the
// caller's to fix.
func writeValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var balErr *core.BalanceError
	var unknown *core.UnknownAccountError

	switch {
	case errors.As(err, &balErr) || errors.As(err, &unknown):
		writeServiceError(w, r, err)
	case errors.Is(err, core.ErrDuplicateIdempotencyKey) || errors.Is(err, core.ErrAlreadyReversed):
		writeServiceError(w, r, err)
	default:
		writeError(w, r, err.Error(), "VALIDATION_FAILED", http.StatusUnprocessableEntity)
	}
}
