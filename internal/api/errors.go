// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"encoding/json"
	"net/http"

	"github.com/ManuGH/mediagate/internal/log"
)

// Error codes returned in the "error" field.
const (
	codeInvalidRequest    = "invalid_request"
	codeInvalidBaseURL    = "invalid_base_url"
	codeRateLimitExceeded = "rate_limit_exceeded"
	codeJournalDisabled   = "journal_disabled"
	codeNotFound          = "not_found"
	codeMethodNotAllowed  = "method_not_allowed"
	codeInternal          = "internal_error"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an ErrorResponse correlated with the request ID.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, detail string) {
	writeJSON(w, status, ErrorResponse{
		Error:     code,
		Detail:    detail,
		RequestID: log.RequestIDFromContext(r.Context()),
	})
}

func writeInternal(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Error().Err(err).Str(log.FieldEvent, "api.internal_error").Str(log.FieldPath, r.URL.Path).Msg("request failed")
	writeError(w, r, http.StatusInternalServerError, codeInternal, "an unexpected error occurred")
}
