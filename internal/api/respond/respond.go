// Package respond provides shared JSON response utilities for API handlers.
package respond

import (
	"encoding/json"
	"net/http"
)

// Stable machine-readable error codes.
const (
	CodeInvalidArgument       = "INVALID_ARGUMENT"
	CodeTokenGenerationFailed = "TOKEN_GENERATION_FAILED"
	CodeQuerySelectionFailed  = "QUERY_SELECTION_FAILED"
	CodeRunInProgress         = "RUN_IN_PROGRESS"
	CodeRateLimited           = "RATE_LIMITED"
	CodeInternal              = "INTERNAL"
)

// ErrorResponse is the standard error shape for all API errors.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Detail  string `json:"detail,omitempty"`
	} `json:"error"`
}

// WriteError sends a structured JSON error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	resp := ErrorResponse{}
	resp.Error.Code = code
	resp.Error.Message = message
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// WriteJSONObject marshals a Go value to JSON and writes it.
func WriteJSONObject(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
