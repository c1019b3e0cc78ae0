// Package httpx holds the JSON response helpers shared by the HTTP handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ayush/fundraiser/backend/internal/account"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string                    `json:"error"`
	Fields []account.ValidationError `json:"fields,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

// Error writes a plain error message.
func Error(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorBody{Error: msg})
}

// WriteError maps domain errors onto status codes. Validation failures keep
// their per-field messages; anything unrecognised is logged and hidden.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	if verrs, ok := account.AsValidation(err); ok {
		WriteJSON(w, http.StatusUnprocessableEntity, ErrorBody{Error: "validation failed", Fields: verrs})
		return
	}
	switch {
	case errors.Is(err, account.ErrUsernameTaken):
		Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, account.ErrInvalidCredentials):
		Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, account.ErrForbidden):
		Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, account.ErrNotFound):
		Error(w, http.StatusNotFound, err.Error())
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

// Decode reads a JSON request body of at most 1MiB into v.
func Decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v)
}
