// Package httpx holds the small JSON request/response helpers shared by every
// handler package.
package httpx

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/vedicvivaha/backend/internal/errors"
)

// WriteJSON serializes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteDetail writes the error body shape used across the API.
func WriteDetail(w http.ResponseWriter, status int, detail string) {
	WriteJSON(w, status, map[string]string{"detail": detail})
}

// WriteError maps a domain error to its HTTP status and detail body.
func WriteError(w http.ResponseWriter, err error) {
	status, detail := apperrors.Map(err)
	WriteDetail(w, status, detail)
}

// DecodeJSON parses a request body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}
