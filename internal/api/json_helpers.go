package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"clipstream/internal/auth"
	"clipstream/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// WriteError is an exported helper for returning JSON API errors.
func WriteError(w http.ResponseWriter, status int, err error) {
	writeError(w, status, err)
}

func decodeJSON(r *http.Request, dest interface{}) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func errMethodNotAllowed(method string) error {
	return fmt.Errorf("method %s not allowed", method)
}

// statusForError translates sentinel errors from the auth and storage layers
// into HTTP status codes. Unknown errors are treated as bad input.
func statusForError(err error) int {
	switch {
	case errors.Is(err, storage.ErrInvalidCredentials),
		errors.Is(err, storage.ErrRefreshMismatch),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusForError(err), err)
}
