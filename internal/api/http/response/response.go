// Package response writes JSON API responses.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dtroode/eventhub-server/internal/model"
)

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSON writes data with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK writes a 200 response.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// ErrorWithStatus writes message as an error body.
func ErrorWithStatus(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}

// Error maps err to a status code. Internal failures are reported without
// their details.
func Error(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		ErrorWithStatus(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		ErrorWithStatus(w, http.StatusNotFound, "not found")
	default:
		ErrorWithStatus(w, http.StatusInternalServerError, "internal error")
	}
}

// Unauthorized writes a 401 response.
func Unauthorized(w http.ResponseWriter) {
	ErrorWithStatus(w, http.StatusUnauthorized, "unauthorized")
}
