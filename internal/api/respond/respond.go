package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/leaflove/care-service/internal/model"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Code:    statusCode,
		Message: message,
	})
}

// WriteBadRequest writes a 400 Bad Request response
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// WriteNotFound writes a 404 Not Found response
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// WriteConflict writes a 409 Conflict response
func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, message)
}

// WriteInternalError writes a 500 Internal Server Error response
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}

// WriteServiceError maps the service error taxonomy onto HTTP status codes.
// Anything unrecognised is logged and reported as a generic 500.
func WriteServiceError(w http.ResponseWriter, err error) {
	var (
		ve model.ValidationError
		ce model.ConflictError
	)
	switch {
	case errors.As(err, &ve):
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: http.StatusText(http.StatusBadRequest), Code: http.StatusBadRequest, Message: ve.Message, Field: ve.Field})
	case model.IsNotFoundError(err):
		WriteNotFound(w, err.Error())
	case errors.As(err, &ce):
		WriteJSON(w, http.StatusConflict, ErrorResponse{Error: http.StatusText(http.StatusConflict), Code: http.StatusConflict, Message: ce.Message, Field: ce.Field})
	default:
		log.Error().Stack().Err(err).Msg("request failed")
		WriteInternalError(w, "internal error")
	}
}
