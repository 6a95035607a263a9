package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/trackmap/trackmap-engine/pkg/apperrors"
	"github.com/trackmap/trackmap-engine/pkg/models"
)

// ApiResponse wraps data in the format expected by API clients.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ConflictResponse is the 409 body for a suggested value collision.
type ConflictResponse struct {
	Error        string              `json:"error"`
	Message      string              `json:"message"`
	ConflictData models.ConflictData `json:"conflictData"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// SuggestedValueConflictResponse writes the structured 409 that lets clients
// offer a merge into the existing value.
func SuggestedValueConflictResponse(w http.ResponseWriter, conflictErr *apperrors.SuggestedValueConflictError) error {
	return WriteJSON(w, http.StatusConflict, ConflictResponse{
		Error:        apperrors.CodeSuggestedValueExists,
		Message:      conflictErr.Error(),
		ConflictData: conflictErr.Data,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}
