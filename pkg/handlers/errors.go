package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/trackmap/trackmap-engine/pkg/apperrors"
)

// ProductMiddleware wraps a handler with a product-scoped database connection.
type ProductMiddleware func(http.HandlerFunc) http.HandlerFunc

// writeServiceError maps a service error onto an HTTP response. A missing row
// becomes "<entity>_not_found"; errors that match no sentinel become a 500
// with fallbackCode.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error, entity, fallbackCode string) {
	var (
		status  int
		code    string
		message = err.Error()
	)

	var conflictErr *apperrors.SuggestedValueConflictError
	var validationErr *apperrors.ValidationError
	switch {
	case errors.As(err, &conflictErr):
		if err := SuggestedValueConflictResponse(w, conflictErr); err != nil {
			logger.Error("Failed to write conflict response", zap.Error(err))
		}
		return
	case errors.As(err, &validationErr):
		status, code, message = http.StatusBadRequest, "validation_error", validationErr.Error()
	case errors.Is(err, apperrors.ErrSelfMerge):
		status, code = http.StatusBadRequest, "invalid_merge"
	case errors.Is(err, apperrors.ErrNotFound):
		status, code = http.StatusNotFound, entity+"_not_found"
	case errors.Is(err, apperrors.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	default:
		logger.Error("Request failed", zap.String("code", fallbackCode), zap.Error(err))
		status, code = http.StatusInternalServerError, fallbackCode
	}

	if err := ErrorResponse(w, status, code, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

func writeBadRequest(w http.ResponseWriter, logger *zap.Logger) {
	if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
