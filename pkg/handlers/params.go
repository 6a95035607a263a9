package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParseProductID extracts and validates the product ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on error
// (after writing an error response).
// Expects path parameter: pid
func ParseProductID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "pid", "invalid_product_id", "Invalid product ID format", logger)
}

// ParseValueID extracts and validates the suggested value ID from the request path.
// Expects path parameter: vid
func ParseValueID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "vid", "invalid_suggested_value_id", "Invalid suggested value ID format", logger)
}

// ParseEventID extracts and validates the event ID from the request path.
// Expects path parameter: eid
func ParseEventID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "eid", "invalid_event_id", "Invalid event ID format", logger)
}

// ParseProductAndValueIDs extracts and validates both product and suggested value IDs.
// Expects path parameters: pid, vid
func ParseProductAndValueIDs(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, uuid.UUID, bool) {
	productID, ok := ParseProductID(w, r, logger)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	valueID, ok := ParseValueID(w, r, logger)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	return productID, valueID, true
}

func parseUUID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := r.PathValue(pathParam)
	id, err := uuid.Parse(idStr)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}
