package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trackmap/trackmap-engine/pkg/models"
	"github.com/trackmap/trackmap-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// SuggestedValueListResponse for GET /suggested-values
type SuggestedValueListResponse struct {
	Values []*models.SuggestedValue `json:"values"`
	Total  int                      `json:"total"`
}

// MergeSuggestedValueRequest for POST /suggested-values/{vid}/merge.
// The value in the path is the source and is removed.
type MergeSuggestedValueRequest struct {
	TargetID uuid.UUID `json:"targetId"`
}

// ============================================================================
// Handler
// ============================================================================

// SuggestedValueHandler handles suggested value HTTP requests.
type SuggestedValueHandler struct {
	service services.SuggestedValueService
	logger  *zap.Logger
}

// NewSuggestedValueHandler creates a new suggested value handler.
func NewSuggestedValueHandler(service services.SuggestedValueService, logger *zap.Logger) *SuggestedValueHandler {
	return &SuggestedValueHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the suggested value routes on the given mux.
func (h *SuggestedValueHandler) RegisterRoutes(mux *http.ServeMux, productMiddleware ProductMiddleware) {
	base := "/api/products/{pid}/suggested-values"

	mux.HandleFunc("GET "+base, productMiddleware(h.List))
	mux.HandleFunc("POST "+base, productMiddleware(h.Create))
	mux.HandleFunc("GET "+base+"/{vid}", productMiddleware(h.Get))
	mux.HandleFunc("PUT "+base+"/{vid}", productMiddleware(h.Update))
	mux.HandleFunc("DELETE "+base+"/{vid}", productMiddleware(h.Delete))
	mux.HandleFunc("GET "+base+"/{vid}/impact", productMiddleware(h.Impact))
	mux.HandleFunc("POST "+base+"/{vid}/merge", productMiddleware(h.Merge))
}

// List handles GET /api/products/{pid}/suggested-values
func (h *SuggestedValueHandler) List(w http.ResponseWriter, r *http.Request) {
	productID, ok := ParseProductID(w, r, h.logger)
	if !ok {
		return
	}

	values, err := h.service.List(r.Context(), productID)
	if err != nil {
		writeServiceError(w, h.logger, err, "suggested_value", "list_suggested_values_failed")
		return
	}

	response := SuggestedValueListResponse{Values: values, Total: len(values)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/products/{pid}/suggested-values
func (h *SuggestedValueHandler) Create(w http.ResponseWriter, r *http.Request) {
	productID, ok := ParseProductID(w, r, h.logger)
	if !ok {
		return
	}

	var patch models.SuggestedValuePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeBadRequest(w, h.logger)
		return
	}

	value, err := h.service.Create(r.Context(), productID, patch)
	if err != nil {
		writeServiceError(w, h.logger, err, "suggested_value", "create_suggested_value_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: value}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/products/{pid}/suggested-values/{vid}
func (h *SuggestedValueHandler) Get(w http.ResponseWriter, r *http.Request) {
	productID, valueID, ok := ParseProductAndValueIDs(w, r, h.logger)
	if !ok {
		return
	}

	value, err := h.service.Get(r.Context(), productID, valueID)
	if err != nil {
		writeServiceError(w, h.logger, err, "suggested_value", "get_suggested_value_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: value}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/products/{pid}/suggested-values/{vid}
func (h *SuggestedValueHandler) Update(w http.ResponseWriter, r *http.Request) {
	productID, valueID, ok := ParseProductAndValueIDs(w, r, h.logger)
	if !ok {
		return
	}

	var patch models.SuggestedValuePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeBadRequest(w, h.logger)
		return
	}

	value, err := h.service.Update(r.Context(), productID, valueID, patch)
	if err != nil {
		writeServiceError(w, h.logger, err, "suggested_value", "update_suggested_value_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: value}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/products/{pid}/suggested-values/{vid}
func (h *SuggestedValueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	productID, valueID, ok := ParseProductAndValueIDs(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), productID, valueID); err != nil {
		writeServiceError(w, h.logger, err, "suggested_value", "delete_suggested_value_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Impact handles GET /api/products/{pid}/suggested-values/{vid}/impact
func (h *SuggestedValueHandler) Impact(w http.ResponseWriter, r *http.Request) {
	productID, valueID, ok := ParseProductAndValueIDs(w, r, h.logger)
	if !ok {
		return
	}

	impact, err := h.service.GetImpact(r.Context(), productID, valueID)
	if err != nil {
		writeServiceError(w, h.logger, err, "suggested_value", "suggested_value_impact_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: impact}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Merge handles POST /api/products/{pid}/suggested-values/{vid}/merge
func (h *SuggestedValueHandler) Merge(w http.ResponseWriter, r *http.Request) {
	productID, sourceID, ok := ParseProductAndValueIDs(w, r, h.logger)
	if !ok {
		return
	}

	var req MergeSuggestedValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TargetID == uuid.Nil {
		writeBadRequest(w, h.logger)
		return
	}

	target, err := h.service.Merge(r.Context(), productID, sourceID, req.TargetID)
	if err != nil {
		writeServiceError(w, h.logger, err, "suggested_value", "merge_suggested_values_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: target}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
