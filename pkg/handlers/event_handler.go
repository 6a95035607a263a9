package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trackmap/trackmap-engine/pkg/models"
	"github.com/trackmap/trackmap-engine/pkg/services"
)

// CreateEventRequest for POST /api/products/{pid}/events.
// Page is a page ID or a page name/slug; it is only used when PageID is empty.
type CreateEventRequest struct {
	PageID      uuid.UUID              `json:"pageId"`
	Page        string                 `json:"page,omitempty"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Properties  []models.EventProperty `json:"properties"`
}

// EventListResponse for GET /api/products/{pid}/events
type EventListResponse struct {
	Events []*models.Event `json:"events"`
	Total  int             `json:"total"`
}

// EventHandler handles tracked event HTTP requests.
type EventHandler struct {
	eventService services.EventService
	pageService  services.PageService
	logger       *zap.Logger
}

// NewEventHandler creates a new event handler.
func NewEventHandler(eventService services.EventService, pageService services.PageService, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		pageService:  pageService,
		logger:       logger,
	}
}

// RegisterRoutes registers the event routes on the given mux.
func (h *EventHandler) RegisterRoutes(mux *http.ServeMux, productMiddleware ProductMiddleware) {
	base := "/api/products/{pid}/events"

	mux.HandleFunc("GET "+base, productMiddleware(h.List))
	mux.HandleFunc("POST "+base, productMiddleware(h.Create))
	mux.HandleFunc("GET "+base+"/{eid}", productMiddleware(h.Get))
	mux.HandleFunc("DELETE "+base+"/{eid}", productMiddleware(h.Delete))
}

// List handles GET /api/products/{pid}/events
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	productID, ok := ParseProductID(w, r, h.logger)
	if !ok {
		return
	}

	events, err := h.eventService.List(r.Context(), productID)
	if err != nil {
		writeServiceError(w, h.logger, err, "event", "list_events_failed")
		return
	}

	response := EventListResponse{Events: events, Total: len(events)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/products/{pid}/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	productID, ok := ParseProductID(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, h.logger)
		return
	}

	pageID := req.PageID
	if pageID == uuid.Nil && req.Page != "" {
		page, err := h.pageService.Resolve(r.Context(), productID, req.Page)
		if err != nil {
			writeServiceError(w, h.logger, err, "page", "resolve_page_failed")
			return
		}
		pageID = page.ID
	}

	event := &models.Event{
		ProductID:   productID,
		PageID:      pageID,
		Name:        req.Name,
		Description: req.Description,
		Properties:  req.Properties,
	}
	if err := h.eventService.Create(r.Context(), event); err != nil {
		writeServiceError(w, h.logger, err, "event", "create_event_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: event}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/products/{pid}/events/{eid}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	productID, ok := ParseProductID(w, r, h.logger)
	if !ok {
		return
	}
	eventID, ok := ParseEventID(w, r, h.logger)
	if !ok {
		return
	}

	event, err := h.eventService.Get(r.Context(), productID, eventID)
	if err != nil {
		writeServiceError(w, h.logger, err, "event", "get_event_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: event}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/products/{pid}/events/{eid}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	productID, ok := ParseProductID(w, r, h.logger)
	if !ok {
		return
	}
	eventID, ok := ParseEventID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.eventService.Delete(r.Context(), productID, eventID); err != nil {
		writeServiceError(w, h.logger, err, "event", "delete_event_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
