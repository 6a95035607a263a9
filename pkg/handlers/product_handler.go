package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/trackmap/trackmap-engine/pkg/services"
)

// CreateProductRequest for POST /api/products
type CreateProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CreatePageRequest for POST /api/products/{pid}/pages
type CreatePageRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// ProductHandler handles product and page HTTP requests.
type ProductHandler struct {
	productService services.ProductService
	pageService    services.PageService
	logger         *zap.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(productService services.ProductService, pageService services.PageService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		pageService:    pageService,
		logger:         logger,
	}
}

// RegisterRoutes registers the product and page routes. Routes without a
// product in the path use globalMiddleware.
func (h *ProductHandler) RegisterRoutes(mux *http.ServeMux, globalMiddleware, productMiddleware ProductMiddleware) {
	mux.HandleFunc("GET /api/products", globalMiddleware(h.List))
	mux.HandleFunc("POST /api/products", globalMiddleware(h.Create))
	mux.HandleFunc("GET /api/products/{pid}", productMiddleware(h.Get))
	mux.HandleFunc("GET /api/products/{pid}/pages", productMiddleware(h.ListPages))
	mux.HandleFunc("POST /api/products/{pid}/pages", productMiddleware(h.CreatePage))
}

// List handles GET /api/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "product", "list_products_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: products}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, h.logger)
		return
	}

	product, err := h.productService.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		writeServiceError(w, h.logger, err, "product", "create_product_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: product}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/products/{pid}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	productID, ok := ParseProductID(w, r, h.logger)
	if !ok {
		return
	}

	product, err := h.productService.Get(r.Context(), productID)
	if err != nil {
		writeServiceError(w, h.logger, err, "product", "get_product_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: product}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListPages handles GET /api/products/{pid}/pages
func (h *ProductHandler) ListPages(w http.ResponseWriter, r *http.Request) {
	productID, ok := ParseProductID(w, r, h.logger)
	if !ok {
		return
	}

	pages, err := h.pageService.List(r.Context(), productID)
	if err != nil {
		writeServiceError(w, h.logger, err, "page", "list_pages_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: pages}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CreatePage handles POST /api/products/{pid}/pages
func (h *ProductHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	productID, ok := ParseProductID(w, r, h.logger)
	if !ok {
		return
	}

	var req CreatePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, h.logger)
		return
	}

	page, err := h.pageService.Create(r.Context(), productID, req.Name, req.Slug)
	if err != nil {
		writeServiceError(w, h.logger, err, "page", "create_page_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: page}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
