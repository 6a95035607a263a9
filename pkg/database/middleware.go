package database

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WithProductContext creates middleware that sets up a product-scoped DB connection.
// The product ID is taken from the {pid} path parameter.
// The connection is automatically cleaned up after the handler returns.
func WithProductContext(db *DB, logger *zap.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			productID, err := uuid.Parse(r.PathValue("pid"))
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_product_id", "Invalid product ID format")
				return
			}

			scope, err := db.WithProduct(r.Context(), productID)
			if err != nil {
				logger.Error("Failed to acquire product connection",
					zap.String("product_id", productID.String()),
					zap.Error(err))
				writeError(w, http.StatusInternalServerError, "database_error", "Database connection error")
				return
			}
			defer scope.Close()

			ctx := SetProductScope(r.Context(), scope)
			next(w, r.WithContext(ctx))
		}
	}
}

// WithGlobalContext creates middleware that provides an unscoped DB connection
// for routes that are not tied to a single product.
func WithGlobalContext(db *DB, logger *zap.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			scope, err := db.WithoutProduct(r.Context())
			if err != nil {
				logger.Error("Failed to acquire connection", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "database_error", "Database connection error")
				return
			}
			defer scope.Close()

			next(w, r.WithContext(SetProductScope(r.Context(), scope)))
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}
