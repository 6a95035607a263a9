package database

import (
	"context"
)

type contextKey string

const (
	// ProductScopeKey is the context key for storing the product-scoped database connection.
	ProductScopeKey contextKey = "productScope"
)

// GetProductScope retrieves the product-scoped database connection from context.
// Returns nil and false if not present.
func GetProductScope(ctx context.Context) (*ProductScope, bool) {
	scope, ok := ctx.Value(ProductScopeKey).(*ProductScope)
	return scope, ok
}

// SetProductScope stores the product-scoped database connection in context.
func SetProductScope(ctx context.Context, scope *ProductScope) context.Context {
	return context.WithValue(ctx, ProductScopeKey, scope)
}
