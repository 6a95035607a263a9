package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/trackmap/trackmap-engine/pkg/database"
)

// errNoScope is returned when a repository is called without a product scope in context.
var errNoScope = fmt.Errorf("no product scope in context")

func scopeFrom(ctx context.Context) (*database.ProductScope, error) {
	scope, ok := database.GetProductScope(ctx)
	if !ok || scope == nil || scope.Conn == nil {
		return nil, errNoScope
	}
	return scope, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// nullString returns nil if the string is empty, otherwise returns the string pointer.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// stringValue dereferences a nullable string column.
func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
