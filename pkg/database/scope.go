package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductScope wraps a connection with product context and ensures cleanup.
// The connection has app.current_product_id set for RLS policy evaluation.
type ProductScope struct {
	Conn *pgxpool.Conn
}

// Close resets product context and releases connection to pool.
// This MUST be called to prevent product context from leaking to the next request.
func (s *ProductScope) Close() {
	if s.Conn == nil {
		return
	}
	_, _ = s.Conn.Exec(context.Background(), "RESET app.current_product_id")
	s.Conn.Release()
}

// WithProduct acquires a connection and sets the product context for RLS.
// The returned ProductScope MUST be closed with defer scope.Close().
func (db *DB) WithProduct(ctx context.Context, productID uuid.UUID) (*ProductScope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	_, err = conn.Exec(ctx, "SELECT set_config('app.current_product_id', $1, false)", productID.String())
	if err != nil {
		conn.Release()
		return nil, err
	}

	return &ProductScope{Conn: conn}, nil
}

// WithoutProduct acquires a connection without product context.
// Use this for operations that span products (e.g., product creation and listing).
// The returned ProductScope MUST be closed with defer scope.Close().
func (db *DB) WithoutProduct(ctx context.Context) (*ProductScope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &ProductScope{Conn: conn}, nil
}
