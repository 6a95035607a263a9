package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/trackmap/trackmap-engine/pkg/apperrors"
	"github.com/trackmap/trackmap-engine/pkg/models"
)

// ProductRepository provides data access for products.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
}

type productRepository struct{}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository() ProductRepository {
	return &productRepository{}
}

var _ ProductRepository = (*productRepository)(nil)

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO trackmap_products (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`

	err = scope.Conn.QueryRow(ctx, query, product.Name, nullString(product.Description)).
		Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

func (r *productRepository) GetByID(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, name, description, created_at, updated_at
		FROM trackmap_products
		WHERE id = $1`

	product, err := scanProduct(scope.Conn.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return product, nil
}

func (r *productRepository) List(ctx context.Context) ([]*models.Product, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, name, description, created_at, updated_at
		FROM trackmap_products
		ORDER BY name`

	rows, err := scope.Conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	var description *string
	if err := row.Scan(&p.ID, &p.Name, &description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	p.Description = stringValue(description)
	return &p, nil
}
