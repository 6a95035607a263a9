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

// PageRepository provides data access for pages.
type PageRepository interface {
	Create(ctx context.Context, page *models.Page) error
	GetByID(ctx context.Context, productID, pageID uuid.UUID) (*models.Page, error)
	GetBySlug(ctx context.Context, productID uuid.UUID, slug string) (*models.Page, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*models.Page, error)
}

type pageRepository struct{}

// NewPageRepository creates a new PageRepository.
func NewPageRepository() PageRepository {
	return &pageRepository{}
}

var _ PageRepository = (*pageRepository)(nil)

const pageColumns = `id, product_id, name, slug, created_at, updated_at`

func (r *pageRepository) Create(ctx context.Context, page *models.Page) error {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO trackmap_pages (product_id, name, slug)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err = scope.Conn.QueryRow(ctx, query, page.ProductID, page.Name, page.Slug).
		Scan(&page.ID, &page.CreatedAt, &page.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create page: %w", err)
	}
	return nil
}

func (r *pageRepository) GetByID(ctx context.Context, productID, pageID uuid.UUID) (*models.Page, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + pageColumns + ` FROM trackmap_pages WHERE product_id = $1 AND id = $2`
	page, err := scanPage(scope.Conn.QueryRow(ctx, query, productID, pageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return page, nil
}

func (r *pageRepository) GetBySlug(ctx context.Context, productID uuid.UUID, slug string) (*models.Page, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + pageColumns + ` FROM trackmap_pages WHERE product_id = $1 AND slug = $2`
	page, err := scanPage(scope.Conn.QueryRow(ctx, query, productID, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Page not found
		}
		return nil, err
	}
	return page, nil
}

func (r *pageRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*models.Page, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + pageColumns + ` FROM trackmap_pages WHERE product_id = $1 ORDER BY name`
	rows, err := scope.Conn.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	var pages []*models.Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pages: %w", err)
	}
	return pages, nil
}

func scanPage(row pgx.Row) (*models.Page, error) {
	var p models.Page
	if err := row.Scan(&p.ID, &p.ProductID, &p.Name, &p.Slug, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan page: %w", err)
	}
	return &p, nil
}
