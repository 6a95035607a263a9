package services

import (
	"context"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trackmap/trackmap-engine/pkg/apperrors"
	"github.com/trackmap/trackmap-engine/pkg/models"
	"github.com/trackmap/trackmap-engine/pkg/repositories"
)

// PageService provides operations for managing pages.
type PageService interface {
	// Create adds a page. The slug is derived from the name when empty.
	Create(ctx context.Context, productID uuid.UUID, name, slug string) (*models.Page, error)
	List(ctx context.Context, productID uuid.UUID) ([]*models.Page, error)
	// Resolve finds a page by ID string or by slug-matching the given name.
	Resolve(ctx context.Context, productID uuid.UUID, ref string) (*models.Page, error)
}

type pageService struct {
	repo   repositories.PageRepository
	logger *zap.Logger
}

// NewPageService creates a new PageService.
func NewPageService(repo repositories.PageRepository, logger *zap.Logger) PageService {
	return &pageService{
		repo:   repo,
		logger: logger.Named("pages"),
	}
}

var _ PageService = (*pageService)(nil)

func (s *pageService) Create(ctx context.Context, productID uuid.UUID, name, slug string) (*models.Page, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Required("name")
	}
	if slug == "" {
		slug = Slugify(name)
	} else {
		slug = Slugify(slug)
	}
	if slug == "" {
		return nil, &apperrors.ValidationError{Field: "slug", Message: "must contain a letter or digit"}
	}

	page := &models.Page{ProductID: productID, Name: name, Slug: slug}
	if err := s.repo.Create(ctx, page); err != nil {
		return nil, err
	}
	return page, nil
}

func (s *pageService) List(ctx context.Context, productID uuid.UUID) ([]*models.Page, error) {
	return s.repo.ListByProduct(ctx, productID)
}

func (s *pageService) Resolve(ctx context.Context, productID uuid.UUID, ref string) (*models.Page, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return s.repo.GetByID(ctx, productID, id)
	}

	page, err := s.repo.GetBySlug(ctx, productID, Slugify(ref))
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, apperrors.ErrNotFound
	}
	return page, nil
}

// Slugify lowercases s and collapses every run of non-alphanumeric characters
// into a single hyphen. "Checkout / Payment" becomes "checkout-payment".
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
