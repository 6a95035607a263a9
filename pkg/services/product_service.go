package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trackmap/trackmap-engine/pkg/apperrors"
	"github.com/trackmap/trackmap-engine/pkg/models"
	"github.com/trackmap/trackmap-engine/pkg/repositories"
)

// ProductService provides operations for managing products.
type ProductService interface {
	Create(ctx context.Context, name, description string) (*models.Product, error)
	Get(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
}

type productService struct {
	repo   repositories.ProductRepository
	logger *zap.Logger
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, logger *zap.Logger) ProductService {
	return &productService{
		repo:   repo,
		logger: logger.Named("products"),
	}
}

var _ ProductService = (*productService)(nil)

func (s *productService) Create(ctx context.Context, name, description string) (*models.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Required("name")
	}

	product := &models.Product{Name: name, Description: strings.TrimSpace(description)}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Created product",
		zap.String("product_id", product.ID.String()),
		zap.String("name", product.Name))
	return product, nil
}

func (s *productService) Get(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	return s.repo.GetByID(ctx, productID)
}

func (s *productService) List(ctx context.Context) ([]*models.Product, error) {
	return s.repo.List(ctx)
}
