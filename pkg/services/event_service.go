package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trackmap/trackmap-engine/pkg/apperrors"
	"github.com/trackmap/trackmap-engine/pkg/models"
	"github.com/trackmap/trackmap-engine/pkg/repositories"
)

// EventService provides operations for managing tracked events.
type EventService interface {
	// Create adds an event to a page. Properties whose value text matches a
	// suggested value of the product are linked to it.
	Create(ctx context.Context, event *models.Event) error
	Get(ctx context.Context, productID, eventID uuid.UUID) (*models.Event, error)
	List(ctx context.Context, productID uuid.UUID) ([]*models.Event, error)
	Delete(ctx context.Context, productID, eventID uuid.UUID) error
}

type eventService struct {
	repo     repositories.EventRepository
	pageRepo repositories.PageRepository
	logger   *zap.Logger
}

// NewEventService creates a new EventService.
func NewEventService(repo repositories.EventRepository, pageRepo repositories.PageRepository, logger *zap.Logger) EventService {
	return &eventService{
		repo:     repo,
		pageRepo: pageRepo,
		logger:   logger.Named("events"),
	}
}

var _ EventService = (*eventService)(nil)

func (s *eventService) Create(ctx context.Context, event *models.Event) error {
	event.Name = strings.TrimSpace(event.Name)
	if event.Name == "" {
		return apperrors.Required("name")
	}
	if event.PageID == uuid.Nil {
		return apperrors.Required("pageId")
	}

	seen := make(map[string]bool, len(event.Properties))
	for i := range event.Properties {
		key := strings.TrimSpace(event.Properties[i].Key)
		if key == "" {
			return apperrors.Required(fmt.Sprintf("properties[%d].key", i))
		}
		if seen[key] {
			return &apperrors.ValidationError{Field: "properties", Message: fmt.Sprintf("has duplicate key %q", key)}
		}
		seen[key] = true
		event.Properties[i].Key = key
	}

	if _, err := s.pageRepo.GetByID(ctx, event.ProductID, event.PageID); err != nil {
		return fmt.Errorf("page %s: %w", event.PageID, err)
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return err
	}

	s.logger.Debug("Created event",
		zap.String("product_id", event.ProductID.String()),
		zap.String("event_id", event.ID.String()),
		zap.Int("properties", len(event.Properties)))
	return nil
}

func (s *eventService) Get(ctx context.Context, productID, eventID uuid.UUID) (*models.Event, error) {
	return s.repo.GetByID(ctx, productID, eventID)
}

func (s *eventService) List(ctx context.Context, productID uuid.UUID) ([]*models.Event, error) {
	return s.repo.ListByProduct(ctx, productID)
}

func (s *eventService) Delete(ctx context.Context, productID, eventID uuid.UUID) error {
	return s.repo.Delete(ctx, productID, eventID)
}
