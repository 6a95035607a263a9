package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trackmap/trackmap-engine/pkg/apperrors"
	"github.com/trackmap/trackmap-engine/pkg/models"
	"github.com/trackmap/trackmap-engine/pkg/repositories"
	"github.com/trackmap/trackmap-engine/pkg/valuetype"
)

// SuggestedValueService provides operations for managing suggested values.
type SuggestedValueService interface {
	// List returns all suggested values for a product, ordered by value.
	List(ctx context.Context, productID uuid.UUID) ([]*models.SuggestedValue, error)

	// Get returns a single suggested value.
	Get(ctx context.Context, productID, valueID uuid.UUID) (*models.SuggestedValue, error)

	// Create adds a suggested value. Returns *apperrors.SuggestedValueConflictError
	// if the product already has a value with the same text.
	Create(ctx context.Context, productID uuid.UUID, patch models.SuggestedValuePatch) (*models.SuggestedValue, error)

	// Update changes a suggested value. Returns *apperrors.SuggestedValueConflictError
	// if another value in the product already has the new text.
	Update(ctx context.Context, productID, valueID uuid.UUID, patch models.SuggestedValuePatch) (*models.SuggestedValue, error)

	// Delete removes a suggested value. Referencing event properties keep their text.
	Delete(ctx context.Context, productID, valueID uuid.UUID) error

	// Merge absorbs source into target: every reference to source is repointed
	// to target and source is removed. Returns the updated target.
	Merge(ctx context.Context, productID, sourceID, targetID uuid.UUID) (*models.SuggestedValue, error)

	// GetImpact lists the events that reference the value.
	GetImpact(ctx context.Context, productID, valueID uuid.UUID) (*models.ImpactData, error)
}

type suggestedValueService struct {
	repo       repositories.SuggestedValueRepository
	classifier valuetype.Classifier
	logger     *zap.Logger
}

// NewSuggestedValueService creates a new SuggestedValueService. Values created or
// updated without an explicit type are classified with classifier.
func NewSuggestedValueService(
	repo repositories.SuggestedValueRepository,
	classifier valuetype.Classifier,
	logger *zap.Logger,
) SuggestedValueService {
	return &suggestedValueService{
		repo:       repo,
		classifier: classifier,
		logger:     logger.Named("suggested-values"),
	}
}

var _ SuggestedValueService = (*suggestedValueService)(nil)

func (s *suggestedValueService) List(ctx context.Context, productID uuid.UUID) ([]*models.SuggestedValue, error) {
	return s.repo.ListByProduct(ctx, productID)
}

func (s *suggestedValueService) Get(ctx context.Context, productID, valueID uuid.UUID) (*models.SuggestedValue, error) {
	return s.repo.GetByID(ctx, productID, valueID)
}

func (s *suggestedValueService) Create(ctx context.Context, productID uuid.UUID, patch models.SuggestedValuePatch) (*models.SuggestedValue, error) {
	text, err := normalizeValue(patch.Value)
	if err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetByValue(ctx, productID, text); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, &apperrors.SuggestedValueConflictError{Data: models.ConflictData{ExistingValue: *existing}}
	}

	value := &models.SuggestedValue{
		ProductID:    productID,
		Value:        text,
		IsContextual: s.resolveType(text, patch.IsContextual),
	}
	if err := s.repo.Create(ctx, value); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, s.conflictFor(ctx, productID, uuid.Nil, text, err)
		}
		return nil, err
	}

	s.logger.Info("Created suggested value",
		zap.String("product_id", productID.String()),
		zap.String("value_id", value.ID.String()),
		zap.Bool("is_contextual", value.IsContextual))
	return value, nil
}

func (s *suggestedValueService) Update(ctx context.Context, productID, valueID uuid.UUID, patch models.SuggestedValuePatch) (*models.SuggestedValue, error) {
	text, err := normalizeValue(patch.Value)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, productID, valueID)
	if err != nil {
		return nil, err
	}

	if text != current.Value {
		existing, err := s.repo.GetByValue(ctx, productID, text)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != valueID {
			s.logger.Debug("Suggested value update collides with existing value",
				zap.String("value_id", valueID.String()),
				zap.String("existing_id", existing.ID.String()))
			return nil, &apperrors.SuggestedValueConflictError{Data: models.ConflictData{ExistingValue: *existing}}
		}
	}

	current.Value = text
	current.IsContextual = s.resolveType(text, patch.IsContextual)
	if err := s.repo.Update(ctx, current); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, s.conflictFor(ctx, productID, valueID, text, err)
		}
		return nil, err
	}

	return current, nil
}

func (s *suggestedValueService) Delete(ctx context.Context, productID, valueID uuid.UUID) error {
	if err := s.repo.Delete(ctx, productID, valueID); err != nil {
		return err
	}
	s.logger.Info("Deleted suggested value",
		zap.String("product_id", productID.String()),
		zap.String("value_id", valueID.String()))
	return nil
}

func (s *suggestedValueService) Merge(ctx context.Context, productID, sourceID, targetID uuid.UUID) (*models.SuggestedValue, error) {
	if sourceID == targetID {
		return nil, apperrors.ErrSelfMerge
	}

	repointed, err := s.repo.Merge(ctx, productID, sourceID, targetID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Merged suggested values",
		zap.String("product_id", productID.String()),
		zap.String("source_id", sourceID.String()),
		zap.String("target_id", targetID.String()),
		zap.Int("repointed_properties", repointed))

	return s.repo.GetByID(ctx, productID, targetID)
}

func (s *suggestedValueService) GetImpact(ctx context.Context, productID, valueID uuid.UUID) (*models.ImpactData, error) {
	// Distinguish "unknown value" from "no impact".
	if _, err := s.repo.GetByID(ctx, productID, valueID); err != nil {
		return nil, err
	}
	return s.repo.GetImpact(ctx, productID, valueID)
}

// resolveType honours an explicit type and otherwise classifies the text.
func (s *suggestedValueService) resolveType(text string, explicit *bool) bool {
	if explicit != nil {
		return *explicit
	}
	return s.classifier.IsContextual(text)
}

// conflictFor turns a unique violation that raced past the pre-check into a
// structured conflict carrying the row that won.
func (s *suggestedValueService) conflictFor(ctx context.Context, productID, valueID uuid.UUID, text string, cause error) error {
	existing, err := s.repo.GetByValue(ctx, productID, text)
	if err != nil || existing == nil || existing.ID == valueID {
		return cause
	}
	return &apperrors.SuggestedValueConflictError{Data: models.ConflictData{ExistingValue: *existing}}
}

// normalizeValue trims the value and rejects blanks.
func normalizeValue(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", fmt.Errorf("invalid suggested value: %w", apperrors.Required("value"))
	}
	return text, nil
}
