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

// SuggestedValueRepository provides data access for suggested values.
type SuggestedValueRepository interface {
	Create(ctx context.Context, value *models.SuggestedValue) error
	// Update writes value and is_contextual, and rewrites the raw text of every
	// event property that references the value.
	Update(ctx context.Context, value *models.SuggestedValue) error
	Delete(ctx context.Context, productID, valueID uuid.UUID) error
	GetByID(ctx context.Context, productID, valueID uuid.UUID) (*models.SuggestedValue, error)
	// GetByValue returns nil, nil when no value with that text exists in the product.
	GetByValue(ctx context.Context, productID uuid.UUID, value string) (*models.SuggestedValue, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*models.SuggestedValue, error)
	// Merge repoints every reference from source to target and deletes source,
	// atomically. Returns the number of repointed event properties.
	Merge(ctx context.Context, productID, sourceID, targetID uuid.UUID) (int, error)
	// GetImpact lists the events whose properties reference the value.
	GetImpact(ctx context.Context, productID, valueID uuid.UUID) (*models.ImpactData, error)
}

type suggestedValueRepository struct{}

// NewSuggestedValueRepository creates a new SuggestedValueRepository.
func NewSuggestedValueRepository() SuggestedValueRepository {
	return &suggestedValueRepository{}
}

var _ SuggestedValueRepository = (*suggestedValueRepository)(nil)

const suggestedValueSelect = `
	SELECT sv.id, sv.product_id, sv.value, sv.is_contextual,
	       (SELECT COUNT(*) FROM trackmap_event_properties ep WHERE ep.suggested_value_id = sv.id),
	       sv.created_at, sv.updated_at
	FROM trackmap_suggested_values sv`

// ============================================================================
// CRUD Operations
// ============================================================================

func (r *suggestedValueRepository) Create(ctx context.Context, value *models.SuggestedValue) error {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO trackmap_suggested_values (product_id, value, is_contextual)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err = scope.Conn.QueryRow(ctx, query, value.ProductID, value.Value, value.IsContextual).
		Scan(&value.ID, &value.CreatedAt, &value.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create suggested value: %w", err)
	}
	value.UsageCount = 0
	return nil
}

func (r *suggestedValueRepository) Update(ctx context.Context, value *models.SuggestedValue) error {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return err
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	query := `
		UPDATE trackmap_suggested_values
		SET value = $3, is_contextual = $4, updated_at = now()
		WHERE product_id = $1 AND id = $2
		RETURNING created_at, updated_at`

	err = tx.QueryRow(ctx, query, value.ProductID, value.ID, value.Value, value.IsContextual).
		Scan(&value.CreatedAt, &value.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to update suggested value: %w", err)
	}

	result, err := tx.Exec(ctx,
		`UPDATE trackmap_event_properties SET value = $2 WHERE suggested_value_id = $1`,
		value.ID, value.Value)
	if err != nil {
		return fmt.Errorf("failed to update referencing properties: %w", err)
	}
	value.UsageCount = int(result.RowsAffected())

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *suggestedValueRepository) Delete(ctx context.Context, productID, valueID uuid.UUID) error {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return err
	}

	result, err := scope.Conn.Exec(ctx,
		`DELETE FROM trackmap_suggested_values WHERE product_id = $1 AND id = $2`, productID, valueID)
	if err != nil {
		return fmt.Errorf("failed to delete suggested value: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *suggestedValueRepository) GetByID(ctx context.Context, productID, valueID uuid.UUID) (*models.SuggestedValue, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	query := suggestedValueSelect + ` WHERE sv.product_id = $1 AND sv.id = $2`
	value, err := scanSuggestedValue(scope.Conn.QueryRow(ctx, query, productID, valueID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

func (r *suggestedValueRepository) GetByValue(ctx context.Context, productID uuid.UUID, text string) (*models.SuggestedValue, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	query := suggestedValueSelect + ` WHERE sv.product_id = $1 AND sv.value = $2`
	value, err := scanSuggestedValue(scope.Conn.QueryRow(ctx, query, productID, text))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Value not found
		}
		return nil, err
	}
	return value, nil
}

func (r *suggestedValueRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*models.SuggestedValue, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	query := suggestedValueSelect + ` WHERE sv.product_id = $1 ORDER BY sv.value`
	rows, err := scope.Conn.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggested values: %w", err)
	}
	defer rows.Close()

	values := []*models.SuggestedValue{}
	for rows.Next() {
		value, err := scanSuggestedValue(rows)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating suggested values: %w", err)
	}
	return values, nil
}

// ============================================================================
// Merge and Impact
// ============================================================================

func (r *suggestedValueRepository) Merge(ctx context.Context, productID, sourceID, targetID uuid.UUID) (int, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	// Lock both rows so a concurrent merge or delete cannot interleave.
	rows, err := tx.Query(ctx, `
		SELECT id, value FROM trackmap_suggested_values
		WHERE product_id = $1 AND id = ANY($2)
		ORDER BY id
		FOR UPDATE`, productID, []uuid.UUID{sourceID, targetID})
	if err != nil {
		return 0, fmt.Errorf("failed to lock suggested values: %w", err)
	}
	texts := make(map[uuid.UUID]string, 2)
	for rows.Next() {
		var id uuid.UUID
		var text string
		if err := rows.Scan(&id, &text); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan suggested value: %w", err)
		}
		texts[id] = text
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating suggested values: %w", err)
	}

	targetText, ok := texts[targetID]
	if !ok {
		return 0, fmt.Errorf("merge target: %w", apperrors.ErrNotFound)
	}
	if _, ok := texts[sourceID]; !ok {
		return 0, fmt.Errorf("merge source: %w", apperrors.ErrNotFound)
	}

	result, err := tx.Exec(ctx, `
		UPDATE trackmap_event_properties
		SET suggested_value_id = $2, value = $3
		WHERE suggested_value_id = $1`, sourceID, targetID, targetText)
	if err != nil {
		return 0, fmt.Errorf("failed to repoint event properties: %w", err)
	}
	repointed := int(result.RowsAffected())

	if _, err := tx.Exec(ctx, `DELETE FROM trackmap_suggested_values WHERE id = $1`, sourceID); err != nil {
		return 0, fmt.Errorf("failed to delete merged suggested value: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE trackmap_suggested_values SET updated_at = now() WHERE id = $1`, targetID); err != nil {
		return 0, fmt.Errorf("failed to touch merge target: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return repointed, nil
}

func (r *suggestedValueRepository) GetImpact(ctx context.Context, productID, valueID uuid.UUID) (*models.ImpactData, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT e.id, e.name, p.name, ep.key, ep.value
		FROM trackmap_event_properties ep
		JOIN trackmap_events e ON e.id = ep.event_id
		JOIN trackmap_pages p ON p.id = e.page_id
		WHERE ep.suggested_value_id = $2 AND e.product_id = $1
		ORDER BY p.name, e.name, e.id, ep.key`

	rows, err := scope.Conn.Query(ctx, query, productID, valueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggested value impact: %w", err)
	}
	defer rows.Close()

	impact := &models.ImpactData{AffectedEvents: []models.AffectedEvent{}}
	for rows.Next() {
		var eventID uuid.UUID
		var eventName, pageName string
		var prop models.MatchingProperty
		if err := rows.Scan(&eventID, &eventName, &pageName, &prop.Key, &prop.Value); err != nil {
			return nil, fmt.Errorf("failed to scan impact row: %w", err)
		}

		// Rows are ordered by event, so a new event starts whenever the ID changes.
		n := len(impact.AffectedEvents)
		if n == 0 || impact.AffectedEvents[n-1].ID != eventID {
			impact.AffectedEvents = append(impact.AffectedEvents, models.AffectedEvent{
				ID:   eventID,
				Name: eventName,
				Page: pageName,
			})
			n++
		}
		impact.AffectedEvents[n-1].MatchingProperties = append(impact.AffectedEvents[n-1].MatchingProperties, prop)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating impact rows: %w", err)
	}

	impact.AffectedEventsCount = len(impact.AffectedEvents)
	return impact, nil
}

// ============================================================================
// Helper Functions
// ============================================================================

func scanSuggestedValue(row pgx.Row) (*models.SuggestedValue, error) {
	var v models.SuggestedValue
	err := row.Scan(&v.ID, &v.ProductID, &v.Value, &v.IsContextual, &v.UsageCount, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan suggested value: %w", err)
	}
	return &v, nil
}
