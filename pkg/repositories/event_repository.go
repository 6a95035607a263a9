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

// EventRepository provides data access for events and their properties.
type EventRepository interface {
	// Create inserts the event and its properties. Properties without an explicit
	// SuggestedValueID are linked to the product's suggested value with the same text.
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, productID, eventID uuid.UUID) (*models.Event, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*models.Event, error)
	Delete(ctx context.Context, productID, eventID uuid.UUID) error
}

type eventRepository struct{}

// NewEventRepository creates a new EventRepository.
func NewEventRepository() EventRepository {
	return &eventRepository{}
}

var _ EventRepository = (*eventRepository)(nil)

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
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
		INSERT INTO trackmap_events (product_id, page_id, name, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRow(ctx, query, event.ProductID, event.PageID, event.Name, nullString(event.Description)).
		Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create event: %w", err)
	}

	propQuery := `
		INSERT INTO trackmap_event_properties (event_id, key, value, suggested_value_id)
		VALUES ($1, $2, $3, COALESCE($4, (
			SELECT id FROM trackmap_suggested_values WHERE product_id = $5 AND value = $3
		)))
		RETURNING suggested_value_id`

	for i := range event.Properties {
		prop := &event.Properties[i]
		err := tx.QueryRow(ctx, propQuery, event.ID, prop.Key, prop.Value, prop.SuggestedValueID, event.ProductID).
			Scan(&prop.SuggestedValueID)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("duplicate property key %q: %w", prop.Key, apperrors.ErrConflict)
			}
			return fmt.Errorf("failed to create event property %q: %w", prop.Key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, productID, eventID uuid.UUID) (*models.Event, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT e.id, e.product_id, e.page_id, p.name, e.name, e.description, e.created_at, e.updated_at
		FROM trackmap_events e
		JOIN trackmap_pages p ON p.id = e.page_id
		WHERE e.product_id = $1 AND e.id = $2`

	event, err := scanEvent(scope.Conn.QueryRow(ctx, query, productID, eventID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	if err := r.loadProperties(ctx, scope.Conn, []*models.Event{event}); err != nil {
		return nil, err
	}
	return event, nil
}

func (r *eventRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*models.Event, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT e.id, e.product_id, e.page_id, p.name, e.name, e.description, e.created_at, e.updated_at
		FROM trackmap_events e
		JOIN trackmap_pages p ON p.id = e.page_id
		WHERE e.product_id = $1
		ORDER BY p.name, e.name`

	rows, err := scope.Conn.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	if err := r.loadProperties(ctx, scope.Conn, events); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *eventRepository) Delete(ctx context.Context, productID, eventID uuid.UUID) error {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return err
	}

	result, err := scope.Conn.Exec(ctx, `DELETE FROM trackmap_events WHERE product_id = $1 AND id = $2`, productID, eventID)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// querier is the subset of pgx shared by connections and transactions.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// loadProperties fills Properties for the given events with a single query.
func (r *eventRepository) loadProperties(ctx context.Context, q querier, events []*models.Event) error {
	if len(events) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(events))
	byID := make(map[uuid.UUID]*models.Event, len(events))
	for i, e := range events {
		ids[i] = e.ID
		byID[e.ID] = e
		e.Properties = []models.EventProperty{}
	}

	rows, err := q.Query(ctx, `
		SELECT event_id, key, value, suggested_value_id
		FROM trackmap_event_properties
		WHERE event_id = ANY($1)
		ORDER BY event_id, key`, ids)
	if err != nil {
		return fmt.Errorf("failed to query event properties: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventID uuid.UUID
		var prop models.EventProperty
		if err := rows.Scan(&eventID, &prop.Key, &prop.Value, &prop.SuggestedValueID); err != nil {
			return fmt.Errorf("failed to scan event property: %w", err)
		}
		if e, ok := byID[eventID]; ok {
			e.Properties = append(e.Properties, prop)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating event properties: %w", err)
	}
	return nil
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	var description *string
	err := row.Scan(&e.ID, &e.ProductID, &e.PageID, &e.PageName, &e.Name, &description, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}
	e.Description = stringValue(description)
	return &e, nil
}
