package models

import (
	"time"

	"github.com/google/uuid"
)

// SuggestedValue is a reusable literal or templated string offered to populate
// event property values. Values are unique per product.
// Stored in trackmap_suggested_values table.
type SuggestedValue struct {
	ID           uuid.UUID `json:"id"`
	ProductID    uuid.UUID `json:"productId"`
	Value        string    `json:"value"`
	IsContextual bool      `json:"isContextual"`
	UsageCount   int       `json:"usageCount"` // Event properties referencing this value (derived)
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SuggestedValuePatch is the body of create and update requests.
// A nil IsContextual means the server classifies the value itself.
type SuggestedValuePatch struct {
	Value        string `json:"value"`
	IsContextual *bool  `json:"isContextual,omitempty"`
}

// ConflictData describes the existing value that an attempted create or update
// collided with. It only lives as long as the merge dialog that shows it.
type ConflictData struct {
	ExistingValue SuggestedValue `json:"existingValue"`
}

// MatchingProperty is an event property that resolves to a suggested value.
type MatchingProperty struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// AffectedEvent is an event that would lose a reference if a suggested value were deleted.
type AffectedEvent struct {
	ID                 uuid.UUID          `json:"id"`
	Name               string             `json:"name"`
	Page               string             `json:"page"`
	MatchingProperties []MatchingProperty `json:"matchingProperties"`
}

// ImpactData is the result of an impact analysis run before deleting a suggested value.
type ImpactData struct {
	AffectedEventsCount int             `json:"affectedEventsCount"`
	AffectedEvents      []AffectedEvent `json:"affectedEvents"`
}
