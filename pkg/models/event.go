package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is a tracked analytics event on a page.
type Event struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"productId"`
	PageID      uuid.UUID       `json:"pageId"`
	PageName    string          `json:"pageName,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Properties  []EventProperty `json:"properties"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// EventProperty is a key/value pair on an event. When SuggestedValueID is set the
// property resolves to that suggested value; merging or deleting the suggested
// value repoints or clears the reference.
type EventProperty struct {
	Key              string     `json:"key"`
	Value            string     `json:"value"`
	SuggestedValueID *uuid.UUID `json:"suggestedValueId,omitempty"`
}
