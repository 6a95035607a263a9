package apperrors

import (
	"errors"
	"fmt"

	"github.com/trackmap/trackmap-engine/pkg/models"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
	ErrSelfMerge  = errors.New("cannot merge a suggested value into itself")
)

// CodeSuggestedValueExists is the machine-readable error code sent with a 409
// when a suggested value collides with an existing one.
const CodeSuggestedValueExists = "suggested_value_exists"

// ValidationError reports an invalid field. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Required returns a ValidationError for a missing field.
func Required(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "is required"}
}

// SuggestedValueConflictError is returned when a suggested value would duplicate
// an existing value in the same product. It matches ErrConflict.
type SuggestedValueConflictError struct {
	Data models.ConflictData
}

func (e *SuggestedValueConflictError) Error() string {
	return fmt.Sprintf("suggested value %q already exists", e.Data.ExistingValue.Value)
}

func (e *SuggestedValueConflictError) Is(target error) bool {
	return target == ErrConflict
}

// AsSuggestedValueConflict extracts conflict data from err, if any.
func AsSuggestedValueConflict(err error) (*models.ConflictData, bool) {
	var conflictErr *SuggestedValueConflictError
	if errors.As(err, &conflictErr) {
		return &conflictErr.Data, true
	}
	return nil, false
}
