// internal/utils/errors.go
package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidUUID represents an error for invalid UUID format.
type ErrInvalidUUID struct {
	Value string
	Err   error
}

func (e *ErrInvalidUUID) Error() string {
	return fmt.Sprintf("invalid UUID format: '%s' - %v", e.Value, e.Err)
}
func (e *ErrInvalidUUID) Unwrap() error { return e.Err }

func (e *ErrInvalidUUID) Is(target error) bool {
	_, ok := target.(*ErrInvalidUUID)
	return ok
}

// NewErrInvalidUUID creates a new ErrInvalidUUID.
func NewErrInvalidUUID(value string, err error) error {
	return &ErrInvalidUUID{Value: value, Err: err}
}

// ValidateUUID checks if a given string is a valid UUID.
func ValidateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return NewErrInvalidUUID(id, err)
	}
	return nil
}
