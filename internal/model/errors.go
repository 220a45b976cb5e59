// Package model holds domain types shared across layers.
package model

import (
	"fmt"

	"github.com/google/uuid"
)

// NotFoundError reports that a resource with the given id does not exist.
type NotFoundError struct {
	Resource string
	ID       uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %s not found", e.Resource, e.ID)
}

// DataIntegrityError reports a stored value that cannot be decoded into its
// domain shape.
type DataIntegrityError struct {
	Resource string
	ID       uuid.UUID
	Column   string
	Err      error
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("%s %s: corrupt %s column: %v", e.Resource, e.ID, e.Column, e.Err)
}

func (e *DataIntegrityError) Unwrap() error {
	return e.Err
}
