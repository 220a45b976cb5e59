package testtable

import (
	"time"

	"github.com/google/uuid"
)

// ChangeKind is the mutation a Change describes.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// Change is emitted after a mutation commits. Record is nil for deletions.
type Change struct {
	Kind       ChangeKind `json:"kind"`
	ID         uuid.UUID  `json:"id"`
	Record     *Response  `json:"record,omitempty"`
	OccurredAt time.Time  `json:"occurredAt"`
}
