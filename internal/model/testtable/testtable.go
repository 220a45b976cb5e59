// Package testtable defines the TestTable record and its JSON shapes.
//
// Request bodies and responses are encoded by hand so that field level
// errors can name the offending JSON path and so the wire format does not
// drift with Go struct tags.
package testtable

import (
	"time"

	"github.com/google/uuid"

	"github.com/deppfellow/testtable-service/internal/model"
)

// Resource names the entity in errors and logs.
const Resource = "TestTable"

// Metadata is stored in the metadata jsonb column.
type Metadata struct {
	Item        string `json:"item"`
	Description string `json:"description"`
}

// TestTable is a persisted row. ID and the timestamps are assigned by the
// repository and never taken from clients.
type TestTable struct {
	ID             uuid.UUID
	Name           string
	EventDate      model.Date
	EventTimestamp time.Time
	Metadata       Metadata
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Fields are the client controlled attributes replaced by create and update.
type Fields struct {
	Name           string
	EventDate      model.Date
	EventTimestamp time.Time
	Metadata       Metadata
}

func (t *TestTable) Fields() Fields {
	return Fields{
		Name:           t.Name,
		EventDate:      t.EventDate,
		EventTimestamp: t.EventTimestamp,
		Metadata:       t.Metadata,
	}
}
