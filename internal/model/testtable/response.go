package testtable

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/deppfellow/testtable-service/internal/model"
)

// Response is the outward representation of a TestTable.
type Response struct {
	ID             uuid.UUID
	Name           string
	EventDate      model.Date
	EventTimestamp time.Time
	Metadata       Metadata
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func NewResponse(t *TestTable) *Response {
	return &Response{
		ID:             t.ID,
		Name:           t.Name,
		EventDate:      t.EventDate,
		EventTimestamp: t.EventTimestamp,
		Metadata:       t.Metadata,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

type responseJSON struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	EventDate      string   `json:"eventDate"`
	EventTimestamp string   `json:"eventTimestamp"`
	Metadata       Metadata `json:"metadata"`
	CreatedAt      string   `json:"createdAt"`
	UpdatedAt      string   `json:"updatedAt"`
}

func (r Response) MarshalJSON() ([]byte, error) {
	return json.Marshal(responseJSON{
		ID:             r.ID.String(),
		Name:           r.Name,
		EventDate:      r.EventDate.String(),
		EventTimestamp: formatTimestamp(r.EventTimestamp),
		Metadata:       r.Metadata,
		CreatedAt:      formatTimestamp(r.CreatedAt),
		UpdatedAt:      formatTimestamp(r.UpdatedAt),
	})
}

func (r *Response) UnmarshalJSON(data []byte) error {
	var raw responseJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := uuid.Parse(raw.ID)
	if err != nil {
		return errors.Wrap(err, "id")
	}
	eventDate, err := model.ParseDate(raw.EventDate)
	if err != nil {
		return errors.Wrap(err, "eventDate")
	}

	var stamps [3]time.Time
	for i, s := range []string{raw.EventTimestamp, raw.CreatedAt, raw.UpdatedAt} {
		if stamps[i], err = time.Parse(time.RFC3339Nano, s); err != nil {
			return errors.Wrapf(err, "timestamp %q", s)
		}
	}

	*r = Response{
		ID:             id,
		Name:           raw.Name,
		EventDate:      eventDate,
		EventTimestamp: stamps[0],
		Metadata:       raw.Metadata,
		CreatedAt:      stamps[1],
		UpdatedAt:      stamps[2],
	}
	return nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
