package testtable

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deppfellow/testtable-service/internal/model"
)

// Payload is a decoded create or update body. Nil fields were absent or null.
type Payload struct {
	Name           *string     `json:"name" validate:"required,notblank,max=255"`
	EventDate      *model.Date `json:"eventDate" validate:"required"`
	EventTimestamp *time.Time  `json:"eventTimestamp" validate:"required"`
	Metadata       *Metadata   `json:"metadata" validate:"required"`
}

// Fields must only be called on a validated payload.
func (p *Payload) Fields() Fields {
	return Fields{
		Name:           *p.Name,
		EventDate:      *p.EventDate,
		EventTimestamp: *p.EventTimestamp,
		Metadata:       *p.Metadata,
	}
}

// DecodeError is a body that could not be turned into a Payload. Field is
// the JSON path of the bad value, empty when the document itself is broken.
type DecodeError struct {
	Field   string
	Message string
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return "Invalid JSON: " + e.Message
	}
	return fmt.Sprintf("Invalid value for field '%s': %s", e.Field, e.Message)
}

const timestampHint = "must be an ISO-8601 timestamp with offset, e.g. 2024-01-15T10:30:00+00:00"

// DecodePayload parses a request body. Unknown fields are ignored.
func DecodePayload(data []byte) (*Payload, error) {
	raw, err := decodeObject(data)
	if err != nil {
		return nil, err
	}

	p := &Payload{}

	if v, ok := field(raw, "name"); ok {
		name, derr := decodeString(v)
		if derr != nil {
			derr.Field = "name"
			return nil, derr
		}
		p.Name = &name
	}

	if v, ok := field(raw, "eventDate"); ok {
		var d model.Date
		if err := d.UnmarshalJSON(v); err != nil {
			return nil, &DecodeError{Field: "eventDate", Message: err.Error()}
		}
		p.EventDate = &d
	}

	if v, ok := field(raw, "eventTimestamp"); ok {
		ts, err := decodeTimestamp(v)
		if err != nil {
			return nil, &DecodeError{Field: "eventTimestamp", Message: timestampHint}
		}
		p.EventTimestamp = &ts
	}

	if v, ok := field(raw, "metadata"); ok {
		m, derr := decodeMetadata(v)
		if derr != nil {
			derr.Field = joinPath("metadata", derr.Field)
			return nil, derr
		}
		p.Metadata = &m
	}

	return p, nil
}

// UnmarshalMetadata decodes a stored metadata document. Both keys must be
// present and hold strings.
func UnmarshalMetadata(data []byte) (Metadata, error) {
	m, derr := decodeMetadata(data)
	if derr != nil {
		return Metadata{}, derr
	}
	return m, nil
}

func decodeMetadata(data []byte) (Metadata, *DecodeError) {
	raw, err := decodeObject(data)
	if err != nil {
		return Metadata{}, &DecodeError{Message: "must be an object with item and description"}
	}

	var m Metadata
	keys := []struct {
		name string
		dst  *string
	}{
		{"item", &m.Item},
		{"description", &m.Description},
	}
	for _, k := range keys {
		v, ok := field(raw, k.name)
		if !ok {
			return Metadata{}, &DecodeError{Field: k.name, Message: "is required"}
		}
		str, derr := decodeString(v)
		if derr != nil {
			derr.Field = k.name
			return Metadata{}, derr
		}
		*k.dst = str
	}
	return m, nil
}

func decodeObject(data []byte) (map[string]json.RawMessage, *DecodeError) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &DecodeError{Message: "request body is empty"}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, &DecodeError{Message: syntaxErr.Error()}
		}
		return nil, &DecodeError{Message: "expected a JSON object"}
	}
	if raw == nil {
		return nil, &DecodeError{Message: "expected a JSON object"}
	}
	return raw, nil
}

// decodeString rejects NUL, which PostgreSQL cannot store in text or jsonb.
func decodeString(v json.RawMessage) (string, *DecodeError) {
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", &DecodeError{Message: "must be a string"}
	}
	if strings.ContainsRune(s, 0) {
		return "", &DecodeError{Message: "must not contain NUL characters"}
	}
	return s, nil
}

// decodeTimestamp requires an explicit offset and returns the instant in UTC.
func decodeTimestamp(v json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}

// field returns the raw value of key, treating JSON null as absent.
func field(raw map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	v, ok := raw[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, false
	}
	return v, true
}

func joinPath(parent, child string) string {
	if child == "" {
		return parent
	}
	return parent + "." + child
}
