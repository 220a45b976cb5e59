package testtable

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBody = `{
	"name": "Test Event",
	"eventDate": "2024-01-15",
	"eventTimestamp": "2024-01-15T10:30:00+00:00",
	"metadata": {"item": "Sample Item", "description": "Sample Description"},
	"ignored": true
}`

func TestDecodePayload(t *testing.T) {
	p, err := DecodePayload([]byte(validBody))
	require.NoError(t, err)

	f := p.Fields()
	assert.Equal(t, "Test Event", f.Name)
	assert.Equal(t, "2024-01-15", f.EventDate.String())
	assert.True(t, f.EventTimestamp.Equal(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)))
	assert.Equal(t, Metadata{Item: "Sample Item", Description: "Sample Description"}, f.Metadata)
}

func TestDecodePayload_MissingAndNullAreAbsent(t *testing.T) {
	p, err := DecodePayload([]byte(`{"name": null, "metadata": null}`))
	require.NoError(t, err)
	assert.Nil(t, p.Name)
	assert.Nil(t, p.EventDate)
	assert.Nil(t, p.EventTimestamp)
	assert.Nil(t, p.Metadata)
}

func TestDecodePayload_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		field   string
		message string
	}{
		{"malformed", `{"name": `, "", "Invalid JSON: unexpected end of JSON input"},
		{"empty", ``, "", "Invalid JSON: request body is empty"},
		{"array", `[]`, "", "Invalid JSON: expected a JSON object"},
		{"name type", `{"name": 42}`, "name", "Invalid value for field 'name': must be a string"},
		{"bad date", `{"eventDate": "15-01-2024"}`, "eventDate", `Invalid value for field 'eventDate': "15-01-2024" is not a valid date, expected YYYY-MM-DD`},
		{"bad timestamp", `{"eventTimestamp": "2024-01-15T10:30:00"}`, "eventTimestamp", "Invalid value for field 'eventTimestamp': " + timestampHint},
		{"metadata type", `{"metadata": "x"}`, "metadata", "Invalid value for field 'metadata': must be an object with item and description"},
		{"metadata item", `{"metadata": {"description": "d"}}`, "metadata.item", "Invalid value for field 'metadata.item': is required"},
		{"metadata description type", `{"metadata": {"item": "i", "description": 1}}`, "metadata.description", "Invalid value for field 'metadata.description': must be a string"},
		{"name with NUL", `{"name": "a\u0000b"}`, "name", "Invalid value for field 'name': must not contain NUL characters"},
		{"metadata item with NUL", `{"metadata": {"item": "x\u0000", "description": "d"}}`, "metadata.item", "Invalid value for field 'metadata.item': must not contain NUL characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePayload([]byte(tt.body))
			require.Error(t, err)

			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr))
			assert.Equal(t, tt.field, decodeErr.Field)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestUnmarshalMetadata(t *testing.T) {
	m, err := UnmarshalMetadata([]byte(`{"item": "日本語 ✓", "description": ""}`))
	require.NoError(t, err)
	assert.Equal(t, Metadata{Item: "日本語 ✓", Description: ""}, m)

	_, err = UnmarshalMetadata([]byte(`{"item": "x"}`))
	assert.Error(t, err)

	_, err = UnmarshalMetadata([]byte(`not json`))
	assert.Error(t, err)
}
