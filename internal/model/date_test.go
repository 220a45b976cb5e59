package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2024, Month: time.January, Day: 15}, d)
	assert.Equal(t, "2024-01-15", d.String())

	for _, bad := range []string{"2024-1-15", "15/01/2024", "2024-02-30", ""} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestDate_JSON(t *testing.T) {
	data, err := json.Marshal(Date{Year: 2024, Month: time.March, Day: 9})
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-03-09"`, string(data))

	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-03-09"`), &d))
	assert.Equal(t, 9, d.Day)

	err = json.Unmarshal([]byte(`20240309`), &d)
	assert.EqualError(t, err, "must be a date string in YYYY-MM-DD format")
}

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	d := DateOf(time.Date(2024, 1, 15, 23, 0, 0, 0, loc))
	assert.Equal(t, "2024-01-15", d.String())
	assert.True(t, Date{}.IsZero())
	assert.False(t, d.IsZero())
	assert.Equal(t, time.UTC, d.Time().Location())
}

func TestNotFoundError(t *testing.T) {
	id := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	err := &NotFoundError{Resource: "TestTable", ID: id}
	assert.Equal(t, "TestTable with id 550e8400-e29b-41d4-a716-446655440000 not found", err.Error())
}

func TestDataIntegrityError(t *testing.T) {
	cause := assert.AnError
	err := &DataIntegrityError{Resource: "TestTable", ID: uuid.Nil, Column: "metadata", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "corrupt metadata column")
}
