package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/skybook/airline/pkg/errors"
)

func TestParseCriteria(t *testing.T) {
	filters, err := ParseCriteria([]Criterion{
		{Key: "price", Operation: ">", Value: 120.5},
		{Key: "startAirportId", Operation: ":", Value: float64(3)},
		{Key: "startDate", Operation: "<", Value: "2026-07-01"},
		{Key: "description", Operation: ":", Value: " red-eye "},
		{Key: "numberOfAvailableSeats", Operation: ">", Value: "10"},
	})
	require.NoError(t, err)
	require.Len(t, filters, 5)

	assert.Equal(t, Filter{Field: Field{"price", KindNumber}, Op: OpAtLeast, Value: 120.5}, filters[0])
	assert.Equal(t, int64(3), filters[1].Value)
	assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), filters[2].Value)
	assert.Equal(t, "red-eye", filters[3].Value)
	assert.Equal(t, int64(10), filters[4].Value)
}

func TestParseCriteria_Rejects(t *testing.T) {
	tests := []struct {
		name string
		c    Criterion
	}{
		{"unknown key", Criterion{Key: "pilot", Operation: ":", Value: "x"}},
		{"column name is not a key", Criterion{Key: "start_date", Operation: ">", Value: "2026-01-01"}},
		{"unknown operation", Criterion{Key: "price", Operation: "=", Value: 1.0}},
		{"fractional id", Criterion{Key: "id", Operation: ":", Value: 1.5}},
		{"bad date", Criterion{Key: "arrivalDate", Operation: ">", Value: "tomorrow"}},
		{"empty value", Criterion{Key: "description", Operation: ":", Value: ""}},
		{"nil value", Criterion{Key: "price", Operation: ">", Value: nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCriteria([]Criterion{tt.c})
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestFlightPatch_Apply(t *testing.T) {
	start := time.Date(2026, 8, 1, 9, 30, 0, 0, time.FixedZone("TRT", 3*3600))
	price := 99.0
	f := Flight{ID: 1, Price: 10, Description: "old", NumberOfAvailableSeats: 180}

	FlightPatch{StartDate: &start, Price: &price}.Apply(&f)

	assert.Equal(t, start.UTC(), f.StartDate)
	assert.Equal(t, time.UTC, f.StartDate.Location())
	assert.Equal(t, 99.0, f.Price)
	assert.Equal(t, "old", f.Description)
	assert.Equal(t, 180, f.NumberOfAvailableSeats)
}
