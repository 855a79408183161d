package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundCoordinate(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{41.2753, 41.2753},
		{28.75194449, 28.751944},
		{-73.7781395, -73.77814},
		{0, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, RoundCoordinate(tt.in), 1e-9)
	}
}

func TestAirport_Normalize(t *testing.T) {
	a := &Airport{Name: "  Istanbul Airport ", Country: "Turkey ", City: " Istanbul", Longitude: 28.75194449, Latitude: 41.2753}
	a.Normalize()

	assert.Equal(t, "Istanbul Airport", a.Name)
	assert.Equal(t, "Turkey", a.Country)
	assert.Equal(t, "Istanbul", a.City)
	assert.InDelta(t, 28.751944, a.Longitude, 1e-9)
}

func TestParseSearchField(t *testing.T) {
	for _, s := range []string{"name", "Country", "CITY"} {
		_, ok := ParseSearchField(s)
		assert.True(t, ok, s)
	}
	_, ok := ParseSearchField("description")
	assert.False(t, ok)
	_, ok = ParseSearchField("name; DROP TABLE airports")
	assert.False(t, ok)
}
