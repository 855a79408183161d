package domain

import (
	"math"
	"strings"
	"time"
)

// Airport is a departure or arrival point for flights.
type Airport struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Country     string    `json:"country"`
	City        string    `json:"city"`
	Longitude   float64   `json:"longitude"`
	Latitude    float64   `json:"latitude"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CoordinateScale is the number of decimal places kept for coordinates.
const CoordinateScale = 6

// RoundCoordinate rounds v to CoordinateScale decimal places.
func RoundCoordinate(v float64) float64 {
	const factor = 1e6
	return math.Round(v*factor) / factor
}

// Normalize rounds the coordinates and trims the text fields.
func (a *Airport) Normalize() {
	a.Name = strings.TrimSpace(a.Name)
	a.Country = strings.TrimSpace(a.Country)
	a.City = strings.TrimSpace(a.City)
	a.Longitude = RoundCoordinate(a.Longitude)
	a.Latitude = RoundCoordinate(a.Latitude)
}

// SearchField is a column airports can be searched by.
type SearchField string

// Searchable columns.
const (
	SearchByName    SearchField = "name"
	SearchByCountry SearchField = "country"
	SearchByCity    SearchField = "city"
)

// ParseSearchField maps a path segment to a SearchField, case-insensitively.
func ParseSearchField(s string) (SearchField, bool) {
	switch f := SearchField(strings.ToLower(s)); f {
	case SearchByName, SearchByCountry, SearchByCity:
		return f, true
	}
	return "", false
}
