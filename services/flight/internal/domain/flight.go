package domain

import (
	"strings"
	"time"
)

// Flight is a scheduled flight between two airports.
type Flight struct {
	ID                     int64     `json:"id"`
	AirplaneID             int64     `json:"airplaneId"`
	StartAirportID         int64     `json:"startAirportId"`
	DestinationAirportID   int64     `json:"destinationAirportId"`
	StartDate              time.Time `json:"startDate"`
	ArrivalDate            time.Time `json:"arrivalDate"`
	Price                  float64   `json:"price"`
	NumberOfAvailableSeats int       `json:"numberOfAvailableSeats"`
	Description            string    `json:"description"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// FlightPatch carries the fields of a partial update. Nil fields are left
// untouched.
type FlightPatch struct {
	AirplaneID           *int64
	StartAirportID       *int64
	DestinationAirportID *int64
	StartDate            *time.Time
	ArrivalDate          *time.Time
	Price                *float64
	Description          *string
}

// Apply copies the date, price and description fields of p onto f.
// References are resolved by the caller.
func (p FlightPatch) Apply(f *Flight) {
	if p.StartDate != nil {
		f.StartDate = p.StartDate.UTC()
	}
	if p.ArrivalDate != nil {
		f.ArrivalDate = p.ArrivalDate.UTC()
	}
	if p.Price != nil {
		f.Price = *p.Price
	}
	if p.Description != nil {
		f.Description = strings.TrimSpace(*p.Description)
	}
}
