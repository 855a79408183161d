package domain

import (
	"strings"
	"time"
)

// Airplane is an aircraft stationed at an airport.
type Airplane struct {
	ID             int64     `json:"id"`
	Model          string    `json:"model"`
	ProductionDate time.Time `json:"productionDate"`
	NumberOfSeats  int       `json:"numberOfSeats"`
	MaxDistance    float64   `json:"maxDistance"`
	AirportID      int64     `json:"airportId"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// DateLayout is the wire format of ProductionDate in requests.
const DateLayout = time.DateOnly

// Normalize trims the model and drops the time of day from ProductionDate.
func (a *Airplane) Normalize() {
	a.Model = strings.TrimSpace(a.Model)
	y, m, d := a.ProductionDate.Date()
	a.ProductionDate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
