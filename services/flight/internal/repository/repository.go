package repository

import (
	"context"

	"github.com/skybook/airline/services/flight/internal/domain"
)

// FlightRepository defines persistence operations for flights.
type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Search(ctx context.Context, filters []domain.Filter) ([]domain.Flight, error)
	Create(ctx context.Context, f *domain.Flight) error
	Update(ctx context.Context, f *domain.Flight) error
	Delete(ctx context.Context, id int64) error
}

// ReferenceRepository resolves the airplanes and airports a flight points at.
// Both tables belong to other services; flights only read them.
type ReferenceRepository interface {
	// AirplaneSeats returns the seat count of airplane id.
	AirplaneSeats(ctx context.Context, id int64) (int, error)
	AirportExists(ctx context.Context, id int64) (bool, error)
}
