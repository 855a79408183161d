package repository

import (
	"context"

	"github.com/skybook/airline/services/airplane/internal/domain"
)

// AirplaneRepository defines the interface for airplane persistence operations.
type AirplaneRepository interface {
	List(ctx context.Context) ([]domain.Airplane, error)
	GetByID(ctx context.Context, id int64) (*domain.Airplane, error)

	// ListByAirport returns the airplanes stationed at airportID.
	ListByAirport(ctx context.Context, airportID int64) ([]domain.Airplane, error)

	// ListByModel returns the airplanes whose model equals model, ignoring case.
	ListByModel(ctx context.Context, model string) ([]domain.Airplane, error)

	Create(ctx context.Context, airplane *domain.Airplane) error
	Update(ctx context.Context, airplane *domain.Airplane) error
	Delete(ctx context.Context, id int64) error
}
