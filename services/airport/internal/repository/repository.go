package repository

import (
	"context"

	"github.com/skybook/airline/services/airport/internal/domain"
)

// AirportRepository defines the interface for airport persistence operations.
type AirportRepository interface {
	// List returns every airport ordered by id.
	List(ctx context.Context) ([]domain.Airport, error)

	// GetByID retrieves an airport by its id.
	GetByID(ctx context.Context, id int64) (*domain.Airport, error)

	// Search returns airports whose field contains value, case-insensitively.
	Search(ctx context.Context, field domain.SearchField, value string) ([]domain.Airport, error)

	// Create inserts a new airport and fills in its id and timestamps.
	Create(ctx context.Context, airport *domain.Airport) error

	// Update modifies an existing airport.
	Update(ctx context.Context, airport *domain.Airport) error

	// Delete removes an airport by its id.
	Delete(ctx context.Context, id int64) error
}
