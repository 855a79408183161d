package repository

import (
	"context"

	"github.com/skybook/airline/services/reservation/internal/domain"
)

// ReservationRepository defines persistence operations for reservations.
type ReservationRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]domain.Reservation, error)
	// Reserve takes one seat on flightID and records the reservation in a
	// single transaction.
	Reserve(ctx context.Context, userID, flightID int64) (*domain.Reservation, error)
	// Cancel deletes reservation id owned by userID and gives its seat back.
	Cancel(ctx context.Context, id, userID int64) (*domain.Reservation, error)
}
