package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/skybook/airline/pkg/database"
	apperrors "github.com/skybook/airline/pkg/errors"
	"github.com/skybook/airline/services/reservation/internal/domain"
)

// ReservationRepository implements repository.ReservationRepository using
// PostgreSQL. Seat counts live in the flights table.
type ReservationRepository struct {
	db database.DBTX
}

// NewReservationRepository creates a new PostgreSQL-backed reservation repository.
func NewReservationRepository(db database.DBTX) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// ListByUser returns the reservations of userID, newest first.
func (r *ReservationRepository) ListByUser(ctx context.Context, userID int64) (reservations []domain.Reservation, err error) {
	const query = `
		SELECT id, user_id, flight_id, reservation_date
		FROM reservations
		WHERE user_id = $1
		ORDER BY reservation_date DESC, id DESC`
	ctx, end := database.TraceQuery(ctx, "ListReservations", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	reservations = []domain.Reservation{}
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(&res.ID, &res.UserID, &res.FlightID, &res.ReservationDate); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}
	return reservations, nil
}

// Reserve decrements the flight's available seats and inserts the
// reservation. The conditional UPDATE holds the row lock until commit, so
// concurrent reservations never oversell.
func (r *ReservationRepository) Reserve(ctx context.Context, userID, flightID int64) (res *domain.Reservation, err error) {
	const (
		takeSeat = `
			UPDATE flights
			SET number_of_available_seats = number_of_available_seats - 1, updated_at = NOW()
			WHERE id = $1 AND number_of_available_seats > 0
			RETURNING number_of_available_seats`
		flightExists = `SELECT EXISTS(SELECT 1 FROM flights WHERE id = $1)`
		insert       = `
			INSERT INTO reservations (user_id, flight_id)
			VALUES ($1, $2)
			RETURNING id, reservation_date`
	)
	ctx, end := database.TraceQuery(ctx, "ReserveSeat", takeSeat)
	defer func() { end(err) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var remaining int
	err = tx.QueryRow(ctx, takeSeat, flightID).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := tx.QueryRow(ctx, flightExists, flightID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check flight: %w", err)
		}
		if !exists {
			return nil, apperrors.NotFound("flight", flightID)
		}
		return nil, apperrors.Conflict(fmt.Sprintf("no seats left on flight %d", flightID))
	}
	if err != nil {
		return nil, fmt.Errorf("take seat: %w", err)
	}

	res = &domain.Reservation{UserID: userID, FlightID: flightID}
	if err := tx.QueryRow(ctx, insert, userID, flightID).Scan(&res.ID, &res.ReservationDate); err != nil {
		return nil, fmt.Errorf("insert reservation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return res, nil
}

// Cancel deletes the reservation and returns its seat to the flight. A
// flight deleted in the meantime is left alone.
func (r *ReservationRepository) Cancel(ctx context.Context, id, userID int64) (res *domain.Reservation, err error) {
	const (
		remove = `
			DELETE FROM reservations
			WHERE id = $1 AND user_id = $2
			RETURNING flight_id, reservation_date`
		releaseSeat = `
			UPDATE flights
			SET number_of_available_seats = number_of_available_seats + 1, updated_at = NOW()
			WHERE id = $1`
	)
	ctx, end := database.TraceQuery(ctx, "CancelReservation", remove)
	defer func() { end(err) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	res = &domain.Reservation{ID: id, UserID: userID}
	err = tx.QueryRow(ctx, remove, id, userID).Scan(&res.FlightID, &res.ReservationDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFoundf("reservation %d not found for the current user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("delete reservation: %w", err)
	}

	if _, err := tx.Exec(ctx, releaseSeat, res.FlightID); err != nil {
		return nil, fmt.Errorf("release seat: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return res, nil
}
