package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/skybook/airline/pkg/database"
	apperrors "github.com/skybook/airline/pkg/errors"
)

// ReferenceRepository reads the airplane and airport tables.
type ReferenceRepository struct {
	db database.DBTX
}

// NewReferenceRepository creates a new PostgreSQL-backed reference reader.
func NewReferenceRepository(db database.DBTX) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// AirplaneSeats returns the seat count of airplane id.
func (r *ReferenceRepository) AirplaneSeats(ctx context.Context, id int64) (seats int, err error) {
	const query = `SELECT number_of_seats FROM airplanes WHERE id = $1`
	ctx, end := database.TraceQuery(ctx, "GetAirplaneSeats", query)
	defer func() { end(err) }()

	err = r.db.QueryRow(ctx, query, id).Scan(&seats)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperrors.NotFound("airplane", id)
	}
	if err != nil {
		return 0, fmt.Errorf("get airplane seats: %w", err)
	}
	return seats, nil
}

// AirportExists reports whether airport id exists.
func (r *ReferenceRepository) AirportExists(ctx context.Context, id int64) (exists bool, err error) {
	const query = `SELECT EXISTS(SELECT 1 FROM airports WHERE id = $1)`
	ctx, end := database.TraceQuery(ctx, "AirportExists", query)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check airport: %w", err)
	}
	return exists, nil
}
