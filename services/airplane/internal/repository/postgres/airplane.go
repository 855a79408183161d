package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/skybook/airline/pkg/database"
	apperrors "github.com/skybook/airline/pkg/errors"
	"github.com/skybook/airline/services/airplane/internal/domain"
)

// AirplaneRepository implements repository.AirplaneRepository using PostgreSQL.
type AirplaneRepository struct {
	db database.DBTX
}

// NewAirplaneRepository creates a new PostgreSQL-backed airplane repository.
func NewAirplaneRepository(db database.DBTX) *AirplaneRepository {
	return &AirplaneRepository{db: db}
}

const selectAirplanes = `
	SELECT id, model, production_date, number_of_seats, max_distance, airport_id, created_at, updated_at
	FROM airplanes`

// List returns every airplane ordered by id.
func (r *AirplaneRepository) List(ctx context.Context) (airplanes []domain.Airplane, err error) {
	query := selectAirplanes + ` ORDER BY id`
	ctx, end := database.TraceQuery(ctx, "ListAirplanes", query)
	defer func() { end(err) }()

	return r.queryAirplanes(ctx, query)
}

// GetByID retrieves an airplane by its id.
func (r *AirplaneRepository) GetByID(ctx context.Context, id int64) (a *domain.Airplane, err error) {
	query := selectAirplanes + ` WHERE id = $1`
	ctx, end := database.TraceQuery(ctx, "GetAirplane", query)
	defer func() { end(err) }()

	a, err = scanAirplane(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("airplane", id)
	}
	return a, err
}

// ListByAirport returns the airplanes stationed at airportID.
func (r *AirplaneRepository) ListByAirport(ctx context.Context, airportID int64) (airplanes []domain.Airplane, err error) {
	query := selectAirplanes + ` WHERE airport_id = $1 ORDER BY id`
	ctx, end := database.TraceQuery(ctx, "ListAirplanesByAirport", query)
	defer func() { end(err) }()

	return r.queryAirplanes(ctx, query, airportID)
}

// ListByModel returns the airplanes whose model equals model, ignoring case.
func (r *AirplaneRepository) ListByModel(ctx context.Context, model string) (airplanes []domain.Airplane, err error) {
	query := selectAirplanes + ` WHERE lower(model) = lower($1) ORDER BY id`
	ctx, end := database.TraceQuery(ctx, "ListAirplanesByModel", query)
	defer func() { end(err) }()

	return r.queryAirplanes(ctx, query, model)
}

// Create inserts a new airplane.
func (r *AirplaneRepository) Create(ctx context.Context, a *domain.Airplane) (err error) {
	const query = `
		INSERT INTO airplanes (model, production_date, number_of_seats, max_distance, airport_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	ctx, end := database.TraceQuery(ctx, "InsertAirplane", query)
	defer func() { end(err) }()

	err = r.db.QueryRow(ctx, query, a.Model, a.ProductionDate, a.NumberOfSeats, a.MaxDistance, a.AirportID).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert airplane: %w", err)
	}
	return nil
}

// Update modifies an existing airplane.
func (r *AirplaneRepository) Update(ctx context.Context, a *domain.Airplane) (err error) {
	const query = `
		UPDATE airplanes
		SET model = $1, production_date = $2, number_of_seats = $3, max_distance = $4,
		    airport_id = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING created_at, updated_at`
	ctx, end := database.TraceQuery(ctx, "UpdateAirplane", query)
	defer func() { end(err) }()

	err = r.db.QueryRow(ctx, query, a.Model, a.ProductionDate, a.NumberOfSeats, a.MaxDistance, a.AirportID, a.ID).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NotFound("airplane", a.ID)
	}
	if err != nil {
		return fmt.Errorf("update airplane: %w", err)
	}
	return nil
}

// Delete removes an airplane by its id.
func (r *AirplaneRepository) Delete(ctx context.Context, id int64) (err error) {
	const query = `DELETE FROM airplanes WHERE id = $1`
	ctx, end := database.TraceQuery(ctx, "DeleteAirplane", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete airplane: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("airplane", id)
	}
	return nil
}

func (r *AirplaneRepository) queryAirplanes(ctx context.Context, query string, args ...any) ([]domain.Airplane, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query airplanes: %w", err)
	}
	defer rows.Close()

	airplanes := []domain.Airplane{}
	for rows.Next() {
		a, err := scanAirplane(rows)
		if err != nil {
			return nil, err
		}
		airplanes = append(airplanes, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate airplanes: %w", err)
	}
	return airplanes, nil
}

func scanAirplane(row pgx.Row) (*domain.Airplane, error) {
	var a domain.Airplane
	err := row.Scan(
		&a.ID,
		&a.Model,
		&a.ProductionDate,
		&a.NumberOfSeats,
		&a.MaxDistance,
		&a.AirportID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan airplane: %w", err)
	}
	return &a, nil
}
