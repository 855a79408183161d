package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/skybook/airline/pkg/database"
	apperrors "github.com/skybook/airline/pkg/errors"
	"github.com/skybook/airline/services/flight/internal/domain"
)

// FlightRepository implements repository.FlightRepository using PostgreSQL.
type FlightRepository struct {
	db database.DBTX
}

// NewFlightRepository creates a new PostgreSQL-backed flight repository.
func NewFlightRepository(db database.DBTX) *FlightRepository {
	return &FlightRepository{db: db}
}

const selectFlights = `
	SELECT id, airplane_id, start_airport_id, destination_airport_id, start_date, arrival_date,
	       price, number_of_available_seats, description, created_at, updated_at
	FROM flights`

// List returns every flight ordered by start date.
func (r *FlightRepository) List(ctx context.Context) (flights []domain.Flight, err error) {
	query := selectFlights + ` ORDER BY start_date, id`
	ctx, end := database.TraceQuery(ctx, "ListFlights", query)
	defer func() { end(err) }()

	return r.queryFlights(ctx, query)
}

// GetByID retrieves a flight by its id.
func (r *FlightRepository) GetByID(ctx context.Context, id int64) (f *domain.Flight, err error) {
	query := selectFlights + ` WHERE id = $1`
	ctx, end := database.TraceQuery(ctx, "GetFlight", query)
	defer func() { end(err) }()

	f, err = scanFlight(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("flight", id)
	}
	return f, err
}

// Search returns the flights matching every filter.
func (r *FlightRepository) Search(ctx context.Context, filters []domain.Filter) (flights []domain.Flight, err error) {
	where, args := buildWhere(filters)
	query := selectFlights + where + ` ORDER BY start_date, id`
	ctx, end := database.TraceQuery(ctx, "SearchFlights", query)
	defer func() { end(err) }()

	return r.queryFlights(ctx, query, args...)
}

// buildWhere renders filters as a parameterized WHERE clause. Column names
// come from the domain whitelist, never from the client.
func buildWhere(filters []domain.Filter) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}
	conds := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for _, f := range filters {
		args = append(args, f.Value)
		ph := "$" + strconv.Itoa(len(args))
		switch {
		case f.Op == domain.OpAtLeast:
			conds = append(conds, f.Field.Column+" >= "+ph)
		case f.Op == domain.OpAtMost:
			conds = append(conds, f.Field.Column+" <= "+ph)
		case f.Field.Kind == domain.KindText:
			args[len(args)-1] = escapeLike(f.Value.(string))
			conds = append(conds, f.Field.Column+` ILIKE '%' || `+ph+` || '%' ESCAPE '\'`)
		default:
			conds = append(conds, f.Field.Column+" = "+ph)
		}
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Create inserts a new flight.
func (r *FlightRepository) Create(ctx context.Context, f *domain.Flight) (err error) {
	const query = `
		INSERT INTO flights (airplane_id, start_airport_id, destination_airport_id, start_date,
		                     arrival_date, price, number_of_available_seats, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	ctx, end := database.TraceQuery(ctx, "InsertFlight", query)
	defer func() { end(err) }()

	err = r.db.QueryRow(ctx, query,
		f.AirplaneID, f.StartAirportID, f.DestinationAirportID, f.StartDate,
		f.ArrivalDate, f.Price, f.NumberOfAvailableSeats, f.Description,
	).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert flight: %w", err)
	}
	return nil
}

// Update writes every mutable column of f. Seat counts are owned by
// reservations and are not touched here.
func (r *FlightRepository) Update(ctx context.Context, f *domain.Flight) (err error) {
	const query = `
		UPDATE flights
		SET airplane_id = $1, start_airport_id = $2, destination_airport_id = $3,
		    start_date = $4, arrival_date = $5, price = $6, description = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING number_of_available_seats, created_at, updated_at`
	ctx, end := database.TraceQuery(ctx, "UpdateFlight", query)
	defer func() { end(err) }()

	err = r.db.QueryRow(ctx, query,
		f.AirplaneID, f.StartAirportID, f.DestinationAirportID,
		f.StartDate, f.ArrivalDate, f.Price, f.Description, f.ID,
	).Scan(&f.NumberOfAvailableSeats, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NotFound("flight", f.ID)
	}
	if err != nil {
		return fmt.Errorf("update flight: %w", err)
	}
	return nil
}

// Delete removes a flight by its id.
func (r *FlightRepository) Delete(ctx context.Context, id int64) (err error) {
	const query = `DELETE FROM flights WHERE id = $1`
	ctx, end := database.TraceQuery(ctx, "DeleteFlight", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete flight: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("flight", id)
	}
	return nil
}

func (r *FlightRepository) queryFlights(ctx context.Context, query string, args ...any) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query flights: %w", err)
	}
	defer rows.Close()

	flights := []domain.Flight{}
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flights: %w", err)
	}
	return flights, nil
}

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	err := row.Scan(
		&f.ID,
		&f.AirplaneID,
		&f.StartAirportID,
		&f.DestinationAirportID,
		&f.StartDate,
		&f.ArrivalDate,
		&f.Price,
		&f.NumberOfAvailableSeats,
		&f.Description,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan flight: %w", err)
	}
	return &f, nil
}
