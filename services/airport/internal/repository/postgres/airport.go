package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/skybook/airline/pkg/database"
	apperrors "github.com/skybook/airline/pkg/errors"
	"github.com/skybook/airline/services/airport/internal/domain"
)

// AirportRepository implements repository.AirportRepository using PostgreSQL.
type AirportRepository struct {
	db database.DBTX
}

// NewAirportRepository creates a new PostgreSQL-backed airport repository.
func NewAirportRepository(db database.DBTX) *AirportRepository {
	return &AirportRepository{db: db}
}

const airportColumns = `id, name, country, city, longitude, latitude, description, created_at, updated_at`

// searchColumns whitelists the columns Search may interpolate.
var searchColumns = map[domain.SearchField]string{
	domain.SearchByName:    "name",
	domain.SearchByCountry: "country",
	domain.SearchByCity:    "city",
}

// List returns every airport ordered by id.
func (r *AirportRepository) List(ctx context.Context) (airports []domain.Airport, err error) {
	query := `SELECT ` + airportColumns + ` FROM airports ORDER BY id`
	ctx, end := database.TraceQuery(ctx, "ListAirports", query)
	defer func() { end(err) }()

	return r.queryAirports(ctx, query)
}

// GetByID retrieves an airport by its id.
func (r *AirportRepository) GetByID(ctx context.Context, id int64) (a *domain.Airport, err error) {
	query := `SELECT ` + airportColumns + ` FROM airports WHERE id = $1`
	ctx, end := database.TraceQuery(ctx, "GetAirport", query)
	defer func() { end(err) }()

	a, err = scanAirport(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("airport", id)
	}
	return a, err
}

// Search returns airports whose field contains value, case-insensitively.
func (r *AirportRepository) Search(ctx context.Context, field domain.SearchField, value string) (airports []domain.Airport, err error) {
	column, ok := searchColumns[field]
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("cannot search airports by %q", field))
	}
	query := fmt.Sprintf(`SELECT %s FROM airports WHERE %s ILIKE '%%' || $1 || '%%' ESCAPE '\' ORDER BY id`, airportColumns, column)
	ctx, end := database.TraceQuery(ctx, "SearchAirports", query)
	defer func() { end(err) }()

	return r.queryAirports(ctx, query, escapeLike(value))
}

// Create inserts a new airport.
func (r *AirportRepository) Create(ctx context.Context, a *domain.Airport) (err error) {
	const query = `
		INSERT INTO airports (name, country, city, longitude, latitude, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	ctx, end := database.TraceQuery(ctx, "InsertAirport", query)
	defer func() { end(err) }()

	err = r.db.QueryRow(ctx, query, a.Name, a.Country, a.City, a.Longitude, a.Latitude, a.Description).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert airport: %w", err)
	}
	return nil
}

// Update modifies an existing airport.
func (r *AirportRepository) Update(ctx context.Context, a *domain.Airport) (err error) {
	const query = `
		UPDATE airports
		SET name = $1, country = $2, city = $3, longitude = $4, latitude = $5,
		    description = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING created_at, updated_at`
	ctx, end := database.TraceQuery(ctx, "UpdateAirport", query)
	defer func() { end(err) }()

	err = r.db.QueryRow(ctx, query, a.Name, a.Country, a.City, a.Longitude, a.Latitude, a.Description, a.ID).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NotFound("airport", a.ID)
	}
	if err != nil {
		return fmt.Errorf("update airport: %w", err)
	}
	return nil
}

// Delete removes an airport by its id.
func (r *AirportRepository) Delete(ctx context.Context, id int64) (err error) {
	const query = `DELETE FROM airports WHERE id = $1`
	ctx, end := database.TraceQuery(ctx, "DeleteAirport", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete airport: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("airport", id)
	}
	return nil
}

func (r *AirportRepository) queryAirports(ctx context.Context, query string, args ...any) ([]domain.Airport, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query airports: %w", err)
	}
	defer rows.Close()

	airports := []domain.Airport{}
	for rows.Next() {
		a, err := scanAirport(rows)
		if err != nil {
			return nil, err
		}
		airports = append(airports, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate airports: %w", err)
	}
	return airports, nil
}

func scanAirport(row pgx.Row) (*domain.Airport, error) {
	var a domain.Airport
	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Country,
		&a.City,
		&a.Longitude,
		&a.Latitude,
		&a.Description,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan airport: %w", err)
	}
	return &a, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
