package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skybook/airline/pkg/database"
	apperrors "github.com/skybook/airline/pkg/errors"
	"github.com/skybook/airline/services/flight/internal/domain"
)

func setupRepo(t *testing.T) (*FlightRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewFlightRepository(mock), mock
}

var columns = []string{
	"id", "airplane_id", "start_airport_id", "destination_airport_id", "start_date", "arrival_date",
	"price", "number_of_available_seats", "description", "created_at", "updated_at",
}

func sampleFlight() *domain.Flight {
	start := time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)
	return &domain.Flight{
		ID:                     1,
		AirplaneID:             2,
		StartAirportID:         1,
		DestinationAirportID:   3,
		StartDate:              start,
		ArrivalDate:            start.Add(3 * time.Hour),
		Price:                  149.99,
		NumberOfAvailableSeats: 180,
		Description:            "IST-LHR",
		CreatedAt:              start.Add(-72 * time.Hour),
		UpdatedAt:              start.Add(-72 * time.Hour),
	}
}

func flightRows(flights ...*domain.Flight) *pgxmock.Rows {
	rows := pgxmock.NewRows(columns)
	for _, f := range flights {
		rows.AddRow(f.ID, f.AirplaneID, f.StartAirportID, f.DestinationAirportID, f.StartDate, f.ArrivalDate,
			f.Price, f.NumberOfAvailableSeats, f.Description, f.CreatedAt, f.UpdatedAt)
	}
	return rows
}

func TestList(t *testing.T) {
	repo, mock := setupRepo(t)
	f := sampleFlight()

	mock.ExpectQuery(`FROM flights ORDER BY start_date, id`).WillReturnRows(flightRows(f))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Flight{*f}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := setupRepo(t)
	mock.ExpectQuery(`FROM flights WHERE id = \$1`).WithArgs(int64(5)).WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 5)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSearch_BuildsParameterizedQuery(t *testing.T) {
	repo, mock := setupRepo(t)
	since := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	filters := []domain.Filter{
		{Field: domain.Field{Column: "price", Kind: domain.KindNumber}, Op: domain.OpAtMost, Value: 200.0},
		{Field: domain.Field{Column: "start_date", Kind: domain.KindTime}, Op: domain.OpAtLeast, Value: since},
		{Field: domain.Field{Column: "description", Kind: domain.KindText}, Op: domain.OpMatch, Value: "50%_off"},
		{Field: domain.Field{Column: "start_airport_id", Kind: domain.KindInteger}, Op: domain.OpMatch, Value: int64(1)},
	}

	mock.ExpectQuery(`FROM flights WHERE price <= \$1 AND start_date >= \$2 AND description ILIKE '%' \|\| \$3 \|\| '%' ESCAPE '\\' AND start_airport_id = \$4 ORDER BY`).
		WithArgs(200.0, since, `50\%\_off`, int64(1)).
		WillReturnRows(flightRows(sampleFlight()))

	got, err := repo.Search(context.Background(), filters)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearch_NoFilters(t *testing.T) {
	where, args := buildWhere(nil)
	assert.Empty(t, where)
	assert.Nil(t, args)
}

func TestCreate(t *testing.T) {
	repo, mock := setupRepo(t)
	f := sampleFlight()
	f.ID = 0
	created := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO flights`).
		WithArgs(f.AirplaneID, f.StartAirportID, f.DestinationAirportID, f.StartDate,
			f.ArrivalDate, f.Price, f.NumberOfAvailableSeats, f.Description).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(9), created, created))

	require.NoError(t, repo.Create(context.Background(), f))
	assert.Equal(t, int64(9), f.ID)
	assert.Equal(t, created, f.CreatedAt)
}

func TestUpdate_KeepsSeats(t *testing.T) {
	repo, mock := setupRepo(t)
	f := sampleFlight()
	f.NumberOfAvailableSeats = 0

	mock.ExpectQuery(`UPDATE flights`).
		WithArgs(f.AirplaneID, f.StartAirportID, f.DestinationAirportID,
			f.StartDate, f.ArrivalDate, f.Price, f.Description, f.ID).
		WillReturnRows(pgxmock.NewRows([]string{"number_of_available_seats", "created_at", "updated_at"}).
			AddRow(42, f.CreatedAt, f.UpdatedAt))

	require.NoError(t, repo.Update(context.Background(), f))
	assert.Equal(t, 42, f.NumberOfAvailableSeats)
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock := setupRepo(t)
	mock.ExpectQuery(`UPDATE flights`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), int64(1)).
		WillReturnError(pgx.ErrNoRows)

	err := repo.Update(context.Background(), sampleFlight())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{"deleted", 1, nil},
		{"missing", 0, apperrors.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := setupRepo(t)
			mock.ExpectExec(`DELETE FROM flights WHERE id = \$1`).WithArgs(int64(1)).
				WillReturnResult(pgxmock.NewResult("DELETE", tt.affected))

			err := repo.Delete(context.Background(), 1)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestReferences(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()
	refs := NewReferenceRepository(mock)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT number_of_seats FROM airplanes WHERE id = \$1`).WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"number_of_seats"}).AddRow(180))
	mock.ExpectQuery(`FROM airplanes`).WithArgs(int64(3)).WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM airports WHERE id = \$1\)`).WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`FROM airports`).WithArgs(int64(4)).WillReturnError(errors.New("conn reset"))

	seats, err := refs.AirplaneSeats(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 180, seats)

	_, err = refs.AirplaneSeats(ctx, 3)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	ok, err := refs.AirportExists(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = refs.AirportExists(ctx, 4)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
