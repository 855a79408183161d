package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/skybook/airline/pkg/errors"
	"github.com/skybook/airline/services/airplane/internal/domain"
)

type mockAirplaneRepository struct {
	mock.Mock
}

func (m *mockAirplaneRepository) List(ctx context.Context) ([]domain.Airplane, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Airplane), args.Error(1)
}

func (m *mockAirplaneRepository) GetByID(ctx context.Context, id int64) (*domain.Airplane, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Airplane), args.Error(1)
}

func (m *mockAirplaneRepository) ListByAirport(ctx context.Context, airportID int64) ([]domain.Airplane, error) {
	args := m.Called(ctx, airportID)
	return args.Get(0).([]domain.Airplane), args.Error(1)
}

func (m *mockAirplaneRepository) ListByModel(ctx context.Context, model string) ([]domain.Airplane, error) {
	args := m.Called(ctx, model)
	return args.Get(0).([]domain.Airplane), args.Error(1)
}

func (m *mockAirplaneRepository) Create(ctx context.Context, a *domain.Airplane) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAirplaneRepository) Update(ctx context.Context, a *domain.Airplane) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAirplaneRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func newTestService(repo *mockAirplaneRepository) *AirplaneService {
	return NewAirplaneService(repo, slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
}

func TestListByAirport_EmptyIsNotFound(t *testing.T) {
	repo := new(mockAirplaneRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	repo.On("ListByAirport", ctx, int64(1)).Return([]domain.Airplane{{ID: 1}}, nil)
	repo.On("ListByAirport", ctx, int64(2)).Return([]domain.Airplane{}, nil)

	got, err := svc.ListByAirport(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = svc.ListByAirport(ctx, 2)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListByModel(t *testing.T) {
	repo := new(mockAirplaneRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	repo.On("ListByModel", ctx, "a320").Return([]domain.Airplane{{ID: 1, Model: "A320"}}, nil)
	repo.On("ListByModel", ctx, "concorde").Return([]domain.Airplane{}, nil)

	got, err := svc.ListByModel(ctx, " a320 ")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = svc.ListByModel(ctx, "concorde")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.ListByModel(ctx, "  ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateAirplane(t *testing.T) {
	repo := new(mockAirplaneRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.MatchedBy(func(a *domain.Airplane) bool {
		return a.Model == "A320" && a.ProductionDate.Hour() == 0 && a.NumberOfSeats == 180
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Airplane).ID = 4
	}).Return(nil)

	a, err := svc.CreateAirplane(ctx, AirplaneInput{
		Model:          "A320 ",
		ProductionDate: time.Date(2018, 5, 5, 13, 0, 0, 0, time.UTC),
		NumberOfSeats:  180,
		MaxDistance:    6150,
		AirportID:      1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), a.ID)
	repo.AssertExpectations(t)
}

func TestUpdateAndDelete_NotFound(t *testing.T) {
	repo := new(mockAirplaneRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	repo.On("Update", ctx, mock.AnythingOfType("*domain.Airplane")).Return(apperrors.NotFound("airplane", int64(9)))
	repo.On("Delete", ctx, int64(9)).Return(apperrors.NotFound("airplane", int64(9)))

	_, err := svc.UpdateAirplane(ctx, 9, AirplaneInput{Model: "x"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteAirplane(ctx, 9), apperrors.ErrNotFound)
}
