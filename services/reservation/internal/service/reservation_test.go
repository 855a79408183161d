package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/skybook/airline/pkg/credential"
	apperrors "github.com/skybook/airline/pkg/errors"
	"github.com/skybook/airline/services/reservation/internal/domain"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *mockRepo) Reserve(ctx context.Context, userID, flightID int64) (*domain.Reservation, error) {
	args := m.Called(ctx, userID, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *mockRepo) Cancel(ctx context.Context, id, userID int64) (*domain.Reservation, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishReservationCreated(ctx context.Context, r *domain.Reservation) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockEvents) PublishReservationCancelled(ctx context.Context, r *domain.Reservation) error {
	return m.Called(ctx, r).Error(0)
}

type users map[int64]bool

func (u users) FindBySubjectID(_ context.Context, id int64) (*credential.Record, error) {
	if !u[id] {
		return nil, apperrors.NotFound("user", id)
	}
	return &credential.Record{ID: id}, nil
}

func newFixture() (*ReservationService, *mockRepo, *mockEvents) {
	repo, events := new(mockRepo), new(mockEvents)
	svc := NewReservationService(repo, users{7: true}, events, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, repo, events
}

func TestCreateReservation(t *testing.T) {
	svc, repo, events := newFixture()
	ctx := context.Background()
	res := &domain.Reservation{ID: 11, UserID: 7, FlightID: 4, ReservationDate: time.Now()}
	repo.On("Reserve", ctx, int64(7), int64(4)).Return(res, nil)
	events.On("PublishReservationCreated", ctx, res).Return(nil)

	got, err := svc.CreateReservation(ctx, 7, 4)
	require.NoError(t, err)
	assert.Same(t, res, got)
	events.AssertExpectations(t)
}

func TestCreateReservation_PublishFailureIsNotFatal(t *testing.T) {
	svc, repo, events := newFixture()
	ctx := context.Background()
	res := &domain.Reservation{ID: 11, UserID: 7, FlightID: 4}
	repo.On("Reserve", ctx, int64(7), int64(4)).Return(res, nil)
	events.On("PublishReservationCreated", ctx, res).Return(errors.New("broker down"))

	got, err := svc.CreateReservation(ctx, 7, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(11), got.ID)
}

func TestCreateReservation_Failures(t *testing.T) {
	svc, repo, events := newFixture()
	ctx := context.Background()
	repo.On("Reserve", ctx, int64(7), int64(5)).Return(nil, apperrors.Conflict("no seats left on flight 5"))

	_, err := svc.CreateReservation(ctx, 99, 4)
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "unknown user")

	_, err = svc.CreateReservation(ctx, 7, 5)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	repo.AssertNotCalled(t, "Reserve", ctx, int64(99), int64(4))
	events.AssertNotCalled(t, "PublishReservationCreated", mock.Anything, mock.Anything)
}

func TestCancelReservation(t *testing.T) {
	svc, repo, events := newFixture()
	ctx := context.Background()
	res := &domain.Reservation{ID: 11, UserID: 7, FlightID: 4}
	repo.On("Cancel", ctx, int64(11), int64(7)).Return(res, nil)
	repo.On("Cancel", ctx, int64(11), int64(8)).Return(nil, apperrors.NotFoundf("reservation 11 not found for the current user"))
	events.On("PublishReservationCancelled", ctx, res).Return(nil)

	require.NoError(t, svc.CancelReservation(ctx, 11, 7))
	assert.ErrorIs(t, svc.CancelReservation(ctx, 11, 8), apperrors.ErrNotFound)
	events.AssertNumberOfCalls(t, "PublishReservationCancelled", 1)
}
