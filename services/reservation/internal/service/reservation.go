package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/skybook/airline/pkg/credential"
	apperrors "github.com/skybook/airline/pkg/errors"
	"github.com/skybook/airline/services/reservation/internal/domain"
	"github.com/skybook/airline/services/reservation/internal/repository"
)

// UserLookup resolves the user behind a principal.
type UserLookup interface {
	FindBySubjectID(ctx context.Context, id int64) (*credential.Record, error)
}

// EventPublisher publishes reservation lifecycle events.
type EventPublisher interface {
	PublishReservationCreated(ctx context.Context, r *domain.Reservation) error
	PublishReservationCancelled(ctx context.Context, r *domain.Reservation) error
}

// ReservationService implements the reservation use cases.
type ReservationService struct {
	repo   repository.ReservationRepository
	users  UserLookup
	events EventPublisher
	logger *slog.Logger
}

// NewReservationService creates a new reservation service.
func NewReservationService(repo repository.ReservationRepository, users UserLookup, events EventPublisher, logger *slog.Logger) *ReservationService {
	return &ReservationService{repo: repo, users: users, events: events, logger: logger}
}

// ListReservations returns the reservations of userID.
func (s *ReservationService) ListReservations(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	return s.repo.ListByUser(ctx, userID)
}

// CreateReservation books one seat on flightID for userID.
func (s *ReservationService) CreateReservation(ctx context.Context, userID, flightID int64) (*domain.Reservation, error) {
	if _, err := s.users.FindBySubjectID(ctx, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundf("user %d not found", userID)
		}
		return nil, err
	}

	res, err := s.repo.Reserve(ctx, userID, flightID)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "reservation created",
		slog.Int64("reservation_id", res.ID),
		slog.Int64("flight_id", flightID),
	)

	if err := s.events.PublishReservationCreated(ctx, res); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish reservation created event",
			slog.Int64("reservation_id", res.ID),
			slog.String("error", err.Error()),
		)
	}
	return res, nil
}

// CancelReservation deletes reservation id when it belongs to userID.
func (s *ReservationService) CancelReservation(ctx context.Context, id, userID int64) error {
	res, err := s.repo.Cancel(ctx, id, userID)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "reservation cancelled",
		slog.Int64("reservation_id", id),
		slog.Int64("flight_id", res.FlightID),
	)

	if err := s.events.PublishReservationCancelled(ctx, res); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish reservation cancelled event",
			slog.Int64("reservation_id", id),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
