package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/skybook/airline/pkg/errors"
	"github.com/skybook/airline/services/flight/internal/domain"
	"github.com/skybook/airline/services/flight/internal/repository"
)

// CreateFlightInput holds the fields of a new flight.
type CreateFlightInput struct {
	AirplaneID           int64
	StartAirportID       int64
	DestinationAirportID int64
	StartDate            time.Time
	ArrivalDate          time.Time
	Price                float64
	Description          string
}

// FlightService implements the flight use cases.
type FlightService struct {
	flights repository.FlightRepository
	refs    repository.ReferenceRepository
	logger  *slog.Logger
}

// NewFlightService creates a new flight service.
func NewFlightService(flights repository.FlightRepository, refs repository.ReferenceRepository, logger *slog.Logger) *FlightService {
	return &FlightService{flights: flights, refs: refs, logger: logger}
}

// ListFlights returns every flight.
func (s *FlightService) ListFlights(ctx context.Context) ([]domain.Flight, error) {
	return s.flights.List(ctx)
}

// GetFlight returns the flight with id.
func (s *FlightService) GetFlight(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.flights.GetByID(ctx, id)
}

// SearchFlights returns the flights matching every criterion. No criteria
// matches every flight.
func (s *FlightService) SearchFlights(ctx context.Context, criteria []domain.Criterion) ([]domain.Flight, error) {
	filters, err := domain.ParseCriteria(criteria)
	if err != nil {
		return nil, err
	}
	return s.flights.Search(ctx, filters)
}

// CreateFlight validates the references of in and stores a new flight whose
// available seats start at the airplane's capacity.
func (s *FlightService) CreateFlight(ctx context.Context, in CreateFlightInput) (*domain.Flight, error) {
	seats, err := s.refs.AirplaneSeats(ctx, in.AirplaneID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Invalid airplane ID: %d", in.AirplaneID))
	}
	if err != nil {
		return nil, err
	}
	if err := s.requireAirport(ctx, in.StartAirportID, "start"); err != nil {
		return nil, err
	}
	if err := s.requireAirport(ctx, in.DestinationAirportID, "destination"); err != nil {
		return nil, err
	}

	f := &domain.Flight{
		AirplaneID:             in.AirplaneID,
		StartAirportID:         in.StartAirportID,
		DestinationAirportID:   in.DestinationAirportID,
		StartDate:              in.StartDate.UTC(),
		ArrivalDate:            in.ArrivalDate.UTC(),
		Price:                  in.Price,
		NumberOfAvailableSeats: seats,
		Description:            strings.TrimSpace(in.Description),
	}
	if err := s.flights.Create(ctx, f); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "flight created",
		slog.Int64("flight_id", f.ID),
		slog.Int64("airplane_id", f.AirplaneID),
		slog.Int("seats", seats),
	)
	return f, nil
}

func (s *FlightService) requireAirport(ctx context.Context, id int64, role string) error {
	ok, err := s.refs.AirportExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.InvalidInput(fmt.Sprintf("Invalid %s airport ID: %d", role, id))
	}
	return nil
}

// UpdateFlight applies the non-nil fields of patch to flight id. A reference
// that does not resolve is skipped and the current value kept.
func (s *FlightService) UpdateFlight(ctx context.Context, id int64, patch domain.FlightPatch) (*domain.Flight, error) {
	f, err := s.flights.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.AirplaneID != nil {
		if _, err := s.refs.AirplaneSeats(ctx, *patch.AirplaneID); err == nil {
			f.AirplaneID = *patch.AirplaneID
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		} else {
			s.logger.InfoContext(ctx, "ignoring unknown airplane in flight update",
				slog.Int64("flight_id", id), slog.Int64("airplane_id", *patch.AirplaneID))
		}
	}
	if patch.StartAirportID != nil {
		if err := s.resolveAirport(ctx, *patch.StartAirportID, &f.StartAirportID); err != nil {
			return nil, err
		}
	}
	if patch.DestinationAirportID != nil {
		if err := s.resolveAirport(ctx, *patch.DestinationAirportID, &f.DestinationAirportID); err != nil {
			return nil, err
		}
	}
	patch.Apply(f)

	if err := s.flights.Update(ctx, f); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "flight updated", slog.Int64("flight_id", id))
	return f, nil
}

func (s *FlightService) resolveAirport(ctx context.Context, id int64, dst *int64) error {
	ok, err := s.refs.AirportExists(ctx, id)
	if err != nil {
		return err
	}
	if ok {
		*dst = id
	}
	return nil
}

// DeleteFlight removes flight id.
func (s *FlightService) DeleteFlight(ctx context.Context, id int64) error {
	if err := s.flights.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "flight deleted", slog.Int64("flight_id", id))
	return nil
}
