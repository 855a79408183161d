package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/skybook/airline/pkg/errors"
	"github.com/skybook/airline/services/airplane/internal/domain"
	"github.com/skybook/airline/services/airplane/internal/repository"
)

// AirplaneInput is the writable part of an airplane.
type AirplaneInput struct {
	Model          string
	ProductionDate time.Time
	NumberOfSeats  int
	MaxDistance    float64
	AirportID      int64
}

func (in AirplaneInput) toAirplane(id int64) *domain.Airplane {
	a := &domain.Airplane{
		ID:             id,
		Model:          in.Model,
		ProductionDate: in.ProductionDate,
		NumberOfSeats:  in.NumberOfSeats,
		MaxDistance:    in.MaxDistance,
		AirportID:      in.AirportID,
	}
	a.Normalize()
	return a
}

// AirplaneService implements the airplane use cases.
type AirplaneService struct {
	repo   repository.AirplaneRepository
	logger *slog.Logger
}

// NewAirplaneService creates a new airplane service.
func NewAirplaneService(repo repository.AirplaneRepository, logger *slog.Logger) *AirplaneService {
	return &AirplaneService{repo: repo, logger: logger}
}

// ListAirplanes returns every airplane.
func (s *AirplaneService) ListAirplanes(ctx context.Context) ([]domain.Airplane, error) {
	return s.repo.List(ctx)
}

// GetAirplane returns the airplane with id.
func (s *AirplaneService) GetAirplane(ctx context.Context, id int64) (*domain.Airplane, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByAirport returns the airplanes at airportID. An airport without
// airplanes is reported as not found.
func (s *AirplaneService) ListByAirport(ctx context.Context, airportID int64) ([]domain.Airplane, error) {
	airplanes, err := s.repo.ListByAirport(ctx, airportID)
	if err != nil {
		return nil, err
	}
	if len(airplanes) == 0 {
		return nil, apperrors.NotFoundf("no airplanes at airport %d", airportID)
	}
	return airplanes, nil
}

// ListByModel returns the airplanes of model, ignoring case. An unknown model
// is reported as not found.
func (s *AirplaneService) ListByModel(ctx context.Context, model string) ([]domain.Airplane, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, apperrors.InvalidInput("model must not be empty")
	}
	airplanes, err := s.repo.ListByModel(ctx, model)
	if err != nil {
		return nil, err
	}
	if len(airplanes) == 0 {
		return nil, apperrors.NotFoundf("no airplanes of model %q", model)
	}
	return airplanes, nil
}

// CreateAirplane stores a new airplane.
func (s *AirplaneService) CreateAirplane(ctx context.Context, in AirplaneInput) (*domain.Airplane, error) {
	a := in.toAirplane(0)
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "airplane created",
		slog.Int64("airplane_id", a.ID),
		slog.String("model", a.Model),
		slog.Int64("airport_id", a.AirportID),
	)
	return a, nil
}

// UpdateAirplane replaces every writable field of airplane id.
func (s *AirplaneService) UpdateAirplane(ctx context.Context, id int64, in AirplaneInput) (*domain.Airplane, error) {
	a := in.toAirplane(id)
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "airplane updated", slog.Int64("airplane_id", id))
	return a, nil
}

// DeleteAirplane removes airplane id.
func (s *AirplaneService) DeleteAirplane(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "airplane deleted", slog.Int64("airplane_id", id))
	return nil
}
