package service

import (
	"context"
	"log/slog"
	"strings"

	apperrors "github.com/skybook/airline/pkg/errors"
	"github.com/skybook/airline/services/airport/internal/domain"
	"github.com/skybook/airline/services/airport/internal/repository"
)

// AirportInput is the writable part of an airport.
type AirportInput struct {
	Name        string
	Country     string
	City        string
	Longitude   float64
	Latitude    float64
	Description string
}

// AirportService implements the airport use cases.
type AirportService struct {
	repo   repository.AirportRepository
	logger *slog.Logger
}

// NewAirportService creates a new airport service.
func NewAirportService(repo repository.AirportRepository, logger *slog.Logger) *AirportService {
	return &AirportService{repo: repo, logger: logger}
}

// ListAirports returns every airport.
func (s *AirportService) ListAirports(ctx context.Context) ([]domain.Airport, error) {
	return s.repo.List(ctx)
}

// GetAirport returns the airport with id.
func (s *AirportService) GetAirport(ctx context.Context, id int64) (*domain.Airport, error) {
	return s.repo.GetByID(ctx, id)
}

// SearchAirports returns airports whose field contains value.
func (s *AirportService) SearchAirports(ctx context.Context, field, value string) ([]domain.Airport, error) {
	f, ok := domain.ParseSearchField(field)
	if !ok {
		return nil, apperrors.InvalidInput("search field must be one of name, country, city")
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, apperrors.InvalidInput("search value must not be empty")
	}
	return s.repo.Search(ctx, f, value)
}

// CreateAirport stores a new airport.
func (s *AirportService) CreateAirport(ctx context.Context, in AirportInput) (*domain.Airport, error) {
	a := &domain.Airport{
		Name:        in.Name,
		Country:     in.Country,
		City:        in.City,
		Longitude:   in.Longitude,
		Latitude:    in.Latitude,
		Description: in.Description,
	}
	a.Normalize()

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "airport created",
		slog.Int64("airport_id", a.ID),
		slog.String("name", a.Name),
	)
	return a, nil
}

// UpdateAirport replaces every writable field of airport id.
func (s *AirportService) UpdateAirport(ctx context.Context, id int64, in AirportInput) (*domain.Airport, error) {
	a := &domain.Airport{
		ID:          id,
		Name:        in.Name,
		Country:     in.Country,
		City:        in.City,
		Longitude:   in.Longitude,
		Latitude:    in.Latitude,
		Description: in.Description,
	}
	a.Normalize()

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "airport updated", slog.Int64("airport_id", id))
	return a, nil
}

// DeleteAirport removes airport id.
func (s *AirportService) DeleteAirport(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "airport deleted", slog.Int64("airport_id", id))
	return nil
}
