package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/skybook/airline/pkg/httputil"
	"github.com/skybook/airline/pkg/validator"
	"github.com/skybook/airline/services/airport/internal/service"
)

// AirportHandler handles HTTP requests for airport endpoints.
type AirportHandler struct {
	service *service.AirportService
	logger  *slog.Logger
}

// NewAirportHandler creates a new airport HTTP handler.
func NewAirportHandler(svc *service.AirportService, logger *slog.Logger) *AirportHandler {
	return &AirportHandler{service: svc, logger: logger}
}

// AirportRequest is the JSON body for creating or replacing an airport.
type AirportRequest struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Country     string   `json:"country" validate:"required,max=100"`
	City        string   `json:"city" validate:"required,max=100"`
	Longitude   *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Latitude    *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Description string   `json:"description" validate:"max=2000"`
}

func (req AirportRequest) toInput() service.AirportInput {
	return service.AirportInput{
		Name:        req.Name,
		Country:     req.Country,
		City:        req.City,
		Longitude:   *req.Longitude,
		Latitude:    *req.Latitude,
		Description: req.Description,
	}
}

// ListAirports handles GET /airports
func (h *AirportHandler) ListAirports(w http.ResponseWriter, r *http.Request) {
	airports, err := h.service.ListAirports(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, airports)
}

// GetAirport handles GET /airports/{id}
func (h *AirportHandler) GetAirport(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, "id")
	if !ok {
		return
	}
	airport, err := h.service.GetAirport(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, airport)
}

// SearchAirports handles GET /airports/search/{field}/{value}
func (h *AirportHandler) SearchAirports(w http.ResponseWriter, r *http.Request) {
	airports, err := h.service.SearchAirports(r.Context(), chi.URLParam(r, "field"), chi.URLParam(r, "value"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, airports)
}

// CreateAirport handles POST /airports
func (h *AirportHandler) CreateAirport(w http.ResponseWriter, r *http.Request) {
	var req AirportRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	airport, err := h.service.CreateAirport(r.Context(), req.toInput())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.Header().Set("Location", "/airports/"+strconv.FormatInt(airport.ID, 10))
	httputil.WriteData(w, http.StatusCreated, airport)
}

// UpdateAirport handles PUT /airports/{id}
func (h *AirportHandler) UpdateAirport(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, "id")
	if !ok {
		return
	}
	var req AirportRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	airport, err := h.service.UpdateAirport(r.Context(), id, req.toInput())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, airport)
}

// DeleteAirport handles DELETE /airports/{id}
func (h *AirportHandler) DeleteAirport(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteAirport(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
