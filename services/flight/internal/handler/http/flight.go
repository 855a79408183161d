package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	playground "github.com/go-playground/validator/v10"

	"github.com/skybook/airline/pkg/httputil"
	"github.com/skybook/airline/pkg/validator"
	"github.com/skybook/airline/services/flight/internal/domain"
	"github.com/skybook/airline/services/flight/internal/service"
)

func init() {
	if err := validator.RegisterValidation("criteria_op", func(fl playground.FieldLevel) bool {
		return domain.ValidOperator(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register criteria_op validation: %v", err))
	}
}

// FlightHandler handles HTTP requests for flight endpoints.
type FlightHandler struct {
	service *service.FlightService
	logger  *slog.Logger
}

// NewFlightHandler creates a new flight HTTP handler.
func NewFlightHandler(svc *service.FlightService, logger *slog.Logger) *FlightHandler {
	return &FlightHandler{service: svc, logger: logger}
}

// CreateFlightRequest is the JSON body for creating a flight.
type CreateFlightRequest struct {
	AirplaneID           int64     `json:"airplaneId" validate:"gt=0"`
	StartAirportID       int64     `json:"startAirportId" validate:"gt=0"`
	DestinationAirportID int64     `json:"destinationAirportId" validate:"gt=0"`
	StartDate            time.Time `json:"startDate" validate:"required"`
	ArrivalDate          time.Time `json:"arrivalDate" validate:"required,gtfield=StartDate"`
	Price                *float64  `json:"price" validate:"required,gte=0"`
	Description          string    `json:"description" validate:"max=2000"`
}

// UpdateFlightRequest is the JSON body for a partial flight update.
type UpdateFlightRequest struct {
	AirplaneID           *int64     `json:"airplaneId" validate:"omitempty,gt=0"`
	StartAirportID       *int64     `json:"startAirportId" validate:"omitempty,gt=0"`
	DestinationAirportID *int64     `json:"destinationAirportId" validate:"omitempty,gt=0"`
	StartDate            *time.Time `json:"startDate"`
	ArrivalDate          *time.Time `json:"arrivalDate"`
	Price                *float64   `json:"price" validate:"omitempty,gte=0"`
	Description          *string    `json:"description" validate:"omitempty,max=2000"`
}

// SearchCriterionRequest is one element of the search body.
type SearchCriterionRequest struct {
	Key       string `json:"key" validate:"required"`
	Operation string `json:"operation" validate:"required,criteria_op"`
	Value     any    `json:"value" validate:"required"`
}

// ListFlights handles GET /flights
func (h *FlightHandler) ListFlights(w http.ResponseWriter, r *http.Request) {
	flights, err := h.service.ListFlights(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, flights)
}

// GetFlight handles GET /flights/{id}
func (h *FlightHandler) GetFlight(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, "id")
	if !ok {
		return
	}
	flight, err := h.service.GetFlight(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, flight)
}

// SearchFlights handles POST /flights/search
func (h *FlightHandler) SearchFlights(w http.ResponseWriter, r *http.Request) {
	var req []SearchCriterionRequest
	if err := validator.Decode(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	criteria := make([]domain.Criterion, 0, len(req))
	for i := range req {
		if err := validator.Validate(&req[i]); err != nil {
			httputil.WriteValidationError(w, err)
			return
		}
		criteria = append(criteria, domain.Criterion{Key: req[i].Key, Operation: req[i].Operation, Value: req[i].Value})
	}

	flights, err := h.service.SearchFlights(r.Context(), criteria)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, flights)
}

// CreateFlight handles POST /flights
func (h *FlightHandler) CreateFlight(w http.ResponseWriter, r *http.Request) {
	var req CreateFlightRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	flight, err := h.service.CreateFlight(r.Context(), service.CreateFlightInput{
		AirplaneID:           req.AirplaneID,
		StartAirportID:       req.StartAirportID,
		DestinationAirportID: req.DestinationAirportID,
		StartDate:            req.StartDate,
		ArrivalDate:          req.ArrivalDate,
		Price:                *req.Price,
		Description:          req.Description,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.Header().Set("Location", "/flights/"+strconv.FormatInt(flight.ID, 10))
	httputil.WriteData(w, http.StatusCreated, flight)
}

// UpdateFlight handles PUT /flights/{id}
func (h *FlightHandler) UpdateFlight(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateFlightRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	flight, err := h.service.UpdateFlight(r.Context(), id, domain.FlightPatch{
		AirplaneID:           req.AirplaneID,
		StartAirportID:       req.StartAirportID,
		DestinationAirportID: req.DestinationAirportID,
		StartDate:            req.StartDate,
		ArrivalDate:          req.ArrivalDate,
		Price:                req.Price,
		Description:          req.Description,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, flight)
}

// DeleteFlight handles DELETE /flights/{id}
func (h *FlightHandler) DeleteFlight(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteFlight(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
