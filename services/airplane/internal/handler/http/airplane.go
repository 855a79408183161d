package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/skybook/airline/pkg/errors"
	"github.com/skybook/airline/pkg/httputil"
	"github.com/skybook/airline/pkg/validator"
	"github.com/skybook/airline/services/airplane/internal/domain"
	"github.com/skybook/airline/services/airplane/internal/service"
)

// AirplaneHandler handles HTTP requests for airplane endpoints.
type AirplaneHandler struct {
	service *service.AirplaneService
	logger  *slog.Logger
}

// NewAirplaneHandler creates a new airplane HTTP handler.
func NewAirplaneHandler(svc *service.AirplaneService, logger *slog.Logger) *AirplaneHandler {
	return &AirplaneHandler{service: svc, logger: logger}
}

// AirplaneRequest is the JSON body for creating or replacing an airplane.
type AirplaneRequest struct {
	Model          string  `json:"model" validate:"required,max=100"`
	ProductionDate string  `json:"productionDate" validate:"required,datetime=2006-01-02"`
	NumberOfSeats  int     `json:"numberOfSeats" validate:"gt=0"`
	MaxDistance    float64 `json:"maxDistance" validate:"gt=0"`
	AirportID      int64   `json:"airportId" validate:"gt=0"`
}

func (req AirplaneRequest) toInput() (service.AirplaneInput, error) {
	produced, err := time.Parse(domain.DateLayout, req.ProductionDate)
	if err != nil {
		return service.AirplaneInput{}, apperrors.InvalidInput("productionDate must be formatted as " + domain.DateLayout)
	}
	return service.AirplaneInput{
		Model:          req.Model,
		ProductionDate: produced,
		NumberOfSeats:  req.NumberOfSeats,
		MaxDistance:    req.MaxDistance,
		AirportID:      req.AirportID,
	}, nil
}

// ListAirplanes handles GET /airplanes
func (h *AirplaneHandler) ListAirplanes(w http.ResponseWriter, r *http.Request) {
	airplanes, err := h.service.ListAirplanes(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, airplanes)
}

// GetAirplane handles GET /airplanes/{id}
func (h *AirplaneHandler) GetAirplane(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, "id")
	if !ok {
		return
	}
	airplane, err := h.service.GetAirplane(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, airplane)
}

// ListByAirport handles GET /airplanes/airport/{airportId}
func (h *AirplaneHandler) ListByAirport(w http.ResponseWriter, r *http.Request) {
	airportID, ok := httputil.ParseID(w, r, "airportId")
	if !ok {
		return
	}
	airplanes, err := h.service.ListByAirport(r.Context(), airportID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, airplanes)
}

// ListByModel handles GET /airplanes/model/{model}
func (h *AirplaneHandler) ListByModel(w http.ResponseWriter, r *http.Request) {
	airplanes, err := h.service.ListByModel(r.Context(), chi.URLParam(r, "model"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, airplanes)
}

// CreateAirplane handles POST /airplanes
func (h *AirplaneHandler) CreateAirplane(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	airplane, err := h.service.CreateAirplane(r.Context(), in)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.Header().Set("Location", "/airplanes/"+strconv.FormatInt(airplane.ID, 10))
	httputil.WriteData(w, http.StatusCreated, airplane)
}

// UpdateAirplane handles PUT /airplanes/{id}
func (h *AirplaneHandler) UpdateAirplane(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, "id")
	if !ok {
		return
	}
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	airplane, err := h.service.UpdateAirplane(r.Context(), id, in)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, airplane)
}

// DeleteAirplane handles DELETE /airplanes/{id}
func (h *AirplaneHandler) DeleteAirplane(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteAirplane(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AirplaneHandler) decode(w http.ResponseWriter, r *http.Request) (service.AirplaneInput, bool) {
	var req AirplaneRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return service.AirplaneInput{}, false
	}
	in, err := req.toInput()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return service.AirplaneInput{}, false
	}
	return in, true
}
