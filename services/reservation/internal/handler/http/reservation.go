package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/skybook/airline/pkg/auth"
	apperrors "github.com/skybook/airline/pkg/errors"
	"github.com/skybook/airline/pkg/httputil"
	"github.com/skybook/airline/services/reservation/internal/service"
)

// ReservationHandler handles HTTP requests for reservation endpoints.
type ReservationHandler struct {
	service *service.ReservationService
	logger  *slog.Logger
}

// NewReservationHandler creates a new reservation HTTP handler.
func NewReservationHandler(svc *service.ReservationService, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{service: svc, logger: logger}
}

// currentUser returns the subject of the request principal, writing 401 when
// there is none.
func (h *ReservationHandler) currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	p, ok := auth.CurrentPrincipal(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.AuthenticationRequired(), h.logger)
		return 0, false
	}
	return p.SubjectID, true
}

// ListReservations handles GET /reservations
func (h *ReservationHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	reservations, err := h.service.ListReservations(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, reservations)
}

// CreateReservation handles POST /reservations/{flightId}
func (h *ReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	flightID, ok := httputil.ParseID(w, r, "flightId")
	if !ok {
		return
	}
	res, err := h.service.CreateReservation(r.Context(), userID, flightID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.Header().Set("Location", "/reservations/"+strconv.FormatInt(res.ID, 10))
	httputil.WriteData(w, http.StatusCreated, res)
}

// CancelReservation handles DELETE /reservations/{id}
func (h *ReservationHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.CancelReservation(r.Context(), id, userID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
