package http

import (
	"log/slog"
	"net/http"

	"github.com/skybook/airline/pkg/auth"
	apperrors "github.com/skybook/airline/pkg/errors"
	"github.com/skybook/airline/pkg/httputil"
	"github.com/skybook/airline/pkg/pagination"
	"github.com/skybook/airline/services/notification/internal/service"
)

// NotificationHandler handles HTTP requests for notification endpoints.
type NotificationHandler struct {
	service *service.NotificationService
	logger  *slog.Logger
}

// NewNotificationHandler creates a new notification HTTP handler.
func NewNotificationHandler(svc *service.NotificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{service: svc, logger: logger}
}

// Hello handles GET /notification
func (h *NotificationHandler) Hello(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Hello, Notification!"))
}

// ListNotifications handles GET /notifications
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentPrincipal(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.AuthenticationRequired(), h.logger)
		return
	}

	params := pagination.FromRequest(r)
	notifications, total, err := h.service.ListNotifications(r.Context(), p.SubjectID, r.URL.Query().Get("status"), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(notifications, total, params))
}

// MarkAsRead handles PATCH /notifications/{id}/read
func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentPrincipal(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.AuthenticationRequired(), h.logger)
		return
	}
	id, ok := httputil.ParseID(w, r, "id")
	if !ok {
		return
	}

	n, err := h.service.MarkAsRead(r.Context(), id, p.SubjectID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, n)
}
