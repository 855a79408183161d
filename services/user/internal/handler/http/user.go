package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/skybook/airline/pkg/auth"
	apperrors "github.com/skybook/airline/pkg/errors"
	"github.com/skybook/airline/pkg/httputil"
	"github.com/skybook/airline/pkg/validator"
	"github.com/skybook/airline/services/user/internal/service"
)

// RegisterRequest is the body of POST /users/register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,password,max=50"`
	Email    string `json:"email" validate:"required,email,max=255"`
}

// LoginRequest is the body of POST /users/login. An empty password is
// rejected by the login itself with 401.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password"`
}

// AddRoleRequest is the body of PUT /users/admin/addRole.
type AddRoleRequest struct {
	Username string `json:"username" validate:"required"`
	RoleName string `json:"roleName" validate:"required,max=40"`
}

// ChangePasswordRequest is the body of PUT /users/changePassword.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,password,max=50"`
}

// ChangeEmailRequest is the body of PUT /users/changeEmail.
type ChangeEmailRequest struct {
	NewEmail string `json:"newEmail" validate:"required,email,max=255"`
}

// MessageResponse is returned by operations that have no resource to show.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserHandler handles HTTP requests for user endpoints.
type UserHandler struct {
	service *service.UserService
	logger  *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: svc, logger: logger}
}

func (h *UserHandler) currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	p, ok := auth.CurrentPrincipal(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.AuthenticationRequired(), h.logger)
		return 0, false
	}
	return p.SubjectID, true
}

func (h *UserHandler) message(w http.ResponseWriter, status int, msg string) {
	httputil.WriteData(w, status, MessageResponse{Message: msg})
}

// Register handles POST /users/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.Header().Set("Location", "/users/"+strconv.FormatInt(user.ID, 10))
	httputil.WriteData(w, http.StatusCreated, user)
}

// Login handles POST /users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, err := h.service.Login(r.Context(), w, req.Username, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, user)
}

// Logout handles POST /users/logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), w); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.message(w, http.StatusOK, "logout successful")
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, users)
}

// ActiveUser handles GET /users/activeUser
func (h *UserHandler) ActiveUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, user)
}

// DeleteSelf handles DELETE /users/delete
func (h *UserHandler) DeleteSelf(w http.ResponseWriter, r *http.Request) {
	id, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.service.Cookies().Clear(w)
	h.message(w, http.StatusOK, "user deleted successfully")
}

// DeleteByAdmin handles DELETE /users/admin/delete/{username}
func (h *UserHandler) DeleteByAdmin(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := h.service.DeleteByUsername(r.Context(), username); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.message(w, http.StatusOK, "user deleted successfully")
}

// AddRole handles PUT /users/admin/addRole
func (h *UserHandler) AddRole(w http.ResponseWriter, r *http.Request) {
	var req AddRoleRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	role, err := h.service.AddRole(r.Context(), req.Username, req.RoleName)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.message(w, http.StatusOK, role+" added to "+req.Username)
}

// ChangePassword handles PUT /users/changePassword
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if err := h.service.ChangePassword(r.Context(), id, req.OldPassword, req.NewPassword); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.message(w, http.StatusOK, "password changed successfully")
}

// ChangeEmail handles PUT /users/changeEmail
func (h *UserHandler) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req ChangeEmailRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	user, err := h.service.ChangeEmail(r.Context(), id, req.NewEmail)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, user)
}
