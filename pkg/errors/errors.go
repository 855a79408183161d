package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors shared by every service.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternal       = errors.New("internal error")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")
)

// Authentication and authorization taxonomy.
//
// ErrTokenInvalid covers every way a token can fail verification (bad
// signature, malformed, wrong kind, expired). Callers must not try to tell
// those cases apart.
var (
	ErrTokenInvalid               = errors.New("token invalid")
	ErrIdentityNotFound           = errors.New("identity not found")
	ErrAuthenticationRequired     = errors.New("authentication required")
	ErrAuthorizationDenied        = errors.New("authorization denied")
	ErrCredentialStoreUnavailable = errors.New("credential store unavailable")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource string, id any) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %v not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// NotFoundf creates a 404 error with a free-form message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf(format, args...),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// AlreadyExists creates a 409 error.
func AlreadyExists(resource, field, value string) *AppError {
	return &AppError{
		Code:    "ALREADY_EXISTS",
		Message: fmt.Sprintf("%s with %s %q already exists", resource, field, value),
		Status:  http.StatusConflict,
		Err:     ErrAlreadyExists,
	}
}

// Conflict creates a 409 error for state conflicts that are not duplicates.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// AuthenticationRequired is returned by the authorization policy when a
// protected route is hit without a principal.
func AuthenticationRequired() *AppError {
	return &AppError{
		Code:    "AUTHENTICATION_REQUIRED",
		Message: "authentication required",
		Status:  http.StatusUnauthorized,
		Err:     ErrAuthenticationRequired,
	}
}

// AuthorizationDenied is returned when the principal lacks the required role.
func AuthorizationDenied() *AppError {
	return &AppError{
		Code:    "AUTHORIZATION_DENIED",
		Message: "insufficient permissions",
		Status:  http.StatusForbidden,
		Err:     ErrAuthorizationDenied,
	}
}

// IdentityNotFound creates a 404 error for a subject with no user record.
func IdentityNotFound(subjectID int64) *AppError {
	return &AppError{
		Code:    "IDENTITY_NOT_FOUND",
		Message: fmt.Sprintf("no user record for subject %d", subjectID),
		Status:  http.StatusNotFound,
		Err:     ErrIdentityNotFound,
	}
}

// CredentialStoreUnavailable wraps a credential store failure as a 503.
func CredentialStoreUnavailable(err error) *AppError {
	return &AppError{
		Code:    "CREDENTIAL_STORE_UNAVAILABLE",
		Message: "credential store unavailable",
		Status:  http.StatusServiceUnavailable,
		Err:     errors.Join(ErrCredentialStoreUnavailable, err),
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrIdentityNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrAuthenticationRequired), errors.Is(err, ErrTokenInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrAuthorizationDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrServiceUnavail), errors.Is(err, ErrCredentialStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
