package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/skybook/airline/pkg/auth"
	"github.com/skybook/airline/pkg/credential"
	apperrors "github.com/skybook/airline/pkg/errors"
	"github.com/skybook/airline/services/user/internal/domain"
	"github.com/skybook/airline/services/user/internal/repository"
)

// EventPublisher publishes user domain events.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, u *domain.User) error
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Username string
	Password string
	Email    string
}

// UserService implements account management on top of the credential store
// and the session lifecycle.
type UserService struct {
	store    repository.UserStore
	sessions *auth.Sessions
	hasher   *auth.PasswordHasher
	events   EventPublisher
	logger   *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	store repository.UserStore,
	sessions *auth.Sessions,
	hasher *auth.PasswordHasher,
	events EventPublisher,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		store:    store,
		sessions: sessions,
		hasher:   hasher,
		events:   events,
		logger:   logger,
	}
}

// Cookies returns the cookie writer used for the session cookies.
func (s *UserService) Cookies() auth.Cookies {
	return s.sessions.Cookies()
}

// Register creates an account with ROLE_USER. Either a taken username or a
// taken email is a conflict.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	email := domain.NormalizeEmail(input.Email)

	taken, err := s.store.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if !taken {
		if taken, err = s.store.ExistsByEmail(ctx, email); err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
	}
	if taken {
		return nil, apperrors.Conflict("user already exists")
	}

	salt, hash, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	rec := &credential.Record{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		PasswordSalt: salt,
		Roles:        []string{credential.RoleUser},
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, err
	}
	return s.registered(ctx, rec), nil
}

func (s *UserService) registered(ctx context.Context, rec *credential.Record) *domain.User {
	user := domain.FromRecord(rec)
	if err := s.events.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user registered event",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return user
}

// ExternalIdentity is an account vouched for by an external identity
// provider.
type ExternalIdentity struct {
	Provider string
	Username string
	Email    string
}

// LoginExternal signs in the account named by id and sets both token
// cookies on w. An unknown username is registered with ROLE_USER and no
// password, which requires an email. A username that belongs to a password
// account is a conflict, so a provider login can never take one over.
func (s *UserService) LoginExternal(ctx context.Context, w http.ResponseWriter, id ExternalIdentity) (*domain.User, error) {
	username := strings.TrimSpace(id.Username)
	if username == "" {
		return nil, apperrors.Unauthorized("identity provider returned no username")
	}

	rec, err := s.store.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if rec.PasswordHash != "" {
			return nil, apperrors.Conflict(fmt.Sprintf("username %q belongs to a password account", username))
		}
	case errors.Is(err, apperrors.ErrNotFound):
		email := domain.NormalizeEmail(id.Email)
		if email == "" {
			return nil, apperrors.Unauthorized("identity provider returned no verified email")
		}
		rec = &credential.Record{
			Username: username,
			Email:    email,
			Roles:    []string{credential.RoleUser},
		}
		if err := s.store.Create(ctx, rec); err != nil {
			if errors.Is(err, apperrors.ErrAlreadyExists) {
				return nil, apperrors.Conflict("user already exists")
			}
			return nil, err
		}
		s.registered(ctx, rec)
	default:
		return nil, apperrors.CredentialStoreUnavailable(err)
	}

	if err := s.sessions.Start(ctx, w, rec); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user logged in",
		slog.Int64("user_id", rec.ID),
		slog.String("provider", id.Provider),
	)
	return domain.FromRecord(rec), nil
}

// Login starts a session for username and sets both token cookies on w.
func (s *UserService) Login(ctx context.Context, w http.ResponseWriter, username, password string) (*domain.User, error) {
	rec, err := s.sessions.Login(ctx, w, strings.TrimSpace(username), password)
	if err != nil {
		return nil, err
	}
	return domain.FromRecord(rec), nil
}

// Logout ends the session of the current principal.
func (s *UserService) Logout(ctx context.Context, w http.ResponseWriter) error {
	return s.sessions.Logout(ctx, w)
}

// ListUsers returns every account.
func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]*domain.User, 0, len(records))
	for i := range records {
		users = append(users, domain.FromRecord(&records[i]))
	}
	return users, nil
}

// GetUser returns the account with id.
func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	rec, err := s.store.FindBySubjectID(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.FromRecord(rec), nil
}

// DeleteUser removes the account with id.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "user deleted", slog.Int64("user_id", id))
	return nil
}

// DeleteByUsername removes the account with username.
func (s *UserService) DeleteByUsername(ctx context.Context, username string) error {
	if err := s.store.DeleteByUsername(ctx, username); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "user deleted by admin", slog.String("username", username))
	return nil
}

// AddRole grants ROLE_<ROLENAME> to username and returns the stored role
// name. Unknown roles are created.
func (s *UserService) AddRole(ctx context.Context, username, roleName string) (string, error) {
	role := credential.RoleName(roleName)
	if role == "ROLE_" {
		return "", apperrors.InvalidInput("role name is required")
	}
	if err := s.store.AddRole(ctx, username, role); err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "role added to user",
		slog.String("username", username),
		slog.String("role", role),
	)
	return role, nil
}

// ChangePassword replaces the password of user id after checking the old
// one. The salt is regenerated.
func (s *UserService) ChangePassword(ctx context.Context, id int64, oldPassword, newPassword string) error {
	rec, err := s.store.FindBySubjectID(ctx, id)
	if err != nil {
		return err
	}
	if !s.hasher.Matches(rec.PasswordHash, oldPassword, rec.PasswordSalt) {
		return apperrors.InvalidInput("invalid old password")
	}

	salt, hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(ctx, id, hash, salt); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "password changed", slog.Int64("user_id", id))
	return nil
}

// ChangeEmail sets a new email on user id. An address already held by any
// account, including this one, is rejected.
func (s *UserService) ChangeEmail(ctx context.Context, id int64, newEmail string) (*domain.User, error) {
	email := domain.NormalizeEmail(newEmail)

	rec, err := s.store.FindBySubjectID(ctx, id)
	if err != nil {
		return nil, err
	}
	taken, err := s.store.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, apperrors.InvalidInput("email already in use")
	}

	if err := s.store.UpdateEmail(ctx, id, email); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, apperrors.InvalidInput("email already in use")
		}
		return nil, err
	}
	rec.Email = email

	s.logger.InfoContext(ctx, "email changed", slog.Int64("user_id", id))
	return domain.FromRecord(rec), nil
}

func (s *UserService) hashPassword(password string) (salt, hash string, err error) {
	if len(password) > auth.MaxPasswordBytes {
		return "", "", apperrors.InvalidInput(fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes))
	}
	salt, err = s.hasher.NewSalt()
	if err != nil {
		return "", "", apperrors.Internal(err)
	}
	hash, err = s.hasher.Hash(password, salt)
	if err != nil {
		return "", "", apperrors.Internal(err)
	}
	return salt, hash, nil
}
