package repository

import (
	"context"

	"github.com/skybook/airline/pkg/credential"
)

// UserStore is the persistence the user service needs. The shared
// credential.Store implements it over the users, roles and user_roles tables.
type UserStore interface {
	FindBySubjectID(ctx context.Context, id int64) (*credential.Record, error)
	FindByUsername(ctx context.Context, username string) (*credential.Record, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]credential.Record, error)
	Create(ctx context.Context, rec *credential.Record) error
	SetRefreshTokenHash(ctx context.Context, id int64, digest *string) error
	UpdatePassword(ctx context.Context, id int64, hash, salt string) error
	UpdateEmail(ctx context.Context, id int64, email string) error
	AddRole(ctx context.Context, username, role string) error
	Delete(ctx context.Context, id int64) error
	DeleteByUsername(ctx context.Context, username string) error
}

var _ UserStore = (*credential.Store)(nil)
