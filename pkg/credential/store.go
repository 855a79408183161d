package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/skybook/airline/pkg/database"
	apperrors "github.com/skybook/airline/pkg/errors"
)

// Store is the PostgreSQL-backed credential store. It reads and writes the
// users, roles and user_roles tables owned by the user service.
type Store struct {
	db database.DBTX
}

// NewStore creates a credential store on db.
func NewStore(db database.DBTX) *Store {
	return &Store{db: db}
}

const selectRecord = `
	SELECT u.id, u.username, u.email, u.password_hash, u.password_salt, u.refresh_token_hash,
	       u.created_at, u.updated_at,
	       COALESCE(array_agg(r.name ORDER BY r.name) FILTER (WHERE r.name IS NOT NULL), '{}') AS roles
	FROM users u
	LEFT JOIN user_roles ur ON ur.user_id = u.id
	LEFT JOIN roles r ON r.id = ur.role_id`

// FindBySubjectID returns the record with the given id, or a NotFound error.
func (s *Store) FindBySubjectID(ctx context.Context, id int64) (rec *Record, err error) {
	query := selectRecord + ` WHERE u.id = $1 GROUP BY u.id`
	ctx, end := database.TraceQuery(ctx, "FindUserBySubjectID", query)
	defer func() { end(ignoreNotFound(err)) }()

	rec, err = scanRecord(s.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("user", id)
	}
	return rec, err
}

// FindByUsername returns the record with the given username, or a NotFound
// error.
func (s *Store) FindByUsername(ctx context.Context, username string) (rec *Record, err error) {
	query := selectRecord + ` WHERE u.username = $1 GROUP BY u.id`
	ctx, end := database.TraceQuery(ctx, "FindUserByUsername", query)
	defer func() { end(ignoreNotFound(err)) }()

	rec, err = scanRecord(s.db.QueryRow(ctx, query, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFoundf("user %q not found", username)
	}
	return rec, err
}

// ExistsByUsername reports whether a user with username exists.
func (s *Store) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return s.exists(ctx, "ExistsUserByUsername", `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username)
}

// ExistsByEmail reports whether a user with email exists. Emails compare
// case-insensitively.
func (s *Store) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, "ExistsUserByEmail", `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))`, email)
}

func (s *Store) exists(ctx context.Context, op, query string, arg any) (found bool, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	if err = s.db.QueryRow(ctx, query, arg).Scan(&found); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return found, nil
}

// Create inserts rec together with its roles and fills in its ID and
// timestamps.
func (s *Store) Create(ctx context.Context, rec *Record) (err error) {
	const query = `
		INSERT INTO users (username, email, password_hash, password_salt, refresh_token_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	ctx, end := database.TraceQuery(ctx, "InsertUser", query)
	defer func() { end(err) }()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert user: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, query, rec.Username, rec.Email, rec.PasswordHash, rec.PasswordSalt, rec.RefreshTokenHash).
		Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return apperrors.AlreadyExists("user", "username or email", rec.Username)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	for i, role := range rec.Roles {
		rec.Roles[i] = RoleName(role)
		if err = grantRole(ctx, tx, rec.ID, rec.Roles[i]); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit insert user: %w", err)
	}
	return nil
}

// SetRefreshTokenHash replaces the stored refresh token digest of user id.
// A nil digest clears it.
func (s *Store) SetRefreshTokenHash(ctx context.Context, id int64, digest *string) error {
	return s.updateColumns(ctx, "SetUserRefreshToken", `
		UPDATE users SET refresh_token_hash = $1, updated_at = $2 WHERE id = $3`, id, digest)
}

// UpdatePassword replaces the password hash and salt of user id.
func (s *Store) UpdatePassword(ctx context.Context, id int64, hash, salt string) error {
	return s.updateColumns(ctx, "UpdateUserPassword", `
		UPDATE users SET password_hash = $1, password_salt = $2, updated_at = $3 WHERE id = $4`, id, hash, salt)
}

// UpdateEmail sets the email of user id.
func (s *Store) UpdateEmail(ctx context.Context, id int64, email string) error {
	err := s.updateColumns(ctx, "UpdateUserEmail", `
		UPDATE users SET email = $1, updated_at = $2 WHERE id = $3`, id, email)
	if database.IsUniqueViolation(err, "") {
		return apperrors.AlreadyExists("user", "email", email)
	}
	return err
}

// updateColumns runs a single-row UPDATE whose placeholders are the values,
// then updated_at, then the id.
func (s *Store) updateColumns(ctx context.Context, op, query string, id int64, values ...any) (err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(ignoreNotFound(err)) }()

	args := append(values, time.Now().UTC(), id)
	ct, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}
	return nil
}

// AddRole grants role to the user with username, creating the role if it
// does not exist yet. The role is stored as RoleName(role).
func (s *Store) AddRole(ctx context.Context, username, role string) (err error) {
	const query = `SELECT id FROM users WHERE username = $1`
	ctx, end := database.TraceQuery(ctx, "AddUserRole", query)
	defer func() { end(ignoreNotFound(err)) }()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin add role: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var userID int64
	if err = tx.QueryRow(ctx, query, username).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFoundf("user %q not found", username)
		}
		return fmt.Errorf("find user for role: %w", err)
	}
	if err = grantRole(ctx, tx, userID, RoleName(role)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit add role: %w", err)
	}
	return nil
}

func grantRole(ctx context.Context, tx pgx.Tx, userID int64, role string) error {
	if _, err := tx.Exec(ctx, `INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, role); err != nil {
		return fmt.Errorf("ensure role %s: %w", role, err)
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE name = $2
		ON CONFLICT DO NOTHING`, userID, role)
	if err != nil {
		return fmt.Errorf("grant role %s: %w", role, err)
	}
	return nil
}

// Delete removes the user with id. Role links cascade.
func (s *Store) Delete(ctx context.Context, id int64) (err error) {
	const query = `DELETE FROM users WHERE id = $1`
	ctx, end := database.TraceQuery(ctx, "DeleteUser", query)
	defer func() { end(ignoreNotFound(err)) }()

	ct, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}
	return nil
}

// DeleteByUsername removes the user with username.
func (s *Store) DeleteByUsername(ctx context.Context, username string) (err error) {
	const query = `DELETE FROM users WHERE username = $1`
	ctx, end := database.TraceQuery(ctx, "DeleteUserByUsername", query)
	defer func() { end(ignoreNotFound(err)) }()

	ct, err := s.db.Exec(ctx, query, username)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFoundf("user %q not found", username)
	}
	return nil
}

// List returns every user ordered by id.
func (s *Store) List(ctx context.Context) (records []Record, err error) {
	query := selectRecord + ` GROUP BY u.id ORDER BY u.id`
	ctx, end := database.TraceQuery(ctx, "ListUsers", query)
	defer func() { end(err) }()

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	records = []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return records, nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID,
		&rec.Username,
		&rec.Email,
		&rec.PasswordHash,
		&rec.PasswordSalt,
		&rec.RefreshTokenHash,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&rec.Roles,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &rec, nil
}

// ignoreNotFound keeps expected misses out of span error status.
func ignoreNotFound(err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	return err
}
