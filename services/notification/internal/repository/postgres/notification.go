package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/skybook/airline/pkg/database"
	apperrors "github.com/skybook/airline/pkg/errors"
	"github.com/skybook/airline/services/notification/internal/domain"
)

// NotificationRepository implements repository.NotificationRepository using PostgreSQL.
type NotificationRepository struct {
	db database.DBTX
}

// NewNotificationRepository creates a new PostgreSQL-backed notification repository.
func NewNotificationRepository(db database.DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const selectNotifications = `
	SELECT id, user_id, type, channel, subject, body, status, event_id, metadata,
	       sent_at, read_at, retry_count, max_retries, created_at, updated_at
	FROM notifications`

// Create inserts a new notification into the database.
func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) (err error) {
	const query = `
		INSERT INTO notifications (user_id, type, channel, subject, body, status, event_id, metadata, retry_count, max_retries)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10)
		RETURNING id, created_at, updated_at`
	ctx, end := database.TraceQuery(ctx, "CreateNotification", query)
	defer func() { end(err) }()

	metadata, err := marshalMetadata(n.Metadata)
	if err != nil {
		return err
	}

	err = r.db.QueryRow(ctx, query,
		n.UserID,
		n.Type,
		n.Channel,
		n.Subject,
		n.Body,
		n.Status,
		n.EventID,
		metadata,
		n.RetryCount,
		n.MaxRetries,
	).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// GetByID retrieves a notification by its ID.
func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (n *domain.Notification, err error) {
	query := selectNotifications + ` WHERE id = $1`
	ctx, end := database.TraceQuery(ctx, "GetNotification", query)
	defer func() {
		if errors.Is(err, apperrors.ErrNotFound) {
			end(nil)
			return
		}
		end(err)
	}()

	n, err = scanNotification(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("notification", id)
	}
	return n, err
}

// Update writes the delivery state of n.
func (r *NotificationRepository) Update(ctx context.Context, n *domain.Notification) (err error) {
	const query = `
		UPDATE notifications
		SET status = $1, sent_at = $2, read_at = $3, retry_count = $4, updated_at = $5
		WHERE id = $6`
	ctx, end := database.TraceQuery(ctx, "UpdateNotification", query)
	defer func() { end(err) }()

	n.UpdatedAt = time.Now().UTC()
	ct, err := r.db.Exec(ctx, query, n.Status, n.SentAt, n.ReadAt, n.RetryCount, n.UpdatedAt, n.ID)
	if err != nil {
		return fmt.Errorf("update notification: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("notification", n.ID)
	}
	return nil
}

// ListByUser returns notifications for a specific user with pagination.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, status string, offset, limit int) (notifications []domain.Notification, total int, err error) {
	const query = `
		SELECT id, user_id, type, channel, subject, body, status, event_id, metadata,
		       sent_at, read_at, retry_count, max_retries, created_at, updated_at,
		       count(*) OVER() AS total_count
		FROM notifications
		WHERE user_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`
	ctx, end := database.TraceQuery(ctx, "ListNotificationsByUser", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, userID, status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications by user: %w", err)
	}
	defer rows.Close()

	notifications = []domain.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows, &total)
		if err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate notification rows: %w", err)
	}
	return notifications, total, nil
}

// ListRetryable returns failed notifications with attempts left, oldest first.
func (r *NotificationRepository) ListRetryable(ctx context.Context, limit int) (notifications []domain.Notification, err error) {
	query := selectNotifications + `
		WHERE status = $1 AND retry_count <= max_retries
		ORDER BY updated_at ASC
		LIMIT $2`
	ctx, end := database.TraceQuery(ctx, "ListRetryableNotifications", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, domain.StatusFailed, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	notifications = []domain.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification rows: %w", err)
	}
	return notifications, nil
}

// scanNotification reads one row. extra receives trailing columns such as a
// window count.
func scanNotification(row pgx.Row, extra ...any) (*domain.Notification, error) {
	var (
		n        domain.Notification
		eventID  *string
		metadata []byte
	)
	dest := []any{
		&n.ID,
		&n.UserID,
		&n.Type,
		&n.Channel,
		&n.Subject,
		&n.Body,
		&n.Status,
		&eventID,
		&metadata,
		&n.SentAt,
		&n.ReadAt,
		&n.RetryCount,
		&n.MaxRetries,
		&n.CreatedAt,
		&n.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan notification: %w", err)
	}

	if eventID != nil {
		n.EventID = *eventID
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &n, nil
}

func marshalMetadata(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return b, nil
}
