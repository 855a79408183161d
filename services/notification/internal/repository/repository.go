package repository

import (
	"context"

	"github.com/skybook/airline/services/notification/internal/domain"
)

// NotificationRepository defines the interface for notification persistence operations.
type NotificationRepository interface {
	// Create inserts n and fills in its ID and timestamps.
	Create(ctx context.Context, n *domain.Notification) error

	// GetByID retrieves a notification by its unique identifier.
	GetByID(ctx context.Context, id int64) (*domain.Notification, error)

	// Update writes the mutable delivery fields of n.
	Update(ctx context.Context, n *domain.Notification) error

	// ListByUser returns one page of a user's notifications, newest first,
	// and the total count. An empty status matches every status.
	ListByUser(ctx context.Context, userID int64, status string, offset, limit int) ([]domain.Notification, int, error)

	// ListRetryable returns failed notifications that still have attempts
	// left, oldest first.
	ListRetryable(ctx context.Context, limit int) ([]domain.Notification, error)
}
