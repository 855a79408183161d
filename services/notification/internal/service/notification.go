package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/skybook/airline/pkg/errors"
	"github.com/skybook/airline/pkg/pagination"
	"github.com/skybook/airline/services/notification/internal/domain"
	"github.com/skybook/airline/services/notification/internal/repository"
	"github.com/skybook/airline/services/notification/internal/sender"
)

// NotificationService implements the business logic for notification operations.
type NotificationService struct {
	repo    repository.NotificationRepository
	senders map[string]sender.Sender
	logger  *slog.Logger
	now     func() time.Time
}

// NewNotificationService creates a new notification service. senders is
// keyed by channel.
func NewNotificationService(
	repo repository.NotificationRepository,
	senders map[string]sender.Sender,
	logger *slog.Logger,
) *NotificationService {
	return &NotificationService{
		repo:    repo,
		senders: senders,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// NotifyInput holds the parameters for notifying a user.
type NotifyInput struct {
	UserID   int64
	Type     string
	Subject  string
	Body     string
	EventID  string
	Metadata map[string]any
}

// Notify stores a notification and delivers it on the log channel. A
// delivery failure is recorded on the row and retried later; only a failure
// to store the notification is returned.
func (s *NotificationService) Notify(ctx context.Context, input NotifyInput) (*domain.Notification, error) {
	if input.UserID <= 0 {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if input.Body == "" {
		return nil, apperrors.InvalidInput("body is required")
	}

	n := &domain.Notification{
		UserID:     input.UserID,
		Type:       input.Type,
		Channel:    domain.ChannelLog,
		Subject:    input.Subject,
		Body:       input.Body,
		Status:     domain.StatusPending,
		EventID:    input.EventID,
		Metadata:   input.Metadata,
		MaxRetries: domain.DefaultMaxRetries,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	s.send(ctx, n)
	return n, nil
}

// ListNotifications returns one page of userID's notifications. An empty
// status matches every status.
func (s *NotificationService) ListNotifications(ctx context.Context, userID int64, status string, params pagination.Params) ([]domain.Notification, int, error) {
	if status != "" && !domain.IsValidStatus(status) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid status %q", status))
	}
	notifications, total, err := s.repo.ListByUser(ctx, userID, status, params.Offset, params.Limit())
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications by user: %w", err)
	}
	return notifications, total, nil
}

// MarkAsRead marks notification id as read. A notification owned by someone
// else is reported as not found.
func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID int64) (*domain.Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, apperrors.NotFound("notification", id)
	}

	n.MarkRead(s.now())
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, fmt.Errorf("update notification: %w", err)
	}

	s.logger.InfoContext(ctx, "notification marked as read",
		slog.Int64("notification_id", n.ID),
	)
	return n, nil
}

// RetryFailed redelivers up to limit failed notifications and returns how
// many were sent.
func (s *NotificationService) RetryFailed(ctx context.Context, limit int) (int, error) {
	notifications, err := s.repo.ListRetryable(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list retryable notifications: %w", err)
	}

	sent := 0
	for i := range notifications {
		if ctx.Err() != nil {
			break
		}
		n := &notifications[i]
		if s.send(ctx, n) {
			sent++
		}
	}
	if len(notifications) > 0 {
		s.logger.InfoContext(ctx, "retried failed notifications",
			slog.Int("attempted", len(notifications)),
			slog.Int("sent", sent),
		)
	}
	return sent, nil
}

// RunRetryLoop calls RetryFailed every interval until ctx is canceled.
func (s *NotificationService) RunRetryLoop(ctx context.Context, interval time.Duration, batch int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RetryFailed(ctx, batch); err != nil && ctx.Err() == nil {
				s.logger.ErrorContext(ctx, "notification retry failed", slog.String("error", err.Error()))
			}
		}
	}
}

// send delivers n through the sender for its channel and records the
// outcome. It reports whether delivery succeeded.
func (s *NotificationService) send(ctx context.Context, n *domain.Notification) bool {
	delivered := false
	if snd, ok := s.senders[n.Channel]; !ok {
		s.logger.ErrorContext(ctx, "no sender registered for channel",
			slog.String("channel", n.Channel),
			slog.Int64("notification_id", n.ID),
		)
		n.MarkFailed()
	} else if err := snd.Send(ctx, n); err != nil {
		s.logger.ErrorContext(ctx, "sender failed to send notification",
			slog.Int64("notification_id", n.ID),
			slog.String("channel", n.Channel),
			slog.String("error", err.Error()),
		)
		n.MarkFailed()
	} else {
		n.MarkSent(s.now())
		delivered = true
	}

	if err := s.repo.Update(ctx, n); err != nil {
		s.logger.ErrorContext(ctx, "failed to update notification status",
			slog.Int64("notification_id", n.ID),
			slog.String("status", n.Status),
			slog.String("error", err.Error()),
		)
	}
	if delivered {
		s.logger.InfoContext(ctx, "notification sent",
			slog.Int64("notification_id", n.ID),
			slog.Int64("user_id", n.UserID),
			slog.String("type", n.Type),
		)
	}
	return delivered
}
