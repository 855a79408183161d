package sender

import (
	"context"
	"log/slog"

	"github.com/skybook/airline/services/notification/internal/domain"
)

// Sender defines the interface for sending notifications through a specific channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, notification *domain.Notification) error
}

// LogSender delivers notifications by logging them. It always succeeds.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender for domain.ChannelLog.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Name returns the name of this sender.
func (s *LogSender) Name() string {
	return domain.ChannelLog
}

// Send writes the notification as a structured log line.
func (s *LogSender) Send(ctx context.Context, n *domain.Notification) error {
	s.logger.InfoContext(ctx, "notification delivered",
		slog.Int64("notification_id", n.ID),
		slog.Int64("user_id", n.UserID),
		slog.String("type", n.Type),
		slog.String("subject", n.Subject),
		slog.String("body", n.Body),
	)
	return nil
}
