package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	pkgkafka "github.com/skybook/airline/pkg/kafka"
	"github.com/skybook/airline/services/user/internal/domain"
)

// TopicUserRegistered carries user.registered events.
var TopicUserRegistered = pkgkafka.Topic("user", "registered")

const (
	AggregateTypeUser = "user"
	SourceUserService = "user-service"
)

// UserRegisteredData is the payload of user.registered.
type UserRegisteredData struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Producer publishes user domain events to Kafka.
type Producer struct {
	publisher pkgkafka.Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer for the user service.
func NewProducer(publisher pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, u *domain.User) error {
	data := UserRegisteredData{UserID: u.ID, Username: u.Username, Email: u.Email}
	evt, err := pkgkafka.NewEvent(ctx, "user.registered", strconv.FormatInt(u.ID, 10), AggregateTypeUser, SourceUserService, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}
	if err := p.publisher.Publish(ctx, TopicUserRegistered, evt); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user event",
		slog.String("event_type", "user.registered"),
		slog.Int64("user_id", u.ID),
	)
	return nil
}
