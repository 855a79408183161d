package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	pkgkafka "github.com/skybook/airline/pkg/kafka"
	"github.com/skybook/airline/services/notification/internal/domain"
	"github.com/skybook/airline/services/notification/internal/service"
)

// Topics consumed from other services.
var (
	TopicUserRegistered       = pkgkafka.Topic("user", "registered")
	TopicReservationCreated   = pkgkafka.Topic("reservation", "created")
	TopicReservationCancelled = pkgkafka.Topic("reservation", "cancelled")
)

// Event types carried on those topics.
const (
	EventUserRegistered       = "user.registered"
	EventReservationCreated   = "reservation.created"
	EventReservationCancelled = "reservation.cancelled"
)

// ConsumerGroupID is the consumer group of the notification service.
const ConsumerGroupID = "notification-service"

// Notifier creates and delivers a notification.
type Notifier interface {
	Notify(ctx context.Context, input service.NotifyInput) (*domain.Notification, error)
}

type userRegisteredData struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type reservationData struct {
	ReservationID   int64     `json:"reservation_id"`
	UserID          int64     `json:"user_id"`
	FlightID        int64     `json:"flight_id"`
	ReservationDate time.Time `json:"reservation_date"`
}

// ConsumerHandler routes incoming Kafka events to the appropriate handler.
type ConsumerHandler struct {
	notifier Notifier
	logger   *slog.Logger
}

// NewConsumerHandler creates a new event consumer handler.
func NewConsumerHandler(notifier Notifier, logger *slog.Logger) *ConsumerHandler {
	return &ConsumerHandler{notifier: notifier, logger: logger}
}

// Handle processes an incoming Kafka event based on its event type. Unknown
// types are logged and acknowledged.
func (h *ConsumerHandler) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case EventUserRegistered:
		return h.handleUserRegistered(ctx, event)
	case EventReservationCreated:
		return h.handleReservation(ctx, event, domain.TypeReservationCreated, "Reservation confirmed", "confirmed")
	case EventReservationCancelled:
		return h.handleReservation(ctx, event, domain.TypeReservationCancelled, "Reservation cancelled", "cancelled")
	default:
		h.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (h *ConsumerHandler) handleUserRegistered(ctx context.Context, event *pkgkafka.Event) error {
	var data userRegisteredData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.EventType, err)
	}

	_, err := h.notifier.Notify(ctx, service.NotifyInput{
		UserID:  data.UserID,
		Type:    domain.TypeWelcome,
		Subject: "Welcome aboard",
		Body:    fmt.Sprintf("Hello %s, your account is ready. Happy flying!", data.Username),
		EventID: event.EventID,
		Metadata: map[string]any{
			"username": data.Username,
		},
	})
	if err != nil {
		return fmt.Errorf("notify user %d: %w", data.UserID, err)
	}
	return nil
}

func (h *ConsumerHandler) handleReservation(ctx context.Context, event *pkgkafka.Event, typ, subject, verb string) error {
	var data reservationData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.EventType, err)
	}

	_, err := h.notifier.Notify(ctx, service.NotifyInput{
		UserID:  data.UserID,
		Type:    typ,
		Subject: subject,
		Body:    fmt.Sprintf("Your reservation #%d on flight #%d has been %s.", data.ReservationID, data.FlightID, verb),
		EventID: event.EventID,
		Metadata: map[string]any{
			"reservation_id": data.ReservationID,
			"flight_id":      data.FlightID,
		},
	})
	if err != nil {
		return fmt.Errorf("notify user %d: %w", data.UserID, err)
	}
	return nil
}

// Idempotency store backends.
const (
	IdempotencyRedis  = "redis"
	IdempotencyMemory = "memory"
)

// NewIdempotencyStore returns the event deduplication store for backend.
// client is used only by the redis backend.
func NewIdempotencyStore(backend string, client redis.Cmdable, ttl time.Duration) (pkgkafka.IdempotencyStore, error) {
	switch backend {
	case IdempotencyRedis:
		if client == nil {
			return nil, fmt.Errorf("redis idempotency store needs a client")
		}
		return pkgkafka.NewRedisIdempotencyStore(client, ConsumerGroupID, ttl), nil
	case IdempotencyMemory:
		return pkgkafka.NewMemoryIdempotencyStore(ttl), nil
	default:
		return nil, fmt.Errorf("unknown idempotency backend %q", backend)
	}
}

// NewConsumers creates Kafka consumers for all topics the notification
// service subscribes to. dlq may be nil.
func NewConsumers(brokers []string, handler pkgkafka.Handler, dlq *pkgkafka.DLQProducer, logger *slog.Logger) []*pkgkafka.Consumer {
	topics := []string{
		TopicUserRegistered,
		TopicReservationCreated,
		TopicReservationCancelled,
	}

	var opts []pkgkafka.ConsumerOption
	if dlq != nil {
		opts = append(opts, pkgkafka.WithDLQ(dlq))
	}

	consumers := make([]*pkgkafka.Consumer, 0, len(topics))
	for _, topic := range topics {
		cfg := pkgkafka.ConsumerConfig{
			Brokers:  brokers,
			GroupID:  ConsumerGroupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}
		consumers = append(consumers, pkgkafka.NewConsumer(cfg, handler, logger, opts...))
	}
	return consumers
}
