package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	pkgkafka "github.com/skybook/airline/pkg/kafka"
	"github.com/skybook/airline/services/reservation/internal/domain"
)

// Kafka topics for reservation domain events.
var (
	TopicReservationCreated   = pkgkafka.Topic("reservation", "created")
	TopicReservationCancelled = pkgkafka.Topic("reservation", "cancelled")
)

const (
	AggregateTypeReservation = "reservation"
	SourceReservationService = "reservation-service"
)

// ReservationData is the payload of reservation.created and
// reservation.cancelled.
type ReservationData struct {
	ReservationID   int64     `json:"reservation_id"`
	UserID          int64     `json:"user_id"`
	FlightID        int64     `json:"flight_id"`
	ReservationDate time.Time `json:"reservation_date"`
}

// Producer publishes reservation domain events to Kafka.
type Producer struct {
	publisher pkgkafka.Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer for the reservation service.
func NewProducer(publisher pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

// PublishReservationCreated publishes a reservation.created event.
func (p *Producer) PublishReservationCreated(ctx context.Context, r *domain.Reservation) error {
	return p.publish(ctx, TopicReservationCreated, "reservation.created", r)
}

// PublishReservationCancelled publishes a reservation.cancelled event.
func (p *Producer) PublishReservationCancelled(ctx context.Context, r *domain.Reservation) error {
	return p.publish(ctx, TopicReservationCancelled, "reservation.cancelled", r)
}

func (p *Producer) publish(ctx context.Context, topic, eventType string, r *domain.Reservation) error {
	data := ReservationData{
		ReservationID:   r.ID,
		UserID:          r.UserID,
		FlightID:        r.FlightID,
		ReservationDate: r.ReservationDate,
	}
	evt, err := pkgkafka.NewEvent(ctx, eventType, strconv.FormatInt(r.ID, 10), AggregateTypeReservation, SourceReservationService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "published reservation event",
		slog.String("event_type", eventType),
		slog.Int64("reservation_id", r.ID),
		slog.Int64("flight_id", r.FlightID),
	)
	return nil
}
