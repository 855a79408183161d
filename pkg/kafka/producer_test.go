package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newProducerWithWriter(w, []string{"localhost:9092"}, testLogger())

	event, err := NewEvent(context.Background(), "reservation.created", "12", "reservation", "reservation-service", reservationPayload{ReservationID: 12})
	require.NoError(t, err)
	event.CorrelationID = "corr-9"

	require.NoError(t, p.Publish(context.Background(), Topic("reservation", "created"), event))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "airline.reservation.created", msg.Topic)
	assert.Equal(t, "12", string(msg.Key))
	assert.Equal(t, "reservation.created", headerValue(msg, "event_type"))
	assert.Equal(t, "reservation-service", headerValue(msg, "source"))
	assert.Equal(t, "corr-9", headerValue(msg, "correlation_id"))

	decoded, err := UnmarshalEvent(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, decoded.EventID)
}

func TestProducer_PublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newProducerWithWriter(w, nil, testLogger())

	event, err := NewEvent(context.Background(), "user.registered", "1", "user", "user-service", nil)
	require.NoError(t, err)

	err = p.Publish(context.Background(), Topic("user", "registered"), event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "airline.user.registered")
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	p := newProducerWithWriter(w, nil, testLogger())
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	assert.Error(t, PingBrokers(context.Background(), nil))
}
