package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skybook/airline/services/notification/internal/domain"
)

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(slog.New(slog.NewJSONHandler(&buf, nil)))
	assert.Equal(t, domain.ChannelLog, s.Name())

	err := s.Send(context.Background(), &domain.Notification{
		ID:      5,
		UserID:  7,
		Type:    domain.TypeWelcome,
		Subject: "Welcome aboard",
		Body:    "hi",
	})
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "notification delivered", line["msg"])
	assert.Equal(t, float64(5), line["notification_id"])
	assert.Equal(t, float64(7), line["user_id"])
	assert.Equal(t, domain.TypeWelcome, line["type"])
}
