package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/skybook/airline/pkg/errors"
	"github.com/skybook/airline/pkg/pagination"
	"github.com/skybook/airline/services/notification/internal/domain"
	"github.com/skybook/airline/services/notification/internal/sender"
)

type memRepo struct {
	mu        sync.Mutex
	rows      map[int64]domain.Notification
	nextID    int64
	createErr error
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[int64]domain.Notification{}}
}

func (r *memRepo) Create(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	n.ID = r.nextID
	n.CreatedAt = time.Now()
	r.rows[n.ID] = *n
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id int64) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.rows[id]
	if !ok {
		return nil, apperrors.NotFound("notification", id)
	}
	return &n, nil
}

func (r *memRepo) Update(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[n.ID]; !ok {
		return apperrors.NotFound("notification", n.ID)
	}
	r.rows[n.ID] = *n
	return nil
}

func (r *memRepo) ListByUser(_ context.Context, userID int64, status string, offset, limit int) ([]domain.Notification, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := []domain.Notification{}
	for id := r.nextID; id > 0; id-- {
		n, ok := r.rows[id]
		if ok && n.UserID == userID && (status == "" || n.Status == status) {
			all = append(all, n)
		}
	}
	total := len(all)
	if offset >= total {
		return []domain.Notification{}, total, nil
	}
	end := min(offset+limit, total)
	return all[offset:end], total, nil
}

func (r *memRepo) ListRetryable(_ context.Context, limit int) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Notification{}
	for id := int64(1); id <= r.nextID && len(out) < limit; id++ {
		if n, ok := r.rows[id]; ok && n.CanRetry() {
			out = append(out, n)
		}
	}
	return out, nil
}

type flakySender struct {
	fail  bool
	calls int
}

func (s *flakySender) Name() string { return domain.ChannelLog }

func (s *flakySender) Send(context.Context, *domain.Notification) error {
	s.calls++
	if s.fail {
		return errors.New("channel down")
	}
	return nil
}

var _ sender.Sender = (*flakySender)(nil)

func newFixture() (*NotificationService, *memRepo, *flakySender) {
	repo, snd := newMemRepo(), &flakySender{}
	svc := NewNotificationService(repo, map[string]sender.Sender{domain.ChannelLog: snd},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, repo, snd
}

func TestNotify_Delivered(t *testing.T) {
	svc, repo, snd := newFixture()

	n, err := svc.Notify(context.Background(), NotifyInput{
		UserID:  7,
		Type:    domain.TypeWelcome,
		Subject: "Welcome aboard",
		Body:    "Hello ada",
		EventID: "evt-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, snd.calls)
	assert.Equal(t, domain.StatusSent, n.Status)
	assert.NotNil(t, n.SentAt)
	assert.Equal(t, domain.ChannelLog, n.Channel)
	assert.Equal(t, domain.DefaultMaxRetries, n.MaxRetries)

	stored, err := repo.GetByID(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, stored.Status)
}

func TestNotify_SendFailureIsRecorded(t *testing.T) {
	svc, repo, snd := newFixture()
	snd.fail = true

	n, err := svc.Notify(context.Background(), NotifyInput{UserID: 7, Type: domain.TypeWelcome, Body: "hi"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, n.Status)
	assert.Equal(t, 1, n.RetryCount)

	stored, _ := repo.GetByID(context.Background(), n.ID)
	assert.Equal(t, domain.StatusFailed, stored.Status)
}

func TestNotify_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   NotifyInput
		repoErr error
		wantErr error
	}{
		{name: "missing user", input: NotifyInput{Body: "hi"}, wantErr: apperrors.ErrInvalidInput},
		{name: "missing body", input: NotifyInput{UserID: 7}, wantErr: apperrors.ErrInvalidInput},
		{name: "store failure", input: NotifyInput{UserID: 7, Body: "hi"}, repoErr: errors.New("db down")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, snd := newFixture()
			repo.createErr = tt.repoErr

			_, err := svc.Notify(context.Background(), tt.input)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Zero(t, snd.calls)
		})
	}
}

func TestListNotifications(t *testing.T) {
	svc, _, _ := newFixture()
	ctx := context.Background()
	for range 3 {
		_, err := svc.Notify(ctx, NotifyInput{UserID: 7, Type: domain.TypeWelcome, Body: "hi"})
		require.NoError(t, err)
	}
	_, err := svc.Notify(ctx, NotifyInput{UserID: 8, Type: domain.TypeWelcome, Body: "hi"})
	require.NoError(t, err)

	got, total, err := svc.ListNotifications(ctx, 7, "", pagination.Params{Page: 1, PerPage: 2, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].ID)

	got, total, err = svc.ListNotifications(ctx, 7, domain.StatusRead, pagination.Params{Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, got)

	_, _, err = svc.ListNotifications(ctx, 7, "bogus", pagination.Params{Page: 1, PerPage: 20})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestMarkAsRead(t *testing.T) {
	svc, _, _ := newFixture()
	ctx := context.Background()
	n, err := svc.Notify(ctx, NotifyInput{UserID: 7, Type: domain.TypeWelcome, Body: "hi"})
	require.NoError(t, err)

	_, err = svc.MarkAsRead(ctx, n.ID, 8)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	read, err := svc.MarkAsRead(ctx, n.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRead, read.Status)
	require.NotNil(t, read.ReadAt)
	first := *read.ReadAt

	again, err := svc.MarkAsRead(ctx, n.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, first, *again.ReadAt)

	_, err = svc.MarkAsRead(ctx, 99, 7)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRetryFailed(t *testing.T) {
	svc, repo, snd := newFixture()
	ctx := context.Background()
	snd.fail = true
	n, err := svc.Notify(ctx, NotifyInput{UserID: 7, Type: domain.TypeWelcome, Body: "hi"})
	require.NoError(t, err)

	sent, err := svc.RetryFailed(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, sent)
	stored, _ := repo.GetByID(ctx, n.ID)
	assert.Equal(t, 2, stored.RetryCount)

	snd.fail = false
	sent, err = svc.RetryFailed(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	stored, _ = repo.GetByID(ctx, n.ID)
	assert.Equal(t, domain.StatusSent, stored.Status)

	sent, err = svc.RetryFailed(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestRetryFailed_GivesUpAfterMaxRetries(t *testing.T) {
	svc, _, snd := newFixture()
	ctx := context.Background()
	snd.fail = true
	_, err := svc.Notify(ctx, NotifyInput{UserID: 7, Type: domain.TypeWelcome, Body: "hi"})
	require.NoError(t, err)

	for range domain.DefaultMaxRetries + 2 {
		_, err := svc.RetryFailed(ctx, 10)
		require.NoError(t, err)
	}
	// one initial attempt plus retries while RetryCount <= MaxRetries
	assert.Equal(t, domain.DefaultMaxRetries+1, snd.calls)
}
