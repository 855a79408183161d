package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skybook/airline/pkg/auth"
	"github.com/skybook/airline/pkg/credential"
	apperrors "github.com/skybook/airline/pkg/errors"
	"github.com/skybook/airline/pkg/health"
	"github.com/skybook/airline/pkg/httputil"
	"github.com/skybook/airline/services/reservation/internal/config"
	"github.com/skybook/airline/services/reservation/internal/domain"
	"github.com/skybook/airline/services/reservation/internal/service"
)

// memRepo keeps reservations and per-flight seat counts in memory.
type memRepo struct {
	seats        map[int64]int
	reservations map[int64]domain.Reservation
	nextID       int64
}

func newMemRepo() *memRepo {
	return &memRepo{seats: map[int64]int{4: 1}, reservations: map[int64]domain.Reservation{}}
}

func (m *memRepo) ListByUser(_ context.Context, userID int64) ([]domain.Reservation, error) {
	out := []domain.Reservation{}
	for _, r := range m.reservations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) Reserve(_ context.Context, userID, flightID int64) (*domain.Reservation, error) {
	seats, ok := m.seats[flightID]
	if !ok {
		return nil, apperrors.NotFound("flight", flightID)
	}
	if seats == 0 {
		return nil, apperrors.Conflict("no seats left")
	}
	m.seats[flightID]--
	m.nextID++
	r := domain.Reservation{ID: m.nextID, UserID: userID, FlightID: flightID, ReservationDate: time.Now().UTC()}
	m.reservations[r.ID] = r
	return &r, nil
}

func (m *memRepo) Cancel(_ context.Context, id, userID int64) (*domain.Reservation, error) {
	r, ok := m.reservations[id]
	if !ok || r.UserID != userID {
		return nil, apperrors.NotFoundf("reservation %d not found for the current user", id)
	}
	delete(m.reservations, id)
	m.seats[r.FlightID]++
	return &r, nil
}

type countingEvents struct{ created, cancelled int }

func (c *countingEvents) PublishReservationCreated(context.Context, *domain.Reservation) error {
	c.created++
	return nil
}

func (c *countingEvents) PublishReservationCancelled(context.Context, *domain.Reservation) error {
	c.cancelled++
	return nil
}

type knownUsers struct{}

func (knownUsers) FindBySubjectID(_ context.Context, id int64) (*credential.Record, error) {
	if id > 100 {
		return nil, apperrors.NotFound("user", id)
	}
	return &credential.Record{ID: id, Roles: []string{credential.RoleUser}}, nil
}

type testEnv struct {
	repo   *memRepo
	events *countingEvents
	codec  *auth.Codec
	router http.Handler
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	codec, err := auth.NewCodec("handler-test-secret", 15*time.Minute, time.Hour)
	require.NoError(t, err)

	repo, events := newMemRepo(), &countingEvents{}
	svc := service.NewReservationService(repo, knownUsers{}, events, logger)
	filter := auth.NewFilter(codec, knownUsers{}, auth.Cookies{}, serviceName, logger)
	return &testEnv{
		repo:   repo,
		events: events,
		codec:  codec,
		router: NewRouter(&config.Config{}, svc, filter, health.NewHandler(), logger),
	}
}

// do sends a request as subject; zero means anonymous.
func (e *testEnv) do(t *testing.T, method, path string, subject int64) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if subject != 0 {
		token, err := e.codec.IssueAccessToken(subject, []string{credential.RoleUser})
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: auth.AccessCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestReservations_RequireAuthentication(t *testing.T) {
	env := setup(t)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/reservations", 0).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/reservations/4", 0).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodDelete, "/reservations/1", 0).Code)
}

func TestReservationLifecycle(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodPost, "/reservations/4", 7)
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(7), data["userId"])
	assert.Equal(t, float64(4), data["flightId"])
	assert.Equal(t, 0, env.repo.seats[4])

	// Last seat is gone.
	rec = env.do(t, http.MethodPost, "/reservations/4", 8)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodGet, "/reservations", 7)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = httputil.Response{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Data, 1)

	// Someone else's reservation looks missing.
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/reservations/1", 8).Code)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/reservations/1", 7).Code)
	assert.Equal(t, 1, env.repo.seats[4])
	assert.Equal(t, 1, env.events.created)
	assert.Equal(t, 1, env.events.cancelled)
}

func TestCreateReservation_NotFound(t *testing.T) {
	env := setup(t)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/reservations/99", 7).Code, "unknown flight")
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/reservations/4", 500).Code, "deleted user")
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/reservations/abc", 7).Code)
}
