package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cdr.dev/slog/sloggers/slogtest"
	firebase "firebase.google.com/go/auth"
	"github.com/coder/quartz"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"github.com/writewithwrabit/streaks/db"
	"github.com/writewithwrabit/streaks/models"
	"github.com/writewithwrabit/streaks/streak"
)

type tokens map[string]string

func (tk tokens) VerifyIDToken(_ context.Context, idToken string) (*firebase.Token, error) {
	uid, ok := tk[idToken]
	if !ok {
		return nil, xerrors.New("invalid token")
	}
	return &firebase.Token{UID: uid}, nil
}

// brokenWrites fails every update.
type brokenWrites struct {
	*db.Memory
}

func (brokenWrites) UpdateStreakByUserID(context.Context, string, models.StreakUpdate) (models.Streak, error) {
	return models.Streak{}, xerrors.New("connection reset")
}

func newServer(t *testing.T, store streak.Store, clock *quartz.Mock) *httptest.Server {
	t.Helper()

	reg := prometheus.NewRegistry()
	metrics, err := streak.NewMetrics(reg)
	require.NoError(t, err)

	logger := slogtest.Make(t, &slogtest.Options{IgnoreErrors: true})
	sessions := streak.NewSessions(streak.Options{
		Store:   store,
		Logger:  logger,
		Clock:   clock,
		Metrics: metrics,
	})

	srv := httptest.NewServer(New(Options{
		Sessions:       sessions,
		Verifier:       tokens{"alice-token": "alice", "bob-token": "bob"},
		Logger:         logger,
		AllowedOrigins: []string{"*"},
		Gatherer:       reg,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, token string, out interface{}) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	if out != nil && res.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res
}

func mockClock(t *testing.T) *quartz.Mock {
	clock := quartz.NewMock(t)
	clock.Set(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	return clock
}

func TestAnonymous(t *testing.T) {
	clock := mockClock(t)
	store := db.NewMemory(clock)
	srv := newServer(t, store, clock)

	var activity ActivityResponse
	res := do(t, srv, http.MethodPost, "/streak/activity", "", &activity)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Nil(t, activity.CurrentStreak)

	var state StreakResponse
	res = do(t, srv, http.MethodGet, "/streak", "", &state)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Nil(t, state.Record)
	assert.Equal(t, streak.StatusReady, state.Status)
}

func TestRecordActivity(t *testing.T) {
	clock := mockClock(t)
	store := db.NewMemory(clock)
	srv := newServer(t, store, clock)

	var state StreakResponse
	do(t, srv, http.MethodGet, "/streak", "alice-token", &state)
	require.NotNil(t, state.Record)
	assert.Equal(t, "alice", state.Record.UserID)
	assert.Zero(t, state.Record.CurrentStreak)

	for _, want := range []int{1, 1} {
		var activity ActivityResponse
		do(t, srv, http.MethodPost, "/streak/activity", "alice-token", &activity)
		require.NotNil(t, activity.CurrentStreak)
		assert.Equal(t, want, *activity.CurrentStreak)
	}

	clock.Advance(24 * time.Hour)
	var activity ActivityResponse
	do(t, srv, http.MethodPost, "/streak/activity", "alice-token", &activity)
	require.NotNil(t, activity.CurrentStreak)
	assert.Equal(t, 2, *activity.CurrentStreak)

	do(t, srv, http.MethodGet, "/streak", "alice-token", &state)
	assert.Equal(t, streak.StatusReady, state.Status)
	assert.Equal(t, 2, state.Record.CurrentStreak)
	assert.Equal(t, 2, state.Record.MaxStreak)

	// Other users are untouched.
	do(t, srv, http.MethodGet, "/streak", "bob-token", &state)
	assert.Equal(t, "bob", state.Record.UserID)
	assert.Zero(t, state.Record.CurrentStreak)
}

func TestRecordActivityWriteFailure(t *testing.T) {
	clock := mockClock(t)
	srv := newServer(t, brokenWrites{db.NewMemory(clock)}, clock)

	var activity ActivityResponse
	res := do(t, srv, http.MethodPost, "/streak/activity", "alice-token", &activity)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Nil(t, activity.CurrentStreak)

	var state StreakResponse
	do(t, srv, http.MethodGet, "/streak", "alice-token", &state)
	require.NotNil(t, state.Record)
	assert.Zero(t, state.Record.CurrentStreak)
	assert.Nil(t, state.Record.LastActivityDate)
}

func TestInvalidToken(t *testing.T) {
	clock := mockClock(t)
	srv := newServer(t, db.NewMemory(clock), clock)

	res := do(t, srv, http.MethodPost, "/streak/activity", "forged", nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	clock := mockClock(t)
	srv := newServer(t, db.NewMemory(clock), clock)

	res := do(t, srv, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	do(t, srv, http.MethodPost, "/streak/activity", "", &ActivityResponse{})

	res, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `streaks_activity_recorded_total{result="anonymous"} 1`), string(body))
}
