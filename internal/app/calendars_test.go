package app

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calendar-service/internal/availability"
	"calendar-service/internal/model"
)

func TestCreateCalendarHandler(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/calendars", "alice-token", map[string]any{"name": " Personal "})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	cal := decode[model.Calendar](t, w)
	assert.NotEmpty(t, cal.ID)
	assert.Equal(t, env.alice.ID, cal.OwnerID)
	assert.Equal(t, "Personal", cal.Name)
	assert.Equal(t, "#3b82f6", cal.Color)

	w = env.do(t, http.MethodGet, "/api/calendars", "alice-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cals := decode[[]model.Calendar](t, w)
	require.Len(t, cals, 2)
	assert.Equal(t, env.cal.ID, cals[0].ID, "default calendar first")
	assert.Equal(t, cal.ID, cals[1].ID)

	w = env.do(t, http.MethodGet, "/api/calendars", "bob-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]model.Calendar](t, w))
}

func TestCreateCalendarHandler_Errors(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/calendars", "alice-token", map[string]any{"color": "#fff"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please add a name", decode[map[string]string](t, w)["message"])

	w = env.do(t, http.MethodPost, "/api/calendars", "anon-token", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The caller has no directory entry yet.
	w = env.do(t, http.MethodPost, "/api/calendars", "newbie-token", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/calendars", "", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterUserHandler(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/users", "newbie-token", map[string]any{"name": "Newbie", "email": "New@Example.com"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	u := decode[model.User](t, w)
	assert.Equal(t, "u-newbie", u.ID)
	assert.Equal(t, "new@example.com", u.Email)

	w = env.do(t, http.MethodPost, "/api/calendars", "newbie-token", map[string]any{"name": "Mine"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/users", "newbie-token", map[string]any{"name": "Again", "email": "again@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/api/users", "bob-token", map[string]any{"name": "Bob"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/users", "anon-token", map[string]any{"name": "A", "email": "a@example.com"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateEventHandler_BlocksAvailability(t *testing.T) {
	env := newTestEnv(t)
	path := "/api/calendars/" + env.cal.ID + "/events"

	w := env.do(t, http.MethodPost, path, "alice-token", map[string]any{
		"title": "Planning", "start": "2025-01-15T10:00:00Z", "end": "2025-01-15T11:00:00Z",
		"location": "Room 4", "recurrence": "weekly",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ev := decode[model.Event](t, w)
	assert.Equal(t, env.cal.ID, ev.CalendarID)
	assert.Equal(t, env.alice.ID, ev.CreatedBy)
	assert.Equal(t, "weekly", ev.Recurrence)
	assert.True(t, ev.Start.Equal(day(10, 0)))

	w = env.do(t, http.MethodPost, "/api/availability/check", "alice-token", map[string]any{
		"emails": []string{"alice@example.com"}, "startTime": "2025-01-15T10:30:00Z", "endTime": "2025-01-15T10:45:00Z",
	})
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[[]availability.AvailabilityResult](t, w)
	assert.Equal(t, availability.StatusBlocked, got[0].Status)

	w = env.do(t, http.MethodGet, path+"?from=2025-01-15&to=2025-01-16", "alice-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode[[]model.Event](t, w)
	require.Len(t, listed, 1)
	assert.Equal(t, ev.ID, listed[0].ID)
}

func TestCreateEventHandler_Errors(t *testing.T) {
	env := newTestEnv(t)
	path := "/api/calendars/" + env.cal.ID + "/events"
	valid := map[string]any{"title": "x", "start": "2025-01-15T10:00:00Z", "end": "2025-01-15T11:00:00Z"}

	cases := []struct {
		name   string
		path   string
		token  string
		body   map[string]any
		status int
		msg    string
	}{
		{"other owner", path, "bob-token", valid, http.StatusForbidden, ""},
		{"unbound token", path, "anon-token", valid, http.StatusForbidden, ""},
		{"unknown calendar", "/api/calendars/nope/events", "alice-token", valid, http.StatusNotFound, ""},
		{"missing times", path, "alice-token", map[string]any{"title": "x", "start": "2025-01-15T10:00:00Z"},
			http.StatusBadRequest, "Start and End dates are required"},
		{"missing title", path, "alice-token", map[string]any{"start": "2025-01-15T10:00:00Z", "end": "2025-01-15T11:00:00Z"},
			http.StatusBadRequest, "Please add a title"},
		{"bad date", path, "alice-token", map[string]any{"title": "x", "start": "tomorrow", "end": "2025-01-15T11:00:00Z"},
			http.StatusBadRequest, "Invalid date format"},
		{"ends before start", path, "alice-token", map[string]any{"title": "x", "start": "2025-01-15T11:00:00Z", "end": "2025-01-15T10:00:00Z"},
			http.StatusBadRequest, "event ends before it starts"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tc.path, tc.token, tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			if tc.msg != "" {
				assert.Equal(t, tc.msg, decode[map[string]string](t, w)["message"])
			}
		})
	}

	events, err := env.store.Events().FindOverlapping(context.Background(), []string{env.cal.ID}, day(0, 0), day(23, 0))
	require.NoError(t, err)
	assert.Empty(t, events, "rejected requests must not store events")
}

func TestListEventsHandler_Errors(t *testing.T) {
	env := newTestEnv(t)
	path := "/api/calendars/" + env.cal.ID + "/events"

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, path+"?from=2025-01-15&to=2025-01-16", "bob-token", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, path, "alice-token", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, path+"?from=2025-01-16&to=2025-01-15", "alice-token", nil).Code)
}
