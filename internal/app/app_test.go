package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"calendar-service/internal/availability"
	"calendar-service/internal/model"
	"calendar-service/internal/store"
	"calendar-service/internal/store/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	app    *App
	router *gin.Engine
	store  store.Store
	alice  *model.User
	bob    *model.User
	cal    *model.Calendar
}

func day(h, m int) time.Time {
	return time.Date(2025, 1, 15, h, m, 0, 0, time.UTC)
}

// newTestEnv seeds alice (with one calendar) and bob. The token "alice-token"
// authenticates as alice, "bob-token" as bob, "newbie-token" as the
// unregistered user u-newbie and "anon-token" as an unbound caller.
func newTestEnv(t *testing.T, mutate ...func(*App)) *testEnv {
	t.Helper()
	ctx := context.Background()
	st := memory.New()

	alice, err := st.Users().Create(ctx, &model.User{Name: "Alice Smith", Email: "alice@example.com"})
	require.NoError(t, err)
	bob, err := st.Users().Create(ctx, &model.User{Name: "Bob Jones", Email: "bob@example.com"})
	require.NoError(t, err)
	cal, err := st.Calendars().Create(ctx, &model.Calendar{OwnerID: alice.ID, Name: "Work", IsDefault: true})
	require.NoError(t, err)

	cfg := availability.DefaultConfig()
	cfg.Location = time.UTC
	engine, err := availability.New(st, cfg, zerolog.Nop())
	require.NoError(t, err)

	a := &App{Engine: engine, Store: st, Log: zerolog.Nop()}
	for _, m := range mutate {
		m(a)
	}
	auth := NewAuthenticator("test-secret", []string{
		"alice-token:" + alice.ID, "bob-token:" + bob.ID, "newbie-token:u-newbie", "anon-token",
	})
	return &testEnv{
		app:    a,
		router: a.Router(RouterOptions{Auth: auth}),
		store:  st,
		alice:  alice,
		bob:    bob,
		cal:    cal,
	}
}

func (e *testEnv) addEvent(t *testing.T, start, end time.Time) {
	t.Helper()
	_, err := e.store.Events().Create(context.Background(), &model.Event{
		CalendarID: e.cal.ID, Title: "Busy", Start: start, End: end,
	})
	require.NoError(t, err)
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// failingStore fails every read, standing in for an unreachable database.
type failingStore struct{ store.Store }

type failingUsers struct{ store.Users }

func (failingStore) Users() store.Users { return failingUsers{} }
func (failingStore) Ping(context.Context) error {
	return errStoreDown
}
func (failingUsers) FindByEmails(context.Context, []string) ([]model.User, error) {
	return nil, errStoreDown
}
func (failingUsers) Search(context.Context, string, string, int) ([]model.User, error) {
	return nil, errStoreDown
}

var errStoreDown = errors.New("connection refused")

func withFailingStore(production bool) func(*App) {
	return func(a *App) {
		fs := failingStore{a.Store}
		engine, _ := availability.New(fs, a.Engine.Config(), zerolog.Nop())
		a.Engine = engine
		a.Store = fs
		a.Production = production
	}
}
