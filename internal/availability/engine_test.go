package availability

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calendar-service/internal/model"
	"calendar-service/internal/store"
	"calendar-service/internal/store/memory"
)

var testDay = time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return testDay.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

type fixture struct {
	st     store.Store
	engine *Engine
	users  map[string]*model.User
	cals   map[string]*model.Calendar
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	cfg := DefaultConfig()
	cfg.Location = time.UTC
	e, err := New(st, cfg, zerolog.Nop())
	require.NoError(t, err)
	return &fixture{st: st, engine: e, users: map[string]*model.User{}, cals: map[string]*model.Calendar{}}
}

func (f *fixture) user(t *testing.T, name, email string) *model.User {
	t.Helper()
	ctx := context.Background()
	u, err := f.st.Users().Create(ctx, &model.User{Name: name, Email: email})
	require.NoError(t, err)
	c, err := f.st.Calendars().Create(ctx, &model.Calendar{OwnerID: u.ID, Name: name + " work", IsDefault: true})
	require.NoError(t, err)
	f.users[email] = u
	f.cals[email] = c
	return u
}

func (f *fixture) event(t *testing.T, email string, start, end time.Time) {
	t.Helper()
	_, err := f.st.Events().Create(context.Background(), &model.Event{
		CalendarID: f.cals[email].ID,
		Title:      "busy",
		Start:      start,
		End:        end,
	})
	require.NoError(t, err)
}

func TestCheckAvailability_FreeWithoutEvents(t *testing.T) {
	f := newFixture(t)
	f.user(t, "A", "a@x.com")

	got, err := f.engine.CheckAvailability(context.Background(), []string{"a@x.com"}, at(9, 0), at(10, 0))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Exists)
	assert.Equal(t, StatusFree, got[0].Status)
	require.NotNil(t, got[0].ConflictCount)
	assert.Equal(t, 0, *got[0].ConflictCount)
}

func TestCheckAvailability_BlockedByOverlappingEvent(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "A", "a@x.com")
	f.event(t, "a@x.com", at(11, 0), at(15, 0))

	got, err := f.engine.CheckAvailability(context.Background(), []string{"a@x.com"}, at(11, 30), at(12, 0))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, StatusBlocked, got[0].Status)
	assert.Equal(t, 1, *got[0].ConflictCount)
	assert.Equal(t, u.ID, got[0].UserID)
	assert.Equal(t, "A", got[0].Name)
}

func TestCheckAvailability_OverlapCases(t *testing.T) {
	cases := []struct {
		name       string
		start, end time.Time
		blocked    bool
	}{
		{"starts within", at(10, 30), at(13, 0), true},
		{"ends within", at(9, 0), at(10, 30), true},
		{"spans query", at(9, 0), at(13, 0), true},
		{"exactly equal", at(10, 0), at(11, 0), true},
		{"inside query", at(10, 15), at(10, 45), true},
		{"ends at query start", at(9, 0), at(10, 0), false},
		{"starts at query end", at(11, 0), at(12, 0), false},
		{"before", at(8, 0), at(9, 0), false},
		{"after", at(12, 0), at(13, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.user(t, "A", "a@x.com")
			f.event(t, "a@x.com", tc.start, tc.end)

			got, err := f.engine.CheckAvailability(context.Background(), []string{"a@x.com"}, at(10, 0), at(11, 0))
			require.NoError(t, err)
			want := StatusFree
			if tc.blocked {
				want = StatusBlocked
			}
			assert.Equal(t, want, got[0].Status)
		})
	}
}

func TestCheckAvailability_UnknownUserDoesNotFailBatch(t *testing.T) {
	f := newFixture(t)
	f.user(t, "A", "a@x.com")
	f.user(t, "B", "b@x.com")
	f.event(t, "b@x.com", at(9, 0), at(18, 0))

	emails := []string{"B@X.com", "ghost@nowhere.com", "a@x.com"}
	got, err := f.engine.CheckAvailability(context.Background(), emails, at(11, 30), at(12, 0))
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "B@X.com", got[0].Email)
	assert.Equal(t, StatusBlocked, got[0].Status)

	assert.Equal(t, AvailabilityResult{
		Email:   "ghost@nowhere.com",
		Exists:  false,
		Status:  StatusUnknown,
		Message: "User not found in system",
	}, got[1])

	assert.Equal(t, "a@x.com", got[2].Email)
	assert.Equal(t, StatusFree, got[2].Status)
}

func TestCheckAvailability_CountsAcrossCalendars(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "A", "a@x.com")
	ctx := context.Background()
	home, err := f.st.Calendars().Create(ctx, &model.Calendar{OwnerID: u.ID, Name: "home"})
	require.NoError(t, err)
	f.event(t, "a@x.com", at(10, 0), at(11, 0))
	_, err = f.st.Events().Create(ctx, &model.Event{CalendarID: home.ID, Title: "dentist", Start: at(10, 30), End: at(12, 0)})
	require.NoError(t, err)

	got, err := f.engine.CheckAvailability(ctx, []string{"a@x.com"}, at(10, 0), at(12, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, *got[0].ConflictCount)
}

func TestCheckAvailability_InvalidArguments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.CheckAvailability(ctx, nil, at(9, 0), at(10, 0))
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))

	_, err = f.engine.CheckAvailability(ctx, []string{"a@x.com"}, time.Time{}, at(10, 0))
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))

	_, err = f.engine.CheckAvailability(ctx, []string{"a@x.com"}, at(9, 0), time.Time{})
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))

	_, err = f.engine.CheckAvailability(ctx, []string{"a@x.com"}, at(10, 0), at(9, 0))
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))
}

func slotStarts(r *SlotSearchResult) []string {
	out := make([]string, 0, len(r.FreeSlots))
	for _, s := range r.FreeSlots {
		out = append(out, s.Start.Format("15:04"))
	}
	return out
}

func TestFindFreeSlots_ExcludesBusyInterval(t *testing.T) {
	f := newFixture(t)
	f.user(t, "A", "a@x.com")
	f.event(t, "a@x.com", at(11, 0), at(15, 0))

	got, err := f.engine.FindFreeSlots(context.Background(), []string{"a@x.com"}, testDay, 30)
	require.NoError(t, err)

	starts := slotStarts(got)
	assert.Contains(t, starts, "10:30")
	assert.Contains(t, starts, "15:00")
	for _, s := range got.FreeSlots {
		assert.False(t, s.Start.Before(at(15, 0)) && s.End.After(at(11, 0)), "slot %s overlaps busy time", s.Start)
	}
	// 08:00-11:00 gives 6 slots, 15:00-20:00 gives 10.
	assert.Equal(t, 16, got.TotalSlots)
	assert.Len(t, got.FreeSlots, got.TotalSlots)
	assert.Equal(t, "2025-12-16", got.Date)
	assert.Equal(t, 30, got.Duration)
	require.Len(t, got.Users, 1)
	assert.Equal(t, "a@x.com", got.Users[0].Email)
}

func TestFindFreeSlots_StaysInsideWindow(t *testing.T) {
	f := newFixture(t)
	f.user(t, "A", "a@x.com")

	got, err := f.engine.FindFreeSlots(context.Background(), []string{"a@x.com"}, testDay, 90)
	require.NoError(t, err)
	require.NotEmpty(t, got.FreeSlots)
	for _, s := range got.FreeSlots {
		assert.False(t, s.Start.Before(at(8, 0)), "slot starts before window: %s", s.Start)
		assert.False(t, s.End.After(at(20, 0)), "slot ends after window: %s", s.End)
		assert.Equal(t, 90*time.Minute, s.End.Sub(s.Start))
	}
	assert.Equal(t, "18:30", got.FreeSlots[len(got.FreeSlots)-1].Start.Format("15:04"))
}

func TestFindFreeSlots_IntersectsAllUsers(t *testing.T) {
	f := newFixture(t)
	f.user(t, "A", "a@x.com")
	f.user(t, "B", "b@x.com")
	f.event(t, "a@x.com", at(8, 0), at(12, 0))
	f.event(t, "b@x.com", at(12, 30), at(19, 0))
	// Clamped to the window on both sides.
	f.event(t, "b@x.com", at(-2, 0), at(8, 30))
	f.event(t, "a@x.com", at(19, 30), at(23, 0))

	got, err := f.engine.FindFreeSlots(context.Background(), []string{"a@x.com", "b@x.com"}, testDay, 30)
	require.NoError(t, err)
	assert.Equal(t, []string{"12:00", "19:00"}, slotStarts(got))
	assert.Equal(t, "12:00 PM", got.FreeSlots[0].StartFormatted)
	assert.Equal(t, "12:30 PM", got.FreeSlots[0].EndFormatted)
	assert.Equal(t, "07:00 PM", got.FreeSlots[1].StartFormatted)
}

func TestFindFreeSlots_UnknownUsersAreSkipped(t *testing.T) {
	// Slot search drops unknown emails silently while CheckAvailability
	// reports them as "unknown". This asymmetry is kept on purpose.
	f := newFixture(t)
	f.user(t, "A", "a@x.com")

	got, err := f.engine.FindFreeSlots(context.Background(), []string{"ghost@nowhere.com", "a@x.com"}, testDay, 60)
	require.NoError(t, err)
	require.Len(t, got.Users, 1)
	assert.Equal(t, "a@x.com", got.Users[0].Email)
	assert.Equal(t, 23, got.TotalSlots)

	none, err := f.engine.FindFreeSlots(context.Background(), []string{"ghost@nowhere.com"}, testDay, 60)
	require.NoError(t, err)
	assert.Empty(t, none.Users)
	assert.Equal(t, 23, none.TotalSlots)
}

func TestFindFreeSlots_DefaultsAndValidation(t *testing.T) {
	f := newFixture(t)
	f.user(t, "A", "a@x.com")
	ctx := context.Background()

	got, err := f.engine.FindFreeSlots(ctx, []string{"a@x.com"}, testDay, 0)
	require.NoError(t, err)
	assert.Equal(t, 30, got.Duration)
	assert.Equal(t, 24, got.TotalSlots)

	_, err = f.engine.FindFreeSlots(ctx, nil, testDay, 30)
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))

	_, err = f.engine.FindFreeSlots(ctx, []string{"a@x.com"}, time.Time{}, 30)
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))

	_, err = f.engine.FindFreeSlots(ctx, []string{"a@x.com"}, testDay, -15)
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))
}

func TestFindFreeSlots_LongerThanWindow(t *testing.T) {
	f := newFixture(t)
	f.user(t, "A", "a@x.com")

	got, err := f.engine.FindFreeSlots(context.Background(), []string{"a@x.com"}, testDay, 13*60)
	require.NoError(t, err)
	assert.Empty(t, got.FreeSlots)
	assert.NotNil(t, got.FreeSlots)
	assert.Equal(t, 0, got.TotalSlots)
}

func TestFindFreeSlots_Deterministic(t *testing.T) {
	f := newFixture(t)
	f.user(t, "A", "a@x.com")
	f.user(t, "B", "b@x.com")
	f.event(t, "a@x.com", at(9, 15), at(10, 5))
	f.event(t, "b@x.com", at(13, 0), at(14, 0))
	f.event(t, "b@x.com", at(13, 30), at(16, 45))

	ctx := context.Background()
	first, err := f.engine.FindFreeSlots(ctx, []string{"a@x.com", "b@x.com"}, testDay, 45)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := f.engine.FindFreeSlots(ctx, []string{"a@x.com", "b@x.com"}, testDay, 45)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestFindFreeSlots_CustomWindow(t *testing.T) {
	st := memory.New()
	cfg := DefaultConfig()
	cfg.Location = time.UTC
	cfg.DayStartHour, cfg.DayEndHour, cfg.GridMinutes = 9, 12, 60
	e, err := New(st, cfg, zerolog.Nop())
	require.NoError(t, err)

	_, err = st.Users().Create(context.Background(), &model.User{Name: "A", Email: "a@x.com"})
	require.NoError(t, err)

	got, err := e.FindFreeSlots(context.Background(), []string{"a@x.com"}, testDay, 60)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00", "11:00"}, slotStarts(got))
}

func TestWindow_UsesConfiguredLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	cfg := DefaultConfig()
	cfg.Location = loc

	start, end := cfg.Window(time.Date(2025, 12, 16, 3, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 12, 15, 8, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2025, 12, 15, 20, 0, 0, 0, loc), end)
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := []func(c *Config){
		func(c *Config) { c.DayStartHour = 20; c.DayEndHour = 8 },
		func(c *Config) { c.DayEndHour = 25 },
		func(c *Config) { c.DayStartHour = -1 },
		func(c *Config) { c.GridMinutes = 0 },
		func(c *Config) { c.SearchLimit = 0 },
		func(c *Config) { c.StoreTimeout = -time.Second },
	}
	for i, mutate := range bad {
		c := DefaultConfig()
		mutate(&c)
		assert.Error(t, c.Validate(), "case %d", i)
	}
}

func TestFindFreeSlots_UsersEchoEachInput(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "A", "a@x.com")

	got, err := f.engine.FindFreeSlots(context.Background(), []string{"A@X.com", "ghost@x.com", "a@x.com"}, testDay, 0)
	require.NoError(t, err)
	require.Len(t, got.Users, 2)
	assert.Equal(t, "A@X.com", got.Users[0].Email)
	assert.Equal(t, "a@x.com", got.Users[1].Email)
	assert.Equal(t, a.ID, got.Users[0].UserID)
	assert.Equal(t, a.ID, got.Users[1].UserID)
	assert.Equal(t, DefaultDurationMinutes, got.Duration)
}

func TestFindFreeSlots_HugeDurationYieldsNoSlots(t *testing.T) {
	f := newFixture(t)
	f.user(t, "A", "a@x.com")

	for _, minutes := range []int{
		12*60 + 1,
		153722868,
		int(math.MaxInt64 / int64(time.Minute)),
		int(math.MaxInt64/int64(time.Minute)) + 1,
		math.MaxInt,
	} {
		got, err := f.engine.FindFreeSlots(context.Background(), []string{"a@x.com"}, testDay, minutes)
		require.NoError(t, err, "duration %d", minutes)
		assert.NotNil(t, got.FreeSlots)
		assert.Empty(t, got.FreeSlots, "duration %d", minutes)
		assert.Equal(t, 0, got.TotalSlots)
		assert.Equal(t, minutes, got.Duration)
	}
}

func TestGridSearch_NonPositiveStepOrDuration(t *testing.T) {
	assert.Nil(t, gridSearch(at(8, 0), at(20, 0), -time.Minute, 30*time.Minute, nil))
	assert.Nil(t, gridSearch(at(8, 0), at(20, 0), 30*time.Minute, 0, nil))
}
