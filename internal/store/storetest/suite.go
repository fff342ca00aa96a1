// Package storetest holds a compliance suite shared by every store driver.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calendar-service/internal/model"
	"calendar-service/internal/store"
)

// Run exercises the store.Store contract. makeStore must return a clean, isolated store.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()
	tag := uuid.NewString()[:8]

	require.NoError(t, s.Ping(ctx))

	// Users
	alice, err := s.Users().Create(ctx, &model.User{Name: "Alice " + tag, Email: "Alice." + tag + "@Example.test"})
	require.NoError(t, err)
	require.NotEmpty(t, alice.ID)
	assert.Equal(t, "alice."+tag+"@example.test", alice.Email)

	bob, err := s.Users().Create(ctx, &model.User{Name: "Bob " + tag, Email: "bob." + tag + "@example.test"})
	require.NoError(t, err)

	_, err = s.Users().Create(ctx, &model.User{Name: "Dup", Email: "ALICE." + tag + "@example.test"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConflict), "duplicate email should conflict, got %v", err)

	_, err = s.Users().Create(ctx, &model.User{ID: alice.ID, Name: "Same id", Email: "other." + tag + "@example.test"})
	assert.True(t, errors.Is(err, model.ErrConflict), "duplicate id should conflict, got %v", err)

	t.Run("FindByEmails is case-insensitive and skips unknown", func(t *testing.T) {
		got, err := s.Users().FindByEmails(ctx, []string{
			"ALICE." + tag + "@example.test",
			"ghost." + tag + "@nowhere.test",
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, alice.ID, got[0].ID)
	})

	t.Run("Search matches name or email and excludes caller", func(t *testing.T) {
		got, err := s.Users().Search(ctx, tag, alice.ID, 5)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, bob.ID, got[0].ID)

		got, err = s.Users().Search(ctx, "BOB "+tag, "", 5)
		require.NoError(t, err)
		require.Len(t, got, 1)

		got, err = s.Users().Search(ctx, tag, "", 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, alice.ID, got[0].ID, "results are ordered by email")
	})

	// Calendars
	work, err := s.Calendars().Create(ctx, &model.Calendar{OwnerID: alice.ID, Name: "Work"})
	require.NoError(t, err)
	home, err := s.Calendars().Create(ctx, &model.Calendar{OwnerID: alice.ID, Name: "Home"})
	require.NoError(t, err)
	bobCal, err := s.Calendars().Create(ctx, &model.Calendar{OwnerID: bob.ID, Name: "Bob"})
	require.NoError(t, err)

	t.Run("Calendars by owner", func(t *testing.T) {
		got, err := s.Calendars().FindByOwners(ctx, []string{alice.ID})
		require.NoError(t, err)
		ids := []string{}
		for _, c := range got {
			ids = append(ids, c.ID)
		}
		assert.ElementsMatch(t, []string{work.ID, home.ID}, ids)

		c, err := s.Calendars().Get(ctx, bobCal.ID)
		require.NoError(t, err)
		assert.Equal(t, bob.ID, c.OwnerID)

		_, err = s.Calendars().Get(ctx, uuid.NewString())
		assert.True(t, errors.Is(err, model.ErrNotFound), "got %v", err)
	})

	// Events
	day := time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	mk := func(cal, title string, start, end time.Time) *model.Event {
		e, err := s.Events().Create(ctx, &model.Event{CalendarID: cal, CreatedBy: alice.ID, Title: title, Start: start, End: end})
		require.NoError(t, err)
		return e
	}
	inside := mk(work.ID, "inside", at(11, 0), at(15, 0))
	touching := mk(home.ID, "ends at window start", at(9, 0), at(10, 0))
	mk(home.ID, "tomorrow", at(34, 0), at(35, 0))
	mk(bobCal.ID, "bob", at(11, 0), at(12, 0))

	t.Run("FindOverlapping returns inclusive superset", func(t *testing.T) {
		got, err := s.Events().FindOverlapping(ctx, []string{work.ID, home.ID}, at(10, 0), at(12, 0))
		require.NoError(t, err)
		ids := []string{}
		for _, e := range got {
			ids = append(ids, e.ID)
		}
		assert.ElementsMatch(t, []string{inside.ID, touching.ID}, ids)
	})

	t.Run("FindOverlapping with no calendars", func(t *testing.T) {
		got, err := s.Events().FindOverlapping(ctx, nil, at(0, 0), at(23, 0))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("FindByExternalIDs ignores time and other calendars", func(t *testing.T) {
		ext := "g-" + tag
		far, err := s.Events().Create(ctx, &model.Event{CalendarID: work.ID, Title: "synced", Start: at(24*40, 0), End: at(24*40+1, 0), ExternalID: ext})
		require.NoError(t, err)
		_, err = s.Events().Create(ctx, &model.Event{CalendarID: bobCal.ID, Title: "other", Start: at(1, 0), End: at(2, 0), ExternalID: ext})
		require.NoError(t, err)

		got, err := s.Events().FindByExternalIDs(ctx, work.ID, []string{ext, "missing-" + tag})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, far.ID, got[0].ID)

		got, err = s.Events().FindByExternalIDs(ctx, work.ID, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Update rewrites times and keeps ownership", func(t *testing.T) {
		ev := mk(work.ID, "movable", at(16, 0), at(17, 0))
		ev.Title = "moved"
		ev.Start, ev.End = at(18, 0), at(19, 0)
		ev.CalendarID = bobCal.ID

		got, err := s.Events().Update(ctx, ev)
		require.NoError(t, err)
		assert.Equal(t, "moved", got.Title)
		assert.True(t, got.Start.Equal(at(18, 0)))
		assert.Equal(t, work.ID, got.CalendarID)
		assert.Equal(t, alice.ID, got.CreatedBy)

		bad := *got
		bad.End = bad.Start.Add(-time.Minute)
		_, err = s.Events().Update(ctx, &bad)
		assert.True(t, errors.Is(err, model.ErrInvalidArgument), "got %v", err)

		_, err = s.Events().Update(ctx, &model.Event{ID: uuid.NewString(), Start: at(1, 0), End: at(2, 0)})
		assert.True(t, errors.Is(err, model.ErrNotFound), "got %v", err)
	})

	t.Run("Event on unknown calendar", func(t *testing.T) {
		_, err := s.Events().Create(ctx, &model.Event{CalendarID: uuid.NewString(), Title: "x", Start: at(1, 0), End: at(2, 0)})
		assert.True(t, errors.Is(err, model.ErrNotFound), "got %v", err)
	})
}
