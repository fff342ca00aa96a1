package gcal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"calendar-service/internal/model"
	"calendar-service/internal/store"
)

// EventSource lists external events already converted for calendarID.
type EventSource interface {
	ListEvents(ctx context.Context, tok *oauth2.Token, googleCalendarID, calendarID string, from, to time.Time) ([]model.Event, error)
}

// ImportRequest describes one pull of Google events into a local calendar.
type ImportRequest struct {
	CallerID         string
	CalendarID       string
	GoogleCalendarID string
	Token            *oauth2.Token
	From             time.Time
	To               time.Time
}

// ImportResult counts what an import did.
type ImportResult struct {
	CalendarID string `json:"calendarId"`
	Fetched    int    `json:"fetched"`
	Imported   int    `json:"imported"`
	Updated    int    `json:"updated"`
	Skipped    int    `json:"skipped"`
}

// Importer copies external events into calendars owned by the caller.
type Importer struct {
	source EventSource
	store  store.Store
	log    zerolog.Logger
}

func NewImporter(source EventSource, st store.Store, log zerolog.Logger) *Importer {
	return &Importer{source: source, store: st, log: log.With().Str("component", "gcal_import").Logger()}
}

// Import fetches events overlapping [From, To] and stores the ones not yet
// present in the target calendar. Events are matched by external ID across the
// whole calendar, so an event moved in Google is updated in place.
func (im *Importer) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	if req.CalendarID == "" {
		return nil, fmt.Errorf("%w: calendar id required", model.ErrInvalidArgument)
	}
	if req.From.IsZero() || req.To.IsZero() || !req.From.Before(req.To) {
		return nil, fmt.Errorf("%w: from must be before to", model.ErrInvalidArgument)
	}

	cal, err := store.OwnedCalendar(ctx, im.store, req.CalendarID, req.CallerID)
	if err != nil {
		return nil, err
	}

	incoming, err := im.source.ListEvents(ctx, req.Token, req.GoogleCalendarID, cal.ID, req.From, req.To)
	if err != nil {
		if errors.Is(err, model.ErrInvalidArgument) {
			return nil, err
		}
		return nil, fmt.Errorf("fetch google events: %w", err)
	}

	ids := make([]string, 0, len(incoming))
	for _, ev := range incoming {
		if ev.ExternalID != "" {
			ids = append(ids, ev.ExternalID)
		}
	}
	existing, err := im.store.Events().FindByExternalIDs(ctx, cal.ID, ids)
	if err != nil {
		return nil, fmt.Errorf("list existing events: %w: %w", model.ErrStoreUnavailable, err)
	}
	known := make(map[string]model.Event, len(existing))
	for _, ev := range existing {
		known[ev.ExternalID] = ev
	}

	res := &ImportResult{CalendarID: cal.ID, Fetched: len(incoming)}
	for i := range incoming {
		ev := incoming[i]
		ev.CalendarID = cal.ID
		ev.CreatedBy = req.CallerID

		cur, ok := known[ev.ExternalID]
		switch {
		case ok && sameContent(cur, ev):
			res.Skipped++
		case ok:
			ev.ID = cur.ID
			updated, err := im.store.Events().Update(ctx, &ev)
			if err != nil {
				return res, fmt.Errorf("update event %s: %w", ev.ExternalID, err)
			}
			known[ev.ExternalID] = *updated
			res.Updated++
		default:
			created, err := im.store.Events().Create(ctx, &ev)
			if err != nil {
				return res, fmt.Errorf("store event %s: %w", ev.ExternalID, err)
			}
			if ev.ExternalID != "" {
				known[ev.ExternalID] = *created
			}
			res.Imported++
		}
	}

	im.log.Info().
		Str("calendar_id", cal.ID).
		Str("google_calendar_id", req.GoogleCalendarID).
		Int("fetched", res.Fetched).
		Int("imported", res.Imported).
		Int("updated", res.Updated).
		Int("skipped", res.Skipped).
		Msg("google events imported")
	return res, nil
}

func sameContent(a, b model.Event) bool {
	return a.Title == b.Title &&
		a.Description == b.Description &&
		a.Location == b.Location &&
		a.Start.Equal(b.Start) &&
		a.End.Equal(b.End) &&
		a.AllDay == b.AllDay &&
		a.Recurrence == b.Recurrence
}
