package availability

import (
	"context"
	"time"

	"calendar-service/internal/store"
)

// FindFreeSlots returns every grid-aligned slot of durationMinutes inside the
// work window of date during which all known users are free. A durationMinutes
// of zero selects the configured default.
//
// Emails that do not resolve to a user are skipped: they are absent from Users
// and contribute no busy time. CheckAvailability reports such emails explicitly.
func (e *Engine) FindFreeSlots(ctx context.Context, emails []string, date time.Time, durationMinutes int) (*SlotSearchResult, error) {
	if len(emails) == 0 {
		return nil, invalid("please provide user emails")
	}
	if date.IsZero() {
		return nil, invalid("please provide a date")
	}
	if durationMinutes == 0 {
		durationMinutes = e.cfg.DefaultDurationMinutes
	}
	if durationMinutes < 0 {
		return nil, invalid("duration must be positive, got %d minutes", durationMinutes)
	}

	windowStart, windowEnd := e.cfg.Window(date)

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	res, err := e.resolve(ctx, emails)
	if err != nil {
		return nil, err
	}

	// One entry per resolved input, echoing the email as the caller wrote it.
	found := []FoundUser{}
	for _, email := range emails {
		u, ok := res.byEmail[store.NormalizeEmail(email)]
		if !ok {
			continue
		}
		found = append(found, FoundUser{Email: email, Name: u.Name, UserID: u.ID})
	}

	var busy []BusySlot
	if len(res.calendarIDs) > 0 {
		events, err := e.store.Events().FindOverlapping(ctx, res.calendarIDs, windowStart, windowEnd)
		if err != nil {
			return nil, storeError("find events", err)
		}
		for _, ev := range events {
			owner, ok := res.calOwner[ev.CalendarID]
			if !ok || !overlaps(ev.Start, ev.End, windowStart, windowEnd) {
				continue
			}
			s, en := clamp(ev.Start, ev.End, windowStart, windowEnd)
			busy = append(busy, BusySlot{OwnerKey: owner, Start: s, End: en})
		}
	}
	sortBusy(busy)

	step := time.Duration(e.cfg.GridMinutes) * time.Minute
	loc := e.cfg.location()

	// Compare in minutes first: a duration longer than the window cannot fit,
	// and converting it to time.Duration may overflow.
	slots := []FreeSlot{}
	var starts []time.Time
	var duration time.Duration
	if int64(durationMinutes) <= int64(windowEnd.Sub(windowStart)/time.Minute) {
		duration = time.Duration(durationMinutes) * time.Minute
		starts = gridSearch(windowStart, windowEnd, duration, step, busy)
	}
	for _, t := range starts {
		end := t.Add(duration)
		slots = append(slots, FreeSlot{
			Start:          t,
			End:            end,
			StartFormatted: t.In(loc).Format(displayLayout),
			EndFormatted:   end.In(loc).Format(displayLayout),
		})
	}

	e.log.Debug().
		Int("emails", len(emails)).
		Int("found", len(found)).
		Int("busy", len(busy)).
		Int("slots", len(slots)).
		Msg("free slots computed")

	return &SlotSearchResult{
		Date:       windowStart.Format(dateLayout),
		Duration:   durationMinutes,
		Users:      found,
		FreeSlots:  slots,
		TotalSlots: len(slots),
	}, nil
}
