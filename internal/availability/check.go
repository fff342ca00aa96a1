package availability

import (
	"context"
	"time"

	"calendar-service/internal/store"
)

// CheckAvailability reports, per email and in input order, whether the user is
// free for the whole of [start, end). Unknown emails yield an "unknown" entry
// rather than an error.
func (e *Engine) CheckAvailability(ctx context.Context, emails []string, start, end time.Time) ([]AvailabilityResult, error) {
	if len(emails) == 0 {
		return nil, invalid("please provide user emails")
	}
	if start.IsZero() || end.IsZero() {
		return nil, invalid("please provide start and end times")
	}
	if end.Before(start) {
		return nil, invalid("end time must not be before start time")
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	res, err := e.resolve(ctx, emails)
	if err != nil {
		return nil, err
	}

	conflictsByOwner := map[string]int{}
	if len(res.calendarIDs) > 0 {
		events, err := e.store.Events().FindOverlapping(ctx, res.calendarIDs, start, end)
		if err != nil {
			return nil, storeError("find events", err)
		}
		for _, ev := range events {
			owner, ok := res.calOwner[ev.CalendarID]
			if !ok {
				continue
			}
			if conflicts(ev.Start, ev.End, start, end) {
				conflictsByOwner[owner]++
			}
		}
	}

	out := make([]AvailabilityResult, len(emails))
	for i, email := range emails {
		u, ok := res.byEmail[store.NormalizeEmail(email)]
		if !ok {
			out[i] = AvailabilityResult{
				Email:   email,
				Exists:  false,
				Status:  StatusUnknown,
				Message: msgUserNotFound,
			}
			continue
		}
		n := conflictsByOwner[u.ID]
		status := StatusFree
		if n > 0 {
			status = StatusBlocked
		}
		out[i] = AvailabilityResult{
			Email:         email,
			Exists:        true,
			UserID:        u.ID,
			Name:          u.Name,
			Status:        status,
			ConflictCount: &n,
		}
	}

	e.log.Debug().
		Int("emails", len(emails)).
		Int("found", len(res.byEmail)).
		Int("calendars", len(res.calendarIDs)).
		Msg("availability checked")
	return out, nil
}
