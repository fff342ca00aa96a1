// Package store defines the persistence operations the availability engine and
// the HTTP layer need. Drivers live under internal/store/<driver>/.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"calendar-service/internal/model"
)

// Store groups the user directory, calendar store and event store.
type Store interface {
	Users() Users
	Calendars() Calendars
	Events() Events
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type Users interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	// FindByEmails returns the users whose email matches one of emails.
	// Emails are compared lowercased; missing users are simply absent.
	FindByEmails(ctx context.Context, emails []string) ([]model.User, error)
	// Search matches query as a case-insensitive substring of name or email,
	// skipping excludeID, ordered by email and capped at limit.
	Search(ctx context.Context, query, excludeID string, limit int) ([]model.User, error)
}

type Calendars interface {
	Create(ctx context.Context, c *model.Calendar) (*model.Calendar, error)
	Get(ctx context.Context, id string) (*model.Calendar, error)
	FindByOwners(ctx context.Context, ownerIDs []string) ([]model.Calendar, error)
}

type Events interface {
	Create(ctx context.Context, e *model.Event) (*model.Event, error)
	// FindOverlapping returns events of the given calendars with
	// start <= end and end >= start. Callers apply their exact predicate.
	FindOverlapping(ctx context.Context, calendarIDs []string, start, end time.Time) ([]model.Event, error)
	// FindByExternalIDs returns the events of calendarID carrying one of
	// externalIDs, whatever their time.
	FindByExternalIDs(ctx context.Context, calendarID string, externalIDs []string) ([]model.Event, error)
	// Update rewrites the editable fields of an existing event. ID, calendar,
	// creator and creation time are kept.
	Update(ctx context.Context, e *model.Event) (*model.Event, error)
}

// OwnedCalendar loads calendarID and checks that callerID owns it. A missing
// calendar wraps model.ErrNotFound, any other owner model.ErrForbidden.
func OwnedCalendar(ctx context.Context, st Store, calendarID, callerID string) (*model.Calendar, error) {
	cal, err := st.Calendars().Get(ctx, calendarID)
	if err != nil {
		return nil, fmt.Errorf("get calendar %s: %w", calendarID, err)
	}
	if callerID == "" || cal.OwnerID != callerID {
		return nil, fmt.Errorf("%w: calendar %s is not owned by caller", model.ErrForbidden, calendarID)
	}
	return cal, nil
}

// NormalizeEmail lowercases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeEmails normalizes and de-duplicates emails, keeping first-seen order.
func NormalizeEmails(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		n := NormalizeEmail(e)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
