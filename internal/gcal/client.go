// Package gcal talks to the Google Calendar API: the OAuth2 consent flow and
// read-only event listing used to import external events.
package gcal

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"calendar-service/internal/model"
)

const (
	PrimaryCalendarID = "primary"
	pageSize          = 250
	dateLayout        = "2006-01-02"
	statusCancelled   = "cancelled"
)

// Client wraps the OAuth2 config and builds calendar services per token.
type Client struct {
	oauth *oauth2.Config
	// opts are appended after the authenticated HTTP client, e.g. a test endpoint.
	opts []option.ClientOption
	loc  *time.Location
}

// CalendarInfo is one entry of the user's Google calendar list.
type CalendarInfo struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	Primary     bool   `json:"primary"`
	AccessRole  string `json:"accessRole"`
}

// New returns a Client for the given OAuth credentials. All-day events are
// placed in loc.
func New(clientID, clientSecret, redirectURL string, loc *time.Location, opts ...option.ClientOption) *Client {
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{calendar.CalendarReadonlyScope},
			Endpoint:     google.Endpoint,
		},
		opts: opts,
		loc:  loc,
	}
}

// AuthURL returns the consent page URL carrying state.
func (c *Client) AuthURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return tok, nil
}

func (c *Client) service(ctx context.Context, tok *oauth2.Token) (*calendar.Service, error) {
	if tok == nil || tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: google token required", model.ErrInvalidArgument)
	}
	opts := append([]option.ClientOption{option.WithHTTPClient(c.oauth.Client(ctx, tok))}, c.opts...)
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return srv, nil
}

// ListCalendars returns the calendars visible to the token's owner.
func (c *Client) ListCalendars(ctx context.Context, tok *oauth2.Token) ([]CalendarInfo, error) {
	srv, err := c.service(ctx, tok)
	if err != nil {
		return nil, err
	}

	var out []CalendarInfo
	err = srv.CalendarList.List().Pages(ctx, func(page *calendar.CalendarList) error {
		for _, item := range page.Items {
			out = append(out, CalendarInfo{
				ID:          item.Id,
				Summary:     item.Summary,
				Description: item.Description,
				Primary:     item.Primary,
				AccessRole:  item.AccessRole,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}
	return out, nil
}

// ListEvents returns the single (expanded) events of googleCalendarID that
// overlap [from, to], converted to local events of calendarID. Cancelled
// events and events without usable times are skipped.
func (c *Client) ListEvents(ctx context.Context, tok *oauth2.Token, googleCalendarID, calendarID string, from, to time.Time) ([]model.Event, error) {
	srv, err := c.service(ctx, tok)
	if err != nil {
		return nil, err
	}
	if googleCalendarID == "" {
		googleCalendarID = PrimaryCalendarID
	}

	call := srv.Events.List(googleCalendarID).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(pageSize).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339))

	var out []model.Event
	err = call.Pages(ctx, func(page *calendar.Events) error {
		for _, item := range page.Items {
			if ev, ok := c.convert(item, calendarID); ok {
				out = append(out, ev)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list events of %s: %w", googleCalendarID, err)
	}
	return out, nil
}

func (c *Client) convert(item *calendar.Event, calendarID string) (model.Event, bool) {
	if item == nil || item.Status == statusCancelled {
		return model.Event{}, false
	}
	start, allDay, ok := c.parseTime(item.Start)
	if !ok {
		return model.Event{}, false
	}
	end, _, ok := c.parseTime(item.End)
	if !ok || end.Before(start) {
		return model.Event{}, false
	}

	ev := model.Event{
		CalendarID:  calendarID,
		Title:       item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Start:       start,
		End:         end,
		AllDay:      allDay,
		ExternalID:  item.Id,
	}
	if ev.Title == "" {
		ev.Title = "(no title)"
	}
	return ev, true
}

// parseTime reads a timed (RFC3339) or all-day (date) boundary.
// All-day end dates are exclusive, which matches the half-open event span.
func (c *Client) parseTime(t *calendar.EventDateTime) (time.Time, bool, bool) {
	if t == nil {
		return time.Time{}, false, false
	}
	if t.DateTime != "" {
		ts, err := time.Parse(time.RFC3339, t.DateTime)
		return ts, false, err == nil
	}
	if t.Date != "" {
		ts, err := time.ParseInLocation(dateLayout, t.Date, c.loc)
		return ts, true, err == nil
	}
	return time.Time{}, false, false
}
