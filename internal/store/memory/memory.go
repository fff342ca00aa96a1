// Package memory is an in-process store used for local development and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"calendar-service/internal/model"
	"calendar-service/internal/store"
)

type memStore struct {
	mu        sync.RWMutex
	users     map[string]model.User
	byEmail   map[string]string
	calendars map[string]model.Calendar
	events    map[string]model.Event
	now       func() time.Time
}

// New returns an empty in-memory store.
func New() store.Store {
	return &memStore{
		users:     map[string]model.User{},
		byEmail:   map[string]string{},
		calendars: map[string]model.Calendar{},
		events:    map[string]model.Event{},
		now:       time.Now,
	}
}

func (s *memStore) Users() store.Users         { return users{s} }
func (s *memStore) Calendars() store.Calendars { return calendars{s} }
func (s *memStore) Events() store.Events       { return events{s} }

func (s *memStore) Ping(ctx context.Context) error  { return ctx.Err() }
func (s *memStore) Close(ctx context.Context) error { return nil }

// Seed is the JSON document accepted by Load.
type Seed struct {
	Users     []model.User     `json:"users"`
	Calendars []model.Calendar `json:"calendars"`
	Events    []model.Event    `json:"events"`
}

// Load reads a Seed from r and inserts its records into st in dependency order.
func Load(ctx context.Context, st store.Store, r io.Reader) error {
	var seed Seed
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return fmt.Errorf("decode seed: %w", err)
	}
	for i := range seed.Users {
		if _, err := st.Users().Create(ctx, &seed.Users[i]); err != nil {
			return fmt.Errorf("seed user %q: %w", seed.Users[i].Email, err)
		}
	}
	for i := range seed.Calendars {
		if _, err := st.Calendars().Create(ctx, &seed.Calendars[i]); err != nil {
			return fmt.Errorf("seed calendar %q: %w", seed.Calendars[i].Name, err)
		}
	}
	for i := range seed.Events {
		if _, err := st.Events().Create(ctx, &seed.Events[i]); err != nil {
			return fmt.Errorf("seed event %q: %w", seed.Events[i].Title, err)
		}
	}
	return nil
}

// --- Users ---
type users struct{ s *memStore }

func (u users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	out := *m
	out.Email = store.NormalizeEmail(out.Email)
	if out.Email == "" {
		return nil, fmt.Errorf("%w: email is required", model.ErrInvalidArgument)
	}
	if out.ID == "" {
		out.ID = uuid.NewString()
	}

	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if _, ok := u.s.byEmail[out.Email]; ok {
		return nil, fmt.Errorf("%w: email %s already registered", model.ErrConflict, out.Email)
	}
	if _, ok := u.s.users[out.ID]; ok {
		return nil, fmt.Errorf("%w: user %s already registered", model.ErrConflict, out.ID)
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = u.s.now()
	}
	u.s.users[out.ID] = out
	u.s.byEmail[out.Email] = out.ID
	return &out, nil
}

func (u users) FindByEmails(ctx context.Context, emails []string) ([]model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	var out []model.User
	for _, e := range store.NormalizeEmails(emails) {
		if id, ok := u.s.byEmail[e]; ok {
			out = append(out, u.s.users[id])
		}
	}
	return out, nil
}

func (u users) Search(ctx context.Context, query, excludeID string, limit int) ([]model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := strings.ToLower(query)

	u.s.mu.RLock()
	var out []model.User
	for _, usr := range u.s.users {
		if usr.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(usr.Name), q) || strings.Contains(usr.Email, q) {
			out = append(out, usr)
		}
	}
	u.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- Calendars ---
type calendars struct{ s *memStore }

func (c calendars) Create(ctx context.Context, m *model.Calendar) (*model.Calendar, error) {
	if m.OwnerID == "" {
		return nil, fmt.Errorf("%w: calendar owner is required", model.ErrInvalidArgument)
	}
	out := *m
	if out.ID == "" {
		out.ID = uuid.NewString()
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if _, ok := c.s.users[out.OwnerID]; !ok {
		return nil, fmt.Errorf("%w: owner %s", model.ErrNotFound, out.OwnerID)
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = c.s.now()
	}
	c.s.calendars[out.ID] = out
	return &out, nil
}

func (c calendars) Get(ctx context.Context, id string) (*model.Calendar, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	cal, ok := c.s.calendars[id]
	if !ok {
		return nil, fmt.Errorf("%w: calendar %s", model.ErrNotFound, id)
	}
	return &cal, nil
}

func (c calendars) FindByOwners(ctx context.Context, ownerIDs []string) ([]model.Calendar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	owners := make(map[string]struct{}, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = struct{}{}
	}

	c.s.mu.RLock()
	var out []model.Calendar
	for _, cal := range c.s.calendars {
		if _, ok := owners[cal.OwnerID]; ok {
			out = append(out, cal)
		}
	}
	c.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- Events ---
type events struct{ s *memStore }

func (e events) Create(ctx context.Context, m *model.Event) (*model.Event, error) {
	if m.CalendarID == "" {
		return nil, fmt.Errorf("%w: event calendar is required", model.ErrInvalidArgument)
	}
	if m.End.Before(m.Start) {
		return nil, fmt.Errorf("%w: event ends before it starts", model.ErrInvalidArgument)
	}
	out := *m
	if out.ID == "" {
		out.ID = uuid.NewString()
	}

	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if _, ok := e.s.calendars[out.CalendarID]; !ok {
		return nil, fmt.Errorf("%w: calendar %s", model.ErrNotFound, out.CalendarID)
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = e.s.now()
	}
	e.s.events[out.ID] = out
	return &out, nil
}

func (e events) FindOverlapping(ctx context.Context, calendarIDs []string, start, end time.Time) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cals := make(map[string]struct{}, len(calendarIDs))
	for _, id := range calendarIDs {
		cals[id] = struct{}{}
	}

	e.s.mu.RLock()
	var out []model.Event
	for _, ev := range e.s.events {
		if _, ok := cals[ev.CalendarID]; !ok {
			continue
		}
		if !ev.Start.After(end) && !ev.End.Before(start) {
			out = append(out, ev)
		}
	}
	e.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (e events) FindByExternalIDs(ctx context.Context, calendarID string, externalIDs []string) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := make(map[string]struct{}, len(externalIDs))
	for _, id := range externalIDs {
		if id != "" {
			want[id] = struct{}{}
		}
	}
	if len(want) == 0 {
		return nil, nil
	}

	e.s.mu.RLock()
	var out []model.Event
	for _, ev := range e.s.events {
		if ev.CalendarID != calendarID {
			continue
		}
		if _, ok := want[ev.ExternalID]; ok {
			out = append(out, ev)
		}
	}
	e.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (e events) Update(ctx context.Context, m *model.Event) (*model.Event, error) {
	if m.End.Before(m.Start) {
		return nil, fmt.Errorf("%w: event ends before it starts", model.ErrInvalidArgument)
	}

	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	cur, ok := e.s.events[m.ID]
	if !ok {
		return nil, fmt.Errorf("%w: event %s", model.ErrNotFound, m.ID)
	}
	cur.Title = m.Title
	cur.Description = m.Description
	cur.Location = m.Location
	cur.Start = m.Start
	cur.End = m.End
	cur.AllDay = m.AllDay
	cur.Recurrence = m.Recurrence
	cur.ExternalID = m.ExternalID
	e.s.events[cur.ID] = cur
	return &cur, nil
}
