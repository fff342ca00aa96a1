package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"calendar-service/internal/model"
	"calendar-service/internal/store"
)

// Engine answers availability queries against a read-only view of a store.
type Engine struct {
	store store.Store
	cfg   Config
	log   zerolog.Logger
}

// New validates cfg and returns an Engine reading from st.
func New(st store.Store, cfg Config, log zerolog.Logger) (*Engine, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("availability config: %w", err)
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Engine{store: st, cfg: cfg, log: log.With().Str("component", "availability").Logger()}, nil
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.StoreTimeout > 0 {
		return context.WithTimeout(ctx, e.cfg.StoreTimeout)
	}
	return context.WithCancel(ctx)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", model.ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrStoreUnavailable, err)
}

// resolution is the batched view of the requested identities.
type resolution struct {
	byEmail     map[string]model.User
	calOwner    map[string]string
	calendarIDs []string
}

// resolve fetches the users behind emails and all calendars they own, in two reads.
func (e *Engine) resolve(ctx context.Context, emails []string) (*resolution, error) {
	norm := store.NormalizeEmails(emails)
	users, err := e.store.Users().FindByEmails(ctx, norm)
	if err != nil {
		return nil, storeError("find users", err)
	}

	res := &resolution{
		byEmail:  make(map[string]model.User, len(users)),
		calOwner: map[string]string{},
	}
	ownerIDs := make([]string, 0, len(users))
	for _, u := range users {
		res.byEmail[store.NormalizeEmail(u.Email)] = u
		ownerIDs = append(ownerIDs, u.ID)
	}
	if len(ownerIDs) == 0 {
		return res, nil
	}

	cals, err := e.store.Calendars().FindByOwners(ctx, ownerIDs)
	if err != nil {
		return nil, storeError("find calendars", err)
	}
	for _, c := range cals {
		res.calOwner[c.ID] = c.OwnerID
		res.calendarIDs = append(res.calendarIDs, c.ID)
	}
	return res, nil
}
