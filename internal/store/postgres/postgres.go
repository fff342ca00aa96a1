// Package postgres implements store.Store on PostgreSQL through pgxpool.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"calendar-service/internal/model"
	"calendar-service/internal/store"
)

//go:embed schema.sql
var schema string

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Open connects a pool to dsn and verifies connectivity.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

// Migrate applies the embedded schema. It is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// NewWithPool returns a store backed by pool. Close releases the pool.
func NewWithPool(pool *pgxpool.Pool) store.Store { return &pgStore{db: pool} }

type pgStore struct{ db *pgxpool.Pool }

func (s *pgStore) Users() store.Users         { return &users{db: s.db} }
func (s *pgStore) Calendars() store.Calendars { return &calendars{db: s.db} }
func (s *pgStore) Events() store.Events       { return &events{db: s.db} }

func (s *pgStore) Ping(ctx context.Context) error { return s.db.Ping(ctx) }

func (s *pgStore) Close(ctx context.Context) error {
	s.db.Close()
	return nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// --- Users ---
type users struct{ db *pgxpool.Pool }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	out := *m
	out.Email = store.NormalizeEmail(out.Email)
	if out.Email == "" {
		return nil, fmt.Errorf("%w: email is required", model.ErrInvalidArgument)
	}
	if out.ID == "" {
		out.ID = uuid.NewString()
	}

	q := `INSERT INTO users (id, name, email) VALUES ($1,$2,$3) RETURNING created_at`
	err := u.db.QueryRow(ctx, q, out.ID, out.Name, out.Email).Scan(&out.CreatedAt)
	if pgCode(err) == uniqueViolation {
		return nil, fmt.Errorf("%w: email %s already registered", model.ErrConflict, out.Email)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (u *users) FindByEmails(ctx context.Context, emails []string) ([]model.User, error) {
	norm := store.NormalizeEmails(emails)
	if len(norm) == 0 {
		return nil, nil
	}
	q := `SELECT id, name, email, created_at FROM users WHERE email = ANY($1) ORDER BY email`
	rows, err := u.db.Query(ctx, q, norm)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (u *users) Search(ctx context.Context, query, excludeID string, limit int) ([]model.User, error) {
	pattern := "%" + escapeLike(query) + "%"
	q := `SELECT id, name, email, created_at FROM users
	      WHERE id <> $1 AND (name ILIKE $2 OR email ILIKE $2)
	      ORDER BY email LIMIT $3`
	rows, err := u.db.Query(ctx, q, excludeID, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func scanUsers(rows pgx.Rows) ([]model.User, error) {
	var out []model.User
	for rows.Next() {
		var m model.User
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// --- Calendars ---
type calendars struct{ db *pgxpool.Pool }

func (c *calendars) Create(ctx context.Context, m *model.Calendar) (*model.Calendar, error) {
	if m.OwnerID == "" {
		return nil, fmt.Errorf("%w: calendar owner is required", model.ErrInvalidArgument)
	}
	out := *m
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.Color == "" {
		out.Color = "#3b82f6"
	}

	q := `INSERT INTO calendars (id, user_id, name, color, is_default)
	      VALUES ($1,$2,$3,$4,$5) RETURNING created_at`
	err := c.db.QueryRow(ctx, q, out.ID, out.OwnerID, out.Name, out.Color, out.IsDefault).Scan(&out.CreatedAt)
	if pgCode(err) == foreignKeyViolation {
		return nil, fmt.Errorf("%w: owner %s", model.ErrNotFound, out.OwnerID)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *calendars) Get(ctx context.Context, id string) (*model.Calendar, error) {
	var out model.Calendar
	q := `SELECT id, user_id, name, color, is_default, created_at FROM calendars WHERE id=$1`
	err := c.db.QueryRow(ctx, q, id).Scan(&out.ID, &out.OwnerID, &out.Name, &out.Color, &out.IsDefault, &out.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: calendar %s", model.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *calendars) FindByOwners(ctx context.Context, ownerIDs []string) ([]model.Calendar, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}
	q := `SELECT id, user_id, name, color, is_default, created_at
	      FROM calendars WHERE user_id = ANY($1) ORDER BY id`
	rows, err := c.db.Query(ctx, q, ownerIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Calendar
	for rows.Next() {
		var m model.Calendar
		if err := rows.Scan(&m.ID, &m.OwnerID, &m.Name, &m.Color, &m.IsDefault, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// --- Events ---
type events struct{ db *pgxpool.Pool }

func (e *events) Create(ctx context.Context, m *model.Event) (*model.Event, error) {
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

	q := `INSERT INTO events
          (id, calendar_id, created_by, title, description, location, start_at, end_at, all_day, recurrence, external_id)
          VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING created_at`
	err := e.db.QueryRow(ctx, q,
		out.ID, out.CalendarID, out.CreatedBy, out.Title, out.Description, out.Location,
		out.Start, out.End, out.AllDay, out.Recurrence, out.ExternalID,
	).Scan(&out.CreatedAt)
	if pgCode(err) == foreignKeyViolation {
		return nil, fmt.Errorf("%w: calendar %s", model.ErrNotFound, out.CalendarID)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *events) FindOverlapping(ctx context.Context, calendarIDs []string, start, end time.Time) ([]model.Event, error) {
	if len(calendarIDs) == 0 {
		return nil, nil
	}
	q := `SELECT id, calendar_id, created_by, title, description, location, start_at, end_at,
	             all_day, recurrence, external_id, created_at
	      FROM events
	      WHERE calendar_id = ANY($1) AND start_at <= $3 AND end_at >= $2
	      ORDER BY start_at, id`
	rows, err := e.db.Query(ctx, q, calendarIDs, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var m model.Event
		if err := rows.Scan(&m.ID, &m.CalendarID, &m.CreatedBy, &m.Title, &m.Description, &m.Location,
			&m.Start, &m.End, &m.AllDay, &m.Recurrence, &m.ExternalID, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (e *events) FindByExternalIDs(ctx context.Context, calendarID string, externalIDs []string) ([]model.Event, error) {
	if len(externalIDs) == 0 {
		return nil, nil
	}
	q := `SELECT id, calendar_id, created_by, title, description, location, start_at, end_at,
	             all_day, recurrence, external_id, created_at
	      FROM events
	      WHERE calendar_id = $1 AND external_id <> '' AND external_id = ANY($2)
	      ORDER BY id`
	rows, err := e.db.Query(ctx, q, calendarID, externalIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var m model.Event
		if err := rows.Scan(&m.ID, &m.CalendarID, &m.CreatedBy, &m.Title, &m.Description, &m.Location,
			&m.Start, &m.End, &m.AllDay, &m.Recurrence, &m.ExternalID, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (e *events) Update(ctx context.Context, m *model.Event) (*model.Event, error) {
	if m.End.Before(m.Start) {
		return nil, fmt.Errorf("%w: event ends before it starts", model.ErrInvalidArgument)
	}
	q := `UPDATE events
	      SET title = $2, description = $3, location = $4, start_at = $5, end_at = $6,
	          all_day = $7, recurrence = $8, external_id = $9
	      WHERE id = $1
	      RETURNING id, calendar_id, created_by, title, description, location, start_at, end_at,
	                all_day, recurrence, external_id, created_at`
	var out model.Event
	err := e.db.QueryRow(ctx, q,
		m.ID, m.Title, m.Description, m.Location, m.Start, m.End, m.AllDay, m.Recurrence, m.ExternalID,
	).Scan(&out.ID, &out.CalendarID, &out.CreatedBy, &out.Title, &out.Description, &out.Location,
		&out.Start, &out.End, &out.AllDay, &out.Recurrence, &out.ExternalID, &out.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: event %s", model.ErrNotFound, m.ID)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
