package availability

import (
	"fmt"
	"time"
)

const (
	DefaultDayStartHour    = 8
	DefaultDayEndHour      = 20
	DefaultGridMinutes     = 30
	DefaultDurationMinutes = 30
	DefaultSearchLimit     = 5
	DefaultMinQueryLength  = 2
)

// Config bounds the slot search and the user search.
type Config struct {
	// DayStartHour and DayEndHour delimit the work window [start, end) of a day.
	DayStartHour int
	DayEndHour   int
	// GridMinutes is the step between candidate slot starts.
	GridMinutes int
	// DefaultDurationMinutes is used when a slot search does not name a duration.
	DefaultDurationMinutes int

	SearchLimit    int
	MinQueryLength int

	// StoreTimeout bounds the store reads of one call. Zero means no extra bound.
	StoreTimeout time.Duration

	// Location is the frame day windows are built in. Nil means time.Local.
	Location *time.Location
}

// DefaultConfig returns the 08:00-20:00 window on a 30-minute grid.
func DefaultConfig() Config {
	return Config{
		DayStartHour:           DefaultDayStartHour,
		DayEndHour:             DefaultDayEndHour,
		GridMinutes:            DefaultGridMinutes,
		DefaultDurationMinutes: DefaultDurationMinutes,
		SearchLimit:            DefaultSearchLimit,
		MinQueryLength:         DefaultMinQueryLength,
		Location:               time.Local,
	}
}

func (c Config) Validate() error {
	if c.DayStartHour < 0 || c.DayStartHour > 23 {
		return fmt.Errorf("day start hour %d out of range 0-23", c.DayStartHour)
	}
	if c.DayEndHour < 1 || c.DayEndHour > 24 {
		return fmt.Errorf("day end hour %d out of range 1-24", c.DayEndHour)
	}
	if c.DayStartHour >= c.DayEndHour {
		return fmt.Errorf("day start hour %d must be before end hour %d", c.DayStartHour, c.DayEndHour)
	}
	if c.GridMinutes <= 0 {
		return fmt.Errorf("grid minutes must be positive, got %d", c.GridMinutes)
	}
	if c.DefaultDurationMinutes <= 0 {
		return fmt.Errorf("default duration must be positive, got %d", c.DefaultDurationMinutes)
	}
	if c.SearchLimit <= 0 {
		return fmt.Errorf("search limit must be positive, got %d", c.SearchLimit)
	}
	if c.StoreTimeout < 0 {
		return fmt.Errorf("store timeout must not be negative")
	}
	return nil
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// Window returns the work window of the calendar day containing date, in the configured location.
func (c Config) Window(date time.Time) (start, end time.Time) {
	loc := c.location()
	y, m, d := date.In(loc).Date()
	start = time.Date(y, m, d, c.DayStartHour, 0, 0, 0, loc)
	end = time.Date(y, m, d, c.DayEndHour, 0, 0, 0, loc)
	return start, end
}
