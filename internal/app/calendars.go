package app

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"calendar-service/internal/model"
	"calendar-service/internal/store"
)

const defaultCalendarColor = "#3b82f6"

type registerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type calendarRequest struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	IsDefault bool   `json:"isDefault"`
}

type eventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Start       string `json:"start"`
	End         string `json:"end"`
	AllDay      bool   `json:"allDay"`
	Recurrence  string `json:"recurrence"`
}

// requireCaller writes 403 and returns false when the token is not bound to a user.
func (a *App) requireCaller(c *gin.Context) (string, bool) {
	id := CallerID(c)
	if id == "" {
		c.JSON(http.StatusForbidden, gin.H{"message": "token is not bound to a user"})
		return "", false
	}
	return id, true
}

// POST /api/users
// Adds the caller to the user directory under the caller's own id.
func (a *App) RegisterUserHandler(c *gin.Context) {
	callerID, ok := a.requireCaller(c)
	if !ok {
		return
	}
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.badRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
		a.badRequest(c, "Please add all fields")
		return
	}

	u, err := a.Store.Users().Create(c.Request.Context(), &model.User{
		ID:    callerID,
		Name:  strings.TrimSpace(req.Name),
		Email: req.Email,
	})
	if err != nil {
		a.fail(c, err, "Server error registering user")
		return
	}
	c.JSON(http.StatusCreated, u)
}

// GET /api/calendars
// Default calendars first, then by creation time.
func (a *App) ListCalendarsHandler(c *gin.Context) {
	callerID, ok := a.requireCaller(c)
	if !ok {
		return
	}
	cals, err := a.Store.Calendars().FindByOwners(c.Request.Context(), []string{callerID})
	if err != nil {
		a.fail(c, err, "Server error fetching calendars")
		return
	}
	if cals == nil {
		cals = []model.Calendar{}
	}
	sort.SliceStable(cals, func(i, j int) bool {
		if cals[i].IsDefault != cals[j].IsDefault {
			return cals[i].IsDefault
		}
		return cals[i].CreatedAt.Before(cals[j].CreatedAt)
	})
	c.JSON(http.StatusOK, cals)
}

// POST /api/calendars
func (a *App) CreateCalendarHandler(c *gin.Context) {
	callerID, ok := a.requireCaller(c)
	if !ok {
		return
	}
	var req calendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.badRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		a.badRequest(c, "Please add a name")
		return
	}
	color := req.Color
	if color == "" {
		color = defaultCalendarColor
	}

	cal, err := a.Store.Calendars().Create(c.Request.Context(), &model.Calendar{
		OwnerID:   callerID,
		Name:      strings.TrimSpace(req.Name),
		Color:     color,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		a.fail(c, err, "Server error creating calendar")
		return
	}
	a.Log.Info().Str("calendar_id", cal.ID).Str("owner_id", callerID).Msg("calendar created")
	c.JSON(http.StatusCreated, cal)
}

// GET /api/calendars/:id/events?from=...&to=...
func (a *App) ListEventsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	cal, err := store.OwnedCalendar(ctx, a.Store, c.Param("id"), CallerID(c))
	if err != nil {
		a.fail(c, err, "Server error fetching events")
		return
	}
	if c.Query("from") == "" || c.Query("to") == "" {
		a.badRequest(c, "Please provide from and to")
		return
	}
	loc := a.Engine.Config().Location
	from, err := parseInstant(c.Query("from"), loc)
	if err != nil {
		a.badRequest(c, "invalid from")
		return
	}
	to, err := parseInstant(c.Query("to"), loc)
	if err != nil {
		a.badRequest(c, "invalid to")
		return
	}
	if !from.Before(to) {
		a.badRequest(c, "from must be before to")
		return
	}

	events, err := a.Store.Events().FindOverlapping(ctx, []string{cal.ID}, from, to)
	if err != nil {
		a.fail(c, err, "Server error fetching events")
		return
	}
	// The store returns a superset touching the bounds.
	out := []model.Event{}
	for _, ev := range events {
		if ev.Start.Before(to) && ev.End.After(from) {
			out = append(out, ev)
		}
	}
	c.JSON(http.StatusOK, out)
}

// POST /api/calendars/:id/events
func (a *App) CreateEventHandler(c *gin.Context) {
	ctx := c.Request.Context()
	callerID := CallerID(c)
	cal, err := store.OwnedCalendar(ctx, a.Store, c.Param("id"), callerID)
	if err != nil {
		a.fail(c, err, "Server error creating event")
		return
	}

	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.badRequest(c, "invalid request body")
		return
	}
	if req.Start == "" || req.End == "" {
		a.badRequest(c, "Start and End dates are required")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		a.badRequest(c, "Please add a title")
		return
	}
	loc := a.Engine.Config().Location
	start, err := parseInstant(req.Start, loc)
	if err != nil {
		a.badRequest(c, "Invalid date format")
		return
	}
	end, err := parseInstant(req.End, loc)
	if err != nil {
		a.badRequest(c, "Invalid date format")
		return
	}

	ev, err := a.Store.Events().Create(ctx, &model.Event{
		CalendarID:  cal.ID,
		CreatedBy:   callerID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Location:    req.Location,
		Start:       start,
		End:         end,
		AllDay:      req.AllDay,
		Recurrence:  req.Recurrence,
	})
	if err != nil {
		a.fail(c, err, "Server error creating event")
		return
	}
	a.Log.Info().Str("event_id", ev.ID).Str("calendar_id", cal.ID).Msg("event created")
	c.JSON(http.StatusCreated, ev)
}
