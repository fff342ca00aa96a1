package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

type checkRequest struct {
	Emails    []string `json:"emails"`
	StartTime string   `json:"startTime"`
	EndTime   string   `json:"endTime"`
}

type slotsRequest struct {
	Emails          []string `json:"emails"`
	Date            string   `json:"date"`
	DurationMinutes int      `json:"durationMinutes"`
}

// POST /api/availability/check
func (a *App) CheckAvailabilityHandler(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.badRequest(c, "invalid request body")
		return
	}
	if len(req.Emails) == 0 {
		a.badRequest(c, "Please provide user emails")
		return
	}
	if req.StartTime == "" || req.EndTime == "" {
		a.badRequest(c, "Please provide start and end times")
		return
	}

	loc := a.Engine.Config().Location
	start, err := parseInstant(req.StartTime, loc)
	if err != nil {
		a.badRequest(c, "invalid startTime")
		return
	}
	end, err := parseInstant(req.EndTime, loc)
	if err != nil {
		a.badRequest(c, "invalid endTime")
		return
	}

	results, err := a.Engine.CheckAvailability(c.Request.Context(), req.Emails, start, end)
	if err != nil {
		a.fail(c, err, "Server error checking availability")
		return
	}
	a.Metrics.observeCheck(results)
	c.JSON(http.StatusOK, results)
}

// POST /api/availability/slots
// durationMinutes may be omitted (or 0) for the default duration.
func (a *App) FindFreeSlotsHandler(c *gin.Context) {
	var req slotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.badRequest(c, "invalid request body")
		return
	}
	if len(req.Emails) == 0 {
		a.badRequest(c, "Please provide user emails")
		return
	}
	if req.Date == "" {
		a.badRequest(c, "Please provide a date")
		return
	}

	date, err := parseInstant(req.Date, a.Engine.Config().Location)
	if err != nil {
		a.badRequest(c, "invalid date")
		return
	}

	res, err := a.Engine.FindFreeSlots(c.Request.Context(), req.Emails, date, req.DurationMinutes)
	if err != nil {
		a.fail(c, err, "Server error finding free slots")
		return
	}
	a.Metrics.observeSlots(res)
	c.JSON(http.StatusOK, res)
}

// GET /api/availability/users/search?q=
func (a *App) SearchUsersHandler(c *gin.Context) {
	users, err := a.Engine.SearchUsers(c.Request.Context(), c.Query("q"), CallerID(c))
	if err != nil {
		a.fail(c, err, "Server error searching users")
		return
	}
	c.JSON(http.StatusOK, users)
}

// GET /healthz
func (a *App) HealthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := a.Store.Ping(ctx); err != nil {
		a.Log.Warn().Err(err).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var errBadInstant = errors.New("unrecognized time format")

// parseInstant accepts RFC3339 or a naive date/date-time, the latter read in loc.
func parseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errBadInstant
}
