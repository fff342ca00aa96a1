package app

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"calendar-service/internal/gcal"
)

const googleTokenHeader = "X-Google-Token"

type importRequest struct {
	Token            *oauth2.Token `json:"token"`
	GoogleCalendarID string        `json:"googleCalendarId"`
	From             string        `json:"from"`
	To               string        `json:"to"`
}

func (a *App) googleNotConfigured(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Google Calendar not configured"})
}

// GET /api/google/auth
func (a *App) GoogleAuthHandler(c *gin.Context) {
	if a.Google == nil || a.State == nil {
		a.googleNotConfigured(c)
		return
	}
	state, err := a.State.Issue(CallerID(c))
	if err != nil {
		a.fail(c, err, "Server error starting authorization")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"authUrl": a.Google.AuthURL(state),
		"state":   state,
	})
}

// GET /oauth2callback
// The state must be one issued by GoogleAuthHandler, unexpired and unused.
func (a *App) GoogleOAuth2CallbackHandler(c *gin.Context) {
	if a.Google == nil || a.State == nil {
		a.googleNotConfigured(c)
		return
	}
	code := c.Query("code")
	if code == "" {
		a.badRequest(c, "authorization code required")
		return
	}
	callerID, err := a.State.Verify(c.Query("state"))
	if err != nil {
		a.Log.Warn().Err(err).Str("client_ip", c.ClientIP()).Msg("oauth state rejected")
		a.fail(c, err, "invalid oauth state")
		return
	}

	token, err := a.Google.Exchange(c.Request.Context(), code)
	if err != nil {
		a.Log.Warn().Err(err).Msg("google code exchange failed")
		a.badRequest(c, "failed to exchange code for token")
		return
	}

	// The token is handed back to the caller; it is passed again on import.
	c.JSON(http.StatusOK, gin.H{
		"message": "Authorization successful",
		"userId":  callerID,
		"token":   token,
	})
}

// GET /api/google/calendars
// The OAuth token is passed as JSON in the X-Google-Token header.
func (a *App) GoogleCalendarListHandler(c *gin.Context) {
	if a.Google == nil {
		a.googleNotConfigured(c)
		return
	}
	tokenStr := c.GetHeader(googleTokenHeader)
	if tokenStr == "" {
		a.badRequest(c, "Google token required in X-Google-Token header")
		return
	}
	var token oauth2.Token
	if err := json.Unmarshal([]byte(tokenStr), &token); err != nil {
		a.badRequest(c, "invalid token format")
		return
	}

	cals, err := a.Google.ListCalendars(c.Request.Context(), &token)
	if err != nil {
		a.fail(c, err, "failed to retrieve calendars")
		return
	}
	if cals == nil {
		cals = []gcal.CalendarInfo{}
	}
	c.JSON(http.StatusOK, gin.H{
		"calendars": cals,
		"count":     len(cals),
	})
}

// POST /api/calendars/:id/import/google
func (a *App) ImportGoogleHandler(c *gin.Context) {
	if a.Importer == nil {
		a.googleNotConfigured(c)
		return
	}
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.badRequest(c, "invalid request body")
		return
	}
	if req.Token == nil || req.Token.AccessToken == "" {
		a.badRequest(c, "Google token required")
		return
	}
	if req.From == "" || req.To == "" {
		a.badRequest(c, "Please provide from and to")
		return
	}

	loc := a.Engine.Config().Location
	from, err := parseInstant(req.From, loc)
	if err != nil {
		a.badRequest(c, "invalid from")
		return
	}
	to, err := parseInstant(req.To, loc)
	if err != nil {
		a.badRequest(c, "invalid to")
		return
	}

	res, err := a.Importer.Import(c.Request.Context(), gcal.ImportRequest{
		CallerID:         CallerID(c),
		CalendarID:       c.Param("id"),
		GoogleCalendarID: req.GoogleCalendarID,
		Token:            req.Token,
		From:             from,
		To:               to,
	})
	if err != nil {
		a.fail(c, err, "Server error importing events")
		return
	}
	a.Metrics.observeImport(res.Imported)
	c.JSON(http.StatusOK, res)
}
