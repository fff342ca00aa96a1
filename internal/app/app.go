// Package app is the HTTP layer: gin handlers for the availability engine,
// calendar and event management and the Google Calendar import, plus the
// middleware they run behind.
package app

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"calendar-service/internal/availability"
	"calendar-service/internal/gcal"
	"calendar-service/internal/model"
	"calendar-service/internal/store"
)

// App holds the dependencies shared by all handlers.
type App struct {
	Engine   *availability.Engine
	Store    store.Store
	Google   *gcal.Client      // nil when OAuth credentials are not configured
	State    *gcal.StateSigner // signs the OAuth state; required with Google
	Importer *gcal.Importer    // nil disables the import endpoint
	Metrics  *Metrics       // optional
	Log      zerolog.Logger

	// Production hides internal error details from 500 responses.
	Production bool
}

// RouterOptions selects the middleware installed by Router.
type RouterOptions struct {
	Auth    *Authenticator
	Limiter *RateLimiter
}

// Router builds the gin engine with every route registered.
func (a *App) Router(opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(Recovery(a.Log), RequestLogger(a.Log))
	if a.Metrics != nil {
		router.Use(a.Metrics.Middleware())
	}
	if opts.Limiter != nil {
		router.Use(opts.Limiter.Middleware())
	}

	router.GET("/healthz", a.HealthHandler)
	// OAuth2 callback (must be before auth middleware)
	router.GET("/oauth2callback", a.GoogleOAuth2CallbackHandler)

	api := router.Group("/api")
	if opts.Auth != nil {
		api.Use(opts.Auth.Middleware())
	}
	{
		avail := api.Group("/availability")
		avail.POST("/check", a.CheckAvailabilityHandler)
		avail.POST("/slots", a.FindFreeSlotsHandler)
		avail.GET("/users/search", a.SearchUsersHandler)

		google := api.Group("/google")
		google.GET("/auth", a.GoogleAuthHandler)
		google.GET("/calendars", a.GoogleCalendarListHandler)

		api.POST("/users", a.RegisterUserHandler)

		cals := api.Group("/calendars")
		cals.GET("", a.ListCalendarsHandler)
		cals.POST("", a.CreateCalendarHandler)
		cals.GET("/:id/events", a.ListEventsHandler)
		cals.POST("/:id/events", a.CreateEventHandler)
		cals.POST("/:id/import/google", a.ImportGoogleHandler)
	}
	return router
}

func (a *App) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": msg})
}

// fail maps err to a status. Anything that is not a known client error is a
// 500 carrying fallback as message.
func (a *App) fail(c *gin.Context, err error, fallback string) {
	var status int
	switch {
	case errors.Is(err, model.ErrInvalidArgument):
		a.badRequest(c, detail(err, model.ErrInvalidArgument))
		return
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, model.ErrConflict):
		status = http.StatusConflict
	default:
		a.Log.Error().Stack().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg(fallback)
		body := gin.H{"message": fallback}
		if !a.Production {
			body["error"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
		return
	}
	c.JSON(status, gin.H{"message": err.Error()})
}

// detail strips the sentinel prefix so clients see "please provide a date"
// rather than "invalid argument: please provide a date".
func detail(err, sentinel error) string {
	msg := err.Error()
	if i := strings.Index(msg, sentinel.Error()+": "); i >= 0 {
		return msg[i+len(sentinel.Error())+2:]
	}
	return msg
}
