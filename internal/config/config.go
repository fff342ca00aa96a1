package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"calendar-service/internal/availability"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

const envPrefix = "CALENDAR"

// Config holds the service configuration.
// Environment variables are parsed with the CALENDAR_ prefix, e.g. CALENDAR_HTTP_PORT.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty   bool        `envconfig:"LOG_PRETTY" default:"false"`

	// HTTP
	HTTPPort        int           `envconfig:"HTTP_PORT" default:"8080"`
	MetricsPort     int           `envconfig:"METRICS_PORT" default:"9090"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	CORSOrigins     []string      `envconfig:"CORS_ORIGINS" default:"*"`
	RateLimitRPS    float64       `envconfig:"RATE_LIMIT_RPS" default:"10"` // 0 disables limiting
	RateLimitBurst  int           `envconfig:"RATE_LIMIT_BURST" default:"20"`

	// Auth: HMAC-signed JWTs and/or a comma-separated list of static bearer tokens.
	JWTSecret    string   `envconfig:"JWT_SECRET"`
	StaticTokens []string `envconfig:"STATIC_TOKENS"`

	// Storage: memory, postgres or mongo.
	StoreDriver   string        `envconfig:"STORE_DRIVER" default:"memory"`
	StoreTimeout  time.Duration `envconfig:"STORE_TIMEOUT" default:"5s"`
	SeedFile      string        `envconfig:"SEED_FILE"`
	DatabaseURL   string        `envconfig:"DATABASE_URL"`
	AutoMigrate   bool          `envconfig:"AUTO_MIGRATE" default:"true"`
	MongoURI      string        `envconfig:"MONGO_URI"`
	MongoDatabase string        `envconfig:"MONGO_DATABASE" default:"calendar"`

	// Availability engine
	DayStartHour int    `envconfig:"DAY_START_HOUR" default:"8"`
	DayEndHour   int    `envconfig:"DAY_END_HOUR" default:"20"`
	GridMinutes  int    `envconfig:"GRID_MINUTES" default:"30"`
	TimeZone     string `envconfig:"TIME_ZONE"`

	// Google Calendar import
	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `envconfig:"GOOGLE_REDIRECT_URL"`

	location *time.Location
}

// New loads .env if present, then parses CALENDAR_* environment variables.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("store_driver", cfg.StoreDriver).
		Int("port", cfg.HTTPPort).
		Int("metrics_port", cfg.MetricsPort).
		Int("day_start_hour", cfg.DayStartHour).
		Int("day_end_hour", cfg.DayEndHour).
		Int("grid_minutes", cfg.GridMinutes).
		Str("time_zone", cfg.Location().String()).
		Bool("jwt_enabled", cfg.JWTSecret != "").
		Int("static_tokens", len(cfg.StaticTokens)).
		Bool("google_enabled", cfg.GoogleEnabled()).
		Msg("Configuration loaded")

	return &cfg, nil
}

// ResolveDefaults validates the driver and engine window and resolves the time zone.
func (c *Config) ResolveDefaults() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case "", "memory":
		c.StoreDriver = "memory"
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("%s_DATABASE_URL required for postgres driver", envPrefix)
		}
	case "mongo":
		if c.MongoURI == "" {
			return fmt.Errorf("%s_MONGO_URI required for mongo driver", envPrefix)
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER: %s", c.StoreDriver)
	}

	switch c.Environment {
	case EnvDevelopment, EnvTesting, EnvProduction:
	default:
		return fmt.Errorf("unsupported ENVIRONMENT: %s", c.Environment)
	}

	c.location = time.Local
	if c.TimeZone != "" {
		loc, err := time.LoadLocation(c.TimeZone)
		if err != nil {
			return fmt.Errorf("invalid TIME_ZONE %q: %w", c.TimeZone, err)
		}
		c.location = loc
	}

	c.StaticTokens = compact(c.StaticTokens)
	c.CORSOrigins = compact(c.CORSOrigins)

	return c.Availability().Validate()
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	cfg := &Config{
		Environment:     EnvTesting,
		LogLevel:        "debug",
		HTTPPort:        8080,
		ShutdownTimeout: time.Second,
		CORSOrigins:     []string{"*"},
		RateLimitRPS:    1000,
		RateLimitBurst:  1000,
		JWTSecret:       "test-secret",
		StaticTokens:    []string{"test-token"},
		StoreDriver:     "memory",
		DayStartHour:    availability.DefaultDayStartHour,
		DayEndHour:      availability.DefaultDayEndHour,
		GridMinutes:     availability.DefaultGridMinutes,
		location:        time.UTC,
	}
	return cfg
}

// Availability returns the engine configuration derived from c.
func (c *Config) Availability() availability.Config {
	ac := availability.DefaultConfig()
	ac.DayStartHour = c.DayStartHour
	ac.DayEndHour = c.DayEndHour
	ac.GridMinutes = c.GridMinutes
	ac.StoreTimeout = c.StoreTimeout
	ac.Location = c.Location()
	return ac
}

// Location is the server-local frame availability is computed in.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GoogleEnabled reports whether Google Calendar OAuth is configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetMetricsAddr returns the metrics server address, or "" when disabled.
func (c *Config) GetMetricsAddr() string {
	if c.MetricsPort <= 0 {
		return ""
	}
	return fmt.Sprintf(":%d", c.MetricsPort)
}

func compact(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
