package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"calendar-service/internal/app"
	"calendar-service/internal/availability"
	"calendar-service/internal/config"
	"calendar-service/internal/gcal"
	"calendar-service/internal/logger"
	"calendar-service/internal/server"
	"calendar-service/internal/store"
	"calendar-service/internal/store/memory"
	"calendar-service/internal/store/mongo"
	"calendar-service/internal/store/postgres"
)

const serviceName = "calendar-service"

func main() {
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(serviceName, logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	if err := run(cfg, log); err != nil {
		log.Fatal().Stack().Err(err).Msg("server exited")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}()

	engine, err := availability.New(st, cfg.Availability(), log)
	if err != nil {
		return err
	}

	appInstance := &app.App{
		Engine:     engine,
		Store:      st,
		Metrics:    app.NewMetrics(),
		Log:        log,
		Production: cfg.IsProduction(),
	}
	if cfg.GoogleEnabled() {
		appInstance.Google = gcal.New(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, cfg.Location())
		stateSecret := cfg.JWTSecret
		if stateSecret == "" {
			// Static-token deployments: states only need to survive this process.
			stateSecret = uuid.NewString()
		}
		appInstance.State = gcal.NewStateSigner(stateSecret, gcal.DefaultStateTTL)
		appInstance.Importer = gcal.NewImporter(appInstance.Google, st, log)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	routerOpts := app.RouterOptions{Auth: app.NewAuthenticator(cfg.JWTSecret, cfg.StaticTokens)}
	if cfg.RateLimitRPS > 0 {
		routerOpts.Limiter = app.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	router := appInstance.Router(routerOpts)

	return server.Run(ctx, router, server.Options{
		Addr:            cfg.GetHTTPAddr(),
		MetricsAddr:     cfg.GetMetricsAddr(),
		MetricsHandler:  appInstance.Metrics.Handler(),
		CORSOrigins:     cfg.CORSOrigins,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, log)
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case "postgres":
		pool, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
		}
		log.Info().Msg("using postgres store")
		return postgres.NewWithPool(pool), nil

	case "mongo":
		client, err := mongo.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDatabase)
		if err := mongo.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		log.Info().Str("database", cfg.MongoDatabase).Msg("using mongo store")
		return mongo.New(db), nil

	default:
		st := memory.New()
		if cfg.SeedFile != "" {
			f, err := os.Open(cfg.SeedFile)
			if err != nil {
				return nil, fmt.Errorf("open seed file: %w", err)
			}
			defer f.Close()
			if err := memory.Load(ctx, st, f); err != nil {
				return nil, err
			}
			log.Info().Str("seed_file", cfg.SeedFile).Msg("memory store seeded")
		}
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return st, nil
	}
}
