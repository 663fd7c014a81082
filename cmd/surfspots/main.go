package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	httpapi "github.com/i474232898/surfspots/internal/api/http"
	"github.com/i474232898/surfspots/internal/blog"
	"github.com/i474232898/surfspots/internal/chart"
	"github.com/i474232898/surfspots/internal/config"
	"github.com/i474232898/surfspots/internal/countries"
	"github.com/i474232898/surfspots/internal/database"
	"github.com/i474232898/surfspots/internal/observability"
	"github.com/i474232898/surfspots/internal/scheduler"
	"github.com/i474232898/surfspots/internal/scrape"
	"github.com/i474232898/surfspots/internal/store"
	"github.com/i474232898/surfspots/internal/weather"
	"github.com/i474232898/surfspots/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	log := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()
	loc, _ := cfg.Location()

	if cfg.Stormglass.APIKey == "" {
		log.Warn().Msg("STORMGLASS_API_KEY is not set; forecasts will fail")
	}

	db, err := database.Open(cfg.DatabaseDSN, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Error().Err(err).Msg("closing database")
		}
	}()
	if err := database.Migrate(db, blog.Models()...); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Charts go to object storage when configured, otherwise to memory.
	memStore := store.NewMemoryStore("/charts/", cfg.Images.MaxEntries, cfg.Images.MaxAge, clock, metrics)
	var images blog.ImageStore = memStore
	var charts httpapi.ImageSource = memStore
	if cfg.MinIO.Enabled() {
		minioStore, err := store.NewMinioStore(context.Background(), cfg.MinIO, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to object storage")
		}
		images, charts = minioStore, nil
	}

	// Geocoding: Google when a key is configured, Nominatim otherwise.
	var geo weather.Geocoder = providers.NewNominatimGeocoder(httpClient, cfg.Geocoder.NominatimURL)
	if cfg.Geocoder.APIKey != "" {
		geo = providers.NewGoogleGeocoder(cfg.Geocoder.APIKey)
	}
	geo = providers.NewCachedGeocoder(geo, cfg.Geocoder.CacheSize, metrics)

	forecasts := weather.NewService(
		geo,
		providers.NewStormglassProvider(httpClient, cfg.Stormglass.BaseURL, cfg.Stormglass.APIKey),
		chart.Renderer{},
		images,
		log,
		metrics,
		weather.WithClock(clock),
		weather.WithLocation(loc),
	)

	repo := blog.NewRepository(db)
	blogSvc := blog.NewService(repo, log, blog.WithClock(clock), blog.WithAdmins(cfg.IsAdmin))
	atlas := blog.NewAtlas(repo, countries.Default(), images, log, metrics)

	news := scrape.NewCache(
		scrape.NewClient(httpClient, cfg.Scrape.RankingsURL, cfg.Scrape.EventsURL),
		cfg.Scrape.TTL, clock, log, metrics,
	)

	// Scheduler that keeps the news fresh and drops old charts.
	sched := scheduler.New(loc, 2*cfg.HTTPTimeout, log)
	if err := sched.AddRefresh("news", cfg.Scrape.Interval, news); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule news refresh")
	}
	if charts != nil {
		if err := sched.AddSweep("charts", time.Minute, memStore); err != nil {
			log.Fatal().Err(err).Msg("failed to schedule chart sweep")
		}
	}
	sched.Start()
	defer sched.Stop()

	views, err := httpapi.NewViews()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse templates")
	}
	app := httpapi.NewApp(views, log)

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	err = httpapi.RegisterRoutes(app, httpapi.Deps{
		Blog:     blogSvc,
		Atlas:    atlas,
		Forecast: forecasts,
		News:     news,
		Charts:   charts,
		Sessions: session.New(session.Config{
			Expiration:     cfg.SessionTTL,
			CookieHTTPOnly: true,
		}),
		Registry:   countries.Default(),
		Clock:      clock,
		Location:   loc,
		MapsAPIKey: cfg.GoogleMapsAPIKey,
		Logger:     log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register routes")
	}

	// Start server with graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Port).Msg("listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
}
