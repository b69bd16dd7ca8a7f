package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fenilmodi00/ipo-pipeline/config"
	"github.com/fenilmodi00/ipo-pipeline/database"
	"github.com/fenilmodi00/ipo-pipeline/handlers"
	"github.com/fenilmodi00/ipo-pipeline/jobs"
	"github.com/fenilmodi00/ipo-pipeline/services"
	"github.com/fenilmodi00/ipo-pipeline/shared"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load config
	cfg := config.LoadConfig()
	logCloser := shared.ConfigureLogging(cfg.Logging)
	defer logCloser.Close()

	log := logrus.WithField("component", "Main")

	// Postgres is optional; without it the upstream API is the only source
	var postgresSource *services.PostgresIPOSource
	if cfg.DatabaseURL != "" {
		if err := database.Connect(cfg.DatabaseURL); err != nil {
			log.WithError(err).Warn("Database unavailable, continuing without Postgres source")
		} else {
			defer database.Close()
			postgresSource = services.NewPostgresIPOSource(database.DB)
		}
	}

	httpFactory := shared.NewHTTPClientFactory(cfg.HTTPTimeout)
	defer httpFactory.CleanupAllClients()

	upstream := services.NewUpstreamClient(services.UpstreamConfig{
		BaseURL:    cfg.UpstreamBaseURL,
		APIVersion: cfg.UpstreamAPIVersion,
		Timeout:    cfg.HTTPTimeout,
		Retry:      shared.DefaultRetryPolicy(cfg.HTTPMaxRetries),
		RateLimit:  cfg.UpstreamRateLimit,
	}, httpFactory)

	var ipoSource services.IPOSource
	switch {
	case cfg.UpstreamBaseURL != "":
		ipoSource = upstream
	case postgresSource != nil:
		ipoSource = postgresSource
	default:
		log.Warn("Neither UPSTREAM_BASE_URL nor DATABASE_URL is usable, IPO endpoints will report unavailable")
	}

	location := cfg.Location()
	cache := services.NewEphemeralCache(nil)
	cacheMetrics := shared.NewServiceMetrics("Ephemeral_Cache")
	revalidator := services.NewRevalidator(cache, cfg.CacheMaxAge, cacheMetrics)

	pipeline := services.NewIPOPipeline(ipoSource, upstream, revalidator, location, nil)
	historyLoader := services.NewGMPHistoryLoader(upstream, revalidator)
	allotmentChecker := services.NewAllotmentChecker()

	log.WithFields(logrus.Fields{
		"upstream":        cfg.UpstreamBaseURL != "",
		"api_version":     cfg.UpstreamAPIVersion,
		"postgres":        postgresSource != nil,
		"cache_max_age":   cfg.CacheMaxAge,
		"market_timezone": location.String(),
	}).Info("IPO pipeline services initialized")

	// Background refresh
	refreshJob := jobs.NewRefreshJob(pipeline, historyLoader, cfg.RefreshConcurrency)
	if ipoSource != nil {
		if err := refreshJob.Start(cfg.RefreshSchedule); err != nil {
			log.WithError(err).Fatal("Failed to schedule refresh job")
		}
		defer refreshJob.Stop()
	}

	// Handlers
	serviceMetrics := []*shared.ServiceMetrics{pipeline.Metrics(), cacheMetrics, allotmentChecker.Metrics()}
	var forms handlers.RegistrarFormSource
	if postgresSource != nil {
		forms = postgresSource
		serviceMetrics = append(serviceMetrics, postgresSource.Metrics())
	}
	performanceHandler := handlers.NewPerformanceHandler(upstream.HTTPMetrics(), serviceMetrics...)
	performanceHandler.RateLimiters = map[string]*shared.HTTPRequestRateLimiter{
		"upstream":  upstream.RateLimiter(),
		"registrar": allotmentChecker.RateLimiter,
	}

	set := handlers.Set{
		IPO:         handlers.NewIPOHandler(pipeline),
		GMP:         handlers.NewGMPHandler(historyLoader),
		Transform:   handlers.NewTransformHandler(pipeline.Now),
		Check:       handlers.NewCheckHandler(forms, allotmentChecker, cache, cfg.CacheMaxAge),
		Market:      handlers.NewMarketHandler(pipeline),
		Cache:       handlers.NewCacheHandler(cache),
		Admin:       handlers.NewAdminHandler(refreshJob),
		Performance: performanceHandler,
	}

	// Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New())
	app.Use(performanceHandler.Track())

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		databaseStatus := "disabled"
		if database.DB != nil {
			databaseStatus = "ok"
			if err := database.HealthCheck(); err != nil {
				databaseStatus = err.Error()
			}
		}
		return c.JSON(fiber.Map{
			"status":     "ok",
			"timestamp":  time.Now().Unix(),
			"database":   databaseStatus,
			"cache_size": cache.Size(),
		})
	})

	handlers.RegisterRoutes(app, set)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("Shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Warn("Server shutdown failed")
		}
	}()

	// Start server
	log.Infof("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.WithError(err).Fatal("Server failed to start")
	}
	revalidator.Wait()

	for _, m := range serviceMetrics {
		m.LogSummary()
	}
}
