package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	stdout := logging.Setup(cfg.LogLevel)

	rewards, err := config.LoadRewards(cfg.RewardsConfigPath)
	if err != nil {
		slog.Error("failed to load rewards config", "path", cfg.RewardsConfigPath, "error", err)
		os.Exit(1)
	}

	// The OIDC key set keeps the discovery context for later key refreshes.
	verifier, err := newVerifier(context.Background(), cfg)
	if err != nil {
		slog.Error("identity provider setup failed", "mode", cfg.AuthMode, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backend, err := openStore(ctx, cfg, stdout)
	if err != nil {
		slog.Error("store setup failed", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}

	uploader, err := newUploader(ctx, cfg)
	if err != nil {
		slog.Error("media setup failed", "driver", cfg.MediaDriver, "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	classifier, err := newClassifier(cfg, m)
	if err != nil {
		slog.Error("vision provider setup failed", "provider", cfg.AIProvider, "error", err)
		os.Exit(1)
	}

	publisher := newPublisher(cfg)
	limiterStorage := newLimiterStorage(ctx, cfg)

	// Services
	reportService := services.NewReportService(backend.store, uploader, classifier, publisher, rewards)
	collectionService := services.NewCollectionService(backend.store, uploader, classifier, publisher, rewards)
	userService := services.NewUserService(backend.store)
	leaderboardService := services.NewLeaderboardService(backend.store, rewards)

	// Handlers
	h := routes.Handlers{
		Health:      handlers.NewHealthHandler(backend.store, cfg.StoreDriver),
		Config:      handlers.NewConfigHandler(rewards),
		Reports:     handlers.NewReportHandler(reportService, collectionService, cfg.MaxImageBytes, m),
		Collections: handlers.NewCollectionHandler(collectionService, cfg.MaxImageBytes, m),
		Users:       handlers.NewUserHandler(userService, m),
		Leaderboard: handlers.NewLeaderboardHandler(leaderboardService),
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app; multipart photos need headroom over MAX_IMAGE_BYTES.
	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.MaxImageBytes + 1024*1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, routes.Deps{
		Config:         cfg,
		Verifier:       verifier,
		Metrics:        m,
		LimiterStorage: limiterStorage,
		Handlers:       h,
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "store", cfg.StoreDriver, "media", cfg.MediaDriver,
			"ai_provider", cfg.AIProvider, "auth_mode", cfg.AuthMode)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	publisher.Close()
	if limiterStorage != nil {
		if err := limiterStorage.Close(); err != nil {
			slog.Error("limiter storage close error", "error", err)
		}
	}
	backend.close()
	sentry.Flush(2 * time.Second)

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
