package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type Handlers struct {
	Health      *handlers.HealthHandler
	Config      *handlers.ConfigHandler
	Reports     *handlers.ReportHandler
	Collections *handlers.CollectionHandler
	Users       *handlers.UserHandler
	Leaderboard *handlers.LeaderboardHandler
}

type Deps struct {
	Config *config.Config
	// Verifier checks OIDC tokens; nil selects HS256 with Config.JWTSecret.
	Verifier identity.Verifier
	Metrics  *metrics.Metrics
	// LimiterStorage is shared limiter state; nil keeps counters in memory.
	LimiterStorage fiber.Storage
	Handlers       Handlers
}

func Setup(app *fiber.App, d Deps) {
	h := d.Handlers

	if d.Metrics != nil {
		app.Use(d.Metrics.Middleware())
		app.Get("/metrics", d.Metrics.Handler())
	}

	if d.Config.MediaDriver == "local" {
		app.Static("/uploads", d.Config.UploadDir, fiber.Static{MaxAge: 3600})
	}

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(newLimiter(60, d.LimiterStorage))

	api.Get("/health", h.Health.Check)
	api.Get("/config", h.Config.GetConfig)
	api.Get("/leaderboard", h.Leaderboard.Top)

	api.Get("/reports", h.Reports.List)
	api.Get("/reports/:id", h.Reports.Get)

	// Uploads hit storage and the vision model: 10 req/min per IP
	uploads := newLimiter(10, d.LimiterStorage)
	api.Post("/reports", uploads, authenticate(d, false), h.Reports.Create)
	api.Post("/collections", uploads, authenticate(d, false), h.Collections.Submit)

	api.Post("/users/sync", authenticate(d, false), h.Users.Sync)
	api.Get("/users/me", authenticate(d, false), h.Users.Me)

	// Admins authenticate with X-Admin-Token or a listed identity.
	admin := api.Group("/admin", authenticate(d, true), middleware.AdminRequired(d.Config))
	admin.Post("/reports/:id/collected", h.Collections.MarkCollected)
	admin.Post("/users/points", h.Users.AddPoints)
}

func authenticate(d Deps, optional bool) fiber.Handler {
	if d.Verifier != nil {
		return middleware.TokenProtected(d.Verifier, optional)
	}
	return middleware.JWTProtected(d.Config.JWTSecret, optional)
}

func newLimiter(max int, storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		Storage:           storage,
	})
}
