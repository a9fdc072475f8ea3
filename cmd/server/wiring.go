package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/media"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/ratelimit"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/store"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/vision"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// backend is the opened record store plus whatever must be released with it.
type backend struct {
	store    store.Store
	shutdown []func()
}

func (b *backend) close() {
	for i := len(b.shutdown) - 1; i >= 0; i-- {
		b.shutdown[i]()
	}
}

func openStore(ctx context.Context, cfg *config.Config, stdout slog.Handler) (*backend, error) {
	switch cfg.StoreDriver {
	case "postgres":
		if cfg.DBPassword == "" {
			return nil, fmt.Errorf("DB_PASSWORD environment variable is required")
		}
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}

		// PostgreSQL log handler (ERROR+ async batch)
		pgLogHandler := logging.NewPGHandler(db)
		slog.SetDefault(slog.New(logging.NewMultiHandler(stdout, pgLogHandler)))

		// Log cleanup (30-day retention)
		cleanup, err := logging.StartCleanup(db)
		if err != nil {
			return nil, fmt.Errorf("log cleanup schedule: %w", err)
		}

		return &backend{
			store: store.NewGorm(db),
			shutdown: []func(){
				func() {
					if err := database.Close(db); err != nil {
						slog.Error("database close error", "error", err)
					}
				},
				pgLogHandler.Stop,
				func() { <-cleanup.Stop().Done() },
			},
		}, nil

	case "mongo":
		mdb, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		ms := store.NewMongo(mdb)
		if err := ms.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return &backend{
			store: ms,
			shutdown: []func(){func() {
				dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := mdb.Client().Disconnect(dctx); err != nil {
					slog.Error("mongo disconnect error", "error", err)
				}
			}},
		}, nil

	case "memory":
		slog.Warn("using in-memory store, data is lost on restart")
		return &backend{store: store.NewMemory()}, nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

func newUploader(ctx context.Context, cfg *config.Config) (media.Uploader, error) {
	switch cfg.MediaDriver {
	case "s3":
		return media.NewS3(ctx, media.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
		})
	case "local":
		if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
			return nil, fmt.Errorf("upload dir: %w", err)
		}
		return media.NewLocal(cfg.UploadDir, cfg.PublicBaseURL), nil
	}
	return nil, fmt.Errorf("unknown MEDIA_DRIVER %q", cfg.MediaDriver)
}

func newClassifier(cfg *config.Config, m *metrics.Metrics) (vision.Classifier, error) {
	// Per-call deadlines come from Paced; the client timeout is a backstop.
	client := &http.Client{Timeout: cfg.AITimeout + 5*time.Second}

	var provider vision.Classifier
	switch cfg.AIProvider {
	case "openai":
		if cfg.AIAPIKey == "" {
			return nil, fmt.Errorf("AI_API_KEY environment variable is required")
		}
		provider = vision.NewOpenAI(cfg.AIAPIURL, cfg.AIAPIKey, cfg.AIVisionModel, client)
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
		}
		provider = vision.NewGemini(cfg.GeminiAPIURL, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ImageFetchMax, client)
	default:
		return nil, fmt.Errorf("unknown AI_PROVIDER %q", cfg.AIProvider)
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.AIRatePerSec), cfg.AIRateBurst)
	return vision.NewPaced(provider, limiter, cfg.AITimeout, m.ObserveClassifier), nil
}

func newVerifier(ctx context.Context, cfg *config.Config) (identity.Verifier, error) {
	switch cfg.AuthMode {
	case "oidc":
		if cfg.OIDCIssuer == "" {
			return nil, fmt.Errorf("OIDC_ISSUER environment variable is required")
		}
		return identity.NewOIDC(ctx, cfg.OIDCIssuer, cfg.OIDCAudience)
	case "hs256":
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required")
		}
		return nil, nil
	}
	return nil, fmt.Errorf("unknown AUTH_MODE %q", cfg.AuthMode)
}

func newPublisher(cfg *config.Config) events.Publisher {
	if cfg.NATSURL == "" {
		return events.Noop{}
	}
	pub, err := events.NewNATS(cfg.NATSURL)
	if err != nil {
		slog.Error("nats unavailable, events disabled", "error", err)
		return events.Noop{}
	}
	return pub
}

// newLimiterStorage returns nil (in-memory limiter) when REDIS_URL is unset.
func newLimiterStorage(ctx context.Context, cfg *config.Config) fiber.Storage {
	if cfg.RedisURL == "" {
		return nil
	}
	s, err := ratelimit.NewRedisStorage(ctx, cfg.RedisURL, "wastehunt:limiter:")
	if err != nil {
		slog.Error("redis unavailable, rate limits are per instance", "error", err)
		return nil
	}
	return s
}
