package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Record store: "postgres", "mongo" or "memory"
	StoreDriver string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// MongoDB
	MongoURI string
	MongoDB  string

	// Identity provider ("oidc" or "hs256")
	AuthMode     string
	OIDCIssuer   string
	OIDCAudience string
	JWTSecret    string

	// Media
	MediaDriver   string
	UploadDir     string
	PublicBaseURL string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3PublicURL   string
	MaxImageBytes int

	// AI provider ("openai" or "gemini")
	AIProvider    string
	AIAPIKey      string
	AIAPIURL      string
	AIVisionModel string
	GeminiAPIKey  string
	GeminiAPIURL  string
	GeminiModel   string
	AITimeout     time.Duration
	AIRatePerSec  float64
	AIRateBurst   int
	ImageFetchMax int

	// Admin
	AdminExternalIDs string
	AdminTokenHash   string

	// Infra
	RedisURL string
	NATSURL  string

	// Server
	Port        string
	CORSOrigins string
	AppEnv      string
	LogLevel    string
	SentryDSN   string

	// Rewards
	RewardsConfigPath string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	return &Config{
		StoreDriver: getEnv("STORE_DRIVER", "postgres"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "wastehunt"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		MongoURI: getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGODB_DB", "wastehunt"),

		AuthMode:     getEnv("AUTH_MODE", "oidc"),
		OIDCIssuer:   getEnv("OIDC_ISSUER", ""),
		OIDCAudience: getEnv("OIDC_AUDIENCE", ""),
		JWTSecret:    getEnv("JWT_SECRET", ""),

		MediaDriver:   getEnv("MEDIA_DRIVER", "local"),
		UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		S3Bucket:      getEnv("S3_BUCKET", ""),
		S3Region:      getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:    getEnv("S3_ENDPOINT", ""),
		S3PublicURL:   getEnv("S3_PUBLIC_URL", ""),
		MaxImageBytes: getEnvInt("MAX_IMAGE_BYTES", 10*1024*1024),

		AIProvider:    getEnv("AI_PROVIDER", "gemini"),
		AIAPIKey:      getEnv("AI_API_KEY", ""),
		AIAPIURL:      getEnv("AI_API_URL", "https://api.openai.com/v1/chat/completions"),
		AIVisionModel: getEnv("AI_VISION_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiAPIURL:  getEnv("GEMINI_API_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		AITimeout:     parseDuration(getEnv("AI_TIMEOUT", "60s")),
		AIRatePerSec:  getEnvFloat("AI_RATE_PER_SEC", 2),
		AIRateBurst:   getEnvInt("AI_RATE_BURST", 4),
		ImageFetchMax: getEnvInt("IMAGE_FETCH_MAX_BYTES", 10*1024*1024),

		AdminExternalIDs: getEnv("ADMIN_EXTERNAL_IDS", ""),
		AdminTokenHash:   getEnv("ADMIN_TOKEN_HASH", ""),

		RedisURL: getEnv("REDIS_URL", ""),
		NATSURL:  getEnv("NATS_URL", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		AppEnv:      getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),

		RewardsConfigPath: getEnv("REWARDS_CONFIG", ""),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "default", fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		slog.Warn("invalid number in environment, using default", "key", key, "default", fallback)
		return fallback
	}
	return f
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 60 * time.Second
	}
	return d
}
