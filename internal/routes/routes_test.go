package routes

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/media"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type nopClassifier struct{}

func (nopClassifier) Classify(context.Context, string, string) (string, error) {
	return "", nil
}

func (nopClassifier) Compare(context.Context, string, string, string) (string, error) {
	return "", nil
}

func newApp(t *testing.T) (*fiber.App, *store.Memory) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-token"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{
		AuthMode:         "hs256",
		JWTSecret:        testSecret,
		MediaDriver:      "local",
		UploadDir:        t.TempDir(),
		AdminTokenHash:   string(hash),
		AdminExternalIDs: "ops|1",
		MaxImageBytes:    1024 * 1024,
	}
	rewards := config.DefaultRewards()
	st := store.NewMemory()
	up := media.NewLocal(cfg.UploadDir, "http://localhost")
	m := metrics.New()

	reportSvc := services.NewReportService(st, up, nopClassifier{}, events.Noop{}, rewards)
	collectionSvc := services.NewCollectionService(st, up, nopClassifier{}, events.Noop{}, rewards)

	app := fiber.New()
	Setup(app, Deps{
		Config:  cfg,
		Metrics: m,
		Handlers: Handlers{
			Health:      handlers.NewHealthHandler(st, "memory"),
			Config:      handlers.NewConfigHandler(rewards),
			Reports:     handlers.NewReportHandler(reportSvc, collectionSvc, cfg.MaxImageBytes, m),
			Collections: handlers.NewCollectionHandler(collectionSvc, cfg.MaxImageBytes, m),
			Users:       handlers.NewUserHandler(services.NewUserService(st), m),
			Leaderboard: handlers.NewLeaderboardHandler(services.NewLeaderboardService(st, rewards)),
		},
	})
	return app, st
}

func bearer(t *testing.T, sub string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"name":  "Test " + sub,
		"email": sub + "@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func send(t *testing.T, app *fiber.App, method, path string, headers map[string]string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestPublicRoutes(t *testing.T) {
	app, _ := newApp(t)

	for _, path := range []string{"/api/health", "/api/config", "/api/leaderboard", "/api/reports"} {
		code, body := send(t, app, fiber.MethodGet, path, nil)
		assert.Equal(t, fiber.StatusOK, code, path+": "+body)
	}

	code, body := send(t, app, fiber.MethodGet, "/metrics", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, "wastehunt_http_requests_total")
}

func TestUserRoutesRequireToken(t *testing.T) {
	app, _ := newApp(t)

	code, _ := send(t, app, fiber.MethodGet, "/api/users/me", nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, _ = send(t, app, fiber.MethodPost, "/api/reports", nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)

	auth := map[string]string{fiber.HeaderAuthorization: bearer(t, "auth0|7")}
	code, body := send(t, app, fiber.MethodPost, "/api/users/sync", auth)
	require.Equal(t, fiber.StatusCreated, code, body)
	assert.Contains(t, body, `"external_id":"auth0|7"`)

	code, _ = send(t, app, fiber.MethodGet, "/api/users/me", auth)
	assert.Equal(t, fiber.StatusOK, code)
}

func TestAdminRoutes(t *testing.T) {
	app, st := newApp(t)
	u := &models.User{ExternalID: "reporter", Name: "r", Email: "r@example.com"}
	_, err := st.FindOrCreateUser(context.Background(), u)
	require.NoError(t, err)
	r := &models.WasteReport{ReporterID: u.ID, ImageURL: "x", Latitude: 1, Longitude: 1, WasteType: "metal", Amount: 1, Points: 5}
	require.NoError(t, st.CreateReport(context.Background(), r, r.Points))
	path := "/api/admin/reports/" + r.ID.String() + "/collected"

	code, _ := send(t, app, fiber.MethodPost, path, nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, _ = send(t, app, fiber.MethodPost, path, map[string]string{fiber.HeaderAuthorization: bearer(t, "someone")})
	assert.Equal(t, fiber.StatusForbidden, code)

	code, body := send(t, app, fiber.MethodPost, path, map[string]string{"X-Admin-Token": "admin-token"})
	require.Equal(t, fiber.StatusOK, code, body)
	assert.Contains(t, body, `"changed":true`)

	code, _ = send(t, app, fiber.MethodPost, "/api/admin/reports/"+uuid.NewString()+"/collected",
		map[string]string{fiber.HeaderAuthorization: bearer(t, "ops|1")})
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestAdminAddPoints(t *testing.T) {
	app, st := newApp(t)
	_, err := st.FindOrCreateUser(context.Background(), &models.User{ExternalID: "u1", Name: "u", Email: "u@example.com"})
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodPost, "/api/admin/users/points", bytes.NewBufferString(`{"user_id":"u1","points":7}`))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	req.Header.Set("X-Admin-Token", "admin-token")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	u, err := st.FindUserByExternalID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 7, u.TotalPoints)
}

func TestUploadRoutesAreRateLimited(t *testing.T) {
	app, _ := newApp(t)

	var last int
	for i := 0; i < 11; i++ {
		last, _ = send(t, app, fiber.MethodPost, "/api/collections", nil)
	}
	assert.Equal(t, fiber.StatusTooManyRequests, last)
}

func TestUploadsServedStatically(t *testing.T) {
	app, _ := newApp(t)
	code, _ := send(t, app, fiber.MethodGet, "/uploads/missing.jpg", nil)
	assert.Equal(t, fiber.StatusNotFound, code)
}
