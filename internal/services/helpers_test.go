package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type upload struct {
	folder      string
	contentType string
	size        int
}

type fakeUploader struct {
	mu      sync.Mutex
	uploads []upload
	err     error
}

func (f *fakeUploader) Upload(_ context.Context, data []byte, contentType, folder string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.uploads = append(f.uploads, upload{folder: folder, contentType: contentType, size: len(data)})
	return "https://cdn.example/" + folder + "/img.jpg", nil
}

func (f *fakeUploader) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

type fakeClassifier struct {
	mu           sync.Mutex
	classifyResp string
	compareResp  string
	err          error
	calls        int
	lastURLs     []string
}

func (f *fakeClassifier) Classify(_ context.Context, imageURL, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastURLs = []string{imageURL}
	return f.classifyResp, f.err
}

func (f *fakeClassifier) Compare(_ context.Context, url1, url2, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastURLs = []string{url1, url2}
	return f.compareResp, f.err
}

func (f *fakeClassifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type published struct {
	subject string
	payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (r *recordingPublisher) Publish(_ context.Context, subject string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{subject: subject, payload: payload})
	return nil
}

func (r *recordingPublisher) Close() {}

// failingStore breaks the leaderboard query only.
type failingStore struct {
	*store.Memory
}

func (failingStore) TopUsers(context.Context, int) ([]models.LeaderboardEntry, error) {
	return nil, errors.New("connection refused")
}

// ghostUserStore resolves "ghost" to a user whose row no longer exists.
type ghostUserStore struct {
	*store.Memory
}

func (g ghostUserStore) FindUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	if externalID == "ghost" {
		return &models.User{ID: uuid.New(), ExternalID: "ghost"}, nil
	}
	return g.Memory.FindUserByExternalID(ctx, externalID)
}

func newUser(t *testing.T, st store.Store, externalID string) *models.User {
	t.Helper()
	u := &models.User{ExternalID: externalID, Name: externalID, Email: externalID + "@example.com"}
	_, err := st.FindOrCreateUser(context.Background(), u)
	require.NoError(t, err)
	return u
}

func points(t *testing.T, st store.Store, externalID string) int {
	t.Helper()
	u, err := st.FindUserByExternalID(context.Background(), externalID)
	require.NoError(t, err)
	return u.TotalPoints
}

func ptr(f float64) *float64 { return &f }

func defaultRewards() *config.Rewards { return config.DefaultRewards() }
