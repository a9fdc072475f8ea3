package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/geo"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/models"
	"github.com/google/uuid"
)

var _ Store = (*Memory)(nil)

// Memory is a process-local backend for development and tests. One mutex
// guards both maps so the transactional operations stay atomic.
type Memory struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*models.User
	byExt   map[string]uuid.UUID
	reports map[uuid.UUID]*models.WasteReport
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:   make(map[uuid.UUID]*models.User),
		byExt:   make(map[string]uuid.UUID),
		reports: make(map[uuid.UUID]*models.WasteReport),
		now:     time.Now,
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) FindUserByExternalID(_ context.Context, externalID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byExt[externalID]
	if !ok {
		return nil, ErrNotFound
	}
	u := *m.users[id]
	return &u, nil
}

func (m *Memory) FindOrCreateUser(_ context.Context, u *models.User) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byExt[u.ExternalID]; ok {
		*u = *m.users[id]
		return false, nil
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := m.now()
	u.CreatedAt, u.UpdatedAt = now, now
	stored := *u
	m.users[u.ID] = &stored
	m.byExt[u.ExternalID] = u.ID
	return true, nil
}

func (m *Memory) UpdateUserProfile(_ context.Context, id uuid.UUID, name, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Name, u.Email = name, email
	u.UpdatedAt = m.now()
	return nil
}

func (m *Memory) IncrementUserPoints(_ context.Context, externalID string, delta int) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byExt[externalID]
	if !ok {
		return nil, ErrNotFound
	}
	u := m.users[id]
	u.TotalPoints += delta
	u.UpdatedAt = m.now()
	out := *u
	return &out, nil
}

func (m *Memory) TopUsers(_ context.Context, limit int) ([]models.LeaderboardEntry, error) {
	m.mu.Lock()
	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, *u)
	}
	m.mu.Unlock()

	sort.SliceStable(users, func(i, j int) bool {
		if users[i].TotalPoints != users[j].TotalPoints {
			return users[i].TotalPoints > users[j].TotalPoints
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}

	entries := make([]models.LeaderboardEntry, len(users))
	for i, u := range users {
		entries[i] = models.LeaderboardEntry{Name: u.Name, TotalPoints: u.TotalPoints}
	}
	return entries, nil
}

func (m *Memory) CreateReport(_ context.Context, report *models.WasteReport, credit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	reporter, ok := m.users[report.ReporterID]
	if !ok {
		return ErrUserNotFound
	}
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	now := m.now()
	report.CreatedAt, report.UpdatedAt = now, now

	stored := *report
	m.reports[report.ID] = &stored
	reporter.TotalPoints += credit
	reporter.UpdatedAt = now
	return nil
}

func (m *Memory) FindReport(_ context.Context, id uuid.UUID) (*models.WasteReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *r
	return &out, nil
}

func (m *Memory) ListReports(_ context.Context, filter ReportFilter) ([]models.WasteReport, error) {
	m.mu.Lock()
	out := make([]models.WasteReport, 0, len(m.reports))
	for _, r := range m.reports {
		if filter.OnlyOutstanding && r.Collected {
			continue
		}
		if filter.Within != nil && !filter.Within.Contains(geo.Point{Latitude: r.Latitude, Longitude: r.Longitude}) {
			continue
		}
		out = append(out, *r)
	}
	m.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *Memory) CompleteCollection(_ context.Context, c Collection) (*models.WasteReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reports[c.ReportID]
	if !ok {
		return nil, ErrNotFound
	}
	if r.Collected {
		return nil, ErrAlreadyCollected
	}
	collector, ok := m.users[c.CollectorID]
	if !ok {
		return nil, ErrUserNotFound
	}

	at := c.At
	collectorID := c.CollectorID
	r.Collected = true
	r.CollectedBy = &collectorID
	r.CollectedAt = &at
	r.CollectionProof = c.ProofURL
	r.UpdatedAt = m.now()

	collector.TotalPoints += c.Points
	collector.UpdatedAt = r.UpdatedAt

	out := *r
	return &out, nil
}

func (m *Memory) MarkCollected(_ context.Context, id uuid.UUID, at time.Time) (*models.WasteReport, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reports[id]
	if !ok {
		return nil, false, ErrNotFound
	}
	changed := !r.Collected
	if changed {
		r.Collected = true
		r.CollectedAt = &at
		r.UpdatedAt = m.now()
	}
	out := *r
	return &out, changed, nil
}
