// Package store persists users and waste reports. All backends honor the same
// contract: point increments are atomic and a report flips to collected at
// most once.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/geo"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/models"
	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrUserNotFound     = errors.New("user to credit not found")
	ErrAlreadyCollected = errors.New("report already collected")
)

// ReportFilter narrows ListReports. Zero value lists everything.
type ReportFilter struct {
	OnlyOutstanding bool
	Within          *geo.Box
	Limit           int
}

// Collection describes a verified pickup to be applied by CompleteCollection.
type Collection struct {
	ReportID    uuid.UUID
	CollectorID uuid.UUID
	ProofURL    string
	At          time.Time
	Points      int
}

type Store interface {
	Ping(ctx context.Context) error

	FindUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	// FindOrCreateUser inserts u unless a user with the same external id
	// exists, in which case u is overwritten with the stored record.
	FindOrCreateUser(ctx context.Context, u *models.User) (created bool, err error)
	UpdateUserProfile(ctx context.Context, id uuid.UUID, name, email string) error
	IncrementUserPoints(ctx context.Context, externalID string, delta int) (*models.User, error)
	TopUsers(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)

	// CreateReport inserts the report and credits the reporter as one unit.
	// Returns ErrUserNotFound when the reporter row is missing.
	CreateReport(ctx context.Context, report *models.WasteReport, credit int) error
	FindReport(ctx context.Context, id uuid.UUID) (*models.WasteReport, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]models.WasteReport, error)
	// CompleteCollection flips collected from false to true and credits the
	// collector. Returns ErrAlreadyCollected when the flip was lost and
	// ErrUserNotFound when the collector row is missing.
	CompleteCollection(ctx context.Context, c Collection) (*models.WasteReport, error)
	// MarkCollected flips collected without crediting anyone. changed is false
	// when the report was already collected.
	MarkCollected(ctx context.Context, id uuid.UUID, at time.Time) (report *models.WasteReport, changed bool, err error)
}
