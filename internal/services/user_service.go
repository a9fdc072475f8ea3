package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/store"
)

type SyncUserInput struct {
	ExternalID string
	Name       string
	Email      string
}

type UserService struct {
	store store.Store
}

func NewUserService(st store.Store) *UserService {
	return &UserService{store: st}
}

// Sync returns the user for the external id, creating it on first sight.
// Existing users are left as stored except that empty name or email fields
// are filled in.
func (s *UserService) Sync(ctx context.Context, in SyncUserInput) (*models.User, bool, error) {
	in.ExternalID = strings.TrimSpace(in.ExternalID)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.ExternalID == "" || in.Name == "" || in.Email == "" {
		return nil, false, fmt.Errorf("%w: external id, name and email are required", ErrValidation)
	}

	user := &models.User{ExternalID: in.ExternalID, Name: in.Name, Email: in.Email}
	created, err := s.store.FindOrCreateUser(ctx, user)
	if err != nil {
		return nil, false, fmt.Errorf("sync user: %w", err)
	}
	if created {
		slog.Info("user created", "user_id", user.ExternalID)
		return user, true, nil
	}

	if user.Name == "" || user.Email == "" {
		if user.Name == "" {
			user.Name = in.Name
		}
		if user.Email == "" {
			user.Email = in.Email
		}
		if err := s.store.UpdateUserProfile(ctx, user.ID, user.Name, user.Email); err != nil {
			return nil, false, fmt.Errorf("backfill profile: %w", err)
		}
	}
	return user, false, nil
}

func (s *UserService) Get(ctx context.Context, externalID string) (*models.User, error) {
	return resolveUser(ctx, s.store, externalID)
}

// AddPoints credits points atomically. Totals never decrease, so negative
// values are rejected.
func (s *UserService) AddPoints(ctx context.Context, externalID string, points int) (*models.User, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if points < 0 {
		return nil, fmt.Errorf("%w: points must not be negative", ErrValidation)
	}

	user, err := s.store.IncrementUserPoints(ctx, externalID, points)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("add points: %w", err)
	}
	return user, nil
}

func resolveUser(ctx context.Context, st store.Store, externalID string) (*models.User, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	user, err := st.FindUserByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	return user, nil
}
