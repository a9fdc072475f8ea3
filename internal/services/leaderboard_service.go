package services

import (
	"context"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/store"
)

type Leaderboard struct {
	Entries     []models.LeaderboardEntry `json:"entries"`
	Placeholder bool                      `json:"placeholder"`
}

// placeholderEntries is served, clearly flagged, when the store is down.
var placeholderEntries = []models.LeaderboardEntry{
	{Name: "Demo User 1", TotalPoints: 150},
	{Name: "Demo User 2", TotalPoints: 120},
	{Name: "Demo User 3", TotalPoints: 100},
	{Name: "Demo User 4", TotalPoints: 85},
	{Name: "Demo User 5", TotalPoints: 70},
}

type LeaderboardService struct {
	store   store.Store
	rewards *config.Rewards
}

func NewLeaderboardService(st store.Store, rewards *config.Rewards) *LeaderboardService {
	return &LeaderboardService{store: st, rewards: rewards}
}

func (s *LeaderboardService) Top(ctx context.Context) (*Leaderboard, error) {
	entries, err := s.store.TopUsers(ctx, s.limit())
	if err != nil {
		if !s.rewards.Leaderboard.PlaceholderOnError {
			return nil, err
		}
		slog.Error("leaderboard query failed, serving placeholder", "action", "leaderboard.top", "error", err)
		demo := make([]models.LeaderboardEntry, len(placeholderEntries))
		copy(demo, placeholderEntries)
		return &Leaderboard{Entries: demo, Placeholder: true}, nil
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	return &Leaderboard{Entries: entries}, nil
}

// limit clamps the configured size for rewards that skipped Validate.
func (s *LeaderboardService) limit() int {
	n := s.rewards.Leaderboard.Size
	if n < 1 || n > config.MaxLeaderboardSize {
		return config.MaxLeaderboardSize
	}
	return n
}
