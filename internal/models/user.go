package models

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors an identity-provider account. Created lazily on first sync.
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ExternalID  string    `gorm:"size:255;not null;uniqueIndex" json:"external_id"`
	Name        string    `gorm:"size:255" json:"name"`
	Email       string    `gorm:"size:255" json:"email"`
	TotalPoints int       `gorm:"not null;default:0;index" json:"total_points"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LeaderboardEntry is the projection served by the leaderboard.
type LeaderboardEntry struct {
	Name        string `json:"name"`
	TotalPoints int    `json:"total_points"`
}
