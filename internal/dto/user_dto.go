package dto

import (
	"time"

	"github.com/google/uuid"
)

// SyncUserRequest carries profile fields. The external id always comes from
// the verified token; body values only fill gaps in the token claims.
type SyncUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AddPointsRequest struct {
	UserID string `json:"user_id"`
	Points int    `json:"points"`
}

type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	ExternalID  string    `json:"external_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	TotalPoints int       `json:"total_points"`
	CreatedAt   time.Time `json:"created_at"`
}

type SyncUserResponse struct {
	Created bool         `json:"created"`
	User    UserResponse `json:"user"`
}
