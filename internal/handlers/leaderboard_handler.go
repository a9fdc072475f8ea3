package handlers

import (
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type LeaderboardHandler struct {
	leaderboard *services.LeaderboardService
}

func NewLeaderboardHandler(leaderboard *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard}
}

func (h *LeaderboardHandler) Top(c *fiber.Ctx) error {
	board, err := h.leaderboard.Top(c.UserContext())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(board)
}
