package handlers

import (
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/config"
	"github.com/gofiber/fiber/v2"
)

// ConfigHandler exposes the reward table so clients display the same values
// the server pays out.
type ConfigHandler struct {
	rewards *config.Rewards
}

func NewConfigHandler(rewards *config.Rewards) *ConfigHandler {
	return &ConfigHandler{rewards: rewards}
}

func (h *ConfigHandler) GetConfig(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "public, max-age=300")
	return c.JSON(h.rewards)
}
