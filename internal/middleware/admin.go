package middleware

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/identity"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// AdminRequired admits callers presenting X-Admin-Token matching the
// configured bcrypt hash, or an identity listed in ADMIN_EXTERNAL_IDS.
// Mount it after an optional auth handler.
func AdminRequired(cfg *config.Config) fiber.Handler {
	adminIDs := parseCSV(cfg.AdminExternalIDs)
	tokenHash := []byte(cfg.AdminTokenHash)

	return func(c *fiber.Ctx) error {
		if token := c.Get("X-Admin-Token"); token != "" && len(tokenHash) > 0 {
			if bcrypt.CompareHashAndPassword(tokenHash, []byte(token)) == nil {
				return c.Next()
			}
		}

		id, err := identity.Get(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		if contains(adminIDs, id.ExternalID) {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
