package middleware

import (
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/identity"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JWTProtected validates HS256 tokens signed with a shared secret. With
// optional set, requests without an Authorization header pass through
// anonymously.
func JWTProtected(secret string, optional bool) fiber.Handler {
	cfg := jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(secret)},
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals("user").(*jwt.Token)
			if !ok {
				return unauthorized(c)
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return unauthorized(c)
			}
			id, err := identity.FromClaims(claims)
			if err != nil {
				return unauthorized(c)
			}
			identity.Set(c, id)
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return unauthorized(c)
		},
	}
	if optional {
		cfg.Filter = func(c *fiber.Ctx) bool { return c.Get(fiber.HeaderAuthorization) == "" }
	}
	return jwtware.New(cfg)
}

// TokenProtected verifies bearer tokens with v, typically an OIDC issuer.
func TokenProtected(v identity.Verifier, optional bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" && optional {
			return c.Next()
		}
		if !strings.HasPrefix(header, "Bearer ") {
			return unauthorized(c)
		}

		id, err := v.Verify(c.UserContext(), strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			slog.Warn("token verification failed", "error", err, "trace_id", c.Locals("requestid"))
			return unauthorized(c)
		}
		identity.Set(c, id)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error:   true,
		Message: "Unauthorized: invalid or expired token",
	})
}
