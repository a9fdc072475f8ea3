// Package identity turns bearer tokens from the hosted identity provider into
// the caller's external id, name and email.
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const localsKey = "identity"

var (
	ErrMissingSubject = errors.New("token has no subject")
	ErrNoIdentity     = errors.New("no identity in request context")
)

type Identity struct {
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}

// Verifier validates a raw bearer token.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (Identity, error)
}

// Set stores id on the request for downstream handlers.
func Set(c *fiber.Ctx, id Identity) {
	c.Locals(localsKey, id)
}

func Get(c *fiber.Ctx) (Identity, error) {
	id, ok := c.Locals(localsKey).(Identity)
	if !ok || id.ExternalID == "" {
		return Identity{}, ErrNoIdentity
	}
	return id, nil
}

// FromClaims reads sub, name and email. The display name falls back to
// given/family name or first/last name, which some providers emit instead.
func FromClaims(claims jwt.MapClaims) (Identity, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Identity{}, ErrMissingSubject
	}
	str := func(k string) string {
		s, _ := claims[k].(string)
		return strings.TrimSpace(s)
	}

	name := str("name")
	if name == "" {
		name = strings.TrimSpace(str("given_name") + " " + str("family_name"))
	}
	if name == "" {
		name = strings.TrimSpace(str("first_name") + " " + str("last_name"))
	}
	return Identity{ExternalID: sub, Name: name, Email: str("email")}, nil
}
