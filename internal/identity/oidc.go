package identity

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// OIDC verifies ID tokens against an issuer's published keys. An empty
// audience skips the aud check, which session tokens from some hosted
// providers need.
type OIDC struct {
	verifier *oidc.IDTokenVerifier
}

func NewOIDC(ctx context.Context, issuer, audience string) (*OIDC, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}
	return &OIDC{verifier: provider.Verifier(verifierConfig(audience))}, nil
}

// NewOIDCWithKeySet skips discovery and verifies against keys directly.
func NewOIDCWithKeySet(issuer, audience string, keys oidc.KeySet) *OIDC {
	return &OIDC{verifier: oidc.NewVerifier(issuer, keys, verifierConfig(audience))}
}

func verifierConfig(audience string) *oidc.Config {
	if audience == "" {
		return &oidc.Config{SkipClientIDCheck: true}
	}
	return &oidc.Config{ClientID: audience}
}

func (o *OIDC) Verify(ctx context.Context, rawToken string) (Identity, error) {
	tok, err := o.verifier.Verify(ctx, rawToken)
	if err != nil {
		return Identity{}, err
	}
	var claims jwt.MapClaims
	if err := tok.Claims(&claims); err != nil {
		return Identity{}, fmt.Errorf("decode claims: %w", err)
	}
	return FromClaims(claims)
}
