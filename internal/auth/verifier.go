// Package auth verifies bearer tokens against an external OIDC issuer.
// The service never mints tokens itself; identity is delegated entirely.
package auth

import (
	"context"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/weekwise/weekwise/internal/models"
)

// TokenVerifier validates an access token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, tokenString string) (*models.JWTClaims, error)
}

// Verifier verifies JWT tokens with keys from the issuer's JWKS endpoint.
type Verifier struct {
	jwks    *JWKSManager
	issuer  string
	jwksURL string
}

// NewVerifier creates a JWT verifier.
func NewVerifier(jwks *JWKSManager, issuer, jwksURL string) *Verifier {
	return &Verifier{jwks: jwks, issuer: issuer, jwksURL: jwksURL}
}

// Verify checks the token signature, validity window, and issuer, then
// extracts the claims the rest of the service needs.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	keys, err := v.jwks.GetJWKS(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS: %w", err)
	}

	token, err := jwt.Parse([]byte(tokenString), jwt.WithKeySet(keys), jwt.WithValidate(true))
	if err != nil {
		return nil, fmt.Errorf("failed to parse/verify token: %w", err)
	}

	if token.Issuer() != v.issuer {
		return nil, fmt.Errorf("token issuer mismatch: expected %s, got %s", v.issuer, token.Issuer())
	}

	claims := &models.JWTClaims{
		Sub: token.Subject(),
		Exp: token.Expiration().Unix(),
		Iat: token.IssuedAt().Unix(),
	}

	if email, ok := token.Get("email"); ok {
		if s, ok := email.(string); ok {
			claims.Email = s
		}
	}
	if name, ok := token.Get("name"); ok {
		if s, ok := name.(string); ok {
			claims.Name = s
		}
	}

	if claims.Sub == "" {
		return nil, fmt.Errorf("token missing subject claim")
	}
	return claims, nil
}

var _ TokenVerifier = (*Verifier)(nil)
