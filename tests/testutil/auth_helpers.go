package testutil

import (
	"context"
	"errors"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/middleware"
)

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(subject string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  "https://test.auth0.com/",
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{},
	}
}

// MockAuthMiddleware sets up the context exactly as the real EnsureValidToken middleware does
func MockAuthMiddleware(subject, accessToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", subject)
		c.Set("access_token", accessToken)
		c.Set("validated_claims", MockValidatedClaims(subject))
		c.Next()
	}
}

// StaticTokenValidator maps bearer tokens to Auth0 subjects
type StaticTokenValidator map[string]string

// ValidateToken implements middleware.TokenValidator
func (v StaticTokenValidator) ValidateToken(ctx context.Context, token string) (interface{}, error) {
	subject, ok := v[token]
	if !ok {
		return nil, errors.New("token rejected")
	}
	return MockValidatedClaims(subject), nil
}
