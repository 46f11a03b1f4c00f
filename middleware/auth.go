package middleware

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/config"
	"go.uber.org/zap"
)

const (
	contextUserID      = "user_id"
	contextClaims      = "validated_claims"
	contextAccessToken = "access_token"
)

// CustomClaims contains custom data we want from the token.
type CustomClaims struct {
	Scope string `json:"scope"`
}

// Validate does nothing; roles are read from the database, not from the token.
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// TokenValidator verifies a raw bearer token and returns its validated claims.
// *validator.Validator satisfies it.
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (interface{}, error)
}

// NewAuth0Validator builds a JWT validator backed by the tenant's JWKS
func NewAuth0Validator(cfg *config.Config) (*validator.Validator, error) {
	issuerURL, err := url.Parse("https://" + cfg.Auth0Domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	return validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{cfg.Auth0Audience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
}

// EnsureValidToken is a middleware that rejects requests without a valid JWT.
func EnsureValidToken(tokenValidator TokenValidator) gin.HandlerFunc {
	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		config.GetLogger().Info("Rejected request with invalid JWT", zap.Error(err), zap.String("path", r.URL.Path))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		if _, writeErr := w.Write([]byte(`{"success":false,"error":{"code":"INVALID_TOKEN","message":"Failed to validate JWT."}}`)); writeErr != nil {
			config.GetLogger().Warn("Failed to write error response", zap.Error(writeErr))
		}
	}

	mw := jwtmiddleware.New(
		tokenValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
	)

	return func(c *gin.Context) {
		validated := false
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
			if !ok {
				return
			}
			token, _ := jwtmiddleware.AuthHeaderTokenExtractor(r)
			setIdentity(c, claims, token)
			validated = true
		}

		mw.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)

		if !validated {
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalToken records the caller's identity when a valid JWT is present and
// lets every request through otherwise.
func OptionalToken(tokenValidator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := jwtmiddleware.AuthHeaderTokenExtractor(c.Request)
		if err != nil || token == "" {
			c.Next()
			return
		}

		result, err := tokenValidator.ValidateToken(c.Request.Context(), token)
		if err != nil {
			config.GetLogger().Debug("Ignoring invalid optional JWT", zap.Error(err))
			c.Next()
			return
		}

		if claims, ok := result.(*validator.ValidatedClaims); ok {
			setIdentity(c, claims, token)
		}
		c.Next()
	}
}

func setIdentity(c *gin.Context, claims *validator.ValidatedClaims, token string) {
	c.Set(contextUserID, claims.RegisteredClaims.Subject)
	c.Set(contextClaims, claims)
	c.Set(contextAccessToken, token)
}

// GetUserID extracts the Auth0 subject from the Gin context
func GetUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get(contextUserID)
	if !exists {
		return "", &AuthError{Code: "MISSING_USER_ID", Message: "User ID not found in context"}
	}

	userIDStr, ok := userID.(string)
	if !ok || userIDStr == "" {
		return "", &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not a string"}
	}

	return userIDStr, nil
}

// GetAccessToken extracts the raw bearer token from the Gin context
func GetAccessToken(c *gin.Context) (string, error) {
	token, exists := c.Get(contextAccessToken)
	if !exists {
		return "", &AuthError{Code: "MISSING_TOKEN", Message: "Access token not found in context"}
	}

	tokenStr, ok := token.(string)
	if !ok {
		return "", &AuthError{Code: "INVALID_TOKEN", Message: "Access token is not a string"}
	}

	return tokenStr, nil
}

// GetClaims extracts the validated JWT claims from the Gin context
func GetClaims(c *gin.Context) (*validator.ValidatedClaims, error) {
	claims, exists := c.Get(contextClaims)
	if !exists {
		return nil, &AuthError{Code: "MISSING_CLAIMS", Message: "Claims not found in context"}
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Claims are not in the expected format"}
	}

	return validatedClaims, nil
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
