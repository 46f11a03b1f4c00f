package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/config"
	"go.uber.org/zap"
)

// ServiceKeyHeader carries the shared key for internal endpoints
const ServiceKeyHeader = "X-Service-Key"

// AdminChecker decides whether an authenticated subject holds the admin role
type AdminChecker interface {
	IsAdminSubject(ctx context.Context, subject string) (bool, error)
}

// RequireAdmin must run after EnsureValidToken. Role lookup errors deny access.
func RequireAdmin(checker AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, err := GetUserID(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Could not extract user information",
				},
			})
			return
		}

		isAdmin, err := checker.IsAdminSubject(c.Request.Context(), subject)
		if err != nil {
			config.GetLogger().Error("Admin role lookup failed", zap.String("subject", subject), zap.Error(err))
		}
		if err != nil || !isAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Admin access required",
				},
			})
			return
		}

		c.Next()
	}
}

// RequireServiceKey guards internal endpoints with a shared key.
// An empty key leaves the route open and relies on network-level trust.
func RequireServiceKey(key string) gin.HandlerFunc {
	if key == "" {
		config.GetLogger().Warn("SERVICE_API_KEY not set; internal endpoints rely on network-level trust")
	}

	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}

		provided := c.GetHeader(ServiceKeyHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_SERVICE_KEY",
					"message": "Missing or invalid service key",
				},
			})
			return
		}

		c.Next()
	}
}
