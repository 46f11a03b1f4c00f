package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/config"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/middleware"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/models"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/services"
)

// errorResponse builds the standard error envelope
func errorResponse(code, message string) gin.H {
	return gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

func identityService() *services.IdentityService {
	return services.NewIdentityService(config.GetDB(), services.NewAuth0Service(config.GetConfig()), config.GetLogger())
}

// resolveCaller maps the validated token in the context onto a local user
func resolveCaller(c *gin.Context) (*models.User, error) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		return nil, err
	}
	accessToken, _ := middleware.GetAccessToken(c)
	return identityService().Resolve(c.Request.Context(), auth0ID, accessToken)
}

// currentUser resolves the caller and writes the error response when it cannot
func currentUser(c *gin.Context) (*models.User, bool) {
	user, err := resolveCaller(c)
	if err == nil {
		return user, true
	}

	var authErr *middleware.AuthError
	switch {
	case errors.As(err, &authErr):
		c.JSON(http.StatusUnauthorized, errorResponse("UNAUTHORIZED", "Could not extract user information"))
	case errors.Is(err, services.ErrIdentityUnavailable):
		c.JSON(http.StatusBadGateway, errorResponse("AUTH0_ERROR", "Failed to fetch user information from Auth0"))
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, errorResponse("USER_NOT_FOUND", "User profile not found"))
	default:
		c.JSON(http.StatusInternalServerError, errorResponse("DATABASE_ERROR", "Failed to load user"))
	}
	return nil, false
}

// AdminChecker resolves admin roles against the current database
type AdminChecker struct{}

// IsAdminSubject implements middleware.AdminChecker
func (AdminChecker) IsAdminSubject(ctx context.Context, subject string) (bool, error) {
	return services.NewIdentityService(config.GetDB(), nil, config.GetLogger()).IsAdminSubject(ctx, subject)
}
