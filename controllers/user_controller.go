package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/config"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/models"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/services"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UpdateProfileRequest represents the request body for updating a user profile
type UpdateProfileRequest struct {
	FullName string `json:"full_name" binding:"omitempty,max=120"`
	Email    string `json:"email" binding:"omitempty"`
}

// ChangePasswordRequest represents the request body for changing a password
type ChangePasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// GetMyProfile handles GET /api/v1/users/me - gets current user's profile
func GetMyProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	isAdmin, err := identityService().IsAdmin(c.Request.Context(), user.ID)
	if err != nil {
		config.GetLogger().Warn("Role lookup failed for profile", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	withAvatarURL(c, user)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"data":     user,
		"is_admin": isAdmin,
	})
}

// UpdateMyProfile handles PUT /api/v1/users/me - updates the name and/or email.
// Email changes go to Auth0 first and then follow through to subscription rows.
func UpdateMyProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())
	updates := make(map[string]interface{})
	if name := strings.TrimSpace(req.FullName); name != "" {
		updates["full_name"] = name
	}

	newEmail := ""
	if req.Email != "" {
		email, err := utils.ValidateEmail(req.Email)
		if err != nil {
			validationErr := err.(*utils.ValidationError)
			c.JSON(http.StatusBadRequest, errorResponse(validationErr.Code, validationErr.Message))
			return
		}
		if email != user.Email {
			var taken int64
			if err := db.Model(&models.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&taken).Error; err != nil {
				config.GetLogger().Error("Email uniqueness check failed", zap.Uint("user_id", user.ID), zap.Error(err))
				c.JSON(http.StatusInternalServerError, errorResponse("DATABASE_ERROR", "Failed to update user profile"))
				return
			}
			if taken > 0 {
				c.JSON(http.StatusConflict, errorResponse("EMAIL_EXISTS", "A user with this email already exists"))
				return
			}
			newEmail = email
			updates["email"] = email
		}
	}

	if len(updates) == 0 {
		withAvatarURL(c, user)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    user,
		})
		return
	}

	if newEmail != "" && user.Auth0ID != nil {
		err := services.GetIdentityManager().UpdateUser(c.Request.Context(), *user.Auth0ID, services.Auth0UserUpdate{Email: newEmail})
		if err != nil {
			writeIdentityError(c, err)
			return
		}
	}

	if err := db.Model(user).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, errorResponse("EMAIL_EXISTS", "A user with this email already exists"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("DATABASE_ERROR", "Failed to update user profile"))
		return
	}

	if newEmail != "" {
		if err := db.Model(&models.Subscription{}).Where("user_id = ?", user.ID).Update("user_email", newEmail).Error; err != nil {
			config.GetLogger().Error("Failed to move subscriptions to new email", zap.Uint("user_id", user.ID), zap.Error(err))
		}
	}

	var updated models.User
	if err := db.First(&updated, user.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("DATABASE_ERROR", "Failed to fetch updated profile"))
		return
	}
	withAvatarURL(c, &updated)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    updated,
	})
}

// ChangePassword handles PUT /api/v1/users/me/password
func ChangePassword(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "Password is required"))
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		validationErr := err.(*utils.ValidationError)
		c.JSON(http.StatusBadRequest, errorResponse(validationErr.Code, validationErr.Message))
		return
	}
	if user.Auth0ID == nil {
		c.JSON(http.StatusBadRequest, errorResponse("NOT_LINKED", "User is not linked to an identity"))
		return
	}

	if err := services.GetIdentityManager().UpdateUser(c.Request.Context(), *user.Auth0ID, services.Auth0UserUpdate{Password: req.Password}); err != nil {
		writeIdentityError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Password updated",
	})
}

// UploadAvatar handles POST /api/v1/users/me/avatar - multipart field "avatar"
func UploadAvatar(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	storage := services.GetObjectStorage()
	if storage == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse("STORAGE_UNAVAILABLE", "File storage is not configured"))
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("MISSING_FILE", "An avatar file is required"))
		return
	}

	avatars := services.NewAvatarService(storage)
	key, err := avatars.Upload(c.Request.Context(), user.ID, fileHeader)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			c.JSON(http.StatusBadRequest, errorResponse(uploadErr.Code, uploadErr.Message))
			return
		}
		config.GetLogger().Error("Avatar upload failed", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("UPLOAD_ERROR", "Failed to upload avatar"))
		return
	}

	previousKey := ""
	if user.AvatarS3Key != nil {
		previousKey = *user.AvatarS3Key
	}

	db := config.GetDB().WithContext(c.Request.Context())
	if err := db.Model(user).Update("avatar_s3_key", key).Error; err != nil {
		_ = avatars.Delete(c.Request.Context(), key)
		c.JSON(http.StatusInternalServerError, errorResponse("DATABASE_ERROR", "Failed to save avatar"))
		return
	}
	if previousKey != "" && previousKey != key {
		if err := avatars.Delete(c.Request.Context(), previousKey); err != nil {
			config.GetLogger().Warn("Failed to delete previous avatar", zap.String("key", previousKey), zap.Error(err))
		}
	}

	url, err := avatars.URL(c.Request.Context(), key)
	if err != nil {
		config.GetLogger().Error("Avatar URL generation failed", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("UPLOAD_ERROR", "Failed to generate avatar URL"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"avatar_url": url,
		},
	})
}

// CreateUserWebhook handles POST /api/v1/create-user-webhook for provisioning systems
func CreateUserWebhook(c *gin.Context) {
	var req services.ProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	provisioner := services.NewUserProvisioner(config.GetDB(), services.GetIdentityManager(), config.GetLogger())
	result, err := provisioner.Provision(c.Request.Context(), req)
	if err != nil {
		var validationErr *utils.ValidationError
		switch {
		case errors.As(err, &validationErr):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": validationErr.Message})
		case errors.Is(err, services.ErrUserAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "User already exists"})
		case errors.Is(err, services.ErrIdentityNotConfigured):
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		default:
			config.GetLogger().Error("User provisioning failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Failed to create user"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"user_id":  result.UserID,
		"email":    result.Email,
		"password": result.Password,
	})
}

// withAvatarURL replaces the stored picture with a fresh presigned URL when an
// uploaded avatar exists. The URL is never persisted.
func withAvatarURL(c *gin.Context, user *models.User) {
	if user.AvatarS3Key == nil || *user.AvatarS3Key == "" {
		return
	}
	storage := services.GetObjectStorage()
	if storage == nil {
		return
	}

	url, err := services.NewAvatarService(storage).URL(c.Request.Context(), *user.AvatarS3Key)
	if err != nil {
		config.GetLogger().Warn("Avatar URL generation failed", zap.Uint("user_id", user.ID), zap.Error(err))
		return
	}
	user.AvatarURL = url
}

func writeIdentityError(c *gin.Context, err error) {
	config.GetLogger().Error("Identity provider update failed", zap.Error(err))
	if errors.Is(err, services.ErrIdentityNotConfigured) {
		c.JSON(http.StatusServiceUnavailable, errorResponse("IDENTITY_NOT_CONFIGURED", "Account changes are temporarily unavailable"))
		return
	}
	c.JSON(http.StatusBadGateway, errorResponse("AUTH0_ERROR", "Failed to update account at Auth0"))
}
