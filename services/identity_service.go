package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/models"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// IdentityService maps Auth0 subjects onto local users and their roles
type IdentityService struct {
	db       *gorm.DB
	userInfo UserInfoFetcher
	logger   *zap.Logger
	now      func() time.Time
}

// NewIdentityService creates a new identity service
func NewIdentityService(db *gorm.DB, userInfo UserInfoFetcher, logger *zap.Logger) *IdentityService {
	return &IdentityService{
		db:       db,
		userInfo: userInfo,
		logger:   logger,
		now:      time.Now,
	}
}

// Resolve returns the local user for an authenticated subject. Unknown subjects are
// looked up at /userinfo and linked to an existing user with the same email or created.
func (s *IdentityService) Resolve(ctx context.Context, subject, accessToken string) (*models.User, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	err := db.Where("auth0_id = ?", subject).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		linked, err := s.link(ctx, subject, accessToken)
		if err != nil {
			return nil, err
		}
		user = *linked
	}

	now := s.now()
	if err := db.Model(&user).Update("last_sign_in_at", now).Error; err != nil {
		s.logger.Warn("Failed to record sign-in", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	user.LastSignInAt = &now

	s.BackfillSubscriptions(ctx, &user)
	return &user, nil
}

func (s *IdentityService) link(ctx context.Context, subject, accessToken string) (*models.User, error) {
	if s.userInfo == nil {
		return nil, ErrIdentityNotConfigured
	}
	info, err := s.userInfo.GetUserInfo(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	email := utils.NormalizeEmail(info.Email)
	if !utils.IsValidEmail(email) {
		return nil, fmt.Errorf("%w: identity provider returned no usable email", ErrUserNotFound)
	}

	db := s.db.WithContext(ctx)
	var user models.User
	err = db.Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		user.Auth0ID = &subject
		if user.FullName == "" {
			user.FullName = info.Name
		}
		if err := db.Save(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to link user: %w", err)
		}
		s.logger.Info("Linked existing user to identity", zap.Uint("user_id", user.ID), zap.String("subject", subject))
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			Auth0ID:   &subject,
			Email:     email,
			FullName:  info.Name,
			AvatarURL: info.Picture,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		s.logger.Info("Created user from identity", zap.Uint("user_id", user.ID), zap.String("subject", subject))
	default:
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}

	return &user, nil
}

// BackfillSubscriptions attaches the user's id to subscription rows known only by email
func (s *IdentityService) BackfillSubscriptions(ctx context.Context, user *models.User) {
	result := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("user_email = ? AND user_id IS NULL", user.Email).
		Update("user_id", user.ID)
	if result.Error != nil {
		s.logger.Warn("Failed to backfill subscriptions", zap.Uint("user_id", user.ID), zap.Error(result.Error))
		return
	}
	if result.RowsAffected > 0 {
		s.logger.Info("Backfilled subscriptions", zap.Uint("user_id", user.ID), zap.Int64("rows", result.RowsAffected))
	}
}

// IsAdminSubject reports whether the user linked to an Auth0 subject holds the admin role
func (s *IdentityService) IsAdminSubject(ctx context.Context, subject string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.UserRole{}).
		Joins("JOIN users ON users.id = user_roles.user_id").
		Where("users.auth0_id = ? AND users.deleted_at IS NULL AND user_roles.role = ?", subject, models.RoleAdmin).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up roles: %w", err)
	}
	return count > 0, nil
}

// IsAdmin reports whether a local user holds the admin role
func (s *IdentityService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.UserRole{}).
		Where("user_id = ? AND role = ?", userID, models.RoleAdmin).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up roles: %w", err)
	}
	return count > 0, nil
}
