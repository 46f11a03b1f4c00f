package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/models"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProvisionRequest is the create-user-webhook body
type ProvisionRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// ProvisionedUser is returned to the caller, including the password so it can be delivered
type ProvisionedUser struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserProvisioner creates accounts on behalf of external systems (e.g. after a purchase)
type UserProvisioner struct {
	db       *gorm.DB
	manager  IdentityManager
	identity *IdentityService
	logger   *zap.Logger
}

// NewUserProvisioner creates a provisioner
func NewUserProvisioner(db *gorm.DB, manager IdentityManager, logger *zap.Logger) *UserProvisioner {
	return &UserProvisioner{
		db:       db,
		manager:  manager,
		identity: NewIdentityService(db, nil, logger),
		logger:   logger,
	}
}

// Provision creates the identity-provider account and the local user
func (p *UserProvisioner) Provision(ctx context.Context, req ProvisionRequest) (*ProvisionedUser, error) {
	email, err := utils.ValidateEmail(req.Email)
	if err != nil {
		return nil, err
	}

	password := req.Password
	if password == "" {
		password, err = utils.GeneratePassword(utils.GeneratedPasswordLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate password: %w", err)
		}
	} else if err := utils.ValidatePassword(password); err != nil {
		return nil, err
	}

	created, err := p.manager.CreateUser(ctx, email, req.Name, password)
	if err != nil {
		return nil, err
	}

	user, err := p.upsertLocal(ctx, email, req.Name, created.UserID)
	if err != nil {
		return nil, err
	}
	p.identity.BackfillSubscriptions(ctx, user)

	p.logger.Info("Provisioned user", zap.String("email", email), zap.String("subject", created.UserID))
	return &ProvisionedUser{UserID: created.UserID, Email: email, Password: password}, nil
}

func (p *UserProvisioner) upsertLocal(ctx context.Context, email, name, subject string) (*models.User, error) {
	db := p.db.WithContext(ctx)

	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{Email: email, FullName: name}
		if subject != "" {
			user.Auth0ID = &subject
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create local user: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to look up local user: %w", err)
	default:
		if user.Auth0ID == nil && subject != "" {
			user.Auth0ID = &subject
		}
		if user.FullName == "" {
			user.FullName = name
		}
		if err := db.Save(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to update local user: %w", err)
		}
	}
	return &user, nil
}
