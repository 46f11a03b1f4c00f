package services

import (
	"context"
	"fmt"
	"time"

	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/models"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/utils"
	"gorm.io/gorm"
)

// DefaultSubscriptionPeriod is used when the provider does not tell us when access ends
const DefaultSubscriptionPeriod = 30 * 24 * time.Hour

// ActivateParams describes a confirmed payment for an email
type ActivateParams struct {
	Email               string
	UserID              *uint
	CaktoSubscriptionID string
	CaktoOrderID        string
	ExpiresAt           *time.Time
}

// SubscriptionStore is the local copy of subscription state, keyed by normalized email
type SubscriptionStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSubscriptionStore creates a store over the given database
func NewSubscriptionStore(db *gorm.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db, now: time.Now}
}

// FindActive returns the most recently updated active row for an email, or nil when there is none.
// Rows past expires_at are still returned.
func (s *SubscriptionStore) FindActive(ctx context.Context, email string) (*models.Subscription, error) {
	var subs []models.Subscription
	err := s.db.WithContext(ctx).
		Where("user_email = ? AND status = ?", utils.NormalizeEmail(email), models.SubscriptionActive).
		Order("updated_at DESC").
		Limit(1).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil, nil
	}
	return &subs[0], nil
}

// Activate updates the existing active row for the email or inserts a new one.
// The boolean reports whether a row was created.
func (s *SubscriptionStore) Activate(ctx context.Context, p ActivateParams) (*models.Subscription, bool, error) {
	email := utils.NormalizeEmail(p.Email)
	now := s.now()

	expiresAt := now.Add(DefaultSubscriptionPeriod)
	if p.ExpiresAt != nil && p.ExpiresAt.After(now) {
		expiresAt = *p.ExpiresAt
	}

	existing, err := s.FindActive(ctx, email)
	if err != nil {
		return nil, false, err
	}

	db := s.db.WithContext(ctx)
	if existing != nil {
		existing.ExpiresAt = &expiresAt
		if p.CaktoSubscriptionID != "" {
			existing.CaktoSubscriptionID = &p.CaktoSubscriptionID
		}
		if p.CaktoOrderID != "" {
			existing.CaktoOrderID = &p.CaktoOrderID
		}
		if existing.UserID == nil && p.UserID != nil {
			existing.UserID = p.UserID
		}
		if err := db.Save(existing).Error; err != nil {
			return nil, false, fmt.Errorf("failed to update subscription: %w", err)
		}
		return existing, false, nil
	}

	sub := models.Subscription{
		UserID:    p.UserID,
		UserEmail: email,
		Status:    models.SubscriptionActive,
		StartedAt: &now,
		ExpiresAt: &expiresAt,
	}
	if p.CaktoSubscriptionID != "" {
		sub.CaktoSubscriptionID = &p.CaktoSubscriptionID
	}
	if p.CaktoOrderID != "" {
		sub.CaktoOrderID = &p.CaktoOrderID
	}
	if err := db.Create(&sub).Error; err != nil {
		return nil, false, fmt.Errorf("failed to create subscription: %w", err)
	}
	return &sub, true, nil
}

// Cancel marks every active row for the email cancelled and returns how many changed.
// Zero rows is not an error.
func (s *SubscriptionStore) Cancel(ctx context.Context, email string) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("user_email = ? AND status = ?", utils.NormalizeEmail(email), models.SubscriptionActive).
		Updates(map[string]interface{}{
			"status":       models.SubscriptionCancelled,
			"cancelled_at": s.now(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to cancel subscriptions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// CountActive returns the number of active rows
func (s *SubscriptionStore) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("status = ?", models.SubscriptionActive).
		Count(&count).Error
	return count, err
}

// UserIDForEmail returns the id of the local user with that email, or nil when unknown
func (s *SubscriptionStore) UserIDForEmail(ctx context.Context, email string) *uint {
	var users []models.User
	if err := s.db.WithContext(ctx).
		Where("email = ?", utils.NormalizeEmail(email)).
		Limit(1).
		Find(&users).Error; err != nil || len(users) == 0 {
		return nil
	}
	return &users[0].ID
}
