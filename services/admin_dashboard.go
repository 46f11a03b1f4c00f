package services

import (
	"context"
	"fmt"
	"time"

	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/models"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// dashboardSubscriptionLimit caps how many provider subscriptions are joined
const dashboardSubscriptionLimit = 100

// DashboardUser is one row of the admin user list
type DashboardUser struct {
	ID                 uint       `json:"id"`
	Email              string     `json:"email"`
	FullName           string     `json:"full_name"`
	CreatedAt          time.Time  `json:"created_at"`
	LastSignInAt       *time.Time `json:"last_sign_in_at"`
	HasSubscription    bool       `json:"has_subscription"`
	SubscriptionStatus string     `json:"subscription_status,omitempty"`
	SubscriptionID     string     `json:"subscription_id,omitempty"`
	NextPayment        *time.Time `json:"next_payment"`
}

// Dashboard is the admin-dashboard response
type Dashboard struct {
	Users              []DashboardUser `json:"users"`
	TotalUsers         int             `json:"total_users"`
	TotalSubscriptions int             `json:"total_subscriptions"`
}

// AdminDashboard joins local users with active provider subscriptions
type AdminDashboard struct {
	db       *gorm.DB
	provider PaymentProvider
	logger   *zap.Logger
}

// NewAdminDashboard creates a dashboard aggregator
func NewAdminDashboard(db *gorm.DB, provider PaymentProvider, logger *zap.Logger) *AdminDashboard {
	return &AdminDashboard{db: db, provider: provider, logger: logger}
}

// Build lists every user. A provider failure yields zero subscriptions instead of an error.
func (d *AdminDashboard) Build(ctx context.Context) (*Dashboard, error) {
	var users []models.User
	if err := d.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	subs, err := d.provider.ListSubscriptions(ctx, ListQuery{Status: "active", Limit: dashboardSubscriptionLimit})
	if err != nil {
		d.logger.Warn("Could not load provider subscriptions for dashboard", zap.Error(err))
		subs = nil
	}

	byEmail := make(map[string]CaktoSubscription, len(subs))
	for _, s := range subs {
		email := utils.NormalizeEmail(s.Email())
		if email == "" {
			continue
		}
		if _, seen := byEmail[email]; !seen {
			byEmail[email] = s
		}
	}

	rows := make([]DashboardUser, 0, len(users))
	for _, u := range users {
		row := DashboardUser{
			ID:           u.ID,
			Email:        u.Email,
			FullName:     u.FullName,
			CreatedAt:    u.CreatedAt,
			LastSignInAt: u.LastSignInAt,
		}
		if s, ok := byEmail[utils.NormalizeEmail(u.Email)]; ok {
			row.HasSubscription = true
			row.SubscriptionStatus = s.Status
			row.SubscriptionID = string(s.ID)
			row.NextPayment = s.PeriodEnd()
		}
		rows = append(rows, row)
	}

	return &Dashboard{
		Users:              rows,
		TotalUsers:         len(rows),
		TotalSubscriptions: len(subs),
	}, nil
}
