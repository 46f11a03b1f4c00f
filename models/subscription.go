package models

import "time"

// Subscription status values
const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	SubscriptionPending   = "pending"
)

// Subscription is the local copy of a subscriber's payment-provider state.
// UserEmail is the canonical key; UserID is backfilled once the user is known.
type Subscription struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	UserID              *uint      `gorm:"index" json:"user_id"`
	UserEmail           string     `gorm:"not null;index" json:"user_email"`
	Status              string     `gorm:"not null;default:'pending';index" json:"status"`
	CaktoSubscriptionID *string    `json:"cakto_subscription_id"`
	CaktoOrderID        *string    `json:"cakto_order_id"`
	ExpiresAt           *time.Time `json:"expires_at"`
	StartedAt           *time.Time `json:"started_at"`
	CancelledAt         *time.Time `json:"cancelled_at"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the Subscription model
func (Subscription) TableName() string {
	return "subscriptions"
}
