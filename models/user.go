package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account known to the Identity Provider
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Auth0ID      *string        `gorm:"uniqueIndex" json:"auth0_id,omitempty"` // nil until the first login links a provisioned user
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`    // always normalized (lower-cased)
	FullName     string         `json:"full_name"`
	AvatarURL    string         `json:"avatar_url"` // identity provider picture; responses swap in a presigned URL when AvatarS3Key is set
	AvatarS3Key  *string        `json:"-"`
	LastSignInAt *time.Time     `json:"last_sign_in_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// RoleAdmin is the only role label the application checks
const RoleAdmin = "admin"

// UserRole assigns a role label to a user
type UserRole struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_role" json:"user_id"`
	Role      string    `gorm:"not null;uniqueIndex:idx_user_role" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the UserRole model
func (UserRole) TableName() string {
	return "user_roles"
}
