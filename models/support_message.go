package models

import "time"

// Support message status values; closed is terminal
const (
	SupportPending = "pending"
	SupportRead    = "read"
	SupportReplied = "replied"
	SupportClosed  = "closed"
)

// SupportMessage is a help request sent by a user and answered by an admin
type SupportMessage struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	UserEmail  string     `gorm:"not null" json:"user_email"`
	Subject    string     `gorm:"not null" json:"subject"`
	Message    string     `gorm:"type:text;not null" json:"message"`
	Status     string     `gorm:"not null;default:'pending';index" json:"status"`
	AdminReply *string    `gorm:"type:text" json:"admin_reply"`
	RepliedAt  *time.Time `json:"replied_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the SupportMessage model
func (SupportMessage) TableName() string {
	return "support_messages"
}

// IsClosed reports whether the message reached its terminal state
func (m SupportMessage) IsClosed() bool {
	return m.Status == SupportClosed
}
