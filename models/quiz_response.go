package models

import "time"

// QuizResponse stores the onboarding quiz answers, at most one per user
type QuizResponse struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	UserEmail        string    `gorm:"not null" json:"user_email"`
	Goal             *string   `json:"goal"`
	StudyTime        *string   `json:"study_time"`
	BiggestChallenge *string   `json:"biggest_challenge"`
	Skipped          bool      `gorm:"not null;default:false" json:"skipped"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName specifies the table name for the QuizResponse model
func (QuizResponse) TableName() string {
	return "quiz_responses"
}
