package models

// All returns every model managed by AutoMigrate
func All() []interface{} {
	return []interface{}{
		&User{},
		&UserRole{},
		&Subscription{},
		&SupportMessage{},
		&QuizResponse{},
	}
}
