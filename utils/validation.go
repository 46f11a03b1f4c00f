package utils

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxEmailLength is the longest email accepted after normalization
	MaxEmailLength = 255
	// MinPasswordLength is the shortest password the Identity Provider accepts
	MinPasswordLength = 6
	// GeneratedPasswordLength is the length of passwords created for provisioned users
	GeneratedPasswordLength = 12
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError represents a user-facing input validation error
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NormalizeEmail trims, lower-cases, strips angle brackets and caps the length of an email
func NormalizeEmail(raw string) string {
	email := strings.TrimSpace(raw)
	email = strings.NewReplacer("<", "", ">", "").Replace(email)
	email = strings.ToLower(strings.TrimSpace(email))
	if len(email) > MaxEmailLength {
		email = email[:MaxEmailLength]
		for !utf8.ValidString(email) {
			email = email[:len(email)-1]
		}
	}
	return email
}

// IsValidEmail reports whether email looks like an address
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidateEmail normalizes raw and returns it, or a ValidationError when it is not an address
func ValidateEmail(raw string) (string, error) {
	email := NormalizeEmail(raw)
	if email == "" {
		return "", &ValidationError{Code: "MISSING_EMAIL", Message: "Email is required"}
	}
	if !IsValidEmail(email) {
		return "", &ValidationError{Code: "INVALID_EMAIL", Message: "Email format is invalid"}
	}
	return email, nil
}

// ValidatePassword checks the minimum password length
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return &ValidationError{
			Code:    "PASSWORD_TOO_SHORT",
			Message: "Password must be at least 6 characters",
		}
	}
	return nil
}

const passwordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789!@#$%"

// GeneratePassword returns a random password of the given length
func GeneratePassword(length int) (string, error) {
	max := big.NewInt(int64(len(passwordAlphabet)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(passwordAlphabet[n.Int64()])
	}
	return b.String(), nil
}
