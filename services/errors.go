package services

import "errors"

var (
	// ErrNoActiveSubscription is returned when a cancel finds nothing to cancel
	ErrNoActiveSubscription = errors.New("no active subscription")
	// ErrProviderNotConfigured means the payment provider credentials are missing
	ErrProviderNotConfigured = errors.New("payment provider is not configured")
	// ErrProviderUnavailable wraps a failed call to the payment provider
	ErrProviderUnavailable = errors.New("payment provider request failed")
	// ErrInvalidSignature is returned for webhook deliveries that fail HMAC verification
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrAIGatewayNotConfigured means the AI gateway API key is missing
	ErrAIGatewayNotConfigured = errors.New("AI gateway is not configured")
	// ErrAIGatewayUnavailable wraps a failed call to the AI gateway
	ErrAIGatewayUnavailable = errors.New("AI gateway request failed")
	// ErrIdentityNotConfigured means the Auth0 Management API credentials are missing
	ErrIdentityNotConfigured = errors.New("identity provider management API is not configured")
	// ErrIdentityUnavailable wraps a failed call to the identity provider
	ErrIdentityUnavailable = errors.New("identity provider request failed")
	// ErrUserAlreadyExists is returned when provisioning an email that is already registered
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound is returned when the caller has no resolvable profile
	ErrUserNotFound = errors.New("user not found")
)
